package repository

import (
	"context"
	"time"

	"palco/internal/domain/user"
	"palco/internal/infra"
	"palco/internal/infra/db"
	"palco/internal/pkg/geo"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `
	id, name, email, role, account_status, suspension_start, suspension_days,
	plan_tier, verified, completed_bookings, average_rating,
	base_lat, base_lng, created_at, updated_at`

type UserRepository struct{}

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

func (r *UserRepository) FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*user.User, error) {
	row := dbtx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find user", err)
	}
	return u, nil
}

func (r *UserRepository) UpdateAccountStatus(
	ctx context.Context,
	dbtx db.DBTX,
	id uuid.UUID,
	status user.AccountStatus,
	suspensionStart *time.Time,
	suspensionDays int,
	now time.Time,
) error {
	tag, err := dbtx.Exec(ctx, `
		UPDATE users
		SET account_status = $2, suspension_start = $3, suspension_days = $4, updated_at = $5
		WHERE id = $1
	`, id, string(status), suspensionStart, suspensionDays, now)
	if err != nil {
		return infra.WrapRepoErr("failed to update account status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindNotFound, "user not found")
	}
	return nil
}

// IncrementCompleted bumps the artist's completion counter when a booking
// reaches CONCLUIDO.
func (r *UserRepository) IncrementCompleted(ctx context.Context, dbtx db.DBTX, id uuid.UUID, now time.Time) error {
	_, err := dbtx.Exec(ctx, `
		UPDATE users SET completed_bookings = completed_bookings + 1, updated_at = $2
		WHERE id = $1
	`, id, now)
	if err != nil {
		return infra.WrapRepoErr("failed to increment completed bookings", err)
	}
	return nil
}

// ReactivateExpiredSuspensions lifts suspensions whose term has elapsed.
func (r *UserRepository) ReactivateExpiredSuspensions(ctx context.Context, dbtx db.DBTX, now time.Time) (int64, error) {
	tag, err := dbtx.Exec(ctx, `
		UPDATE users
		SET account_status = 'ATIVO', suspension_start = NULL, suspension_days = 0, updated_at = $1
		WHERE account_status = 'SUSPENSO'
		  AND suspension_start + make_interval(days => suspension_days) <= $1
	`, now)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to reactivate suspended users", err)
	}
	return tag.RowsAffected(), nil
}

func scanUser(row pgx.Row) (*user.User, error) {
	var (
		id                uuid.UUID
		name, email       string
		role, status      string
		suspensionStart   *time.Time
		suspensionDays    int
		planTier          string
		verified          bool
		completedBookings int
		averageRating     float64
		baseLat, baseLng  *float64
		createdAt         time.Time
		updatedAt         time.Time
	)

	err := row.Scan(
		&id, &name, &email, &role, &status, &suspensionStart, &suspensionDays,
		&planTier, &verified, &completedBookings, &averageRating,
		&baseLat, &baseLng, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	var coords *geo.Coordinates
	if baseLat != nil && baseLng != nil {
		coords = &geo.Coordinates{Latitude: *baseLat, Longitude: *baseLng}
	}

	return user.ReconstructUser(
		id, name, email,
		user.Role(role),
		user.AccountStatus(status),
		suspensionStart, suspensionDays,
		user.PlanTier(planTier),
		verified, completedBookings, averageRating,
		coords,
		createdAt, updatedAt,
	), nil
}

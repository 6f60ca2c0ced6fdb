package repository

import (
	"context"
	"time"

	"palco/internal/domain/presence"
	"palco/internal/infra"
	"palco/internal/infra/db"
	"palco/internal/pkg/geo"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const presenceColumns = `
	id, booking_id, kind, lat, lng, photo_url, distance_meters,
	within_window, confidence_score, approval_status, approved_by,
	rejection_reason, created_at, resolved_at`

type PresenceRepository struct{}

func NewPresenceRepository() *PresenceRepository {
	return &PresenceRepository{}
}

// Create relies on the partial unique index over (booking_id, kind) where
// approval_status <> 'REJECTED': a rejected claim does not block a retry,
// but two live claims of the same kind collide as DUPLICATE_KEY.
func (r *PresenceRepository) Create(ctx context.Context, dbtx db.DBTX, e *presence.PresenceEvent) error {
	var lat, lng *float64
	if c := e.Coordinates(); c != nil {
		lat, lng = &c.Latitude, &c.Longitude
	}

	_, err := dbtx.Exec(ctx, `
		INSERT INTO presence_events (
			id, booking_id, kind, lat, lng, photo_url, distance_meters,
			within_window, confidence_score, approval_status, approved_by,
			rejection_reason, created_at, resolved_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		e.ID(), e.BookingID(), string(e.Kind()), lat, lng, e.PhotoURL(), e.DistanceMeters(),
		e.WithinWindow(), e.ConfidenceScore(), string(e.ApprovalStatus()), e.ApprovedBy(),
		e.RejectionReason(), e.CreatedAt(), e.ResolvedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create presence event", err)
	}
	return nil
}

func (r *PresenceRepository) FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*presence.PresenceEvent, error) {
	row := dbtx.QueryRow(ctx, `SELECT `+presenceColumns+` FROM presence_events WHERE id = $1`, id)
	e, err := scanPresence(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find presence event", err)
	}
	return e, nil
}

// FindLatestByBookingAndKind returns the newest non-rejected claim, which is
// the only one lifecycle decisions act on.
func (r *PresenceRepository) FindLatestByBookingAndKind(
	ctx context.Context,
	dbtx db.DBTX,
	bookingID uuid.UUID,
	kind presence.Kind,
) (*presence.PresenceEvent, error) {
	row := dbtx.QueryRow(ctx, `
		SELECT `+presenceColumns+`
		FROM presence_events
		WHERE booking_id = $1 AND kind = $2 AND approval_status <> 'REJECTED'
		ORDER BY created_at DESC
		LIMIT 1
	`, bookingID, string(kind))
	e, err := scanPresence(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find presence event", err)
	}
	return e, nil
}

func (r *PresenceRepository) ListByBooking(ctx context.Context, dbtx db.DBTX, bookingID uuid.UUID) ([]*presence.PresenceEvent, error) {
	rows, err := dbtx.Query(ctx, `
		SELECT `+presenceColumns+`
		FROM presence_events
		WHERE booking_id = $1
		ORDER BY created_at ASC
	`, bookingID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list presence events", err)
	}
	defer rows.Close()

	var result []*presence.PresenceEvent
	for rows.Next() {
		e, err := scanPresence(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan presence event", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// UpdateApprovalGuarded resolves a PENDING claim. Zero rows means someone
// else resolved it first.
func (r *PresenceRepository) UpdateApprovalGuarded(
	ctx context.Context,
	dbtx db.DBTX,
	id uuid.UUID,
	next presence.ApprovalStatus,
	approvedBy *uuid.UUID,
	rejectionReason string,
	now time.Time,
) error {
	tag, err := dbtx.Exec(ctx, `
		UPDATE presence_events
		SET approval_status = $2, approved_by = $3, rejection_reason = $4, resolved_at = $5
		WHERE id = $1 AND approval_status = 'PENDING'
	`, id, string(next), approvedBy, rejectionReason, now)
	if err != nil {
		return infra.WrapRepoErr("failed to resolve presence event", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindConflict, "presence event already resolved")
	}
	return nil
}

// ListStalePendingArrivals returns PENDING arrivals whose contestation window
// closed before the cutoff.
func (r *PresenceRepository) ListStalePendingArrivals(ctx context.Context, dbtx db.DBTX, cutoff time.Time) ([]*presence.PresenceEvent, error) {
	rows, err := dbtx.Query(ctx, `
		SELECT `+presenceColumns+`
		FROM presence_events
		WHERE kind = 'ARRIVAL' AND approval_status = 'PENDING' AND created_at <= $1
		ORDER BY created_at ASC
	`, cutoff)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list stale pending arrivals", err)
	}
	defer rows.Close()

	var result []*presence.PresenceEvent
	for rows.Next() {
		e, err := scanPresence(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan presence event", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func scanPresence(row pgx.Row) (*presence.PresenceEvent, error) {
	var (
		id, bookingID             uuid.UUID
		kind, approvalStatus      string
		lat, lng, distanceMeters  *float64
		photoURL, rejectionReason string
		withinWindow              bool
		confidenceScore           int
		approvedBy                *uuid.UUID
		createdAt                 time.Time
		resolvedAt                *time.Time
	)

	err := row.Scan(
		&id, &bookingID, &kind, &lat, &lng, &photoURL, &distanceMeters,
		&withinWindow, &confidenceScore, &approvalStatus, &approvedBy,
		&rejectionReason, &createdAt, &resolvedAt,
	)
	if err != nil {
		return nil, err
	}

	var coords *geo.Coordinates
	if lat != nil && lng != nil {
		coords = &geo.Coordinates{Latitude: *lat, Longitude: *lng}
	}

	return presence.ReconstructPresenceEvent(
		id, bookingID,
		presence.Kind(kind),
		coords,
		photoURL,
		distanceMeters,
		withinWindow,
		confidenceScore,
		presence.ApprovalStatus(approvalStatus),
		approvedBy,
		rejectionReason,
		createdAt,
		resolvedAt,
	), nil
}

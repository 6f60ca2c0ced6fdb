package repository

import (
	"context"
	"time"

	"palco/internal/domain/booking"
	"palco/internal/domain/user"
	"palco/internal/infra"
	"palco/internal/infra/db"
	"palco/internal/pkg/geo"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const bookingColumns = `
	id, requester_id, artist_id, event_start, duration_minutes,
	location_label, location_lat, location_lng,
	artist_value_cents, platform_fee_cents, total_cents, fee_tier,
	status, payment_status, travel_distance_km,
	advance_eligible, advance_reason,
	cancellation_fee_cents, cancel_reason,
	created_at, updated_at,
	accepted_at, confirmed_at, started_at, completed_at, canceled_at`

// transitionColumn maps a target status to the timestamp column it stamps.
var transitionColumn = map[booking.Status]string{
	booking.StatusAccepted:   "accepted_at",
	booking.StatusConfirmed:  "confirmed_at",
	booking.StatusInProgress: "started_at",
	booking.StatusCompleted:  "completed_at",
	booking.StatusCanceled:   "canceled_at",
}

type BookingRepository struct{}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{}
}

func (r *BookingRepository) Create(ctx context.Context, dbtx db.DBTX, b *booking.Booking) error {
	var lat, lng *float64
	if c := b.Location().Coordinates(); c != nil {
		lat, lng = &c.Latitude, &c.Longitude
	}

	_, err := dbtx.Exec(ctx, `
		INSERT INTO bookings (
			id, requester_id, artist_id, event_start, duration_minutes,
			location_label, location_lat, location_lng,
			artist_value_cents, platform_fee_cents, total_cents, fee_tier,
			status, payment_status, travel_distance_km,
			advance_eligible, advance_reason,
			cancellation_fee_cents, cancel_reason, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
	`,
		b.ID(), b.RequesterID(), b.ArtistID(),
		b.Schedule().Start(), int(b.Schedule().Duration().Minutes()),
		b.Location().Label(), lat, lng,
		b.ArtistValue().Cents(), b.PlatformFee().Cents(), b.Total().Cents(), string(b.FeeTier()),
		b.Status().String(), b.PaymentStatus().String(), b.TravelDistanceKm(),
		b.AdvanceEligible(), b.AdvanceReason(),
		b.CancellationFee().Cents(), b.CancelReason(), b.CreatedAt(), b.UpdatedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create booking", err)
	}
	return nil
}

func (r *BookingRepository) FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*booking.Booking, error) {
	row := dbtx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find booking", err)
	}
	return b, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, dbtx db.DBTX, userID uuid.UUID) ([]*booking.Booking, error) {
	rows, err := dbtx.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE requester_id = $1 OR artist_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list bookings", err)
	}
	defer rows.Close()

	var result []*booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking", err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// UpdateStatusGuarded is the single CAS primitive every transition goes
// through: the write only lands when the current status is still in the
// expected set, so racing writers lose with a conflict instead of clobbering.
func (r *BookingRepository) UpdateStatusGuarded(
	ctx context.Context,
	dbtx db.DBTX,
	id uuid.UUID,
	expected []booking.Status,
	next booking.Status,
	now time.Time,
) error {
	query := `UPDATE bookings SET status = $2, updated_at = $3`
	if col, ok := transitionColumn[next]; ok {
		query += `, ` + col + ` = $3`
	}
	query += ` WHERE id = $1 AND status = ANY($4)`

	tag, err := dbtx.Exec(ctx, query, id, next.String(), now, statusStrings(expected))
	if err != nil {
		return infra.WrapRepoErr("failed to update booking status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindConflict, "booking status changed concurrently")
	}
	return nil
}

// AcceptWithValue applies a counter-offer and the PENDENTE transition in one
// guarded write.
func (r *BookingRepository) AcceptWithValue(
	ctx context.Context,
	dbtx db.DBTX,
	id uuid.UUID,
	next booking.Status,
	valueCents, feeCents, totalCents int64,
	tier user.PlanTier,
	now time.Time,
) error {
	col := transitionColumn[next]
	tag, err := dbtx.Exec(ctx, `
		UPDATE bookings
		SET status = $2, artist_value_cents = $3, platform_fee_cents = $4,
		    total_cents = $5, fee_tier = $6, updated_at = $7, `+col+` = $7
		WHERE id = $1 AND status = 'PENDENTE'
	`, id, next.String(), valueCents, feeCents, totalCents, string(tier), now)
	if err != nil {
		return infra.WrapRepoErr("failed to accept booking", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindConflict, "booking is no longer pending")
	}
	return nil
}

func (r *BookingRepository) CancelGuarded(
	ctx context.Context,
	dbtx db.DBTX,
	id uuid.UUID,
	expected []booking.Status,
	feeCents int64,
	reason string,
	now time.Time,
) error {
	tag, err := dbtx.Exec(ctx, `
		UPDATE bookings
		SET status = 'CANCELADO', cancellation_fee_cents = $2, cancel_reason = $3,
		    canceled_at = $4, updated_at = $4
		WHERE id = $1 AND status = ANY($5)
	`, id, feeCents, reason, now, statusStrings(expected))
	if err != nil {
		return infra.WrapRepoErr("failed to cancel booking", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindConflict, "booking status changed concurrently")
	}
	return nil
}

func (r *BookingRepository) UpdatePaymentStatus(
	ctx context.Context,
	dbtx db.DBTX,
	id uuid.UUID,
	ps booking.PaymentStatus,
	now time.Time,
) error {
	tag, err := dbtx.Exec(ctx, `
		UPDATE bookings SET payment_status = $2, updated_at = $3 WHERE id = $1
	`, id, ps.String(), now)
	if err != nil {
		return infra.WrapRepoErr("failed to update payment status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindNotFound, "booking not found")
	}
	return nil
}

func (r *BookingRepository) UpdateAdvanceEligibility(
	ctx context.Context,
	dbtx db.DBTX,
	id uuid.UUID,
	eligible bool,
	reason string,
	now time.Time,
) error {
	_, err := dbtx.Exec(ctx, `
		UPDATE bookings SET advance_eligible = $2, advance_reason = $3, updated_at = $4
		WHERE id = $1
	`, id, eligible, reason, now)
	if err != nil {
		return infra.WrapRepoErr("failed to update advance eligibility", err)
	}
	return nil
}

// FindOverrun returns EM_ANDAMENTO bookings whose scheduled end plus the
// grace period has already elapsed.
func (r *BookingRepository) FindOverrun(ctx context.Context, dbtx db.DBTX, now time.Time, grace time.Duration) ([]*booking.Booking, error) {
	rows, err := dbtx.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE status = 'EM_ANDAMENTO'
		  AND event_start + make_interval(mins => duration_minutes) + $2::interval <= $1
	`, now, grace)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find overrun bookings", err)
	}
	defer rows.Close()

	var result []*booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking", err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func statusStrings(statuses []booking.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = s.String()
	}
	return out
}

func scanBooking(row pgx.Row) (*booking.Booking, error) {
	var (
		id, requesterID, artistID                       uuid.UUID
		eventStart                                      time.Time
		durationMinutes                                 int
		label                                           string
		lat, lng, travelKm                              *float64
		valueCents, feeCents, totalCents, cancelCents   int64
		feeTier, status, paymentStatus                  string
		advanceEligible                                 bool
		advanceReason, cancelReason                     string
		createdAt, updatedAt                            time.Time
		acceptedAt, confirmedAt, startedAt              *time.Time
		completedAt, canceledAt                         *time.Time
	)

	err := row.Scan(
		&id, &requesterID, &artistID, &eventStart, &durationMinutes,
		&label, &lat, &lng,
		&valueCents, &feeCents, &totalCents, &feeTier,
		&status, &paymentStatus, &travelKm,
		&advanceEligible, &advanceReason,
		&cancelCents, &cancelReason,
		&createdAt, &updatedAt,
		&acceptedAt, &confirmedAt, &startedAt, &completedAt, &canceledAt,
	)
	if err != nil {
		return nil, err
	}

	var coords *geo.Coordinates
	if lat != nil && lng != nil {
		coords = &geo.Coordinates{Latitude: *lat, Longitude: *lng}
	}

	schedule, err := booking.NewEventSchedule(eventStart, time.Duration(durationMinutes)*time.Minute)
	if err != nil {
		return nil, err
	}

	return booking.ReconstructBooking(
		id, requesterID, artistID,
		schedule,
		booking.NewLocation(label, coords),
		booking.NewMoney(valueCents), booking.NewMoney(feeCents), booking.NewMoney(totalCents),
		user.PlanTier(feeTier),
		booking.Status(status),
		booking.PaymentStatus(paymentStatus),
		travelKm,
		advanceEligible, advanceReason,
		booking.NewMoney(cancelCents), cancelReason,
		createdAt, updatedAt,
		acceptedAt, confirmedAt, startedAt, completedAt, canceledAt,
	), nil
}

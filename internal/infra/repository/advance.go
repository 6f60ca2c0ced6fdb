package repository

import (
	"context"
	"time"

	"palco/internal/domain/advance"
	"palco/internal/infra"
	"palco/internal/infra/db"

	"github.com/google/uuid"
)

type AdvanceRepository struct{}

func NewAdvanceRepository() *AdvanceRepository {
	return &AdvanceRepository{}
}

// Create relies on the unique index over booking_id: a second advance for the
// same booking surfaces as DUPLICATE_KEY.
func (r *AdvanceRepository) Create(ctx context.Context, dbtx db.DBTX, a *advance.AdvancePayment) error {
	_, err := dbtx.Exec(ctx, `
		INSERT INTO advance_payments (
			id, booking_id, amount_cents, released_at, checkout_proof_id, created_at
		) VALUES ($1,$2,$3,$4,$5,$6)
	`, a.ID(), a.BookingID(), a.AmountCents(), a.ReleasedAt(), a.CheckoutProofID(), a.CreatedAt())
	if err != nil {
		return infra.WrapRepoErr("failed to create advance payment", err)
	}
	return nil
}

func (r *AdvanceRepository) FindByBookingID(ctx context.Context, dbtx db.DBTX, bookingID uuid.UUID) (*advance.AdvancePayment, error) {
	var (
		id, bID         uuid.UUID
		amountCents     int64
		releasedAt      *time.Time
		checkoutProofID *uuid.UUID
		createdAt       time.Time
	)
	err := dbtx.QueryRow(ctx, `
		SELECT id, booking_id, amount_cents, released_at, checkout_proof_id, created_at
		FROM advance_payments
		WHERE booking_id = $1
	`, bookingID).Scan(&id, &bID, &amountCents, &releasedAt, &checkoutProofID, &createdAt)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find advance payment", err)
	}
	return advance.ReconstructAdvancePayment(id, bID, amountCents, releasedAt, checkoutProofID, createdAt), nil
}

// Release stamps the disbursement exactly once. Zero rows means there is no
// unreleased advance, which callers treat as a no-op.
func (r *AdvanceRepository) Release(
	ctx context.Context,
	dbtx db.DBTX,
	bookingID uuid.UUID,
	checkoutProofID uuid.UUID,
	now time.Time,
) (bool, error) {
	tag, err := dbtx.Exec(ctx, `
		UPDATE advance_payments
		SET released_at = $2, checkout_proof_id = $3
		WHERE booking_id = $1 AND released_at IS NULL
	`, bookingID, now, checkoutProofID)
	if err != nil {
		return false, infra.WrapRepoErr("failed to release advance payment", err)
	}
	return tag.RowsAffected() > 0, nil
}

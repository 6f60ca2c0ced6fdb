package advance

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// AdvancePayment is the escrow-style 50% pre-event disbursement.
// At most one exists per booking; release happens at approved check-in.
type AdvancePayment struct {
	id              uuid.UUID
	bookingID       uuid.UUID
	amountCents     int64
	releasedAt      *time.Time
	checkoutProofID *uuid.UUID
	createdAt       time.Time
}

func NewAdvancePayment(bookingID uuid.UUID, artistValueCents int64, now time.Time) *AdvancePayment {
	return &AdvancePayment{
		id:          uuid.New(),
		bookingID:   bookingID,
		amountCents: int64(math.Round(float64(artistValueCents) * AdvancePct)),
		createdAt:   now,
	}
}

func (a *AdvancePayment) ID() uuid.UUID              { return a.id }
func (a *AdvancePayment) BookingID() uuid.UUID       { return a.bookingID }
func (a *AdvancePayment) AmountCents() int64         { return a.amountCents }
func (a *AdvancePayment) ReleasedAt() *time.Time     { return a.releasedAt }
func (a *AdvancePayment) CheckoutProofID() *uuid.UUID { return a.checkoutProofID }
func (a *AdvancePayment) CreatedAt() time.Time       { return a.createdAt }

func (a *AdvancePayment) IsReleased() bool {
	return a.releasedAt != nil
}

func ReconstructAdvancePayment(
	id, bookingID uuid.UUID,
	amountCents int64,
	releasedAt *time.Time,
	checkoutProofID *uuid.UUID,
	createdAt time.Time,
) *AdvancePayment {
	return &AdvancePayment{
		id:              id,
		bookingID:       bookingID,
		amountCents:     amountCents,
		releasedAt:      releasedAt,
		checkoutProofID: checkoutProofID,
		createdAt:       createdAt,
	}
}

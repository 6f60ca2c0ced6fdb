package response

import (
	"time"

	"palco/internal/domain/advance"

	"github.com/google/uuid"
)

type AdvanceResponse struct {
	ID              uuid.UUID  `json:"id"`
	BookingID       uuid.UUID  `json:"bookingId"`
	AmountCents     int64      `json:"amountCents"`
	Released        bool       `json:"released"`
	ReleasedAt      *time.Time `json:"releasedAt,omitempty"`
	CheckoutProofID *uuid.UUID `json:"checkoutProofId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func FromAdvance(a *advance.AdvancePayment) *AdvanceResponse {
	return &AdvanceResponse{
		ID:              a.ID(),
		BookingID:       a.BookingID(),
		AmountCents:     a.AmountCents(),
		Released:        a.IsReleased(),
		ReleasedAt:      a.ReleasedAt(),
		CheckoutProofID: a.CheckoutProofID(),
		CreatedAt:       a.CreatedAt(),
	}
}

type EligibilityResponse struct {
	Eligible     bool                  `json:"eligible"`
	Requirements []advance.Requirement `json:"requirements"`
	Reason       string                `json:"reason,omitempty"`
}

func FromEligibility(e *advance.Eligibility) *EligibilityResponse {
	return &EligibilityResponse{
		Eligible:     e.Eligible,
		Requirements: e.Requirements,
		Reason:       e.Reason(),
	}
}

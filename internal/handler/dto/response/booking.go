package response

import (
	"time"

	"palco/internal/domain/booking"

	"github.com/google/uuid"
)

type BookingResponse struct {
	ID                   uuid.UUID  `json:"id"`
	RequesterID          uuid.UUID  `json:"requesterId"`
	ArtistID             uuid.UUID  `json:"artistId"`
	EventStart           time.Time  `json:"eventStart"`
	DurationMinutes      int        `json:"durationMinutes"`
	LocationLabel        string     `json:"locationLabel"`
	Latitude             *float64   `json:"latitude,omitempty"`
	Longitude            *float64   `json:"longitude,omitempty"`
	ArtistValueCents     int64      `json:"artistValueCents"`
	PlatformFeeCents     int64      `json:"platformFeeCents"`
	TotalCents           int64      `json:"totalCents"`
	FeeTier              string     `json:"feeTier"`
	Status               string     `json:"status"`
	PaymentStatus        string     `json:"paymentStatus"`
	TravelDistanceKm     *float64   `json:"travelDistanceKm,omitempty"`
	AdvanceEligible      bool       `json:"advanceEligible"`
	AdvanceReason        string     `json:"advanceReason,omitempty"`
	CancellationFeeCents int64      `json:"cancellationFeeCents"`
	CancelReason         string     `json:"cancelReason,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
	AcceptedAt           *time.Time `json:"acceptedAt,omitempty"`
	ConfirmedAt          *time.Time `json:"confirmedAt,omitempty"`
	StartedAt            *time.Time `json:"startedAt,omitempty"`
	CompletedAt          *time.Time `json:"completedAt,omitempty"`
	CanceledAt           *time.Time `json:"canceledAt,omitempty"`
}

func FromBooking(b *booking.Booking) *BookingResponse {
	resp := &BookingResponse{
		ID:                   b.ID(),
		RequesterID:          b.RequesterID(),
		ArtistID:             b.ArtistID(),
		EventStart:           b.Schedule().Start(),
		DurationMinutes:      int(b.Schedule().Duration().Minutes()),
		LocationLabel:        b.Location().Label(),
		ArtistValueCents:     b.ArtistValue().Cents(),
		PlatformFeeCents:     b.PlatformFee().Cents(),
		TotalCents:           b.Total().Cents(),
		FeeTier:              string(b.FeeTier()),
		Status:               b.Status().String(),
		PaymentStatus:        b.PaymentStatus().String(),
		TravelDistanceKm:     b.TravelDistanceKm(),
		AdvanceEligible:      b.AdvanceEligible(),
		AdvanceReason:        b.AdvanceReason(),
		CancellationFeeCents: b.CancellationFee().Cents(),
		CancelReason:         b.CancelReason(),
		CreatedAt:            b.CreatedAt(),
		UpdatedAt:            b.UpdatedAt(),
		AcceptedAt:           b.AcceptedAt(),
		ConfirmedAt:          b.ConfirmedAt(),
		StartedAt:            b.StartedAt(),
		CompletedAt:          b.CompletedAt(),
		CanceledAt:           b.CanceledAt(),
	}
	if c := b.Location().Coordinates(); c != nil {
		resp.Latitude = &c.Latitude
		resp.Longitude = &c.Longitude
	}
	return resp
}

func FromBookings(bookings []*booking.Booking) []*BookingResponse {
	out := make([]*BookingResponse, len(bookings))
	for i, b := range bookings {
		out[i] = FromBooking(b)
	}
	return out
}

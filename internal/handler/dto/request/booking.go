package request

import (
	"time"

	"palco/internal/usecase"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	ArtistID         uuid.UUID `json:"artist_id" binding:"required"`
	EventStart       time.Time `json:"event_start" binding:"required"`
	DurationMinutes  int       `json:"duration_minutes" binding:"required,gt=0"`
	LocationLabel    string    `json:"location_label" binding:"required"`
	Latitude         *float64  `json:"latitude,omitempty"`
	Longitude        *float64  `json:"longitude,omitempty"`
	ArtistValueCents int64     `json:"artist_value_cents" binding:"required,gt=0"`
}

func (r CreateBookingRequest) ToCommand() usecase.CreateBookingCommand {
	return usecase.CreateBookingCommand{
		ArtistID:         r.ArtistID,
		EventStart:       r.EventStart,
		DurationMinutes:  r.DurationMinutes,
		LocationLabel:    r.LocationLabel,
		Latitude:         r.Latitude,
		Longitude:        r.Longitude,
		ArtistValueCents: r.ArtistValueCents,
	}
}

type RespondBookingRequest struct {
	Decision          string `json:"decision" binding:"required,oneof=accept reject"`
	CounterValueCents *int64 `json:"counter_value_cents,omitempty"`
	Reason            string `json:"reason,omitempty"`
}

func (r RespondBookingRequest) ToCommand() usecase.RespondBookingCommand {
	return usecase.RespondBookingCommand{
		Decision:          r.Decision,
		CounterValueCents: r.CounterValueCents,
		Reason:            r.Reason,
	}
}

type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type DisputeRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type ResolveDisputeRequest struct {
	Outcome string `json:"outcome" binding:"required,oneof=complete cancel"`
	Note    string `json:"note,omitempty"`
}

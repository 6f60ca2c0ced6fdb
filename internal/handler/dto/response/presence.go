package response

import (
	"time"

	"palco/internal/domain/presence"

	"github.com/google/uuid"
)

type PresenceEventResponse struct {
	ID              uuid.UUID  `json:"id"`
	BookingID       uuid.UUID  `json:"bookingId"`
	Kind            string     `json:"kind"`
	Latitude        *float64   `json:"latitude,omitempty"`
	Longitude       *float64   `json:"longitude,omitempty"`
	PhotoURL        string     `json:"photoUrl,omitempty"`
	DistanceMeters  *float64   `json:"distanceMeters,omitempty"`
	WithinWindow    bool       `json:"withinWindow"`
	ConfidenceScore int        `json:"confidenceScore"`
	ApprovalStatus  string     `json:"approvalStatus"`
	ApprovedBy      *uuid.UUID `json:"approvedBy,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	ResolvedAt      *time.Time `json:"resolvedAt,omitempty"`
}

func FromPresenceEvent(e *presence.PresenceEvent) *PresenceEventResponse {
	resp := &PresenceEventResponse{
		ID:              e.ID(),
		BookingID:       e.BookingID(),
		Kind:            string(e.Kind()),
		PhotoURL:        e.PhotoURL(),
		DistanceMeters:  e.DistanceMeters(),
		WithinWindow:    e.WithinWindow(),
		ConfidenceScore: e.ConfidenceScore(),
		ApprovalStatus:  string(e.ApprovalStatus()),
		ApprovedBy:      e.ApprovedBy(),
		RejectionReason: e.RejectionReason(),
		CreatedAt:       e.CreatedAt(),
		ResolvedAt:      e.ResolvedAt(),
	}
	if c := e.Coordinates(); c != nil {
		resp.Latitude = &c.Latitude
		resp.Longitude = &c.Longitude
	}
	return resp
}

func FromPresenceEvents(events []*presence.PresenceEvent) []*PresenceEventResponse {
	out := make([]*PresenceEventResponse, len(events))
	for i, e := range events {
		out[i] = FromPresenceEvent(e)
	}
	return out
}

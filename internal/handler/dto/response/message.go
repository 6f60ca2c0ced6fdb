package response

import (
	"time"

	"palco/internal/domain/chat"
	"palco/internal/domain/moderation"

	"github.com/google/uuid"
)

type MessageResponse struct {
	ID        uuid.UUID  `json:"id"`
	BookingID uuid.UUID  `json:"bookingId"`
	SenderID  *uuid.UUID `json:"senderId,omitempty"`
	Kind      string     `json:"kind"`
	Body      string     `json:"body"`
	CreatedAt time.Time  `json:"createdAt"`
}

func FromMessage(m *chat.Message) *MessageResponse {
	return &MessageResponse{
		ID:        m.ID(),
		BookingID: m.BookingID(),
		SenderID:  m.SenderID(),
		Kind:      string(m.Kind()),
		Body:      m.Body(),
		CreatedAt: m.CreatedAt(),
	}
}

func FromMessages(messages []*chat.Message) []*MessageResponse {
	out := make([]*MessageResponse, len(messages))
	for i, m := range messages {
		out[i] = FromMessage(m)
	}
	return out
}

type ViolationResponse struct {
	ID             uuid.UUID  `json:"id"`
	Category       string     `json:"category"`
	Severity       int        `json:"severity"`
	Patterns       []string   `json:"patterns"`
	BookingID      *uuid.UUID `json:"bookingId,omitempty"`
	Action         string     `json:"action"`
	SuspensionDays int        `json:"suspensionDays,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func FromViolation(v *moderation.ViolationRecord) *ViolationResponse {
	patterns := make([]string, len(v.Patterns()))
	for i, p := range v.Patterns() {
		patterns[i] = string(p)
	}
	return &ViolationResponse{
		ID:             v.ID(),
		Category:       v.Category(),
		Severity:       v.Severity(),
		Patterns:       patterns,
		BookingID:      v.BookingID(),
		Action:         string(v.Action()),
		SuspensionDays: v.SuspensionDays(),
		CreatedAt:      v.CreatedAt(),
	}
}

func FromViolations(violations []*moderation.ViolationRecord) []*ViolationResponse {
	out := make([]*ViolationResponse, len(violations))
	for i, v := range violations {
		out[i] = FromViolation(v)
	}
	return out
}

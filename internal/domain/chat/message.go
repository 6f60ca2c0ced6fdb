package chat

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindUser   Kind = "USER"
	KindSystem Kind = "SYSTEM"
)

// Message is one entry in a booking's conversation. System messages have no
// sender and narrate lifecycle transitions.
type Message struct {
	id        uuid.UUID
	bookingID uuid.UUID
	senderID  *uuid.UUID
	kind      Kind
	body      string
	createdAt time.Time
}

func NewUserMessage(bookingID, senderID uuid.UUID, body string, now time.Time) *Message {
	return &Message{
		id:        uuid.New(),
		bookingID: bookingID,
		senderID:  &senderID,
		kind:      KindUser,
		body:      body,
		createdAt: now,
	}
}

func NewSystemMessage(bookingID uuid.UUID, body string, now time.Time) *Message {
	return &Message{
		id:        uuid.New(),
		bookingID: bookingID,
		kind:      KindSystem,
		body:      body,
		createdAt: now,
	}
}

func ReconstructMessage(id, bookingID uuid.UUID, senderID *uuid.UUID, kind Kind, body string, createdAt time.Time) *Message {
	return &Message{
		id:        id,
		bookingID: bookingID,
		senderID:  senderID,
		kind:      kind,
		body:      body,
		createdAt: createdAt,
	}
}

func (m *Message) ID() uuid.UUID        { return m.id }
func (m *Message) BookingID() uuid.UUID { return m.bookingID }
func (m *Message) SenderID() *uuid.UUID { return m.senderID }
func (m *Message) Kind() Kind           { return m.kind }
func (m *Message) Body() string         { return m.body }
func (m *Message) CreatedAt() time.Time { return m.createdAt }

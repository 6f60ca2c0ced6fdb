package repository

import (
	"context"
	"time"

	"palco/internal/domain/chat"
	"palco/internal/infra"
	"palco/internal/infra/db"

	"github.com/google/uuid"
)

type MessageRepository struct{}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{}
}

func (r *MessageRepository) Create(ctx context.Context, dbtx db.DBTX, m *chat.Message) error {
	_, err := dbtx.Exec(ctx, `
		INSERT INTO messages (id, booking_id, sender_id, kind, body, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, m.ID(), m.BookingID(), m.SenderID(), string(m.Kind()), m.Body(), m.CreatedAt())
	if err != nil {
		return infra.WrapRepoErr("failed to create message", err)
	}
	return nil
}

func (r *MessageRepository) ListByBooking(ctx context.Context, dbtx db.DBTX, bookingID uuid.UUID) ([]*chat.Message, error) {
	rows, err := dbtx.Query(ctx, `
		SELECT id, booking_id, sender_id, kind, body, created_at
		FROM messages
		WHERE booking_id = $1
		ORDER BY created_at ASC
	`, bookingID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list messages", err)
	}
	defer rows.Close()

	var result []*chat.Message
	for rows.Next() {
		var (
			id, bID   uuid.UUID
			senderID  *uuid.UUID
			kind      string
			body      string
			createdAt time.Time
		)
		if err := rows.Scan(&id, &bID, &senderID, &kind, &body, &createdAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan message", err)
		}
		result = append(result, chat.ReconstructMessage(id, bID, senderID, chat.Kind(kind), body, createdAt))
	}
	return result, rows.Err()
}

package repository

import (
	"context"
	"encoding/json"
	"time"

	"palco/internal/infra"
	"palco/internal/infra/db"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxNew       OutboxStatus = "NEW"
	OutboxPublished OutboxStatus = "PUBLISHED"
)

// OutboxEvent is a notification staged in the same transaction as the state
// change it describes, delivered to the broker by the publisher loop.
type OutboxEvent struct {
	ID         uuid.UUID
	BookingID  uuid.UUID
	EventType  string
	Payload    json.RawMessage
	Status     OutboxStatus
	CreatedAt  time.Time
	PublishedAt *time.Time
}

func NewOutboxEvent(bookingID uuid.UUID, eventType string, payload any, now time.Time) (*OutboxEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:        uuid.New(),
		BookingID: bookingID,
		EventType: eventType,
		Payload:   body,
		Status:    OutboxNew,
		CreatedAt: now,
	}, nil
}

type OutboxRepository struct{}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{}
}

func (r *OutboxRepository) Insert(ctx context.Context, dbtx db.DBTX, e *OutboxEvent) error {
	_, err := dbtx.Exec(ctx, `
		INSERT INTO outbox_events (id, booking_id, event_type, payload, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, e.ID, e.BookingID, e.EventType, e.Payload, string(e.Status), e.CreatedAt)
	if err != nil {
		return infra.WrapRepoErr("failed to insert outbox event", err)
	}
	return nil
}

// FetchUnpublished locks a batch with SKIP LOCKED so concurrent publisher
// instances never deliver the same event twice.
func (r *OutboxRepository) FetchUnpublished(ctx context.Context, dbtx db.DBTX, limit int) ([]*OutboxEvent, error) {
	rows, err := dbtx.Query(ctx, `
		SELECT id, booking_id, event_type, payload, status, created_at, published_at
		FROM outbox_events
		WHERE status = 'NEW'
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to fetch outbox events", err)
	}
	defer rows.Close()

	var result []*OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		var status string
		if err := rows.Scan(&e.ID, &e.BookingID, &e.EventType, &e.Payload, &status, &e.CreatedAt, &e.PublishedAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan outbox event", err)
		}
		e.Status = OutboxStatus(status)
		result = append(result, &e)
	}
	return result, rows.Err()
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, dbtx db.DBTX, id uuid.UUID, now time.Time) error {
	_, err := dbtx.Exec(ctx, `
		UPDATE outbox_events SET status = 'PUBLISHED', published_at = $2 WHERE id = $1
	`, id, now)
	if err != nil {
		return infra.WrapRepoErr("failed to mark outbox event published", err)
	}
	return nil
}

// CountUnpublished feeds the backlog gauge.
func (r *OutboxRepository) CountUnpublished(ctx context.Context, dbtx db.DBTX) (int, error) {
	var count int
	err := dbtx.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_events WHERE status = 'NEW'`).Scan(&count)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to count outbox events", err)
	}
	return count, nil
}

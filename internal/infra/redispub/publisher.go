package redispub

import (
	"context"
	"encoding/json"
	"log/slog"

	"palco/internal/pkg/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Publisher pushes real-time booking updates over Redis pub/sub, one channel
// per booking, so connected clients see transitions without polling.
type Publisher struct {
	client *redis.Client
}

func NewClient(cfg config.RedisConfig) (*redis.Client, func(), error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

func channelFor(bookingID uuid.UUID) string {
	return "booking:" + bookingID.String()
}

// PublishBookingEvent is best-effort: delivery failures are logged, never
// surfaced, because the outbox is the durable path.
func (p *Publisher) PublishBookingEvent(ctx context.Context, bookingID uuid.UUID, eventType string, payload any) {
	body, err := json.Marshal(map[string]any{
		"event":   eventType,
		"payload": payload,
	})
	if err != nil {
		slog.Error("failed to marshal booking event", "error", err, "booking_id", bookingID)
		return
	}

	if err := p.client.Publish(ctx, channelFor(bookingID), body).Err(); err != nil {
		slog.Warn("failed to publish booking event", "error", err, "booking_id", bookingID, "event", eventType)
	}
}

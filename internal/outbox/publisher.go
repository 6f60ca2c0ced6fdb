package outbox

import (
	"context"
	"log/slog"
	"time"

	"palco/internal/observability"
	"palco/internal/usecase"

	"github.com/jackc/pgx/v5/pgxpool"
)

// BrokerPublisher is satisfied by the AMQP publisher.
type BrokerPublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// Publisher drains the outbox table into the broker. Events are fetched with
// FOR UPDATE SKIP LOCKED inside a transaction, so multiple instances can run
// side by side without double delivery.
type Publisher struct {
	pool      *pgxpool.Pool
	repo      usecase.OutboxRepository
	broker    BrokerPublisher
	interval  time.Duration
	batchSize int
}

func NewPublisher(
	pool *pgxpool.Pool,
	repo usecase.OutboxRepository,
	broker BrokerPublisher,
	interval time.Duration,
	batchSize int,
) *Publisher {
	return &Publisher{
		pool:      pool,
		repo:      repo,
		broker:    broker,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Run polls until the context is canceled.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	slog.Info("outbox publisher started", "interval", p.interval, "batch_size", p.batchSize)
	for {
		select {
		case <-ctx.Done():
			slog.Info("outbox publisher stopped")
			return
		case <-ticker.C:
			if err := p.publishBatch(ctx); err != nil {
				slog.Error("outbox publish batch failed", "error", err)
			}
			p.updateBacklogGauge(ctx)
		}
	}
}

func (p *Publisher) publishBatch(ctx context.Context) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	events, err := p.repo.FetchUnpublished(ctx, tx, p.batchSize)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, e := range events {
		routingKey := "booking." + e.EventType
		if err := p.broker.Publish(ctx, routingKey, e.Payload); err != nil {
			// Unpublished rows stay NEW and are retried next tick.
			slog.Error("failed to publish outbox event", "error", err, "event_id", e.ID, "type", e.EventType)
			continue
		}
		if err := p.repo.MarkPublished(ctx, tx, e.ID, now); err != nil {
			return err
		}
		observability.OutboxPublished.Inc()
	}

	return tx.Commit(ctx)
}

func (p *Publisher) updateBacklogGauge(ctx context.Context) {
	count, err := p.repo.CountUnpublished(ctx, p.pool)
	if err != nil {
		return
	}
	observability.OutboxBacklog.Set(float64(count))
}

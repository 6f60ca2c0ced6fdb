package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"palco/cmd/bootstrap"
	"palco/internal/handler/middleware"
	"palco/internal/outbox"
	"palco/internal/pkg/config"
	"palco/internal/usecase"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

// The reconciler owns every time-driven sweep: auto-approving stale arrivals,
// completing overrun bookings, lifting expired suspensions, and draining the
// outbox to the broker. It runs as a single process next to the API.
func runSweeps(
	lc fx.Lifecycle,
	cfg config.Config,
	reconciler usecase.ReconcilerUseCase,
	pool *pgxpool.Pool,
	outboxRepo usecase.OutboxRepository,
	broker outbox.BrokerPublisher,
	logger *slog.Logger,
) {
	ctx, cancel := context.WithCancel(context.Background())

	publisher := outbox.NewPublisher(
		pool,
		outboxRepo,
		broker,
		cfg.Reconciler.OutboxPollInterval,
		cfg.Reconciler.OutboxBatchSize,
	)

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			logger.Info("starting reconciler",
				"arrival_interval", cfg.Reconciler.ArrivalSweepInterval,
				"overrun_interval", cfg.Reconciler.OverrunSweepInterval,
				"outbox_interval", cfg.Reconciler.OutboxPollInterval,
			)

			go publisher.Run(ctx)
			go loop(ctx, cfg.Reconciler.ArrivalSweepInterval, func(ctx context.Context) {
				if n, err := reconciler.ApproveStaleArrivals(ctx); err != nil {
					logger.Error("arrival sweep failed", "error", err)
				} else if n > 0 {
					logger.Info("auto-approved stale arrivals", "count", n)
				}
			})
			go loop(ctx, cfg.Reconciler.OverrunSweepInterval, func(ctx context.Context) {
				if n, err := reconciler.CompleteOverrunBookings(ctx); err != nil {
					logger.Error("overrun sweep failed", "error", err)
				} else if n > 0 {
					logger.Info("auto-completed overrun bookings", "count", n)
				}
				if n, err := reconciler.LiftExpiredSuspensions(ctx); err != nil {
					logger.Error("suspension sweep failed", "error", err)
				} else if n > 0 {
					logger.Info("lifted expired suspensions", "count", n)
				}
			})
			return nil
		},
		OnStop: func(_ context.Context) error {
			logger.Info("stopping reconciler")
			cancel()
			return nil
		},
	})
}

// loop runs fn once immediately, then on every tick until ctx is canceled.
func loop(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	fn(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

func main() {
	app := fx.New(
		bootstrap.WorkerModule,
		fx.Provide(
			func(cfg config.Config) *slog.Logger {
				logger := middleware.NewLogger(cfg.Log)
				return logger.GetSlogLogger()
			},
		),
		fx.Invoke(
			runSweeps,
		),
	)

	if err := app.Start(context.Background()); err != nil {
		slog.Error("failed to start reconciler", "error", err)
		os.Exit(1)
	}

	<-app.Done()

	if err := app.Stop(context.Background()); err != nil {
		slog.Error("failed to stop reconciler cleanly", "error", err)
	}

	slog.Info("reconciler stopped")
}

package components

import (
	"palco/internal/pkg/clock"
	"palco/internal/usecase"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	fx.Provide(
		func(pool *pgxpool.Pool) usecase.DB { return pool },
		clock.NewRealClock,
		usecase.NewTokenValidator,
		usecase.NewBookingUseCase,
		usecase.NewPresenceUseCase,
		usecase.NewModerationUseCase,
		usecase.NewAdvanceUseCase,
		usecase.NewPaymentUseCase,
		usecase.NewReconcilerUseCase,
	),
)

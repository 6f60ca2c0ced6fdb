package components

import (
	repo_impl "palco/internal/infra/repository"
	"palco/internal/usecase"

	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		fx.Annotate(
			repo_impl.NewBookingRepository,
			fx.As(new(usecase.BookingRepository)),
		),
		fx.Annotate(
			repo_impl.NewUserRepository,
			fx.As(new(usecase.UserRepository)),
		),
		fx.Annotate(
			repo_impl.NewPresenceRepository,
			fx.As(new(usecase.PresenceRepository)),
		),
		fx.Annotate(
			repo_impl.NewViolationRepository,
			fx.As(new(usecase.ViolationRepository)),
		),
		fx.Annotate(
			repo_impl.NewAdvanceRepository,
			fx.As(new(usecase.AdvanceRepository)),
		),
		fx.Annotate(
			repo_impl.NewMessageRepository,
			fx.As(new(usecase.MessageRepository)),
		),
		fx.Annotate(
			repo_impl.NewOutboxRepository,
			fx.As(new(usecase.OutboxRepository)),
		),
	),
)

package bootstrap

import (
	"context"

	"palco/internal/infra/rabbit"
	"palco/internal/outbox"
	"palco/internal/pkg/config"

	"go.uber.org/fx"
)

var RabbitModule = fx.Module("rabbit",
	fx.Provide(
		NewRabbitPublisher,
		fx.Annotate(
			func(p *rabbit.Publisher) *rabbit.Publisher { return p },
			fx.As(new(outbox.BrokerPublisher)),
		),
	),
)

func NewRabbitPublisher(lc fx.Lifecycle, cfg config.Config) (*rabbit.Publisher, error) {
	publisher, cleanup, err := rabbit.NewPublisher(cfg.Rabbit)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			if cleanup != nil {
				cleanup()
			}
			return nil
		},
	})

	return publisher, nil
}

package bootstrap

import (
	"palco/cmd/bootstrap/components"

	"go.uber.org/fx"
)

// Module wires everything the API process needs.
var Module = fx.Options(
	ConfigModule,
	DBModule,
	JWTModule,
	RedisModule,
	components.RepositoryModule,
	components.UseCaseModule,
	components.HandlerModule,
)

// WorkerModule is the reconciler process: no HTTP surface, plus the broker.
var WorkerModule = fx.Options(
	ConfigModule,
	DBModule,
	RedisModule,
	RabbitModule,
	components.RepositoryModule,
	components.UseCaseModule,
)

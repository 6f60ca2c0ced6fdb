package components

import (
	"palco/internal/handler"
	"palco/internal/handler/api"
	"palco/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewBookingHandler,
		api.NewPresenceHandler,
		api.NewMessageHandler,
		api.NewAdvanceHandler,
		api.NewWebhookHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)

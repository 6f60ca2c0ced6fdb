package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"palco/internal/domain/user"
	"palco/internal/handler/api"
	"palco/internal/handler/middleware"
	"palco/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	bookingHandler *api.BookingHandler,
	presenceHandler *api.PresenceHandler,
	messageHandler *api.MessageHandler,
	advanceHandler *api.AdvanceHandler,
	webhookHandler *api.WebhookHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, bookingHandler, presenceHandler, messageHandler, advanceHandler, webhookHandler, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(nil, cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(
	engine *gin.Engine,
	bookingHandler *api.BookingHandler,
	presenceHandler *api.PresenceHandler,
	messageHandler *api.MessageHandler,
	advanceHandler *api.AdvanceHandler,
	webhookHandler *api.WebhookHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	engine.GET("/health", healthCheck)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Gateway callbacks are signed at the transport layer, not JWT-authed.
	engine.POST("/webhooks/payments", webhookHandler.PaymentStatus)

	apiGroup := engine.Group("/api")
	{
		bookings := apiGroup.Group("/bookings")
		bookings.Use(authMiddleware.RequireAuth())
		{
			addRoutes(bookings, []route{
				{Method: http.MethodPost, Path: "", Handler: bookingHandler.CreateBooking,
					Mw: []gin.HandlerFunc{authMiddleware.RequireRole(user.RoleRequester)}},
				{Method: http.MethodGet, Path: "", Handler: bookingHandler.GetUserBookings},
				{Method: http.MethodGet, Path: "/:id", Handler: bookingHandler.GetBooking},
				{Method: http.MethodPost, Path: "/:id/respond", Handler: bookingHandler.RespondBooking,
					Mw: []gin.HandlerFunc{authMiddleware.RequireRole(user.RoleArtist)}},
				{Method: http.MethodPost, Path: "/:id/cancel", Handler: bookingHandler.CancelBooking},
				{Method: http.MethodPost, Path: "/:id/dispute", Handler: bookingHandler.OpenDispute},
				{Method: http.MethodPost, Path: "/:id/dispute/resolve", Handler: bookingHandler.ResolveDispute,
					Mw: []gin.HandlerFunc{authMiddleware.RequireRole(user.RoleAdmin)}},

				{Method: http.MethodPost, Path: "/:id/checkin", Handler: presenceHandler.CheckIn,
					Mw: []gin.HandlerFunc{authMiddleware.RequireRole(user.RoleArtist)}},
				{Method: http.MethodPost, Path: "/:id/checkin/validate", Handler: presenceHandler.ValidateArrival,
					Mw: []gin.HandlerFunc{authMiddleware.RequireRole(user.RoleRequester)}},
				{Method: http.MethodPost, Path: "/:id/checkout", Handler: presenceHandler.CheckOut,
					Mw: []gin.HandlerFunc{authMiddleware.RequireRole(user.RoleArtist)}},
				{Method: http.MethodPost, Path: "/:id/manual-start", Handler: presenceHandler.ConfirmManualStart,
					Mw: []gin.HandlerFunc{authMiddleware.RequireRole(user.RoleRequester)}},
				{Method: http.MethodGet, Path: "/:id/presence", Handler: presenceHandler.ListPresenceEvents},

				{Method: http.MethodPost, Path: "/:id/messages", Handler: messageHandler.SendMessage},
				{Method: http.MethodGet, Path: "/:id/messages", Handler: messageHandler.GetMessages},

				{Method: http.MethodGet, Path: "/:id/advance/eligibility", Handler: advanceHandler.CheckEligibility},
				{Method: http.MethodPost, Path: "/:id/advance", Handler: advanceHandler.RequestAdvance,
					Mw: []gin.HandlerFunc{authMiddleware.RequireRole(user.RoleArtist)}},
				{Method: http.MethodGet, Path: "/:id/advance", Handler: advanceHandler.GetAdvance},
			})
		}

		users := apiGroup.Group("/users")
		users.Use(authMiddleware.RequireAuth())
		{
			addRoutes(users, []route{
				{Method: http.MethodGet, Path: "/:userId/violations", Handler: messageHandler.GetViolations},
			})
		}
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}

package api

import (
	"errors"
	"net/http"

	reqdto "palco/internal/handler/dto/request"
	"palco/internal/handler/httperr"
	"palco/internal/usecase"

	"github.com/gin-gonic/gin"
)

// WebhookHandler receives payment gateway callbacks. The route is
// unauthenticated; providers sign requests at the transport layer instead.
type WebhookHandler struct {
	paymentUseCase usecase.PaymentUseCase
}

func NewWebhookHandler(paymentUseCase usecase.PaymentUseCase) *WebhookHandler {
	return &WebhookHandler{
		paymentUseCase: paymentUseCase,
	}
}

func (h *WebhookHandler) PaymentStatus(c *gin.Context) {
	var req reqdto.PaymentWebhookRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid webhook payload", nil)
		return
	}

	err := h.paymentUseCase.ApplyProviderStatus(c.Request.Context(), req.BookingID, req.ProviderPaymentID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUnknownProviderStatus):
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Unknown provider status", nil)
		case errors.Is(err, usecase.ErrBookingNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Booking not found", nil)
		default:
			// Provider retries on 5xx.
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}

	c.Status(http.StatusNoContent)
}

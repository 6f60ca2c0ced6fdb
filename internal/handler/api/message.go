package api

import (
	"errors"
	"net/http"

	reqdto "palco/internal/handler/dto/request"
	resdto "palco/internal/handler/dto/response"
	"palco/internal/handler/httperr"
	"palco/internal/handler/middleware"
	"palco/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MessageHandler struct {
	moderationUseCase usecase.ModerationUseCase
}

func NewMessageHandler(moderationUseCase usecase.ModerationUseCase) *MessageHandler {
	return &MessageHandler{
		moderationUseCase: moderationUseCase,
	}
}

func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingAuthContext, "Internal server error", nil)
		return
	}

	bookingID, err := parseBookingID(c)
	if err != nil {
		return
	}

	var req reqdto.SendMessageRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format", nil)
		return
	}

	msg, err := h.moderationUseCase.SendMessage(c.Request.Context(), userID, bookingID, req.Body)
	if err != nil {
		respondModerationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.FromMessage(msg))
}

func (h *MessageHandler) GetMessages(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingAuthContext, "Internal server error", nil)
		return
	}

	bookingID, err := parseBookingID(c)
	if err != nil {
		return
	}

	messages, err := h.moderationUseCase.GetMessages(c.Request.Context(), actor, bookingID)
	if err != nil {
		respondModerationError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromMessages(messages))
}

func (h *MessageHandler) GetViolations(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingAuthContext, "Internal server error", nil)
		return
	}

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid user ID", nil)
		return
	}

	violations, err := h.moderationUseCase.GetViolations(c.Request.Context(), actor, userID)
	if err != nil {
		respondModerationError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromViolations(violations))
}

func respondModerationError(c *gin.Context, err error) {
	var blocked *usecase.BlockedMessageError
	var suspended *usecase.SuspendedError
	switch {
	case errors.As(err, &blocked):
		categories := make([]string, len(blocked.Categories))
		for i, cat := range blocked.Categories {
			categories[i] = string(cat)
		}
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err,
			"Message blocked: sharing external contact information is not allowed",
			gin.H{
				"action":          string(blocked.Action),
				"suspension_days": blocked.SuspensionDays,
				"categories":      categories,
			})
	case errors.As(err, &suspended):
		httperr.AbortWithError(c, http.StatusForbidden, err, "Account is suspended",
			gin.H{"suspended_until": suspended.Until})
	case errors.Is(err, usecase.ErrSenderSuspended):
		httperr.AbortWithError(c, http.StatusForbidden, err, "Account is suspended", nil)
	case errors.Is(err, usecase.ErrSenderBanned):
		httperr.AbortWithError(c, http.StatusForbidden, err, "Account is permanently banned", nil)
	case errors.Is(err, usecase.ErrEmptyMessage):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Message body is empty", nil)
	default:
		respondBookingError(c, err)
	}
}

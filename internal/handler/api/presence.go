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
)

type PresenceHandler struct {
	presenceUseCase usecase.PresenceUseCase
}

func NewPresenceHandler(presenceUseCase usecase.PresenceUseCase) *PresenceHandler {
	return &PresenceHandler{
		presenceUseCase: presenceUseCase,
	}
}

func (h *PresenceHandler) CheckIn(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingAuthContext, "Internal server error", nil)
		return
	}

	bookingID, err := parseBookingID(c)
	if err != nil {
		return
	}

	var req reqdto.CheckInRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format", nil)
		return
	}

	event, err := h.presenceUseCase.CheckIn(c.Request.Context(), userID, bookingID, req.ToCommand())
	if err != nil {
		respondPresenceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.FromPresenceEvent(event))
}

func (h *PresenceHandler) ValidateArrival(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingAuthContext, "Internal server error", nil)
		return
	}

	bookingID, err := parseBookingID(c)
	if err != nil {
		return
	}

	var req reqdto.ValidateArrivalRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format", nil)
		return
	}

	event, err := h.presenceUseCase.ValidateArrival(c.Request.Context(), userID, bookingID, req.Approve, req.Reason)
	if err != nil {
		respondPresenceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromPresenceEvent(event))
}

func (h *PresenceHandler) CheckOut(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingAuthContext, "Internal server error", nil)
		return
	}

	bookingID, err := parseBookingID(c)
	if err != nil {
		return
	}

	var req reqdto.CheckOutRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format", nil)
		return
	}

	event, err := h.presenceUseCase.CheckOut(c.Request.Context(), userID, bookingID, req.ToCommand())
	if err != nil {
		respondPresenceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.FromPresenceEvent(event))
}

func (h *PresenceHandler) ConfirmManualStart(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingAuthContext, "Internal server error", nil)
		return
	}

	bookingID, err := parseBookingID(c)
	if err != nil {
		return
	}

	if err := h.presenceUseCase.ConfirmManualStart(c.Request.Context(), userID, bookingID); err != nil {
		respondPresenceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *PresenceHandler) ListPresenceEvents(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingAuthContext, "Internal server error", nil)
		return
	}

	bookingID, err := parseBookingID(c)
	if err != nil {
		return
	}

	events, err := h.presenceUseCase.ListPresenceEvents(c.Request.Context(), actor, bookingID)
	if err != nil {
		respondPresenceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromPresenceEvents(events))
}

func respondPresenceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrArrivalExists),
		errors.Is(err, usecase.ErrDepartureExists),
		errors.Is(err, usecase.ErrArrivalAlreadyResolved):
		httperr.AbortWithError(c, http.StatusConflict, err, err.Error(), nil)
	case errors.Is(err, usecase.ErrArrivalNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "No arrival claim for this booking", nil)
	case errors.Is(err, usecase.ErrArrivalNotApproved):
		httperr.AbortWithError(c, http.StatusConflict, err, "Arrival claim is not approved yet", nil)
	case errors.Is(err, usecase.ErrContestationExpired):
		httperr.AbortWithError(c, http.StatusConflict, err, "Contestation window has closed", nil)
	case errors.Is(err, usecase.ErrRejectionReasonMissing):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Rejection reason is required", nil)
	default:
		respondBookingError(c, err)
	}
}

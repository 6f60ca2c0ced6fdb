package api

import (
	"errors"
	"net/http"

	resdto "palco/internal/handler/dto/response"
	"palco/internal/handler/httperr"
	"palco/internal/handler/middleware"
	"palco/internal/usecase"

	"github.com/gin-gonic/gin"
)

type AdvanceHandler struct {
	advanceUseCase usecase.AdvanceUseCase
}

func NewAdvanceHandler(advanceUseCase usecase.AdvanceUseCase) *AdvanceHandler {
	return &AdvanceHandler{
		advanceUseCase: advanceUseCase,
	}
}

func (h *AdvanceHandler) CheckEligibility(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingAuthContext, "Internal server error", nil)
		return
	}

	bookingID, err := parseBookingID(c)
	if err != nil {
		return
	}

	eligibility, err := h.advanceUseCase.CheckEligibility(c.Request.Context(), actor, bookingID)
	if err != nil {
		respondAdvanceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromEligibility(eligibility))
}

func (h *AdvanceHandler) RequestAdvance(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingAuthContext, "Internal server error", nil)
		return
	}

	bookingID, err := parseBookingID(c)
	if err != nil {
		return
	}

	payment, err := h.advanceUseCase.RequestAdvance(c.Request.Context(), userID, bookingID)
	if err != nil {
		respondAdvanceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.FromAdvance(payment))
}

func (h *AdvanceHandler) GetAdvance(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingAuthContext, "Internal server error", nil)
		return
	}

	bookingID, err := parseBookingID(c)
	if err != nil {
		return
	}

	payment, err := h.advanceUseCase.GetAdvance(c.Request.Context(), actor, bookingID)
	if err != nil {
		respondAdvanceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromAdvance(payment))
}

func respondAdvanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrAdvanceNotEligible):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Booking is not eligible for an advance", nil)
	case errors.Is(err, usecase.ErrAdvanceExists):
		httperr.AbortWithError(c, http.StatusConflict, err, "An advance already exists for this booking", nil)
	case errors.Is(err, usecase.ErrAdvanceNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "No advance for this booking", nil)
	default:
		respondBookingError(c, err)
	}
}

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

// errMissingAuthContext means the auth middleware did not run before the
// handler. That is a wiring bug, not a client error.
var errMissingAuthContext = errors.New("authentication context missing")

type BookingHandler struct {
	bookingUseCase usecase.BookingUseCase
}

func NewBookingHandler(bookingUseCase usecase.BookingUseCase) *BookingHandler {
	return &BookingHandler{
		bookingUseCase: bookingUseCase,
	}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingAuthContext, "Internal server error", nil)
		return
	}

	var req reqdto.CreateBookingRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format", nil)
		return
	}

	b, err := h.bookingUseCase.CreateBooking(c.Request.Context(), userID, req.ToCommand())
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.FromBooking(b))
}

func (h *BookingHandler) RespondBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingAuthContext, "Internal server error", nil)
		return
	}

	bookingID, err := parseBookingID(c)
	if err != nil {
		return
	}

	var req reqdto.RespondBookingRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format", nil)
		return
	}

	b, err := h.bookingUseCase.RespondBooking(c.Request.Context(), userID, bookingID, req.ToCommand())
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromBooking(b))
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingAuthContext, "Internal server error", nil)
		return
	}

	bookingID, err := parseBookingID(c)
	if err != nil {
		return
	}

	var req reqdto.CancelBookingRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format", nil)
		return
	}

	b, err := h.bookingUseCase.CancelBooking(c.Request.Context(), actor, bookingID, req.Reason)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromBooking(b))
}

func (h *BookingHandler) OpenDispute(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingAuthContext, "Internal server error", nil)
		return
	}

	bookingID, err := parseBookingID(c)
	if err != nil {
		return
	}

	var req reqdto.DisputeRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format", nil)
		return
	}

	b, err := h.bookingUseCase.OpenDispute(c.Request.Context(), actor, bookingID, req.Reason)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromBooking(b))
}

func (h *BookingHandler) ResolveDispute(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingAuthContext, "Internal server error", nil)
		return
	}

	bookingID, err := parseBookingID(c)
	if err != nil {
		return
	}

	var req reqdto.ResolveDisputeRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format", nil)
		return
	}

	b, err := h.bookingUseCase.ResolveDispute(c.Request.Context(), actor, bookingID, req.Outcome, req.Note)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromBooking(b))
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingAuthContext, "Internal server error", nil)
		return
	}

	bookingID, err := parseBookingID(c)
	if err != nil {
		return
	}

	b, err := h.bookingUseCase.GetBooking(c.Request.Context(), actor, bookingID)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromBooking(b))
}

func (h *BookingHandler) GetUserBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingAuthContext, "Internal server error", nil)
		return
	}

	bookings, err := h.bookingUseCase.GetUserBookings(c.Request.Context(), userID)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromBookings(bookings))
}

func parseBookingID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking ID", nil)
		return uuid.Nil, err
	}
	return id, nil
}

// respondBookingError maps usecase errors shared across the booking surface.
func respondBookingError(c *gin.Context, err error) {
	var conflict *usecase.StateConflictError
	switch {
	case errors.Is(err, usecase.ErrBookingNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Booking not found", nil)
	case errors.Is(err, usecase.ErrUserNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "User not found", nil)
	case errors.Is(err, usecase.ErrArtistNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Artist not found", nil)
	case errors.Is(err, usecase.ErrInvalidRequesterRole),
		errors.Is(err, usecase.ErrNotBookingArtist),
		errors.Is(err, usecase.ErrNotBookingRequester),
		errors.Is(err, usecase.ErrNotParticipant):
		httperr.AbortWithError(c, http.StatusForbidden, err, "Not allowed for this booking", nil)
	case errors.Is(err, usecase.ErrArtistInactive):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Artist account is not active", nil)
	case errors.Is(err, usecase.ErrCancellationWindowClosed):
		httperr.AbortWithError(c, http.StatusConflict, err, "Cancellation window is closed", nil)
	case errors.Is(err, usecase.ErrInvalidDecision),
		errors.Is(err, usecase.ErrInvalidDisputeOutcome),
		errors.Is(err, usecase.ErrRejectReasonRequired):
		httperr.AbortWithError(c, http.StatusBadRequest, err, err.Error(), nil)
	case errors.As(err, &conflict):
		httperr.AbortWithError(c, http.StatusConflict, err, "Booking status changed",
			gin.H{"current_status": conflict.Actual.String()})
	case errors.Is(err, usecase.ErrDomainValidationFailed):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Domain validation failed", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}

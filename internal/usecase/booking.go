package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"palco/internal/domain/advance"
	"palco/internal/domain/booking"
	"palco/internal/domain/user"
	"palco/internal/observability"
	"palco/internal/pkg/clock"
	"palco/internal/pkg/errs"
	"palco/internal/pkg/geo"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrBookingNotFound          = errors.New("booking not found")
	ErrUserNotFound             = errors.New("user not found")
	ErrInvalidRequesterRole     = errors.New("caller is not a requester")
	ErrArtistNotFound           = errors.New("artist not found")
	ErrArtistInactive           = errors.New("artist account is not active")
	ErrNotBookingArtist         = errors.New("caller is not the booking's artist")
	ErrNotBookingRequester      = errors.New("caller is not the booking's requester")
	ErrNotParticipant           = errors.New("caller is not a participant of this booking")
	ErrRejectReasonRequired     = errors.New("rejection reason is required")
	ErrCancellationWindowClosed = errors.New("cancellation window is closed")
	ErrInvalidDecision          = errors.New("decision must be accept or reject")
	ErrInvalidDisputeOutcome    = errors.New("dispute outcome must be complete or cancel")
)

type CreateBookingCommand struct {
	ArtistID         uuid.UUID
	EventStart       time.Time
	DurationMinutes  int
	LocationLabel    string
	Latitude         *float64
	Longitude        *float64
	ArtistValueCents int64
}

type RespondBookingCommand struct {
	Decision          string // "accept" or "reject"
	CounterValueCents *int64
	Reason            string
}

type BookingUseCase interface {
	CreateBooking(ctx context.Context, requesterID uuid.UUID, cmd CreateBookingCommand) (*booking.Booking, error)
	RespondBooking(ctx context.Context, artistID uuid.UUID, bookingID uuid.UUID, cmd RespondBookingCommand) (*booking.Booking, error)
	CancelBooking(ctx context.Context, actor Actor, bookingID uuid.UUID, reason string) (*booking.Booking, error)
	OpenDispute(ctx context.Context, actor Actor, bookingID uuid.UUID, reason string) (*booking.Booking, error)
	ResolveDispute(ctx context.Context, actor Actor, bookingID uuid.UUID, outcome string, note string) (*booking.Booking, error)
	GetBooking(ctx context.Context, actor Actor, bookingID uuid.UUID) (*booking.Booking, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID) ([]*booking.Booking, error)
}

type bookingUseCaseImpl struct {
	bookingRepo BookingRepository
	userRepo    UserRepository
	recorder    *transitionRecorder
	notifier    Notifier
	db          DB
	clock       clock.Clock
}

func NewBookingUseCase(
	bookingRepo BookingRepository,
	userRepo UserRepository,
	messageRepo MessageRepository,
	outboxRepo OutboxRepository,
	notifier Notifier,
	db DB,
	clock clock.Clock,
) BookingUseCase {
	return &bookingUseCaseImpl{
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		recorder:    newTransitionRecorder(messageRepo, outboxRepo),
		notifier:    notifier,
		db:          db,
		clock:       clock,
	}
}

func (u *bookingUseCaseImpl) CreateBooking(
	ctx context.Context,
	requesterID uuid.UUID,
	cmd CreateBookingCommand,
) (*booking.Booking, error) {
	now := u.clock.Now()

	requester, err := u.findUser(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if requester.Role() != user.RoleRequester {
		return nil, ErrInvalidRequesterRole
	}

	artist, err := u.findUser(ctx, cmd.ArtistID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrArtistNotFound
		}
		return nil, err
	}
	if artist.Role() != user.RoleArtist {
		return nil, ErrArtistNotFound
	}
	if !artist.IsActive() {
		return nil, ErrArtistInactive
	}

	schedule, err := booking.NewEventSchedule(cmd.EventStart, time.Duration(cmd.DurationMinutes)*time.Minute)
	if err != nil {
		return nil, errs.Mark(err, ErrDomainValidationFailed)
	}

	var venueCoords *geo.Coordinates
	if cmd.Latitude != nil && cmd.Longitude != nil {
		venueCoords = &geo.Coordinates{Latitude: *cmd.Latitude, Longitude: *cmd.Longitude}
	}
	location := booking.NewLocation(cmd.LocationLabel, venueCoords)

	travelKm := travelDistanceKm(artist.BaseCoordinates(), venueCoords)

	b, err := booking.NewBooking(
		requesterID, artist.ID(), schedule, location,
		cmd.ArtistValueCents, artist.PlanTier(), travelKm, now,
	)
	if err != nil {
		return nil, errs.Mark(err, ErrDomainValidationFailed)
	}

	eligibility := advance.CheckEligibility(advance.EligibilityInput{
		ArtistValueCents: cmd.ArtistValueCents,
		DistanceKm:       travelKm,
		EventStart:       schedule.Start(),
		Standing:         standingOf(artist),
		Now:              now,
	})
	b.SetAdvanceEligibility(eligibility.Eligible, eligibility.Reason())

	err = withTx(ctx, u.db, func(tx pgx.Tx) error {
		if err := u.bookingRepo.Create(ctx, tx, b); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		body := fmt.Sprintf("Proposta de reserva criada para %s. Valor total: R$%.2f.",
			schedule.Start().Format("02/01/2006 15:04"), b.Total().Reais())
		return u.recorder.record(ctx, tx, b.ID(), "booking.created", body, bookingEventPayload(b), now)
	})
	if err != nil {
		return nil, err
	}

	observability.BookingTransitions.WithLabelValues(booking.StatusPending.String()).Inc()
	u.notifier.PublishBookingEvent(ctx, b.ID(), "booking.created", bookingEventPayload(b))
	return b, nil
}

func (u *bookingUseCaseImpl) RespondBooking(
	ctx context.Context,
	artistID uuid.UUID,
	bookingID uuid.UUID,
	cmd RespondBookingCommand,
) (*booking.Booking, error) {
	now := u.clock.Now()

	b, err := u.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.ArtistID() != artistID {
		return nil, ErrNotBookingArtist
	}
	if b.Status() != booking.StatusPending {
		return nil, &StateConflictError{Actual: b.Status()}
	}

	switch cmd.Decision {
	case "accept":
		return u.acceptBooking(ctx, b, artistID, cmd.CounterValueCents, now)
	case "reject":
		return u.rejectBooking(ctx, b, cmd.Reason, now)
	default:
		return nil, ErrInvalidDecision
	}
}

func (u *bookingUseCaseImpl) acceptBooking(
	ctx context.Context,
	b *booking.Booking,
	artistID uuid.UUID,
	counterValueCents *int64,
	now time.Time,
) (*booking.Booking, error) {
	// Only a counter-offer re-splits the value, at the artist's current plan
	// tier. A bare accept keeps the split fixed when the value last changed.
	if counterValueCents != nil {
		artist, err := u.findUser(ctx, artistID)
		if err != nil {
			return nil, err
		}
		if err := b.ApplyCounterOffer(*counterValueCents, artist.PlanTier(), now); err != nil {
			return nil, errs.Mark(err, ErrDomainValidationFailed)
		}
	}

	// Payment settled ahead of acceptance skips the ACEITO stop.
	next := booking.StatusAccepted
	if b.PaymentStatus() == booking.PaymentConfirmed {
		next = booking.StatusConfirmed
	}

	err := withTx(ctx, u.db, func(tx pgx.Tx) error {
		var err error
		if counterValueCents != nil {
			err = u.bookingRepo.AcceptWithValue(ctx, tx, b.ID(), next,
				b.ArtistValue().Cents(), b.PlatformFee().Cents(), b.Total().Cents(), b.FeeTier(), now)
		} else {
			err = u.bookingRepo.UpdateStatusGuarded(ctx, tx, b.ID(),
				[]booking.Status{booking.StatusPending}, next, now)
		}
		if err != nil {
			if isConflict(err) {
				return conflictWithActual(ctx, u.bookingRepo, tx, b.ID())
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		body := fmt.Sprintf("Proposta aceita pelo artista. Valor total: R$%.2f.", b.Total().Reais())
		return u.recorder.record(ctx, tx, b.ID(), "booking.accepted", body, map[string]any{
			"status":      next.String(),
			"total_cents": b.Total().Cents(),
		}, now)
	})
	if err != nil {
		return nil, err
	}

	observability.BookingTransitions.WithLabelValues(next.String()).Inc()
	updated, err := u.findBooking(ctx, b.ID())
	if err != nil {
		return nil, err
	}
	u.notifier.PublishBookingEvent(ctx, b.ID(), "booking.accepted", bookingEventPayload(updated))
	return updated, nil
}

func (u *bookingUseCaseImpl) rejectBooking(
	ctx context.Context,
	b *booking.Booking,
	reason string,
	now time.Time,
) (*booking.Booking, error) {
	if reason == "" {
		return nil, ErrRejectReasonRequired
	}

	err := withTx(ctx, u.db, func(tx pgx.Tx) error {
		err := u.bookingRepo.CancelGuarded(ctx, tx, b.ID(),
			[]booking.Status{booking.StatusPending}, 0, reason, now)
		if err != nil {
			if isConflict(err) {
				return conflictWithActual(ctx, u.bookingRepo, tx, b.ID())
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		body := "Proposta recusada pelo artista: " + reason
		return u.recorder.record(ctx, tx, b.ID(), "booking.rejected", body, map[string]any{
			"status": booking.StatusCanceled.String(),
			"reason": reason,
		}, now)
	})
	if err != nil {
		return nil, err
	}

	observability.BookingTransitions.WithLabelValues(booking.StatusCanceled.String()).Inc()
	updated, err := u.findBooking(ctx, b.ID())
	if err != nil {
		return nil, err
	}
	u.notifier.PublishBookingEvent(ctx, b.ID(), "booking.rejected", bookingEventPayload(updated))
	return updated, nil
}

func (u *bookingUseCaseImpl) CancelBooking(
	ctx context.Context,
	actor Actor,
	bookingID uuid.UUID,
	reason string,
) (*booking.Booking, error) {
	now := u.clock.Now()

	b, err := u.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.ID != b.RequesterID() && actor.ID != b.ArtistID() {
		return nil, ErrNotParticipant
	}
	if b.Status().IsTerminal() {
		return nil, &StateConflictError{Actual: b.Status()}
	}

	var expected []booking.Status
	var feeCents int64

	if actor.IsAdmin() {
		// Administrators may cancel from any live status, fee waived.
		expected = []booking.Status{
			booking.StatusPending, booking.StatusAccepted, booking.StatusConfirmed,
			booking.StatusInProgress, booking.StatusDisputed,
		}
	} else {
		switch b.Status() {
		case booking.StatusPending, booking.StatusAccepted:
			// Nothing has been paid yet, free to cancel.
			expected = []booking.Status{b.Status()}
		case booking.StatusConfirmed:
			if b.EventStarted(now) {
				return nil, ErrCancellationWindowClosed
			}
			expected = []booking.Status{booking.StatusConfirmed}
			feeCents = b.CancellationFeeAt(now).Cents()
		default:
			return nil, &StateConflictError{Actual: b.Status()}
		}
	}

	err = withTx(ctx, u.db, func(tx pgx.Tx) error {
		err := u.bookingRepo.CancelGuarded(ctx, tx, b.ID(), expected, feeCents, reason, now)
		if err != nil {
			if isConflict(err) {
				return conflictWithActual(ctx, u.bookingRepo, tx, b.ID())
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		body := "Reserva cancelada: " + reason
		if feeCents > 0 {
			body = fmt.Sprintf("Reserva cancelada: %s. Taxa de cancelamento: R$%.2f.", reason, float64(feeCents)/100.0)
		}
		return u.recorder.record(ctx, tx, b.ID(), "booking.canceled", body, map[string]any{
			"status":    booking.StatusCanceled.String(),
			"reason":    reason,
			"fee_cents": feeCents,
		}, now)
	})
	if err != nil {
		return nil, err
	}

	observability.BookingTransitions.WithLabelValues(booking.StatusCanceled.String()).Inc()
	updated, err := u.findBooking(ctx, b.ID())
	if err != nil {
		return nil, err
	}
	u.notifier.PublishBookingEvent(ctx, b.ID(), "booking.canceled", bookingEventPayload(updated))
	return updated, nil
}

func (u *bookingUseCaseImpl) OpenDispute(
	ctx context.Context,
	actor Actor,
	bookingID uuid.UUID,
	reason string,
) (*booking.Booking, error) {
	now := u.clock.Now()

	b, err := u.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.ID != b.RequesterID() && actor.ID != b.ArtistID() {
		return nil, ErrNotParticipant
	}
	if b.Status() != booking.StatusInProgress {
		return nil, &StateConflictError{Actual: b.Status()}
	}
	if reason == "" {
		return nil, ErrRejectReasonRequired
	}

	err = withTx(ctx, u.db, func(tx pgx.Tx) error {
		err := u.bookingRepo.UpdateStatusGuarded(ctx, tx, b.ID(),
			[]booking.Status{booking.StatusInProgress}, booking.StatusDisputed, now)
		if err != nil {
			if isConflict(err) {
				return conflictWithActual(ctx, u.bookingRepo, tx, b.ID())
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return u.recorder.record(ctx, tx, b.ID(), "booking.disputed",
			"Disputa aberta: "+reason, map[string]any{
				"status": booking.StatusDisputed.String(),
				"reason": reason,
			}, now)
	})
	if err != nil {
		return nil, err
	}

	observability.BookingTransitions.WithLabelValues(booking.StatusDisputed.String()).Inc()
	updated, err := u.findBooking(ctx, b.ID())
	if err != nil {
		return nil, err
	}
	u.notifier.PublishBookingEvent(ctx, b.ID(), "booking.disputed", bookingEventPayload(updated))
	return updated, nil
}

func (u *bookingUseCaseImpl) ResolveDispute(
	ctx context.Context,
	actor Actor,
	bookingID uuid.UUID,
	outcome string,
	note string,
) (*booking.Booking, error) {
	now := u.clock.Now()

	if !actor.IsAdmin() {
		return nil, ErrNotParticipant
	}

	var next booking.Status
	switch outcome {
	case "complete":
		next = booking.StatusCompleted
	case "cancel":
		next = booking.StatusCanceled
	default:
		return nil, ErrInvalidDisputeOutcome
	}

	b, err := u.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status() != booking.StatusDisputed {
		return nil, &StateConflictError{Actual: b.Status()}
	}

	err = withTx(ctx, u.db, func(tx pgx.Tx) error {
		err := u.bookingRepo.UpdateStatusGuarded(ctx, tx, b.ID(),
			[]booking.Status{booking.StatusDisputed}, next, now)
		if err != nil {
			if isConflict(err) {
				return conflictWithActual(ctx, u.bookingRepo, tx, b.ID())
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if next == booking.StatusCompleted {
			if err := u.userRepo.IncrementCompleted(ctx, tx, b.ArtistID(), now); err != nil {
				return errs.Mark(err, ErrDatabaseOperationFailed)
			}
		}
		return u.recorder.record(ctx, tx, b.ID(), "booking.dispute_resolved",
			"Disputa resolvida: "+note, map[string]any{
				"status": next.String(),
				"note":   note,
			}, now)
	})
	if err != nil {
		return nil, err
	}

	observability.BookingTransitions.WithLabelValues(next.String()).Inc()
	updated, err := u.findBooking(ctx, b.ID())
	if err != nil {
		return nil, err
	}
	u.notifier.PublishBookingEvent(ctx, b.ID(), "booking.dispute_resolved", bookingEventPayload(updated))
	return updated, nil
}

func (u *bookingUseCaseImpl) GetBooking(ctx context.Context, actor Actor, bookingID uuid.UUID) (*booking.Booking, error) {
	b, err := u.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.ID != b.RequesterID() && actor.ID != b.ArtistID() {
		return nil, ErrNotParticipant
	}
	return b, nil
}

func (u *bookingUseCaseImpl) GetUserBookings(ctx context.Context, userID uuid.UUID) ([]*booking.Booking, error) {
	bookings, err := u.bookingRepo.ListByUser(ctx, u.db, userID)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return bookings, nil
}

func (u *bookingUseCaseImpl) findBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	b, err := u.bookingRepo.FindByID(ctx, u.db, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrBookingNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return b, nil
}

func (u *bookingUseCaseImpl) findUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	usr, err := u.userRepo.FindByID(ctx, u.db, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return usr, nil
}

func travelDistanceKm(base, venue *geo.Coordinates) *float64 {
	if base == nil || venue == nil {
		return nil
	}
	km := geo.DistanceKm(*base, *venue)
	return &km
}

func standingOf(artist *user.User) advance.ArtistStanding {
	return advance.ArtistStanding{
		Verified:          artist.Verified(),
		CompletedBookings: artist.CompletedBookings(),
		AverageRating:     artist.AverageRating(),
		AccountStatus:     artist.AccountStatus(),
	}
}

func bookingEventPayload(b *booking.Booking) map[string]any {
	return map[string]any{
		"booking_id":     b.ID().String(),
		"status":         b.Status().String(),
		"payment_status": b.PaymentStatus().String(),
		"total_cents":    b.Total().Cents(),
		"event_start":    b.Schedule().Start(),
	}
}

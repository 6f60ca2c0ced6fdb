package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"palco/internal/domain/booking"
	"palco/internal/domain/presence"
	"palco/internal/observability"
	"palco/internal/pkg/clock"
	"palco/internal/pkg/errs"
	"palco/internal/pkg/geo"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrArrivalExists          = errors.New("an arrival claim already exists for this booking")
	ErrArrivalNotFound        = errors.New("no arrival claim exists for this booking")
	ErrArrivalNotApproved     = errors.New("arrival claim is not approved yet")
	ErrArrivalAlreadyResolved = errors.New("arrival claim is already resolved")
	ErrDepartureExists        = errors.New("a departure claim already exists for this booking")
	ErrContestationExpired    = errors.New("contestation window has closed")
	ErrRejectionReasonMissing = errors.New("rejection reason is required")
)

// PayoutDelay is how long after completion the final transfer is scheduled.
const PayoutDelay = 48 * time.Hour

type CheckInCommand struct {
	Latitude  *float64
	Longitude *float64
	PhotoURL  string
}

type CheckOutCommand struct {
	Latitude  *float64
	Longitude *float64
}

type PresenceUseCase interface {
	CheckIn(ctx context.Context, artistID uuid.UUID, bookingID uuid.UUID, cmd CheckInCommand) (*presence.PresenceEvent, error)
	ValidateArrival(ctx context.Context, requesterID uuid.UUID, bookingID uuid.UUID, approve bool, reason string) (*presence.PresenceEvent, error)
	CheckOut(ctx context.Context, artistID uuid.UUID, bookingID uuid.UUID, cmd CheckOutCommand) (*presence.PresenceEvent, error)
	ConfirmManualStart(ctx context.Context, requesterID uuid.UUID, bookingID uuid.UUID) error
	ListPresenceEvents(ctx context.Context, actor Actor, bookingID uuid.UUID) ([]*presence.PresenceEvent, error)
}

type presenceUseCaseImpl struct {
	bookingRepo  BookingRepository
	presenceRepo PresenceRepository
	advanceRepo  AdvanceRepository
	userRepo     UserRepository
	recorder     *transitionRecorder
	notifier     Notifier
	db           DB
	clock        clock.Clock
}

func NewPresenceUseCase(
	bookingRepo BookingRepository,
	presenceRepo PresenceRepository,
	advanceRepo AdvanceRepository,
	userRepo UserRepository,
	messageRepo MessageRepository,
	outboxRepo OutboxRepository,
	notifier Notifier,
	db DB,
	clock clock.Clock,
) PresenceUseCase {
	return &presenceUseCaseImpl{
		bookingRepo:  bookingRepo,
		presenceRepo: presenceRepo,
		advanceRepo:  advanceRepo,
		userRepo:     userRepo,
		recorder:     newTransitionRecorder(messageRepo, outboxRepo),
		notifier:     notifier,
		db:           db,
		clock:        clock,
	}
}

func (u *presenceUseCaseImpl) CheckIn(
	ctx context.Context,
	artistID uuid.UUID,
	bookingID uuid.UUID,
	cmd CheckInCommand,
) (*presence.PresenceEvent, error) {
	now := u.clock.Now()

	b, err := u.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.ArtistID() != artistID {
		return nil, ErrNotBookingArtist
	}
	if b.Status() != booking.StatusConfirmed {
		return nil, &StateConflictError{Actual: b.Status()}
	}

	var coords *geo.Coordinates
	if cmd.Latitude != nil && cmd.Longitude != nil {
		coords = &geo.Coordinates{Latitude: *cmd.Latitude, Longitude: *cmd.Longitude}
	}

	arrival, err := presence.NewArrival(
		bookingID, coords, cmd.PhotoURL,
		b.Location().Coordinates(), b.Schedule().Start(), now,
	)
	if err != nil {
		return nil, errs.Mark(err, ErrDomainValidationFailed)
	}

	err = withTx(ctx, u.db, func(tx pgx.Tx) error {
		if err := u.presenceRepo.Create(ctx, tx, arrival); err != nil {
			if isDuplicate(err) {
				return ErrArrivalExists
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		err := u.bookingRepo.UpdateStatusGuarded(ctx, tx, bookingID,
			[]booking.Status{booking.StatusConfirmed}, booking.StatusInProgress, now)
		if err != nil {
			if isConflict(err) {
				return conflictWithActual(ctx, u.bookingRepo, tx, bookingID)
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return u.recorder.record(ctx, tx, bookingID, "presence.checkin",
			checkInMessage(arrival), presencePayload(arrival), now)
	})
	if err != nil {
		return nil, err
	}

	observability.BookingTransitions.WithLabelValues(booking.StatusInProgress.String()).Inc()
	observability.CheckInScores.Observe(float64(arrival.ConfidenceScore()))
	u.notifier.PublishBookingEvent(ctx, bookingID, "presence.checkin", presencePayload(arrival))
	return arrival, nil
}

func (u *presenceUseCaseImpl) ValidateArrival(
	ctx context.Context,
	requesterID uuid.UUID,
	bookingID uuid.UUID,
	approve bool,
	reason string,
) (*presence.PresenceEvent, error) {
	now := u.clock.Now()

	b, err := u.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.RequesterID() != requesterID {
		return nil, ErrNotBookingRequester
	}

	arrival, err := u.presenceRepo.FindLatestByBookingAndKind(ctx, u.db, bookingID, presence.KindArrival)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrArrivalNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if !arrival.IsPending() {
		return nil, ErrArrivalAlreadyResolved
	}
	if now.After(arrival.ContestationDeadline()) {
		// The reconciler owns this claim now.
		return nil, ErrContestationExpired
	}

	if approve {
		return u.approveArrival(ctx, arrival, requesterID, now)
	}
	return u.rejectArrival(ctx, b, arrival, requesterID, reason, now)
}

func (u *presenceUseCaseImpl) approveArrival(
	ctx context.Context,
	arrival *presence.PresenceEvent,
	requesterID uuid.UUID,
	now time.Time,
) (*presence.PresenceEvent, error) {
	bookingID := arrival.BookingID()
	var advanceReleased bool

	err := withTx(ctx, u.db, func(tx pgx.Tx) error {
		err := u.presenceRepo.UpdateApprovalGuarded(ctx, tx, arrival.ID(),
			presence.ApprovalApproved, &requesterID, "", now)
		if err != nil {
			if isConflict(err) {
				return ErrArrivalAlreadyResolved
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		// An eligible advance unlocks the moment the check-in is approved.
		advanceReleased, err = u.advanceRepo.Release(ctx, tx, bookingID, arrival.ID(), now)
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		body := "Check-in aprovado pelo contratante."
		if advanceReleased {
			body += " Adiantamento liberado."
		}
		return u.recorder.record(ctx, tx, bookingID, "presence.approved", body, map[string]any{
			"presence_event_id": arrival.ID().String(),
			"advance_released":  advanceReleased,
		}, now)
	})
	if err != nil {
		return nil, err
	}

	if advanceReleased {
		observability.AdvanceReleases.Inc()
	}
	u.notifier.PublishBookingEvent(ctx, bookingID, "presence.approved", presencePayload(arrival))
	return u.presenceRepo.FindByID(ctx, u.db, arrival.ID())
}

func (u *presenceUseCaseImpl) rejectArrival(
	ctx context.Context,
	b *booking.Booking,
	arrival *presence.PresenceEvent,
	requesterID uuid.UUID,
	reason string,
	now time.Time,
) (*presence.PresenceEvent, error) {
	if reason == "" {
		return nil, ErrRejectionReasonMissing
	}

	err := withTx(ctx, u.db, func(tx pgx.Tx) error {
		err := u.presenceRepo.UpdateApprovalGuarded(ctx, tx, arrival.ID(),
			presence.ApprovalRejected, &requesterID, reason, now)
		if err != nil {
			if isConflict(err) {
				return ErrArrivalAlreadyResolved
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		// A rejected check-in means the event has not started: revert the
		// booking. This is the one sanctioned backward edge in the lifecycle.
		err = u.bookingRepo.UpdateStatusGuarded(ctx, tx, b.ID(),
			[]booking.Status{booking.StatusInProgress}, booking.StatusConfirmed, now)
		if err != nil {
			if isConflict(err) {
				return conflictWithActual(ctx, u.bookingRepo, tx, b.ID())
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		return u.recorder.record(ctx, tx, b.ID(), "presence.rejected",
			"Check-in contestado pelo contratante: "+reason, map[string]any{
				"presence_event_id": arrival.ID().String(),
				"reason":            reason,
			}, now)
	})
	if err != nil {
		return nil, err
	}

	u.notifier.PublishBookingEvent(ctx, b.ID(), "presence.rejected", presencePayload(arrival))
	return u.presenceRepo.FindByID(ctx, u.db, arrival.ID())
}

func (u *presenceUseCaseImpl) CheckOut(
	ctx context.Context,
	artistID uuid.UUID,
	bookingID uuid.UUID,
	cmd CheckOutCommand,
) (*presence.PresenceEvent, error) {
	now := u.clock.Now()

	b, err := u.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.ArtistID() != artistID {
		return nil, ErrNotBookingArtist
	}
	if b.Status() != booking.StatusInProgress {
		return nil, &StateConflictError{Actual: b.Status()}
	}

	arrival, err := u.presenceRepo.FindLatestByBookingAndKind(ctx, u.db, bookingID, presence.KindArrival)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrArrivalNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if arrival.ApprovalStatus() != presence.ApprovalApproved {
		return nil, ErrArrivalNotApproved
	}

	var coords *geo.Coordinates
	if cmd.Latitude != nil && cmd.Longitude != nil {
		coords = &geo.Coordinates{Latitude: *cmd.Latitude, Longitude: *cmd.Longitude}
	}
	departure := presence.NewDeparture(bookingID, coords, now)

	payoutAt := now.Add(PayoutDelay)
	err = withTx(ctx, u.db, func(tx pgx.Tx) error {
		if err := u.presenceRepo.Create(ctx, tx, departure); err != nil {
			if isDuplicate(err) {
				return ErrDepartureExists
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		err := u.bookingRepo.UpdateStatusGuarded(ctx, tx, bookingID,
			[]booking.Status{booking.StatusInProgress}, booking.StatusCompleted, now)
		if err != nil {
			if isConflict(err) {
				return conflictWithActual(ctx, u.bookingRepo, tx, bookingID)
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if err := u.userRepo.IncrementCompleted(ctx, tx, b.ArtistID(), now); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		body := fmt.Sprintf("Check-out registrado. Show concluído. Repasse agendado para %s.",
			payoutAt.Format("02/01/2006 15:04"))
		return u.recorder.record(ctx, tx, bookingID, "presence.checkout", body, map[string]any{
			"presence_event_id": departure.ID().String(),
			"payout_at":         payoutAt,
		}, now)
	})
	if err != nil {
		return nil, err
	}

	observability.BookingTransitions.WithLabelValues(booking.StatusCompleted.String()).Inc()
	u.notifier.PublishBookingEvent(ctx, bookingID, "presence.checkout", presencePayload(departure))
	return departure, nil
}

func (u *presenceUseCaseImpl) ConfirmManualStart(
	ctx context.Context,
	requesterID uuid.UUID,
	bookingID uuid.UUID,
) error {
	now := u.clock.Now()

	b, err := u.findBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.RequesterID() != requesterID {
		return ErrNotBookingRequester
	}
	if b.Status() != booking.StatusConfirmed {
		return &StateConflictError{Actual: b.Status()}
	}

	_, err = u.presenceRepo.FindLatestByBookingAndKind(ctx, u.db, bookingID, presence.KindArrival)
	if err == nil {
		return ErrArrivalExists
	}
	if !isNotFound(err) {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	err = withTx(ctx, u.db, func(tx pgx.Tx) error {
		err := u.bookingRepo.UpdateStatusGuarded(ctx, tx, bookingID,
			[]booking.Status{booking.StatusConfirmed}, booking.StatusInProgress, now)
		if err != nil {
			if isConflict(err) {
				return conflictWithActual(ctx, u.bookingRepo, tx, bookingID)
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return u.recorder.record(ctx, tx, bookingID, "presence.manual_start",
			"Início confirmado manualmente pelo contratante, sem verificação de presença.",
			map[string]any{"status": booking.StatusInProgress.String()}, now)
	})
	if err != nil {
		return err
	}

	observability.BookingTransitions.WithLabelValues(booking.StatusInProgress.String()).Inc()
	observability.ManualStarts.Inc()
	u.notifier.PublishBookingEvent(ctx, bookingID, "presence.manual_start", map[string]any{
		"booking_id": bookingID.String(),
		"status":     booking.StatusInProgress.String(),
	})
	return nil
}

func (u *presenceUseCaseImpl) ListPresenceEvents(ctx context.Context, actor Actor, bookingID uuid.UUID) ([]*presence.PresenceEvent, error) {
	b, err := u.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.ID != b.RequesterID() && actor.ID != b.ArtistID() {
		return nil, ErrNotParticipant
	}
	events, err := u.presenceRepo.ListByBooking(ctx, u.db, bookingID)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return events, nil
}

func (u *presenceUseCaseImpl) findBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	b, err := u.bookingRepo.FindByID(ctx, u.db, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrBookingNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return b, nil
}

func checkInMessage(e *presence.PresenceEvent) string {
	distance := "distância desconhecida"
	if d := e.DistanceMeters(); d != nil {
		distance = fmt.Sprintf("%.0f m do local", *d)
	}
	window := "fora da janela de check-in"
	if e.WithinWindow() {
		window = "dentro da janela de check-in"
	}
	return fmt.Sprintf("Check-in registrado (%s, %s). Confiança: %d/100.",
		distance, window, e.ConfidenceScore())
}

func presencePayload(e *presence.PresenceEvent) map[string]any {
	return map[string]any{
		"presence_event_id": e.ID().String(),
		"booking_id":        e.BookingID().String(),
		"kind":              string(e.Kind()),
		"approval_status":   string(e.ApprovalStatus()),
		"confidence_score":  e.ConfidenceScore(),
	}
}

package usecase

import (
	"context"
	"log/slog"
	"time"

	"palco/internal/domain/booking"
	"palco/internal/domain/presence"
	"palco/internal/observability"
	"palco/internal/pkg/clock"
	"palco/internal/pkg/errs"

	"github.com/jackc/pgx/v5"
)

// OverrunGrace is how far past the scheduled end a booking may run before the
// overrun sweep finalizes it.
const OverrunGrace = 2 * time.Hour

// ReconcilerUseCase resolves the time-based transitions no synchronous
// request would trigger. Both sweeps are idempotent: every row is settled
// with the same status-guarded update user actions use, so a lost race is a
// skip, not an error.
type ReconcilerUseCase interface {
	ApproveStaleArrivals(ctx context.Context) (int, error)
	CompleteOverrunBookings(ctx context.Context) (int, error)
	LiftExpiredSuspensions(ctx context.Context) (int64, error)
}

type reconcilerUseCaseImpl struct {
	bookingRepo  BookingRepository
	presenceRepo PresenceRepository
	advanceRepo  AdvanceRepository
	userRepo     UserRepository
	recorder     *transitionRecorder
	db           DB
	clock        clock.Clock
}

func NewReconcilerUseCase(
	bookingRepo BookingRepository,
	presenceRepo PresenceRepository,
	advanceRepo AdvanceRepository,
	userRepo UserRepository,
	messageRepo MessageRepository,
	outboxRepo OutboxRepository,
	db DB,
	clock clock.Clock,
) ReconcilerUseCase {
	return &reconcilerUseCaseImpl{
		bookingRepo:  bookingRepo,
		presenceRepo: presenceRepo,
		advanceRepo:  advanceRepo,
		userRepo:     userRepo,
		recorder:     newTransitionRecorder(messageRepo, outboxRepo),
		db:           db,
		clock:        clock,
	}
}

// ApproveStaleArrivals flips every PENDING arrival past its contestation
// deadline to APPROVED with no approver, releasing any pending advance.
func (u *reconcilerUseCaseImpl) ApproveStaleArrivals(ctx context.Context) (int, error) {
	now := u.clock.Now()
	cutoff := now.Add(-presence.ContestationWindow)

	stale, err := u.presenceRepo.ListStalePendingArrivals(ctx, u.db, cutoff)
	if err != nil {
		observability.ReconcilerSweeps.WithLabelValues("stale_arrivals", "error").Inc()
		return 0, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	resolved := 0
	for _, arrival := range stale {
		err := withTx(ctx, u.db, func(tx pgx.Tx) error {
			err := u.presenceRepo.UpdateApprovalGuarded(ctx, tx, arrival.ID(),
				presence.ApprovalApproved, nil, "", now)
			if err != nil {
				return err
			}

			released, err := u.advanceRepo.Release(ctx, tx, arrival.BookingID(), arrival.ID(), now)
			if err != nil {
				return errs.Mark(err, ErrDatabaseOperationFailed)
			}

			body := "Check-in aprovado automaticamente após 1 hora sem contestação."
			if released {
				body += " Adiantamento liberado."
			}
			return u.recorder.record(ctx, tx, arrival.BookingID(), "presence.auto_approved", body, map[string]any{
				"presence_event_id": arrival.ID().String(),
				"advance_released":  released,
			}, now)
		})
		if err != nil {
			if isConflict(err) {
				// Resolved by the requester between listing and locking.
				continue
			}
			slog.Error("failed to auto-approve arrival",
				"error", err, "presence_event_id", arrival.ID(), "booking_id", arrival.BookingID())
			continue
		}
		resolved++
	}

	observability.ReconcilerSweeps.WithLabelValues("stale_arrivals", "ok").Inc()
	observability.ReconcilerResolved.WithLabelValues("stale_arrivals").Add(float64(resolved))
	return resolved, nil
}

// CompleteOverrunBookings finalizes every EM_ANDAMENTO booking whose
// scheduled end plus the grace period has elapsed.
func (u *reconcilerUseCaseImpl) CompleteOverrunBookings(ctx context.Context) (int, error) {
	now := u.clock.Now()

	overrun, err := u.bookingRepo.FindOverrun(ctx, u.db, now, OverrunGrace)
	if err != nil {
		observability.ReconcilerSweeps.WithLabelValues("overrun", "error").Inc()
		return 0, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	resolved := 0
	for _, b := range overrun {
		err := withTx(ctx, u.db, func(tx pgx.Tx) error {
			err := u.bookingRepo.UpdateStatusGuarded(ctx, tx, b.ID(),
				[]booking.Status{booking.StatusInProgress}, booking.StatusCompleted, now)
			if err != nil {
				return err
			}
			if err := u.userRepo.IncrementCompleted(ctx, tx, b.ArtistID(), now); err != nil {
				return errs.Mark(err, ErrDatabaseOperationFailed)
			}
			return u.recorder.record(ctx, tx, b.ID(), "booking.auto_completed",
				"Show concluído automaticamente após o horário previsto.", map[string]any{
					"status": booking.StatusCompleted.String(),
				}, now)
		})
		if err != nil {
			if isConflict(err) {
				continue
			}
			slog.Error("failed to auto-complete booking", "error", err, "booking_id", b.ID())
			continue
		}
		resolved++
		observability.BookingTransitions.WithLabelValues(booking.StatusCompleted.String()).Inc()
	}

	observability.ReconcilerSweeps.WithLabelValues("overrun", "ok").Inc()
	observability.ReconcilerResolved.WithLabelValues("overrun").Add(float64(resolved))
	return resolved, nil
}

// LiftExpiredSuspensions reactivates accounts whose suspension term elapsed
// without the user ever triggering the opportunistic check in canSend.
func (u *reconcilerUseCaseImpl) LiftExpiredSuspensions(ctx context.Context) (int64, error) {
	now := u.clock.Now()

	lifted, err := u.userRepo.ReactivateExpiredSuspensions(ctx, u.db, now)
	if err != nil {
		observability.ReconcilerSweeps.WithLabelValues("suspensions", "error").Inc()
		return 0, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	observability.ReconcilerSweeps.WithLabelValues("suspensions", "ok").Inc()
	observability.ReconcilerResolved.WithLabelValues("suspensions").Add(float64(lifted))
	return lifted, nil
}

package usecase

import (
	"context"
	"errors"
	"log/slog"

	"palco/internal/domain/booking"
	"palco/internal/observability"
	"palco/internal/pkg/clock"
	"palco/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrUnknownProviderStatus = errors.New("unknown payment provider status")

// providerStatusMap translates the gateway's vocabulary into ours.
var providerStatusMap = map[string]booking.PaymentStatus{
	"paid":      booking.PaymentConfirmed,
	"approved":  booking.PaymentConfirmed,
	"confirmed": booking.PaymentConfirmed,
	"refunded":  booking.PaymentRefunded,
	"failed":    booking.PaymentFailed,
	"overdue":   booking.PaymentFailed,
}

type PaymentUseCase interface {
	ApplyProviderStatus(ctx context.Context, bookingID uuid.UUID, providerPaymentID, providerStatus string) error
}

type paymentUseCaseImpl struct {
	bookingRepo BookingRepository
	recorder    *transitionRecorder
	notifier    Notifier
	db          DB
	clock       clock.Clock
}

func NewPaymentUseCase(
	bookingRepo BookingRepository,
	messageRepo MessageRepository,
	outboxRepo OutboxRepository,
	notifier Notifier,
	db DB,
	clock clock.Clock,
) PaymentUseCase {
	return &paymentUseCaseImpl{
		bookingRepo: bookingRepo,
		recorder:    newTransitionRecorder(messageRepo, outboxRepo),
		notifier:    notifier,
		db:          db,
		clock:       clock,
	}
}

// ApplyProviderStatus handles the asynchronous gateway callback. Payment
// status always lands; the booking-status side effect is attempted with the
// usual guard and skipped when the booking has already moved on.
func (u *paymentUseCaseImpl) ApplyProviderStatus(
	ctx context.Context,
	bookingID uuid.UUID,
	providerPaymentID string,
	providerStatus string,
) error {
	now := u.clock.Now()

	ps, ok := providerStatusMap[providerStatus]
	if !ok {
		return ErrUnknownProviderStatus
	}

	b, err := u.bookingRepo.FindByID(ctx, u.db, bookingID)
	if err != nil {
		if isNotFound(err) {
			return ErrBookingNotFound
		}
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	var transitioned *booking.Status
	err = withTx(ctx, u.db, func(tx pgx.Tx) error {
		if err := u.bookingRepo.UpdatePaymentStatus(ctx, tx, bookingID, ps, now); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		switch ps {
		case booking.PaymentConfirmed:
			if b.Status() == booking.StatusAccepted {
				err := u.bookingRepo.UpdateStatusGuarded(ctx, tx, bookingID,
					[]booking.Status{booking.StatusAccepted}, booking.StatusConfirmed, now)
				if err != nil && !isConflict(err) {
					return errs.Mark(err, ErrDatabaseOperationFailed)
				}
				if err == nil {
					s := booking.StatusConfirmed
					transitioned = &s
				}
			}
			return u.recorder.record(ctx, tx, bookingID, "payment.confirmed",
				"Pagamento confirmado.", map[string]any{
					"payment_status":      ps.String(),
					"provider_payment_id": providerPaymentID,
				}, now)

		case booking.PaymentRefunded:
			if !b.Status().IsTerminal() && b.Status() != booking.StatusInProgress {
				err := u.bookingRepo.CancelGuarded(ctx, tx, bookingID,
					[]booking.Status{booking.StatusPending, booking.StatusAccepted, booking.StatusConfirmed},
					0, "pagamento reembolsado", now)
				if err != nil && !isConflict(err) {
					return errs.Mark(err, ErrDatabaseOperationFailed)
				}
				if err == nil {
					s := booking.StatusCanceled
					transitioned = &s
				}
			}
			return u.recorder.record(ctx, tx, bookingID, "payment.refunded",
				"Pagamento reembolsado.", map[string]any{
					"payment_status":      ps.String(),
					"provider_payment_id": providerPaymentID,
				}, now)

		default:
			return u.recorder.record(ctx, tx, bookingID, "payment.failed",
				"Pagamento falhou ou expirou.", map[string]any{
					"payment_status":      ps.String(),
					"provider_payment_id": providerPaymentID,
				}, now)
		}
	})
	if err != nil {
		return err
	}

	if transitioned != nil {
		observability.BookingTransitions.WithLabelValues(transitioned.String()).Inc()
	} else if ps == booking.PaymentConfirmed && b.Status() == booking.StatusAccepted {
		slog.Info("booking moved before payment confirmation landed", "booking_id", bookingID)
	}

	u.notifier.PublishBookingEvent(ctx, bookingID, "payment."+providerStatus, map[string]any{
		"booking_id":          bookingID.String(),
		"payment_status":      ps.String(),
		"provider_payment_id": providerPaymentID,
	})
	return nil
}

package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"palco/internal/domain/advance"
	"palco/internal/domain/booking"
	"palco/internal/domain/chat"
	"palco/internal/domain/moderation"
	"palco/internal/domain/presence"
	"palco/internal/domain/user"
	"palco/internal/infra"
	"palco/internal/infra/db"
	"palco/internal/infra/repository"
	"palco/internal/observability"
	"palco/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Error markers for categorization
var (
	ErrDomainValidationFailed  = errors.New("domain validation failed")
	ErrDatabaseOperationFailed = errors.New("database operation failed")
)

// StateConflictError carries the actual current status so the caller can
// refresh instead of guessing why the operation was rejected.
type StateConflictError struct {
	Actual booking.Status
}

func (e *StateConflictError) Error() string {
	return "booking is " + e.Actual.String()
}

type BookingRepository interface {
	Create(ctx context.Context, dbtx db.DBTX, b *booking.Booking) error
	FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*booking.Booking, error)
	ListByUser(ctx context.Context, dbtx db.DBTX, userID uuid.UUID) ([]*booking.Booking, error)
	UpdateStatusGuarded(ctx context.Context, dbtx db.DBTX, id uuid.UUID, expected []booking.Status, next booking.Status, now time.Time) error
	AcceptWithValue(ctx context.Context, dbtx db.DBTX, id uuid.UUID, next booking.Status, valueCents, feeCents, totalCents int64, tier user.PlanTier, now time.Time) error
	CancelGuarded(ctx context.Context, dbtx db.DBTX, id uuid.UUID, expected []booking.Status, feeCents int64, reason string, now time.Time) error
	UpdatePaymentStatus(ctx context.Context, dbtx db.DBTX, id uuid.UUID, ps booking.PaymentStatus, now time.Time) error
	UpdateAdvanceEligibility(ctx context.Context, dbtx db.DBTX, id uuid.UUID, eligible bool, reason string, now time.Time) error
	FindOverrun(ctx context.Context, dbtx db.DBTX, now time.Time, grace time.Duration) ([]*booking.Booking, error)
}

type UserRepository interface {
	FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*user.User, error)
	UpdateAccountStatus(ctx context.Context, dbtx db.DBTX, id uuid.UUID, status user.AccountStatus, suspensionStart *time.Time, suspensionDays int, now time.Time) error
	IncrementCompleted(ctx context.Context, dbtx db.DBTX, id uuid.UUID, now time.Time) error
	ReactivateExpiredSuspensions(ctx context.Context, dbtx db.DBTX, now time.Time) (int64, error)
}

type PresenceRepository interface {
	Create(ctx context.Context, dbtx db.DBTX, e *presence.PresenceEvent) error
	FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*presence.PresenceEvent, error)
	FindLatestByBookingAndKind(ctx context.Context, dbtx db.DBTX, bookingID uuid.UUID, kind presence.Kind) (*presence.PresenceEvent, error)
	ListByBooking(ctx context.Context, dbtx db.DBTX, bookingID uuid.UUID) ([]*presence.PresenceEvent, error)
	UpdateApprovalGuarded(ctx context.Context, dbtx db.DBTX, id uuid.UUID, next presence.ApprovalStatus, approvedBy *uuid.UUID, rejectionReason string, now time.Time) error
	ListStalePendingArrivals(ctx context.Context, dbtx db.DBTX, cutoff time.Time) ([]*presence.PresenceEvent, error)
}

type ViolationRepository interface {
	Create(ctx context.Context, dbtx db.DBTX, v *moderation.ViolationRecord) error
	CountByUser(ctx context.Context, dbtx db.DBTX, userID uuid.UUID) (int, error)
	ListByUser(ctx context.Context, dbtx db.DBTX, userID uuid.UUID) ([]*moderation.ViolationRecord, error)
}

type AdvanceRepository interface {
	Create(ctx context.Context, dbtx db.DBTX, a *advance.AdvancePayment) error
	FindByBookingID(ctx context.Context, dbtx db.DBTX, bookingID uuid.UUID) (*advance.AdvancePayment, error)
	Release(ctx context.Context, dbtx db.DBTX, bookingID uuid.UUID, checkoutProofID uuid.UUID, now time.Time) (bool, error)
}

type MessageRepository interface {
	Create(ctx context.Context, dbtx db.DBTX, m *chat.Message) error
	ListByBooking(ctx context.Context, dbtx db.DBTX, bookingID uuid.UUID) ([]*chat.Message, error)
}

type OutboxRepository interface {
	Insert(ctx context.Context, dbtx db.DBTX, e *repository.OutboxEvent) error
	FetchUnpublished(ctx context.Context, dbtx db.DBTX, limit int) ([]*repository.OutboxEvent, error)
	MarkPublished(ctx context.Context, dbtx db.DBTX, id uuid.UUID, now time.Time) error
	CountUnpublished(ctx context.Context, dbtx db.DBTX) (int, error)
}

// Notifier is the real-time channel. Delivery is best-effort and never
// observed by the calling transition.
type Notifier interface {
	PublishBookingEvent(ctx context.Context, bookingID uuid.UUID, eventType string, payload any)
}

// DB is what use cases need from the connection pool: plain queries plus the
// ability to open a transaction. *pgxpool.Pool satisfies it.
type DB interface {
	db.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Actor is the authenticated caller as resolved by the auth middleware.
type Actor struct {
	ID   uuid.UUID
	Role user.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == user.RoleAdmin
}

func withTx(ctx context.Context, pool DB, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			slog.Warn("failed to rollback transaction", "error", rollbackErr)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return nil
}

// transitionRecorder stages the side effects every transition carries: a
// system-authored chat message and an outbox event, both inside the owning
// transaction so they cannot outrun or lag the state change.
type transitionRecorder struct {
	messageRepo MessageRepository
	outboxRepo  OutboxRepository
}

func newTransitionRecorder(messageRepo MessageRepository, outboxRepo OutboxRepository) *transitionRecorder {
	return &transitionRecorder{messageRepo: messageRepo, outboxRepo: outboxRepo}
}

func (r *transitionRecorder) record(
	ctx context.Context,
	dbtx db.DBTX,
	bookingID uuid.UUID,
	eventType, messageBody string,
	payload any,
	now time.Time,
) error {
	if err := r.messageRepo.Create(ctx, dbtx, chat.NewSystemMessage(bookingID, messageBody, now)); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	event, err := repository.NewOutboxEvent(bookingID, eventType, payload, now)
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if err := r.outboxRepo.Insert(ctx, dbtx, event); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return nil
}

// conflictWithActual re-reads the row after a lost CAS so the caller sees
// what the status actually is now.
func conflictWithActual(ctx context.Context, repo BookingRepository, dbtx db.DBTX, id uuid.UUID) error {
	current, err := repo.FindByID(ctx, dbtx, id)
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	observability.TransitionConflicts.Inc()
	return &StateConflictError{Actual: current.Status()}
}

func isConflict(err error) bool {
	return infra.IsKind(err, infra.KindConflict)
}

func isDuplicate(err error) bool {
	return infra.IsKind(err, infra.KindDuplicateKey)
}

func isNotFound(err error) bool {
	return infra.IsKind(err, infra.KindNotFound)
}

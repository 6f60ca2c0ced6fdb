package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"palco/internal/domain/chat"
	"palco/internal/domain/moderation"
	"palco/internal/domain/user"
	"palco/internal/observability"
	"palco/internal/pkg/clock"
	"palco/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrEmptyMessage    = errors.New("message body is empty")
	ErrSenderBanned    = errors.New("sender is permanently banned")
	ErrSenderSuspended = errors.New("sender is suspended")
)

// SuspendedError surfaces when the suspension lifts so the client can say so.
type SuspendedError struct {
	Until time.Time
}

func (e *SuspendedError) Error() string {
	return "sender is suspended until " + e.Until.Format(time.RFC3339)
}

// BlockedMessageError reports the enforcement action taken against a message
// that tripped the contact filter. The message itself is never delivered.
type BlockedMessageError struct {
	Action         moderation.Action
	SuspensionDays int
	Categories     []moderation.PatternCategory
}

func (e *BlockedMessageError) Error() string {
	return fmt.Sprintf("message blocked by moderation, action %s", e.Action)
}

type ModerationUseCase interface {
	SendMessage(ctx context.Context, senderID uuid.UUID, bookingID uuid.UUID, body string) (*chat.Message, error)
	GetMessages(ctx context.Context, actor Actor, bookingID uuid.UUID) ([]*chat.Message, error)
	GetViolations(ctx context.Context, actor Actor, userID uuid.UUID) ([]*moderation.ViolationRecord, error)
}

type moderationUseCaseImpl struct {
	bookingRepo   BookingRepository
	userRepo      UserRepository
	violationRepo ViolationRepository
	messageRepo   MessageRepository
	notifier      Notifier
	db            DB
	clock         clock.Clock
}

func NewModerationUseCase(
	bookingRepo BookingRepository,
	userRepo UserRepository,
	violationRepo ViolationRepository,
	messageRepo MessageRepository,
	notifier Notifier,
	db DB,
	clock clock.Clock,
) ModerationUseCase {
	return &moderationUseCaseImpl{
		bookingRepo:   bookingRepo,
		userRepo:      userRepo,
		violationRepo: violationRepo,
		messageRepo:   messageRepo,
		notifier:      notifier,
		db:            db,
		clock:         clock,
	}
}

// SendMessage runs the full moderation path synchronously: the send only
// succeeds after the filter has cleared the text, never before.
func (u *moderationUseCaseImpl) SendMessage(
	ctx context.Context,
	senderID uuid.UUID,
	bookingID uuid.UUID,
	body string,
) (*chat.Message, error) {
	now := u.clock.Now()

	if body == "" {
		return nil, ErrEmptyMessage
	}

	b, err := u.bookingRepo.FindByID(ctx, u.db, bookingID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrBookingNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if senderID != b.RequesterID() && senderID != b.ArtistID() {
		return nil, ErrNotParticipant
	}

	sender, err := u.userRepo.FindByID(ctx, u.db, senderID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	if err := u.canSend(ctx, sender, now); err != nil {
		return nil, err
	}

	result := moderation.Detect(body)
	if result.Violated {
		return nil, u.enforce(ctx, sender, bookingID, body, result, now)
	}

	msg := chat.NewUserMessage(bookingID, senderID, body, now)
	err = withTx(ctx, u.db, func(tx pgx.Tx) error {
		if err := u.messageRepo.Create(ctx, tx, msg); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.notifier.PublishBookingEvent(ctx, bookingID, "message.sent", map[string]any{
		"message_id": msg.ID().String(),
		"sender_id":  senderID.String(),
		"body":       body,
	})
	return msg, nil
}

// canSend blocks banned senders outright and suspended senders until their
// term elapses, reactivating the account opportunistically when it has.
func (u *moderationUseCaseImpl) canSend(ctx context.Context, sender *user.User, now time.Time) error {
	switch sender.AccountStatus() {
	case user.StatusBanned:
		return ErrSenderBanned
	case user.StatusSuspended:
		liftedAt := sender.SuspensionLiftedAt()
		if liftedAt == nil {
			// A SUSPENSO row without a suspension start is corrupt. Stay
			// blocked rather than invent a lift date.
			slog.Error("suspended account has no suspension start", "user_id", sender.ID())
			return ErrSenderSuspended
		}
		if now.Before(*liftedAt) {
			return &SuspendedError{Until: *liftedAt}
		}
		err := u.userRepo.UpdateAccountStatus(ctx, u.db, sender.ID(), user.StatusActive, nil, 0, now)
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return nil
	default:
		return nil
	}
}

func (u *moderationUseCaseImpl) enforce(
	ctx context.Context,
	sender *user.User,
	bookingID uuid.UUID,
	body string,
	result moderation.DetectionResult,
	now time.Time,
) error {
	prior, err := u.violationRepo.CountByUser(ctx, u.db, sender.ID())
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	action, suspensionDays := moderation.DecideAction(prior)
	record := moderation.NewViolationRecord(
		sender.ID(), result.Categories, body, &bookingID, action, suspensionDays, now,
	)

	err = withTx(ctx, u.db, func(tx pgx.Tx) error {
		if err := u.violationRepo.Create(ctx, tx, record); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		switch action {
		case moderation.ActionSuspend:
			start := now
			return wrapDB(u.userRepo.UpdateAccountStatus(ctx, tx, sender.ID(), user.StatusSuspended, &start, suspensionDays, now))
		case moderation.ActionBan:
			return wrapDB(u.userRepo.UpdateAccountStatus(ctx, tx, sender.ID(), user.StatusBanned, nil, 0, now))
		default:
			return nil
		}
	})
	if err != nil {
		return err
	}

	observability.ModerationActions.WithLabelValues(string(action)).Inc()
	return &BlockedMessageError{
		Action:         action,
		SuspensionDays: suspensionDays,
		Categories:     result.Categories,
	}
}

func (u *moderationUseCaseImpl) GetMessages(ctx context.Context, actor Actor, bookingID uuid.UUID) ([]*chat.Message, error) {
	b, err := u.bookingRepo.FindByID(ctx, u.db, bookingID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrBookingNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if !actor.IsAdmin() && actor.ID != b.RequesterID() && actor.ID != b.ArtistID() {
		return nil, ErrNotParticipant
	}
	messages, err := u.messageRepo.ListByBooking(ctx, u.db, bookingID)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return messages, nil
}

func (u *moderationUseCaseImpl) GetViolations(ctx context.Context, actor Actor, userID uuid.UUID) ([]*moderation.ViolationRecord, error) {
	if !actor.IsAdmin() && actor.ID != userID {
		return nil, ErrNotParticipant
	}
	violations, err := u.violationRepo.ListByUser(ctx, u.db, userID)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return violations, nil
}

func wrapDB(err error) error {
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return nil
}

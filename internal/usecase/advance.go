package usecase

import (
	"context"
	"errors"
	"fmt"

	"palco/internal/domain/advance"
	"palco/internal/domain/booking"
	"palco/internal/pkg/clock"
	"palco/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrAdvanceNotEligible = errors.New("booking is not eligible for an advance")
	ErrAdvanceExists      = errors.New("an advance already exists for this booking")
	ErrAdvanceNotFound    = errors.New("no advance exists for this booking")
)

type AdvanceUseCase interface {
	CheckEligibility(ctx context.Context, actor Actor, bookingID uuid.UUID) (*advance.Eligibility, error)
	RequestAdvance(ctx context.Context, artistID uuid.UUID, bookingID uuid.UUID) (*advance.AdvancePayment, error)
	GetAdvance(ctx context.Context, actor Actor, bookingID uuid.UUID) (*advance.AdvancePayment, error)
}

type advanceUseCaseImpl struct {
	bookingRepo BookingRepository
	userRepo    UserRepository
	advanceRepo AdvanceRepository
	recorder    *transitionRecorder
	db          DB
	clock       clock.Clock
}

func NewAdvanceUseCase(
	bookingRepo BookingRepository,
	userRepo UserRepository,
	advanceRepo AdvanceRepository,
	messageRepo MessageRepository,
	outboxRepo OutboxRepository,
	db DB,
	clock clock.Clock,
) AdvanceUseCase {
	return &advanceUseCaseImpl{
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		advanceRepo: advanceRepo,
		recorder:    newTransitionRecorder(messageRepo, outboxRepo),
		db:          db,
		clock:       clock,
	}
}

// CheckEligibility recomputes the five requirements against current data and
// refreshes the stored flag so requestAdvance reads a current verdict.
func (u *advanceUseCaseImpl) CheckEligibility(
	ctx context.Context,
	actor Actor,
	bookingID uuid.UUID,
) (*advance.Eligibility, error) {
	now := u.clock.Now()

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

	artist, err := u.userRepo.FindByID(ctx, u.db, b.ArtistID())
	if err != nil {
		if isNotFound(err) {
			return nil, ErrArtistNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	result := advance.CheckEligibility(advance.EligibilityInput{
		ArtistValueCents: b.ArtistValue().Cents(),
		DistanceKm:       b.TravelDistanceKm(),
		EventStart:       b.Schedule().Start(),
		Standing:         standingOf(artist),
		Now:              now,
	})

	err = u.bookingRepo.UpdateAdvanceEligibility(ctx, u.db, bookingID, result.Eligible, result.Reason(), now)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return &result, nil
}

func (u *advanceUseCaseImpl) RequestAdvance(
	ctx context.Context,
	artistID uuid.UUID,
	bookingID uuid.UUID,
) (*advance.AdvancePayment, error) {
	now := u.clock.Now()

	b, err := u.bookingRepo.FindByID(ctx, u.db, bookingID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrBookingNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if b.ArtistID() != artistID {
		return nil, ErrNotBookingArtist
	}
	if b.Status() != booking.StatusConfirmed {
		return nil, &StateConflictError{Actual: b.Status()}
	}
	if !b.AdvanceEligible() {
		return nil, errs.Wrap(ErrAdvanceNotEligible, b.AdvanceReason())
	}

	payment := advance.NewAdvancePayment(bookingID, b.ArtistValue().Cents(), now)

	err = withTx(ctx, u.db, func(tx pgx.Tx) error {
		if err := u.advanceRepo.Create(ctx, tx, payment); err != nil {
			if isDuplicate(err) {
				return ErrAdvanceExists
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		body := fmt.Sprintf("Adiantamento de R$%.2f solicitado. Liberação ocorre na aprovação do check-in.",
			float64(payment.AmountCents())/100.0)
		return u.recorder.record(ctx, tx, bookingID, "advance.requested", body, map[string]any{
			"advance_id":   payment.ID().String(),
			"amount_cents": payment.AmountCents(),
		}, now)
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (u *advanceUseCaseImpl) GetAdvance(ctx context.Context, actor Actor, bookingID uuid.UUID) (*advance.AdvancePayment, error) {
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

	payment, err := u.advanceRepo.FindByBookingID(ctx, u.db, bookingID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrAdvanceNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return payment, nil
}

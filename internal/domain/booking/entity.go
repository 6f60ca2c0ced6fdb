package booking

import (
	"errors"
	"time"

	"palco/internal/domain/user"

	"github.com/google/uuid"
)

var (
	ErrPastEventDate      = errors.New("event date must be in the future")
	ErrNonPositiveValue   = errors.New("artist value must be positive")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrValueChangeClosed  = errors.New("value can only change while pending")
)

const (
	// Party-initiated cancellations inside this window pay the cancellation fee.
	CancellationWindow = 24 * time.Hour

	cancellationFeePct = 0.10
)

// Booking is the central aggregate: one requester, one artist, one event.
type Booking struct {
	id               uuid.UUID
	requesterID      uuid.UUID
	artistID         uuid.UUID
	schedule         EventSchedule
	location         Location
	artistValue      Money
	platformFee      Money
	total            Money
	feeTier          user.PlanTier
	status           Status
	paymentStatus    PaymentStatus
	travelDistanceKm *float64
	advanceEligible  bool
	advanceReason    string
	cancellationFee  Money
	cancelReason     string
	createdAt        time.Time
	updatedAt        time.Time
	acceptedAt       *time.Time
	confirmedAt      *time.Time
	startedAt        *time.Time
	completedAt      *time.Time
	canceledAt       *time.Time
}

func NewBooking(
	requesterID, artistID uuid.UUID,
	schedule EventSchedule,
	location Location,
	artistValueCents int64,
	feeTier user.PlanTier,
	travelDistanceKm *float64,
	now time.Time,
) (*Booking, error) {
	if !schedule.Start().After(now) {
		return nil, ErrPastEventDate
	}
	if artistValueCents <= 0 {
		return nil, ErrNonPositiveValue
	}

	value, fee, total := SplitValue(artistValueCents, feeTier)

	return &Booking{
		id:               uuid.New(),
		requesterID:      requesterID,
		artistID:         artistID,
		schedule:         schedule,
		location:         location,
		artistValue:      value,
		platformFee:      fee,
		total:            total,
		feeTier:          feeTier,
		status:           StatusPending,
		paymentStatus:    PaymentPending,
		travelDistanceKm: travelDistanceKm,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// SplitValue derives the fee and total from the artist-side value.
// The fee percentage is keyed solely by the artist's plan tier.
func SplitValue(artistValueCents int64, tier user.PlanTier) (value, fee, total Money) {
	value = NewMoney(artistValueCents)
	fee = value.Percent(tier.FeePercent())
	total = value.Add(fee)
	return value, fee, total
}

// ApplyCounterOffer recomputes value, fee and total for an accepted counter-value.
// Only legal while the booking is still PENDENTE.
func (b *Booking) ApplyCounterOffer(counterValueCents int64, tier user.PlanTier, now time.Time) error {
	if b.status != StatusPending {
		return ErrValueChangeClosed
	}
	if counterValueCents <= 0 {
		return ErrNonPositiveValue
	}
	b.artistValue, b.platformFee, b.total = SplitValue(counterValueCents, tier)
	b.feeTier = tier
	b.updatedAt = now
	return nil
}

// InsideCancellationWindow reports whether now is within 24h of the event start.
func (b *Booking) InsideCancellationWindow(now time.Time) bool {
	return b.schedule.Start().Sub(now) < CancellationWindow
}

func (b *Booking) EventStarted(now time.Time) bool {
	return !now.Before(b.schedule.Start())
}

// CancellationFeeAt is 10% of the total inside the 24h window, zero outside it.
func (b *Booking) CancellationFeeAt(now time.Time) Money {
	if b.InsideCancellationWindow(now) {
		return b.total.Percent(cancellationFeePct)
	}
	return NewMoney(0)
}

func (b *Booking) ID() uuid.UUID               { return b.id }
func (b *Booking) RequesterID() uuid.UUID      { return b.requesterID }
func (b *Booking) ArtistID() uuid.UUID         { return b.artistID }
func (b *Booking) Schedule() EventSchedule     { return b.schedule }
func (b *Booking) Location() Location          { return b.location }
func (b *Booking) ArtistValue() Money          { return b.artistValue }
func (b *Booking) PlatformFee() Money          { return b.platformFee }
func (b *Booking) Total() Money                { return b.total }
func (b *Booking) FeeTier() user.PlanTier      { return b.feeTier }
func (b *Booking) Status() Status              { return b.status }
func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }
func (b *Booking) TravelDistanceKm() *float64  { return b.travelDistanceKm }
func (b *Booking) AdvanceEligible() bool       { return b.advanceEligible }
func (b *Booking) AdvanceReason() string       { return b.advanceReason }
func (b *Booking) CancellationFee() Money      { return b.cancellationFee }
func (b *Booking) CancelReason() string        { return b.cancelReason }
func (b *Booking) CreatedAt() time.Time        { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time        { return b.updatedAt }
func (b *Booking) AcceptedAt() *time.Time      { return b.acceptedAt }
func (b *Booking) ConfirmedAt() *time.Time     { return b.confirmedAt }
func (b *Booking) StartedAt() *time.Time       { return b.startedAt }
func (b *Booking) CompletedAt() *time.Time     { return b.completedAt }
func (b *Booking) CanceledAt() *time.Time      { return b.canceledAt }

func (b *Booking) SetAdvanceEligibility(eligible bool, reason string) {
	b.advanceEligible = eligible
	b.advanceReason = reason
}

func ReconstructBooking(
	id, requesterID, artistID uuid.UUID,
	schedule EventSchedule,
	location Location,
	artistValue, platformFee, total Money,
	feeTier user.PlanTier,
	status Status,
	paymentStatus PaymentStatus,
	travelDistanceKm *float64,
	advanceEligible bool,
	advanceReason string,
	cancellationFee Money,
	cancelReason string,
	createdAt, updatedAt time.Time,
	acceptedAt, confirmedAt, startedAt, completedAt, canceledAt *time.Time,
) *Booking {
	return &Booking{
		id:               id,
		requesterID:      requesterID,
		artistID:         artistID,
		schedule:         schedule,
		location:         location,
		artistValue:      artistValue,
		platformFee:      platformFee,
		total:            total,
		feeTier:          feeTier,
		status:           status,
		paymentStatus:    paymentStatus,
		travelDistanceKm: travelDistanceKm,
		advanceEligible:  advanceEligible,
		advanceReason:    advanceReason,
		cancellationFee:  cancellationFee,
		cancelReason:     cancelReason,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
		acceptedAt:       acceptedAt,
		confirmedAt:      confirmedAt,
		startedAt:        startedAt,
		completedAt:      completedAt,
		canceledAt:       canceledAt,
	}
}

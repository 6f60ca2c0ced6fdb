//go:build unit

package usecase_test

import (
	"context"
	"testing"
	"time"

	"palco/internal/domain/booking"
	"palco/internal/domain/user"
	"palco/internal/pkg/clock"
	"palco/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingEnv struct {
	bookings *fakeBookingRepo
	users    *fakeUserRepo
	messages *fakeMessageRepo
	outbox   *fakeOutboxRepo
	notifier *fakeNotifier
	clk      *clock.MockClock
	uc       usecase.BookingUseCase
}

func newBookingEnv() *bookingEnv {
	env := &bookingEnv{
		bookings: newFakeBookingRepo(),
		users:    newFakeUserRepo(),
		messages: &fakeMessageRepo{},
		outbox:   &fakeOutboxRepo{},
		notifier: &fakeNotifier{},
		clk:      clock.NewMockClock(baseTime),
	}
	env.uc = usecase.NewBookingUseCase(
		env.bookings, env.users, env.messages, env.outbox, env.notifier, fakeDB{}, env.clk,
	)
	return env
}

func (env *bookingEnv) seed(t *testing.T, b *booking.Booking) {
	t.Helper()
	require.NoError(t, env.bookings.Create(context.Background(), nil, b))
}

func TestCreateBooking(t *testing.T) {
	ctx := context.Background()

	cmdFor := func(artistID uuid.UUID) usecase.CreateBookingCommand {
		lat, lng := fortaleza.Latitude, fortaleza.Longitude
		return usecase.CreateBookingCommand{
			ArtistID:         artistID,
			EventStart:       baseTime.Add(20 * 24 * time.Hour),
			DurationMinutes:  120,
			LocationLabel:    "Teatro Municipal, Fortaleza",
			Latitude:         &lat,
			Longitude:        &lng,
			ArtistValueCents: 100000,
		}
	}

	t.Run("creates a pending booking with fee split and eligibility", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		artist := makeArtist(user.StatusActive)
		env.users.put(requester)
		env.users.put(artist)

		b, err := env.uc.CreateBooking(ctx, requester.ID(), cmdFor(artist.ID()))
		require.NoError(t, err)

		assert.Equal(t, booking.StatusPending, b.Status())
		assert.Equal(t, booking.PaymentPending, b.PaymentStatus())
		assert.Equal(t, int64(100000), b.ArtistValue().Cents())
		assert.Equal(t, int64(10000), b.PlatformFee().Cents()) // PRO tier, 10%
		assert.Equal(t, int64(110000), b.Total().Cents())
		require.NotNil(t, b.TravelDistanceKm())
		assert.Greater(t, *b.TravelDistanceKm(), 2000.0)
		assert.True(t, b.AdvanceEligible())

		assert.Equal(t, []string{"booking.created"}, env.outbox.eventTypes())
		assert.Equal(t, []string{"booking.created"}, env.notifier.events)
		assert.Len(t, env.messages.messages, 1)
	})

	t.Run("rejects a caller that is not a requester", func(t *testing.T) {
		env := newBookingEnv()
		artist := makeArtist(user.StatusActive)
		env.users.put(artist)

		_, err := env.uc.CreateBooking(ctx, artist.ID(), cmdFor(artist.ID()))
		assert.ErrorIs(t, err, usecase.ErrInvalidRequesterRole)
	})

	t.Run("rejects an unknown artist", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		env.users.put(requester)

		_, err := env.uc.CreateBooking(ctx, requester.ID(), cmdFor(uuid.New()))
		assert.ErrorIs(t, err, usecase.ErrArtistNotFound)
	})

	t.Run("rejects a non-artist target", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		other := makeRequester()
		env.users.put(requester)
		env.users.put(other)

		_, err := env.uc.CreateBooking(ctx, requester.ID(), cmdFor(other.ID()))
		assert.ErrorIs(t, err, usecase.ErrArtistNotFound)
	})

	t.Run("rejects a suspended artist", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		artist := makeArtist(user.StatusSuspended)
		env.users.put(requester)
		env.users.put(artist)

		_, err := env.uc.CreateBooking(ctx, requester.ID(), cmdFor(artist.ID()))
		assert.ErrorIs(t, err, usecase.ErrArtistInactive)
	})

	t.Run("rejects a past event date", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		artist := makeArtist(user.StatusActive)
		env.users.put(requester)
		env.users.put(artist)

		cmd := cmdFor(artist.ID())
		cmd.EventStart = baseTime.Add(-time.Hour)
		_, err := env.uc.CreateBooking(ctx, requester.ID(), cmd)
		assert.ErrorIs(t, err, usecase.ErrDomainValidationFailed)
	})
}

func TestRespondBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("accept moves the booking to accepted", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		artist := makeArtist(user.StatusActive)
		env.users.put(requester)
		env.users.put(artist)
		b := makeBookingRow(baseTime, requester, artist, booking.StatusPending, booking.PaymentPending, 20*24*time.Hour)
		env.seed(t, b)

		updated, err := env.uc.RespondBooking(ctx, artist.ID(), b.ID(), usecase.RespondBookingCommand{Decision: "accept"})
		require.NoError(t, err)
		assert.Equal(t, booking.StatusAccepted, updated.Status())
		assert.Equal(t, []string{"booking.accepted"}, env.outbox.eventTypes())
	})

	t.Run("accept skips to confirmed when payment already settled", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		artist := makeArtist(user.StatusActive)
		env.users.put(requester)
		env.users.put(artist)
		b := makeBookingRow(baseTime, requester, artist, booking.StatusPending, booking.PaymentConfirmed, 20*24*time.Hour)
		env.seed(t, b)

		updated, err := env.uc.RespondBooking(ctx, artist.ID(), b.ID(), usecase.RespondBookingCommand{Decision: "accept"})
		require.NoError(t, err)
		assert.Equal(t, booking.StatusConfirmed, updated.Status())
	})

	t.Run("counter-offer recomputes the totals", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		artist := makeArtist(user.StatusActive)
		env.users.put(requester)
		env.users.put(artist)
		b := makeBookingRow(baseTime, requester, artist, booking.StatusPending, booking.PaymentPending, 20*24*time.Hour)
		env.seed(t, b)

		counter := int64(200000)
		updated, err := env.uc.RespondBooking(ctx, artist.ID(), b.ID(), usecase.RespondBookingCommand{
			Decision:          "accept",
			CounterValueCents: &counter,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(200000), updated.ArtistValue().Cents())
		assert.Equal(t, int64(220000), updated.Total().Cents())
	})

	t.Run("a plan change between propose and accept keeps the agreed fee", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		artist := makeArtist(user.StatusActive)
		env.users.put(requester)
		env.users.put(artist)
		b := makeBookingRow(baseTime, requester, artist, booking.StatusPending, booking.PaymentPending, 20*24*time.Hour)
		env.seed(t, b)

		// Artist upgrades to a cheaper tier before accepting; the fee was
		// fixed when the value was proposed.
		env.users.put(withPlanTier(artist, user.PlanPremium))

		updated, err := env.uc.RespondBooking(ctx, artist.ID(), b.ID(), usecase.RespondBookingCommand{Decision: "accept"})
		require.NoError(t, err)
		assert.Equal(t, booking.StatusAccepted, updated.Status())
		assert.Equal(t, int64(10000), updated.PlatformFee().Cents())
		assert.Equal(t, int64(110000), updated.Total().Cents())
		assert.Equal(t, user.PlanPro, updated.FeeTier())
	})

	t.Run("a counter-offer re-splits at the artist's current tier", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		artist := makeArtist(user.StatusActive)
		env.users.put(requester)
		env.users.put(artist)
		b := makeBookingRow(baseTime, requester, artist, booking.StatusPending, booking.PaymentPending, 20*24*time.Hour)
		env.seed(t, b)

		env.users.put(withPlanTier(artist, user.PlanPremium))

		counter := int64(100000)
		updated, err := env.uc.RespondBooking(ctx, artist.ID(), b.ID(), usecase.RespondBookingCommand{
			Decision:          "accept",
			CounterValueCents: &counter,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(7000), updated.PlatformFee().Cents())
		assert.Equal(t, user.PlanPremium, updated.FeeTier())
	})

	t.Run("reject requires a reason", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		artist := makeArtist(user.StatusActive)
		env.users.put(requester)
		env.users.put(artist)
		b := makeBookingRow(baseTime, requester, artist, booking.StatusPending, booking.PaymentPending, 20*24*time.Hour)
		env.seed(t, b)

		_, err := env.uc.RespondBooking(ctx, artist.ID(), b.ID(), usecase.RespondBookingCommand{Decision: "reject"})
		assert.ErrorIs(t, err, usecase.ErrRejectReasonRequired)
	})

	t.Run("reject cancels the booking", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		artist := makeArtist(user.StatusActive)
		env.users.put(requester)
		env.users.put(artist)
		b := makeBookingRow(baseTime, requester, artist, booking.StatusPending, booking.PaymentPending, 20*24*time.Hour)
		env.seed(t, b)

		updated, err := env.uc.RespondBooking(ctx, artist.ID(), b.ID(), usecase.RespondBookingCommand{
			Decision: "reject",
			Reason:   "agenda cheia",
		})
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCanceled, updated.Status())
		assert.Equal(t, "agenda cheia", updated.CancelReason())
	})

	t.Run("only the booked artist may respond", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		artist := makeArtist(user.StatusActive)
		env.users.put(requester)
		env.users.put(artist)
		b := makeBookingRow(baseTime, requester, artist, booking.StatusPending, booking.PaymentPending, 20*24*time.Hour)
		env.seed(t, b)

		_, err := env.uc.RespondBooking(ctx, uuid.New(), b.ID(), usecase.RespondBookingCommand{Decision: "accept"})
		assert.ErrorIs(t, err, usecase.ErrNotBookingArtist)
	})

	t.Run("responding to a non-pending booking reports the actual status", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		artist := makeArtist(user.StatusActive)
		env.users.put(requester)
		env.users.put(artist)
		b := makeBookingRow(baseTime, requester, artist, booking.StatusConfirmed, booking.PaymentConfirmed, 20*24*time.Hour)
		env.seed(t, b)

		_, err := env.uc.RespondBooking(ctx, artist.ID(), b.ID(), usecase.RespondBookingCommand{Decision: "accept"})
		var conflictErr *usecase.StateConflictError
		require.ErrorAs(t, err, &conflictErr)
		assert.Equal(t, booking.StatusConfirmed, conflictErr.Actual)
	})

	t.Run("unknown decision is rejected", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		artist := makeArtist(user.StatusActive)
		env.users.put(requester)
		env.users.put(artist)
		b := makeBookingRow(baseTime, requester, artist, booking.StatusPending, booking.PaymentPending, 20*24*time.Hour)
		env.seed(t, b)

		_, err := env.uc.RespondBooking(ctx, artist.ID(), b.ID(), usecase.RespondBookingCommand{Decision: "maybe"})
		assert.ErrorIs(t, err, usecase.ErrInvalidDecision)
	})
}

func TestCancelBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("pending bookings cancel without a fee", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		artist := makeArtist(user.StatusActive)
		env.users.put(requester)
		env.users.put(artist)
		b := makeBookingRow(baseTime, requester, artist, booking.StatusPending, booking.PaymentPending, 20*24*time.Hour)
		env.seed(t, b)

		actor := usecase.Actor{ID: requester.ID(), Role: user.RoleRequester}
		updated, err := env.uc.CancelBooking(ctx, actor, b.ID(), "mudou o plano")
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCanceled, updated.Status())
		assert.True(t, updated.CancellationFee().IsZero())
	})

	t.Run("confirmed bookings inside the 24h window pay 10%", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		artist := makeArtist(user.StatusActive)
		env.users.put(requester)
		env.users.put(artist)
		b := makeBookingRow(baseTime, requester, artist, booking.StatusConfirmed, booking.PaymentConfirmed, 12*time.Hour)
		env.seed(t, b)

		actor := usecase.Actor{ID: requester.ID(), Role: user.RoleRequester}
		updated, err := env.uc.CancelBooking(ctx, actor, b.ID(), "imprevisto")
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCanceled, updated.Status())
		assert.Equal(t, int64(11000), updated.CancellationFee().Cents())
	})

	t.Run("confirmed bookings outside the window cancel free", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		artist := makeArtist(user.StatusActive)
		env.users.put(requester)
		env.users.put(artist)
		b := makeBookingRow(baseTime, requester, artist, booking.StatusConfirmed, booking.PaymentConfirmed, 72*time.Hour)
		env.seed(t, b)

		actor := usecase.Actor{ID: artist.ID(), Role: user.RoleArtist}
		updated, err := env.uc.CancelBooking(ctx, actor, b.ID(), "conflito de agenda")
		require.NoError(t, err)
		assert.True(t, updated.CancellationFee().IsZero())
	})

	t.Run("party cancellation is closed once the event started", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		artist := makeArtist(user.StatusActive)
		env.users.put(requester)
		env.users.put(artist)
		b := makeBookingRow(baseTime, requester, artist, booking.StatusConfirmed, booking.PaymentConfirmed, -time.Hour)
		env.seed(t, b)

		actor := usecase.Actor{ID: requester.ID(), Role: user.RoleRequester}
		_, err := env.uc.CancelBooking(ctx, actor, b.ID(), "desisti")
		assert.ErrorIs(t, err, usecase.ErrCancellationWindowClosed)
	})

	t.Run("admins cancel from any live status with the fee waived", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		artist := makeArtist(user.StatusActive)
		env.users.put(requester)
		env.users.put(artist)
		b := makeBookingRow(baseTime, requester, artist, booking.StatusInProgress, booking.PaymentConfirmed, -time.Hour)
		env.seed(t, b)

		actor := usecase.Actor{ID: uuid.New(), Role: user.RoleAdmin}
		updated, err := env.uc.CancelBooking(ctx, actor, b.ID(), "fraude detectada")
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCanceled, updated.Status())
		assert.True(t, updated.CancellationFee().IsZero())
	})

	t.Run("parties cannot cancel an in-progress booking", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		artist := makeArtist(user.StatusActive)
		env.users.put(requester)
		env.users.put(artist)
		b := makeBookingRow(baseTime, requester, artist, booking.StatusInProgress, booking.PaymentConfirmed, -time.Hour)
		env.seed(t, b)

		actor := usecase.Actor{ID: requester.ID(), Role: user.RoleRequester}
		_, err := env.uc.CancelBooking(ctx, actor, b.ID(), "mudei de ideia")
		var conflictErr *usecase.StateConflictError
		assert.ErrorAs(t, err, &conflictErr)
	})

	t.Run("strangers cannot cancel", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		artist := makeArtist(user.StatusActive)
		env.users.put(requester)
		env.users.put(artist)
		b := makeBookingRow(baseTime, requester, artist, booking.StatusPending, booking.PaymentPending, 20*24*time.Hour)
		env.seed(t, b)

		actor := usecase.Actor{ID: uuid.New(), Role: user.RoleRequester}
		_, err := env.uc.CancelBooking(ctx, actor, b.ID(), "x")
		assert.ErrorIs(t, err, usecase.ErrNotParticipant)
	})

	t.Run("terminal bookings cannot cancel again", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		artist := makeArtist(user.StatusActive)
		env.users.put(requester)
		env.users.put(artist)
		b := makeBookingRow(baseTime, requester, artist, booking.StatusCanceled, booking.PaymentRefunded, 20*24*time.Hour)
		env.seed(t, b)

		actor := usecase.Actor{ID: uuid.New(), Role: user.RoleAdmin}
		_, err := env.uc.CancelBooking(ctx, actor, b.ID(), "x")
		var conflictErr *usecase.StateConflictError
		require.ErrorAs(t, err, &conflictErr)
		assert.Equal(t, booking.StatusCanceled, conflictErr.Actual)
	})
}

func TestDisputes(t *testing.T) {
	ctx := context.Background()

	t.Run("a participant opens a dispute on an in-progress booking", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		artist := makeArtist(user.StatusActive)
		env.users.put(requester)
		env.users.put(artist)
		b := makeBookingRow(baseTime, requester, artist, booking.StatusInProgress, booking.PaymentConfirmed, -time.Hour)
		env.seed(t, b)

		actor := usecase.Actor{ID: requester.ID(), Role: user.RoleRequester}
		updated, err := env.uc.OpenDispute(ctx, actor, b.ID(), "artista saiu no meio do show")
		require.NoError(t, err)
		assert.Equal(t, booking.StatusDisputed, updated.Status())
	})

	t.Run("disputes need a reason", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		artist := makeArtist(user.StatusActive)
		env.users.put(requester)
		env.users.put(artist)
		b := makeBookingRow(baseTime, requester, artist, booking.StatusInProgress, booking.PaymentConfirmed, -time.Hour)
		env.seed(t, b)

		actor := usecase.Actor{ID: artist.ID(), Role: user.RoleArtist}
		_, err := env.uc.OpenDispute(ctx, actor, b.ID(), "")
		assert.Error(t, err)
	})

	t.Run("only admins resolve disputes", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		artist := makeArtist(user.StatusActive)
		env.users.put(requester)
		env.users.put(artist)
		b := makeBookingRow(baseTime, requester, artist, booking.StatusDisputed, booking.PaymentConfirmed, -time.Hour)
		env.seed(t, b)

		actor := usecase.Actor{ID: requester.ID(), Role: user.RoleRequester}
		_, err := env.uc.ResolveDispute(ctx, actor, b.ID(), "complete", "ok")
		assert.ErrorIs(t, err, usecase.ErrNotParticipant)
	})

	t.Run("resolving as complete credits the artist", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		artist := makeArtist(user.StatusActive)
		env.users.put(requester)
		env.users.put(artist)
		b := makeBookingRow(baseTime, requester, artist, booking.StatusDisputed, booking.PaymentConfirmed, -time.Hour)
		env.seed(t, b)

		actor := usecase.Actor{ID: uuid.New(), Role: user.RoleAdmin}
		updated, err := env.uc.ResolveDispute(ctx, actor, b.ID(), "complete", "show aconteceu")
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCompleted, updated.Status())
		assert.Equal(t, 1, env.users.completed[artist.ID()])
	})

	t.Run("resolving as cancel does not credit the artist", func(t *testing.T) {
		env := newBookingEnv()
		requester := makeRequester()
		artist := makeArtist(user.StatusActive)
		env.users.put(requester)
		env.users.put(artist)
		b := makeBookingRow(baseTime, requester, artist, booking.StatusDisputed, booking.PaymentConfirmed, -time.Hour)
		env.seed(t, b)

		actor := usecase.Actor{ID: uuid.New(), Role: user.RoleAdmin}
		updated, err := env.uc.ResolveDispute(ctx, actor, b.ID(), "cancel", "show nao ocorreu")
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCanceled, updated.Status())
		assert.Zero(t, env.users.completed[artist.ID()])
	})

	t.Run("unknown outcomes are rejected", func(t *testing.T) {
		env := newBookingEnv()
		actor := usecase.Actor{ID: uuid.New(), Role: user.RoleAdmin}
		_, err := env.uc.ResolveDispute(ctx, actor, uuid.New(), "split", "")
		assert.ErrorIs(t, err, usecase.ErrInvalidDisputeOutcome)
	})
}

func TestGetBooking(t *testing.T) {
	ctx := context.Background()
	env := newBookingEnv()
	requester := makeRequester()
	artist := makeArtist(user.StatusActive)
	env.users.put(requester)
	env.users.put(artist)
	b := makeBookingRow(baseTime, requester, artist, booking.StatusPending, booking.PaymentPending, 20*24*time.Hour)
	env.seed(t, b)

	_, err := env.uc.GetBooking(ctx, usecase.Actor{ID: requester.ID(), Role: user.RoleRequester}, b.ID())
	assert.NoError(t, err)

	_, err = env.uc.GetBooking(ctx, usecase.Actor{ID: uuid.New(), Role: user.RoleAdmin}, b.ID())
	assert.NoError(t, err)

	_, err = env.uc.GetBooking(ctx, usecase.Actor{ID: uuid.New(), Role: user.RoleArtist}, b.ID())
	assert.ErrorIs(t, err, usecase.ErrNotParticipant)

	_, err = env.uc.GetBooking(ctx, usecase.Actor{ID: requester.ID(), Role: user.RoleRequester}, uuid.New())
	assert.ErrorIs(t, err, usecase.ErrBookingNotFound)
}

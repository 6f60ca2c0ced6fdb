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

type paymentEnv struct {
	bookings *fakeBookingRepo
	messages *fakeMessageRepo
	outbox   *fakeOutboxRepo
	notifier *fakeNotifier
	clk      *clock.MockClock
	uc       usecase.PaymentUseCase
}

func newPaymentEnv() *paymentEnv {
	env := &paymentEnv{
		bookings: newFakeBookingRepo(),
		messages: &fakeMessageRepo{},
		outbox:   &fakeOutboxRepo{},
		notifier: &fakeNotifier{},
		clk:      clock.NewMockClock(baseTime),
	}
	env.uc = usecase.NewPaymentUseCase(
		env.bookings, env.messages, env.outbox, env.notifier, fakeDB{}, env.clk,
	)
	return env
}

func (env *paymentEnv) seed(t *testing.T, status booking.Status, payment booking.PaymentStatus) *booking.Booking {
	t.Helper()
	requester := makeRequester()
	artist := makeArtist(user.StatusActive)
	b := makeBookingRow(baseTime, requester, artist, status, payment, 48*time.Hour)
	require.NoError(t, env.bookings.Create(context.Background(), nil, b))
	return b
}

func (env *paymentEnv) state(t *testing.T, id uuid.UUID) (booking.Status, booking.PaymentStatus) {
	t.Helper()
	b, err := env.bookings.FindByID(context.Background(), nil, id)
	require.NoError(t, err)
	return b.Status(), b.PaymentStatus()
}

func TestApplyProviderStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("paid confirms an accepted booking", func(t *testing.T) {
		env := newPaymentEnv()
		b := env.seed(t, booking.StatusAccepted, booking.PaymentPending)

		require.NoError(t, env.uc.ApplyProviderStatus(ctx, b.ID(), "ch_9f2a", "paid"))

		status, payment := env.state(t, b.ID())
		assert.Equal(t, booking.StatusConfirmed, status)
		assert.Equal(t, booking.PaymentConfirmed, payment)
		assert.Equal(t, []string{"payment.confirmed"}, env.outbox.eventTypes())
		assert.Equal(t, []string{"payment.paid"}, env.notifier.events)
		require.Len(t, env.outbox.events, 1)
		assert.Contains(t, string(env.outbox.events[0].Payload), `"provider_payment_id":"ch_9f2a"`)
	})

	t.Run("approved and confirmed are provider synonyms for paid", func(t *testing.T) {
		for _, providerStatus := range []string{"approved", "confirmed"} {
			env := newPaymentEnv()
			b := env.seed(t, booking.StatusAccepted, booking.PaymentPending)

			require.NoError(t, env.uc.ApplyProviderStatus(ctx, b.ID(), "ch_9f2a", providerStatus))

			status, payment := env.state(t, b.ID())
			assert.Equal(t, booking.StatusConfirmed, status)
			assert.Equal(t, booking.PaymentConfirmed, payment)
		}
	})

	t.Run("paid before acceptance only settles the payment", func(t *testing.T) {
		env := newPaymentEnv()
		b := env.seed(t, booking.StatusPending, booking.PaymentPending)

		require.NoError(t, env.uc.ApplyProviderStatus(ctx, b.ID(), "ch_9f2a", "paid"))

		status, payment := env.state(t, b.ID())
		assert.Equal(t, booking.StatusPending, status)
		assert.Equal(t, booking.PaymentConfirmed, payment)
	})

	t.Run("refund cancels a booking that has not started", func(t *testing.T) {
		env := newPaymentEnv()
		b := env.seed(t, booking.StatusConfirmed, booking.PaymentConfirmed)

		require.NoError(t, env.uc.ApplyProviderStatus(ctx, b.ID(), "ch_9f2a", "refunded"))

		status, payment := env.state(t, b.ID())
		assert.Equal(t, booking.StatusCanceled, status)
		assert.Equal(t, booking.PaymentRefunded, payment)

		stored, err := env.bookings.FindByID(ctx, nil, b.ID())
		require.NoError(t, err)
		assert.Equal(t, "pagamento reembolsado", stored.CancelReason())
	})

	t.Run("refund leaves an in-progress booking running", func(t *testing.T) {
		env := newPaymentEnv()
		b := env.seed(t, booking.StatusInProgress, booking.PaymentConfirmed)

		require.NoError(t, env.uc.ApplyProviderStatus(ctx, b.ID(), "ch_9f2a", "refunded"))

		status, payment := env.state(t, b.ID())
		assert.Equal(t, booking.StatusInProgress, status)
		assert.Equal(t, booking.PaymentRefunded, payment)
	})

	t.Run("failed and overdue only mark the payment", func(t *testing.T) {
		for _, providerStatus := range []string{"failed", "overdue"} {
			env := newPaymentEnv()
			b := env.seed(t, booking.StatusPending, booking.PaymentPending)

			require.NoError(t, env.uc.ApplyProviderStatus(ctx, b.ID(), "ch_9f2a", providerStatus))

			status, payment := env.state(t, b.ID())
			assert.Equal(t, booking.StatusPending, status)
			assert.Equal(t, booking.PaymentFailed, payment)
			assert.Equal(t, []string{"payment.failed"}, env.outbox.eventTypes())
		}
	})

	t.Run("unknown provider statuses are rejected", func(t *testing.T) {
		env := newPaymentEnv()
		b := env.seed(t, booking.StatusPending, booking.PaymentPending)

		err := env.uc.ApplyProviderStatus(ctx, b.ID(), "ch_9f2a", "chargeback")
		assert.ErrorIs(t, err, usecase.ErrUnknownProviderStatus)
	})

	t.Run("unknown bookings are rejected", func(t *testing.T) {
		env := newPaymentEnv()
		err := env.uc.ApplyProviderStatus(ctx, uuid.New(), "ch_9f2a", "paid")
		assert.ErrorIs(t, err, usecase.ErrBookingNotFound)
	})
}

//go:build unit

package usecase_test

import (
	"context"
	"sort"
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
	"palco/internal/pkg/geo"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeTx satisfies pgx.Tx so withTx can run against in-memory repositories.
// Rollback reports ErrTxClosed to mirror a committed transaction.
type fakeTx struct{}

func (fakeTx) Begin(_ context.Context) (pgx.Tx, error) { return fakeTx{}, nil }
func (fakeTx) Commit(_ context.Context) error          { return nil }
func (fakeTx) Rollback(_ context.Context) error        { return pgx.ErrTxClosed }
func (fakeTx) CopyFrom(_ context.Context, _ pgx.Identifier, _ []string, _ pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (fakeTx) SendBatch(_ context.Context, _ *pgx.Batch) pgx.BatchResults { return nil }
func (fakeTx) LargeObjects() pgx.LargeObjects                             { return pgx.LargeObjects{} }
func (fakeTx) Prepare(_ context.Context, _, _ string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (fakeTx) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (fakeTx) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) { return nil, nil }
func (fakeTx) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row        { return nil }
func (fakeTx) Conn() *pgx.Conn                                               { return nil }

type fakeDB struct{}

func (fakeDB) Begin(_ context.Context) (pgx.Tx, error) { return fakeTx{}, nil }
func (fakeDB) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (fakeDB) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) { return nil, nil }
func (fakeDB) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row        { return nil }

func notFound(msg string) error  { return infra.NewRepoErr(infra.KindNotFound, msg) }
func conflict(msg string) error  { return infra.NewRepoErr(infra.KindConflict, msg) }
func duplicate(msg string) error { return infra.NewRepoErr(infra.KindDuplicateKey, msg) }

// bookingRow mirrors the mutable columns; FindByID reconstructs the entity
// from it so guarded updates behave like the SQL CAS statements.
type bookingRow struct {
	base            *booking.Booking
	status          booking.Status
	payment         booking.PaymentStatus
	valueCents      int64
	feeCents        int64
	totalCents      int64
	tier            user.PlanTier
	advanceEligible bool
	advanceReason   string
	cancelFeeCents  int64
	cancelReason    string
}

type fakeBookingRepo struct {
	rows    map[uuid.UUID]*bookingRow
	overrun []*booking.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{rows: make(map[uuid.UUID]*bookingRow)}
}

func (r *fakeBookingRepo) Create(_ context.Context, _ db.DBTX, b *booking.Booking) error {
	r.rows[b.ID()] = &bookingRow{
		base:            b,
		status:          b.Status(),
		payment:         b.PaymentStatus(),
		valueCents:      b.ArtistValue().Cents(),
		feeCents:        b.PlatformFee().Cents(),
		totalCents:      b.Total().Cents(),
		tier:            b.FeeTier(),
		advanceEligible: b.AdvanceEligible(),
		advanceReason:   b.AdvanceReason(),
	}
	return nil
}

func (r *fakeBookingRepo) FindByID(_ context.Context, _ db.DBTX, id uuid.UUID) (*booking.Booking, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, notFound("booking not found")
	}
	return row.entity(), nil
}

func (row *bookingRow) entity() *booking.Booking {
	b := row.base
	return booking.ReconstructBooking(
		b.ID(), b.RequesterID(), b.ArtistID(),
		b.Schedule(), b.Location(),
		booking.NewMoney(row.valueCents), booking.NewMoney(row.feeCents), booking.NewMoney(row.totalCents),
		row.tier, row.status, row.payment,
		b.TravelDistanceKm(),
		row.advanceEligible, row.advanceReason,
		booking.NewMoney(row.cancelFeeCents), row.cancelReason,
		b.CreatedAt(), b.CreatedAt(),
		nil, nil, nil, nil, nil,
	)
}

func (r *fakeBookingRepo) ListByUser(_ context.Context, _ db.DBTX, userID uuid.UUID) ([]*booking.Booking, error) {
	var out []*booking.Booking
	for _, row := range r.rows {
		if row.base.RequesterID() == userID || row.base.ArtistID() == userID {
			out = append(out, row.entity())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID().String() < out[j].ID().String() })
	return out, nil
}

func (r *fakeBookingRepo) UpdateStatusGuarded(_ context.Context, _ db.DBTX, id uuid.UUID, expected []booking.Status, next booking.Status, _ time.Time) error {
	row, ok := r.rows[id]
	if !ok || !statusIn(row.status, expected) {
		return conflict("status guard failed")
	}
	row.status = next
	return nil
}

func (r *fakeBookingRepo) AcceptWithValue(_ context.Context, _ db.DBTX, id uuid.UUID, next booking.Status, valueCents, feeCents, totalCents int64, tier user.PlanTier, _ time.Time) error {
	row, ok := r.rows[id]
	if !ok || row.status != booking.StatusPending {
		return conflict("status guard failed")
	}
	row.status = next
	row.valueCents = valueCents
	row.feeCents = feeCents
	row.totalCents = totalCents
	row.tier = tier
	return nil
}

func (r *fakeBookingRepo) CancelGuarded(_ context.Context, _ db.DBTX, id uuid.UUID, expected []booking.Status, feeCents int64, reason string, _ time.Time) error {
	row, ok := r.rows[id]
	if !ok || !statusIn(row.status, expected) {
		return conflict("status guard failed")
	}
	row.status = booking.StatusCanceled
	row.cancelFeeCents = feeCents
	row.cancelReason = reason
	return nil
}

func (r *fakeBookingRepo) UpdatePaymentStatus(_ context.Context, _ db.DBTX, id uuid.UUID, ps booking.PaymentStatus, _ time.Time) error {
	row, ok := r.rows[id]
	if !ok {
		return notFound("booking not found")
	}
	row.payment = ps
	return nil
}

func (r *fakeBookingRepo) UpdateAdvanceEligibility(_ context.Context, _ db.DBTX, id uuid.UUID, eligible bool, reason string, _ time.Time) error {
	row, ok := r.rows[id]
	if !ok {
		return notFound("booking not found")
	}
	row.advanceEligible = eligible
	row.advanceReason = reason
	return nil
}

func (r *fakeBookingRepo) FindOverrun(_ context.Context, _ db.DBTX, _ time.Time, _ time.Duration) ([]*booking.Booking, error) {
	return r.overrun, nil
}

func statusIn(s booking.Status, expected []booking.Status) bool {
	for _, e := range expected {
		if s == e {
			return true
		}
	}
	return false
}

type fakeUserRepo struct {
	users     map[uuid.UUID]*user.User
	completed map[uuid.UUID]int
	lifted    int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:     make(map[uuid.UUID]*user.User),
		completed: make(map[uuid.UUID]int),
	}
}

func (r *fakeUserRepo) put(u *user.User) { r.users[u.ID()] = u }

func (r *fakeUserRepo) FindByID(_ context.Context, _ db.DBTX, id uuid.UUID) (*user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, notFound("user not found")
	}
	return u, nil
}

func (r *fakeUserRepo) UpdateAccountStatus(_ context.Context, _ db.DBTX, id uuid.UUID, status user.AccountStatus, suspensionStart *time.Time, suspensionDays int, now time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return notFound("user not found")
	}
	days := 0
	if suspensionStart != nil {
		days = suspensionDays
	}
	r.users[id] = user.ReconstructUser(
		u.ID(), u.Name(), u.Email(), u.Role(), status,
		suspensionStart, days, u.PlanTier(), u.Verified(),
		u.CompletedBookings(), u.AverageRating(), u.BaseCoordinates(),
		u.CreatedAt(), now,
	)
	return nil
}

func (r *fakeUserRepo) IncrementCompleted(_ context.Context, _ db.DBTX, id uuid.UUID, _ time.Time) error {
	r.completed[id]++
	return nil
}

func (r *fakeUserRepo) ReactivateExpiredSuspensions(_ context.Context, _ db.DBTX, now time.Time) (int64, error) {
	var n int64
	for id, u := range r.users {
		if u.AccountStatus() != user.StatusSuspended {
			continue
		}
		liftedAt := u.SuspensionLiftedAt()
		if liftedAt == nil || liftedAt.After(now) {
			continue
		}
		r.users[id] = user.ReconstructUser(
			u.ID(), u.Name(), u.Email(), u.Role(), user.StatusActive,
			nil, 0, u.PlanTier(), u.Verified(),
			u.CompletedBookings(), u.AverageRating(), u.BaseCoordinates(),
			u.CreatedAt(), now,
		)
		n++
	}
	r.lifted += n
	return n, nil
}

type fakePresenceRepo struct {
	events []*presence.PresenceEvent
}

func (r *fakePresenceRepo) Create(_ context.Context, _ db.DBTX, e *presence.PresenceEvent) error {
	for _, existing := range r.events {
		if existing.BookingID() == e.BookingID() && existing.Kind() == e.Kind() &&
			existing.ApprovalStatus() != presence.ApprovalRejected {
			return duplicate("presence event exists")
		}
	}
	r.events = append(r.events, e)
	return nil
}

func (r *fakePresenceRepo) FindByID(_ context.Context, _ db.DBTX, id uuid.UUID) (*presence.PresenceEvent, error) {
	for _, e := range r.events {
		if e.ID() == id {
			return e, nil
		}
	}
	return nil, notFound("presence event not found")
}

func (r *fakePresenceRepo) FindLatestByBookingAndKind(_ context.Context, _ db.DBTX, bookingID uuid.UUID, kind presence.Kind) (*presence.PresenceEvent, error) {
	var latest *presence.PresenceEvent
	for _, e := range r.events {
		if e.BookingID() != bookingID || e.Kind() != kind || e.ApprovalStatus() == presence.ApprovalRejected {
			continue
		}
		if latest == nil || e.CreatedAt().After(latest.CreatedAt()) {
			latest = e
		}
	}
	if latest == nil {
		return nil, notFound("presence event not found")
	}
	return latest, nil
}

func (r *fakePresenceRepo) ListByBooking(_ context.Context, _ db.DBTX, bookingID uuid.UUID) ([]*presence.PresenceEvent, error) {
	var out []*presence.PresenceEvent
	for _, e := range r.events {
		if e.BookingID() == bookingID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakePresenceRepo) UpdateApprovalGuarded(_ context.Context, _ db.DBTX, id uuid.UUID, next presence.ApprovalStatus, approvedBy *uuid.UUID, rejectionReason string, now time.Time) error {
	for _, e := range r.events {
		if e.ID() != id {
			continue
		}
		if !e.IsPending() {
			return conflict("approval guard failed")
		}
		if next == presence.ApprovalApproved {
			return e.Approve(approvedBy, now)
		}
		return e.Reject(*approvedBy, rejectionReason, now)
	}
	return conflict("approval guard failed")
}

func (r *fakePresenceRepo) ListStalePendingArrivals(_ context.Context, _ db.DBTX, cutoff time.Time) ([]*presence.PresenceEvent, error) {
	var out []*presence.PresenceEvent
	for _, e := range r.events {
		if e.Kind() == presence.KindArrival && e.IsPending() && !e.CreatedAt().After(cutoff) {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeViolationRepo struct {
	records []*moderation.ViolationRecord
}

func (r *fakeViolationRepo) Create(_ context.Context, _ db.DBTX, v *moderation.ViolationRecord) error {
	r.records = append(r.records, v)
	return nil
}

func (r *fakeViolationRepo) CountByUser(_ context.Context, _ db.DBTX, userID uuid.UUID) (int, error) {
	n := 0
	for _, v := range r.records {
		if v.UserID() == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeViolationRepo) ListByUser(_ context.Context, _ db.DBTX, userID uuid.UUID) ([]*moderation.ViolationRecord, error) {
	var out []*moderation.ViolationRecord
	for _, v := range r.records {
		if v.UserID() == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeAdvanceRepo struct {
	payments map[uuid.UUID]*advance.AdvancePayment // keyed by booking ID
}

func newFakeAdvanceRepo() *fakeAdvanceRepo {
	return &fakeAdvanceRepo{payments: make(map[uuid.UUID]*advance.AdvancePayment)}
}

func (r *fakeAdvanceRepo) Create(_ context.Context, _ db.DBTX, a *advance.AdvancePayment) error {
	if _, ok := r.payments[a.BookingID()]; ok {
		return duplicate("advance exists")
	}
	r.payments[a.BookingID()] = a
	return nil
}

func (r *fakeAdvanceRepo) FindByBookingID(_ context.Context, _ db.DBTX, bookingID uuid.UUID) (*advance.AdvancePayment, error) {
	a, ok := r.payments[bookingID]
	if !ok {
		return nil, notFound("advance not found")
	}
	return a, nil
}

func (r *fakeAdvanceRepo) Release(_ context.Context, _ db.DBTX, bookingID uuid.UUID, checkoutProofID uuid.UUID, now time.Time) (bool, error) {
	a, ok := r.payments[bookingID]
	if !ok || a.IsReleased() {
		return false, nil
	}
	r.payments[bookingID] = advance.ReconstructAdvancePayment(
		a.ID(), a.BookingID(), a.AmountCents(), &now, &checkoutProofID, a.CreatedAt(),
	)
	return true, nil
}

type fakeMessageRepo struct {
	messages []*chat.Message
}

func (r *fakeMessageRepo) Create(_ context.Context, _ db.DBTX, m *chat.Message) error {
	r.messages = append(r.messages, m)
	return nil
}

func (r *fakeMessageRepo) ListByBooking(_ context.Context, _ db.DBTX, bookingID uuid.UUID) ([]*chat.Message, error) {
	var out []*chat.Message
	for _, m := range r.messages {
		if m.BookingID() == bookingID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) lastBody() string {
	if len(r.messages) == 0 {
		return ""
	}
	return r.messages[len(r.messages)-1].Body()
}

type fakeOutboxRepo struct {
	events []*repository.OutboxEvent
}

func (r *fakeOutboxRepo) Insert(_ context.Context, _ db.DBTX, e *repository.OutboxEvent) error {
	r.events = append(r.events, e)
	return nil
}

func (r *fakeOutboxRepo) FetchUnpublished(_ context.Context, _ db.DBTX, limit int) ([]*repository.OutboxEvent, error) {
	var out []*repository.OutboxEvent
	for _, e := range r.events {
		if e.Status == repository.OutboxNew {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeOutboxRepo) MarkPublished(_ context.Context, _ db.DBTX, id uuid.UUID, now time.Time) error {
	for _, e := range r.events {
		if e.ID == id {
			e.Status = repository.OutboxPublished
			e.PublishedAt = &now
			return nil
		}
	}
	return notFound("outbox event not found")
}

func (r *fakeOutboxRepo) CountUnpublished(_ context.Context, _ db.DBTX) (int, error) {
	n := 0
	for _, e := range r.events {
		if e.Status == repository.OutboxNew {
			n++
		}
	}
	return n, nil
}

func (r *fakeOutboxRepo) eventTypes() []string {
	var out []string
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

type fakeNotifier struct {
	events []string
}

func (n *fakeNotifier) PublishBookingEvent(_ context.Context, _ uuid.UUID, eventType string, _ any) {
	n.events = append(n.events, eventType)
}

// Fixture builders.

var baseTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

var saoPaulo = geo.Coordinates{Latitude: -23.5505, Longitude: -46.6333}

// fortaleza is ~2,370 km from São Paulo, comfortably past the advance
// distance floor.
var fortaleza = geo.Coordinates{Latitude: -3.7319, Longitude: -38.5267}

func makeRequester() *user.User {
	id := uuid.New()
	return user.ReconstructUser(
		id, "Contratante", "contratante@example.com",
		user.RoleRequester, user.StatusActive, nil, 0,
		user.PlanFree, false, 0, 0, nil,
		baseTime.Add(-30*24*time.Hour), baseTime,
	)
}

func makeArtist(status user.AccountStatus) *user.User {
	id := uuid.New()
	return user.ReconstructUser(
		id, "Artista", "artista@example.com",
		user.RoleArtist, status, nil, 0,
		user.PlanPro, true, 25, 4.8, &saoPaulo,
		baseTime.Add(-365*24*time.Hour), baseTime,
	)
}

func withPlanTier(u *user.User, tier user.PlanTier) *user.User {
	return user.ReconstructUser(
		u.ID(), u.Name(), u.Email(), u.Role(), u.AccountStatus(),
		u.SuspensionStart(), u.SuspensionDays(),
		tier, u.Verified(), u.CompletedBookings(), u.AverageRating(),
		u.BaseCoordinates(), u.CreatedAt(), u.UpdatedAt(),
	)
}

func newTestAdvance(bookingID uuid.UUID) *advance.AdvancePayment {
	return advance.NewAdvancePayment(bookingID, 100000, baseTime)
}

func makeBookingRow(t time.Time, requester, artist *user.User, status booking.Status, payment booking.PaymentStatus, startIn time.Duration) *booking.Booking {
	schedule, _ := booking.NewEventSchedule(t.Add(startIn), 2*time.Hour)
	location := booking.NewLocation("Teatro Municipal, Fortaleza", &fortaleza)
	value, fee, total := booking.SplitValue(100000, artist.PlanTier())
	km := geo.DistanceKm(saoPaulo, fortaleza)
	return booking.ReconstructBooking(
		uuid.New(), requester.ID(), artist.ID(),
		schedule, location,
		value, fee, total,
		artist.PlanTier(), status, payment,
		&km, false, "",
		booking.NewMoney(0), "",
		t, t,
		nil, nil, nil, nil, nil,
	)
}

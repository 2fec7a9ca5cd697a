package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movieticket/ticket-booking/internal/model"
)

var _ Store = (*memStore)(nil)

type fixture struct {
	svc   *Service
	store *memStore
	user  *model.User
	sess  *model.Session
	now   time.Time
}

// newFixture builds a service over the in-memory store with a frozen
// clock, one active customer and one bookable 5x5 session.
func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	store := newMemStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	user := store.addUser(model.User{Email: "customer@example.com", Role: "CUSTOMER", IsActive: true})
	hall := store.addHall(model.Hall{Name: "Hall 1", SeatRows: 5, SeatCols: 5, IsActive: true})
	sess := store.addSession(model.Session{
		MovieID:    1,
		HallID:     hall.ID,
		StartsAt:   now.Add(2 * time.Hour),
		EndsAt:     now.Add(4 * time.Hour),
		PriceCents: 1500,
		Capacity:   hall.Capacity(),
		IsActive:   true,
	})

	f := &fixture{store: store, user: user, sess: sess, now: now}
	f.svc = NewService(store, NewOrderNoGenerator(), cfg)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func TestCreateReservation(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	order, err := f.svc.CreateReservation(ctx, f.user.ID, f.sess.ID, []string{"A1", "A2"})
	require.NoError(t, err)
	require.NotZero(t, order.ID)

	assert.Equal(t, model.OrderPending, order.Status)
	assert.Equal(t, []string{"A1", "A2"}, order.Seats)
	assert.Equal(t, uint32(2), order.SeatCount)
	assert.Equal(t, uint64(3000), order.TotalCents)
	assert.Contains(t, order.OrderNo, "ORDER")

	assert.Equal(t, uint32(2), f.store.getSession(f.sess.ID).BookedSeats)
}

func TestCreateReservationRejectsBadInput(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	_, err := f.svc.CreateReservation(ctx, f.user.ID, f.sess.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidSeats)

	_, err = f.svc.CreateReservation(ctx, f.user.ID, f.sess.ID,
		[]string{"A1", "A2", "A3", "A4", "A5", "B1", "B2"})
	assert.ErrorIs(t, err, ErrTooManySeats)

	_, err = f.svc.CreateReservation(ctx, f.user.ID, f.sess.ID, []string{"A1", "A1"})
	assert.ErrorIs(t, err, ErrInvalidSeats)

	_, err = f.svc.CreateReservation(ctx, f.user.ID, f.sess.ID, []string{"1A"})
	assert.ErrorIs(t, err, ErrInvalidSeats)

	// row F and seat 6 are outside the 5x5 grid
	_, err = f.svc.CreateReservation(ctx, f.user.ID, f.sess.ID, []string{"F1"})
	assert.ErrorIs(t, err, ErrInvalidSeats)
	_, err = f.svc.CreateReservation(ctx, f.user.ID, f.sess.ID, []string{"A6"})
	assert.ErrorIs(t, err, ErrInvalidSeats)

	// nothing was booked
	assert.Equal(t, uint32(0), f.store.getSession(f.sess.ID).BookedSeats)
}

func TestCreateReservationUnknownSessionAndUser(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	_, err := f.svc.CreateReservation(ctx, f.user.ID, 9999, []string{"A1"})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.svc.CreateReservation(ctx, 9999, f.sess.ID, []string{"A1"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	inactive := f.store.addUser(model.User{Email: "gone@example.com", Role: "CUSTOMER", IsActive: false})
	_, err = f.svc.CreateReservation(ctx, inactive.ID, f.sess.ID, []string{"A1"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreateReservationOnClosedSession(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	deactivated := f.store.addSession(model.Session{
		MovieID: 1, HallID: f.sess.HallID,
		StartsAt: f.now.Add(time.Hour), EndsAt: f.now.Add(2 * time.Hour),
		PriceCents: 1000, Capacity: 25, IsActive: false,
	})
	_, err := f.svc.CreateReservation(ctx, f.user.ID, deactivated.ID, []string{"A1"})
	assert.ErrorIs(t, err, ErrSessionInactive)

	ended := f.store.addSession(model.Session{
		MovieID: 1, HallID: f.sess.HallID,
		StartsAt: f.now.Add(-3 * time.Hour), EndsAt: f.now.Add(-time.Hour),
		PriceCents: 1000, Capacity: 25, IsActive: true,
	})
	_, err = f.svc.CreateReservation(ctx, f.user.ID, ended.ID, []string{"A1"})
	assert.ErrorIs(t, err, ErrSessionInactive)
}

func TestCreateReservationSeatConflict(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	_, err := f.svc.CreateReservation(ctx, f.user.ID, f.sess.ID, []string{"A1", "A2"})
	require.NoError(t, err)

	other := f.store.addUser(model.User{Email: "other@example.com", Role: "CUSTOMER", IsActive: true})
	_, err = f.svc.CreateReservation(ctx, other.ID, f.sess.ID, []string{"A2", "A3"})

	var conflict *SeatConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"A2"}, conflict.Seats)
	assert.ErrorIs(t, err, ErrSeatConflict)

	// the failed attempt reserved nothing
	assert.Equal(t, uint32(2), f.store.getSession(f.sess.ID).BookedSeats)
}

func TestConcurrentReservationOfSameSeat(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	userB := f.store.addUser(model.User{Email: "b@example.com", Role: "CUSTOMER", IsActive: true})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, uid := range []uint64{f.user.ID, userB.ID} {
		wg.Add(1)
		go func(i int, uid uint64) {
			defer wg.Done()
			_, errs[i] = f.svc.CreateReservation(ctx, uid, f.sess.ID, []string{"C3"})
		}(i, uid)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrSeatConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, uint32(1), f.store.getSession(f.sess.ID).BookedSeats)
}

func TestPayOrder(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	order, err := f.svc.CreateReservation(ctx, f.user.ID, f.sess.ID, []string{"B1"})
	require.NoError(t, err)

	f.advance(5 * time.Minute)
	require.NoError(t, f.svc.PayOrder(ctx, order.ID))

	paid := f.store.getOrder(order.ID)
	assert.Equal(t, model.OrderPaid, paid.Status)
	require.NotNil(t, paid.PayTime)
	assert.Equal(t, f.now, *paid.PayTime)

	// paying twice is not a legal transition
	assert.ErrorIs(t, f.svc.PayOrder(ctx, order.ID), ErrInvalidTransition)
	// seats stay booked after payment
	assert.Equal(t, uint32(1), f.store.getSession(f.sess.ID).BookedSeats)
}

func TestLifecycleOnUnknownOrder(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.PayOrder(ctx, 9999), ErrOrderNotFound)
	assert.ErrorIs(t, f.svc.CancelOrder(ctx, 9999), ErrOrderNotFound)
	assert.ErrorIs(t, f.svc.RefundOrder(ctx, 9999), ErrOrderNotFound)
	assert.Equal(t, uint32(0), f.store.getSession(f.sess.ID).BookedSeats)
}

func TestPayOrderAfterTTL(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	order, err := f.svc.CreateReservation(ctx, f.user.ID, f.sess.ID, []string{"B2"})
	require.NoError(t, err)

	f.advance(DefaultTTL + time.Second)
	err = f.svc.PayOrder(ctx, order.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, model.OrderPending, f.store.getOrder(order.ID).Status)
}

func TestExpiredPendingSeatsAreFreeBeforeSweep(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	stale, err := f.svc.CreateReservation(ctx, f.user.ID, f.sess.ID, []string{"D4"})
	require.NoError(t, err)

	f.advance(DefaultTTL + time.Minute)

	// no sweep has run, yet the seat is available again
	other := f.store.addUser(model.User{Email: "late@example.com", Role: "CUSTOMER", IsActive: true})
	order, err := f.svc.CreateReservation(ctx, other.ID, f.sess.ID, []string{"D4"})
	require.NoError(t, err)
	assert.Equal(t, []string{"D4"}, order.Seats)
	assert.Equal(t, model.OrderPending, f.store.getOrder(stale.ID).Status)
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	order, err := f.svc.CreateReservation(ctx, f.user.ID, f.sess.ID, []string{"A1", "A2", "A3"})
	require.NoError(t, err)
	require.Equal(t, uint32(3), f.store.getSession(f.sess.ID).BookedSeats)

	require.NoError(t, f.svc.CancelOrder(ctx, order.ID))

	cancelled := f.store.getOrder(order.ID)
	assert.Equal(t, model.OrderCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelTime)
	assert.Equal(t, uint32(0), f.store.getSession(f.sess.ID).BookedSeats)

	// terminal states reject further transitions
	assert.ErrorIs(t, f.svc.CancelOrder(ctx, order.ID), ErrInvalidTransition)
	assert.ErrorIs(t, f.svc.PayOrder(ctx, order.ID), ErrInvalidTransition)
}

func TestCancelPaidOrderIsInvalid(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	order, err := f.svc.CreateReservation(ctx, f.user.ID, f.sess.ID, []string{"E5"})
	require.NoError(t, err)
	require.NoError(t, f.svc.PayOrder(ctx, order.ID))

	assert.ErrorIs(t, f.svc.CancelOrder(ctx, order.ID), ErrInvalidTransition)
	assert.Equal(t, uint32(1), f.store.getSession(f.sess.ID).BookedSeats)
}

func TestRefundOrder(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	order, err := f.svc.CreateReservation(ctx, f.user.ID, f.sess.ID, []string{"C1", "C2"})
	require.NoError(t, err)

	// refunding before payment is invalid
	assert.ErrorIs(t, f.svc.RefundOrder(ctx, order.ID), ErrInvalidTransition)

	require.NoError(t, f.svc.PayOrder(ctx, order.ID))
	require.NoError(t, f.svc.RefundOrder(ctx, order.ID))

	refunded := f.store.getOrder(order.ID)
	assert.Equal(t, model.OrderRefunded, refunded.Status)
	require.NotNil(t, refunded.CancelTime)
	assert.Equal(t, uint32(0), f.store.getSession(f.sess.ID).BookedSeats)

	assert.ErrorIs(t, f.svc.RefundOrder(ctx, order.ID), ErrInvalidTransition)
}

func TestReleasedSeatsCanBeRebooked(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	order, err := f.svc.CreateReservation(ctx, f.user.ID, f.sess.ID, []string{"B3"})
	require.NoError(t, err)
	require.NoError(t, f.svc.CancelOrder(ctx, order.ID))

	again, err := f.svc.CreateReservation(ctx, f.user.ID, f.sess.ID, []string{"B3"})
	require.NoError(t, err)
	assert.NotEqual(t, order.ID, again.ID)
}

func TestSweepExpired(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	stale, err := f.svc.CreateReservation(ctx, f.user.ID, f.sess.ID, []string{"A1", "A2"})
	require.NoError(t, err)

	f.advance(10 * time.Minute)
	fresh, err := f.svc.CreateReservation(ctx, f.user.ID, f.sess.ID, []string{"B1"})
	require.NoError(t, err)

	f.advance(6 * time.Minute) // stale is now 16 min old, fresh 6 min

	n, err := f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, model.OrderCancelled, f.store.getOrder(stale.ID).Status)
	assert.Equal(t, model.OrderPending, f.store.getOrder(fresh.ID).Status)
	assert.Equal(t, uint32(1), f.store.getSession(f.sess.ID).BookedSeats)

	// sweeping again finds nothing new
	n, err = f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, uint32(1), f.store.getSession(f.sess.ID).BookedSeats)
}

func TestSweepDoesNotTouchPaidOrders(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	order, err := f.svc.CreateReservation(ctx, f.user.ID, f.sess.ID, []string{"D1"})
	require.NoError(t, err)
	require.NoError(t, f.svc.PayOrder(ctx, order.ID))

	f.advance(time.Hour)
	n, err := f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, model.OrderPaid, f.store.getOrder(order.ID).Status)
	assert.Equal(t, uint32(1), f.store.getSession(f.sess.ID).BookedSeats)
}

func TestCheckAvailability(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	ok, err := f.svc.CheckAvailability(ctx, f.sess.ID, []string{"A1", "A2"})
	require.NoError(t, err)
	assert.True(t, ok)

	// empty set is trivially available
	ok, err = f.svc.CheckAvailability(ctx, f.sess.ID, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.svc.CreateReservation(ctx, f.user.ID, f.sess.ID, []string{"A1"})
	require.NoError(t, err)

	ok, err = f.svc.CheckAvailability(ctx, f.sess.ID, []string{"A1", "A2"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.svc.CheckAvailability(ctx, f.sess.ID, []string{"A2"})
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.svc.CheckAvailability(ctx, f.sess.ID, []string{"Z99"})
	assert.ErrorIs(t, err, ErrInvalidSeats)

	_, err = f.svc.CheckAvailability(ctx, 9999, []string{"A1"})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMaxSeatsPerOrderConfig(t *testing.T) {
	f := newFixture(t, Config{MaxSeatsPerOrder: 2})
	ctx := context.Background()

	_, err := f.svc.CreateReservation(ctx, f.user.ID, f.sess.ID, []string{"A1", "A2", "A3"})
	assert.ErrorIs(t, err, ErrTooManySeats)

	_, err = f.svc.CreateReservation(ctx, f.user.ID, f.sess.ID, []string{"A1", "A2"})
	assert.NoError(t, err)
}

func TestCustomTTL(t *testing.T) {
	f := newFixture(t, Config{TTL: 2 * time.Minute})
	ctx := context.Background()

	order, err := f.svc.CreateReservation(ctx, f.user.ID, f.sess.ID, []string{"A5"})
	require.NoError(t, err)

	f.advance(3 * time.Minute)
	assert.ErrorIs(t, f.svc.PayOrder(ctx, order.ID), ErrInvalidTransition)

	n, err := f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

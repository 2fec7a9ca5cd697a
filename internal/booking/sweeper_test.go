package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movieticket/ticket-booking/internal/model"
)

func TestSweeperRunCancelsExpiredOrders(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	order, err := f.svc.CreateReservation(ctx, f.user.ID, f.sess.ID, []string{"A1"})
	require.NoError(t, err)
	f.advance(DefaultTTL + time.Minute)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		NewSweeper(f.svc, 10*time.Millisecond).Run(runCtx)
	}()

	// the sweeper sweeps once immediately on start
	assert.Eventually(t, func() bool {
		return f.store.getOrder(order.ID).Status == model.OrderCancelled
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}

	assert.Equal(t, uint32(0), f.store.getSession(f.sess.ID).BookedSeats)
}

func TestNewSweeperDefaultsInterval(t *testing.T) {
	f := newFixture(t, Config{})
	w := NewSweeper(f.svc, 0)
	assert.Equal(t, DefaultSweepInterval, w.interval)
}

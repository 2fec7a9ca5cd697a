package booking

import (
	"context"
	"log"
	"time"
)

// DefaultSweepInterval is how often the sweeper scans for expired
// reservations.
const DefaultSweepInterval = time.Minute

// Sweeper is the background process that cancels stale unpaid
// reservations and releases their seats back to inventory.  It is an
// explicit, cancellable loop rather than fire-and-forget per-request
// logic; each sweep isolates failures per order.
type Sweeper struct {
	svc      *Service
	interval time.Duration
}

// NewSweeper returns a sweeper over the given service.  A
// non-positive interval falls back to DefaultSweepInterval.
func NewSweeper(svc *Service, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{svc: svc, interval: interval}
}

// Run blocks, sweeping once immediately and then on every tick until
// ctx is cancelled.  Scan-level failures are logged and retried on
// the next tick; they never stop the loop.
func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Printf("sweeper: stopped: %v", ctx.Err())
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Sweeper) sweep(ctx context.Context) {
	expired, err := w.svc.SweepExpired(ctx)
	if err != nil {
		log.Printf("sweeper: scan failed: %v", err)
		return
	}
	if expired > 0 {
		log.Printf("sweeper: cancelled %d expired order(s)", expired)
	}
}

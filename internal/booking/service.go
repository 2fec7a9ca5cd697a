package booking

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/movieticket/ticket-booking/internal/model"
)

// DefaultTTL is the reservation time-to-live: the window during
// which an unpaid PENDING order still counts as holding its seats.
const DefaultTTL = 15 * time.Minute

// DefaultMaxSeatsPerOrder caps how many seats one order may reserve.
const DefaultMaxSeatsPerOrder = 6

// Config carries the tunables of the booking service.
type Config struct {
	// TTL is the reservation time-to-live.  Zero means DefaultTTL.
	TTL time.Duration
	// MaxSeatsPerOrder caps seats per order.  Zero means
	// DefaultMaxSeatsPerOrder.
	MaxSeatsPerOrder int
}

// Service drives the order lifecycle and the seat-count side effects
// of each transition.  All mutating operations run inside a Store
// transaction holding the session row, so either the order transition
// and the inventory adjustment both commit, or neither does.
type Service struct {
	store    Store
	orderNos *OrderNoGenerator
	ttl      time.Duration
	maxSeats int
	now      func() time.Time
}

// NewService constructs a booking service.  gen must not be shared
// across services that require disjoint order-number sequences.
func NewService(store Store, gen *OrderNoGenerator, cfg Config) *Service {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	maxSeats := cfg.MaxSeatsPerOrder
	if maxSeats <= 0 {
		maxSeats = DefaultMaxSeatsPerOrder
	}
	return &Service{
		store:    store,
		orderNos: gen,
		ttl:      ttl,
		maxSeats: maxSeats,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// TTL returns the configured reservation time-to-live.
func (s *Service) TTL() time.Duration { return s.ttl }

// CreateReservation books the given seats on a session for a user and
// returns the new PENDING order.  The availability check and the
// booked-seat increment happen under one exclusive session claim;
// two concurrent requests for an overlapping seat set can never both
// succeed.
func (s *Service) CreateReservation(ctx context.Context, userID, sessionID uint64, seats []string) (*model.Order, error) {
	if len(seats) == 0 {
		return nil, &SeatInputError{Reason: "at least one seat is required"}
	}
	if len(seats) > s.maxSeats {
		return nil, fmt.Errorf("%w: limit is %d per order", ErrTooManySeats, s.maxSeats)
	}

	user, err := s.store.User(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserNotFound
	}

	sess, err := s.store.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	hall, err := s.store.Hall(ctx, sess.HallID)
	if err != nil {
		return nil, err
	}
	if err := validateSeatLabels(seats, hall.SeatRows, hall.SeatCols); err != nil {
		return nil, err
	}

	now := s.now()
	order := &model.Order{
		OrderNo:   s.orderNos.Next(),
		UserID:    userID,
		SessionID: sessionID,
		Seats:     append([]string(nil), seats...),
		SeatCount: uint32(len(seats)),
		Status:    model.OrderPending,
		CreatedAt: now,
	}

	err = s.store.WithSession(ctx, sessionID, func(tx Tx) error {
		locked, err := tx.Session(ctx, sessionID)
		if err != nil {
			return err
		}
		if !locked.Bookable(now) {
			return ErrSessionInactive
		}
		order.TotalCents = uint64(locked.PriceCents) * uint64(order.SeatCount)

		held, err := tx.HeldSeats(ctx, sessionID, now.Add(-s.ttl))
		if err != nil {
			return err
		}
		var conflicts []string
		for _, seat := range seats {
			if _, taken := held[seat]; taken {
				conflicts = append(conflicts, seat)
			}
		}
		if len(conflicts) > 0 {
			return &SeatConflictError{Seats: conflicts}
		}

		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		return tx.AddBookedSeats(ctx, sessionID, order.SeatCount)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// PayOrder transitions a PENDING order to PAID.  The order must not
// be past its TTL, and the seats are re-validated as still held
// exclusively by this order; that re-check is redundant once the
// reservation path is atomic but is kept as a cheap invariant guard
// against a sweeper racing the payment.
func (s *Service) PayOrder(ctx context.Context, orderID uint64) error {
	now := s.now()
	return s.store.WithOrder(ctx, orderID, func(tx Tx) error {
		o, err := tx.Order(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status != model.OrderPending {
			return fmt.Errorf("%w: cannot pay %s order", ErrInvalidTransition, o.Status)
		}
		if o.ExpiredAt(now, s.ttl) {
			return fmt.Errorf("%w: reservation expired", ErrInvalidTransition)
		}

		held, err := tx.HeldSeats(ctx, o.SessionID, now.Add(-s.ttl))
		if err != nil {
			return err
		}
		var lost []string
		for _, seat := range o.Seats {
			if held[seat] != o.ID {
				lost = append(lost, seat)
			}
		}
		if len(lost) > 0 {
			return &SeatConflictError{Seats: lost}
		}

		return tx.MarkOrder(ctx, orderID, model.OrderPending, model.OrderPaid, now)
	})
}

// CancelOrder transitions a PENDING order to CANCELLED and releases
// its seats back to the session inventory.  PAID orders can only be
// exited through RefundOrder.
func (s *Service) CancelOrder(ctx context.Context, orderID uint64) error {
	now := s.now()
	return s.store.WithOrder(ctx, orderID, func(tx Tx) error {
		o, err := tx.Order(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status != model.OrderPending {
			return fmt.Errorf("%w: cannot cancel %s order", ErrInvalidTransition, o.Status)
		}
		if err := tx.MarkOrder(ctx, orderID, model.OrderPending, model.OrderCancelled, now); err != nil {
			return err
		}
		return tx.RemoveBookedSeats(ctx, o.SessionID, o.SeatCount)
	})
}

// RefundOrder transitions a PAID order to REFUNDED and releases its
// seats.  The actual money movement is assumed to be an external call
// that succeeds or fails atomically before this is invoked.
func (s *Service) RefundOrder(ctx context.Context, orderID uint64) error {
	now := s.now()
	return s.store.WithOrder(ctx, orderID, func(tx Tx) error {
		o, err := tx.Order(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status != model.OrderPaid {
			return fmt.Errorf("%w: cannot refund %s order", ErrInvalidTransition, o.Status)
		}
		if err := tx.MarkOrder(ctx, orderID, model.OrderPaid, model.OrderRefunded, now); err != nil {
			return err
		}
		return tx.RemoveBookedSeats(ctx, o.SessionID, o.SeatCount)
	})
}

// ExpireOrder cancels one timed-out PENDING order on behalf of the
// sweeper and reports whether it actually released anything.  Orders
// that were paid, cancelled or refunded in the meantime are skipped
// without error, which makes repeated sweeps idempotent.
func (s *Service) ExpireOrder(ctx context.Context, orderID uint64) (bool, error) {
	now := s.now()
	expired := false
	err := s.store.WithOrder(ctx, orderID, func(tx Tx) error {
		o, err := tx.Order(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status != model.OrderPending || !o.ExpiredAt(now, s.ttl) {
			return nil
		}
		if err := tx.MarkOrder(ctx, orderID, model.OrderPending, model.OrderCancelled, now); err != nil {
			return err
		}
		if err := tx.RemoveBookedSeats(ctx, o.SessionID, o.SeatCount); err != nil {
			return err
		}
		expired = true
		return nil
	})
	return expired, err
}

// SweepExpired cancels every PENDING order older than the TTL and
// returns how many were expired.  A failure on one order is logged
// and does not abort the rest of the sweep.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.ttl)
	ids, err := s.store.ExpiredPendingOrders(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, id := range ids {
		ok, err := s.ExpireOrder(ctx, id)
		if err != nil {
			log.Printf("sweeper: expire order %d: %v", id, err)
			continue
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}

// CheckAvailability reports whether every candidate seat is free on
// the session.  An empty candidate set is trivially available.
// Duplicate or out-of-range labels are invalid input, not
// "unavailable".
func (s *Service) CheckAvailability(ctx context.Context, sessionID uint64, seats []string) (bool, error) {
	sess, err := s.store.Session(ctx, sessionID)
	if err != nil {
		return false, err
	}
	hall, err := s.store.Hall(ctx, sess.HallID)
	if err != nil {
		return false, err
	}
	if err := validateSeatLabels(seats, hall.SeatRows, hall.SeatCols); err != nil {
		return false, err
	}
	if len(seats) == 0 {
		return true, nil
	}
	held, err := s.store.HeldSeats(ctx, sessionID, s.now().Add(-s.ttl))
	if err != nil {
		return false, err
	}
	for _, seat := range seats {
		if _, taken := held[seat]; taken {
			return false, nil
		}
	}
	return true, nil
}

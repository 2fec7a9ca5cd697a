package booking

import (
	"context"
	"time"

	"github.com/movieticket/ticket-booking/internal/model"
)

// Store is the persistence port of the booking core.  The MySQL
// implementation lives in internal/repository; tests use an
// in-memory fake.
//
// WithSession and WithOrder are the atomicity guard required by the
// seat-reservation problem: the callback runs while the session row
// is exclusively held, so "check availability + reserve seats" is a
// single atomic unit with respect to other reservations on the same
// session.  Mutations made through the Tx become visible atomically
// on commit, or not at all when fn returns an error.
type Store interface {
	// Session returns the session or ErrSessionNotFound.
	Session(ctx context.Context, id uint64) (*model.Session, error)
	// Hall returns the hall referenced by a session.
	Hall(ctx context.Context, id uint64) (*model.Hall, error)
	// User returns the user or ErrUserNotFound.
	User(ctx context.Context, id uint64) (*model.User, error)
	// Order returns the order or ErrOrderNotFound.
	Order(ctx context.Context, id uint64) (*model.Order, error)

	// HeldSeats returns, for one session, every seat label held by an
	// active order mapped to that order's id.  Active means status
	// PAID, or PENDING with a creation time after pendingSince.
	// PENDING orders created at or before pendingSince are treated as
	// expired even if the sweeper has not cancelled them yet.
	HeldSeats(ctx context.Context, sessionID uint64, pendingSince time.Time) (map[string]uint64, error)

	// WithSession runs fn while holding an exclusive claim on the
	// session row.  Returns ErrSessionNotFound for unknown ids.
	WithSession(ctx context.Context, sessionID uint64, fn func(tx Tx) error) error

	// WithOrder runs fn while holding exclusive claims on the order
	// row and on its session row, in that order.  Returns
	// ErrOrderNotFound for unknown ids.
	WithOrder(ctx context.Context, orderID uint64, fn func(tx Tx) error) error

	// ExpiredPendingOrders lists ids of PENDING orders created at or
	// before cutoff, oldest first.
	ExpiredPendingOrders(ctx context.Context, cutoff time.Time) ([]uint64, error)
}

// Tx is the transactional view passed to WithSession/WithOrder
// callbacks.  All reads observe the locked rows' current state.
type Tx interface {
	// Session reads the locked session row.
	Session(ctx context.Context, id uint64) (*model.Session, error)
	// Order reads an order row.
	Order(ctx context.Context, id uint64) (*model.Order, error)
	// HeldSeats is Store.HeldSeats evaluated inside the transaction.
	HeldSeats(ctx context.Context, sessionID uint64, pendingSince time.Time) (map[string]uint64, error)

	// InsertOrder persists a new PENDING order and populates its ID.
	InsertOrder(ctx context.Context, o *model.Order) error

	// MarkOrder applies a status transition conditionally: the update
	// only happens when the order is still in the from state,
	// otherwise ErrInvalidTransition is returned.  PAID sets the pay
	// time; CANCELLED and REFUNDED set the cancel time.
	MarkOrder(ctx context.Context, orderID uint64, from, to model.OrderStatus, at time.Time) error

	// AddBookedSeats increments the session's booked-seat counter by
	// n iff the result does not exceed capacity, otherwise it returns
	// ErrInventoryExhausted and changes nothing.
	AddBookedSeats(ctx context.Context, sessionID uint64, n uint32) error

	// RemoveBookedSeats decrements the counter by n, floored at zero.
	// A release larger than the current count indicates a lifecycle
	// bug; implementations clamp and log it rather than fail.
	RemoveBookedSeats(ctx context.Context, sessionID uint64, n uint32) error
}

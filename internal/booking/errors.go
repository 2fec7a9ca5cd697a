// Package booking implements seat inventory management and the order
// lifecycle: reserving specific seats for a screening session, moving
// an order through payment, cancellation and refund, and reconciling
// the session's booked-seat count under concurrent access.
package booking

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the booking core.  All of them are
// expected, recoverable business conditions; handlers translate them
// into HTTP status codes with errors.Is.
var (
	// ErrOrderNotFound is returned when no order exists for the id.
	ErrOrderNotFound = errors.New("order not found")

	// ErrSessionNotFound is returned when no session exists for the id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrUserNotFound is returned when the booking user does not exist
	// or is deactivated.
	ErrUserNotFound = errors.New("user not found")

	// ErrSessionInactive is returned when the session is cancelled or
	// already past its end time.
	ErrSessionInactive = errors.New("session inactive")

	// ErrTooManySeats is returned when a reservation exceeds the
	// per-order seat limit.
	ErrTooManySeats = errors.New("too many seats requested")

	// ErrInvalidTransition is returned when the requested status
	// change is not legal from the order's current state.
	ErrInvalidTransition = errors.New("invalid order state transition")

	// ErrInventoryExhausted is returned when incrementing booked
	// seats would exceed the session capacity.  With the availability
	// check and the increment inside one session lock this should be
	// unreachable; it is kept as a second line of defence.
	ErrInventoryExhausted = errors.New("session capacity exhausted")

	// ErrSeatConflict is the target for errors.Is on SeatConflictError.
	ErrSeatConflict = errors.New("seat conflict")

	// ErrInvalidSeats is the target for errors.Is on SeatInputError.
	ErrInvalidSeats = errors.New("invalid seat selection")
)

// SeatConflictError reports which requested seats are already held by
// another active order on the session.
type SeatConflictError struct {
	Seats []string
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seat conflict: %s already taken", strings.Join(e.Seats, ","))
}

// Is makes errors.Is(err, ErrSeatConflict) match.
func (e *SeatConflictError) Is(target error) bool { return target == ErrSeatConflict }

// SeatInputError reports a malformed seat selection: a duplicate
// label, a label outside the hall's seat grid, or a label that does
// not parse.  This is invalid input, not an availability outcome.
type SeatInputError struct {
	Seat   string
	Reason string
}

func (e *SeatInputError) Error() string {
	if e.Seat == "" {
		return "invalid seat selection: " + e.Reason
	}
	return fmt.Sprintf("invalid seat %q: %s", e.Seat, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidSeats) match.
func (e *SeatInputError) Is(target error) bool { return target == ErrInvalidSeats }

package model

import "time"

// OrderStatus enumerates the lifecycle states of an order.  The
// values are stored verbatim in the orders.status column.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderRefunded  OrderStatus = "REFUNDED"
)

// CanTransitionTo reports whether the state machine permits moving
// from s to next.  PENDING may become PAID or CANCELLED; PAID may
// only become REFUNDED.  CANCELLED and REFUNDED are terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderPending:
		return next == OrderPaid || next == OrderCancelled
	case OrderPaid:
		return next == OrderRefunded
	default:
		return false
	}
}

// Terminal reports whether no further transitions are possible.
func (s OrderStatus) Terminal() bool {
	return s == OrderCancelled || s == OrderRefunded
}

// Order represents one customer's reservation of a specific set of
// seats on one session.  The seat set is immutable after creation;
// only Status and its companion timestamps change afterwards.
//
// Fields:
//  ID         – primary key identifier.
//  OrderNo    – unique human-readable order number.
//  UserID     – owning user.
//  SessionID  – session the seats belong to.
//  Seats      – ordered seat labels, unique within the order; stored
//               as a JSON array in orders.seat_labels.
//  SeatCount  – len(Seats), persisted for aggregate queries.
//  TotalCents – session price * SeatCount.
//  Status     – lifecycle state.
//  PayTime    – set on PENDING -> PAID.
//  CancelTime – set on cancellation or refund.
//  CreatedAt  – creation timestamp; the reservation TTL is measured
//               from this instant.
//  UpdatedAt  – last update timestamp.
type Order struct {
	ID         uint64      // orders.id
	OrderNo    string      // orders.order_no
	UserID     uint64      // orders.user_id
	SessionID  uint64      // orders.session_id
	Seats      []string    // orders.seat_labels (JSON array)
	SeatCount  uint32      // orders.seat_count
	TotalCents uint64      // orders.total_cents
	Status     OrderStatus // orders.status
	PayTime    *time.Time  // orders.pay_time (nullable)
	CancelTime *time.Time  // orders.cancel_time (nullable)
	CreatedAt  time.Time   // orders.created_at
	UpdatedAt  time.Time   // orders.updated_at
}

// ExpiredAt reports whether a PENDING order's reservation TTL has
// elapsed at the given instant.  Orders in any other state never
// expire.
func (o *Order) ExpiredAt(now time.Time, ttl time.Duration) bool {
	return o.Status == OrderPending && !now.Before(o.CreatedAt.Add(ttl))
}

// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderPaidEvent is published when an order is successfully paid.  It
// carries enough information for downstream consumers to log, notify
// or feed analytics without querying the primary database.
type OrderPaidEvent struct {
	OrderID    uint64   `json:"order_id"`
	OrderNo    string   `json:"order_no"`
	UserID     uint64   `json:"user_id"`
	SessionID  uint64   `json:"session_id"`
	MovieTitle string   `json:"movie_title"`
	HallName   string   `json:"hall_name"`
	StartsAt   string   `json:"starts_at"`
	Seats      []string `json:"seats"`
	TotalCents uint64   `json:"total_cents"`
	PaidAt     string   `json:"paid_at"`
}

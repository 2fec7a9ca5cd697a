package repository

import (
	"context"
	"database/sql"

	"github.com/movieticket/ticket-booking/internal/model"
)

// OrderRepo is the read side of orders: listing a customer's history
// and loading one order with an ownership check.  All writes go
// through the BookingStore.
type OrderRepo struct{ DB *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{DB: db} }

// GetByIDForUser loads an order and enforces that it belongs to the
// given user.  It returns sql.ErrNoRows for unknown orders and
// ErrForbidden for orders owned by someone else.
func (r *OrderRepo) GetByIDForUser(ctx context.Context, orderID, userID uint64) (*model.Order, error) {
	o, err := scanOrder(r.DB.QueryRowContext(ctx,
		"SELECT "+orderCols+" FROM orders WHERE id=?", orderID))
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrForbidden
	}
	return o, nil
}

// ListByUser returns all orders of a user, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Order, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+orderCols+" FROM orders WHERE user_id=? ORDER BY created_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := make([]*model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// CountByStatus returns how many orders are in the given status.
// Used by the admin stats endpoint.
func (r *OrderRepo) CountByStatus(ctx context.Context, status model.OrderStatus) (uint64, error) {
	var n uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM orders WHERE status=?", string(status)).Scan(&n)
	return n, err
}

// PaidRevenueCents sums total_cents over PAID orders.
func (r *OrderRepo) PaidRevenueCents(ctx context.Context) (uint64, error) {
	var total sql.NullInt64
	err := r.DB.QueryRowContext(ctx,
		"SELECT SUM(total_cents) FROM orders WHERE status='PAID'").Scan(&total)
	if err != nil {
		return 0, err
	}
	if !total.Valid {
		return 0, nil
	}
	return uint64(total.Int64), nil
}

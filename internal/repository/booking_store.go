package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/movieticket/ticket-booking/internal/booking"
	"github.com/movieticket/ticket-booking/internal/model"
)

// BookingStore is the MySQL implementation of booking.Store.
//
// Atomicity: WithSession and WithOrder open a transaction and take a
// SELECT ... FOR UPDATE on the session row before the callback runs,
// so the availability check and the booked-seat increment form one
// atomic unit per session.  The guarded UPDATE in AddBookedSeats is
// the belt-and-suspenders check on top of that lock.
type BookingStore struct{ DB *sql.DB }

func NewBookingStore(db *sql.DB) *BookingStore { return &BookingStore{DB: db} }

const orderCols = "id, order_no, user_id, session_id, seat_labels, seat_count, total_cents, status, pay_time, cancel_time, created_at, updated_at"

func scanOrder(row interface{ Scan(...any) error }) (*model.Order, error) {
	var (
		o          model.Order
		labels     string
		status     string
		payTime    sql.NullTime
		cancelTime sql.NullTime
	)
	err := row.Scan(&o.ID, &o.OrderNo, &o.UserID, &o.SessionID, &labels,
		&o.SeatCount, &o.TotalCents, &status, &payTime, &cancelTime, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(labels), &o.Seats); err != nil {
		return nil, err
	}
	o.Status = model.OrderStatus(status)
	if payTime.Valid {
		t := payTime.Time
		o.PayTime = &t
	}
	if cancelTime.Valid {
		t := cancelTime.Time
		o.CancelTime = &t
	}
	return &o, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func getSession(ctx context.Context, q querier, id uint64, forUpdate bool) (*model.Session, error) {
	query := "SELECT " + sessionCols + " FROM sessions WHERE id=?"
	if forUpdate {
		query += " FOR UPDATE"
	}
	s, err := scanSession(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func getOrder(ctx context.Context, q querier, id uint64, forUpdate bool) (*model.Order, error) {
	query := "SELECT " + orderCols + " FROM orders WHERE id=?"
	if forUpdate {
		query += " FOR UPDATE"
	}
	o, err := scanOrder(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrOrderNotFound
	}
	return o, err
}

func heldSeats(ctx context.Context, q querier, sessionID uint64, pendingSince time.Time) (map[string]uint64, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, seat_labels FROM orders
		 WHERE session_id = ? AND (status = 'PAID' OR (status = 'PENDING' AND created_at > ?))`,
		sessionID, pendingSince)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	held := make(map[string]uint64)
	for rows.Next() {
		var (
			id     uint64
			labels string
		)
		if err := rows.Scan(&id, &labels); err != nil {
			return nil, err
		}
		var seats []string
		if err := json.Unmarshal([]byte(labels), &seats); err != nil {
			return nil, err
		}
		for _, seat := range seats {
			held[seat] = id
		}
	}
	return held, rows.Err()
}

// Session implements booking.Store.
func (s *BookingStore) Session(ctx context.Context, id uint64) (*model.Session, error) {
	return getSession(ctx, s.DB, id, false)
}

// Hall implements booking.Store.
func (s *BookingStore) Hall(ctx context.Context, id uint64) (*model.Hall, error) {
	var h model.Hall
	err := s.DB.QueryRowContext(ctx,
		"SELECT "+hallCols+" FROM halls WHERE id=?", id).
		Scan(&h.ID, &h.Name, &h.SeatRows, &h.SeatCols, &h.IsActive, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// User implements booking.Store.
func (s *BookingStore) User(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	err := s.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,is_active,created_at,updated_at FROM users WHERE id=?", id).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Order implements booking.Store.
func (s *BookingStore) Order(ctx context.Context, id uint64) (*model.Order, error) {
	return getOrder(ctx, s.DB, id, false)
}

// HeldSeats implements booking.Store.
func (s *BookingStore) HeldSeats(ctx context.Context, sessionID uint64, pendingSince time.Time) (map[string]uint64, error) {
	return heldSeats(ctx, s.DB, sessionID, pendingSince)
}

// WithSession implements booking.Store.
func (s *BookingStore) WithSession(ctx context.Context, sessionID uint64, fn func(tx booking.Tx) error) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		// Lock the session row for the duration of check-and-reserve.
		if _, err := getSession(ctx, tx, sessionID, true); err != nil {
			return err
		}
		return fn(&bookingTx{tx: tx})
	})
}

// WithOrder implements booking.Store.  The order row is locked first,
// then its session row; WithSession never locks order rows, so the
// two cannot deadlock against each other.
func (s *BookingStore) WithOrder(ctx context.Context, orderID uint64, fn func(tx booking.Tx) error) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		o, err := getOrder(ctx, tx, orderID, true)
		if err != nil {
			return err
		}
		if _, err := getSession(ctx, tx, o.SessionID, true); err != nil {
			return err
		}
		return fn(&bookingTx{tx: tx})
	})
}

// ExpiredPendingOrders implements booking.Store.
func (s *BookingStore) ExpiredPendingOrders(ctx context.Context, cutoff time.Time) ([]uint64, error) {
	rows, err := s.DB.QueryContext(ctx,
		"SELECT id FROM orders WHERE status = 'PENDING' AND created_at <= ? ORDER BY created_at",
		cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *BookingStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// bookingTx adapts *sql.Tx to booking.Tx.
type bookingTx struct{ tx *sql.Tx }

func (t *bookingTx) Session(ctx context.Context, id uint64) (*model.Session, error) {
	return getSession(ctx, t.tx, id, false)
}

func (t *bookingTx) Order(ctx context.Context, id uint64) (*model.Order, error) {
	return getOrder(ctx, t.tx, id, false)
}

func (t *bookingTx) HeldSeats(ctx context.Context, sessionID uint64, pendingSince time.Time) (map[string]uint64, error) {
	return heldSeats(ctx, t.tx, sessionID, pendingSince)
}

func (t *bookingTx) InsertOrder(ctx context.Context, o *model.Order) error {
	labels, err := json.Marshal(o.Seats)
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO orders (order_no, user_id, session_id, seat_labels, seat_count, total_cents, status, created_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		o.OrderNo, o.UserID, o.SessionID, string(labels), o.SeatCount, o.TotalCents, string(o.Status), o.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

func (t *bookingTx) MarkOrder(ctx context.Context, orderID uint64, from, to model.OrderStatus, at time.Time) error {
	var query string
	switch to {
	case model.OrderPaid:
		query = "UPDATE orders SET status=?, pay_time=? WHERE id=? AND status=?"
	case model.OrderCancelled, model.OrderRefunded:
		query = "UPDATE orders SET status=?, cancel_time=? WHERE id=? AND status=?"
	default:
		return booking.ErrInvalidTransition
	}
	res, err := t.tx.ExecContext(ctx, query, string(to), at, orderID, string(from))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrInvalidTransition
	}
	return nil
}

func (t *bookingTx) AddBookedSeats(ctx context.Context, sessionID uint64, n uint32) error {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE sessions SET booked_seats = booked_seats + ? WHERE id = ? AND booked_seats + ? <= capacity",
		n, sessionID, n)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return booking.ErrInventoryExhausted
	}
	return nil
}

func (t *bookingTx) RemoveBookedSeats(ctx context.Context, sessionID uint64, n uint32) error {
	var booked uint32
	err := t.tx.QueryRowContext(ctx,
		"SELECT booked_seats FROM sessions WHERE id=?", sessionID).Scan(&booked)
	if err != nil {
		return err
	}
	if n > booked {
		// A release larger than the current count means an order was
		// double-released somewhere; clamp but make it visible.
		log.Printf("booking store: releasing %d seats but session %d has only %d booked", n, sessionID, booked)
		n = booked
	}
	_, err = t.tx.ExecContext(ctx,
		"UPDATE sessions SET booked_seats = booked_seats - ? WHERE id = ?", n, sessionID)
	return err
}

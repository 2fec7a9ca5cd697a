package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/movieticket/ticket-booking/internal/model"
)

// SessionRepo manages screening sessions from the scheduling side.
// The booked_seats counter is never touched here; it changes only
// through the BookingStore's transactional operations.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

const sessionCols = "id, movie_id, hall_id, starts_at, ends_at, price_cents, capacity, booked_seats, is_active, created_at, updated_at"

func scanSession(row interface{ Scan(...any) error }) (model.Session, error) {
	var s model.Session
	err := row.Scan(&s.ID, &s.MovieID, &s.HallID, &s.StartsAt, &s.EndsAt,
		&s.PriceCents, &s.Capacity, &s.BookedSeats, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// Create schedules a session.  Capacity must already be snapshotted
// from the hall by the caller.  It fails with ErrHallConflict when
// another session overlaps the time range in the same hall.
func (r *SessionRepo) Create(ctx context.Context, s *model.Session) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var clash uint64
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions
		 WHERE hall_id = ? AND is_active = 1 AND starts_at < ? AND ends_at > ?`,
		s.HallID, s.EndsAt, s.StartsAt).Scan(&clash)
	if err != nil {
		return err
	}
	if clash > 0 {
		return ErrHallConflict
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (movie_id, hall_id, starts_at, ends_at, price_cents, capacity, booked_seats, is_active)
		 VALUES (?,?,?,?,?,?,0,1)`,
		s.MovieID, s.HallID, s.StartsAt, s.EndsAt, s.PriceCents, s.Capacity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID returns a session or ErrNotFound.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (model.Session, error) {
	s, err := scanSession(r.DB.QueryRowContext(ctx,
		"SELECT "+sessionCols+" FROM sessions WHERE id=?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	return s, err
}

// ListUpcomingByMovie returns active sessions of a movie that have
// not started yet, soonest first.
func (r *SessionRepo) ListUpcomingByMovie(ctx context.Context, movieID uint64, now time.Time) ([]model.Session, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+sessionCols+" FROM sessions WHERE movie_id=? AND is_active=1 AND starts_at > ? ORDER BY starts_at",
		movieID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sessions := make([]model.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// SetActive flips the session's active flag.  Deactivating a session
// stops new reservations; existing orders keep their own lifecycle.
func (r *SessionRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET is_active=? WHERE id=?", active, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/movieticket/ticket-booking/internal/model"
)

// HallRepo provides access to the halls table.  A hall's seat grid is
// immutable after creation because session capacities are snapshotted
// from it.
type HallRepo struct{ DB *sql.DB }

func NewHallRepo(db *sql.DB) *HallRepo { return &HallRepo{DB: db} }

const hallCols = "id, name, seat_rows, seat_cols, is_active, created_at, updated_at"

// Create inserts a hall and populates its ID.
func (r *HallRepo) Create(ctx context.Context, h *model.Hall) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO halls (name, seat_rows, seat_cols, is_active) VALUES (?,?,?,?)",
		h.Name, h.SeatRows, h.SeatCols, h.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return nil
}

// GetByID returns a hall or ErrNotFound.
func (r *HallRepo) GetByID(ctx context.Context, id uint64) (model.Hall, error) {
	var h model.Hall
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+hallCols+" FROM halls WHERE id=?", id).
		Scan(&h.ID, &h.Name, &h.SeatRows, &h.SeatCols, &h.IsActive, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return h, ErrNotFound
	}
	return h, err
}

// List returns all halls ordered by name.
func (r *HallRepo) List(ctx context.Context) ([]model.Hall, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+hallCols+" FROM halls ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	halls := make([]model.Hall, 0)
	for rows.Next() {
		var h model.Hall
		if err := rows.Scan(&h.ID, &h.Name, &h.SeatRows, &h.SeatCols, &h.IsActive, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		halls = append(halls, h)
	}
	return halls, rows.Err()
}

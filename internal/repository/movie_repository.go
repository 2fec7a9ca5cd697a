package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/movieticket/ticket-booking/internal/model"
)

// MovieRepo provides CRUD operations for the movie catalog.  Movies
// are read-mostly rows with no concurrency discipline beyond normal
// point-read consistency.
type MovieRepo struct{ DB *sql.DB }

func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{DB: db} }

const movieCols = "id, title, description, duration_min, genre, is_active, created_at, updated_at"

func scanMovie(row interface{ Scan(...any) error }) (model.Movie, error) {
	var m model.Movie
	var desc sql.NullString
	err := row.Scan(&m.ID, &m.Title, &desc, &m.DurationMin, &m.Genre, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return m, err
	}
	if desc.Valid {
		d := desc.String
		m.Description = &d
	}
	return m, nil
}

// Create inserts a movie and populates its ID.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO movies (title, description, duration_min, genre, is_active) VALUES (?,?,?,?,?)",
		m.Title, m.Description, m.DurationMin, m.Genre, m.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// GetByID returns a movie or ErrNotFound.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (model.Movie, error) {
	m, err := scanMovie(r.DB.QueryRowContext(ctx,
		"SELECT "+movieCols+" FROM movies WHERE id=?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrNotFound
	}
	return m, err
}

// ListActive returns all listed movies ordered by title.
func (r *MovieRepo) ListActive(ctx context.Context) ([]model.Movie, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+movieCols+" FROM movies WHERE is_active = 1 ORDER BY title")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	movies := make([]model.Movie, 0)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	return movies, rows.Err()
}

// Update rewrites the mutable fields of a movie.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE movies SET title=?, description=?, duration_min=?, genre=?, is_active=? WHERE id=?",
		m.Title, m.Description, m.DurationMin, m.Genre, m.IsActive, m.ID)
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

// Delete removes a movie.  Sessions referencing it are protected by a
// foreign key, so deletion fails while screenings are scheduled.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM movies WHERE id=?", id)
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

package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/movieticket/ticket-booking/internal/booking"
	"github.com/movieticket/ticket-booking/internal/model"
	"github.com/movieticket/ticket-booking/internal/repository"
)

// CatalogHandler serves the unauthenticated browse endpoints: listing
// movies, upcoming sessions and checking seat availability.  These
// routes sit behind the response cache middleware.
type CatalogHandler struct {
	Movies   *repository.MovieRepo
	Sessions *repository.SessionRepo
	Svc      *booking.Service
}

func NewCatalogHandler(movies *repository.MovieRepo, sessions *repository.SessionRepo, svc *booking.Service) *CatalogHandler {
	return &CatalogHandler{Movies: movies, Sessions: sessions, Svc: svc}
}

type movieView struct {
	ID          uint64  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	DurationMin uint32  `json:"duration_min"`
	Genre       string  `json:"genre"`
}

func viewMovie(m model.Movie) movieView {
	return movieView{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		DurationMin: m.DurationMin,
		Genre:       m.Genre,
	}
}

type sessionView struct {
	ID             uint64    `json:"id"`
	MovieID        uint64    `json:"movie_id"`
	HallID         uint64    `json:"hall_id"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	PriceCents     uint32    `json:"price_cents"`
	Capacity       uint32    `json:"capacity"`
	SeatsRemaining uint32    `json:"seats_remaining"`
}

func viewSession(s model.Session) sessionView {
	remaining := uint32(0)
	if s.Capacity > s.BookedSeats {
		remaining = s.Capacity - s.BookedSeats
	}
	return sessionView{
		ID:             s.ID,
		MovieID:        s.MovieID,
		HallID:         s.HallID,
		StartsAt:       s.StartsAt,
		EndsAt:         s.EndsAt,
		PriceCents:     s.PriceCents,
		Capacity:       s.Capacity,
		SeatsRemaining: remaining,
	}
}

// ListMovies handles GET /v1/movies.
func (h *CatalogHandler) ListMovies(c echo.Context) error {
	movies, err := h.Movies.ListActive(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load movies failed"})
	}
	items := make([]movieView, 0, len(movies))
	for _, m := range movies {
		items = append(items, viewMovie(m))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetMovie handles GET /v1/movies/:id.
func (h *CatalogHandler) GetMovie(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	m, err := h.Movies.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load movie failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": viewMovie(m)})
}

// ListMovieSessions handles GET /v1/movies/:id/sessions, returning
// upcoming active screenings soonest first.
func (h *CatalogHandler) ListMovieSessions(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Movies.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load movie failed"})
	}
	sessions, err := h.Sessions.ListUpcomingByMovie(ctx, id, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load sessions failed"})
	}
	items := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, viewSession(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetSession handles GET /v1/sessions/:id.
func (h *CatalogHandler) GetSession(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	s, err := h.Sessions.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load session failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": viewSession(s)})
}

// CheckAvailability handles GET /v1/sessions/:id/availability with a
// comma-separated ?seats= list.  An empty list is trivially
// available.  The result is advisory; booking re-checks under the
// session lock.
func (h *CatalogHandler) CheckAvailability(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	seats := make([]string, 0)
	if raw := strings.TrimSpace(c.QueryParam("seats")); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				seats = append(seats, strings.ToUpper(s))
			}
		}
	}
	available, err := h.Svc.CheckAvailability(c.Request().Context(), id, seats)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"session_id": id,
		"seats":      seats,
		"available":  available,
	})
}

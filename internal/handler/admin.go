package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/movieticket/ticket-booking/internal/model"
	"github.com/movieticket/ticket-booking/internal/repository"
)

// AdminHandler groups the back-office operations: managing the movie
// catalog, halls and session schedule, plus order statistics.  All
// routes require the ADMIN role.
type AdminHandler struct {
	Movies   *repository.MovieRepo
	Halls    *repository.HallRepo
	Sessions *repository.SessionRepo
	Orders   *repository.OrderRepo
}

func NewAdminHandler(movies *repository.MovieRepo, halls *repository.HallRepo, sessions *repository.SessionRepo, orders *repository.OrderRepo) *AdminHandler {
	return &AdminHandler{Movies: movies, Halls: halls, Sessions: sessions, Orders: orders}
}

type movieReq struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DurationMin uint32  `json:"duration_min"`
	Genre       string  `json:"genre"`
	IsActive    *bool   `json:"is_active"`
}

// CreateMovie handles POST /v1/admin/movies.
func (h *AdminHandler) CreateMovie(c echo.Context) error {
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Title == "" || req.DurationMin == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and duration_min required"})
	}
	m := model.Movie{
		Title:       req.Title,
		Description: req.Description,
		DurationMin: req.DurationMin,
		Genre:       req.Genre,
		IsActive:    true,
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}
	if err := h.Movies.Create(c.Request().Context(), &m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create movie failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": m.ID})
}

// UpdateMovie handles PUT /v1/admin/movies/:id.
func (h *AdminHandler) UpdateMovie(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Title == "" || req.DurationMin == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and duration_min required"})
	}
	m := model.Movie{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		DurationMin: req.DurationMin,
		Genre:       req.Genre,
		IsActive:    true,
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}
	if err := h.Movies.Update(c.Request().Context(), &m); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update movie failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteMovie handles DELETE /v1/admin/movies/:id.  Deleting a movie
// with scheduled sessions fails on the foreign key and surfaces as a
// conflict.
func (h *AdminHandler) DeleteMovie(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	if err := h.Movies.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusConflict, echo.Map{"error": "movie has scheduled sessions"})
	}
	return c.NoContent(http.StatusNoContent)
}

type hallReq struct {
	Name     string `json:"name"`
	SeatRows uint32 `json:"seat_rows"`
	SeatCols uint32 `json:"seat_cols"`
}

// CreateHall handles POST /v1/admin/halls.  The seat grid is capped
// at 26 rows so every row fits one label letter.
func (h *AdminHandler) CreateHall(c echo.Context) error {
	var req hallReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" || req.SeatRows == 0 || req.SeatCols == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, seat_rows and seat_cols required"})
	}
	if req.SeatRows > 26 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_rows must be at most 26"})
	}
	hall := model.Hall{
		Name:     req.Name,
		SeatRows: req.SeatRows,
		SeatCols: req.SeatCols,
		IsActive: true,
	}
	if err := h.Halls.Create(c.Request().Context(), &hall); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create hall failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":       hall.ID,
		"capacity": hall.Capacity(),
	})
}

// ListHalls handles GET /v1/admin/halls.
func (h *AdminHandler) ListHalls(c echo.Context) error {
	halls, err := h.Halls.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load halls failed"})
	}
	type hallView struct {
		ID       uint64 `json:"id"`
		Name     string `json:"name"`
		SeatRows uint32 `json:"seat_rows"`
		SeatCols uint32 `json:"seat_cols"`
		Capacity uint32 `json:"capacity"`
		IsActive bool   `json:"is_active"`
	}
	items := make([]hallView, 0, len(halls))
	for _, hall := range halls {
		items = append(items, hallView{
			ID:       hall.ID,
			Name:     hall.Name,
			SeatRows: hall.SeatRows,
			SeatCols: hall.SeatCols,
			Capacity: hall.Capacity(),
			IsActive: hall.IsActive,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type sessionReq struct {
	MovieID    uint64    `json:"movie_id"`
	HallID     uint64    `json:"hall_id"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	PriceCents uint32    `json:"price_cents"`
}

// CreateSession handles POST /v1/admin/sessions.  Capacity is
// snapshotted from the hall's grid at scheduling time; later hall
// changes never affect existing sessions.
func (h *AdminHandler) CreateSession(c echo.Context) error {
	var req sessionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.MovieID == 0 || req.HallID == 0 || req.PriceCents == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie_id, hall_id and price_cents required"})
	}
	if !req.EndsAt.After(req.StartsAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
	}

	ctx := c.Request().Context()
	if _, err := h.Movies.GetByID(ctx, req.MovieID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load movie failed"})
	}
	hall, err := h.Halls.GetByID(ctx, req.HallID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hall not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load hall failed"})
	}
	if !hall.IsActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "hall inactive"})
	}

	s := model.Session{
		MovieID:    req.MovieID,
		HallID:     req.HallID,
		StartsAt:   req.StartsAt.UTC(),
		EndsAt:     req.EndsAt.UTC(),
		PriceCents: req.PriceCents,
		Capacity:   hall.Capacity(),
	}
	if err := h.Sessions.Create(ctx, &s); err != nil {
		if errors.Is(err, repository.ErrHallConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "hall already booked for this time range"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create session failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":       s.ID,
		"capacity": s.Capacity,
	})
}

// SetSessionActive handles PUT /v1/admin/sessions/:id/active with an
// {"active": bool} body.  Deactivating stops new reservations but
// leaves existing orders to their own lifecycle.
func (h *AdminHandler) SetSessionActive(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	var req struct {
		Active *bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil || req.Active == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "active required"})
	}
	if err := h.Sessions.SetActive(c.Request().Context(), id, *req.Active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update session failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// OrderStats handles GET /v1/admin/stats/orders: per-status counts
// plus paid revenue.
func (h *AdminHandler) OrderStats(c echo.Context) error {
	ctx := c.Request().Context()
	counts := make(map[string]uint64, 4)
	for _, st := range []model.OrderStatus{model.OrderPending, model.OrderPaid, model.OrderCancelled, model.OrderRefunded} {
		n, err := h.Orders.CountByStatus(ctx, st)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load stats failed"})
		}
		counts[string(st)] = n
	}
	revenue, err := h.Orders.PaidRevenueCents(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load stats failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"counts":        counts,
		"revenue_cents": revenue,
	})
}

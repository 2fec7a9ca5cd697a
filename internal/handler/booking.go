package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/movieticket/ticket-booking/internal/booking"
	"github.com/movieticket/ticket-booking/internal/middleware"
	"github.com/movieticket/ticket-booking/internal/model"
	"github.com/movieticket/ticket-booking/internal/queue"
	"github.com/movieticket/ticket-booking/internal/repository"
	queue_publisher "github.com/movieticket/ticket-booking/internal/service"
)

// BookingHandler exposes the order lifecycle to customers: reserving
// seats, paying, cancelling, refunding and reading order history.
// All state changes go through the booking service; this layer only
// binds requests, enforces ownership and translates errors.
type BookingHandler struct {
	Svc      *booking.Service
	Orders   *repository.OrderRepo
	Sessions *repository.SessionRepo
	Movies   *repository.MovieRepo
	Halls    *repository.HallRepo

	// PublishPaid is called after a successful payment.  Overridable
	// in tests; defaults to the RabbitMQ publisher.
	PublishPaid func(ctx context.Context, ev queue.OrderPaidEvent) error
}

func NewBookingHandler(svc *booking.Service, orders *repository.OrderRepo, sessions *repository.SessionRepo, movies *repository.MovieRepo, halls *repository.HallRepo) *BookingHandler {
	return &BookingHandler{
		Svc:         svc,
		Orders:      orders,
		Sessions:    sessions,
		Movies:      movies,
		Halls:       halls,
		PublishPaid: queue_publisher.PublishOrderPaid,
	}
}

type createOrderReq struct {
	SessionID uint64   `json:"session_id"`
	Seats     []string `json:"seats"`
}

type orderView struct {
	ID         uint64     `json:"id"`
	OrderNo    string     `json:"order_no"`
	SessionID  uint64     `json:"session_id"`
	Seats      []string   `json:"seats"`
	SeatCount  uint32     `json:"seat_count"`
	TotalCents uint64     `json:"total_cents"`
	Status     string     `json:"status"`
	PayTime    *time.Time `json:"pay_time,omitempty"`
	CancelTime *time.Time `json:"cancel_time,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func viewOrder(o *model.Order) orderView {
	return orderView{
		ID:         o.ID,
		OrderNo:    o.OrderNo,
		SessionID:  o.SessionID,
		Seats:      o.Seats,
		SeatCount:  o.SeatCount,
		TotalCents: o.TotalCents,
		Status:     string(o.Status),
		PayTime:    o.PayTime,
		CancelTime: o.CancelTime,
		CreatedAt:  o.CreatedAt,
	}
}

// bookingError translates booking sentinels into an HTTP response.
// Unrecognized errors become 500s.
func bookingError(c echo.Context, err error) error {
	var conflict *booking.SeatConflictError
	switch {
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "seats already taken",
			"seats": conflict.Seats,
		})
	case errors.Is(err, booking.ErrInvalidSeats):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrTooManySeats):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrSessionNotFound), errors.Is(err, booking.ErrOrderNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrUserNotFound):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	case errors.Is(err, booking.ErrSessionInactive):
		return c.JSON(http.StatusConflict, echo.Map{"error": "session not open for booking"})
	case errors.Is(err, booking.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrInventoryExhausted):
		return c.JSON(http.StatusConflict, echo.Map{"error": "session sold out"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// CreateOrder handles POST /v1/orders.  It reserves the requested
// seats and returns the new PENDING order.
func (h *BookingHandler) CreateOrder(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.SessionID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_id required"})
	}

	order, err := h.Svc.CreateReservation(c.Request().Context(), userID, req.SessionID, req.Seats)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"order": viewOrder(order)})
}

// ownOrder loads an order and verifies it belongs to the caller.
func (h *BookingHandler) ownOrder(c echo.Context) (*model.Order, error) {
	userID := middleware.UserID(c)
	if userID == 0 {
		return nil, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		return nil, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	o, err := h.Orders.GetByIDForUser(c.Request().Context(), orderID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrForbidden) {
			return nil, c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return nil, c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}
	return o, nil
}

// PayOrder handles POST /v1/orders/:id/pay.  On success an
// order.paid event is published; publish failures are logged, never
// surfaced to the client.
func (h *BookingHandler) PayOrder(c echo.Context) error {
	o, err := h.ownOrder(c)
	if o == nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.Svc.PayOrder(ctx, o.ID); err != nil {
		return bookingError(c, err)
	}

	paid, err := h.Orders.GetByIDForUser(ctx, o.ID, o.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reload order failed"})
	}
	h.publishPaid(ctx, paid)
	return c.JSON(http.StatusOK, echo.Map{"order": viewOrder(paid)})
}

// publishPaid enriches and emits the order.paid event.  Lookup
// failures degrade to an event without display names.
func (h *BookingHandler) publishPaid(ctx context.Context, o *model.Order) {
	ev := queue.OrderPaidEvent{
		OrderID:    o.ID,
		OrderNo:    o.OrderNo,
		UserID:     o.UserID,
		SessionID:  o.SessionID,
		Seats:      o.Seats,
		TotalCents: o.TotalCents,
	}
	if o.PayTime != nil {
		ev.PaidAt = o.PayTime.UTC().Format(time.RFC3339)
	}
	if sess, err := h.Sessions.GetByID(ctx, o.SessionID); err == nil {
		ev.StartsAt = sess.StartsAt.UTC().Format(time.RFC3339)
		if m, err := h.Movies.GetByID(ctx, sess.MovieID); err == nil {
			ev.MovieTitle = m.Title
		}
		if hall, err := h.Halls.GetByID(ctx, sess.HallID); err == nil {
			ev.HallName = hall.Name
		}
	}
	if err := h.PublishPaid(ctx, ev); err != nil {
		log.Printf("order %d: publish paid event: %v", o.ID, err)
	}
}

// CancelOrder handles POST /v1/orders/:id/cancel.
func (h *BookingHandler) CancelOrder(c echo.Context) error {
	o, err := h.ownOrder(c)
	if o == nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.Svc.CancelOrder(ctx, o.ID); err != nil {
		return bookingError(c, err)
	}
	cancelled, err := h.Orders.GetByIDForUser(ctx, o.ID, o.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reload order failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"order": viewOrder(cancelled)})
}

// RefundOrder handles POST /v1/orders/:id/refund.
func (h *BookingHandler) RefundOrder(c echo.Context) error {
	o, err := h.ownOrder(c)
	if o == nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.Svc.RefundOrder(ctx, o.ID); err != nil {
		return bookingError(c, err)
	}
	refunded, err := h.Orders.GetByIDForUser(ctx, o.ID, o.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reload order failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"order": viewOrder(refunded)})
}

// GetOrder handles GET /v1/orders/:id.
func (h *BookingHandler) GetOrder(c echo.Context) error {
	o, err := h.ownOrder(c)
	if o == nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"order": viewOrder(o)})
}

// ListMyOrders handles GET /v1/my-orders, newest first.
func (h *BookingHandler) ListMyOrders(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orders, err := h.Orders.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load orders failed"})
	}
	items := make([]orderView, 0, len(orders))
	for _, o := range orders {
		items = append(items, viewOrder(o))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

package router

import (
	"github.com/labstack/echo/v4"

	"github.com/movieticket/ticket-booking/internal/handler"
	"github.com/movieticket/ticket-booking/internal/middleware"
)

// RegisterBooking registers the customer order endpoints.  All of
// them require a CUSTOMER access token.  limiter is the token-bucket
// rate limiter; pass nil to run unlimited.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("CUSTOMER", "ADMIN"))
	if limiter != nil {
		g.Use(limiter)
	}

	g.POST("/orders", b.CreateOrder)
	g.GET("/orders/:id", b.GetOrder)
	g.POST("/orders/:id/pay", b.PayOrder)
	g.POST("/orders/:id/cancel", b.CancelOrder)
	g.POST("/orders/:id/refund", b.RefundOrder)
	g.GET("/my-orders", b.ListMyOrders)
}

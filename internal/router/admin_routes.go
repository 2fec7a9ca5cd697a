package router

import (
	"github.com/labstack/echo/v4"

	"github.com/movieticket/ticket-booking/internal/handler"
	"github.com/movieticket/ticket-booking/internal/middleware"
)

// RegisterAdmin registers the back-office endpoints under
// /v1/admin.  Every route requires the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN"))

	g.POST("/movies", a.CreateMovie)
	g.PUT("/movies/:id", a.UpdateMovie)
	g.DELETE("/movies/:id", a.DeleteMovie)

	g.POST("/halls", a.CreateHall)
	g.GET("/halls", a.ListHalls)

	g.POST("/sessions", a.CreateSession)
	g.PUT("/sessions/:id/active", a.SetSessionActive)

	g.GET("/stats/orders", a.OrderStats)
}

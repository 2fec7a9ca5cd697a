package router

import (
	"github.com/labstack/echo/v4"

	"github.com/movieticket/ticket-booking/internal/handler"
)

// RegisterPublic registers the unauthenticated browse endpoints.
// cache is the response-cache middleware; pass nil to serve uncached.
func RegisterPublic(e *echo.Echo, p *handler.CatalogHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1")
	if cache != nil {
		g.Use(cache)
	}
	g.GET("/movies", p.ListMovies)
	g.GET("/movies/:id", p.GetMovie)
	g.GET("/movies/:id/sessions", p.ListMovieSessions)
	g.GET("/sessions/:id", p.GetSession)
	// advisory availability probe; booking re-checks under the session lock
	g.GET("/sessions/:id/availability", p.CheckAvailability)
}

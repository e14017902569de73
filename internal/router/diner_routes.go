package router

import (
	"github.com/labstack/echo/v4"

	"github.com/dinebook/restaurant-reservation/internal/handler"
	"github.com/dinebook/restaurant-reservation/internal/middleware"
)

// RegisterDiner registers diner-scoped endpoints under /v1. All routes
// require a valid JWT with the DINER role. Diners can place bookings,
// list their own bookings and cancel one of their own.
func RegisterDiner(e *echo.Echo, h *handler.DinerBookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("DINER"),
	)
	g.POST("/bookings/book", h.Create)
	g.GET("/bookings/all", h.ListOwn)
	// Cancel is the diner's delete; the record stays, cancelled.
	g.DELETE("/bookings/:id", h.Cancel)
}

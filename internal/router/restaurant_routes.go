package router

import (
	"github.com/labstack/echo/v4"

	"github.com/dinebook/restaurant-reservation/internal/handler"
	"github.com/dinebook/restaurant-reservation/internal/middleware"
)

// RegisterRestaurant registers staff-scoped endpoints under /v1. All
// routes require a valid JWT with the RESTAURANT role. Staff manage the
// booking lifecycle, table inventory and the venue's info-hub profile.
func RegisterRestaurant(
	e *echo.Echo,
	b *handler.RestaurantBookingHandler,
	t *handler.TableHandler,
	p *handler.ProfileHandler,
	jwtSecret string,
) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("RESTAURANT"),
	)

	// Booking lifecycle. Reading the pending list also runs the expiry
	// sweep over that restaurant's stale pending bookings.
	g.GET("/bookings/pending", b.ListPending)
	g.GET("/bookings/confirmed", b.ListConfirmed)
	g.PUT("/bookings/confirm/:id", b.Confirm)
	g.PUT("/bookings/cancel/:id", b.Cancel)
	g.PUT("/bookings/arrival/:id", b.UpdateArrival)

	// Table inventory.
	g.POST("/tables", t.Create)
	g.GET("/tables", t.List)
	g.PUT("/tables/:id", t.Update)
	g.PUT("/tables/toggle/:id", t.Toggle)
	g.DELETE("/tables/:id", t.Delete)

	// Info hub.
	g.GET("/restaurants/me", p.Me)
	g.PUT("/restaurants/me", p.Update)
	g.POST("/restaurants/me/images", p.AddImage)
	g.DELETE("/restaurants/me/images/:id", p.DeleteImage)
}

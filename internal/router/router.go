// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/dinebook/restaurant-reservation/internal/handler"
	"github.com/dinebook/restaurant-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently that is only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints. Register, login,
// refresh and logout live under /v1/auth and need no session; /v1/me
// requires a valid access token of either role.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token and returns a new pair.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("DINER", "RESTAURANT"))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse endpoints. The
// supplied middleware (Redis response cache, rate limiter) wraps only
// this group; authenticated routes are never cached.
func RegisterPublic(e *echo.Echo, b *handler.BrowseHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mw...)
	g.GET("/restaurants/browse/all", b.ListRestaurants)
	g.GET("/restaurants/browse/:id", b.GetRestaurant)
}

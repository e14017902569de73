package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dinebook/restaurant-reservation/internal/config"
	"github.com/dinebook/restaurant-reservation/internal/model"
	"github.com/dinebook/restaurant-reservation/internal/repository"
	"github.com/dinebook/restaurant-reservation/internal/utils"
)

// AuthHandler bundles the repositories and configuration needed by the
// authentication endpoints.
type AuthHandler struct {
	Users       *repository.UserRepo
	Tokens      *repository.TokenRepo
	Restaurants *repository.RestaurantRepo
	Cfg         *config.Config
}

func NewAuthHandler(u *repository.UserRepo, t *repository.TokenRepo, r *repository.RestaurantRepo, cfg *config.Config) *AuthHandler {
	return &AuthHandler{Users: u, Tokens: t, Restaurants: r, Cfg: cfg}
}

// Register creates a new account. Role must be DINER or RESTAURANT;
// restaurant accounts also get an empty profile row created so the
// info hub is editable immediately after signup.
func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Email          string `json:"email" validate:"required,email"`
		Password       string `json:"password" validate:"required,min=8"`
		Role           string `json:"role" validate:"required"`
		RestaurantName string `json:"restaurantName"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation failed", "error": err.Error()})
	}

	req.Role = strings.ToUpper(strings.TrimSpace(req.Role))
	if req.Role != model.RoleDiner && req.Role != model.RoleRestaurant {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "role must be DINER or RESTAURANT"})
	}
	if req.Role == model.RoleRestaurant && strings.TrimSpace(req.RestaurantName) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "restaurantName is required for restaurant accounts"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Users.Create(ctx, strings.ToLower(strings.TrimSpace(req.Email)), req.Password, req.Role, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"message": "email already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to create account"})
	}

	if req.Role == model.RoleRestaurant {
		if _, err := h.Restaurants.CreateForUser(ctx, id, strings.TrimSpace(req.RestaurantName)); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to create restaurant profile"})
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "account created",
		"userId":  id,
		"role":    req.Role,
	})
}

// Login verifies credentials and issues an access/refresh token pair.
// Unknown email and wrong password return the same message.
func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation failed", "error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "login failed"})
	}
	if !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "account disabled"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid credentials"})
	}

	return h.issueTokens(c, ctx, u.ID, u.Role)
}

// Refresh rotates a refresh token: the presented token is revoked and a
// brand-new access/refresh pair is issued. A reused (already revoked)
// token is rejected.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation failed", "error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hash := utils.HashRefreshRaw(req.RefreshToken)
	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "refresh failed"})
	}

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "refresh failed"})
	}

	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "refresh failed"})
	}

	return h.issueTokens(c, ctx, u.ID, u.Role)
}

// RefreshAccess issues a fresh access token from a valid refresh token
// without rotating it. Clients use this for routine access token
// renewal; Refresh is for full rotation.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation failed", "error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, utils.HashRefreshRaw(req.RefreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "refresh failed"})
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "refresh failed"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to issue token"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":     "ok",
		"accessToken": access.Token,
		"expiresAt":   access.Exp,
	})
}

// Logout revokes the presented refresh token. Revoking an already
// revoked or unknown token still returns success.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation failed", "error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(req.RefreshToken)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "logout failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me returns the authenticated account. Requires a valid access token.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load account"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":        u.ID,
		"email":     u.Email,
		"role":      u.Role,
		"isActive":  u.IsActive,
		"createdAt": u.CreatedAt,
	})
}

func (h *AuthHandler) issueTokens(c echo.Context, ctx context.Context, userID uint64, role string) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to issue tokens"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to issue tokens"})
	}
	if err := h.Tokens.StoreRefresh(ctx, userID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to issue tokens"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":      "ok",
		"accessToken":  access.Token,
		"expiresAt":    access.Exp,
		"refreshToken": refresh.Raw,
		"role":         role,
	})
}

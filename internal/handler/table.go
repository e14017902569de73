package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dinebook/restaurant-reservation/internal/model"
	"github.com/dinebook/restaurant-reservation/internal/repository"
)

// TableHandler serves table inventory management for restaurant staff.
type TableHandler struct {
	Tables      *repository.TableRepo
	Restaurants *repository.RestaurantRepo
}

func NewTableHandler(t *repository.TableRepo, r *repository.RestaurantRepo) *TableHandler {
	return &TableHandler{Tables: t, Restaurants: r}
}

type tableResponse struct {
	ID           uint64    `json:"id"`
	RestaurantID uint64    `json:"restaurantId"`
	Floor        string    `json:"floor"`
	TableNumber  uint32    `json:"tableNumber"`
	Capacity     uint32    `json:"capacity"`
	Available    bool      `json:"available"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toTableResponse(t *model.Table) tableResponse {
	return tableResponse{
		ID:           t.ID,
		RestaurantID: t.RestaurantID,
		Floor:        t.Floor,
		TableNumber:  t.TableNumber,
		Capacity:     t.Capacity,
		Available:    t.Available,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func (h *TableHandler) restaurantFromContext(c echo.Context, ctx context.Context) (*model.Restaurant, error) {
	userID, err := getUserID(c)
	if err != nil {
		return nil, err
	}
	return h.Restaurants.GetByUserID(ctx, userID)
}

// Create adds a table to the restaurant's inventory. New tables start
// available unless the request says otherwise. A duplicate floor and
// table number position is a conflict.
func (h *TableHandler) Create(c echo.Context) error {
	var req struct {
		Floor       string `json:"floor" validate:"required"`
		TableNumber uint32 `json:"tableNumber" validate:"required,gt=0"`
		Capacity    uint32 `json:"capacity" validate:"required,gt=0"`
		Available   *bool  `json:"available"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation failed", "error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rest, err := h.restaurantFromContext(c, ctx)
	if err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "restaurant profile not found"})
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}
	t := model.Table{
		RestaurantID: rest.ID,
		Floor:        strings.TrimSpace(req.Floor),
		TableNumber:  req.TableNumber,
		Capacity:     req.Capacity,
		Available:    available,
	}
	if err := h.Tables.Create(ctx, &t); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"message": "a table with this floor and number already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to create table"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "table created",
		"table":   toTableResponse(&t),
	})
}

// List returns the restaurant's tables ordered by floor then number.
func (h *TableHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rest, err := h.restaurantFromContext(c, ctx)
	if err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "restaurant profile not found"})
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	tables, err := h.Tables.ListByRestaurant(ctx, rest.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load tables"})
	}

	out := make([]tableResponse, 0, len(tables))
	for i := range tables {
		out = append(out, toTableResponse(&tables[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"tables": out})
}

// Update edits a table's floor, number or capacity. Fields omitted from
// the body are left unchanged; availability is not editable here.
func (h *TableHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid table id"})
	}

	var req struct {
		Floor       *string `json:"floor"`
		TableNumber *uint32 `json:"tableNumber"`
		Capacity    *uint32 `json:"capacity"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if req.TableNumber != nil && *req.TableNumber == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "tableNumber must be positive"})
	}
	if req.Capacity != nil && *req.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "capacity must be positive"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rest, err := h.restaurantFromContext(c, ctx)
	if err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "restaurant profile not found"})
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	t, err := h.Tables.UpdateByIDAndRestaurant(ctx, id, rest.ID, repository.TableUpdate{
		Floor:       req.Floor,
		TableNumber: req.TableNumber,
		Capacity:    req.Capacity,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTableNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "table not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"message": "a table with this floor and number already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to update table"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "table updated",
		"table":   toTableResponse(t),
	})
}

// Toggle flips a table's manual availability flag. Availability is
// floor state only; bookings never read or write it.
func (h *TableHandler) Toggle(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid table id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rest, err := h.restaurantFromContext(c, ctx)
	if err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "restaurant profile not found"})
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	cur, err := h.Tables.GetByIDAndRestaurant(ctx, id, rest.ID)
	if err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load table"})
	}

	t, err := h.Tables.SetAvailability(ctx, id, rest.ID, !cur.Available)
	if err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to update table"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "table availability updated",
		"table":   toTableResponse(t),
	})
}

// Delete removes a table from the inventory.
func (h *TableHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid table id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rest, err := h.restaurantFromContext(c, ctx)
	if err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "restaurant profile not found"})
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	if err := h.Tables.DeleteByIDAndRestaurant(ctx, id, rest.ID); err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to delete table"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "table deleted"})
}

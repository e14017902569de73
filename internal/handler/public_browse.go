package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dinebook/restaurant-reservation/internal/repository"
)

// BrowseHandler serves the public, unauthenticated discovery endpoints.
// Responses here are cacheable; the router wraps them with the Redis
// response cache and rate limiter.
type BrowseHandler struct {
	Restaurants *repository.RestaurantRepo
	Tables      *repository.TableRepo
}

func NewBrowseHandler(r *repository.RestaurantRepo, t *repository.TableRepo) *BrowseHandler {
	return &BrowseHandler{Restaurants: r, Tables: t}
}

// ListRestaurants returns every restaurant profile, optionally filtered
// by ?city= and ?state=.
func (h *BrowseHandler) ListRestaurants(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Restaurants.ListAll(ctx, c.QueryParam("city"), c.QueryParam("state"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load restaurants"})
	}

	out := make([]restaurantResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toRestaurantResponse(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"restaurants": out})
}

// GetRestaurant returns one restaurant's full public page: profile,
// images and table inventory (including each table's availability).
func (h *BrowseHandler) GetRestaurant(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid restaurant id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rest, err := h.Restaurants.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load restaurant"})
	}

	images, err := h.Restaurants.ListImages(ctx, rest.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load restaurant"})
	}
	tables, err := h.Tables.ListByRestaurant(ctx, rest.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load restaurant"})
	}

	imgs := make([]imageResponse, 0, len(images))
	for _, img := range images {
		imgs = append(imgs, toImageResponse(img))
	}
	tbls := make([]tableResponse, 0, len(tables))
	for i := range tables {
		tbls = append(tbls, toTableResponse(&tables[i]))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"restaurant": toRestaurantResponse(rest),
		"images":     imgs,
		"tables":     tbls,
	})
}

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

// ProfileHandler serves the restaurant info hub: the venue's own
// profile and its image references.
type ProfileHandler struct {
	Restaurants *repository.RestaurantRepo
}

func NewProfileHandler(r *repository.RestaurantRepo) *ProfileHandler {
	return &ProfileHandler{Restaurants: r}
}

type restaurantResponse struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	AboutUs      *string   `json:"aboutUs,omitempty"`
	OpeningHours *string   `json:"openingHours,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	Address      *string   `json:"address,omitempty"`
	City         *string   `json:"city,omitempty"`
	State        *string   `json:"state,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toRestaurantResponse(r *model.Restaurant) restaurantResponse {
	return restaurantResponse{
		ID:           r.ID,
		Name:         r.Name,
		AboutUs:      r.AboutUs,
		OpeningHours: r.OpeningHours,
		Phone:        r.Phone,
		Address:      r.Address,
		City:         r.City,
		State:        r.State,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type imageResponse struct {
	ID        uint64    `json:"id"`
	Kind      string    `json:"kind"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

func toImageResponse(img model.RestaurantImage) imageResponse {
	return imageResponse{ID: img.ID, Kind: img.Kind, URL: img.URL, CreatedAt: img.CreatedAt}
}

// Me returns the caller's own restaurant profile with its images.
func (h *ProfileHandler) Me(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rest, err := h.Restaurants.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "restaurant profile not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load profile"})
	}

	images, err := h.Restaurants.ListImages(ctx, rest.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load profile"})
	}
	imgs := make([]imageResponse, 0, len(images))
	for _, img := range images {
		imgs = append(imgs, toImageResponse(img))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"restaurant": toRestaurantResponse(rest),
		"images":     imgs,
	})
}

// Update edits the caller's profile. Only the allow-listed fields are
// editable; omitted fields stay as they are.
func (h *ProfileHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	var req struct {
		Name         *string `json:"name"`
		AboutUs      *string `json:"aboutUs"`
		OpeningHours *string `json:"openingHours"`
		Phone        *string `json:"phone"`
		Address      *string `json:"address"`
		City         *string `json:"city"`
		State        *string `json:"state"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "name cannot be empty"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.Restaurants.UpdateByUserID(ctx, userID, repository.ProfileUpdate{
		Name:         req.Name,
		AboutUs:      req.AboutUs,
		OpeningHours: req.OpeningHours,
		Phone:        req.Phone,
		Address:      req.Address,
		City:         req.City,
		State:        req.State,
	})
	if err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "restaurant profile not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to update profile"})
	}

	rest, err := h.Restaurants.GetByUserID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load profile"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":    "profile updated",
		"restaurant": toRestaurantResponse(rest),
	})
}

// AddImage stores a logo or gallery image reference for the caller's
// restaurant. Image bytes are hosted elsewhere; only the URL is kept.
func (h *ProfileHandler) AddImage(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	var req struct {
		Kind string `json:"kind" validate:"required,oneof=logo gallery"`
		URL  string `json:"url" validate:"required,url"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation failed", "error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rest, err := h.Restaurants.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "restaurant profile not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to add image"})
	}

	id, err := h.Restaurants.AddImage(ctx, rest.ID, req.Kind, req.URL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to add image"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "image added",
		"imageId": id,
	})
}

// DeleteImage removes one of the caller's image references.
func (h *ProfileHandler) DeleteImage(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	imageID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid image id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rest, err := h.Restaurants.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "restaurant profile not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to delete image"})
	}

	if err := h.Restaurants.DeleteImage(ctx, imageID, rest.ID); err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "image not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to delete image"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "image deleted"})
}

package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/now"
	"github.com/labstack/echo/v4"

	"github.com/dinebook/restaurant-reservation/internal/model"
	q "github.com/dinebook/restaurant-reservation/internal/queue"
	"github.com/dinebook/restaurant-reservation/internal/repository"
	publisher "github.com/dinebook/restaurant-reservation/internal/service"
)

// DinerBookingHandler serves the diner-facing booking endpoints:
// creating a booking, listing own bookings and cancelling one.
type DinerBookingHandler struct {
	Bookings    *repository.BookingRepo
	Restaurants *repository.RestaurantRepo
}

func NewDinerBookingHandler(b *repository.BookingRepo, r *repository.RestaurantRepo) *DinerBookingHandler {
	return &DinerBookingHandler{Bookings: b, Restaurants: r}
}

// Create places a new booking. The booking starts in pending state and
// waits for the restaurant to confirm; table availability is not
// consulted here.
func (h *DinerBookingHandler) Create(c echo.Context) error {
	dinerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	var req struct {
		RestaurantID   uint64 `json:"restaurantId" validate:"required"`
		Name           string `json:"name" validate:"required"`
		Phone          string `json:"phone" validate:"required"`
		Date           string `json:"date" validate:"required"`
		Time           string `json:"time" validate:"required"`
		TotalPeople    uint32 `json:"totalPeople" validate:"required,gt=0"`
		SpecialRequest string `json:"specialRequest"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation failed", "error": err.Error()})
	}

	// Accept the common date spellings clients send (2026-09-01,
	// 01/09/2026, "Sep 1, 2026"); only the date part is kept.
	date, err := now.Parse(req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid date", "error": err.Error()})
	}
	hour, minute, err := model.ParseClock(req.Time)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid time, expected HH:MM"})
	}

	b := model.Booking{
		Reference:    uuid.NewString(),
		DinerID:      dinerID,
		RestaurantID: req.RestaurantID,
		Name:         strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
		Date:         date,
		Time:         fmt.Sprintf("%02d:%02d", hour, minute),
		TotalPeople:  req.TotalPeople,
	}
	if s := strings.TrimSpace(req.SpecialRequest); s != "" {
		b.SpecialRequest = &s
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Bookings.Create(ctx, &b); err != nil {
		log.Printf("booking create failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to create booking"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "booking created",
		"booking": toBookingResponse(&b),
	})
}

// ListOwn returns every booking the diner has made, newest first,
// regardless of status.
func (h *DinerBookingHandler) ListOwn(c echo.Context) error {
	dinerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Bookings.ListByDiner(ctx, dinerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load bookings"})
	}

	out := make([]bookingResponse, 0, len(list))
	for i := range list {
		out = append(out, toBookingResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// Cancel lets a diner cancel one of their own bookings. The lookup is
// owner-scoped, so cancelling someone else's booking reads as not
// found. Cancelling an already-cancelled booking succeeds without
// changing anything.
func (h *DinerBookingHandler) Cancel(c echo.Context) error {
	dinerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, changed, err := h.Bookings.CancelByIDAndDiner(ctx, id, dinerID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to cancel booking"})
	}

	if changed {
		h.publishCancelled(b)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "booking cancelled",
		"booking": toBookingResponse(b),
	})
}

func (h *DinerBookingHandler) publishCancelled(b *model.Booking) {
	name := ""
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if rest, err := h.Restaurants.GetByID(ctx, b.RestaurantID); err == nil {
		name = rest.Name
	}
	reason := ""
	if b.CancellationReason != nil {
		reason = *b.CancellationReason
	}
	ev := q.BookingCancelledEvent{
		BookingID:      b.ID,
		Reference:      b.Reference,
		DinerID:        b.DinerID,
		RestaurantID:   b.RestaurantID,
		RestaurantName: name,
		Source:         b.CancellationSource,
		Reason:         reason,
		CancelledAt:    time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		pctx, pcancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer pcancel()
		_ = publisher.PublishBookingCancelled(pctx, ev)
	}()
}

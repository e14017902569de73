package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dinebook/restaurant-reservation/internal/model"
	q "github.com/dinebook/restaurant-reservation/internal/queue"
	"github.com/dinebook/restaurant-reservation/internal/repository"
	publisher "github.com/dinebook/restaurant-reservation/internal/service"
)

// RestaurantBookingHandler serves the staff-facing booking endpoints:
// pending/confirmed listings, confirm, cancel and arrival tracking.
type RestaurantBookingHandler struct {
	Bookings    *repository.BookingRepo
	Restaurants *repository.RestaurantRepo
}

func NewRestaurantBookingHandler(b *repository.BookingRepo, r *repository.RestaurantRepo) *RestaurantBookingHandler {
	return &RestaurantBookingHandler{Bookings: b, Restaurants: r}
}

// restaurantFromContext resolves the acting user's restaurant profile.
func (h *RestaurantBookingHandler) restaurantFromContext(c echo.Context, ctx context.Context) (*model.Restaurant, error) {
	userID, err := getUserID(c)
	if err != nil {
		return nil, err
	}
	return h.Restaurants.GetByUserID(ctx, userID)
}

// ListPending returns the restaurant's pending bookings ordered by date
// then time. Reading the pending list is also the expiry sweep: any
// pending booking whose scheduled instant has already passed is
// cancelled on the spot (source restaurant, fixed no-tables reason) and
// excluded from the response. Each stale record is cancelled with its
// own read-then-write, so a concurrent confirm can still win.
func (h *RestaurantBookingHandler) ListPending(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	rest, err := h.restaurantFromContext(c, ctx)
	if err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "restaurant profile not found"})
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	list, err := h.Bookings.ListByRestaurantAndStatus(ctx, rest.ID, model.StatusPending)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load bookings"})
	}

	nowAt := time.Now()
	out := make([]bookingResponse, 0, len(list))
	for i := range list {
		b := &list[i]
		if b.Expired(nowAt) {
			cancelled, changed, cerr := h.Bookings.Cancel(ctx, b.ID, model.CancelSourceRestaurant, model.ReasonExpired)
			if cerr != nil {
				// Still pending in the database, so it stays visible.
				log.Printf("pending sweep: cancel booking %d failed: %v", b.ID, cerr)
				out = append(out, toBookingResponse(b))
				continue
			}
			if changed {
				h.publishCancelled(cancelled, rest.Name)
			}
			continue
		}
		out = append(out, toBookingResponse(b))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// ListConfirmed returns the restaurant's confirmed bookings ordered by
// date then time. No sweep runs here.
func (h *RestaurantBookingHandler) ListConfirmed(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rest, err := h.restaurantFromContext(c, ctx)
	if err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "restaurant profile not found"})
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	list, err := h.Bookings.ListByRestaurantAndStatus(ctx, rest.ID, model.StatusConfirmed)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load bookings"})
	}

	out := make([]bookingResponse, 0, len(list))
	for i := range list {
		out = append(out, toBookingResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// Confirm marks a booking confirmed and publishes a confirmation event.
// The current status is not checked first; confirm always writes.
func (h *RestaurantBookingHandler) Confirm(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid booking id"})
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

	if err := h.ownBooking(ctx, id, rest.ID); err != nil {
		return bookingScopeError(c, err)
	}

	b, err := h.Bookings.Confirm(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to confirm booking"})
	}

	ev := q.BookingConfirmedEvent{
		BookingID:      b.ID,
		Reference:      b.Reference,
		DinerID:        b.DinerID,
		RestaurantID:   b.RestaurantID,
		RestaurantName: rest.Name,
		GuestName:      b.Name,
		Date:           b.Date.Format("2006-01-02"),
		Time:           b.Time,
		TotalPeople:    b.TotalPeople,
		ConfirmedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		pctx, pcancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer pcancel()
		_ = publisher.PublishBookingConfirmed(pctx, ev)
	}()

	return c.JSON(http.StatusOK, echo.Map{
		"message": "booking confirmed",
		"booking": toBookingResponse(b),
	})
}

// Cancel is the restaurant-initiated cancel. An optional reason may be
// supplied in the body; otherwise a fixed default is recorded. Repeat
// cancels succeed without changing the stored record or publishing.
func (h *RestaurantBookingHandler) Cancel(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid booking id"})
	}

	var req struct {
		Reason string `json:"reason"`
	}
	// Body is optional for cancels; ignore bind errors on empty bodies.
	_ = c.Bind(&req)
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = model.ReasonRestaurantCancelled
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

	if err := h.ownBooking(ctx, id, rest.ID); err != nil {
		return bookingScopeError(c, err)
	}

	b, changed, err := h.Bookings.Cancel(ctx, id, model.CancelSourceRestaurant, reason)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to cancel booking"})
	}

	if changed {
		h.publishCancelled(b, rest.Name)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "booking cancelled",
		"booking": toBookingResponse(b),
	})
}

// UpdateArrival records the guest's arrival state. Only arriving and
// arrived are accepted; anything else is rejected before any write.
// The booking's status is not checked, matching confirm.
func (h *RestaurantBookingHandler) UpdateArrival(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid booking id"})
	}

	var req struct {
		ArrivalStatus string `json:"arrivalStatus" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation failed", "error": err.Error()})
	}
	arrival := strings.ToLower(strings.TrimSpace(req.ArrivalStatus))
	if !model.ValidArrival(arrival) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "arrivalStatus must be arriving or arrived"})
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

	if err := h.ownBooking(ctx, id, rest.ID); err != nil {
		return bookingScopeError(c, err)
	}

	b, err := h.Bookings.UpdateArrival(ctx, id, arrival)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to update arrival status"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "arrival status updated",
		"booking": toBookingResponse(b),
	})
}

// ownBooking verifies a booking belongs to the acting restaurant. A
// booking of another restaurant reads as not found.
func (h *RestaurantBookingHandler) ownBooking(ctx context.Context, bookingID, restaurantID uint64) error {
	b, err := h.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.RestaurantID != restaurantID {
		return repository.ErrBookingNotFound
	}
	return nil
}

func bookingScopeError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrBookingNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "booking not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load booking"})
}

func (h *RestaurantBookingHandler) publishCancelled(b *model.Booking, restaurantName string) {
	reason := ""
	if b.CancellationReason != nil {
		reason = *b.CancellationReason
	}
	ev := q.BookingCancelledEvent{
		BookingID:      b.ID,
		Reference:      b.Reference,
		DinerID:        b.DinerID,
		RestaurantID:   b.RestaurantID,
		RestaurantName: restaurantName,
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

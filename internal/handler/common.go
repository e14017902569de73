package handler // handler defines http handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/dinebook/restaurant-reservation/internal/model"
)

// validate is the shared request validator. Request DTOs carry
// `validate` struct tags; enum fields (arrival status) are checked
// explicitly in their handlers because their error messages are part
// of the API contract.
var validate = validator.New()

// getUserID extracts the user_id from echo.Context and converts it to
// uint64. JWT numeric claims decode as float64, so several shapes are
// accepted.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// bookingResponse is the JSON shape of a booking returned to both
// diners and restaurants. Field names are part of the client contract.
type bookingResponse struct {
	ID                 uint64    `json:"id"`
	Reference          string    `json:"reference"`
	DinerID            uint64    `json:"dinerId"`
	RestaurantID       uint64    `json:"restaurantId"`
	Name               string    `json:"name"`
	Phone              string    `json:"phone"`
	SpecialRequest     *string   `json:"specialRequest,omitempty"`
	Date               string    `json:"date"`
	Time               string    `json:"time"`
	TotalPeople        uint32    `json:"totalPeople"`
	Status             string    `json:"status"`
	Confirmed          bool      `json:"confirmed"`
	ArrivalStatus      string    `json:"arrivalStatus"`
	CancellationSource string    `json:"cancellationSource"`
	CancellationReason *string   `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func toBookingResponse(b *model.Booking) bookingResponse {
	return bookingResponse{
		ID:                 b.ID,
		Reference:          b.Reference,
		DinerID:            b.DinerID,
		RestaurantID:       b.RestaurantID,
		Name:               b.Name,
		Phone:              b.Phone,
		SpecialRequest:     b.SpecialRequest,
		Date:               b.Date.Format("2006-01-02"),
		Time:               b.Time,
		TotalPeople:        b.TotalPeople,
		Status:             b.Status,
		Confirmed:          b.Confirmed,
		ArrivalStatus:      b.ArrivalStatus,
		CancellationSource: b.CancellationSource,
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

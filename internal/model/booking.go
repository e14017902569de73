package model

import (
	"errors"
	"strings"
	"time"
)

// Booking records a diner's request for a table at a restaurant on a
// given date and wall-clock time.  Bookings are never hard-deleted;
// cancellation is the deletion-equivalent and is terminal.
//
// Fields:
//  ID                 – primary key identifier.
//  Reference          – opaque reference code returned to clients and
//                       carried in published events.
//  DinerID            – diner who placed the booking.
//  RestaurantID       – restaurant being booked.
//  Name               – guest name supplied at booking time.
//  Phone              – guest contact phone.
//  SpecialRequest     – optional free-text request.
//  Date               – reservation date (date part only).
//  Time               – reservation wall-clock time, "HH:MM".
//  TotalPeople        – party size, positive.
//  Status             – pending, confirmed or cancelled.
//  Confirmed          – boolean mirror of Status == confirmed.
//  ArrivalStatus      – "" until set, then arriving or arrived.
//  CancellationSource – none, user or restaurant.
//  CancellationReason – free text set when cancelled.
//  CreatedAt          – creation timestamp.
//  UpdatedAt          – last update timestamp.
type Booking struct {
	ID                 uint64    // bookings.id
	Reference          string    // bookings.reference
	DinerID            uint64    // bookings.diner_id
	RestaurantID       uint64    // bookings.restaurant_id
	Name               string    // bookings.name
	Phone              string    // bookings.phone
	SpecialRequest     *string   // bookings.special_request (nullable)
	Date               time.Time // bookings.date (DATE column)
	Time               string    // bookings.time ("HH:MM")
	TotalPeople        uint32    // bookings.total_people
	Status             string    // bookings.status
	Confirmed          bool      // bookings.confirmed
	ArrivalStatus      string    // bookings.arrival_status ("" when unset)
	CancellationSource string    // bookings.cancellation_source
	CancellationReason *string   // bookings.cancellation_reason (nullable)
	CreatedAt          time.Time // bookings.created_at
	UpdatedAt          time.Time // bookings.updated_at
}

// Booking lifecycle states.  cancelled is terminal: no transition
// leaves it, and repeated cancels are no-ops.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Arrival tracking values.  The empty string means arrival has not
// been recorded yet.
const (
	ArrivalArriving = "arriving"
	ArrivalArrived  = "arrived"
)

// Who cancelled a booking.
const (
	CancelSourceNone       = "none"
	CancelSourceUser       = "user"
	CancelSourceRestaurant = "restaurant"
)

// Fixed cancellation reasons used by the lifecycle paths.  The expired
// reason wording is load-bearing: clients match on it.
const (
	ReasonExpired             = "Restaurant Cancelled - No Tables Available"
	ReasonRestaurantCancelled = "Cancelled by restaurant"
	ReasonUserCancelled       = "Cancelled by user"
)

// ErrBadClock reports a reservation time that is not a valid "HH:MM"
// wall-clock value.
var ErrBadClock = errors.New("invalid reservation time")

// ValidArrival reports whether s is one of the accepted arrival
// values.  The unset state cannot be requested through the API.
func ValidArrival(s string) bool {
	return s == ArrivalArriving || s == ArrivalArrived
}

// ParseClock parses a "HH:MM" (or "HH:MM:SS") wall-clock string and
// returns the hour and minute.  No timezone handling is applied; the
// value is interpreted in the server's location, matching how the
// reservation date is stored.
func ParseClock(clock string) (hour, minute int, err error) {
	s := strings.TrimSpace(clock)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, perr := time.Parse(layout, s); perr == nil {
			return t.Hour(), t.Minute(), nil
		}
	}
	return 0, 0, ErrBadClock
}

// ScheduledAt combines the booking's date with its wall-clock time
// into the single instant used for expiry comparison.
func (b *Booking) ScheduledAt() (time.Time, error) {
	h, m, err := ParseClock(b.Time)
	if err != nil {
		return time.Time{}, err
	}
	d := b.Date
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, time.Local), nil
}

// Expired reports whether the booking's scheduled instant is strictly
// before now.  Bookings with an unparsable time are never considered
// expired so the sweep cannot cancel on bad data.
func (b *Booking) Expired(nowAt time.Time) bool {
	at, err := b.ScheduledAt()
	if err != nil {
		return false
	}
	return at.Before(nowAt)
}

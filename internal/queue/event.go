// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a restaurant confirms a
// booking. It carries enough information for downstream consumers to
// log or notify without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID      uint64 `json:"booking_id"`
	Reference      string `json:"reference"`
	DinerID        uint64 `json:"diner_id"`
	RestaurantID   uint64 `json:"restaurant_id"`
	RestaurantName string `json:"restaurant_name"`
	GuestName      string `json:"guest_name"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	TotalPeople    uint32 `json:"total_people"`
	ConfirmedAt    string `json:"confirmed_at"`
}

// BookingCancelledEvent is published when a booking actually
// transitions to cancelled. Idempotent repeat cancels do not publish.
type BookingCancelledEvent struct {
	BookingID      uint64 `json:"booking_id"`
	Reference      string `json:"reference"`
	DinerID        uint64 `json:"diner_id"`
	RestaurantID   uint64 `json:"restaurant_id"`
	RestaurantName string `json:"restaurant_name"`
	Source         string `json:"source"` // user | restaurant
	Reason         string `json:"reason"`
	CancelledAt    string `json:"cancelled_at"`
}

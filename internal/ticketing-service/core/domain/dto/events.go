package dto

import "time"

const (
	EventSeatLocked   = "seat_locked"
	EventSeatReleased = "seat_released"
	EventSeatSold     = "seat_sold"
)

// SeatEvent is broadcast to viewers of a trip seat map and published
// to the message broker for other services.
type SeatEvent struct {
	Type        string    `json:"type"`
	TripId      string    `json:"tripId"`
	SeatNumber  int       `json:"seatNumber"`
	SessionId   string    `json:"sessionId,omitempty"`
	LockedUntil time.Time `json:"lockedUntil,omitempty"`
}

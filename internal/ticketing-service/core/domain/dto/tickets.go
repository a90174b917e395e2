package dto

import (
	"busline/internal/ticketing-service/core/domain/model"
)

type TicketRequest struct {
	TripId         string `json:"tripId"`
	SeatNumber     int    `json:"seatNumber"`
	PassengerName  string `json:"passengerName"`
	PassengerId    string `json:"passengerId"`
	PassengerEmail string `json:"passengerEmail"`
	BoardingStop   string `json:"boardingStop"`
	DropoffStop    string `json:"dropoffStop"`
	PaymentMethod  string `json:"paymentMethod"`
	// Reserve creates the ticket in RESERVED state (counter sale,
	// payment collected later).
	Reserve bool `json:"reserve"`
	// SessionId ties the request to a previously taken seat hold.
	SessionId string `json:"sessionId"`
}

type HoldRequest struct {
	TripId     string `json:"tripId"`
	SeatNumber int    `json:"seatNumber"`
	SessionId  string `json:"sessionId"`
}

type HoldResponse struct {
	model.SeatHold
}

type FareQuote struct {
	BoardingStop string  `json:"boardingStop"`
	DropoffStop  string  `json:"dropoffStop"`
	SeatType     string  `json:"seatType"`
	BasePrice    float64 `json:"basePrice"`
	SeatPremium  float64 `json:"seatPremium"`
	TotalPrice   float64 `json:"totalPrice"`
}

// SeatState is one seat in the trip seat map.
type SeatState struct {
	model.Seat
	Occupied bool   `json:"occupied"`
	Held     bool   `json:"held"`
	Status   string `json:"status,omitempty"`
}

type TripSeats struct {
	TripId         string      `json:"tripId"`
	Date           string      `json:"date"`
	DepartureTime  string      `json:"departureTime"`
	Origin         string      `json:"origin"`
	Destination    string      `json:"destination"`
	BusPlate       string      `json:"busPlate"`
	TotalSeats     int         `json:"totalSeats"`
	AvailableSeats int         `json:"availableSeats"`
	Seats          []SeatState `json:"seats"`
}

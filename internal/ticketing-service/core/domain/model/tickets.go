package model

import "time"

const (
	SeatNormal  = "NORMAL"
	SeatVIP     = "VIP"
	SeatPremium = "PREMIUM"

	TicketReserved       = "RESERVED"
	TicketPendingPayment = "PENDING_PAYMENT"
	TicketPaid           = "PAID"
	TicketUsed           = "USED"
	TicketCancelled      = "CANCELLED"

	PaymentCash         = "CASH"
	PaymentPaypal       = "PAYPAL"
	PaymentBankTransfer = "BANK_TRANSFER"
)

// ActiveTicketStatuses are the statuses that keep a seat occupied.
var ActiveTicketStatuses = []string{TicketReserved, TicketPaid, TicketUsed}

type Seat struct {
	Number int    `json:"number"`
	Row    int    `json:"row"`
	Column int    `json:"column"`
	Type   string `json:"type"`
}

type SeatLayout struct {
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
	Seats   []Seat `json:"seats"`
}

func (l SeatLayout) Find(number int) (Seat, bool) {
	for _, s := range l.Seats {
		if s.Number == number {
			return s, true
		}
	}
	return Seat{}, false
}

type Stop struct {
	Name            string  `json:"name"`
	Order           int     `json:"order"`
	PriceFromOrigin float64 `json:"price_from_origin"`
}

type Route struct {
	Id          string  `json:"id"`
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	Stops       []Stop  `json:"stops"`
	BasePrice   float64 `json:"base_price"`
}

// TripInfo is the ticketing view of a scheduled trip.
type TripInfo struct {
	Id            string     `json:"id"`
	CooperativaId string     `json:"cooperativa_id"`
	Date          time.Time  `json:"date"`
	DepartureTime string     `json:"departure_time"`
	Status        string     `json:"status"`
	Route         Route      `json:"route"`
	BusPlate      string     `json:"bus_plate"`
	TotalSeats    int        `json:"total_seats"`
	SeatLayout    SeatLayout `json:"seat_layout"`
}

type Ticket struct {
	Id             string    `json:"id"`
	TripId         string    `json:"trip_id"`
	SeatNumber     int       `json:"seat_number"`
	SeatType       string    `json:"seat_type"`
	PassengerName  string    `json:"passenger_name"`
	PassengerId    string    `json:"passenger_id,omitempty"`
	PassengerEmail string    `json:"passenger_email,omitempty"`
	BoardingStop   string    `json:"boarding_stop"`
	DropoffStop    string    `json:"dropoff_stop"`
	BasePrice      float64   `json:"base_price"`
	SeatPremium    float64   `json:"seat_premium"`
	TotalPrice     float64   `json:"total_price"`
	PaymentMethod  string    `json:"payment_method"`
	QrCode         string    `json:"qr_code"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// SeatHold is an advisory, time-boxed claim on a seat. It is never
// authoritative; the ticket insert is.
type SeatHold struct {
	TripId      string    `json:"trip_id"`
	SeatNumber  int       `json:"seat_number"`
	SessionId   string    `json:"session_id"`
	LockedUntil time.Time `json:"locked_until"`
}

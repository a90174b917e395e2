package model

import "time"

const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleCoopAdmin  = "COOP_ADMIN"
	RoleDriver     = "DRIVER"

	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"

	TripScheduled  = "SCHEDULED"
	TripInProgress = "IN_PROGRESS"
	TripCompleted  = "COMPLETED"
	TripCancelled  = "CANCELLED"
)

type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
	Sunday    Weekday = "SUNDAY"
)

// WeekdayOf maps a calendar date to the operating-day enum.
func WeekdayOf(t time.Time) Weekday {
	switch t.Weekday() {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	default:
		return Sunday
	}
}

type Stop struct {
	Name            string  `json:"name"`
	Order           int     `json:"order"`
	PriceFromOrigin float64 `json:"price_from_origin"`
}

type Route struct {
	Id                string  `json:"id"`
	CooperativaId     string  `json:"cooperativa_id"`
	Origin            string  `json:"origin"`
	Destination       string  `json:"destination"`
	Stops             []Stop  `json:"stops"`
	BasePrice         float64 `json:"base_price"`
	EstimatedDuration int     `json:"estimated_duration_minutes"`
	DistanceKm        float64 `json:"distance_km"`
	IsActive          bool    `json:"is_active"`
}

type Frequency struct {
	Id              string    `json:"id"`
	CooperativaId   string    `json:"cooperativa_id"`
	RouteId         string    `json:"route_id"`
	BusGroupId      string    `json:"bus_group_id,omitempty"`
	DepartureTime   string    `json:"departure_time"` // "HH:mm"
	OperatingDays   []Weekday `json:"operating_days"`
	IsActive        bool      `json:"is_active"`
	AntPermitNumber string    `json:"ant_permit_number,omitempty"`
}

type Bus struct {
	Id             string `json:"id"`
	CooperativaId  string `json:"cooperativa_id"`
	Plate          string `json:"plate"`
	InternalNumber string `json:"internal_number"`
	Status         string `json:"status"`
	TotalSeats     int    `json:"total_seats"`
}

type BusGroup struct {
	Id            string `json:"id"`
	CooperativaId string `json:"cooperativa_id"`
	Name          string `json:"name"`
	Buses         []Bus  `json:"buses"`
}

type Driver struct {
	Id            string `json:"id"`
	CooperativaId string `json:"cooperativa_id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	Status        string `json:"status"`
}

type Trip struct {
	Id            string    `json:"id"`
	FrequencyId   string    `json:"frequency_id"`
	BusId         string    `json:"bus_id"`
	Date          time.Time `json:"date"` // midnight, no time component
	DepartureTime string    `json:"departure_time"`
	DriverId      string    `json:"driver_id,omitempty"`
	AssistantId   string    `json:"assistant_id,omitempty"`
	Status        string    `json:"status"`
}

// FrequencyDetail is a frequency joined with its route and the ACTIVE buses
// of its group, ordered by internal number.
type FrequencyDetail struct {
	Frequency
	Route Route `json:"route"`
	Buses []Bus `json:"buses"`
}

// TripDetail is a trip joined with the route of its frequency, enough to
// compute the occupied window without further lookups.
type TripDetail struct {
	Trip
	Route Route `json:"route"`
}

// RouteSheetTrip is the read model of the route-sheet aggregator.
type RouteSheetTrip struct {
	Trip
	Route          Route  `json:"route"`
	DriverName     string `json:"driver_name,omitempty"`
	AssistantName  string `json:"assistant_name,omitempty"`
	PassengerCount int    `json:"passenger_count"`
}

// TripSearchResult is a scheduled trip offered to passengers.
type TripSearchResult struct {
	TripDetail
	TotalSeats int `json:"total_seats"`
	SoldSeats  int `json:"sold_seats"`
}

func (r TripSearchResult) AvailableSeats() int {
	return r.TotalSeats - r.SoldSeats
}

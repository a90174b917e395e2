package dto

import (
	"time"

	"busline/internal/scheduling-service/core/domain/model"
)

// Actor identifies the authenticated caller, extracted by the auth middleware.
type Actor struct {
	UserId        string
	Role          string
	CooperativaId string
}

func (a Actor) CanAccess(cooperativaId string) bool {
	return a.Role == model.RoleSuperAdmin || a.CooperativaId == cooperativaId
}

type GenerateTripsRequest struct {
	StartDate    string   `json:"start_date"` // "2006-01-02"
	EndDate      string   `json:"end_date"`
	FrequencyIds []string `json:"frequency_ids,omitempty"`
}

// GeneratedTrip is a created trip plus how its bus was chosen. A trip with
// ViaFallback set may violate the turnaround buffer and is best-effort only.
type GeneratedTrip struct {
	model.Trip
	Continuity  bool `json:"continuity"`
	ViaFallback bool `json:"via_fallback"`
}

type SkippedSlot struct {
	FrequencyId string    `json:"frequency_id"`
	Date        time.Time `json:"date"`
	Reason      string    `json:"reason"`
}

type GenerateTripsResponse struct {
	Created []GeneratedTrip `json:"created"`
	Skipped []SkippedSlot   `json:"skipped"`
}

// TripDraft is the manual-creation counterpart of a generator slot.
type TripDraft struct {
	FrequencyId   string `json:"frequency_id"`
	BusId         string `json:"bus_id"`
	Date          string `json:"date"` // "2006-01-02"
	DepartureTime string `json:"departure_time,omitempty"`
	DriverId      string `json:"driver_id,omitempty"`
	AssistantId   string `json:"assistant_id,omitempty"`
	Status        string `json:"status,omitempty"`
}

type TripUpdate struct {
	BusId         string `json:"bus_id,omitempty"`
	Date          string `json:"date,omitempty"`
	DepartureTime string `json:"departure_time,omitempty"`
	DriverId      string `json:"driver_id,omitempty"`
	AssistantId   string `json:"assistant_id,omitempty"`
	Status        string `json:"status,omitempty"`
}

type PersonnelAssignment struct {
	DriverId    string `json:"driver_id,omitempty"`
	AssistantId string `json:"assistant_id,omitempty"`
}

type TripSearchRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        string `json:"date"`
}

type RouteSheetEntry struct {
	TripId         string      `json:"trip_id"`
	DepartureTime  string      `json:"departure_time"`
	Status         string      `json:"status"`
	Route          model.Route `json:"route"`
	PassengerCount int         `json:"passengers_count"`
	DriverName     string      `json:"driver_name,omitempty"`
	AssistantName  string      `json:"assistant_name,omitempty"`
}

type RouteSheetBus struct {
	Bus   model.Bus         `json:"bus"`
	Trips []RouteSheetEntry `json:"trips"`
}

type RouteSheetDate struct {
	Date  string          `json:"date"`
	Buses []RouteSheetBus `json:"buses"`
}

type RouteSheet struct {
	GroupId   string           `json:"group_id"`
	GroupName string           `json:"group_name"`
	Dates     []RouteSheetDate `json:"dates"`
}

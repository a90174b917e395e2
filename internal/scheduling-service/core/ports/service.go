package ports

import (
	"busline/internal/scheduling-service/core/domain/dto"
	"busline/internal/scheduling-service/core/domain/model"
)

type IFrequencyService interface {
	CreateFrequency(actor dto.Actor, req dto.FrequencyRequest) (model.Frequency, error)
	UpdateFrequency(actor dto.Actor, id string, req dto.FrequencyUpdate) (model.Frequency, error)
	DeactivateFrequency(actor dto.Actor, id string) error
}

type ITripGenerator interface {
	GenerateTrips(actor dto.Actor, req dto.GenerateTripsRequest) (dto.GenerateTripsResponse, error)
}

type ITripService interface {
	CreateTrip(actor dto.Actor, draft dto.TripDraft) (model.Trip, error)
	UpdateTrip(actor dto.Actor, tripId string, upd dto.TripUpdate) (model.Trip, error)
	UpdateTripStatus(actor dto.Actor, tripId, status string) (model.Trip, error)
	AssignPersonnel(actor dto.Actor, tripId string, req dto.PersonnelAssignment) (model.Trip, error)
	SearchTrips(req dto.TripSearchRequest) ([]model.TripSearchResult, error)
}

type IRouteSheetService interface {
	GetRouteSheet(actor dto.Actor, groupId string, from, to string) (dto.RouteSheet, error)
}

type IStaffService interface {
	CreateDriver(actor dto.Actor, req dto.DriverRequest) (model.Driver, error)
}

package services

import (
	"context"
	"time"

	"busline/internal/mylogger"
	"busline/internal/scheduling-service/core/domain/dto"
	"busline/internal/scheduling-service/core/domain/model"
	"busline/internal/scheduling-service/core/myerrors"
	"busline/internal/scheduling-service/core/ports"
)

// TripService is the manual counterpart of the generator: one caller-supplied
// (frequency, date, bus, driver) tuple, validated against the same overlap
// rules.
type TripService struct {
	ctx        context.Context
	mylog      mylogger.Logger
	turnaround time.Duration

	frequencyRepo ports.IFrequencyRepo
	tripRepo      ports.ITripRepo
	busRepo       ports.IBusRepo
	driverRepo    ports.IDriverRepo
}

func NewTripService(
	ctx context.Context,
	log mylogger.Logger,
	turnaroundMinutes int,
	frequencyRepo ports.IFrequencyRepo,
	tripRepo ports.ITripRepo,
	busRepo ports.IBusRepo,
	driverRepo ports.IDriverRepo,
) ports.ITripService {
	return &TripService{
		ctx:           ctx,
		mylog:         log,
		turnaround:    time.Duration(turnaroundMinutes) * minute,
		frequencyRepo: frequencyRepo,
		tripRepo:      tripRepo,
		busRepo:       busRepo,
		driverRepo:    driverRepo,
	}
}

var validTripStatuses = map[string]bool{
	model.TripScheduled:  true,
	model.TripInProgress: true,
	model.TripCompleted:  true,
	model.TripCancelled:  true,
}

func (ts *TripService) CreateTrip(actor dto.Actor, draft dto.TripDraft) (model.Trip, error) {
	log := ts.mylog.Action("CreateTrip")

	if draft.FrequencyId == "" || draft.BusId == "" || draft.Date == "" {
		return model.Trip{}, &myerrors.ValidationError{Field: "trip", Reason: "frequency_id, bus_id and date are required"}
	}

	date, err := parseDate(draft.Date)
	if err != nil {
		return model.Trip{}, &myerrors.ValidationError{Field: "date", Reason: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ts.ctx, repoTimeout)
	defer cancel()

	frequency, err := ts.frequencyRepo.FindDetail(ctx, draft.FrequencyId)
	if err != nil {
		return model.Trip{}, err
	}
	if !actor.CanAccess(frequency.CooperativaId) {
		return model.Trip{}, myerrors.ErrCrossCooperativa
	}

	departureTime := draft.DepartureTime
	if departureTime == "" {
		departureTime = frequency.DepartureTime
	}
	if !validDepartureTime(departureTime) {
		return model.Trip{}, &myerrors.ValidationError{Field: "departure_time", Reason: "expected HH:mm"}
	}

	if err := ts.validateBus(ctx, draft.BusId, frequency.CooperativaId); err != nil {
		return model.Trip{}, err
	}

	exists, err := ts.tripRepo.Exists(ctx, draft.FrequencyId, date, draft.BusId)
	if err != nil {
		return model.Trip{}, err
	}
	if exists {
		return model.Trip{}, myerrors.ErrDuplicateTrip
	}

	if draft.DriverId != "" {
		if err := ts.validateDriver(ctx, draft.DriverId, frequency.CooperativaId, date,
			departureTime, frequency.Route.EstimatedDuration, draft.BusId, ""); err != nil {
			return model.Trip{}, err
		}
	}

	status := draft.Status
	if status == "" {
		status = model.TripScheduled
	}
	if !validTripStatuses[status] {
		return model.Trip{}, &myerrors.ValidationError{Field: "status", Reason: "unknown status " + status}
	}

	trip := model.Trip{
		FrequencyId:   draft.FrequencyId,
		BusId:         draft.BusId,
		Date:          date,
		DepartureTime: departureTime,
		DriverId:      draft.DriverId,
		AssistantId:   draft.AssistantId,
		Status:        status,
	}

	id, err := ts.tripRepo.Create(ctx, trip)
	if err != nil {
		log.Error("cannot create trip", err)
		return model.Trip{}, err
	}
	trip.Id = id

	log.Info("trip created", "trip_id", id, "frequency_id", trip.FrequencyId, "bus_id", trip.BusId)
	return trip, nil
}

func (ts *TripService) UpdateTrip(actor dto.Actor, tripId string, upd dto.TripUpdate) (model.Trip, error) {
	log := ts.mylog.Action("UpdateTrip")

	ctx, cancel := context.WithTimeout(ts.ctx, repoTimeout)
	defer cancel()

	existing, err := ts.tripRepo.FindById(ctx, tripId)
	if err != nil {
		return model.Trip{}, err
	}

	frequency, err := ts.frequencyRepo.FindDetail(ctx, existing.FrequencyId)
	if err != nil {
		return model.Trip{}, err
	}
	if !actor.CanAccess(frequency.CooperativaId) {
		return model.Trip{}, myerrors.ErrCrossCooperativa
	}

	trip := existing.Trip

	if upd.BusId != "" {
		if err := ts.validateBus(ctx, upd.BusId, frequency.CooperativaId); err != nil {
			return model.Trip{}, err
		}
		trip.BusId = upd.BusId
	}
	if upd.Date != "" {
		date, err := parseDate(upd.Date)
		if err != nil {
			return model.Trip{}, &myerrors.ValidationError{Field: "date", Reason: err.Error()}
		}
		trip.Date = date
	}
	if upd.DepartureTime != "" {
		if !validDepartureTime(upd.DepartureTime) {
			return model.Trip{}, &myerrors.ValidationError{Field: "departure_time", Reason: "expected HH:mm"}
		}
		trip.DepartureTime = upd.DepartureTime
	}

	if trip.BusId != existing.BusId || !trip.Date.Equal(existing.Date) {
		exists, err := ts.tripRepo.Exists(ctx, trip.FrequencyId, trip.Date, trip.BusId)
		if err != nil {
			return model.Trip{}, err
		}
		if exists {
			return model.Trip{}, myerrors.ErrDuplicateTrip
		}
	}

	if upd.DriverId != "" {
		if err := ts.validateDriver(ctx, upd.DriverId, frequency.CooperativaId, trip.Date,
			trip.DepartureTime, frequency.Route.EstimatedDuration, trip.BusId, tripId); err != nil {
			return model.Trip{}, err
		}
		trip.DriverId = upd.DriverId
	}
	if upd.AssistantId != "" {
		trip.AssistantId = upd.AssistantId
	}
	if upd.Status != "" {
		if !validTripStatuses[upd.Status] {
			return model.Trip{}, &myerrors.ValidationError{Field: "status", Reason: "unknown status " + upd.Status}
		}
		trip.Status = upd.Status
	}

	if err := ts.tripRepo.Update(ctx, trip); err != nil {
		log.Error("cannot update trip", err, "trip_id", tripId)
		return model.Trip{}, err
	}
	return trip, nil
}

// UpdateTripStatus moves a trip through its lifecycle. Moving to IN_PROGRESS
// is a hard invariant: the assigned driver may not have another trip already
// in progress, and on rejection the status stays untouched.
func (ts *TripService) UpdateTripStatus(actor dto.Actor, tripId, status string) (model.Trip, error) {
	log := ts.mylog.Action("UpdateTripStatus")

	if !validTripStatuses[status] {
		return model.Trip{}, &myerrors.ValidationError{Field: "status", Reason: "unknown status " + status}
	}

	ctx, cancel := context.WithTimeout(ts.ctx, repoTimeout)
	defer cancel()

	existing, err := ts.tripRepo.FindById(ctx, tripId)
	if err != nil {
		return model.Trip{}, err
	}
	if !actor.CanAccess(existing.Route.CooperativaId) {
		return model.Trip{}, myerrors.ErrCrossCooperativa
	}

	if status == model.TripInProgress && existing.DriverId != "" {
		busy, err := ts.tripRepo.DriverHasInProgress(ctx, existing.DriverId, tripId)
		if err != nil {
			return model.Trip{}, err
		}
		if busy {
			log.Warn("status change rejected, driver busy", "trip_id", tripId, "driver_id", existing.DriverId)
			return model.Trip{}, myerrors.ErrDriverInProgress
		}
	}

	if err := ts.tripRepo.UpdateStatus(ctx, tripId, status); err != nil {
		log.Error("cannot update trip status", err, "trip_id", tripId)
		return model.Trip{}, err
	}

	trip := existing.Trip
	trip.Status = status
	return trip, nil
}

func (ts *TripService) AssignPersonnel(actor dto.Actor, tripId string, req dto.PersonnelAssignment) (model.Trip, error) {
	log := ts.mylog.Action("AssignPersonnel")

	ctx, cancel := context.WithTimeout(ts.ctx, repoTimeout)
	defer cancel()

	existing, err := ts.tripRepo.FindById(ctx, tripId)
	if err != nil {
		return model.Trip{}, err
	}
	if !actor.CanAccess(existing.Route.CooperativaId) {
		return model.Trip{}, myerrors.ErrCrossCooperativa
	}

	if req.DriverId != "" {
		driver, err := ts.driverRepo.FindById(ctx, req.DriverId)
		if err != nil {
			return model.Trip{}, err
		}
		if driver.Role != model.RoleDriver {
			return model.Trip{}, myerrors.ErrNotADriver
		}
		if driver.CooperativaId != existing.Route.CooperativaId {
			return model.Trip{}, myerrors.ErrCrossCooperativa
		}

		if existing.Status == model.TripInProgress {
			busy, err := ts.tripRepo.DriverHasInProgress(ctx, req.DriverId, tripId)
			if err != nil {
				return model.Trip{}, err
			}
			if busy {
				return model.Trip{}, myerrors.ErrDriverInProgress
			}
		}
	}

	if err := ts.tripRepo.UpdatePersonnel(ctx, tripId, req.DriverId, req.AssistantId); err != nil {
		log.Error("cannot assign personnel", err, "trip_id", tripId)
		return model.Trip{}, err
	}

	trip := existing.Trip
	trip.DriverId = req.DriverId
	trip.AssistantId = req.AssistantId
	return trip, nil
}

func (ts *TripService) SearchTrips(req dto.TripSearchRequest) ([]model.TripSearchResult, error) {
	if req.Origin == "" || req.Destination == "" || req.Date == "" {
		return nil, &myerrors.ValidationError{Field: "search", Reason: "origin, destination and date are required"}
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, &myerrors.ValidationError{Field: "date", Reason: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ts.ctx, repoTimeout)
	defer cancel()

	return ts.tripRepo.SearchScheduled(ctx, req.Origin, req.Destination, date)
}

func (ts *TripService) validateBus(ctx context.Context, busId, cooperativaId string) error {
	bus, err := ts.busRepo.FindById(ctx, busId)
	if err != nil {
		return err
	}
	if bus.Status != model.StatusActive {
		return myerrors.ErrBusInactive
	}
	if bus.CooperativaId != cooperativaId {
		return myerrors.ErrCrossCooperativa
	}
	return nil
}

// validateDriver checks role, tenant, no overlapping window that day and
// no second bus that day.
func (ts *TripService) validateDriver(
	ctx context.Context,
	driverId, cooperativaId string,
	date time.Time,
	departureTime string,
	routeDuration int,
	busId, excludeTripId string,
) error {
	driver, err := ts.driverRepo.FindById(ctx, driverId)
	if err != nil {
		return err
	}
	if driver.Role != model.RoleDriver {
		return myerrors.ErrNotADriver
	}
	if driver.CooperativaId != cooperativaId {
		return myerrors.ErrCrossCooperativa
	}

	newStart, newEnd := occupiedWindow(date, departureTime, routeDuration, int(ts.turnaround/minute))

	driverTrips, err := ts.tripRepo.DriverTripsOn(ctx, driverId, date, excludeTripId)
	if err != nil {
		return err
	}
	for _, dt := range driverTrips {
		existingStart, existingEnd := occupiedWindow(dt.Date, dt.DepartureTime,
			dt.Route.EstimatedDuration, int(ts.turnaround/minute))
		if windowsOverlap(newStart, newEnd, existingStart, existingEnd) {
			return myerrors.ErrDriverOverlap
		}
		if dt.BusId != "" && dt.BusId != busId {
			return myerrors.ErrDriverOtherBus
		}
	}
	return nil
}

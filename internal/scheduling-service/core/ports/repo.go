package ports

import (
	"context"
	"time"

	"busline/internal/scheduling-service/core/domain/model"
)

type IDB interface {
	IsAlive() error
	Close() error
}

type IFrequencyRepo interface {
	Create(ctx context.Context, f model.Frequency) (string, error)
	Update(ctx context.Context, f model.Frequency) error
	Deactivate(ctx context.Context, id string) error
	FindById(ctx context.Context, id string) (model.Frequency, error)

	// ActiveByBusGroup returns the other active frequencies of a group,
	// excluding excludeId when non-empty.
	ActiveByBusGroup(ctx context.Context, busGroupId, excludeId string) ([]model.Frequency, error)

	// ForGeneration resolves frequencies with route and ACTIVE group buses
	// ordered by internal number. Empty ids means all active frequencies of
	// the cooperativa (all tenants for an empty cooperativaId).
	ForGeneration(ctx context.Context, ids []string, cooperativaId string) ([]model.FrequencyDetail, error)

	FindDetail(ctx context.Context, id string) (model.FrequencyDetail, error)
}

type ITripRepo interface {
	// CountGroupSlot counts non-cancelled trips of any of the given buses at
	// exactly (date, departureTime).
	CountGroupSlot(ctx context.Context, date time.Time, departureTime string, busIds []string) (int, error)

	// RecentByBus returns the bus's latest trips departing at or before the
	// given instant, newest first, route included.
	RecentByBus(ctx context.Context, busId string, before time.Time, limit int) ([]model.TripDetail, error)

	Exists(ctx context.Context, frequencyId string, date time.Time, busId string) (bool, error)

	// Create inserts the trip and returns its id. A concurrent insert of the
	// same (frequency, date, bus) surfaces as myerrors.ErrDuplicateTrip via
	// the storage unique index.
	Create(ctx context.Context, t model.Trip) (string, error)

	Update(ctx context.Context, t model.Trip) error
	UpdateStatus(ctx context.Context, id, status string) error
	UpdatePersonnel(ctx context.Context, id, driverId, assistantId string) error
	FindById(ctx context.Context, id string) (model.TripDetail, error)

	// DriverTripsOn returns the driver's non-cancelled trips on a date,
	// route included, excluding excludeTripId when non-empty.
	DriverTripsOn(ctx context.Context, driverId string, date time.Time, excludeTripId string) ([]model.TripDetail, error)

	DriverHasInProgress(ctx context.Context, driverId, excludeTripId string) (bool, error)

	SearchScheduled(ctx context.Context, origin, destination string, date time.Time) ([]model.TripSearchResult, error)

	// ForRouteSheet returns non-cancelled trips of the buses in [from, to],
	// ordered by date then departure time, with personnel names and counts
	// of PAID/RESERVED tickets.
	ForRouteSheet(ctx context.Context, busIds []string, from, to time.Time) ([]model.RouteSheetTrip, error)
}

type IBusRepo interface {
	FindById(ctx context.Context, id string) (model.Bus, error)
	GroupWithBuses(ctx context.Context, groupId string) (model.BusGroup, error)
}

type IDriverRepo interface {
	FindById(ctx context.Context, id string) (model.Driver, error)
	ActiveByCooperativa(ctx context.Context, cooperativaId string) ([]model.Driver, error)
	Create(ctx context.Context, d model.Driver, passwordHash []byte) (string, error)
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busline/internal/metrics"
	"busline/internal/scheduling-service/core/domain/dto"
	"busline/internal/scheduling-service/core/domain/model"
	"busline/internal/scheduling-service/core/ports"
)

const testTurnaround = 30

var coopAdmin = dto.Actor{UserId: "u1", Role: model.RoleCoopAdmin, CooperativaId: "coop-1"}

// monday is 2026-01-05.
var monday = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

func testRoute(origin, destination string) model.Route {
	return model.Route{
		Id:                "route-" + origin,
		CooperativaId:     "coop-1",
		Origin:            origin,
		Destination:       destination,
		BasePrice:         7.5,
		EstimatedDuration: 60,
		IsActive:          true,
	}
}

func testFrequency(id, departure string, days []model.Weekday, buses ...model.Bus) model.FrequencyDetail {
	return model.FrequencyDetail{
		Frequency: model.Frequency{
			Id:            id,
			CooperativaId: "coop-1",
			RouteId:       "route-Quito",
			BusGroupId:    "group-" + id,
			DepartureTime: departure,
			OperatingDays: days,
			IsActive:      true,
		},
		Route: testRoute("Quito", "Guayaquil"),
		Buses: buses,
	}
}

func testBus(id string) model.Bus {
	return model.Bus{Id: id, CooperativaId: "coop-1", Plate: "ABC-" + id, InternalNumber: id, Status: model.StatusActive, TotalSeats: 40}
}

func testDriver(id string) model.Driver {
	return model.Driver{Id: id, CooperativaId: "coop-1", Role: model.RoleDriver, Status: model.StatusActive}
}

type generatorFixture struct {
	frequencyRepo *fakeFrequencyRepo
	tripRepo      *fakeTripRepo
	driverRepo    *fakeDriverRepo
	generator     ports.ITripGenerator
}

func newGeneratorFixture(t *testing.T) *generatorFixture {
	f := &generatorFixture{
		frequencyRepo: newFakeFrequencyRepo(),
		tripRepo:      newFakeTripRepo(),
		driverRepo:    newFakeDriverRepo(),
	}
	f.generator = NewTripGenerator(context.Background(), testLogger(t), metrics.NewCollector(),
		testTurnaround, f.frequencyRepo, f.tripRepo, f.driverRepo)
	return f
}

func TestGenerateTripsPerOperatingDay(t *testing.T) {
	f := newGeneratorFixture(t)
	freq := testFrequency("f1", "08:00", []model.Weekday{model.Monday, model.Wednesday}, testBus("b1"))
	f.frequencyRepo.addDetail(freq)
	f.tripRepo.routeByFrequency["f1"] = freq.Route
	f.driverRepo.drivers["d1"] = testDriver("d1")

	res, err := f.generator.GenerateTrips(coopAdmin, dto.GenerateTripsRequest{
		StartDate: "2026-01-05", EndDate: "2026-01-11",
	})
	require.NoError(t, err)

	require.Len(t, res.Created, 2)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, monday, res.Created[0].Date)
	assert.Equal(t, monday.AddDate(0, 0, 2), res.Created[1].Date)
	for _, trip := range res.Created {
		assert.Equal(t, model.TripScheduled, trip.Status)
		assert.Equal(t, "b1", trip.BusId)
		assert.Equal(t, "08:00", trip.DepartureTime)
		assert.Equal(t, "d1", trip.DriverId)
	}
}

func TestGenerateTripsIsIdempotent(t *testing.T) {
	f := newGeneratorFixture(t)
	freq := testFrequency("f1", "08:00", []model.Weekday{model.Monday}, testBus("b1"))
	f.frequencyRepo.addDetail(freq)
	f.tripRepo.routeByFrequency["f1"] = freq.Route

	req := dto.GenerateTripsRequest{StartDate: "2026-01-05", EndDate: "2026-01-11"}

	first, err := f.generator.GenerateTrips(coopAdmin, req)
	require.NoError(t, err)
	require.Len(t, first.Created, 1)

	// The slot is full, so the capacity gate stops the re-run before the
	// duplicate check even runs.
	second, err := f.generator.GenerateTrips(coopAdmin, req)
	require.NoError(t, err)
	assert.Empty(t, second.Created)
	require.Len(t, second.Skipped, 1)
	assert.Equal(t, SkipReasonGroupExhausted, second.Skipped[0].Reason)
}

func TestGenerateTripsSkipsDuplicateSlot(t *testing.T) {
	f := newGeneratorFixture(t)
	freq := testFrequency("f1", "08:00", []model.Weekday{model.Monday}, testBus("b1"))
	f.frequencyRepo.addDetail(freq)
	f.tripRepo.routeByFrequency["f1"] = freq.Route

	// A trip generated before the frequency moved from 07:00 to 08:00
	// still occupies (frequency, date, bus).
	f.tripRepo.add(model.Trip{FrequencyId: "f1", BusId: "b1", Date: monday,
		DepartureTime: "07:00", Status: model.TripScheduled}, freq.Route)

	res, err := f.generator.GenerateTrips(coopAdmin, dto.GenerateTripsRequest{
		StartDate: "2026-01-05", EndDate: "2026-01-05",
	})
	require.NoError(t, err)

	assert.Empty(t, res.Created)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, SkipReasonDuplicate, res.Skipped[0].Reason)
}

func TestGenerateTripsGroupExhausted(t *testing.T) {
	f := newGeneratorFixture(t)
	freq := testFrequency("f1", "08:00", []model.Weekday{model.Monday}, testBus("b1"), testBus("b2"))
	f.frequencyRepo.addDetail(freq)
	f.tripRepo.routeByFrequency["f1"] = freq.Route

	// Both buses already serve an 08:00 departure that day.
	other := testRoute("Cuenca", "Loja")
	f.tripRepo.add(model.Trip{FrequencyId: "fx", BusId: "b1", Date: monday, DepartureTime: "08:00", Status: model.TripScheduled}, other)
	f.tripRepo.add(model.Trip{FrequencyId: "fx", BusId: "b2", Date: monday, DepartureTime: "08:00", Status: model.TripScheduled}, other)

	res, err := f.generator.GenerateTrips(coopAdmin, dto.GenerateTripsRequest{
		StartDate: "2026-01-05", EndDate: "2026-01-05",
	})
	require.NoError(t, err)

	assert.Empty(t, res.Created)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, SkipReasonGroupExhausted, res.Skipped[0].Reason)
}

func TestGenerateTripsSkipsFrequencyWithoutBuses(t *testing.T) {
	f := newGeneratorFixture(t)
	freq := testFrequency("f1", "08:00", []model.Weekday{model.Monday})
	f.frequencyRepo.addDetail(freq)

	res, err := f.generator.GenerateTrips(coopAdmin, dto.GenerateTripsRequest{
		StartDate: "2026-01-05", EndDate: "2026-01-05",
	})
	require.NoError(t, err)

	assert.Empty(t, res.Created)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, SkipReasonNoBuses, res.Skipped[0].Reason)
}

func TestGenerateTripsPrefersIdleBus(t *testing.T) {
	f := newGeneratorFixture(t)
	freq := testFrequency("f1", "08:00", []model.Weekday{model.Monday}, testBus("b1"), testBus("b2"))
	f.frequencyRepo.addDetail(freq)
	f.tripRepo.routeByFrequency["f1"] = freq.Route

	// b1 has history, b2 has never moved.
	f.tripRepo.add(model.Trip{FrequencyId: "fx", BusId: "b1", Date: monday.AddDate(0, 0, -1),
		DepartureTime: "08:00", Status: model.TripScheduled}, testRoute("Cuenca", "Loja"))

	res, err := f.generator.GenerateTrips(coopAdmin, dto.GenerateTripsRequest{
		StartDate: "2026-01-05", EndDate: "2026-01-05",
	})
	require.NoError(t, err)

	require.Len(t, res.Created, 1)
	assert.Equal(t, "b2", res.Created[0].BusId)
	assert.False(t, res.Created[0].Continuity)
	assert.False(t, res.Created[0].ViaFallback)
}

func TestGenerateTripsContinuity(t *testing.T) {
	f := newGeneratorFixture(t)
	freq := testFrequency("f1", "08:00", []model.Weekday{model.Monday}, testBus("b1"), testBus("b2"))
	f.frequencyRepo.addDetail(freq)
	f.tripRepo.routeByFrequency["f1"] = freq.Route

	// b1 arrives in Quito at 06:00; with the 30m turnaround it is ready
	// before the 08:00 departure from Quito.
	inbound := testRoute("Guayaquil", "Quito")
	f.tripRepo.add(model.Trip{FrequencyId: "fx", BusId: "b1", Date: monday,
		DepartureTime: "05:00", Status: model.TripScheduled}, inbound)
	f.tripRepo.add(model.Trip{FrequencyId: "fy", BusId: "b2", Date: monday.AddDate(0, 0, -1),
		DepartureTime: "08:00", Status: model.TripScheduled}, testRoute("Cuenca", "Loja"))

	res, err := f.generator.GenerateTrips(coopAdmin, dto.GenerateTripsRequest{
		StartDate: "2026-01-05", EndDate: "2026-01-05",
	})
	require.NoError(t, err)

	require.Len(t, res.Created, 1)
	assert.Equal(t, "b1", res.Created[0].BusId)
	assert.True(t, res.Created[0].Continuity)
	assert.False(t, res.Created[0].ViaFallback)
}

func TestGenerateTripsFallbackWhenAllConflict(t *testing.T) {
	f := newGeneratorFixture(t)
	freq := testFrequency("f1", "08:00", []model.Weekday{model.Monday}, testBus("b1"), testBus("b2"))
	f.frequencyRepo.addDetail(freq)
	f.tripRepo.routeByFrequency["f1"] = freq.Route

	// Both buses depart at 07:30 and are still on the road (plus
	// turnaround) at 08:00.
	busy := testRoute("Cuenca", "Loja")
	f.tripRepo.add(model.Trip{FrequencyId: "fx", BusId: "b1", Date: monday,
		DepartureTime: "07:30", Status: model.TripScheduled}, busy)
	f.tripRepo.add(model.Trip{FrequencyId: "fy", BusId: "b2", Date: monday,
		DepartureTime: "07:30", Status: model.TripScheduled}, busy)

	res, err := f.generator.GenerateTrips(coopAdmin, dto.GenerateTripsRequest{
		StartDate: "2026-01-05", EndDate: "2026-01-05",
	})
	require.NoError(t, err)

	require.Len(t, res.Created, 1)
	assert.Equal(t, "b1", res.Created[0].BusId)
	assert.True(t, res.Created[0].ViaFallback)
	assert.False(t, res.Created[0].Continuity)
}

func TestGenerateTripsDriverGetsOneBusPerDay(t *testing.T) {
	f := newGeneratorFixture(t)

	f1 := testFrequency("f1", "08:00", []model.Weekday{model.Monday}, testBus("b1"))
	f2 := testFrequency("f2", "20:00", []model.Weekday{model.Monday}, testBus("b2"))
	f.frequencyRepo.addDetail(f1)
	f.frequencyRepo.addDetail(f2)
	f.tripRepo.routeByFrequency["f1"] = f1.Route
	f.tripRepo.routeByFrequency["f2"] = f2.Route
	f.driverRepo.drivers["d1"] = testDriver("d1")

	res, err := f.generator.GenerateTrips(coopAdmin, dto.GenerateTripsRequest{
		StartDate: "2026-01-05", EndDate: "2026-01-05",
	})
	require.NoError(t, err)
	require.Len(t, res.Created, 2)

	// The single driver is pinned to b1 by the first trip; the second
	// trip on b2 stays unassigned even though the windows do not overlap.
	assert.Equal(t, "d1", res.Created[0].DriverId)
	assert.Equal(t, "", res.Created[1].DriverId)
}

func TestGenerateTripsBalancesDriverLoad(t *testing.T) {
	f := newGeneratorFixture(t)
	freq := testFrequency("f1", "12:00", []model.Weekday{model.Monday}, testBus("b1"))
	f.frequencyRepo.addDetail(freq)
	f.tripRepo.routeByFrequency["f1"] = freq.Route
	f.driverRepo.drivers["d1"] = testDriver("d1")
	f.driverRepo.drivers["d2"] = testDriver("d2")

	// d1 already drove b1 in the early morning; the window is long gone
	// but the load counts.
	f.tripRepo.add(model.Trip{FrequencyId: "fx", BusId: "b1", Date: monday,
		DepartureTime: "05:00", DriverId: "d1", Status: model.TripScheduled}, testRoute("Cuenca", "Quito"))

	res, err := f.generator.GenerateTrips(coopAdmin, dto.GenerateTripsRequest{
		StartDate: "2026-01-05", EndDate: "2026-01-05",
	})
	require.NoError(t, err)

	require.Len(t, res.Created, 1)
	assert.Equal(t, "d2", res.Created[0].DriverId)
}

func TestGenerateTripsRotatesGroupAcrossFrequencies(t *testing.T) {
	f := newGeneratorFixture(t)

	// Two departures share the same two-bus group. The 08:00 bus is still
	// out (60m route + 30m turnaround) at 09:00, so the second departure
	// must take the other bus.
	f1 := testFrequency("f1", "08:00", []model.Weekday{model.Monday}, testBus("b1"), testBus("b2"))
	f2 := testFrequency("f2", "09:00", []model.Weekday{model.Monday}, testBus("b1"), testBus("b2"))
	f.frequencyRepo.addDetail(f1)
	f.frequencyRepo.addDetail(f2)
	f.tripRepo.routeByFrequency["f1"] = f1.Route
	f.tripRepo.routeByFrequency["f2"] = f2.Route

	res, err := f.generator.GenerateTrips(coopAdmin, dto.GenerateTripsRequest{
		StartDate: "2026-01-05", EndDate: "2026-01-05",
	})
	require.NoError(t, err)
	require.Len(t, res.Created, 2)

	assert.Equal(t, "b1", res.Created[0].BusId)
	assert.Equal(t, "b2", res.Created[1].BusId)
	for _, trip := range res.Created {
		assert.False(t, trip.ViaFallback)
	}
}

func TestGenerateTripsRejectsBadRange(t *testing.T) {
	f := newGeneratorFixture(t)

	_, err := f.generator.GenerateTrips(coopAdmin, dto.GenerateTripsRequest{
		StartDate: "2026-01-10", EndDate: "2026-01-05",
	})
	require.Error(t, err)

	_, err = f.generator.GenerateTrips(coopAdmin, dto.GenerateTripsRequest{
		StartDate: "05-01-2026", EndDate: "2026-01-10",
	})
	require.Error(t, err)
}

package services

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"busline/internal/mylogger"
	"busline/internal/scheduling-service/core/domain/model"
	"busline/internal/scheduling-service/core/myerrors"
)

func testLogger(t *testing.T) mylogger.Logger {
	t.Helper()
	log, err := mylogger.New(mylogger.LevelError)
	require.NoError(t, err)
	return log
}

// ---- in-memory repositories ----

type fakeFrequencyRepo struct {
	seq     int
	byId    map[string]model.Frequency
	details map[string]model.FrequencyDetail
}

func newFakeFrequencyRepo() *fakeFrequencyRepo {
	return &fakeFrequencyRepo{
		byId:    map[string]model.Frequency{},
		details: map[string]model.FrequencyDetail{},
	}
}

func (r *fakeFrequencyRepo) addDetail(d model.FrequencyDetail) {
	r.byId[d.Id] = d.Frequency
	r.details[d.Id] = d
}

func (r *fakeFrequencyRepo) Create(_ context.Context, f model.Frequency) (string, error) {
	r.seq++
	f.Id = fmt.Sprintf("freq-%d", r.seq)
	r.byId[f.Id] = f
	return f.Id, nil
}

func (r *fakeFrequencyRepo) Update(_ context.Context, f model.Frequency) error {
	if _, ok := r.byId[f.Id]; !ok {
		return myerrors.ErrNotFound
	}
	r.byId[f.Id] = f
	return nil
}

func (r *fakeFrequencyRepo) Deactivate(_ context.Context, id string) error {
	f, ok := r.byId[id]
	if !ok {
		return myerrors.ErrNotFound
	}
	f.IsActive = false
	r.byId[id] = f
	return nil
}

func (r *fakeFrequencyRepo) FindById(_ context.Context, id string) (model.Frequency, error) {
	f, ok := r.byId[id]
	if !ok {
		return model.Frequency{}, myerrors.ErrNotFound
	}
	return f, nil
}

func (r *fakeFrequencyRepo) ActiveByBusGroup(_ context.Context, busGroupId, excludeId string) ([]model.Frequency, error) {
	var out []model.Frequency
	for _, f := range r.byId {
		if f.BusGroupId == busGroupId && f.IsActive && f.Id != excludeId {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFrequencyRepo) ForGeneration(_ context.Context, ids []string, cooperativaId string) ([]model.FrequencyDetail, error) {
	var out []model.FrequencyDetail
	for _, d := range r.details {
		if !d.IsActive {
			continue
		}
		if cooperativaId != "" && d.CooperativaId != cooperativaId {
			continue
		}
		if len(ids) > 0 && !containsString(ids, d.Id) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out, nil
}

func (r *fakeFrequencyRepo) FindDetail(_ context.Context, id string) (model.FrequencyDetail, error) {
	d, ok := r.details[id]
	if !ok {
		return model.FrequencyDetail{}, myerrors.ErrNotFound
	}
	return d, nil
}

type fakeTripRepo struct {
	seq   int
	trips []model.TripDetail

	// routeByFrequency lets Create attach the route to the stored detail.
	routeByFrequency map[string]model.Route

	inProgressDrivers map[string]bool
	statusUpdates     map[string]string
	searchResults     []model.TripSearchResult
	sheetTrips        []model.RouteSheetTrip
}

func newFakeTripRepo() *fakeTripRepo {
	return &fakeTripRepo{
		routeByFrequency:  map[string]model.Route{},
		inProgressDrivers: map[string]bool{},
		statusUpdates:     map[string]string{},
	}
}

func (r *fakeTripRepo) add(t model.Trip, route model.Route) model.TripDetail {
	if t.Id == "" {
		r.seq++
		t.Id = fmt.Sprintf("trip-%d", r.seq)
	}
	d := model.TripDetail{Trip: t, Route: route}
	r.trips = append(r.trips, d)
	return d
}

func (r *fakeTripRepo) CountGroupSlot(_ context.Context, date time.Time, departureTime string, busIds []string) (int, error) {
	count := 0
	for _, t := range r.trips {
		if t.Date.Equal(date) && t.DepartureTime == departureTime &&
			t.Status != model.TripCancelled && containsString(busIds, t.BusId) {
			count++
		}
	}
	return count, nil
}

func (r *fakeTripRepo) RecentByBus(_ context.Context, busId string, before time.Time, limit int) ([]model.TripDetail, error) {
	var out []model.TripDetail
	for _, t := range r.trips {
		if t.BusId != busId {
			continue
		}
		if departureInstant(t.Date, t.DepartureTime).After(before) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return departureInstant(out[i].Date, out[i].DepartureTime).
			After(departureInstant(out[j].Date, out[j].DepartureTime))
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeTripRepo) Exists(_ context.Context, frequencyId string, date time.Time, busId string) (bool, error) {
	for _, t := range r.trips {
		if t.FrequencyId == frequencyId && t.Date.Equal(date) && t.BusId == busId &&
			t.Status != model.TripCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTripRepo) Create(_ context.Context, t model.Trip) (string, error) {
	for _, existing := range r.trips {
		if existing.FrequencyId == t.FrequencyId && existing.Date.Equal(t.Date) &&
			existing.BusId == t.BusId && existing.Status != model.TripCancelled {
			return "", myerrors.ErrDuplicateTrip
		}
	}
	d := r.add(t, r.routeByFrequency[t.FrequencyId])
	return d.Id, nil
}

func (r *fakeTripRepo) Update(_ context.Context, t model.Trip) error {
	for i, existing := range r.trips {
		if existing.Id == t.Id {
			r.trips[i].Trip = t
			return nil
		}
	}
	return myerrors.ErrNotFound
}

func (r *fakeTripRepo) UpdateStatus(_ context.Context, id, status string) error {
	for i, existing := range r.trips {
		if existing.Id == id {
			r.trips[i].Status = status
			r.statusUpdates[id] = status
			return nil
		}
	}
	return myerrors.ErrNotFound
}

func (r *fakeTripRepo) UpdatePersonnel(_ context.Context, id, driverId, assistantId string) error {
	for i, existing := range r.trips {
		if existing.Id == id {
			r.trips[i].DriverId = driverId
			r.trips[i].AssistantId = assistantId
			return nil
		}
	}
	return myerrors.ErrNotFound
}

func (r *fakeTripRepo) FindById(_ context.Context, id string) (model.TripDetail, error) {
	for _, t := range r.trips {
		if t.Id == id {
			return t, nil
		}
	}
	return model.TripDetail{}, myerrors.ErrNotFound
}

func (r *fakeTripRepo) DriverTripsOn(_ context.Context, driverId string, date time.Time, excludeTripId string) ([]model.TripDetail, error) {
	var out []model.TripDetail
	for _, t := range r.trips {
		if t.DriverId == driverId && t.Date.Equal(date) &&
			t.Status != model.TripCancelled && t.Id != excludeTripId {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTripRepo) DriverHasInProgress(_ context.Context, driverId, _ string) (bool, error) {
	return r.inProgressDrivers[driverId], nil
}

func (r *fakeTripRepo) SearchScheduled(_ context.Context, _, _ string, _ time.Time) ([]model.TripSearchResult, error) {
	return r.searchResults, nil
}

func (r *fakeTripRepo) ForRouteSheet(_ context.Context, busIds []string, from, to time.Time) ([]model.RouteSheetTrip, error) {
	var out []model.RouteSheetTrip
	for _, t := range r.sheetTrips {
		if containsString(busIds, t.BusId) && !t.Date.Before(from) && !t.Date.After(to) {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeBusRepo struct {
	buses  map[string]model.Bus
	groups map[string]model.BusGroup
}

func newFakeBusRepo() *fakeBusRepo {
	return &fakeBusRepo{
		buses:  map[string]model.Bus{},
		groups: map[string]model.BusGroup{},
	}
}

func (r *fakeBusRepo) FindById(_ context.Context, id string) (model.Bus, error) {
	b, ok := r.buses[id]
	if !ok {
		return model.Bus{}, myerrors.ErrNotFound
	}
	return b, nil
}

func (r *fakeBusRepo) GroupWithBuses(_ context.Context, groupId string) (model.BusGroup, error) {
	g, ok := r.groups[groupId]
	if !ok {
		return model.BusGroup{}, myerrors.ErrNotFound
	}
	return g, nil
}

type fakeDriverRepo struct {
	seq     int
	drivers map[string]model.Driver
}

func newFakeDriverRepo() *fakeDriverRepo {
	return &fakeDriverRepo{drivers: map[string]model.Driver{}}
}

func (r *fakeDriverRepo) FindById(_ context.Context, id string) (model.Driver, error) {
	d, ok := r.drivers[id]
	if !ok {
		return model.Driver{}, myerrors.ErrNotFound
	}
	return d, nil
}

func (r *fakeDriverRepo) ActiveByCooperativa(_ context.Context, cooperativaId string) ([]model.Driver, error) {
	var ids []string
	for id, d := range r.drivers {
		if d.CooperativaId == cooperativaId && d.Status == model.StatusActive && d.Role == model.RoleDriver {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]model.Driver, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.drivers[id])
	}
	return out, nil
}

func (r *fakeDriverRepo) Create(_ context.Context, d model.Driver, _ []byte) (string, error) {
	r.seq++
	d.Id = fmt.Sprintf("driver-%d", r.seq)
	r.drivers[d.Id] = d
	return d.Id, nil
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

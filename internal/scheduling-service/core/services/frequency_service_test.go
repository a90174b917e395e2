package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busline/internal/scheduling-service/core/domain/dto"
	"busline/internal/scheduling-service/core/domain/model"
	"busline/internal/scheduling-service/core/myerrors"
)

func newFrequencyService(t *testing.T, repo *fakeFrequencyRepo) *FrequencyService {
	t.Helper()
	return NewFrequencyService(context.Background(), testLogger(t), repo).(*FrequencyService)
}

func validFrequencyRequest() dto.FrequencyRequest {
	return dto.FrequencyRequest{
		CooperativaId: "coop-1",
		RouteId:       "route-1",
		BusGroupId:    "group-1",
		DepartureTime: "08:00",
		OperatingDays: []model.Weekday{model.Monday, model.Tuesday},
	}
}

func TestCreateFrequency(t *testing.T) {
	repo := newFakeFrequencyRepo()
	fs := newFrequencyService(t, repo)

	f, err := fs.CreateFrequency(coopAdmin, validFrequencyRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, f.Id)
	assert.True(t, f.IsActive)
	assert.Equal(t, "08:00", f.DepartureTime)
}

func TestCreateFrequencyConflictSameSlot(t *testing.T) {
	repo := newFakeFrequencyRepo()
	fs := newFrequencyService(t, repo)

	_, err := fs.CreateFrequency(coopAdmin, validFrequencyRequest())
	require.NoError(t, err)

	// Same group, same departure, overlapping days.
	req := validFrequencyRequest()
	req.OperatingDays = []model.Weekday{model.Tuesday, model.Wednesday}

	_, err = fs.CreateFrequency(coopAdmin, req)
	var conflict *myerrors.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []model.Weekday{model.Tuesday}, conflict.Days)
	assert.Equal(t, "08:00", conflict.Time)
}

func TestCreateFrequencyNoConflictDifferentTime(t *testing.T) {
	repo := newFakeFrequencyRepo()
	fs := newFrequencyService(t, repo)

	_, err := fs.CreateFrequency(coopAdmin, validFrequencyRequest())
	require.NoError(t, err)

	req := validFrequencyRequest()
	req.DepartureTime = "08:01"

	_, err = fs.CreateFrequency(coopAdmin, req)
	assert.NoError(t, err)
}

func TestCreateFrequencyNoConflictWithoutGroup(t *testing.T) {
	repo := newFakeFrequencyRepo()
	fs := newFrequencyService(t, repo)

	req := validFrequencyRequest()
	req.BusGroupId = ""

	_, err := fs.CreateFrequency(coopAdmin, req)
	require.NoError(t, err)
	_, err = fs.CreateFrequency(coopAdmin, req)
	assert.NoError(t, err)
}

func TestCreateFrequencyValidation(t *testing.T) {
	repo := newFakeFrequencyRepo()
	fs := newFrequencyService(t, repo)

	cases := []struct {
		name   string
		mutate func(*dto.FrequencyRequest)
	}{
		{"bad time", func(r *dto.FrequencyRequest) { r.DepartureTime = "25:00" }},
		{"time with seconds", func(r *dto.FrequencyRequest) { r.DepartureTime = "08:00:00" }},
		{"no days", func(r *dto.FrequencyRequest) { r.OperatingDays = nil }},
		{"unknown day", func(r *dto.FrequencyRequest) { r.OperatingDays = []model.Weekday{"SOMEDAY"} }},
		{"no route", func(r *dto.FrequencyRequest) { r.RouteId = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validFrequencyRequest()
			tc.mutate(&req)

			_, err := fs.CreateFrequency(coopAdmin, req)
			var validation *myerrors.ValidationError
			assert.True(t, errors.As(err, &validation))
		})
	}
}

func TestCreateFrequencyCrossTenant(t *testing.T) {
	repo := newFakeFrequencyRepo()
	fs := newFrequencyService(t, repo)

	req := validFrequencyRequest()
	req.CooperativaId = "coop-2"

	_, err := fs.CreateFrequency(coopAdmin, req)
	assert.ErrorIs(t, err, myerrors.ErrCrossCooperativa)

	superAdmin := dto.Actor{UserId: "root", Role: model.RoleSuperAdmin}
	_, err = fs.CreateFrequency(superAdmin, req)
	assert.NoError(t, err)
}

func TestUpdateFrequencyRevalidatesConflicts(t *testing.T) {
	repo := newFakeFrequencyRepo()
	fs := newFrequencyService(t, repo)

	existing, err := fs.CreateFrequency(coopAdmin, validFrequencyRequest())
	require.NoError(t, err)

	req := validFrequencyRequest()
	req.DepartureTime = "10:00"
	other, err := fs.CreateFrequency(coopAdmin, req)
	require.NoError(t, err)

	// Moving the second frequency onto the first one's slot must fail.
	newTime := existing.DepartureTime
	_, err = fs.UpdateFrequency(coopAdmin, other.Id, dto.FrequencyUpdate{DepartureTime: &newTime})
	var conflict *myerrors.ConflictError
	assert.True(t, errors.As(err, &conflict))
}

func TestDeactivateFrequencyFreesTheSlot(t *testing.T) {
	repo := newFakeFrequencyRepo()
	fs := newFrequencyService(t, repo)

	existing, err := fs.CreateFrequency(coopAdmin, validFrequencyRequest())
	require.NoError(t, err)
	require.NoError(t, fs.DeactivateFrequency(coopAdmin, existing.Id))

	_, err = fs.CreateFrequency(coopAdmin, validFrequencyRequest())
	assert.NoError(t, err)
}

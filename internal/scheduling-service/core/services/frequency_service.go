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

const repoTimeout = time.Second * 15

type FrequencyService struct {
	ctx           context.Context
	mylog         mylogger.Logger
	frequencyRepo ports.IFrequencyRepo
}

func NewFrequencyService(ctx context.Context, log mylogger.Logger, frequencyRepo ports.IFrequencyRepo) ports.IFrequencyService {
	return &FrequencyService{
		ctx:           ctx,
		mylog:         log,
		frequencyRepo: frequencyRepo,
	}
}

func (fs *FrequencyService) CreateFrequency(actor dto.Actor, req dto.FrequencyRequest) (model.Frequency, error) {
	log := fs.mylog.Action("CreateFrequency")

	if !actor.CanAccess(req.CooperativaId) {
		return model.Frequency{}, myerrors.ErrCrossCooperativa
	}
	if err := validateFrequencyRequest(req); err != nil {
		return model.Frequency{}, err
	}

	f := model.Frequency{
		CooperativaId:   req.CooperativaId,
		RouteId:         req.RouteId,
		BusGroupId:      req.BusGroupId,
		DepartureTime:   req.DepartureTime,
		OperatingDays:   req.OperatingDays,
		IsActive:        true,
		AntPermitNumber: req.AntPermitNumber,
	}

	ctx, cancel := context.WithTimeout(fs.ctx, repoTimeout)
	defer cancel()

	if err := fs.validateNoConflict(ctx, f, ""); err != nil {
		log.Warn("frequency rejected", "bus_group_id", f.BusGroupId, "departure_time", f.DepartureTime)
		return model.Frequency{}, err
	}

	id, err := fs.frequencyRepo.Create(ctx, f)
	if err != nil {
		log.Error("cannot create frequency", err)
		return model.Frequency{}, err
	}
	f.Id = id

	log.Info("frequency created", "frequency_id", id, "route_id", f.RouteId, "departure_time", f.DepartureTime)
	return f, nil
}

func (fs *FrequencyService) UpdateFrequency(actor dto.Actor, id string, req dto.FrequencyUpdate) (model.Frequency, error) {
	log := fs.mylog.Action("UpdateFrequency")

	ctx, cancel := context.WithTimeout(fs.ctx, repoTimeout)
	defer cancel()

	existing, err := fs.frequencyRepo.FindById(ctx, id)
	if err != nil {
		return model.Frequency{}, err
	}
	if !actor.CanAccess(existing.CooperativaId) {
		return model.Frequency{}, myerrors.ErrCrossCooperativa
	}

	if req.BusGroupId != nil {
		existing.BusGroupId = *req.BusGroupId
	}
	if req.DepartureTime != nil {
		if !validDepartureTime(*req.DepartureTime) {
			return model.Frequency{}, &myerrors.ValidationError{Field: "departure_time", Reason: "expected HH:mm"}
		}
		existing.DepartureTime = *req.DepartureTime
	}
	if req.OperatingDays != nil {
		if err := validateOperatingDays(*req.OperatingDays); err != nil {
			return model.Frequency{}, err
		}
		existing.OperatingDays = *req.OperatingDays
	}
	if req.AntPermitNumber != nil {
		existing.AntPermitNumber = *req.AntPermitNumber
	}

	if err := fs.validateNoConflict(ctx, existing, id); err != nil {
		log.Warn("frequency update rejected", "frequency_id", id)
		return model.Frequency{}, err
	}

	if err := fs.frequencyRepo.Update(ctx, existing); err != nil {
		log.Error("cannot update frequency", err, "frequency_id", id)
		return model.Frequency{}, err
	}
	return existing, nil
}

// DeactivateFrequency soft-deletes; trips keep referencing the frequency.
func (fs *FrequencyService) DeactivateFrequency(actor dto.Actor, id string) error {
	log := fs.mylog.Action("DeactivateFrequency")

	ctx, cancel := context.WithTimeout(fs.ctx, repoTimeout)
	defer cancel()

	existing, err := fs.frequencyRepo.FindById(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanAccess(existing.CooperativaId) {
		return myerrors.ErrCrossCooperativa
	}

	if err := fs.frequencyRepo.Deactivate(ctx, id); err != nil {
		log.Error("cannot deactivate frequency", err, "frequency_id", id)
		return err
	}
	log.Info("frequency deactivated", "frequency_id", id)
	return nil
}

// validateNoConflict is the same-instant collision check: another active
// frequency of the same bus group with the identical HH:mm departure and a
// non-empty operating-day intersection is a conflict. Route duration is
// ignored on purpose; interval overlap is only enforced at generation time.
func (fs *FrequencyService) validateNoConflict(ctx context.Context, f model.Frequency, excludeId string) error {
	if f.BusGroupId == "" {
		return nil
	}

	others, err := fs.frequencyRepo.ActiveByBusGroup(ctx, f.BusGroupId, excludeId)
	if err != nil {
		return err
	}

	var collidingDays []model.Weekday
	for _, other := range others {
		if other.DepartureTime != f.DepartureTime {
			continue
		}
		for _, d := range intersectDays(other.OperatingDays, f.OperatingDays) {
			if !containsDay(collidingDays, d) {
				collidingDays = append(collidingDays, d)
			}
		}
	}

	if len(collidingDays) > 0 {
		return &myerrors.ConflictError{Days: collidingDays, Time: f.DepartureTime}
	}
	return nil
}

func validateFrequencyRequest(req dto.FrequencyRequest) error {
	if req.CooperativaId == "" {
		return &myerrors.ValidationError{Field: "cooperativa_id", Reason: "required"}
	}
	if req.RouteId == "" {
		return &myerrors.ValidationError{Field: "route_id", Reason: "required"}
	}
	if !validDepartureTime(req.DepartureTime) {
		return &myerrors.ValidationError{Field: "departure_time", Reason: "expected HH:mm"}
	}
	return validateOperatingDays(req.OperatingDays)
}

var allWeekdays = map[model.Weekday]bool{
	model.Monday:    true,
	model.Tuesday:   true,
	model.Wednesday: true,
	model.Thursday:  true,
	model.Friday:    true,
	model.Saturday:  true,
	model.Sunday:    true,
}

func validateOperatingDays(days []model.Weekday) error {
	if len(days) == 0 {
		return &myerrors.ValidationError{Field: "operating_days", Reason: "at least one day required"}
	}
	for _, d := range days {
		if !allWeekdays[d] {
			return &myerrors.ValidationError{Field: "operating_days", Reason: "unknown day " + string(d)}
		}
	}
	return nil
}

func intersectDays(a, b []model.Weekday) []model.Weekday {
	var out []model.Weekday
	for _, d := range a {
		if containsDay(b, d) {
			out = append(out, d)
		}
	}
	return out
}

func containsDay(days []model.Weekday, d model.Weekday) bool {
	for _, x := range days {
		if x == d {
			return true
		}
	}
	return false
}

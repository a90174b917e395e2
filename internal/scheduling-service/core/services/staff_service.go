package services

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"busline/internal/mylogger"
	"busline/internal/scheduling-service/core/domain/dto"
	"busline/internal/scheduling-service/core/domain/model"
	"busline/internal/scheduling-service/core/myerrors"
	"busline/internal/scheduling-service/core/ports"
)

const (
	minPasswordLen = 5
	maxPasswordLen = 50

	hashFactor = 10
)

// StaffService manages the driver pool of a cooperativa.
type StaffService struct {
	ctx        context.Context
	mylog      mylogger.Logger
	driverRepo ports.IDriverRepo
}

func NewStaffService(ctx context.Context, log mylogger.Logger, driverRepo ports.IDriverRepo) ports.IStaffService {
	return &StaffService{
		ctx:        ctx,
		mylog:      log,
		driverRepo: driverRepo,
	}
}

func (ss *StaffService) CreateDriver(actor dto.Actor, req dto.DriverRequest) (model.Driver, error) {
	log := ss.mylog.Action("CreateDriver")

	if !actor.CanAccess(req.CooperativaId) {
		return model.Driver{}, myerrors.ErrCrossCooperativa
	}
	if err := validateDriverRequest(req); err != nil {
		return model.Driver{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), hashFactor)
	if err != nil {
		return model.Driver{}, err
	}

	d := model.Driver{
		CooperativaId: req.CooperativaId,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Role:          model.RoleDriver,
		Status:        model.StatusActive,
	}

	ctx, cancel := context.WithTimeout(ss.ctx, repoTimeout)
	defer cancel()

	id, err := ss.driverRepo.Create(ctx, d, hash)
	if err != nil {
		log.Error("cannot create driver", err)
		return model.Driver{}, err
	}
	d.Id = id

	log.Info("driver created", "driver_id", id, "cooperativa_id", d.CooperativaId)
	return d, nil
}

func validateDriverRequest(req dto.DriverRequest) error {
	if req.CooperativaId == "" {
		return &myerrors.ValidationError{Field: "cooperativa_id", Reason: "required"}
	}
	if req.FirstName == "" || req.LastName == "" {
		return &myerrors.ValidationError{Field: "name", Reason: "first and last name required"}
	}
	if strings.Count(req.Email, "@") != 1 {
		return &myerrors.ValidationError{Field: "email", Reason: "must contain exactly one @"}
	}
	if len(req.Password) < minPasswordLen || len(req.Password) > maxPasswordLen {
		return &myerrors.ValidationError{Field: "password", Reason: "length out of range"}
	}
	return nil
}

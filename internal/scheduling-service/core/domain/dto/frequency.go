package dto

import "busline/internal/scheduling-service/core/domain/model"

type FrequencyRequest struct {
	CooperativaId   string          `json:"cooperativa_id"`
	RouteId         string          `json:"route_id"`
	BusGroupId      string          `json:"bus_group_id,omitempty"`
	DepartureTime   string          `json:"departure_time"`
	OperatingDays   []model.Weekday `json:"operating_days"`
	AntPermitNumber string          `json:"ant_permit_number,omitempty"`
}

type FrequencyUpdate struct {
	BusGroupId      *string          `json:"bus_group_id,omitempty"`
	DepartureTime   *string          `json:"departure_time,omitempty"`
	OperatingDays   *[]model.Weekday `json:"operating_days,omitempty"`
	AntPermitNumber *string          `json:"ant_permit_number,omitempty"`
}

type DriverRequest struct {
	CooperativaId string `json:"cooperativa_id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
}

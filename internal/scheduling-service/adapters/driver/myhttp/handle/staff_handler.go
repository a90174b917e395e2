package handle

import (
	"encoding/json"
	"net/http"

	"busline/internal/mylogger"
	"busline/internal/scheduling-service/core/domain/dto"
	"busline/internal/scheduling-service/core/ports"
)

type StaffHandler struct {
	staffService ports.IStaffService
	log          mylogger.Logger
}

func NewStaffHandler(ss ports.IStaffService, log mylogger.Logger) *StaffHandler {
	return &StaffHandler{
		staffService: ss,
		log:          log,
	}
}

func (sh *StaffHandler) CreateDriver() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.DriverRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := sh.staffService.CreateDriver(actorFrom(r), req)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusCreated, res)
	}
}

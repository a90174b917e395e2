package handle

import (
	"encoding/json"
	"net/http"

	"busline/internal/mylogger"
	"busline/internal/scheduling-service/core/domain/dto"
	"busline/internal/scheduling-service/core/ports"
)

type TripHandler struct {
	tripService       ports.ITripService
	routeSheetService ports.IRouteSheetService
	log               mylogger.Logger
}

func NewTripHandler(ts ports.ITripService, rs ports.IRouteSheetService, log mylogger.Logger) *TripHandler {
	return &TripHandler{
		tripService:       ts,
		routeSheetService: rs,
		log:               log,
	}
}

func (th *TripHandler) CreateTrip() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		draft := dto.TripDraft{}
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := th.tripService.CreateTrip(actorFrom(r), draft)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusCreated, res)
	}
}

func (th *TripHandler) UpdateTrip() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tripId := r.PathValue("trip_id")

		upd := dto.TripUpdate{}
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := th.tripService.UpdateTrip(actorFrom(r), tripId, upd)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}

func (th *TripHandler) UpdateTripStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tripId := r.PathValue("trip_id")

		body := struct {
			Status string `json:"status"`
		}{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := th.tripService.UpdateTripStatus(actorFrom(r), tripId, body.Status)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}

func (th *TripHandler) AssignPersonnel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tripId := r.PathValue("trip_id")

		req := dto.PersonnelAssignment{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := th.tripService.AssignPersonnel(actorFrom(r), tripId, req)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}

// SearchTrips is the public (unauthenticated) passenger search.
func (th *TripHandler) SearchTrips() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.TripSearchRequest{
			Origin:      r.URL.Query().Get("origin"),
			Destination: r.URL.Query().Get("destination"),
			Date:        r.URL.Query().Get("date"),
		}

		res, err := th.tripService.SearchTrips(req)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}

func (th *TripHandler) GetRouteSheet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupId := r.URL.Query().Get("group_id")
		from := r.URL.Query().Get("start_date")
		to := r.URL.Query().Get("end_date")
		if date := r.URL.Query().Get("date"); date != "" {
			from, to = date, date
		}

		res, err := th.routeSheetService.GetRouteSheet(actorFrom(r), groupId, from, to)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}

package handle

import (
	"encoding/json"
	"net/http"

	"busline/internal/mylogger"
	"busline/internal/scheduling-service/core/domain/dto"
	"busline/internal/scheduling-service/core/ports"
)

type FrequencyHandler struct {
	frequencyService ports.IFrequencyService
	tripGenerator    ports.ITripGenerator
	log              mylogger.Logger
}

func NewFrequencyHandler(fs ports.IFrequencyService, tg ports.ITripGenerator, log mylogger.Logger) *FrequencyHandler {
	return &FrequencyHandler{
		frequencyService: fs,
		tripGenerator:    tg,
		log:              log,
	}
}

func (fh *FrequencyHandler) CreateFrequency() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.FrequencyRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := fh.frequencyService.CreateFrequency(actorFrom(r), req)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusCreated, res)
	}
}

func (fh *FrequencyHandler) UpdateFrequency() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("frequency_id")

		req := dto.FrequencyUpdate{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := fh.frequencyService.UpdateFrequency(actorFrom(r), id, req)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}

func (fh *FrequencyHandler) DeactivateFrequency() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("frequency_id")

		if err := fh.frequencyService.DeactivateFrequency(actorFrom(r), id); err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, map[string]string{"message": "frequency deactivated"})
	}
}

func (fh *FrequencyHandler) GenerateTrips() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.GenerateTripsRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := fh.tripGenerator.GenerateTrips(actorFrom(r), req)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}

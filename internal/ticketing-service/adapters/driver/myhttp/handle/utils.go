package handle

import (
	"encoding/json"
	"errors"
	"net/http"

	"busline/internal/ticketing-service/core/myerrors"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func JsonError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(errorResponse{Success: false, Error: err.Error()})
}

func jsonResponse(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(dataResponse{Success: true, Data: data})
}

// serviceError maps core errors onto HTTP statuses.
func serviceError(w http.ResponseWriter, err error) {
	var validationErr *myerrors.ValidationError
	var transitionErr *myerrors.TransitionError

	switch {
	case errors.Is(err, myerrors.ErrNotFound):
		JsonError(w, http.StatusNotFound, err)
	case errors.Is(err, myerrors.ErrSeatUnavailable),
		errors.Is(err, myerrors.ErrSeatHeld):
		JsonError(w, http.StatusConflict, err)
	case errors.As(err, &validationErr),
		errors.As(err, &transitionErr),
		errors.Is(err, myerrors.ErrTripNotOpen):
		JsonError(w, http.StatusBadRequest, err)
	default:
		JsonError(w, http.StatusInternalServerError, err)
	}
}

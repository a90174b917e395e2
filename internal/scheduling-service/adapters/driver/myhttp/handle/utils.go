package handle

import (
	"encoding/json"
	"errors"
	"net/http"

	"busline/internal/scheduling-service/core/domain/dto"
	"busline/internal/scheduling-service/core/myerrors"
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
	var conflictErr *myerrors.ConflictError
	var validationErr *myerrors.ValidationError

	switch {
	case errors.Is(err, myerrors.ErrNotFound):
		JsonError(w, http.StatusNotFound, err)
	case errors.Is(err, myerrors.ErrCrossCooperativa):
		JsonError(w, http.StatusForbidden, err)
	case errors.As(err, &conflictErr),
		errors.As(err, &validationErr),
		errors.Is(err, myerrors.ErrDuplicateTrip),
		errors.Is(err, myerrors.ErrBusInactive),
		errors.Is(err, myerrors.ErrNotADriver),
		errors.Is(err, myerrors.ErrDriverOverlap),
		errors.Is(err, myerrors.ErrDriverOtherBus),
		errors.Is(err, myerrors.ErrDriverInProgress):
		JsonError(w, http.StatusBadRequest, err)
	default:
		JsonError(w, http.StatusInternalServerError, err)
	}
}

// actorFrom reads the identity headers set by the auth middleware.
func actorFrom(r *http.Request) dto.Actor {
	return dto.Actor{
		UserId:        r.Header.Get("X-UserId"),
		Role:          r.Header.Get("X-Role"),
		CooperativaId: r.Header.Get("X-CooperativaId"),
	}
}

package handle

import (
	"encoding/json"
	"net/http"
	"strconv"

	"busline/internal/mylogger"
	"busline/internal/ticketing-service/core/domain/dto"
	"busline/internal/ticketing-service/core/myerrors"
	"busline/internal/ticketing-service/core/ports"
)

type TicketHandler struct {
	ticketService ports.ITicketService
	log           mylogger.Logger
}

func NewTicketHandler(ts ports.ITicketService, log mylogger.Logger) *TicketHandler {
	return &TicketHandler{
		ticketService: ts,
		log:           log,
	}
}

func (th *TicketHandler) GetTripSeats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tripId := r.PathValue("trip_id")

		res, err := th.ticketService.GetTripSeats(tripId)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}

func (th *TicketHandler) QuoteFare() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tripId := r.PathValue("trip_id")

		seat, err := strconv.Atoi(r.URL.Query().Get("seat"))
		if err != nil {
			JsonError(w, http.StatusBadRequest, &myerrors.ValidationError{Field: "seat", Reason: "must be a number"})
			return
		}

		res, err := th.ticketService.QuoteFare(tripId, seat,
			r.URL.Query().Get("boarding_stop"), r.URL.Query().Get("dropoff_stop"))
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}

func (th *TicketHandler) HoldSeat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.HoldRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := th.ticketService.HoldSeat(req)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusCreated, res)
	}
}

func (th *TicketHandler) ReleaseSeat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.HoldRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		if err := th.ticketService.ReleaseSeat(req); err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, struct{}{})
	}
}

func (th *TicketHandler) CreateTicket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.TicketRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := th.ticketService.CreateTicket(req)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusCreated, res)
	}
}

func (th *TicketHandler) ConfirmPayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := th.ticketService.ConfirmPayment(r.PathValue("ticket_id"))
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}

func (th *TicketHandler) UseTicket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := struct {
			QrCode string `json:"qrCode"`
		}{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := th.ticketService.UseTicket(body.QrCode)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}

func (th *TicketHandler) CancelTicket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := th.ticketService.CancelTicket(r.PathValue("ticket_id"))
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}

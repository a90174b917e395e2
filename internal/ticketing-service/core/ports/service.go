package ports

import (
	"busline/internal/ticketing-service/core/domain/dto"
	"busline/internal/ticketing-service/core/domain/model"
)

type ITicketService interface {
	HoldSeat(req dto.HoldRequest) (dto.HoldResponse, error)
	ReleaseSeat(req dto.HoldRequest) error
	CreateTicket(req dto.TicketRequest) (model.Ticket, error)
	ConfirmPayment(ticketId string) (model.Ticket, error)
	UseTicket(qrCode string) (model.Ticket, error)
	CancelTicket(ticketId string) (model.Ticket, error)
	GetTripSeats(tripId string) (dto.TripSeats, error)
	QuoteFare(tripId string, seatNumber int, boarding, dropoff string) (dto.FareQuote, error)
}

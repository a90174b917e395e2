package ports

import (
	"context"

	"busline/internal/ticketing-service/core/domain/model"
)

type IDB interface {
	IsAlive() error
	Close() error
}

type ITicketRepo interface {
	// Create inserts the ticket only if no active ticket occupies the
	// same seat on the same trip. Returns myerrors.ErrSeatUnavailable
	// when the seat is already taken.
	Create(ctx context.Context, ticket model.Ticket) (model.Ticket, error)
	FindById(ctx context.Context, ticketId string) (model.Ticket, error)
	FindByQr(ctx context.Context, qrCode string) (model.Ticket, error)
	UpdateStatus(ctx context.Context, ticketId, status string) error
	ActiveByTrip(ctx context.Context, tripId string) ([]model.Ticket, error)
}

type ITripReader interface {
	FindTripInfo(ctx context.Context, tripId string) (model.TripInfo, error)
}

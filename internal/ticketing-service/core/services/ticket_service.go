package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"busline/internal/metrics"
	"busline/internal/mylogger"
	"busline/internal/ticketing-service/core/domain/dto"
	"busline/internal/ticketing-service/core/domain/model"
	"busline/internal/ticketing-service/core/myerrors"
	"busline/internal/ticketing-service/core/ports"
)

const repoTimeout = time.Second * 15

type TicketService struct {
	ctx        context.Context
	mylog      mylogger.Logger
	collector  *metrics.Collector
	holds      *HoldRegistry
	ticketRepo ports.ITicketRepo
	tripReader ports.ITripReader
	broker     ports.IBrokerMessage
	notifier   ports.ISeatNotifier
}

func NewTicketService(ctx context.Context, mylog mylogger.Logger, collector *metrics.Collector,
	holds *HoldRegistry, ticketRepo ports.ITicketRepo, tripReader ports.ITripReader,
	broker ports.IBrokerMessage, notifier ports.ISeatNotifier) *TicketService {
	return &TicketService{
		ctx:        ctx,
		mylog:      mylog,
		collector:  collector,
		holds:      holds,
		ticketRepo: ticketRepo,
		tripReader: tripReader,
		broker:     broker,
		notifier:   notifier,
	}
}

// HoldSeat places an advisory hold on a seat and tells viewers about it.
// The hold is a courtesy to other browsers; CreateTicket is the only
// authoritative exclusivity check.
func (ts *TicketService) HoldSeat(req dto.HoldRequest) (dto.HoldResponse, error) {
	ctx, cancel := context.WithTimeout(ts.ctx, repoTimeout)
	defer cancel()

	trip, err := ts.tripReader.FindTripInfo(ctx, req.TripId)
	if err != nil {
		return dto.HoldResponse{}, err
	}
	seat, ok := trip.SeatLayout.Find(req.SeatNumber)
	if !ok {
		return dto.HoldResponse{}, &myerrors.ValidationError{Field: "seatNumber", Reason: "not on this bus"}
	}

	if taken, err := ts.seatOccupied(ctx, req.TripId, seat.Number); err != nil {
		return dto.HoldResponse{}, err
	} else if taken {
		return dto.HoldResponse{}, myerrors.ErrSeatUnavailable
	}

	sessionId := req.SessionId
	if sessionId == "" {
		sessionId = uuid.NewString()
	}

	hold, ok := ts.holds.Acquire(req.TripId, seat.Number, sessionId)
	if !ok {
		return dto.HoldResponse{}, myerrors.ErrSeatHeld
	}
	ts.collector.ActiveSeatHolds.Set(float64(ts.holds.Count()))

	ts.publish(dto.SeatEvent{
		Type:        dto.EventSeatLocked,
		TripId:      req.TripId,
		SeatNumber:  seat.Number,
		SessionId:   sessionId,
		LockedUntil: hold.LockedUntil,
	})

	return dto.HoldResponse{SeatHold: hold}, nil
}

// ReleaseSeat drops a hold owned by the session.
func (ts *TicketService) ReleaseSeat(req dto.HoldRequest) error {
	if !ts.holds.Release(req.TripId, req.SeatNumber, req.SessionId) {
		return myerrors.ErrNotFound
	}
	ts.collector.ActiveSeatHolds.Set(float64(ts.holds.Count()))

	ts.publish(dto.SeatEvent{
		Type:       dto.EventSeatReleased,
		TripId:     req.TripId,
		SeatNumber: req.SeatNumber,
	})
	return nil
}

// CreateTicket sells (or reserves) a seat. The insert is conditional on
// no active ticket occupying the seat, so two concurrent buyers cannot
// both succeed.
func (ts *TicketService) CreateTicket(req dto.TicketRequest) (model.Ticket, error) {
	ctx, cancel := context.WithTimeout(ts.ctx, repoTimeout)
	defer cancel()

	if req.PassengerName == "" {
		return model.Ticket{}, &myerrors.ValidationError{Field: "passengerName", Reason: "is required"}
	}

	trip, err := ts.tripReader.FindTripInfo(ctx, req.TripId)
	if err != nil {
		return model.Ticket{}, err
	}
	if trip.Status != "SCHEDULED" {
		return model.Ticket{}, myerrors.ErrTripNotOpen
	}

	seat, ok := trip.SeatLayout.Find(req.SeatNumber)
	if !ok {
		return model.Ticket{}, &myerrors.ValidationError{Field: "seatNumber", Reason: "not on this bus"}
	}

	if held := ts.holds.HeldSeats(req.TripId)[seat.Number]; held.SessionId != "" && held.SessionId != req.SessionId {
		return model.Ticket{}, myerrors.ErrSeatHeld
	}

	base, premium, total, err := ComputeFare(trip.Route, req.BoardingStop, req.DropoffStop, seat.Type)
	if err != nil {
		return model.Ticket{}, err
	}

	boarding := req.BoardingStop
	if boarding == "" {
		boarding = trip.Route.Origin
	}
	dropoff := req.DropoffStop
	if dropoff == "" {
		dropoff = trip.Route.Destination
	}

	ticket := model.Ticket{
		TripId:         req.TripId,
		SeatNumber:     seat.Number,
		SeatType:       seat.Type,
		PassengerName:  req.PassengerName,
		PassengerId:    req.PassengerId,
		PassengerEmail: req.PassengerEmail,
		BoardingStop:   boarding,
		DropoffStop:    dropoff,
		BasePrice:      base,
		SeatPremium:    premium,
		TotalPrice:     total,
		PaymentMethod:  req.PaymentMethod,
		QrCode:         uuid.NewString(),
		Status:         initialStatus(req),
	}

	created, err := ts.ticketRepo.Create(ctx, ticket)
	if err != nil {
		if errors.Is(err, myerrors.ErrSeatUnavailable) {
			ts.collector.SeatConflicts.Inc()
		}
		return model.Ticket{}, err
	}

	ts.holds.Drop(req.TripId, seat.Number)
	ts.collector.ActiveSeatHolds.Set(float64(ts.holds.Count()))
	ts.collector.TicketsSold.Inc()

	ts.publish(dto.SeatEvent{
		Type:       dto.EventSeatSold,
		TripId:     req.TripId,
		SeatNumber: seat.Number,
	})

	ts.mylog.Action("ticket_created").
		With("trip_id", created.TripId).
		With("seat", created.SeatNumber).
		With("status", created.Status).
		Info("ticket created")

	return created, nil
}

func initialStatus(req dto.TicketRequest) string {
	if req.Reserve {
		return model.TicketReserved
	}
	if req.PaymentMethod == model.PaymentCash || req.PaymentMethod == "" {
		return model.TicketPaid
	}
	return model.TicketPendingPayment
}

// ConfirmPayment moves a reserved or pending ticket to PAID.
func (ts *TicketService) ConfirmPayment(ticketId string) (model.Ticket, error) {
	return ts.transition(ticketId, model.TicketPaid,
		model.TicketReserved, model.TicketPendingPayment)
}

// UseTicket marks a paid ticket as used at boarding, looked up by QR code.
func (ts *TicketService) UseTicket(qrCode string) (model.Ticket, error) {
	ctx, cancel := context.WithTimeout(ts.ctx, repoTimeout)
	defer cancel()

	ticket, err := ts.ticketRepo.FindByQr(ctx, qrCode)
	if err != nil {
		return model.Ticket{}, err
	}
	if ticket.Status != model.TicketPaid {
		return model.Ticket{}, &myerrors.TransitionError{From: ticket.Status, To: model.TicketUsed}
	}

	if err := ts.ticketRepo.UpdateStatus(ctx, ticket.Id, model.TicketUsed); err != nil {
		return model.Ticket{}, err
	}
	ticket.Status = model.TicketUsed
	return ticket, nil
}

// CancelTicket voids a ticket and frees its seat. Used tickets stay used.
func (ts *TicketService) CancelTicket(ticketId string) (model.Ticket, error) {
	ticket, err := ts.transition(ticketId, model.TicketCancelled,
		model.TicketReserved, model.TicketPendingPayment, model.TicketPaid)
	if err != nil {
		return model.Ticket{}, err
	}

	ts.publish(dto.SeatEvent{
		Type:       dto.EventSeatReleased,
		TripId:     ticket.TripId,
		SeatNumber: ticket.SeatNumber,
	})
	return ticket, nil
}

func (ts *TicketService) transition(ticketId, to string, from ...string) (model.Ticket, error) {
	ctx, cancel := context.WithTimeout(ts.ctx, repoTimeout)
	defer cancel()

	ticket, err := ts.ticketRepo.FindById(ctx, ticketId)
	if err != nil {
		return model.Ticket{}, err
	}

	allowed := false
	for _, s := range from {
		if ticket.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return model.Ticket{}, &myerrors.TransitionError{From: ticket.Status, To: to}
	}

	if err := ts.ticketRepo.UpdateStatus(ctx, ticketId, to); err != nil {
		return model.Ticket{}, err
	}
	ticket.Status = to
	return ticket, nil
}

// GetTripSeats returns the seat map with occupancy and live holds.
func (ts *TicketService) GetTripSeats(tripId string) (dto.TripSeats, error) {
	ctx, cancel := context.WithTimeout(ts.ctx, repoTimeout)
	defer cancel()

	trip, err := ts.tripReader.FindTripInfo(ctx, tripId)
	if err != nil {
		return dto.TripSeats{}, err
	}

	tickets, err := ts.ticketRepo.ActiveByTrip(ctx, tripId)
	if err != nil {
		return dto.TripSeats{}, err
	}
	occupied := make(map[int]string, len(tickets))
	for _, t := range tickets {
		occupied[t.SeatNumber] = t.Status
	}
	held := ts.holds.HeldSeats(tripId)

	seats := make([]dto.SeatState, 0, len(trip.SeatLayout.Seats))
	available := 0
	for _, s := range trip.SeatLayout.Seats {
		status, taken := occupied[s.Number]
		_, isHeld := held[s.Number]
		if !taken {
			available++
		}
		seats = append(seats, dto.SeatState{
			Seat:     s,
			Occupied: taken,
			Held:     isHeld,
			Status:   status,
		})
	}

	return dto.TripSeats{
		TripId:         trip.Id,
		Date:           trip.Date.Format("2006-01-02"),
		DepartureTime:  trip.DepartureTime,
		Origin:         trip.Route.Origin,
		Destination:    trip.Route.Destination,
		BusPlate:       trip.BusPlate,
		TotalSeats:     trip.TotalSeats,
		AvailableSeats: available,
		Seats:          seats,
	}, nil
}

// QuoteFare prices a journey without creating anything.
func (ts *TicketService) QuoteFare(tripId string, seatNumber int, boarding, dropoff string) (dto.FareQuote, error) {
	ctx, cancel := context.WithTimeout(ts.ctx, repoTimeout)
	defer cancel()

	trip, err := ts.tripReader.FindTripInfo(ctx, tripId)
	if err != nil {
		return dto.FareQuote{}, err
	}
	seat, ok := trip.SeatLayout.Find(seatNumber)
	if !ok {
		return dto.FareQuote{}, &myerrors.ValidationError{Field: "seatNumber", Reason: "not on this bus"}
	}

	base, premium, total, err := ComputeFare(trip.Route, boarding, dropoff, seat.Type)
	if err != nil {
		return dto.FareQuote{}, err
	}

	if boarding == "" {
		boarding = trip.Route.Origin
	}
	if dropoff == "" {
		dropoff = trip.Route.Destination
	}

	return dto.FareQuote{
		BoardingStop: boarding,
		DropoffStop:  dropoff,
		SeatType:     seat.Type,
		BasePrice:    base,
		SeatPremium:  premium,
		TotalPrice:   total,
	}, nil
}

func (ts *TicketService) seatOccupied(ctx context.Context, tripId string, seat int) (bool, error) {
	tickets, err := ts.ticketRepo.ActiveByTrip(ctx, tripId)
	if err != nil {
		return false, err
	}
	for _, t := range tickets {
		if t.SeatNumber == seat {
			return true, nil
		}
	}
	return false, nil
}

func (ts *TicketService) publish(event dto.SeatEvent) {
	if ts.notifier != nil {
		ts.notifier.Broadcast(event.TripId, event)
	}
	if ts.broker == nil {
		return
	}
	if err := ts.broker.PublishSeatEvent(event); err != nil {
		ts.mylog.Action("seat_event_publish_failed").Error("failed to publish seat event", err)
	}
}

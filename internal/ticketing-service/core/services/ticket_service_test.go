package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busline/internal/metrics"
	"busline/internal/mylogger"
	"busline/internal/ticketing-service/core/domain/dto"
	"busline/internal/ticketing-service/core/domain/model"
	"busline/internal/ticketing-service/core/myerrors"
)

func testLogger(t *testing.T) mylogger.Logger {
	t.Helper()
	log, err := mylogger.New(mylogger.LevelError)
	require.NoError(t, err)
	return log
}

type fakeTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]model.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]model.Ticket{}}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket model.Ticket) (model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.tickets {
		if existing.TripId == ticket.TripId && existing.SeatNumber == ticket.SeatNumber &&
			occupies(existing.Status) {
			return model.Ticket{}, myerrors.ErrSeatUnavailable
		}
	}

	r.seq++
	ticket.Id = fmt.Sprintf("ticket-%d", r.seq)
	ticket.CreatedAt = time.Now()
	r.tickets[ticket.Id] = ticket
	return ticket, nil
}

func (r *fakeTicketRepo) FindById(_ context.Context, ticketId string) (model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[ticketId]
	if !ok {
		return model.Ticket{}, myerrors.ErrNotFound
	}
	return t, nil
}

func (r *fakeTicketRepo) FindByQr(_ context.Context, qrCode string) (model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tickets {
		if t.QrCode == qrCode {
			return t, nil
		}
	}
	return model.Ticket{}, myerrors.ErrNotFound
}

func (r *fakeTicketRepo) UpdateStatus(_ context.Context, ticketId, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[ticketId]
	if !ok {
		return myerrors.ErrNotFound
	}
	t.Status = status
	r.tickets[ticketId] = t
	return nil
}

func (r *fakeTicketRepo) ActiveByTrip(_ context.Context, tripId string) ([]model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.Ticket
	for _, t := range r.tickets {
		if t.TripId == tripId && occupies(t.Status) {
			out = append(out, t)
		}
	}
	return out, nil
}

func occupies(status string) bool {
	for _, s := range model.ActiveTicketStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type fakeTripReader struct {
	trips map[string]model.TripInfo
}

func (r *fakeTripReader) FindTripInfo(_ context.Context, tripId string) (model.TripInfo, error) {
	t, ok := r.trips[tripId]
	if !ok {
		return model.TripInfo{}, myerrors.ErrNotFound
	}
	return t, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []dto.SeatEvent
}

func (n *recordingNotifier) Broadcast(_ string, event dto.SeatEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) last() (dto.SeatEvent, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		return dto.SeatEvent{}, false
	}
	return n.events[len(n.events)-1], true
}

func testTripInfo() model.TripInfo {
	return model.TripInfo{
		Id:            "trip-1",
		CooperativaId: "coop-1",
		Date:          time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		DepartureTime: "08:00",
		Status:        "SCHEDULED",
		Route: model.Route{
			Origin:      "Quito",
			Destination: "Guayaquil",
			BasePrice:   3.50,
			Stops: []model.Stop{
				{Name: "Ambato", Order: 1, PriceFromOrigin: 1.20},
			},
		},
		BusPlate:   "ABC-123",
		TotalSeats: 4,
		SeatLayout: model.SeatLayout{
			Rows: 1, Columns: 4,
			Seats: []model.Seat{
				{Number: 1, Row: 1, Column: 1, Type: model.SeatVIP},
				{Number: 2, Row: 1, Column: 2, Type: model.SeatNormal},
				{Number: 3, Row: 1, Column: 3, Type: model.SeatNormal},
				{Number: 4, Row: 1, Column: 4, Type: model.SeatPremium},
			},
		},
	}
}

type ticketFixture struct {
	repo     *fakeTicketRepo
	reader   *fakeTripReader
	notifier *recordingNotifier
	holds    *HoldRegistry
	service  *TicketService
}

func newTicketFixture(t *testing.T) *ticketFixture {
	f := &ticketFixture{
		repo:     newFakeTicketRepo(),
		reader:   &fakeTripReader{trips: map[string]model.TripInfo{"trip-1": testTripInfo()}},
		notifier: &recordingNotifier{},
		holds:    NewHoldRegistry(5 * time.Minute),
	}
	f.service = NewTicketService(context.Background(), testLogger(t), metrics.NewCollector(),
		f.holds, f.repo, f.reader, nil, f.notifier)
	return f
}

func TestCreateTicketCashIsPaid(t *testing.T) {
	f := newTicketFixture(t)

	ticket, err := f.service.CreateTicket(dto.TicketRequest{
		TripId: "trip-1", SeatNumber: 2, PassengerName: "Maria",
		PaymentMethod: model.PaymentCash,
	})
	require.NoError(t, err)

	assert.Equal(t, model.TicketPaid, ticket.Status)
	assert.NotEmpty(t, ticket.QrCode)
	assert.Equal(t, "Quito", ticket.BoardingStop)
	assert.Equal(t, "Guayaquil", ticket.DropoffStop)
	assert.Equal(t, 3.50, ticket.TotalPrice)

	event, ok := f.notifier.last()
	require.True(t, ok)
	assert.Equal(t, dto.EventSeatSold, event.Type)
	assert.Equal(t, 2, event.SeatNumber)
}

func TestCreateTicketVIPFare(t *testing.T) {
	f := newTicketFixture(t)

	ticket, err := f.service.CreateTicket(dto.TicketRequest{
		TripId: "trip-1", SeatNumber: 1, PassengerName: "Maria",
		PaymentMethod: model.PaymentCash,
	})
	require.NoError(t, err)

	assert.Equal(t, model.SeatVIP, ticket.SeatType)
	assert.Equal(t, 3.50, ticket.BasePrice)
	assert.Equal(t, 1.05, ticket.SeatPremium)
	assert.Equal(t, 4.55, ticket.TotalPrice)
}

func TestCreateTicketSeatExclusive(t *testing.T) {
	f := newTicketFixture(t)

	req := dto.TicketRequest{
		TripId: "trip-1", SeatNumber: 2, PassengerName: "Maria",
		PaymentMethod: model.PaymentCash,
	}
	_, err := f.service.CreateTicket(req)
	require.NoError(t, err)

	req.PassengerName = "Pedro"
	_, err = f.service.CreateTicket(req)
	assert.ErrorIs(t, err, myerrors.ErrSeatUnavailable)
}

func TestCreateTicketCancelledSeatReusable(t *testing.T) {
	f := newTicketFixture(t)

	req := dto.TicketRequest{
		TripId: "trip-1", SeatNumber: 2, PassengerName: "Maria",
		PaymentMethod: model.PaymentCash,
	}
	first, err := f.service.CreateTicket(req)
	require.NoError(t, err)

	_, err = f.service.CancelTicket(first.Id)
	require.NoError(t, err)

	_, err = f.service.CreateTicket(req)
	assert.NoError(t, err)
}

func TestCreateTicketRespectsForeignHold(t *testing.T) {
	f := newTicketFixture(t)

	_, err := f.service.HoldSeat(dto.HoldRequest{TripId: "trip-1", SeatNumber: 2, SessionId: "session-a"})
	require.NoError(t, err)

	req := dto.TicketRequest{
		TripId: "trip-1", SeatNumber: 2, PassengerName: "Pedro",
		PaymentMethod: model.PaymentCash, SessionId: "session-b",
	}
	_, err = f.service.CreateTicket(req)
	assert.ErrorIs(t, err, myerrors.ErrSeatHeld)

	// The hold owner buys the seat and the hold is dropped.
	req.SessionId = "session-a"
	_, err = f.service.CreateTicket(req)
	require.NoError(t, err)
	assert.Empty(t, f.holds.HeldSeats("trip-1"))
}

func TestCreateTicketUnknownSeat(t *testing.T) {
	f := newTicketFixture(t)

	_, err := f.service.CreateTicket(dto.TicketRequest{
		TripId: "trip-1", SeatNumber: 99, PassengerName: "Maria",
	})
	var validation *myerrors.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestCreateTicketTripNotOpen(t *testing.T) {
	f := newTicketFixture(t)

	trip := testTripInfo()
	trip.Status = "CANCELLED"
	f.reader.trips["trip-1"] = trip

	_, err := f.service.CreateTicket(dto.TicketRequest{
		TripId: "trip-1", SeatNumber: 2, PassengerName: "Maria",
	})
	assert.ErrorIs(t, err, myerrors.ErrTripNotOpen)
}

func TestTicketLifecycle(t *testing.T) {
	f := newTicketFixture(t)

	ticket, err := f.service.CreateTicket(dto.TicketRequest{
		TripId: "trip-1", SeatNumber: 2, PassengerName: "Maria",
		PaymentMethod: model.PaymentPaypal,
	})
	require.NoError(t, err)
	require.Equal(t, model.TicketPendingPayment, ticket.Status)

	// Boarding before paying is rejected.
	_, err = f.service.UseTicket(ticket.QrCode)
	var transition *myerrors.TransitionError
	assert.ErrorAs(t, err, &transition)

	paid, err := f.service.ConfirmPayment(ticket.Id)
	require.NoError(t, err)
	assert.Equal(t, model.TicketPaid, paid.Status)

	used, err := f.service.UseTicket(ticket.QrCode)
	require.NoError(t, err)
	assert.Equal(t, model.TicketUsed, used.Status)

	// A used ticket cannot be cancelled or re-paid.
	_, err = f.service.CancelTicket(ticket.Id)
	assert.ErrorAs(t, err, &transition)
	_, err = f.service.ConfirmPayment(ticket.Id)
	assert.ErrorAs(t, err, &transition)
}

func TestReservedTicketCanBePaidOrCancelled(t *testing.T) {
	f := newTicketFixture(t)

	ticket, err := f.service.CreateTicket(dto.TicketRequest{
		TripId: "trip-1", SeatNumber: 2, PassengerName: "Maria", Reserve: true,
	})
	require.NoError(t, err)
	require.Equal(t, model.TicketReserved, ticket.Status)

	paid, err := f.service.ConfirmPayment(ticket.Id)
	require.NoError(t, err)
	assert.Equal(t, model.TicketPaid, paid.Status)

	cancelled, err := f.service.CancelTicket(ticket.Id)
	require.NoError(t, err)
	assert.Equal(t, model.TicketCancelled, cancelled.Status)
}

func TestHoldSeat(t *testing.T) {
	f := newTicketFixture(t)

	hold, err := f.service.HoldSeat(dto.HoldRequest{TripId: "trip-1", SeatNumber: 3})
	require.NoError(t, err)
	assert.NotEmpty(t, hold.SessionId)
	assert.True(t, hold.LockedUntil.After(time.Now()))

	event, ok := f.notifier.last()
	require.True(t, ok)
	assert.Equal(t, dto.EventSeatLocked, event.Type)

	// A second session is told no.
	_, err = f.service.HoldSeat(dto.HoldRequest{TripId: "trip-1", SeatNumber: 3, SessionId: "other"})
	assert.ErrorIs(t, err, myerrors.ErrSeatHeld)
}

func TestHoldSeatAlreadySold(t *testing.T) {
	f := newTicketFixture(t)

	_, err := f.service.CreateTicket(dto.TicketRequest{
		TripId: "trip-1", SeatNumber: 3, PassengerName: "Maria",
		PaymentMethod: model.PaymentCash,
	})
	require.NoError(t, err)

	_, err = f.service.HoldSeat(dto.HoldRequest{TripId: "trip-1", SeatNumber: 3})
	assert.ErrorIs(t, err, myerrors.ErrSeatUnavailable)
}

func TestGetTripSeats(t *testing.T) {
	f := newTicketFixture(t)

	_, err := f.service.CreateTicket(dto.TicketRequest{
		TripId: "trip-1", SeatNumber: 1, PassengerName: "Maria",
		PaymentMethod: model.PaymentCash,
	})
	require.NoError(t, err)
	_, err = f.service.HoldSeat(dto.HoldRequest{TripId: "trip-1", SeatNumber: 2, SessionId: "s"})
	require.NoError(t, err)

	seats, err := f.service.GetTripSeats("trip-1")
	require.NoError(t, err)

	assert.Equal(t, 4, seats.TotalSeats)
	assert.Equal(t, 3, seats.AvailableSeats)
	require.Len(t, seats.Seats, 4)
	assert.True(t, seats.Seats[0].Occupied)
	assert.Equal(t, model.TicketPaid, seats.Seats[0].Status)
	assert.True(t, seats.Seats[1].Held)
	assert.False(t, seats.Seats[1].Occupied)
	assert.False(t, seats.Seats[2].Occupied)
}

func TestQuoteFare(t *testing.T) {
	f := newTicketFixture(t)

	quote, err := f.service.QuoteFare("trip-1", 4, "", "Ambato")
	require.NoError(t, err)

	assert.Equal(t, model.SeatPremium, quote.SeatType)
	assert.Equal(t, 1.20, quote.BasePrice)
	assert.Equal(t, 0.60, quote.SeatPremium)
	assert.Equal(t, 1.80, quote.TotalPrice)
	assert.Equal(t, "Quito", quote.BoardingStop)
	assert.Equal(t, "Ambato", quote.DropoffStop)
}

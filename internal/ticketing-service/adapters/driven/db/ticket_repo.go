package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"busline/internal/ticketing-service/core/domain/model"
	"busline/internal/ticketing-service/core/myerrors"
	"busline/internal/ticketing-service/core/ports"
)

type TicketRepo struct {
	db *DB
}

func NewTicketRepo(db *DB) ports.ITicketRepo {
	return &TicketRepo{
		db: db,
	}
}

const ticketColumns = `
	ticket_id,
	trip_id,
	seat_number,
	seat_type,
	passenger_name,
	COALESCE(passenger_id, ''),
	COALESCE(passenger_email, ''),
	boarding_stop,
	dropoff_stop,
	base_price,
	seat_premium,
	total_price,
	payment_method,
	qr_code,
	status,
	created_at`

// Create relies on the partial unique index over active tickets:
// a concurrent insert for the same seat lands on the index and is
// dropped, which surfaces here as ErrSeatUnavailable.
func (tr *TicketRepo) Create(ctx context.Context, ticket model.Ticket) (model.Ticket, error) {
	q := `
	INSERT INTO tickets (
		trip_id, seat_number, seat_type, passenger_name, passenger_id,
		passenger_email, boarding_stop, dropoff_stop, base_price,
		seat_premium, total_price, payment_method, qr_code, status
	)
	SELECT $1, $2, $3, $4, NULLIF($5, '')::uuid, NULLIF($6, ''),
	       $7, $8, $9, $10, $11, $12, $13, $14
	WHERE NOT EXISTS (
		SELECT 1 FROM tickets
		WHERE trip_id = $1
		  AND seat_number = $2
		  AND status IN ('RESERVED', 'PAID', 'USED')
	)
	ON CONFLICT (trip_id, seat_number) WHERE status IN ('RESERVED', 'PAID', 'USED') DO NOTHING
	RETURNING ticket_id, created_at`

	row := tr.db.conn.QueryRow(ctx, q,
		ticket.TripId,
		ticket.SeatNumber,
		ticket.SeatType,
		ticket.PassengerName,
		ticket.PassengerId,
		ticket.PassengerEmail,
		ticket.BoardingStop,
		ticket.DropoffStop,
		ticket.BasePrice,
		ticket.SeatPremium,
		ticket.TotalPrice,
		ticket.PaymentMethod,
		ticket.QrCode,
		ticket.Status,
	)
	if err := row.Scan(&ticket.Id, &ticket.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Ticket{}, myerrors.ErrSeatUnavailable
		}
		return model.Ticket{}, err
	}
	return ticket, nil
}

func (tr *TicketRepo) FindById(ctx context.Context, ticketId string) (model.Ticket, error) {
	q := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_id = $1`
	return tr.scanTicket(tr.db.conn.QueryRow(ctx, q, ticketId))
}

func (tr *TicketRepo) FindByQr(ctx context.Context, qrCode string) (model.Ticket, error) {
	q := `SELECT ` + ticketColumns + ` FROM tickets WHERE qr_code = $1`
	return tr.scanTicket(tr.db.conn.QueryRow(ctx, q, qrCode))
}

func (tr *TicketRepo) UpdateStatus(ctx context.Context, ticketId, status string) error {
	q := `UPDATE tickets SET status = $2 WHERE ticket_id = $1`

	tag, err := tr.db.conn.Exec(ctx, q, ticketId, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return myerrors.ErrNotFound
	}
	return nil
}

func (tr *TicketRepo) ActiveByTrip(ctx context.Context, tripId string) ([]model.Ticket, error) {
	q := `
	SELECT ` + ticketColumns + `
	FROM tickets
	WHERE trip_id = $1
	  AND status IN ('RESERVED', 'PAID', 'USED')
	ORDER BY seat_number`

	rows, err := tr.db.conn.Query(ctx, q, tripId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := []model.Ticket{}
	for rows.Next() {
		t, err := tr.scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (tr *TicketRepo) scanTicket(row pgx.Row) (model.Ticket, error) {
	t := model.Ticket{}
	err := row.Scan(
		&t.Id,
		&t.TripId,
		&t.SeatNumber,
		&t.SeatType,
		&t.PassengerName,
		&t.PassengerId,
		&t.PassengerEmail,
		&t.BoardingStop,
		&t.DropoffStop,
		&t.BasePrice,
		&t.SeatPremium,
		&t.TotalPrice,
		&t.PaymentMethod,
		&t.QrCode,
		&t.Status,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Ticket{}, myerrors.ErrNotFound
		}
		return model.Ticket{}, err
	}
	return t, nil
}

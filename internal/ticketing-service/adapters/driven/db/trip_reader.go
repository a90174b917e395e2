package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"busline/internal/ticketing-service/core/domain/model"
	"busline/internal/ticketing-service/core/myerrors"
	"busline/internal/ticketing-service/core/ports"
)

type TripReader struct {
	db *DB
}

func NewTripReader(db *DB) ports.ITripReader {
	return &TripReader{
		db: db,
	}
}

func (tr *TripReader) FindTripInfo(ctx context.Context, tripId string) (model.TripInfo, error) {
	q := `
	SELECT
		t.trip_id,
		r.cooperativa_id,
		t.date,
		t.departure_time,
		t.status,
		r.route_id,
		r.origin,
		r.destination,
		r.stops,
		r.base_price,
		b.plate,
		b.total_seats,
		b.seat_layout
	FROM trips t
	JOIN frequencies f ON f.frequency_id = t.frequency_id
	JOIN routes r ON r.route_id = f.route_id
	JOIN buses b ON b.bus_id = t.bus_id
	WHERE t.trip_id = $1`

	info := model.TripInfo{}
	var stopsRaw, layoutRaw []byte

	row := tr.db.conn.QueryRow(ctx, q, tripId)
	err := row.Scan(
		&info.Id,
		&info.CooperativaId,
		&info.Date,
		&info.DepartureTime,
		&info.Status,
		&info.Route.Id,
		&info.Route.Origin,
		&info.Route.Destination,
		&stopsRaw,
		&info.Route.BasePrice,
		&info.BusPlate,
		&info.TotalSeats,
		&layoutRaw,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.TripInfo{}, myerrors.ErrNotFound
		}
		return model.TripInfo{}, err
	}

	if len(stopsRaw) > 0 {
		if err := json.Unmarshal(stopsRaw, &info.Route.Stops); err != nil {
			return model.TripInfo{}, fmt.Errorf("decode route stops: %w", err)
		}
	}
	if len(layoutRaw) > 0 {
		if err := json.Unmarshal(layoutRaw, &info.SeatLayout); err != nil {
			return model.TripInfo{}, fmt.Errorf("decode seat layout: %w", err)
		}
	}
	if len(info.SeatLayout.Seats) == 0 {
		info.SeatLayout = defaultLayout(info.TotalSeats)
	}

	return info, nil
}

// defaultLayout builds a plain 2+2 layout for buses registered without
// an explicit seat map. All seats are NORMAL.
func defaultLayout(totalSeats int) model.SeatLayout {
	const perRow = 4

	layout := model.SeatLayout{
		Columns: perRow,
		Seats:   make([]model.Seat, 0, totalSeats),
	}
	for n := 1; n <= totalSeats; n++ {
		layout.Seats = append(layout.Seats, model.Seat{
			Number: n,
			Row:    (n-1)/perRow + 1,
			Column: (n-1)%perRow + 1,
			Type:   model.SeatNormal,
		})
	}
	layout.Rows = (totalSeats + perRow - 1) / perRow
	return layout
}

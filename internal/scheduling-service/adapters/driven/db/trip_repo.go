package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"busline/internal/scheduling-service/core/domain/model"
	"busline/internal/scheduling-service/core/myerrors"
	"busline/internal/scheduling-service/core/ports"
)

type TripRepo struct {
	db *DB
}

func NewTripRepo(db *DB) ports.ITripRepo {
	return &TripRepo{
		db: db,
	}
}

const tripDetailColumns = `
	t.trip_id,
	t.frequency_id,
	t.bus_id,
	t.date,
	t.departure_time,
	COALESCE(t.driver_id::text, ''),
	COALESCE(t.assistant_id::text, ''),
	t.status,
	r.route_id,
	r.cooperativa_id,
	r.origin,
	r.destination,
	r.stops,
	r.base_price,
	r.estimated_duration,
	r.distance_km,
	r.is_active`

func (tr *TripRepo) CountGroupSlot(ctx context.Context, date time.Time, departureTime string, busIds []string) (int, error) {
	q := `
	SELECT COUNT(*)
	FROM trips
	WHERE date = $1
	  AND departure_time = $2
	  AND bus_id = ANY($3::uuid[])
	  AND status <> 'CANCELLED'`

	count := 0
	row := tr.db.conn.QueryRow(ctx, q, date, departureTime, busIds)
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (tr *TripRepo) RecentByBus(ctx context.Context, busId string, before time.Time, limit int) ([]model.TripDetail, error) {
	q := `
	SELECT ` + tripDetailColumns + `
	FROM trips t
	JOIN frequencies f ON f.frequency_id = t.frequency_id
	JOIN routes r ON r.route_id = f.route_id
	WHERE t.bus_id = $1
	  AND t.date <= $2
	ORDER BY t.date DESC, t.departure_time DESC
	LIMIT $3`

	return tr.queryTripDetails(ctx, q, busId, before, limit)
}

func (tr *TripRepo) Exists(ctx context.Context, frequencyId string, date time.Time, busId string) (bool, error) {
	q := `
	SELECT EXISTS(
		SELECT 1
		FROM trips
		WHERE frequency_id = $1
		  AND date = $2
		  AND bus_id = $3
		  AND status <> 'CANCELLED'
	)`

	exists := false
	row := tr.db.conn.QueryRow(ctx, q, frequencyId, date, busId)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Create relies on the partial unique index on (frequency_id, date, bus_id)
// among non-cancelled rows, so two concurrent generators cannot both claim
// the same slot.
func (tr *TripRepo) Create(ctx context.Context, t model.Trip) (string, error) {
	q := `
	INSERT INTO trips (
		frequency_id,
		bus_id,
		date,
		departure_time,
		driver_id,
		assistant_id,
		status
	) VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid, NULLIF($6, '')::uuid, $7)
	ON CONFLICT (frequency_id, date, bus_id) WHERE status <> 'CANCELLED' DO NOTHING
	RETURNING trip_id`

	id := ""
	row := tr.db.conn.QueryRow(ctx, q,
		t.FrequencyId,
		t.BusId,
		t.Date,
		t.DepartureTime,
		t.DriverId,
		t.AssistantId,
		t.Status,
	)
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", myerrors.ErrDuplicateTrip
		}
		return "", err
	}
	return id, nil
}

func (tr *TripRepo) Update(ctx context.Context, t model.Trip) error {
	q := `
	UPDATE trips
	SET
		bus_id = $2,
		date = $3,
		departure_time = $4,
		driver_id = NULLIF($5, '')::uuid,
		assistant_id = NULLIF($6, '')::uuid,
		status = $7
	WHERE trip_id = $1`

	cmd, err := tr.db.conn.Exec(ctx, q,
		t.Id,
		t.BusId,
		t.Date,
		t.DepartureTime,
		t.DriverId,
		t.AssistantId,
		t.Status,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return myerrors.ErrNotFound
	}
	return nil
}

func (tr *TripRepo) UpdateStatus(ctx context.Context, id, status string) error {
	q := `UPDATE trips SET status = $2 WHERE trip_id = $1`

	cmd, err := tr.db.conn.Exec(ctx, q, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return myerrors.ErrNotFound
	}
	return nil
}

func (tr *TripRepo) UpdatePersonnel(ctx context.Context, id, driverId, assistantId string) error {
	q := `
	UPDATE trips
	SET driver_id = NULLIF($2, '')::uuid, assistant_id = NULLIF($3, '')::uuid
	WHERE trip_id = $1`

	cmd, err := tr.db.conn.Exec(ctx, q, id, driverId, assistantId)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return myerrors.ErrNotFound
	}
	return nil
}

func (tr *TripRepo) FindById(ctx context.Context, id string) (model.TripDetail, error) {
	q := `
	SELECT ` + tripDetailColumns + `
	FROM trips t
	JOIN frequencies f ON f.frequency_id = t.frequency_id
	JOIN routes r ON r.route_id = f.route_id
	WHERE t.trip_id = $1`

	details, err := tr.queryTripDetails(ctx, q, id)
	if err != nil {
		return model.TripDetail{}, err
	}
	if len(details) == 0 {
		return model.TripDetail{}, myerrors.ErrNotFound
	}
	return details[0], nil
}

func (tr *TripRepo) DriverTripsOn(ctx context.Context, driverId string, date time.Time, excludeTripId string) ([]model.TripDetail, error) {
	q := `
	SELECT ` + tripDetailColumns + `
	FROM trips t
	JOIN frequencies f ON f.frequency_id = t.frequency_id
	JOIN routes r ON r.route_id = f.route_id
	WHERE t.driver_id = $1
	  AND t.date = $2
	  AND t.status <> 'CANCELLED'
	  AND ($3 = '' OR t.trip_id::text <> $3)`

	return tr.queryTripDetails(ctx, q, driverId, date, excludeTripId)
}

func (tr *TripRepo) DriverHasInProgress(ctx context.Context, driverId, excludeTripId string) (bool, error) {
	q := `
	SELECT EXISTS(
		SELECT 1
		FROM trips
		WHERE driver_id = $1
		  AND status = 'IN_PROGRESS'
		  AND ($2 = '' OR trip_id::text <> $2)
	)`

	busy := false
	row := tr.db.conn.QueryRow(ctx, q, driverId, excludeTripId)
	if err := row.Scan(&busy); err != nil {
		return false, err
	}
	return busy, nil
}

func (tr *TripRepo) SearchScheduled(ctx context.Context, origin, destination string, date time.Time) ([]model.TripSearchResult, error) {
	q := `
	SELECT ` + tripDetailColumns + `,
		b.total_seats,
		(SELECT COUNT(*)
		 FROM tickets tk
		 WHERE tk.trip_id = t.trip_id
		   AND tk.status IN ('PAID', 'RESERVED')) AS sold_seats
	FROM trips t
	JOIN frequencies f ON f.frequency_id = t.frequency_id
	JOIN routes r ON r.route_id = f.route_id
	JOIN buses b ON b.bus_id = t.bus_id
	WHERE t.status = 'SCHEDULED'
	  AND t.date = $3
	  AND f.is_active = true
	  AND r.is_active = true
	  AND r.origin ILIKE $1
	  AND r.destination ILIKE $2
	ORDER BY t.departure_time ASC`

	rows, err := tr.db.conn.Query(ctx, q, origin, destination, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TripSearchResult
	for rows.Next() {
		var res model.TripSearchResult
		var stopsRaw []byte
		err := rows.Scan(
			&res.Id,
			&res.FrequencyId,
			&res.BusId,
			&res.Date,
			&res.DepartureTime,
			&res.DriverId,
			&res.AssistantId,
			&res.Status,
			&res.Route.Id,
			&res.Route.CooperativaId,
			&res.Route.Origin,
			&res.Route.Destination,
			&stopsRaw,
			&res.Route.BasePrice,
			&res.Route.EstimatedDuration,
			&res.Route.DistanceKm,
			&res.Route.IsActive,
			&res.TotalSeats,
			&res.SoldSeats,
		)
		if err != nil {
			return nil, err
		}
		if err := decodeStops(stopsRaw, &res.Route.Stops); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (tr *TripRepo) ForRouteSheet(ctx context.Context, busIds []string, from, to time.Time) ([]model.RouteSheetTrip, error) {
	q := `
	SELECT ` + tripDetailColumns + `,
		COALESCE(du.first_name || ' ' || du.last_name, ''),
		COALESCE(au.first_name || ' ' || au.last_name, ''),
		(SELECT COUNT(*)
		 FROM tickets tk
		 WHERE tk.trip_id = t.trip_id
		   AND tk.status IN ('PAID', 'RESERVED')) AS passenger_count
	FROM trips t
	JOIN frequencies f ON f.frequency_id = t.frequency_id
	JOIN routes r ON r.route_id = f.route_id
	LEFT JOIN users du ON du.user_id = t.driver_id
	LEFT JOIN users au ON au.user_id = t.assistant_id
	WHERE t.bus_id = ANY($1::uuid[])
	  AND t.date BETWEEN $2 AND $3
	  AND t.status <> 'CANCELLED'
	ORDER BY t.date ASC, t.departure_time ASC`

	rows, err := tr.db.conn.Query(ctx, q, busIds, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RouteSheetTrip
	for rows.Next() {
		var rst model.RouteSheetTrip
		var stopsRaw []byte
		err := rows.Scan(
			&rst.Id,
			&rst.FrequencyId,
			&rst.BusId,
			&rst.Date,
			&rst.DepartureTime,
			&rst.DriverId,
			&rst.AssistantId,
			&rst.Status,
			&rst.Route.Id,
			&rst.Route.CooperativaId,
			&rst.Route.Origin,
			&rst.Route.Destination,
			&stopsRaw,
			&rst.Route.BasePrice,
			&rst.Route.EstimatedDuration,
			&rst.Route.DistanceKm,
			&rst.Route.IsActive,
			&rst.DriverName,
			&rst.AssistantName,
			&rst.PassengerCount,
		)
		if err != nil {
			return nil, err
		}
		if err := decodeStops(stopsRaw, &rst.Route.Stops); err != nil {
			return nil, err
		}
		out = append(out, rst)
	}
	return out, rows.Err()
}

func (tr *TripRepo) queryTripDetails(ctx context.Context, q string, args ...any) ([]model.TripDetail, error) {
	rows, err := tr.db.conn.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TripDetail
	for rows.Next() {
		var d model.TripDetail
		var stopsRaw []byte
		err := rows.Scan(
			&d.Id,
			&d.FrequencyId,
			&d.BusId,
			&d.Date,
			&d.DepartureTime,
			&d.DriverId,
			&d.AssistantId,
			&d.Status,
			&d.Route.Id,
			&d.Route.CooperativaId,
			&d.Route.Origin,
			&d.Route.Destination,
			&stopsRaw,
			&d.Route.BasePrice,
			&d.Route.EstimatedDuration,
			&d.Route.DistanceKm,
			&d.Route.IsActive,
		)
		if err != nil {
			return nil, err
		}
		if err := decodeStops(stopsRaw, &d.Route.Stops); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func decodeStops(raw []byte, stops *[]model.Stop) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, stops); err != nil {
		return fmt.Errorf("decode route stops: %w", err)
	}
	return nil
}

package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"busline/internal/scheduling-service/core/domain/model"
	"busline/internal/scheduling-service/core/myerrors"
	"busline/internal/scheduling-service/core/ports"
)

type FrequencyRepo struct {
	db *DB
}

func NewFrequencyRepo(db *DB) ports.IFrequencyRepo {
	return &FrequencyRepo{
		db: db,
	}
}

func (fr *FrequencyRepo) Create(ctx context.Context, f model.Frequency) (string, error) {
	q := `
	INSERT INTO frequencies (
		cooperativa_id,
		route_id,
		bus_group_id,
		departure_time,
		operating_days,
		is_active,
		ant_permit_number
	) VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
	RETURNING frequency_id`

	conn := fr.db.conn
	id := ""
	row := conn.QueryRow(ctx, q,
		f.CooperativaId,
		f.RouteId,
		f.BusGroupId,
		f.DepartureTime,
		daysToStrings(f.OperatingDays),
		f.IsActive,
		f.AntPermitNumber,
	)
	if err := row.Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (fr *FrequencyRepo) Update(ctx context.Context, f model.Frequency) error {
	q := `
	UPDATE frequencies
	SET
		bus_group_id = NULLIF($2, ''),
		departure_time = $3,
		operating_days = $4,
		ant_permit_number = $5
	WHERE frequency_id = $1`

	cmd, err := fr.db.conn.Exec(ctx, q,
		f.Id,
		f.BusGroupId,
		f.DepartureTime,
		daysToStrings(f.OperatingDays),
		f.AntPermitNumber,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return myerrors.ErrNotFound
	}
	return nil
}

func (fr *FrequencyRepo) Deactivate(ctx context.Context, id string) error {
	q := `UPDATE frequencies SET is_active = false WHERE frequency_id = $1`

	cmd, err := fr.db.conn.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return myerrors.ErrNotFound
	}
	return nil
}

func (fr *FrequencyRepo) FindById(ctx context.Context, id string) (model.Frequency, error) {
	q := `
	SELECT
		frequency_id,
		cooperativa_id,
		route_id,
		COALESCE(bus_group_id::text, ''),
		departure_time,
		operating_days,
		is_active,
		COALESCE(ant_permit_number, '')
	FROM frequencies
	WHERE frequency_id = $1`

	row := fr.db.conn.QueryRow(ctx, q, id)
	f, err := scanFrequency(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Frequency{}, myerrors.ErrNotFound
	}
	return f, err
}

func (fr *FrequencyRepo) ActiveByBusGroup(ctx context.Context, busGroupId, excludeId string) ([]model.Frequency, error) {
	q := `
	SELECT
		frequency_id,
		cooperativa_id,
		route_id,
		COALESCE(bus_group_id::text, ''),
		departure_time,
		operating_days,
		is_active,
		COALESCE(ant_permit_number, '')
	FROM frequencies
	WHERE bus_group_id = $1
	  AND is_active = true
	  AND ($2 = '' OR frequency_id::text <> $2)`

	rows, err := fr.db.conn.Query(ctx, q, busGroupId, excludeId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Frequency
	for rows.Next() {
		f, err := scanFrequency(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (fr *FrequencyRepo) ForGeneration(ctx context.Context, ids []string, cooperativaId string) ([]model.FrequencyDetail, error) {
	q := `
	SELECT
		f.frequency_id,
		f.cooperativa_id,
		f.route_id,
		COALESCE(f.bus_group_id::text, ''),
		f.departure_time,
		f.operating_days,
		f.is_active,
		COALESCE(f.ant_permit_number, ''),
		r.route_id,
		r.cooperativa_id,
		r.origin,
		r.destination,
		r.stops,
		r.base_price,
		r.estimated_duration,
		r.distance_km,
		r.is_active
	FROM frequencies f
	JOIN routes r ON r.route_id = f.route_id
	WHERE f.is_active = true
	  AND (cardinality($1::uuid[]) = 0 OR f.frequency_id = ANY($1::uuid[]))
	  AND ($2 = '' OR f.cooperativa_id::text = $2)
	ORDER BY f.departure_time ASC`

	rows, err := fr.db.conn.Query(ctx, q, ids, cooperativaId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.FrequencyDetail
	for rows.Next() {
		var d model.FrequencyDetail
		var days []string
		var stopsRaw []byte
		err := rows.Scan(
			&d.Id,
			&d.CooperativaId,
			&d.RouteId,
			&d.BusGroupId,
			&d.DepartureTime,
			&days,
			&d.IsActive,
			&d.AntPermitNumber,
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
		d.OperatingDays = daysFromStrings(days)
		if len(stopsRaw) > 0 {
			if err := json.Unmarshal(stopsRaw, &d.Route.Stops); err != nil {
				return nil, fmt.Errorf("decode route stops: %w", err)
			}
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Resolve the ACTIVE buses of each group, ordered by internal number.
	for i := range out {
		if out[i].BusGroupId == "" {
			continue
		}
		buses, err := activeGroupBuses(ctx, fr.db.conn, out[i].BusGroupId)
		if err != nil {
			return nil, err
		}
		out[i].Buses = buses
	}
	return out, nil
}

func (fr *FrequencyRepo) FindDetail(ctx context.Context, id string) (model.FrequencyDetail, error) {
	details, err := fr.ForGeneration(ctx, []string{id}, "")
	if err != nil {
		return model.FrequencyDetail{}, err
	}
	if len(details) == 0 {
		return model.FrequencyDetail{}, myerrors.ErrNotFound
	}
	return details[0], nil
}

func scanFrequency(row pgx.Row) (model.Frequency, error) {
	var f model.Frequency
	var days []string
	err := row.Scan(
		&f.Id,
		&f.CooperativaId,
		&f.RouteId,
		&f.BusGroupId,
		&f.DepartureTime,
		&days,
		&f.IsActive,
		&f.AntPermitNumber,
	)
	if err != nil {
		return model.Frequency{}, err
	}
	f.OperatingDays = daysFromStrings(days)
	return f, nil
}

func daysToStrings(days []model.Weekday) []string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, string(d))
	}
	return out
}

func daysFromStrings(days []string) []model.Weekday {
	out := make([]model.Weekday, 0, len(days))
	for _, d := range days {
		out = append(out, model.Weekday(d))
	}
	return out
}

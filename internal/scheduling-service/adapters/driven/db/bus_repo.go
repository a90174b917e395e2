package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"busline/internal/scheduling-service/core/domain/model"
	"busline/internal/scheduling-service/core/myerrors"
	"busline/internal/scheduling-service/core/ports"
)

type BusRepo struct {
	db *DB
}

func NewBusRepo(db *DB) ports.IBusRepo {
	return &BusRepo{
		db: db,
	}
}

func (br *BusRepo) FindById(ctx context.Context, id string) (model.Bus, error) {
	q := `
	SELECT
		bus_id,
		cooperativa_id,
		plate,
		internal_number,
		status,
		total_seats
	FROM buses
	WHERE bus_id = $1`

	var b model.Bus
	row := br.db.conn.QueryRow(ctx, q, id)
	err := row.Scan(&b.Id, &b.CooperativaId, &b.Plate, &b.InternalNumber, &b.Status, &b.TotalSeats)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Bus{}, myerrors.ErrNotFound
	}
	return b, err
}

func (br *BusRepo) GroupWithBuses(ctx context.Context, groupId string) (model.BusGroup, error) {
	q := `
	SELECT
		bus_group_id,
		cooperativa_id,
		name
	FROM bus_groups
	WHERE bus_group_id = $1`

	var g model.BusGroup
	row := br.db.conn.QueryRow(ctx, q, groupId)
	if err := row.Scan(&g.Id, &g.CooperativaId, &g.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.BusGroup{}, myerrors.ErrNotFound
		}
		return model.BusGroup{}, err
	}

	buses, err := groupBuses(ctx, br.db.conn, groupId)
	if err != nil {
		return model.BusGroup{}, err
	}
	g.Buses = buses
	return g, nil
}

func groupBuses(ctx context.Context, conn *pgx.Conn, groupId string) ([]model.Bus, error) {
	q := `
	SELECT
		bus_id,
		cooperativa_id,
		plate,
		internal_number,
		status,
		total_seats
	FROM buses
	WHERE bus_group_id = $1
	ORDER BY internal_number ASC`

	return queryBuses(ctx, conn, q, groupId)
}

func activeGroupBuses(ctx context.Context, conn *pgx.Conn, groupId string) ([]model.Bus, error) {
	q := `
	SELECT
		bus_id,
		cooperativa_id,
		plate,
		internal_number,
		status,
		total_seats
	FROM buses
	WHERE bus_group_id = $1
	  AND status = 'ACTIVE'
	ORDER BY internal_number ASC`

	return queryBuses(ctx, conn, q, groupId)
}

func queryBuses(ctx context.Context, conn *pgx.Conn, q string, args ...any) ([]model.Bus, error) {
	rows, err := conn.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Bus
	for rows.Next() {
		var b model.Bus
		if err := rows.Scan(&b.Id, &b.CooperativaId, &b.Plate, &b.InternalNumber, &b.Status, &b.TotalSeats); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

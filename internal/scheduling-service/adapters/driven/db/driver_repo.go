package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"busline/internal/scheduling-service/core/domain/model"
	"busline/internal/scheduling-service/core/myerrors"
	"busline/internal/scheduling-service/core/ports"
)

type DriverRepo struct {
	db *DB
}

func NewDriverRepo(db *DB) ports.IDriverRepo {
	return &DriverRepo{
		db: db,
	}
}

func (dr *DriverRepo) FindById(ctx context.Context, id string) (model.Driver, error) {
	q := `
	SELECT
		user_id,
		cooperativa_id,
		first_name,
		last_name,
		email,
		role,
		status
	FROM users
	WHERE user_id = $1`

	var d model.Driver
	row := dr.db.conn.QueryRow(ctx, q, id)
	err := row.Scan(&d.Id, &d.CooperativaId, &d.FirstName, &d.LastName, &d.Email, &d.Role, &d.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Driver{}, myerrors.ErrNotFound
	}
	return d, err
}

func (dr *DriverRepo) ActiveByCooperativa(ctx context.Context, cooperativaId string) ([]model.Driver, error) {
	q := `
	SELECT
		user_id,
		cooperativa_id,
		first_name,
		last_name,
		email,
		role,
		status
	FROM users
	WHERE cooperativa_id = $1
	  AND role = 'DRIVER'
	  AND status = 'ACTIVE'
	ORDER BY created_at ASC`

	rows, err := dr.db.conn.Query(ctx, q, cooperativaId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Driver
	for rows.Next() {
		var d model.Driver
		if err := rows.Scan(&d.Id, &d.CooperativaId, &d.FirstName, &d.LastName, &d.Email, &d.Role, &d.Status); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (dr *DriverRepo) Create(ctx context.Context, d model.Driver, passwordHash []byte) (string, error) {
	q := `
	INSERT INTO users (
		cooperativa_id,
		first_name,
		last_name,
		email,
		password_hash,
		role,
		status
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING user_id`

	id := ""
	row := dr.db.conn.QueryRow(ctx, q,
		d.CooperativaId,
		d.FirstName,
		d.LastName,
		d.Email,
		passwordHash,
		d.Role,
		d.Status,
	)
	if err := row.Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const activeVehicleNumberExists = `-- name: ActiveVehicleNumberExists :one
SELECT EXISTS (
    SELECT 1 FROM vehicles
    WHERE company_id = $1 AND active AND lower(btrim(number)) = lower(btrim($2::text))
)
`

type ActiveVehicleNumberExistsParams struct {
	CompanyID string `json:"company_id"`
	Number    string `json:"number"`
}

func (q *Queries) ActiveVehicleNumberExists(ctx context.Context, arg ActiveVehicleNumberExistsParams) (bool, error) {
	row := q.db.QueryRow(ctx, activeVehicleNumberExists, arg.CompanyID, arg.Number)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const createVehicle = `-- name: CreateVehicle :exec
INSERT INTO vehicles (id, company_id, number, description, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

type CreateVehicleParams struct {
	ID          string             `json:"id"`
	CompanyID   string             `json:"company_id"`
	Number      string             `json:"number"`
	Description string             `json:"description"`
	Active      bool               `json:"active"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateVehicle(ctx context.Context, arg CreateVehicleParams) error {
	_, err := q.db.Exec(ctx, createVehicle,
		arg.ID,
		arg.CompanyID,
		arg.Number,
		arg.Description,
		arg.Active,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const deleteVehicle = `-- name: DeleteVehicle :execrows
DELETE FROM vehicles WHERE id = $1
`

func (q *Queries) DeleteVehicle(ctx context.Context, id string) (int64, error) {
	result, err := q.db.Exec(ctx, deleteVehicle, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getVehicleByID = `-- name: GetVehicleByID :one
SELECT id, company_id, number, description, active, created_at, updated_at FROM vehicles WHERE id = $1
`

func (q *Queries) GetVehicleByID(ctx context.Context, id string) (Vehicle, error) {
	row := q.db.QueryRow(ctx, getVehicleByID, id)
	var i Vehicle
	err := row.Scan(
		&i.ID,
		&i.CompanyID,
		&i.Number,
		&i.Description,
		&i.Active,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getVehicleByIDForUpdate = `-- name: GetVehicleByIDForUpdate :one
SELECT id, company_id, number, description, active, created_at, updated_at FROM vehicles WHERE id = $1 FOR UPDATE
`

func (q *Queries) GetVehicleByIDForUpdate(ctx context.Context, id string) (Vehicle, error) {
	row := q.db.QueryRow(ctx, getVehicleByIDForUpdate, id)
	var i Vehicle
	err := row.Scan(
		&i.ID,
		&i.CompanyID,
		&i.Number,
		&i.Description,
		&i.Active,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listActiveVehiclesByCompany = `-- name: ListActiveVehiclesByCompany :many
SELECT id, company_id, number, description, active, created_at, updated_at FROM vehicles
WHERE company_id = $1 AND active
ORDER BY lower(btrim(number)), btrim(number), id
`

func (q *Queries) ListActiveVehiclesByCompany(ctx context.Context, companyID string) ([]Vehicle, error) {
	rows, err := q.db.Query(ctx, listActiveVehiclesByCompany, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Vehicle{}
	for rows.Next() {
		var i Vehicle
		if err := rows.Scan(
			&i.ID,
			&i.CompanyID,
			&i.Number,
			&i.Description,
			&i.Active,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setVehicleActive = `-- name: SetVehicleActive :execrows
UPDATE vehicles SET active = $2, updated_at = $3 WHERE id = $1
`

type SetVehicleActiveParams struct {
	ID        string             `json:"id"`
	Active    bool               `json:"active"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) SetVehicleActive(ctx context.Context, arg SetVehicleActiveParams) (int64, error) {
	result, err := q.db.Exec(ctx, setVehicleActive, arg.ID, arg.Active, arg.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

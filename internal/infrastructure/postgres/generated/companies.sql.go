package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createCompany = `-- name: CreateCompany :exec
INSERT INTO companies (id, name, financial_year_start, financial_year_end, last_voucher_number, active, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

type CreateCompanyParams struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	FinancialYearStart pgtype.Date        `json:"financial_year_start"`
	FinancialYearEnd   pgtype.Date        `json:"financial_year_end"`
	LastVoucherNumber  int64              `json:"last_voucher_number"`
	Active             bool               `json:"active"`
	Version            int64              `json:"version"`
	CreatedAt          pgtype.Timestamptz `json:"created_at"`
	UpdatedAt          pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateCompany(ctx context.Context, arg CreateCompanyParams) error {
	_, err := q.db.Exec(ctx, createCompany,
		arg.ID,
		arg.Name,
		arg.FinancialYearStart,
		arg.FinancialYearEnd,
		arg.LastVoucherNumber,
		arg.Active,
		arg.Version,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getCompanyByID = `-- name: GetCompanyByID :one
SELECT id, name, financial_year_start, financial_year_end, last_voucher_number, active, version, created_at, updated_at FROM companies WHERE id = $1
`

func (q *Queries) GetCompanyByID(ctx context.Context, id string) (Company, error) {
	row := q.db.QueryRow(ctx, getCompanyByID, id)
	var i Company
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.FinancialYearStart,
		&i.FinancialYearEnd,
		&i.LastVoucherNumber,
		&i.Active,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getCompanyByIDForUpdate = `-- name: GetCompanyByIDForUpdate :one
SELECT id, name, financial_year_start, financial_year_end, last_voucher_number, active, version, created_at, updated_at FROM companies WHERE id = $1 FOR UPDATE
`

func (q *Queries) GetCompanyByIDForUpdate(ctx context.Context, id string) (Company, error) {
	row := q.db.QueryRow(ctx, getCompanyByIDForUpdate, id)
	var i Company
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.FinancialYearStart,
		&i.FinancialYearEnd,
		&i.LastVoucherNumber,
		&i.Active,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listCompanies = `-- name: ListCompanies :many
SELECT id, name, financial_year_start, financial_year_end, last_voucher_number, active, version, created_at, updated_at FROM companies ORDER BY created_at, id LIMIT $1 OFFSET $2
`

type ListCompaniesParams struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

func (q *Queries) ListCompanies(ctx context.Context, arg ListCompaniesParams) ([]Company, error) {
	rows, err := q.db.Query(ctx, listCompanies, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Company{}
	for rows.Next() {
		var i Company
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.FinancialYearStart,
			&i.FinancialYearEnd,
			&i.LastVoucherNumber,
			&i.Active,
			&i.Version,
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

const raiseLastVoucherNumber = `-- name: RaiseLastVoucherNumber :execrows
UPDATE companies
SET last_voucher_number = GREATEST(last_voucher_number, $2),
    version = version + 1,
    updated_at = $3
WHERE id = $1
`

type RaiseLastVoucherNumberParams struct {
	ID                string             `json:"id"`
	LastVoucherNumber int64              `json:"last_voucher_number"`
	UpdatedAt         pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) RaiseLastVoucherNumber(ctx context.Context, arg RaiseLastVoucherNumberParams) (int64, error) {
	result, err := q.db.Exec(ctx, raiseLastVoucherNumber, arg.ID, arg.LastVoucherNumber, arg.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const setCompanyActive = `-- name: SetCompanyActive :execrows
UPDATE companies SET active = $2, version = version + 1, updated_at = $3 WHERE id = $1
`

type SetCompanyActiveParams struct {
	ID        string             `json:"id"`
	Active    bool               `json:"active"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) SetCompanyActive(ctx context.Context, arg SetCompanyActiveParams) (int64, error) {
	result, err := q.db.Exec(ctx, setCompanyActive, arg.ID, arg.Active, arg.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const countVouchersByVehicle = `-- name: CountVouchersByVehicle :one
SELECT COUNT(*) FROM vouchers WHERE vehicle_id = $1
`

func (q *Queries) CountVouchersByVehicle(ctx context.Context, vehicleID string) (int64, error) {
	row := q.db.QueryRow(ctx, countVouchersByVehicle, vehicleID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createVoucher = `-- name: CreateVoucher :exec
INSERT INTO vouchers (id, company_id, voucher_number, date, vehicle_id, amount, side, narration, version, created_at, modified_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

type CreateVoucherParams struct {
	ID            string             `json:"id"`
	CompanyID     string             `json:"company_id"`
	VoucherNumber int64              `json:"voucher_number"`
	Date          pgtype.Date        `json:"date"`
	VehicleID     string             `json:"vehicle_id"`
	Amount        pgtype.Numeric     `json:"amount"`
	Side          string             `json:"side"`
	Narration     string             `json:"narration"`
	Version       int64              `json:"version"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	ModifiedAt    pgtype.Timestamptz `json:"modified_at"`
}

func (q *Queries) CreateVoucher(ctx context.Context, arg CreateVoucherParams) error {
	_, err := q.db.Exec(ctx, createVoucher,
		arg.ID,
		arg.CompanyID,
		arg.VoucherNumber,
		arg.Date,
		arg.VehicleID,
		arg.Amount,
		arg.Side,
		arg.Narration,
		arg.Version,
		arg.CreatedAt,
		arg.ModifiedAt,
	)
	return err
}

const deleteVoucher = `-- name: DeleteVoucher :execrows
DELETE FROM vouchers WHERE id = $1
`

func (q *Queries) DeleteVoucher(ctx context.Context, id string) (int64, error) {
	result, err := q.db.Exec(ctx, deleteVoucher, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getVoucherByID = `-- name: GetVoucherByID :one
SELECT id, company_id, voucher_number, date, vehicle_id, amount, side, narration, version, created_at, modified_at FROM vouchers WHERE id = $1
`

func (q *Queries) GetVoucherByID(ctx context.Context, id string) (Voucher, error) {
	row := q.db.QueryRow(ctx, getVoucherByID, id)
	var i Voucher
	err := row.Scan(
		&i.ID,
		&i.CompanyID,
		&i.VoucherNumber,
		&i.Date,
		&i.VehicleID,
		&i.Amount,
		&i.Side,
		&i.Narration,
		&i.Version,
		&i.CreatedAt,
		&i.ModifiedAt,
	)
	return i, err
}

const getVoucherByIDForUpdate = `-- name: GetVoucherByIDForUpdate :one
SELECT id, company_id, voucher_number, date, vehicle_id, amount, side, narration, version, created_at, modified_at FROM vouchers WHERE id = $1 FOR UPDATE
`

func (q *Queries) GetVoucherByIDForUpdate(ctx context.Context, id string) (Voucher, error) {
	row := q.db.QueryRow(ctx, getVoucherByIDForUpdate, id)
	var i Voucher
	err := row.Scan(
		&i.ID,
		&i.CompanyID,
		&i.VoucherNumber,
		&i.Date,
		&i.VehicleID,
		&i.Amount,
		&i.Side,
		&i.Narration,
		&i.Version,
		&i.CreatedAt,
		&i.ModifiedAt,
	)
	return i, err
}

const lastVoucherByVehicleAndSide = `-- name: LastVoucherByVehicleAndSide :one
SELECT id, company_id, voucher_number, date, vehicle_id, amount, side, narration, version, created_at, modified_at FROM vouchers
WHERE vehicle_id = $1 AND side = $2 AND date <= $3
ORDER BY date DESC, voucher_number DESC, id DESC
LIMIT 1
`

type LastVoucherByVehicleAndSideParams struct {
	VehicleID string      `json:"vehicle_id"`
	Side      string      `json:"side"`
	AsOf      pgtype.Date `json:"as_of"`
}

func (q *Queries) LastVoucherByVehicleAndSide(ctx context.Context, arg LastVoucherByVehicleAndSideParams) (Voucher, error) {
	row := q.db.QueryRow(ctx, lastVoucherByVehicleAndSide, arg.VehicleID, arg.Side, arg.AsOf)
	var i Voucher
	err := row.Scan(
		&i.ID,
		&i.CompanyID,
		&i.VoucherNumber,
		&i.Date,
		&i.VehicleID,
		&i.Amount,
		&i.Side,
		&i.Narration,
		&i.Version,
		&i.CreatedAt,
		&i.ModifiedAt,
	)
	return i, err
}

const listVouchersByCompanyDateRange = `-- name: ListVouchersByCompanyDateRange :many
SELECT id, company_id, voucher_number, date, vehicle_id, amount, side, narration, version, created_at, modified_at FROM vouchers
WHERE company_id = $1 AND date BETWEEN $2 AND $3
ORDER BY date, voucher_number, id
`

type ListVouchersByCompanyDateRangeParams struct {
	CompanyID string      `json:"company_id"`
	StartDate pgtype.Date `json:"start_date"`
	EndDate   pgtype.Date `json:"end_date"`
}

func (q *Queries) ListVouchersByCompanyDateRange(ctx context.Context, arg ListVouchersByCompanyDateRangeParams) ([]Voucher, error) {
	rows, err := q.db.Query(ctx, listVouchersByCompanyDateRange, arg.CompanyID, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Voucher{}
	for rows.Next() {
		var i Voucher
		if err := rows.Scan(
			&i.ID,
			&i.CompanyID,
			&i.VoucherNumber,
			&i.Date,
			&i.VehicleID,
			&i.Amount,
			&i.Side,
			&i.Narration,
			&i.Version,
			&i.CreatedAt,
			&i.ModifiedAt,
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

const listVouchersByVehicle = `-- name: ListVouchersByVehicle :many
SELECT id, company_id, voucher_number, date, vehicle_id, amount, side, narration, version, created_at, modified_at FROM vouchers
WHERE vehicle_id = $1
ORDER BY date, voucher_number, id
`

func (q *Queries) ListVouchersByVehicle(ctx context.Context, vehicleID string) ([]Voucher, error) {
	rows, err := q.db.Query(ctx, listVouchersByVehicle, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Voucher{}
	for rows.Next() {
		var i Voucher
		if err := rows.Scan(
			&i.ID,
			&i.CompanyID,
			&i.VoucherNumber,
			&i.Date,
			&i.VehicleID,
			&i.Amount,
			&i.Side,
			&i.Narration,
			&i.Version,
			&i.CreatedAt,
			&i.ModifiedAt,
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

const listVouchersByVehicleDateRange = `-- name: ListVouchersByVehicleDateRange :many
SELECT id, company_id, voucher_number, date, vehicle_id, amount, side, narration, version, created_at, modified_at FROM vouchers
WHERE vehicle_id = $1 AND date BETWEEN $2 AND $3
ORDER BY date, voucher_number, id
`

type ListVouchersByVehicleDateRangeParams struct {
	VehicleID string      `json:"vehicle_id"`
	StartDate pgtype.Date `json:"start_date"`
	EndDate   pgtype.Date `json:"end_date"`
}

func (q *Queries) ListVouchersByVehicleDateRange(ctx context.Context, arg ListVouchersByVehicleDateRangeParams) ([]Voucher, error) {
	rows, err := q.db.Query(ctx, listVouchersByVehicleDateRange, arg.VehicleID, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Voucher{}
	for rows.Next() {
		var i Voucher
		if err := rows.Scan(
			&i.ID,
			&i.CompanyID,
			&i.VoucherNumber,
			&i.Date,
			&i.VehicleID,
			&i.Amount,
			&i.Side,
			&i.Narration,
			&i.Version,
			&i.CreatedAt,
			&i.ModifiedAt,
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

const reassignVouchersVehicle = `-- name: ReassignVouchersVehicle :execrows
UPDATE vouchers SET vehicle_id = $1 WHERE vehicle_id = $2
`

type ReassignVouchersVehicleParams struct {
	ToVehicleID   string `json:"to_vehicle_id"`
	FromVehicleID string `json:"from_vehicle_id"`
}

func (q *Queries) ReassignVouchersVehicle(ctx context.Context, arg ReassignVouchersVehicleParams) (int64, error) {
	result, err := q.db.Exec(ctx, reassignVouchersVehicle, arg.ToVehicleID, arg.FromVehicleID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const sumVouchersByVehicle = `-- name: SumVouchersByVehicle :one
SELECT COALESCE(SUM(CASE WHEN side = 'debit' THEN amount ELSE -amount END), 0)::numeric AS balance
FROM vouchers
WHERE vehicle_id = $1 AND date <= $2
`

type SumVouchersByVehicleParams struct {
	VehicleID string      `json:"vehicle_id"`
	AsOf      pgtype.Date `json:"as_of"`
}

func (q *Queries) SumVouchersByVehicle(ctx context.Context, arg SumVouchersByVehicleParams) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, sumVouchersByVehicle, arg.VehicleID, arg.AsOf)
	var balance pgtype.Numeric
	err := row.Scan(&balance)
	return balance, err
}

const updateVoucher = `-- name: UpdateVoucher :execrows
UPDATE vouchers
SET voucher_number = $1,
    date = $2,
    vehicle_id = $3,
    amount = $4,
    side = $5,
    narration = $6,
    version = version + 1,
    modified_at = $7
WHERE id = $8 AND version = $9
`

type UpdateVoucherParams struct {
	VoucherNumber   int64              `json:"voucher_number"`
	Date            pgtype.Date        `json:"date"`
	VehicleID       string             `json:"vehicle_id"`
	Amount          pgtype.Numeric     `json:"amount"`
	Side            string             `json:"side"`
	Narration       string             `json:"narration"`
	ModifiedAt      pgtype.Timestamptz `json:"modified_at"`
	ID              string             `json:"id"`
	ExpectedVersion int64              `json:"expected_version"`
}

func (q *Queries) UpdateVoucher(ctx context.Context, arg UpdateVoucherParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateVoucher,
		arg.VoucherNumber,
		arg.Date,
		arg.VehicleID,
		arg.Amount,
		arg.Side,
		arg.Narration,
		arg.ModifiedAt,
		arg.ID,
		arg.ExpectedVersion,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const voucherNumberExists = `-- name: VoucherNumberExists :one
SELECT EXISTS (
    SELECT 1 FROM vouchers
    WHERE company_id = $1 AND voucher_number = $2 AND id <> $3
)
`

type VoucherNumberExistsParams struct {
	CompanyID     string `json:"company_id"`
	VoucherNumber int64  `json:"voucher_number"`
	ExcludingID   string `json:"excluding_id"`
}

func (q *Queries) VoucherNumberExists(ctx context.Context, arg VoucherNumberExistsParams) (bool, error) {
	row := q.db.QueryRow(ctx, voucherNumberExists, arg.CompanyID, arg.VoucherNumber, arg.ExcludingID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

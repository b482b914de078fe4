package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/voucherledger/internal/domain"
	"github.com/iho/voucherledger/internal/infrastructure/postgres/generated"
	"github.com/iho/voucherledger/internal/usecase"
)

// VoucherRepository implements usecase.VoucherRepository.
type VoucherRepository struct {
	queries *generated.Queries
}

// NewVoucherRepository creates a new VoucherRepository.
func NewVoucherRepository(db generated.DBTX) *VoucherRepository {
	return &VoucherRepository{queries: generated.New(db)}
}

// Create inserts a voucher. Number uniqueness is deferred to commit.
func (r *VoucherRepository) Create(ctx context.Context, tx usecase.Transaction, voucher *domain.Voucher) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	err = queries.CreateVoucher(ctx, generated.CreateVoucherParams{
		ID:            voucher.ID,
		CompanyID:     voucher.CompanyID,
		VoucherNumber: voucher.VoucherNumber,
		Date:          dayToPgDate(voucher.Date),
		VehicleID:     voucher.VehicleID,
		Amount:        decimalToNumeric(voucher.Amount),
		Side:          string(voucher.Side),
		Narration:     voucher.Narration,
		Version:       voucher.Version,
		CreatedAt:     timeToPgTimestamptz(voucher.CreatedAt),
		ModifiedAt:    timeToPgTimestamptz(voucher.ModifiedAt),
	})

	return mapConstraintError(err)
}

// Update writes every mutable field if the stored version still equals
// expectedVersion.
func (r *VoucherRepository) Update(ctx context.Context, tx usecase.Transaction, voucher *domain.Voucher, expectedVersion int64) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	affected, err := queries.UpdateVoucher(ctx, generated.UpdateVoucherParams{
		VoucherNumber:   voucher.VoucherNumber,
		Date:            dayToPgDate(voucher.Date),
		VehicleID:       voucher.VehicleID,
		Amount:          decimalToNumeric(voucher.Amount),
		Side:            string(voucher.Side),
		Narration:       voucher.Narration,
		ModifiedAt:      timeToPgTimestamptz(voucher.ModifiedAt),
		ID:              voucher.ID,
		ExpectedVersion: expectedVersion,
	})
	if err != nil {
		return mapConstraintError(err)
	}

	if affected == 0 {
		_, err := queries.GetVoucherByID(ctx, voucher.ID)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return domain.ErrVoucherNotFound
		case err != nil:
			return err
		}
		return domain.ErrVersionConflict
	}

	return nil
}

// Delete removes a voucher. Its number is not reused.
func (r *VoucherRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	affected, err := queries.DeleteVoucher(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrVoucherNotFound
	}

	return nil
}

// GetByID retrieves a voucher by ID.
func (r *VoucherRepository) GetByID(ctx context.Context, id string) (*domain.Voucher, error) {
	row, err := r.queries.GetVoucherByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVoucherNotFound
		}

		return nil, err
	}

	return rowToVoucher(row), nil
}

// GetByIDForUpdate retrieves a voucher with a FOR UPDATE lock.
func (r *VoucherRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Voucher, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.GetVoucherByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVoucherNotFound
		}

		return nil, err
	}

	return rowToVoucher(row), nil
}

// ListByVehicle returns the vehicle's vouchers in ledger order, optionally
// limited to a date range.
func (r *VoucherRepository) ListByVehicle(ctx context.Context, vehicleID string, dateRange *domain.DateRange) ([]*domain.Voucher, error) {
	var (
		rows []generated.Voucher
		err  error
	)

	if dateRange == nil {
		rows, err = r.queries.ListVouchersByVehicle(ctx, vehicleID)
	} else {
		rows, err = r.queries.ListVouchersByVehicleDateRange(ctx, generated.ListVouchersByVehicleDateRangeParams{
			VehicleID: vehicleID,
			StartDate: dayToPgDate(dateRange.Start),
			EndDate:   dayToPgDate(dateRange.End),
		})
	}
	if err != nil {
		return nil, err
	}

	return rowsToVouchers(rows), nil
}

// ListByCompanyDateRange returns the company day book over the range.
func (r *VoucherRepository) ListByCompanyDateRange(ctx context.Context, companyID string, dateRange domain.DateRange) ([]*domain.Voucher, error) {
	rows, err := r.queries.ListVouchersByCompanyDateRange(ctx, generated.ListVouchersByCompanyDateRangeParams{
		CompanyID: companyID,
		StartDate: dayToPgDate(dateRange.Start),
		EndDate:   dayToPgDate(dateRange.End),
	})
	if err != nil {
		return nil, err
	}

	return rowsToVouchers(rows), nil
}

// ExistsWithNumber reports whether another voucher of the company holds number.
func (r *VoucherRepository) ExistsWithNumber(ctx context.Context, tx usecase.Transaction, companyID string, number int64, excludingID string) (bool, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return false, err
	}

	return queries.VoucherNumberExists(ctx, generated.VoucherNumberExistsParams{
		CompanyID:     companyID,
		VoucherNumber: number,
		ExcludingID:   excludingID,
	})
}

// CountByVehicle counts the vouchers of a vehicle inside tx.
func (r *VoucherRepository) CountByVehicle(ctx context.Context, tx usecase.Transaction, vehicleID string) (int64, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return 0, err
	}

	return queries.CountVouchersByVehicle(ctx, vehicleID)
}

// SumByVehicle returns the signed sum of vouchers dated on or before asOf.
func (r *VoucherRepository) SumByVehicle(ctx context.Context, vehicleID string, asOf time.Time) (decimal.Decimal, error) {
	sum, err := r.queries.SumVouchersByVehicle(ctx, generated.SumVouchersByVehicleParams{
		VehicleID: vehicleID,
		AsOf:      dayToPgDate(asOf),
	})
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

// LastByVehicleAndSide returns the latest voucher of side dated on or
// before asOf, or nil.
func (r *VoucherRepository) LastByVehicleAndSide(ctx context.Context, vehicleID string, side domain.Side, asOf time.Time) (*domain.Voucher, error) {
	row, err := r.queries.LastVoucherByVehicleAndSide(ctx, generated.LastVoucherByVehicleAndSideParams{
		VehicleID: vehicleID,
		Side:      string(side),
		AsOf:      dayToPgDate(asOf),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return rowToVoucher(row), nil
}

// BulkReassignVehicle re-points every voucher of from to to in one
// statement. Only vehicle_id is written.
func (r *VoucherRepository) BulkReassignVehicle(ctx context.Context, tx usecase.Transaction, from, to string) (int64, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return 0, err
	}

	return queries.ReassignVouchersVehicle(ctx, generated.ReassignVouchersVehicleParams{
		ToVehicleID:   to,
		FromVehicleID: from,
	})
}

func rowsToVouchers(rows []generated.Voucher) []*domain.Voucher {
	vouchers := make([]*domain.Voucher, 0, len(rows))
	for _, row := range rows {
		vouchers = append(vouchers, rowToVoucher(row))
	}

	return vouchers
}

func rowToVoucher(row generated.Voucher) *domain.Voucher {
	return &domain.Voucher{
		ID:            row.ID,
		CompanyID:     row.CompanyID,
		VoucherNumber: row.VoucherNumber,
		Date:          pgDateToDay(row.Date),
		VehicleID:     row.VehicleID,
		Amount:        numericToDecimal(row.Amount),
		Side:          domain.Side(row.Side),
		Narration:     row.Narration,
		Version:       row.Version,
		CreatedAt:     row.CreatedAt.Time,
		ModifiedAt:    row.ModifiedAt.Time,
	}
}

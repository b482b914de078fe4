package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/voucherledger/internal/domain"
	"github.com/iho/voucherledger/internal/usecase"
)

// VoucherRepository implements usecase.VoucherRepository.
type VoucherRepository struct {
	store *Store
}

// Create inserts a voucher inside tx. Number uniqueness is checked at commit.
func (r *VoucherRepository) Create(ctx context.Context, tx usecase.Transaction, voucher *domain.Voucher) error {
	st, err := r.store.working(tx)
	if err != nil {
		return err
	}
	if err := r.store.fault(FaultVoucherCreate); err != nil {
		return err
	}
	if _, ok := st.vouchers[voucher.ID]; ok {
		return fmt.Errorf("memory: voucher %s already exists", voucher.ID)
	}
	if _, ok := st.vehicles[voucher.VehicleID]; !ok {
		return domain.ErrVehicleNotFound
	}
	st.vouchers[voucher.ID] = *voucher
	return nil
}

// Update replaces a voucher whose stored version equals expectedVersion
// and bumps the version.
func (r *VoucherRepository) Update(ctx context.Context, tx usecase.Transaction, voucher *domain.Voucher, expectedVersion int64) error {
	st, err := r.store.working(tx)
	if err != nil {
		return err
	}
	current, ok := st.vouchers[voucher.ID]
	if !ok {
		return domain.ErrVoucherNotFound
	}
	if current.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	if _, ok := st.vehicles[voucher.VehicleID]; !ok {
		return domain.ErrVehicleNotFound
	}

	updated := *voucher
	updated.Version = expectedVersion + 1
	updated.CreatedAt = current.CreatedAt
	st.vouchers[voucher.ID] = updated
	return nil
}

// Delete removes a voucher inside tx.
func (r *VoucherRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	st, err := r.store.working(tx)
	if err != nil {
		return err
	}
	if _, ok := st.vouchers[id]; !ok {
		return domain.ErrVoucherNotFound
	}
	delete(st.vouchers, id)
	return nil
}

// GetByID retrieves a committed voucher.
func (r *VoucherRepository) GetByID(ctx context.Context, id string) (*domain.Voucher, error) {
	var (
		v  domain.Voucher
		ok bool
	)
	r.store.read(func(st *state) { v, ok = st.vouchers[id] })
	if !ok {
		return nil, domain.ErrVoucherNotFound
	}
	return &v, nil
}

// GetByIDForUpdate reads a voucher inside tx.
func (r *VoucherRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Voucher, error) {
	st, err := r.store.working(tx)
	if err != nil {
		return nil, err
	}
	v, ok := st.vouchers[id]
	if !ok {
		return nil, domain.ErrVoucherNotFound
	}
	return &v, nil
}

// ListByVehicle returns the vehicle's vouchers in ledger order.
func (r *VoucherRepository) ListByVehicle(ctx context.Context, vehicleID string, dateRange *domain.DateRange) ([]*domain.Voucher, error) {
	return r.query(func(v domain.Voucher) bool {
		return v.VehicleID == vehicleID && (dateRange == nil || dateRange.Contains(v.Date))
	})
}

// ListByCompanyDateRange returns the company's vouchers in the range.
func (r *VoucherRepository) ListByCompanyDateRange(ctx context.Context, companyID string, dateRange domain.DateRange) ([]*domain.Voucher, error) {
	return r.query(func(v domain.Voucher) bool {
		return v.CompanyID == companyID && dateRange.Contains(v.Date)
	})
}

// ExistsWithNumber reports whether a voucher other than excludingID holds
// number in the company.
func (r *VoucherRepository) ExistsWithNumber(ctx context.Context, tx usecase.Transaction, companyID string, number int64, excludingID string) (bool, error) {
	st, err := r.store.working(tx)
	if err != nil {
		return false, err
	}
	for _, v := range st.vouchers {
		if v.CompanyID == companyID && v.VoucherNumber == number && v.ID != excludingID {
			return true, nil
		}
	}
	return false, nil
}

// CountByVehicle counts the vouchers of a vehicle inside tx.
func (r *VoucherRepository) CountByVehicle(ctx context.Context, tx usecase.Transaction, vehicleID string) (int64, error) {
	st, err := r.store.working(tx)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, v := range st.vouchers {
		if v.VehicleID == vehicleID {
			n++
		}
	}
	return n, nil
}

// SumByVehicle returns the signed sum of vouchers dated on or before asOf.
func (r *VoucherRepository) SumByVehicle(ctx context.Context, vehicleID string, asOf time.Time) (decimal.Decimal, error) {
	if err := r.store.fault(FaultVoucherQuery); err != nil {
		return decimal.Zero, err
	}

	day := domain.Day(asOf)
	sum := decimal.Zero
	r.store.read(func(st *state) {
		for _, v := range st.vouchers {
			if v.VehicleID == vehicleID && !domain.Day(v.Date).After(day) {
				sum = sum.Add(v.SignedAmount())
			}
		}
	})
	return sum, nil
}

// LastByVehicleAndSide returns the latest voucher of side dated on or
// before asOf, or nil.
func (r *VoucherRepository) LastByVehicleAndSide(ctx context.Context, vehicleID string, side domain.Side, asOf time.Time) (*domain.Voucher, error) {
	day := domain.Day(asOf)
	vouchers, err := r.query(func(v domain.Voucher) bool {
		return v.VehicleID == vehicleID && v.Side == side && !domain.Day(v.Date).After(day)
	})
	if err != nil || len(vouchers) == 0 {
		return nil, err
	}
	return vouchers[len(vouchers)-1], nil
}

// BulkReassignVehicle re-points every voucher of from to to. No other
// voucher field is touched.
func (r *VoucherRepository) BulkReassignVehicle(ctx context.Context, tx usecase.Transaction, from, to string) (int64, error) {
	st, err := r.store.working(tx)
	if err != nil {
		return 0, err
	}
	if err := r.store.fault(FaultBulkReassign); err != nil {
		return 0, err
	}
	if _, ok := st.vehicles[to]; !ok {
		return 0, domain.ErrVehicleNotFound
	}

	var moved int64
	for id, v := range st.vouchers {
		if v.VehicleID == from {
			v.VehicleID = to
			st.vouchers[id] = v
			moved++
		}
	}
	return moved, nil
}

func (r *VoucherRepository) query(match func(v domain.Voucher) bool) ([]*domain.Voucher, error) {
	if err := r.store.fault(FaultVoucherQuery); err != nil {
		return nil, err
	}

	out := []*domain.Voucher{}
	r.store.read(func(st *state) {
		for _, v := range st.vouchers {
			v := v
			if match(v) {
				out = append(out, &v)
			}
		}
	})
	slices.SortFunc(out, domain.CompareVouchers)
	return out, nil
}

package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/iho/voucherledger/internal/domain"
	"github.com/iho/voucherledger/internal/usecase"
)

// VehicleRepository implements usecase.VehicleRepository.
type VehicleRepository struct {
	store *Store
}

// Create inserts a vehicle inside tx.
func (r *VehicleRepository) Create(ctx context.Context, tx usecase.Transaction, vehicle *domain.Vehicle) error {
	st, err := r.store.working(tx)
	if err != nil {
		return err
	}
	if _, ok := st.vehicles[vehicle.ID]; ok {
		return fmt.Errorf("memory: vehicle %s already exists", vehicle.ID)
	}
	if vehicle.Active && activeNumberTaken(st, vehicle.CompanyID, vehicle.Number) {
		return domain.ErrDuplicateVehicleNumber
	}
	st.vehicles[vehicle.ID] = *vehicle
	return nil
}

// GetByID retrieves a committed vehicle.
func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	var (
		v  domain.Vehicle
		ok bool
	)
	r.store.read(func(st *state) { v, ok = st.vehicles[id] })
	if !ok {
		return nil, domain.ErrVehicleNotFound
	}
	return &v, nil
}

// GetByIDForUpdate reads a vehicle inside tx.
func (r *VehicleRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Vehicle, error) {
	st, err := r.store.working(tx)
	if err != nil {
		return nil, err
	}
	v, ok := st.vehicles[id]
	if !ok {
		return nil, domain.ErrVehicleNotFound
	}
	return &v, nil
}

// ListActiveByCompany returns the company's active vehicles sorted by label.
func (r *VehicleRepository) ListActiveByCompany(ctx context.Context, companyID string) ([]*domain.Vehicle, error) {
	vehicles := []*domain.Vehicle{}
	r.store.read(func(st *state) {
		for _, v := range st.vehicles {
			v := v
			if v.CompanyID == companyID && v.Active {
				vehicles = append(vehicles, &v)
			}
		}
	})
	slices.SortFunc(vehicles, domain.CompareVehicleLabels)
	return vehicles, nil
}

// ExistsActiveWithNumber reports whether an active vehicle of the company
// already uses number, compared case-insensitively.
func (r *VehicleRepository) ExistsActiveWithNumber(ctx context.Context, tx usecase.Transaction, companyID, number string) (bool, error) {
	st, err := r.store.working(tx)
	if err != nil {
		return false, err
	}
	return activeNumberTaken(st, companyID, number), nil
}

// SetActive flips the active flag inside tx.
func (r *VehicleRepository) SetActive(ctx context.Context, tx usecase.Transaction, id string, active bool, updatedAt time.Time) error {
	st, err := r.store.working(tx)
	if err != nil {
		return err
	}
	v, ok := st.vehicles[id]
	if !ok {
		return domain.ErrVehicleNotFound
	}
	v.Active = active
	v.UpdatedAt = updatedAt
	st.vehicles[id] = v
	return nil
}

// Delete removes a vehicle inside tx. Vouchers still pointing at it block
// the delete, as a foreign key would.
func (r *VehicleRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	st, err := r.store.working(tx)
	if err != nil {
		return err
	}
	if err := r.store.fault(FaultVehicleDelete); err != nil {
		return err
	}
	if _, ok := st.vehicles[id]; !ok {
		return domain.ErrVehicleNotFound
	}
	for _, v := range st.vouchers {
		if v.VehicleID == id {
			return fmt.Errorf("memory: vehicle %s is still referenced by voucher %s", id, v.ID)
		}
	}
	delete(st.vehicles, id)
	return nil
}

func activeNumberTaken(st *state, companyID, number string) bool {
	key := domain.NormalizeVehicleNumber(number)
	for _, v := range st.vehicles {
		if v.Active && v.CompanyID == companyID && domain.NormalizeVehicleNumber(v.Number) == key {
			return true
		}
	}
	return false
}

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/voucherledger/internal/domain"
	"github.com/iho/voucherledger/internal/infrastructure/postgres/generated"
	"github.com/iho/voucherledger/internal/usecase"
)

// VehicleRepository implements usecase.VehicleRepository.
type VehicleRepository struct {
	queries *generated.Queries
}

// NewVehicleRepository creates a new VehicleRepository.
func NewVehicleRepository(db generated.DBTX) *VehicleRepository {
	return &VehicleRepository{queries: generated.New(db)}
}

// Create inserts a vehicle. The partial unique index on active labels
// reports clashes as domain.ErrDuplicateVehicleNumber.
func (r *VehicleRepository) Create(ctx context.Context, tx usecase.Transaction, vehicle *domain.Vehicle) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	err = queries.CreateVehicle(ctx, generated.CreateVehicleParams{
		ID:          vehicle.ID,
		CompanyID:   vehicle.CompanyID,
		Number:      vehicle.Number,
		Description: vehicle.Description,
		Active:      vehicle.Active,
		CreatedAt:   timeToPgTimestamptz(vehicle.CreatedAt),
		UpdatedAt:   timeToPgTimestamptz(vehicle.UpdatedAt),
	})

	return mapConstraintError(err)
}

// GetByID retrieves a vehicle by ID.
func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	row, err := r.queries.GetVehicleByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVehicleNotFound
		}

		return nil, err
	}

	return rowToVehicle(row), nil
}

// GetByIDForUpdate retrieves a vehicle with a FOR UPDATE lock.
func (r *VehicleRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Vehicle, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.GetVehicleByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVehicleNotFound
		}

		return nil, err
	}

	return rowToVehicle(row), nil
}

// ListActiveByCompany lists the active vehicles of a company by label.
func (r *VehicleRepository) ListActiveByCompany(ctx context.Context, companyID string) ([]*domain.Vehicle, error) {
	rows, err := r.queries.ListActiveVehiclesByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	vehicles := make([]*domain.Vehicle, 0, len(rows))
	for _, row := range rows {
		vehicles = append(vehicles, rowToVehicle(row))
	}

	return vehicles, nil
}

// ExistsActiveWithNumber reports whether an active vehicle of the company
// uses number, ignoring case and surrounding spaces.
func (r *VehicleRepository) ExistsActiveWithNumber(ctx context.Context, tx usecase.Transaction, companyID, number string) (bool, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return false, err
	}

	return queries.ActiveVehicleNumberExists(ctx, generated.ActiveVehicleNumberExistsParams{
		CompanyID: companyID,
		Number:    number,
	})
}

// SetActive flips the active flag inside tx.
func (r *VehicleRepository) SetActive(ctx context.Context, tx usecase.Transaction, id string, active bool, updatedAt time.Time) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	affected, err := queries.SetVehicleActive(ctx, generated.SetVehicleActiveParams{
		ID:        id,
		Active:    active,
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return mapConstraintError(err)
	}
	if affected == 0 {
		return domain.ErrVehicleNotFound
	}

	return nil
}

// Delete removes a vehicle. The voucher foreign key refuses the delete
// while vouchers still point at it.
func (r *VehicleRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	affected, err := queries.DeleteVehicle(ctx, id)
	if err != nil {
		return mapConstraintError(err)
	}
	if affected == 0 {
		return domain.ErrVehicleNotFound
	}

	return nil
}

func rowToVehicle(row generated.Vehicle) *domain.Vehicle {
	return &domain.Vehicle{
		ID:          row.ID,
		CompanyID:   row.CompanyID,
		Number:      row.Number,
		Description: row.Description,
		Active:      row.Active,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
}

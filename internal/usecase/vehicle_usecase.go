package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/voucherledger/internal/domain"
)

// VehicleUseCase handles vehicle business logic.
type VehicleUseCase struct {
	uow         *UnitOfWork
	companyRepo CompanyRepository
	vehicleRepo VehicleRepository
	voucherRepo VoucherRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
}

// NewVehicleUseCase creates a new VehicleUseCase.
func NewVehicleUseCase(
	uow *UnitOfWork,
	companyRepo CompanyRepository,
	vehicleRepo VehicleRepository,
	voucherRepo VoucherRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
) *VehicleUseCase {
	return &VehicleUseCase{
		uow:         uow,
		companyRepo: companyRepo,
		vehicleRepo: vehicleRepo,
		voucherRepo: voucherRepo,
		auditRepo:   auditRepo,
		idGen:       idGen,
	}
}

// CreateVehicleInput represents input for creating a vehicle.
type CreateVehicleInput struct {
	CompanyID   string
	Number      string
	Description string
}

// CreateVehicle creates an active vehicle whose label is unique among the
// company's active vehicles.
func (uc *VehicleUseCase) CreateVehicle(ctx context.Context, input CreateVehicleInput) (*domain.Vehicle, error) {
	if strings.TrimSpace(input.CompanyID) == "" {
		return nil, domain.NewValidationError("company_id", domain.ErrMissingReference)
	}
	if err := domain.ValidateVehicleNumber(input.Number); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	vehicle := &domain.Vehicle{
		ID:          uc.idGen.Generate(),
		CompanyID:   strings.TrimSpace(input.CompanyID),
		Number:      strings.TrimSpace(input.Number),
		Description: strings.TrimSpace(input.Description),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := uc.uow.RunAtomic(ctx, func(ctx context.Context, tx Transaction) error {
		company, err := uc.companyRepo.GetByIDForUpdate(ctx, tx, vehicle.CompanyID)
		if err != nil {
			return err
		}
		if !company.Active {
			return domain.ErrCompanyInactive
		}

		exists, err := uc.vehicleRepo.ExistsActiveWithNumber(ctx, tx, vehicle.CompanyID, vehicle.Number)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateVehicleNumber, vehicle.Number)
		}

		return uc.vehicleRepo.Create(ctx, tx, vehicle)
	})
	if err != nil {
		return nil, err
	}

	return vehicle, nil
}

// GetVehicle retrieves a vehicle by ID.
func (uc *VehicleUseCase) GetVehicle(ctx context.Context, id string) (*domain.Vehicle, error) {
	return uc.vehicleRepo.GetByID(ctx, id)
}

// ListVehicles lists the active vehicles of a company sorted by label.
func (uc *VehicleUseCase) ListVehicles(ctx context.Context, companyID string) ([]*domain.Vehicle, error) {
	if _, err := uc.companyRepo.GetByID(ctx, companyID); err != nil {
		return nil, err
	}

	vehicles, err := uc.vehicleRepo.ListActiveByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(vehicles, domain.CompareVehicleLabels)

	return vehicles, nil
}

// DeleteVehicle removes a vehicle without history. A vehicle with vouchers
// can only disappear through a merge.
func (uc *VehicleUseCase) DeleteVehicle(ctx context.Context, id string) error {
	err := uc.uow.RunAtomic(ctx, func(ctx context.Context, tx Transaction) error {
		vehicle, err := uc.lockEmptyVehicle(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := uc.vehicleRepo.Delete(ctx, tx, id); err != nil {
			return err
		}

		return uc.auditRepo.CreateTx(ctx, tx, &domain.AuditLog{
			Action:       string(domain.AuditActionVehicleDelete),
			ResourceType: domain.ResourceTypeVehicle,
			ResourceID:   vehicle.ID,
			RelatedID:    vehicle.CompanyID,
			BeforeState:  domain.MarshalState(vehicle),
			Status:       string(domain.AuditStatusSuccess),
			CreatedAt:    time.Now().UTC(),
		})
	})
	if err != nil {
		return err
	}

	zerolog.Ctx(ctx).Info().Str("vehicle_id", id).Msg("vehicle deleted")

	return nil
}

// DeactivateVehicle retires a vehicle without history.
func (uc *VehicleUseCase) DeactivateVehicle(ctx context.Context, id string) error {
	return uc.uow.RunAtomic(ctx, func(ctx context.Context, tx Transaction) error {
		if _, err := uc.lockEmptyVehicle(ctx, tx, id); err != nil {
			return err
		}

		return uc.vehicleRepo.SetActive(ctx, tx, id, false, time.Now().UTC())
	})
}

func (uc *VehicleUseCase) lockEmptyVehicle(ctx context.Context, tx Transaction, id string) (*domain.Vehicle, error) {
	vehicle, err := uc.vehicleRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	count, err := uc.voucherRepo.CountByVehicle(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: %d vouchers", domain.ErrVehicleHasVouchers, count)
	}

	return vehicle, nil
}

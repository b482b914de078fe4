package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/voucherledger/internal/domain"
)

// VoucherUseCase handles voucher business logic.
type VoucherUseCase struct {
	uow         *UnitOfWork
	sequencer   *SequencerUseCase
	companyRepo CompanyRepository
	vehicleRepo VehicleRepository
	voucherRepo VoucherRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	metrics     MetricsRecorder
}

// NewVoucherUseCase creates a new VoucherUseCase.
func NewVoucherUseCase(
	uow *UnitOfWork,
	sequencer *SequencerUseCase,
	companyRepo CompanyRepository,
	vehicleRepo VehicleRepository,
	voucherRepo VoucherRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	metrics MetricsRecorder,
) *VoucherUseCase {
	return &VoucherUseCase{
		uow:         uow,
		sequencer:   sequencer,
		companyRepo: companyRepo,
		vehicleRepo: vehicleRepo,
		voucherRepo: voucherRepo,
		auditRepo:   auditRepo,
		idGen:       idGen,
		metrics:     recorderOrNoop(metrics),
	}
}

// CreateVoucherInput represents input for creating a voucher.
type CreateVoucherInput struct {
	CompanyID string
	VehicleID string
	// VoucherNumber is allocated from the company sequence when nil.
	VoucherNumber *int64
	Date          time.Time
	Amount        decimal.Decimal
	Side          domain.Side
	Narration     string
}

// CreateVoucher validates, numbers and stores a voucher, then raises the
// company's high-water mark, all in one atomic unit.
func (uc *VoucherUseCase) CreateVoucher(ctx context.Context, input CreateVoucherInput) (*domain.Voucher, error) {
	now := time.Now().UTC()

	voucher := &domain.Voucher{
		ID:         uc.idGen.Generate(),
		CompanyID:  strings.TrimSpace(input.CompanyID),
		VehicleID:  strings.TrimSpace(input.VehicleID),
		Date:       domain.Day(input.Date),
		Amount:     input.Amount,
		Side:       input.Side,
		Narration:  input.Narration,
		Version:    1,
		CreatedAt:  now,
		ModifiedAt: now,
	}

	// Field checks run before the unit starts; an auto number is a
	// placeholder until the company row is locked.
	voucher.VoucherNumber = 1
	if input.VoucherNumber != nil {
		voucher.VoucherNumber = *input.VoucherNumber
	}
	if err := voucher.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidateNarration(voucher.Narration); err != nil {
		return nil, err
	}

	err := uc.uow.RunAtomic(ctx, func(ctx context.Context, tx Transaction) error {
		company, err := uc.companyRepo.GetByIDForUpdate(ctx, tx, voucher.CompanyID)
		if err != nil {
			return err
		}
		if !company.Active {
			return domain.ErrCompanyInactive
		}

		if err := uc.checkVehicle(ctx, tx, voucher); err != nil {
			return err
		}

		if input.VoucherNumber == nil {
			voucher.VoucherNumber = company.NextVoucherNumber()
		}

		if err := uc.sequencer.ValidateUnique(ctx, tx, voucher.CompanyID, voucher.VoucherNumber, ""); err != nil {
			return err
		}

		if err := uc.voucherRepo.Create(ctx, tx, voucher); err != nil {
			return err
		}

		return uc.sequencer.Commit(ctx, tx, voucher.CompanyID, voucher.VoucherNumber)
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.VoucherOperation(OpVoucherCreate)

	return voucher, nil
}

// UpdateVoucherInput represents a partial voucher edit. Nil fields keep
// their stored value.
type UpdateVoucherInput struct {
	ID              string
	ExpectedVersion int64
	VoucherNumber   *int64
	Date            *time.Time
	VehicleID       *string
	Amount          *decimal.Decimal
	Side            *domain.Side
	Narration       *string
}

// UpdateVoucher applies an edit. Every invariant is re-checked, including
// number uniqueness excluding the voucher itself.
func (uc *VoucherUseCase) UpdateVoucher(ctx context.Context, input UpdateVoucherInput) (*domain.Voucher, error) {
	var updated *domain.Voucher

	err := uc.uow.RunAtomic(ctx, func(ctx context.Context, tx Transaction) error {
		existing, err := uc.voucherRepo.GetByIDForUpdate(ctx, tx, input.ID)
		if err != nil {
			return err
		}

		if input.ExpectedVersion != 0 && existing.Version != input.ExpectedVersion {
			return fmt.Errorf("%w: voucher %s is at version %d", domain.ErrVersionConflict, existing.ID, existing.Version)
		}

		v := *existing
		applyVoucherEdit(&v, input)
		v.ModifiedAt = time.Now().UTC()

		if err := v.Validate(); err != nil {
			return err
		}
		if err := domain.ValidateNarration(v.Narration); err != nil {
			return err
		}

		if v.VehicleID != existing.VehicleID {
			if err := uc.checkVehicle(ctx, tx, &v); err != nil {
				return err
			}
		}

		if err := uc.sequencer.ValidateUnique(ctx, tx, v.CompanyID, v.VoucherNumber, v.ID); err != nil {
			return err
		}

		if err := uc.voucherRepo.Update(ctx, tx, &v, existing.Version); err != nil {
			return err
		}
		v.Version = existing.Version + 1

		if err := uc.sequencer.Commit(ctx, tx, v.CompanyID, v.VoucherNumber); err != nil {
			return err
		}

		updated = &v
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.VoucherOperation(OpVoucherUpdate)

	return updated, nil
}

func applyVoucherEdit(v *domain.Voucher, input UpdateVoucherInput) {
	if input.VoucherNumber != nil {
		v.VoucherNumber = *input.VoucherNumber
	}
	if input.Date != nil {
		v.Date = domain.Day(*input.Date)
	}
	if input.VehicleID != nil {
		v.VehicleID = strings.TrimSpace(*input.VehicleID)
	}
	if input.Amount != nil {
		v.Amount = *input.Amount
	}
	if input.Side != nil {
		v.Side = *input.Side
	}
	if input.Narration != nil {
		v.Narration = *input.Narration
	}
}

// DeleteVoucher removes a voucher. The number it held is not reused by the
// sequence; the gap is accepted.
func (uc *VoucherUseCase) DeleteVoucher(ctx context.Context, id string) error {
	err := uc.uow.RunAtomic(ctx, func(ctx context.Context, tx Transaction) error {
		existing, err := uc.voucherRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := uc.voucherRepo.Delete(ctx, tx, id); err != nil {
			return err
		}

		return uc.auditRepo.CreateTx(ctx, tx, &domain.AuditLog{
			Action:       string(domain.AuditActionVoucherDelete),
			ResourceType: domain.ResourceTypeVoucher,
			ResourceID:   existing.ID,
			RelatedID:    existing.VehicleID,
			BeforeState:  domain.MarshalState(existing),
			Status:       string(domain.AuditStatusSuccess),
			CreatedAt:    time.Now().UTC(),
		})
	})
	if err != nil {
		return err
	}

	uc.metrics.VoucherOperation(OpVoucherDelete)
	zerolog.Ctx(ctx).Info().Str("voucher_id", id).Msg("voucher deleted")

	return nil
}

// GetVoucher retrieves a voucher by ID.
func (uc *VoucherUseCase) GetVoucher(ctx context.Context, id string) (*domain.Voucher, error) {
	return uc.voucherRepo.GetByID(ctx, id)
}

// ListVehicleVouchers lists a vehicle's vouchers in ledger order. A nil
// range lists the whole history.
func (uc *VoucherUseCase) ListVehicleVouchers(ctx context.Context, vehicleID string, dateRange *domain.DateRange) ([]*domain.Voucher, error) {
	if dateRange != nil {
		if err := dateRange.Validate(); err != nil {
			return nil, err
		}
	}

	if _, err := uc.vehicleRepo.GetByID(ctx, vehicleID); err != nil {
		return nil, err
	}

	return uc.voucherRepo.ListByVehicle(ctx, vehicleID, dateRange)
}

// ListCompanyVouchers returns the company's day book over an inclusive range.
func (uc *VoucherUseCase) ListCompanyVouchers(ctx context.Context, companyID string, start, end time.Time) ([]*domain.Voucher, error) {
	dateRange, err := domain.NewDateRange(start, end)
	if err != nil {
		return nil, err
	}

	if _, err := uc.companyRepo.GetByID(ctx, companyID); err != nil {
		return nil, err
	}

	return uc.voucherRepo.ListByCompanyDateRange(ctx, companyID, dateRange)
}

// checkVehicle requires the voucher's vehicle to be active and owned by
// the voucher's company.
func (uc *VoucherUseCase) checkVehicle(ctx context.Context, tx Transaction, v *domain.Voucher) error {
	vehicle, err := uc.vehicleRepo.GetByIDForUpdate(ctx, tx, v.VehicleID)
	if err != nil {
		return err
	}

	if !vehicle.Active {
		return domain.ErrVehicleInactive
	}

	if vehicle.CompanyID != v.CompanyID {
		return domain.NewValidationError("vehicle_id",
			fmt.Errorf("%w: vehicle %s belongs to another company", domain.ErrMissingReference, vehicle.ID))
	}

	return nil
}

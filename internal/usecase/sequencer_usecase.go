package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/voucherledger/internal/domain"
)

// SequencerUseCase assigns and validates the per-company voucher numbering.
// The sequence is not gap-free: edits and deletes may leave holes.
type SequencerUseCase struct {
	uow         *UnitOfWork
	companyRepo CompanyRepository
	voucherRepo VoucherRepository
}

// NewSequencerUseCase creates a new SequencerUseCase.
func NewSequencerUseCase(uow *UnitOfWork, companyRepo CompanyRepository, voucherRepo VoucherRepository) *SequencerUseCase {
	return &SequencerUseCase{
		uow:         uow,
		companyRepo: companyRepo,
		voucherRepo: voucherRepo,
	}
}

// NextNumber returns the number the next voucher of the company would get.
// It does not reserve the number: two calls without a commit in between
// return the same value.
func (uc *SequencerUseCase) NextNumber(ctx context.Context, companyID string) (int64, error) {
	company, err := uc.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return 0, err
	}

	return company.NextVoucherNumber(), nil
}

// Commit raises the company's high-water mark to assigned inside tx. A
// lower number leaves the mark unchanged, so repeated calls are harmless.
func (uc *SequencerUseCase) Commit(ctx context.Context, tx Transaction, companyID string, assigned int64) error {
	if assigned <= 0 {
		return domain.NewValidationError("voucher_number", domain.ErrInvalidVoucherNumber)
	}

	company, err := uc.companyRepo.GetByIDForUpdate(ctx, tx, companyID)
	if err != nil {
		return err
	}

	if assigned <= company.LastVoucherNumber {
		return nil
	}

	return uc.companyRepo.UpdateLastVoucherNumber(ctx, tx, companyID, assigned, time.Now().UTC())
}

// ValidateUnique fails with ErrDuplicateVoucherNumber when a voucher of the
// company other than excludingVoucherID already holds number.
func (uc *SequencerUseCase) ValidateUnique(ctx context.Context, tx Transaction, companyID string, number int64, excludingVoucherID string) error {
	if number <= 0 {
		return domain.NewValidationError("voucher_number", domain.ErrInvalidVoucherNumber)
	}

	exists, err := uc.voucherRepo.ExistsWithNumber(ctx, tx, companyID, number, excludingVoucherID)
	if err != nil {
		return err
	}

	if exists {
		return fmt.Errorf("%w: %d", domain.ErrDuplicateVoucherNumber, number)
	}

	return nil
}

// AllocateVoucherNumber is the exposed form of NextNumber.
func (uc *SequencerUseCase) AllocateVoucherNumber(ctx context.Context, companyID string) (int64, error) {
	return uc.NextNumber(ctx, companyID)
}

// CommitVoucherNumber runs Commit in its own atomic unit and returns the
// resulting high-water mark.
func (uc *SequencerUseCase) CommitVoucherNumber(ctx context.Context, companyID string, assigned int64) (int64, error) {
	err := uc.uow.RunAtomic(ctx, func(ctx context.Context, tx Transaction) error {
		return uc.Commit(ctx, tx, companyID, assigned)
	})
	if err != nil {
		return 0, err
	}

	company, err := uc.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return 0, err
	}

	return company.LastVoucherNumber, nil
}

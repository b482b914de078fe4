package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/voucherledger/internal/domain"
)

// errSourceGone marks a merge whose source vehicle no longer exists, which
// may mean the same merge already completed.
var errSourceGone = errors.New("source vehicle does not exist")

// MergeUseCase folds one vehicle's history into another and removes it.
// A merge is irreversible; callers confirm before invoking it.
type MergeUseCase struct {
	uow         *UnitOfWork
	vehicleRepo VehicleRepository
	voucherRepo VoucherRepository
	auditRepo   AuditRepository
	metrics     MetricsRecorder
}

// NewMergeUseCase creates a new MergeUseCase.
func NewMergeUseCase(
	uow *UnitOfWork,
	vehicleRepo VehicleRepository,
	voucherRepo VoucherRepository,
	auditRepo AuditRepository,
	metrics MetricsRecorder,
) *MergeUseCase {
	return &MergeUseCase{
		uow:         uow,
		vehicleRepo: vehicleRepo,
		voucherRepo: voucherRepo,
		auditRepo:   auditRepo,
		metrics:     recorderOrNoop(metrics),
	}
}

// Merge re-points every voucher of source to target and deletes source in
// one atomic unit. Only the vehicle reference of a voucher changes.
//
// Repeating a merge that already completed returns the recorded result
// with AlreadyApplied set.
func (uc *MergeUseCase) Merge(ctx context.Context, sourceID, targetID string) (*domain.MergeResult, error) {
	if sourceID == "" || targetID == "" {
		return nil, fmt.Errorf("%w: source and target are required", domain.ErrInvalidMerge)
	}
	if sourceID == targetID {
		return nil, fmt.Errorf("%w: cannot merge a vehicle into itself", domain.ErrInvalidMerge)
	}

	logger := zerolog.Ctx(ctx).With().
		Str("source_vehicle_id", sourceID).
		Str("target_vehicle_id", targetID).
		Logger()

	result := &domain.MergeResult{
		SourceVehicleID: sourceID,
		TargetVehicleID: targetID,
	}

	err := uc.uow.RunAtomic(ctx, func(ctx context.Context, tx Transaction) error {
		source, target, err := uc.lockPair(ctx, tx, sourceID, targetID)
		if err != nil {
			return err
		}

		moved, err := uc.voucherRepo.BulkReassignVehicle(ctx, tx, source.ID, target.ID)
		if err != nil {
			return fmt.Errorf("%w: re-point vouchers: %w", domain.ErrMergeFailed, err)
		}

		if err := uc.vehicleRepo.Delete(ctx, tx, source.ID); err != nil {
			return fmt.Errorf("%w: delete source vehicle: %w", domain.ErrMergeFailed, err)
		}

		mergedAt := time.Now().UTC()
		err = uc.auditRepo.CreateTx(ctx, tx, &domain.AuditLog{
			Action:       string(domain.AuditActionVehicleMerge),
			ResourceType: domain.ResourceTypeVehicle,
			ResourceID:   source.ID,
			RelatedID:    target.ID,
			BeforeState:  domain.MarshalState(source),
			AfterState:   domain.JSON{"vouchers_moved": moved},
			Status:       string(domain.AuditStatusSuccess),
			CreatedAt:    mergedAt,
		})
		if err != nil {
			return fmt.Errorf("%w: record merge: %w", domain.ErrMergeFailed, err)
		}

		result.VouchersMoved = moved
		result.MergedAt = mergedAt
		return nil
	})
	if err != nil {
		return uc.handleFailure(ctx, logger, sourceID, targetID, err)
	}

	uc.metrics.MergeCompleted(result.VouchersMoved)
	logger.Info().Int64("vouchers_moved", result.VouchersMoved).Msg("vehicles merged")

	return result, nil
}

func (uc *MergeUseCase) handleFailure(ctx context.Context, logger zerolog.Logger, sourceID, targetID string, err error) (*domain.MergeResult, error) {
	if errors.Is(err, errSourceGone) {
		prior, findErr := uc.appliedMerge(ctx, sourceID, targetID)
		if findErr != nil {
			return nil, fmt.Errorf("%w: look up earlier merge: %w", domain.ErrMergeFailed, findErr)
		}
		if prior != nil {
			logger.Info().Msg("merge already applied")
			return prior, nil
		}
		return nil, err
	}

	if errors.Is(err, domain.ErrInvalidMerge) {
		return nil, err
	}

	uc.metrics.MergeFailed()
	logger.Error().Err(err).Msg("merge rolled back")

	if !errors.Is(err, domain.ErrMergeFailed) {
		err = fmt.Errorf("%w: %w", domain.ErrMergeFailed, err)
	}
	return nil, err
}

// lockPair locks both vehicles in id order and checks they can be merged.
func (uc *MergeUseCase) lockPair(ctx context.Context, tx Transaction, sourceID, targetID string) (*domain.Vehicle, *domain.Vehicle, error) {
	first, second := sourceID, targetID
	if second < first {
		first, second = second, first
	}

	locked := make(map[string]*domain.Vehicle, 2)
	for _, id := range []string{first, second} {
		v, err := uc.vehicleRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, nil, err
		}
		locked[id] = v
	}

	source, target := locked[sourceID], locked[targetID]

	switch {
	case source == nil:
		return nil, nil, fmt.Errorf("%w: %w: %s", domain.ErrInvalidMerge, errSourceGone, sourceID)
	case target == nil:
		return nil, nil, fmt.Errorf("%w: target vehicle %s does not exist", domain.ErrInvalidMerge, targetID)
	case !source.Active:
		return nil, nil, fmt.Errorf("%w: source vehicle %s is inactive", domain.ErrInvalidMerge, sourceID)
	case !target.Active:
		return nil, nil, fmt.Errorf("%w: target vehicle %s is inactive", domain.ErrInvalidMerge, targetID)
	case source.CompanyID != target.CompanyID:
		return nil, nil, fmt.Errorf("%w: vehicles belong to different companies", domain.ErrInvalidMerge)
	}

	return source, target, nil
}

// appliedMerge returns the recorded result when source was already merged
// into target, or nil.
func (uc *MergeUseCase) appliedMerge(ctx context.Context, sourceID, targetID string) (*domain.MergeResult, error) {
	record, err := uc.auditRepo.FindMerge(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if record == nil || record.RelatedID != targetID {
		return nil, nil
	}

	return &domain.MergeResult{
		SourceVehicleID: sourceID,
		TargetVehicleID: targetID,
		VouchersMoved:   jsonInt(record.AfterState["vouchers_moved"]),
		MergedAt:        record.CreatedAt,
		AlreadyApplied:  true,
	}, nil
}

// jsonInt reads an integer stored in an audit state, which comes back as
// float64 once it has been through JSON.
func jsonInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/iho/voucherledger/internal/domain"
	"github.com/iho/voucherledger/internal/usecase"
)

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	store *Store
}

// CreateTx appends an audit record inside tx. States are stored as they
// would come back from a JSON column.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	st, err := r.store.working(tx)
	if err != nil {
		return err
	}
	if err := r.store.fault(FaultAuditCreate); err != nil {
		return err
	}

	if log.ID == "" {
		log.ID = uuid.New().String()
	}

	entry := *log
	if log.BeforeState != nil {
		entry.BeforeState = domain.MarshalState(log.BeforeState)
	}
	if log.AfterState != nil {
		entry.AfterState = domain.MarshalState(log.AfterState)
	}
	st.audit = append(st.audit, entry)
	return nil
}

// FindMerge returns the latest successful merge record of sourceID, or nil.
func (r *AuditRepository) FindMerge(ctx context.Context, sourceID string) (*domain.AuditLog, error) {
	var found *domain.AuditLog
	r.store.read(func(st *state) {
		for i := len(st.audit) - 1; i >= 0; i-- {
			e := st.audit[i]
			if e.Action == string(domain.AuditActionVehicleMerge) &&
				e.ResourceID == sourceID &&
				e.Status == string(domain.AuditStatusSuccess) {
				found = &e
				return
			}
		}
	})
	return found, nil
}

// List returns every audit record in insertion order.
func (r *AuditRepository) List(ctx context.Context) []domain.AuditLog {
	var out []domain.AuditLog
	r.store.read(func(st *state) {
		out = make([]domain.AuditLog, len(st.audit))
		copy(out, st.audit)
	})
	return out
}

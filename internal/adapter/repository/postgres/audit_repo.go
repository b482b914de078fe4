package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iho/voucherledger/internal/domain"
	"github.com/iho/voucherledger/internal/infrastructure/postgres/generated"
	"github.com/iho/voucherledger/internal/usecase"
)

// AuditRepository implements audit log persistence
type AuditRepository struct {
	queries *generated.Queries
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db generated.DBTX) *AuditRepository {
	return &AuditRepository{queries: generated.New(db)}
}

// CreateTx inserts a new audit log entry inside tx, so the record commits
// or rolls back with the action it describes.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	if log.ID == "" {
		log.ID = uuid.New().String()
	}

	var beforeStateJSON, afterStateJSON []byte

	if log.BeforeState != nil {
		beforeStateJSON, err = json.Marshal(log.BeforeState)
		if err != nil {
			return err
		}
	}

	if log.AfterState != nil {
		afterStateJSON, err = json.Marshal(log.AfterState)
		if err != nil {
			return err
		}
	}

	return queries.CreateAuditLog(ctx, generated.CreateAuditLogParams{
		ID:           log.ID,
		Action:       log.Action,
		ResourceType: log.ResourceType,
		ResourceID:   log.ResourceID,
		RelatedID:    log.RelatedID,
		BeforeState:  beforeStateJSON,
		AfterState:   afterStateJSON,
		Status:       log.Status,
		CreatedAt:    timeToPgTimestamptz(log.CreatedAt),
	})
}

// FindMerge returns the latest successful merge record of sourceID, or nil.
func (r *AuditRepository) FindMerge(ctx context.Context, sourceID string) (*domain.AuditLog, error) {
	row, err := r.queries.FindMergeBySource(ctx, sourceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	log := &domain.AuditLog{
		ID:           row.ID,
		Action:       row.Action,
		ResourceType: row.ResourceType,
		ResourceID:   row.ResourceID,
		RelatedID:    row.RelatedID,
		Status:       row.Status,
		CreatedAt:    row.CreatedAt.Time,
	}

	if row.BeforeState != nil {
		if err := json.Unmarshal(row.BeforeState, &log.BeforeState); err != nil {
			return nil, err
		}
	}

	if row.AfterState != nil {
		if err := json.Unmarshal(row.AfterState, &log.AfterState); err != nil {
			return nil, err
		}
	}

	return log, nil
}

package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createAuditLog = `-- name: CreateAuditLog :exec
INSERT INTO audit_logs (id, action, resource_type, resource_id, related_id, before_state, after_state, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

type CreateAuditLogParams struct {
	ID           string             `json:"id"`
	Action       string             `json:"action"`
	ResourceType string             `json:"resource_type"`
	ResourceID   string             `json:"resource_id"`
	RelatedID    string             `json:"related_id"`
	BeforeState  []byte             `json:"before_state"`
	AfterState   []byte             `json:"after_state"`
	Status       string             `json:"status"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateAuditLog(ctx context.Context, arg CreateAuditLogParams) error {
	_, err := q.db.Exec(ctx, createAuditLog,
		arg.ID,
		arg.Action,
		arg.ResourceType,
		arg.ResourceID,
		arg.RelatedID,
		arg.BeforeState,
		arg.AfterState,
		arg.Status,
		arg.CreatedAt,
	)
	return err
}

const findMergeBySource = `-- name: FindMergeBySource :one
SELECT id, action, resource_type, resource_id, related_id, before_state, after_state, status, created_at FROM audit_logs
WHERE action = 'vehicle.merge' AND resource_id = $1 AND status = 'success'
ORDER BY created_at DESC, id DESC
LIMIT 1
`

func (q *Queries) FindMergeBySource(ctx context.Context, resourceID string) (AuditLog, error) {
	row := q.db.QueryRow(ctx, findMergeBySource, resourceID)
	var i AuditLog
	err := row.Scan(
		&i.ID,
		&i.Action,
		&i.ResourceType,
		&i.ResourceID,
		&i.RelatedID,
		&i.BeforeState,
		&i.AfterState,
		&i.Status,
		&i.CreatedAt,
	)
	return i, err
}

package domain

import (
	"encoding/json"
	"time"
)

// AuditLog records an irreversible or destructive ledger action.
type AuditLog struct {
	ID           string
	Action       string // merge, voucher.delete, ...
	ResourceType string // vehicle, voucher
	ResourceID   string
	RelatedID    string // merge target, owning vehicle
	BeforeState  JSON
	AfterState   JSON
	Status       string
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	AuditActionVehicleMerge  AuditAction = "vehicle.merge"
	AuditActionVehicleDelete AuditAction = "vehicle.delete"
	AuditActionVoucherDelete AuditAction = "voucher.delete"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// Audit resource types
const (
	ResourceTypeVehicle = "vehicle"
	ResourceTypeVoucher = "voucher"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the root of every "does not exist" error.
	ErrNotFound = errors.New("not found")

	ErrCompanyNotFound = fmt.Errorf("company %w", ErrNotFound)
	ErrVehicleNotFound = fmt.Errorf("vehicle %w", ErrNotFound)
	ErrVoucherNotFound = fmt.Errorf("voucher %w", ErrNotFound)

	// Company errors
	ErrCompanyInactive = errors.New("company is inactive")

	// Vehicle errors
	ErrVehicleInactive        = errors.New("vehicle is inactive")
	ErrVehicleHasVouchers     = errors.New("vehicle has vouchers; merge it into another vehicle instead")
	ErrDuplicateVehicleNumber = errors.New("vehicle number already used by an active vehicle of this company")

	// Voucher errors
	ErrDuplicateVoucherNumber = errors.New("voucher number already used in this company")
	ErrVersionConflict        = errors.New("record was modified concurrently")

	// Merge errors
	ErrInvalidMerge = errors.New("invalid merge")
	ErrMergeFailed  = errors.New("merge failed")

	// ErrTransactionFailed is returned when an atomic unit could not be completed.
	// Nothing of the unit was applied.
	ErrTransactionFailed = errors.New("transaction failed")
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// Validation sentinels carried by ValidationError.
var (
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidAmountScale   = errors.New("amount must have at most two decimal places")
	ErrAmountTooLarge       = errors.New("amount exceeds maximum allowed")
	ErrInvalidSide          = errors.New("side must be debit or credit")
	ErrInvalidVoucherNumber = errors.New("voucher number must be positive")
	ErrInvalidDate          = errors.New("date is required")
	ErrInvalidDateRange     = errors.New("start date must not be after end date")
	ErrInvalidName          = errors.New("invalid name")
	ErrInvalidVehicleNumber = errors.New("invalid vehicle number")
	ErrMissingReference     = errors.New("reference is required")
	ErrInvalidThreshold     = errors.New("threshold must not be negative")
)

// ValidationError reports an input rejected before any write, naming the
// offending field.
type ValidationError struct {
	Field string
	Err   error
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrValidation, e.Field, e.Err)
}

// Unwrap exposes both the generic ErrValidation and the specific sentinel.
func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

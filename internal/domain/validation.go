package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxNameLength          = 255
	MaxVehicleNumberLength = 64
	MaxNarrationLength     = 1024
	MaxVoucherAmount       = "1000000000000" // 1 trillion
	AmountScale            = 2
)

var maxVoucherAmount = decimal.RequireFromString(MaxVoucherAmount)

// ValidateName validates a company name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return NewValidationError("name", fmt.Errorf("%w: name cannot be empty", ErrInvalidName))
	}

	if len(name) > MaxNameLength {
		return NewValidationError("name", fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, MaxNameLength))
	}

	return nil
}

// ValidateVehicleNumber validates a vehicle label.
func ValidateVehicleNumber(number string) error {
	number = strings.TrimSpace(number)

	if number == "" {
		return NewValidationError("number", fmt.Errorf("%w: number cannot be empty", ErrInvalidVehicleNumber))
	}

	if len(number) > MaxVehicleNumberLength {
		return NewValidationError("number", fmt.Errorf("%w: number exceeds %d characters", ErrInvalidVehicleNumber, MaxVehicleNumberLength))
	}

	return nil
}

// ValidateAmount validates a voucher amount: strictly positive, at most two
// decimal places and below the maximum.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return NewValidationError("amount", ErrInvalidAmount)
	}

	if !amount.Round(AmountScale).Equal(amount) {
		return NewValidationError("amount", ErrInvalidAmountScale)
	}

	if amount.GreaterThan(maxVoucherAmount) {
		return NewValidationError("amount", fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxVoucherAmount))
	}

	return nil
}

// ValidateNarration validates free-text narration length.
func ValidateNarration(narration string) error {
	if len(narration) > MaxNarrationLength {
		return NewValidationError("narration", fmt.Errorf("narration exceeds %d characters", MaxNarrationLength))
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters.
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 100
	const DefaultPageSize = 20

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

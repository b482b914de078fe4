package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a voucher.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// ParseSide parses a side, case-insensitively.
func ParseSide(s string) (Side, error) {
	side := Side(strings.ToLower(strings.TrimSpace(s)))
	if !side.IsValid() {
		return "", NewValidationError("side", ErrInvalidSide)
	}
	return side, nil
}

// IsValid reports whether s is debit or credit.
func (s Side) IsValid() bool {
	return s == SideDebit || s == SideCredit
}

// Sign returns +1 for debit and -1 for credit.
func (s Side) Sign() decimal.Decimal {
	if s == SideCredit {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideDebit {
		return SideCredit
	}
	return SideDebit
}

// SideOf returns debit for a non-negative balance and credit otherwise.
// A zero balance is reported as debit.
func SideOf(balance decimal.Decimal) Side {
	if balance.IsNegative() {
		return SideCredit
	}
	return SideDebit
}

// Voucher is a single dated debit or credit against a vehicle.
type Voucher struct {
	ID            string
	CompanyID     string
	VoucherNumber int64
	Date          time.Time
	VehicleID     string
	Amount        decimal.Decimal
	Side          Side
	Narration     string
	Version       int64
	CreatedAt     time.Time
	ModifiedAt    time.Time
}

// SignedAmount returns the amount with the sign of its side.
func (v *Voucher) SignedAmount() decimal.Decimal {
	return v.Amount.Mul(v.Side.Sign())
}

// Validate checks every field-level invariant of a voucher.
func (v *Voucher) Validate() error {
	if strings.TrimSpace(v.CompanyID) == "" {
		return NewValidationError("company_id", ErrMissingReference)
	}

	if strings.TrimSpace(v.VehicleID) == "" {
		return NewValidationError("vehicle_id", ErrMissingReference)
	}

	if v.VoucherNumber <= 0 {
		return NewValidationError("voucher_number", ErrInvalidVoucherNumber)
	}

	if v.Date.IsZero() {
		return NewValidationError("date", ErrInvalidDate)
	}

	if !v.Side.IsValid() {
		return NewValidationError("side", ErrInvalidSide)
	}

	return ValidateAmount(v.Amount)
}

// CompareVouchers orders vouchers by date, then voucher number, then id.
func CompareVouchers(a, b *Voucher) int {
	if c := Day(a.Date).Compare(Day(b.Date)); c != 0 {
		return c
	}
	switch {
	case a.VoucherNumber < b.VoucherNumber:
		return -1
	case a.VoucherNumber > b.VoucherNumber:
		return 1
	}
	return strings.Compare(a.ID, b.ID)
}

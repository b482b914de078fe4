package domain

import "time"

// Company is a tenant owning its vehicles, vouchers and voucher-number sequence.
type Company struct {
	ID                 string
	Name               string
	FinancialYearStart time.Time
	FinancialYearEnd   time.Time
	// LastVoucherNumber is the high-water mark of assigned voucher numbers.
	// It never decreases.
	LastVoucherNumber int64
	Active            bool
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NextVoucherNumber returns the number a new voucher would receive.
func (c *Company) NextVoucherNumber() int64 {
	return c.LastVoucherNumber + 1
}

// Validate checks the company's own fields.
func (c *Company) Validate() error {
	if err := ValidateName(c.Name); err != nil {
		return err
	}

	if c.FinancialYearStart.IsZero() || c.FinancialYearEnd.IsZero() {
		return NewValidationError("financial_year", ErrInvalidDate)
	}

	if Day(c.FinancialYearStart).After(Day(c.FinancialYearEnd)) {
		return NewValidationError("financial_year", ErrInvalidDateRange)
	}

	return nil
}

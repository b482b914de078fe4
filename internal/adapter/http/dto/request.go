package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/voucherledger/internal/domain"
	"github.com/iho/voucherledger/internal/usecase"
)

// CreateCompanyRequest represents a request to create a company.
type CreateCompanyRequest struct {
	Name               string `json:"name"`
	FinancialYearStart string `json:"financial_year_start"`
	FinancialYearEnd   string `json:"financial_year_end"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateCompanyRequest) ToUseCaseInput() (usecase.CreateCompanyInput, error) {
	start, err := parseDay("financial_year_start", r.FinancialYearStart)
	if err != nil {
		return usecase.CreateCompanyInput{}, err
	}
	end, err := parseDay("financial_year_end", r.FinancialYearEnd)
	if err != nil {
		return usecase.CreateCompanyInput{}, err
	}

	return usecase.CreateCompanyInput{
		Name:               r.Name,
		FinancialYearStart: start,
		FinancialYearEnd:   end,
	}, nil
}

// CreateVehicleRequest represents a request to create a vehicle.
type CreateVehicleRequest struct {
	CompanyID   string `json:"company_id"`
	Number      string `json:"number"`
	Description string `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateVehicleRequest) ToUseCaseInput() usecase.CreateVehicleInput {
	return usecase.CreateVehicleInput{
		CompanyID:   r.CompanyID,
		Number:      r.Number,
		Description: r.Description,
	}
}

// CreateVoucherRequest represents a request to post a voucher. The number
// is allocated by the server when omitted.
type CreateVoucherRequest struct {
	CompanyID     string          `json:"company_id"`
	VehicleID     string          `json:"vehicle_id"`
	VoucherNumber *int64          `json:"voucher_number,omitempty"`
	Date          string          `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	Side          string          `json:"side"`
	Narration     string          `json:"narration,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateVoucherRequest) ToUseCaseInput() (usecase.CreateVoucherInput, error) {
	date, err := parseDay("date", r.Date)
	if err != nil {
		return usecase.CreateVoucherInput{}, err
	}
	side, err := domain.ParseSide(r.Side)
	if err != nil {
		return usecase.CreateVoucherInput{}, err
	}

	return usecase.CreateVoucherInput{
		CompanyID:     r.CompanyID,
		VehicleID:     r.VehicleID,
		VoucherNumber: r.VoucherNumber,
		Date:          date,
		Amount:        r.Amount,
		Side:          side,
		Narration:     r.Narration,
	}, nil
}

// UpdateVoucherRequest is a partial edit; absent fields are kept.
type UpdateVoucherRequest struct {
	Version       int64            `json:"version"`
	VoucherNumber *int64           `json:"voucher_number,omitempty"`
	Date          *string          `json:"date,omitempty"`
	VehicleID     *string          `json:"vehicle_id,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Side          *string          `json:"side,omitempty"`
	Narration     *string          `json:"narration,omitempty"`
}

// ToUseCaseInput converts to use case input for voucher id.
func (r *UpdateVoucherRequest) ToUseCaseInput(id string) (usecase.UpdateVoucherInput, error) {
	input := usecase.UpdateVoucherInput{
		ID:              id,
		ExpectedVersion: r.Version,
		VoucherNumber:   r.VoucherNumber,
		VehicleID:       r.VehicleID,
		Amount:          r.Amount,
		Narration:       r.Narration,
	}

	if r.Date != nil {
		date, err := parseDay("date", *r.Date)
		if err != nil {
			return usecase.UpdateVoucherInput{}, err
		}
		input.Date = &date
	}

	if r.Side != nil {
		side, err := domain.ParseSide(*r.Side)
		if err != nil {
			return usecase.UpdateVoucherInput{}, err
		}
		input.Side = &side
	}

	return input, nil
}

// CommitVoucherNumberRequest raises a company's voucher high-water mark.
type CommitVoucherNumberRequest struct {
	Assigned int64 `json:"assigned"`
}

// MergeRequest merges the path vehicle into TargetVehicleID.
type MergeRequest struct {
	TargetVehicleID string `json:"target_vehicle_id"`
}

// ParseDay parses a YYYY-MM-DD value, reporting failures as a validation
// error on field.
func ParseDay(field, value string) (time.Time, error) {
	return parseDay(field, value)
}

func parseDay(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, domain.NewValidationError(field, domain.ErrInvalidDate)
	}
	t, err := domain.ParseDate(value)
	if err != nil {
		return time.Time{}, domain.NewValidationError(field, err)
	}
	return t, nil
}

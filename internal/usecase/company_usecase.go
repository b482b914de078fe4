package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/iho/voucherledger/internal/domain"
)

// CompanyUseCase handles company business logic.
type CompanyUseCase struct {
	companyRepo CompanyRepository
	idGen       IDGenerator
}

// NewCompanyUseCase creates a new CompanyUseCase.
func NewCompanyUseCase(companyRepo CompanyRepository, idGen IDGenerator) *CompanyUseCase {
	return &CompanyUseCase{
		companyRepo: companyRepo,
		idGen:       idGen,
	}
}

// CreateCompanyInput represents input for creating a company.
type CreateCompanyInput struct {
	Name               string
	FinancialYearStart time.Time
	FinancialYearEnd   time.Time
}

// CreateCompany creates a new company with an empty voucher sequence.
func (uc *CompanyUseCase) CreateCompany(ctx context.Context, input CreateCompanyInput) (*domain.Company, error) {
	now := time.Now().UTC()

	company := &domain.Company{
		ID:                 uc.idGen.Generate(),
		Name:               strings.TrimSpace(input.Name),
		FinancialYearStart: domain.Day(input.FinancialYearStart),
		FinancialYearEnd:   domain.Day(input.FinancialYearEnd),
		LastVoucherNumber:  0,
		Active:             true,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := company.Validate(); err != nil {
		return nil, err
	}

	if err := uc.companyRepo.Create(ctx, company); err != nil {
		return nil, err
	}

	return company, nil
}

// GetCompany retrieves a company by ID.
func (uc *CompanyUseCase) GetCompany(ctx context.Context, id string) (*domain.Company, error) {
	return uc.companyRepo.GetByID(ctx, id)
}

// ListCompaniesInput represents input for listing companies.
type ListCompaniesInput struct {
	Limit  int
	Offset int
}

// ListCompanies lists companies with pagination.
func (uc *CompanyUseCase) ListCompanies(ctx context.Context, input ListCompaniesInput) ([]*domain.Company, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.companyRepo.List(ctx, limit, offset)
}

// DeactivateCompany retires a company. Its history is kept.
func (uc *CompanyUseCase) DeactivateCompany(ctx context.Context, id string) (*domain.Company, error) {
	if _, err := uc.companyRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	if err := uc.companyRepo.SetActive(ctx, id, false, time.Now().UTC()); err != nil {
		return nil, err
	}

	return uc.companyRepo.GetByID(ctx, id)
}

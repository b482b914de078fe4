package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/voucherledger/internal/domain"
	"github.com/iho/voucherledger/internal/infrastructure/postgres/generated"
	"github.com/iho/voucherledger/internal/usecase"
)

// CompanyRepository implements usecase.CompanyRepository.
type CompanyRepository struct {
	queries *generated.Queries
}

// NewCompanyRepository creates a new CompanyRepository. db is usually a
// *pgxpool.Pool.
func NewCompanyRepository(db generated.DBTX) *CompanyRepository {
	return &CompanyRepository{queries: generated.New(db)}
}

// Create creates a new company.
func (r *CompanyRepository) Create(ctx context.Context, company *domain.Company) error {
	return r.queries.CreateCompany(ctx, generated.CreateCompanyParams{
		ID:                 company.ID,
		Name:               company.Name,
		FinancialYearStart: dayToPgDate(company.FinancialYearStart),
		FinancialYearEnd:   dayToPgDate(company.FinancialYearEnd),
		LastVoucherNumber:  company.LastVoucherNumber,
		Active:             company.Active,
		Version:            company.Version,
		CreatedAt:          timeToPgTimestamptz(company.CreatedAt),
		UpdatedAt:          timeToPgTimestamptz(company.UpdatedAt),
	})
}

// GetByID retrieves a company by ID.
func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	row, err := r.queries.GetCompanyByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCompanyNotFound
		}

		return nil, err
	}

	return rowToCompany(row), nil
}

// GetByIDForUpdate retrieves a company with a FOR UPDATE lock, serializing
// voucher number allocation per company.
func (r *CompanyRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Company, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.GetCompanyByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCompanyNotFound
		}

		return nil, err
	}

	return rowToCompany(row), nil
}

// List lists companies with pagination.
func (r *CompanyRepository) List(ctx context.Context, limit, offset int) ([]*domain.Company, error) {
	rows, err := r.queries.ListCompanies(ctx, generated.ListCompaniesParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	companies := make([]*domain.Company, 0, len(rows))
	for _, row := range rows {
		companies = append(companies, rowToCompany(row))
	}

	return companies, nil
}

// UpdateLastVoucherNumber raises the high-water mark with GREATEST, so a
// lower n is a no-op.
func (r *CompanyRepository) UpdateLastVoucherNumber(ctx context.Context, tx usecase.Transaction, id string, n int64, updatedAt time.Time) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	affected, err := queries.RaiseLastVoucherNumber(ctx, generated.RaiseLastVoucherNumberParams{
		ID:                id,
		LastVoucherNumber: n,
		UpdatedAt:         timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrCompanyNotFound
	}

	return nil
}

// SetActive flips the active flag of a company.
func (r *CompanyRepository) SetActive(ctx context.Context, id string, active bool, updatedAt time.Time) error {
	affected, err := r.queries.SetCompanyActive(ctx, generated.SetCompanyActiveParams{
		ID:        id,
		Active:    active,
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrCompanyNotFound
	}

	return nil
}

func rowToCompany(row generated.Company) *domain.Company {
	return &domain.Company{
		ID:                 row.ID,
		Name:               row.Name,
		FinancialYearStart: pgDateToDay(row.FinancialYearStart),
		FinancialYearEnd:   pgDateToDay(row.FinancialYearEnd),
		LastVoucherNumber:  row.LastVoucherNumber,
		Active:             row.Active,
		Version:            row.Version,
		CreatedAt:          row.CreatedAt.Time,
		UpdatedAt:          row.UpdatedAt.Time,
	}
}

package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/iho/voucherledger/internal/domain"
	"github.com/iho/voucherledger/internal/usecase"
)

// CompanyRepository implements usecase.CompanyRepository.
type CompanyRepository struct {
	store *Store
}

// Create inserts a company.
func (r *CompanyRepository) Create(ctx context.Context, company *domain.Company) error {
	return r.store.autocommit(ctx, func(st *state) error {
		if _, ok := st.companies[company.ID]; ok {
			return fmt.Errorf("memory: company %s already exists", company.ID)
		}
		st.companies[company.ID] = *company
		return nil
	})
}

// GetByID retrieves a committed company.
func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	var (
		c  domain.Company
		ok bool
	)
	r.store.read(func(st *state) { c, ok = st.companies[id] })
	if !ok {
		return nil, domain.ErrCompanyNotFound
	}
	return &c, nil
}

// GetByIDForUpdate reads a company inside tx.
func (r *CompanyRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Company, error) {
	st, err := r.store.working(tx)
	if err != nil {
		return nil, err
	}
	c, ok := st.companies[id]
	if !ok {
		return nil, domain.ErrCompanyNotFound
	}
	return &c, nil
}

// List returns companies ordered by creation time.
func (r *CompanyRepository) List(ctx context.Context, limit, offset int) ([]*domain.Company, error) {
	var all []*domain.Company
	r.store.read(func(st *state) {
		for _, c := range st.companies {
			c := c
			all = append(all, &c)
		}
	})

	slices.SortFunc(all, func(a, b *domain.Company) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	if offset >= len(all) {
		return []*domain.Company{}, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

// UpdateLastVoucherNumber raises the high-water mark, never lowering it.
func (r *CompanyRepository) UpdateLastVoucherNumber(ctx context.Context, tx usecase.Transaction, id string, n int64, updatedAt time.Time) error {
	st, err := r.store.working(tx)
	if err != nil {
		return err
	}
	c, ok := st.companies[id]
	if !ok {
		return domain.ErrCompanyNotFound
	}
	c.LastVoucherNumber = max(c.LastVoucherNumber, n)
	c.Version++
	c.UpdatedAt = updatedAt
	st.companies[id] = c
	return nil
}

// SetActive flips the active flag.
func (r *CompanyRepository) SetActive(ctx context.Context, id string, active bool, updatedAt time.Time) error {
	return r.store.autocommit(ctx, func(st *state) error {
		c, ok := st.companies[id]
		if !ok {
			return domain.ErrCompanyNotFound
		}
		c.Active = active
		c.Version++
		c.UpdatedAt = updatedAt
		st.companies[id] = c
		return nil
	})
}

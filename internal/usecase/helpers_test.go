package usecase_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/voucherledger/internal/adapter/repository/memory"
	"github.com/iho/voucherledger/internal/domain"
	"github.com/iho/voucherledger/internal/usecase"
)

type seqIDs struct {
	n atomic.Int64
}

func (g *seqIDs) Generate() string {
	return fmt.Sprintf("id-%05d", g.n.Add(1))
}

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

type fixture struct {
	store     *memory.Store
	clock     *fixedClock
	sequencer *usecase.SequencerUseCase
	companies *usecase.CompanyUseCase
	vehicles  *usecase.VehicleUseCase
	vouchers  *usecase.VoucherUseCase
	balance   *usecase.BalanceUseCase
	merge     *usecase.MergeUseCase
	recon     *usecase.ReconciliationUseCase
	recovery  *usecase.RecoveryUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	ids := &seqIDs{}
	clock := &fixedClock{now: time.Date(2024, time.June, 30, 15, 4, 5, 0, time.UTC)}
	uow := usecase.NewUnitOfWork(store.TxManager(), nil, time.Second)

	companies, vehicles, vouchers, audit := store.Companies(), store.Vehicles(), store.Vouchers(), store.Audit()
	sequencer := usecase.NewSequencerUseCase(uow, companies, vouchers)

	return &fixture{
		store:     store,
		clock:     clock,
		sequencer: sequencer,
		companies: usecase.NewCompanyUseCase(companies, ids),
		vehicles:  usecase.NewVehicleUseCase(uow, companies, vehicles, vouchers, audit, ids),
		vouchers:  usecase.NewVoucherUseCase(uow, sequencer, companies, vehicles, vouchers, audit, ids, nil),
		balance:   usecase.NewBalanceUseCase(companies, vehicles, vouchers, nil),
		merge:     usecase.NewMergeUseCase(uow, vehicles, vouchers, audit, nil),
		recon:     usecase.NewReconciliationUseCase(vehicles, vouchers, nil),
		recovery:  usecase.NewRecoveryUseCase(companies, vehicles, vouchers, clock, nil),
	}
}

func (f *fixture) company(t *testing.T) *domain.Company {
	t.Helper()

	c, err := f.companies.CreateCompany(context.Background(), usecase.CreateCompanyInput{
		Name:               "Acme Logistics",
		FinancialYearStart: domain.NewDate(2024, time.April, 1),
		FinancialYearEnd:   domain.NewDate(2025, time.March, 31),
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) vehicle(t *testing.T, companyID, number string) *domain.Vehicle {
	t.Helper()

	v, err := f.vehicles.CreateVehicle(context.Background(), usecase.CreateVehicleInput{
		CompanyID: companyID,
		Number:    number,
	})
	require.NoError(t, err)
	return v
}

func (f *fixture) post(t *testing.T, v *domain.Vehicle, date, amount string, side domain.Side) *domain.Voucher {
	t.Helper()

	voucher, err := f.vouchers.CreateVoucher(context.Background(), usecase.CreateVoucherInput{
		CompanyID: v.CompanyID,
		VehicleID: v.ID,
		Date:      day(t, date),
		Amount:    decimal.RequireFromString(amount),
		Side:      side,
	})
	require.NoError(t, err)
	return voucher
}

func day(t *testing.T, s string) time.Time {
	t.Helper()

	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func int64p(n int64) *int64 { return &n }

func decp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func strp(s string) *string { return &s }

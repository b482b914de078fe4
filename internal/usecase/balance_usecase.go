package usecase

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/voucherledger/internal/domain"
)

// BalanceUseCase computes balances and running ledgers. Balances are never
// stored or cached; every call re-reads the vouchers.
type BalanceUseCase struct {
	companyRepo CompanyRepository
	vehicleRepo VehicleRepository
	voucherRepo VoucherRepository
	metrics     MetricsRecorder
}

// NewBalanceUseCase creates a new BalanceUseCase.
func NewBalanceUseCase(
	companyRepo CompanyRepository,
	vehicleRepo VehicleRepository,
	voucherRepo VoucherRepository,
	metrics MetricsRecorder,
) *BalanceUseCase {
	return &BalanceUseCase{
		companyRepo: companyRepo,
		vehicleRepo: vehicleRepo,
		voucherRepo: voucherRepo,
		metrics:     recorderOrNoop(metrics),
	}
}

// BalanceAsOf returns the signed balance of a vehicle over vouchers dated
// on or before asOf. Debits count positive.
func (uc *BalanceUseCase) BalanceAsOf(ctx context.Context, vehicleID string, asOf time.Time) (decimal.Decimal, error) {
	if _, err := uc.vehicleRepo.GetByID(ctx, vehicleID); err != nil {
		return decimal.Zero, err
	}

	return uc.voucherRepo.SumByVehicle(ctx, vehicleID, domain.Day(asOf))
}

// Ledger returns the vehicle's statement for [start, end]: the balance
// brought forward from the day before start, then each voucher in
// (date, voucher number) order with its running balance.
func (uc *BalanceUseCase) Ledger(ctx context.Context, vehicleID string, start, end time.Time) (*domain.Ledger, error) {
	defer uc.observe(ReportLedger, time.Now())

	dateRange, err := domain.NewDateRange(start, end)
	if err != nil {
		return nil, err
	}

	vehicle, err := uc.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	opening, err := uc.voucherRepo.SumByVehicle(ctx, vehicleID, dateRange.Start.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}

	vouchers, err := uc.voucherRepo.ListByVehicle(ctx, vehicleID, &dateRange)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(vouchers, domain.CompareVouchers)

	ledger := &domain.Ledger{
		Vehicle:        vehicle,
		Range:          dateRange,
		OpeningBalance: opening,
		Lines:          make([]domain.LedgerLine, 0, len(vouchers)),
		TotalDebit:     decimal.Zero,
		TotalCredit:    decimal.Zero,
	}

	running := opening
	for _, v := range vouchers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		running = running.Add(v.SignedAmount())
		ledger.Lines = append(ledger.Lines, domain.LedgerLine{Voucher: v, RunningBalance: running})

		if v.Side == domain.SideDebit {
			ledger.TotalDebit = ledger.TotalDebit.Add(v.Amount)
		} else {
			ledger.TotalCredit = ledger.TotalCredit.Add(v.Amount)
		}
	}
	ledger.ClosingBalance = running

	return ledger, nil
}

// TrialBalance lists every active vehicle of the company with its absolute
// balance and side as of asOf, sorted by label. A zero balance is reported
// on the debit side.
func (uc *BalanceUseCase) TrialBalance(ctx context.Context, companyID string, asOf time.Time) (*domain.TrialBalance, error) {
	defer uc.observe(ReportTrialBalance, time.Now())

	if _, err := uc.companyRepo.GetByID(ctx, companyID); err != nil {
		return nil, err
	}

	vehicles, err := uc.vehicleRepo.ListActiveByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(vehicles, domain.CompareVehicleLabels)

	day := domain.Day(asOf)
	tb := &domain.TrialBalance{
		CompanyID:   companyID,
		AsOf:        day,
		Rows:        make([]domain.TrialBalanceRow, 0, len(vehicles)),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}

	for _, vehicle := range vehicles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		balance, err := uc.voucherRepo.SumByVehicle(ctx, vehicle.ID, day)
		if err != nil {
			return nil, err
		}

		row := domain.TrialBalanceRow{
			Vehicle: vehicle,
			Amount:  balance.Abs(),
			Side:    domain.SideOf(balance),
		}
		tb.Rows = append(tb.Rows, row)

		if row.Side == domain.SideDebit {
			tb.TotalDebit = tb.TotalDebit.Add(row.Amount)
		} else {
			tb.TotalCredit = tb.TotalCredit.Add(row.Amount)
		}
	}

	return tb, nil
}

func (uc *BalanceUseCase) observe(report string, started time.Time) {
	uc.metrics.ObserveReport(report, time.Since(started))
}

package usecase

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/voucherledger/internal/domain"
)

// ReconciliationUseCase pairs debits and credits of equal amount to surface
// probable double entries and missing payments. The pairing is a
// diagnostic aid: unrelated vouchers may share an amount.
type ReconciliationUseCase struct {
	vehicleRepo VehicleRepository
	voucherRepo VoucherRepository
	metrics     MetricsRecorder
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	vehicleRepo VehicleRepository,
	voucherRepo VoucherRepository,
	metrics MetricsRecorder,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		vehicleRepo: vehicleRepo,
		voucherRepo: voucherRepo,
		metrics:     recorderOrNoop(metrics),
	}
}

type amountBucket struct {
	debits  []*domain.Voucher
	credits []*domain.Voucher
}

// Compare reports every voucher of the vehicle exactly once, matched or
// unmatched. Within each amount the i-th debit pairs with the i-th credit,
// both taken in (date, voucher number) order.
func (uc *ReconciliationUseCase) Compare(ctx context.Context, vehicleID string) (*domain.ComparisonReport, error) {
	started := time.Now()
	defer func() { uc.metrics.ObserveReport(ReportReconciliation, time.Since(started)) }()

	if _, err := uc.vehicleRepo.GetByID(ctx, vehicleID); err != nil {
		return nil, err
	}

	vouchers, err := uc.voucherRepo.ListByVehicle(ctx, vehicleID, nil)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(vouchers, domain.CompareVouchers)

	// amounts are validated to two places, so the fixed string is an exact key
	buckets := make(map[string]*amountBucket)
	for _, v := range vouchers {
		key := v.Amount.StringFixed(domain.AmountScale)
		b, ok := buckets[key]
		if !ok {
			b = &amountBucket{}
			buckets[key] = b
		}
		if v.Side == domain.SideDebit {
			b.debits = append(b.debits, v)
		} else {
			b.credits = append(b.credits, v)
		}
	}

	partner := make(map[string]string, len(vouchers))
	for _, b := range buckets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n := min(len(b.debits), len(b.credits))
		for i := 0; i < n; i++ {
			partner[b.debits[i].ID] = b.credits[i].ID
			partner[b.credits[i].ID] = b.debits[i].ID
		}
	}

	report := &domain.ComparisonReport{
		VehicleID:            vehicleID,
		Entries:              make([]domain.ComparisonEntry, 0, len(vouchers)),
		UnmatchedDebits:      []*domain.Voucher{},
		UnmatchedCredits:     []*domain.Voucher{},
		UnmatchedDebitTotal:  decimal.Zero,
		UnmatchedCreditTotal: decimal.Zero,
	}

	for _, v := range vouchers {
		entry := domain.ComparisonEntry{Voucher: v}

		if other, ok := partner[v.ID]; ok {
			entry.Matched = true
			entry.Status = domain.MatchStatusMatched
			entry.MatchedWith = other
			if v.Side == domain.SideDebit {
				report.MatchedPairs++
			}
		} else if v.Side == domain.SideDebit {
			entry.Status = domain.MatchStatusUnmatchedDebit
			report.UnmatchedDebits = append(report.UnmatchedDebits, v)
			report.UnmatchedDebitTotal = report.UnmatchedDebitTotal.Add(v.Amount)
		} else {
			entry.Status = domain.MatchStatusUnmatchedCredit
			report.UnmatchedCredits = append(report.UnmatchedCredits, v)
			report.UnmatchedCreditTotal = report.UnmatchedCreditTotal.Add(v.Amount)
		}

		report.Entries = append(report.Entries, entry)
	}

	return report, nil
}

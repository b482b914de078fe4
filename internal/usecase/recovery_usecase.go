package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/voucherledger/internal/domain"
)

// Recovery status strings.
const (
	RecoveryStatusNoTransactions = "No transactions ever"
	recoveryStatusSinceCredit    = "%d days since last credit"
	recoveryStatusSinceDebit     = "%d days since last debit"
)

// RecoveryUseCase finds vehicles overdue for payment follow-up.
type RecoveryUseCase struct {
	companyRepo CompanyRepository
	vehicleRepo VehicleRepository
	voucherRepo VoucherRepository
	clock       Clock
	metrics     MetricsRecorder
}

// NewRecoveryUseCase creates a new RecoveryUseCase. A nil clock uses the
// system clock.
func NewRecoveryUseCase(
	companyRepo CompanyRepository,
	vehicleRepo VehicleRepository,
	voucherRepo VoucherRepository,
	clock Clock,
	metrics MetricsRecorder,
) *RecoveryUseCase {
	if clock == nil {
		clock = SystemClock{}
	}

	return &RecoveryUseCase{
		companyRepo: companyRepo,
		vehicleRepo: vehicleRepo,
		voucherRepo: voucherRepo,
		clock:       clock,
		metrics:     recorderOrNoop(metrics),
	}
}

// RecoveryListInput represents the filters of a recovery scan.
type RecoveryListInput struct {
	CompanyID              string
	MinDaysSinceLastCredit int
	// MinLastCreditAmount, when set, keeps only vehicles whose last credit
	// was at least this amount. Vehicles without credits always pass.
	MinLastCreditAmount *decimal.Decimal
	// GroupPrefixLength groups entries by the first n characters of the
	// upper-cased label. Zero disables grouping.
	GroupPrefixLength int
}

// RecoveryList returns every active vehicle with a positive balance as of
// today whose last credit is old enough, or which has no credit at all.
// Grouping never changes which vehicles are included.
func (uc *RecoveryUseCase) RecoveryList(ctx context.Context, input RecoveryListInput) (*domain.RecoveryReport, error) {
	started := time.Now()
	defer func() { uc.metrics.ObserveReport(ReportRecovery, time.Since(started)) }()

	if input.MinDaysSinceLastCredit < 0 {
		return nil, domain.NewValidationError("min_days", domain.ErrInvalidThreshold)
	}
	if input.MinLastCreditAmount != nil && input.MinLastCreditAmount.IsNegative() {
		return nil, domain.NewValidationError("min_amount", domain.ErrInvalidThreshold)
	}
	if input.GroupPrefixLength < 0 {
		return nil, domain.NewValidationError("group_prefix", domain.ErrInvalidThreshold)
	}

	if _, err := uc.companyRepo.GetByID(ctx, input.CompanyID); err != nil {
		return nil, err
	}

	vehicles, err := uc.vehicleRepo.ListActiveByCompany(ctx, input.CompanyID)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(vehicles, domain.CompareVehicleLabels)

	today := domain.Day(uc.clock.Now())
	report := &domain.RecoveryReport{
		CompanyID: input.CompanyID,
		AsOf:      today,
		Entries:   []domain.RecoveryEntry{},
		Total:     decimal.Zero,
	}

	for _, vehicle := range vehicles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry, include, err := uc.evaluate(ctx, vehicle, today, input)
		if err != nil {
			return nil, err
		}
		if !include {
			continue
		}

		if input.GroupPrefixLength > 0 {
			entry.Group = vehicle.LabelPrefix(input.GroupPrefixLength)
		}

		report.Entries = append(report.Entries, *entry)
		report.Total = report.Total.Add(entry.Balance)
	}

	if input.GroupPrefixLength > 0 {
		report.Groups = groupRecoveryEntries(report.Entries)
	}

	zerolog.Ctx(ctx).Info().
		Str("company_id", input.CompanyID).
		Int("vehicles_scanned", len(vehicles)).
		Int("vehicles_due", len(report.Entries)).
		Msg("recovery scan finished")

	return report, nil
}

func (uc *RecoveryUseCase) evaluate(
	ctx context.Context,
	vehicle *domain.Vehicle,
	today time.Time,
	input RecoveryListInput,
) (*domain.RecoveryEntry, bool, error) {
	balance, err := uc.voucherRepo.SumByVehicle(ctx, vehicle.ID, today)
	if err != nil {
		return nil, false, err
	}
	if !balance.IsPositive() {
		return nil, false, nil
	}

	entry := &domain.RecoveryEntry{Vehicle: vehicle, Balance: balance}

	lastCredit, err := uc.voucherRepo.LastByVehicleAndSide(ctx, vehicle.ID, domain.SideCredit, today)
	if err != nil {
		return nil, false, err
	}

	if lastCredit != nil {
		days := domain.DaysBetween(lastCredit.Date, today)
		if days < input.MinDaysSinceLastCredit {
			return nil, false, nil
		}
		if input.MinLastCreditAmount != nil && lastCredit.Amount.LessThan(*input.MinLastCreditAmount) {
			return nil, false, nil
		}

		setLastTransaction(entry, lastCredit, days)
		entry.Status = fmt.Sprintf(recoveryStatusSinceCredit, days)
		return entry, true, nil
	}

	lastDebit, err := uc.voucherRepo.LastByVehicleAndSide(ctx, vehicle.ID, domain.SideDebit, today)
	if err != nil {
		return nil, false, err
	}

	if lastDebit == nil {
		entry.Status = RecoveryStatusNoTransactions
		return entry, true, nil
	}

	days := domain.DaysBetween(lastDebit.Date, today)
	setLastTransaction(entry, lastDebit, days)
	entry.Status = fmt.Sprintf(recoveryStatusSinceDebit, days)

	return entry, true, nil
}

func setLastTransaction(entry *domain.RecoveryEntry, v *domain.Voucher, days int) {
	entry.HasTransactions = true
	entry.LastTransactionDate = v.Date
	entry.LastTransactionAmount = v.Amount
	entry.LastTransactionSide = v.Side
	entry.DaysSince = &days
}

func groupRecoveryEntries(entries []domain.RecoveryEntry) []domain.RecoveryGroup {
	index := make(map[string]int)
	var groups []domain.RecoveryGroup

	for _, e := range entries {
		i, ok := index[e.Group]
		if !ok {
			i = len(groups)
			index[e.Group] = i
			groups = append(groups, domain.RecoveryGroup{Prefix: e.Group, Total: decimal.Zero})
		}
		groups[i].Entries = append(groups[i].Entries, e)
		groups[i].Total = groups[i].Total.Add(e.Balance)
	}

	slices.SortFunc(groups, func(a, b domain.RecoveryGroup) int {
		return strings.Compare(a.Prefix, b.Prefix)
	})

	return groups
}

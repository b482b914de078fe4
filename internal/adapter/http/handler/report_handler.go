package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/voucherledger/internal/adapter/http/dto"
	"github.com/iho/voucherledger/internal/domain"
	"github.com/iho/voucherledger/internal/usecase"
)

// BalanceService defines the balance queries needed by ReportHandler.
type BalanceService interface {
	BalanceAsOf(ctx context.Context, vehicleID string, asOf time.Time) (decimal.Decimal, error)
	Ledger(ctx context.Context, vehicleID string, start, end time.Time) (*domain.Ledger, error)
	TrialBalance(ctx context.Context, companyID string, asOf time.Time) (*domain.TrialBalance, error)
}

// ReconciliationService pairs a vehicle's debits and credits.
type ReconciliationService interface {
	Compare(ctx context.Context, vehicleID string) (*domain.ComparisonReport, error)
}

// RecoveryService lists vehicles due for follow-up.
type RecoveryService interface {
	RecoveryList(ctx context.Context, input usecase.RecoveryListInput) (*domain.RecoveryReport, error)
}

// ReportHandler serves the read-only ledger reports.
type ReportHandler struct {
	balanceUC  BalanceService
	reconUC    ReconciliationService
	recoveryUC RecoveryService
	// defaultRecoveryDays applies when min_days is absent.
	defaultRecoveryDays int
	now                 func() time.Time
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(balanceUC BalanceService, reconUC ReconciliationService, recoveryUC RecoveryService, defaultRecoveryDays int) *ReportHandler {
	return &ReportHandler{
		balanceUC:           balanceUC,
		reconUC:             reconUC,
		recoveryUC:          recoveryUC,
		defaultRecoveryDays: defaultRecoveryDays,
		now:                 func() time.Time { return time.Now().UTC() },
	}
}

// Balance returns a vehicle's balance as of the as_of day, today by default.
func (h *ReportHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	asOf, err := parseDayQuery(r, "as_of", domain.Day(h.now()))
	if err != nil {
		writeDomainError(w, r, "invalid as_of", err)
		return
	}

	balance, err := h.balanceUC.BalanceAsOf(r.Context(), id, asOf)
	if err != nil {
		writeDomainError(w, r, "failed to compute balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewBalanceResponse(id, asOf, balance))
}

// Ledger returns a vehicle statement between start and end.
func (h *ReportHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	start, err := dto.ParseDay("start", r.URL.Query().Get("start"))
	if err != nil {
		writeDomainError(w, r, "invalid date range", err)
		return
	}
	end, err := parseDayQuery(r, "end", domain.Day(h.now()))
	if err != nil {
		writeDomainError(w, r, "invalid date range", err)
		return
	}

	ledger, err := h.balanceUC.Ledger(r.Context(), chi.URLParam(r, "id"), start, end)
	if err != nil {
		writeDomainError(w, r, "failed to build ledger", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerFromDomain(ledger))
}

// TrialBalance returns the trial balance of a company.
func (h *ReportHandler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDayQuery(r, "as_of", domain.Day(h.now()))
	if err != nil {
		writeDomainError(w, r, "invalid as_of", err)
		return
	}

	tb, err := h.balanceUC.TrialBalance(r.Context(), chi.URLParam(r, "id"), asOf)
	if err != nil {
		writeDomainError(w, r, "failed to build trial balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TrialBalanceFromDomain(tb))
}

// Reconciliation pairs a vehicle's debits and credits of equal amount.
func (h *ReportHandler) Reconciliation(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconUC.Compare(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to compare transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ComparisonFromDomain(report))
}

// Recovery lists the company's vehicles due for payment follow-up.
func (h *ReportHandler) Recovery(w http.ResponseWriter, r *http.Request) {
	input := usecase.RecoveryListInput{
		CompanyID:              chi.URLParam(r, "id"),
		MinDaysSinceLastCredit: parseIntQuery(r, "min_days", h.defaultRecoveryDays),
		GroupPrefixLength:      parseIntQuery(r, "group_prefix", 0),
	}

	if raw := r.URL.Query().Get("min_amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			writeDomainError(w, r, "invalid min_amount", domain.NewValidationError("min_amount", err))
			return
		}
		input.MinLastCreditAmount = &amount
	}

	report, err := h.recoveryUC.RecoveryList(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, "failed to build recovery list", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RecoveryFromDomain(report))
}

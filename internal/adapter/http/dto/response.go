package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/voucherledger/internal/domain"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

// CompanyResponse represents a company in API responses.
type CompanyResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	FinancialYearStart string    `json:"financial_year_start"`
	FinancialYearEnd   string    `json:"financial_year_end"`
	LastVoucherNumber  int64     `json:"last_voucher_number"`
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CompanyFromDomain converts domain company to response.
func CompanyFromDomain(c *domain.Company) *CompanyResponse {
	return &CompanyResponse{
		ID:                 c.ID,
		Name:               c.Name,
		FinancialYearStart: formatDay(c.FinancialYearStart),
		FinancialYearEnd:   formatDay(c.FinancialYearEnd),
		LastVoucherNumber:  c.LastVoucherNumber,
		Active:             c.Active,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

// CompaniesFromDomain converts domain companies to responses.
func CompaniesFromDomain(companies []*domain.Company) []*CompanyResponse {
	result := make([]*CompanyResponse, len(companies))
	for i, c := range companies {
		result[i] = CompanyFromDomain(c)
	}
	return result
}

// ListCompaniesResponse represents a page of companies.
type ListCompaniesResponse struct {
	Companies []*CompanyResponse `json:"companies"`
	Total     int64              `json:"total"`
}

// VoucherNumberResponse carries a voucher number of a company.
type VoucherNumberResponse struct {
	CompanyID     string `json:"company_id"`
	VoucherNumber int64  `json:"voucher_number"`
}

// VehicleResponse represents a vehicle in API responses.
type VehicleResponse struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	Number      string    `json:"number"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// VehicleFromDomain converts domain vehicle to response.
func VehicleFromDomain(v *domain.Vehicle) *VehicleResponse {
	if v == nil {
		return nil
	}
	return &VehicleResponse{
		ID:          v.ID,
		CompanyID:   v.CompanyID,
		Number:      v.Number,
		Description: v.Description,
		Active:      v.Active,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

// VehiclesFromDomain converts domain vehicles to responses.
func VehiclesFromDomain(vehicles []*domain.Vehicle) []*VehicleResponse {
	result := make([]*VehicleResponse, len(vehicles))
	for i, v := range vehicles {
		result[i] = VehicleFromDomain(v)
	}
	return result
}

// VoucherResponse represents a voucher in API responses.
type VoucherResponse struct {
	ID            string          `json:"id"`
	CompanyID     string          `json:"company_id"`
	VoucherNumber int64           `json:"voucher_number"`
	Date          string          `json:"date"`
	VehicleID     string          `json:"vehicle_id"`
	Amount        decimal.Decimal `json:"amount"`
	Side          domain.Side     `json:"side"`
	Narration     string          `json:"narration,omitempty"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	ModifiedAt    time.Time       `json:"modified_at"`
}

// VoucherFromDomain converts domain voucher to response.
func VoucherFromDomain(v *domain.Voucher) *VoucherResponse {
	return &VoucherResponse{
		ID:            v.ID,
		CompanyID:     v.CompanyID,
		VoucherNumber: v.VoucherNumber,
		Date:          formatDay(v.Date),
		VehicleID:     v.VehicleID,
		Amount:        v.Amount.Round(2),
		Side:          v.Side,
		Narration:     v.Narration,
		Version:       v.Version,
		CreatedAt:     v.CreatedAt,
		ModifiedAt:    v.ModifiedAt,
	}
}

// VouchersFromDomain converts domain vouchers to responses.
func VouchersFromDomain(vouchers []*domain.Voucher) []*VoucherResponse {
	result := make([]*VoucherResponse, len(vouchers))
	for i, v := range vouchers {
		result[i] = VoucherFromDomain(v)
	}
	return result
}

// BalanceResponse is the signed balance of a vehicle on a day.
type BalanceResponse struct {
	VehicleID string          `json:"vehicle_id"`
	AsOf      string          `json:"as_of"`
	Balance   decimal.Decimal `json:"balance"`
	Amount    decimal.Decimal `json:"amount"`
	Side      domain.Side     `json:"side"`
}

// NewBalanceResponse splits a signed balance into amount and side.
func NewBalanceResponse(vehicleID string, asOf time.Time, balance decimal.Decimal) *BalanceResponse {
	return &BalanceResponse{
		VehicleID: vehicleID,
		AsOf:      formatDay(asOf),
		Balance:   balance,
		Amount:    balance.Abs(),
		Side:      domain.SideOf(balance),
	}
}

// LedgerLineResponse is one row of a ledger statement.
type LedgerLineResponse struct {
	Voucher        *VoucherResponse `json:"voucher"`
	RunningBalance decimal.Decimal  `json:"running_balance"`
}

// LedgerResponse is a vehicle statement over a date range.
type LedgerResponse struct {
	Vehicle        *VehicleResponse      `json:"vehicle"`
	StartDate      string                `json:"start_date"`
	EndDate        string                `json:"end_date"`
	OpeningBalance decimal.Decimal       `json:"opening_balance"`
	Lines          []*LedgerLineResponse `json:"lines"`
	TotalDebit     decimal.Decimal       `json:"total_debit"`
	TotalCredit    decimal.Decimal       `json:"total_credit"`
	ClosingBalance decimal.Decimal       `json:"closing_balance"`
}

// LedgerFromDomain converts a domain ledger to response.
func LedgerFromDomain(l *domain.Ledger) *LedgerResponse {
	lines := make([]*LedgerLineResponse, len(l.Lines))
	for i, line := range l.Lines {
		lines[i] = &LedgerLineResponse{
			Voucher:        VoucherFromDomain(line.Voucher),
			RunningBalance: line.RunningBalance,
		}
	}

	return &LedgerResponse{
		Vehicle:        VehicleFromDomain(l.Vehicle),
		StartDate:      formatDay(l.Range.Start),
		EndDate:        formatDay(l.Range.End),
		OpeningBalance: l.OpeningBalance,
		Lines:          lines,
		TotalDebit:     l.TotalDebit,
		TotalCredit:    l.TotalCredit,
		ClosingBalance: l.ClosingBalance,
	}
}

// TrialBalanceRowResponse is one vehicle of a trial balance.
type TrialBalanceRowResponse struct {
	Vehicle *VehicleResponse `json:"vehicle"`
	Amount  decimal.Decimal  `json:"amount"`
	Side    domain.Side      `json:"side"`
}

// TrialBalanceResponse lists active vehicles with their balances.
type TrialBalanceResponse struct {
	CompanyID   string                     `json:"company_id"`
	AsOf        string                     `json:"as_of"`
	Rows        []*TrialBalanceRowResponse `json:"rows"`
	TotalDebit  decimal.Decimal            `json:"total_debit"`
	TotalCredit decimal.Decimal            `json:"total_credit"`
}

// TrialBalanceFromDomain converts a domain trial balance to response.
func TrialBalanceFromDomain(tb *domain.TrialBalance) *TrialBalanceResponse {
	rows := make([]*TrialBalanceRowResponse, len(tb.Rows))
	for i, row := range tb.Rows {
		rows[i] = &TrialBalanceRowResponse{
			Vehicle: VehicleFromDomain(row.Vehicle),
			Amount:  row.Amount,
			Side:    row.Side,
		}
	}

	return &TrialBalanceResponse{
		CompanyID:   tb.CompanyID,
		AsOf:        formatDay(tb.AsOf),
		Rows:        rows,
		TotalDebit:  tb.TotalDebit,
		TotalCredit: tb.TotalCredit,
	}
}

// MergeResponse describes a completed merge.
type MergeResponse struct {
	SourceVehicleID string    `json:"source_vehicle_id"`
	TargetVehicleID string    `json:"target_vehicle_id"`
	VouchersMoved   int64     `json:"vouchers_moved"`
	MergedAt        time.Time `json:"merged_at"`
	AlreadyApplied  bool      `json:"already_applied"`
}

// MergeFromDomain converts a merge result to response.
func MergeFromDomain(m *domain.MergeResult) *MergeResponse {
	return &MergeResponse{
		SourceVehicleID: m.SourceVehicleID,
		TargetVehicleID: m.TargetVehicleID,
		VouchersMoved:   m.VouchersMoved,
		MergedAt:        m.MergedAt,
		AlreadyApplied:  m.AlreadyApplied,
	}
}

// ComparisonEntryResponse is one voucher of a reconciliation report.
type ComparisonEntryResponse struct {
	Voucher     *VoucherResponse   `json:"voucher"`
	Matched     bool               `json:"matched"`
	Status      domain.MatchStatus `json:"status"`
	MatchedWith string             `json:"matched_with,omitempty"`
}

// ComparisonResponse is a reconciliation report.
type ComparisonResponse struct {
	VehicleID            string                     `json:"vehicle_id"`
	Entries              []*ComparisonEntryResponse `json:"entries"`
	MatchedPairs         int                        `json:"matched_pairs"`
	UnmatchedDebits      []*VoucherResponse         `json:"unmatched_debits"`
	UnmatchedCredits     []*VoucherResponse         `json:"unmatched_credits"`
	UnmatchedDebitTotal  decimal.Decimal            `json:"unmatched_debit_total"`
	UnmatchedCreditTotal decimal.Decimal            `json:"unmatched_credit_total"`
}

// ComparisonFromDomain converts a reconciliation report to response.
func ComparisonFromDomain(r *domain.ComparisonReport) *ComparisonResponse {
	entries := make([]*ComparisonEntryResponse, len(r.Entries))
	for i, e := range r.Entries {
		entries[i] = &ComparisonEntryResponse{
			Voucher:     VoucherFromDomain(e.Voucher),
			Matched:     e.Matched,
			Status:      e.Status,
			MatchedWith: e.MatchedWith,
		}
	}

	return &ComparisonResponse{
		VehicleID:            r.VehicleID,
		Entries:              entries,
		MatchedPairs:         r.MatchedPairs,
		UnmatchedDebits:      VouchersFromDomain(r.UnmatchedDebits),
		UnmatchedCredits:     VouchersFromDomain(r.UnmatchedCredits),
		UnmatchedDebitTotal:  r.UnmatchedDebitTotal,
		UnmatchedCreditTotal: r.UnmatchedCreditTotal,
	}
}

// RecoveryEntryResponse is a vehicle due for follow-up.
type RecoveryEntryResponse struct {
	Vehicle               *VehicleResponse `json:"vehicle"`
	Balance               decimal.Decimal  `json:"balance"`
	LastTransactionDate   string           `json:"last_transaction_date,omitempty"`
	LastTransactionAmount decimal.Decimal  `json:"last_transaction_amount"`
	LastTransactionSide   domain.Side      `json:"last_transaction_side,omitempty"`
	DaysSince             *int             `json:"days_since,omitempty"`
	Status                string           `json:"status"`
	Group                 string           `json:"group,omitempty"`
}

// RecoveryGroupResponse gathers entries sharing a label prefix.
type RecoveryGroupResponse struct {
	Prefix  string                   `json:"prefix"`
	Entries []*RecoveryEntryResponse `json:"entries"`
	Total   decimal.Decimal          `json:"total"`
}

// RecoveryResponse is the outcome of a recovery scan.
type RecoveryResponse struct {
	CompanyID string                   `json:"company_id"`
	AsOf      string                   `json:"as_of"`
	Entries   []*RecoveryEntryResponse `json:"entries"`
	Groups    []*RecoveryGroupResponse `json:"groups,omitempty"`
	Total     decimal.Decimal          `json:"total"`
}

// RecoveryFromDomain converts a recovery report to response.
func RecoveryFromDomain(r *domain.RecoveryReport) *RecoveryResponse {
	groups := make([]*RecoveryGroupResponse, len(r.Groups))
	for i, g := range r.Groups {
		groups[i] = &RecoveryGroupResponse{
			Prefix:  g.Prefix,
			Entries: recoveryEntries(g.Entries),
			Total:   g.Total,
		}
	}

	return &RecoveryResponse{
		CompanyID: r.CompanyID,
		AsOf:      formatDay(r.AsOf),
		Entries:   recoveryEntries(r.Entries),
		Groups:    groups,
		Total:     r.Total,
	}
}

func recoveryEntries(entries []domain.RecoveryEntry) []*RecoveryEntryResponse {
	result := make([]*RecoveryEntryResponse, len(entries))
	for i, e := range entries {
		resp := &RecoveryEntryResponse{
			Vehicle:               VehicleFromDomain(e.Vehicle),
			Balance:               e.Balance,
			LastTransactionAmount: e.LastTransactionAmount,
			DaysSince:             e.DaysSince,
			Status:                e.Status,
			Group:                 e.Group,
		}
		if e.HasTransactions {
			resp.LastTransactionDate = formatDay(e.LastTransactionDate)
			resp.LastTransactionSide = e.LastTransactionSide
		}
		result[i] = resp
	}
	return result
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(domain.DateFormat)
}

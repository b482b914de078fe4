package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerLine is a voucher annotated with the running balance after it.
type LedgerLine struct {
	Voucher        *Voucher
	RunningBalance decimal.Decimal
}

// Ledger is the statement of one vehicle over a date range.
type Ledger struct {
	Vehicle        *Vehicle
	Range          DateRange
	OpeningBalance decimal.Decimal
	Lines          []LedgerLine
	TotalDebit     decimal.Decimal
	TotalCredit    decimal.Decimal
	ClosingBalance decimal.Decimal
}

// TrialBalanceRow is the absolute balance of one vehicle and its side.
type TrialBalanceRow struct {
	Vehicle *Vehicle
	Amount  decimal.Decimal
	Side    Side
}

// TrialBalance lists every active vehicle of a company as of a day.
type TrialBalance struct {
	CompanyID   string
	AsOf        time.Time
	Rows        []TrialBalanceRow
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

// MergeResult describes a completed merge.
type MergeResult struct {
	SourceVehicleID string
	TargetVehicleID string
	VouchersMoved   int64
	MergedAt        time.Time
	// AlreadyApplied is set when the merge had completed in an earlier call.
	AlreadyApplied bool
}

// MatchStatus is the reconciliation marker of a voucher.
type MatchStatus string

const (
	MatchStatusMatched         MatchStatus = "matched"
	MatchStatusUnmatchedDebit  MatchStatus = "unmatched_debit"
	MatchStatusUnmatchedCredit MatchStatus = "unmatched_credit"
)

// ComparisonEntry is one voucher in a reconciliation report.
type ComparisonEntry struct {
	Voucher *Voucher
	Matched bool
	Status  MatchStatus
	// MatchedWith is the id of the paired voucher, empty when unmatched.
	MatchedWith string
}

// ComparisonReport pairs debits and credits of equal amount for one vehicle.
// It is a diagnostic heuristic, not an authoritative reconciliation.
type ComparisonReport struct {
	VehicleID            string
	Entries              []ComparisonEntry
	UnmatchedDebits      []*Voucher
	UnmatchedCredits     []*Voucher
	MatchedPairs         int
	UnmatchedDebitTotal  decimal.Decimal
	UnmatchedCreditTotal decimal.Decimal
}

// RecoveryEntry is a vehicle due for payment follow-up.
type RecoveryEntry struct {
	Vehicle               *Vehicle
	Balance               decimal.Decimal
	HasTransactions       bool
	LastTransactionDate   time.Time
	LastTransactionAmount decimal.Decimal
	LastTransactionSide   Side
	// DaysSince counts days since the last credit, or since the last debit
	// when the vehicle never had a credit. Nil without transactions.
	DaysSince *int
	Status    string
	Group     string
}

// RecoveryGroup gathers entries sharing a label prefix.
type RecoveryGroup struct {
	Prefix  string
	Entries []RecoveryEntry
	Total   decimal.Decimal
}

// RecoveryReport is the outcome of a recovery scan.
type RecoveryReport struct {
	CompanyID string
	AsOf      time.Time
	Entries   []RecoveryEntry
	Groups    []RecoveryGroup
	Total     decimal.Decimal
}

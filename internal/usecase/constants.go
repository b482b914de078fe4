package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultRecoveryMinDays is used when a recovery scan names no threshold.
	DefaultRecoveryMinDays = 30
)

// Voucher operations reported to MetricsRecorder.
const (
	OpVoucherCreate = "create"
	OpVoucherUpdate = "update"
	OpVoucherDelete = "delete"
)

// Report names reported to MetricsRecorder.
const (
	ReportLedger         = "ledger"
	ReportTrialBalance   = "trial_balance"
	ReportReconciliation = "reconciliation"
	ReportRecovery       = "recovery"
)

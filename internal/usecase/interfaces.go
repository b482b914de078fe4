package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/voucherledger/internal/domain"
)

// CompanyRepository defines data access for companies.
type CompanyRepository interface {
	Create(ctx context.Context, company *domain.Company) error
	GetByID(ctx context.Context, id string) (*domain.Company, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Company, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Company, error)
	// UpdateLastVoucherNumber raises the high-water mark to n. It never lowers it.
	UpdateLastVoucherNumber(ctx context.Context, tx Transaction, id string, n int64, updatedAt time.Time) error
	SetActive(ctx context.Context, id string, active bool, updatedAt time.Time) error
}

// VehicleRepository defines data access for vehicles.
type VehicleRepository interface {
	Create(ctx context.Context, tx Transaction, vehicle *domain.Vehicle) error
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Vehicle, error)
	ListActiveByCompany(ctx context.Context, companyID string) ([]*domain.Vehicle, error)
	ExistsActiveWithNumber(ctx context.Context, tx Transaction, companyID, number string) (bool, error)
	SetActive(ctx context.Context, tx Transaction, id string, active bool, updatedAt time.Time) error
	Delete(ctx context.Context, tx Transaction, id string) error
}

// VoucherRepository defines data access for vouchers.
type VoucherRepository interface {
	Create(ctx context.Context, tx Transaction, voucher *domain.Voucher) error
	// Update writes voucher if its stored version equals expectedVersion.
	Update(ctx context.Context, tx Transaction, voucher *domain.Voucher, expectedVersion int64) error
	Delete(ctx context.Context, tx Transaction, id string) error
	GetByID(ctx context.Context, id string) (*domain.Voucher, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Voucher, error)
	// ListByVehicle returns vouchers ordered by date then voucher number.
	// A nil range returns every voucher of the vehicle.
	ListByVehicle(ctx context.Context, vehicleID string, dateRange *domain.DateRange) ([]*domain.Voucher, error)
	ListByCompanyDateRange(ctx context.Context, companyID string, dateRange domain.DateRange) ([]*domain.Voucher, error)
	ExistsWithNumber(ctx context.Context, tx Transaction, companyID string, number int64, excludingID string) (bool, error)
	CountByVehicle(ctx context.Context, tx Transaction, vehicleID string) (int64, error)
	// SumByVehicle returns the signed sum of vouchers dated on or before asOf.
	SumByVehicle(ctx context.Context, vehicleID string, asOf time.Time) (decimal.Decimal, error)
	// LastByVehicleAndSide returns the latest voucher of the given side, or nil.
	LastByVehicleAndSide(ctx context.Context, vehicleID string, side domain.Side, asOf time.Time) (*domain.Voucher, error)
	// BulkReassignVehicle re-points every voucher of from to to and reports
	// how many rows moved. Only the vehicle reference is written.
	BulkReassignVehicle(ctx context.Context, tx Transaction, from, to string) (int64, error)
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	// FindMerge returns the successful merge record of sourceID, or nil.
	FindMerge(ctx context.Context, sourceID string) (*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs fn on transient store failures.
type Retrier interface {
	Retry(ctx context.Context, fn func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Clock supplies "today" to reports that depend on it.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// MetricsRecorder receives ledger counters. A nil recorder is allowed
// wherever one is accepted.
type MetricsRecorder interface {
	VoucherOperation(op string)
	MergeCompleted(vouchersMoved int64)
	MergeFailed()
	ObserveReport(report string, d time.Duration)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key so the request may be retried.
	Release(ctx context.Context, key string) error
}

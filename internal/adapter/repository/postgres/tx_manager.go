package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/voucherledger/internal/infrastructure/postgres/generated"
	"github.com/iho/voucherledger/internal/usecase"
)

var errForeignTransaction = errors.New("postgres: transaction was not started by this store")

// unitTxOptions are the options of every atomic unit. READ COMMITTED is
// enough: numbering serialises on the company row lock, and the voucher
// number constraint is checked at commit.
var unitTxOptions = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

type txBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// TxManager implements usecase.TransactionManager on a pgx pool.
type TxManager struct {
	pool txBeginner
}

// NewTxManager creates a new TxManager.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return newTxManagerWithPool(pool)
}

func newTxManagerWithPool(pool txBeginner) *TxManager {
	return &TxManager{pool: pool}
}

// Begin starts the transaction of one atomic unit.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.pool.BeginTx(ctx, unitTxOptions)
	if err != nil {
		return nil, err
	}

	return &Tx{tx: tx, queries: generated.New(tx)}, nil
}

// Tx is a pgx transaction with the generated queries bound to it.
type Tx struct {
	tx      pgx.Tx
	queries *generated.Queries
	done    bool
}

// Commit commits the transaction. Deferred constraints are checked here, so
// a voucher number clash surfaces as domain.ErrDuplicateVoucherNumber.
func (t *Tx) Commit(ctx context.Context) error {
	t.done = true
	return mapConstraintError(t.tx.Commit(ctx))
}

// Rollback rolls back the transaction. It is a no-op after Commit, so a unit
// can always defer it.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback(ctx)
}

func queriesFor(tx usecase.Transaction) (*generated.Queries, error) {
	pgTx, ok := tx.(*Tx)
	if !ok || pgTx == nil {
		return nil, errForeignTransaction
	}

	return pgTx.queries, nil
}

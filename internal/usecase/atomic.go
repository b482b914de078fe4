package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iho/voucherledger/internal/domain"
)

// UnitOfWork runs a function inside one transaction: either every write of
// the function is applied or none is.
type UnitOfWork struct {
	txManager TransactionManager
	retrier   Retrier
	timeout   time.Duration
}

// NewUnitOfWork creates a UnitOfWork. retrier may be nil. A zero timeout
// falls back to DefaultTransactionTimeout.
func NewUnitOfWork(txManager TransactionManager, retrier Retrier, timeout time.Duration) *UnitOfWork {
	if timeout <= 0 {
		timeout = DefaultTransactionTimeout
	}

	return &UnitOfWork{
		txManager: txManager,
		retrier:   retrier,
		timeout:   timeout,
	}
}

// RunAtomic begins a transaction, calls fn and commits. Any error from fn
// rolls the transaction back and is returned unchanged. When a retrier is
// configured the whole unit is re-run after a rollback on transient failures.
func (u *UnitOfWork) RunAtomic(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error {
	run := func() error {
		return u.runOnce(ctx, fn)
	}

	if u.retrier == nil {
		return run()
	}

	return u.retrier.Retry(ctx, run)
}

func (u *UnitOfWork) runOnce(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Once started, a unit is bounded by its timeout only; caller
	// cancellation must not interrupt it between writes.
	txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.timeout)
	defer cancel()

	tx, err := u.txManager.Begin(txCtx)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", domain.ErrTransactionFailed, err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := fn(txCtx, tx); err != nil {
		return err
	}

	if err := tx.Commit(txCtx); err != nil {
		// constraint violations surfaced at commit keep their own meaning
		if errors.Is(err, domain.ErrDuplicateVoucherNumber) || errors.Is(err, domain.ErrDuplicateVehicleNumber) {
			return err
		}
		return fmt.Errorf("%w: commit: %w", domain.ErrTransactionFailed, err)
	}

	return nil
}

// Package memory is an in-process ledger store. Transactions run one at a
// time on a private copy of the data that replaces the committed copy on
// commit, so a rolled back unit leaves nothing behind.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/iho/voucherledger/internal/domain"
	"github.com/iho/voucherledger/internal/usecase"
)

// Fault points accepted by FailOn.
const (
	FaultVoucherCreate = "voucher.create"
	FaultVoucherQuery  = "voucher.query"
	FaultBulkReassign  = "voucher.bulk_reassign"
	FaultVehicleDelete = "vehicle.delete"
	FaultAuditCreate   = "audit.create"
	FaultCommit        = "commit"
)

var (
	errForeignTx = errors.New("memory: transaction does not belong to this store or is finished")
	errTxDone    = errors.New("memory: transaction already finished")
)

type voucherKey struct {
	companyID string
	number    int64
}

type state struct {
	companies map[string]domain.Company
	vehicles  map[string]domain.Vehicle
	vouchers  map[string]domain.Voucher
	audit     []domain.AuditLog
}

func newState() *state {
	return &state{
		companies: make(map[string]domain.Company),
		vehicles:  make(map[string]domain.Vehicle),
		vouchers:  make(map[string]domain.Voucher),
	}
}

func (st *state) clone() *state {
	c := &state{
		companies: make(map[string]domain.Company, len(st.companies)),
		vehicles:  make(map[string]domain.Vehicle, len(st.vehicles)),
		vouchers:  make(map[string]domain.Voucher, len(st.vouchers)),
		audit:     make([]domain.AuditLog, len(st.audit)),
	}
	for k, v := range st.companies {
		c.companies[k] = v
	}
	for k, v := range st.vehicles {
		c.vehicles[k] = v
	}
	for k, v := range st.vouchers {
		c.vouchers[k] = v
	}
	copy(c.audit, st.audit)
	return c
}

// checkDeferred enforces the constraints a database would check at commit.
func (st *state) checkDeferred() error {
	seen := make(map[voucherKey]string, len(st.vouchers))
	for id, v := range st.vouchers {
		key := voucherKey{companyID: v.CompanyID, number: v.VoucherNumber}
		if other, ok := seen[key]; ok {
			return fmt.Errorf("%w: %d held by %s and %s", domain.ErrDuplicateVoucherNumber, v.VoucherNumber, other, id)
		}
		seen[key] = id
	}
	return nil
}

// Store holds companies, vehicles, vouchers and the audit trail.
type Store struct {
	mu        sync.RWMutex
	committed *state
	// sem admits one transaction at a time.
	sem chan struct{}

	faultMu sync.Mutex
	faults  map[string]error
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		committed: newState(),
		sem:       make(chan struct{}, 1),
		faults:    make(map[string]error),
	}
}

// FailOn makes the named operation return err until cleared with a nil err.
func (s *Store) FailOn(op string, err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()

	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

func (s *Store) fault(op string) error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	return s.faults[op]
}

// Companies returns the company repository view.
func (s *Store) Companies() *CompanyRepository { return &CompanyRepository{store: s} }

// Vehicles returns the vehicle repository view.
func (s *Store) Vehicles() *VehicleRepository { return &VehicleRepository{store: s} }

// Vouchers returns the voucher repository view.
func (s *Store) Vouchers() *VoucherRepository { return &VoucherRepository{store: s} }

// Audit returns the audit repository view.
func (s *Store) Audit() *AuditRepository { return &AuditRepository{store: s} }

// TxManager returns the transaction manager of the store.
func (s *Store) TxManager() *TxManager { return &TxManager{store: s} }

// read runs fn against the committed state.
func (s *Store) read(fn func(st *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.committed)
}

// working returns the private state of an open transaction of this store.
func (s *Store) working(tx usecase.Transaction) (*state, error) {
	t, ok := tx.(*Tx)
	if !ok || t.store != s || t.done {
		return nil, errForeignTx
	}
	return t.state, nil
}

// autocommit runs a write outside an explicit transaction as its own unit.
func (s *Store) autocommit(ctx context.Context, fn func(st *state) error) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx.state); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) begin(ctx context.Context) (*Tx, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var st *state
	s.read(func(committed *state) { st = committed.clone() })

	return &Tx{store: s, state: st}, nil
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// Begin waits for any running transaction to finish and starts a new one.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	return m.store.begin(ctx)
}

// Tx is a transaction of the memory store.
type Tx struct {
	store *Store
	state *state
	done  bool
}

// Commit checks deferred constraints and publishes the transaction's state.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return errTxDone
	}
	t.done = true
	defer func() { <-t.store.sem }()

	if err := t.store.fault(FaultCommit); err != nil {
		return err
	}
	if err := t.state.checkDeferred(); err != nil {
		return err
	}

	t.store.mu.Lock()
	t.store.committed = t.state
	t.store.mu.Unlock()

	return nil
}

// Rollback discards the transaction. It is a no-op after Commit.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	<-t.store.sem
	return nil
}

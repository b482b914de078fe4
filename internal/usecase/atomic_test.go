package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/iho/voucherledger/internal/domain"
	"github.com/iho/voucherledger/internal/usecase"
	"github.com/iho/voucherledger/internal/usecase/mocks"
)

func TestUnitOfWork_RunAtomic(t *testing.T) {
	errFn := errors.New("step failed")
	errDB := errors.New("connection reset")

	tests := []struct {
		name       string
		setupMocks func(txMgr *mocks.MockTransactionManager, tx *mocks.MockTransaction)
		fn         func(ctx context.Context, tx usecase.Transaction) error
		wantErr    []error
	}{
		{
			name: "commits on success",
			setupMocks: func(txMgr *mocks.MockTransactionManager, tx *mocks.MockTransaction) {
				txMgr.EXPECT().Begin(gomock.Any()).Return(tx, nil)
				tx.EXPECT().Commit(gomock.Any()).Return(nil)
				tx.EXPECT().Rollback(gomock.Any()).Return(nil)
			},
			fn: func(context.Context, usecase.Transaction) error { return nil },
		},
		{
			name: "rolls back and returns step error unchanged",
			setupMocks: func(txMgr *mocks.MockTransactionManager, tx *mocks.MockTransaction) {
				txMgr.EXPECT().Begin(gomock.Any()).Return(tx, nil)
				tx.EXPECT().Rollback(gomock.Any()).Return(nil)
			},
			fn:      func(context.Context, usecase.Transaction) error { return errFn },
			wantErr: []error{errFn},
		},
		{
			name: "begin failure is a transaction failure",
			setupMocks: func(txMgr *mocks.MockTransactionManager, tx *mocks.MockTransaction) {
				txMgr.EXPECT().Begin(gomock.Any()).Return(nil, errDB)
			},
			fn:      func(context.Context, usecase.Transaction) error { return nil },
			wantErr: []error{domain.ErrTransactionFailed, errDB},
		},
		{
			name: "commit failure is a transaction failure",
			setupMocks: func(txMgr *mocks.MockTransactionManager, tx *mocks.MockTransaction) {
				txMgr.EXPECT().Begin(gomock.Any()).Return(tx, nil)
				tx.EXPECT().Commit(gomock.Any()).Return(errDB)
				tx.EXPECT().Rollback(gomock.Any()).Return(nil)
			},
			fn:      func(context.Context, usecase.Transaction) error { return nil },
			wantErr: []error{domain.ErrTransactionFailed, errDB},
		},
		{
			name: "duplicate number at commit keeps its meaning",
			setupMocks: func(txMgr *mocks.MockTransactionManager, tx *mocks.MockTransaction) {
				txMgr.EXPECT().Begin(gomock.Any()).Return(tx, nil)
				tx.EXPECT().Commit(gomock.Any()).Return(domain.ErrDuplicateVoucherNumber)
				tx.EXPECT().Rollback(gomock.Any()).Return(nil)
			},
			fn:      func(context.Context, usecase.Transaction) error { return nil },
			wantErr: []error{domain.ErrDuplicateVoucherNumber},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			txMgr := mocks.NewMockTransactionManager(ctrl)
			tx := mocks.NewMockTransaction(ctrl)
			tt.setupMocks(txMgr, tx)

			uow := usecase.NewUnitOfWork(txMgr, nil, time.Second)
			err := uow.RunAtomic(context.Background(), tt.fn)

			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			for _, want := range tt.wantErr {
				if !errors.Is(err, want) {
					t.Fatalf("expected %v in chain, got %v", want, err)
				}
			}
		})
	}
}

func TestUnitOfWork_UsesRetrier(t *testing.T) {
	ctrl := gomock.NewController(t)
	txMgr := mocks.NewMockTransactionManager(ctrl)
	tx := mocks.NewMockTransaction(ctrl)
	retrier := mocks.NewMockRetrier(ctrl)

	retrier.EXPECT().Retry(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, fn func() error) error {
		return fn()
	})
	txMgr.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	tx.EXPECT().Commit(gomock.Any()).Return(nil)
	tx.EXPECT().Rollback(gomock.Any()).Return(nil)

	calls := 0
	uow := usecase.NewUnitOfWork(txMgr, retrier, 0)
	err := uow.RunAtomic(context.Background(), func(context.Context, usecase.Transaction) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected fn to run once, ran %d times", calls)
	}
}

func TestUnitOfWork_CancelledBeforeStart(t *testing.T) {
	ctrl := gomock.NewController(t)
	txMgr := mocks.NewMockTransactionManager(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	uow := usecase.NewUnitOfWork(txMgr, nil, time.Second)
	err := uow.RunAtomic(ctx, func(context.Context, usecase.Transaction) error {
		t.Fatal("fn must not run")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/voucherledger/internal/adapter/repository/memory"
	"github.com/iho/voucherledger/internal/domain"
	"github.com/iho/voucherledger/internal/usecase"
	"github.com/iho/voucherledger/internal/usecase/mocks"
)

func TestMergeUseCase_Scenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.company(t)
	a := f.vehicle(t, c.ID, "A")
	b := f.vehicle(t, c.ID, "B")

	f.post(t, a, "2024-06-01", "100", domain.SideDebit)
	f.post(t, b, "2024-06-02", "30", domain.SideCredit)

	result, err := f.merge.Merge(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.VouchersMoved)
	assert.False(t, result.AlreadyApplied)

	bal, err := f.balance.BalanceAsOf(ctx, b.ID, f.clock.Now())
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("70")), "got %s", bal)

	_, err = f.vehicles.GetVehicle(ctx, a.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMergeUseCase_BalancesAddUp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.company(t)
	a := f.vehicle(t, c.ID, "A")
	b := f.vehicle(t, c.ID, "B")

	f.post(t, a, "2024-03-01", "500", domain.SideDebit)
	f.post(t, a, "2024-03-09", "120.75", domain.SideCredit)
	f.post(t, a, "2024-04-15", "10.10", domain.SideDebit)
	f.post(t, b, "2024-03-05", "75", domain.SideCredit)
	f.post(t, b, "2024-04-01", "300", domain.SideDebit)

	probe := []time.Time{}
	for d := day(t, "2024-02-28"); !d.After(day(t, "2024-04-20")); d = d.AddDate(0, 0, 3) {
		probe = append(probe, d)
	}

	before := make(map[time.Time]decimal.Decimal, len(probe))
	for _, d := range probe {
		ba, err := f.balance.BalanceAsOf(ctx, a.ID, d)
		require.NoError(t, err)
		bb, err := f.balance.BalanceAsOf(ctx, b.ID, d)
		require.NoError(t, err)
		before[d] = ba.Add(bb)
	}

	aVouchers, err := f.vouchers.ListVehicleVouchers(ctx, a.ID, nil)
	require.NoError(t, err)

	_, err = f.merge.Merge(ctx, a.ID, b.ID)
	require.NoError(t, err)

	for _, d := range probe {
		after, err := f.balance.BalanceAsOf(ctx, b.ID, d)
		require.NoError(t, err)
		require.Truef(t, after.Equal(before[d]), "on %s: %s != %s", d, after, before[d])
	}

	for _, old := range aVouchers {
		moved, err := f.vouchers.GetVoucher(ctx, old.ID)
		require.NoError(t, err)

		want := *old
		want.VehicleID = b.ID
		assert.Equal(t, want, *moved, "only the vehicle reference may change")
	}

	vouchers, err := f.store.Vouchers().ListByVehicle(ctx, a.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, vouchers)
}

func TestMergeUseCase_Invalid(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.company(t)
	a := f.vehicle(t, c.ID, "A")
	b := f.vehicle(t, c.ID, "B")
	inactive := f.vehicle(t, c.ID, "Z")
	require.NoError(t, f.vehicles.DeactivateVehicle(ctx, inactive.ID))

	other, err := f.companies.CreateCompany(ctx, usecase.CreateCompanyInput{
		Name:               "Other",
		FinancialYearStart: day(t, "2024-01-01"),
		FinancialYearEnd:   day(t, "2024-12-31"),
	})
	require.NoError(t, err)
	foreign := f.vehicle(t, other.ID, "F")

	f.post(t, a, "2024-06-01", "5", domain.SideDebit)

	tests := []struct {
		name           string
		source, target string
	}{
		{"same vehicle", a.ID, a.ID},
		{"missing source", "ghost", b.ID},
		{"missing target", a.ID, "ghost"},
		{"inactive source", inactive.ID, b.ID},
		{"inactive target", a.ID, inactive.ID},
		{"different companies", a.ID, foreign.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.merge.Merge(ctx, tt.source, tt.target)
			require.ErrorIs(t, err, domain.ErrInvalidMerge)
			require.NotErrorIs(t, err, domain.ErrMergeFailed)
		})
	}

	vouchers, err := f.vouchers.ListVehicleVouchers(ctx, a.ID, nil)
	require.NoError(t, err)
	assert.Len(t, vouchers, 1, "rejected merges must not mutate")
}

func TestMergeUseCase_FailureLeavesNoPartialState(t *testing.T) {
	faults := []string{memory.FaultBulkReassign, memory.FaultVehicleDelete, memory.FaultAuditCreate, memory.FaultCommit}

	for _, fault := range faults {
		t.Run(fault, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			c := f.company(t)
			a := f.vehicle(t, c.ID, "A")
			b := f.vehicle(t, c.ID, "B")
			f.post(t, a, "2024-06-01", "100", domain.SideDebit)
			f.post(t, a, "2024-06-02", "20", domain.SideDebit)

			boom := errors.New("store unavailable")
			f.store.FailOn(fault, boom)

			_, err := f.merge.Merge(ctx, a.ID, b.ID)
			require.ErrorIs(t, err, domain.ErrMergeFailed)
			require.ErrorIs(t, err, boom)

			f.store.FailOn(fault, nil)

			_, err = f.vehicles.GetVehicle(ctx, a.ID)
			require.NoError(t, err, "source must survive a failed merge")

			aVouchers, err := f.vouchers.ListVehicleVouchers(ctx, a.ID, nil)
			require.NoError(t, err)
			assert.Len(t, aVouchers, 2)

			bVouchers, err := f.vouchers.ListVehicleVouchers(ctx, b.ID, nil)
			require.NoError(t, err)
			assert.Empty(t, bVouchers)

			// the failed call can be retried
			result, err := f.merge.Merge(ctx, a.ID, b.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(2), result.VouchersMoved)
		})
	}
}

func TestMergeUseCase_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.company(t)
	a := f.vehicle(t, c.ID, "A")
	b := f.vehicle(t, c.ID, "B")
	d := f.vehicle(t, c.ID, "D")
	f.post(t, a, "2024-06-01", "100", domain.SideDebit)
	f.post(t, a, "2024-06-03", "25", domain.SideCredit)

	first, err := f.merge.Merge(ctx, a.ID, b.ID)
	require.NoError(t, err)

	again, err := f.merge.Merge(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, again.AlreadyApplied)
	assert.Equal(t, first.VouchersMoved, again.VouchersMoved)

	bal, err := f.balance.BalanceAsOf(ctx, b.ID, f.clock.Now())
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("75")), "a repeated merge must not move anything twice")

	// a different target is not the same merge
	_, err = f.merge.Merge(ctx, a.ID, d.ID)
	require.ErrorIs(t, err, domain.ErrInvalidMerge)
}

func TestMergeUseCase_NoDeleteAfterFailedRepoint(t *testing.T) {
	ctrl := gomock.NewController(t)
	txMgr := mocks.NewMockTransactionManager(ctrl)
	tx := mocks.NewMockTransaction(ctrl)
	vehicleRepo := mocks.NewMockVehicleRepository(ctrl)
	voucherRepo := mocks.NewMockVoucherRepository(ctrl)
	auditRepo := mocks.NewMockAuditRepository(ctrl)
	metrics := mocks.NewMockMetricsRecorder(ctrl)

	repointErr := errors.New("row lock timeout")

	txMgr.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	vehicleRepo.EXPECT().GetByIDForUpdate(gomock.Any(), tx, "veh-a").
		Return(&domain.Vehicle{ID: "veh-a", CompanyID: "c1", Active: true}, nil)
	vehicleRepo.EXPECT().GetByIDForUpdate(gomock.Any(), tx, "veh-b").
		Return(&domain.Vehicle{ID: "veh-b", CompanyID: "c1", Active: true}, nil)
	voucherRepo.EXPECT().BulkReassignVehicle(gomock.Any(), tx, "veh-a", "veh-b").Return(int64(0), repointErr)
	tx.EXPECT().Rollback(gomock.Any()).Return(nil)
	metrics.EXPECT().MergeFailed()
	// Delete, CreateTx and Commit must not be called

	uc := usecase.NewMergeUseCase(usecase.NewUnitOfWork(txMgr, nil, time.Second), vehicleRepo, voucherRepo, auditRepo, metrics)

	_, err := uc.Merge(context.Background(), "veh-a", "veh-b")
	if !errors.Is(err, domain.ErrMergeFailed) || !errors.Is(err, repointErr) {
		t.Fatalf("expected ErrMergeFailed wrapping the store error, got %v", err)
	}
}

func TestMergeUseCase_LocksInIDOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	txMgr := mocks.NewMockTransactionManager(ctrl)
	tx := mocks.NewMockTransaction(ctrl)
	vehicleRepo := mocks.NewMockVehicleRepository(ctrl)
	voucherRepo := mocks.NewMockVoucherRepository(ctrl)
	auditRepo := mocks.NewMockAuditRepository(ctrl)
	metrics := mocks.NewMockMetricsRecorder(ctrl)

	txMgr.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	gomock.InOrder(
		vehicleRepo.EXPECT().GetByIDForUpdate(gomock.Any(), tx, "a-target").
			Return(&domain.Vehicle{ID: "a-target", CompanyID: "c1", Active: true}, nil),
		vehicleRepo.EXPECT().GetByIDForUpdate(gomock.Any(), tx, "z-source").
			Return(&domain.Vehicle{ID: "z-source", CompanyID: "c1", Active: true}, nil),
		voucherRepo.EXPECT().BulkReassignVehicle(gomock.Any(), tx, "z-source", "a-target").Return(int64(3), nil),
		vehicleRepo.EXPECT().Delete(gomock.Any(), tx, "z-source").Return(nil),
		auditRepo.EXPECT().CreateTx(gomock.Any(), tx, gomock.Any()).Return(nil),
		tx.EXPECT().Commit(gomock.Any()).Return(nil),
	)
	tx.EXPECT().Rollback(gomock.Any()).Return(nil)
	metrics.EXPECT().MergeCompleted(int64(3))

	uc := usecase.NewMergeUseCase(usecase.NewUnitOfWork(txMgr, nil, time.Second), vehicleRepo, voucherRepo, auditRepo, metrics)

	result, err := uc.Merge(context.Background(), "z-source", "a-target")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.VouchersMoved != 3 {
		t.Fatalf("expected 3 vouchers moved, got %d", result.VouchersMoved)
	}
}

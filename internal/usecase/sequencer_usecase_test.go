package usecase_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/voucherledger/internal/domain"
	"github.com/iho/voucherledger/internal/usecase"
	"github.com/iho/voucherledger/internal/usecase/mocks"
)

func TestSequencer_AllocateThenCommit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.company(t)

	last, err := f.sequencer.CommitVoucherNumber(ctx, c.ID, 5)
	require.NoError(t, err)
	require.Equal(t, int64(5), last)

	next, err := f.sequencer.AllocateVoucherNumber(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), next)

	again, err := f.sequencer.AllocateVoucherNumber(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), again, "allocation must not reserve the number")

	last, err = f.sequencer.CommitVoucherNumber(ctx, c.ID, next)
	require.NoError(t, err)
	assert.Equal(t, int64(6), last)
}

func TestSequencer_CommitNeverLowersHighWaterMark(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.company(t)

	_, err := f.sequencer.CommitVoucherNumber(ctx, c.ID, 10)
	require.NoError(t, err)

	last, err := f.sequencer.CommitVoucherNumber(ctx, c.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(10), last)

	last, err = f.sequencer.CommitVoucherNumber(ctx, c.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), last, "commit must be idempotent")
}

func TestSequencer_RejectsNonPositiveNumber(t *testing.T) {
	f := newFixture(t)
	c := f.company(t)

	_, err := f.sequencer.CommitVoucherNumber(context.Background(), c.ID, 0)
	require.ErrorIs(t, err, domain.ErrInvalidVoucherNumber)
}

func TestSequencer_UnknownCompany(t *testing.T) {
	f := newFixture(t)

	_, err := f.sequencer.AllocateVoucherNumber(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrCompanyNotFound)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSequencer_ValidateUnique(t *testing.T) {
	ctrl := gomock.NewController(t)
	voucherRepo := mocks.NewMockVoucherRepository(ctrl)
	companyRepo := mocks.NewMockCompanyRepository(ctrl)
	tx := mocks.NewMockTransaction(ctrl)

	seq := usecase.NewSequencerUseCase(nil, companyRepo, voucherRepo)

	voucherRepo.EXPECT().ExistsWithNumber(gomock.Any(), tx, "c1", int64(4), "v-9").Return(true, nil)
	err := seq.ValidateUnique(context.Background(), tx, "c1", 4, "v-9")
	if !errors.Is(err, domain.ErrDuplicateVoucherNumber) {
		t.Fatalf("expected ErrDuplicateVoucherNumber, got %v", err)
	}

	voucherRepo.EXPECT().ExistsWithNumber(gomock.Any(), tx, "c1", int64(5), "").Return(false, nil)
	if err := seq.ValidateUnique(context.Background(), tx, "c1", 5, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	storeErr := errors.New("timeout")
	voucherRepo.EXPECT().ExistsWithNumber(gomock.Any(), tx, "c1", int64(6), "").Return(false, storeErr)
	if err := seq.ValidateUnique(context.Background(), tx, "c1", 6, ""); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}
}

func TestSequencer_CommitSkipsWriteForLowerNumber(t *testing.T) {
	ctrl := gomock.NewController(t)
	companyRepo := mocks.NewMockCompanyRepository(ctrl)
	tx := mocks.NewMockTransaction(ctrl)

	seq := usecase.NewSequencerUseCase(nil, companyRepo, nil)

	companyRepo.EXPECT().GetByIDForUpdate(gomock.Any(), tx, "c1").
		Return(&domain.Company{ID: "c1", LastVoucherNumber: 9}, nil)
	// no UpdateLastVoucherNumber expected

	if err := seq.Commit(context.Background(), tx, "c1", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	companyRepo.EXPECT().GetByIDForUpdate(gomock.Any(), tx, "c1").
		Return(&domain.Company{ID: "c1", LastVoucherNumber: 9}, nil)
	companyRepo.EXPECT().UpdateLastVoucherNumber(gomock.Any(), tx, "c1", int64(12), gomock.Any()).Return(nil)

	if err := seq.Commit(context.Background(), tx, "c1", 12); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// After any mix of automatic and manual numbers the high-water mark equals
// the largest number ever committed.
func TestSequencer_HighWaterMarkProperty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.company(t)
	v := f.vehicle(t, c.ID, "KA-01")

	rng := rand.New(rand.NewSource(7))
	used := map[int64]bool{}
	var maxSeen int64

	for i := 0; i < 60; i++ {
		input := usecase.CreateVoucherInput{
			CompanyID: c.ID,
			VehicleID: v.ID,
			Date:      domain.NewDate(2024, time.May, 1+rng.Intn(28)),
			Amount:    dec("12.50"),
			Side:      domain.SideDebit,
		}
		if rng.Intn(3) == 0 {
			input.VoucherNumber = int64p(int64(1 + rng.Intn(200)))
		}

		voucher, err := f.vouchers.CreateVoucher(ctx, input)
		if input.VoucherNumber != nil && used[*input.VoucherNumber] {
			require.ErrorIs(t, err, domain.ErrDuplicateVoucherNumber)
			continue
		}
		require.NoError(t, err)

		used[voucher.VoucherNumber] = true
		maxSeen = max(maxSeen, voucher.VoucherNumber)

		company, err := f.companies.GetCompany(ctx, c.ID)
		require.NoError(t, err)
		require.Equal(t, maxSeen, company.LastVoucherNumber)
	}
}

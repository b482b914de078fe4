package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validVoucher() *Voucher {
	return &Voucher{
		ID:            "v-1",
		CompanyID:     "c-1",
		VehicleID:     "veh-1",
		VoucherNumber: 1,
		Date:          NewDate(2024, time.January, 1),
		Amount:        decimal.NewFromInt(100),
		Side:          SideDebit,
	}
}

func TestVoucher_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(v *Voucher)
		expectError error
		field       string
	}{
		{
			name:   "valid voucher",
			mutate: func(v *Voucher) {},
		},
		{
			name:        "zero amount",
			mutate:      func(v *Voucher) { v.Amount = decimal.Zero },
			expectError: ErrInvalidAmount,
			field:       "amount",
		},
		{
			name:        "negative amount",
			mutate:      func(v *Voucher) { v.Amount = decimal.NewFromInt(-5) },
			expectError: ErrInvalidAmount,
			field:       "amount",
		},
		{
			name:        "three decimal places",
			mutate:      func(v *Voucher) { v.Amount = decimal.RequireFromString("10.005") },
			expectError: ErrInvalidAmountScale,
			field:       "amount",
		},
		{
			name:        "invalid side",
			mutate:      func(v *Voucher) { v.Side = "sideways" },
			expectError: ErrInvalidSide,
			field:       "side",
		},
		{
			name:        "missing vehicle",
			mutate:      func(v *Voucher) { v.VehicleID = " " },
			expectError: ErrMissingReference,
			field:       "vehicle_id",
		},
		{
			name:        "missing company",
			mutate:      func(v *Voucher) { v.CompanyID = "" },
			expectError: ErrMissingReference,
			field:       "company_id",
		},
		{
			name:        "zero voucher number",
			mutate:      func(v *Voucher) { v.VoucherNumber = 0 },
			expectError: ErrInvalidVoucherNumber,
			field:       "voucher_number",
		},
		{
			name:        "missing date",
			mutate:      func(v *Voucher) { v.Date = time.Time{} },
			expectError: ErrInvalidDate,
			field:       "date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validVoucher()
			tt.mutate(v)

			err := v.Validate()

			if tt.expectError == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			if !errors.Is(err, tt.expectError) {
				t.Fatalf("expected %v, got %v", tt.expectError, err)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected error to match ErrValidation, got %v", err)
			}

			var vErr *ValidationError
			if !errors.As(err, &vErr) || vErr.Field != tt.field {
				t.Fatalf("expected field %q, got %+v", tt.field, vErr)
			}
		})
	}
}

func TestVoucher_SignedAmount(t *testing.T) {
	v := validVoucher()
	if !v.SignedAmount().Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected debit to be positive, got %s", v.SignedAmount())
	}

	v.Side = SideCredit
	if !v.SignedAmount().Equal(decimal.NewFromInt(-100)) {
		t.Errorf("expected credit to be negative, got %s", v.SignedAmount())
	}
}

func TestSideOf(t *testing.T) {
	if SideOf(decimal.Zero) != SideDebit {
		t.Error("zero balance must be reported as debit")
	}
	if SideOf(decimal.NewFromInt(1)) != SideDebit {
		t.Error("positive balance must be debit")
	}
	if SideOf(decimal.NewFromInt(-1)) != SideCredit {
		t.Error("negative balance must be credit")
	}
}

func TestParseSide(t *testing.T) {
	side, err := ParseSide(" Credit ")
	if err != nil || side != SideCredit {
		t.Fatalf("expected credit, got %q err=%v", side, err)
	}

	if _, err := ParseSide("both"); !errors.Is(err, ErrInvalidSide) {
		t.Fatalf("expected ErrInvalidSide, got %v", err)
	}
}

func TestCompareVouchers(t *testing.T) {
	day1 := NewDate(2024, time.March, 1)
	day2 := NewDate(2024, time.March, 2)

	a := &Voucher{ID: "a", Date: day1, VoucherNumber: 9}
	b := &Voucher{ID: "b", Date: day2, VoucherNumber: 1}
	c := &Voucher{ID: "c", Date: day2, VoucherNumber: 2}

	if CompareVouchers(a, b) >= 0 {
		t.Error("earlier date must sort first regardless of number")
	}
	if CompareVouchers(b, c) >= 0 {
		t.Error("same day must sort by voucher number")
	}
	if CompareVouchers(c, c) != 0 {
		t.Error("voucher must compare equal to itself")
	}
}

package postgres

import (
	"context"
	"errors"
	"math/big"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"

	"github.com/iho/voucherledger/internal/domain"
)

var voucherColumns = []string{
	"id", "company_id", "voucher_number", "date", "vehicle_id", "amount",
	"side", "narration", "version", "created_at", "modified_at",
}

func voucherRow(id string, number int64, date time.Time, cents int64, side domain.Side) []any {
	now := pgtype.Timestamptz{Time: time.Unix(1700000000, 0).UTC(), Valid: true}
	return []any{
		id, "c1", number, pgtype.Date{Time: date, Valid: true}, "veh-1",
		pgtype.Numeric{Int: big.NewInt(cents), Exp: -2, Valid: true},
		string(side), "", int64(1), now, now,
	}
}

func TestCompanyRepository_UpdateLastVoucherNumber(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     error
	}{
		{"raised", 1, nil},
		{"unknown company", 0, domain.ErrCompanyNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := newMockPool(t)
			tx := beginTx(t, pool)
			pool.ExpectExec(regexp.QuoteMeta("GREATEST(last_voucher_number, $2)")).
				WithArgs("c1", int64(7), pgxmock.AnyArg()).
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))

			err := NewCompanyRepository(pool).UpdateLastVoucherNumber(context.Background(), tx, "c1", 7, time.Now())
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}

			assertExpectations(t, pool)
		})
	}
}

func TestCompanyRepository_GetByIDNotFound(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectQuery("FROM companies WHERE id").WithArgs("ghost").WillReturnError(pgx.ErrNoRows)

	_, err := NewCompanyRepository(pool).GetByID(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrCompanyNotFound) {
		t.Fatalf("expected ErrCompanyNotFound, got %v", err)
	}
}

func TestVehicleRepository_ConstraintMapping(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate active label", func(t *testing.T) {
		pool := newMockPool(t)
		tx := beginTx(t, pool)
		pool.ExpectExec("INSERT INTO vehicles").
			WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: constraintActiveVehicleNumber})

		err := NewVehicleRepository(pool).Create(ctx, tx, &domain.Vehicle{ID: "v1", CompanyID: "c1", Number: "MH12", Active: true})
		if !errors.Is(err, domain.ErrDuplicateVehicleNumber) {
			t.Fatalf("expected ErrDuplicateVehicleNumber, got %v", err)
		}
	})

	t.Run("delete with vouchers", func(t *testing.T) {
		pool := newMockPool(t)
		tx := beginTx(t, pool)
		pool.ExpectExec("DELETE FROM vehicles").WithArgs("v1").
			WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation, ConstraintName: constraintVoucherVehicle})

		err := NewVehicleRepository(pool).Delete(ctx, tx, "v1")
		if !errors.Is(err, domain.ErrVehicleHasVouchers) {
			t.Fatalf("expected ErrVehicleHasVouchers, got %v", err)
		}
	})

	t.Run("delete unknown", func(t *testing.T) {
		pool := newMockPool(t)
		tx := beginTx(t, pool)
		pool.ExpectExec("DELETE FROM vehicles").WithArgs("v1").WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err := NewVehicleRepository(pool).Delete(ctx, tx, "v1")
		if !errors.Is(err, domain.ErrVehicleNotFound) {
			t.Fatalf("expected ErrVehicleNotFound, got %v", err)
		}
	})
}

func TestVoucherRepository_BulkReassignVehicle(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)
	pool.ExpectExec(regexp.QuoteMeta("UPDATE vouchers SET vehicle_id = $1 WHERE vehicle_id = $2")).
		WithArgs("target", "source").
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	moved, err := NewVoucherRepository(pool).BulkReassignVehicle(context.Background(), tx, "source", "target")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if moved != 3 {
		t.Fatalf("expected 3 vouchers moved, got %d", moved)
	}

	assertExpectations(t, pool)
}

func TestVoucherRepository_UpdateVersionMismatch(t *testing.T) {
	voucher := &domain.Voucher{
		ID:            "vch-1",
		CompanyID:     "c1",
		VoucherNumber: 4,
		Date:          domain.NewDate(2024, time.May, 1),
		VehicleID:     "veh-1",
		Amount:        decimal.NewFromInt(10),
		Side:          domain.SideDebit,
	}

	t.Run("stale version", func(t *testing.T) {
		pool := newMockPool(t)
		tx := beginTx(t, pool)
		pool.ExpectExec("UPDATE vouchers").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		pool.ExpectQuery("FROM vouchers WHERE id").WithArgs("vch-1").
			WillReturnRows(pgxmock.NewRows(voucherColumns).
				AddRow(voucherRow("vch-1", 4, voucher.Date, 1000, domain.SideDebit)...))

		err := NewVoucherRepository(pool).Update(context.Background(), tx, voucher, 1)
		if !errors.Is(err, domain.ErrVersionConflict) {
			t.Fatalf("expected ErrVersionConflict, got %v", err)
		}
		assertExpectations(t, pool)
	})

	t.Run("deleted meanwhile", func(t *testing.T) {
		pool := newMockPool(t)
		tx := beginTx(t, pool)
		pool.ExpectExec("UPDATE vouchers").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		pool.ExpectQuery("FROM vouchers WHERE id").WithArgs("vch-1").WillReturnError(pgx.ErrNoRows)

		err := NewVoucherRepository(pool).Update(context.Background(), tx, voucher, 1)
		if !errors.Is(err, domain.ErrVoucherNotFound) {
			t.Fatalf("expected ErrVoucherNotFound, got %v", err)
		}
	})
}

func TestVoucherRepository_ListByVehicle(t *testing.T) {
	pool := newMockPool(t)
	may1 := domain.NewDate(2024, time.May, 1)
	may2 := domain.NewDate(2024, time.May, 2)

	pool.ExpectQuery("WHERE vehicle_id = \\$1 AND date BETWEEN").
		WithArgs("veh-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(voucherColumns).
			AddRow(voucherRow("a", 1, may1, 12345, domain.SideDebit)...).
			AddRow(voucherRow("b", 2, may2, 50, domain.SideCredit)...))

	vouchers, err := NewVoucherRepository(pool).ListByVehicle(context.Background(), "veh-1", &domain.DateRange{Start: may1, End: may2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vouchers) != 2 {
		t.Fatalf("expected 2 vouchers, got %d", len(vouchers))
	}
	if !vouchers[0].Amount.Equal(decimal.RequireFromString("123.45")) {
		t.Fatalf("expected 123.45, got %s", vouchers[0].Amount)
	}
	if vouchers[1].Side != domain.SideCredit || !vouchers[1].Date.Equal(may2) {
		t.Fatalf("unexpected second voucher %+v", vouchers[1])
	}

	assertExpectations(t, pool)
}

func TestVoucherRepository_LastByVehicleAndSideEmpty(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectQuery("ORDER BY date DESC").WillReturnError(pgx.ErrNoRows)

	v, err := NewVoucherRepository(pool).LastByVehicleAndSide(context.Background(), "veh-1", domain.SideCredit, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != nil {
		t.Fatalf("expected no voucher, got %+v", v)
	}
}

func TestVoucherRepository_SumByVehicle(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectQuery("COALESCE\\(SUM").
		WithArgs("veh-1", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"balance"}).
			AddRow(pgtype.Numeric{Int: big.NewInt(-7050), Exp: -2, Valid: true}))

	sum, err := NewVoucherRepository(pool).SumByVehicle(context.Background(), "veh-1", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.Equal(decimal.RequireFromString("-70.50")) {
		t.Fatalf("expected -70.50, got %s", sum)
	}
}

func TestAuditRepository_FindMerge(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		pool := newMockPool(t)
		pool.ExpectQuery("FROM audit_logs").WithArgs("src").WillReturnError(pgx.ErrNoRows)

		log, err := NewAuditRepository(pool).FindMerge(context.Background(), "src")
		if err != nil || log != nil {
			t.Fatalf("expected nil, nil; got %+v, %v", log, err)
		}
	})

	t.Run("recorded", func(t *testing.T) {
		pool := newMockPool(t)
		pool.ExpectQuery("FROM audit_logs").WithArgs("src").
			WillReturnRows(pgxmock.NewRows([]string{
				"id", "action", "resource_type", "resource_id", "related_id",
				"before_state", "after_state", "status", "created_at",
			}).AddRow(
				"a1", string(domain.AuditActionVehicleMerge), domain.ResourceTypeVehicle, "src", "dst",
				[]byte(`{"number":"A"}`), []byte(`{"vouchers_moved":3}`), string(domain.AuditStatusSuccess),
				pgtype.Timestamptz{Time: time.Now(), Valid: true},
			))

		log, err := NewAuditRepository(pool).FindMerge(context.Background(), "src")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if log.RelatedID != "dst" {
			t.Fatalf("expected target dst, got %q", log.RelatedID)
		}
		if moved, ok := log.AfterState["vouchers_moved"].(float64); !ok || moved != 3 {
			t.Fatalf("expected 3 vouchers moved, got %v", log.AfterState["vouchers_moved"])
		}
	})
}

func TestMapConstraintError(t *testing.T) {
	other := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"plain error", other, other},
		{"voucher number", &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: constraintVoucherNumber}, domain.ErrDuplicateVoucherNumber},
		{"vehicle label", &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: constraintActiveVehicleNumber}, domain.ErrDuplicateVehicleNumber},
		{"voucher vehicle fk", &pgconn.PgError{Code: pgErrForeignKeyViolation, ConstraintName: constraintVoucherVehicle}, domain.ErrVehicleHasVouchers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapConstraintError(tt.err)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}

	unknown := &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "something_else"}
	if got := mapConstraintError(unknown); got != unknown {
		t.Fatalf("unknown constraints must pass through, got %v", got)
	}
}

func TestNumericRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "0.01", "123.45", "-70.5", "999999999999.99"} {
		d := decimal.RequireFromString(s)
		if got := numericToDecimal(decimalToNumeric(d)); !got.Equal(d) {
			t.Fatalf("%s: round trip gave %s", s, got)
		}
	}

	if !numericToDecimal(pgtype.Numeric{}).IsZero() {
		t.Fatalf("invalid numeric must read as zero")
	}
}

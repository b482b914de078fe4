package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/voucherledger/internal/domain"
)

// PostgreSQL error codes mapped to domain errors.
const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

// Constraint names from the schema migrations.
const (
	constraintVoucherNumber       = "vouchers_company_number_key"
	constraintActiveVehicleNumber = "vehicles_active_number_idx"
	constraintVoucherVehicle      = "vouchers_vehicle_id_fkey"
)

// mapConstraintError translates constraint violations into domain errors.
// Anything else is returned unchanged.
func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch {
	case pgErr.Code == pgErrUniqueViolation && pgErr.ConstraintName == constraintVoucherNumber:
		return fmt.Errorf("%w: %s", domain.ErrDuplicateVoucherNumber, pgErr.Detail)
	case pgErr.Code == pgErrUniqueViolation && pgErr.ConstraintName == constraintActiveVehicleNumber:
		return fmt.Errorf("%w: %s", domain.ErrDuplicateVehicleNumber, pgErr.Detail)
	case pgErr.Code == pgErrForeignKeyViolation && pgErr.ConstraintName == constraintVoucherVehicle:
		return domain.ErrVehicleHasVouchers
	}

	return err
}

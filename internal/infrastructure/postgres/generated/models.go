package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type AuditLog struct {
	ID           string             `json:"id"`
	Action       string             `json:"action"`
	ResourceType string             `json:"resource_type"`
	ResourceID   string             `json:"resource_id"`
	RelatedID    string             `json:"related_id"`
	BeforeState  []byte             `json:"before_state"`
	AfterState   []byte             `json:"after_state"`
	Status       string             `json:"status"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
}

type Company struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	FinancialYearStart pgtype.Date        `json:"financial_year_start"`
	FinancialYearEnd   pgtype.Date        `json:"financial_year_end"`
	LastVoucherNumber  int64              `json:"last_voucher_number"`
	Active             bool               `json:"active"`
	Version            int64              `json:"version"`
	CreatedAt          pgtype.Timestamptz `json:"created_at"`
	UpdatedAt          pgtype.Timestamptz `json:"updated_at"`
}

type Vehicle struct {
	ID          string             `json:"id"`
	CompanyID   string             `json:"company_id"`
	Number      string             `json:"number"`
	Description string             `json:"description"`
	Active      bool               `json:"active"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
}

type Voucher struct {
	ID            string             `json:"id"`
	CompanyID     string             `json:"company_id"`
	VoucherNumber int64              `json:"voucher_number"`
	Date          pgtype.Date        `json:"date"`
	VehicleID     string             `json:"vehicle_id"`
	Amount        pgtype.Numeric     `json:"amount"`
	Side          string             `json:"side"`
	Narration     string             `json:"narration"`
	Version       int64              `json:"version"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	ModifiedAt    pgtype.Timestamptz `json:"modified_at"`
}

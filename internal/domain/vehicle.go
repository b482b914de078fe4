package domain

import (
	"strings"
	"time"
)

// Vehicle is an account inside a company. Historically a vehicle, it can be
// any named ledger subject.
type Vehicle struct {
	ID          string
	CompanyID   string
	Number      string
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Label returns the display label used for sorting and grouping.
func (v *Vehicle) Label() string {
	return strings.TrimSpace(v.Number)
}

// LabelPrefix returns the first n runes of the upper-cased label.
// Short labels are returned whole.
func (v *Vehicle) LabelPrefix(n int) string {
	label := []rune(strings.ToUpper(v.Label()))
	if n <= 0 || n >= len(label) {
		return string(label)
	}
	return string(label[:n])
}

// NormalizeVehicleNumber returns the key used for label uniqueness.
func NormalizeVehicleNumber(number string) string {
	return strings.ToLower(strings.TrimSpace(number))
}

// CompareVehicleLabels orders vehicles by label, case-insensitively first,
// then by exact label and id so the order is total.
func CompareVehicleLabels(a, b *Vehicle) int {
	if c := strings.Compare(NormalizeVehicleNumber(a.Number), NormalizeVehicleNumber(b.Number)); c != 0 {
		return c
	}
	if c := strings.Compare(a.Label(), b.Label()); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

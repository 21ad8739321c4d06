package domain

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidYearMonth is returned for month keys not shaped like YYYY-MM.
var ErrInvalidYearMonth = errors.New("invalid month format, expected YYYY-MM")

var yearMonthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

const yearMonthLayout = "2006-01"

// YearMonth is a budget month key in the form YYYY-MM.
type YearMonth string

// ParseYearMonth validates s and returns it as a YearMonth.
func ParseYearMonth(s string) (YearMonth, error) {
	if !yearMonthPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidYearMonth, s)
	}
	return YearMonth(s), nil
}

// YearMonthOf returns the month key a calendar day falls in.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth(t.UTC().Format(yearMonthLayout))
}

// String implements fmt.Stringer.
func (m YearMonth) String() string {
	return string(m)
}

// Bounds returns the first and last calendar day of the month, both inclusive.
func (m YearMonth) Bounds() (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(yearMonthLayout, string(m), time.UTC)
	if err != nil || !yearMonthPattern.MatchString(string(m)) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidYearMonth, string(m))
	}
	end := start.AddDate(0, 1, -1)
	return start, end, nil
}

// Year returns the year part of the key.
func (m YearMonth) Year() int {
	t, _ := time.ParseInLocation(yearMonthLayout, string(m), time.UTC)
	return t.Year()
}

// MonthNumber returns the 1-12 month part of the key.
func (m YearMonth) MonthNumber() int {
	t, _ := time.ParseInLocation(yearMonthLayout, string(m), time.UTC)
	return int(t.Month())
}

// DistinctMonths reduces dates to their sorted set of month keys. Zero dates are skipped.
func DistinctMonths(dates []time.Time) []YearMonth {
	seen := make(map[YearMonth]struct{}, len(dates))
	months := make([]YearMonth, 0, len(dates))
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		m := YearMonthOf(d)
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i] < months[j] })
	return months
}

// Budget is the monthly budget aggregate of one owner.
// RecordedExpense is derived from receipts; every other amount is user-set.
type Budget struct {
	BudgetID        string          `json:"budgetID"`
	OwnerID         string          `json:"ownerID"`
	Month           YearMonth       `json:"month"`
	Amount          decimal.Decimal `json:"amount"`
	OtherExpense    decimal.Decimal `json:"otherExpense"`
	RecordedExpense decimal.Decimal `json:"recordedExpense"`
	Surplus         decimal.Decimal `json:"surplus"`
	Notes           *string         `json:"notes,omitempty"`
	AuditFields
}

// NewBudget builds a budget row after validating the month key.
func NewBudget(budgetID, ownerID, month string) (Budget, error) {
	ym, err := ParseYearMonth(month)
	if err != nil {
		return Budget{}, err
	}
	return Budget{
		BudgetID:        budgetID,
		OwnerID:         ownerID,
		Month:           ym,
		Amount:          decimal.Zero,
		OtherExpense:    decimal.Zero,
		RecordedExpense: decimal.Zero,
		Surplus:         decimal.Zero,
	}, nil
}

// Remaining is the planned amount minus everything spent in the month.
func (b Budget) Remaining() decimal.Decimal {
	return b.Amount.Sub(b.RecordedExpense).Sub(b.OtherExpense)
}

// BudgetPatch carries a sparse set of user-editable budget fields.
type BudgetPatch struct {
	Amount       *decimal.Decimal
	OtherExpense *decimal.Decimal
	Surplus      *decimal.Decimal
	Notes        *string
}

// Apply returns a copy of b with the patch fields overridden.
func (b Budget) Apply(p BudgetPatch) Budget {
	out := b
	if p.Amount != nil {
		out.Amount = *p.Amount
	}
	if p.OtherExpense != nil {
		out.OtherExpense = *p.OtherExpense
	}
	if p.Surplus != nil {
		out.Surplus = *p.Surplus
	}
	if p.Notes != nil {
		notes := *p.Notes
		out.Notes = &notes
	}
	return out
}

// BudgetOverview pairs a month number with this and last year's budgets.
type BudgetOverview struct {
	Month       int     `json:"month"`
	CurrentYear *Budget `json:"currentYear,omitempty"`
	LastYear    *Budget `json:"lastYear,omitempty"`
}

package models

import "github.com/shopspring/decimal"

// Budget is a row of the budgets table, unique per (owner_id, month).
type Budget struct {
	BudgetID        string          `json:"budgetID"` // Primary Key (UUID)
	OwnerID         string          `json:"ownerID"`
	Month           string          `json:"month"` // char(7) YYYY-MM
	Amount          decimal.Decimal `json:"amount"`
	OtherExpense    decimal.Decimal `json:"otherExpense"`
	RecordedExpense decimal.Decimal `json:"recordedExpense"` // written only by reconciliation
	Surplus         decimal.Decimal `json:"surplus"`
	Notes           *string         `json:"notes"`
	AuditFields
}

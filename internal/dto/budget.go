package dto

import (
	"time"

	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateBudgetRequest defines the data needed to plan a month.
type CreateBudgetRequest struct {
	Month        string          `json:"month" binding:"required,yearmonth"`
	Amount       decimal.Decimal `json:"amount"`
	OtherExpense decimal.Decimal `json:"otherExpense"`
	Surplus      decimal.Decimal `json:"surplus"`
	Notes        *string         `json:"notes" binding:"omitempty,max=100"`
}

// UpdateBudgetRequest defines the user-editable budget fields. Recorded expense is derived and not accepted.
type UpdateBudgetRequest struct {
	Amount       *decimal.Decimal `json:"amount"`
	OtherExpense *decimal.Decimal `json:"otherExpense"`
	Surplus      *decimal.Decimal `json:"surplus"`
	Notes        *string          `json:"notes" binding:"omitempty,max=100"`
}

// ListBudgetsParams bounds a budget listing by month, both ends inclusive.
type ListBudgetsParams struct {
	StartMonth string `form:"startMonth" binding:"omitempty,yearmonth"`
	EndMonth   string `form:"endMonth" binding:"omitempty,yearmonth"`
}

// BudgetResponse defines the data returned for a budget.
type BudgetResponse struct {
	BudgetID        string          `json:"budgetID"`
	Month           string          `json:"month"`
	Amount          decimal.Decimal `json:"amount"`
	OtherExpense    decimal.Decimal `json:"otherExpense"`
	RecordedExpense decimal.Decimal `json:"recordedExpense"`
	Surplus         decimal.Decimal `json:"surplus"`
	Remaining       decimal.Decimal `json:"remaining"`
	Notes           *string         `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	LastUpdatedAt   time.Time       `json:"lastUpdatedAt"`
}

// ListBudgetsResponse wraps a list of budgets.
type ListBudgetsResponse struct {
	Budgets []BudgetResponse `json:"budgets"`
}

// BudgetOverviewRow pairs a calendar month with this and last year's budget.
type BudgetOverviewRow struct {
	Month       int             `json:"month"`
	CurrentYear *BudgetResponse `json:"currentYear,omitempty"`
	LastYear    *BudgetResponse `json:"lastYear,omitempty"`
}

// BudgetOverviewResponse is the year-over-year budget comparison.
type BudgetOverviewResponse struct {
	Year   int                 `json:"year"`
	Months []BudgetOverviewRow `json:"months"`
}

// ToBudgetResponse converts a domain.Budget to BudgetResponse DTO
func ToBudgetResponse(b *domain.Budget) BudgetResponse {
	return BudgetResponse{
		BudgetID:        b.BudgetID,
		Month:           b.Month.String(),
		Amount:          b.Amount,
		OtherExpense:    b.OtherExpense,
		RecordedExpense: b.RecordedExpense,
		Surplus:         b.Surplus,
		Remaining:       b.Remaining(),
		Notes:           b.Notes,
		CreatedAt:       b.CreatedAt,
		LastUpdatedAt:   b.LastUpdatedAt,
	}
}

// ToListBudgetsResponse converts budgets to their list response.
func ToListBudgetsResponse(budgets []domain.Budget) ListBudgetsResponse {
	out := ListBudgetsResponse{Budgets: make([]BudgetResponse, len(budgets))}
	for i := range budgets {
		out.Budgets[i] = ToBudgetResponse(&budgets[i])
	}
	return out
}

// ToBudgetOverviewResponse converts the grouped overview rows.
func ToBudgetOverviewResponse(year int, rows []domain.BudgetOverview) BudgetOverviewResponse {
	out := BudgetOverviewResponse{Year: year, Months: make([]BudgetOverviewRow, len(rows))}
	for i, row := range rows {
		out.Months[i] = BudgetOverviewRow{Month: row.Month}
		if row.CurrentYear != nil {
			resp := ToBudgetResponse(row.CurrentYear)
			out.Months[i].CurrentYear = &resp
		}
		if row.LastYear != nil {
			resp := ToBudgetResponse(row.LastYear)
			out.Months[i].LastYear = &resp
		}
	}
	return out
}

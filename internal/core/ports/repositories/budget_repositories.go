package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BudgetReader defines read operations for budget data
type BudgetReader interface {
	// FindBudgetByID retrieves a budget by its unique identifier.
	FindBudgetByID(ctx context.Context, budgetID string) (*domain.Budget, error)

	// FindBudgetByOwnerAndMonth retrieves the single budget of an owner for a month.
	FindBudgetByOwnerAndMonth(ctx context.Context, ownerID string, month domain.YearMonth) (*domain.Budget, error)

	// ListBudgets returns the owner's budgets ordered by month ascending. Nil bounds are open.
	ListBudgets(ctx context.Context, ownerID string, from, to *domain.YearMonth) ([]domain.Budget, error)
}

// BudgetWriter defines write operations for budget data
type BudgetWriter interface {
	// SaveBudget inserts a new budget. A second budget for the same owner and month yields apperrors.ErrDuplicate.
	SaveBudget(ctx context.Context, budget domain.Budget) error

	// UpdateBudget persists the user-editable fields of a budget.
	UpdateBudget(ctx context.Context, budget domain.Budget) error

	// UpsertRecordedExpense sets the recorded expense of (owner, month), creating the budget with
	// zero planned fields when none exists. Only recorded_expense changes on an existing row.
	UpsertRecordedExpense(ctx context.Context, ownerID string, month domain.YearMonth, amount decimal.Decimal, at time.Time) (*domain.Budget, error)

	// DeleteBudgets removes the given budgets of the owner and returns how many rows were removed.
	DeleteBudgets(ctx context.Context, ownerID string, budgetIDs []string) (int64, error)
}

// BudgetRepositoryFacade combines all budget-related repository interfaces
type BudgetRepositoryFacade interface {
	BudgetReader
	BudgetWriter
}

package services

import (
	"context"
	"time"

	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
	"github.com/SscSPs/receipt_budget_app/internal/dto"
)

// BudgetReaderSvc defines read operations for budget data
type BudgetReaderSvc interface {
	GetBudget(ctx context.Context, ownerID string, budgetID string) (*domain.Budget, error)

	// GetCurrentBudget returns the budget of the current month, or nil when none exists yet.
	GetCurrentBudget(ctx context.Context, ownerID string) (*domain.Budget, error)

	ListBudgets(ctx context.Context, ownerID string, params dto.ListBudgetsParams) ([]domain.Budget, error)

	// GetBudgetsOverview groups this and last calendar year's budgets by month number.
	GetBudgetsOverview(ctx context.Context, ownerID string) (int, []domain.BudgetOverview, error)
}

// BudgetWriterSvc defines write operations for budget data
type BudgetWriterSvc interface {
	CreateBudget(ctx context.Context, ownerID string, req dto.CreateBudgetRequest) (*domain.Budget, error)
	UpdateBudget(ctx context.Context, ownerID string, budgetID string, req dto.UpdateBudgetRequest) (*domain.Budget, error)
	DeleteBudgets(ctx context.Context, ownerID string, budgetIDs []string) error
}

// BudgetSvcFacade combines all budget-related service interfaces
type BudgetSvcFacade interface {
	BudgetReaderSvc
	BudgetWriterSvc
}

// BudgetReconcilerSvc recomputes recorded expenses from current receipt data.
type BudgetReconcilerSvc interface {
	// Reconcile recomputes every distinct month touched by dates. It is a full recompute and idempotent.
	Reconcile(ctx context.Context, ownerID string, dates []time.Time) ([]domain.YearMonth, error)
}

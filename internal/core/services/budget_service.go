package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/receipt_budget_app/internal/apperrors"
	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
	portsrepo "github.com/SscSPs/receipt_budget_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/receipt_budget_app/internal/core/ports/services"
	"github.com/SscSPs/receipt_budget_app/internal/dto"
)

// BudgetServiceOption is a functional option for configuring the budget service
type BudgetServiceOption func(*budgetService)

// WithBudgetClock replaces the clock that decides the current month and year.
func WithBudgetClock(clock func() time.Time) BudgetServiceOption {
	return func(s *budgetService) {
		s.clock = clock
	}
}

// budgetService manages the user-editable side of monthly budgets.
type budgetService struct {
	BaseService
	budgetRepo portsrepo.BudgetRepositoryFacade
	reconciler portssvc.BudgetReconcilerSvc
}

// NewBudgetService creates a new budget service.
func NewBudgetService(budgetRepo portsrepo.BudgetRepositoryFacade, reconciler portssvc.BudgetReconcilerSvc, options ...BudgetServiceOption) portssvc.BudgetSvcFacade {
	s := &budgetService{
		budgetRepo: budgetRepo,
		reconciler: reconciler,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

var _ portssvc.BudgetSvcFacade = (*budgetService)(nil)

func validateNonNegative(name string, v *decimal.Decimal) error {
	if v != nil && v.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative", apperrors.ErrValidation, name)
	}
	return nil
}

// CreateBudget plans a month. The month key is validated before any store access.
func (s *budgetService) CreateBudget(ctx context.Context, ownerID string, req dto.CreateBudgetRequest) (*domain.Budget, error) {
	logger := s.GetLogger(ctx)

	budget, err := domain.NewBudget(uuid.NewString(), ownerID, req.Month)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
	}
	if err := validateNonNegative("amount", &req.Amount); err != nil {
		return nil, err
	}
	if err := validateNonNegative("otherExpense", &req.OtherExpense); err != nil {
		return nil, err
	}

	existing, err := s.budgetRepo.FindBudgetByOwnerAndMonth(ctx, ownerID, budget.Month)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing budget: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: budget for %s already exists", apperrors.ErrDuplicate, budget.Month)
	}

	now := s.Now()
	budget.Amount = req.Amount
	budget.OtherExpense = req.OtherExpense
	budget.Surplus = req.Surplus
	budget.Notes = req.Notes
	budget.AuditFields = domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     ownerID,
		LastUpdatedAt: now,
		LastUpdatedBy: ownerID,
	}

	if err := s.budgetRepo.SaveBudget(ctx, budget); err != nil {
		s.LogError(ctx, err, "Failed to save budget", slog.String("month", budget.Month.String()))
		return nil, fmt.Errorf("failed to save budget: %w", err)
	}

	// A budget recreated after deletion must pick up receipts already in its month.
	start, _, _ := budget.Month.Bounds()
	if _, err := s.reconciler.Reconcile(ctx, ownerID, []time.Time{start}); err != nil {
		return nil, err
	}
	reconciled, err := s.budgetRepo.FindBudgetByOwnerAndMonth(ctx, ownerID, budget.Month)
	if err != nil {
		return nil, fmt.Errorf("failed to reload budget: %w", err)
	}

	logger.Info("Budget created", slog.String("budget_id", reconciled.BudgetID), slog.String("month", reconciled.Month.String()))
	return reconciled, nil
}

// GetBudget returns one of the owner's budgets.
func (s *budgetService) GetBudget(ctx context.Context, ownerID string, budgetID string) (*domain.Budget, error) {
	budget, err := s.budgetRepo.FindBudgetByID(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureOwner(ctx, "budget", budgetID, budget.OwnerID, ownerID); err != nil {
		return nil, err
	}
	return budget, nil
}

// GetCurrentBudget returns the budget of the current month, or nil when none exists.
func (s *budgetService) GetCurrentBudget(ctx context.Context, ownerID string) (*domain.Budget, error) {
	month := domain.YearMonthOf(s.Now())
	budget, err := s.budgetRepo.FindBudgetByOwnerAndMonth(ctx, ownerID, month)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current budget: %w", err)
	}
	return budget, nil
}

// ListBudgets returns the owner's budgets within the optional month bounds.
func (s *budgetService) ListBudgets(ctx context.Context, ownerID string, params dto.ListBudgetsParams) ([]domain.Budget, error) {
	var from, to *domain.YearMonth
	if params.StartMonth != "" {
		m, err := domain.ParseYearMonth(params.StartMonth)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
		}
		from = &m
	}
	if params.EndMonth != "" {
		m, err := domain.ParseYearMonth(params.EndMonth)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
		}
		to = &m
	}
	if from != nil && to != nil && *to < *from {
		return nil, fmt.Errorf("%w: endMonth is before startMonth", apperrors.ErrValidation)
	}

	budgets, err := s.budgetRepo.ListBudgets(ctx, ownerID, from, to)
	if err != nil {
		s.LogError(ctx, err, "Failed to list budgets")
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	return budgets, nil
}

// GetBudgetsOverview groups this and last calendar year's budgets by month number.
func (s *budgetService) GetBudgetsOverview(ctx context.Context, ownerID string) (int, []domain.BudgetOverview, error) {
	year := s.Now().Year()
	from := domain.YearMonth(fmt.Sprintf("%04d-01", year-1))
	to := domain.YearMonth(fmt.Sprintf("%04d-12", year))

	budgets, err := s.budgetRepo.ListBudgets(ctx, ownerID, &from, &to)
	if err != nil {
		s.LogError(ctx, err, "Failed to load budgets for overview")
		return 0, nil, fmt.Errorf("failed to load budgets: %w", err)
	}

	rows := make([]domain.BudgetOverview, 12)
	for i := range rows {
		rows[i].Month = i + 1
	}
	for i := range budgets {
		b := budgets[i]
		idx := b.Month.MonthNumber() - 1
		if idx < 0 || idx >= len(rows) {
			continue
		}
		switch b.Month.Year() {
		case year:
			rows[idx].CurrentYear = &b
		case year - 1:
			rows[idx].LastYear = &b
		}
	}
	return year, rows, nil
}

// UpdateBudget changes the planned fields, surplus and notes. Recorded expense is never touched.
func (s *budgetService) UpdateBudget(ctx context.Context, ownerID string, budgetID string, req dto.UpdateBudgetRequest) (*domain.Budget, error) {
	existing, err := s.GetBudget(ctx, ownerID, budgetID)
	if err != nil {
		return nil, err
	}
	if err := validateNonNegative("amount", req.Amount); err != nil {
		return nil, err
	}
	if err := validateNonNegative("otherExpense", req.OtherExpense); err != nil {
		return nil, err
	}

	updated := existing.Apply(domain.BudgetPatch{
		Amount:       req.Amount,
		OtherExpense: req.OtherExpense,
		Surplus:      req.Surplus,
		Notes:        req.Notes,
	})
	updated.LastUpdatedAt = s.Now()
	updated.LastUpdatedBy = ownerID

	if err := s.budgetRepo.UpdateBudget(ctx, updated); err != nil {
		s.LogError(ctx, err, "Failed to update budget", slog.String("budget_id", budgetID))
		return nil, fmt.Errorf("failed to update budget: %w", err)
	}
	return &updated, nil
}

// DeleteBudgets removes the owner's budgets. Unknown or foreign ids fail the whole call.
func (s *budgetService) DeleteBudgets(ctx context.Context, ownerID string, budgetIDs []string) error {
	ids := uniqueStrings(budgetIDs)
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one budget id is required", apperrors.ErrValidation)
	}
	for _, id := range ids {
		if _, err := s.GetBudget(ctx, ownerID, id); err != nil {
			return err
		}
	}

	deleted, err := s.budgetRepo.DeleteBudgets(ctx, ownerID, ids)
	if err != nil {
		s.LogError(ctx, err, "Failed to delete budgets")
		return fmt.Errorf("failed to delete budgets: %w", err)
	}
	if deleted != int64(len(ids)) {
		return fmt.Errorf("%w: deleted %d of %d budgets", apperrors.ErrNotFound, deleted, len(ids))
	}

	s.LogInfo(ctx, "Budgets deleted", slog.Int64("count", deleted))
	return nil
}

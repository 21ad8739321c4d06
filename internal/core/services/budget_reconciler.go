package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
	portsrepo "github.com/SscSPs/receipt_budget_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/receipt_budget_app/internal/core/ports/services"
)

// budgetReconciler keeps each month's recorded expense equal to the sum of its receipts.
type budgetReconciler struct {
	BaseService
	receiptRepo portsrepo.ReceiptReader
	budgetRepo  portsrepo.BudgetWriter
}

// NewBudgetReconciler creates a new reconciler.
func NewBudgetReconciler(receiptRepo portsrepo.ReceiptReader, budgetRepo portsrepo.BudgetWriter) portssvc.BudgetReconcilerSvc {
	return &budgetReconciler{
		receiptRepo: receiptRepo,
		budgetRepo:  budgetRepo,
	}
}

var _ portssvc.BudgetReconcilerSvc = (*budgetReconciler)(nil)

// Reconcile recomputes the recorded expense of every distinct month among dates from the
// receipts currently stored. It never applies deltas, so racing calls converge.
func (r *budgetReconciler) Reconcile(ctx context.Context, ownerID string, dates []time.Time) ([]domain.YearMonth, error) {
	logger := r.GetLogger(ctx)

	months := domain.DistinctMonths(dates)
	for _, month := range months {
		start, end, err := month.Bounds()
		if err != nil {
			return nil, err
		}

		receipts, err := r.receiptRepo.ListReceiptsByOwnerAndDateRange(ctx, ownerID, start, end)
		if err != nil {
			r.LogError(ctx, err, "Failed to load receipts for reconciliation", slog.String("month", month.String()))
			return nil, fmt.Errorf("failed to reconcile %s: %w", month, err)
		}

		total := decimal.Zero
		for _, receipt := range receipts {
			total = total.Add(receipt.Amount)
		}

		if _, err := r.budgetRepo.UpsertRecordedExpense(ctx, ownerID, month, total, r.Now()); err != nil {
			r.LogError(ctx, err, "Failed to store recorded expense", slog.String("month", month.String()))
			return nil, fmt.Errorf("failed to reconcile %s: %w", month, err)
		}

		logger.Debug("Month reconciled",
			slog.String("month", month.String()),
			slog.Int("receipts", len(receipts)),
			slog.String("recorded_expense", total.StringFixed(2)))
	}
	return months, nil
}

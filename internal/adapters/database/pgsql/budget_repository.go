package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/receipt_budget_app/internal/apperrors"
	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
	portsrepo "github.com/SscSPs/receipt_budget_app/internal/core/ports/repositories"
	"github.com/SscSPs/receipt_budget_app/internal/models"
	"github.com/SscSPs/receipt_budget_app/internal/utils/mapping"
)

const budgetColumns = `budget_id, owner_id, month, amount, other_expense, recorded_expense, surplus, notes,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxBudgetRepository struct {
	BaseRepository
}

// newPgxBudgetRepository creates a new repository for monthly budgets.
func newPgxBudgetRepository(pool *pgxpool.Pool) portsrepo.BudgetRepositoryFacade {
	return &PgxBudgetRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.BudgetRepositoryFacade = (*PgxBudgetRepository)(nil)

func scanBudget(row pgx.Row) (*domain.Budget, error) {
	var m models.Budget
	if err := row.Scan(
		&m.BudgetID,
		&m.OwnerID,
		&m.Month,
		&m.Amount,
		&m.OtherExpense,
		&m.RecordedExpense,
		&m.Surplus,
		&m.Notes,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	); err != nil {
		return nil, err
	}
	budget := mapping.ToDomainBudget(m)
	return &budget, nil
}

func (r *PgxBudgetRepository) findOne(ctx context.Context, what string, query string, args ...any) (*domain.Budget, error) {
	budget, err := scanBudget(r.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find budget by "+what, err)
	}
	return budget, nil
}

// FindBudgetByID retrieves a budget by its ID.
func (r *PgxBudgetRepository) FindBudgetByID(ctx context.Context, budgetID string) (*domain.Budget, error) {
	return r.findOne(ctx, "id", `SELECT `+budgetColumns+` FROM budgets WHERE budget_id = $1;`, budgetID)
}

// FindBudgetByOwnerAndMonth retrieves the owner's budget for one month.
func (r *PgxBudgetRepository) FindBudgetByOwnerAndMonth(ctx context.Context, ownerID string, month domain.YearMonth) (*domain.Budget, error) {
	return r.findOne(ctx, "month", `SELECT `+budgetColumns+` FROM budgets WHERE owner_id = $1 AND month = $2;`, ownerID, month.String())
}

// ListBudgets returns the owner's budgets within the optional month bounds, oldest first.
func (r *PgxBudgetRepository) ListBudgets(ctx context.Context, ownerID string, from, to *domain.YearMonth) ([]domain.Budget, error) {
	conditions := []string{"owner_id = $1"}
	args := []any{ownerID}
	// YYYY-MM keys sort lexically in calendar order
	if from != nil {
		args = append(args, from.String())
		conditions = append(conditions, fmt.Sprintf("month >= $%d", len(args)))
	}
	if to != nil {
		args = append(args, to.String())
		conditions = append(conditions, fmt.Sprintf("month <= $%d", len(args)))
	}

	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE ` + strings.Join(conditions, " AND ") + ` ORDER BY month;`
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list budgets", err)
	}
	defer rows.Close()

	budgets := []domain.Budget{}
	for rows.Next() {
		budget, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget row: %w", err)
		}
		budgets = append(budgets, *budget)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budget rows: %w", err)
	}
	return budgets, nil
}

// SaveBudget inserts a new budget. The (owner_id, month) unique index turns a second one into ErrDuplicate.
func (r *PgxBudgetRepository) SaveBudget(ctx context.Context, budget domain.Budget) error {
	m := mapping.ToModelBudget(budget)
	query := `INSERT INTO budgets (` + budgetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`
	_, err := r.Pool.Exec(ctx, query,
		m.BudgetID,
		m.OwnerID,
		m.Month,
		m.Amount,
		m.OtherExpense,
		m.RecordedExpense,
		m.Surplus,
		m.Notes,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: budget for %s", apperrors.ErrDuplicate, m.Month)
		}
		return apperrors.NewAppError(500, "failed to insert budget", err)
	}
	return nil
}

// UpdateBudget persists the user-editable fields. recorded_expense is left to reconciliation.
func (r *PgxBudgetRepository) UpdateBudget(ctx context.Context, budget domain.Budget) error {
	m := mapping.ToModelBudget(budget)
	query := `UPDATE budgets
		SET amount = $2, other_expense = $3, surplus = $4, notes = $5, last_updated_at = $6, last_updated_by = $7
		WHERE budget_id = $1;`
	tag, err := r.Pool.Exec(ctx, query,
		m.BudgetID,
		m.Amount,
		m.OtherExpense,
		m.Surplus,
		m.Notes,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update budget "+m.BudgetID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpsertRecordedExpense writes a recomputed month total in a single statement, so concurrent
// recomputes of the same month converge on the last writer.
func (r *PgxBudgetRepository) UpsertRecordedExpense(ctx context.Context, ownerID string, month domain.YearMonth, amount decimal.Decimal, at time.Time) (*domain.Budget, error) {
	query := `INSERT INTO budgets (` + budgetColumns + `)
		VALUES ($1, $2, $3, 0, 0, $4, 0, NULL, $5, $2, $5, $2)
		ON CONFLICT (owner_id, month) DO UPDATE
		SET recorded_expense = EXCLUDED.recorded_expense, last_updated_at = EXCLUDED.last_updated_at
		RETURNING ` + budgetColumns + `;`
	budget, err := scanBudget(r.Pool.QueryRow(ctx, query, uuid.NewString(), ownerID, month.String(), amount, at))
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to upsert recorded expense for "+month.String(), err)
	}
	return budget, nil
}

// DeleteBudgets removes the owner's budgets with the given ids.
func (r *PgxBudgetRepository) DeleteBudgets(ctx context.Context, ownerID string, budgetIDs []string) (int64, error) {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM budgets WHERE owner_id = $1 AND budget_id = ANY($2);`, ownerID, budgetIDs)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to delete budgets", err)
	}
	return tag.RowsAffected(), nil
}

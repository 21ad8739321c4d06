package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/SscSPs/receipt_budget_app/internal/core/ports/repositories"
)

// NewRepositoryProvider builds the Postgres-backed stores. The job store lives elsewhere
// and is set by the caller.
func NewRepositoryProvider(dbPool *pgxpool.Pool, jobRepo portsrepo.JobRepositoryFacade) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		ReceiptRepo: newPgxReceiptRepository(dbPool),
		BudgetRepo:  newPgxBudgetRepository(dbPool),
		JobRepo:     jobRepo,
	}
}

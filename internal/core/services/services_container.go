package services

import (
	"github.com/SscSPs/receipt_budget_app/internal/core/ports"
	portsrepo "github.com/SscSPs/receipt_budget_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/receipt_budget_app/internal/core/ports/services"
	"github.com/SscSPs/receipt_budget_app/internal/platform/config"
)

// Collaborators are the outbound adapters the services depend on.
type Collaborators struct {
	Queue    ports.JobQueue
	Gateway  ports.ExtractionGateway
	Resolver ports.ObjectURLResolver
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, collab Collaborators) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// The reconciler is shared by everything that writes receipts or budgets
	container.Reconciler = NewBudgetReconciler(repos.ReceiptRepo, repos.BudgetRepo)

	container.Receipt = NewReceiptService(
		repos.ReceiptRepo,
		container.Reconciler,
		WithObjectURLResolver(collab.Resolver),
		WithJobReader(repos.JobRepo),
	)
	container.Budget = NewBudgetService(repos.BudgetRepo, container.Reconciler)
	container.Ingestion = NewIngestionService(
		repos.ReceiptRepo,
		collab.Queue,
		collab.Gateway,
		collab.Resolver,
		container.Reconciler,
		WithExtractionConcurrency(cfg.ExtractionConcurrency),
	)
	container.Job = NewJobService(repos.JobRepo)

	return container
}

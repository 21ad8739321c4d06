// Package app assembles the dependencies shared by the API server and the worker.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SscSPs/receipt_budget_app/internal/adapters/database/pgsql"
	"github.com/SscSPs/receipt_budget_app/internal/adapters/database/sqlite"
	"github.com/SscSPs/receipt_budget_app/internal/adapters/extraction/openai"
	"github.com/SscSPs/receipt_budget_app/internal/adapters/objectstore"
	"github.com/SscSPs/receipt_budget_app/internal/core/ports"
	portssvc "github.com/SscSPs/receipt_budget_app/internal/core/ports/services"
	"github.com/SscSPs/receipt_budget_app/internal/core/services"
	"github.com/SscSPs/receipt_budget_app/internal/jobs"
	"github.com/SscSPs/receipt_budget_app/internal/platform/config"
	"github.com/SscSPs/receipt_budget_app/pkg/database"
)

// QueueFactory builds the job transport once the executor exists.
type QueueFactory func(executor *jobs.Executor) (ports.JobQueue, error)

// App holds the long-lived dependencies of a process.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	DB       *pgxpool.Pool
	JobStore *sqlite.JobRepository
	Executor *jobs.Executor
	Queue    ports.JobQueue
	Services *portssvc.ServiceContainer

	closers []func()
}

// NewLogger returns a JSON logger in production and a text logger otherwise, and makes it the default.
func NewLogger(isProduction bool) *slog.Logger {
	var handler slog.Handler
	if isProduction {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// New connects the stores, builds the queue through newQueue and wires the services.
// The upload task is registered on the executor before New returns.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, newQueue QueueFactory) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		return nil, fmt.Errorf("initialize database pool: %w", err)
	}
	a.DB = dbPool
	a.closers = append(a.closers, func() { database.ClosePgxPool(dbPool) })
	logger.Info("Database connection pool established.")

	jobStore, err := sqlite.NewJobRepository(cfg.JobStorePath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open job store: %w", err)
	}
	a.JobStore = jobStore
	a.closers = append(a.closers, func() {
		if err := jobStore.Close(); err != nil {
			logger.Error("Error closing job store", slog.String("error", err.Error()))
		}
	})
	logger.Info("Job store opened", slog.String("path", cfg.JobStorePath))

	a.Executor = jobs.NewExecutor(jobStore, logger)
	a.Queue, err = newQueue(a.Executor)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("initialize job queue: %w", err)
	}
	if closer, ok := a.Queue.(io.Closer); ok {
		a.closers = append(a.closers, func() {
			if err := closer.Close(); err != nil {
				logger.Error("Error closing job queue", slog.String("error", err.Error()))
			}
		})
	}

	a.Services = services.NewServiceContainer(cfg, pgsql.NewRepositoryProvider(dbPool, jobStore), services.Collaborators{
		Queue:    a.Queue,
		Gateway:  openai.NewGateway(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.ExtractionTimeout),
		Resolver: objectstore.NewSignedURLResolver(cfg.FileBaseURL, cfg.FileURLSecret, cfg.FileURLTTL),
	})
	a.Executor.Register(jobs.TaskProcessReceiptsUpload, jobs.NewUploadHandler(a.Services.Ingestion))

	return a, nil
}

// Close releases everything New opened, in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

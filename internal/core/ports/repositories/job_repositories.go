package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
)

// JobReader defines read operations over the job executor's bookkeeping
type JobReader interface {
	// FindJobByID retrieves a job. Unknown ids yield apperrors.ErrNotFound.
	FindJobByID(ctx context.Context, jobID string) (*domain.Job, error)
}

// JobWriter defines the state transitions recorded by the job executor
type JobWriter interface {
	// CreateJob records a new job in PENDING state.
	CreateJob(ctx context.Context, job domain.Job) error

	// MarkJobStarted moves a PENDING job to STARTED.
	MarkJobStarted(ctx context.Context, jobID string, at time.Time) error

	// MarkJobFinished moves a job to a terminal status with its message or error detail.
	MarkJobFinished(ctx context.Context, jobID string, status domain.JobStatus, message, errorDetail *string, at time.Time) error
}

// JobRepositoryFacade combines all job-related repository interfaces
type JobRepositoryFacade interface {
	JobReader
	JobWriter
}

package services

import (
	"context"

	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
)

// IngestionSvcFacade drives uploads from placeholder creation to persisted receipts.
type IngestionSvcFacade interface {
	// SubmitUpload creates one placeholder per file, enqueues a single extraction job and returns its id.
	SubmitUpload(ctx context.Context, ownerID string, files []domain.UploadFile) (string, error)

	// ProcessUpload runs on a worker: it extracts every placeholder's file and persists the batch atomically.
	ProcessUpload(ctx context.Context, ownerID string, placeholders []domain.Receipt) (*domain.UploadOutcome, error)
}

// JobSvcFacade is a read-through view over the job executor's bookkeeping.
type JobSvcFacade interface {
	GetJobStatus(ctx context.Context, jobID string, requesterID string) (domain.JobStatus, error)
	GetJobResult(ctx context.Context, jobID string, requesterID string) (*domain.JobResult, error)
}

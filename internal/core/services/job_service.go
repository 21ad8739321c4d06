package services

import (
	"context"
	"log/slog"

	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
	portsrepo "github.com/SscSPs/receipt_budget_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/receipt_budget_app/internal/core/ports/services"
)

// jobService exposes the executor's job bookkeeping to clients. It keeps no state of its own.
type jobService struct {
	BaseService
	jobRepo portsrepo.JobReader
}

// NewJobService creates a new job tracker.
func NewJobService(jobRepo portsrepo.JobReader) portssvc.JobSvcFacade {
	return &jobService{jobRepo: jobRepo}
}

var _ portssvc.JobSvcFacade = (*jobService)(nil)

func (s *jobService) findOwnedJob(ctx context.Context, jobID, requesterID string) (*domain.Job, error) {
	job, err := s.jobRepo.FindJobByID(ctx, jobID)
	if err != nil {
		s.LogDebug(ctx, "Job lookup failed", slog.String("job_id", jobID), slog.String("error", err.Error()))
		return nil, err
	}
	if err := s.ensureOwner(ctx, "job", jobID, job.OwnerID, requesterID); err != nil {
		return nil, err
	}
	return job, nil
}

// GetJobStatus returns the current lifecycle state of a job.
func (s *jobService) GetJobStatus(ctx context.Context, jobID string, requesterID string) (domain.JobStatus, error) {
	job, err := s.findOwnedJob(ctx, jobID, requesterID)
	if err != nil {
		return "", err
	}
	return job.Status, nil
}

// GetJobResult returns the status together with the success message or failure detail.
func (s *jobService) GetJobResult(ctx context.Context, jobID string, requesterID string) (*domain.JobResult, error) {
	job, err := s.findOwnedJob(ctx, jobID, requesterID)
	if err != nil {
		return nil, err
	}
	res := job.Result()
	return &res, nil
}

package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
	portsrepo "github.com/SscSPs/receipt_budget_app/internal/core/ports/repositories"
	"github.com/SscSPs/receipt_budget_app/internal/middleware"
)

// HandlerFunc runs one task. The returned string becomes the job's success message.
type HandlerFunc func(ctx context.Context, job domain.Job, payload json.RawMessage) (string, error)

// Envelope is the message a transport carries from producer to worker.
type Envelope struct {
	JobID    string          `json:"jobID"`
	TaskName string          `json:"taskName"`
	OwnerID  string          `json:"ownerID"`
	Payload  json.RawMessage `json:"payload"`
}

// ExecutorOption is a functional option for configuring the executor
type ExecutorOption func(*Executor)

// WithExecutorClock replaces the clock used for job timestamps.
func WithExecutorClock(clock func() time.Time) ExecutorOption {
	return func(e *Executor) {
		e.clock = clock
	}
}

// Executor drives jobs through PENDING -> STARTED -> SUCCESS | FAILURE in the job store.
type Executor struct {
	store    portsrepo.JobRepositoryFacade
	logger   *slog.Logger
	handlers map[string]HandlerFunc
	clock    func() time.Time
}

// NewExecutor creates an executor without any registered task.
func NewExecutor(store portsrepo.JobRepositoryFacade, logger *slog.Logger, options ...ExecutorOption) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Executor{
		store:    store,
		logger:   logger,
		handlers: make(map[string]HandlerFunc),
		clock:    time.Now,
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// Register binds a handler to a task name. Registering a name twice replaces the handler.
func (e *Executor) Register(taskName string, handler HandlerFunc) {
	e.handlers[taskName] = handler
}

func (e *Executor) now() time.Time {
	return e.clock().UTC()
}

// Prepare records a PENDING job for req and returns the envelope to dispatch.
func (e *Executor) Prepare(ctx context.Context, req domain.JobRequest) (Envelope, error) {
	if req.TaskName == "" {
		return Envelope{}, fmt.Errorf("job request has no task name")
	}
	job := domain.Job{
		JobID:      uuid.NewString(),
		OwnerID:    req.OwnerID,
		TaskName:   req.TaskName,
		Status:     domain.JobPending,
		ReceiptIDs: req.ReceiptIDs,
		CreatedAt:  e.now(),
	}
	if err := e.store.CreateJob(ctx, job); err != nil {
		return Envelope{}, fmt.Errorf("failed to record job: %w", err)
	}
	return Envelope{
		JobID:    job.JobID,
		TaskName: job.TaskName,
		OwnerID:  job.OwnerID,
		Payload:  req.Payload,
	}, nil
}

// Abandon fails a job that could not be dispatched.
func (e *Executor) Abandon(ctx context.Context, jobID string, cause error) {
	detail := cause.Error()
	if err := e.store.MarkJobFinished(ctx, jobID, domain.JobFailure, nil, &detail, e.now()); err != nil {
		e.logger.Error("Failed to record undispatched job", slog.String("job_id", jobID), slog.String("error", err.Error()))
	}
}

// Handle runs one delivered job to a terminal state. Task errors and panics are recorded
// as FAILURE; only job store failures are returned.
func (e *Executor) Handle(ctx context.Context, env Envelope) error {
	logger := e.logger.With(
		slog.String("job_id", env.JobID),
		slog.String("task", env.TaskName),
		slog.String("owner_id", env.OwnerID),
	)
	ctx = middleware.WithLogger(ctx, logger)

	job, err := e.store.FindJobByID(ctx, env.JobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", env.JobID, err)
	}
	if !job.Status.CanTransitionTo(domain.JobStarted) {
		logger.Warn("Skipping redelivered job", slog.String("status", string(job.Status)))
		return nil
	}
	if err := e.store.MarkJobStarted(ctx, job.JobID, e.now()); err != nil {
		return fmt.Errorf("failed to mark job %s started: %w", job.JobID, err)
	}
	logger.Info("Job started")

	message, runErr := e.run(ctx, *job, env.Payload)

	at := e.now()
	if runErr != nil {
		detail := runErr.Error()
		logger.Error("Job failed", slog.String("error", detail))
		if err := e.store.MarkJobFinished(ctx, job.JobID, domain.JobFailure, nil, &detail, at); err != nil {
			return fmt.Errorf("failed to mark job %s failed: %w", job.JobID, err)
		}
		return nil
	}

	if err := e.store.MarkJobFinished(ctx, job.JobID, domain.JobSuccess, &message, nil, at); err != nil {
		return fmt.Errorf("failed to mark job %s succeeded: %w", job.JobID, err)
	}
	logger.Info("Job succeeded", slog.String("message", message))
	return nil
}

func (e *Executor) run(ctx context.Context, job domain.Job, payload json.RawMessage) (message string, err error) {
	handler, ok := e.handlers[job.TaskName]
	if !ok {
		return "", fmt.Errorf("no handler registered for task %q", job.TaskName)
	}

	defer func() {
		if r := recover(); r != nil {
			middleware.GetLoggerFromCtx(ctx).Error("Task panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			message = ""
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	return handler(ctx, job, payload)
}

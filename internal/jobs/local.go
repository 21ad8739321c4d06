package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
	"github.com/SscSPs/receipt_budget_app/internal/core/ports"
)

// LocalQueue runs jobs on a fixed pool of goroutines inside the current process.
type LocalQueue struct {
	executor *Executor
	logger   *slog.Logger
	workers  int
	pending  chan Envelope
}

var _ ports.JobQueue = (*LocalQueue)(nil)

// NewLocalQueue creates a pool of workers reading from a channel of the given capacity.
func NewLocalQueue(executor *Executor, logger *slog.Logger, workers, capacity int) *LocalQueue {
	if workers < 1 {
		workers = 1
	}
	if capacity < 0 {
		capacity = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalQueue{
		executor: executor,
		logger:   logger,
		workers:  workers,
		pending:  make(chan Envelope, capacity),
	}
}

// Enqueue records the job and hands it to the pool, blocking while the buffer is full.
func (q *LocalQueue) Enqueue(ctx context.Context, req domain.JobRequest) (string, error) {
	env, err := q.executor.Prepare(ctx, req)
	if err != nil {
		return "", err
	}

	select {
	case q.pending <- env:
		return env.JobID, nil
	case <-ctx.Done():
		err := fmt.Errorf("dispatch job: %w", ctx.Err())
		q.executor.Abandon(context.WithoutCancel(ctx), env.JobID, err)
		return "", err
	}
}

// Run processes jobs until ctx is cancelled. Jobs are detached from the caller's request
// context, so cancellation only stops workers from picking up new jobs.
func (q *LocalQueue) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < q.workers; w++ {
		w := w
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case env := <-q.pending:
					if err := q.executor.Handle(context.WithoutCancel(gctx), env); err != nil {
						q.logger.Error("Job bookkeeping failed",
							slog.Int("worker", w),
							slog.String("job_id", env.JobID),
							slog.String("error", err.Error()))
					}
				}
			}
		})
	}
	q.logger.Info("Local job workers started", slog.Int("workers", q.workers))
	return g.Wait()
}

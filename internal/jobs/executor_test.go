package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/receipt_budget_app/internal/apperrors"
	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
)

type memoryJobStore struct {
	mu   sync.Mutex
	jobs map[string]domain.Job
}

func newMemoryJobStore() *memoryJobStore {
	return &memoryJobStore{jobs: make(map[string]domain.Job)}
}

func (s *memoryJobStore) FindJobByID(_ context.Context, jobID string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &job, nil
}

func (s *memoryJobStore) CreateJob(_ context.Context, job domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.JobID] = job
	return nil
}

func (s *memoryJobStore) MarkJobStarted(_ context.Context, jobID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := s.jobs[jobID]
	job.Status = domain.JobStarted
	job.StartedAt = &at
	s.jobs[jobID] = job
	return nil
}

func (s *memoryJobStore) MarkJobFinished(_ context.Context, jobID string, status domain.JobStatus, message, errorDetail *string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := s.jobs[jobID]
	job.Status = status
	job.Message = message
	job.ErrorDetail = errorDetail
	job.FinishedAt = &at
	s.jobs[jobID] = job
	return nil
}

func (s *memoryJobStore) get(jobID string) domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[jobID]
}

func newTestExecutor(store *memoryJobStore) *Executor {
	fixed := time.Date(2024, time.July, 1, 12, 0, 0, 0, time.UTC)
	return NewExecutor(store, nil, WithExecutorClock(func() time.Time { return fixed }))
}

func prepare(t *testing.T, e *Executor, task string) Envelope {
	t.Helper()
	env, err := e.Prepare(context.Background(), domain.JobRequest{
		TaskName:   task,
		OwnerID:    "owner-1",
		ReceiptIDs: []string{"r1"},
		Payload:    json.RawMessage(`{"n":1}`),
	})
	require.NoError(t, err)
	return env
}

func TestExecutor_PrepareRecordsPendingJob(t *testing.T) {
	store := newMemoryJobStore()
	e := newTestExecutor(store)

	env := prepare(t, e, "echo")

	job := store.get(env.JobID)
	assert.Equal(t, domain.JobPending, job.Status)
	assert.Equal(t, "owner-1", job.OwnerID)
	assert.Equal(t, []string{"r1"}, job.ReceiptIDs)
	assert.JSONEq(t, `{"n":1}`, string(env.Payload))
}

func TestExecutor_HandleSuccess(t *testing.T) {
	store := newMemoryJobStore()
	e := newTestExecutor(store)
	var seenJob domain.Job
	e.Register("echo", func(ctx context.Context, job domain.Job, payload json.RawMessage) (string, error) {
		seenJob = job
		return "done " + string(payload), nil
	})
	env := prepare(t, e, "echo")

	require.NoError(t, e.Handle(context.Background(), env))

	job := store.get(env.JobID)
	assert.Equal(t, domain.JobSuccess, job.Status)
	require.NotNil(t, job.Message)
	assert.Equal(t, `done {"n":1}`, *job.Message)
	assert.Nil(t, job.ErrorDetail)
	assert.NotNil(t, job.StartedAt)
	assert.Equal(t, env.JobID, seenJob.JobID)
}

func TestExecutor_HandleFailureAndPanic(t *testing.T) {
	store := newMemoryJobStore()
	e := newTestExecutor(store)
	e.Register("fail", func(context.Context, domain.Job, json.RawMessage) (string, error) {
		return "", errors.New("gateway down")
	})
	e.Register("panic", func(context.Context, domain.Job, json.RawMessage) (string, error) {
		panic("boom")
	})

	failed := prepare(t, e, "fail")
	panicked := prepare(t, e, "panic")
	unknown := prepare(t, e, "nobody-listens")

	require.NoError(t, e.Handle(context.Background(), failed))
	require.NoError(t, e.Handle(context.Background(), panicked))
	require.NoError(t, e.Handle(context.Background(), unknown))

	tests := []struct {
		name   string
		jobID  string
		detail string
	}{
		{"handler error", failed.JobID, "gateway down"},
		{"panic", panicked.JobID, "task panicked: boom"},
		{"unknown task", unknown.JobID, `no handler registered for task "nobody-listens"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := store.get(tt.jobID)
			assert.Equal(t, domain.JobFailure, job.Status)
			require.NotNil(t, job.ErrorDetail)
			assert.Equal(t, tt.detail, *job.ErrorDetail)
			assert.Nil(t, job.Message)
		})
	}
}

func TestExecutor_SkipsRedelivery(t *testing.T) {
	store := newMemoryJobStore()
	e := newTestExecutor(store)
	calls := 0
	e.Register("echo", func(context.Context, domain.Job, json.RawMessage) (string, error) {
		calls++
		return "ok", nil
	})
	env := prepare(t, e, "echo")

	require.NoError(t, e.Handle(context.Background(), env))
	require.NoError(t, e.Handle(context.Background(), env))

	assert.Equal(t, 1, calls)
	assert.Equal(t, domain.JobSuccess, store.get(env.JobID).Status)
}

func TestExecutor_UnknownJobIsBookkeepingError(t *testing.T) {
	e := newTestExecutor(newMemoryJobStore())

	err := e.Handle(context.Background(), Envelope{JobID: "missing", TaskName: "echo"})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLocalQueue_RunsEnqueuedJobs(t *testing.T) {
	store := newMemoryJobStore()
	e := newTestExecutor(store)
	e.Register("echo", func(context.Context, domain.Job, json.RawMessage) (string, error) {
		return "ok", nil
	})
	q := NewLocalQueue(e, nil, 2, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Run(ctx) }()

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := q.Enqueue(context.Background(), domain.JobRequest{TaskName: "echo", OwnerID: "owner-1"})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	require.Eventually(t, func() bool {
		for _, id := range ids {
			if store.get(id).Status != domain.JobSuccess {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestLocalQueue_EnqueueAbandonsOnCancelledContext(t *testing.T) {
	store := newMemoryJobStore()
	q := NewLocalQueue(newTestExecutor(store), nil, 1, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Enqueue(ctx, domain.JobRequest{TaskName: "echo", OwnerID: "owner-1"})

	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, store.jobs, 1)
	for _, job := range store.jobs {
		assert.Equal(t, domain.JobFailure, job.Status)
	}
}

func TestAMQPEnvelopeRoundTrip(t *testing.T) {
	env := Envelope{JobID: "job-1", TaskName: TaskProcessReceiptsUpload, OwnerID: "owner-1", Payload: json.RawMessage(`{"ownerID":"owner-1"}`)}
	now := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)

	msg, err := newPublishing(env, now)
	require.NoError(t, err)
	assert.Equal(t, "job-1", msg.MessageId)
	assert.Equal(t, TaskProcessReceiptsUpload, msg.Type)
	assert.Equal(t, "application/json", msg.ContentType)

	decoded, err := decodeDelivery(msg.Body)
	require.NoError(t, err)
	assert.Equal(t, env.JobID, decoded.JobID)
	assert.JSONEq(t, string(env.Payload), string(decoded.Payload))

	_, err = decodeDelivery([]byte(`{"taskName":"x"}`))
	assert.Error(t, err)
	_, err = decodeDelivery([]byte(`not json`))
	assert.Error(t, err)
}

package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/receipt_budget_app/internal/apperrors"
	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
)

func newTestRepo(t *testing.T) *JobRepository {
	t.Helper()
	repo, err := NewJobRepository(filepath.Join(t.TempDir(), "store", "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestJobRepository_Lifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	created := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateJob(ctx, domain.Job{
		JobID:      "job-1",
		OwnerID:    "owner-1",
		TaskName:   "receipts.process_upload",
		Status:     domain.JobPending,
		ReceiptIDs: []string{"r1", "r2"},
		CreatedAt:  created,
	}))

	job, err := repo.FindJobByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobPending, job.Status)
	assert.Equal(t, []string{"r1", "r2"}, job.ReceiptIDs)
	assert.True(t, created.Equal(job.CreatedAt))
	assert.Nil(t, job.StartedAt)

	require.NoError(t, repo.MarkJobStarted(ctx, "job-1", created.Add(time.Second)))
	msg := "processed 2 receipts: 2 updated, 0 created, 0 files without receipts"
	require.NoError(t, repo.MarkJobFinished(ctx, "job-1", domain.JobSuccess, &msg, nil, created.Add(2*time.Second)))

	job, err = repo.FindJobByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobSuccess, job.Status)
	require.NotNil(t, job.Message)
	assert.Equal(t, msg, *job.Message)
	assert.Nil(t, job.ErrorDetail)
	require.NotNil(t, job.FinishedAt)
	assert.True(t, created.Add(2*time.Second).Equal(*job.FinishedAt))
}

func TestJobRepository_RejectsInvalidTransitions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, repo.CreateJob(ctx, domain.Job{JobID: "job-1", OwnerID: "o", TaskName: "t", Status: domain.JobPending, CreatedAt: now}))

	detail := "publish failed"
	require.NoError(t, repo.MarkJobFinished(ctx, "job-1", domain.JobFailure, nil, &detail, now))

	err := repo.MarkJobStarted(ctx, "job-1", now)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	err = repo.MarkJobFinished(ctx, "job-1", domain.JobSuccess, nil, nil, now)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	err = repo.MarkJobFinished(ctx, "job-1", domain.JobStarted, nil, nil, now)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	job, err := repo.FindJobByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobFailure, job.Status)
	assert.Equal(t, detail, *job.ErrorDetail)
}

func TestJobRepository_UnknownJob(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.FindJobByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = repo.MarkJobStarted(context.Background(), "missing", time.Now())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestNewJobRepository_ReopensExistingStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.db")
	first, err := NewJobRepository(path)
	require.NoError(t, err)
	require.NoError(t, first.CreateJob(context.Background(), domain.Job{JobID: "job-1", OwnerID: "o", TaskName: "t", Status: domain.JobPending, CreatedAt: time.Now()}))
	require.NoError(t, first.Close())

	second, err := NewJobRepository(path)
	require.NoError(t, err)
	defer second.Close()

	_, err = second.FindJobByID(context.Background(), "job-1")
	assert.NoError(t, err)
}

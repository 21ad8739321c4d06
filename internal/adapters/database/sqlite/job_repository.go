// Package sqlite keeps the job executor's bookkeeping in a SQLite file shared by the
// API and worker processes.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/SscSPs/receipt_budget_app/internal/apperrors"
	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
	portsrepo "github.com/SscSPs/receipt_budget_app/internal/core/ports/repositories"
	"github.com/SscSPs/receipt_budget_app/internal/models"
	"github.com/SscSPs/receipt_budget_app/internal/utils/mapping"
)

// JobRepository is the SQLite job store.
type JobRepository struct {
	db *sql.DB
}

var _ portsrepo.JobRepositoryFacade = (*JobRepository)(nil)

func dsn(path string) string {
	// WAL plus a busy timeout lets the API and the worker write concurrently.
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// NewJobRepository opens (creating if needed) the job store at path and migrates it.
func NewJobRepository(path string) (*JobRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create job store directory: %w", err)
		}
	}

	if err := runMigrations(dsn(path)); err != nil {
		return nil, fmt.Errorf("migrate job store: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open job store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping job store: %w", err)
	}
	return &JobRepository{db: db}, nil
}

// Close releases the database handle.
func (r *JobRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// FindJobByID retrieves a job. Unknown ids yield apperrors.ErrNotFound.
func (r *JobRepository) FindJobByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `SELECT job_id, owner_id, task_name, status, receipt_ids, message, error_detail, created_at, started_at, finished_at
		FROM jobs WHERE job_id = ?`
	var m models.Job
	err := r.db.QueryRowContext(ctx, query, jobID).Scan(
		&m.JobID,
		&m.OwnerID,
		&m.TaskName,
		&m.Status,
		&m.ReceiptIDs,
		&m.Message,
		&m.ErrorDetail,
		&m.CreatedAt,
		&m.StartedAt,
		&m.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: job %s", apperrors.ErrNotFound, jobID)
		}
		return nil, apperrors.NewAppError(500, "failed to find job "+jobID, err)
	}

	job, err := mapping.ToDomainJob(m)
	if err != nil {
		return nil, apperrors.NewAppError(500, "corrupt job row", err)
	}
	return &job, nil
}

// CreateJob records a new job.
func (r *JobRepository) CreateJob(ctx context.Context, job domain.Job) error {
	m, err := mapping.ToModelJob(job)
	if err != nil {
		return err
	}
	query := `INSERT INTO jobs (job_id, owner_id, task_name, status, receipt_ids, message, error_detail, created_at, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query,
		m.JobID,
		m.OwnerID,
		m.TaskName,
		m.Status,
		m.ReceiptIDs,
		m.Message,
		m.ErrorDetail,
		m.CreatedAt,
		m.StartedAt,
		m.FinishedAt,
	); err != nil {
		return apperrors.NewAppError(500, "failed to insert job "+m.JobID, err)
	}
	return nil
}

// transition applies an UPDATE guarded by the allowed source states and explains a miss.
func (r *JobRepository) transition(ctx context.Context, jobID string, next domain.JobStatus, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update job "+jobID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.NewAppError(500, "failed to update job "+jobID, err)
	}
	if n == 1 {
		return nil
	}

	current, err := r.FindJobByID(ctx, jobID)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: job %s cannot move from %s to %s", apperrors.ErrValidation, jobID, current.Status, next)
}

// MarkJobStarted moves a PENDING job to STARTED.
func (r *JobRepository) MarkJobStarted(ctx context.Context, jobID string, at time.Time) error {
	query := `UPDATE jobs SET status = ?, started_at = ? WHERE job_id = ? AND status = ?`
	return r.transition(ctx, jobID, domain.JobStarted, query,
		string(domain.JobStarted), mapping.FormatJobTime(at), jobID, string(domain.JobPending))
}

// MarkJobFinished moves a PENDING or STARTED job to a terminal status.
func (r *JobRepository) MarkJobFinished(ctx context.Context, jobID string, status domain.JobStatus, message, errorDetail *string, at time.Time) error {
	if !status.IsTerminal() {
		return fmt.Errorf("%w: %s is not a terminal status", apperrors.ErrValidation, status)
	}
	query := `UPDATE jobs SET status = ?, message = ?, error_detail = ?, finished_at = ?
		WHERE job_id = ? AND status IN (?, ?)`
	return r.transition(ctx, jobID, status, query,
		string(status), message, errorDetail, mapping.FormatJobTime(at),
		jobID, string(domain.JobPending), string(domain.JobStarted))
}

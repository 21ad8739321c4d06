package mapping

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
	"github.com/SscSPs/receipt_budget_app/internal/models"
)

// JobTimeLayout is how the job store writes timestamps.
const JobTimeLayout = time.RFC3339Nano

// FormatJobTime renders a timestamp for the job store.
func FormatJobTime(t time.Time) string {
	return t.UTC().Format(JobTimeLayout)
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func toNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: FormatJobTime(*t), Valid: true}
}

func fromNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := time.Parse(JobTimeLayout, ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ToModelJob converts a domain Job to a job store row
func ToModelJob(d domain.Job) (models.Job, error) {
	ids := d.ReceiptIDs
	if ids == nil {
		ids = []string{}
	}
	encoded, err := json.Marshal(ids)
	if err != nil {
		return models.Job{}, fmt.Errorf("encode receipt ids: %w", err)
	}
	return models.Job{
		JobID:       d.JobID,
		OwnerID:     d.OwnerID,
		TaskName:    d.TaskName,
		Status:      string(d.Status),
		ReceiptIDs:  string(encoded),
		Message:     toNullString(d.Message),
		ErrorDetail: toNullString(d.ErrorDetail),
		CreatedAt:   FormatJobTime(d.CreatedAt),
		StartedAt:   toNullTime(d.StartedAt),
		FinishedAt:  toNullTime(d.FinishedAt),
	}, nil
}

// ToDomainJob converts a job store row to a domain Job
func ToDomainJob(m models.Job) (domain.Job, error) {
	job := domain.Job{
		JobID:       m.JobID,
		OwnerID:     m.OwnerID,
		TaskName:    m.TaskName,
		Status:      domain.JobStatus(m.Status),
		Message:     fromNullString(m.Message),
		ErrorDetail: fromNullString(m.ErrorDetail),
	}
	if err := json.Unmarshal([]byte(m.ReceiptIDs), &job.ReceiptIDs); err != nil {
		return domain.Job{}, fmt.Errorf("decode receipt ids of job %s: %w", m.JobID, err)
	}

	var err error
	if job.CreatedAt, err = time.Parse(JobTimeLayout, m.CreatedAt); err != nil {
		return domain.Job{}, fmt.Errorf("decode created_at of job %s: %w", m.JobID, err)
	}
	if job.StartedAt, err = fromNullTime(m.StartedAt); err != nil {
		return domain.Job{}, fmt.Errorf("decode started_at of job %s: %w", m.JobID, err)
	}
	if job.FinishedAt, err = fromNullTime(m.FinishedAt); err != nil {
		return domain.Job{}, fmt.Errorf("decode finished_at of job %s: %w", m.JobID, err)
	}
	return job, nil
}

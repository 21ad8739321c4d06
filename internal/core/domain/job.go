package domain

import (
	"encoding/json"
	"time"
)

// JobStatus is the lifecycle state of a background job.
type JobStatus string

const (
	JobPending JobStatus = "PENDING"
	JobStarted JobStatus = "STARTED"
	JobSuccess JobStatus = "SUCCESS"
	JobFailure JobStatus = "FAILURE"
)

// IsTerminal reports whether no further transition can happen.
func (s JobStatus) IsTerminal() bool {
	return s == JobSuccess || s == JobFailure
}

// CanTransitionTo enforces PENDING -> STARTED -> SUCCESS | FAILURE.
// A pending job may fail directly when it cannot be dispatched.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobPending:
		return next == JobStarted || next == JobFailure
	case JobStarted:
		return next.IsTerminal()
	default:
		return false
	}
}

// Job is the executor's bookkeeping for one enqueued task.
type Job struct {
	JobID       string     `json:"jobID"`
	OwnerID     string     `json:"ownerID"`
	TaskName    string     `json:"taskName"`
	Status      JobStatus  `json:"status"`
	ReceiptIDs  []string   `json:"receiptIDs"`
	Message     *string    `json:"message,omitempty"`
	ErrorDetail *string    `json:"errorDetail,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
}

// Result projects the job onto what a polling client sees.
func (j Job) Result() JobResult {
	res := JobResult{JobID: j.JobID, Status: j.Status}
	if j.Message != nil {
		res.Message = *j.Message
	}
	if j.ErrorDetail != nil {
		res.ErrorDetail = *j.ErrorDetail
	}
	return res
}

// JobResult is the terminal (or current) outcome of a job.
type JobResult struct {
	JobID       string    `json:"jobID"`
	Status      JobStatus `json:"status"`
	Message     string    `json:"message,omitempty"`
	ErrorDetail string    `json:"errorDetail,omitempty"`
}

// JobRequest is what a producer hands to the job queue.
type JobRequest struct {
	TaskName   string          `json:"taskName"`
	OwnerID    string          `json:"ownerID"`
	ReceiptIDs []string        `json:"receiptIDs"`
	Payload    json.RawMessage `json:"payload"`
}

package models

import "database/sql"

// Job is a row of the jobs table in the job store. SQLite has no time type, so
// timestamps are RFC 3339 text and receipt ids a JSON array.
type Job struct {
	JobID       string
	OwnerID     string
	TaskName    string
	Status      string
	ReceiptIDs  string
	Message     sql.NullString
	ErrorDetail sql.NullString
	CreatedAt   string
	StartedAt   sql.NullString
	FinishedAt  sql.NullString
}

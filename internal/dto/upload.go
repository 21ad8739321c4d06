package dto

import "github.com/SscSPs/receipt_budget_app/internal/core/domain"

// UploadFileRequest names one already stored file. FileRef is the object storage key and must start
// with the caller's id and a slash; it defaults to "<ownerID>/<fileName>".
type UploadFileRequest struct {
	FileName string `json:"fileName" binding:"required,max=255"`
	FileRef  string `json:"fileRef" binding:"max=1024"`
}

// UploadReceiptsRequest submits a batch of files for extraction.
type UploadReceiptsRequest struct {
	Files []UploadFileRequest `json:"files" binding:"required,min=1,dive"`
}

// UploadReceiptsResponse carries the job handle to poll.
type UploadReceiptsResponse struct {
	JobID string `json:"jobID"`
}

// JobStatusResponse is the lightweight polling answer.
type JobStatusResponse struct {
	JobID  string           `json:"jobID"`
	Status domain.JobStatus `json:"status"`
}

// JobResultResponse is the full polling answer.
type JobResultResponse struct {
	JobID       string           `json:"jobID"`
	Status      domain.JobStatus `json:"status"`
	Message     string           `json:"message,omitempty"`
	ErrorDetail string           `json:"errorDetail,omitempty"`
}

// ToUploadFiles converts request files to domain upload files.
func ToUploadFiles(files []UploadFileRequest) []domain.UploadFile {
	out := make([]domain.UploadFile, len(files))
	for i, f := range files {
		out[i] = domain.UploadFile{FileName: f.FileName, FileRef: f.FileRef}
	}
	return out
}

// ToJobResultResponse converts a domain.JobResult to its DTO.
func ToJobResultResponse(r *domain.JobResult) JobResultResponse {
	return JobResultResponse{
		JobID:       r.JobID,
		Status:      r.Status,
		Message:     r.Message,
		ErrorDetail: r.ErrorDetail,
	}
}

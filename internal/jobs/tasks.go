// Package jobs runs background tasks: it records their lifecycle in the job store
// and moves them between producers and workers over AMQP or an in-process pool.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SscSPs/receipt_budget_app/internal/apperrors"
	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
	portssvc "github.com/SscSPs/receipt_budget_app/internal/core/ports/services"
)

// TaskProcessReceiptsUpload extracts and persists the receipts of one upload batch.
const TaskProcessReceiptsUpload = "receipts.process_upload"

// UploadPayload is the self-contained argument of TaskProcessReceiptsUpload.
// Placeholders travel by value so the worker never depends on read-after-write consistency.
type UploadPayload struct {
	OwnerID  string           `json:"ownerID"`
	Receipts []domain.Receipt `json:"receipts"`
}

// NewUploadHandler adapts the ingestion coordinator to the executor.
func NewUploadHandler(ingestion portssvc.IngestionSvcFacade) HandlerFunc {
	return func(ctx context.Context, job domain.Job, payload json.RawMessage) (string, error) {
		var args UploadPayload
		if err := json.Unmarshal(payload, &args); err != nil {
			return "", fmt.Errorf("%w: decode upload payload: %v", apperrors.ErrValidation, err)
		}
		if args.OwnerID != job.OwnerID {
			return "", fmt.Errorf("%w: payload owner does not match job owner", apperrors.ErrValidation)
		}

		// Placeholders are serialized before the job id exists.
		jobID := job.JobID
		for i := range args.Receipts {
			args.Receipts[i].JobID = &jobID
		}

		outcome, err := ingestion.ProcessUpload(ctx, args.OwnerID, args.Receipts)
		if err != nil {
			return "", err
		}
		return outcome.Summary(), nil
	}
}

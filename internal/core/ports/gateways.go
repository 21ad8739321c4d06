package ports

import (
	"context"
	"errors"

	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
)

// ErrExtractionFailed is wrapped by gateways for transport errors and malformed responses.
// An empty result is not a failure.
var ErrExtractionFailed = errors.New("receipt extraction failed")

// ExtractionGateway turns a fetchable document URL into structured receipts.
// Implementations may be slow; callers must not hold a transaction while waiting.
type ExtractionGateway interface {
	Extract(ctx context.Context, imageURL string) ([]domain.ExtractedReceipt, error)
}

// ObjectURLResolver turns an object storage key into a temporary fetchable URL.
type ObjectURLResolver interface {
	ResolveURL(ctx context.Context, key string) (string, error)
}

// JobQueue submits background work and returns the job id clients poll with.
type JobQueue interface {
	Enqueue(ctx context.Context, req domain.JobRequest) (string, error)
}

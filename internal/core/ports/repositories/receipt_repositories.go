package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
)

// ReceiptFilter narrows a receipt listing. Zero values disable a filter.
type ReceiptFilter struct {
	Description string // case-insensitive substring
	Category    *domain.Category
	StartDate   *time.Time // inclusive
	EndDate     *time.Time // inclusive
}

// ReceiptReader defines read operations for receipt data
type ReceiptReader interface {
	// FindReceiptByID retrieves a receipt with its items.
	FindReceiptByID(ctx context.Context, receiptID string) (*domain.Receipt, error)

	// FindReceiptsByIDs retrieves receipts (with items) keyed by receipt ID. Missing IDs are absent from the map.
	FindReceiptsByIDs(ctx context.Context, receiptIDs []string) (map[string]domain.Receipt, error)

	// ListReceiptsByOwnerAndDateRange returns every receipt of the owner dated within [from, to], items not loaded.
	ListReceiptsByOwnerAndDateRange(ctx context.Context, ownerID string, from, to time.Time) ([]domain.Receipt, error)

	// ListReceipts retrieves a filtered page of receipts ordered by date descending.
	// It returns the receipts, a token for the next page, and an error.
	ListReceipts(ctx context.Context, ownerID string, filter ReceiptFilter, limit int, nextToken *string) ([]domain.Receipt, *string, error)
}

// ReceiptWriter defines write operations for receipt data
type ReceiptWriter interface {
	// SaveReceipts bulk-inserts receipts and their items in one transaction and reports how many receipt rows were created.
	SaveReceipts(ctx context.Context, receipts []domain.Receipt) (int, error)

	// UpdateReceipt overwrites the receipt row and replaces all of its items within a transaction.
	UpdateReceipt(ctx context.Context, receipt domain.Receipt) error

	// SetReceiptsJobID stamps the extraction job id on the given receipts.
	SetReceiptsJobID(ctx context.Context, receiptIDs []string, jobID string, updatedAt time.Time) error

	// DeleteReceipts removes the receipts and, by cascade, their items. It returns the number of rows removed.
	DeleteReceipts(ctx context.Context, receiptIDs []string) (int64, error)

	// ApplyExtractionResults overwrites placeholders and inserts additional receipts in a single transaction.
	ApplyExtractionResults(ctx context.Context, updated []domain.Receipt, created []domain.Receipt) error
}

// ReceiptRepositoryFacade combines all receipt-related repository interfaces
type ReceiptRepositoryFacade interface {
	ReceiptReader
	ReceiptWriter
}

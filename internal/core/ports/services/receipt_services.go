package services

import (
	"context"

	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
	"github.com/SscSPs/receipt_budget_app/internal/dto"
)

// ReceiptReaderSvc defines read operations for receipt data
type ReceiptReaderSvc interface {
	// GetReceipt retrieves one of the owner's receipts with a signed URL for its file.
	GetReceipt(ctx context.Context, ownerID string, receiptID string) (*dto.ReceiptResponse, error)

	// ListReceipts retrieves a filtered page of the owner's receipts, each with its job status.
	ListReceipts(ctx context.Context, ownerID string, params dto.ListReceiptsParams) (*dto.ListReceiptsResponse, error)
}

// ReceiptWriterSvc defines write operations for receipt data. Every write reconciles the affected months.
type ReceiptWriterSvc interface {
	// CreateReceipt records a receipt entered by hand.
	CreateReceipt(ctx context.Context, ownerID string, req dto.CreateReceiptRequest) (*domain.Receipt, error)

	// UpdateReceipt applies a sparse update; items, when given, replace the existing ones.
	UpdateReceipt(ctx context.Context, ownerID string, receiptID string, req dto.UpdateReceiptRequest) (*domain.Receipt, error)

	// DeleteReceipts removes the receipts. Either all ids belong to the owner or nothing is deleted.
	DeleteReceipts(ctx context.Context, ownerID string, receiptIDs []string) error
}

// ReceiptSvcFacade combines all receipt-related service interfaces
type ReceiptSvcFacade interface {
	ReceiptReaderSvc
	ReceiptWriterSvc
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Receipt is a row of the receipts table.
type Receipt struct {
	ReceiptID   string          `json:"receiptID"`   // Primary Key (UUID)
	OwnerID     string          `json:"ownerID"`     // Not Null
	Category    string          `json:"category"`    // CHECK constrained to the category enum
	ReceiptDate time.Time       `json:"receiptDate"` // DATE column
	Description string          `json:"description"` // varchar(100)
	Notes       *string         `json:"notes"`       // Nullable
	Amount      decimal.Decimal `json:"amount"`      // numeric(14,2)
	FileName    *string         `json:"fileName"`    // Nullable object key
	JobID       *string         `json:"jobID"`       // Nullable, set once the upload job is enqueued
	AuditFields
}

// ReceiptItem is a row of the receipt_items table. Rows cascade with their receipt.
type ReceiptItem struct {
	ItemID        string          `json:"itemID"`    // Primary Key (UUID)
	ReceiptID     string          `json:"receiptID"` // FK -> receipts.receipt_id ON DELETE CASCADE
	Position      int             `json:"position"`  // keeps the document order
	Item          string          `json:"item"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	DiscountPrice decimal.Decimal `json:"discountPrice"`
	Notes         *string         `json:"notes"`
}

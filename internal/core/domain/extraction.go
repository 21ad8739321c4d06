package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ExtractedItem is a line item as returned by the extraction service.
type ExtractedItem struct {
	Item          string          `json:"item"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	DiscountPrice decimal.Decimal `json:"discountPrice"`
	Notes         string          `json:"notes"`
}

// ExtractedReceipt is one receipt found in an uploaded document.
// Absent fields are empty strings, never nil.
type ExtractedReceipt struct {
	Description string          `json:"description"`
	Date        string          `json:"date"` // YYYY-MM-DD
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Notes       string          `json:"notes"`
	Details     []ExtractedItem `json:"details"`
}

// UploadOutcome summarises how an extraction batch was applied.
type UploadOutcome struct {
	Updated          int         `json:"updated"`
	Created          int         `json:"created"`
	Untouched        int         `json:"untouched"`
	ReceiptIDs       []string    `json:"receiptIDs"`
	MonthsReconciled []YearMonth `json:"monthsReconciled"`
}

// Summary renders the outcome as the job's success message.
func (o UploadOutcome) Summary() string {
	return fmt.Sprintf("processed %d receipts: %d updated, %d created, %d files without receipts",
		o.Updated+o.Created, o.Updated, o.Created, o.Untouched)
}

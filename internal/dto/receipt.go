package dto

import (
	"time"

	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ReceiptItemRequest is one line item in a create or update request.
type ReceiptItemRequest struct {
	Item          string          `json:"item" binding:"required,max=100"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit" binding:"max=20"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	DiscountPrice decimal.Decimal `json:"discountPrice"`
	Notes         *string         `json:"notes" binding:"omitempty,max=100"`
}

// CreateReceiptRequest defines the data needed to record a receipt by hand.
type CreateReceiptRequest struct {
	Category    string               `json:"category" binding:"required,category"`
	Date        string               `json:"date" binding:"required,datetime=2006-01-02"`
	Description string               `json:"description" binding:"required,max=100"`
	Notes       *string              `json:"notes" binding:"omitempty,max=100"`
	Amount      decimal.Decimal      `json:"amount"`
	Items       []ReceiptItemRequest `json:"items" binding:"omitempty,dive"`
}

// UpdateReceiptRequest defines the data allowed for updating a receipt.
// Use pointers to distinguish between zero-value updates and fields not provided.
// Items, when present, replace every existing item.
type UpdateReceiptRequest struct {
	Category    *string               `json:"category" binding:"omitempty,category"`
	Date        *string               `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Description *string               `json:"description" binding:"omitempty,max=100"`
	Notes       *string               `json:"notes" binding:"omitempty,max=100"`
	Amount      *decimal.Decimal      `json:"amount"`
	Items       *[]ReceiptItemRequest `json:"items" binding:"omitempty,dive"`
}

// DeleteByIDsRequest carries the identifiers of a bulk delete.
type DeleteByIDsRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,required"`
}

// ListReceiptsParams defines the query parameters for listing receipts.
type ListReceiptsParams struct {
	Description string  `form:"description"`
	Category    string  `form:"category" binding:"omitempty,category"`
	StartDate   string  `form:"startDate" binding:"omitempty,datetime=2006-01-02"`
	EndDate     string  `form:"endDate" binding:"omitempty,datetime=2006-01-02"`
	Limit       int     `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken   *string `form:"nextToken"`
}

// ReceiptItemResponse defines the data returned for a receipt line.
type ReceiptItemResponse struct {
	ItemID             string          `json:"itemID"`
	Item               string          `json:"item"`
	Quantity           decimal.Decimal `json:"quantity"`
	Unit               string          `json:"unit"`
	UnitPrice          decimal.Decimal `json:"unitPrice"`
	DiscountPrice      decimal.Decimal `json:"discountPrice"`
	Notes              *string         `json:"notes,omitempty"`
	HasDiscountAnomaly bool            `json:"hasDiscountAnomaly,omitempty"`
}

// ReceiptResponse defines the data returned for a receipt.
type ReceiptResponse struct {
	ReceiptID     string                `json:"receiptID"`
	Category      string                `json:"category"`
	Date          string                `json:"date"`
	Description   string                `json:"description"`
	Notes         *string               `json:"notes,omitempty"`
	Amount        decimal.Decimal       `json:"amount"`
	ItemsSubtotal decimal.Decimal       `json:"itemsSubtotal"`
	FileName      *string               `json:"fileName,omitempty"`
	FileURL       *string               `json:"fileURL,omitempty"`
	JobID         *string               `json:"jobID,omitempty"`
	JobStatus     *string               `json:"jobStatus,omitempty"`
	JobMessage    *string               `json:"jobMessage,omitempty"`
	Items         []ReceiptItemResponse `json:"items"`
	CreatedAt     time.Time             `json:"createdAt"`
	LastUpdatedAt time.Time             `json:"lastUpdatedAt"`
}

// ListReceiptsResponse wraps a page of receipts.
type ListReceiptsResponse struct {
	Receipts  []ReceiptResponse `json:"receipts"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// ToReceiptItems builds domain items from request lines. IDs are left for the caller to assign.
func ToReceiptItems(items []ReceiptItemRequest) []domain.ReceiptItem {
	out := make([]domain.ReceiptItem, len(items))
	for i, it := range items {
		out[i] = domain.ReceiptItem{
			Item:          it.Item,
			Quantity:      it.Quantity,
			Unit:          it.Unit,
			UnitPrice:     it.UnitPrice,
			DiscountPrice: it.DiscountPrice,
			Notes:         it.Notes,
		}
	}
	return out
}

// ToReceiptResponse converts a domain.Receipt to ReceiptResponse DTO
func ToReceiptResponse(r *domain.Receipt) ReceiptResponse {
	items := make([]ReceiptItemResponse, len(r.Items))
	for i, it := range r.Items {
		items[i] = ReceiptItemResponse{
			ItemID:             it.ItemID,
			Item:               it.Item,
			Quantity:           it.Quantity,
			Unit:               it.Unit,
			UnitPrice:          it.UnitPrice,
			DiscountPrice:      it.DiscountPrice,
			Notes:              it.Notes,
			HasDiscountAnomaly: it.HasDiscountAnomaly(),
		}
	}
	return ReceiptResponse{
		ReceiptID:     r.ReceiptID,
		Category:      string(r.Category),
		Date:          r.Date.Format(domain.DateLayout),
		Description:   r.Description,
		Notes:         r.Notes,
		Amount:        r.Amount,
		ItemsSubtotal: r.ItemsSubtotal(),
		FileName:      r.FileName,
		JobID:         r.JobID,
		Items:         items,
		CreatedAt:     r.CreatedAt,
		LastUpdatedAt: r.LastUpdatedAt,
	}
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category classifies a receipt.
type Category string

const (
	CategoryGroceries     Category = "groceries"
	CategoryTransport     Category = "transport"
	CategoryEntertainment Category = "entertainment"
	CategoryHealth        Category = "health"
	CategoryClothing      Category = "clothing"
	CategoryEducation     Category = "education"
	CategoryOther         Category = "other"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryGroceries,
	CategoryTransport,
	CategoryEntertainment,
	CategoryHealth,
	CategoryClothing,
	CategoryEducation,
	CategoryOther,
}

// IsValid reports whether c is one of the fixed categories.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// NormalizeCategory maps free text to a category, falling back to CategoryOther.
func NormalizeCategory(s string) Category {
	c := Category(s)
	if c.IsValid() {
		return c
	}
	return CategoryOther
}

// MaxDescriptionLength is the longest description or note a receipt may store.
const MaxDescriptionLength = 100

// MaxUnitLength is the longest unit of measure an item may store.
const MaxUnitLength = 32

// ReceiptItem is a single line of a receipt. It only exists as a child of its receipt.
type ReceiptItem struct {
	ItemID        string          `json:"itemID"`
	ReceiptID     string          `json:"receiptID"`
	Item          string          `json:"item"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	DiscountPrice decimal.Decimal `json:"discountPrice"`
	Notes         *string         `json:"notes,omitempty"`
}

// HasDiscountAnomaly reports a discount price above the unit price.
// Source documents are often inconsistent so this is reported, never rejected.
func (i ReceiptItem) HasDiscountAnomaly() bool {
	return i.DiscountPrice.GreaterThan(i.UnitPrice)
}

// LineTotal is quantity times the effective (discounted when set) unit price.
func (i ReceiptItem) LineTotal() decimal.Decimal {
	price := i.UnitPrice
	if i.DiscountPrice.IsPositive() {
		price = i.DiscountPrice
	}
	return i.Quantity.Mul(price)
}

// Receipt is a user's purchase record. Amount is authoritative for budgets.
type Receipt struct {
	ReceiptID   string          `json:"receiptID"`
	OwnerID     string          `json:"ownerID"`
	Category    Category        `json:"category"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Notes       *string         `json:"notes,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	FileName    *string         `json:"fileName,omitempty"` // object storage key of the uploaded file
	JobID       *string         `json:"jobID,omitempty"`
	Items       []ReceiptItem   `json:"items"`
	AuditFields
}

// ItemsSubtotal sums the line totals. It is informational and may differ from Amount.
func (r Receipt) ItemsSubtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Month returns the budget month the receipt counts towards.
func (r Receipt) Month() YearMonth {
	return YearMonthOf(r.Date)
}

// ReceiptPatch carries a sparse set of receipt field assignments. Nil means unchanged.
type ReceiptPatch struct {
	Category    *Category
	Date        *time.Time
	Description *string
	Notes       *string
	Amount      *decimal.Decimal
	Items       *[]ReceiptItem // non-nil replaces every existing item
}

// Apply returns a copy of r with the patch fields overridden.
func (r Receipt) Apply(p ReceiptPatch) Receipt {
	out := r
	if p.Category != nil {
		out.Category = *p.Category
	}
	if p.Date != nil {
		out.Date = TruncateToDay(*p.Date)
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Notes != nil {
		notes := *p.Notes
		out.Notes = &notes
	}
	if p.Amount != nil {
		out.Amount = *p.Amount
	}
	if p.Items != nil {
		items := make([]ReceiptItem, len(*p.Items))
		copy(items, *p.Items)
		for i := range items {
			items[i].ReceiptID = r.ReceiptID
		}
		out.Items = items
	} else if r.Items != nil {
		out.Items = append([]ReceiptItem(nil), r.Items...)
	}
	return out
}

// UploadFile is one file of an upload batch.
type UploadFile struct {
	FileName string `json:"fileName"`
	FileRef  string `json:"fileRef"`
}

// ReceiptDates collects the dates of the given receipts.
func ReceiptDates(receipts ...Receipt) []time.Time {
	dates := make([]time.Time, 0, len(receipts))
	for _, r := range receipts {
		dates = append(dates, r.Date)
	}
	return dates
}

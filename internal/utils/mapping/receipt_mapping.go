package mapping

import (
	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
	"github.com/SscSPs/receipt_budget_app/internal/models"
)

// ToModelReceipt converts a domain Receipt to a model Receipt. Items are mapped separately.
func ToModelReceipt(d domain.Receipt) models.Receipt {
	return models.Receipt{
		ReceiptID:   d.ReceiptID,
		OwnerID:     d.OwnerID,
		Category:    string(d.Category),
		ReceiptDate: domain.TruncateToDay(d.Date),
		Description: d.Description,
		Notes:       d.Notes,
		Amount:      d.Amount,
		FileName:    d.FileName,
		JobID:       d.JobID,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainReceipt converts a model Receipt and its item rows to a domain Receipt
func ToDomainReceipt(m models.Receipt, items []models.ReceiptItem) domain.Receipt {
	return domain.Receipt{
		ReceiptID:   m.ReceiptID,
		OwnerID:     m.OwnerID,
		Category:    domain.Category(m.Category),
		Date:        domain.TruncateToDay(m.ReceiptDate),
		Description: m.Description,
		Notes:       m.Notes,
		Amount:      m.Amount,
		FileName:    m.FileName,
		JobID:       m.JobID,
		Items:       ToDomainReceiptItems(items),
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelReceiptItems converts the items of a receipt, numbering them in order.
func ToModelReceiptItems(receiptID string, ds []domain.ReceiptItem) []models.ReceiptItem {
	ms := make([]models.ReceiptItem, len(ds))
	for i, d := range ds {
		ms[i] = models.ReceiptItem{
			ItemID:        d.ItemID,
			ReceiptID:     receiptID,
			Position:      i,
			Item:          d.Item,
			Quantity:      d.Quantity,
			Unit:          d.Unit,
			UnitPrice:     d.UnitPrice,
			DiscountPrice: d.DiscountPrice,
			Notes:         d.Notes,
		}
	}
	return ms
}

// ToDomainReceiptItems converts item rows to domain items. The result is never nil.
func ToDomainReceiptItems(ms []models.ReceiptItem) []domain.ReceiptItem {
	ds := make([]domain.ReceiptItem, len(ms))
	for i, m := range ms {
		ds[i] = domain.ReceiptItem{
			ItemID:        m.ItemID,
			ReceiptID:     m.ReceiptID,
			Item:          m.Item,
			Quantity:      m.Quantity,
			Unit:          m.Unit,
			UnitPrice:     m.UnitPrice,
			DiscountPrice: m.DiscountPrice,
			Notes:         m.Notes,
		}
	}
	return ds
}

package mapping

import (
	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
	"github.com/SscSPs/receipt_budget_app/internal/models"
)

// ToModelAuditFields copies the audit columns of a row about to be written.
func ToModelAuditFields(d domain.AuditFields) models.AuditFields {
	return models.AuditFields(d)
}

// ToDomainAuditFields reads audit columns back. pgx returns TIMESTAMPTZ values in the
// process location; they are pinned to UTC like every timestamp the services produce.
func ToDomainAuditFields(m models.AuditFields) domain.AuditFields {
	a := domain.AuditFields(m)
	a.CreatedAt = a.CreatedAt.UTC()
	a.LastUpdatedAt = a.LastUpdatedAt.UTC()
	return a
}

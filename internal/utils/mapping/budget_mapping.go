package mapping

import (
	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
	"github.com/SscSPs/receipt_budget_app/internal/models"
)

// ToModelBudget converts a domain Budget to a model Budget
func ToModelBudget(d domain.Budget) models.Budget {
	return models.Budget{
		BudgetID:        d.BudgetID,
		OwnerID:         d.OwnerID,
		Month:           d.Month.String(),
		Amount:          d.Amount,
		OtherExpense:    d.OtherExpense,
		RecordedExpense: d.RecordedExpense,
		Surplus:         d.Surplus,
		Notes:           d.Notes,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainBudget converts a model Budget to a domain Budget
func ToDomainBudget(m models.Budget) domain.Budget {
	return domain.Budget{
		BudgetID:        m.BudgetID,
		OwnerID:         m.OwnerID,
		Month:           domain.YearMonth(m.Month),
		Amount:          m.Amount,
		OtherExpense:    m.OtherExpense,
		RecordedExpense: m.RecordedExpense,
		Surplus:         m.Surplus,
		Notes:           m.Notes,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainBudgetSlice converts a slice of model Budgets to a slice of domain Budgets
func ToDomainBudgetSlice(ms []models.Budget) []domain.Budget {
	ds := make([]domain.Budget, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainBudget(m)
	}
	return ds
}

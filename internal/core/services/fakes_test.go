package services_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/receipt_budget_app/internal/apperrors"
	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
	portsrepo "github.com/SscSPs/receipt_budget_app/internal/core/ports/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memoryStore is an in-memory receipt and budget store used for end-to-end property tests.
type memoryStore struct {
	mu       sync.Mutex
	receipts map[string]domain.Receipt
	budgets  map[string]domain.Budget
	failNext error // returned once by the next write
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		receipts: make(map[string]domain.Receipt),
		budgets:  make(map[string]domain.Budget),
	}
}

var (
	_ portsrepo.ReceiptRepositoryFacade = (*memoryStore)(nil)
	_ portsrepo.BudgetRepositoryFacade  = (*memoryStore)(nil)
)

func (s *memoryStore) takeFailure() error {
	err := s.failNext
	s.failNext = nil
	return err
}

func (s *memoryStore) FindReceiptByID(_ context.Context, receiptID string) (*domain.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.receipts[receiptID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &r, nil
}

func (s *memoryStore) FindReceiptsByIDs(_ context.Context, receiptIDs []string) (map[string]domain.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.Receipt)
	for _, id := range receiptIDs {
		if r, ok := s.receipts[id]; ok {
			out[id] = r
		}
	}
	return out, nil
}

func (s *memoryStore) ListReceiptsByOwnerAndDateRange(_ context.Context, ownerID string, from, to time.Time) ([]domain.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Receipt
	for _, r := range s.receipts {
		if r.OwnerID == ownerID && !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memoryStore) ListReceipts(_ context.Context, ownerID string, _ portsrepo.ReceiptFilter, limit int, _ *string) ([]domain.Receipt, *string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Receipt
	for _, r := range s.receipts {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil, nil
}

func (s *memoryStore) SaveReceipts(_ context.Context, receipts []domain.Receipt) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return 0, err
	}
	for _, r := range receipts {
		s.receipts[r.ReceiptID] = r
	}
	return len(receipts), nil
}

func (s *memoryStore) UpdateReceipt(_ context.Context, receipt domain.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	if _, ok := s.receipts[receipt.ReceiptID]; !ok {
		return apperrors.ErrNotFound
	}
	s.receipts[receipt.ReceiptID] = receipt
	return nil
}

func (s *memoryStore) SetReceiptsJobID(_ context.Context, receiptIDs []string, jobID string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range receiptIDs {
		r := s.receipts[id]
		r.JobID = &jobID
		r.LastUpdatedAt = updatedAt
		s.receipts[id] = r
	}
	return nil
}

func (s *memoryStore) DeleteReceipts(_ context.Context, receiptIDs []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range receiptIDs {
		if _, ok := s.receipts[id]; ok {
			delete(s.receipts, id)
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) ApplyExtractionResults(_ context.Context, updated []domain.Receipt, created []domain.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	for _, r := range updated {
		if _, ok := s.receipts[r.ReceiptID]; !ok {
			return fmt.Errorf("%w: receipt %s", apperrors.ErrNotFound, r.ReceiptID)
		}
	}
	for _, r := range append(append([]domain.Receipt{}, updated...), created...) {
		s.receipts[r.ReceiptID] = r
	}
	return nil
}

func (s *memoryStore) FindBudgetByID(_ context.Context, budgetID string) (*domain.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.budgets {
		if b.BudgetID == budgetID {
			return &b, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func budgetKey(ownerID string, month domain.YearMonth) string {
	return ownerID + "/" + month.String()
}

func (s *memoryStore) FindBudgetByOwnerAndMonth(_ context.Context, ownerID string, month domain.YearMonth) (*domain.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[budgetKey(ownerID, month)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &b, nil
}

func (s *memoryStore) ListBudgets(_ context.Context, ownerID string, from, to *domain.YearMonth) ([]domain.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Budget
	for _, b := range s.budgets {
		if b.OwnerID != ownerID || (from != nil && b.Month < *from) || (to != nil && b.Month > *to) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

func (s *memoryStore) SaveBudget(_ context.Context, budget domain.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := budgetKey(budget.OwnerID, budget.Month)
	if _, ok := s.budgets[key]; ok {
		return apperrors.ErrDuplicate
	}
	s.budgets[key] = budget
	return nil
}

func (s *memoryStore) UpdateBudget(_ context.Context, budget domain.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[budgetKey(budget.OwnerID, budget.Month)] = budget
	return nil
}

func (s *memoryStore) UpsertRecordedExpense(_ context.Context, ownerID string, month domain.YearMonth, amount decimal.Decimal, at time.Time) (*domain.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := budgetKey(ownerID, month)
	b, ok := s.budgets[key]
	if !ok {
		b, _ = domain.NewBudget(uuid.NewString(), ownerID, month.String())
		b.CreatedAt = at
		b.CreatedBy = ownerID
	}
	b.RecordedExpense = amount
	b.LastUpdatedAt = at
	s.budgets[key] = b
	return &b, nil
}

func (s *memoryStore) DeleteBudgets(_ context.Context, ownerID string, budgetIDs []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key, b := range s.budgets {
		for _, id := range budgetIDs {
			if b.BudgetID == id && b.OwnerID == ownerID {
				delete(s.budgets, key)
				n++
			}
		}
	}
	return n, nil
}

// recorded returns the stored recorded expense of a month, or nil when no budget exists.
func (s *memoryStore) recorded(ownerID string, month domain.YearMonth) *decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[budgetKey(ownerID, month)]
	if !ok {
		return nil
	}
	return &b.RecordedExpense
}

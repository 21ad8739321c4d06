package services_test

import (
	"context"
	"time"

	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
	"github.com/SscSPs/receipt_budget_app/internal/core/ports"
	portsrepo "github.com/SscSPs/receipt_budget_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/receipt_budget_app/internal/core/ports/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock ReceiptRepository ---
type MockReceiptRepository struct {
	mock.Mock
}

var _ portsrepo.ReceiptRepositoryFacade = (*MockReceiptRepository)(nil)

func (m *MockReceiptRepository) FindReceiptByID(ctx context.Context, receiptID string) (*domain.Receipt, error) {
	args := m.Called(ctx, receiptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) FindReceiptsByIDs(ctx context.Context, receiptIDs []string) (map[string]domain.Receipt, error) {
	args := m.Called(ctx, receiptIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) ListReceiptsByOwnerAndDateRange(ctx context.Context, ownerID string, from, to time.Time) ([]domain.Receipt, error) {
	args := m.Called(ctx, ownerID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) ListReceipts(ctx context.Context, ownerID string, filter portsrepo.ReceiptFilter, limit int, nextToken *string) ([]domain.Receipt, *string, error) {
	args := m.Called(ctx, ownerID, filter, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.Receipt), returnedNextToken, args.Error(2)
}

func (m *MockReceiptRepository) SaveReceipts(ctx context.Context, receipts []domain.Receipt) (int, error) {
	args := m.Called(ctx, receipts)
	return args.Int(0), args.Error(1)
}

func (m *MockReceiptRepository) UpdateReceipt(ctx context.Context, receipt domain.Receipt) error {
	args := m.Called(ctx, receipt)
	return args.Error(0)
}

func (m *MockReceiptRepository) SetReceiptsJobID(ctx context.Context, receiptIDs []string, jobID string, updatedAt time.Time) error {
	args := m.Called(ctx, receiptIDs, jobID, updatedAt)
	return args.Error(0)
}

func (m *MockReceiptRepository) DeleteReceipts(ctx context.Context, receiptIDs []string) (int64, error) {
	args := m.Called(ctx, receiptIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReceiptRepository) ApplyExtractionResults(ctx context.Context, updated []domain.Receipt, created []domain.Receipt) error {
	args := m.Called(ctx, updated, created)
	return args.Error(0)
}

// --- Mock BudgetRepository ---
type MockBudgetRepository struct {
	mock.Mock
}

var _ portsrepo.BudgetRepositoryFacade = (*MockBudgetRepository)(nil)

func (m *MockBudgetRepository) FindBudgetByID(ctx context.Context, budgetID string) (*domain.Budget, error) {
	args := m.Called(ctx, budgetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Budget), args.Error(1)
}

func (m *MockBudgetRepository) FindBudgetByOwnerAndMonth(ctx context.Context, ownerID string, month domain.YearMonth) (*domain.Budget, error) {
	args := m.Called(ctx, ownerID, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Budget), args.Error(1)
}

func (m *MockBudgetRepository) ListBudgets(ctx context.Context, ownerID string, from, to *domain.YearMonth) ([]domain.Budget, error) {
	args := m.Called(ctx, ownerID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Budget), args.Error(1)
}

func (m *MockBudgetRepository) SaveBudget(ctx context.Context, budget domain.Budget) error {
	args := m.Called(ctx, budget)
	return args.Error(0)
}

func (m *MockBudgetRepository) UpdateBudget(ctx context.Context, budget domain.Budget) error {
	args := m.Called(ctx, budget)
	return args.Error(0)
}

func (m *MockBudgetRepository) UpsertRecordedExpense(ctx context.Context, ownerID string, month domain.YearMonth, amount decimal.Decimal, at time.Time) (*domain.Budget, error) {
	args := m.Called(ctx, ownerID, month, amount, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Budget), args.Error(1)
}

func (m *MockBudgetRepository) DeleteBudgets(ctx context.Context, ownerID string, budgetIDs []string) (int64, error) {
	args := m.Called(ctx, ownerID, budgetIDs)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock JobRepository ---
type MockJobRepository struct {
	mock.Mock
}

var _ portsrepo.JobReader = (*MockJobRepository)(nil)

func (m *MockJobRepository) FindJobByID(ctx context.Context, jobID string) (*domain.Job, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Job), args.Error(1)
}

// --- Mock collaborators ---
type MockJobQueue struct {
	mock.Mock
}

var _ ports.JobQueue = (*MockJobQueue)(nil)

func (m *MockJobQueue) Enqueue(ctx context.Context, req domain.JobRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type MockExtractionGateway struct {
	mock.Mock
}

var _ ports.ExtractionGateway = (*MockExtractionGateway)(nil)

func (m *MockExtractionGateway) Extract(ctx context.Context, imageURL string) ([]domain.ExtractedReceipt, error) {
	args := m.Called(ctx, imageURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExtractedReceipt), args.Error(1)
}

type MockURLResolver struct {
	mock.Mock
}

var _ ports.ObjectURLResolver = (*MockURLResolver)(nil)

func (m *MockURLResolver) ResolveURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

type MockReconciler struct {
	mock.Mock
}

var _ portssvc.BudgetReconcilerSvc = (*MockReconciler)(nil)

func (m *MockReconciler) Reconcile(ctx context.Context, ownerID string, dates []time.Time) ([]domain.YearMonth, error) {
	args := m.Called(ctx, ownerID, dates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.YearMonth), args.Error(1)
}

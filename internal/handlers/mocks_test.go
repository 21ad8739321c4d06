package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
	portssvc "github.com/SscSPs/receipt_budget_app/internal/core/ports/services"
	"github.com/SscSPs/receipt_budget_app/internal/dto"
)

// --- Mock ReceiptService ---
type MockReceiptService struct {
	mock.Mock
}

func (m *MockReceiptService) GetReceipt(ctx context.Context, ownerID string, receiptID string) (*dto.ReceiptResponse, error) {
	args := m.Called(ctx, ownerID, receiptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ReceiptResponse), args.Error(1)
}

func (m *MockReceiptService) ListReceipts(ctx context.Context, ownerID string, params dto.ListReceiptsParams) (*dto.ListReceiptsResponse, error) {
	args := m.Called(ctx, ownerID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListReceiptsResponse), args.Error(1)
}

func (m *MockReceiptService) CreateReceipt(ctx context.Context, ownerID string, req dto.CreateReceiptRequest) (*domain.Receipt, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Receipt), args.Error(1)
}

func (m *MockReceiptService) UpdateReceipt(ctx context.Context, ownerID string, receiptID string, req dto.UpdateReceiptRequest) (*domain.Receipt, error) {
	args := m.Called(ctx, ownerID, receiptID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Receipt), args.Error(1)
}

func (m *MockReceiptService) DeleteReceipts(ctx context.Context, ownerID string, receiptIDs []string) error {
	args := m.Called(ctx, ownerID, receiptIDs)
	return args.Error(0)
}

var _ portssvc.ReceiptSvcFacade = (*MockReceiptService)(nil)

// --- Mock BudgetService ---
type MockBudgetService struct {
	mock.Mock
}

func (m *MockBudgetService) GetBudget(ctx context.Context, ownerID string, budgetID string) (*domain.Budget, error) {
	args := m.Called(ctx, ownerID, budgetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Budget), args.Error(1)
}

func (m *MockBudgetService) GetCurrentBudget(ctx context.Context, ownerID string) (*domain.Budget, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Budget), args.Error(1)
}

func (m *MockBudgetService) ListBudgets(ctx context.Context, ownerID string, params dto.ListBudgetsParams) ([]domain.Budget, error) {
	args := m.Called(ctx, ownerID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Budget), args.Error(1)
}

func (m *MockBudgetService) GetBudgetsOverview(ctx context.Context, ownerID string) (int, []domain.BudgetOverview, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(1) == nil {
		return args.Int(0), nil, args.Error(2)
	}
	return args.Int(0), args.Get(1).([]domain.BudgetOverview), args.Error(2)
}

func (m *MockBudgetService) CreateBudget(ctx context.Context, ownerID string, req dto.CreateBudgetRequest) (*domain.Budget, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Budget), args.Error(1)
}

func (m *MockBudgetService) UpdateBudget(ctx context.Context, ownerID string, budgetID string, req dto.UpdateBudgetRequest) (*domain.Budget, error) {
	args := m.Called(ctx, ownerID, budgetID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Budget), args.Error(1)
}

func (m *MockBudgetService) DeleteBudgets(ctx context.Context, ownerID string, budgetIDs []string) error {
	args := m.Called(ctx, ownerID, budgetIDs)
	return args.Error(0)
}

var _ portssvc.BudgetSvcFacade = (*MockBudgetService)(nil)

// --- Mock IngestionService ---
type MockIngestionService struct {
	mock.Mock
}

func (m *MockIngestionService) SubmitUpload(ctx context.Context, ownerID string, files []domain.UploadFile) (string, error) {
	args := m.Called(ctx, ownerID, files)
	return args.String(0), args.Error(1)
}

func (m *MockIngestionService) ProcessUpload(ctx context.Context, ownerID string, placeholders []domain.Receipt) (*domain.UploadOutcome, error) {
	args := m.Called(ctx, ownerID, placeholders)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UploadOutcome), args.Error(1)
}

var _ portssvc.IngestionSvcFacade = (*MockIngestionService)(nil)

// --- Mock JobService ---
type MockJobService struct {
	mock.Mock
}

func (m *MockJobService) GetJobStatus(ctx context.Context, jobID string, requesterID string) (domain.JobStatus, error) {
	args := m.Called(ctx, jobID, requesterID)
	return args.Get(0).(domain.JobStatus), args.Error(1)
}

func (m *MockJobService) GetJobResult(ctx context.Context, jobID string, requesterID string) (*domain.JobResult, error) {
	args := m.Called(ctx, jobID, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JobResult), args.Error(1)
}

var _ portssvc.JobSvcFacade = (*MockJobService)(nil)

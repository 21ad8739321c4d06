package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/SscSPs/receipt_budget_app/internal/apperrors"
	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
	"github.com/SscSPs/receipt_budget_app/internal/core/ports"
	portsrepo "github.com/SscSPs/receipt_budget_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/receipt_budget_app/internal/core/ports/services"
	"github.com/SscSPs/receipt_budget_app/internal/dto"
)

const defaultReceiptPageSize = 20

// ReceiptServiceOption is a functional option for configuring the receipt service
type ReceiptServiceOption func(*receiptService)

// WithReceiptClock replaces the clock used for audit fields.
func WithReceiptClock(clock func() time.Time) ReceiptServiceOption {
	return func(s *receiptService) {
		s.clock = clock
	}
}

// WithObjectURLResolver enables signed file URLs on receipt reads.
func WithObjectURLResolver(resolver ports.ObjectURLResolver) ReceiptServiceOption {
	return func(s *receiptService) {
		s.resolver = resolver
	}
}

// WithJobReader enables job status lookups on receipt listings.
func WithJobReader(jobRepo portsrepo.JobReader) ReceiptServiceOption {
	return func(s *receiptService) {
		s.jobRepo = jobRepo
	}
}

// receiptService provides receipt CRUD. Every write reconciles the months it touched.
type receiptService struct {
	BaseService
	receiptRepo portsrepo.ReceiptRepositoryFacade
	reconciler  portssvc.BudgetReconcilerSvc
	resolver    ports.ObjectURLResolver
	jobRepo     portsrepo.JobReader
}

// NewReceiptService creates a new receipt service.
func NewReceiptService(receiptRepo portsrepo.ReceiptRepositoryFacade, reconciler portssvc.BudgetReconcilerSvc, options ...ReceiptServiceOption) portssvc.ReceiptSvcFacade {
	s := &receiptService{
		receiptRepo: receiptRepo,
		reconciler:  reconciler,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

var _ portssvc.ReceiptSvcFacade = (*receiptService)(nil)

func validateDescription(desc string) error {
	if desc == "" {
		return fmt.Errorf("%w: description is required", apperrors.ErrValidation)
	}
	if utf8.RuneCountInString(desc) > domain.MaxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", apperrors.ErrValidation, domain.MaxDescriptionLength)
	}
	return nil
}

func parseCategory(s string) (domain.Category, error) {
	c := domain.Category(s)
	if !c.IsValid() {
		return "", fmt.Errorf("%w: unknown category %q", apperrors.ErrValidation, s)
	}
	return c, nil
}

func parseDay(s string) (time.Time, error) {
	d, err := domain.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", apperrors.ErrValidation)
	}
	return d, nil
}

// buildItems validates request lines and gives them fresh ids under receiptID.
func (s *receiptService) buildItems(ctx context.Context, receiptID string, lines []dto.ReceiptItemRequest) ([]domain.ReceiptItem, error) {
	items := dto.ToReceiptItems(lines)
	for i := range items {
		if items[i].Quantity.IsNegative() {
			return nil, fmt.Errorf("%w: item %d has a negative quantity", apperrors.ErrValidation, i)
		}
		items[i].ItemID = uuid.NewString()
		items[i].ReceiptID = receiptID
		if items[i].HasDiscountAnomaly() {
			s.GetLogger(ctx).Warn("Discount price above unit price",
				slog.String("receipt_id", receiptID),
				slog.String("item", items[i].Item))
		}
	}
	return items, nil
}

// CreateReceipt records a receipt entered by hand and reconciles its month.
func (s *receiptService) CreateReceipt(ctx context.Context, ownerID string, req dto.CreateReceiptRequest) (*domain.Receipt, error) {
	logger := s.GetLogger(ctx)

	category, err := parseCategory(req.Category)
	if err != nil {
		return nil, err
	}
	date, err := parseDay(req.Date)
	if err != nil {
		return nil, err
	}
	if err := validateDescription(req.Description); err != nil {
		return nil, err
	}
	if req.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", apperrors.ErrValidation)
	}

	now := s.Now()
	receiptID := uuid.NewString()
	items, err := s.buildItems(ctx, receiptID, req.Items)
	if err != nil {
		return nil, err
	}

	receipt := domain.Receipt{
		ReceiptID:   receiptID,
		OwnerID:     ownerID,
		Category:    category,
		Date:        date,
		Description: req.Description,
		Notes:       req.Notes,
		Amount:      req.Amount,
		Items:       items,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     ownerID,
			LastUpdatedAt: now,
			LastUpdatedBy: ownerID,
		},
	}

	created, err := s.receiptRepo.SaveReceipts(ctx, []domain.Receipt{receipt})
	if err != nil {
		s.LogError(ctx, err, "Failed to save receipt")
		return nil, fmt.Errorf("failed to save receipt: %w", err)
	}
	if created != 1 {
		return nil, fmt.Errorf("%w: stored %d of 1 receipts", apperrors.ErrCountMismatch, created)
	}

	if _, err := s.reconciler.Reconcile(ctx, ownerID, []time.Time{receipt.Date}); err != nil {
		return nil, err
	}

	logger.Info("Receipt created", slog.String("receipt_id", receipt.ReceiptID))
	return &receipt, nil
}

// GetReceipt returns one of the owner's receipts with a signed URL for its file.
func (s *receiptService) GetReceipt(ctx context.Context, ownerID string, receiptID string) (*dto.ReceiptResponse, error) {
	receipt, err := s.findOwnedReceipt(ctx, ownerID, receiptID)
	if err != nil {
		return nil, err
	}

	resp := dto.ToReceiptResponse(receipt)
	if receipt.FileName != nil && s.resolver != nil {
		url, err := s.resolver.ResolveURL(ctx, *receipt.FileName)
		if err != nil {
			s.GetLogger(ctx).Warn("Failed to sign file URL", slog.String("receipt_id", receiptID), slog.String("error", err.Error()))
		} else {
			resp.FileURL = &url
		}
	}
	s.attachJobStatus(ctx, []*dto.ReceiptResponse{&resp})
	return &resp, nil
}

// ListReceipts returns a filtered page of the owner's receipts, newest first.
func (s *receiptService) ListReceipts(ctx context.Context, ownerID string, params dto.ListReceiptsParams) (*dto.ListReceiptsResponse, error) {
	filter := portsrepo.ReceiptFilter{Description: params.Description}
	if params.Category != "" {
		category, err := parseCategory(params.Category)
		if err != nil {
			return nil, err
		}
		filter.Category = &category
	}
	if params.StartDate != "" {
		start, err := parseDay(params.StartDate)
		if err != nil {
			return nil, err
		}
		filter.StartDate = &start
	}
	if params.EndDate != "" {
		end, err := parseDay(params.EndDate)
		if err != nil {
			return nil, err
		}
		filter.EndDate = &end
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, fmt.Errorf("%w: endDate is before startDate", apperrors.ErrValidation)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultReceiptPageSize
	}

	receipts, nextToken, err := s.receiptRepo.ListReceipts(ctx, ownerID, filter, limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list receipts")
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}

	resp := &dto.ListReceiptsResponse{
		Receipts:  make([]dto.ReceiptResponse, len(receipts)),
		NextToken: nextToken,
	}
	rows := make([]*dto.ReceiptResponse, len(receipts))
	for i := range receipts {
		resp.Receipts[i] = dto.ToReceiptResponse(&receipts[i])
		rows[i] = &resp.Receipts[i]
	}
	s.attachJobStatus(ctx, rows)
	return resp, nil
}

// attachJobStatus decorates rows with their job's state, looking each distinct job up once.
func (s *receiptService) attachJobStatus(ctx context.Context, rows []*dto.ReceiptResponse) {
	if s.jobRepo == nil {
		return
	}
	jobs := make(map[string]*domain.Job)
	for _, row := range rows {
		if row.JobID == nil {
			continue
		}
		job, seen := jobs[*row.JobID]
		if !seen {
			found, err := s.jobRepo.FindJobByID(ctx, *row.JobID)
			if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
				s.GetLogger(ctx).Warn("Failed to look up job status", slog.String("job_id", *row.JobID), slog.String("error", err.Error()))
			}
			job = found
			jobs[*row.JobID] = found
		}
		if job == nil {
			continue
		}
		status := string(job.Status)
		row.JobStatus = &status
		res := job.Result()
		switch {
		case res.ErrorDetail != "":
			row.JobMessage = &res.ErrorDetail
		case res.Message != "":
			row.JobMessage = &res.Message
		}
	}
}

func (s *receiptService) findOwnedReceipt(ctx context.Context, ownerID, receiptID string) (*domain.Receipt, error) {
	receipt, err := s.receiptRepo.FindReceiptByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureOwner(ctx, "receipt", receiptID, receipt.OwnerID, ownerID); err != nil {
		return nil, err
	}
	return receipt, nil
}

// UpdateReceipt applies a sparse update and reconciles both the old and the new month.
func (s *receiptService) UpdateReceipt(ctx context.Context, ownerID string, receiptID string, req dto.UpdateReceiptRequest) (*domain.Receipt, error) {
	logger := s.GetLogger(ctx)

	existing, err := s.findOwnedReceipt(ctx, ownerID, receiptID)
	if err != nil {
		return nil, err
	}

	patch := domain.ReceiptPatch{
		Notes:  req.Notes,
		Amount: req.Amount,
	}
	if req.Category != nil {
		category, err := parseCategory(*req.Category)
		if err != nil {
			return nil, err
		}
		patch.Category = &category
	}
	if req.Date != nil {
		date, err := parseDay(*req.Date)
		if err != nil {
			return nil, err
		}
		patch.Date = &date
	}
	if req.Description != nil {
		if err := validateDescription(*req.Description); err != nil {
			return nil, err
		}
		patch.Description = req.Description
	}
	if req.Amount != nil && req.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", apperrors.ErrValidation)
	}
	if req.Items != nil {
		items, err := s.buildItems(ctx, receiptID, *req.Items)
		if err != nil {
			return nil, err
		}
		patch.Items = &items
	}

	updated := existing.Apply(patch)
	updated.LastUpdatedAt = s.Now()
	updated.LastUpdatedBy = ownerID

	if err := s.receiptRepo.UpdateReceipt(ctx, updated); err != nil {
		s.LogError(ctx, err, "Failed to update receipt", slog.String("receipt_id", receiptID))
		return nil, fmt.Errorf("failed to update receipt: %w", err)
	}

	// An edit can move the receipt to another month; both need recomputing.
	if _, err := s.reconciler.Reconcile(ctx, ownerID, []time.Time{existing.Date, updated.Date}); err != nil {
		return nil, err
	}

	logger.Info("Receipt updated", slog.String("receipt_id", receiptID))
	return &updated, nil
}

// DeleteReceipts removes the owner's receipts. Unknown or foreign ids fail the whole call.
func (s *receiptService) DeleteReceipts(ctx context.Context, ownerID string, receiptIDs []string) error {
	logger := s.GetLogger(ctx)

	ids := uniqueStrings(receiptIDs)
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one receipt id is required", apperrors.ErrValidation)
	}

	found, err := s.receiptRepo.FindReceiptsByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load receipts: %w", err)
	}
	dates := make([]time.Time, 0, len(ids))
	for _, id := range ids {
		receipt, ok := found[id]
		if !ok {
			return fmt.Errorf("%w: receipt %s", apperrors.ErrNotFound, id)
		}
		if err := s.ensureOwner(ctx, "receipt", id, receipt.OwnerID, ownerID); err != nil {
			return err
		}
		dates = append(dates, receipt.Date)
	}

	deleted, err := s.receiptRepo.DeleteReceipts(ctx, ids)
	if err != nil {
		s.LogError(ctx, err, "Failed to delete receipts")
		return fmt.Errorf("failed to delete receipts: %w", err)
	}
	if deleted != int64(len(ids)) {
		logger.Warn("Fewer receipts deleted than requested", slog.Int("requested", len(ids)), slog.Int64("deleted", deleted))
	}

	if _, err := s.reconciler.Reconcile(ctx, ownerID, dates); err != nil {
		return err
	}

	logger.Info("Receipts deleted", slog.Int64("count", deleted))
	return nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

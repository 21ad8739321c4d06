package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/SscSPs/receipt_budget_app/internal/apperrors"
	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
	"github.com/SscSPs/receipt_budget_app/internal/core/ports"
	portsrepo "github.com/SscSPs/receipt_budget_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/receipt_budget_app/internal/core/ports/services"
	"github.com/SscSPs/receipt_budget_app/internal/jobs"
)

const defaultExtractionConcurrency = 4

// IngestionServiceOption is a functional option for configuring the ingestion service
type IngestionServiceOption func(*ingestionService)

// WithExtractionConcurrency bounds how many files of one batch are extracted at once.
func WithExtractionConcurrency(n int) IngestionServiceOption {
	return func(s *ingestionService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithIngestionClock replaces the clock used for placeholder dates and audit fields.
func WithIngestionClock(clock func() time.Time) IngestionServiceOption {
	return func(s *ingestionService) {
		s.clock = clock
	}
}

// ingestionService coordinates uploads from placeholder creation to persisted receipts.
type ingestionService struct {
	BaseService
	receiptRepo portsrepo.ReceiptRepositoryFacade
	queue       ports.JobQueue
	gateway     ports.ExtractionGateway
	resolver    ports.ObjectURLResolver
	reconciler  portssvc.BudgetReconcilerSvc
	concurrency int
}

// NewIngestionService creates a new ingestion coordinator.
func NewIngestionService(
	receiptRepo portsrepo.ReceiptRepositoryFacade,
	queue ports.JobQueue,
	gateway ports.ExtractionGateway,
	resolver ports.ObjectURLResolver,
	reconciler portssvc.BudgetReconcilerSvc,
	options ...IngestionServiceOption,
) portssvc.IngestionSvcFacade {
	s := &ingestionService{
		receiptRepo: receiptRepo,
		queue:       queue,
		gateway:     gateway,
		resolver:    resolver,
		reconciler:  reconciler,
		concurrency: defaultExtractionConcurrency,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

var _ portssvc.IngestionSvcFacade = (*ingestionService)(nil)

// SubmitUpload persists one placeholder per file, enqueues a single job and stamps the placeholders with its id.
func (s *ingestionService) SubmitUpload(ctx context.Context, ownerID string, files []domain.UploadFile) (string, error) {
	logger := s.GetLogger(ctx)

	if len(files) == 0 {
		return "", fmt.Errorf("%w: at least one file is required", apperrors.ErrValidation)
	}
	keys := make([]string, len(files))
	for i, f := range files {
		if strings.TrimSpace(f.FileName) == "" {
			return "", fmt.Errorf("%w: file %d has no name", apperrors.ErrValidation, i)
		}
		key, err := ownerObjectKey(ownerID, f)
		if err != nil {
			return "", fmt.Errorf("%w: file %d: %w", apperrors.ErrValidation, i, err)
		}
		keys[i] = key
	}

	now := s.Now()
	today := domain.TruncateToDay(now)
	placeholders := make([]domain.Receipt, len(files))
	receiptIDs := make([]string, len(files))
	for i, f := range files {
		key := keys[i]
		placeholders[i] = domain.Receipt{
			ReceiptID:   uuid.NewString(),
			OwnerID:     ownerID,
			Category:    domain.CategoryGroceries,
			Date:        today,
			Description: truncateRunes(f.FileName, domain.MaxDescriptionLength),
			Amount:      decimal.Zero,
			FileName:    &key,
			Items:       []domain.ReceiptItem{},
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     ownerID,
				LastUpdatedAt: now,
				LastUpdatedBy: ownerID,
			},
		}
		receiptIDs[i] = placeholders[i].ReceiptID
	}

	created, err := s.receiptRepo.SaveReceipts(ctx, placeholders)
	if err != nil {
		s.LogError(ctx, err, "Failed to save upload placeholders", slog.Int("files", len(files)))
		return "", fmt.Errorf("failed to save upload placeholders: %w", err)
	}
	if created != len(placeholders) {
		logger.Error("Placeholder count mismatch", slog.Int("requested", len(placeholders)), slog.Int("created", created))
		return "", fmt.Errorf("%w: stored %d of %d placeholders", apperrors.ErrCountMismatch, created, len(placeholders))
	}

	payload, err := json.Marshal(jobs.UploadPayload{OwnerID: ownerID, Receipts: placeholders})
	if err != nil {
		return "", fmt.Errorf("failed to encode upload payload: %w", err)
	}

	jobID, err := s.queue.Enqueue(ctx, domain.JobRequest{
		TaskName:   jobs.TaskProcessReceiptsUpload,
		OwnerID:    ownerID,
		ReceiptIDs: receiptIDs,
		Payload:    payload,
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to enqueue extraction job")
		return "", fmt.Errorf("failed to enqueue extraction job: %w", err)
	}

	// The worker stamps the job id on every receipt it writes, so a failed stamp here only
	// delays status display for the placeholders.
	if err := s.receiptRepo.SetReceiptsJobID(ctx, receiptIDs, jobID, now); err != nil {
		logger.Warn("Failed to stamp job id on placeholders", slog.String("job_id", jobID), slog.String("error", err.Error()))
	}

	logger.Info("Upload submitted", slog.String("job_id", jobID), slog.Int("files", len(files)))
	return jobID, nil
}

// ProcessUpload extracts every placeholder's file, maps the results and persists the batch atomically.
// Any extraction failure aborts the batch before anything is written.
func (s *ingestionService) ProcessUpload(ctx context.Context, ownerID string, placeholders []domain.Receipt) (*domain.UploadOutcome, error) {
	logger := s.GetLogger(ctx)

	for _, p := range placeholders {
		if p.OwnerID != ownerID {
			return nil, fmt.Errorf("%w: placeholder %s is not owned by %s", apperrors.ErrValidation, p.ReceiptID, ownerID)
		}
		if p.FileName == nil || *p.FileName == "" {
			return nil, fmt.Errorf("%w: placeholder %s has no file", apperrors.ErrValidation, p.ReceiptID)
		}
	}

	results, err := s.extractAll(ctx, placeholders)
	if err != nil {
		s.LogError(ctx, err, "Extraction batch aborted", slog.Int("files", len(placeholders)))
		return nil, err
	}

	updated, created := s.mapResults(ctx, placeholders, results)

	if len(updated)+len(created) > 0 {
		if err := s.receiptRepo.ApplyExtractionResults(ctx, updated, created); err != nil {
			s.LogError(ctx, err, "Failed to persist extraction results")
			return nil, fmt.Errorf("failed to persist extraction results: %w", err)
		}
	}

	affected := make([]domain.Receipt, 0, len(updated)+len(created))
	affected = append(affected, updated...)
	affected = append(affected, created...)

	months, err := s.reconciler.Reconcile(ctx, ownerID, domain.ReceiptDates(affected...))
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile budgets after upload: %w", err)
	}

	outcome := &domain.UploadOutcome{
		Updated:          len(updated),
		Created:          len(created),
		Untouched:        len(placeholders) - len(updated),
		ReceiptIDs:       make([]string, 0, len(affected)),
		MonthsReconciled: months,
	}
	for _, r := range affected {
		outcome.ReceiptIDs = append(outcome.ReceiptIDs, r.ReceiptID)
	}

	logger.Info("Upload processed",
		slog.Int("updated", outcome.Updated),
		slog.Int("created", outcome.Created),
		slog.Int("untouched", outcome.Untouched))
	return outcome, nil
}

// extractAll calls the gateway for every file. Results are indexed like placeholders.
func (s *ingestionService) extractAll(ctx context.Context, placeholders []domain.Receipt) ([][]domain.ExtractedReceipt, error) {
	results := make([][]domain.ExtractedReceipt, len(placeholders))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, p := range placeholders {
		i := i
		key := *p.FileName
		g.Go(func() error {
			url, err := s.resolver.ResolveURL(gctx, key)
			if err != nil {
				return fmt.Errorf("failed to resolve file %q: %w", key, err)
			}
			extracted, err := s.gateway.Extract(gctx, url)
			if err != nil {
				return fmt.Errorf("failed to extract file %q: %w", key, err)
			}
			results[i] = extracted
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// mapResults applies the placeholder policy: the first receipt extracted from a file overwrites
// that file's placeholder, every further one becomes a new receipt. Files without results are left alone.
func (s *ingestionService) mapResults(ctx context.Context, placeholders []domain.Receipt, results [][]domain.ExtractedReceipt) ([]domain.Receipt, []domain.Receipt) {
	now := s.Now()
	var updated, created []domain.Receipt

	for fileIdx, placeholder := range placeholders {
		for resultIdx, extracted := range results[fileIdx] {
			isFirstForFile := resultIdx == 0

			var target domain.Receipt
			if isFirstForFile {
				target = placeholder
			} else {
				target = domain.Receipt{
					ReceiptID:   uuid.NewString(),
					OwnerID:     placeholder.OwnerID,
					Category:    placeholder.Category,
					Date:        placeholder.Date,
					Description: placeholder.Description,
					FileName:    placeholder.FileName,
					JobID:       placeholder.JobID,
					AuditFields: domain.AuditFields{
						CreatedAt: now,
						CreatedBy: placeholder.OwnerID,
					},
				}
			}

			receipt := s.applyExtraction(ctx, target, extracted, now)
			if isFirstForFile {
				updated = append(updated, receipt)
			} else {
				created = append(created, receipt)
			}
		}
	}
	return updated, created
}

// applyExtraction merges extracted fields onto a receipt, keeping identity, file and job fields.
func (s *ingestionService) applyExtraction(ctx context.Context, target domain.Receipt, ex domain.ExtractedReceipt, now time.Time) domain.Receipt {
	out := target

	if desc := strings.TrimSpace(ex.Description); desc != "" {
		out.Description = truncateRunes(desc, domain.MaxDescriptionLength)
	}
	if date, err := domain.ParseDate(strings.TrimSpace(ex.Date)); err == nil {
		out.Date = date
	} else if ex.Date != "" {
		s.LogDebug(ctx, "Unparseable extracted date, keeping placeholder date", slog.String("date", ex.Date))
	}
	out.Category = domain.NormalizeCategory(ex.Category)
	out.Amount = ex.Amount
	if out.Amount.IsNegative() {
		// Credits and refunds are kept as a note; stored amounts are never negative.
		s.GetLogger(ctx).Warn("Negative extracted amount, storing zero",
			slog.String("receipt_id", out.ReceiptID),
			slog.String("amount", ex.Amount.String()))
		out.Amount = decimal.Zero
		ex.Notes = strings.TrimSpace("credit " + ex.Amount.Abs().StringFixed(2) + " " + strings.TrimSpace(ex.Notes))
	}
	out.Notes = optionalString(ex.Notes)

	out.Items = make([]domain.ReceiptItem, len(ex.Details))
	for i, d := range ex.Details {
		quantity := d.Quantity
		if quantity.IsNegative() {
			quantity = decimal.Zero
		}
		item := domain.ReceiptItem{
			ItemID:        uuid.NewString(),
			ReceiptID:     out.ReceiptID,
			Item:          truncateRunes(d.Item, domain.MaxDescriptionLength),
			Quantity:      quantity,
			Unit:          truncateRunes(strings.TrimSpace(d.Unit), domain.MaxUnitLength),
			UnitPrice:     d.UnitPrice,
			DiscountPrice: d.DiscountPrice,
			Notes:         optionalString(d.Notes),
		}
		if item.HasDiscountAnomaly() {
			s.GetLogger(ctx).Warn("Discount price above unit price",
				slog.String("receipt_id", out.ReceiptID),
				slog.String("item", item.Item))
		}
		out.Items[i] = item
	}

	out.LastUpdatedAt = now
	out.LastUpdatedBy = out.OwnerID
	return out
}

// ownerObjectKey returns the storage key of an uploaded file. Keys live under "<ownerID>/";
// a file without a ref is keyed by its name there.
func ownerObjectKey(ownerID string, f domain.UploadFile) (string, error) {
	prefix := ownerID + "/"
	ref := strings.TrimSpace(f.FileRef)
	if ref == "" {
		ref = prefix + strings.TrimLeft(strings.TrimSpace(f.FileName), "/")
	}
	if !strings.HasPrefix(ref, prefix) || len(ref) == len(prefix) {
		return "", fmt.Errorf("file ref must be under %q", prefix)
	}
	if strings.Contains(ref, "..") {
		return "", fmt.Errorf("file ref must not contain \"..\"")
	}
	return ref, nil
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

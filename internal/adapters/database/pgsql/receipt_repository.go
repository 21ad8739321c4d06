package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SscSPs/receipt_budget_app/internal/apperrors"
	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
	portsrepo "github.com/SscSPs/receipt_budget_app/internal/core/ports/repositories"
	"github.com/SscSPs/receipt_budget_app/internal/models"
	"github.com/SscSPs/receipt_budget_app/internal/utils/mapping"
	"github.com/SscSPs/receipt_budget_app/internal/utils/pagination"
)

const receiptColumns = `receipt_id, owner_id, category, receipt_date, description, notes, amount, file_name, job_id,
	created_at, created_by, last_updated_at, last_updated_by`

const itemColumns = `item_id, receipt_id, position, item, quantity, unit, unit_price, discount_price, notes`

type PgxReceiptRepository struct {
	BaseRepository
}

// newPgxReceiptRepository creates a new repository for receipts and their items.
func newPgxReceiptRepository(pool *pgxpool.Pool) portsrepo.ReceiptRepositoryFacade {
	return &PgxReceiptRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxReceiptRepository implements portsrepo.ReceiptRepositoryFacade
var _ portsrepo.ReceiptRepositoryFacade = (*PgxReceiptRepository)(nil)

func scanReceipt(row pgx.Row) (models.Receipt, error) {
	var m models.Receipt
	err := row.Scan(
		&m.ReceiptID,
		&m.OwnerID,
		&m.Category,
		&m.ReceiptDate,
		&m.Description,
		&m.Notes,
		&m.Amount,
		&m.FileName,
		&m.JobID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func collectReceipts(rows pgx.Rows) ([]models.Receipt, error) {
	defer rows.Close()
	receipts := []models.Receipt{}
	for rows.Next() {
		m, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan receipt row: %w", err)
		}
		receipts = append(receipts, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating receipt rows: %w", err)
	}
	return receipts, nil
}

// loadItems fetches the items of the given receipts grouped by receipt id, in document order.
func (r *PgxReceiptRepository) loadItems(ctx context.Context, receiptIDs []string) (map[string][]models.ReceiptItem, error) {
	items := make(map[string][]models.ReceiptItem, len(receiptIDs))
	if len(receiptIDs) == 0 {
		return items, nil
	}

	query := `SELECT ` + itemColumns + ` FROM receipt_items WHERE receipt_id = ANY($1) ORDER BY receipt_id, position;`
	rows, err := r.Pool.Query(ctx, query, receiptIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipt items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.ReceiptItem
		if err := rows.Scan(
			&m.ItemID,
			&m.ReceiptID,
			&m.Position,
			&m.Item,
			&m.Quantity,
			&m.Unit,
			&m.UnitPrice,
			&m.DiscountPrice,
			&m.Notes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan receipt item row: %w", err)
		}
		items[m.ReceiptID] = append(items[m.ReceiptID], m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating receipt item rows: %w", err)
	}
	return items, nil
}

func (r *PgxReceiptRepository) withItems(ctx context.Context, rows []models.Receipt) ([]domain.Receipt, error) {
	ids := make([]string, len(rows))
	for i, m := range rows {
		ids[i] = m.ReceiptID
	}
	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	receipts := make([]domain.Receipt, len(rows))
	for i, m := range rows {
		receipts[i] = mapping.ToDomainReceipt(m, items[m.ReceiptID])
	}
	return receipts, nil
}

// FindReceiptByID retrieves a receipt with its items.
func (r *PgxReceiptRepository) FindReceiptByID(ctx context.Context, receiptID string) (*domain.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE receipt_id = $1;`
	m, err := scanReceipt(r.Pool.QueryRow(ctx, query, receiptID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find receipt "+receiptID, err)
	}

	receipts, err := r.withItems(ctx, []models.Receipt{m})
	if err != nil {
		return nil, err
	}
	return &receipts[0], nil
}

// FindReceiptsByIDs retrieves receipts keyed by id. Unknown ids are left out.
func (r *PgxReceiptRepository) FindReceiptsByIDs(ctx context.Context, receiptIDs []string) (map[string]domain.Receipt, error) {
	result := make(map[string]domain.Receipt, len(receiptIDs))
	if len(receiptIDs) == 0 {
		return result, nil
	}

	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE receipt_id = ANY($1);`
	rows, err := r.Pool.Query(ctx, query, receiptIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query receipts by ids", err)
	}
	ms, err := collectReceipts(rows)
	if err != nil {
		return nil, err
	}

	receipts, err := r.withItems(ctx, ms)
	if err != nil {
		return nil, err
	}
	for _, receipt := range receipts {
		result[receipt.ReceiptID] = receipt
	}
	return result, nil
}

// ListReceiptsByOwnerAndDateRange returns the owner's receipts dated within [from, to] without items.
func (r *PgxReceiptRepository) ListReceiptsByOwnerAndDateRange(ctx context.Context, ownerID string, from, to time.Time) ([]domain.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts
		WHERE owner_id = $1 AND receipt_date BETWEEN $2 AND $3
		ORDER BY receipt_date, created_at;`
	rows, err := r.Pool.Query(ctx, query, ownerID, domain.TruncateToDay(from), domain.TruncateToDay(to))
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query receipts by date range", err)
	}
	ms, err := collectReceipts(rows)
	if err != nil {
		return nil, err
	}

	receipts := make([]domain.Receipt, len(ms))
	for i, m := range ms {
		receipts[i] = mapping.ToDomainReceipt(m, nil)
	}
	return receipts, nil
}

// ListReceipts retrieves a filtered page of receipts ordered by date, creation time and id, newest first.
func (r *PgxReceiptRepository) ListReceipts(ctx context.Context, ownerID string, filter portsrepo.ReceiptFilter, limit int, nextToken *string) ([]domain.Receipt, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	conditions := []string{"owner_id = $1"}
	args := []any{ownerID}
	addArg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if desc := strings.TrimSpace(filter.Description); desc != "" {
		conditions = append(conditions, "description ILIKE '%' || "+addArg(desc)+" || '%'")
	}
	if filter.Category != nil {
		conditions = append(conditions, "category = "+addArg(string(*filter.Category)))
	}
	if filter.StartDate != nil {
		conditions = append(conditions, "receipt_date >= "+addArg(domain.TruncateToDay(*filter.StartDate)))
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "receipt_date <= "+addArg(domain.TruncateToDay(*filter.EndDate)))
	}
	if nextToken != nil && *nextToken != "" {
		cursor, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		conditions = append(conditions, fmt.Sprintf("(receipt_date, created_at, receipt_id) < (%s, %s, %s)",
			addArg(cursor.Date), addArg(cursor.CreatedAt), addArg(cursor.ID)))
	}

	query := `SELECT ` + receiptColumns + ` FROM receipts
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY receipt_date DESC, created_at DESC, receipt_id DESC
		LIMIT ` + addArg(limit+1) + `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to list receipts", err)
	}
	ms, err := collectReceipts(rows)
	if err != nil {
		return nil, nil, err
	}

	var token *string
	if len(ms) > limit {
		ms = ms[:limit]
		last := ms[len(ms)-1]
		encoded := pagination.EncodeToken(pagination.Cursor{Date: last.ReceiptDate, CreatedAt: last.CreatedAt, ID: last.ReceiptID})
		token = &encoded
	}

	receipts, err := r.withItems(ctx, ms)
	if err != nil {
		return nil, nil, err
	}
	return receipts, token, nil
}

const insertReceiptQuery = `
	INSERT INTO receipts (` + receiptColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (receipt_id) DO NOTHING;`

const insertItemQuery = `
	INSERT INTO receipt_items (` + itemColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`

func queueInsertReceipt(batch *pgx.Batch, receipt domain.Receipt) {
	m := mapping.ToModelReceipt(receipt)
	batch.Queue(insertReceiptQuery,
		m.ReceiptID,
		m.OwnerID,
		m.Category,
		m.ReceiptDate,
		m.Description,
		m.Notes,
		m.Amount,
		m.FileName,
		m.JobID,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
}

func queueInsertItems(batch *pgx.Batch, receipt domain.Receipt) {
	for _, item := range mapping.ToModelReceiptItems(receipt.ReceiptID, receipt.Items) {
		batch.Queue(insertItemQuery,
			item.ItemID,
			item.ReceiptID,
			item.Position,
			item.Item,
			item.Quantity,
			item.Unit,
			item.UnitPrice,
			item.DiscountPrice,
			item.Notes,
		)
	}
}

// SaveReceipts inserts receipts and their items in one transaction and returns the number of receipts created.
func (r *PgxReceiptRepository) SaveReceipts(ctx context.Context, receipts []domain.Receipt) (int, error) {
	if len(receipts) == 0 {
		return 0, nil
	}

	created := 0
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, receipt := range receipts {
			queueInsertReceipt(batch, receipt)
		}
		br := tx.SendBatch(ctx, batch)
		for range receipts {
			tag, err := br.Exec()
			if err != nil {
				br.Close()
				return apperrors.NewAppError(500, "failed to insert receipt", err)
			}
			created += int(tag.RowsAffected())
		}
		if err := br.Close(); err != nil {
			return apperrors.NewAppError(500, "failed to insert receipts", err)
		}

		itemBatch := &pgx.Batch{}
		for _, receipt := range receipts {
			queueInsertItems(itemBatch, receipt)
		}
		if itemBatch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, itemBatch).Close(); err != nil {
			return apperrors.NewAppError(500, "failed to insert receipt items", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

const updateReceiptQuery = `
	UPDATE receipts
	SET category = $2, receipt_date = $3, description = $4, notes = $5, amount = $6,
		file_name = $7, job_id = $8, last_updated_at = $9, last_updated_by = $10
	WHERE receipt_id = $1;`

// overwriteInTx rewrites the receipt row and swaps its items for the given ones.
func overwriteInTx(ctx context.Context, tx pgx.Tx, receipt domain.Receipt) error {
	m := mapping.ToModelReceipt(receipt)
	tag, err := tx.Exec(ctx, updateReceiptQuery,
		m.ReceiptID,
		m.Category,
		m.ReceiptDate,
		m.Description,
		m.Notes,
		m.Amount,
		m.FileName,
		m.JobID,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update receipt "+m.ReceiptID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: receipt %s", apperrors.ErrNotFound, m.ReceiptID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM receipt_items WHERE receipt_id = $1;`, m.ReceiptID); err != nil {
		return apperrors.NewAppError(500, "failed to clear items of receipt "+m.ReceiptID, err)
	}

	batch := &pgx.Batch{}
	queueInsertItems(batch, receipt)
	if batch.Len() == 0 {
		return nil
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert items of receipt "+m.ReceiptID, err)
	}
	return nil
}

// UpdateReceipt overwrites the receipt and replaces all its items atomically.
func (r *PgxReceiptRepository) UpdateReceipt(ctx context.Context, receipt domain.Receipt) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return overwriteInTx(ctx, tx, receipt)
	})
}

// SetReceiptsJobID stamps the extraction job id on the given receipts.
func (r *PgxReceiptRepository) SetReceiptsJobID(ctx context.Context, receiptIDs []string, jobID string, updatedAt time.Time) error {
	query := `UPDATE receipts SET job_id = $2, last_updated_at = $3 WHERE receipt_id = ANY($1);`
	if _, err := r.Pool.Exec(ctx, query, receiptIDs, jobID, updatedAt); err != nil {
		return apperrors.NewAppError(500, "failed to stamp job id "+jobID, err)
	}
	return nil
}

// DeleteReceipts removes receipts; their items go with them through ON DELETE CASCADE.
func (r *PgxReceiptRepository) DeleteReceipts(ctx context.Context, receiptIDs []string) (int64, error) {
	if len(receiptIDs) == 0 {
		return 0, nil
	}
	tag, err := r.Pool.Exec(ctx, `DELETE FROM receipts WHERE receipt_id = ANY($1);`, receiptIDs)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to delete receipts", err)
	}
	return tag.RowsAffected(), nil
}

// ApplyExtractionResults overwrites placeholders and inserts the extra receipts in one transaction.
func (r *PgxReceiptRepository) ApplyExtractionResults(ctx context.Context, updated []domain.Receipt, created []domain.Receipt) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		for _, receipt := range updated {
			if err := overwriteInTx(ctx, tx, receipt); err != nil {
				return err
			}
		}
		if len(created) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for _, receipt := range created {
			queueInsertReceipt(batch, receipt)
		}
		for _, receipt := range created {
			queueInsertItems(batch, receipt)
		}
		br := tx.SendBatch(ctx, batch)
		for i := range created {
			tag, err := br.Exec()
			if err != nil {
				br.Close()
				return apperrors.NewAppError(500, "failed to insert extracted receipt", err)
			}
			if tag.RowsAffected() != 1 {
				br.Close()
				return fmt.Errorf("%w: extracted receipt %s was not inserted", apperrors.ErrCountMismatch, created[i].ReceiptID)
			}
		}
		if err := br.Close(); err != nil {
			return apperrors.NewAppError(500, "failed to insert extracted receipt items", err)
		}
		return nil
	})
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/simplebank/simplebank/internal/models"
	"github.com/simplebank/simplebank/internal/query"
	"github.com/simplebank/simplebank/internal/storage"
)

const transactionColumns = "id, owner_id, amount_cents, currency, description, category, status, created_at, updated_at"

// sortColumns maps external sort fields to table columns. The allow-list
// itself lives in the query package; by the time a key reaches here it is
// guaranteed to be one of these.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"amount":    "amount_cents",
	"category":  "category",
	"status":    "status",
}

// CreateTransaction persists a new transaction, generating ID, timestamps
// and defaults when unset.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	now := models.UnixTime(time.Now().Unix())
	if tx.CreatedAt == 0 {
		tx.CreatedAt = now
	}
	if tx.UpdatedAt == 0 {
		tx.UpdatedAt = tx.CreatedAt
	}
	if tx.Currency == "" {
		tx.Currency = models.DefaultCurrency
	}
	if tx.Status == "" {
		tx.Status = models.StatusCompleted
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO transactions ("+transactionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		tx.ID, tx.OwnerID, int64(tx.Amount), tx.Currency, tx.Description, tx.Category, tx.Status,
		int64(tx.CreatedAt), int64(tx.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// GetTransaction retrieves one transaction scoped to its owner. A row owned
// by someone else is indistinguishable from a missing one.
func (s *SQLiteStore) GetTransaction(ctx context.Context, ownerID, id string) (*models.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ? AND owner_id = ?",
		id, ownerID,
	)

	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return tx, nil
}

// ListTransactions returns the filtered, sorted page plus the total count of
// the unpaginated filtered set.
func (s *SQLiteStore) ListTransactions(ctx context.Context, ownerID string, f query.Filter) ([]models.Transaction, int64, error) {
	f.Normalize()
	where, args := buildFilterWhere(ownerID, f)

	var total int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE "+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	listQuery := "SELECT " + transactionColumns + " FROM transactions WHERE " + where +
		" " + orderClause(f.Sort) + " LIMIT ? OFFSET ?"
	listArgs := append(args, f.PageSize, f.Offset())

	rows, err := s.db.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	items := []models.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan transaction: %w", err)
		}
		items = append(items, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return items, total, nil
}

// ListAllTransactions returns every row matching the filter, ignoring
// pagination. Used by CSV export.
func (s *SQLiteStore) ListAllTransactions(ctx context.Context, ownerID string, f query.Filter) ([]models.Transaction, error) {
	f.Normalize()
	where, args := buildFilterWhere(ownerID, f)

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE "+where+" "+orderClause(f.Sort),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	items := []models.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		items = append(items, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return items, nil
}

// UpdateTransaction applies only the fields present in the patch, bumps
// updated_at, and returns the updated row.
func (s *SQLiteStore) UpdateTransaction(ctx context.Context, ownerID, id string, patch models.TransactionPatch) (*models.Transaction, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().Unix()}

	if patch.Amount != nil {
		sets = append(sets, "amount_cents = ?")
		args = append(args, int64(*patch.Amount))
	}
	if patch.Currency != nil {
		sets = append(sets, "currency = ?")
		args = append(args, *patch.Currency)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *patch.Category)
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *patch.Status)
	}

	args = append(args, id, ownerID)
	result, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET "+strings.Join(sets, ", ")+" WHERE id = ? AND owner_id = ?",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return nil, storage.ErrNotFound
	}

	return s.GetTransaction(ctx, ownerID, id)
}

// DeleteTransaction removes (id, owner) or returns ErrNotFound.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE id = ? AND owner_id = ?",
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// SummarizeByCategory aggregates the owner's transactions per category.
// Empty categories fold into the Uncategorized bucket. Ordered by net
// descending, category ascending for deterministic ties.
func (s *SQLiteStore) SummarizeByCategory(ctx context.Context, ownerID string, from, to int64) ([]storage.SummaryRow, error) {
	conds := []string{"owner_id = ?"}
	args := []any{ownerID}
	if from > 0 {
		conds = append(conds, "created_at >= ?")
		args = append(args, from)
	}
	if to > 0 {
		conds = append(conds, "created_at <= ?")
		args = append(args, to)
	}

	q := `
		SELECT
			CASE WHEN category = '' THEN ? ELSE category END AS bucket,
			COALESCE(SUM(CASE WHEN amount_cents > 0 THEN amount_cents ELSE 0 END), 0) AS income,
			COALESCE(SUM(CASE WHEN amount_cents < 0 THEN -amount_cents ELSE 0 END), 0) AS expense,
			COALESCE(SUM(amount_cents), 0) AS net,
			COUNT(*) AS cnt
		FROM transactions
		WHERE ` + strings.Join(conds, " AND ") + `
		GROUP BY bucket
		ORDER BY net DESC, bucket ASC
	`
	args = append([]any{models.Uncategorized}, args...)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize transactions: %w", err)
	}
	defer rows.Close()

	summary := []storage.SummaryRow{}
	for rows.Next() {
		var row storage.SummaryRow
		var income, expense, net int64
		if err := rows.Scan(&row.Category, &income, &expense, &net, &row.Count); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		row.Income = models.Money(income)
		row.Expense = models.Money(expense)
		row.Net = models.Money(net)
		summary = append(summary, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate summary rows: %w", err)
	}

	return summary, nil
}

// BulkInsertTransactions inserts rows one by one, outside any wrapping
// transaction, so a failing row cannot abort its siblings. Returns the count
// actually inserted.
func (s *SQLiteStore) BulkInsertTransactions(ctx context.Context, txs []models.Transaction) (int64, error) {
	var inserted int64
	for i := range txs {
		if err := s.CreateTransaction(ctx, &txs[i]); err != nil {
			if ctx.Err() != nil {
				return inserted, ctx.Err()
			}
			slog.DebugContext(ctx, "Bulk insert row failed",
				"row", i,
				"owner_id", txs[i].OwnerID,
				"error", err,
			)
			continue
		}
		inserted++
	}
	return inserted, nil
}

// buildFilterWhere translates a list filter into a WHERE clause scoped to
// the owner. Text matches case-insensitively as a substring of description
// OR category; category is an exact match; date bounds are inclusive.
func buildFilterWhere(ownerID string, f query.Filter) (string, []any) {
	conds := []string{"owner_id = ?"}
	args := []any{ownerID}

	if f.Text != "" {
		pattern := "%" + escapeLike(strings.ToLower(f.Text)) + "%"
		conds = append(conds, `(LOWER(description) LIKE ? ESCAPE '\' OR LOWER(category) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if f.From > 0 {
		conds = append(conds, "created_at >= ?")
		args = append(args, f.From)
	}
	if f.To > 0 {
		conds = append(conds, "created_at <= ?")
		args = append(args, f.To)
	}

	return strings.Join(conds, " AND "), args
}

// orderClause renders allow-listed sort keys, with id as the final
// tie-break so paging stays deterministic.
func orderClause(sort []query.SortKey) string {
	terms := make([]string, 0, len(sort)+1)
	for _, key := range sort {
		col, ok := sortColumns[key.Field]
		if !ok {
			continue
		}
		dir := "ASC"
		if key.Desc {
			dir = "DESC"
		}
		terms = append(terms, col+" "+dir)
	}
	terms = append(terms, "id ASC")
	return "ORDER BY " + strings.Join(terms, ", ")
}

// escapeLike escapes LIKE wildcards in user-supplied search text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// scanner abstracts *sql.Row and *sql.Rows for scanTransaction.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (*models.Transaction, error) {
	tx := &models.Transaction{}
	var amount, createdAt, updatedAt int64
	err := row.Scan(
		&tx.ID,
		&tx.OwnerID,
		&amount,
		&tx.Currency,
		&tx.Description,
		&tx.Category,
		&tx.Status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	tx.Amount = models.Money(amount)
	tx.CreatedAt = models.UnixTime(createdAt)
	tx.UpdatedAt = models.UnixTime(updatedAt)
	return tx, nil
}

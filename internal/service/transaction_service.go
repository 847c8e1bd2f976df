package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"unicode"

	"github.com/simplebank/simplebank/internal/models"
	"github.com/simplebank/simplebank/internal/query"
	"github.com/simplebank/simplebank/internal/storage"
)

var (
	// ErrInvalidCurrency is returned when a currency is not a 3-letter code.
	ErrInvalidCurrency = errors.New("currency must be a 3-letter code")

	// ErrInvalidStatus is returned when a status is outside the known set.
	ErrInvalidStatus = errors.New("status must be pending, completed or failed")

	// ErrNoValidRows is returned when a CSV import yields zero insertable
	// rows.
	ErrNoValidRows = errors.New("no valid rows in csv")
)

// CreateTransactionInput carries the client-supplied fields for a new
// transaction. Amount is a pointer so a missing amount is distinguishable
// from zero.
type CreateTransactionInput struct {
	Amount      *models.Money `json:"amount"`
	Currency    string        `json:"currency"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	Status      string        `json:"status"`
}

// TransactionService implements the ledger operations, each scoped to the
// acting user's owner ID.
type TransactionService struct {
	store storage.Store
}

// NewTransactionService creates a new TransactionService with the given
// storage backend.
func NewTransactionService(store storage.Store) *TransactionService {
	return &TransactionService{store: store}
}

// List returns the filtered page of the owner's transactions plus the total
// count of the unpaginated filtered set.
func (s *TransactionService) List(ctx context.Context, ownerID string, f query.Filter) ([]models.Transaction, int64, error) {
	f.Normalize()
	return s.store.ListTransactions(ctx, ownerID, f)
}

// Create validates the input and persists a new transaction for the owner.
func (s *TransactionService) Create(ctx context.Context, ownerID string, in CreateTransactionInput) (*models.Transaction, error) {
	if in.Amount == nil {
		return nil, models.ErrInvalidAmount
	}
	currency, err := normalizeCurrency(in.Currency)
	if err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = models.StatusCompleted
	}
	if !models.ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	tx := &models.Transaction{
		OwnerID:     ownerID,
		Amount:      *in.Amount,
		Currency:    currency,
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Status:      status,
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", tx.ID,
		"owner_id", ownerID,
		"amount_cents", int64(tx.Amount),
		"category", tx.Category,
	)
	return tx, nil
}

// Get retrieves one transaction scoped to the owner.
func (s *TransactionService) Get(ctx context.Context, ownerID, id string) (*models.Transaction, error) {
	return s.store.GetTransaction(ctx, ownerID, id)
}

// Update applies a partial update; nil patch fields stay untouched. A patch
// carrying nothing simply returns the current row.
func (s *TransactionService) Update(ctx context.Context, ownerID, id string, patch models.TransactionPatch) (*models.Transaction, error) {
	if patch.Currency != nil {
		currency, err := normalizeCurrency(*patch.Currency)
		if err != nil {
			return nil, err
		}
		patch.Currency = &currency
	}
	if patch.Status != nil && !models.ValidStatus(*patch.Status) {
		return nil, ErrInvalidStatus
	}
	if patch.Empty() {
		return s.store.GetTransaction(ctx, ownerID, id)
	}

	tx, err := s.store.UpdateTransaction(ctx, ownerID, id, patch)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Transaction updated", "transaction_id", id, "owner_id", ownerID)
	return tx, nil
}

// Delete removes one transaction scoped to the owner.
func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteTransaction(ctx, ownerID, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id, "owner_id", ownerID)
	return nil
}

// Summary aggregates the owner's transactions per category within the
// optional inclusive bounds, ordered by net descending.
func (s *TransactionService) Summary(ctx context.Context, ownerID string, from, to int64) ([]storage.SummaryRow, error) {
	return s.store.SummarizeByCategory(ctx, ownerID, from, to)
}

// ExportCSV streams every transaction matching the filter (unpaginated) in
// the canonical CSV format.
func (s *TransactionService) ExportCSV(ctx context.Context, ownerID string, f query.Filter, w io.Writer) error {
	items, err := s.store.ListAllTransactions(ctx, ownerID, f)
	if err != nil {
		return err
	}
	return query.EncodeCSV(w, items)
}

// ImportCSV parses a CSV and inserts its valid rows for the owner,
// best-effort. Returns the count of rows actually inserted, or
// ErrNoValidRows when nothing parses.
func (s *TransactionService) ImportCSV(ctx context.Context, ownerID string, r io.Reader) (int64, error) {
	rows, skippedParse, err := query.ParseCSV(r)
	if err != nil {
		return 0, err
	}

	txs := make([]models.Transaction, len(rows))
	for i, row := range rows {
		txs[i] = models.Transaction{
			OwnerID:     ownerID,
			Amount:      row.Amount,
			Currency:    row.Currency,
			Description: row.Description,
			Category:    row.Category,
			Status:      row.Status,
		}
		if row.Date > 0 {
			txs[i].CreatedAt = models.UnixTime(row.Date)
			txs[i].UpdatedAt = models.UnixTime(row.Date)
		}
	}

	inserted, err := s.store.BulkInsertTransactions(ctx, txs)
	if err != nil {
		return inserted, err
	}
	if inserted == 0 {
		return 0, ErrNoValidRows
	}

	slog.InfoContext(ctx, "CSV import completed",
		"owner_id", ownerID,
		"inserted", inserted,
		"skipped_parse", skippedParse,
		"skipped_insert", int64(len(rows))-inserted,
	)
	return inserted, nil
}

// normalizeCurrency trims and uppercases a currency code, applying the
// default when empty and rejecting anything that is not three letters.
func normalizeCurrency(currency string) (string, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return models.DefaultCurrency, nil
	}
	if len(currency) != 3 {
		return "", ErrInvalidCurrency
	}
	for _, r := range currency {
		if !unicode.IsLetter(r) {
			return "", ErrInvalidCurrency
		}
	}
	return currency, nil
}

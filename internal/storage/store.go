// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/simplebank/simplebank/internal/models"
	"github.com/simplebank/simplebank/internal/query"
)

var (
	// ErrNotFound is returned when no row matches (id, owner). Ownership
	// misses deliberately look identical to missing rows.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when the users unique email index is
	// violated.
	ErrDuplicateEmail = errors.New("email already registered")
)

// SummaryRow is one category bucket of the per-category aggregation.
// Income and Expense are both non-negative; Net = Income - Expense.
type SummaryRow struct {
	Category string       `json:"category"`
	Income   models.Money `json:"income"`
	Expense  models.Money `json:"expense"`
	Net      models.Money `json:"net"`
	Count    int64        `json:"count"`
}

// Store defines the interface for persistence operations. This abstraction
// allows swapping storage backends (SQLite, PostgreSQL, etc.) without
// changing the service layer.
type Store interface {
	// CreateUser persists a new user. Returns ErrDuplicateEmail when the
	// email is already registered.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by lowercased email.
	// Returns (nil, nil) when no user exists.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID. Returns (nil, nil) when absent.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// CreateTransaction persists a new transaction, generating ID and
	// timestamps when unset.
	CreateTransaction(ctx context.Context, tx *models.Transaction) error

	// GetTransaction retrieves one transaction scoped to its owner.
	GetTransaction(ctx context.Context, ownerID, id string) (*models.Transaction, error)

	// ListTransactions returns the filtered page plus the total count of the
	// unpaginated filtered set.
	ListTransactions(ctx context.Context, ownerID string, f query.Filter) ([]models.Transaction, int64, error)

	// ListAllTransactions returns every row matching the filter, ignoring
	// pagination. Used by CSV export.
	ListAllTransactions(ctx context.Context, ownerID string, f query.Filter) ([]models.Transaction, error)

	// UpdateTransaction applies a partial update to (id, owner).
	// Returns the updated row or ErrNotFound.
	UpdateTransaction(ctx context.Context, ownerID, id string, patch models.TransactionPatch) (*models.Transaction, error)

	// DeleteTransaction removes (id, owner) or returns ErrNotFound.
	DeleteTransaction(ctx context.Context, ownerID, id string) error

	// SummarizeByCategory aggregates the owner's transactions per category
	// within the optional inclusive bounds, ordered by net descending.
	SummarizeByCategory(ctx context.Context, ownerID string, from, to int64) ([]SummaryRow, error)

	// BulkInsertTransactions inserts rows best-effort (unordered bulk
	// insert): one failing row never aborts its siblings. Returns the count
	// actually inserted.
	BulkInsertTransactions(ctx context.Context, txs []models.Transaction) (int64, error)

	// Close releases any resources held by the store.
	Close() error
}

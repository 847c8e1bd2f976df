package models

import (
	"time"
)

// Transaction statuses. Any other value is rejected on create/update and
// replaced with StatusCompleted on CSV import.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// DefaultCurrency is applied when a transaction carries no currency code.
const DefaultCurrency = "ZAR"

// Uncategorized is the display label for transactions without a category.
// It is never stored; the category column stays empty.
const Uncategorized = "Uncategorized"

// Transaction is a single signed-amount ledger entry.
type Transaction struct {
	// ID is the unique identifier (UUID format).
	ID string `json:"id"`

	// OwnerID references the owning User. Set at creation, never reassigned.
	OwnerID string `json:"ownerId"`

	// Amount in minor units. Positive = inflow, negative = outflow.
	Amount Money `json:"amount"`

	// Currency is a 3-letter code, default "ZAR".
	Currency string `json:"currency"`

	// Description is optional free text.
	Description string `json:"description,omitempty"`

	// Category is optional free text; empty renders as Uncategorized.
	Category string `json:"category,omitempty"`

	// Status is one of pending, completed, failed.
	Status string `json:"status"`

	// CreatedAt is the Unix timestamp of insertion (or the imported date).
	CreatedAt UnixTime `json:"createdAt"`

	// UpdatedAt is the Unix timestamp of the last modification.
	UpdatedAt UnixTime `json:"updatedAt"`
}

// TransactionPatch carries a partial update. Nil fields are left untouched;
// a present-but-empty string clears the field.
type TransactionPatch struct {
	Amount      *Money  `json:"amount"`
	Currency    *string `json:"currency"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Status      *string `json:"status"`
}

// Empty reports whether the patch carries no fields at all.
func (p TransactionPatch) Empty() bool {
	return p.Amount == nil && p.Currency == nil && p.Description == nil &&
		p.Category == nil && p.Status == nil
}

// ValidStatus reports whether s is one of the known transaction statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// DisplayCategory returns the category or the Uncategorized label when empty.
func (t *Transaction) DisplayCategory() string {
	if t.Category == "" {
		return Uncategorized
	}
	return t.Category
}

// UnixTime is a Unix-seconds timestamp that serializes as RFC3339 UTC.
type UnixTime int64

// Time converts the timestamp to a time.Time in UTC.
func (u UnixTime) Time() time.Time {
	return time.Unix(int64(u), 0).UTC()
}

// MarshalJSON encodes the timestamp as a quoted RFC3339 UTC string.
func (u UnixTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + u.Time().Format(time.RFC3339) + `"`), nil
}

// UnmarshalJSON accepts a quoted RFC3339 string.
func (u *UnixTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	*u = UnixTime(t.Unix())
	return nil
}

package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/simplebank/simplebank/internal/models"
	"github.com/simplebank/simplebank/internal/query"
	"github.com/simplebank/simplebank/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "simplebank-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func createTestUser(t *testing.T, store *SQLiteStore, email string) *models.User {
	t.Helper()
	user := models.NewUser(email, "Test User", "not-a-real-hash")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func TestUserStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("create and fetch by email", func(t *testing.T) {
		user := createTestUser(t, store, "alice@example.com")

		got, err := store.GetUserByEmail(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if got == nil || got.ID != user.ID {
			t.Fatalf("expected user %s, got %+v", user.ID, got)
		}
	})

	t.Run("email lookup is case-insensitive", func(t *testing.T) {
		got, err := store.GetUserByEmail(ctx, "ALICE@Example.COM")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if got == nil {
			t.Fatal("expected user for upper-cased email")
		}
	})

	t.Run("duplicate email maps to ErrDuplicateEmail", func(t *testing.T) {
		dup := models.NewUser("alice@example.com", "Other", "hash")
		err := store.CreateUser(ctx, dup)
		if !errors.Is(err, storage.ErrDuplicateEmail) {
			t.Fatalf("expected ErrDuplicateEmail, got %v", err)
		}
	})

	t.Run("missing user is nil without error", func(t *testing.T) {
		got, err := store.GetUserByEmail(ctx, "nobody@example.com")
		if err != nil || got != nil {
			t.Fatalf("expected (nil, nil), got (%+v, %v)", got, err)
		}
		got, err = store.GetUserByID(ctx, "nonexistent-id")
		if err != nil || got != nil {
			t.Fatalf("expected (nil, nil), got (%+v, %v)", got, err)
		}
	})
}

func TestTransactionStoreCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, store, "owner@example.com")

	t.Run("create generates ID, timestamps and defaults", func(t *testing.T) {
		tx := &models.Transaction{OwnerID: owner.ID, Amount: -15050, Description: "Groceries"}
		if err := store.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}
		if tx.ID == "" {
			t.Error("expected generated ID")
		}
		if tx.CreatedAt == 0 || tx.UpdatedAt == 0 {
			t.Error("expected timestamps to be set")
		}
		if tx.Currency != models.DefaultCurrency {
			t.Errorf("expected default currency, got %q", tx.Currency)
		}
		if tx.Status != models.StatusCompleted {
			t.Errorf("expected default status, got %q", tx.Status)
		}

		got, err := store.GetTransaction(ctx, owner.ID, tx.ID)
		if err != nil {
			t.Fatalf("GetTransaction failed: %v", err)
		}
		if int64(got.Amount) != -15050 {
			t.Errorf("expected -15050 cents, got %d", got.Amount)
		}
	})

	t.Run("partial update touches only present fields", func(t *testing.T) {
		tx := &models.Transaction{OwnerID: owner.ID, Amount: 1000, Description: "Lunch", Category: "Food"}
		if err := store.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}

		status := models.StatusFailed
		updated, err := store.UpdateTransaction(ctx, owner.ID, tx.ID, models.TransactionPatch{Status: &status})
		if err != nil {
			t.Fatalf("UpdateTransaction failed: %v", err)
		}
		if updated.Status != models.StatusFailed {
			t.Errorf("expected failed status, got %q", updated.Status)
		}
		if updated.Description != "Lunch" || updated.Category != "Food" || int64(updated.Amount) != 1000 {
			t.Errorf("untouched fields changed: %+v", updated)
		}

		// Explicit empty string clears, unlike absence
		empty := ""
		updated, err = store.UpdateTransaction(ctx, owner.ID, tx.ID, models.TransactionPatch{Category: &empty})
		if err != nil {
			t.Fatalf("UpdateTransaction failed: %v", err)
		}
		if updated.Category != "" {
			t.Errorf("expected cleared category, got %q", updated.Category)
		}
	})

	t.Run("update of missing row is ErrNotFound", func(t *testing.T) {
		amount := models.Money(100)
		_, err := store.UpdateTransaction(ctx, owner.ID, "nonexistent-id", models.TransactionPatch{Amount: &amount})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete removes and second delete is ErrNotFound", func(t *testing.T) {
		tx := &models.Transaction{OwnerID: owner.ID, Amount: 500}
		if err := store.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}
		if err := store.DeleteTransaction(ctx, owner.ID, tx.ID); err != nil {
			t.Fatalf("DeleteTransaction failed: %v", err)
		}
		if err := store.DeleteTransaction(ctx, owner.ID, tx.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestTenantIsolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := createTestUser(t, store, "alice@example.com")
	bob := createTestUser(t, store, "bob@example.com")

	tx := &models.Transaction{OwnerID: alice.ID, Amount: -2000, Description: "Alice only"}
	if err := store.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	t.Run("owner sees the row", func(t *testing.T) {
		items, total, err := store.ListTransactions(ctx, alice.ID, query.Filter{})
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if total != 1 || len(items) != 1 {
			t.Fatalf("expected 1 row for owner, got total=%d len=%d", total, len(items))
		}
	})

	t.Run("other users never see it", func(t *testing.T) {
		items, total, err := store.ListTransactions(ctx, bob.ID, query.Filter{})
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if total != 0 || len(items) != 0 {
			t.Fatalf("expected no rows for other user, got total=%d len=%d", total, len(items))
		}
	})

	t.Run("cross-user reads and writes look like missing rows", func(t *testing.T) {
		if _, err := store.GetTransaction(ctx, bob.ID, tx.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound on cross-user get, got %v", err)
		}
		if err := store.DeleteTransaction(ctx, bob.ID, tx.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound on cross-user delete, got %v", err)
		}
		amount := models.Money(1)
		if _, err := store.UpdateTransaction(ctx, bob.ID, tx.ID, models.TransactionPatch{Amount: &amount}); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound on cross-user update, got %v", err)
		}
	})
}

func seedListFixture(t *testing.T, store *SQLiteStore, ownerID string) {
	t.Helper()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC).Unix()
	rows := []models.Transaction{
		{OwnerID: ownerID, Amount: -15050, Description: "Groceries", Category: "Food", CreatedAt: models.UnixTime(base)},
		{OwnerID: ownerID, Amount: -4000, Description: "Taxi ride", Category: "Transport", CreatedAt: models.UnixTime(base + 86400)},
		{OwnerID: ownerID, Amount: 300000, Description: "Salary", Category: "Income", CreatedAt: models.UnixTime(base + 2*86400)},
		{OwnerID: ownerID, Amount: -2500, Description: "Coffee beans", Category: "Food", CreatedAt: models.UnixTime(base + 3*86400)},
		{OwnerID: ownerID, Amount: -9900, Description: "Internet", CreatedAt: models.UnixTime(base + 4*86400)},
	}
	for i := range rows {
		if err := store.CreateTransaction(context.Background(), &rows[i]); err != nil {
			t.Fatalf("seed row %d failed: %v", i, err)
		}
	}
}

func TestListTransactionsFiltering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, store, "owner@example.com")
	seedListFixture(t, store, owner.ID)

	t.Run("text matches description or category case-insensitively", func(t *testing.T) {
		items, total, err := store.ListTransactions(ctx, owner.ID, query.Filter{Text: "FOOD"})
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if total != 2 {
			t.Fatalf("expected 2 matches for FOOD, got %d", total)
		}
		for _, tx := range items {
			if tx.Category != "Food" {
				t.Errorf("unexpected match: %+v", tx)
			}
		}

		_, total, err = store.ListTransactions(ctx, owner.ID, query.Filter{Text: "taxi"})
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if total != 1 {
			t.Errorf("expected 1 match for taxi, got %d", total)
		}
	})

	t.Run("like wildcards in text are literal", func(t *testing.T) {
		_, total, err := store.ListTransactions(ctx, owner.ID, query.Filter{Text: "%"})
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if total != 0 {
			t.Errorf("expected no rows to contain a literal %%, got %d", total)
		}
	})

	t.Run("category is exact match", func(t *testing.T) {
		_, total, err := store.ListTransactions(ctx, owner.ID, query.Filter{Category: "Food"})
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if total != 2 {
			t.Errorf("expected 2 Food rows, got %d", total)
		}

		_, total, err = store.ListTransactions(ctx, owner.ID, query.Filter{Category: "Foo"})
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if total != 0 {
			t.Errorf("expected no rows for partial category, got %d", total)
		}
	})

	t.Run("date bounds are inclusive", func(t *testing.T) {
		from := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC).Unix()
		to := time.Date(2024, 1, 4, 12, 0, 0, 0, time.UTC).Unix()
		_, total, err := store.ListTransactions(ctx, owner.ID, query.Filter{From: from, To: to})
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if total != 3 {
			t.Errorf("expected 3 rows in range, got %d", total)
		}
	})
}

func TestListTransactionsSortAndPagination(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, store, "owner@example.com")
	seedListFixture(t, store, owner.ID)

	t.Run("amount descending is non-increasing", func(t *testing.T) {
		items, _, err := store.ListTransactions(ctx, owner.ID, query.Filter{
			Sort: []query.SortKey{{Field: "amount", Desc: true}},
		})
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		for i := 1; i < len(items); i++ {
			if items[i].Amount > items[i-1].Amount {
				t.Fatalf("sort violated at %d: %d > %d", i, items[i].Amount, items[i-1].Amount)
			}
		}
	})

	t.Run("default sort is newest first", func(t *testing.T) {
		items, _, err := store.ListTransactions(ctx, owner.ID, query.Filter{})
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		for i := 1; i < len(items); i++ {
			if items[i].CreatedAt > items[i-1].CreatedAt {
				t.Fatalf("expected newest first, got %v before %v", items[i-1].CreatedAt, items[i].CreatedAt)
			}
		}
	})

	t.Run("pages concatenate to the full set without duplicates", func(t *testing.T) {
		seen := map[string]bool{}
		var total int64
		for page := 1; ; page++ {
			items, gotTotal, err := store.ListTransactions(ctx, owner.ID, query.Filter{Page: page, PageSize: 2})
			if err != nil {
				t.Fatalf("page %d failed: %v", page, err)
			}
			total = gotTotal
			if len(items) == 0 {
				break
			}
			for _, tx := range items {
				if seen[tx.ID] {
					t.Fatalf("duplicate row %s across pages", tx.ID)
				}
				seen[tx.ID] = true
			}
		}
		if int64(len(seen)) != total {
			t.Fatalf("expected %d distinct rows across pages, got %d", total, len(seen))
		}
	})

	t.Run("total counts the unpaginated filtered set", func(t *testing.T) {
		items, total, err := store.ListTransactions(ctx, owner.ID, query.Filter{Page: 1, PageSize: 2})
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if len(items) != 2 || total != 5 {
			t.Fatalf("expected page of 2 with total 5, got len=%d total=%d", len(items), total)
		}
	})
}

func TestSummarizeByCategory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, store, "owner@example.com")
	seedListFixture(t, store, owner.ID)

	rows, err := store.SummarizeByCategory(ctx, owner.ID, 0, 0)
	if err != nil {
		t.Fatalf("SummarizeByCategory failed: %v", err)
	}

	var netSum, income, expense int64
	var count int64
	buckets := map[string]storage.SummaryRow{}
	for _, row := range rows {
		if row.Income < 0 || row.Expense < 0 {
			t.Errorf("income/expense must be non-negative: %+v", row)
		}
		if row.Net != row.Income-row.Expense {
			t.Errorf("net identity violated: %+v", row)
		}
		netSum += int64(row.Net)
		income += int64(row.Income)
		expense += int64(row.Expense)
		count += row.Count
		buckets[row.Category] = row
	}

	// Fixture total: -15050 - 4000 + 300000 - 2500 - 9900
	if netSum != 268550 {
		t.Errorf("expected net sum 268550, got %d", netSum)
	}
	if count != 5 {
		t.Errorf("expected 5 rows counted, got %d", count)
	}

	uncat, ok := buckets[models.Uncategorized]
	if !ok {
		t.Fatal("expected an Uncategorized bucket")
	}
	if uncat.Count != 1 || int64(uncat.Expense) != 9900 {
		t.Errorf("unexpected Uncategorized bucket: %+v", uncat)
	}

	// Ordered by net descending
	for i := 1; i < len(rows); i++ {
		if rows[i].Net > rows[i-1].Net {
			t.Fatalf("summary not ordered by net desc: %+v before %+v", rows[i-1], rows[i])
		}
	}
}

func TestBulkInsertTransactions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, store, "owner@example.com")

	txs := []models.Transaction{
		{OwnerID: owner.ID, Amount: 100},
		{OwnerID: owner.ID, Amount: 200},
		{OwnerID: owner.ID, Amount: 300},
	}
	// Force a failure in the middle: duplicate primary key
	txs[1].ID = "fixed-id"
	txs[2].ID = "fixed-id"

	inserted, err := store.BulkInsertTransactions(ctx, txs)
	if err != nil {
		t.Fatalf("BulkInsertTransactions failed: %v", err)
	}
	if inserted != 2 {
		t.Errorf("expected 2 inserted (one duplicate skipped), got %d", inserted)
	}

	_, total, err := store.ListTransactions(ctx, owner.ID, query.Filter{})
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 rows persisted, got %d", total)
	}
}

// Package testutil provides shared fixtures for tests that need a ledger database.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/storage"
)

// TestDB represents a migrated in-memory ledger database.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database. It automatically handles
// migrations and cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// SeedRaw saves rows, assigning IDs first, and fails the test on error.
func (db *TestDB) SeedRaw(rows ...model.RawTransaction) []model.RawTransaction {
	db.t.Helper()
	model.AssignIDs(rows)
	if _, err := db.Storage.SaveRawTransactions(context.Background(), rows); err != nil {
		db.t.Fatalf("failed to seed raw transactions: %v", err)
	}
	return rows
}

// RawTxn builds a checking or card row with sensible defaults.
func RawTxn(date time.Time, description, amount string, accountType model.AccountType) model.RawTransaction {
	source := "Amex_1005"
	if accountType == model.AccountChecking {
		source = "WellsFargo_7788"
	}
	return model.RawTransaction{
		TransactionDate: date,
		Description:     description,
		Amount:          decimal.RequireFromString(amount),
		Source:          source,
		AccountID:       "1005",
		AccountType:     accountType,
	}
}

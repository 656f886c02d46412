package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Raw transaction imports",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS raw_transactions (
					seq INTEGER PRIMARY KEY AUTOINCREMENT,
					id TEXT UNIQUE NOT NULL,
					transaction_date TEXT NOT NULL,
					post_date TEXT,
					description TEXT NOT NULL DEFAULT '',
					amount TEXT NOT NULL,
					category_source TEXT NOT NULL DEFAULT '',
					source TEXT NOT NULL,
					account_id TEXT NOT NULL DEFAULT '',
					account_type TEXT NOT NULL,
					additional_details TEXT NOT NULL DEFAULT '',
					imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_raw_transactions_date ON raw_transactions(transaction_date)`,
				`CREATE INDEX idx_raw_transactions_source ON raw_transactions(source)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Enrichment run bookkeeping",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS enrichment_runs (
					id TEXT PRIMARY KEY,
					rule_set_hash TEXT NOT NULL,
					status TEXT NOT NULL,
					row_count INTEGER NOT NULL DEFAULT 0,
					started_at DATETIME NOT NULL,
					completed_at DATETIME
				)`,
				`CREATE INDEX idx_enrichment_runs_completed ON enrichment_runs(status, completed_at)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Enriched transactions per run",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS enriched_transactions (
					run_id TEXT NOT NULL REFERENCES enrichment_runs(id) ON DELETE CASCADE,
					position INTEGER NOT NULL,
					raw_id TEXT NOT NULL REFERENCES raw_transactions(id),
					transaction_type TEXT NOT NULL,
					amount TEXT NOT NULL,
					original_amount TEXT NOT NULL,
					refund_status TEXT NOT NULL,
					refunded_amount TEXT NOT NULL,
					refund_match_id TEXT NOT NULL DEFAULT '',
					is_recurring INTEGER NOT NULL DEFAULT 0,
					recurring_frequency TEXT NOT NULL DEFAULT '',
					category TEXT NOT NULL,
					subcategory TEXT NOT NULL,
					merchant TEXT NOT NULL DEFAULT '',
					spending_type TEXT NOT NULL,
					absolute_amount TEXT NOT NULL,
					amount_bucket TEXT NOT NULL DEFAULT '',
					transaction_month TEXT NOT NULL DEFAULT '',
					day_of_week TEXT NOT NULL DEFAULT '',
					is_weekend INTEGER NOT NULL DEFAULT 0,
					PRIMARY KEY (run_id, position)
				)`,
				`CREATE INDEX idx_enriched_category ON enriched_transactions(run_id, category)`,
				`CREATE INDEX idx_enriched_merchant ON enriched_transactions(run_id, merchant)`,
				`CREATE INDEX idx_enriched_raw ON enriched_transactions(raw_id)`,
			)
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

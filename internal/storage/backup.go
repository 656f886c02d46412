package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Backup writes a consistent copy of the database to destPath with VACUUM
// INTO and verifies the copy. destPath must be absolute and must not exist.
func (s *SQLiteStorage) Backup(ctx context.Context, destPath string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if s.dbPath == ":memory:" {
		return fmt.Errorf("cannot back up an in-memory database")
	}
	if err := validateBackupPath(destPath); err != nil {
		return err
	}
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("backup %s already exists", destPath)
	}

	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to checkpoint WAL: %w", err)
	}

	// #nosec G201 - destPath is validated above
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", destPath)); err != nil {
		return fmt.Errorf("failed to back up database: %w", err)
	}

	if err := verifyIntegrity(ctx, destPath); err != nil {
		_ = os.Remove(destPath)
		return err
	}

	slog.Info("Backed up database", "source", s.dbPath, "backup", destPath)
	return nil
}

// BackupPath names the backup taken before migrating from version.
func BackupPath(dbPath string, version int) string {
	return fmt.Sprintf("%s.v%d.bak", dbPath, version)
}

func validateBackupPath(path string) error {
	if !filepath.IsAbs(path) || strings.Contains(path, "..") {
		return fmt.Errorf("%w: backup path must be absolute", ErrInvalidPath)
	}
	if strings.ContainsAny(path, `'";`) {
		return fmt.Errorf("%w: backup path contains forbidden characters", ErrInvalidPath)
	}
	return nil
}

func verifyIntegrity(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("failed to check backup: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("backup integrity check failed: %s", result)
	}
	return nil
}

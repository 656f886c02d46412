package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Every other command migrates on open, so this is only needed to prepare
a database ahead of time, to check its version, or to keep a backup of
an older database before it is upgraded.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "show the schema version without applying changes")
	cmd.Flags().Bool("backup", true, "copy an existing database to <db>.v<version>.bak before upgrading it")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	status, _ := cmd.Flags().GetBool("status")
	dbPath := config.ExpandPath(viper.GetString("database.path"))

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	if status {
		content := fmt.Sprintf("Database: %s\nCurrent:  %d\nLatest:   %d", dbPath, current, storage.ExpectedSchemaVersion)
		if current < storage.ExpectedSchemaVersion {
			content += "\n" + cli.FormatWarning("Run `ledger migrate` to upgrade")
		} else {
			content += "\n" + cli.FormatSuccess("Up to date")
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Migration Status", content))
		return nil
	}

	if backup, _ := cmd.Flags().GetBool("backup"); backup && current > 0 && current < storage.ExpectedSchemaVersion {
		abs, err := filepath.Abs(dbPath)
		if err != nil {
			return fmt.Errorf("failed to resolve database path: %w", err)
		}
		if err := store.Backup(ctx, storage.BackupPath(abs, current)); err != nil {
			return fmt.Errorf("backup before migration failed: %w", err)
		}
	}

	slog.Info("Running database migrations", "database", dbPath, "from", current, "to", storage.ExpectedSchemaVersion)
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info(cli.FormatSuccess("Database migrations completed"))
	return nil
}

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/report"
	"github.com/Veraticus/spice-ledger/internal/sheets"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the latest enrichment run",
	}
	cmd.AddCommand(exportCSVCmd())
	cmd.AddCommand(exportSheetsCmd())
	return cmd
}

func exportCSVCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Write the enriched ledger as CSV",
		Long: `Write every enriched row with the original import columns followed by
the enrichment columns. Writes to stdout unless --out is given.`,
		RunE: runExportCSV,
	}
	addFilterFlags(cmd)
	cmd.Flags().StringP("out", "o", "", "output file (default stdout)")
	return cmd
}

func runExportCSV(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	filter, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	rows, err := loadEnriched(ctx, store, filter)
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		return writeCSV(cmd.OutOrStdout(), rows)
	}
	if err := writeCSVFile(out, rows); err != nil {
		return err
	}
	slog.Info(cli.FormatSuccess(fmt.Sprintf("Wrote %d rows to %s", len(rows), out)))
	return nil
}

func exportSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Publish the enriched ledger to Google Sheets",
		Long: `Replace the Transactions, Summary and Monthly tabs of the configured
spreadsheet, creating a new spreadsheet when sheets.spreadsheet_id is
not set. Authenticates with a service account key or an OAuth2 refresh
token from the sheets.* configuration or GOOGLE_SHEETS_* variables.`,
		RunE: runExportSheets,
	}
	addFilterFlags(cmd)
	return cmd
}

func runExportSheets(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	filter, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}

	sheetsConfig, err := config.LoadSheetsConfig()
	if err != nil {
		return common.NewUserError("Google Sheets is not configured. Set sheets.service_account_path or the OAuth2 keys.", err)
	}

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	rows, err := loadEnriched(ctx, store, filter)
	if err != nil {
		return err
	}

	writer, err := sheets.NewWriter(ctx, *sheetsConfig, slog.Default())
	if err != nil {
		return err
	}

	return publish(cmd, writer, rows)
}

func publish(cmd *cobra.Command, writer sheets.ReportWriter, rows []model.EnrichedTransaction) error {
	id, err := writer.Write(cmd.Context(), rows, report.Summarize(rows, 0))
	if err != nil {
		return fmt.Errorf("failed to export to Google Sheets: %w", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
		fmt.Sprintf("Exported %d rows to https://docs.google.com/spreadsheets/d/%s", len(rows), id)))
	return nil
}

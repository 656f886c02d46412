package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/importer"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/ofx"
	"github.com/Veraticus/spice-ledger/internal/service"
)

const formatOFX = "ofx"

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file-or-dir>...",
		Short: "Import CSV, OFX or QFX exports into the ledger",
		Long: `Import transactions from bank and card exports.

Directories are scanned for .csv, .ofx and .qfx files. The CSV layout is
detected from the file name (Amex*, Chase*, anything else is the
consolidated layout) unless --format is given. Re-importing a file is a
no-op: rows are deduplicated by content.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("format", "", fmt.Sprintf("force a format (%s, %s)",
		strings.Join(importer.DefaultRegistry().Formats(), ", "), formatOFX))
	cmd.Flags().Bool("dry-run", false, "parse files without saving")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	format, _ := cmd.Flags().GetString("format")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no importable files found in %s", strings.Join(args, ", "))
	}

	slog.Info(cli.FormatTitle("Importing transactions"))

	var store service.Storage
	if !dryRun {
		s, err := openStorage(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()
		store = s
	}

	summary, err := importFiles(ctx, store, files, format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	common.LogInfo("Import complete", common.Fields{
		"files":   len(files),
		"parsed":  summary.Parsed,
		"skipped": summary.Skipped,
		"saved":   summary.Saved,
		"dry_run": dryRun,
	})

	content := fmt.Sprintf("Files:    %d\nParsed:   %d\nSkipped:  %d", len(files), summary.Parsed, summary.Skipped)
	if dryRun {
		content += "\n" + cli.FormatWarning("Dry run - nothing saved")
	} else {
		content += fmt.Sprintf("\nNew:      %d\nExisting: %d", summary.Saved, summary.Parsed-summary.Saved)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(cli.LedgerIcon+" Import Summary", content))
	return nil
}

// importSummary totals an import across files.
type importSummary struct {
	Parsed  int
	Skipped int
	Saved   int
}

// importFiles parses every file and saves its rows. A nil store parses only.
// Any file failing structurally aborts the import before that file is saved.
func importFiles(ctx context.Context, store service.Storage, files []string, format string, progressOut io.Writer) (importSummary, error) {
	var summary importSummary
	registry := importer.DefaultRegistry()

	var progress *cli.Progress
	if len(files) > 1 {
		progress = cli.NewProgress(progressOut, len(files), "Importing")
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		rows, skipped, err := parsePath(ctx, registry, path, format)
		if err != nil {
			return summary, err
		}
		for _, s := range skipped {
			slog.Warn("Skipped row", "file", filepath.Base(path), "line", s.Line, "reason", s.Reason)
		}
		summary.Parsed += len(rows)
		summary.Skipped += len(skipped)

		if store != nil && len(rows) > 0 {
			saved, err := store.SaveRawTransactions(ctx, rows)
			if err != nil {
				return summary, fmt.Errorf("saving %s: %w", filepath.Base(path), err)
			}
			summary.Saved += saved
		}

		slog.Debug("Imported file", "file", path, "rows", len(rows), "skipped", len(skipped))
		if progress != nil {
			progress.Step(filepath.Base(path))
		}
	}
	if progress != nil {
		progress.Finish()
	}
	return summary, nil
}

func parsePath(ctx context.Context, registry *importer.Registry, path, format string) ([]model.RawTransaction, []importer.SkippedRow, error) {
	if format == formatOFX || (format == "" && isOFX(path)) {
		f, err := os.Open(path) // #nosec G304
		if err != nil {
			return nil, nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()

		rows, err := ofx.NewParser().ParseFile(ctx, f)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		return rows, nil, nil
	}

	result, err := registry.ParseFile(path, format)
	if err != nil {
		return nil, nil, err
	}
	model.AssignIDs(result.Rows)
	return result.Rows, result.Skipped, nil
}

func isOFX(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ofx", ".qfx":
		return true
	}
	return false
}

// collectFiles expands directories into their CSV and OFX files. Explicit
// file arguments are kept as given.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		csvFiles, err := importer.Scan(arg)
		if err != nil {
			return nil, err
		}
		for _, f := range csvFiles {
			files = append(files, f.Path)
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", arg, err)
		}
		for _, e := range entries {
			if !e.IsDir() && isOFX(e.Name()) {
				files = append(files, filepath.Join(arg, e.Name()))
			}
		}
	}
	return files, nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/enrich"
	"github.com/Veraticus/spice-ledger/internal/export"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

func enrichCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Run the enrichment pipeline over every imported transaction",
		Long: `Classify, normalize, match refunds, detect recurring payments and
categorize the full import history in one pass.

Each run is stored as a whole or not at all. Older runs beyond
storage.keep_runs are pruned afterwards.`,
		RunE: runEnrich,
	}

	cmd.Flags().String("rules", "", "rules file layered over the built-in rules (YAML, JSON or TOML)")
	cmd.Flags().String("out", "", "also write the enriched ledger to this CSV file")
	cmd.Flags().Int("keep", 0, "completed runs to keep (default storage.keep_runs)")

	_ = viper.BindPFlag("rules.file", cmd.Flags().Lookup("rules"))

	return cmd
}

func runEnrich(cmd *cobra.Command, _ []string) error {
	pipeline, err := loadPipeline(viper.GetString("rules.file"))
	if err != nil {
		return err
	}

	keep, _ := cmd.Flags().GetInt("keep")
	if keep <= 0 {
		keep = viper.GetInt("storage.keep_runs")
	}

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Enrichment")
	ctx, stop := handler.HandleInterrupts(cmd.Context())
	defer stop()

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	slog.Info(cli.FormatTitle("Enriching transactions"))
	run, rows, stats, err := runEnrichment(ctx, pipeline, store, keep)
	if err != nil {
		if handler.WasInterrupted() {
			return nil
		}
		return err
	}

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := writeCSVFile(out, rows); err != nil {
			return err
		}
		slog.Info(cli.FormatSuccess("Wrote " + out))
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(cli.LedgerIcon+" Enrichment Complete", runSummary(run, stats)))
	return nil
}

// runEnrichment enriches every raw row, persists the run and prunes old runs.
func runEnrichment(ctx context.Context, pipeline *enrich.Pipeline, store service.Storage, keep int) (*model.EnrichmentRun, []model.EnrichedTransaction, enrich.Stats, error) {
	raws, err := store.GetRawTransactions(ctx)
	if err != nil {
		return nil, nil, enrich.Stats{}, fmt.Errorf("failed to load transactions: %w", err)
	}

	run := &model.EnrichmentRun{
		ID:          uuid.NewString(),
		RuleSetHash: pipeline.RuleSetHash(),
		Status:      model.RunPending,
		StartedAt:   time.Now().UTC(),
	}
	logger := slog.Default().With("component", "enrich", "run_id", run.ID)
	logger.Info("Starting enrichment run", "rows", len(raws))

	rows, stats, err := pipeline.RunWithStats(ctx, raws)
	if err != nil {
		return nil, nil, stats, fmt.Errorf("enrichment failed: %w", err)
	}

	if err := store.SaveEnrichmentRun(ctx, run, rows); err != nil {
		return nil, nil, stats, fmt.Errorf("failed to save enrichment run: %w", err)
	}

	pruned, err := store.PruneRuns(ctx, keep)
	if err != nil {
		logger.Warn("Failed to prune old runs", "error", err)
	} else if pruned > 0 {
		logger.Info("Pruned old runs", "pruned", pruned, "kept", keep)
	}

	return run, rows, stats, nil
}

func runSummary(run *model.EnrichmentRun, stats enrich.Stats) string {
	content := fmt.Sprintf("Run:        %s\nRows:       %d\nRefunds:    %d matched\nRecurring:  %d",
		run.ID, stats.Rows, stats.Refunds, stats.Recurring)
	if n := stats.Types[model.TypeUndefined]; n > 0 {
		content += "\n" + cli.FormatWarning(fmt.Sprintf("%d rows could not be typed; run `ledger review`", n))
	}
	return content
}

func writeCSVFile(path string, rows []model.EnrichedTransaction) (err error) {
	f, err := os.Create(path) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return writeCSV(f, rows)
}

func writeCSV(w io.Writer, rows []model.EnrichedTransaction) error {
	if err := export.WriteCSV(w, rows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

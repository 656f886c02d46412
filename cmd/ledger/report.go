package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/report"
	"github.com/Veraticus/spice-ledger/internal/service"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize the latest enrichment run",
		Long: `Print cash flow, spending by type and category, and top merchants
for the latest enrichment run. Transfers between your own accounts and
card payments are left out of inflow and outflow.`,
		RunE: runReport,
	}

	addFilterFlags(cmd)
	cmd.Flags().Int("top", report.DefaultTopMerchants, "merchants to list")

	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	filter, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}
	top, _ := cmd.Flags().GetInt("top")

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	rows, err := loadEnriched(ctx, store, filter)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), report.Render(report.Summarize(rows, top)))
	return nil
}

// loadEnriched reads rows of the filter's run, or the latest one, turning
// "no run yet" and unknown run IDs into hints.
func loadEnriched(ctx context.Context, store service.Storage, filter service.TransactionFilter) ([]model.EnrichedTransaction, error) {
	if filter.RunID != "" {
		if _, err := store.GetRun(ctx, filter.RunID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.NewUserError(fmt.Sprintf("No run with ID %s. It may have been pruned.", filter.RunID), err)
			}
			return nil, fmt.Errorf("failed to load run %s: %w", filter.RunID, err)
		}
	}

	rows, err := store.GetEnrichedTransactions(ctx, filter)
	if errors.Is(err, common.ErrNoRuns) {
		return nil, common.NewUserError("No enrichment run yet. Run `ledger enrich` first.", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load enriched transactions: %w", err)
	}
	return rows, nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/plaid"
	"github.com/Veraticus/spice-ledger/internal/service"
)

func importPlaidCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-plaid",
		Short: "Import transactions from a linked Plaid item",
		Long: `Fetch posted transactions from Plaid for every account of the configured
access token. Credit accounts become CreditCard rows and depository
accounts become Checking rows. Pending transactions are skipped.`,
		RunE: runImportPlaid,
	}

	cmd.Flags().String("start", "", "first date to fetch (2006-01-02)")
	cmd.Flags().String("end", "", "last date to fetch (2006-01-02, default today)")
	cmd.Flags().Int("days", 30, "days to fetch when --start is not given")
	cmd.Flags().Bool("list-accounts", false, "list accounts without importing")

	_ = viper.BindPFlag("plaid.days", cmd.Flags().Lookup("days"))

	return cmd
}

func runImportPlaid(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	client, err := plaid.NewClient(&plaid.Config{
		ClientID:    viper.GetString("plaid.client_id"),
		Secret:      viper.GetString("plaid.secret"),
		Environment: viper.GetString("plaid.environment"),
		AccessToken: viper.GetString("plaid.access_token"),
		Institution: viper.GetString("plaid.institution"),
	})
	if err != nil {
		return common.NewUserError("Plaid is not configured. Set plaid.client_id, plaid.secret and plaid.access_token.", err)
	}

	if list, _ := cmd.Flags().GetBool("list-accounts"); list {
		return listAccounts(ctx, cmd, client)
	}

	start, end, err := plaidDateRange(cmd, time.Now())
	if err != nil {
		return err
	}

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	slog.Info(cli.FormatTitle("Importing transactions from Plaid"))
	fetched, saved, err := importFromFetcher(ctx, client, store, start, end)
	if err != nil {
		return err
	}

	content := fmt.Sprintf("Range:    %s to %s\nFetched:  %d\nNew:      %d\nExisting: %d",
		start.Format(dateLayout), end.Format(dateLayout), fetched, saved, fetched-saved)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(cli.LedgerIcon+" Plaid Import", content))
	return nil
}

// importFromFetcher fetches one date range and saves it, returning how many
// rows were fetched and how many were new.
func importFromFetcher(ctx context.Context, fetcher plaid.TransactionFetcher, store service.Storage, start, end time.Time) (int, int, error) {
	rows, err := fetcher.Transactions(ctx, start, end)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}

	saved, err := store.SaveRawTransactions(ctx, rows)
	if err != nil {
		return len(rows), 0, fmt.Errorf("failed to save transactions: %w", err)
	}
	slog.Info("Plaid import complete", "fetched", len(rows), "new", saved)
	return len(rows), saved, nil
}

func listAccounts(ctx context.Context, cmd *cobra.Command, fetcher plaid.TransactionFetcher) error {
	accounts, err := fetcher.Accounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch accounts: %w", err)
	}
	if len(accounts) == 0 {
		slog.Info(cli.FormatWarning("No accounts found"))
		return nil
	}

	content := fmt.Sprintf("Found %d accounts:\n", len(accounts))
	for i, a := range accounts {
		content += fmt.Sprintf("\n%d. %s ****%s (%s)", i+1, a.Name, a.Mask, a.Type)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Available Accounts", content))
	return nil
}

func plaidDateRange(cmd *cobra.Command, now time.Time) (time.Time, time.Time, error) {
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if e, err := dateFlag(cmd, "end"); err != nil {
		return time.Time{}, time.Time{}, err
	} else if e != nil {
		end = *e
	}

	start := end.AddDate(0, 0, -viper.GetInt("plaid.days"))
	if s, err := dateFlag(cmd, "start"); err != nil {
		return time.Time{}, time.Time{}, err
	} else if s != nil {
		start = *s
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start date %s is after end date %s", start.Format(dateLayout), end.Format(dateLayout))
	}
	return start, end, nil
}

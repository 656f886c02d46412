package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/enrich"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/rules"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/Veraticus/spice-ledger/internal/storage"
)

const dateLayout = "2006-01-02"

// openStorage opens and migrates the configured ledger database.
func openStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := config.ExpandPath(viper.GetString("database.path"))

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// loadPipeline builds the enrichment pipeline from the defaults layered with
// an optional rules file.
func loadPipeline(path string) (*enrich.Pipeline, error) {
	rs, err := rules.LoadFile(path)
	if err != nil {
		return nil, common.NewUserError("Could not load the rules file. Check its keys and patterns.", err)
	}
	return enrich.NewPipeline(rs)
}

// addFilterFlags registers the flags read by filterFromFlags.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("start", "", "only rows on or after this date (2006-01-02)")
	cmd.Flags().String("end", "", "only rows on or before this date (2006-01-02)")
	cmd.Flags().String("category", "", "only rows with this category")
	cmd.Flags().String("merchant", "", "only rows whose merchant contains this text")
	cmd.Flags().String("source", "", "only rows from this source, e.g. Amex_1005")
	cmd.Flags().String("spending-type", "", "only rows with this spending type")
	cmd.Flags().String("type", "", "only rows with this transaction type")
	cmd.Flags().String("refund-status", "", "only rows with this refund status (none, refunded, matched)")
	cmd.Flags().String("run", "", "read this run instead of the latest one")
	cmd.Flags().String("min-amount", "", "only rows with at least this absolute amount")
	cmd.Flags().String("max-amount", "", "only rows with at most this absolute amount")
	cmd.Flags().Bool("recurring", false, "only recurring rows")
	cmd.Flags().Int("limit", 0, "maximum number of rows (0 for all)")
}

// filterFromFlags builds a query filter from the flags added by addFilterFlags.
func filterFromFlags(cmd *cobra.Command) (service.TransactionFilter, error) {
	var f service.TransactionFilter
	flags := cmd.Flags()

	var err error
	if f.StartDate, err = dateFlag(cmd, "start"); err != nil {
		return f, err
	}
	if f.EndDate, err = dateFlag(cmd, "end"); err != nil {
		return f, err
	}
	if f.MinAmount, err = amountFlag(cmd, "min-amount"); err != nil {
		return f, err
	}
	if f.MaxAmount, err = amountFlag(cmd, "max-amount"); err != nil {
		return f, err
	}

	f.Category, _ = flags.GetString("category")
	f.Merchant, _ = flags.GetString("merchant")
	f.Source, _ = flags.GetString("source")
	f.RecurringOnly, _ = flags.GetBool("recurring")
	f.Limit, _ = flags.GetInt("limit")

	spending, _ := flags.GetString("spending-type")
	f.SpendingType = model.SpendingType(strings.TrimSpace(spending))
	txnType, _ := flags.GetString("type")
	f.Type = model.TransactionType(strings.TrimSpace(txnType))
	refund, _ := flags.GetString("refund-status")
	f.RefundStatus = model.RefundStatus(strings.TrimSpace(refund))
	f.RunID, _ = flags.GetString("run")

	if f.Limit < 0 {
		return f, fmt.Errorf("%w: --limit cannot be negative", common.ErrInvalidConfig)
	}
	return f, nil
}

func dateFlag(cmd *cobra.Command, name string) (*time.Time, error) {
	v, _ := cmd.Flags().GetString(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q: expected YYYY-MM-DD: %w", name, v, err)
	}
	return &t, nil
}

func amountFlag(cmd *cobra.Command, name string) (*decimal.Decimal, error) {
	v, _ := cmd.Flags().GetString(name)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q: %w", name, v, err)
	}
	return &d, nil
}

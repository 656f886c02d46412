package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/Veraticus/spice-ledger/internal/tui"
	"github.com/Veraticus/spice-ledger/internal/tui/themes"
)

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Browse the rows the latest run could not categorize",
		Long: `Open an interactive table of the latest enrichment run. By default only
rows left with an Undefined category are shown; press "a" to toggle
every row and enter to see a row's details.

Fix what you find by extending your rules file and running
` + "`ledger enrich`" + ` again.`,
		RunE: runReview,
	}

	cmd.Flags().Bool("all", false, "start with every row instead of only uncategorized ones")
	cmd.Flags().String("theme", "", "color theme (default, catppuccin)")

	_ = viper.BindPFlag("review.theme", cmd.Flags().Lookup("theme"))

	return cmd
}

func runReview(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	rows, err := loadEnriched(ctx, store, service.TransactionFilter{})
	if err != nil {
		return err
	}

	showAll, _ := cmd.Flags().GetBool("all")
	return tui.Run(ctx, rows, tui.Options{
		Theme:   themes.ByName(viper.GetString("review.theme")),
		ShowAll: showAll,
	}, cmd.InOrStdin(), cmd.OutOrStdout())
}

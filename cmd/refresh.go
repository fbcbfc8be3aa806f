package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/millelog/new-world-profit-calculator/internal/pricefeed"
)

var refreshServerID int64

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh price history for all tracked items",
	Long:  "Downloads the aggregated price series of every market-linked item from the upstream feed and replaces the stored history.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		r := pricefeed.NewRefresher(newFeedClient(), st, cfg.Market.RefreshConcurrency)
		updated, failed, err := r.Refresh(ctx, refreshServerID)
		if err != nil {
			return eris.Wrap(err, "refresh")
		}

		fmt.Fprintf(os.Stderr, "Refreshed %d item(s), %d failed\n", updated, failed)
		return nil
	},
}

func init() {
	refreshCmd.Flags().Int64Var(&refreshServerID, "server", 0, "server id (defaults to config)")

	refreshCmd.PreRun = func(*cobra.Command, []string) {
		if refreshServerID == 0 {
			refreshServerID = cfg.Evaluate.ServerID
		}
	}

	rootCmd.AddCommand(refreshCmd)
}

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/millelog/new-world-profit-calculator/internal/market"
	"github.com/millelog/new-world-profit-calculator/internal/model"
)

var healthServerID int64

var healthCmd = &cobra.Command{
	Use:   "health <item-id>",
	Short: "Classify an item's market health",
	Long:  "Analyzes the stored price history of an item and reports activity, trend signal, and mean availability.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		itemID := args[0]

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		item, err := st.Item(ctx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return eris.Errorf("unknown item %q", itemID)
		}

		samples, err := st.PriceHistory(ctx, itemID, healthServerID)
		if err != nil {
			return eris.Wrap(err, "health")
		}

		formatHealth(os.Stdout, *item, market.Analyze(samples))
		return nil
	},
}

func formatHealth(out io.Writer, item model.Item, h model.MarketHealth) {
	active := "inactive"
	if h.Active {
		active = "active"
	}
	_, _ = fmt.Fprintf(out, "%s (%s)\n", item.Name, item.ID)
	_, _ = fmt.Fprintf(out, "  samples:           %d\n", h.Samples)
	_, _ = fmt.Fprintf(out, "  market:            %s\n", active)
	_, _ = fmt.Fprintf(out, "  trend signal:      %d/4\n", h.TrendSignal)
	_, _ = fmt.Fprintf(out, "  mean availability: %.0f\n", h.MeanAvailability)
}

func init() {
	healthCmd.Flags().Int64Var(&healthServerID, "server", 0, "server id (defaults to config)")

	healthCmd.PreRun = func(*cobra.Command, []string) {
		if healthServerID == 0 {
			healthServerID = cfg.Evaluate.ServerID
		}
	}

	rootCmd.AddCommand(healthCmd)
}

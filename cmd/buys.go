package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/millelog/new-world-profit-calculator/internal/model"
)

var buysServerID int64

var buysCmd = &cobra.Command{
	Use:   "buys",
	Short: "Scan for buy-order flip opportunities",
	Long:  "Lists uncraftable items whose sell price beats the highest buy order by more than 20%, ordered by availability-weighted margin.",
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

		flips, err := st.ProfitableFlips(ctx, buysServerID)
		if err != nil {
			return eris.Wrap(err, "buys")
		}

		formatFlips(os.Stdout, flips)
		return nil
	},
}

func formatFlips(out io.Writer, flips []model.FlipRecord) {
	if len(flips) == 0 {
		_, _ = fmt.Fprintln(out, "No flip opportunities found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ITEM\tSELL\tBUY_ORDER\tAVAIL\tQTY\tPROFIT\tMARGIN%")
	_, _ = fmt.Fprintln(w, "----\t----\t---------\t-----\t---\t------\t-------")
	for _, f := range flips {
		_, _ = fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%d\t%d\t%.2f\t%.1f\n",
			f.ItemName, f.Price, f.HighestBuyOrder, f.Availability, f.Qty,
			f.PotentialProfit, f.Margin)
	}
	_ = w.Flush()
}

func init() {
	buysCmd.Flags().Int64Var(&buysServerID, "server", 0, "server id (defaults to config)")

	buysCmd.PreRun = func(*cobra.Command, []string) {
		if buysServerID == 0 {
			buysServerID = cfg.Evaluate.ServerID
		}
	}

	rootCmd.AddCommand(buysCmd)
}

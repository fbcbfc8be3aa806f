package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/millelog/new-world-profit-calculator/internal/ingest"
)

var importServerID int64

var importCmd = &cobra.Command{
	Use:   "import <dump.json>",
	Short: "Import a latest-prices JSON dump",
	Long:  "Loads a latest-prices dump into the current-price table and the append-only price log.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		res, err := ingest.New(st).ImportFile(ctx, args[0], importServerID)
		if err != nil {
			return eris.Wrap(err, "import")
		}

		fmt.Fprintf(os.Stderr, "Imported %d row(s), skipped %d\n", res.Imported, res.Skipped)
		return nil
	},
}

func init() {
	importCmd.Flags().Int64Var(&importServerID, "server", 0, "server id (defaults to config)")

	importCmd.PreRun = func(*cobra.Command, []string) {
		if importServerID == 0 {
			importServerID = cfg.Evaluate.ServerID
		}
	}

	rootCmd.AddCommand(importCmd)
}

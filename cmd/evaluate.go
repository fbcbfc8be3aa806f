package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/millelog/new-world-profit-calculator/internal/model"
)

var (
	evalServerID int64
	evalPlayerID int64
	evalTopN     int
	evalStrategy string
	evalFormat   string
	evalOutput   string
	evalSave     bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Rank craftable items by crafting profitability",
	Long:  "Resolves the cheapest acquisition cost of every craftable item, scores the profitable ones, and prints the top of the ranking.",
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

		analyzer, err := newAnalyzer(st, evalStrategy, evalTopN)
		if err != nil {
			return err
		}

		started := time.Now()
		recs, err := analyzer.EvaluateAll(ctx, evalServerID, evalPlayerID)
		if err != nil {
			return eris.Wrap(err, "evaluate")
		}

		out := os.Stdout
		if evalOutput != "" {
			f, err := os.Create(evalOutput)
			if err != nil {
				return eris.Wrapf(err, "evaluate: create %s", evalOutput)
			}
			defer f.Close() //nolint:errcheck
			out = f
		}

		switch evalFormat {
		case "table":
			formatRanking(out, recs)
		case "csv":
			if err := writeRankingCSV(out, recs); err != nil {
				return err
			}
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(recs); err != nil {
				return eris.Wrap(err, "evaluate: encode json")
			}
		default:
			return eris.Errorf("unknown format %q", evalFormat)
		}

		if evalSave {
			run := model.EvalRun{
				ID:        uuid.NewString(),
				ServerID:  evalServerID,
				PlayerID:  evalPlayerID,
				Strategy:  evalStrategy,
				CreatedAt: time.Now(),
			}
			if err := st.SaveEvaluation(ctx, run, recs); err != nil {
				return eris.Wrap(err, "evaluate: save run")
			}
			fmt.Fprintf(os.Stderr, "Saved run %s\n", run.ID)
		}

		zap.L().Info("evaluation complete",
			zap.Int("ranked", len(recs)),
			zap.Duration("elapsed", time.Since(started)),
		)
		return nil
	},
}

// formatRanking writes the ranked records as an aligned table.
func formatRanking(out io.Writer, recs []model.ProfitabilityRecord) {
	if len(recs) == 0 {
		_, _ = fmt.Fprintln(out, "No profitable items found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tITEM\tMARKET\tCRAFT\tPROFIT\tMARGIN%\tAVAIL\tACTIVE\tTREND\tSCORE")
	_, _ = fmt.Fprintln(w, "-\t----\t------\t-----\t------\t-------\t-----\t------\t-----\t-----")

	for i, r := range recs {
		active := "no"
		if r.Health.Active {
			active = "yes"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%.2f\t%.2f\t%.2f\t%.1f\t%d\t%s\t%d/4\t%.1f\n",
			i+1, r.ItemName, r.MarketPrice, r.CraftCost, r.Profit, r.Margin,
			r.Availability, active, r.Health.TrendSignal, r.Score)
	}
	_ = w.Flush()
}

// writeRankingCSV writes the ranked records as CSV.
func writeRankingCSV(out io.Writer, recs []model.ProfitabilityRecord) error {
	w := csv.NewWriter(out)
	header := []string{
		"rank", "item_id", "item_name", "market_price", "craft_cost",
		"profit", "margin_pct", "availability", "active", "trend_signal", "score",
	}
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "evaluate: write csv header")
	}
	for i, r := range recs {
		row := []string{
			strconv.Itoa(i + 1),
			r.ItemID,
			r.ItemName,
			strconv.FormatFloat(r.MarketPrice, 'f', 2, 64),
			strconv.FormatFloat(r.CraftCost, 'f', 2, 64),
			strconv.FormatFloat(r.Profit, 'f', 2, 64),
			strconv.FormatFloat(r.Margin, 'f', 1, 64),
			strconv.Itoa(r.Availability),
			strconv.FormatBool(r.Health.Active),
			strconv.Itoa(r.Health.TrendSignal),
			strconv.FormatFloat(r.Score, 'f', 1, 64),
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "evaluate: write csv row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "evaluate: flush csv")
}

func init() {
	evaluateCmd.Flags().Int64Var(&evalServerID, "server", 0, "server id (defaults to config)")
	evaluateCmd.Flags().Int64Var(&evalPlayerID, "player", 0, "player id (defaults to config)")
	evaluateCmd.Flags().IntVar(&evalTopN, "top", 0, "number of items to keep (defaults to config)")
	evaluateCmd.Flags().StringVar(&evalStrategy, "strategy", "", "scoring strategy: availability or composite (defaults to config)")
	evaluateCmd.Flags().StringVar(&evalFormat, "format", "table", "output format: table, csv, or json")
	evaluateCmd.Flags().StringVarP(&evalOutput, "output", "o", "", "write output to file instead of stdout")
	evaluateCmd.Flags().BoolVar(&evalSave, "save", false, "persist the ranking as an evaluation run")

	evaluateCmd.PreRun = func(*cobra.Command, []string) {
		if evalServerID == 0 {
			evalServerID = cfg.Evaluate.ServerID
		}
		if evalPlayerID == 0 {
			evalPlayerID = cfg.Evaluate.PlayerID
		}
		if evalTopN == 0 {
			evalTopN = cfg.Evaluate.TopN
		}
		if evalStrategy == "" {
			evalStrategy = cfg.Evaluate.Strategy
		}
	}

	rootCmd.AddCommand(evaluateCmd)
}

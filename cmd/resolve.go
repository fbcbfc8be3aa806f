package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/millelog/new-world-profit-calculator/internal/model"
)

var (
	resolveServerID int64
	resolvePlayerID int64
	resolveCount    int
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <item-id>",
	Short: "Show the cheapest acquisition plan for one item",
	Long:  "Resolves the minimum cost of acquiring one unit of an item and prints the crafting tree plus the market shopping list.",
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

		cost, tree, err := newResolver(st).ResolveItemCost(ctx, itemID, resolveServerID, resolvePlayerID)
		if err != nil {
			return eris.Wrap(err, "resolve")
		}

		formatResolution(os.Stdout, *item, cost, tree, resolveCount)
		return nil
	},
}

// formatResolution prints the cost, the crafting tree, and the aggregated
// market shopping list for count units.
func formatResolution(out io.Writer, item model.Item, cost float64, tree model.CostTree, count int) {
	if math.IsInf(cost, 1) {
		_, _ = fmt.Fprintf(out, "%s (%s): cannot be acquired (no market listing, no feasible recipe)\n", item.Name, item.ID)
		return
	}

	if len(tree) == 0 {
		_, _ = fmt.Fprintf(out, "%s (%s): buy from market at %.2f each\n", item.Name, item.ID, cost)
		return
	}

	_, _ = fmt.Fprintf(out, "%s (%s): craft for %.2f each\n\n", item.Name, item.ID, cost)
	printTree(out, tree, 1)

	leaves := tree.MarketLeaves(count)
	if len(leaves) == 0 {
		return
	}
	ids := make([]string, 0, len(leaves))
	for id := range leaves {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	_, _ = fmt.Fprintf(out, "\nShopping list for %d unit(s):\n", count)
	for _, id := range ids {
		_, _ = fmt.Fprintf(out, "  %s x%d\n", id, leaves[id])
	}
}

func printTree(out io.Writer, tree model.CostTree, depth int) {
	ids := make([]string, 0, len(tree))
	for id := range tree {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	indent := strings.Repeat("  ", depth)
	for _, id := range ids {
		node := tree[id]
		_, _ = fmt.Fprintf(out, "%s%s x%d @ %.2f (%s)\n", indent, id, node.Quantity, node.Cost, node.Source)
		printTree(out, node.Children, depth+1)
	}
}

func init() {
	resolveCmd.Flags().Int64Var(&resolveServerID, "server", 0, "server id (defaults to config)")
	resolveCmd.Flags().Int64Var(&resolvePlayerID, "player", 0, "player id (defaults to config)")
	resolveCmd.Flags().IntVar(&resolveCount, "count", 1, "units to plan the shopping list for")

	resolveCmd.PreRun = func(*cobra.Command, []string) {
		if resolveServerID == 0 {
			resolveServerID = cfg.Evaluate.ServerID
		}
		if resolvePlayerID == 0 {
			resolvePlayerID = cfg.Evaluate.PlayerID
		}
	}

	rootCmd.AddCommand(resolveCmd)
}

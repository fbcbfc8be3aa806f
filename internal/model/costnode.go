package model

// Source tags how one unit of an item is acquired in a cost tree.
type Source string

const (
	SourceMarket  Source = "market"
	SourceCrafted Source = "crafted"
)

// CostNode is one node of the recursive cost breakdown for an item.
// Children is empty for market-sourced nodes.
type CostNode struct {
	Cost     float64  `json:"cost"`
	Quantity int      `json:"quantity"`
	Source   Source   `json:"source"`
	Children CostTree `json:"children,omitempty"`
}

// CostTree maps reagent item id to its cost breakdown within one recipe
// invocation. A nil or empty tree means the root item is market-sourced.
type CostTree map[string]CostNode

// MarketLeaves walks the tree and accumulates, per item id, the quantity
// that would be bought on the market to craft count units of the root.
// Crafted nodes contribute their children scaled by the node quantity.
func (t CostTree) MarketLeaves(count int) map[string]int {
	leaves := make(map[string]int)
	t.accumulateLeaves(leaves, count)
	return leaves
}

func (t CostTree) accumulateLeaves(leaves map[string]int, multiplier int) {
	for id, node := range t {
		if node.Source == SourceCrafted && len(node.Children) > 0 {
			node.Children.accumulateLeaves(leaves, multiplier*node.Quantity)
			continue
		}
		leaves[id] += node.Quantity * multiplier
	}
}

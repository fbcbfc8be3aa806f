package model

import "time"

// MarketHealth is the derived activity/trend classification of an item's
// price history.
type MarketHealth struct {
	Active           bool    `json:"active"`
	TrendSignal      int     `json:"trend_signal"`       // 0-4
	MeanAvailability float64 `json:"mean_availability"`  // coarse-bucketed
	Samples          int     `json:"samples"`
}

// ProfitabilityRecord is the evaluation outcome for one craftable item.
// Records are produced fresh each pass and are not persisted by the core;
// the evaluate command may save them as an evaluation run.
type ProfitabilityRecord struct {
	ItemID       string       `json:"item_id"`
	ItemName     string       `json:"item_name"`
	MarketPrice  float64      `json:"market_price"`
	CraftCost    float64      `json:"crafting_cost"`
	Profit       float64      `json:"profit"`
	Margin       float64      `json:"profit_margin"` // percent, 0 when cost is 0
	Availability int          `json:"availability"`
	Health       MarketHealth `json:"health"`
	Score        float64      `json:"score"`
	Tree         CostTree     `json:"crafting_tree,omitempty"`
}

// Crafted reports whether crafting strictly beat the market for this item.
func (r ProfitabilityRecord) Crafted() bool {
	return len(r.Tree) > 0
}

// EvalRun records one saved evaluation pass.
type EvalRun struct {
	ID        string    `json:"id"`
	ServerID  int64     `json:"server_id"`
	PlayerID  int64     `json:"player_id"`
	Strategy  string    `json:"strategy"`
	CreatedAt time.Time `json:"created_at"`
}

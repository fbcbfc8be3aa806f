package model

import "time"

// PriceQuote is the current market listing for an item on one server.
// Absence of a quote means the item cannot be bought; the resolver treats
// that as infinite cost.
type PriceQuote struct {
	ItemID          string    `json:"item_id"`
	ServerID        int64     `json:"server_id"`
	Price           float64   `json:"price"`
	Availability    int       `json:"availability"`
	HighestBuyOrder *float64  `json:"highest_buy_order,omitempty"`
	Qty             *int      `json:"qty,omitempty"`
	LastUpdated     time.Time `json:"last_updated"`
}

// PriceSample is one aggregated point of an item's price history, the
// input series for market health classification.
type PriceSample struct {
	AvgAvailability float64   `json:"avg_avail"`
	AvgPrice        float64   `json:"avg_price"`
	LowestPrice     float64   `json:"lowest_price"`
	SampledAt       time.Time `json:"price_date"`
}

// FlipRecord is one buy-low/sell-high opportunity on an uncraftable item:
// the spread between the lowest sell listing and the highest buy order.
type FlipRecord struct {
	ItemID          string  `json:"item_id"`
	ItemName        string  `json:"item_name"`
	Price           float64 `json:"price"`
	HighestBuyOrder float64 `json:"highest_buy_order"`
	Availability    int     `json:"availability"`
	Qty             int     `json:"qty"`
	PotentialProfit float64 `json:"potential_profit"`
	Margin          float64 `json:"profit_margin_percentage"`
}

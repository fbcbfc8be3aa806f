package model

// Item is a tradeable item. Reference data, never mutated by an
// evaluation pass.
type Item struct {
	ID       string `json:"item_id"`
	Name     string `json:"item_name"`
	MarketID int64  `json:"market_id,omitempty"` // nwmarketprices cn_id, 0 when untracked
}

// ItemType is a category tag carried by items. Type-based reagent slots
// accept any item carrying the tag.
type ItemType struct {
	ID   int64  `json:"item_type_id"`
	Name string `json:"item_type_name"`
}

// Server identifies one game server. Prices are per server.
type Server struct {
	ID   int64  `json:"server_id"`
	Name string `json:"server_name"`
}

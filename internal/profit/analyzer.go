package profit

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/millelog/new-world-profit-calculator/internal/market"
	"github.com/millelog/new-world-profit-calculator/internal/model"
)

// CostResolver resolves one item's acquisition cost.
type CostResolver interface {
	ResolveItemCost(ctx context.Context, itemID string, serverID, playerID int64) (float64, model.CostTree, error)
}

// Catalog lists the distinct items some recipe produces.
type Catalog interface {
	RecipeResultItems(ctx context.Context) ([]model.Item, error)
}

// Prices supplies current quotes; nil quote means no market data.
type Prices interface {
	Price(ctx context.Context, itemID string, serverID int64) (*model.PriceQuote, error)
}

// Histories supplies the ordered price history behind health signals.
type Histories interface {
	PriceHistory(ctx context.Context, itemID string, serverID int64) ([]model.PriceSample, error)
}

// Analyzer drives the evaluate-all pass. Each pass is side-effect-free
// on its inputs and independent of previous passes.
type Analyzer struct {
	resolver  CostResolver
	catalog   Catalog
	prices    Prices
	histories Histories
	strategy  Strategy
	topN      int
}

// NewAnalyzer wires an Analyzer. topN <= 0 disables truncation.
func NewAnalyzer(resolver CostResolver, catalog Catalog, prices Prices, histories Histories, strategy Strategy, topN int) *Analyzer {
	return &Analyzer{
		resolver:  resolver,
		catalog:   catalog,
		prices:    prices,
		histories: histories,
		strategy:  strategy,
		topN:      topN,
	}
}

// EvaluateAll resolves, scores, and ranks every craftable item on the
// server. Items without market data or with an unresolvable (+Inf) cost
// are excluded before ranking so they can never surface as false
// positives in the top N. Evaluation is interruptible between items.
func (a *Analyzer) EvaluateAll(ctx context.Context, serverID, playerID int64) ([]model.ProfitabilityRecord, error) {
	log := zap.L().With(
		zap.Int64("server_id", serverID),
		zap.Int64("player_id", playerID),
	)

	items, err := a.catalog.RecipeResultItems(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "profit: list craftable items")
	}
	log.Info("starting profitability pass", zap.Int("items", len(items)))

	var recs []model.ProfitabilityRecord
	excluded := 0
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, skip, err := a.evaluateItem(ctx, item, serverID, playerID)
		if err != nil {
			return nil, err
		}
		if skip {
			excluded++
			continue
		}
		recs = append(recs, rec)
	}

	scores := a.strategy.Score(recs)
	for i := range recs {
		recs[i].Score = scores[i]
	}

	ranked := Rank(recs, a.topN)
	log.Info("profitability pass complete",
		zap.Int("evaluated", len(recs)),
		zap.Int("excluded", excluded),
		zap.Int("ranked", len(ranked)),
		zap.String("strategy", a.strategy.Name()),
	)
	return ranked, nil
}

// EvaluateOne builds the profitability record for a single item, or
// skip=true when the item cannot be priced.
func (a *Analyzer) EvaluateOne(ctx context.Context, item model.Item, serverID, playerID int64) (model.ProfitabilityRecord, bool, error) {
	return a.evaluateItem(ctx, item, serverID, playerID)
}

func (a *Analyzer) evaluateItem(ctx context.Context, item model.Item, serverID, playerID int64) (model.ProfitabilityRecord, bool, error) {
	quote, err := a.prices.Price(ctx, item.ID, serverID)
	if err != nil {
		return model.ProfitabilityRecord{}, false, eris.Wrapf(err, "profit: price for %s", item.ID)
	}
	if quote == nil {
		return model.ProfitabilityRecord{}, true, nil
	}

	cost, tree, err := a.resolver.ResolveItemCost(ctx, item.ID, serverID, playerID)
	if err != nil {
		return model.ProfitabilityRecord{}, false, eris.Wrapf(err, "profit: resolve %s", item.ID)
	}
	if math.IsInf(cost, 1) {
		return model.ProfitabilityRecord{}, true, nil
	}

	samples, err := a.histories.PriceHistory(ctx, item.ID, serverID)
	if err != nil {
		return model.ProfitabilityRecord{}, false, eris.Wrapf(err, "profit: history for %s", item.ID)
	}

	profit := quote.Price - cost
	margin := 0.0
	if cost != 0 {
		margin = profit / cost * 100
	}

	return model.ProfitabilityRecord{
		ItemID:       item.ID,
		ItemName:     item.Name,
		MarketPrice:  quote.Price,
		CraftCost:    cost,
		Profit:       profit,
		Margin:       margin,
		Availability: quote.Availability,
		Health:       market.Analyze(samples),
		Tree:         tree,
	}, false, nil
}

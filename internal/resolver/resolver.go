package resolver

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/millelog/new-world-profit-calculator/internal/model"
)

// DefaultMaxDepth bounds recursion through item-type reagents that can
// transitively reference their own producer.
const DefaultMaxDepth = 10

// FeeFunc returns the crafting fee added to a recipe's per-unit cost.
type FeeFunc func(recipe model.Recipe) float64

// ZeroFee is the default fee: crafting itself costs nothing.
func ZeroFee(model.Recipe) float64 { return 0 }

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxDepth overrides the recursion depth guard.
func WithMaxDepth(depth int) Option {
	return func(r *Resolver) { r.maxDepth = depth }
}

// WithFee plugs in a crafting-fee term.
func WithFee(fee FeeFunc) Option {
	return func(r *Resolver) { r.fee = fee }
}

// Resolver answers "what is the cheapest way to acquire one unit of this
// item" against injected price/recipe/skill sources. It performs no I/O
// of its own and holds no mutable state across calls; repeated resolves
// over unchanged data are idempotent.
type Resolver struct {
	prices     PriceSource
	catalog    RecipeCatalog
	candidates CandidateSource
	skills     SkillSource
	maxDepth   int
	fee        FeeFunc
}

// New creates a Resolver over the given sources.
func New(prices PriceSource, catalog RecipeCatalog, candidates CandidateSource, skills SkillSource, opts ...Option) *Resolver {
	r := &Resolver{
		prices:     prices,
		catalog:    catalog,
		candidates: candidates,
		skills:     skills,
		maxDepth:   DefaultMaxDepth,
		fee:        ZeroFee,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveItemCost returns the per-unit acquisition cost for an item and
// the cost tree explaining it. The tree is empty when buying wins; ties
// favor the market. A +Inf cost means the item cannot be priced at all
// (no market data and no feasible recipe) and must be excluded from
// ranking, never displayed.
func (r *Resolver) ResolveItemCost(ctx context.Context, itemID string, serverID, playerID int64) (float64, model.CostTree, error) {
	profile, err := r.skills.PlayerSkills(ctx, playerID)
	if err != nil {
		return 0, nil, eris.Wrapf(err, "resolver: skills for player %d", playerID)
	}

	e := &evaluation{
		prices:     r.prices,
		catalog:    r.catalog,
		candidates: r.candidates,
		serverID:   serverID,
		profile:    profile,
		maxDepth:   r.maxDepth,
		fee:        r.fee,
	}
	return e.itemCost(ctx, itemID, 0)
}

// evaluation carries the per-pass context of one resolve call chain. The
// skill profile is loaded once; everything else is read-only.
type evaluation struct {
	prices     PriceSource
	catalog    RecipeCatalog
	candidates CandidateSource
	serverID   int64
	profile    model.SkillProfile
	maxDepth   int
	fee        FeeFunc
}

// itemCost is the central recursive minimization:
//
//	cost(item) = min(market(item), min over recipes producing item)
//
// Past the depth guard the item is treated as a market leaf.
func (e *evaluation) itemCost(ctx context.Context, itemID string, depth int) (float64, model.CostTree, error) {
	market, err := e.marketPrice(ctx, itemID)
	if err != nil {
		return 0, nil, err
	}

	if depth > e.maxDepth {
		zap.L().Debug("depth limit exceeded, falling back to market",
			zap.String("item_id", itemID),
			zap.Int("depth", depth),
		)
		return market, model.CostTree{}, nil
	}

	recipes, err := e.catalog.RecipesFor(ctx, itemID)
	if err != nil {
		return 0, nil, eris.Wrapf(err, "resolver: recipes for %s", itemID)
	}

	var usable []model.Recipe
	for _, recipe := range recipes {
		if !recipe.Valid() {
			zap.L().Warn("skipping recipe with invalid data",
				zap.Int64("recipe_id", recipe.ID),
				zap.String("result_item_id", recipe.ResultItemID),
			)
			continue
		}
		usable = append(usable, recipe)
	}
	if len(usable) == 0 {
		return market, model.CostTree{}, nil
	}

	best := math.Inf(1)
	var bestTree model.CostTree
	for _, recipe := range usable {
		cost, tree, err := e.recipeCost(ctx, recipe, depth)
		if err != nil {
			return 0, nil, err
		}
		if cost < best {
			best = cost
			bestTree = tree
		}
	}

	// Ties favor the market: buying carries no further complexity.
	if market <= best {
		return market, model.CostTree{}, nil
	}
	return best, bestTree, nil
}

// recipeCost computes the per-unit cost of producing the recipe's result.
// An unsatisfied skill gate is a hard fallback to the result's market
// price; an unresolved reagent slot makes the whole recipe infeasible.
func (e *evaluation) recipeCost(ctx context.Context, recipe model.Recipe, depth int) (float64, model.CostTree, error) {
	if !CanCraft(e.profile, recipe) {
		market, err := e.marketPrice(ctx, recipe.ResultItemID)
		if err != nil {
			return 0, nil, err
		}
		return market, model.CostTree{}, nil
	}

	total := 0.0
	tree := model.CostTree{}
	// Claimed concrete items, scoped strictly to this recipe invocation.
	used := make(map[string]struct{})

	for _, slot := range recipe.Reagents {
		itemID, err := e.resolveReagent(ctx, slot, used)
		if err != nil {
			return 0, nil, err
		}
		if itemID == "" {
			return math.Inf(1), model.CostTree{}, nil
		}
		used[itemID] = struct{}{}

		cost, children, err := e.itemCost(ctx, itemID, depth+1)
		if err != nil {
			return 0, nil, err
		}

		node := model.CostNode{
			Cost:     cost,
			Quantity: slot.Quantity,
			Source:   model.SourceMarket,
			Children: children,
		}
		if len(children) > 0 {
			node.Source = model.SourceCrafted
		}
		// A concrete slot may repeat an item already claimed; the
		// quantities merge into one node.
		if prev, ok := tree[itemID]; ok {
			node.Quantity += prev.Quantity
		}
		tree[itemID] = node

		total += cost * float64(slot.Quantity)
	}

	unit := total/float64(recipe.QuantityProduced) + e.fee(recipe)
	return unit, tree, nil
}

// marketPrice returns the current price for an item, +Inf when no market
// data exists.
func (e *evaluation) marketPrice(ctx context.Context, itemID string) (float64, error) {
	quote, err := e.prices.Price(ctx, itemID, e.serverID)
	if err != nil {
		return 0, eris.Wrapf(err, "resolver: price for %s", itemID)
	}
	if quote == nil {
		return math.Inf(1), nil
	}
	return quote.Price, nil
}

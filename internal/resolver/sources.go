// Package resolver computes the cheapest way to acquire one unit of an
// item: buy it on the market, or craft it from its own cheapest
// sub-acquisitions. The computation is a depth-first minimization over
// the recipe/reagent graph with reagent substitution and skill gating.
package resolver

import (
	"context"

	"github.com/millelog/new-world-profit-calculator/internal/model"
)

// PriceSource supplies current market quotes. A nil quote with a nil
// error means no market data exists for the item; the resolver treats
// that as infinite cost, never as an error.
type PriceSource interface {
	Price(ctx context.Context, itemID string, serverID int64) (*model.PriceQuote, error)
}

// RecipeCatalog supplies the recipes producing an item, reagent slots and
// skill requirements included.
type RecipeCatalog interface {
	RecipesFor(ctx context.Context, itemID string) ([]model.Recipe, error)
}

// CandidateSource lists the items carrying a type tag. Ordering is not
// assumed; the resolver re-sorts candidates by price.
type CandidateSource interface {
	CandidatesForType(ctx context.Context, itemTypeID, serverID int64) ([]model.Item, error)
}

// SkillSource supplies a player's trade-skill levels.
type SkillSource interface {
	PlayerSkills(ctx context.Context, playerID int64) (model.SkillProfile, error)
}

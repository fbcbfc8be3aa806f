package resolver

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/millelog/new-world-profit-calculator/internal/model"
)

// fakeWorld backs every resolver source from in-memory maps.
type fakeWorld struct {
	prices  map[string]float64 // item id -> price; absent means no market data
	recipes map[string][]model.Recipe
	types   map[int64][]model.Item
	skills  map[int64]model.SkillProfile
}

func newWorld() *fakeWorld {
	return &fakeWorld{
		prices:  make(map[string]float64),
		recipes: make(map[string][]model.Recipe),
		types:   make(map[int64][]model.Item),
		skills:  map[int64]model.SkillProfile{1: {}},
	}
}

func (w *fakeWorld) Price(_ context.Context, itemID string, _ int64) (*model.PriceQuote, error) {
	p, ok := w.prices[itemID]
	if !ok {
		return nil, nil
	}
	return &model.PriceQuote{ItemID: itemID, Price: p, Availability: 10}, nil
}

func (w *fakeWorld) RecipesFor(_ context.Context, itemID string) ([]model.Recipe, error) {
	return w.recipes[itemID], nil
}

func (w *fakeWorld) CandidatesForType(_ context.Context, typeID, _ int64) ([]model.Item, error) {
	return w.types[typeID], nil
}

func (w *fakeWorld) PlayerSkills(_ context.Context, playerID int64) (model.SkillProfile, error) {
	profile, ok := w.skills[playerID]
	if !ok {
		return model.SkillProfile{}, nil
	}
	return profile, nil
}

func (w *fakeWorld) resolver(opts ...Option) *Resolver {
	return New(w, w, w, w, opts...)
}

func slot(itemID string, qty int) model.ReagentSlot {
	return model.ReagentSlot{ItemID: itemID, Quantity: qty}
}

func typeSlot(typeID int64, qty int) model.ReagentSlot {
	return model.ReagentSlot{ItemTypeID: typeID, Quantity: qty}
}

func TestResolve_NoRecipes_MarketPrice(t *testing.T) {
	w := newWorld()
	w.prices["iron_ore"] = 2.5

	cost, tree, err := w.resolver().ResolveItemCost(context.Background(), "iron_ore", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2.5, cost)
	assert.Empty(t, tree)
}

func TestResolve_NoRecipesNoMarket_Infinite(t *testing.T) {
	w := newWorld()

	cost, tree, err := w.resolver().ResolveItemCost(context.Background(), "void_essence", 1, 1)
	require.NoError(t, err)
	assert.True(t, math.IsInf(cost, 1))
	assert.Empty(t, tree)
}

func TestResolve_CraftingWins(t *testing.T) {
	// A costs 10 on market; recipe needs 2xB (3 each) + 1xC (2): craft = 8.
	w := newWorld()
	w.prices["a"] = 10
	w.prices["b"] = 3
	w.prices["c"] = 2
	w.recipes["a"] = []model.Recipe{{
		ID: 1, ResultItemID: "a", QuantityProduced: 1,
		Reagents: []model.ReagentSlot{slot("b", 2), slot("c", 1)},
	}}

	cost, tree, err := w.resolver().ResolveItemCost(context.Background(), "a", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 8.0, cost)
	require.Len(t, tree, 2)
	assert.Equal(t, model.CostNode{Cost: 3, Quantity: 2, Source: model.SourceMarket, Children: model.CostTree{}}, tree["b"])
	assert.Equal(t, model.CostNode{Cost: 2, Quantity: 1, Source: model.SourceMarket, Children: model.CostTree{}}, tree["c"])
}

func TestResolve_MarketWins(t *testing.T) {
	w := newWorld()
	w.prices["a"] = 5
	w.prices["b"] = 3
	w.recipes["a"] = []model.Recipe{{
		ID: 1, ResultItemID: "a", QuantityProduced: 1,
		Reagents: []model.ReagentSlot{slot("b", 2)},
	}}

	cost, tree, err := w.resolver().ResolveItemCost(context.Background(), "a", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 5.0, cost)
	assert.Empty(t, tree)
}

func TestResolve_TieFavorsMarket(t *testing.T) {
	w := newWorld()
	w.prices["a"] = 6
	w.prices["b"] = 3
	w.recipes["a"] = []model.Recipe{{
		ID: 1, ResultItemID: "a", QuantityProduced: 1,
		Reagents: []model.ReagentSlot{slot("b", 2)},
	}}

	cost, tree, err := w.resolver().ResolveItemCost(context.Background(), "a", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 6.0, cost)
	assert.Empty(t, tree, "ties must favor the market")
}

func TestResolve_OutputQuantityAmortizes(t *testing.T) {
	// 4 units per craft, reagents cost 40 total -> 10 per unit.
	w := newWorld()
	w.prices["potion"] = 50
	w.prices["herb"] = 4
	w.recipes["potion"] = []model.Recipe{{
		ID: 1, ResultItemID: "potion", QuantityProduced: 4,
		Reagents: []model.ReagentSlot{slot("herb", 10)},
	}}

	cost, _, err := w.resolver().ResolveItemCost(context.Background(), "potion", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 10.0, cost)
}

func TestResolve_CheapestRecipeChosen(t *testing.T) {
	w := newWorld()
	w.prices["sword"] = 100
	w.prices["iron"] = 10
	w.prices["steel"] = 6
	w.recipes["sword"] = []model.Recipe{
		{ID: 1, ResultItemID: "sword", QuantityProduced: 1, Reagents: []model.ReagentSlot{slot("iron", 5)}},
		{ID: 2, ResultItemID: "sword", QuantityProduced: 1, Reagents: []model.ReagentSlot{slot("steel", 5)}},
	}

	cost, tree, err := w.resolver().ResolveItemCost(context.Background(), "sword", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 30.0, cost)
	require.Contains(t, tree, "steel")
	assert.NotContains(t, tree, "iron")
}

func TestResolve_NoMarketButCraftable(t *testing.T) {
	w := newWorld()
	w.prices["plank"] = 1
	w.recipes["table"] = []model.Recipe{{
		ID: 1, ResultItemID: "table", QuantityProduced: 1,
		Reagents: []model.ReagentSlot{slot("plank", 4)},
	}}

	cost, tree, err := w.resolver().ResolveItemCost(context.Background(), "table", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 4.0, cost)
	assert.Contains(t, tree, "plank")
}

func TestResolve_SkillGateFallsBackToMarket(t *testing.T) {
	// Player lacks the skill; D still resolves at its market price 7 no
	// matter how cheap the reagents would have been.
	w := newWorld()
	w.prices["d"] = 7
	w.prices["scrap"] = 0.1
	w.recipes["d"] = []model.Recipe{{
		ID: 1, ResultItemID: "d", QuantityProduced: 1,
		Reagents:          []model.ReagentSlot{slot("scrap", 1)},
		SkillRequirements: []model.SkillRequirement{{SkillID: 3, Level: 150}},
	}}
	w.skills[1] = model.SkillProfile{3: 20}

	cost, tree, err := w.resolver().ResolveItemCost(context.Background(), "d", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 7.0, cost)
	assert.Empty(t, tree)
}

func TestResolve_NestedCrafting(t *testing.T) {
	// bar is itself cheaper to craft; the tree nests.
	w := newWorld()
	w.prices["tool"] = 100
	w.prices["bar"] = 20
	w.prices["ore"] = 3
	w.recipes["tool"] = []model.Recipe{{
		ID: 1, ResultItemID: "tool", QuantityProduced: 1,
		Reagents: []model.ReagentSlot{slot("bar", 2)},
	}}
	w.recipes["bar"] = []model.Recipe{{
		ID: 2, ResultItemID: "bar", QuantityProduced: 1,
		Reagents: []model.ReagentSlot{slot("ore", 4)},
	}}

	cost, tree, err := w.resolver().ResolveItemCost(context.Background(), "tool", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 24.0, cost)

	bar := tree["bar"]
	assert.Equal(t, model.SourceCrafted, bar.Source)
	assert.Equal(t, 12.0, bar.Cost)
	assert.Equal(t, model.SourceMarket, bar.Children["ore"].Source)
}

func TestReagent_TypeSlotPicksCheapest(t *testing.T) {
	w := newWorld()
	w.prices["gem"] = 100
	w.prices["x"] = 5
	w.prices["y"] = 3
	w.prices["z"] = 3
	w.types[7] = []model.Item{{ID: "x"}, {ID: "y"}, {ID: "z"}}
	w.recipes["gem"] = []model.Recipe{{
		ID: 1, ResultItemID: "gem", QuantityProduced: 1,
		Reagents: []model.ReagentSlot{typeSlot(7, 1)},
	}}

	cost, tree, err := w.resolver().ResolveItemCost(context.Background(), "gem", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 3.0, cost)
	// y and z tie at 3; item id breaks the tie deterministically.
	assert.Contains(t, tree, "y")
	assert.NotContains(t, tree, "z")
}

func TestReagent_TypeUniquenessWithinRecipe(t *testing.T) {
	// Two slots of the same type never resolve to the same item.
	w := newWorld()
	w.prices["amulet"] = 100
	w.prices["x"] = 5
	w.prices["y"] = 3
	w.prices["z"] = 3
	w.types[7] = []model.Item{{ID: "x"}, {ID: "y"}, {ID: "z"}}
	w.recipes["amulet"] = []model.Recipe{{
		ID: 1, ResultItemID: "amulet", QuantityProduced: 1,
		Reagents: []model.ReagentSlot{typeSlot(7, 1), typeSlot(7, 1)},
	}}

	cost, tree, err := w.resolver().ResolveItemCost(context.Background(), "amulet", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 6.0, cost)
	assert.Contains(t, tree, "y")
	assert.Contains(t, tree, "z")
	assert.NotContains(t, tree, "x")
}

func TestReagent_UniquenessNotSharedAcrossRecipes(t *testing.T) {
	// Sibling recipe evaluations each get a fresh used set: both recipes
	// may claim y.
	w := newWorld()
	w.prices["ring"] = 100
	w.prices["y"] = 3
	w.prices["x"] = 5
	w.types[7] = []model.Item{{ID: "x"}, {ID: "y"}}
	w.recipes["ring"] = []model.Recipe{
		{ID: 1, ResultItemID: "ring", QuantityProduced: 1, Reagents: []model.ReagentSlot{typeSlot(7, 2)}},
		{ID: 2, ResultItemID: "ring", QuantityProduced: 1, Reagents: []model.ReagentSlot{typeSlot(7, 3)}},
	}

	cost, tree, err := w.resolver().ResolveItemCost(context.Background(), "ring", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 6.0, cost)
	assert.Contains(t, tree, "y")
}

func TestReagent_NoCandidates_RecipeInfeasible(t *testing.T) {
	w := newWorld()
	w.prices["crown"] = 40
	w.types[9] = nil
	w.recipes["crown"] = []model.Recipe{{
		ID: 1, ResultItemID: "crown", QuantityProduced: 1,
		Reagents: []model.ReagentSlot{typeSlot(9, 1)},
	}}

	cost, tree, err := w.resolver().ResolveItemCost(context.Background(), "crown", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 40.0, cost)
	assert.Empty(t, tree)
}

func TestReagent_ExhaustedCandidates_Infeasible(t *testing.T) {
	// Three slots, two candidates: third slot finds nothing, recipe is
	// infeasible, item falls back to market.
	w := newWorld()
	w.prices["totem"] = 25
	w.prices["x"] = 1
	w.prices["y"] = 2
	w.types[7] = []model.Item{{ID: "x"}, {ID: "y"}}
	w.recipes["totem"] = []model.Recipe{{
		ID: 1, ResultItemID: "totem", QuantityProduced: 1,
		Reagents: []model.ReagentSlot{typeSlot(7, 1), typeSlot(7, 1), typeSlot(7, 1)},
	}}

	cost, tree, err := w.resolver().ResolveItemCost(context.Background(), "totem", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 25.0, cost)
	assert.Empty(t, tree)
}

func TestReagent_UnknownPriceSortsLast(t *testing.T) {
	w := newWorld()
	w.prices["gem"] = 100
	w.prices["y"] = 3
	// x has no market data at all
	w.types[7] = []model.Item{{ID: "x"}, {ID: "y"}}
	w.recipes["gem"] = []model.Recipe{{
		ID: 1, ResultItemID: "gem", QuantityProduced: 1,
		Reagents: []model.ReagentSlot{typeSlot(7, 1)},
	}}

	_, tree, err := w.resolver().ResolveItemCost(context.Background(), "gem", 1, 1)
	require.NoError(t, err)
	assert.Contains(t, tree, "y")
}

func TestResolve_DepthGuardTerminates(t *testing.T) {
	// x's only recipe consumes an item of type 7, whose sole candidate is
	// x itself: a self-referential cycle the guard must cut off.
	w := newWorld()
	w.prices["x"] = 5
	w.types[7] = []model.Item{{ID: "x"}}
	w.recipes["x"] = []model.Recipe{{
		ID: 1, ResultItemID: "x", QuantityProduced: 1,
		Reagents: []model.ReagentSlot{typeSlot(7, 1)},
	}}

	cost, tree, err := w.resolver(WithMaxDepth(4)).ResolveItemCost(context.Background(), "x", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 5.0, cost)
	assert.Empty(t, tree)
}

func TestResolve_InvalidRecipeSkipped(t *testing.T) {
	w := newWorld()
	w.prices["a"] = 10
	w.prices["b"] = 1
	w.recipes["a"] = []model.Recipe{
		{ID: 1, ResultItemID: "a", QuantityProduced: 0, Reagents: []model.ReagentSlot{slot("b", 1)}},
		{ID: 2, ResultItemID: "a", QuantityProduced: 1, Reagents: []model.ReagentSlot{{ItemID: "b", ItemTypeID: 7, Quantity: 1}}},
	}

	cost, tree, err := w.resolver().ResolveItemCost(context.Background(), "a", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 10.0, cost)
	assert.Empty(t, tree)
}

func TestResolve_Monotonic(t *testing.T) {
	// Raising a reagent's price never lowers the resolved cost.
	w := newWorld()
	w.prices["a"] = 10
	w.prices["c"] = 2
	w.recipes["a"] = []model.Recipe{{
		ID: 1, ResultItemID: "a", QuantityProduced: 1,
		Reagents: []model.ReagentSlot{slot("b", 2), slot("c", 1)},
	}}

	prev := 0.0
	for _, bPrice := range []float64{1, 3, 4, 8} {
		w.prices["b"] = bPrice
		cost, _, err := w.resolver().ResolveItemCost(context.Background(), "a", 1, 1)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, cost, prev)
		prev = cost
	}
}

func TestResolve_FeeHook(t *testing.T) {
	w := newWorld()
	w.prices["a"] = 10
	w.prices["b"] = 3
	w.recipes["a"] = []model.Recipe{{
		ID: 1, ResultItemID: "a", QuantityProduced: 1,
		Reagents: []model.ReagentSlot{slot("b", 2)},
	}}

	fee := func(model.Recipe) float64 { return 1.5 }
	cost, _, err := w.resolver(WithFee(fee)).ResolveItemCost(context.Background(), "a", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 7.5, cost)
}

func TestCanCraft(t *testing.T) {
	recipe := model.Recipe{SkillRequirements: []model.SkillRequirement{
		{SkillID: 1, Level: 50},
		{SkillID: 2, Level: 100},
	}}

	assert.True(t, CanCraft(model.SkillProfile{1: 50, 2: 150}, recipe))
	assert.False(t, CanCraft(model.SkillProfile{1: 49, 2: 150}, recipe))
	assert.False(t, CanCraft(model.SkillProfile{1: 50}, recipe))
	assert.True(t, CanCraft(model.SkillProfile{}, model.Recipe{}), "no requirements is always craftable")
}

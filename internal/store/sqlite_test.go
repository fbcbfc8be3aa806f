package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/millelog/new-world-profit-calculator/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStore_ItemRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item := model.Item{ID: "ironingott5", Name: "Iron Ingot", MarketID: 1234}
	require.NoError(t, s.UpsertItem(ctx, item, nil))

	got, err := s.Item(ctx, "ironingott5")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, item, *got)

	// upsert replaces, never duplicates
	item.Name = "Iron Ingot Tier 5"
	require.NoError(t, s.UpsertItem(ctx, item, nil))
	got, err = s.Item(ctx, "ironingott5")
	require.NoError(t, err)
	assert.Equal(t, "Iron Ingot Tier 5", got.Name)
}

func TestSQLiteStore_ItemMissing(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Item(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_TrackedItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertItem(ctx, model.Item{ID: "b", Name: "B", MarketID: 2}, nil))
	require.NoError(t, s.UpsertItem(ctx, model.Item{ID: "a", Name: "A", MarketID: 1}, nil))
	require.NoError(t, s.UpsertItem(ctx, model.Item{ID: "c", Name: "C"}, nil))

	items, err := s.TrackedItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "b", items[1].ID)
}

func TestSQLiteStore_CandidatesForType(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	typeID, err := s.InsertItemType(ctx, "refining_materials")
	require.NoError(t, err)
	otherID, err := s.InsertItemType(ctx, "raw_resources")
	require.NoError(t, err)

	require.NoError(t, s.UpsertItem(ctx, model.Item{ID: "sandflux", Name: "Sand Flux"}, []int64{typeID}))
	require.NoError(t, s.UpsertItem(ctx, model.Item{ID: "obsidianflux", Name: "Obsidian Flux"}, []int64{typeID}))
	require.NoError(t, s.UpsertItem(ctx, model.Item{ID: "ironore", Name: "Iron Ore"}, []int64{otherID}))

	items, err := s.CandidatesForType(ctx, typeID, 1)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "obsidianflux", items[0].ID)
	assert.Equal(t, "sandflux", items[1].ID)
}

func TestSQLiteStore_PriceRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertItem(ctx, model.Item{ID: "ironore", Name: "Iron Ore"}, nil))

	hbo := 0.35
	qty := 12
	quote := model.PriceQuote{
		ItemID:          "ironore",
		ServerID:        7,
		Price:           0.5,
		Availability:    4000,
		HighestBuyOrder: &hbo,
		Qty:             &qty,
		LastUpdated:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.UpsertPrice(ctx, quote))
	require.NoError(t, s.AddPriceLog(ctx, quote))

	got, err := s.Price(ctx, "ironore", 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 0.5, got.Price)
	assert.Equal(t, 4000, got.Availability)
	require.NotNil(t, got.HighestBuyOrder)
	assert.Equal(t, 0.35, *got.HighestBuyOrder)
	require.NotNil(t, got.Qty)
	assert.Equal(t, 12, *got.Qty)
	assert.True(t, got.LastUpdated.Equal(quote.LastUpdated))

	// update in place
	quote.Price = 0.6
	require.NoError(t, s.UpsertPrice(ctx, quote))
	got, err = s.Price(ctx, "ironore", 7)
	require.NoError(t, err)
	assert.Equal(t, 0.6, got.Price)

	// server scoping
	got, err = s.Price(ctx, "ironore", 99)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_PriceNullableFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertItem(ctx, model.Item{ID: "ironore", Name: "Iron Ore"}, nil))
	require.NoError(t, s.UpsertPrice(ctx, model.PriceQuote{
		ItemID: "ironore", ServerID: 7, Price: 0.5, Availability: 10, LastUpdated: time.Now(),
	}))

	got, err := s.Price(ctx, "ironore", 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.HighestBuyOrder)
	assert.Nil(t, got.Qty)
}

func TestSQLiteStore_PriceHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertItem(ctx, model.Item{ID: "ironore", Name: "Iron Ore"}, nil))

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	samples := []model.PriceSample{
		{AvgAvailability: 100, AvgPrice: 0.5, LowestPrice: 0.4, SampledAt: base},
		{AvgAvailability: 120, AvgPrice: 0.55, LowestPrice: 0.45, SampledAt: base.Add(24 * time.Hour)},
	}
	require.NoError(t, s.ReplacePriceHistory(ctx, "ironore", 7, samples))

	got, err := s.PriceHistory(ctx, "ironore", 7)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 100.0, got[0].AvgAvailability)
	assert.Equal(t, 0.55, got[1].AvgPrice)

	// replace discards the previous window
	require.NoError(t, s.ReplacePriceHistory(ctx, "ironore", 7, samples[1:]))
	got, err = s.PriceHistory(ctx, "ironore", 7)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 120.0, got[0].AvgAvailability)
}

func TestSQLiteStore_RecipeRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertItem(ctx, model.Item{ID: "ironingot", Name: "Iron Ingot"}, nil))
	require.NoError(t, s.UpsertItem(ctx, model.Item{ID: "ironore", Name: "Iron Ore"}, nil))

	skillID, err := s.InsertSkill(ctx, "Smelting")
	require.NoError(t, err)
	fluxType, err := s.InsertItemType(ctx, "flux")
	require.NoError(t, err)

	recipe := model.Recipe{
		ResultItemID:     "ironingot",
		QuantityProduced: 1,
		Reagents: []model.ReagentSlot{
			{ItemID: "ironore", Quantity: 4},
			{ItemTypeID: fluxType, Quantity: 1},
		},
		SkillRequirements: []model.SkillRequirement{{SkillID: skillID, Level: 50}},
	}
	recipeID, err := s.InsertRecipe(ctx, recipe)
	require.NoError(t, err)
	assert.NotZero(t, recipeID)

	got, err := s.RecipesFor(ctx, "ironingot")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, recipeID, got[0].ID)
	assert.Equal(t, 1, got[0].QuantityProduced)
	require.Len(t, got[0].Reagents, 2)
	assert.Equal(t, "ironore", got[0].Reagents[0].ItemID)
	assert.Zero(t, got[0].Reagents[0].ItemTypeID)
	assert.Empty(t, got[0].Reagents[1].ItemID)
	assert.Equal(t, fluxType, got[0].Reagents[1].ItemTypeID)
	require.Len(t, got[0].SkillRequirements, 1)
	assert.Equal(t, 50, got[0].SkillRequirements[0].Level)

	craftable, err := s.RecipeResultItems(ctx)
	require.NoError(t, err)
	require.Len(t, craftable, 1)
	assert.Equal(t, "ironingot", craftable[0].ID)
}

func TestSQLiteStore_PlayerSkills(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	smelting, err := s.InsertSkill(ctx, "Smelting")
	require.NoError(t, err)
	weaving, err := s.InsertSkill(ctx, "Weaving")
	require.NoError(t, err)

	playerID, err := s.UpsertPlayer(ctx, model.Player{Name: "Artemis", ServerID: 7})
	require.NoError(t, err)
	require.NoError(t, s.SetPlayerSkill(ctx, playerID, smelting, 120))
	require.NoError(t, s.SetPlayerSkill(ctx, playerID, weaving, 40))
	require.NoError(t, s.SetPlayerSkill(ctx, playerID, weaving, 45))

	profile, err := s.PlayerSkills(ctx, playerID)
	require.NoError(t, err)
	assert.Equal(t, 120, profile.Level(smelting))
	assert.Equal(t, 45, profile.Level(weaving))
	assert.Equal(t, 0, profile.Level(999))

	// second upsert keeps the same player row
	again, err := s.UpsertPlayer(ctx, model.Player{Name: "Artemis", ServerID: 8})
	require.NoError(t, err)
	assert.Equal(t, playerID, again)
}

func TestSQLiteStore_ProfitableFlips(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	addPriced := func(id string, price, hbo float64, avail, qty int) {
		t.Helper()
		require.NoError(t, s.UpsertItem(ctx, model.Item{ID: id, Name: id}, nil))
		require.NoError(t, s.UpsertPrice(ctx, model.PriceQuote{
			ItemID: id, ServerID: 7, Price: price, Availability: avail,
			HighestBuyOrder: &hbo, Qty: &qty, LastUpdated: time.Now(),
		}))
	}

	addPriced("bigspread", 2.0, 1.0, 100, 10)    // 100% margin
	addPriced("smallspread", 1.1, 1.0, 500, 10)  // 10% margin, below cutoff
	addPriced("thinorder", 5.0, 0.05, 100, 10)   // buy order too small
	addPriced("scarce", 2.0, 1.0, 1, 10)         // availability too low
	addPriced("craftable", 3.0, 1.0, 100, 10)    // excluded: has a recipe
	addPriced("okspread", 1.5, 1.0, 1000, 10)    // 50% margin, huge availability

	_, err := s.InsertRecipe(ctx, model.Recipe{ResultItemID: "craftable", QuantityProduced: 1})
	require.NoError(t, err)

	flips, err := s.ProfitableFlips(ctx, 7)
	require.NoError(t, err)
	require.Len(t, flips, 2)
	// okspread: 1000 * 0.5 = 500 weighted; bigspread: 100 * 1.0 = 100
	assert.Equal(t, "okspread", flips[0].ItemID)
	assert.Equal(t, "bigspread", flips[1].ItemID)
	assert.Equal(t, 50.0, flips[0].Margin)
	assert.Equal(t, 100.0, flips[1].Margin)
}

func TestSQLiteStore_SaveEvaluation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := model.EvalRun{
		ID:        uuid.NewString(),
		ServerID:  7,
		PlayerID:  1,
		Strategy:  "availability",
		CreatedAt: time.Now(),
	}
	recs := []model.ProfitabilityRecord{
		{
			ItemID: "ironingot", ItemName: "Iron Ingot",
			MarketPrice: 10, CraftCost: 8, Profit: 2, Margin: 25,
			Availability: 100, Score: 200,
			Tree: model.CostTree{"ironore": {Cost: 0.5, Quantity: 4, Source: model.SourceMarket}},
		},
		{
			ItemID: "steelingot", ItemName: "Steel Ingot",
			MarketPrice: 20, CraftCost: 19, Profit: 1, Margin: 5.26,
			Availability: 50, Score: 50,
		},
	}
	require.NoError(t, s.SaveEvaluation(ctx, run, recs))

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM eval_results WHERE run_id = ?`, run.ID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var tree string
	err = s.db.QueryRowContext(ctx,
		`SELECT crafting_tree FROM eval_results WHERE run_id = ? AND rank = 1`, run.ID).Scan(&tree)
	require.NoError(t, err)
	assert.Contains(t, tree, "ironore")
}

// Package store persists the reference data the resolver consumes:
// items, recipes, prices, price history, and player skills. Two backends
// implement the same interface, SQLite for local use and Postgres for a
// shared database.
package store

import (
	"context"

	"github.com/millelog/new-world-profit-calculator/internal/model"
)

// Store is the persistence interface for the profit calculator. The
// read methods double as the resolver's price/recipe/candidate/skill
// sources.
type Store interface {
	// Items
	UpsertItem(ctx context.Context, item model.Item, typeIDs []int64) error
	Item(ctx context.Context, itemID string) (*model.Item, error)
	TrackedItems(ctx context.Context) ([]model.Item, error)
	InsertItemType(ctx context.Context, name string) (int64, error)
	CandidatesForType(ctx context.Context, itemTypeID, serverID int64) ([]model.Item, error)

	// Prices
	Price(ctx context.Context, itemID string, serverID int64) (*model.PriceQuote, error)
	UpsertPrice(ctx context.Context, q model.PriceQuote) error
	AddPriceLog(ctx context.Context, q model.PriceQuote) error
	PriceHistory(ctx context.Context, itemID string, serverID int64) ([]model.PriceSample, error)
	ReplacePriceHistory(ctx context.Context, itemID string, serverID int64, samples []model.PriceSample) error

	// Recipes
	InsertRecipe(ctx context.Context, r model.Recipe) (int64, error)
	RecipesFor(ctx context.Context, itemID string) ([]model.Recipe, error)
	RecipeResultItems(ctx context.Context) ([]model.Item, error)

	// Skills and players
	InsertSkill(ctx context.Context, name string) (int64, error)
	UpsertPlayer(ctx context.Context, p model.Player) (int64, error)
	SetPlayerSkill(ctx context.Context, playerID, skillID int64, level int) error
	PlayerSkills(ctx context.Context, playerID int64) (model.SkillProfile, error)

	// Flip scan
	ProfitableFlips(ctx context.Context, serverID int64) ([]model.FlipRecord, error)

	// Saved evaluations
	SaveEvaluation(ctx context.Context, run model.EvalRun, recs []model.ProfitabilityRecord) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

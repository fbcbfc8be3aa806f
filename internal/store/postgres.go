package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/millelog/new-world-profit-calculator/internal/db"
	"github.com/millelog/new-world-profit-calculator/internal/model"
)

// PostgresStore implements Store on top of a pgx pool.
type PostgresStore struct {
	pool db.Pool
}

func NewPostgres(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS items (
	item_id   TEXT PRIMARY KEY,
	item_name TEXT NOT NULL,
	market_id BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS item_types (
	item_type_id   BIGSERIAL PRIMARY KEY,
	item_type_name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS item_type_members (
	item_id      TEXT NOT NULL REFERENCES items(item_id),
	item_type_id BIGINT NOT NULL REFERENCES item_types(item_type_id),
	PRIMARY KEY (item_id, item_type_id)
);

CREATE TABLE IF NOT EXISTS current_prices (
	item_id           TEXT NOT NULL REFERENCES items(item_id),
	server_id         BIGINT NOT NULL,
	price             DOUBLE PRECISION NOT NULL,
	availability      INTEGER NOT NULL,
	highest_buy_order DOUBLE PRECISION,
	qty               INTEGER,
	last_updated      TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (item_id, server_id)
);

CREATE TABLE IF NOT EXISTS price_logs (
	log_id            BIGSERIAL PRIMARY KEY,
	item_id           TEXT NOT NULL REFERENCES items(item_id),
	server_id         BIGINT NOT NULL,
	price             DOUBLE PRECISION NOT NULL,
	availability      INTEGER NOT NULL,
	highest_buy_order DOUBLE PRECISION,
	qty               INTEGER,
	last_updated      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS price_samples (
	item_id      TEXT NOT NULL REFERENCES items(item_id),
	server_id    BIGINT NOT NULL,
	avg_avail    DOUBLE PRECISION NOT NULL,
	avg_price    DOUBLE PRECISION NOT NULL,
	lowest_price DOUBLE PRECISION NOT NULL,
	sampled_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (item_id, server_id, sampled_at)
);

CREATE TABLE IF NOT EXISTS crafting_recipes (
	recipe_id         BIGSERIAL PRIMARY KEY,
	result_item_id    TEXT NOT NULL REFERENCES items(item_id),
	quantity_produced INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS recipe_reagents (
	id                   BIGSERIAL PRIMARY KEY,
	recipe_id            BIGINT NOT NULL REFERENCES crafting_recipes(recipe_id),
	reagent_item_id      TEXT,
	reagent_item_type_id BIGINT,
	quantity_required    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trade_skills (
	skill_id   BIGSERIAL PRIMARY KEY,
	skill_name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS recipe_skill_requirements (
	recipe_id      BIGINT NOT NULL REFERENCES crafting_recipes(recipe_id),
	skill_id       BIGINT NOT NULL REFERENCES trade_skills(skill_id),
	level_required INTEGER NOT NULL,
	PRIMARY KEY (recipe_id, skill_id)
);

CREATE TABLE IF NOT EXISTS players (
	player_id   BIGSERIAL PRIMARY KEY,
	player_name TEXT NOT NULL UNIQUE,
	server_id   BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS player_skills (
	player_id   BIGINT NOT NULL REFERENCES players(player_id),
	skill_id    BIGINT NOT NULL REFERENCES trade_skills(skill_id),
	skill_level INTEGER NOT NULL,
	PRIMARY KEY (player_id, skill_id)
);

CREATE TABLE IF NOT EXISTS eval_runs (
	id         UUID PRIMARY KEY,
	server_id  BIGINT NOT NULL,
	player_id  BIGINT NOT NULL,
	strategy   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS eval_results (
	run_id        UUID NOT NULL REFERENCES eval_runs(id),
	rank          INTEGER NOT NULL,
	item_id       TEXT NOT NULL,
	market_price  DOUBLE PRECISION NOT NULL,
	crafting_cost DOUBLE PRECISION NOT NULL,
	profit        DOUBLE PRECISION NOT NULL,
	profit_margin DOUBLE PRECISION NOT NULL,
	availability  INTEGER NOT NULL,
	score         DOUBLE PRECISION NOT NULL,
	crafting_tree JSONB NOT NULL,
	PRIMARY KEY (run_id, rank)
);

CREATE INDEX IF NOT EXISTS idx_recipes_result_item ON crafting_recipes(result_item_id);
CREATE INDEX IF NOT EXISTS idx_reagents_recipe ON recipe_reagents(recipe_id);
CREATE INDEX IF NOT EXISTS idx_samples_item_server ON price_samples(item_id, server_id);
CREATE INDEX IF NOT EXISTS idx_type_members_type ON item_type_members(item_type_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertItem(ctx context.Context, item model.Item, typeIDs []int64) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO items (item_id, item_name, market_id) VALUES ($1, $2, $3)
		 ON CONFLICT (item_id) DO UPDATE SET item_name = EXCLUDED.item_name, market_id = EXCLUDED.market_id`,
		item.ID, item.Name, item.MarketID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert item %s", item.ID)
	}
	for _, typeID := range typeIDs {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO item_type_members (item_id, item_type_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			item.ID, typeID,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: tag item %s with type %d", item.ID, typeID)
		}
	}
	return nil
}

func (s *PostgresStore) Item(ctx context.Context, itemID string) (*model.Item, error) {
	var item model.Item
	err := s.pool.QueryRow(ctx,
		`SELECT item_id, item_name, market_id FROM items WHERE item_id = $1`, itemID,
	).Scan(&item.ID, &item.Name, &item.MarketID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get item %s", itemID)
	}
	return &item, nil
}

func (s *PostgresStore) TrackedItems(ctx context.Context) ([]model.Item, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT item_id, item_name, market_id FROM items WHERE market_id != 0 ORDER BY item_id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tracked items")
	}
	defer rows.Close()
	return scanPgItems(rows)
}

func (s *PostgresStore) InsertItemType(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO item_types (item_type_name) VALUES ($1) RETURNING item_type_id`, name,
	).Scan(&id)
	return id, eris.Wrapf(err, "postgres: insert item type %s", name)
}

func (s *PostgresStore) CandidatesForType(ctx context.Context, itemTypeID, serverID int64) ([]model.Item, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT i.item_id, i.item_name, i.market_id
		 FROM items i
		 JOIN item_type_members m ON m.item_id = i.item_id
		 WHERE m.item_type_id = $1
		 ORDER BY i.item_id`,
		itemTypeID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: candidates for type %d", itemTypeID)
	}
	defer rows.Close()
	return scanPgItems(rows)
}

func (s *PostgresStore) Price(ctx context.Context, itemID string, serverID int64) (*model.PriceQuote, error) {
	var q model.PriceQuote
	err := s.pool.QueryRow(ctx,
		`SELECT item_id, server_id, price, availability, highest_buy_order, qty, last_updated
		 FROM current_prices WHERE item_id = $1 AND server_id = $2`,
		itemID, serverID,
	).Scan(&q.ItemID, &q.ServerID, &q.Price, &q.Availability, &q.HighestBuyOrder, &q.Qty, &q.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: price for %s", itemID)
	}
	return &q, nil
}

func (s *PostgresStore) UpsertPrice(ctx context.Context, q model.PriceQuote) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO current_prices (item_id, server_id, price, availability, highest_buy_order, qty, last_updated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (item_id, server_id) DO UPDATE SET
			price = EXCLUDED.price,
			availability = EXCLUDED.availability,
			highest_buy_order = EXCLUDED.highest_buy_order,
			qty = EXCLUDED.qty,
			last_updated = EXCLUDED.last_updated`,
		q.ItemID, q.ServerID, q.Price, q.Availability, q.HighestBuyOrder, q.Qty, q.LastUpdated,
	)
	return eris.Wrapf(err, "postgres: upsert price %s", q.ItemID)
}

func (s *PostgresStore) AddPriceLog(ctx context.Context, q model.PriceQuote) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO price_logs (item_id, server_id, price, availability, highest_buy_order, qty, last_updated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		q.ItemID, q.ServerID, q.Price, q.Availability, q.HighestBuyOrder, q.Qty, q.LastUpdated,
	)
	return eris.Wrapf(err, "postgres: log price %s", q.ItemID)
}

func (s *PostgresStore) PriceHistory(ctx context.Context, itemID string, serverID int64) ([]model.PriceSample, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT avg_avail, avg_price, lowest_price, sampled_at
		 FROM price_samples WHERE item_id = $1 AND server_id = $2
		 ORDER BY sampled_at`,
		itemID, serverID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: history for %s", itemID)
	}
	defer rows.Close()

	var samples []model.PriceSample
	for rows.Next() {
		var sm model.PriceSample
		if err := rows.Scan(&sm.AvgAvailability, &sm.AvgPrice, &sm.LowestPrice, &sm.SampledAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan sample")
		}
		samples = append(samples, sm)
	}
	return samples, eris.Wrap(rows.Err(), "postgres: iterate samples")
}

func (s *PostgresStore) ReplacePriceHistory(ctx context.Context, itemID string, serverID int64, samples []model.PriceSample) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`DELETE FROM price_samples WHERE item_id = $1 AND server_id = $2`, itemID, serverID); err != nil {
		return eris.Wrapf(err, "postgres: clear history %s", itemID)
	}
	for _, sm := range samples {
		if _, err := tx.Exec(ctx,
			`INSERT INTO price_samples (item_id, server_id, avg_avail, avg_price, lowest_price, sampled_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			itemID, serverID, sm.AvgAvailability, sm.AvgPrice, sm.LowestPrice, sm.SampledAt,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert sample %s", itemID)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit history")
}

func (s *PostgresStore) InsertRecipe(ctx context.Context, r model.Recipe) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var recipeID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO crafting_recipes (result_item_id, quantity_produced) VALUES ($1, $2) RETURNING recipe_id`,
		r.ResultItemID, r.QuantityProduced,
	).Scan(&recipeID)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: insert recipe for %s", r.ResultItemID)
	}

	for _, slot := range r.Reagents {
		var itemID, typeID any
		if slot.ItemID != "" {
			itemID = slot.ItemID
		}
		if slot.ItemTypeID != 0 {
			typeID = slot.ItemTypeID
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO recipe_reagents (recipe_id, reagent_item_id, reagent_item_type_id, quantity_required)
			 VALUES ($1, $2, $3, $4)`,
			recipeID, itemID, typeID, slot.Quantity,
		); err != nil {
			return 0, eris.Wrapf(err, "postgres: insert reagent for recipe %d", recipeID)
		}
	}
	for _, req := range r.SkillRequirements {
		if _, err := tx.Exec(ctx,
			`INSERT INTO recipe_skill_requirements (recipe_id, skill_id, level_required) VALUES ($1, $2, $3)`,
			recipeID, req.SkillID, req.Level,
		); err != nil {
			return 0, eris.Wrapf(err, "postgres: insert skill requirement for recipe %d", recipeID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit recipe")
	}
	return recipeID, nil
}

func (s *PostgresStore) RecipesFor(ctx context.Context, itemID string) ([]model.Recipe, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT recipe_id, result_item_id, quantity_produced
		 FROM crafting_recipes WHERE result_item_id = $1 ORDER BY recipe_id`,
		itemID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: recipes for %s", itemID)
	}

	var recipes []model.Recipe
	for rows.Next() {
		var r model.Recipe
		if err := rows.Scan(&r.ID, &r.ResultItemID, &r.QuantityProduced); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "postgres: scan recipe")
		}
		recipes = append(recipes, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate recipes")
	}

	for i := range recipes {
		if err := s.loadRecipeDetails(ctx, &recipes[i]); err != nil {
			return nil, err
		}
	}
	return recipes, nil
}

func (s *PostgresStore) loadRecipeDetails(ctx context.Context, r *model.Recipe) error {
	rows, err := s.pool.Query(ctx,
		`SELECT reagent_item_id, reagent_item_type_id, quantity_required
		 FROM recipe_reagents WHERE recipe_id = $1 ORDER BY id`,
		r.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: reagents for recipe %d", r.ID)
	}
	for rows.Next() {
		var itemID *string
		var typeID *int64
		var slot model.ReagentSlot
		if err := rows.Scan(&itemID, &typeID, &slot.Quantity); err != nil {
			rows.Close()
			return eris.Wrap(err, "postgres: scan reagent")
		}
		if itemID != nil {
			slot.ItemID = *itemID
		}
		if typeID != nil {
			slot.ItemTypeID = *typeID
		}
		r.Reagents = append(r.Reagents, slot)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return eris.Wrap(err, "postgres: iterate reagents")
	}

	reqRows, err := s.pool.Query(ctx,
		`SELECT skill_id, level_required FROM recipe_skill_requirements WHERE recipe_id = $1 ORDER BY skill_id`,
		r.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: skill requirements for recipe %d", r.ID)
	}
	defer reqRows.Close()

	for reqRows.Next() {
		var req model.SkillRequirement
		if err := reqRows.Scan(&req.SkillID, &req.Level); err != nil {
			return eris.Wrap(err, "postgres: scan skill requirement")
		}
		r.SkillRequirements = append(r.SkillRequirements, req)
	}
	return eris.Wrap(reqRows.Err(), "postgres: iterate skill requirements")
}

func (s *PostgresStore) RecipeResultItems(ctx context.Context) ([]model.Item, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT i.item_id, i.item_name, i.market_id
		 FROM items i
		 JOIN crafting_recipes r ON r.result_item_id = i.item_id
		 ORDER BY i.item_id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list craftable items")
	}
	defer rows.Close()
	return scanPgItems(rows)
}

func (s *PostgresStore) InsertSkill(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO trade_skills (skill_name) VALUES ($1) RETURNING skill_id`, name,
	).Scan(&id)
	return id, eris.Wrapf(err, "postgres: insert skill %s", name)
}

func (s *PostgresStore) UpsertPlayer(ctx context.Context, p model.Player) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO players (player_name, server_id) VALUES ($1, $2)
		 ON CONFLICT (player_name) DO UPDATE SET server_id = EXCLUDED.server_id
		 RETURNING player_id`,
		p.Name, p.ServerID,
	).Scan(&id)
	return id, eris.Wrapf(err, "postgres: upsert player %s", p.Name)
}

func (s *PostgresStore) SetPlayerSkill(ctx context.Context, playerID, skillID int64, level int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO player_skills (player_id, skill_id, skill_level) VALUES ($1, $2, $3)
		 ON CONFLICT (player_id, skill_id) DO UPDATE SET skill_level = EXCLUDED.skill_level`,
		playerID, skillID, level,
	)
	return eris.Wrapf(err, "postgres: set skill %d for player %d", skillID, playerID)
}

func (s *PostgresStore) PlayerSkills(ctx context.Context, playerID int64) (model.SkillProfile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT skill_id, skill_level FROM player_skills WHERE player_id = $1`, playerID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: skills for player %d", playerID)
	}
	defer rows.Close()

	profile := model.SkillProfile{}
	for rows.Next() {
		var skillID int64
		var level int
		if err := rows.Scan(&skillID, &level); err != nil {
			return nil, eris.Wrap(err, "postgres: scan player skill")
		}
		profile[skillID] = level
	}
	return profile, eris.Wrap(rows.Err(), "postgres: iterate player skills")
}

func (s *PostgresStore) ProfitableFlips(ctx context.Context, serverID int64) ([]model.FlipRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT i.item_id, i.item_name, p.price, p.highest_buy_order, p.availability, p.qty,
			p.availability * (p.price - p.highest_buy_order) AS potential_profit,
			ROUND(((p.price - p.highest_buy_order) / p.highest_buy_order * 100)::numeric, 2) AS profit_margin
		 FROM current_prices p
		 JOIN items i ON i.item_id = p.item_id
		 LEFT JOIN crafting_recipes r ON r.result_item_id = p.item_id
		 WHERE p.server_id = $1
		   AND p.availability > 1
		   AND p.qty > 1
		   AND p.highest_buy_order IS NOT NULL
		   AND p.highest_buy_order > 0.1
		   AND p.price > p.highest_buy_order * 1.20
		   AND r.recipe_id IS NULL
		 ORDER BY ROUND((p.availability * ((p.price - p.highest_buy_order) / p.highest_buy_order))::numeric, 2) DESC,
			p.availability DESC`,
		serverID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: flip scan")
	}
	defer rows.Close()

	var flips []model.FlipRecord
	for rows.Next() {
		var f model.FlipRecord
		if err := rows.Scan(&f.ItemID, &f.ItemName, &f.Price, &f.HighestBuyOrder,
			&f.Availability, &f.Qty, &f.PotentialProfit, &f.Margin); err != nil {
			return nil, eris.Wrap(err, "postgres: scan flip")
		}
		flips = append(flips, f)
	}
	return flips, eris.Wrap(rows.Err(), "postgres: iterate flips")
}

func (s *PostgresStore) SaveEvaluation(ctx context.Context, run model.EvalRun, recs []model.ProfitabilityRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`INSERT INTO eval_runs (id, server_id, player_id, strategy, created_at) VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.ServerID, run.PlayerID, run.Strategy, run.CreatedAt,
	); err != nil {
		return eris.Wrapf(err, "postgres: insert run %s", run.ID)
	}

	for rank, rec := range recs {
		treeJSON, err := json.Marshal(rec.Tree)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal tree for %s", rec.ItemID)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO eval_results (run_id, rank, item_id, market_price, crafting_cost, profit, profit_margin, availability, score, crafting_tree)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			run.ID, rank+1, rec.ItemID, rec.MarketPrice, rec.CraftCost, rec.Profit,
			rec.Margin, rec.Availability, rec.Score, treeJSON,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert result %s", rec.ItemID)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit evaluation")
}

func scanPgItems(rows pgx.Rows) ([]model.Item, error) {
	var items []model.Item
	for rows.Next() {
		var item model.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.MarketID); err != nil {
			return nil, eris.Wrap(err, "postgres: scan item")
		}
		items = append(items, item)
	}
	return items, eris.Wrap(rows.Err(), "postgres: iterate items")
}

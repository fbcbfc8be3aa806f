package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/millelog/new-world-profit-calculator/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS items (
	item_id   TEXT PRIMARY KEY,
	item_name TEXT NOT NULL,
	market_id INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS item_types (
	item_type_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	item_type_name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS item_type_members (
	item_id      TEXT NOT NULL REFERENCES items(item_id),
	item_type_id INTEGER NOT NULL REFERENCES item_types(item_type_id),
	PRIMARY KEY (item_id, item_type_id)
);

CREATE TABLE IF NOT EXISTS current_prices (
	item_id           TEXT NOT NULL REFERENCES items(item_id),
	server_id         INTEGER NOT NULL,
	price             REAL NOT NULL,
	availability      INTEGER NOT NULL,
	highest_buy_order REAL,
	qty               INTEGER,
	last_updated      DATETIME NOT NULL,
	PRIMARY KEY (item_id, server_id)
);

CREATE TABLE IF NOT EXISTS price_logs (
	log_id            INTEGER PRIMARY KEY AUTOINCREMENT,
	item_id           TEXT NOT NULL REFERENCES items(item_id),
	server_id         INTEGER NOT NULL,
	price             REAL NOT NULL,
	availability      INTEGER NOT NULL,
	highest_buy_order REAL,
	qty               INTEGER,
	last_updated      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS price_samples (
	item_id      TEXT NOT NULL REFERENCES items(item_id),
	server_id    INTEGER NOT NULL,
	avg_avail    REAL NOT NULL,
	avg_price    REAL NOT NULL,
	lowest_price REAL NOT NULL,
	sampled_at   DATETIME NOT NULL,
	PRIMARY KEY (item_id, server_id, sampled_at)
);

CREATE TABLE IF NOT EXISTS crafting_recipes (
	recipe_id         INTEGER PRIMARY KEY AUTOINCREMENT,
	result_item_id    TEXT NOT NULL REFERENCES items(item_id),
	quantity_produced INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS recipe_reagents (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	recipe_id            INTEGER NOT NULL REFERENCES crafting_recipes(recipe_id),
	reagent_item_id      TEXT,
	reagent_item_type_id INTEGER,
	quantity_required    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trade_skills (
	skill_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	skill_name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS recipe_skill_requirements (
	recipe_id      INTEGER NOT NULL REFERENCES crafting_recipes(recipe_id),
	skill_id       INTEGER NOT NULL REFERENCES trade_skills(skill_id),
	level_required INTEGER NOT NULL,
	PRIMARY KEY (recipe_id, skill_id)
);

CREATE TABLE IF NOT EXISTS players (
	player_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	player_name TEXT NOT NULL UNIQUE,
	server_id   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS player_skills (
	player_id   INTEGER NOT NULL REFERENCES players(player_id),
	skill_id    INTEGER NOT NULL REFERENCES trade_skills(skill_id),
	skill_level INTEGER NOT NULL,
	PRIMARY KEY (player_id, skill_id)
);

CREATE TABLE IF NOT EXISTS eval_runs (
	id         TEXT PRIMARY KEY,
	server_id  INTEGER NOT NULL,
	player_id  INTEGER NOT NULL,
	strategy   TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS eval_results (
	run_id        TEXT NOT NULL REFERENCES eval_runs(id),
	rank          INTEGER NOT NULL,
	item_id       TEXT NOT NULL,
	market_price  REAL NOT NULL,
	crafting_cost REAL NOT NULL,
	profit        REAL NOT NULL,
	profit_margin REAL NOT NULL,
	availability  INTEGER NOT NULL,
	score         REAL NOT NULL,
	crafting_tree TEXT NOT NULL,
	PRIMARY KEY (run_id, rank)
);

CREATE INDEX IF NOT EXISTS idx_recipes_result_item ON crafting_recipes(result_item_id);
CREATE INDEX IF NOT EXISTS idx_reagents_recipe ON recipe_reagents(recipe_id);
CREATE INDEX IF NOT EXISTS idx_samples_item_server ON price_samples(item_id, server_id);
CREATE INDEX IF NOT EXISTS idx_type_members_type ON item_type_members(item_type_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertItem(ctx context.Context, item model.Item, typeIDs []int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items (item_id, item_name, market_id) VALUES (?, ?, ?)
		 ON CONFLICT(item_id) DO UPDATE SET item_name = excluded.item_name, market_id = excluded.market_id`,
		item.ID, item.Name, item.MarketID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: upsert item %s", item.ID)
	}
	for _, typeID := range typeIDs {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO item_type_members (item_id, item_type_id) VALUES (?, ?)`,
			item.ID, typeID,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: tag item %s with type %d", item.ID, typeID)
		}
	}
	return nil
}

func (s *SQLiteStore) Item(ctx context.Context, itemID string) (*model.Item, error) {
	var item model.Item
	err := s.db.QueryRowContext(ctx,
		`SELECT item_id, item_name, market_id FROM items WHERE item_id = ?`, itemID,
	).Scan(&item.ID, &item.Name, &item.MarketID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get item %s", itemID)
	}
	return &item, nil
}

// TrackedItems returns items carrying a market linkage id, the set the
// refresh pass fetches history for.
func (s *SQLiteStore) TrackedItems(ctx context.Context) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT item_id, item_name, market_id FROM items WHERE market_id != 0 ORDER BY item_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tracked items")
	}
	defer rows.Close() //nolint:errcheck
	return scanItems(rows)
}

func (s *SQLiteStore) InsertItemType(ctx context.Context, name string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO item_types (item_type_name) VALUES (?)`, name)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: insert item type %s", name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: item type id")
	}
	return id, nil
}

func (s *SQLiteStore) CandidatesForType(ctx context.Context, itemTypeID, serverID int64) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT i.item_id, i.item_name, i.market_id
		 FROM items i
		 JOIN item_type_members m ON m.item_id = i.item_id
		 WHERE m.item_type_id = ?
		 ORDER BY i.item_id`,
		itemTypeID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: candidates for type %d", itemTypeID)
	}
	defer rows.Close() //nolint:errcheck
	return scanItems(rows)
}

func (s *SQLiteStore) Price(ctx context.Context, itemID string, serverID int64) (*model.PriceQuote, error) {
	var q model.PriceQuote
	err := s.db.QueryRowContext(ctx,
		`SELECT item_id, server_id, price, availability, highest_buy_order, qty, last_updated
		 FROM current_prices WHERE item_id = ? AND server_id = ?`,
		itemID, serverID,
	).Scan(&q.ItemID, &q.ServerID, &q.Price, &q.Availability, &q.HighestBuyOrder, &q.Qty, &q.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: price for %s", itemID)
	}
	return &q, nil
}

func (s *SQLiteStore) UpsertPrice(ctx context.Context, q model.PriceQuote) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO current_prices (item_id, server_id, price, availability, highest_buy_order, qty, last_updated)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(item_id, server_id) DO UPDATE SET
			price = excluded.price,
			availability = excluded.availability,
			highest_buy_order = excluded.highest_buy_order,
			qty = excluded.qty,
			last_updated = excluded.last_updated`,
		q.ItemID, q.ServerID, q.Price, q.Availability, q.HighestBuyOrder, q.Qty, q.LastUpdated.UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert price %s", q.ItemID)
}

func (s *SQLiteStore) AddPriceLog(ctx context.Context, q model.PriceQuote) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO price_logs (item_id, server_id, price, availability, highest_buy_order, qty, last_updated)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.ItemID, q.ServerID, q.Price, q.Availability, q.HighestBuyOrder, q.Qty, q.LastUpdated.UTC(),
	)
	return eris.Wrapf(err, "sqlite: log price %s", q.ItemID)
}

func (s *SQLiteStore) PriceHistory(ctx context.Context, itemID string, serverID int64) ([]model.PriceSample, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT avg_avail, avg_price, lowest_price, sampled_at
		 FROM price_samples WHERE item_id = ? AND server_id = ?
		 ORDER BY sampled_at`,
		itemID, serverID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: history for %s", itemID)
	}
	defer rows.Close() //nolint:errcheck

	var samples []model.PriceSample
	for rows.Next() {
		var sm model.PriceSample
		if err := rows.Scan(&sm.AvgAvailability, &sm.AvgPrice, &sm.LowestPrice, &sm.SampledAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan sample")
		}
		samples = append(samples, sm)
	}
	return samples, eris.Wrap(rows.Err(), "sqlite: iterate samples")
}

func (s *SQLiteStore) ReplacePriceHistory(ctx context.Context, itemID string, serverID int64, samples []model.PriceSample) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM price_samples WHERE item_id = ? AND server_id = ?`, itemID, serverID); err != nil {
		return eris.Wrapf(err, "sqlite: clear history %s", itemID)
	}
	for _, sm := range samples {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO price_samples (item_id, server_id, avg_avail, avg_price, lowest_price, sampled_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			itemID, serverID, sm.AvgAvailability, sm.AvgPrice, sm.LowestPrice, sm.SampledAt.UTC(),
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert sample %s", itemID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit history")
}

func (s *SQLiteStore) InsertRecipe(ctx context.Context, r model.Recipe) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`INSERT INTO crafting_recipes (result_item_id, quantity_produced) VALUES (?, ?)`,
		r.ResultItemID, r.QuantityProduced,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: insert recipe for %s", r.ResultItemID)
	}
	recipeID, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: recipe id")
	}

	for _, slot := range r.Reagents {
		var itemID, typeID any
		if slot.ItemID != "" {
			itemID = slot.ItemID
		}
		if slot.ItemTypeID != 0 {
			typeID = slot.ItemTypeID
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_reagents (recipe_id, reagent_item_id, reagent_item_type_id, quantity_required)
			 VALUES (?, ?, ?, ?)`,
			recipeID, itemID, typeID, slot.Quantity,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert reagent for recipe %d", recipeID)
		}
	}
	for _, req := range r.SkillRequirements {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_skill_requirements (recipe_id, skill_id, level_required) VALUES (?, ?, ?)`,
			recipeID, req.SkillID, req.Level,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert skill requirement for recipe %d", recipeID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit recipe")
	}
	return recipeID, nil
}

func (s *SQLiteStore) RecipesFor(ctx context.Context, itemID string) ([]model.Recipe, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT recipe_id, result_item_id, quantity_produced
		 FROM crafting_recipes WHERE result_item_id = ? ORDER BY recipe_id`,
		itemID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: recipes for %s", itemID)
	}
	defer rows.Close() //nolint:errcheck

	var recipes []model.Recipe
	for rows.Next() {
		var r model.Recipe
		if err := rows.Scan(&r.ID, &r.ResultItemID, &r.QuantityProduced); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan recipe")
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate recipes")
	}

	for i := range recipes {
		if err := s.loadRecipeDetails(ctx, &recipes[i]); err != nil {
			return nil, err
		}
	}
	return recipes, nil
}

func (s *SQLiteStore) loadRecipeDetails(ctx context.Context, r *model.Recipe) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT reagent_item_id, reagent_item_type_id, quantity_required
		 FROM recipe_reagents WHERE recipe_id = ? ORDER BY id`,
		r.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: reagents for recipe %d", r.ID)
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var itemID sql.NullString
		var typeID sql.NullInt64
		var slot model.ReagentSlot
		if err := rows.Scan(&itemID, &typeID, &slot.Quantity); err != nil {
			return eris.Wrap(err, "sqlite: scan reagent")
		}
		slot.ItemID = itemID.String
		slot.ItemTypeID = typeID.Int64
		r.Reagents = append(r.Reagents, slot)
	}
	if err := rows.Err(); err != nil {
		return eris.Wrap(err, "sqlite: iterate reagents")
	}

	reqRows, err := s.db.QueryContext(ctx,
		`SELECT skill_id, level_required FROM recipe_skill_requirements WHERE recipe_id = ? ORDER BY skill_id`,
		r.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: skill requirements for recipe %d", r.ID)
	}
	defer reqRows.Close() //nolint:errcheck

	for reqRows.Next() {
		var req model.SkillRequirement
		if err := reqRows.Scan(&req.SkillID, &req.Level); err != nil {
			return eris.Wrap(err, "sqlite: scan skill requirement")
		}
		r.SkillRequirements = append(r.SkillRequirements, req)
	}
	return eris.Wrap(reqRows.Err(), "sqlite: iterate skill requirements")
}

func (s *SQLiteStore) RecipeResultItems(ctx context.Context) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT i.item_id, i.item_name, i.market_id
		 FROM items i
		 JOIN crafting_recipes r ON r.result_item_id = i.item_id
		 ORDER BY i.item_id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list craftable items")
	}
	defer rows.Close() //nolint:errcheck
	return scanItems(rows)
}

func (s *SQLiteStore) InsertSkill(ctx context.Context, name string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO trade_skills (skill_name) VALUES (?)`, name)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: insert skill %s", name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: skill id")
	}
	return id, nil
}

func (s *SQLiteStore) UpsertPlayer(ctx context.Context, p model.Player) (int64, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO players (player_name, server_id) VALUES (?, ?)
		 ON CONFLICT(player_name) DO UPDATE SET server_id = excluded.server_id`,
		p.Name, p.ServerID,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: upsert player %s", p.Name)
	}
	var id int64
	err = s.db.QueryRowContext(ctx,
		`SELECT player_id FROM players WHERE player_name = ?`, p.Name).Scan(&id)
	return id, eris.Wrapf(err, "sqlite: player id %s", p.Name)
}

func (s *SQLiteStore) SetPlayerSkill(ctx context.Context, playerID, skillID int64, level int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO player_skills (player_id, skill_id, skill_level) VALUES (?, ?, ?)
		 ON CONFLICT(player_id, skill_id) DO UPDATE SET skill_level = excluded.skill_level`,
		playerID, skillID, level,
	)
	return eris.Wrapf(err, "sqlite: set skill %d for player %d", skillID, playerID)
}

func (s *SQLiteStore) PlayerSkills(ctx context.Context, playerID int64) (model.SkillProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT skill_id, skill_level FROM player_skills WHERE player_id = ?`, playerID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: skills for player %d", playerID)
	}
	defer rows.Close() //nolint:errcheck

	profile := model.SkillProfile{}
	for rows.Next() {
		var skillID int64
		var level int
		if err := rows.Scan(&skillID, &level); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan player skill")
		}
		profile[skillID] = level
	}
	return profile, eris.Wrap(rows.Err(), "sqlite: iterate player skills")
}

// ProfitableFlips finds uncraftable items whose sell price beats the
// highest buy order by more than 20%, ordered by availability-weighted
// margin.
func (s *SQLiteStore) ProfitableFlips(ctx context.Context, serverID int64) ([]model.FlipRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT i.item_id, i.item_name, p.price, p.highest_buy_order, p.availability, p.qty,
			p.availability * (p.price - p.highest_buy_order) AS potential_profit,
			ROUND((p.price - p.highest_buy_order) / p.highest_buy_order * 100, 2) AS profit_margin
		 FROM current_prices p
		 JOIN items i ON i.item_id = p.item_id
		 LEFT JOIN crafting_recipes r ON r.result_item_id = p.item_id
		 WHERE p.server_id = ?
		   AND p.availability > 1
		   AND p.qty > 1
		   AND p.highest_buy_order IS NOT NULL
		   AND p.highest_buy_order > 0.1
		   AND p.price > p.highest_buy_order * 1.20
		   AND r.recipe_id IS NULL
		 ORDER BY ROUND(p.availability * ((p.price - p.highest_buy_order) / p.highest_buy_order), 2) DESC,
			p.availability DESC`,
		serverID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: flip scan")
	}
	defer rows.Close() //nolint:errcheck

	var flips []model.FlipRecord
	for rows.Next() {
		var f model.FlipRecord
		if err := rows.Scan(&f.ItemID, &f.ItemName, &f.Price, &f.HighestBuyOrder,
			&f.Availability, &f.Qty, &f.PotentialProfit, &f.Margin); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan flip")
		}
		flips = append(flips, f)
	}
	return flips, eris.Wrap(rows.Err(), "sqlite: iterate flips")
}

func (s *SQLiteStore) SaveEvaluation(ctx context.Context, run model.EvalRun, recs []model.ProfitabilityRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO eval_runs (id, server_id, player_id, strategy, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.ServerID, run.PlayerID, run.Strategy, run.CreatedAt.UTC(),
	); err != nil {
		return eris.Wrapf(err, "sqlite: insert run %s", run.ID)
	}

	for rank, rec := range recs {
		treeJSON, err := json.Marshal(rec.Tree)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal tree for %s", rec.ItemID)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO eval_results (run_id, rank, item_id, market_price, crafting_cost, profit, profit_margin, availability, score, crafting_tree)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, rank+1, rec.ItemID, rec.MarketPrice, rec.CraftCost, rec.Profit,
			rec.Margin, rec.Availability, rec.Score, string(treeJSON),
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert result %s", rec.ItemID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit evaluation")
}

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	var items []model.Item
	for rows.Next() {
		var item model.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.MarketID); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan item")
		}
		items = append(items, item)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: iterate items")
}

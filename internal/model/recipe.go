package model

// Recipe produces one result item. Multiple recipes may produce the same
// item; each one is an alternative crafting path.
type Recipe struct {
	ID               int64              `json:"recipe_id"`
	ResultItemID     string             `json:"result_item_id"`
	QuantityProduced int                `json:"quantity_produced"`
	Reagents         []ReagentSlot      `json:"reagents"`
	SkillRequirements []SkillRequirement `json:"skill_requirements,omitempty"`
}

// Valid reports whether the recipe carries usable data. Invalid recipes
// are skipped during resolution, never evaluated.
func (r Recipe) Valid() bool {
	if r.QuantityProduced < 1 || len(r.Reagents) == 0 {
		return false
	}
	for _, slot := range r.Reagents {
		if !slot.Valid() {
			return false
		}
	}
	return true
}

// ReagentSlot is one input requirement of a recipe: either a fixed item
// or any item carrying a type tag. Exactly one of ItemID and ItemTypeID
// is set.
type ReagentSlot struct {
	ItemID     string `json:"reagent_item_id,omitempty"`
	ItemTypeID int64  `json:"reagent_item_type_id,omitempty"`
	Quantity   int    `json:"quantity_required"`
}

// Valid reports whether the slot has exactly one reagent reference and a
// positive quantity.
func (s ReagentSlot) Valid() bool {
	if s.Quantity < 1 {
		return false
	}
	hasItem := s.ItemID != ""
	hasType := s.ItemTypeID != 0
	return hasItem != hasType
}

// SkillRequirement gates a recipe behind a minimum trade-skill level.
type SkillRequirement struct {
	SkillID int64 `json:"skill_id"`
	Level   int   `json:"level_required"`
}

// TradeSkill is a named crafting profession.
type TradeSkill struct {
	ID   int64  `json:"skill_id"`
	Name string `json:"skill_name"`
}

// SkillProfile maps skill id to a player's current level. Missing skills
// count as level 0.
type SkillProfile map[int64]int

// Level returns the profile's level for a skill, 0 when untrained.
func (p SkillProfile) Level(skillID int64) int {
	return p[skillID]
}

// Player is a tracked character on one server.
type Player struct {
	ID       int64  `json:"player_id"`
	Name     string `json:"player_name"`
	ServerID int64  `json:"server_id"`
}

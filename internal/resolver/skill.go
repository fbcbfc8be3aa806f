package resolver

import "github.com/millelog/new-world-profit-calculator/internal/model"

// CanCraft reports whether the profile meets every skill requirement of
// the recipe. A recipe with no requirements is always craftable.
func CanCraft(profile model.SkillProfile, recipe model.Recipe) bool {
	for _, req := range recipe.SkillRequirements {
		if profile.Level(req.SkillID) < req.Level {
			return false
		}
	}
	return true
}

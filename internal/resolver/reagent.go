package resolver

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/millelog/new-world-profit-calculator/internal/model"
)

// resolveReagent picks the concrete item to satisfy a reagent slot.
// Concrete slots are honored unconditionally, even when the item was
// already claimed by an earlier slot in the same recipe. Type slots pick
// the cheapest candidate not yet in used; unknown prices sort last and
// ties break on item id so substitution is deterministic. An empty
// result means no candidate remains and the recipe is infeasible.
func (e *evaluation) resolveReagent(ctx context.Context, slot model.ReagentSlot, used map[string]struct{}) (string, error) {
	if slot.ItemID != "" {
		return slot.ItemID, nil
	}

	items, err := e.candidates.CandidatesForType(ctx, slot.ItemTypeID, e.serverID)
	if err != nil {
		return "", eris.Wrapf(err, "resolver: candidates for type %d", slot.ItemTypeID)
	}

	type priced struct {
		id    string
		price float64
	}
	var pool []priced
	for _, item := range items {
		if _, taken := used[item.ID]; taken {
			continue
		}
		price, err := e.marketPrice(ctx, item.ID)
		if err != nil {
			return "", err
		}
		pool = append(pool, priced{id: item.ID, price: price})
	}
	if len(pool) == 0 {
		return "", nil
	}

	sort.Slice(pool, func(i, j int) bool {
		if pool[i].price != pool[j].price {
			return pool[i].price < pool[j].price
		}
		return pool[i].id < pool[j].id
	})
	return pool[0].id, nil
}

// Package profit runs the full profitability pass: resolve every
// craftable item's acquisition cost, score it, and rank the results.
package profit

import (
	"github.com/rotisserie/eris"

	"github.com/millelog/new-world-profit-calculator/internal/model"
)

// Strategy turns evaluated records into comparable scores. Strategies
// see the whole batch so they may normalize across items.
type Strategy interface {
	Name() string
	Score(recs []model.ProfitabilityRecord) []float64
}

// NewStrategy resolves a strategy by configured name.
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case "", "availability":
		return AvailabilityWeighted{}, nil
	case "composite":
		return NormalizedComposite{}, nil
	default:
		return nil, eris.Errorf("profit: unknown strategy %q", name)
	}
}

// AvailabilityWeighted is the default strategy: profit weighted by
// market availability, zeroed whenever the margin is negative so
// unprofitable items always rank at the bottom.
type AvailabilityWeighted struct{}

func (AvailabilityWeighted) Name() string { return "availability" }

func (AvailabilityWeighted) Score(recs []model.ProfitabilityRecord) []float64 {
	scores := make([]float64, len(recs))
	for i, r := range recs {
		if r.Margin < 0 {
			continue
		}
		scores[i] = r.Profit * float64(r.Availability)
	}
	return scores
}

// NormalizedComposite multiplies profit, margin, and availability after
// normalizing each to 0-100 across the batch. Favors items that do well
// on all three axes at once.
type NormalizedComposite struct{}

func (NormalizedComposite) Name() string { return "composite" }

func (NormalizedComposite) Score(recs []model.ProfitabilityRecord) []float64 {
	profits := make([]float64, len(recs))
	margins := make([]float64, len(recs))
	avails := make([]float64, len(recs))
	for i, r := range recs {
		profits[i] = r.Profit
		margins[i] = r.Margin
		avails[i] = float64(r.Availability)
	}

	np := normalize(profits)
	nm := normalize(margins)
	na := normalize(avails)

	scores := make([]float64, len(recs))
	for i := range recs {
		scores[i] = np[i] * nm[i] * na[i]
	}
	return scores
}

// normalize rescales values to 0-100 by their position in the batch
// range. A flat batch maps the maximum to 100 and the rest to 0.
func normalize(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	out := make([]float64, len(values))
	if maxV == minV {
		for i, v := range values {
			if v == maxV {
				out[i] = 100
			}
		}
		return out
	}
	for i, v := range values {
		out[i] = (v - minV) / (maxV - minV) * 100
	}
	return out
}

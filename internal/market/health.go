// Package market derives activity and trend signals from an item's
// price/availability history.
package market

import (
	"math"

	"github.com/millelog/new-world-profit-calculator/internal/model"
)

// Derivative returns the successive differences of the series, one
// element shorter than the input; empty when the series has fewer than
// two points.
func Derivative(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}
	out := make([]float64, len(series)-1)
	for i := range out {
		out[i] = series[i+1] - series[i]
	}
	return out
}

// IsActive reports whether trading looks alive. A market is inactive
// when, for any tracked field, more than half of its derivative values
// are exactly zero — stagnant listings that never move.
func IsActive(derivatives map[string][]float64) bool {
	for _, values := range derivatives {
		zeros := 0
		for _, v := range values {
			if v == 0 {
				zeros++
			}
		}
		if float64(zeros) > float64(len(values))/2 {
			return false
		}
	}
	return true
}

// TrendSignal scores 0-4 how favorable the series looks for a seller.
// One point each for: net-decreasing availability, net-decreasing lowest
// price while availability sits below its mean, a lowest-price inflection
// (last derivative pair flipping negative to positive), and current
// availability below the series mean. Fewer than two samples score 0.
func TrendSignal(samples []model.PriceSample) int {
	if len(samples) < 2 {
		return 0
	}

	avails := make([]float64, len(samples))
	lowest := make([]float64, len(samples))
	for i, s := range samples {
		avails[i] = s.AvgAvailability
		lowest[i] = s.LowestPrice
	}

	availDerivs := Derivative(avails)
	priceDerivs := Derivative(lowest)
	meanAvail := mean(avails)
	current := avails[len(avails)-1]
	belowMean := current < meanAvail

	signal := 0
	if sum(availDerivs) < 0 {
		signal++
	}
	if sum(priceDerivs) < 0 && belowMean {
		signal++
	}
	if n := len(priceDerivs); n >= 2 && priceDerivs[n-2] < 0 && priceDerivs[n-1] > 0 {
		signal++
	}
	if belowMean {
		signal++
	}
	return signal
}

// MeanAvailability averages the availability samples with deliberate
// coarse bucketing: means above 10 round to the nearest 10, the rest to
// the nearest integer. Keeps noise from over-ranking thin markets.
func MeanAvailability(samples []model.PriceSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range samples {
		total += s.AvgAvailability
	}
	m := total / float64(len(samples))
	if m > 10 {
		return math.Round(m/10) * 10
	}
	return math.Round(m)
}

// Analyze classifies one item's history. An empty series yields an
// active market with zero signals, leaving ranking to price data alone.
func Analyze(samples []model.PriceSample) model.MarketHealth {
	avails := make([]float64, len(samples))
	lowest := make([]float64, len(samples))
	for i, s := range samples {
		avails[i] = s.AvgAvailability
		lowest[i] = s.LowestPrice
	}

	return model.MarketHealth{
		Active: IsActive(map[string][]float64{
			"avg_avail":    Derivative(avails),
			"lowest_price": Derivative(lowest),
		}),
		TrendSignal:      TrendSignal(samples),
		MeanAvailability: MeanAvailability(samples),
		Samples:          len(samples),
	}
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range vs {
		total += v
	}
	return total / float64(len(vs))
}

func sum(vs []float64) float64 {
	total := 0.0
	for _, v := range vs {
		total += v
	}
	return total
}

package utils

import (
	"math"
	"math/rand"
	"time"
)

// RoundCents rounds to two decimal places, the currency precision used
// throughout the ledger.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// UniformRange draws uniformly from [min, max).
func UniformRange(r *rand.Rand, min, max float64) float64 {
	return min + r.Float64()*(max-min)
}

// WeightedIndex picks an index by cumulative probability over weights.
// Returns -1 when the total weight is not positive or the draw falls past
// the cumulative sum (weights that do not sum to 1); callers choose their
// own fallback for that case.
func WeightedIndex(r *rand.Rand, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	draw := r.Float64()
	cumulative := 0.0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cumulative += w
		if draw < cumulative {
			return i
		}
	}
	return -1
}

// MinutesSinceMonthStart returns the wall-clock minutes elapsed since the
// first instant of t's month, floored at 1 so utilization never divides by
// zero right after a reset.
func MinutesSinceMonthStart(t time.Time) float64 {
	monthStart := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	minutes := t.Sub(monthStart).Minutes()
	if minutes < 1 {
		return 1
	}
	return minutes
}

package optim

import (
	"math"
	"sort"

	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/floats"
)

// SchedFn maps the training position in [0, 1] to a hyperparameter value.
type SchedFn func(pos float64) float64

// SchedNo returns a constant schedule.
func SchedNo(start float64) SchedFn {
	return func(float64) float64 { return start }
}

// SchedLin interpolates linearly from start to end.
func SchedLin(start, end float64) SchedFn {
	return func(pos float64) float64 { return start + pos*(end-start) }
}

// SchedCos follows half a cosine period from start to end.
func SchedCos(start, end float64) SchedFn {
	return func(pos float64) float64 {
		return start + (1+math.Cos(math.Pi*(1-pos)))*(end-start)/2
	}
}

// SchedExp interpolates geometrically from start to end. Both must be positive.
func SchedExp(start, end float64) SchedFn {
	return func(pos float64) float64 { return start * math.Pow(end/start, pos) }
}

// CombineScheds chains schedules: scheds[i] runs over a pcts[i] share of
// training, seeing its own position rescaled to [0, 1].
//
// pcts must be positive and sum to 1.
//
// Example, one-cycle learning rate:
//
//	sched := optim.CombineScheds([]float64{0.3, 0.7},
//	    []optim.SchedFn{optim.SchedCos(0.3, 0.6), optim.SchedCos(0.6, 0.2)})
func CombineScheds(pcts []float64, scheds []SchedFn) SchedFn {
	if len(pcts) != len(scheds) || len(pcts) == 0 {
		exceptions.Panicf("CombineScheds: %d percentages for %d schedules", len(pcts), len(scheds))
	}
	if floats.Min(pcts) <= 0 {
		exceptions.Panicf("CombineScheds: percentages must be positive, got %v", pcts)
	}
	if sum := floats.Sum(pcts); math.Abs(sum-1) > 1e-9 {
		exceptions.Panicf("CombineScheds: percentages must sum to 1, got %g", sum)
	}
	bounds := make([]float64, len(pcts)+1)
	floats.CumSum(bounds[1:], pcts)

	return func(pos float64) float64 {
		pos = min(max(pos, 0), 1)
		// Last bound whose start is <= pos.
		idx := sort.SearchFloat64s(bounds, pos)
		if idx == len(bounds) || bounds[idx] > pos {
			idx--
		}
		idx = min(max(idx, 0), len(scheds)-1)
		actual := (pos - bounds[idx]) / (bounds[idx+1] - bounds[idx])
		return scheds[idx](actual)
	}
}

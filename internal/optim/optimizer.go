// Package optim implements the optimizers that turn accumulated parameter
// gradients into parameter updates.
//
// This package provides:
//   - Optimizer interface: Step and ZeroGrad
//   - SGD: vanilla gradient descent with a fixed learning rate
//   - DynamicOpt: gradient descent reading a mutable Hypers map every step
//   - StatelessOpt: parameter groups, per-group Hypers and composable steppers
//   - StatefulOpt: StatelessOpt plus per-parameter running statistics
//   - NewAdam, NewLAMB, NewMomentumSGD: stateful presets
//   - Schedules: SchedLin, SchedCos, SchedExp, SchedNo, CombineScheds
//
// Example usage:
//
//	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.01})
//
//	for each batch {
//	    pred := model.Forward(x)
//	    loss := criterion.Forward(pred, y)
//	    criterion.Backward()
//	    model.Backward()
//	    opt.Step()
//	    opt.ZeroGrad()
//	}
//
// Parameters without a gradient (those that did not take part in the last
// backward pass) are skipped by every optimizer.
package optim

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/born-ml/fitloop/internal/nn"
	"github.com/gomlx/exceptions"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies the accumulated gradients to the parameters, in place.
	Step()

	// ZeroGrad clears all parameter gradients.
	//
	// Gradients accumulate across backward passes, so this must run between
	// two steps.
	ZeroGrad()
}

// HyperOptimizer is implemented by optimizers whose hyperparameters can be
// changed between steps (schedulers, learning rate search).
//
// HyperGroups returns the live per-group maps: writes are seen by the next Step.
type HyperOptimizer interface {
	Optimizer
	HyperGroups() []Hypers
}

// Names of the hyperparameters used by the provided steppers and stats.
const (
	LearningRate = "learning_rate"
	Mom          = "mom"
	SqrMom       = "sqr_mom"
	WeightDecay  = "weight_decay"
	Eps          = "eps"
)

// defaultEps is used by AdamStep and LAMBStep when Eps is not set.
const defaultEps = 1e-5

// Hypers is a named set of hyperparameters, shared by a parameter group.
type Hypers map[string]float64

// Must returns the named hyperparameter and panics if it is not set.
func (h Hypers) Must(name string) float64 {
	v, found := h[name]
	if !found {
		exceptions.Panicf("optim: required hyperparameter %q is not set (have %v)", name, h.Names())
	}
	return v
}

// Get returns the named hyperparameter, or def if it is not set.
func (h Hypers) Get(name string, def float64) float64 {
	if v, found := h[name]; found {
		return v
	}
	return def
}

// Clone returns an independent copy.
func (h Hypers) Clone() Hypers {
	return maps.Clone(h)
}

// Names returns the sorted hyperparameter names.
func (h Hypers) Names() []string {
	return slices.Sorted(maps.Keys(h))
}

// zeroGrad resets the gradients of every parameter in every group.
func zeroGrad(groups [][]*nn.Parameter) {
	for _, group := range groups {
		for _, p := range group {
			p.ZeroGrad()
		}
	}
}

// typeNames lists the short type names of the given values, for String methods.
func typeNames[T any](values []T) string {
	names := make([]string, len(values))
	for i, v := range values {
		name := fmt.Sprintf("%T", v)
		names[i] = name[strings.LastIndexAny(name, ".*")+1:]
	}
	return "[" + strings.Join(names, " ") + "]"
}

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/fitloop/internal/nn"
	"github.com/born-ml/fitloop/internal/optim"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// HyperOptimizer is an Optimizer whose hyperparameters can change between steps.
type HyperOptimizer = optim.HyperOptimizer

// Hypers is a named set of hyperparameters shared by a parameter group.
type Hypers = optim.Hypers

// Hyperparameter names used by the provided steppers and stats.
const (
	LearningRate = optim.LearningRate
	Mom          = optim.Mom
	SqrMom       = optim.SqrMom
	WeightDecay  = optim.WeightDecay
	Eps          = optim.Eps
)

// SGD (Stochastic Gradient Descent)

// SGD represents vanilla gradient descent with a fixed learning rate.
type SGD = optim.SGD

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	model := nn.NewLinear(784, 10, true)
//	optimizer := optim.NewSGD(model.Parameters(), 0.1)
func NewSGD(params []*nn.Parameter, lr float64) *SGD {
	return optim.NewSGD(params, lr)
}

// DynamicOpt is SGD reading the learning rate from its Hypers at every step.
type DynamicOpt = optim.DynamicOpt

// NewDynamicOpt creates a DynamicOpt. hypers must hold LearningRate.
func NewDynamicOpt(params []*nn.Parameter, hypers Hypers) *DynamicOpt {
	return optim.NewDynamicOpt(params, hypers)
}

// Composable optimizers

// Stepper updates a parameter in place from its gradient.
type Stepper = optim.Stepper

// Stat maintains a running statistic of a parameter.
type Stat = optim.Stat

// State holds the running statistics of one parameter.
type State = optim.State

// Provided steppers and stats.
type (
	SGDStep            = optim.SGDStep
	L2Reg              = optim.L2Reg
	MomentumStep       = optim.MomentumStep
	AdamStep           = optim.AdamStep
	LAMBStep           = optim.LAMBStep
	WeightedSumGrad    = optim.WeightedSumGrad
	ExpWeightedGrad    = optim.ExpWeightedGrad
	ExpWeightedSqrGrad = optim.ExpWeightedSqrGrad
	StepCount          = optim.StepCount
)

// StatelessOpt chains steppers over parameter groups.
type StatelessOpt = optim.StatelessOpt

// NewStatelessOpt creates a StatelessOpt with a single parameter group.
// With no steppers, SGDStep is used.
func NewStatelessOpt(params []*nn.Parameter, steppers []Stepper, hypers Hypers) *StatelessOpt {
	return optim.NewStatelessOpt(params, steppers, hypers)
}

// NewStatelessOptGroups creates a StatelessOpt with one Hypers copy per group.
func NewStatelessOptGroups(groups [][]*nn.Parameter, steppers []Stepper, hypers Hypers) *StatelessOpt {
	return optim.NewStatelessOptGroups(groups, steppers, hypers)
}

// StatefulOpt updates running statistics before applying its steppers.
type StatefulOpt = optim.StatefulOpt

// NewStatefulOpt creates a StatefulOpt with a single parameter group.
func NewStatefulOpt(params []*nn.Parameter, steppers []Stepper, stats []Stat, hypers Hypers) *StatefulOpt {
	return optim.NewStatefulOpt(params, steppers, stats, hypers)
}

// NewStatefulOptGroups creates a StatefulOpt with one Hypers copy per group.
func NewStatefulOptGroups(groups [][]*nn.Parameter, steppers []Stepper, stats []Stat, hypers Hypers) *StatefulOpt {
	return optim.NewStatefulOptGroups(groups, steppers, stats, hypers)
}

// MomentumConfig contains configuration for SGD with momentum.
type MomentumConfig = optim.MomentumConfig

// NewMomentumSGD creates SGD with momentum and L2 regularization.
func NewMomentumSGD(params []*nn.Parameter, config MomentumConfig) *StatefulOpt {
	return optim.NewMomentumSGD(params, config)
}

// Adam (Adaptive Moment Estimation)

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer with bias correction.
//
// Example:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{
//	    LR:    0.001,
//	    Beta1: 0.9,
//	    Beta2: 0.99,
//	})
func NewAdam(params []*nn.Parameter, config AdamConfig) *StatefulOpt {
	return optim.NewAdam(params, config)
}

// LAMBConfig contains configuration for the LAMB optimizer.
type LAMBConfig = optim.LAMBConfig

// NewLAMB creates Adam with a layer-wise trust ratio.
func NewLAMB(params []*nn.Parameter, config LAMBConfig) *StatefulOpt {
	return optim.NewLAMB(params, config)
}

// Debias returns the bias correction of an exponential average.
func Debias(mom, damp float64, step int) float64 {
	return optim.Debias(mom, damp, step)
}

// Schedules

// SchedFn maps a position in [0, 1] to a hyperparameter value.
type SchedFn = optim.SchedFn

// SchedNo always returns start.
func SchedNo(start float64) SchedFn { return optim.SchedNo(start) }

// SchedLin interpolates linearly from start to end.
func SchedLin(start, end float64) SchedFn { return optim.SchedLin(start, end) }

// SchedCos follows half a cosine from start to end.
func SchedCos(start, end float64) SchedFn { return optim.SchedCos(start, end) }

// SchedExp interpolates geometrically from start to end.
func SchedExp(start, end float64) SchedFn { return optim.SchedExp(start, end) }

// CombineScheds runs scheds one after another, each one over its share of
// pcts.
//
// Example:
//
//	// Warm up over 30% of the pass, then anneal.
//	sched := optim.CombineScheds(
//	    []float64{0.3, 0.7},
//	    []optim.SchedFn{optim.SchedCos(0.3, 0.6), optim.SchedCos(0.6, 0.2)},
//	)
func CombineScheds(pcts []float64, scheds []SchedFn) SchedFn {
	return optim.CombineScheds(pcts, scheds)
}

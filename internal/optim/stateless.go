package optim

import (
	"fmt"

	"github.com/born-ml/fitloop/internal/nn"
)

// Stepper is one stage of a parameter update. Steppers run in order for each
// parameter and mutate its data (or its gradient) in place.
//
// st is nil for stateless optimizers.
type Stepper interface {
	Step(p *nn.Parameter, hp Hypers, st *State)
}

// StatelessOpt applies an ordered list of steppers to every parameter, with a
// separate Hypers map per parameter group.
//
// Example:
//
//	opt := optim.NewStatelessOpt(model.Parameters(),
//	    []optim.Stepper{optim.L2Reg{}, optim.SGDStep{}},
//	    optim.Hypers{optim.LearningRate: 0.1, optim.WeightDecay: 1e-4})
type StatelessOpt struct {
	groups   [][]*nn.Parameter
	hypers   []Hypers
	steppers []Stepper
}

// NewStatelessOpt creates a StatelessOpt over a single parameter group.
// steppers defaults to [SGDStep].
func NewStatelessOpt(params []*nn.Parameter, steppers []Stepper, hypers Hypers) *StatelessOpt {
	return NewStatelessOptGroups([][]*nn.Parameter{params}, steppers, hypers)
}

// NewStatelessOptGroups creates a StatelessOpt over several parameter groups;
// each group starts with its own copy of hypers.
func NewStatelessOptGroups(groups [][]*nn.Parameter, steppers []Stepper, hypers Hypers) *StatelessOpt {
	if steppers == nil {
		steppers = []Stepper{SGDStep{}}
	}
	return &StatelessOpt{
		groups:   groups,
		hypers:   cloneHypers(hypers, len(groups)),
		steppers: steppers,
	}
}

// Step runs the steppers over every parameter that has a gradient.
func (o *StatelessOpt) Step() {
	for i, group := range o.groups {
		hp := o.hypers[i]
		for _, p := range group {
			if p.Grad() == nil {
				continue
			}
			for _, s := range o.steppers {
				s.Step(p, hp, nil)
			}
		}
	}
}

// ZeroGrad clears gradients for all parameters.
func (o *StatelessOpt) ZeroGrad() {
	zeroGrad(o.groups)
}

// HyperGroups implements HyperOptimizer.
func (o *StatelessOpt) HyperGroups() []Hypers {
	return o.hypers
}

func (o *StatelessOpt) String() string {
	return fmt.Sprintf("(StatelessOpt) steppers: %s", typeNames(o.steppers))
}

func cloneHypers(hypers Hypers, n int) []Hypers {
	out := make([]Hypers, n)
	for i := range out {
		out[i] = hypers.Clone()
		if out[i] == nil {
			out[i] = Hypers{}
		}
	}
	return out
}

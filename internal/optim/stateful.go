package optim

import (
	"fmt"

	"github.com/born-ml/fitloop/internal/nn"
	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/mat"
)

// State holds the running statistics of one parameter.
//
// Fields are filled by the Stats registered with the optimizer; a field no
// Stat maintains stays at its zero value.
type State struct {
	Step       int        // StepCount
	AvgGrad    *mat.Dense // WeightedSumGrad, ExpWeightedGrad
	SqrAvgGrad *mat.Dense // ExpWeightedSqrGrad
	DampMom    float64    // ExpWeightedGrad
	SqrDampMom float64    // ExpWeightedSqrGrad
}

// mustHave panics unless st exists and tracks every given statistic.
func mustHave(stepper string, st *State, stats ...func(*State) *mat.Dense) {
	if st == nil {
		exceptions.Panicf("%s: needs per-parameter state, use it with a StatefulOpt", stepper)
	}
	for _, get := range stats {
		if get(st) == nil {
			exceptions.Panicf("%s: a required running statistic is not tracked, check the optimizer stats", stepper)
		}
	}
}

func avgGrad(st *State) *mat.Dense    { return st.AvgGrad }
func sqrAvgGrad(st *State) *mat.Dense { return st.SqrAvgGrad }

// Stat maintains one running statistic of a parameter.
//
// Init runs once, the first time the parameter has a gradient. Update runs
// at every step, before the steppers, in registration order.
type Stat interface {
	Init(p *nn.Parameter, st *State)
	Update(p *nn.Parameter, st *State, hp Hypers)
}

// WeightedSumGrad tracks avg_grad = mom*avg_grad + (1-mom)*grad.
//
// Hypers: Mom.
type WeightedSumGrad struct{}

// Init implements Stat.
func (WeightedSumGrad) Init(p *nn.Parameter, st *State) {
	st.AvgGrad = zerosLike(p.Grad())
}

// Update implements Stat.
func (WeightedSumGrad) Update(p *nn.Parameter, st *State, hp Hypers) {
	mom := hp.Must(Mom)
	var g mat.Dense
	g.Scale(1-mom, p.Grad())
	st.AvgGrad.Scale(mom, st.AvgGrad)
	st.AvgGrad.Add(st.AvgGrad, &g)
}

// ExpWeightedGrad tracks avg_grad = mom*avg_grad + damp*grad, where damp is
// 1-mom with Dampening and 1 without.
//
// Hypers: Mom.
type ExpWeightedGrad struct {
	Dampening bool
}

// Init implements Stat.
func (ExpWeightedGrad) Init(p *nn.Parameter, st *State) {
	st.AvgGrad = zerosLike(p.Grad())
}

// Update implements Stat.
func (s ExpWeightedGrad) Update(p *nn.Parameter, st *State, hp Hypers) {
	mom := hp.Must(Mom)
	st.DampMom = 1
	if s.Dampening {
		st.DampMom = 1 - mom
	}
	var g mat.Dense
	g.Scale(st.DampMom, p.Grad())
	st.AvgGrad.Scale(mom, st.AvgGrad)
	st.AvgGrad.Add(st.AvgGrad, &g)
}

// ExpWeightedSqrGrad tracks sqr_avg_grad = sqr_mom*sqr_avg_grad + damp*grad²,
// where damp is 1-sqr_mom with Dampening and 1 without.
//
// Hypers: SqrMom.
type ExpWeightedSqrGrad struct {
	Dampening bool
}

// Init implements Stat.
func (ExpWeightedSqrGrad) Init(p *nn.Parameter, st *State) {
	st.SqrAvgGrad = zerosLike(p.Grad())
}

// Update implements Stat.
func (s ExpWeightedSqrGrad) Update(p *nn.Parameter, st *State, hp Hypers) {
	sqrMom := hp.Must(SqrMom)
	st.SqrDampMom = 1
	if s.Dampening {
		st.SqrDampMom = 1 - sqrMom
	}
	var g2 mat.Dense
	g2.MulElem(p.Grad(), p.Grad())
	g2.Scale(st.SqrDampMom, &g2)
	st.SqrAvgGrad.Scale(sqrMom, st.SqrAvgGrad)
	st.SqrAvgGrad.Add(st.SqrAvgGrad, &g2)
}

// StepCount counts the steps taken by a parameter. Register it before any
// stepper that debiases, since steppers read the already incremented count.
type StepCount struct{}

// Init implements Stat.
func (StepCount) Init(_ *nn.Parameter, st *State) {
	st.Step = 0
}

// Update implements Stat.
func (StepCount) Update(_ *nn.Parameter, st *State, _ Hypers) {
	st.Step++
}

// StatefulOpt is a StatelessOpt that also keeps running statistics per
// parameter.
//
// For every parameter with a gradient, Step:
//  1. creates its State on first sight (every Stat's Init),
//  2. updates each Stat in order,
//  3. runs each Stepper in order with the updated State.
//
// Parameters without a gradient are skipped and their State left untouched.
type StatefulOpt struct {
	groups   [][]*nn.Parameter
	hypers   []Hypers
	steppers []Stepper
	stats    []Stat
	state    map[*nn.Parameter]*State
}

// NewStatefulOpt creates a StatefulOpt over a single parameter group.
// steppers defaults to [SGDStep].
func NewStatefulOpt(params []*nn.Parameter, steppers []Stepper, stats []Stat, hypers Hypers) *StatefulOpt {
	return NewStatefulOptGroups([][]*nn.Parameter{params}, steppers, stats, hypers)
}

// NewStatefulOptGroups creates a StatefulOpt over several parameter groups;
// each group starts with its own copy of hypers.
func NewStatefulOptGroups(groups [][]*nn.Parameter, steppers []Stepper, stats []Stat, hypers Hypers) *StatefulOpt {
	if steppers == nil {
		steppers = []Stepper{SGDStep{}}
	}
	return &StatefulOpt{
		groups:   groups,
		hypers:   cloneHypers(hypers, len(groups)),
		steppers: steppers,
		stats:    stats,
		state:    make(map[*nn.Parameter]*State),
	}
}

// Step updates the statistics and runs the steppers for every parameter
// that has a gradient.
func (o *StatefulOpt) Step() {
	for i, group := range o.groups {
		hp := o.hypers[i]
		for _, p := range group {
			if p.Grad() == nil {
				continue
			}
			st, found := o.state[p]
			if !found {
				st = &State{}
				for _, s := range o.stats {
					s.Init(p, st)
				}
				o.state[p] = st
			}
			for _, s := range o.stats {
				s.Update(p, st, hp)
			}
			for _, s := range o.steppers {
				s.Step(p, hp, st)
			}
		}
	}
}

// ZeroGrad clears gradients for all parameters.
func (o *StatefulOpt) ZeroGrad() {
	zeroGrad(o.groups)
}

// HyperGroups implements HyperOptimizer.
func (o *StatefulOpt) HyperGroups() []Hypers {
	return o.hypers
}

// StateOf returns the running statistics of p, if it has taken a step.
func (o *StatefulOpt) StateOf(p *nn.Parameter) (*State, bool) {
	st, found := o.state[p]
	return st, found
}

func (o *StatefulOpt) String() string {
	return fmt.Sprintf("(StatefulOpt) steppers: %s, stats: %s", typeNames(o.steppers), typeNames(o.stats))
}

func zerosLike(m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	return mat.NewDense(r, c, nil)
}

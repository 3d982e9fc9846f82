package optim

import (
	"fmt"

	"github.com/born-ml/fitloop/internal/nn"
	"gonum.org/v1/gonum/mat"
)

// SGD implements vanilla Stochastic Gradient Descent.
//
// Update rule:
//
//	param = param - lr * gradient
//
// The learning rate is fixed at construction; use DynamicOpt or StatelessOpt
// for scheduling.
type SGD struct {
	params []*nn.Parameter
	lr     float64
}

// NewSGD creates a vanilla SGD optimizer.
func NewSGD(params []*nn.Parameter, lr float64) *SGD {
	return &SGD{params: params, lr: lr}
}

// Step applies param -= lr * grad to every parameter with a gradient.
func (s *SGD) Step() {
	for _, p := range s.params {
		p.Step(s.lr)
	}
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD) ZeroGrad() {
	for _, p := range s.params {
		p.ZeroGrad()
	}
}

// LR returns the learning rate.
func (s *SGD) LR() float64 {
	return s.lr
}

func (s *SGD) String() string {
	return fmt.Sprintf("(Optimizer) learning_rate: %g", s.lr)
}

// DynamicOpt is gradient descent whose learning rate is read from a shared
// Hypers map at every step, so it can be changed between steps.
type DynamicOpt struct {
	params []*nn.Parameter
	hypers Hypers
}

// NewDynamicOpt creates a DynamicOpt. hypers must define LearningRate by the
// time Step is called.
func NewDynamicOpt(params []*nn.Parameter, hypers Hypers) *DynamicOpt {
	if hypers == nil {
		hypers = Hypers{}
	}
	return &DynamicOpt{params: params, hypers: hypers}
}

// Step applies param -= hypers[LearningRate] * grad.
func (d *DynamicOpt) Step() {
	lr := d.hypers.Must(LearningRate)
	for _, p := range d.params {
		p.Step(lr)
	}
}

// ZeroGrad clears gradients for all parameters.
func (d *DynamicOpt) ZeroGrad() {
	for _, p := range d.params {
		p.ZeroGrad()
	}
}

// Hypers returns the live hyperparameter map.
func (d *DynamicOpt) Hypers() Hypers {
	return d.hypers
}

// HyperGroups implements HyperOptimizer with a single group.
func (d *DynamicOpt) HyperGroups() []Hypers {
	return []Hypers{d.hypers}
}

func (d *DynamicOpt) String() string {
	return fmt.Sprintf("(DynamicOpt) hyper_params: %v", d.hypers.Names())
}

// SGDStep applies param -= lr * grad.
//
// Hypers: LearningRate.
type SGDStep struct{}

// Step implements Stepper.
func (SGDStep) Step(p *nn.Parameter, hp Hypers, _ *State) {
	p.Step(hp.Must(LearningRate))
}

// L2Reg adds weight decay to the gradient: grad += wd * param.
//
// Hypers: WeightDecay.
type L2Reg struct{}

// Step implements Stepper.
func (L2Reg) Step(p *nn.Parameter, hp Hypers, _ *State) {
	wd := hp.Must(WeightDecay)
	if wd == 0 {
		return
	}
	var decay mat.Dense
	decay.Scale(wd, p.Data())
	p.Grad().Add(p.Grad(), &decay)
}

// MomentumStep applies param -= lr * avg_grad, with avg_grad maintained by
// WeightedSumGrad or ExpWeightedGrad.
//
// Hypers: LearningRate.
type MomentumStep struct{}

// Step implements Stepper.
func (MomentumStep) Step(p *nn.Parameter, hp Hypers, st *State) {
	mustHave("MomentumStep", st, avgGrad)
	var delta mat.Dense
	delta.Scale(hp.Must(LearningRate), st.AvgGrad)
	p.Data().Sub(p.Data(), &delta)
}

// MomentumConfig holds configuration for NewMomentumSGD.
type MomentumConfig struct {
	LR          float64 // Learning rate (default: 0.01)
	Momentum    float64 // Weight of the previous average (default: 0.9)
	WeightDecay float64 // L2 penalty (default: 0)
}

// NewMomentumSGD creates SGD with momentum as a StatefulOpt:
// steppers [MomentumStep, L2Reg], stats [WeightedSumGrad].
func NewMomentumSGD(params []*nn.Parameter, config MomentumConfig) *StatefulOpt {
	if config.LR == 0 {
		config.LR = 0.01
	}
	if config.Momentum == 0 {
		config.Momentum = 0.9
	}
	return NewStatefulOpt(params,
		[]Stepper{MomentumStep{}, L2Reg{}},
		[]Stat{WeightedSumGrad{}},
		Hypers{LearningRate: config.LR, Mom: config.Momentum, WeightDecay: config.WeightDecay})
}

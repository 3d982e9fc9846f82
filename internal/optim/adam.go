package optim

import (
	"math"

	"github.com/born-ml/fitloop/internal/nn"
	"github.com/born-ml/fitloop/internal/tensor"
	"gonum.org/v1/gonum/mat"
)

// Debias returns the correction for a moving average started at zero:
//
//	damp * (1 - mom^step) / (1 - mom)
//
// With dampening (damp = 1-mom) it reduces to the usual 1 - mom^step.
func Debias(mom, damp float64, step int) float64 {
	return damp * (1 - math.Pow(mom, float64(step))) / (1 - mom)
}

// AdamStep implements the Adam (Adaptive Moment Estimation) update.
//
// Update rule:
//
//	debias1 = Debias(mom, damp_mom, step)
//	debias2 = Debias(sqr_mom, sqr_damp_mom, step)
//	param   = param - lr/debias1 * avg_grad / (sqrt(sqr_avg_grad/debias2) + eps)
//
// Needs ExpWeightedGrad, ExpWeightedSqrGrad and StepCount.
//
// Hypers: LearningRate, Mom, SqrMom, Eps (default 1e-5).
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type AdamStep struct{}

// Step implements Stepper.
func (AdamStep) Step(p *nn.Parameter, hp Hypers, st *State) {
	mustHave("AdamStep", st, avgGrad, sqrAvgGrad)
	lr := hp.Must(LearningRate)
	eps := hp.Get(Eps, defaultEps)
	debias1 := Debias(hp.Must(Mom), st.DampMom, st.Step)
	debias2 := Debias(hp.Must(SqrMom), st.SqrDampMom, st.Step)

	data := p.Data()
	data.Apply(func(i, j int, v float64) float64 {
		denom := math.Sqrt(st.SqrAvgGrad.At(i, j)/debias2) + eps
		return v - lr/debias1*st.AvgGrad.At(i, j)/denom
	}, data)
}

// AdamConfig holds configuration for the Adam optimizer.
type AdamConfig struct {
	LR          float64 // Learning rate (default: 0.001)
	Beta1       float64 // Momentum of the gradient average (default: 0.9)
	Beta2       float64 // Momentum of the squared gradient average (default: 0.99)
	Eps         float64 // Term for numerical stability (default: 1e-5)
	WeightDecay float64 // L2 penalty (default: 0)
}

func (c *AdamConfig) setDefaults() {
	if c.LR == 0 {
		c.LR = 0.001
	}
	if c.Beta1 == 0 {
		c.Beta1 = 0.9
	}
	if c.Beta2 == 0 {
		c.Beta2 = 0.99
	}
	if c.Eps == 0 {
		c.Eps = defaultEps
	}
}

func (c AdamConfig) hypers() Hypers {
	return Hypers{
		LearningRate: c.LR,
		Mom:          c.Beta1,
		SqrMom:       c.Beta2,
		Eps:          c.Eps,
		WeightDecay:  c.WeightDecay,
	}
}

// adamStats are the running statistics shared by Adam and LAMB. StepCount
// comes last so the debiasing sees the current step.
func adamStats() []Stat {
	return []Stat{ExpWeightedGrad{Dampening: true}, ExpWeightedSqrGrad{Dampening: true}, StepCount{}}
}

// NewAdam creates an Adam optimizer:
// steppers [AdamStep, L2Reg], stats [ExpWeightedGrad, ExpWeightedSqrGrad, StepCount],
// both averages dampened.
//
// Example:
//
//	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.01})
func NewAdam(params []*nn.Parameter, config AdamConfig) *StatefulOpt {
	config.setDefaults()
	return NewStatefulOpt(params, []Stepper{AdamStep{}, L2Reg{}}, adamStats(), config.hypers())
}

// maxTrustRatio bounds the LAMB layer-wise scaling.
const maxTrustRatio = 10

// LAMBStep implements the LAMB (Layer-wise Adaptive Moments) update.
//
//	step  = (avg_grad/debias1) / (sqrt(sqr_avg_grad/debias2) + eps) + wd*param
//	trust = min(rms(param) / rms(step), 10)
//	param = param - lr * trust * step
//
// When either RMS is zero the trust ratio is 1.
//
// Hypers: LearningRate, Mom, SqrMom, WeightDecay, Eps (default 1e-5).
type LAMBStep struct{}

// Step implements Stepper.
func (LAMBStep) Step(p *nn.Parameter, hp Hypers, st *State) {
	mustHave("LAMBStep", st, avgGrad, sqrAvgGrad)
	lr := hp.Must(LearningRate)
	wd := hp.Must(WeightDecay)
	eps := hp.Get(Eps, defaultEps)
	debias1 := Debias(hp.Must(Mom), st.DampMom, st.Step)
	debias2 := Debias(hp.Must(SqrMom), st.SqrDampMom, st.Step)

	data := p.Data()
	r, c := data.Dims()
	step := mat.NewDense(r, c, nil)
	step.Apply(func(i, j int, v float64) float64 {
		ratio := (st.AvgGrad.At(i, j) / debias1) / (math.Sqrt(st.SqrAvgGrad.At(i, j)/debias2) + eps)
		return ratio + wd*v
	}, data)

	trust := TrustRatio(tensor.RMS(data), tensor.RMS(step))
	step.Scale(lr*trust, step)
	data.Sub(data, step)
}

// TrustRatio returns min(r1/r2, 10), or 1 when either norm is zero.
func TrustRatio(r1, r2 float64) float64 {
	if r1 == 0 || r2 == 0 {
		return 1
	}
	return min(r1/r2, maxTrustRatio)
}

// LAMBConfig holds configuration for the LAMB optimizer.
type LAMBConfig struct {
	LR          float64 // Learning rate (default: 0.001)
	Beta1       float64 // Momentum of the gradient average (default: 0.9)
	Beta2       float64 // Momentum of the squared gradient average (default: 0.99)
	Eps         float64 // Term for numerical stability (default: 1e-5)
	WeightDecay float64 // Decoupled weight decay (default: 0)
}

// NewLAMB creates a LAMB optimizer: steppers [LAMBStep] with the Adam stats.
func NewLAMB(params []*nn.Parameter, config LAMBConfig) *StatefulOpt {
	adamConfig := AdamConfig(config)
	adamConfig.setDefaults()
	return NewStatefulOpt(params, []Stepper{LAMBStep{}}, adamStats(), adamConfig.hypers())
}

package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/fitloop/internal/tensor"
	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// BatchNormConfig holds configuration for BatchNorm.
type BatchNormConfig struct {
	Momentum float64 // Weight of the running statistic in its update (default: 0.1)
	Epsilon  float64 // Variance stabilizer (default: 1e-6)
}

// BatchNorm normalizes each feature over the batch and applies a learned
// affine transform.
//
// Training mode:
//
//	mean, var = batch statistics per feature (unbiased variance)
//	x_hat     = (x - mean) / sqrt(var + eps)
//	y         = gamma * x_hat + beta
//	running   = momentum*running + (1-momentum)*batch
//
// With the default momentum of 0.1 the running statistics mostly follow the
// latest batch; momentum close to 1 makes them barely move.
//
// Eval mode normalizes with the running statistics and leaves them untouched.
// So does a training batch of a single row, which has no variance, such as
// the short last batch of a pass.
type BatchNorm struct {
	features int
	momentum float64
	epsilon  float64
	training bool

	gamma  *Parameter // [1, features]
	beta   *Parameter // [1, features]
	params []*Parameter

	runningMean []float64
	runningVar  []float64

	last call
	// Per-call cache for Backward.
	xHat     *mat.Dense
	std      []float64
	batchFwd bool
}

// NewBatchNorm creates a BatchNorm layer over the given number of features.
//
// Gamma starts at ones, beta at zeros, the running mean at zeros and the
// running variance at ones. The layer starts in training mode.
func NewBatchNorm(features int, config BatchNormConfig) *BatchNorm {
	if config.Momentum == 0 {
		config.Momentum = 0.1
	}
	if config.Epsilon == 0 {
		config.Epsilon = 1e-6
	}
	bn := &BatchNorm{
		features:    features,
		momentum:    config.Momentum,
		epsilon:     config.Epsilon,
		training:    true,
		gamma:       NewParameter("gamma", tensor.Ones(1, features), true),
		beta:        NewParameter("beta", mat.NewDense(1, features, nil), true),
		runningMean: make([]float64, features),
		runningVar:  make([]float64, features),
	}
	for i := range bn.runningVar {
		bn.runningVar[i] = 1
	}
	bn.params = []*Parameter{bn.gamma, bn.beta}
	return bn
}

// SetTraining switches between batch statistics (true) and running statistics (false).
func (bn *BatchNorm) SetTraining(training bool) {
	bn.training = training
}

// updateStats computes the batch statistics and folds them into the running ones.
func (bn *BatchNorm) updateStats(x *mat.Dense) (mean, variance []float64) {
	rows, _ := x.Dims()
	mean = make([]float64, bn.features)
	variance = make([]float64, bn.features)
	col := make([]float64, rows)
	for j := 0; j < bn.features; j++ {
		mat.Col(col, j, x)
		mean[j], variance[j] = stat.MeanVariance(col, nil)
		bn.runningMean[j] = bn.momentum*bn.runningMean[j] + (1-bn.momentum)*mean[j]
		bn.runningVar[j] = bn.momentum*bn.runningVar[j] + (1-bn.momentum)*variance[j]
	}
	return mean, variance
}

// Forward normalizes the input per feature.
func (bn *BatchNorm) Forward(input *tensor.Tensor) *tensor.Tensor {
	rows, cols := input.Dims()
	if cols != bn.features {
		exceptions.Panicf("BatchNorm.Forward: expected %d features, got shape %v", bn.features, input.Shape())
	}

	useBatch := bn.training && rows > 1
	var mean, variance []float64
	if useBatch {
		mean, variance = bn.updateStats(input.Value)
	} else {
		mean, variance = bn.runningMean, bn.runningVar
	}

	bn.std = make([]float64, cols)
	for j := range bn.std {
		bn.std[j] = math.Sqrt(variance[j] + bn.epsilon)
	}
	bn.xHat = mat.NewDense(rows, cols, nil)
	bn.xHat.Apply(func(_, j int, v float64) float64 {
		return (v - mean[j]) / bn.std[j]
	}, input.Value)
	bn.batchFwd = useBatch

	out := mat.DenseCopyOf(bn.xHat)
	tensor.MulRowVec(out, bn.gamma.Data())
	tensor.AddRowVec(out, bn.beta.Data())
	return bn.last.record(input, tensor.New(out))
}

// Backward computes the input, gamma and beta gradients.
//
// For a training-mode forward (s = sqrt(var+eps), unbiased var):
//
//	dx_hat = dy * gamma
//	dx     = (dx_hat - mean(dx_hat) - x_hat * sum(dx_hat*x_hat)/(n-1)) / s
//
// When forward used the running statistics they are constants and
// dx = dx_hat / s.
func (bn *BatchNorm) Backward() {
	bn.last.mustHaveCall("BatchNorm")
	dy := bn.last.out.Grad
	rows, cols := dy.Dims()

	var dGamma mat.Dense
	dGamma.MulElem(dy, bn.xHat)
	bn.gamma.Update(tensor.SumCols(&dGamma))
	bn.beta.Update(tensor.SumCols(dy))

	dxHat := mat.DenseCopyOf(dy)
	tensor.MulRowVec(dxHat, bn.gamma.Data())

	dx := mat.NewDense(rows, cols, nil)
	if !bn.batchFwd {
		dx.Apply(func(_, j int, v float64) float64 { return v / bn.std[j] }, dxHat)
		bn.last.in.Grad = dx
		return
	}

	n := float64(rows)
	meanDxHat := tensor.SumCols(dxHat)
	var prod mat.Dense
	prod.MulElem(dxHat, bn.xHat)
	sumProd := tensor.SumCols(&prod)
	dx.Apply(func(i, j int, v float64) float64 {
		return (v - meanDxHat.At(0, j)/n - bn.xHat.At(i, j)*sumProd.At(0, j)/(n-1)) / bn.std[j]
	}, dxHat)
	bn.last.in.Grad = dx
}

// Parameters returns [gamma, beta].
func (bn *BatchNorm) Parameters() []*Parameter {
	return bn.params
}

// RunningMean returns the running mean per feature.
func (bn *BatchNorm) RunningMean() []float64 {
	return bn.runningMean
}

// RunningVar returns the running variance per feature.
func (bn *BatchNorm) RunningVar() []float64 {
	return bn.runningVar
}

// Gamma returns the scale parameter.
func (bn *BatchNorm) Gamma() *Parameter {
	return bn.gamma
}

// Beta returns the shift parameter.
func (bn *BatchNorm) Beta() *Parameter {
	return bn.beta
}

func (bn *BatchNorm) String() string {
	return fmt.Sprintf("BatchNorm(%d)", bn.features)
}

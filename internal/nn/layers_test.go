package nn

import (
	"math"
	"testing"

	"github.com/born-ml/fitloop/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestLinear_Forward(t *testing.T) {
	w := mat.NewDense(2, 3, []float64{
		1, 0, 2,
		0, 1, -1,
	})
	b := mat.NewDense(1, 3, []float64{0.5, 0, 1})
	l := NewLinearFrom(w, b, true)

	out := l.Forward(tensor.FromSlice(2, 2, []float64{1, 2, 3, 4}))
	assert.Equal(t, []float64{1.5, 2, 1, 3.5, 4, 3}, out.Value.RawMatrix().Data)
	assert.Equal(t, "Linear(2, 3)", l.String())
}

func TestLinear_FeatureMismatch(t *testing.T) {
	l := NewLinear(4, 2, false)
	assert.Panics(t, func() { l.Forward(tensor.Zeros(3, 5)) })
	assert.Panics(t, func() { NewLinearFrom(mat.NewDense(2, 3, nil), mat.NewDense(1, 2, nil), true) })
}

func TestLinear_Gradients(t *testing.T) {
	r := testRand(1)
	SeedInit(1)
	checkModuleGrads(t, NewLinear(4, 3, false), randomTensor(r, 5, 4), r)
}

func TestLinear_GradientsAccumulate(t *testing.T) {
	l := NewLinearFrom(mat.NewDense(1, 1, []float64{2}), mat.NewDense(1, 1, nil), true)
	x := tensor.FromSlice(1, 1, []float64{3})
	for range 2 {
		out := l.Forward(x)
		out.SetGrad(mat.NewDense(1, 1, []float64{1}))
		l.Backward()
	}
	assert.Equal(t, 6.0, l.Weight().Grad().At(0, 0))
	assert.Equal(t, 2.0, l.Bias().Grad().At(0, 0))
	assert.Equal(t, 2.0, x.Grad.At(0, 0), "input gradient is assigned, not accumulated")
}

func TestReLU(t *testing.T) {
	relu := NewReLU()
	x := tensor.FromSlice(1, 4, []float64{-1, 0, 0.25, 2})
	out := relu.Forward(x)
	assert.Equal(t, []float64{-0.5, -0.5, -0.25, 1.5}, out.Value.RawMatrix().Data)

	out.SetGrad(mat.NewDense(1, 4, []float64{1, 1, 1, 1}))
	relu.Backward()
	assert.Equal(t, []float64{0, 0, 1, 1}, x.Grad.RawMatrix().Data, "gradient is masked at x <= 0")
	assert.Empty(t, relu.Parameters())
}

func TestIdentity_AccumulatesIntoInput(t *testing.T) {
	id := NewIdentity()
	x := tensor.FromSlice(1, 2, []float64{1, 2})
	out := id.Forward(x)
	assert.Same(t, x.Value, out.Value)
	assert.NotSame(t, x, out, "separate gradient slot")

	x.SetGrad(mat.NewDense(1, 2, []float64{10, 20}))
	out.SetGrad(mat.NewDense(1, 2, []float64{1, 2}))
	id.Backward()
	assert.Equal(t, []float64{11, 22}, x.Grad.RawMatrix().Data)
}

func TestBatchNorm_TrainingForward(t *testing.T) {
	bn := NewBatchNorm(2, BatchNormConfig{Epsilon: 1e-12})
	x := tensor.FromSlice(3, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
	})
	out := bn.Forward(x)

	// Mean 2 / 20, unbiased variance 1 / 100.
	want := []float64{-1, -1, 0, 0, 1, 1}
	for i, v := range out.Value.RawMatrix().Data {
		assert.InDelta(t, want[i], v, 1e-9)
	}
	assert.InDeltaSlice(t, []float64{0.9 * 2, 0.9 * 20}, bn.RunningMean(), 1e-12)
	assert.InDeltaSlice(t, []float64{0.1 + 0.9*1, 0.1 + 0.9*100}, bn.RunningVar(), 1e-12)
}

func TestBatchNorm_EvalUsesRunningStats(t *testing.T) {
	bn := NewBatchNorm(1, BatchNormConfig{})
	bn.SetTraining(false)
	x := tensor.FromSlice(1, 1, []float64{3})
	out := bn.Forward(x)
	assert.InDelta(t, 3/math.Sqrt(1+1e-6), out.Value.At(0, 0), 1e-12)
	assert.Equal(t, []float64{0}, bn.RunningMean(), "eval does not update running stats")
	assert.Equal(t, []float64{1}, bn.RunningVar())
}

func TestBatchNorm_HighMomentumBarelyMoves(t *testing.T) {
	bn := NewBatchNorm(1, BatchNormConfig{Momentum: 0.999})
	bn.Forward(tensor.FromSlice(2, 1, []float64{100, 102}))
	assert.InDelta(t, 0.101, bn.RunningMean()[0], 1e-9)
}

func TestBatchNorm_SingleRowUsesRunningStats(t *testing.T) {
	bn := NewBatchNorm(1, BatchNormConfig{})
	require.True(t, bn.training)
	out := bn.Forward(tensor.FromSlice(1, 1, []float64{3}))
	assert.InDelta(t, 3/math.Sqrt(1+1e-6), out.Value.At(0, 0), 1e-12)
	assert.Equal(t, []float64{0}, bn.RunningMean(), "a single row leaves the running stats alone")
	assert.Equal(t, []float64{1}, bn.RunningVar())

	r := testRand(4)
	checkModuleGrads(t, NewBatchNorm(3, BatchNormConfig{}), randomTensor(r, 1, 3), r)
}

func TestBatchNorm_FeatureMismatch(t *testing.T) {
	bn := NewBatchNorm(3, BatchNormConfig{})
	assert.Panics(t, func() { bn.Forward(tensor.Zeros(4, 2)) })
}

func TestBatchNorm_Gradients(t *testing.T) {
	r := testRand(2)
	bn := NewBatchNorm(3, BatchNormConfig{})
	// Non-trivial affine parameters.
	copy(bn.Gamma().Data().RawMatrix().Data, []float64{1.5, -0.7, 2})
	copy(bn.Beta().Data().RawMatrix().Data, []float64{0.1, 0.2, -0.3})
	checkModuleGrads(t, bn, randomTensor(r, 6, 3), r)
}

func TestBatchNorm_EvalGradients(t *testing.T) {
	r := testRand(3)
	bn := NewBatchNorm(3, BatchNormConfig{})
	bn.Forward(randomTensor(r, 8, 3))
	bn.SetTraining(false)
	checkModuleGrads(t, bn, randomTensor(r, 4, 3), r)
}

func TestCrossEntropy(t *testing.T) {
	ce := NewCrossEntropy()
	pred := tensor.FromSlice(2, 3, []float64{
		0, 0, 0,
		0, 0, 0,
	})
	loss := ce.Forward(pred, []int{0, 2})
	assert.InDelta(t, math.Log(3), loss, 1e-12)

	ce.Backward()
	require.NotNil(t, pred.Grad)
	third := 1.0 / 3
	assert.InDeltaSlice(t, []float64{
		(third - 1) / 2, third / 2, third / 2,
		third / 2, third / 2, (third - 1) / 2,
	}, pred.Grad.RawMatrix().Data, 1e-12)
}

func TestCrossEntropy_ConfidentPrediction(t *testing.T) {
	ce := NewCrossEntropy()
	pred := tensor.FromSlice(2, 3, []float64{
		100, 0, 0,
		0, 100, 0,
	})
	loss := ce.Forward(pred, []int{0, 1})
	assert.InDelta(t, 0, loss, 1e-9)

	// A confidently wrong row has gradient ≈ -1/bs on the true class.
	loss = ce.Forward(pred, []int{2, 1})
	assert.InDelta(t, 50, loss, 1e-6)
	ce.Backward()
	assert.InDelta(t, -0.5, pred.Grad.At(0, 2), 1e-9)
	assert.InDelta(t, 0.5, pred.Grad.At(0, 0), 1e-9)
}

func TestCrossEntropy_Gradients(t *testing.T) {
	r := testRand(4)
	pred := randomTensor(r, 5, 4)
	target := []int{0, 3, 1, 1, 2}
	ce := NewCrossEntropy()
	ce.Forward(pred, target)
	ce.Backward()
	numeric := numericGrad(pred.Value.RawMatrix().Data, func() float64 { return ce.Forward(pred, target) })
	assertGradClose(t, numeric, pred.Grad, "logits")
}

func TestCrossEntropy_BadTargets(t *testing.T) {
	ce := NewCrossEntropy()
	assert.Panics(t, func() { ce.Forward(tensor.Zeros(2, 3), []int{0}) })
	assert.Panics(t, func() { ce.Forward(tensor.Zeros(1, 3), []int{3}) })
}

func TestLogSoftmax(t *testing.T) {
	out := LogSoftmax(mat.NewDense(1, 2, []float64{1000, 1000}))
	assert.InDeltaSlice(t, []float64{-math.Ln2, -math.Ln2}, out.RawMatrix().Data, 1e-12)
}

func TestAccuracy(t *testing.T) {
	pred := tensor.FromSlice(4, 2, []float64{
		0.9, 0.1,
		0.2, 0.8,
		0.6, 0.4,
		0.3, 0.7,
	})
	assert.Equal(t, 0.75, Accuracy(pred, []int{0, 1, 1, 1}))
	assert.Equal(t, 0.75, AccuracyMetric.Fn(pred, []int{0, 1, 1, 1}))
	assert.Panics(t, func() { Accuracy(pred, []int{0}) })
}

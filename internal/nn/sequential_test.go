package nn

import (
	"bytes"
	"testing"

	"github.com/born-ml/fitloop/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// spyModule records the order of forward and backward calls and passes
// values and gradients through.
type spyModule struct {
	name     string
	calls    *[]string
	training bool
	last     call
}

func (s *spyModule) Forward(input *tensor.Tensor) *tensor.Tensor {
	*s.calls = append(*s.calls, "fwd:"+s.name)
	return s.last.record(input, tensor.New(mat.DenseCopyOf(input.Value)))
}

func (s *spyModule) Backward() {
	*s.calls = append(*s.calls, "bwd:"+s.name)
	s.last.in.SetGrad(s.last.out.Grad)
}

func (s *spyModule) Parameters() []*Parameter { return nil }

func (s *spyModule) SetTraining(training bool) { s.training = training }

func TestSequential_Order(t *testing.T) {
	var calls []string
	a := &spyModule{name: "a", calls: &calls}
	b := &spyModule{name: "b", calls: &calls}
	c := &spyModule{name: "c", calls: &calls}
	model := NewSequential(a, b, c)

	out := model.Forward(tensor.FromSlice(1, 1, []float64{1}))
	out.SetGrad(mat.NewDense(1, 1, []float64{1}))
	model.Backward()
	assert.Equal(t, []string{"fwd:a", "fwd:b", "fwd:c", "bwd:c", "bwd:b", "bwd:a"}, calls)
}

func TestSequential_TrainEval(t *testing.T) {
	var calls []string
	spy := &spyModule{name: "s", calls: &calls}
	bn := NewBatchNorm(2, BatchNormConfig{})
	model := NewSequential(spy, NewSubModel(NewSequential(bn)))
	require.True(t, model.Training())

	model.Eval()
	assert.False(t, model.Training())
	assert.False(t, spy.training)
	assert.False(t, bn.training, "mode reaches nested sub-models")

	model.Train()
	assert.True(t, spy.training)
	assert.True(t, bn.training)
}

func TestSequential_Parameters(t *testing.T) {
	l1 := NewLinear(3, 4, false)
	l2 := NewLinear(4, 2, true)
	model := NewSequential(l1, NewReLU(), l2)
	params := model.Parameters()
	require.Len(t, params, 4)
	assert.Same(t, l1.Weight(), params[0])
	assert.Same(t, l2.Bias(), params[3])
	assert.Equal(t, 3*4+4+4*2+2, CountParameters(params))
}

func TestSequential_AddLenLayer(t *testing.T) {
	model := NewSequential()
	model.Add(NewLinear(2, 2, false))
	model.Add(NewReLU())
	assert.Equal(t, 2, model.Len())
	assert.IsType(t, &ReLU{}, model.Layer(1))
	assert.Panics(t, func() { model.Layer(2) })
}

func TestSequential_String(t *testing.T) {
	model := NewMLP(2, 50, 3)
	assert.Equal(t, "(Sequential)\n\t(Layer1) Linear(2, 50)\n\t(Layer2) ReLU()\n\t(Layer3) Linear(50, 3)", model.String())

	nested := NewSequential(NewSubModel(NewSequential(NewReLU())), NewResBlock(4, 4, true))
	assert.Equal(t, "(Sequential)\n\t(Layer1) (Sequential)\n\t\t(Layer1) ReLU()\n\t(Layer2) Bottleneck(4, 4)", nested.String())
}

func TestSequential_Summary(t *testing.T) {
	model := NewMLP(100, 50, 10)
	var buf bytes.Buffer
	require.NoError(t, model.Summary(&buf))
	out := buf.String()
	assert.Contains(t, out, "Linear(100, 50)")
	assert.Contains(t, out, "5,050")
	assert.Contains(t, out, "5,560")
}

func TestMLP_TrainsEndToEnd(t *testing.T) {
	SeedInit(5)
	model := NewMLP(2, 16, 2)
	x := tensor.FromSlice(4, 2, []float64{
		1, 1,
		1, -1,
		-1, 1,
		-1, -1,
	})
	y := []int{0, 1, 1, 0}
	ce := NewCrossEntropy()

	first := ce.Forward(model.Forward(x), y)
	var last float64
	for range 200 {
		last = ce.Forward(model.Forward(x), y)
		ce.Backward()
		model.Backward()
		for _, p := range model.Parameters() {
			p.Step(0.1)
			p.ZeroGrad()
		}
	}
	assert.Less(t, last, first)
}

func TestResLayer_SumsBothPaths(t *testing.T) {
	w := mat.NewDense(2, 2, []float64{
		2, 0,
		0, 3,
	})
	branch := NewSequential(NewLinearFrom(w, mat.NewDense(1, 2, nil), true))
	res := NewResLayerFrom(branch, false)
	x := tensor.FromSlice(1, 2, []float64{1, 1})

	out := res.Forward(x)
	assert.Equal(t, []float64{3, 4}, out.Value.RawMatrix().Data, "F(x) + x")

	out.SetGrad(mat.NewDense(1, 2, []float64{1, 1}))
	res.Backward()
	assert.Equal(t, []float64{3, 4}, x.Grad.RawMatrix().Data, "W^T g + g")
	assert.Equal(t, "ResLayer(2, 2)", res.String())
}

func TestResLayer_Gradients(t *testing.T) {
	r := testRand(9)
	SeedInit(9)
	checkModuleGrads(t, NewResLayer(4, 4, false), randomTensor(r, 6, 4), r)
}

func TestResLayer_Bottleneck(t *testing.T) {
	res := NewResLayer(8, 8, true)
	assert.Equal(t, 8, res.Branch().Len())
	l, ok := res.Branch().Layer(0).(*Linear)
	require.True(t, ok)
	assert.Equal(t, 2, l.OutFeatures())
	assert.Len(t, res.Parameters(), 12)
}

func TestResLayer_NeedsMatchingWidths(t *testing.T) {
	assert.Panics(t, func() { NewResLayer(4, 8, false) })
}

func TestResMLP(t *testing.T) {
	SeedInit(11)
	model := NewResMLP(3, 8, 2, 4, false)
	assert.Equal(t, 6, model.Len())
	out := model.Forward(tensor.New(tensor.Randn(5, 3, 1, testRand(11))))
	rows, cols := out.Dims()
	assert.Equal(t, 5, rows)
	assert.Equal(t, 4, cols)

	out.SetGrad(tensor.Ones(5, 4))
	model.Backward()
	for _, p := range model.Parameters() {
		assert.NotNil(t, p.Grad(), p.Name())
	}

	bottleneck := NewResMLP(3, 8, 2, 4, true)
	assert.Contains(t, bottleneck.String(), "Bottleneck(8, 8)")
	assert.Greater(t, len(bottleneck.Parameters()), len(model.Parameters()))
}

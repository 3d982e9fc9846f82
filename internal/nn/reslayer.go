package nn

import (
	"fmt"

	"github.com/born-ml/fitloop/internal/tensor"
	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/mat"
)

// ResLayer computes F(x) + x, where F is a small stack of dense layers.
//
// Residual branches:
//
//	basic:      Linear(in, out) → BN → ReLU → Linear(out, out) → BN
//	bottleneck: Linear(in, in/4) → BN → ReLU → Linear(in/4, in/4) → BN → ReLU
//	            → Linear(in/4, out) → BN
//
// The skip path is an Identity, so in must equal out.
//
// Backward hands a copy of the output gradient to both paths, runs the
// residual branch first (which sets the input gradient) and the skip path
// second (which adds to it).
type ResLayer struct {
	in, out    int
	bottleneck bool

	branch *Sequential
	skip   *Identity

	fx, x  *tensor.Tensor
	output *tensor.Tensor
}

// NewResLayer creates a residual layer. Panics unless in == out.
func NewResLayer(in, out int, bottleneck bool) *ResLayer {
	if in != out {
		exceptions.Panicf("NewResLayer: projection shortcuts are not supported, in (%d) must equal out (%d)", in, out)
	}
	var branch *Sequential
	if bottleneck {
		mid := max(in/4, 1)
		branch = NewSequential(
			NewLinear(in, mid, false), NewBatchNorm(mid, BatchNormConfig{}), NewReLU(),
			NewLinear(mid, mid, false), NewBatchNorm(mid, BatchNormConfig{}), NewReLU(),
			NewLinear(mid, out, false), NewBatchNorm(out, BatchNormConfig{}),
		)
	} else {
		branch = NewSequential(
			NewLinear(in, out, false), NewBatchNorm(out, BatchNormConfig{}), NewReLU(),
			NewLinear(out, out, false), NewBatchNorm(out, BatchNormConfig{}),
		)
	}
	return NewResLayerFrom(branch, bottleneck)
}

// NewResLayerFrom builds a residual layer around an explicit branch. The
// branch must map its input to the same number of features.
func NewResLayerFrom(branch *Sequential, bottleneck bool) *ResLayer {
	var in, out int
	for i := 0; i < branch.Len(); i++ {
		if l, ok := branch.Layer(i).(*Linear); ok {
			if in == 0 {
				in = l.InFeatures()
			}
			out = l.OutFeatures()
		}
	}
	return &ResLayer{
		in:         in,
		out:        out,
		bottleneck: bottleneck,
		branch:     branch,
		skip:       NewIdentity(),
	}
}

// Forward returns branch(x) + x.
func (r *ResLayer) Forward(input *tensor.Tensor) *tensor.Tensor {
	r.fx = r.branch.Forward(input)
	r.x = r.skip.Forward(input)
	rows, cols := input.Dims()
	if fr, fc := r.fx.Dims(); fr != rows || fc != cols {
		exceptions.Panicf("ResLayer.Forward: residual branch maps %v to [%d, %d]", input.Shape(), fr, fc)
	}
	var sum mat.Dense
	sum.Add(r.fx.Value, r.x.Value)
	r.output = tensor.New(&sum)
	return r.output
}

// Backward propagates through the residual branch, then the skip path.
func (r *ResLayer) Backward() {
	if r.output == nil {
		exceptions.Panicf("ResLayer.Backward: called before Forward")
	}
	if r.output.Grad == nil {
		exceptions.Panicf("ResLayer.Backward: output has no gradient attached")
	}
	r.fx.SetGrad(r.output.Grad)
	r.x.SetGrad(r.output.Grad)
	r.branch.Backward()
	r.skip.Backward()
}

// Parameters returns the residual branch parameters.
func (r *ResLayer) Parameters() []*Parameter {
	return append(r.branch.Parameters(), r.skip.Parameters()...)
}

// SetTraining propagates the mode to the residual branch.
func (r *ResLayer) SetTraining(training bool) {
	r.branch.SetTraining(training)
}

// Branch returns the residual branch.
func (r *ResLayer) Branch() *Sequential {
	return r.branch
}

func (r *ResLayer) String() string {
	kind := "ResLayer"
	if r.bottleneck {
		kind = "BottleneckLayer"
	}
	return fmt.Sprintf("%s(%d, %d)", kind, r.in, r.out)
}

// ResBlock is a ResLayer followed by a ReLU.
type ResBlock struct {
	*SubModel
	in, out    int
	bottleneck bool
}

// NewResBlock creates Sequential(ResLayer(in, out, bottleneck), ReLU) wrapped
// as a SubModel.
func NewResBlock(in, out int, bottleneck bool) *ResBlock {
	return &ResBlock{
		SubModel:   NewSubModel(NewSequential(NewResLayer(in, out, bottleneck), NewReLU())),
		in:         in,
		out:        out,
		bottleneck: bottleneck,
	}
}

func (b *ResBlock) String() string {
	if b.bottleneck {
		return fmt.Sprintf("Bottleneck(%d, %d)", b.in, b.out)
	}
	return fmt.Sprintf("BasicBlock(%d, %d)", b.in, b.out)
}

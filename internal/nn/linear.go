package nn

import (
	"fmt"

	"github.com/born-ml/fitloop/internal/tensor"
	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/mat"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W + b
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//   - W is the weight matrix with shape [in_features, out_features]
//   - b is the bias row with shape [1, out_features]
//   - y is the output tensor with shape [batch_size, out_features]
//
// Backward:
//
//	dx = dy @ W.T
//	dW = x.T @ dy
//	db = sum(dy, over batch)
//
// Example:
//
//	layer := nn.NewLinear(784, 50, false)
//	out := layer.Forward(x)   // [32, 784] -> [32, 50]
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter
	bias        *Parameter
	params      []*Parameter
	last        call
}

// NewLinear creates a new Linear layer.
//
// Parameters:
//   - inFeatures: Number of input features
//   - outFeatures: Number of output features
//   - end: true for the final layer of a model (selects the output-layer init)
//
// Biases are initialized to zeros.
func NewLinear(inFeatures, outFeatures int, end bool) *Linear {
	return NewLinearFrom(InitWeight(inFeatures, outFeatures, end), InitBiasZero(outFeatures), true)
}

// NewLinearFrom creates a Linear layer from explicit weight [in, out] and
// bias [1, out] matrices.
func NewLinearFrom(weight, bias *mat.Dense, requiresGrad bool) *Linear {
	in, out := weight.Dims()
	if br, bc := bias.Dims(); br != 1 || bc != out {
		exceptions.Panicf("NewLinearFrom: bias shape [%d, %d] does not match weight shape [%d, %d]", br, bc, in, out)
	}
	l := &Linear{
		inFeatures:  in,
		outFeatures: out,
		weight:      NewParameter("weight", weight, requiresGrad),
		bias:        NewParameter("bias", bias, requiresGrad),
	}
	l.params = []*Parameter{l.weight, l.bias}
	return l
}

// Forward computes x @ W + b.
func (l *Linear) Forward(input *tensor.Tensor) *tensor.Tensor {
	rows, cols := input.Dims()
	if cols != l.inFeatures {
		exceptions.Panicf("Linear.Forward: expected input with %d features, got shape %v", l.inFeatures, input.Shape())
	}
	out := mat.NewDense(rows, l.outFeatures, nil)
	out.Mul(input.Value, l.weight.Data())
	tensor.AddRowVec(out, l.bias.Data())
	return l.last.record(input, tensor.New(out))
}

// Backward sets the input gradient and accumulates weight and bias gradients.
func (l *Linear) Backward() {
	l.last.mustHaveCall("Linear")
	dy := l.last.out.Grad
	rows, _ := dy.Dims()

	dx := mat.NewDense(rows, l.inFeatures, nil)
	dx.Mul(dy, l.weight.Data().T())
	l.last.in.Grad = dx

	dw := mat.NewDense(l.inFeatures, l.outFeatures, nil)
	dw.Mul(l.last.in.Value.T(), dy)
	l.weight.Update(dw)
	l.bias.Update(tensor.SumCols(dy))
}

// Parameters returns [weight, bias].
func (l *Linear) Parameters() []*Parameter {
	return l.params
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear) Bias() *Parameter {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear) OutFeatures() int {
	return l.outFeatures
}

func (l *Linear) String() string {
	return fmt.Sprintf("Linear(%d, %d)", l.inFeatures, l.outFeatures)
}

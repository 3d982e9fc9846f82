package nn

import (
	"github.com/born-ml/fitloop/internal/tensor"
	"gonum.org/v1/gonum/mat"
)

// reluShift is subtracted after clamping to keep activations roughly centered.
const reluShift = 0.5

// ReLU is a shifted rectified linear unit.
//
// Applies the element-wise function: f(x) = max(0, x) - 0.5
//
// The gradient passes through only where the input was strictly positive.
//
// Example:
//
//	relu := nn.NewReLU()
//	output := relu.Forward(input)
type ReLU struct {
	last call
}

// NewReLU creates a new ReLU activation module.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Forward applies f(x) = max(0, x) - 0.5.
func (r *ReLU) Forward(input *tensor.Tensor) *tensor.Tensor {
	rows, cols := input.Dims()
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(_, _ int, v float64) float64 {
		return max(v, 0) - reluShift
	}, input.Value)
	return r.last.record(input, tensor.New(out))
}

// Backward masks the output gradient where the input was <= 0.
func (r *ReLU) Backward() {
	r.last.mustHaveCall("ReLU")
	in := r.last.in.Value
	rows, cols := in.Dims()
	dx := mat.NewDense(rows, cols, nil)
	dx.Apply(func(i, j int, g float64) float64 {
		if in.At(i, j) > 0 {
			return g
		}
		return 0
	}, r.last.out.Grad)
	r.last.in.Grad = dx
}

// Parameters returns nil (ReLU has no trainable parameters).
func (r *ReLU) Parameters() []*Parameter {
	return nil
}

func (r *ReLU) String() string {
	return "ReLU()"
}

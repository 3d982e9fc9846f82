package nn

import (
	"github.com/born-ml/fitloop/internal/tensor"
)

// Identity is the skip-connection layer of residual blocks.
//
// Forward returns a new tensor that shares the input's value, so the skip
// path keeps its own gradient slot. Backward accumulates into the input
// gradient instead of assigning it: the input is shared with the residual
// branch, whose contribution must survive.
type Identity struct {
	last call
}

// NewIdentity creates an Identity layer.
func NewIdentity() *Identity {
	return &Identity{}
}

// Forward passes the value through unchanged.
func (id *Identity) Forward(input *tensor.Tensor) *tensor.Tensor {
	return id.last.record(input, tensor.New(input.Value))
}

// Backward adds the output gradient to the input gradient.
func (id *Identity) Backward() {
	id.last.mustHaveCall("Identity")
	id.last.in.AccumulateGrad(id.last.out.Grad)
}

// Parameters returns nil.
func (id *Identity) Parameters() []*Parameter {
	return nil
}

func (id *Identity) String() string {
	return "Identity()"
}

package nn

import (
	"github.com/born-ml/fitloop/internal/tensor"
)

// SubModel wraps a Sequential so it can be used as a single layer of a
// bigger model.
//
// Forward and Backward delegate to the wrapped Sequential; Parameters
// returns its parameters; the training mode is propagated.
type SubModel struct {
	inner *Sequential
}

// NewSubModel wraps the given Sequential.
func NewSubModel(inner *Sequential) *SubModel {
	return &SubModel{inner: inner}
}

// Forward runs the wrapped Sequential.
func (sm *SubModel) Forward(input *tensor.Tensor) *tensor.Tensor {
	return sm.inner.Forward(input)
}

// Backward runs the backward pass of the wrapped Sequential.
func (sm *SubModel) Backward() {
	sm.inner.Backward()
}

// Parameters returns the wrapped Sequential's parameters.
func (sm *SubModel) Parameters() []*Parameter {
	return sm.inner.Parameters()
}

// SetTraining propagates the mode to the wrapped Sequential.
func (sm *SubModel) SetTraining(training bool) {
	sm.inner.SetTraining(training)
}

// Inner returns the wrapped Sequential.
func (sm *SubModel) Inner() *Sequential {
	return sm.inner
}

func (sm *SubModel) String() string {
	return sm.inner.String()
}

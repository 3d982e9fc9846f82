// Package nn implements the layer library of the training stack.
//
// Every layer computes its own gradients. A forward call records what the
// matching backward call needs (inputs, outputs, normalized values); the
// backward call reads the gradient that the caller attached to the output
// tensor, attaches the gradient of the input tensor and accumulates into the
// gradients of owned parameters.
//
// Provided building blocks:
//   - Module interface and Parameter
//   - Layers: Linear, ReLU, BatchNorm, Identity
//   - Composites: Sequential, SubModel, ResLayer, ResBlock
//   - Loss: CrossEntropy
//   - Initialization: InitHe, InitNorm, InitBiasZero, InitBiasNormal
//
// Modules are stateful and not reentrant: exactly one forward/backward pair
// may be in flight per instance.
package nn

import (
	"github.com/born-ml/fitloop/internal/tensor"
	"github.com/gomlx/exceptions"
)

// Module is the base interface for all neural network components.
//
// Every module must implement:
//   - Forward: Compute the output and remember what Backward needs
//   - Backward: Propagate the gradient attached to the last output
//   - Parameters: Return all trainable parameters, recursively for composites
//
// Backward is only valid immediately after the matching Forward on the same
// instance, once the caller has attached a gradient to the returned tensor.
type Module interface {
	Forward(input *tensor.Tensor) *tensor.Tensor
	Backward()
	Parameters() []*Parameter
}

// TrainingSetter is implemented by modules whose behaviour depends on the
// train/eval mode (BatchNorm) and by containers that forward the mode.
type TrainingSetter interface {
	SetTraining(training bool)
}

// Loss is a module that reduces predictions and targets to a scalar.
//
// Backward attaches the gradient of the loss to the predictions tensor seen
// by the last Forward call.
type Loss interface {
	Forward(pred *tensor.Tensor, target []int) float64
	Backward()
}

// call records the single in-flight forward call of a module.
type call struct {
	in, out *tensor.Tensor
}

func (c *call) record(in, out *tensor.Tensor) *tensor.Tensor {
	c.in, c.out = in, out
	return out
}

// mustHaveCall panics when Backward runs without a forward call, or before the
// caller attached a gradient to the output.
func (c *call) mustHaveCall(module string) {
	if c.out == nil {
		exceptions.Panicf("%s.Backward: called before Forward", module)
	}
	if c.out.Grad == nil {
		exceptions.Panicf("%s.Backward: output has no gradient attached", module)
	}
}

// Package tensor provides the value/gradient pair that flows between modules.
//
// Numeric storage and math are delegated to gonum's mat package; this package
// only adds the gradient slot and a handful of helpers that manual backprop
// needs (broadcast row add, column sums, row argmax, random init).
//
// A Tensor is always a 2D [batch, features] matrix.
package tensor

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/mat"
)

// Tensor couples a value with the gradient of the loss with respect to it.
//
// Grad is nil until some consumer of the tensor attaches a gradient during
// the backward pass. Modules attach gradients to their inputs; the caller
// (Sequential, ResLayer, a loss) attaches gradients to outputs.
type Tensor struct {
	Value *mat.Dense
	Grad  *mat.Dense
}

// New wraps an existing matrix. The matrix is not copied.
func New(value *mat.Dense) *Tensor {
	return &Tensor{Value: value}
}

// FromSlice creates a [rows, cols] tensor backed by data (row-major).
//
// Panics if len(data) != rows*cols.
func FromSlice(rows, cols int, data []float64) *Tensor {
	if len(data) != rows*cols {
		exceptions.Panicf("tensor.FromSlice: %d values cannot fill shape [%d, %d]", len(data), rows, cols)
	}
	return New(mat.NewDense(rows, cols, data))
}

// Zeros creates a zero-valued [rows, cols] tensor.
func Zeros(rows, cols int) *Tensor {
	return New(mat.NewDense(rows, cols, nil))
}

// Dims returns the [rows, cols] shape of the value.
func (t *Tensor) Dims() (rows, cols int) {
	return t.Value.Dims()
}

// Shape returns the shape as a slice, handy for messages.
func (t *Tensor) Shape() []int {
	r, c := t.Dims()
	return []int{r, c}
}

// SetGrad overwrites the gradient with a copy of g.
func (t *Tensor) SetGrad(g mat.Matrix) {
	t.checkGradShape("SetGrad", g)
	t.Grad = mat.DenseCopyOf(g)
}

// AccumulateGrad adds g into the gradient, allocating it on first use.
func (t *Tensor) AccumulateGrad(g mat.Matrix) {
	t.checkGradShape("AccumulateGrad", g)
	if t.Grad == nil {
		t.Grad = mat.DenseCopyOf(g)
		return
	}
	t.Grad.Add(t.Grad, g)
}

// ZeroGrad resets an existing gradient to zeros. A nil gradient stays nil.
func (t *Tensor) ZeroGrad() {
	if t.Grad != nil {
		t.Grad.Zero()
	}
}

// String implements fmt.Stringer.
func (t *Tensor) String() string {
	r, c := t.Dims()
	return fmt.Sprintf("Tensor[%d, %d]", r, c)
}

func (t *Tensor) checkGradShape(op string, g mat.Matrix) {
	r, c := t.Dims()
	gr, gc := g.Dims()
	if r != gr || c != gc {
		exceptions.Panicf("Tensor.%s: gradient shape [%d, %d] does not match value shape [%d, %d]", op, gr, gc, r, c)
	}
}

package nn

import (
	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/mat"
)

// Parameter represents a trainable parameter in a neural network.
//
// Parameters hold the weights and biases of layers. The owning layer's backward
// pass accumulates into Grad; optimizers read Grad and mutate Data in place.
//
// Example:
//
//	w := nn.NewParameter("weight", nn.InitHe(784, 128), true)
//
//	// After a backward pass:
//	g := w.Grad()
type Parameter struct {
	name         string
	data         *mat.Dense
	grad         *mat.Dense // nil until the first backward pass
	requiresGrad bool
}

// NewParameter creates a new trainable parameter.
//
// Parameters:
//   - name: Descriptive name (e.g., "weight", "gamma")
//   - data: The initialized value; it is owned by the parameter from now on
//   - requiresGrad: When false, gradient updates are ignored (frozen parameter)
func NewParameter(name string, data *mat.Dense, requiresGrad bool) *Parameter {
	return &Parameter{
		name:         name,
		data:         data,
		requiresGrad: requiresGrad,
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Data returns the parameter value. Optimizer steppers mutate it in place.
func (p *Parameter) Data() *mat.Dense {
	return p.data
}

// Grad returns the accumulated gradient.
//
// Returns nil if no gradient has been computed yet (before the first backward pass).
func (p *Parameter) Grad() *mat.Dense {
	return p.grad
}

// RequiresGrad reports whether backward passes update this parameter's gradient.
func (p *Parameter) RequiresGrad() bool {
	return p.requiresGrad
}

// Update accumulates g into the gradient.
//
// Accumulation (never overwrite) keeps contributions from every branch that
// uses the parameter. Frozen parameters ignore the call.
func (p *Parameter) Update(g mat.Matrix) {
	if !p.requiresGrad {
		return
	}
	r, c := p.data.Dims()
	gr, gc := g.Dims()
	if r != gr || c != gc {
		exceptions.Panicf("Parameter(%q).Update: gradient shape [%d, %d] does not match data shape [%d, %d]",
			p.name, gr, gc, r, c)
	}
	if p.grad == nil {
		p.grad = mat.DenseCopyOf(g)
		return
	}
	p.grad.Add(p.grad, g)
}

// Step applies the default update rule: data -= lr * grad.
//
// A parameter without gradient is left untouched.
func (p *Parameter) Step(lr float64) {
	if p.grad == nil {
		return
	}
	var scaled mat.Dense
	scaled.Scale(lr, p.grad)
	p.data.Sub(p.data, &scaled)
}

// ZeroGrad resets the gradient to zeros.
//
// Once a gradient exists it is zeroed in place and never goes back to nil.
func (p *Parameter) ZeroGrad() {
	if p.grad != nil {
		p.grad.Zero()
	}
}

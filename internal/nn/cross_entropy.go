package nn

import (
	"math"

	"github.com/born-ml/fitloop/internal/tensor"
	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// CrossEntropy computes cross-entropy loss for multi-class classification.
//
// Mathematical Formulation:
//
//	Loss = mean_b( -log_softmax(logits_b)[target_b] )
//	log_softmax(z) = z - LogSumExp(z)
//
// Gradient (Backward):
//
//	∂L/∂logits = (softmax(logits) - y_one_hot) / batch_size
//
// Usage:
//
//	criterion := nn.NewCrossEntropy()
//	loss := criterion.Forward(logits, targets)  // targets: class indices
//	criterion.Backward()                        // sets logits.Grad
type CrossEntropy struct {
	pred   *tensor.Tensor
	target []int
}

// NewCrossEntropy creates a new cross-entropy loss function.
func NewCrossEntropy() *CrossEntropy {
	return &CrossEntropy{}
}

// Forward computes the mean negative log-likelihood of the target classes.
//
// Panics if the batch sizes differ or a target is out of range.
func (c *CrossEntropy) Forward(pred *tensor.Tensor, target []int) float64 {
	rows, cols := pred.Dims()
	if len(target) != rows {
		exceptions.Panicf("CrossEntropy.Forward: %d targets for a batch of %d", len(target), rows)
	}
	c.pred, c.target = pred, target

	total := 0.0
	for b := 0; b < rows; b++ {
		y := target[b]
		if y < 0 || y >= cols {
			exceptions.Panicf("CrossEntropy.Forward: target %d out of range [0, %d)", y, cols)
		}
		logits := pred.Value.RawRowView(b)
		total -= logits[y] - floats.LogSumExp(logits)
	}
	return total / float64(rows)
}

// Backward attaches (softmax - onehot)/batch_size to the predictions.
func (c *CrossEntropy) Backward() {
	if c.pred == nil {
		exceptions.Panicf("CrossEntropy.Backward: called before Forward")
	}
	rows, cols := c.pred.Dims()
	grad := mat.NewDense(rows, cols, nil)
	for b := 0; b < rows; b++ {
		dst := grad.RawRowView(b)
		softmax(dst, c.pred.Value.RawRowView(b))
		dst[c.target[b]]--
		floats.Scale(1/float64(rows), dst)
	}
	c.pred.Grad = grad
}

// Parameters returns nil (loss functions have no trainable parameters).
func (c *CrossEntropy) Parameters() []*Parameter {
	return nil
}

func (c *CrossEntropy) String() string {
	return "CrossEntropy()"
}

// softmax writes exp(z - LogSumExp(z)) into dst.
func softmax(dst, z []float64) {
	lse := floats.LogSumExp(z)
	for i, v := range z {
		dst[i] = math.Exp(v - lse)
	}
}

// LogSoftmax returns the log-probabilities of each row of logits.
func LogSoftmax(logits *mat.Dense) *mat.Dense {
	rows, cols := logits.Dims()
	out := mat.NewDense(rows, cols, nil)
	for b := 0; b < rows; b++ {
		row := logits.RawRowView(b)
		lse := floats.LogSumExp(row)
		dst := out.RawRowView(b)
		for i, v := range row {
			dst[i] = v - lse
		}
	}
	return out
}

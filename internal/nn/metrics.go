package nn

import (
	"github.com/born-ml/fitloop/internal/tensor"
	"github.com/gomlx/exceptions"
)

// Metric scores a batch of predictions against class targets.
type Metric struct {
	Name string
	Fn   func(pred *tensor.Tensor, target []int) float64
}

// AccuracyMetric is the Metric wrapper of Accuracy.
var AccuracyMetric = Metric{Name: "accuracy", Fn: Accuracy}

// Accuracy computes classification accuracy for a batch.
//
// Parameters:
//   - pred: Model predictions [batch_size, num_classes]
//   - target: Ground truth class indices [batch_size]
//
// Returns the fraction of rows whose argmax equals the target.
func Accuracy(pred *tensor.Tensor, target []int) float64 {
	predicted := tensor.ArgMaxRows(pred.Value)
	if len(predicted) != len(target) {
		exceptions.Panicf("Accuracy: %d targets for a batch of %d", len(target), len(predicted))
	}
	if len(target) == 0 {
		return 0
	}
	correct := 0
	for i, p := range predicted {
		if p == target[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(target))
}

package nn

import (
	"math"
	"math/rand/v2"

	"github.com/born-ml/fitloop/internal/tensor"
	"gonum.org/v1/gonum/mat"
)

// initSource is the random source used by the initializers. nil means the
// global math/rand/v2 source.
var initSource rand.Source

// SeedInit makes weight initialization deterministic.
func SeedInit(seed uint64) {
	initSource = rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

// InitHe draws a [fanIn, fanOut] weight matrix from N(0, 2/fanIn).
//
// Used for hidden layers followed by a rectifier.
func InitHe(fanIn, fanOut int) *mat.Dense {
	return tensor.Randn(fanIn, fanOut, math.Sqrt(2.0/float64(fanIn)), initSource)
}

// InitNorm is the output-layer initializer.
//
// It currently uses the same scale as InitHe; it is a separate strategy so the
// output layer can be tuned independently.
func InitNorm(fanIn, fanOut int) *mat.Dense {
	return tensor.Randn(fanIn, fanOut, math.Sqrt(2.0/float64(fanIn)), initSource)
}

// InitWeight picks InitNorm for the final layer and InitHe otherwise.
func InitWeight(fanIn, fanOut int, end bool) *mat.Dense {
	if end {
		return InitNorm(fanIn, fanOut)
	}
	return InitHe(fanIn, fanOut)
}

// InitBiasZero returns a [1, n] zero bias.
func InitBiasZero(n int) *mat.Dense {
	return mat.NewDense(1, n, nil)
}

// InitBiasNormal returns a [1, n] bias drawn from N(0, 1).
func InitBiasNormal(n int) *mat.Dense {
	return tensor.Randn(1, n, 1, initSource)
}

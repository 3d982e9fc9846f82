package tensor

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Randn creates a [rows, cols] matrix with values drawn from N(0, std²).
//
// src may be nil, in which case the global math/rand/v2 source is used.
func Randn(rows, cols int, std float64, src rand.Source) *mat.Dense {
	dist := distuv.Normal{Mu: 0, Sigma: std, Src: src}
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = dist.Rand()
	}
	return mat.NewDense(rows, cols, data)
}

// Ones creates a [rows, cols] matrix of ones.
func Ones(rows, cols int) *mat.Dense {
	return Full(rows, cols, 1)
}

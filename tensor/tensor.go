// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand/v2"

	"github.com/born-ml/fitloop/internal/tensor"
	"gonum.org/v1/gonum/mat"
)

// Tensor couples a [batch, features] value with its gradient.
type Tensor = tensor.Tensor

// New wraps an existing matrix without copying it.
func New(value *mat.Dense) *Tensor {
	return tensor.New(value)
}

// FromSlice creates a [rows, cols] tensor from row-major data.
//
// Example:
//
//	x := tensor.FromSlice(2, 2, []float64{1, 2, 3, 4})
func FromSlice(rows, cols int, data []float64) *Tensor {
	return tensor.FromSlice(rows, cols, data)
}

// Zeros creates a [rows, cols] tensor filled with zeros.
func Zeros(rows, cols int) *Tensor {
	return tensor.Zeros(rows, cols)
}

// Randn creates a [rows, cols] matrix drawn from N(0, std²). A nil src uses
// the global random source.
func Randn(rows, cols int, std float64, src rand.Source) *mat.Dense {
	return tensor.Randn(rows, cols, std, src)
}

// ArgMaxRows returns the column index of the largest value of every row.
func ArgMaxRows(m *mat.Dense) []int {
	return tensor.ArgMaxRows(m)
}

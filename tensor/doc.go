// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the value/gradient pair flowing between layers.
//
// # Overview
//
// A Tensor holds a 2-D float64 matrix (gonum mat.Dense) and the gradient of
// the loss with respect to it. Rows are examples, columns are features.
// Layers fill the gradient in their Backward pass; nothing is recorded on
// the tensor itself.
//
// # Basic Usage
//
//	import "github.com/born-ml/fitloop/tensor"
//
//	func main() {
//	    x := tensor.FromSlice(2, 3, []float64{1, 2, 3, 4, 5, 6})
//	    rows, cols := x.Dims() // 2, 3
//	    x.ZeroGrad()
//	}
//
// # Gradients
//
// SetGrad copies a gradient, AccumulateGrad adds one. Both panic when the
// gradient shape differs from the value shape.
package tensor

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training neural networks.
//
// # Overview
//
// This package contains:
//   - SGD: fixed learning rate gradient descent
//   - DynamicOpt: SGD reading its learning rate from a mutable Hypers map
//   - StatelessOpt: a chain of Steppers over parameter groups
//   - StatefulOpt: Steppers plus per-parameter running statistics
//   - Adam, LAMB and SGD with momentum, built on StatefulOpt
//   - Schedules: SchedLin, SchedCos, SchedExp, SchedNo, CombineScheds
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/fitloop/nn"
//	    "github.com/born-ml/fitloop/optim"
//	)
//
//	func main() {
//	    model := nn.NewMLP(784, 50, 10)
//	    optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 1e-3})
//
//	    // after the backward pass:
//	    optimizer.Step()
//	    optimizer.ZeroGrad()
//	}
//
// # Hyperparameters
//
// Composed optimizers keep one Hypers map per parameter group, shared by
// every stepper and stat of the group. Schedulers write into those maps
// between steps through the HyperOptimizer interface.
package optim

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers with hand-written gradients.
//
// # Overview
//
// This package contains:
//   - Layers: Linear, ReLU, BatchNorm, Identity
//   - Composites: Sequential, SubModel, ResLayer, ResBlock
//   - Loss: CrossEntropy
//   - Metrics: Accuracy
//   - Initialization: He, normal and zero init, with a reproducible seed
//   - Ready-made models: NewMLP, NewResMLP
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/fitloop/nn"
//	    "github.com/born-ml/fitloop/tensor"
//	)
//
//	func main() {
//	    model := nn.NewSequential(
//	        nn.NewLinear(784, 50, false),
//	        nn.NewReLU(),
//	        nn.NewLinear(50, 10, true),
//	    )
//	    loss := nn.NewCrossEntropy()
//
//	    pred := model.Forward(x)
//	    value := loss.Forward(pred, targets)
//	    loss.Backward()
//	    model.Backward()
//	}
//
// # Backward Protocol
//
// Forward remembers its input and output. Backward reads the gradient that
// the caller attached to that output, attaches the gradient of the input
// and accumulates the gradients of the parameters. Only one forward/backward
// pair may be in flight per module instance.
//
// # Residual Blocks
//
// ResLayer adds a branch of Linear/BatchNorm/ReLU layers to an identity
// skip path. The basic branch has two Linear layers, the bottleneck one has
// three around a narrower middle width. ResBlock follows a ResLayer with a
// ReLU.
package nn

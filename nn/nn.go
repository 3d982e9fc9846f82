// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/fitloop/internal/nn"
	"github.com/born-ml/fitloop/internal/tensor"
	"gonum.org/v1/gonum/mat"
)

// Module is implemented by every layer and composite.
type Module = nn.Module

// TrainingSetter is implemented by modules that behave differently in
// training and evaluation mode.
type TrainingSetter = nn.TrainingSetter

// Loss reduces predictions and class targets to a scalar.
type Loss = nn.Loss

// Parameter is a trainable matrix with its accumulated gradient.
type Parameter = nn.Parameter

// NewParameter creates a parameter. Frozen parameters (requiresGrad false)
// ignore gradient updates.
func NewParameter(name string, data *mat.Dense, requiresGrad bool) *Parameter {
	return nn.NewParameter(name, data, requiresGrad)
}

// CountParameters returns the number of scalars held by params.
func CountParameters(params []*Parameter) int {
	return nn.CountParameters(params)
}

// Initialization

// SeedInit makes every following weight initialization reproducible.
func SeedInit(seed uint64) {
	nn.SeedInit(seed)
}

// InitHe draws a [fanIn, fanOut] matrix from N(0, 2/fanIn).
func InitHe(fanIn, fanOut int) *mat.Dense {
	return nn.InitHe(fanIn, fanOut)
}

// InitNorm initializes output layers. It currently shares the InitHe scale.
func InitNorm(fanIn, fanOut int) *mat.Dense {
	return nn.InitNorm(fanIn, fanOut)
}

// Layers

// Linear is a fully connected layer: x @ W + b.
type Linear = nn.Linear

// NewLinear creates a Linear layer. end selects the initialization of a
// final layer (InitNorm) instead of a hidden one (InitHe).
//
// Example:
//
//	layer := nn.NewLinear(784, 128, false)
func NewLinear(inFeatures, outFeatures int, end bool) *Linear {
	return nn.NewLinear(inFeatures, outFeatures, end)
}

// NewLinearFrom creates a Linear layer from a [in, out] weight and a
// [1, out] bias.
func NewLinearFrom(weight, bias *mat.Dense, requiresGrad bool) *Linear {
	return nn.NewLinearFrom(weight, bias, requiresGrad)
}

// ReLU is the shifted max(x, 0) - 0.5 activation.
type ReLU = nn.ReLU

// NewReLU creates a ReLU activation.
func NewReLU() *ReLU {
	return nn.NewReLU()
}

// Identity passes its input through unchanged.
type Identity = nn.Identity

// NewIdentity creates an Identity module.
func NewIdentity() *Identity {
	return nn.NewIdentity()
}

// BatchNormConfig configures a BatchNorm layer.
type BatchNormConfig = nn.BatchNormConfig

// BatchNorm normalizes every feature over the batch.
type BatchNorm = nn.BatchNorm

// NewBatchNorm creates a BatchNorm over the given number of features.
//
// Example:
//
//	bn := nn.NewBatchNorm(50, nn.BatchNormConfig{Momentum: 0.1})
func NewBatchNorm(features int, config BatchNormConfig) *BatchNorm {
	return nn.NewBatchNorm(features, config)
}

// Composites

// Sequential chains modules, each output feeding the next module.
type Sequential = nn.Sequential

// NewSequential creates a Sequential container in training mode.
func NewSequential(modules ...Module) *Sequential {
	return nn.NewSequential(modules...)
}

// SubModel wraps a Sequential so it can be nested as a single layer.
type SubModel = nn.SubModel

// NewSubModel wraps inner.
func NewSubModel(inner *Sequential) *SubModel {
	return nn.NewSubModel(inner)
}

// ResLayer sums a residual branch and an identity skip path.
type ResLayer = nn.ResLayer

// NewResLayer creates a ResLayer with a basic or a bottleneck branch.
// in and out must match.
func NewResLayer(in, out int, bottleneck bool) *ResLayer {
	return nn.NewResLayer(in, out, bottleneck)
}

// ResBlock is a ResLayer followed by a ReLU.
type ResBlock = nn.ResBlock

// NewResBlock creates a ResBlock.
func NewResBlock(in, out int, bottleneck bool) *ResBlock {
	return nn.NewResBlock(in, out, bottleneck)
}

// Models

// NewMLP returns Linear → ReLU → Linear.
func NewMLP(in, hidden, out int) *Sequential {
	return nn.NewMLP(in, hidden, out)
}

// NewResMLP returns a stem, blocks ResBlocks of the given width and a
// linear head.
func NewResMLP(in, width, blocks, out int, bottleneck bool) *Sequential {
	return nn.NewResMLP(in, width, blocks, out, bottleneck)
}

// Loss and metrics

// CrossEntropy is the softmax cross-entropy loss averaged over the batch.
type CrossEntropy = nn.CrossEntropy

// NewCrossEntropy creates a CrossEntropy loss.
func NewCrossEntropy() *CrossEntropy {
	return nn.NewCrossEntropy()
}

// Metric scores predictions against class targets.
type Metric = nn.Metric

// AccuracyMetric measures the fraction of correct argmax predictions.
var AccuracyMetric = nn.AccuracyMetric

// Accuracy returns the fraction of rows of pred whose argmax is the target.
func Accuracy(pred *tensor.Tensor, target []int) float64 {
	return nn.Accuracy(pred, target)
}

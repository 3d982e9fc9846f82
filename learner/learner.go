// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package learner provides the training loop and its callbacks.
//
// # Overview
//
// A Learner runs Fit over a DataBunch with a model, a loss and an
// optimizer. Callbacks hook into every stage of the loop, read its state
// from the Learner fields and return a Signal to continue, skip or cancel
// part of the training.
//
// # Basic Usage
//
//	model := nn.NewMLP(bunch.NumFeatures(), 50, bunch.NumClasses())
//	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 1e-3})
//	l := learner.New(bunch, model, nn.NewCrossEntropy(), opt, learner.Config{},
//	    learner.NewStatsLogging(),
//	    learner.NewAccuracyStopper(5, true),
//	)
//	l.Fit(20)
//
// # Cancellation
//
// CancelBatch skips the rest of a batch, CancelEpoch the rest of a pass and
// CancelTrain the rest of the fit; each one fires its matching after-cancel
// hook. AfterFit always runs once the fit started.
package learner

import (
	"io"

	"github.com/born-ml/fitloop/internal/data"
	"github.com/born-ml/fitloop/internal/learner"
	"github.com/born-ml/fitloop/internal/nn"
	"github.com/born-ml/fitloop/internal/optim"
)

// Learner runs the training loop.
type Learner = learner.Learner

// Model is a trainable module with a train/eval mode, such as nn.Sequential.
type Model = learner.Model

// Config contains configuration for New.
type Config = learner.Config

// New creates a Learner. TrainEval is always installed.
func New(bunch *data.DataBunch, model Model, lossFn nn.Loss, opt optim.Optimizer, config Config, callbacks ...Callback) *Learner {
	return learner.New(bunch, model, lossFn, opt, config, callbacks...)
}

// Hooks and signals

// Hook names a point of the training loop.
type Hook = learner.Hook

// Signal steers the training loop.
type Signal = learner.Signal

// Hooks.
const (
	BeforeFit        = learner.BeforeFit
	BeforeEpoch      = learner.BeforeEpoch
	BeforeTrain      = learner.BeforeTrain
	BeforeValid      = learner.BeforeValid
	AfterEpoch       = learner.AfterEpoch
	AfterFit         = learner.AfterFit
	BeforeBatch      = learner.BeforeBatch
	AfterPred        = learner.AfterPred
	AfterLoss        = learner.AfterLoss
	AfterLossBack    = learner.AfterLossBack
	AfterModelBack   = learner.AfterModelBack
	AfterStep        = learner.AfterStep
	AfterBatch       = learner.AfterBatch
	AfterCancelBatch = learner.AfterCancelBatch
	AfterCancelEpoch = learner.AfterCancelEpoch
	AfterCancelTrain = learner.AfterCancelTrain
)

// Signals.
const (
	Continue    = learner.Continue
	Halt        = learner.Halt
	CancelBatch = learner.CancelBatch
	CancelEpoch = learner.CancelEpoch
	CancelTrain = learner.CancelTrain
)

// Callbacks

// Callback observes and steers the training loop.
type Callback = learner.Callback

// BaseCallback implements every hook as a no-op; embed it in callbacks.
type BaseCallback = learner.BaseCallback

// TrainEval switches the model between training and evaluation mode.
type TrainEval = learner.TrainEval

// EpochLogger logs the start of every epoch.
type EpochLogger = learner.EpochLogger

// TableLogger receives rows of a progress table.
type TableLogger = learner.TableLogger

// KlogTable logs table rows through klog.
type KlogTable = learner.KlogTable

// AvgStats averages loss and metrics over a pass.
type AvgStats = learner.AvgStats

// NewAvgStats creates an AvgStats for the training or validation pass.
func NewAvgStats(metrics []nn.Metric, training bool) *AvgStats {
	return learner.NewAvgStats(metrics, training)
}

// StatsLogging logs averaged loss and metrics after every epoch.
type StatsLogging = learner.StatsLogging

// NewStatsLogging creates a StatsLogging, accuracy by default.
func NewStatsLogging(metrics ...nn.Metric) *StatsLogging {
	return learner.NewStatsLogging(metrics...)
}

// Recorder keeps per-batch losses and hyperparameters, and plots them.
type Recorder = learner.Recorder

// NewRecorder creates a Recorder, the learning rate by default.
func NewRecorder(paramNames ...string) *Recorder {
	return learner.NewRecorder(paramNames...)
}

// ParamScheduler sets a hyperparameter from a schedule before every batch.
type ParamScheduler = learner.ParamScheduler

// NewParamScheduler creates a ParamScheduler.
//
// Example:
//
//	sched := learner.NewParamScheduler(optim.LearningRate, optim.SchedCos(1e-2, 1e-4))
func NewParamScheduler(name string, sched optim.SchedFn) *ParamScheduler {
	return learner.NewParamScheduler(name, sched)
}

// LearningRateSearch sweeps the learning rate exponentially until the loss
// diverges.
type LearningRateSearch = learner.LearningRateSearch

// NewLearningRateSearch creates a LearningRateSearch from 1e-4 to 1.
func NewLearningRateSearch() *LearningRateSearch {
	return learner.NewLearningRateSearch()
}

// ItersStopper cancels training after a number of iterations.
type ItersStopper = learner.ItersStopper

// NewItersStopper creates an ItersStopper.
func NewItersStopper(endIter int) *ItersStopper {
	return learner.NewItersStopper(endIter)
}

// EpochsStopper cancels training after a number of epochs.
type EpochsStopper = learner.EpochsStopper

// NewEpochsStopper creates an EpochsStopper.
func NewEpochsStopper(endEpoch int) *EpochsStopper {
	return learner.NewEpochsStopper(endEpoch)
}

// AccuracyStopper cancels training when validation accuracy stops improving.
type AccuracyStopper = learner.AccuracyStopper

// NewAccuracyStopper creates an AccuracyStopper, patience defaults to 5 if <= 0.
func NewAccuracyStopper(patience int, verbose bool) *AccuracyStopper {
	return learner.NewAccuracyStopper(patience, verbose)
}

// ProgressViewer shows progress bars and the logged table.
type ProgressViewer = learner.ProgressViewer

// NewProgressViewer creates a ProgressViewer writing to out, stderr if nil.
func NewProgressViewer(out io.Writer) *ProgressViewer {
	return learner.NewProgressViewer(out)
}

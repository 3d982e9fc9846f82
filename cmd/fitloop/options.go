package main

import (
	"github.com/born-ml/fitloop/internal/learner"
	"github.com/born-ml/fitloop/internal/nn"
	"github.com/born-ml/fitloop/internal/optim"
	"github.com/pkg/errors"
)

// buildModel creates the named model for in features and out classes.
func buildModel(name string, in, hidden, blocks int, bottleneck bool, out int) (*nn.Sequential, error) {
	switch name {
	case "mlp":
		return nn.NewMLP(in, hidden, out), nil
	case "resmlp":
		return nn.NewResMLP(in, hidden, blocks, out, bottleneck), nil
	}
	return nil, errors.Errorf("unknown model %q, please use 'mlp' or 'resmlp'", name)
}

// buildOptimizer creates the named optimizer over params.
func buildOptimizer(name string, params []*nn.Parameter, lr, wd float64) (optim.Optimizer, error) {
	switch name {
	case "sgd":
		return optim.NewStatelessOpt(params, []optim.Stepper{optim.L2Reg{}, optim.SGDStep{}},
			optim.Hypers{optim.LearningRate: lr, optim.WeightDecay: wd}), nil
	case "momentum":
		return optim.NewMomentumSGD(params, optim.MomentumConfig{LR: lr, WeightDecay: wd}), nil
	case "adam":
		return optim.NewAdam(params, optim.AdamConfig{LR: lr, WeightDecay: wd}), nil
	case "lamb":
		return optim.NewLAMB(params, optim.LAMBConfig{LR: lr, WeightDecay: wd}), nil
	}
	return nil, errors.Errorf("unknown optimizer %q, please use 'sgd', 'momentum', 'adam' or 'lamb'", name)
}

// buildSchedule returns the learning rate scheduler for name peaking at lr,
// nil for "none".
func buildSchedule(name string, lr float64) (*learner.ParamScheduler, error) {
	var sched optim.SchedFn
	switch name {
	case "none", "":
		return nil, nil
	case "cos":
		sched = optim.SchedCos(lr, lr/100)
	case "onecycle":
		sched = optim.CombineScheds(
			[]float64{0.3, 0.7},
			[]optim.SchedFn{optim.SchedCos(lr/25, lr), optim.SchedCos(lr, lr/1e5)},
		)
	default:
		return nil, errors.Errorf("unknown schedule %q, please use 'none', 'cos' or 'onecycle'", name)
	}
	return learner.NewParamScheduler(optim.LearningRate, sched), nil
}

package learner

import (
	"fmt"
	"math"

	"github.com/born-ml/fitloop/internal/optim"
	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"
)

// hyperGroups returns the live hyperparameter groups of the optimizer of l.
func hyperGroups(l *Learner, who string) []optim.Hypers {
	opt, ok := l.Opt.(optim.HyperOptimizer)
	if !ok {
		exceptions.Panicf("%s: optimizer %T has no adjustable hyperparameters", who, l.Opt)
	}
	return opt.HyperGroups()
}

// passPosition returns the progress through the current pass, in [0, 1).
func passPosition(l *Learner) float64 {
	if l.Iters == 0 {
		return 0
	}
	return float64(l.ItersCount) / float64(l.Iters)
}

// ParamScheduler sets a hyperparameter of every group before each training
// batch, following Sched over the position in the current epoch.
type ParamScheduler struct {
	BaseCallback
	Name  string
	Sched optim.SchedFn
}

// NewParamScheduler creates a ParamScheduler for the named hyperparameter.
func NewParamScheduler(name string, sched optim.SchedFn) *ParamScheduler {
	return &ParamScheduler{Name: name, Sched: sched}
}

func (p *ParamScheduler) BeforeFit(l *Learner) Signal {
	hyperGroups(l, "ParamScheduler")
	return Continue
}

func (p *ParamScheduler) BeforeBatch(l *Learner) Signal {
	if !l.InTrain() {
		return Continue
	}
	value := p.Sched(passPosition(l))
	for _, hp := range hyperGroups(l, "ParamScheduler") {
		hp[p.Name] = value
	}
	return Continue
}

func (p *ParamScheduler) String() string {
	return fmt.Sprintf("ParamScheduler(%s)", p.Name)
}

// LearningRateSearch grows the learning rate exponentially from MinLR to
// MaxLR over every training pass, and cancels training after MaxIter
// batches or once the loss exceeds ten times the best loss seen.
//
// Pair it with a Recorder to plot loss against learning rate.
type LearningRateSearch struct {
	BaseCallback
	MaxIter int     // (default: 1000)
	MinLR   float64 // (default: 1e-4)
	MaxLR   float64 // (default: 1)

	bestLoss float64
}

// NewLearningRateSearch creates a LearningRateSearch with the default range.
func NewLearningRateSearch() *LearningRateSearch {
	return &LearningRateSearch{MaxIter: 1000, MinLR: 1e-4, MaxLR: 1}
}

func (s *LearningRateSearch) BeforeFit(l *Learner) Signal {
	if s.MinLR <= 0 || s.MaxLR < s.MinLR || s.MaxIter <= 0 {
		exceptions.Panicf("LearningRateSearch: invalid range %g..%g over %d iterations", s.MinLR, s.MaxLR, s.MaxIter)
	}
	hyperGroups(l, "LearningRateSearch")
	s.bestLoss = math.Inf(1)
	return Continue
}

func (s *LearningRateSearch) BeforeBatch(l *Learner) Signal {
	if !l.InTrain() {
		return Continue
	}
	lr := s.MinLR * math.Pow(s.MaxLR/s.MinLR, passPosition(l))
	for _, hp := range hyperGroups(l, "LearningRateSearch") {
		hp[optim.LearningRate] = lr
	}
	return Continue
}

func (s *LearningRateSearch) AfterStep(l *Learner) Signal {
	if l.ItersCount >= s.MaxIter || l.Loss > s.bestLoss*10 {
		klog.V(1).Infof("LearningRateSearch: stopping at iteration %d, loss %g (best %g)", l.ItersCount, l.Loss, s.bestLoss)
		return CancelTrain
	}
	s.bestLoss = min(s.bestLoss, l.Loss)
	return Continue
}

// BestLoss returns the lowest training loss seen by the search.
func (s *LearningRateSearch) BestLoss() float64 {
	return s.bestLoss
}

func (s *LearningRateSearch) String() string { return "LearningRateSearch" }

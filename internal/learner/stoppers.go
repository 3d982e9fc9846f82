package learner

import (
	"fmt"

	"github.com/born-ml/fitloop/internal/nn"
	"k8s.io/klog/v2"
)

// ItersStopper cancels training once a training pass reaches EndIter
// batches.
type ItersStopper struct {
	BaseCallback
	EndIter int
}

// NewItersStopper creates an ItersStopper, endIter defaults to 10 if <= 0.
func NewItersStopper(endIter int) *ItersStopper {
	if endIter <= 0 {
		endIter = 10
	}
	return &ItersStopper{EndIter: endIter}
}

func (s *ItersStopper) AfterStep(l *Learner) Signal {
	klog.V(2).Infof("iteration %d/%d", l.ItersCount, l.Iters)
	if l.ItersCount >= s.EndIter {
		return CancelTrain
	}
	return Continue
}

func (s *ItersStopper) AfterCancelTrain(l *Learner) Signal {
	klog.Infof("stopped after %d iterations of epoch %d", s.EndIter, l.Epoch)
	return Continue
}

func (s *ItersStopper) String() string {
	return fmt.Sprintf("ItersStopper(%d)", s.EndIter)
}

// EpochsStopper cancels training before epoch EndEpoch+1 starts.
type EpochsStopper struct {
	BaseCallback
	EndEpoch int
}

// NewEpochsStopper creates an EpochsStopper, endEpoch defaults to 10 if <= 0.
func NewEpochsStopper(endEpoch int) *EpochsStopper {
	if endEpoch <= 0 {
		endEpoch = 10
	}
	return &EpochsStopper{EndEpoch: endEpoch}
}

func (s *EpochsStopper) BeforeEpoch(l *Learner) Signal {
	if l.Epoch > s.EndEpoch {
		return CancelTrain
	}
	return Continue
}

func (s *EpochsStopper) AfterCancelTrain(*Learner) Signal {
	klog.Infof("stopped after %d epochs", s.EndEpoch)
	return Continue
}

func (s *EpochsStopper) String() string {
	return fmt.Sprintf("EpochsStopper(%d)", s.EndEpoch)
}

// AccuracyStopper cancels training when the validation accuracy has not
// improved for more than Patience epochs.
type AccuracyStopper struct {
	BaseCallback
	Patience int
	Verbose  bool

	stats  *AvgStats
	best   float64
	waited int
}

// NewAccuracyStopper creates an AccuracyStopper, patience defaults to 5 if <= 0.
func NewAccuracyStopper(patience int, verbose bool) *AccuracyStopper {
	if patience <= 0 {
		patience = 5
	}
	return &AccuracyStopper{
		Patience: patience,
		Verbose:  verbose,
		stats:    NewAvgStats([]nn.Metric{nn.AccuracyMetric}, false),
	}
}

func (s *AccuracyStopper) BeforeFit(*Learner) Signal {
	s.best, s.waited = 0, 0
	return Continue
}

func (s *AccuracyStopper) BeforeEpoch(*Learner) Signal {
	s.stats.Reset()
	return Continue
}

func (s *AccuracyStopper) AfterLoss(l *Learner) Signal {
	if !l.InTrain() {
		s.stats.Accumulate(l)
	}
	return Continue
}

func (s *AccuracyStopper) AfterEpoch(l *Learner) Signal {
	acc := s.stats.Averages()[1]
	if s.Verbose {
		klog.Infof("epoch %d: valid accuracy %.4f (best %.4f, waited %d)", l.Epoch, acc, s.best, s.waited)
	}
	s.waited++
	if acc > s.best {
		s.best, s.waited = acc, 0
	}
	if s.waited > s.Patience {
		return CancelTrain
	}
	return Continue
}

func (s *AccuracyStopper) AfterCancelTrain(l *Learner) Signal {
	klog.Infof("no accuracy improvement in %d epochs, stopped at epoch %d with best %.4f", s.waited, l.Epoch, s.best)
	return Continue
}

// Best returns the best validation accuracy seen.
func (s *AccuracyStopper) Best() float64 {
	return s.best
}

func (s *AccuracyStopper) String() string {
	return fmt.Sprintf("AccuracyStopper(patience=%d)", s.Patience)
}

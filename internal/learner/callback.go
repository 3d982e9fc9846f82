package learner

import (
	"fmt"

	"k8s.io/klog/v2"
)

// Callback observes and steers the training loop.
//
// Every method corresponds to the Hook of the same name and receives the
// learner, whose exported fields hold the state of the loop. Embed
// BaseCallback to only implement the hooks you need.
//
// Callbacks run in ascending Order; ties keep their registration order.
type Callback interface {
	Order() int

	BeforeFit(l *Learner) Signal
	BeforeEpoch(l *Learner) Signal
	BeforeTrain(l *Learner) Signal
	BeforeValid(l *Learner) Signal
	AfterEpoch(l *Learner) Signal
	AfterFit(l *Learner) Signal
	BeforeBatch(l *Learner) Signal
	AfterPred(l *Learner) Signal
	AfterLoss(l *Learner) Signal
	AfterLossBack(l *Learner) Signal
	AfterModelBack(l *Learner) Signal
	AfterStep(l *Learner) Signal
	AfterBatch(l *Learner) Signal
	AfterCancelBatch(l *Learner) Signal
	AfterCancelEpoch(l *Learner) Signal
	AfterCancelTrain(l *Learner) Signal
}

// BaseCallback implements every hook as a no-op returning Continue, with
// order 0.
type BaseCallback struct{}

func (BaseCallback) Order() int { return 0 }
func (BaseCallback) BeforeFit(*Learner) Signal { return Continue }
func (BaseCallback) BeforeEpoch(*Learner) Signal { return Continue }
func (BaseCallback) BeforeTrain(*Learner) Signal { return Continue }
func (BaseCallback) BeforeValid(*Learner) Signal { return Continue }
func (BaseCallback) AfterEpoch(*Learner) Signal { return Continue }
func (BaseCallback) AfterFit(*Learner) Signal { return Continue }
func (BaseCallback) BeforeBatch(*Learner) Signal { return Continue }
func (BaseCallback) AfterPred(*Learner) Signal { return Continue }
func (BaseCallback) AfterLoss(*Learner) Signal { return Continue }
func (BaseCallback) AfterLossBack(*Learner) Signal { return Continue }
func (BaseCallback) AfterModelBack(*Learner) Signal { return Continue }
func (BaseCallback) AfterStep(*Learner) Signal { return Continue }
func (BaseCallback) AfterBatch(*Learner) Signal { return Continue }
func (BaseCallback) AfterCancelBatch(*Learner) Signal { return Continue }
func (BaseCallback) AfterCancelEpoch(*Learner) Signal { return Continue }
func (BaseCallback) AfterCancelTrain(*Learner) Signal { return Continue }

// invoke runs the method of cb matching hook.
func invoke(cb Callback, hook Hook, l *Learner) Signal {
	switch hook {
	case BeforeFit:
		return cb.BeforeFit(l)
	case BeforeEpoch:
		return cb.BeforeEpoch(l)
	case BeforeTrain:
		return cb.BeforeTrain(l)
	case BeforeValid:
		return cb.BeforeValid(l)
	case AfterEpoch:
		return cb.AfterEpoch(l)
	case AfterFit:
		return cb.AfterFit(l)
	case BeforeBatch:
		return cb.BeforeBatch(l)
	case AfterPred:
		return cb.AfterPred(l)
	case AfterLoss:
		return cb.AfterLoss(l)
	case AfterLossBack:
		return cb.AfterLossBack(l)
	case AfterModelBack:
		return cb.AfterModelBack(l)
	case AfterStep:
		return cb.AfterStep(l)
	case AfterBatch:
		return cb.AfterBatch(l)
	case AfterCancelBatch:
		return cb.AfterCancelBatch(l)
	case AfterCancelEpoch:
		return cb.AfterCancelEpoch(l)
	case AfterCancelTrain:
		return cb.AfterCancelTrain(l)
	}
	panic(fmt.Sprintf("learner: unknown hook %v", hook))
}

// TrainEval switches the model to training mode before the training pass
// and to evaluation mode before the validation pass. New always installs it.
type TrainEval struct {
	BaseCallback
}

func (TrainEval) BeforeTrain(l *Learner) Signal {
	l.Model.SetTraining(true)
	return Continue
}

func (TrainEval) BeforeValid(l *Learner) Signal {
	l.Model.SetTraining(false)
	return Continue
}

func (TrainEval) String() string { return "TrainEval" }

// EpochLogger logs the epoch number at the start of every epoch.
type EpochLogger struct {
	BaseCallback
}

func (EpochLogger) BeforeEpoch(l *Learner) Signal {
	klog.Infof("Epoch %d/%d", l.Epoch, l.NumEpochs)
	return Continue
}

func (EpochLogger) String() string { return "EpochLogger" }

// Package learner implements the training loop and its callback system.
//
// A Learner bundles the data, a model, a loss function and an optimizer.
// Fit runs the epochs, firing hooks on every registered Callback at fixed
// points of the loop. Callbacks read the loop state from the exported
// fields of the Learner and steer it through the Signal they return.
package learner

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/born-ml/fitloop/internal/data"
	"github.com/born-ml/fitloop/internal/nn"
	"github.com/born-ml/fitloop/internal/optim"
	"github.com/born-ml/fitloop/internal/tensor"
	"github.com/gomlx/exceptions"
	"github.com/google/uuid"
	"k8s.io/klog/v2"
)

// Model is a trainable module with a train/eval mode.
type Model interface {
	nn.Module
	nn.TrainingSetter
	Training() bool
}

// Config holds configuration for New.
type Config struct {
	RunName string // Prefix of the run identifier (default: "fit")
}

// Learner runs the training loop.
//
// The fields below the components form the loop state. They are valid
// during Fit and describe the latest batch, pass and epoch.
type Learner struct {
	Data   *data.DataBunch
	Model  Model
	LossFn nn.Loss
	Opt    optim.Optimizer

	RunName string
	RunID   string // Set at the start of every Fit

	XBatch *tensor.Tensor // Inputs of the current batch
	YBatch []int          // Targets of the current batch
	Pred   *tensor.Tensor // Model output for XBatch
	Loss   float64        // Loss of the current batch

	Epoch      int // Current epoch, from 1
	NumEpochs  int // Number of epochs requested from Fit
	ItersCount int // Batches completed in the current pass
	Iters      int // Batches in the current pass

	// Logger receives tabular progress lines, see StatsLogging. Callbacks
	// may swap it during a fit; Fit puts the previous one back on return.
	Logger TableLogger

	callbacks []Callback
}

// New creates a Learner. TrainEval is always installed; callbacks are sorted
// by Order, ties keeping the given order.
func New(db *data.DataBunch, model Model, lossFn nn.Loss, opt optim.Optimizer, config Config, callbacks ...Callback) *Learner {
	if db == nil || model == nil || lossFn == nil || opt == nil {
		exceptions.Panicf("learner.New: data, model, loss function and optimizer are all required")
	}
	if config.RunName == "" {
		config.RunName = "fit"
	}
	all := append([]Callback{TrainEval{}}, callbacks...)
	slices.SortStableFunc(all, func(a, b Callback) int {
		return cmp.Compare(a.Order(), b.Order())
	})
	return &Learner{
		Data:      db,
		Model:     model,
		LossFn:    lossFn,
		Opt:       opt,
		RunName:   config.RunName,
		Logger:    KlogTable{},
		callbacks: all,
	}
}

// Callbacks returns the registered callbacks in execution order.
func (l *Learner) Callbacks() []Callback {
	return slices.Clone(l.callbacks)
}

// InTrain reports whether the loop is in a training pass.
func (l *Learner) InTrain() bool {
	return l.Model.Training()
}

// call fires hook on every callback, stopping at the first one that does not
// return Continue.
func (l *Learner) call(hook Hook) Signal {
	for _, cb := range l.callbacks {
		if sig := invoke(cb, hook, l); sig != Continue {
			klog.V(2).Infof("%s: %T returned %s", hook, cb, sig)
			return sig
		}
	}
	return Continue
}

// Fit trains for numEpochs epochs, each one a training pass followed by a
// validation pass.
//
// AfterFit fires whenever BeforeFit let the fit start, including after a
// CancelTrain.
func (l *Learner) Fit(numEpochs int) {
	if numEpochs <= 0 {
		exceptions.Panicf("learner.Fit: numEpochs must be positive, got %d", numEpochs)
	}
	defer func(logger TableLogger) { l.Logger = logger }(l.Logger)
	l.NumEpochs = numEpochs
	l.Epoch = 0
	l.RunID = fmt.Sprintf("%s-%s", l.RunName, uuid.NewString()[:8])
	klog.V(1).Infof("starting run %s: %d epochs of %d batches", l.RunID, numEpochs, l.Data.Len())

	switch l.call(BeforeFit) {
	case Continue:
	case CancelTrain:
		l.call(AfterCancelTrain)
		l.call(AfterFit)
		return
	default:
		return
	}

	if l.allEpochs() == CancelTrain {
		l.call(AfterCancelTrain)
	}
	l.call(AfterFit)
}

// allEpochs returns CancelTrain if training was cancelled, Continue otherwise.
func (l *Learner) allEpochs() Signal {
	for epoch := 1; epoch <= l.NumEpochs; epoch++ {
		l.Epoch = epoch
		switch l.oneEpoch() {
		case Halt:
			return Continue
		case CancelTrain:
			return CancelTrain
		case CancelEpoch:
			if l.call(AfterCancelEpoch) == CancelTrain {
				return CancelTrain
			}
		}
	}
	return Continue
}

// oneEpoch runs one training and one validation pass. CancelBatch returned
// by an epoch level hook has no batch to cancel and is ignored.
func (l *Learner) oneEpoch() Signal {
	steps := []func() Signal{
		func() Signal { return l.call(BeforeEpoch) },
		func() Signal { return l.call(BeforeTrain) },
		l.allBatches,
		func() Signal { return l.call(BeforeValid) },
		l.allBatches,
		func() Signal { return l.call(AfterEpoch) },
	}
	for _, step := range steps {
		if sig := step(); sig != Continue && sig != CancelBatch {
			return sig
		}
	}
	return Continue
}

// allBatches runs one pass over the training loader when the model is in
// training mode, over the validation loader otherwise.
//
// A cancelled pass fires AfterCancelEpoch and returns Continue, so the
// epoch proceeds with its next phase.
func (l *Learner) allBatches() Signal {
	dl := l.Data.Valid
	if l.InTrain() {
		dl = l.Data.Train
	}
	l.ItersCount, l.Iters = 0, dl.Len()
	for batch := range dl.All() {
		sig := l.oneBatch(batch)
		if sig == Continue {
			l.ItersCount++
			sig = l.call(AfterBatch)
		}
		switch sig {
		case CancelEpoch:
			if l.call(AfterCancelEpoch) == CancelTrain {
				return CancelTrain
			}
			return Continue
		case CancelTrain:
			return CancelTrain
		}
	}
	return Continue
}

// oneBatch runs forward, loss and, in training mode, backward and the
// optimizer step on batch. Once backward has started the gradients are
// zeroed on return, after any AfterCancelBatch. It returns Continue unless
// the pass or the fit must stop.
func (l *Learner) oneBatch(batch data.Batch) Signal {
	l.XBatch, l.YBatch = tensor.New(batch.X), batch.Y

	if sig := l.call(BeforeBatch); sig != Continue {
		return l.endBatch(sig)
	}
	l.Pred = l.Model.Forward(l.XBatch)
	if sig := l.call(AfterPred); sig != Continue {
		return l.endBatch(sig)
	}
	l.Loss = l.LossFn.Forward(l.Pred, l.YBatch)
	if sig := l.call(AfterLoss); sig != Continue {
		return l.endBatch(sig)
	}
	if !l.InTrain() {
		return Continue
	}

	l.LossFn.Backward()
	// Gradients never outlive their batch, whichever hook ends it.
	defer l.Opt.ZeroGrad()
	if sig := l.call(AfterLossBack); sig != Continue {
		return l.endBatch(sig)
	}
	l.Model.Backward()
	if sig := l.call(AfterModelBack); sig != Continue {
		return l.endBatch(sig)
	}
	l.Opt.Step()
	if sig := l.call(AfterStep); sig != Continue {
		return l.endBatch(sig)
	}
	return Continue
}

// endBatch handles a signal returned by a batch hook.
func (l *Learner) endBatch(sig Signal) Signal {
	switch sig {
	case Halt:
		return Continue
	case CancelBatch:
		switch after := l.call(AfterCancelBatch); after {
		case CancelEpoch, CancelTrain:
			return after
		}
		return Continue
	}
	return sig
}

func (l *Learner) String() string {
	names := make([]string, len(l.callbacks))
	for i, cb := range l.callbacks {
		names[i] = callbackName(cb)
	}
	parts := []string{
		"(Learner)",
		"    " + strings.ReplaceAll(l.Data.String(), "\n", "\n    "),
		"    " + strings.ReplaceAll(fmt.Sprint(l.Model), "\n", "\n    "),
		"    " + fmt.Sprint(l.LossFn),
		"    " + fmt.Sprint(l.Opt),
		"    (Callbacks) [" + strings.Join(names, ", ") + "]",
	}
	return strings.Join(parts, "\n")
}

func callbackName(cb Callback) string {
	if st, ok := cb.(fmt.Stringer); ok {
		return st.String()
	}
	name := fmt.Sprintf("%T", cb)
	return name[strings.LastIndex(name, ".")+1:]
}

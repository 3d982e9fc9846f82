package learner

import "fmt"

// Hook names a point of the training loop where callbacks run.
type Hook int

// Hooks in the order they fire during a normal epoch. The cancel hooks only
// fire after the matching cancellation.
const (
	BeforeFit Hook = iota
	BeforeEpoch
	BeforeTrain
	BeforeValid
	AfterEpoch
	AfterFit
	BeforeBatch
	AfterPred
	AfterLoss
	AfterLossBack
	AfterModelBack
	AfterStep
	AfterBatch
	AfterCancelBatch
	AfterCancelEpoch
	AfterCancelTrain
	numHooks
)

var hookNames = [numHooks]string{
	"before_fit", "before_epoch", "before_train", "before_valid", "after_epoch", "after_fit",
	"before_batch", "after_pred", "after_loss", "after_loss_back", "after_model_back",
	"after_step", "after_batch", "after_cancel_batch", "after_cancel_epoch", "after_cancel_train",
}

func (h Hook) String() string {
	if h < 0 || h >= numHooks {
		return fmt.Sprintf("Hook(%d)", int(h))
	}
	return hookNames[h]
}

// Signal is what a callback returns to steer the training loop.
type Signal int

const (
	// Continue lets the loop proceed.
	Continue Signal = iota

	// Halt stops the current phase quietly: the rest of the batch is skipped
	// when returned by a batch hook, the whole fit when returned by a fit or
	// epoch hook. No cancel hook fires.
	Halt

	// CancelBatch skips the rest of the current batch and fires
	// AfterCancelBatch. The loop moves on to AfterBatch.
	CancelBatch

	// CancelEpoch skips the rest of the current pass over a loader and fires
	// AfterCancelEpoch.
	CancelEpoch

	// CancelTrain stops the fit and fires AfterCancelTrain. AfterFit still runs.
	CancelTrain
)

func (s Signal) String() string {
	switch s {
	case Continue:
		return "Continue"
	case Halt:
		return "Halt"
	case CancelBatch:
		return "CancelBatch"
	case CancelEpoch:
		return "CancelEpoch"
	case CancelTrain:
		return "CancelTrain"
	}
	return fmt.Sprintf("Signal(%d)", int(s))
}

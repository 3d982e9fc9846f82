package learner_test

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/born-ml/fitloop/internal/data"
	"github.com/born-ml/fitloop/internal/learner"
	"github.com/born-ml/fitloop/internal/nn"
	"github.com/born-ml/fitloop/internal/optim"
	"github.com/born-ml/fitloop/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const (
	trainBatches = 10 // 90 training examples in batches of 9
	validBatches = 2  // 30 validation examples in batches of 18
)

func blobsBunch() *data.DataBunch {
	ds := data.MakeBlobs(data.BlobsConfig{Samples: 120, Features: 2, Classes: 3, Seed: 3})
	train, valid := data.SplitValid(ds, 0.25, 11)
	return data.NewDataBunch(train, valid, data.Config{BatchSize: 9, Seed: 5})
}

func newLearner(lr float64, callbacks ...learner.Callback) *learner.Learner {
	nn.SeedInit(7)
	model := nn.NewMLP(2, 16, 3)
	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: lr})
	return learner.New(blobsBunch(), model, nn.NewCrossEntropy(), opt, learner.Config{RunName: "test"}, callbacks...)
}

// spy records every hook it sees and lets a test react to them.
type spy struct {
	order  int
	events []learner.Hook
	react  func(h learner.Hook, l *learner.Learner) learner.Signal
}

func (s *spy) on(h learner.Hook, l *learner.Learner) learner.Signal {
	s.events = append(s.events, h)
	if s.react == nil {
		return learner.Continue
	}
	return s.react(h, l)
}

func (s *spy) count(h learner.Hook) int {
	n := 0
	for _, e := range s.events {
		if e == h {
			n++
		}
	}
	return n
}

func (s *spy) Order() int { return s.order }
func (s *spy) BeforeFit(l *learner.Learner) learner.Signal {
	return s.on(learner.BeforeFit, l)
}
func (s *spy) BeforeEpoch(l *learner.Learner) learner.Signal {
	return s.on(learner.BeforeEpoch, l)
}
func (s *spy) BeforeTrain(l *learner.Learner) learner.Signal {
	return s.on(learner.BeforeTrain, l)
}
func (s *spy) BeforeValid(l *learner.Learner) learner.Signal {
	return s.on(learner.BeforeValid, l)
}
func (s *spy) AfterEpoch(l *learner.Learner) learner.Signal {
	return s.on(learner.AfterEpoch, l)
}
func (s *spy) AfterFit(l *learner.Learner) learner.Signal {
	return s.on(learner.AfterFit, l)
}
func (s *spy) BeforeBatch(l *learner.Learner) learner.Signal {
	return s.on(learner.BeforeBatch, l)
}
func (s *spy) AfterPred(l *learner.Learner) learner.Signal {
	return s.on(learner.AfterPred, l)
}
func (s *spy) AfterLoss(l *learner.Learner) learner.Signal {
	return s.on(learner.AfterLoss, l)
}
func (s *spy) AfterLossBack(l *learner.Learner) learner.Signal {
	return s.on(learner.AfterLossBack, l)
}
func (s *spy) AfterModelBack(l *learner.Learner) learner.Signal {
	return s.on(learner.AfterModelBack, l)
}
func (s *spy) AfterStep(l *learner.Learner) learner.Signal {
	return s.on(learner.AfterStep, l)
}
func (s *spy) AfterBatch(l *learner.Learner) learner.Signal {
	return s.on(learner.AfterBatch, l)
}
func (s *spy) AfterCancelBatch(l *learner.Learner) learner.Signal {
	return s.on(learner.AfterCancelBatch, l)
}
func (s *spy) AfterCancelEpoch(l *learner.Learner) learner.Signal {
	return s.on(learner.AfterCancelEpoch, l)
}
func (s *spy) AfterCancelTrain(l *learner.Learner) learner.Signal {
	return s.on(learner.AfterCancelTrain, l)
}

type orderedCallback struct {
	learner.BaseCallback
	name  string
	order int
}

func (c orderedCallback) Order() int     { return c.order }
func (c orderedCallback) String() string { return c.name }

type captureTable struct {
	rows [][]string
}

func (c *captureTable) Log(cols []string) {
	c.rows = append(c.rows, cols)
}

func TestFit_HookSequence(t *testing.T) {
	s := &spy{}
	l := newLearner(0.01, s)
	l.Fit(1)

	trainBatch := []learner.Hook{learner.BeforeBatch, learner.AfterPred, learner.AfterLoss,
		learner.AfterLossBack, learner.AfterModelBack, learner.AfterStep, learner.AfterBatch}
	validBatch := []learner.Hook{learner.BeforeBatch, learner.AfterPred, learner.AfterLoss, learner.AfterBatch}

	want := []learner.Hook{learner.BeforeFit, learner.BeforeEpoch, learner.BeforeTrain}
	for range trainBatches {
		want = append(want, trainBatch...)
	}
	want = append(want, learner.BeforeValid)
	for range validBatches {
		want = append(want, validBatch...)
	}
	want = append(want, learner.AfterEpoch, learner.AfterFit)
	assert.Equal(t, want, s.events)

	assert.Equal(t, 1, l.Epoch)
	assert.Equal(t, validBatches, l.ItersCount)
	assert.False(t, l.Model.Training(), "validation leaves the model in eval mode")
	assert.True(t, strings.HasPrefix(l.RunID, "test-"))
}

func TestFit_CancelBatch(t *testing.T) {
	s := &spy{}
	s.react = func(h learner.Hook, l *learner.Learner) learner.Signal {
		if h == learner.AfterPred && l.InTrain() && l.ItersCount == 2 {
			return learner.CancelBatch
		}
		return learner.Continue
	}
	l := newLearner(0.01, s)
	l.Fit(1)

	assert.Equal(t, 1, s.count(learner.AfterCancelBatch))
	assert.Equal(t, trainBatches-1, s.count(learner.AfterLoss)-validBatches)
	assert.Equal(t, trainBatches-1, s.count(learner.AfterStep))
	assert.Equal(t, trainBatches+validBatches, s.count(learner.AfterBatch))
	assert.Equal(t, 1, s.count(learner.AfterFit))

	// The third batch stops right after its prediction.
	var third []learner.Hook
	batch := -1
	for _, h := range s.events {
		if h == learner.BeforeBatch {
			batch++
		}
		if batch == 2 {
			third = append(third, h)
		}
		if h == learner.AfterBatch && batch == 2 {
			break
		}
	}
	assert.Equal(t, []learner.Hook{learner.BeforeBatch, learner.AfterPred, learner.AfterCancelBatch, learner.AfterBatch}, third)
}

func TestFit_CancelEpoch(t *testing.T) {
	s := &spy{}
	s.react = func(h learner.Hook, l *learner.Learner) learner.Signal {
		if h == learner.BeforeBatch && l.InTrain() && l.ItersCount == 3 {
			return learner.CancelEpoch
		}
		return learner.Continue
	}
	l := newLearner(0.01, s)
	l.Fit(2)

	assert.Equal(t, 2, s.count(learner.AfterCancelEpoch))
	assert.Equal(t, 2*3, s.count(learner.AfterStep))
	assert.Equal(t, 2, s.count(learner.BeforeValid), "validation still runs")
	assert.Equal(t, 2, s.count(learner.AfterEpoch))
	assert.Equal(t, 0, s.count(learner.AfterCancelTrain))
}

func TestFit_CancelTrain(t *testing.T) {
	s := &spy{}
	s.react = func(h learner.Hook, l *learner.Learner) learner.Signal {
		if h == learner.AfterStep && l.Epoch == 2 && l.ItersCount == 1 {
			return learner.CancelTrain
		}
		return learner.Continue
	}
	l := newLearner(0.01, s)
	l.Fit(3)

	assert.Equal(t, 1, s.count(learner.AfterCancelTrain))
	assert.Equal(t, 1, s.count(learner.AfterFit))
	assert.Equal(t, 1, s.count(learner.AfterEpoch))
	assert.Equal(t, 2, s.count(learner.BeforeEpoch))
	assert.Equal(t, learner.AfterFit, s.events[len(s.events)-1])
	assert.Equal(t, learner.AfterCancelTrain, s.events[len(s.events)-2])
}

func TestFit_Halt(t *testing.T) {
	t.Run("BeforeFit", func(t *testing.T) {
		s := &spy{react: func(h learner.Hook, _ *learner.Learner) learner.Signal {
			if h == learner.BeforeFit {
				return learner.Halt
			}
			return learner.Continue
		}}
		newLearner(0.01, s).Fit(2)
		assert.Equal(t, []learner.Hook{learner.BeforeFit}, s.events)
	})

	t.Run("AfterEpoch", func(t *testing.T) {
		s := &spy{react: func(h learner.Hook, _ *learner.Learner) learner.Signal {
			if h == learner.AfterEpoch {
				return learner.Halt
			}
			return learner.Continue
		}}
		newLearner(0.01, s).Fit(3)
		assert.Equal(t, 1, s.count(learner.BeforeEpoch))
		assert.Equal(t, 1, s.count(learner.AfterFit))
		assert.Equal(t, 0, s.count(learner.AfterCancelTrain))
	})

	t.Run("BeforeBatch", func(t *testing.T) {
		s := &spy{react: func(h learner.Hook, l *learner.Learner) learner.Signal {
			if h == learner.BeforeBatch && l.InTrain() {
				return learner.Halt
			}
			return learner.Continue
		}}
		newLearner(0.01, s).Fit(1)
		assert.Equal(t, 0, s.count(learner.AfterPred)-validBatches)
		assert.Equal(t, trainBatches+validBatches, s.count(learner.AfterBatch))
	})
}

func TestFit_ShortCircuitsLaterCallbacks(t *testing.T) {
	first := &spy{order: -1, react: func(h learner.Hook, _ *learner.Learner) learner.Signal {
		if h == learner.AfterStep {
			return learner.CancelBatch
		}
		return learner.Continue
	}}
	second := &spy{order: 1}
	newLearner(0.01, first, second).Fit(1)

	assert.Equal(t, trainBatches, first.count(learner.AfterStep))
	assert.Equal(t, 0, second.count(learner.AfterStep))
	assert.Equal(t, trainBatches, second.count(learner.AfterCancelBatch))
}

func TestFit_GradientsClearedWhateverEndsTheBatch(t *testing.T) {
	checked, dirty := 0, 0
	s := &spy{react: func(h learner.Hook, l *learner.Learner) learner.Signal {
		if !l.InTrain() {
			return learner.Continue
		}
		switch h {
		case learner.AfterLoss:
			checked++
			for _, p := range l.Model.Parameters() {
				if g := p.Grad(); g != nil && mat.Norm(g, 1) != 0 {
					dirty++
				}
			}
		case learner.AfterModelBack:
			if l.ItersCount == 4 {
				return learner.Halt
			}
		case learner.AfterStep:
			return learner.CancelBatch
		}
		return learner.Continue
	}}
	newLearner(0.01, s).Fit(2)

	assert.Equal(t, 2*trainBatches, checked)
	assert.Equal(t, 2*(trainBatches-1), s.count(learner.AfterCancelBatch))
	assert.Zero(t, dirty, "no gradient carries over into the next batch")
}

func TestFit_BatchNormWithSingleRowLastBatch(t *testing.T) {
	ds := data.MakeBlobs(data.BlobsConfig{Samples: 13, Features: 2, Classes: 3, Seed: 3})
	train, valid := data.SplitValid(ds, 0.25, 11)
	require.Equal(t, 10, train.Len())
	bunch := data.NewDataBunch(train, valid, data.Config{BatchSize: 3, Seed: 5})

	nn.SeedInit(7)
	model := nn.NewResMLP(2, 8, 1, 3, false)
	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{})
	s := &spy{}
	l := learner.New(bunch, model, nn.NewCrossEntropy(), opt, learner.Config{}, s)
	require.NotPanics(t, func() { l.Fit(2) })

	assert.Equal(t, 2*4, s.count(learner.AfterStep))
	assert.False(t, math.IsNaN(l.Loss))
}

func TestCallbacks_Order(t *testing.T) {
	l := newLearner(0.01,
		orderedCallback{name: "five", order: 5},
		orderedCallback{name: "minus", order: -1},
		orderedCallback{name: "zero", order: 0},
		orderedCallback{name: "five-again", order: 5},
	)
	var names []string
	for _, cb := range l.Callbacks() {
		names = append(names, cb.(interface{ String() string }).String())
	}
	assert.Equal(t, []string{"minus", "TrainEval", "zero", "five", "five-again"}, names)
	assert.Contains(t, l.String(), "(Callbacks) [minus, TrainEval, zero, five, five-again]")
}

func TestFit_InvalidEpochs(t *testing.T) {
	assert.Panics(t, func() { newLearner(0.01).Fit(0) })
}

func TestStatsLogging(t *testing.T) {
	stats := learner.NewStatsLogging()
	table := &captureTable{}
	l := newLearner(0.05, stats)
	l.Logger = table
	l.Fit(5)

	require.Len(t, table.rows, 6)
	assert.Equal(t, []string{"epoch", "train_loss", "train_accuracy", "valid_loss", "valid_accuracy", "time"}, table.rows[0])
	assert.Equal(t, "1", table.rows[1][0])
	assert.Equal(t, "5", table.rows[5][0])
	assert.Regexp(t, `^\d\d:\d\d$`, table.rows[5][5])
	assert.Less(t, table.rows[5][1], table.rows[1][1], "training loss goes down")

	assert.Equal(t, 90, stats.Train.Count())
	assert.Equal(t, 30, stats.Valid.Count())
}

func TestAvgStats(t *testing.T) {
	half := nn.Metric{Name: "half", Fn: func(*tensor.Tensor, []int) float64 { return 0.5 }}
	stats := learner.NewAvgStats([]nn.Metric{half}, true)
	assert.Equal(t, []float64{0, 0}, stats.Averages())

	l := &learner.Learner{YBatch: []int{0, 1}, Loss: 1}
	stats.Accumulate(l)
	l.YBatch, l.Loss = []int{2}, 4
	stats.Accumulate(l)

	assert.Equal(t, 3, stats.Count())
	assert.InDelta(t, 2, stats.Loss(), 1e-12)
	assert.InDelta(t, 0.5, stats.Averages()[1], 1e-12)

	stats.Reset()
	assert.Equal(t, 0, stats.Count())
	assert.Equal(t, "train: no stats yet", stats.String())
}

func TestRecorder(t *testing.T) {
	rec := learner.NewRecorder()
	l := newLearner(0.02, rec)
	l.Fit(2)

	assert.Len(t, rec.Losses, 2*trainBatches)
	require.Len(t, rec.Params[optim.LearningRate], 2*trainBatches)
	assert.Equal(t, 0.02, rec.Params[optim.LearningRate][0])

	dir := t.TempDir()
	require.NoError(t, rec.PlotLosses(filepath.Join(dir, "loss.png")))
	require.NoError(t, rec.PlotParameter(optim.LearningRate, filepath.Join(dir, "lr.png")))
	info, err := os.Stat(filepath.Join(dir, "loss.png"))
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Error(t, rec.PlotParameter(optim.Mom+"_missing", filepath.Join(dir, "x.png")))
	assert.Error(t, learner.NewRecorder().PlotLosses(filepath.Join(dir, "empty.png")))
}

func TestRecorder_NeedsHyperOptimizer(t *testing.T) {
	model := nn.NewMLP(2, 4, 3)
	l := learner.New(blobsBunch(), model, nn.NewCrossEntropy(), optim.NewSGD(model.Parameters(), 0.1),
		learner.Config{}, learner.NewRecorder())
	assert.Panics(t, func() { l.Fit(1) })
}

func TestParamScheduler(t *testing.T) {
	rec := learner.NewRecorder()
	l := newLearner(0.01, learner.NewParamScheduler(optim.LearningRate, optim.SchedLin(0.1, 0.2)), rec)
	l.Fit(1)

	lrs := rec.Params[optim.LearningRate]
	require.Len(t, lrs, trainBatches)
	assert.InDelta(t, 0.1, lrs[0], 1e-12)
	assert.InDelta(t, 0.15, lrs[5], 1e-12)
	assert.InDelta(t, 0.19, lrs[9], 1e-12)
}

func TestLearningRateSearch(t *testing.T) {
	search := learner.NewLearningRateSearch()
	search.MaxIter = 5
	rec := learner.NewRecorder()
	s := &spy{order: -5}
	l := newLearner(0.01, s, search, rec)
	l.Fit(3)

	assert.Equal(t, 1, s.count(learner.AfterCancelTrain))
	assert.Equal(t, 6, s.count(learner.AfterStep))
	lrs := rec.Params[optim.LearningRate]
	require.Len(t, lrs, 5)
	assert.InDelta(t, 1e-4, lrs[0], 1e-12)
	for i := 1; i < len(lrs); i++ {
		assert.Greater(t, lrs[i], lrs[i-1])
	}
	assert.Less(t, search.BestLoss(), 10.0)
}

func TestItersStopper(t *testing.T) {
	s := &spy{order: -5}
	newLearner(0.01, s, learner.NewItersStopper(3)).Fit(2)

	assert.Equal(t, 4, s.count(learner.AfterStep))
	assert.Equal(t, 0, s.count(learner.BeforeValid))
	assert.Equal(t, 1, s.count(learner.AfterCancelTrain))
	assert.Equal(t, 1, s.count(learner.AfterFit))
}

func TestEpochsStopper(t *testing.T) {
	s := &spy{order: -5}
	newLearner(0.01, s, learner.NewEpochsStopper(2)).Fit(5)

	assert.Equal(t, 3, s.count(learner.BeforeEpoch))
	assert.Equal(t, 2, s.count(learner.AfterEpoch))
	assert.Equal(t, 1, s.count(learner.AfterCancelTrain))
}

func TestAccuracyStopper(t *testing.T) {
	// Always predicts class 0, so the validation accuracy never changes.
	bias := mat.NewDense(1, 3, []float64{1, 0, 0})
	model := nn.NewSequential(nn.NewLinearFrom(mat.NewDense(2, 3, nil), bias, false))
	stopper := learner.NewAccuracyStopper(2, false)
	s := &spy{order: -5}
	l := learner.New(blobsBunch(), model, nn.NewCrossEntropy(), optim.NewSGD(model.Parameters(), 0.1),
		learner.Config{}, s, stopper)
	l.Fit(10)

	assert.Equal(t, 4, s.count(learner.AfterEpoch))
	assert.Equal(t, 1, s.count(learner.AfterCancelTrain))
	assert.Greater(t, stopper.Best(), 0.0)
	assert.Less(t, stopper.Best(), 1.0)
}

func TestStopperDefaults(t *testing.T) {
	assert.Equal(t, 10, learner.NewItersStopper(0).EndIter)
	assert.Equal(t, 10, learner.NewEpochsStopper(-1).EndEpoch)
	assert.Equal(t, 5, learner.NewAccuracyStopper(0, false).Patience)
	assert.Equal(t, 2, learner.NewAccuracyStopper(2, false).Patience)
}

func TestProgressViewer(t *testing.T) {
	var buf bytes.Buffer
	viewer := learner.NewProgressViewer(&buf)
	l := newLearner(0.01, learner.NewStatsLogging(), viewer)
	assert.Equal(t, -1, viewer.Order())
	l.Fit(2)

	out := buf.String()
	assert.Contains(t, out, "epochs")
	assert.Contains(t, out, "train_loss")
	assert.Contains(t, out, "valid_accuracy")
	assert.Equal(t, learner.KlogTable{}, l.Logger, "the previous logger is restored")
}

func TestProgressViewer_HaltAtBeforeFit(t *testing.T) {
	var buf bytes.Buffer
	halt := &spy{react: func(h learner.Hook, _ *learner.Learner) learner.Signal {
		if h == learner.BeforeFit {
			return learner.Halt
		}
		return learner.Continue
	}}
	l := newLearner(0.01, learner.NewProgressViewer(&buf), halt)
	table := &captureTable{}
	l.Logger = table
	l.Fit(1)

	assert.Equal(t, []learner.Hook{learner.BeforeFit}, halt.events)
	assert.Same(t, table, l.Logger, "the logger in place before Fit is back")
}

func TestEpochLogger(t *testing.T) {
	s := &spy{}
	newLearner(0.01, learner.EpochLogger{}, s).Fit(2)
	assert.Equal(t, 2, s.count(learner.AfterEpoch))
}

func TestHookAndSignalNames(t *testing.T) {
	assert.Equal(t, "before_fit", learner.BeforeFit.String())
	assert.Equal(t, "after_cancel_train", learner.AfterCancelTrain.String())
	assert.Equal(t, "Hook(99)", learner.Hook(99).String())
	assert.Equal(t, "CancelEpoch", learner.CancelEpoch.String())
}

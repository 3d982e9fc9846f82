package learner

import (
	"fmt"
	"strings"
	"time"

	"github.com/born-ml/fitloop/internal/nn"
	"k8s.io/klog/v2"
)

// TableLogger receives rows of a progress table. The first row is the header.
type TableLogger interface {
	Log(cols []string)
}

// KlogTable writes every row as one klog line.
type KlogTable struct{}

func (KlogTable) Log(cols []string) {
	klog.Info(strings.Join(cols, "  "))
}

// AvgStats averages the loss and metrics over the batches of a pass,
// weighting every batch by its size.
type AvgStats struct {
	Metrics  []nn.Metric
	Training bool

	count     int
	totalLoss float64
	totals    []float64
}

// NewAvgStats creates an AvgStats for the training or the validation pass.
func NewAvgStats(metrics []nn.Metric, training bool) *AvgStats {
	s := &AvgStats{Metrics: metrics, Training: training}
	s.Reset()
	return s
}

// Reset clears the accumulated values.
func (s *AvgStats) Reset() {
	s.count, s.totalLoss = 0, 0
	s.totals = make([]float64, len(s.Metrics))
}

// Accumulate adds the loss and metrics of the current batch of l.
func (s *AvgStats) Accumulate(l *Learner) {
	bs := float64(len(l.YBatch))
	s.count += len(l.YBatch)
	s.totalLoss += l.Loss * bs
	for i, m := range s.Metrics {
		s.totals[i] += m.Fn(l.Pred, l.YBatch) * bs
	}
}

// Count returns the number of examples accumulated.
func (s *AvgStats) Count() int {
	return s.count
}

// Loss returns the average loss, 0 before any batch.
func (s *AvgStats) Loss() float64 {
	if s.count == 0 {
		return 0
	}
	return s.totalLoss / float64(s.count)
}

// Averages returns the average loss followed by the average of every metric.
func (s *AvgStats) Averages() []float64 {
	avgs := make([]float64, 0, len(s.Metrics)+1)
	avgs = append(avgs, s.Loss())
	for _, total := range s.totals {
		if s.count == 0 {
			avgs = append(avgs, 0)
			continue
		}
		avgs = append(avgs, total/float64(s.count))
	}
	return avgs
}

func (s *AvgStats) String() string {
	if s.count == 0 {
		return fmt.Sprintf("%s: no stats yet", s.mode())
	}
	return fmt.Sprintf("%s: %v", s.mode(), s.Averages())
}

func (s *AvgStats) mode() string {
	if s.Training {
		return "train"
	}
	return "valid"
}

// StatsLogging logs the averaged loss and metrics of both passes after every
// epoch through Learner.Logger, as a table with a header row.
type StatsLogging struct {
	BaseCallback
	Train, Valid *AvgStats

	start time.Time
}

// NewStatsLogging creates a StatsLogging. With no metrics, accuracy is used.
func NewStatsLogging(metrics ...nn.Metric) *StatsLogging {
	if len(metrics) == 0 {
		metrics = []nn.Metric{nn.AccuracyMetric}
	}
	return &StatsLogging{
		Train: NewAvgStats(metrics, true),
		Valid: NewAvgStats(metrics, false),
	}
}

// Header returns the column names logged by BeforeFit.
func (s *StatsLogging) Header() []string {
	header := []string{"epoch"}
	for _, prefix := range []string{"train", "valid"} {
		header = append(header, prefix+"_loss")
		for _, m := range s.Train.Metrics {
			header = append(header, prefix+"_"+m.Name)
		}
	}
	return append(header, "time")
}

func (s *StatsLogging) BeforeFit(l *Learner) Signal {
	l.Logger.Log(s.Header())
	return Continue
}

func (s *StatsLogging) BeforeEpoch(*Learner) Signal {
	s.Train.Reset()
	s.Valid.Reset()
	s.start = time.Now()
	return Continue
}

func (s *StatsLogging) AfterLoss(l *Learner) Signal {
	if l.InTrain() {
		s.Train.Accumulate(l)
	} else {
		s.Valid.Accumulate(l)
	}
	return Continue
}

func (s *StatsLogging) AfterEpoch(l *Learner) Signal {
	row := []string{fmt.Sprint(l.Epoch)}
	for _, stats := range []*AvgStats{s.Train, s.Valid} {
		for _, v := range stats.Averages() {
			row = append(row, fmt.Sprintf("%.6f", v))
		}
	}
	row = append(row, formatElapsed(time.Since(s.start)))
	l.Logger.Log(row)
	return Continue
}

func (s *StatsLogging) String() string { return "StatsLogging" }

// formatElapsed formats d as mm:ss, or h:mm:ss past one hour.
func formatElapsed(d time.Duration) string {
	secs := int(d.Round(time.Second).Seconds())
	h, m, sec := secs/3600, secs/60%60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%02d:%02d", m, sec)
}

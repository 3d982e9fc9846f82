package learner

import (
	"github.com/born-ml/fitloop/internal/optim"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Recorder keeps the loss and the requested hyperparameters of every
// training batch. Hyperparameters are read from the first parameter group.
type Recorder struct {
	BaseCallback
	ParamNames []string

	Losses []float64
	Params map[string][]float64

	runID string
}

// NewRecorder creates a Recorder for the named hyperparameters, the
// learning rate if none is given.
func NewRecorder(paramNames ...string) *Recorder {
	if len(paramNames) == 0 {
		paramNames = []string{optim.LearningRate}
	}
	return &Recorder{ParamNames: paramNames}
}

func (r *Recorder) BeforeFit(l *Learner) Signal {
	r.Losses = nil
	r.Params = make(map[string][]float64, len(r.ParamNames))
	r.runID = l.RunID
	if len(r.ParamNames) > 0 && len(hyperGroups(l, "Recorder")) == 0 {
		exceptions.Panicf("Recorder: optimizer %T has no parameter group", l.Opt)
	}
	return Continue
}

func (r *Recorder) AfterBatch(l *Learner) Signal {
	if !l.InTrain() {
		return Continue
	}
	r.Losses = append(r.Losses, l.Loss)
	if len(r.ParamNames) == 0 {
		return Continue
	}
	hp := hyperGroups(l, "Recorder")[0]
	for _, name := range r.ParamNames {
		r.Params[name] = append(r.Params[name], hp.Must(name))
	}
	return Continue
}

// PlotLosses saves the recorded losses against the batch index as an image.
// The format follows the extension of path (png, svg, pdf...).
func (r *Recorder) PlotLosses(path string) error {
	return savePlot(path, "loss "+r.runID, "batch", "loss", indexed(r.Losses))
}

// PlotParameter saves the recorded values of the named hyperparameter
// against the batch index.
func (r *Recorder) PlotParameter(name, path string) error {
	values, ok := r.Params[name]
	if !ok {
		return errors.Errorf("hyperparameter %q was not recorded, have %v", name, r.ParamNames)
	}
	return savePlot(path, name+" "+r.runID, "batch", name, indexed(values))
}

// PlotLossVs saves the recorded losses against the named hyperparameter,
// as used after a LearningRateSearch.
func (r *Recorder) PlotLossVs(name, path string) error {
	values, ok := r.Params[name]
	if !ok {
		return errors.Errorf("hyperparameter %q was not recorded, have %v", name, r.ParamNames)
	}
	pts := make(plotter.XYs, min(len(values), len(r.Losses)))
	for i := range pts {
		pts[i].X, pts[i].Y = values[i], r.Losses[i]
	}
	return savePlot(path, "loss vs "+name+" "+r.runID, name, "loss", pts)
}

func (r *Recorder) String() string { return "Recorder" }

func indexed(values []float64) plotter.XYs {
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X, pts[i].Y = float64(i), v
	}
	return pts
}

func savePlot(path, title, xLabel, yLabel string, pts plotter.XYs) error {
	if len(pts) == 0 {
		return errors.Errorf("nothing recorded to plot in %q", path)
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrapf(err, "failed to plot %q", title)
	}
	p.Add(line, plotter.NewGrid())
	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "failed to save plot to %q", path)
	}
	return nil
}

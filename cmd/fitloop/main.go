// Command fitloop trains a classifier on a CSV file, or on synthetic blobs,
// with the fitloop training stack.
//
// Example:
//
//	fitloop -csv=iris.csv -label=species -model=resmlp -opt=lamb -epochs=30 -progress
package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/born-ml/fitloop/internal/data"
	"github.com/born-ml/fitloop/internal/learner"
	"github.com/born-ml/fitloop/internal/nn"
	"github.com/born-ml/fitloop/internal/optim"
	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"
)

var (
	flagCSV       = flag.String("csv", "", "CSV file with a header row. If empty, synthetic gaussian blobs are used.")
	flagLabel     = flag.String("label", "label", "Name of the label column of the CSV file.")
	flagValidFrac = flag.Float64("valid", 0.2, "Fraction of the examples held out for validation.")
	flagNormalize = flag.Bool("normalize", true, "Standardize inputs with the training mean and standard deviation.")
	flagSamples   = flag.Int("samples", 600, "Number of synthetic examples, when -csv is not set.")
	flagClasses   = flag.Int("classes", 3, "Number of synthetic classes, when -csv is not set.")

	flagModel      = flag.String("model", "mlp", "Model to train: 'mlp' or 'resmlp'.")
	flagHidden     = flag.Int("hidden", 50, "Width of the hidden layers.")
	flagBlocks     = flag.Int("blocks", 2, "Number of residual blocks of 'resmlp'.")
	flagBottleneck = flag.Bool("bottleneck", false, "Use bottleneck residual blocks in 'resmlp'.")

	flagOptimizer    = flag.String("opt", "adam", "Optimizer: 'sgd', 'momentum', 'adam' or 'lamb'.")
	flagLearningRate = flag.Float64("lr", 1e-3, "Learning rate.")
	flagWeightDecay  = flag.Float64("wd", 0, "L2 weight decay.")
	flagSchedule     = flag.String("schedule", "none", "Learning rate schedule over each epoch: 'none', 'cos' or 'onecycle'.")

	flagEpochs   = flag.Int("epochs", 10, "Number of epochs.")
	flagBatch    = flag.Int("batch", 64, "Training batch size.")
	flagSeed     = flag.Uint64("seed", 1, "Seed for initialization, splitting and shuffling.")
	flagPatience = flag.Int("patience", 0, "Stop when validation accuracy did not improve for this many epochs, 0 to disable.")
	flagLRFind   = flag.Bool("lr_find", false, "Run a learning rate search instead of training.")
	flagProgress = flag.Bool("progress", false, "Show progress bars.")
	flagPlotDir  = flag.String("plot_dir", "", "Directory where loss and learning rate plots are saved. If empty, no plots.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	err := exceptions.TryCatch[error](run)
	if err != nil {
		klog.Fatalf("Failed with error: %+v", err)
	}
}

func run() {
	nn.SeedInit(*flagSeed)
	bunch := must.M1(loadData())
	klog.V(1).Infof("data:\n%s", bunch)

	model := must.M1(buildModel(*flagModel, bunch.NumFeatures(), *flagHidden, *flagBlocks, *flagBottleneck, bunch.NumClasses()))
	must.M(model.Summary(os.Stdout))
	opt := must.M1(buildOptimizer(*flagOptimizer, model.Parameters(), *flagLearningRate, *flagWeightDecay))

	recorder := learner.NewRecorder()
	callbacks := []learner.Callback{recorder}
	if *flagLRFind {
		callbacks = append(callbacks, learner.NewLearningRateSearch())
	} else {
		callbacks = append(callbacks, learner.NewStatsLogging())
		sched, err := buildSchedule(*flagSchedule, *flagLearningRate)
		must.M(err)
		if sched != nil {
			callbacks = append(callbacks, sched)
		}
		if *flagPatience > 0 {
			callbacks = append(callbacks, learner.NewAccuracyStopper(*flagPatience, klog.V(1).Enabled()))
		}
	}
	if *flagProgress {
		callbacks = append(callbacks, learner.NewProgressViewer(os.Stderr))
	} else {
		callbacks = append(callbacks, learner.EpochLogger{})
	}

	l := learner.New(bunch, model, nn.NewCrossEntropy(), opt, learner.Config{RunName: *flagModel}, callbacks...)
	klog.V(1).Infof("learner:\n%s", l)
	l.Fit(*flagEpochs)

	if *flagPlotDir != "" {
		must.M(os.MkdirAll(*flagPlotDir, 0o755))
		if *flagLRFind {
			must.M(recorder.PlotLossVs(optim.LearningRate, filepath.Join(*flagPlotDir, l.RunID+"-lr_find.png")))
		} else {
			must.M(recorder.PlotLosses(filepath.Join(*flagPlotDir, l.RunID+"-loss.png")))
			must.M(recorder.PlotParameter(optim.LearningRate, filepath.Join(*flagPlotDir, l.RunID+"-lr.png")))
		}
		klog.Infof("plots of run %s saved to %q", l.RunID, *flagPlotDir)
	}
}

func loadData() (*data.DataBunch, error) {
	var ds *data.Dataset
	if *flagCSV != "" {
		var err error
		ds, err = data.LoadCSV(*flagCSV, *flagLabel)
		if err != nil {
			return nil, err
		}
	} else {
		ds = data.MakeBlobs(data.BlobsConfig{Samples: *flagSamples, Classes: *flagClasses, Seed: *flagSeed})
	}
	train, valid := data.SplitValid(ds, *flagValidFrac, *flagSeed)
	if *flagNormalize {
		mean, std := data.Normalize(train, valid)
		klog.V(1).Infof("normalized inputs with mean=%g std=%g", mean, std)
	}
	return data.NewDataBunch(train, valid, data.Config{BatchSize: *flagBatch, Seed: *flagSeed}), nil
}

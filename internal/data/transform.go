package data

import (
	"math/rand/v2"

	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// SplitValid shuffles ds with the given seed and splits off a validFrac share
// of it as the validation set.
func SplitValid(ds *Dataset, validFrac float64, seed uint64) (train, valid *Dataset) {
	if validFrac <= 0 || validFrac >= 1 {
		exceptions.Panicf("data.SplitValid: validFrac must be in (0, 1), got %g", validFrac)
	}
	n := ds.Len()
	nValid := int(float64(n) * validFrac)
	if nValid == 0 || nValid == n {
		exceptions.Panicf("data.SplitValid: %d examples cannot be split with validFrac=%g", n, validFrac)
	}
	perm := rand.New(rand.NewPCG(seed, seed>>1|1)).Perm(n)
	return ds.Subset(perm[nValid:]), ds.Subset(perm[:nValid])
}

// Normalize standardizes both datasets in place with the mean and standard
// deviation of all training inputs, and returns those statistics.
//
// Validation inputs use the training statistics so both sets see the same
// transform.
func Normalize(train, valid *Dataset) (mean, std float64) {
	mean, std = stat.MeanStdDev(train.X.RawMatrix().Data, nil)
	if std == 0 {
		std = 1
	}
	for _, ds := range []*Dataset{train, valid} {
		if ds == nil {
			continue
		}
		ds.X.Apply(func(_, _ int, v float64) float64 { return (v - mean) / std }, ds.X)
	}
	return mean, std
}

// BlobsConfig holds configuration for MakeBlobs.
type BlobsConfig struct {
	Samples  int     // Number of examples (default: 600)
	Features int     // Input width (default: 2)
	Classes  int     // Number of blobs, one per class (default: 3)
	Spread   float64 // Standard deviation around each center (default: 1)
	Scale    float64 // Centers are drawn uniformly in [-Scale, Scale] (default: 5)
	Seed     uint64  // Random seed (default: 1)
}

func (c *BlobsConfig) setDefaults() {
	if c.Samples == 0 {
		c.Samples = 600
	}
	if c.Features == 0 {
		c.Features = 2
	}
	if c.Classes == 0 {
		c.Classes = 3
	}
	if c.Spread == 0 {
		c.Spread = 1
	}
	if c.Scale == 0 {
		c.Scale = 5
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
}

// MakeBlobs generates a synthetic classification dataset: gaussian blobs
// around random centers, one blob per class, classes assigned round-robin.
func MakeBlobs(config BlobsConfig) *Dataset {
	config.setDefaults()
	src := rand.NewPCG(config.Seed, config.Seed>>1|1)
	center := distuv.Uniform{Min: -config.Scale, Max: config.Scale, Src: src}
	noise := distuv.Normal{Mu: 0, Sigma: config.Spread, Src: src}

	centers := mat.NewDense(config.Classes, config.Features, nil)
	centers.Apply(func(_, _ int, _ float64) float64 { return center.Rand() }, centers)

	x := mat.NewDense(config.Samples, config.Features, nil)
	y := make([]int, config.Samples)
	for i := range config.Samples {
		y[i] = i % config.Classes
		row := x.RawRowView(i)
		for j := range row {
			row[j] = centers.At(y[i], j) + noise.Rand()
		}
	}
	return NewDataset(x, y)
}

package data

import (
	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/mat"
)

// Config holds configuration for NewDataBunch.
type Config struct {
	BatchSize        int    // Training batch size (default: 64)
	ValidBatchFactor int    // Validation batch size is BatchSize*ValidBatchFactor (default: 2)
	NoShuffle        bool   // Keep the training order fixed (default: shuffle every epoch)
	Seed             uint64 // Shuffling seed, 0 for a random one
}

func (c *Config) setDefaults() {
	if c.BatchSize == 0 {
		c.BatchSize = 64
	}
	if c.ValidBatchFactor == 0 {
		c.ValidBatchFactor = 2
	}
}

// DataBunch groups the training and validation loaders.
//
// The validation loader never shuffles and uses larger batches, since no
// backward pass runs on it.
type DataBunch struct {
	Train *DataLoader
	Valid *DataLoader
}

// NewDataBunch builds the loaders for the given datasets.
func NewDataBunch(train, valid *Dataset, config Config) *DataBunch {
	config.setDefaults()
	if config.BatchSize < 0 || config.ValidBatchFactor < 0 {
		exceptions.Panicf("data.NewDataBunch: invalid batch configuration %+v", config)
	}
	return &DataBunch{
		Train: NewDataLoader(train, NewSampler(train.Len(), config.BatchSize, !config.NoShuffle, config.Seed)),
		Valid: NewDataLoader(valid, NewSampler(valid.Len(), config.BatchSize*config.ValidBatchFactor, false, 0)),
	}
}

// FromArrays builds a DataBunch from raw training and validation arrays.
func FromArrays(xTrain *mat.Dense, yTrain []int, xValid *mat.Dense, yValid []int, config Config) *DataBunch {
	return NewDataBunch(NewDataset(xTrain, yTrain), NewDataset(xValid, yValid), config)
}

// TrainDS returns the training dataset.
func (db *DataBunch) TrainDS() *Dataset {
	return db.Train.Dataset
}

// ValidDS returns the validation dataset.
func (db *DataBunch) ValidDS() *Dataset {
	return db.Valid.Dataset
}

// Len returns the number of training batches per epoch.
func (db *DataBunch) Len() int {
	return db.Train.Len()
}

// NumFeatures returns the input width.
func (db *DataBunch) NumFeatures() int {
	return db.TrainDS().NumFeatures()
}

// NumClasses returns the number of classes seen in either dataset.
func (db *DataBunch) NumClasses() int {
	return max(db.TrainDS().NumClasses(), db.ValidDS().NumClasses())
}

func (db *DataBunch) String() string {
	return indentRepr("(DataBunch)", db.Train.String(), db.Valid.String())
}

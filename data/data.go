// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package data provides datasets, batching loaders and loading helpers.
//
// # Overview
//
// A Dataset is a feature matrix with integer class labels. A DataLoader
// walks it in batches following a Sampler, and a DataBunch pairs the
// training loader with the validation one.
//
// # Basic Usage
//
//	ds, err := data.LoadCSV("iris.csv", "species")
//	if err != nil {
//	    return err
//	}
//	train, valid := data.SplitValid(ds, 0.2, 42)
//	data.Normalize(train, valid)
//	bunch := data.NewDataBunch(train, valid, data.Config{BatchSize: 32})
package data

import (
	"io"

	"github.com/born-ml/fitloop/internal/data"
	"gonum.org/v1/gonum/mat"
)

// Dataset is a feature matrix with one class label per row.
type Dataset = data.Dataset

// NewDataset creates a Dataset. x must have one row per label.
func NewDataset(x *mat.Dense, y []int) *Dataset {
	return data.NewDataset(x, y)
}

// Sampler yields batches of indices, shuffled or in order.
type Sampler = data.Sampler

// NewSampler creates a Sampler. A zero seed picks a random one.
func NewSampler(size, batchSize int, shuffle bool, seed uint64) *Sampler {
	return data.NewSampler(size, batchSize, shuffle, seed)
}

// Batch is a collated group of examples.
type Batch = data.Batch

// CollateFn stacks the selected examples into a Batch.
type CollateFn = data.CollateFn

// Collate is the default CollateFn.
func Collate(ds *Dataset, idxs []int) Batch {
	return data.Collate(ds, idxs)
}

// DataLoader batches a Dataset.
type DataLoader = data.DataLoader

// NewDataLoader creates a DataLoader with the default Collate.
func NewDataLoader(ds *Dataset, sampler *Sampler) *DataLoader {
	return data.NewDataLoader(ds, sampler)
}

// Config contains configuration for NewDataBunch.
type Config = data.Config

// DataBunch pairs the training and validation loaders.
type DataBunch = data.DataBunch

// NewDataBunch builds the loaders of train and valid.
//
// Example:
//
//	bunch := data.NewDataBunch(train, valid, data.Config{BatchSize: 64, Seed: 1})
func NewDataBunch(train, valid *Dataset, config Config) *DataBunch {
	return data.NewDataBunch(train, valid, config)
}

// FromArrays builds a DataBunch from raw matrices and labels.
func FromArrays(xTrain *mat.Dense, yTrain []int, xValid *mat.Dense, yValid []int, config Config) *DataBunch {
	return data.FromArrays(xTrain, yTrain, xValid, yValid, config)
}

// LoadCSV reads a dataset from a CSV file with a header row.
func LoadCSV(path, labelCol string) (*Dataset, error) {
	return data.LoadCSV(path, labelCol)
}

// ReadCSV reads a dataset from CSV content with a header row.
func ReadCSV(r io.Reader, labelCol string) (*Dataset, error) {
	return data.ReadCSV(r, labelCol)
}

// SplitValid shuffles ds and splits off validFrac of it for validation.
func SplitValid(ds *Dataset, validFrac float64, seed uint64) (train, valid *Dataset) {
	return data.SplitValid(ds, validFrac, seed)
}

// Normalize standardizes both datasets in place with the training statistics.
func Normalize(train, valid *Dataset) (mean, std float64) {
	return data.Normalize(train, valid)
}

// BlobsConfig contains configuration for MakeBlobs.
type BlobsConfig = data.BlobsConfig

// MakeBlobs generates gaussian blobs, one per class.
func MakeBlobs(config BlobsConfig) *Dataset {
	return data.MakeBlobs(config)
}

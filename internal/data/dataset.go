// Package data feeds training: datasets, index samplers, batching loaders and
// the train/valid DataBunch consumed by the learner.
//
// Loaders are iterators:
//
//	for batch := range bunch.Train.All() {
//	    pred := model.Forward(tensor.New(batch.X))
//	    ...
//	}
package data

import (
	"fmt"
	"slices"

	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/mat"
)

// Dataset holds inputs [n, features] and integer class labels [n].
type Dataset struct {
	X *mat.Dense
	Y []int

	// Classes optionally names the labels: Classes[y] is the name of class y.
	Classes []string
}

// NewDataset pairs inputs and labels. Panics if the row counts differ or a
// label is negative.
func NewDataset(x *mat.Dense, y []int) *Dataset {
	rows, _ := x.Dims()
	if rows != len(y) {
		exceptions.Panicf("data.NewDataset: %d input rows for %d labels", rows, len(y))
	}
	if len(y) > 0 && slices.Min(y) < 0 {
		exceptions.Panicf("data.NewDataset: labels must be non-negative, got %d", slices.Min(y))
	}
	return &Dataset{X: x, Y: y}
}

// Len returns the number of examples.
func (ds *Dataset) Len() int {
	return len(ds.Y)
}

// Item returns example i: its input row (a view, not a copy) and label.
func (ds *Dataset) Item(i int) ([]float64, int) {
	return ds.X.RawRowView(i), ds.Y[i]
}

// NumFeatures returns the input width.
func (ds *Dataset) NumFeatures() int {
	_, cols := ds.X.Dims()
	return cols
}

// NumClasses returns len(Classes) when set, and max(Y)+1 otherwise.
func (ds *Dataset) NumClasses() int {
	if len(ds.Classes) > 0 {
		return len(ds.Classes)
	}
	if len(ds.Y) == 0 {
		return 0
	}
	return slices.Max(ds.Y) + 1
}

// Subset returns a new dataset with copies of the given examples, in order.
// Panics if idxs is empty: gonum matrices cannot have zero rows.
func (ds *Dataset) Subset(idxs []int) *Dataset {
	if len(idxs) == 0 {
		exceptions.Panicf("Dataset.Subset: no indices given")
	}
	x := mat.NewDense(len(idxs), ds.NumFeatures(), nil)
	y := make([]int, len(idxs))
	for k, i := range idxs {
		row, label := ds.Item(i)
		x.SetRow(k, row)
		y[k] = label
	}
	return &Dataset{X: x, Y: y, Classes: ds.Classes}
}

func (ds *Dataset) String() string {
	return fmt.Sprintf("(Dataset) x: (%d, %d), y: (%d,)", ds.Len(), ds.NumFeatures(), ds.Len())
}

package data

import (
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/go-gota/gota/dataframe"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"k8s.io/klog/v2"
)

// LoadCSV reads a dataset from a CSV file with a header row.
//
// labelCol names the label column; every other column must be numeric and
// becomes a feature, in file order. Integer labels are used as class
// indices directly; any other labels are mapped to indices in sorted order
// and kept in Dataset.Classes.
func LoadCSV(path, labelCol string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open dataset %q", path)
	}
	defer func() { _ = f.Close() }()
	ds, err := ReadCSV(f, labelCol)
	if err != nil {
		return nil, errors.WithMessagef(err, "loading %q", path)
	}
	klog.V(1).Infof("loaded %s examples with %d features from %q", humanize.Comma(int64(ds.Len())), ds.NumFeatures(), path)
	return ds, nil
}

// ReadCSV is LoadCSV over an already opened reader.
func ReadCSV(r io.Reader, labelCol string) (*Dataset, error) {
	df := dataframe.ReadCSV(r, dataframe.HasHeader(true), dataframe.DetectTypes(true))
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "failed to parse CSV")
	}
	if !slices.Contains(df.Names(), labelCol) {
		return nil, errors.Errorf("label column %q not found in %v", labelCol, df.Names())
	}
	if df.Nrow() == 0 {
		return nil, errors.New("CSV has no rows")
	}

	labels := df.Col(labelCol)
	y, classes := encodeLabels(labels.Records())

	features := df.Drop(labelCol)
	if features.Ncol() == 0 {
		return nil, errors.Errorf("CSV has no feature columns besides %q", labelCol)
	}
	x := mat.NewDense(features.Nrow(), features.Ncol(), nil)
	for j, name := range features.Names() {
		values := features.Col(name).Float()
		if floats.HasNaN(values) {
			return nil, errors.Errorf("feature column %q has missing or non-numeric values", name)
		}
		x.SetCol(j, values)
	}

	ds := NewDataset(x, y)
	ds.Classes = classes
	return ds, nil
}

// encodeLabels maps label strings to class indices. Non-negative integer
// labels map to themselves (classes is nil); anything else is indexed by
// its position in the sorted set of distinct labels.
func encodeLabels(records []string) (y []int, classes []string) {
	y = make([]int, len(records))
	numeric := true
	for i, rec := range records {
		v, convErr := strconv.Atoi(rec)
		if convErr != nil || v < 0 {
			numeric = false
			break
		}
		y[i] = v
	}
	if numeric {
		return y, nil
	}

	classes = slices.Clone(records)
	slices.Sort(classes)
	classes = slices.Compact(classes)
	for i, rec := range records {
		y[i], _ = slices.BinarySearch(classes, rec)
	}
	return y, classes
}

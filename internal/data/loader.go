package data

import (
	"fmt"
	"iter"
	"math/rand/v2"
	"strings"

	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/mat"
)

// Sampler yields batches of example indices over [0, Size).
//
// With Shuffle a new permutation is drawn at every pass, otherwise indices
// come in order. The last batch may be smaller than BatchSize.
type Sampler struct {
	Size      int
	BatchSize int
	Shuffle   bool

	rng *rand.Rand
}

// NewSampler creates a Sampler. seed makes the shuffling reproducible; 0
// uses a random seed.
func NewSampler(size, batchSize int, shuffle bool, seed uint64) *Sampler {
	if batchSize <= 0 {
		exceptions.Panicf("data.NewSampler: batch size must be positive, got %d", batchSize)
	}
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Sampler{
		Size:      size,
		BatchSize: batchSize,
		Shuffle:   shuffle,
		rng:       rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
}

// NumBatches returns ceil(Size / BatchSize).
func (s *Sampler) NumBatches() int {
	return (s.Size + s.BatchSize - 1) / s.BatchSize
}

// All iterates over the index batches of one pass.
func (s *Sampler) All() iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		var idxs []int
		if s.Shuffle {
			idxs = s.rng.Perm(s.Size)
		} else {
			idxs = make([]int, s.Size)
			for i := range idxs {
				idxs[i] = i
			}
		}
		for start := 0; start < s.Size; start += s.BatchSize {
			if !yield(idxs[start:min(start+s.BatchSize, s.Size)]) {
				return
			}
		}
	}
}

func (s *Sampler) String() string {
	return fmt.Sprintf("(Sampler) total: %d, batch_size: %d, shuffle: %t", s.Size, s.BatchSize, s.Shuffle)
}

// Batch is a collated group of examples.
type Batch struct {
	X *mat.Dense // [batch, features]
	Y []int      // [batch]
}

// Len returns the number of examples in the batch.
func (b Batch) Len() int {
	return len(b.Y)
}

// CollateFn stacks the given examples of a dataset into a Batch.
type CollateFn func(ds *Dataset, idxs []int) Batch

// Collate copies the selected rows and labels into a new Batch.
func Collate(ds *Dataset, idxs []int) Batch {
	sub := ds.Subset(idxs)
	return Batch{X: sub.X, Y: sub.Y}
}

// DataLoader batches a Dataset following a Sampler.
type DataLoader struct {
	Dataset *Dataset
	Sampler *Sampler
	Collate CollateFn
}

// NewDataLoader creates a DataLoader with the default Collate.
func NewDataLoader(ds *Dataset, sampler *Sampler) *DataLoader {
	return &DataLoader{Dataset: ds, Sampler: sampler, Collate: Collate}
}

// Len returns the number of batches per pass: ceil(len(dataset) / batch_size).
func (dl *DataLoader) Len() int {
	return (dl.Dataset.Len() + dl.Sampler.BatchSize - 1) / dl.Sampler.BatchSize
}

// All iterates over the batches of one pass.
func (dl *DataLoader) All() iter.Seq[Batch] {
	collate := dl.Collate
	if collate == nil {
		collate = Collate
	}
	return func(yield func(Batch) bool) {
		for idxs := range dl.Sampler.All() {
			if !yield(collate(dl.Dataset, idxs)) {
				return
			}
		}
	}
}

func (dl *DataLoader) String() string {
	return indentRepr("(DataLoader)", dl.Dataset.String(), dl.Sampler.String())
}

// indentRepr puts children one per line below head, indented.
func indentRepr(head string, children ...string) string {
	var sb strings.Builder
	sb.WriteString(head)
	for _, child := range children {
		sb.WriteString("\n    ")
		sb.WriteString(strings.ReplaceAll(child, "\n", "\n    "))
	}
	return sb.String()
}

package tensor

import (
	"math"

	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SumCols sums over the batch (row) axis, returning a [1, cols] matrix.
func SumCols(m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(1, c, nil)
	row := out.RawRowView(0)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			row[j] += m.At(i, j)
		}
	}
	return out
}

// AddRowVec adds the [1, cols] row vector to every row of m, in place.
func AddRowVec(m *mat.Dense, row mat.Matrix) {
	r, c := m.Dims()
	rr, rc := row.Dims()
	if rr != 1 || rc != c {
		exceptions.Panicf("tensor.AddRowVec: row shape [%d, %d] cannot broadcast over [%d, %d]", rr, rc, r, c)
	}
	for i := 0; i < r; i++ {
		dst := m.RawRowView(i)
		for j := range dst {
			dst[j] += row.At(0, j)
		}
	}
}

// MulRowVec multiplies every row of m elementwise by the [1, cols] row, in place.
func MulRowVec(m *mat.Dense, row mat.Matrix) {
	r, c := m.Dims()
	rr, rc := row.Dims()
	if rr != 1 || rc != c {
		exceptions.Panicf("tensor.MulRowVec: row shape [%d, %d] cannot broadcast over [%d, %d]", rr, rc, r, c)
	}
	for i := 0; i < r; i++ {
		dst := m.RawRowView(i)
		for j := range dst {
			dst[j] *= row.At(0, j)
		}
	}
}

// ArgMaxRows returns, for each row, the column index of its largest value.
func ArgMaxRows(m *mat.Dense) []int {
	r, _ := m.Dims()
	out := make([]int, r)
	for i := 0; i < r; i++ {
		out[i] = floats.MaxIdx(m.RawRowView(i))
	}
	return out
}

// RMS is the root mean square of all entries: sqrt(mean(m^2)).
func RMS(m *mat.Dense) float64 {
	r, c := m.Dims()
	sq := mat.Norm(m, 2)
	return sq / math.Sqrt(float64(r*c))
}

// Clone returns a deep copy of m.
func Clone(m mat.Matrix) *mat.Dense {
	return mat.DenseCopyOf(m)
}

// ZerosLike returns a zero matrix with the same shape as m.
func ZerosLike(m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	return mat.NewDense(r, c, nil)
}

// Full returns a [rows, cols] matrix filled with v.
func Full(rows, cols int, v float64) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = v
	}
	return mat.NewDense(rows, cols, data)
}

package mat

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrColMismatch    = errors.New("column size mismatch")
	ErrNonFinite      = errors.New("non-finite or non-positive exponential")
	ErrIndexOutOfBond = errors.New("one-hot index is out of bounds")
)

func NewDenseFromArray(x [][]float64) (*mat.Dense, error) {
	m := len(x)

	n := -1
	for i, row := range x {
		if n >= 0 && len(row) != n {
			return nil, fmt.Errorf("at row %d, %w", i, ErrColMismatch)
		}
		if n < 0 {
			n = len(row)
		}
	}
	if n < 0 {
		n = 0
	}

	// flatten to row order
	data := make([]float64, 0, m*n)
	for _, row := range x {
		data = append(data, row...)
	}
	return mat.NewDense(m, n, data), nil
}

// Exp sets every entry of dst to exp of the matching entry of src. Every result must be finite and
// strictly positive, otherwise the first offending entry is reported and dst is left partially
// written.
func Exp(dst *mat.Dense, src mat.Matrix) error {
	r, c := src.Dims()
	if dst.IsEmpty() {
		dst.ReuseAs(r, c)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := src.At(i, j)
			e := math.Exp(v)
			if math.IsNaN(e) || math.IsInf(e, 0) || e <= 0 {
				return fmt.Errorf("entry (%d, %d) is exp(%g), %w", i, j, v, ErrNonFinite)
			}
			dst.Set(i, j, e)
		}
	}
	return nil
}

// Ones returns a vector of length n filled with 1.0
func Ones(n int) *mat.VecDense {
	data := make([]float64, n)
	for i := range data {
		data[i] = 1.0
	}
	return mat.NewVecDense(n, data)
}

// OneHotDense returns an r x c matrix with a single 1.0 at (i, j)
func OneHotDense(r, c, i, j int) (*mat.Dense, error) {
	if i < 0 || i >= r || j < 0 || j >= c {
		return nil, fmt.Errorf("(%d, %d) in %dx%d matrix, %w", i, j, r, c, ErrIndexOutOfBond)
	}
	m := mat.NewDense(r, c, nil)
	m.Set(i, j, 1.0)
	return m, nil
}

// OneHotVec returns a vector of length n with a single 1.0 at i
func OneHotVec(n, i int) (*mat.VecDense, error) {
	if i < 0 || i >= n {
		return nil, fmt.Errorf("%d in vector of length %d, %w", i, n, ErrIndexOutOfBond)
	}
	v := mat.NewVecDense(n, nil)
	v.SetVec(i, 1.0)
	return v, nil
}

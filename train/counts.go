package train

import (
	"errors"
	"fmt"
	"math"

	"github.com/aouyang1/go-crf/chain"
	"github.com/aouyang1/go-crf/feature"
	"github.com/aouyang1/go-crf/floatsunrolled"
	mat_ "github.com/aouyang1/go-crf/mat"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var ErrInvalidCount = errors.New("feature count ratio is not positive and finite")

// EmpiricalCounts returns, for every feature, the average over examples of its total value along
// the labelled path. Transition features are read at the (previous, current) cell of every edge
// including the boundaries, emission features at the label of every labelled edge.
func EmpiricalCounts(examples []Example, oracle *feature.Oracle) ([]float64, error) {
	if oracle == nil {
		return nil, chain.ErrNilOracle
	}
	if err := validateExamples(examples, oracle.NumLabels(), oracle.NumObservations()); err != nil {
		return nil, err
	}

	numLabels := oracle.NumLabels()
	nTrans, _ := oracle.Partition()
	counts := make([]float64, oracle.Len())
	for _, ex := range examples {
		for _, e := range feature.Edges(len(ex.Observations)) {
			a, b := e.Cell(ex.Labels)
			for k, f := range oracle.Transitions() {
				val, err := chain.EvalTransition(f, e, ex.Observations, numLabels)
				if err != nil {
					return nil, err
				}
				if val != nil {
					counts[k] += val.At(a, b)
				}
			}
			if !e.Labelled() {
				continue
			}
			for k, g := range oracle.Emissions() {
				val, err := chain.EvalEmission(g, e, ex.Observations, numLabels)
				if err != nil {
					return nil, err
				}
				if val != nil {
					counts[nTrans+k] += val.AtVec(b)
				}
			}
		}
	}
	floats.Scale(1/float64(len(examples)), counts)
	return counts, nil
}

// ExpectedCounts returns, for every feature, the average over examples of its value expected
// under the current parameters. Each cell of an edge is weighted by the probability mass flowing
// through it. Emission features use the destination label marginal of the edge. Lattices are
// looked up in cache, which must have been filled under params or be empty. A nil cache builds
// every lattice.
func ExpectedCounts(examples []Example, params []float64, oracle *feature.Oracle, cache *SweepCache) ([]float64, error) {
	if oracle == nil {
		return nil, chain.ErrNilOracle
	}
	if len(examples) == 0 {
		return nil, ErrNoExamples
	}

	counts := make([]float64, oracle.Len())
	for i, ex := range examples {
		lat, err := cache.Lattice(ex.Observations, params, oracle)
		if err != nil {
			return nil, fmt.Errorf("example %d, %w", i, err)
		}
		exCounts, err := exampleExpected(lat, oracle)
		if err != nil {
			return nil, fmt.Errorf("example %d, %w", i, err)
		}
		floatsunrolled.Add(counts, exCounts)
	}
	floats.Scale(1/float64(len(examples)), counts)
	return counts, nil
}

// exampleExpected returns the expected feature counts of a single lattice
func exampleExpected(lat *Lattice, oracle *feature.Oracle) ([]float64, error) {
	counts := make([]float64, oracle.Len())
	numLabels := oracle.NumLabels()
	nTrans, _ := oracle.Partition()
	seq, msgs := lat.Sequence, lat.Messages
	obs := seq.Observations()

	for _, e := range feature.Edges(seq.Len()) {
		marg, err := msgs.EdgeMarginal(seq, e.Pos)
		if err != nil {
			return nil, err
		}
		for k, f := range oracle.Transitions() {
			val, err := chain.EvalTransition(f, e, obs, numLabels)
			if err != nil {
				return nil, err
			}
			if val == nil {
				continue
			}
			counts[k] += cellDot(marg, val)
		}
		if !e.Labelled() {
			continue
		}

		// destination label marginal, the column sums of the edge marginal
		r, _ := marg.Dims()
		dest := mat.NewVecDense(numLabels, nil)
		dest.MulVec(marg.T(), mat_.Ones(r))
		for k, g := range oracle.Emissions() {
			val, err := chain.EvalEmission(g, e, obs, numLabels)
			if err != nil {
				return nil, err
			}
			if val != nil {
				counts[nTrans+k] += mat.Dot(dest, val)
			}
		}
	}
	return counts, nil
}

// cellDot returns the sum of the element-wise product of the edge marginal and a transition
// feature value of the same shape
func cellDot(marg *mat.Dense, val mat.Matrix) float64 {
	if d, ok := val.(*mat.Dense); ok {
		mr, vr := marg.RawMatrix(), d.RawMatrix()
		if mr.Stride == mr.Cols && vr.Stride == vr.Cols {
			return floatsunrolled.Dot(mr.Data[:mr.Rows*mr.Cols], vr.Data[:vr.Rows*vr.Cols])
		}
	}
	var cell mat.Dense
	cell.MulElem(marg, val)
	return mat.Sum(&cell)
}

// LogLikelihood returns log P(labels | obs) of a lattice, the log path score less log Z
func LogLikelihood(lat *Lattice, labels []int) (float64, error) {
	logScore, err := lat.Sequence.LogUnnormalized(labels)
	if err != nil {
		return 0, err
	}
	return logScore - lat.Messages.LogZ, nil
}

// update applies one iterative scaling step to a copy of params and returns it with the largest
// absolute change
func update(params, empirical, expected []float64, oracle *feature.Oracle, smoothing, scale float64) ([]float64, float64, error) {
	next := make([]float64, len(params))
	maxChange := 0.0
	for k := range params {
		ratio := (empirical[k] + smoothing) / (expected[k] + smoothing)
		if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
			name := oracle.Labels().Labels()[k].String()
			return nil, 0, fmt.Errorf("%s has empirical %g and expected %g, %w", name, empirical[k], expected[k], ErrInvalidCount)
		}
		delta := math.Log(ratio) / scale
		next[k] = params[k] + delta
		maxChange = math.Max(maxChange, math.Abs(delta))
	}
	return next, maxChange, nil
}

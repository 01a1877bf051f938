// Package chain implements exact inference over a linear-chain CRF: construction of the
// per-edge transition matrices, the partition function, forward/backward messages, sequence
// probabilities and Viterbi decoding.
package chain

import (
	"fmt"

	"github.com/aouyang1/go-crf/feature"
	mat_ "github.com/aouyang1/go-crf/mat"

	"gonum.org/v1/gonum/mat"
)

// boundary is the index of the virtual start state in the start matrix row and of the virtual
// stop state in the stop matrix column.
const boundary = 0

// Sequence is the transition matrix sequence of one observation sequence under one parameter
// vector. Matrix e has entries exp(sum_k params[k] * f_k(e, obs)) and the shape of
// feature.Edge.Dims.
type Sequence struct {
	numLabels int
	obs       []int
	matrices  []*mat.Dense
}

// Build evaluates every feature on every edge of obs and exponentiates the weighted sums into
// one transition matrix per edge.
func Build(obs []int, params []float64, oracle *feature.Oracle) (*Sequence, error) {
	if err := ValidateInputs(obs, params, oracle); err != nil {
		return nil, err
	}

	numLabels := oracle.NumLabels()
	nTrans, _ := oracle.Partition()
	edges := feature.Edges(len(obs))

	matrices := make([]*mat.Dense, 0, len(edges))
	for _, e := range edges {
		r, c := e.Dims(numLabels)
		energy := mat.NewDense(r, c, nil)

		for k, f := range oracle.Transitions() {
			val, err := EvalTransition(f, e, obs, numLabels)
			if err != nil {
				return nil, err
			}
			if val == nil || params[k] == 0 {
				continue
			}
			var weighted mat.Dense
			weighted.Scale(params[k], val)
			energy.Add(energy, &weighted)
		}

		for k, g := range oracle.Emissions() {
			val, err := EvalEmission(g, e, obs, numLabels)
			if err != nil {
				return nil, err
			}
			w := params[nTrans+k]
			if val == nil || w == 0 {
				continue
			}
			// broadcast over the source rows, emissions belong to the destination label
			for b := 0; b < c; b++ {
				delta := w * val.AtVec(b)
				for a := 0; a < r; a++ {
					energy.Set(a, b, energy.At(a, b)+delta)
				}
			}
		}

		if err := mat_.Exp(energy, energy); err != nil {
			return nil, fmt.Errorf("edge %d (%s): %v, %w", e.Pos, e.Kind, err, ErrNumericInstability)
		}
		matrices = append(matrices, energy)
	}

	return &Sequence{
		numLabels: numLabels,
		obs:       append([]int(nil), obs...),
		matrices:  matrices,
	}, nil
}

// NewSequence wraps precomputed transition matrices, e.g. ones restored from a cache. The
// matrices must match the edge shapes of obs and contain finite positive entries.
func NewSequence(numLabels int, obs []int, matrices []*mat.Dense) (*Sequence, error) {
	if len(obs) == 0 {
		return nil, ErrEmptySequence
	}
	edges := feature.Edges(len(obs))
	if len(matrices) != len(edges) {
		return nil, fmt.Errorf("got %d matrices for %d edges, %w", len(matrices), len(edges), ErrMatrixCount)
	}
	for i, e := range edges {
		r, c := e.Dims(numLabels)
		mr, mc := matrices[i].Dims()
		if mr != r || mc != c {
			return nil, fmt.Errorf("edge %d is %dx%d, expected %dx%d, %w", i, mr, mc, r, c, ErrFeatureShape)
		}
	}
	return &Sequence{
		numLabels: numLabels,
		obs:       append([]int(nil), obs...),
		matrices:  matrices,
	}, nil
}

// EvalTransition evaluates f at e and verifies the result has the edge's shape
func EvalTransition(f *feature.Transition, e feature.Edge, obs []int, numLabels int) (mat.Matrix, error) {
	val := f.Eval(e, obs)
	if val == nil {
		return nil, nil
	}
	r, c := e.Dims(numLabels)
	vr, vc := val.Dims()
	if vr != r || vc != c {
		return nil, fmt.Errorf("%s at edge %d is %dx%d, expected %dx%d, %w", f, e.Pos, vr, vc, r, c, ErrFeatureShape)
	}
	return val, nil
}

// EvalEmission evaluates g at e and verifies the result has one entry per label
func EvalEmission(g *feature.Emission, e feature.Edge, obs []int, numLabels int) (mat.Vector, error) {
	val := g.Eval(e, obs)
	if val == nil {
		return nil, nil
	}
	if val.Len() != numLabels {
		return nil, fmt.Errorf("%s at edge %d has length %d, expected %d, %w", g, e.Pos, val.Len(), numLabels, ErrFeatureShape)
	}
	return val, nil
}

// Len returns the number of labels in the sequence
func (s *Sequence) Len() int {
	return len(s.obs)
}

// NumEdges returns the number of transition matrices, Len()+1
func (s *Sequence) NumEdges() int {
	return len(s.matrices)
}

func (s *Sequence) NumLabels() int {
	return s.numLabels
}

// Observations returns a copy of the observation sequence the matrices were built for
func (s *Sequence) Observations() []int {
	return append([]int(nil), s.obs...)
}

// Matrix returns the transition matrix of edge e. The matrix must not be modified.
func (s *Sequence) Matrix(e int) (*mat.Dense, error) {
	if e < 0 || e >= len(s.matrices) {
		return nil, fmt.Errorf("edge %d of %d, %w", e, len(s.matrices), ErrEdgeOutOfRange)
	}
	return s.matrices[e], nil
}

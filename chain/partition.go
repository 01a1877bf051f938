package chain

import (
	"fmt"
	"math"

	mat_ "github.com/aouyang1/go-crf/mat"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LogZ returns the log of the partition function. The forward vector is normalized after every
// edge so the result stays finite when Z itself is not representable.
func (s *Sequence) LogZ() (float64, error) {
	_, scale, err := s.forward()
	if err != nil {
		return 0, err
	}
	return logSum(scale), nil
}

// Z returns the partition function, the single entry of the 1x1 product of all transition
// matrices from the start edge to the stop edge.
func (s *Sequence) Z() (float64, error) {
	logZ, err := s.LogZ()
	if err != nil {
		return 0, err
	}
	z := math.Exp(logZ)
	if err := checkPartition(z); err != nil {
		return 0, err
	}
	return z, nil
}

// Messages holds the scaled forward and backward vectors of a sequence with n labels. Both slices
// have n+2 entries and Scale has n+1, one per edge. Forward[i] is the mass of all partial paths
// from the start state through edges 0..i-1 divided by Scale[0]*...*Scale[i-1], so every forward
// vector sums to 1. Backward[i] is the mass of all partial paths through edges i..n to the stop
// state divided by Scale[i]*...*Scale[n]. The boundary entries Forward[0] and Backward[n+1] are
// the length-1 vector [1].
type Messages struct {
	Forward  []*mat.VecDense
	Backward []*mat.VecDense
	Scale    []float64
	LogZ     float64
}

// forward runs the normalized left to right pass and returns the messages with the mass removed
// at every edge
func (s *Sequence) forward() ([]*mat.VecDense, []float64, error) {
	n := len(s.matrices)

	fwd := make([]*mat.VecDense, n+1)
	scale := make([]float64, n)
	r0, _ := s.matrices[0].Dims()
	fwd[0] = mat_.Ones(r0)
	for i, m := range s.matrices {
		_, c := m.Dims()
		next := mat.NewVecDense(c, nil)
		next.MulVec(m.T(), fwd[i])
		total := floats.Sum(next.RawVector().Data)
		if err := checkPartition(total); err != nil {
			return nil, nil, fmt.Errorf("forward mass at edge %d, %w", i, err)
		}
		next.ScaleVec(1/total, next)
		fwd[i+1] = next
		scale[i] = total
	}
	return fwd, scale, nil
}

// Messages computes the forward messages left to right and the backward messages right to left,
// dividing both by the same per-edge mass.
func (s *Sequence) Messages() (*Messages, error) {
	fwd, scale, err := s.forward()
	if err != nil {
		return nil, err
	}

	n := len(s.matrices)
	bwd := make([]*mat.VecDense, n+1)
	_, cLast := s.matrices[n-1].Dims()
	bwd[n] = mat_.Ones(cLast)
	for i := n - 1; i >= 0; i-- {
		r, _ := s.matrices[i].Dims()
		prev := mat.NewVecDense(r, nil)
		prev.MulVec(s.matrices[i], bwd[i+1])
		prev.ScaleVec(1/scale[i], prev)
		bwd[i] = prev
	}

	return NewMessages(fwd, bwd, scale)
}

// NewMessages wraps precomputed scaled forward and backward vectors and derives log Z from the
// per-edge scale factors.
func NewMessages(fwd, bwd []*mat.VecDense, scale []float64) (*Messages, error) {
	if len(fwd) < 3 || len(fwd) != len(bwd) || len(scale) != len(fwd)-1 {
		return nil, fmt.Errorf("got %d forward, %d backward messages and %d scale factors, %w",
			len(fwd), len(bwd), len(scale), ErrMessageCount)
	}
	if fwd[len(fwd)-1].Len() != 1 || bwd[0].Len() != 1 {
		return nil, fmt.Errorf("boundary messages must have length 1, %w", ErrMessageCount)
	}
	for i, c := range scale {
		if err := checkPartition(c); err != nil {
			return nil, fmt.Errorf("scale factor of edge %d, %w", i, err)
		}
	}
	return &Messages{
		Forward:  fwd,
		Backward: bwd,
		Scale:    scale,
		LogZ:     logSum(scale),
	}, nil
}

// Probability returns P(labels | obs) of the sequence the messages were computed from
func (m *Messages) Probability(s *Sequence, labels []int) (float64, error) {
	logScore, err := s.LogUnnormalized(labels)
	if err != nil {
		return 0, err
	}
	return math.Exp(logScore - m.LogZ), nil
}

// EdgeMarginal returns the probability mass flowing through every cell of edge i,
// Forward[i][a] * M_i[a,b] * Backward[i+1][b] / Scale[i]. The entries of the result sum to 1.
func (m *Messages) EdgeMarginal(s *Sequence, i int) (*mat.Dense, error) {
	mx, err := s.Matrix(i)
	if err != nil {
		return nil, err
	}
	if i+1 >= len(m.Backward) {
		return nil, fmt.Errorf("edge %d with %d messages, %w", i, len(m.Backward), ErrMessageCount)
	}
	fwd, bwd, c := m.Forward[i], m.Backward[i+1], m.Scale[i]

	var marg mat.Dense
	marg.Apply(func(a, b int, v float64) float64 {
		return fwd.AtVec(a) * v * bwd.AtVec(b) / c
	}, mx)
	return &marg, nil
}

// LabelMarginals returns P(y_t = b | x) for every position t and label b
func (m *Messages) LabelMarginals(s *Sequence) [][]float64 {
	n := s.Len()
	marginals := make([][]float64, n)
	for t := 0; t < n; t++ {
		// label t is the destination of edge t
		fwd, bwd := m.Forward[t+1], m.Backward[t+1]
		marginals[t] = make([]float64, s.numLabels)
		for b := 0; b < s.numLabels; b++ {
			marginals[t][b] = fwd.AtVec(b) * bwd.AtVec(b)
		}
	}
	return marginals
}

func logSum(scale []float64) float64 {
	logZ := 0.0
	for _, c := range scale {
		logZ += math.Log(c)
	}
	return logZ
}

package chain

import (
	"math"

	"github.com/aouyang1/go-crf/feature"
)

// Unnormalized returns the product of the matrix entries selected by labels along the chain,
// from the start state through every label to the stop state.
func (s *Sequence) Unnormalized(labels []int) (float64, error) {
	if err := ValidateLabels(labels, s.Len(), s.numLabels); err != nil {
		return 0, err
	}
	score := 1.0
	for _, e := range feature.Edges(s.Len()) {
		a, b := e.Cell(labels)
		score *= s.matrices[e.Pos].At(a, b)
	}
	return score, nil
}

// LogUnnormalized returns the log of Unnormalized, summed edge by edge so long sequences neither
// overflow nor underflow.
func (s *Sequence) LogUnnormalized(labels []int) (float64, error) {
	if err := ValidateLabels(labels, s.Len(), s.numLabels); err != nil {
		return 0, err
	}
	logScore := 0.0
	for _, e := range feature.Edges(s.Len()) {
		a, b := e.Cell(labels)
		logScore += math.Log(s.matrices[e.Pos].At(a, b))
	}
	return logScore, nil
}

// Probability returns P(labels | obs), the unnormalized score divided by the partition function.
// The ratio is taken in log space so it stays in (0, 1] when either term is out of range.
func (s *Sequence) Probability(labels []int) (float64, error) {
	logScore, err := s.LogUnnormalized(labels)
	if err != nil {
		return 0, err
	}
	logZ, err := s.LogZ()
	if err != nil {
		return 0, err
	}
	return math.Exp(logScore - logZ), nil
}

// Score returns the conditional probability of labels given obs under params. All shape checks
// run before the transition matrices are built.
func Score(labels, obs []int, params []float64, oracle *feature.Oracle) (float64, error) {
	if err := ValidateInputs(obs, params, oracle); err != nil {
		return 0, err
	}
	if err := ValidateLabels(labels, len(obs), oracle.NumLabels()); err != nil {
		return 0, err
	}
	seq, err := Build(obs, params, oracle)
	if err != nil {
		return 0, err
	}
	return seq.Probability(labels)
}

// Partition returns the partition function of obs under params
func Partition(obs []int, params []float64, oracle *feature.Oracle) (float64, error) {
	seq, err := Build(obs, params, oracle)
	if err != nil {
		return 0, err
	}
	return seq.Z()
}

// Marginals returns the per-position label marginals of obs under params
func Marginals(obs []int, params []float64, oracle *feature.Oracle) ([][]float64, error) {
	seq, err := Build(obs, params, oracle)
	if err != nil {
		return nil, err
	}
	msgs, err := seq.Messages()
	if err != nil {
		return nil, err
	}
	return msgs.LabelMarginals(seq), nil
}

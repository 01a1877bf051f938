package synth

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/aouyang1/go-crf/chain"
	"github.com/aouyang1/go-crf/feature"
	"github.com/aouyang1/go-crf/train"

	"gonum.org/v1/gonum/floats"
)

var ErrNoMass = errors.New("no probability mass to sample from")

// Sampler draws label sequences exactly from P(y | x) of a CRF
type Sampler struct {
	oracle *feature.Oracle
	params []float64
	rng    *rand.Rand
}

// NewSampler validates params against the oracle and seeds the sampler
func NewSampler(oracle *feature.Oracle, params []float64, seed uint64) (*Sampler, error) {
	if oracle == nil {
		return nil, chain.ErrNilOracle
	}
	if len(params) != oracle.Len() {
		return nil, fmt.Errorf("got %d parameters for %d features, %w", len(params), oracle.Len(), chain.ErrParamLenMismatch)
	}
	return &Sampler{
		oracle: oracle,
		params: append([]float64(nil), params...),
		rng:    rand.New(rand.NewPCG(seed, seed^0x94d049bb133111eb)),
	}, nil
}

// Labels draws one label sequence for obs
func (s *Sampler) Labels(obs []int) ([]int, error) {
	return SampleLabels(obs, s.params, s.oracle, s.rng)
}

// Examples draws one labelled example per observation sequence
func (s *Sampler) Examples(observations [][]int) ([]train.Example, error) {
	examples := make([]train.Example, 0, len(observations))
	for i, obs := range observations {
		labels, err := s.Labels(obs)
		if err != nil {
			return nil, fmt.Errorf("sequence %d, %w", i, err)
		}
		examples = append(examples, train.Example{Labels: labels, Observations: append([]int(nil), obs...)})
	}
	return examples, nil
}

// SampleLabels draws labels left to right. Given the previous label a, label b at edge t is drawn
// with probability proportional to M_t[a,b] * Backward[t+1][b]. The scale factors of the backward
// messages are shared by every b and cancel.
func SampleLabels(obs []int, params []float64, oracle *feature.Oracle, rng *rand.Rand) ([]int, error) {
	seq, err := chain.Build(obs, params, oracle)
	if err != nil {
		return nil, err
	}
	msgs, err := seq.Messages()
	if err != nil {
		return nil, err
	}

	labels := make([]int, len(obs))
	weights := make([]float64, oracle.NumLabels())
	prev := 0
	for t := range labels {
		m, err := seq.Matrix(t)
		if err != nil {
			return nil, err
		}
		bwd := msgs.Backward[t+1]
		for b := range weights {
			weights[b] = m.At(prev, b) * bwd.AtVec(b)
		}
		y, err := categorical(rng, weights)
		if err != nil {
			return nil, fmt.Errorf("position %d, %w", t, err)
		}
		labels[t] = y
		prev = y
	}
	return labels, nil
}

// categorical draws an index with probability proportional to its weight
func categorical(rng *rand.Rand, weights []float64) (int, error) {
	total := floats.Sum(weights)
	if !(total > 0) {
		return 0, ErrNoMass
	}
	u := rng.Float64() * total
	for i, w := range weights {
		u -= w
		if u < 0 {
			return i, nil
		}
	}
	// rounding left a sliver of mass, take the last non-zero weight
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i, nil
		}
	}
	return 0, ErrNoMass
}

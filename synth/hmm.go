// Package synth generates labelled sequences for exercising and benchmarking the CRF.
package synth

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/aouyang1/go-crf/train"
)

const (
	DefaultStay  = 0.6
	DefaultNoise = 0.2
)

var (
	ErrNoOptions       = errors.New("no hmm options provided")
	ErrNumLabels       = errors.New("number of labels must be at least 1")
	ErrNumObservations = errors.New("number of observation symbols must be at least 1")
	ErrProbability     = errors.New("probability must be within [0, 1]")
	ErrLength          = errors.New("sequence length must be at least 1")
)

// HMMOptions configures a hidden Markov chain whose hidden states are the labels
type HMMOptions struct {
	NumLabels       int `json:"num_labels"`
	NumObservations int `json:"num_observations"`

	// Stay is the probability the hidden state repeats. Otherwise it takes a random walk step of
	// -1 to +3 that wraps around the label range.
	Stay float64 `json:"stay"`

	// Noise is the probability an observation is shifted by -2 to +1 symbols away from the
	// symbol of its hidden state
	Noise float64 `json:"noise"`

	Seed uint64 `json:"seed"`
}

// Validate returns the options or an error if any option is out of range
func (o *HMMOptions) Validate() (*HMMOptions, error) {
	if o == nil {
		return nil, ErrNoOptions
	}
	if o.NumLabels < 1 {
		return nil, fmt.Errorf("got %d labels, %w", o.NumLabels, ErrNumLabels)
	}
	if o.NumObservations < 1 {
		return nil, fmt.Errorf("got %d symbols, %w", o.NumObservations, ErrNumObservations)
	}
	if o.Stay < 0 || o.Stay > 1 {
		return nil, fmt.Errorf("stay of %g, %w", o.Stay, ErrProbability)
	}
	if o.Noise < 0 || o.Noise > 1 {
		return nil, fmt.Errorf("noise of %g, %w", o.Noise, ErrProbability)
	}
	return o, nil
}

// HMM draws label and observation sequences from a hidden Markov chain
type HMM struct {
	opt *HMMOptions
	rng *rand.Rand
}

// NewHMM seeds a generator from opt
func NewHMM(opt *HMMOptions) (*HMM, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &HMM{
		opt: opt,
		rng: rand.New(rand.NewPCG(opt.Seed, opt.Seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Sequence draws one example of length n
func (h *HMM) Sequence(n int) (train.Example, error) {
	if n < 1 {
		return train.Example{}, fmt.Errorf("got %d, %w", n, ErrLength)
	}
	labels := make([]int, n)
	obs := make([]int, n)

	labels[0] = h.rng.IntN(h.opt.NumLabels)
	for t := 1; t < n; t++ {
		labels[t] = h.nextLabel(labels[t-1])
	}
	for t, y := range labels {
		obs[t] = h.observe(y)
	}
	return train.Example{Labels: labels, Observations: obs}, nil
}

// Generate draws count examples of length n
func (h *HMM) Generate(count, n int) ([]train.Example, error) {
	examples := make([]train.Example, 0, count)
	for i := 0; i < count; i++ {
		ex, err := h.Sequence(n)
		if err != nil {
			return nil, err
		}
		examples = append(examples, ex)
	}
	return examples, nil
}

func (h *HMM) nextLabel(prev int) int {
	if h.rng.Float64() < h.opt.Stay {
		return prev
	}
	step := h.rng.IntN(5) - 1
	return wrap(prev+step, h.opt.NumLabels)
}

// Symbol returns the noiseless observation of label y
func (h *HMM) Symbol(y int) int {
	return y * h.opt.NumObservations / h.opt.NumLabels
}

func (h *HMM) observe(y int) int {
	x := h.Symbol(y)
	if h.rng.Float64() >= h.opt.Noise {
		return x
	}
	shift := h.rng.IntN(4) - 2
	return wrap(x+shift, h.opt.NumObservations)
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

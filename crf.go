// Package crf is a linear-chain Conditional Random Field. It scores label sequences, decodes the
// most probable labelling of an observation sequence, computes label marginals and fits its
// parameters to labelled examples with generalized iterative scaling.
package crf

import (
	"errors"
	"fmt"
	"io"

	"github.com/aouyang1/go-crf/chain"
	"github.com/aouyang1/go-crf/feature"
	"github.com/aouyang1/go-crf/train"

	"github.com/go-echarts/go-echarts/v2/components"
)

var (
	ErrNilOracle = errors.New("no feature oracle provided")
	ErrNotFit    = errors.New("model has not been fit")
)

// CRF holds a feature oracle and the parameter vector aligned with it
type CRF struct {
	opt    *Options
	oracle *feature.Oracle
	params []float64

	fitResult *train.Result
	fitScores *Scores
}

// New creates a CRF over oracle. A nil params starts every weight at zero and nil options use
// the defaults.
func New(oracle *feature.Oracle, params []float64, opt *Options) (*CRF, error) {
	if oracle == nil {
		return nil, ErrNilOracle
	}
	opt, err := opt.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid options, %w", err)
	}
	if params == nil {
		params = make([]float64, oracle.Len())
	}
	if len(params) != oracle.Len() {
		return nil, fmt.Errorf("got %d parameters for %d features, %w", len(params), oracle.Len(), chain.ErrParamLenMismatch)
	}
	return &CRF{
		opt:    opt,
		oracle: oracle,
		params: append([]float64(nil), params...),
	}, nil
}

// NewOneHot creates a zero-initialized CRF over the one-hot transition and emission basis
func NewOneHot(numLabels, numObservations int, opt *Options) (*CRF, error) {
	oracle, err := feature.OneHot(numLabels, numObservations)
	if err != nil {
		return nil, fmt.Errorf("unable to generate one-hot basis, %w", err)
	}
	return New(oracle, nil, opt)
}

// Fit trains the parameters on examples starting from the current parameters
func (c *CRF) Fit(examples []train.Example) error {
	res, err := train.Fit(examples, c.params, c.oracle, c.opt.TrainOptions)
	if err != nil {
		return fmt.Errorf("unable to fit parameters, %w", err)
	}
	c.params = res.Params
	c.fitResult = res

	if !c.opt.ScoreFit {
		return nil
	}
	scores, err := c.Evaluate(examples)
	if err != nil {
		return fmt.Errorf("unable to score training examples, %w", err)
	}
	c.fitScores = scores
	return nil
}

// Score returns P(labels | obs)
func (c *CRF) Score(labels, obs []int) (float64, error) {
	return chain.Score(labels, obs, c.params, c.oracle)
}

// Decode returns the most probable label sequence of obs
func (c *CRF) Decode(obs []int) ([]int, error) {
	return chain.Decode(obs, c.params, c.oracle)
}

// Partition returns the partition function of obs
func (c *CRF) Partition(obs []int) (float64, error) {
	return chain.Partition(obs, c.params, c.oracle)
}

// Marginals returns P(y_t = b | obs) for every position t and label b
func (c *CRF) Marginals(obs []int) ([][]float64, error) {
	return chain.Marginals(obs, c.params, c.oracle)
}

// Predict decodes obs and reports the probability of the decoded labels and the label marginals,
// sharing one matrix sequence between them.
func (c *CRF) Predict(obs []int) (*Results, error) {
	lat, err := train.NewLattice(obs, c.params, c.oracle)
	if err != nil {
		return nil, err
	}
	labels, _ := lat.Sequence.Viterbi()
	p, err := lat.Messages.Probability(lat.Sequence, labels)
	if err != nil {
		return nil, err
	}
	return &Results{
		Observations: append([]int(nil), obs...),
		Labels:       labels,
		Probability:  p,
		Marginals:    lat.Messages.LabelMarginals(lat.Sequence),
	}, nil
}

// Evaluate decodes every example and scores the predictions against its labels
func (c *CRF) Evaluate(examples []train.Example) (*Scores, error) {
	if len(examples) == 0 {
		return nil, train.ErrNoExamples
	}
	predicted := make([][]int, 0, len(examples))
	actual := make([][]int, 0, len(examples))
	logLiks := make([]float64, 0, len(examples))
	for i, ex := range examples {
		if err := ex.Validate(c.oracle.NumLabels(), c.oracle.NumObservations()); err != nil {
			return nil, fmt.Errorf("example %d, %w", i, err)
		}
		lat, err := train.NewLattice(ex.Observations, c.params, c.oracle)
		if err != nil {
			return nil, fmt.Errorf("example %d, %w", i, err)
		}
		labels, _ := lat.Sequence.Viterbi()
		ll, err := train.LogLikelihood(lat, ex.Labels)
		if err != nil {
			return nil, fmt.Errorf("example %d, %w", i, err)
		}
		predicted = append(predicted, labels)
		actual = append(actual, ex.Labels)
		logLiks = append(logLiks, ll)
	}
	return NewScores(predicted, actual, logLiks)
}

// Params returns a copy of the parameter vector
func (c *CRF) Params() []float64 {
	return append([]float64(nil), c.params...)
}

// Oracle returns the feature oracle the parameters are aligned with
func (c *CRF) Oracle() *feature.Oracle {
	return c.oracle
}

// FitResult returns the training history of the last Fit, nil before the first Fit
func (c *CRF) FitResult() *train.Result {
	return c.fitResult
}

// FitScores returns the training set scores of the last Fit
func (c *CRF) FitScores() *Scores {
	return c.fitScores
}

// Model generates a report of the options, fit scores and feature weights
func (c *CRF) Model() Model {
	labels := c.oracle.Labels()
	names := labels.Names()
	weights := make([]Weight, 0, len(names))
	for i, f := range labels.Labels() {
		weights = append(weights, Weight{
			Name:  names[i],
			Kind:  f.Kind(),
			Value: c.params[i],
		})
	}
	m := Model{
		NumLabels:       c.oracle.NumLabels(),
		NumObservations: c.oracle.NumObservations(),
		Options:         c.opt,
		Scores:          c.fitScores,
		Weights:         weights,
	}
	if c.fitResult != nil {
		m.RunID = c.fitResult.RunID
	}
	return m
}

// PlotFit uses the Apache Echarts library to render an html page with the training convergence of
// the last Fit and the label marginals of obs.
func (c *CRF) PlotFit(w io.Writer, obs []int) error {
	if c.fitResult == nil {
		return ErrNotFit
	}
	marginals, err := c.Marginals(obs)
	if err != nil {
		return fmt.Errorf("unable to compute marginals, %w", err)
	}

	page := components.NewPage()
	page.AddCharts(
		LineConvergence(c.fitResult.History),
		LineMarginals("Label Marginals", marginals),
	)
	return page.Render(w)
}

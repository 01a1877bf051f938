// Package train estimates CRF parameters with generalized iterative scaling. Every sweep computes
// the empirical feature counts of the labelled examples and the counts expected under the current
// parameters, then moves each parameter by the smoothed log ratio of the two.
package train

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-crf/chain"
)

var ErrNoExamples = errors.New("no training examples")

// Example is one labelled observation sequence
type Example struct {
	Labels       []int `json:"labels"`
	Observations []int `json:"observations"`
}

// Validate checks that the example is non-empty, that labels and observations pair up and that
// every value is within range.
func (e Example) Validate(numLabels, numObservations int) error {
	if err := chain.ValidateObservations(e.Observations, numObservations); err != nil {
		return err
	}
	return chain.ValidateLabels(e.Labels, len(e.Observations), numLabels)
}

func validateExamples(examples []Example, numLabels, numObservations int) error {
	if len(examples) == 0 {
		return ErrNoExamples
	}
	for i, ex := range examples {
		if err := ex.Validate(numLabels, numObservations); err != nil {
			return fmt.Errorf("example %d, %w", i, err)
		}
	}
	return nil
}

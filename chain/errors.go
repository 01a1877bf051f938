package chain

import (
	"errors"
	"fmt"
	"math"

	"github.com/aouyang1/go-crf/feature"
)

var (
	ErrNilOracle             = errors.New("nil feature oracle")
	ErrEmptySequence         = errors.New("sequence has no positions")
	ErrParamLenMismatch      = errors.New("number of parameters does not match number of features")
	ErrLengthMismatch        = errors.New("label sequence length does not match observation sequence length")
	ErrLabelOutOfRange       = errors.New("label is out of range")
	ErrObservationOutOfRange = errors.New("observation symbol is out of range")
	ErrFeatureShape          = errors.New("feature value has unexpected shape")
	ErrNumericInstability    = errors.New("transition matrix has non-finite or non-positive entries")
	ErrDegeneratePartition   = errors.New("partition function is not positive and finite")
	ErrEdgeOutOfRange        = errors.New("edge is out of range")
	ErrMatrixCount           = errors.New("matrix count does not match sequence length")
	ErrMessageCount          = errors.New("message count does not match sequence length")
)

// ValidateInputs checks the oracle, parameter vector and observation sequence before any numeric
// work is done.
func ValidateInputs(obs []int, params []float64, oracle *feature.Oracle) error {
	if oracle == nil {
		return ErrNilOracle
	}
	if len(params) != oracle.Len() {
		return fmt.Errorf("got %d parameters for %d features, %w", len(params), oracle.Len(), ErrParamLenMismatch)
	}
	return ValidateObservations(obs, oracle.NumObservations())
}

// ValidateObservations checks that obs is non-empty and every symbol is within [0, numObservations)
func ValidateObservations(obs []int, numObservations int) error {
	if len(obs) == 0 {
		return ErrEmptySequence
	}
	for i, x := range obs {
		if x < 0 || x >= numObservations {
			return fmt.Errorf("symbol %d at position %d with %d symbols, %w", x, i, numObservations, ErrObservationOutOfRange)
		}
	}
	return nil
}

// ValidateLabels checks that labels pairs with a sequence of n observations and every label is
// within [0, numLabels)
func ValidateLabels(labels []int, n, numLabels int) error {
	if len(labels) == 0 {
		return ErrEmptySequence
	}
	if len(labels) != n {
		return fmt.Errorf("got %d labels for %d observations, %w", len(labels), n, ErrLengthMismatch)
	}
	for i, y := range labels {
		if y < 0 || y >= numLabels {
			return fmt.Errorf("label %d at position %d with %d labels, %w", y, i, numLabels, ErrLabelOutOfRange)
		}
	}
	return nil
}

func checkPartition(z float64) error {
	if math.IsNaN(z) || math.IsInf(z, 0) || z <= 0 {
		return fmt.Errorf("got %g, %w", z, ErrDegeneratePartition)
	}
	return nil
}

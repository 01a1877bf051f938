package feature

import (
	"errors"
	"fmt"
)

var (
	ErrNumLabels        = errors.New("number of labels must be at least 1")
	ErrNumObservations  = errors.New("number of observation symbols must be at least 1")
	ErrNoFeatures       = errors.New("no features provided")
	ErrNilFeature       = errors.New("nil feature")
	ErrFeatureOrder     = errors.New("transition features must precede emission features")
	ErrDuplicateFeature = errors.New("duplicate feature name")
)

// Oracle is the ordered feature list of a model. Transition features occupy indices
// [0, numTransition) and emission features the remaining indices, so a parameter vector is laid
// out as [transition weights... | emission weights...].
type Oracle struct {
	numLabels       int
	numObservations int

	labels      *Labels
	transitions []*Transition
	emissions   []*Emission
}

// NewOracle validates and indexes the features. Features must be ordered transitions first.
func NewOracle(numLabels, numObservations int, features ...Feature) (*Oracle, error) {
	if numLabels < 1 {
		return nil, fmt.Errorf("got %d labels, %w", numLabels, ErrNumLabels)
	}
	if numObservations < 1 {
		return nil, fmt.Errorf("got %d observation symbols, %w", numObservations, ErrNumObservations)
	}
	if len(features) == 0 {
		return nil, ErrNoFeatures
	}

	o := &Oracle{
		numLabels:       numLabels,
		numObservations: numObservations,
	}
	for i, f := range features {
		switch feat := f.(type) {
		case *Transition:
			if feat == nil {
				return nil, fmt.Errorf("feature %d, %w", i, ErrNilFeature)
			}
			if len(o.emissions) > 0 {
				return nil, fmt.Errorf("transition %s at index %d follows an emission, %w", feat, i, ErrFeatureOrder)
			}
			o.transitions = append(o.transitions, feat)
		case *Emission:
			if feat == nil {
				return nil, fmt.Errorf("feature %d, %w", i, ErrNilFeature)
			}
			o.emissions = append(o.emissions, feat)
		default:
			return nil, fmt.Errorf("feature %d, %w", i, ErrNilFeature)
		}
	}

	labels, err := NewLabels(features)
	if err != nil {
		return nil, err
	}
	o.labels = labels
	return o, nil
}

func (o *Oracle) NumLabels() int {
	return o.numLabels
}

func (o *Oracle) NumObservations() int {
	return o.numObservations
}

// Len returns the total number of features, which is also the required parameter vector length
func (o *Oracle) Len() int {
	return len(o.transitions) + len(o.emissions)
}

// Partition returns the number of transition and emission features
func (o *Oracle) Partition() (int, int) {
	return len(o.transitions), len(o.emissions)
}

// Transitions returns the transition features. Transition k has parameter index k.
func (o *Oracle) Transitions() []*Transition {
	return o.transitions
}

// Emissions returns the emission features. Emission k has parameter index numTransition+k.
func (o *Oracle) Emissions() []*Emission {
	return o.emissions
}

// Labels returns the feature index in parameter order
func (o *Oracle) Labels() *Labels {
	return o.labels
}

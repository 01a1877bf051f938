package feature

import (
	"fmt"

	mat_ "github.com/aouyang1/go-crf/mat"

	"gonum.org/v1/gonum/mat"
)

// OneHot generates the HMM-like indicator basis for numLabels labels and numObservations symbols.
// The transition features are, in order, one start indicator per label (fires on the start edge),
// one indicator per label pair (fires on internal edges) and one stop indicator per label (fires
// on the stop edge). They are followed by one emission indicator per (observation, label) pair
// that fires on labelled edges whose observation matches.
func OneHot(numLabels, numObservations int) (*Oracle, error) {
	if numLabels < 1 {
		return nil, fmt.Errorf("got %d labels, %w", numLabels, ErrNumLabels)
	}
	if numObservations < 1 {
		return nil, fmt.Errorf("got %d observation symbols, %w", numObservations, ErrNumObservations)
	}

	features := make([]Feature, 0, 2*numLabels+numLabels*numLabels+numObservations*numLabels)
	for y := 0; y < numLabels; y++ {
		m, err := mat_.OneHotDense(1, numLabels, 0, y)
		if err != nil {
			return nil, err
		}
		features = append(features, NewTransition(StartName(y), onEdge(EdgeStart, m)))
	}
	for from := 0; from < numLabels; from++ {
		for to := 0; to < numLabels; to++ {
			m, err := mat_.OneHotDense(numLabels, numLabels, from, to)
			if err != nil {
				return nil, err
			}
			features = append(features, NewTransition(PairName(from, to), onEdge(EdgeInternal, m)))
		}
	}
	for y := 0; y < numLabels; y++ {
		m, err := mat_.OneHotDense(numLabels, 1, y, 0)
		if err != nil {
			return nil, err
		}
		features = append(features, NewTransition(StopName(y), onEdge(EdgeStop, m)))
	}
	for x := 0; x < numObservations; x++ {
		for y := 0; y < numLabels; y++ {
			v, err := mat_.OneHotVec(numLabels, y)
			if err != nil {
				return nil, err
			}
			features = append(features, NewEmission(EmissionName(x, y), onSymbol(x, v)))
		}
	}
	return NewOracle(numLabels, numObservations, features...)
}

func StartName(y int) string {
	return fmt.Sprintf("trans_start_y%02d", y)
}

func PairName(from, to int) string {
	return fmt.Sprintf("trans_y%02d_y%02d", from, to)
}

func StopName(y int) string {
	return fmt.Sprintf("trans_y%02d_stop", y)
}

func EmissionName(x, y int) string {
	return fmt.Sprintf("emit_x%02d_y%02d", x, y)
}

func onEdge(kind EdgeKind, m *mat.Dense) TransitionFunc {
	return func(e Edge, _ []int) mat.Matrix {
		if e.Kind != kind {
			return nil
		}
		return m
	}
}

func onSymbol(x int, v *mat.VecDense) EmissionFunc {
	return func(e Edge, obs []int) mat.Vector {
		if e.Pos >= len(obs) || obs[e.Pos] != x {
			return nil
		}
		return v
	}
}

package chain

import (
	"math"

	"github.com/aouyang1/go-crf/feature"
	"gonum.org/v1/gonum/floats"
)

// Viterbi returns the label sequence with the highest unnormalized score and that score. Ties
// are broken towards the lowest label index. The score saturates on chains whose path mass is out
// of float64 range; Messages.Probability normalizes the path in log space.
func (s *Sequence) Viterbi() ([]int, float64) {
	n := s.Len()
	numLabels := s.numLabels

	// best[b] is the best partial path score ending in label b, rescaled after every edge so long
	// chains do not underflow. logScale accumulates the removed factors.
	best := make([]float64, numLabels)
	start := s.matrices[0]
	for b := 0; b < numLabels; b++ {
		best[b] = start.At(boundary, b)
	}
	logScale := rescale(best)

	// backptr[t][b] is the best label at t-1 given label b at t
	backptr := make([][]int, n)
	for t := 1; t < n; t++ {
		m := s.matrices[t]
		next := make([]float64, numLabels)
		ptr := make([]int, numLabels)
		for b := 0; b < numLabels; b++ {
			bestPrev, bestScore := 0, -1.0
			for a := 0; a < numLabels; a++ {
				score := best[a] * m.At(a, b)
				if score > bestScore {
					bestPrev, bestScore = a, score
				}
			}
			next[b] = bestScore
			ptr[b] = bestPrev
		}
		logScale += rescale(next)
		best = next
		backptr[t] = ptr
	}

	stop := s.matrices[n]
	bestLast, bestScore := 0, -1.0
	for b := 0; b < numLabels; b++ {
		score := best[b] * stop.At(b, boundary)
		if score > bestScore {
			bestLast, bestScore = b, score
		}
	}

	path := make([]int, n)
	path[n-1] = bestLast
	for t := n - 1; t >= 1; t-- {
		path[t-1] = backptr[t][path[t]]
	}
	return path, bestScore * math.Exp(logScale)
}

// rescale divides s by its maximum and returns the log of the factor removed
func rescale(s []float64) float64 {
	mx := floats.Max(s)
	if mx <= 0 || math.IsInf(mx, 0) {
		return 0
	}
	floats.Scale(1/mx, s)
	return math.Log(mx)
}

// Decode returns the most probable label sequence for obs under params
func Decode(obs []int, params []float64, oracle *feature.Oracle) ([]int, error) {
	seq, err := Build(obs, params, oracle)
	if err != nil {
		return nil, err
	}
	path, _ := seq.Viterbi()
	return path, nil
}

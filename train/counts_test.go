package train

import (
	"math"
	"testing"

	"github.com/aouyang1/go-crf/chain"
	"github.com/aouyang1/go-crf/feature"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// allLabelings enumerates every label sequence of length n
func allLabelings(numLabels, n int) [][]int {
	if n == 0 {
		return [][]int{{}}
	}
	var out [][]int
	for _, prefix := range allLabelings(numLabels, n-1) {
		for y := 0; y < numLabels; y++ {
			seq := append(append([]int(nil), prefix...), y)
			out = append(out, seq)
		}
	}
	return out
}

// mixedOracle adds non-negative real valued features to the one-hot basis
func mixedOracle(t *testing.T, numLabels, numObservations int) *feature.Oracle {
	t.Helper()
	onehot, err := feature.OneHot(numLabels, numObservations)
	require.Nil(t, err)

	var features []feature.Feature
	for _, f := range onehot.Transitions() {
		features = append(features, f)
	}
	features = append(features, feature.NewTransition("trans_diag_weight", func(e feature.Edge, obs []int) mat.Matrix {
		if e.Kind != feature.EdgeInternal {
			return nil
		}
		m := mat.NewDense(numLabels, numLabels, nil)
		for y := 0; y < numLabels; y++ {
			m.Set(y, y, 0.5+0.25*float64(obs[e.Pos]))
		}
		return m
	}))
	for _, f := range onehot.Emissions() {
		features = append(features, f)
	}
	features = append(features, feature.NewEmission("emit_ramp", func(e feature.Edge, obs []int) mat.Vector {
		v := mat.NewVecDense(numLabels, nil)
		for y := 0; y < numLabels; y++ {
			v.SetVec(y, float64(y)*0.3+float64(obs[e.Pos])*0.1)
		}
		return v
	}))

	o, err := feature.NewOracle(numLabels, numObservations, features...)
	require.Nil(t, err)
	return o
}

func countOf(t *testing.T, counts []float64, oracle *feature.Oracle, name string) float64 {
	t.Helper()
	idx, ok := oracle.Labels().IndexOf(name)
	require.True(t, ok, name)
	return counts[idx]
}

func TestEmpiricalCounts(t *testing.T) {
	oracle, err := feature.OneHot(2, 2)
	require.Nil(t, err)

	examples := []Example{
		{Labels: []int{0, 1}, Observations: []int{1, 1}},
		{Labels: []int{0, 0, 0}, Observations: []int{0, 1, 0}},
	}
	counts, err := EmpiricalCounts(examples, oracle)
	require.Nil(t, err)

	expected := map[string]float64{
		feature.StartName(0):       1.0,
		feature.StartName(1):       0.0,
		feature.PairName(0, 0):     1.0,
		feature.PairName(0, 1):     0.5,
		feature.PairName(1, 0):     0.0,
		feature.PairName(1, 1):     0.0,
		feature.StopName(0):        0.5,
		feature.StopName(1):        0.5,
		feature.EmissionName(0, 0): 1.0,
		feature.EmissionName(0, 1): 0.0,
		feature.EmissionName(1, 0): 1.0,
		feature.EmissionName(1, 1): 0.5,
	}
	for name, val := range expected {
		assert.InDelta(t, val, countOf(t, counts, oracle, name), 1e-12, name)
	}

	// each sequence fires one start, one stop, n-1 pairs and n emissions
	assert.InDelta(t, (5.0+7.0)/2, floats.Sum(counts), 1e-12)
}

func TestEmpiricalCountsErrors(t *testing.T) {
	oracle, err := feature.OneHot(2, 2)
	require.Nil(t, err)

	testData := map[string]struct {
		examples []Example
		oracle   *feature.Oracle
		err      error
	}{
		"nil oracle":      {[]Example{{[]int{0}, []int{0}}}, nil, chain.ErrNilOracle},
		"no examples":     {nil, oracle, ErrNoExamples},
		"length mismatch": {[]Example{{[]int{0}, []int{0, 1}}}, oracle, chain.ErrLengthMismatch},
		"empty example":   {[]Example{{nil, nil}}, oracle, chain.ErrEmptySequence},
		"bad label":       {[]Example{{[]int{2}, []int{0}}}, oracle, chain.ErrLabelOutOfRange},
		"bad observation": {[]Example{{[]int{0}, []int{3}}}, oracle, chain.ErrObservationOutOfRange},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := EmpiricalCounts(td.examples, td.oracle)
			assert.ErrorIs(t, err, td.err)
		})
	}
}

func TestExpectedCountsUniform(t *testing.T) {
	oracle, err := feature.OneHot(2, 2)
	require.Nil(t, err)
	params := make([]float64, oracle.Len())

	counts, err := ExpectedCounts([]Example{{Labels: []int{0, 0}, Observations: []int{1, 1}}}, params, oracle, nil)
	require.Nil(t, err)

	expected := map[string]float64{
		feature.StartName(0):       0.5,
		feature.StartName(1):       0.5,
		feature.PairName(0, 0):     0.25,
		feature.PairName(1, 0):     0.25,
		feature.StopName(1):        0.5,
		feature.EmissionName(0, 0): 0.0,
		feature.EmissionName(0, 1): 0.0,
		feature.EmissionName(1, 0): 1.0,
		feature.EmissionName(1, 1): 1.0,
	}
	for name, val := range expected {
		assert.InDelta(t, val, countOf(t, counts, oracle, name), 1e-12, name)
	}
}

// The expected count of a feature is the probability weighted average of its empirical count
// over every labelling of the observations.
func TestExpectedCountsBruteForce(t *testing.T) {
	testData := map[string]struct {
		numLabels int
		obs       [][]int
	}{
		"single label":  {1, [][]int{{0, 1, 2}}},
		"two labels":    {2, [][]int{{2, 0}, {1, 1, 0}}},
		"three labels":  {3, [][]int{{0, 2, 1}, {1}}},
		"repeated seqs": {2, [][]int{{0, 1}, {0, 1}, {2, 2, 2, 2}}},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			oracle := mixedOracle(t, td.numLabels, 3)
			params := make([]float64, oracle.Len())
			for i := range params {
				params[i] = 0.4 * math.Sin(float64(i))
			}

			examples := make([]Example, 0, len(td.obs))
			expected := make([]float64, oracle.Len())
			for _, obs := range td.obs {
				examples = append(examples, Example{Labels: make([]int, len(obs)), Observations: obs})
				for _, labels := range allLabelings(td.numLabels, len(obs)) {
					p, err := chain.Score(labels, obs, params, oracle)
					require.Nil(t, err)
					emp, err := EmpiricalCounts([]Example{{Labels: labels, Observations: obs}}, oracle)
					require.Nil(t, err)
					for k := range expected {
						expected[k] += p * emp[k] / float64(len(td.obs))
					}
				}
			}

			cache := NewSweepCache(DefaultCacheBytes, td.numLabels)
			actual, err := ExpectedCounts(examples, params, oracle, cache)
			require.Nil(t, err)
			assert.InDeltaSlice(t, expected, actual, 1e-9)
			assert.Equal(t, len(td.obs), cache.Stats().Hits+cache.Stats().Misses)
		})
	}
}

func TestLogLikelihood(t *testing.T) {
	oracle := mixedOracle(t, 3, 3)
	params := make([]float64, oracle.Len())
	for i := range params {
		params[i] = 0.2 * math.Cos(float64(i))
	}
	obs := []int{2, 1, 0, 0}

	lat, err := NewLattice(obs, params, oracle)
	require.Nil(t, err)

	for _, labels := range [][]int{{0, 0, 0, 0}, {2, 1, 0, 1}, {1, 2, 2, 0}} {
		p, err := chain.Score(labels, obs, params, oracle)
		require.Nil(t, err)
		ll, err := LogLikelihood(lat, labels)
		require.Nil(t, err)
		assert.InDelta(t, math.Log(p), ll, 1e-9)
	}

	_, err = LogLikelihood(lat, []int{0})
	assert.ErrorIs(t, err, chain.ErrLengthMismatch)
}

func TestUpdate(t *testing.T) {
	oracle, err := feature.OneHot(1, 1)
	require.Nil(t, err)
	require.Equal(t, 4, oracle.Len())

	params := []float64{0.5, 0, -1, 2}
	next, maxChange, err := update(params, []float64{1, 2, 0, 3}, []float64{1, 1, 2, 3}, oracle, 1e-4, 2)
	require.Nil(t, err)

	assert.InDeltaSlice(t, []float64{
		0.5,
		math.Log(2.0001/1.0001) / 2,
		-1 + math.Log(1e-4/2.0001)/2,
		2,
	}, next, 1e-12)
	assert.InDelta(t, math.Abs(math.Log(1e-4/2.0001)/2), maxChange, 1e-12)
	assert.Equal(t, []float64{0.5, 0, -1, 2}, params)

	_, _, err = update(params, []float64{-1, 0, 0, 0}, []float64{1, 1, 1, 1}, oracle, 1e-4, 1)
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestCellDot(t *testing.T) {
	marg := mat.NewDense(3, 3, []float64{
		0.1, 0.2, 0.0,
		0.0, 0.3, 0.1,
		0.2, 0.0, 0.1,
	})

	testData := map[string]struct {
		val      mat.Matrix
		expected float64
	}{
		"dense":         {mat.NewDense(3, 3, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}), 4.9},
		"strided slice": {mat.NewDense(3, 4, []float64{1, 2, 3, 0, 4, 5, 6, 0, 7, 8, 9, 0}).Slice(0, 3, 0, 3), 4.9},
		"diagonal":      {mat.NewDiagDense(3, []float64{1, 2, 3}), 1.0},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, td.expected, cellDot(marg, td.val), 1e-12)
		})
	}
}

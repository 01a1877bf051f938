package synth

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/aouyang1/go-crf/chain"
	"github.com/aouyang1/go-crf/feature"
	"github.com/aouyang1/go-crf/train"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMMOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt *HMMOptions
		err error
	}{
		"nil":             {nil, ErrNoOptions},
		"valid":           {&HMMOptions{NumLabels: 3, NumObservations: 4, Stay: 0.5, Noise: 0.1}, nil},
		"no labels":       {&HMMOptions{NumObservations: 4}, ErrNumLabels},
		"no observations": {&HMMOptions{NumLabels: 3}, ErrNumObservations},
		"negative stay":   {&HMMOptions{NumLabels: 3, NumObservations: 4, Stay: -0.1}, ErrProbability},
		"noise above one": {&HMMOptions{NumLabels: 3, NumObservations: 4, Noise: 1.5}, ErrProbability},
		"certain":         {&HMMOptions{NumLabels: 1, NumObservations: 1, Stay: 1, Noise: 1}, nil},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt, err := td.opt.Validate()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.opt, opt)
		})
	}
}

func TestHMMGenerate(t *testing.T) {
	opt := &HMMOptions{NumLabels: 4, NumObservations: 6, Stay: DefaultStay, Noise: DefaultNoise, Seed: 42}
	hmm, err := NewHMM(opt)
	require.Nil(t, err)

	examples, err := hmm.Generate(50, 7)
	require.Nil(t, err)
	require.Len(t, examples, 50)
	for _, ex := range examples {
		assert.Nil(t, ex.Validate(4, 6))
		assert.Len(t, ex.Labels, 7)
	}

	// same seed, same draws
	again, err := NewHMM(opt)
	require.Nil(t, err)
	repeat, err := again.Generate(50, 7)
	require.Nil(t, err)
	assert.Equal(t, examples, repeat)

	_, err = hmm.Sequence(0)
	assert.ErrorIs(t, err, ErrLength)
}

func TestHMMNoiseless(t *testing.T) {
	hmm, err := NewHMM(&HMMOptions{NumLabels: 3, NumObservations: 6, Stay: 1, Noise: 0, Seed: 7})
	require.Nil(t, err)

	for i := 0; i < 20; i++ {
		ex, err := hmm.Sequence(5)
		require.Nil(t, err)
		for pos, y := range ex.Labels {
			assert.Equal(t, ex.Labels[0], y)
			assert.Equal(t, hmm.Symbol(y), ex.Observations[pos])
		}
	}
}

func TestWrap(t *testing.T) {
	testData := map[string]struct {
		v, n     int
		expected int
	}{
		"in range":  {2, 5, 2},
		"above":     {7, 5, 2},
		"below":     {-1, 5, 4},
		"far below": {-11, 5, 4},
		"single":    {3, 1, 0},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, wrap(td.v, td.n))
		})
	}
}

func TestCategorical(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))

	_, err := categorical(rng, []float64{0, 0})
	assert.ErrorIs(t, err, ErrNoMass)

	for i := 0; i < 100; i++ {
		y, err := categorical(rng, []float64{0, 3, 0})
		require.Nil(t, err)
		assert.Equal(t, 1, y)
	}
}

func TestSampleLabelsDistribution(t *testing.T) {
	oracle, err := feature.OneHot(2, 2)
	require.Nil(t, err)
	params := make([]float64, oracle.Len())
	for i := range params {
		params[i] = 0.8 * float64(i%3-1)
	}
	obs := []int{1, 0, 1}

	sampler, err := NewSampler(oracle, params, 3)
	require.Nil(t, err)

	draws := 20000
	freq := make(map[string]float64)
	for i := 0; i < draws; i++ {
		labels, err := sampler.Labels(obs)
		require.Nil(t, err)
		freq[fmt.Sprint(labels)] += 1.0 / float64(draws)
	}

	for a := 0; a < 2; a++ {
		for b := 0; b < 2; b++ {
			for c := 0; c < 2; c++ {
				labels := []int{a, b, c}
				p, err := chain.Score(labels, obs, params, oracle)
				require.Nil(t, err)
				assert.InDelta(t, p, freq[fmt.Sprint(labels)], 0.015, "labels %v", labels)
			}
		}
	}
}

func TestNewSamplerErrors(t *testing.T) {
	oracle, err := feature.OneHot(2, 2)
	require.Nil(t, err)

	_, err = NewSampler(nil, nil, 0)
	assert.ErrorIs(t, err, chain.ErrNilOracle)

	_, err = NewSampler(oracle, []float64{1}, 0)
	assert.ErrorIs(t, err, chain.ErrParamLenMismatch)

	sampler, err := NewSampler(oracle, make([]float64, oracle.Len()), 0)
	require.Nil(t, err)
	_, err = sampler.Examples([][]int{{0, 1}, {}})
	assert.ErrorIs(t, err, chain.ErrEmptySequence)
}

// Data drawn from the model itself has matching empirical and expected counts, so a sweep at the
// generating parameters hardly moves them.
func TestStepAtGeneratingParams(t *testing.T) {
	oracle, err := feature.OneHot(2, 3)
	require.Nil(t, err)

	rng := rand.New(rand.NewPCG(11, 13))
	truth := make([]float64, oracle.Len())
	for i := range truth {
		truth[i] = 3*rng.Float64() - 1.5
	}

	observations := make([][]int, 2000)
	for i := range observations {
		obs := make([]int, 4)
		for j := range obs {
			obs[j] = rng.IntN(3)
		}
		observations[i] = obs
	}

	sampler, err := NewSampler(oracle, truth, 17)
	require.Nil(t, err)
	examples, err := sampler.Examples(observations)
	require.Nil(t, err)

	atTruth, err := train.Step(examples, truth, oracle, nil)
	require.Nil(t, err)
	assert.Less(t, atTruth.MaxChange, 0.025)
	for k := range truth {
		assert.InDelta(t, truth[k], atTruth.Params[k], 0.025, oracle.Labels().Labels()[k].String())
	}

	atZero, err := train.Step(examples, make([]float64, oracle.Len()), oracle, nil)
	require.Nil(t, err)
	assert.Greater(t, atZero.MaxChange, atTruth.MaxChange)
}

package crf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccuracy(t *testing.T) {
	testData := map[string]struct {
		predicted   [][]int
		actual      [][]int
		expectedTok float64
		expectedSeq float64
		err         error
	}{
		"empty": {},
		"all correct": {
			predicted:   [][]int{{0, 1}, {2}},
			actual:      [][]int{{0, 1}, {2}},
			expectedTok: 1.0,
			expectedSeq: 1.0,
		},
		"one token wrong": {
			predicted:   [][]int{{0, 1, 1}, {2}},
			actual:      [][]int{{0, 1, 0}, {2}},
			expectedTok: 0.75,
			expectedSeq: 0.5,
		},
		"all wrong": {
			predicted: [][]int{{1, 1}},
			actual:    [][]int{{0, 0}},
		},
		"sequence count mismatch": {
			predicted: [][]int{{0}},
			err:       ErrResLenMismatch,
		},
		"sequence length mismatch": {
			predicted: [][]int{{0, 1}},
			actual:    [][]int{{0}},
			err:       ErrResLenMismatch,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			tok, err := TokenAccuracy(td.predicted, td.actual)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
			} else {
				require.Nil(t, err)
				assert.InDelta(t, td.expectedTok, tok, 1e-12)
			}

			seq, err := SequenceAccuracy(td.predicted, td.actual)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.InDelta(t, td.expectedSeq, seq, 1e-12)
		})
	}
}

func TestNewScores(t *testing.T) {
	scores, err := NewScores(
		[][]int{{0, 1}, {1, 1}},
		[][]int{{0, 1}, {1, 0}},
		[]float64{-1, -3},
	)
	require.Nil(t, err)
	assert.Equal(t, &Scores{TokenAccuracy: 0.75, SequenceAccuracy: 0.5, LogLikelihood: -2}, scores)

	_, err = NewScores([][]int{{0}}, [][]int{{0}}, nil)
	assert.ErrorIs(t, err, ErrResLenMismatch)

	_, err = NewScores([][]int{{0}}, nil, nil)
	assert.ErrorIs(t, err, ErrResLenMismatch)
}

package crf

import (
	"bytes"
	"testing"

	"github.com/aouyang1/go-crf/feature"
	"github.com/aouyang1/go-crf/train"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelTablePrint(t *testing.T) {
	testData := map[string]struct {
		m        Model
		prefix   string
		indent   string
		expected string
	}{
		"no input": {
			expected: `CRF:
Labels: 0    Symbols: 0
Weights:
 Kind Name Value
`,
		},
		"basic input": {
			m: Model{
				RunID:           "run-1",
				NumLabels:       1,
				NumObservations: 1,
				Options: &Options{
					TrainOptions: &train.Options{
						Iterations: 10,
						Tolerance:  0.001,
						Smoothing:  0.0001,
					},
				},
				Scores: &Scores{
					TokenAccuracy:    0.75,
					SequenceAccuracy: 0.5,
					LogLikelihood:    -1.25,
				},
				Weights: []Weight{
					{Name: "trans_start_y00", Kind: feature.KindTransition, Value: 0.5},
					{Name: "emit_x00_y00", Kind: feature.KindEmission, Value: 0},
				},
			},
			indent: "  ",
			expected: `CRF:
  Run: run-1
  Labels: 1    Symbols: 1
  Iterations: 10    Tolerance: 0.001    Smoothing: 0.0001
Scores:
  Token: 0.750    Sequence: 0.500    LogLikelihood: -1.250
Weights:
         Kind            Name Value
   transition trans_start_y00 0.500
     emission    emit_x00_y00   ...
`,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			err := td.m.TablePrint(&buf, td.prefix, td.indent)
			require.Nil(t, err)
			assert.Equal(t, td.expected, buf.String())
		})
	}
}

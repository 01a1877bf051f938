package feature

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestKindText(t *testing.T) {
	testData := map[string]struct {
		kind     Kind
		expected string
	}{
		"transition": {KindTransition, `"transition"`},
		"emission":   {KindEmission, `"emission"`},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			out, err := json.Marshal(td.kind)
			require.Nil(t, err)
			assert.Equal(t, td.expected, string(out))

			var k Kind
			require.Nil(t, json.Unmarshal(out, &k))
			assert.Equal(t, td.kind, k)
		})
	}

	_, err := Kind(7).MarshalText()
	assert.ErrorIs(t, err, ErrUnknownKind)

	var k Kind
	assert.ErrorIs(t, k.UnmarshalText([]byte("bogus")), ErrUnknownKind)
}

func TestFeatureEval(t *testing.T) {
	trans := NewTransition("t", func(e Edge, obs []int) mat.Matrix {
		r, c := e.Dims(2)
		return mat.NewDense(r, c, nil)
	})
	assert.Equal(t, "t", trans.String())
	assert.Equal(t, KindTransition, trans.Kind())
	assert.NotNil(t, trans.Eval(EdgeAt(0, 2), []int{0, 1}))
	assert.Nil(t, NewTransition("empty", nil).Eval(EdgeAt(0, 2), []int{0, 1}))

	emit := NewEmission("e", func(e Edge, obs []int) mat.Vector {
		return mat.NewVecDense(2, []float64{float64(obs[e.Pos]), 1})
	})
	assert.Equal(t, "e", emit.String())
	assert.Equal(t, KindEmission, emit.Kind())
	assert.NotNil(t, emit.Eval(EdgeAt(1, 2), []int{0, 1}))
	assert.Nil(t, emit.Eval(EdgeAt(2, 2), []int{0, 1}), "the stop edge carries no label")
}

package crf

import (
	"fmt"
	"os"

	"github.com/aouyang1/go-crf/feature"
	"github.com/aouyang1/go-crf/synth"
)

func ExampleCRF_Score() {
	c, err := NewOneHot(2, 2, nil)
	if err != nil {
		panic(err)
	}

	p, err := c.Score([]int{0, 1}, []int{1, 1})
	if err != nil {
		panic(err)
	}
	fmt.Printf("%.2f\n", p)
	// Output: 0.25
}

func ExampleCRF_Decode() {
	oracle, err := feature.OneHot(2, 2)
	if err != nil {
		panic(err)
	}

	// favor emitting the symbol that matches the label
	params := make([]float64, oracle.Len())
	for y := 0; y < 2; y++ {
		idx, _ := oracle.Labels().IndexOf(feature.EmissionName(y, y))
		params[idx] = 2
	}
	c, err := New(oracle, params, nil)
	if err != nil {
		panic(err)
	}

	labels, err := c.Decode([]int{1, 0, 0, 1})
	if err != nil {
		panic(err)
	}
	fmt.Println(labels)
	// Output: [1 0 0 1]
}

func ExampleCRF_Fit() {
	hmm, err := synth.NewHMM(&synth.HMMOptions{
		NumLabels:       4,
		NumObservations: 8,
		Stay:            synth.DefaultStay,
		Noise:           synth.DefaultNoise,
		Seed:            1,
	})
	if err != nil {
		panic(err)
	}
	examples, err := hmm.Generate(100, 10)
	if err != nil {
		panic(err)
	}

	opt := NewDefaultOptions()
	opt.TrainOptions.Iterations = 25
	c, err := NewOneHot(4, 8, opt)
	if err != nil {
		panic(err)
	}
	if err := c.Fit(examples); err != nil {
		panic(err)
	}

	if err := c.Model().TablePrint(os.Stderr, "", "  "); err != nil {
		panic(err)
	}
	// Output:
}

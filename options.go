package crf

import "github.com/aouyang1/go-crf/train"

// Options configures a CRF
type Options struct {
	TrainOptions *train.Options `json:"train_options"`

	// ScoreFit evaluates the fitted model on its training examples after Fit
	ScoreFit bool `json:"score_fit"`
}

// NewDefaultOptions returns the default CRF options
func NewDefaultOptions() *Options {
	return &Options{
		TrainOptions: train.NewDefaultOptions(),
		ScoreFit:     true,
	}
}

// Validate fills in defaults and validates the training options
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	trainOpt, err := o.TrainOptions.Validate()
	if err != nil {
		return nil, err
	}
	opt := *o
	opt.TrainOptions = trainOpt
	return &opt, nil
}

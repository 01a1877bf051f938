package train

import (
	"errors"
)

const (
	DefaultIterations = 100
	DefaultTolerance  = 1e-4
	DefaultSmoothing  = 1e-4

	// DefaultCacheBytes is the smallest capacity fastcache allocates
	DefaultCacheBytes = 32 << 20
)

var (
	ErrNegativeIterations    = errors.New("negative iterations")
	ErrNegativeTolerance     = errors.New("negative tolerance")
	ErrNonPositiveSmoothing  = errors.New("smoothing must be positive")
	ErrNegativeStepScale     = errors.New("negative step scale")
	ErrNegativeCacheCapacity = errors.New("negative cache capacity")
)

// Options configures the iterative scaling estimator
type Options struct {
	// Iterations is the maximum number of sweeps over the training set
	Iterations int `json:"iterations"`

	// Tolerance stops training once the largest absolute parameter change of a sweep falls below it
	Tolerance float64 `json:"tolerance"`

	// Smoothing is added to both the empirical and the expected count before taking the log ratio
	// so that features which never fire do not produce infinite updates.
	Smoothing float64 `json:"smoothing"`

	// StepScale divides every log ratio. Zero uses the number of features.
	StepScale float64 `json:"step_scale"`

	// CacheBytes bounds the per sweep lattice cache. Zero uses DefaultCacheBytes.
	CacheBytes int `json:"cache_bytes"`

	// SkipInvalid drops examples whose lattice cannot be computed instead of failing the sweep
	SkipInvalid bool `json:"skip_invalid"`

	// OnIteration is invoked after every sweep
	OnIteration func(Iteration) `json:"-"`
}

// NewDefaultOptions returns the default estimator options
func NewDefaultOptions() *Options {
	return &Options{
		Iterations: DefaultIterations,
		Tolerance:  DefaultTolerance,
		Smoothing:  DefaultSmoothing,
		CacheBytes: DefaultCacheBytes,
	}
}

// Validate returns the options with defaults filled in or an error if any option is invalid
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	if o.Iterations < 0 {
		return nil, ErrNegativeIterations
	}
	if o.Tolerance < 0 {
		return nil, ErrNegativeTolerance
	}
	if o.Smoothing <= 0 {
		return nil, ErrNonPositiveSmoothing
	}
	if o.StepScale < 0 {
		return nil, ErrNegativeStepScale
	}
	if o.CacheBytes < 0 {
		return nil, ErrNegativeCacheCapacity
	}

	opt := *o
	if opt.CacheBytes == 0 {
		opt.CacheBytes = DefaultCacheBytes
	}
	return &opt, nil
}

// scale returns the divisor of the log ratio update
func (o *Options) scale(numFeatures int) float64 {
	if o.StepScale > 0 {
		return o.StepScale
	}
	return float64(numFeatures)
}

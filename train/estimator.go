package train

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aouyang1/go-crf/chain"
	"github.com/aouyang1/go-crf/feature"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
)

var ErrCacheLabels = errors.New("sweep cache label count does not match oracle")

// StepResult is the outcome of one iterative scaling sweep
type StepResult struct {
	// Params is the updated parameter vector. The input vector is left untouched.
	Params []float64

	// MaxChange is the largest absolute parameter change of the sweep
	MaxChange float64

	// LogLikelihood is the mean log-likelihood of the used examples before the update
	LogLikelihood float64

	Empirical []float64
	Expected  []float64

	// Skipped is the number of examples dropped because of SkipInvalid
	Skipped int

	Cache CacheStats
}

// Iteration summarizes one sweep of Fit
type Iteration struct {
	Index         int     `json:"index"`
	MaxChange     float64 `json:"max_change"`
	LogLikelihood float64 `json:"log_likelihood"`
	Skipped       int     `json:"skipped"`
	CacheHits     int     `json:"cache_hits"`
	CacheMisses   int     `json:"cache_misses"`
}

// Result is the outcome of Fit
type Result struct {
	RunID     string      `json:"run_id"`
	Params    []float64   `json:"params"`
	History   []Iteration `json:"history"`
	Converged bool        `json:"converged"`
}

// Step runs a single batch iterative scaling sweep over examples. Lattices are shared within the
// sweep only. Every count is computed before any parameter moves.
func Step(examples []Example, params []float64, oracle *feature.Oracle, opt *Options) (*StepResult, error) {
	return StepWithCache(examples, params, oracle, opt, nil)
}

// StepWithCache runs a sweep like Step, storing lattices in a caller owned cache so a driver
// looping over sweeps reuses one allocation. The cache is reset before the sweep. A nil cache
// allocates one of opt.CacheBytes.
func StepWithCache(examples []Example, params []float64, oracle *feature.Oracle, opt *Options, cache *SweepCache) (*StepResult, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	if err := validateModel(params, oracle); err != nil {
		return nil, err
	}
	if cache == nil {
		cache = NewSweepCache(opt.CacheBytes, oracle.NumLabels())
	}
	if cache.NumLabels() != oracle.NumLabels() {
		return nil, fmt.Errorf("cache holds %d labels, oracle %d, %w", cache.NumLabels(), oracle.NumLabels(), ErrCacheLabels)
	}
	cache.Reset()
	return step(examples, params, oracle, opt, cache)
}

// Fit repeats sweeps from params until the largest parameter change falls below the tolerance
// or the iteration budget is spent. A nil params starts from zero.
func Fit(examples []Example, params []float64, oracle *feature.Oracle, opt *Options) (*Result, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	if oracle == nil {
		return nil, chain.ErrNilOracle
	}
	if params == nil {
		params = make([]float64, oracle.Len())
	}
	if err := validateModel(params, oracle); err != nil {
		return nil, err
	}
	if len(examples) == 0 {
		return nil, ErrNoExamples
	}

	res := &Result{
		RunID:  uuid.New().String(),
		Params: append([]float64(nil), params...),
	}
	cache := NewSweepCache(opt.CacheBytes, oracle.NumLabels())
	for i := 0; i < opt.Iterations; i++ {
		cache.Reset()
		sr, err := step(examples, res.Params, oracle, opt, cache)
		if err != nil {
			return nil, fmt.Errorf("iteration %d, %w", i, err)
		}
		res.Params = sr.Params

		iter := Iteration{
			Index:         i,
			MaxChange:     sr.MaxChange,
			LogLikelihood: sr.LogLikelihood,
			Skipped:       sr.Skipped,
			CacheHits:     sr.Cache.Hits,
			CacheMisses:   sr.Cache.Misses,
		}
		res.History = append(res.History, iter)
		slog.Debug("iterative scaling sweep", "run_id", res.RunID, "iteration", i+1,
			"max_change", sr.MaxChange, "log_likelihood", sr.LogLikelihood,
			"cache_hits", sr.Cache.Hits, "cache_misses", sr.Cache.Misses)
		if opt.OnIteration != nil {
			opt.OnIteration(iter)
		}

		if sr.MaxChange < opt.Tolerance {
			res.Converged = true
			slog.Info("training converged", "run_id", res.RunID, "iterations", i+1, "max_change", sr.MaxChange)
			break
		}
	}
	if !res.Converged {
		slog.Info("training stopped at iteration limit", "run_id", res.RunID, "iterations", opt.Iterations)
	}
	return res, nil
}

func validateModel(params []float64, oracle *feature.Oracle) error {
	if oracle == nil {
		return chain.ErrNilOracle
	}
	if len(params) != oracle.Len() {
		return fmt.Errorf("got %d parameters for %d features, %w", len(params), oracle.Len(), chain.ErrParamLenMismatch)
	}
	return nil
}

func step(examples []Example, params []float64, oracle *feature.Oracle, opt *Options, cache *SweepCache) (*StepResult, error) {
	if len(examples) == 0 {
		return nil, ErrNoExamples
	}

	// build every lattice up front so failing examples can be dropped before counting
	used := make([]Example, 0, len(examples))
	logLiks := make([]float64, 0, len(examples))
	for i, ex := range examples {
		ll, err := exampleLogLikelihood(ex, params, oracle, cache)
		if err != nil {
			if !opt.SkipInvalid {
				return nil, fmt.Errorf("example %d, %w", i, err)
			}
			slog.Warn("skipping training example", "index", i, "error", err.Error())
			continue
		}
		used = append(used, ex)
		logLiks = append(logLiks, ll)
	}
	if len(used) == 0 {
		return nil, fmt.Errorf("all %d examples skipped, %w", len(examples), ErrNoExamples)
	}

	empirical, err := EmpiricalCounts(used, oracle)
	if err != nil {
		return nil, err
	}
	expected, err := ExpectedCounts(used, params, oracle, cache)
	if err != nil {
		return nil, err
	}

	next, maxChange, err := update(params, empirical, expected, oracle, opt.Smoothing, opt.scale(oracle.Len()))
	if err != nil {
		return nil, err
	}
	return &StepResult{
		Params:        next,
		MaxChange:     maxChange,
		LogLikelihood: stat.Mean(logLiks, nil),
		Empirical:     empirical,
		Expected:      expected,
		Skipped:       len(examples) - len(used),
		Cache:         cache.Stats(),
	}, nil
}

func exampleLogLikelihood(ex Example, params []float64, oracle *feature.Oracle, cache *SweepCache) (float64, error) {
	if err := ex.Validate(oracle.NumLabels(), oracle.NumObservations()); err != nil {
		return 0, err
	}
	lat, err := cache.Lattice(ex.Observations, params, oracle)
	if err != nil {
		return 0, err
	}
	return LogLikelihood(lat, ex.Labels)
}

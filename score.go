package crf

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

var ErrResLenMismatch = errors.New("predicted and actual have different lengths")

// Scores summarizes how well a model labels a set of examples
type Scores struct {
	TokenAccuracy    float64 `json:"token_accuracy"`    // fraction of positions labelled correctly
	SequenceAccuracy float64 `json:"sequence_accuracy"` // fraction of sequences labelled entirely correctly
	LogLikelihood    float64 `json:"log_likelihood"`    // mean log P(labels | observations)
}

func NewScores(predicted, actual [][]int, logLikelihoods []float64) (*Scores, error) {
	tokenAcc, err := TokenAccuracy(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute token accuracy, %w", err)
	}
	seqAcc, err := SequenceAccuracy(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute sequence accuracy, %w", err)
	}
	if len(logLikelihoods) != len(actual) {
		return nil, fmt.Errorf("got %d log-likelihoods for %d sequences, %w", len(logLikelihoods), len(actual), ErrResLenMismatch)
	}
	return &Scores{
		TokenAccuracy:    tokenAcc,
		SequenceAccuracy: seqAcc,
		LogLikelihood:    stat.Mean(logLikelihoods, nil),
	}, nil
}

func TokenAccuracy(predicted, actual [][]int) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, ErrResLenMismatch
	}

	var correct, total int
	for i := 0; i < len(actual); i++ {
		if len(predicted[i]) != len(actual[i]) {
			return 0, fmt.Errorf("sequence %d, %w", i, ErrResLenMismatch)
		}
		for j := 0; j < len(actual[i]); j++ {
			if predicted[i][j] == actual[i][j] {
				correct++
			}
		}
		total += len(actual[i])
	}
	if total == 0 {
		return 0, nil
	}
	return float64(correct) / float64(total), nil
}

func SequenceAccuracy(predicted, actual [][]int) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, ErrResLenMismatch
	}
	if len(actual) == 0 {
		return 0, nil
	}

	correct := 0
	for i := 0; i < len(actual); i++ {
		if len(predicted[i]) != len(actual[i]) {
			return 0, fmt.Errorf("sequence %d, %w", i, ErrResLenMismatch)
		}
		match := true
		for j := 0; j < len(actual[i]); j++ {
			if predicted[i][j] != actual[i][j] {
				match = false
				break
			}
		}
		if match {
			correct++
		}
	}
	return float64(correct) / float64(len(actual)), nil
}

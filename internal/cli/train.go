package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aouyang1/go-crf"
	"github.com/aouyang1/go-crf/synth"
	"github.com/aouyang1/go-crf/train"
	"github.com/goccy/go-json"
	"github.com/pkg/profile"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var ErrNoTrainingData = errors.New("no training examples generated")

// trainConfig holds the flags of the train command
type trainConfig struct {
	hmm      synth.HMMOptions
	examples int
	length   int
	holdout  int
	opt      train.Options
	jsonPath string
	plotPath string
	profile  string
}

// Report is the JSON summary of one training run
type Report struct {
	RunID     string            `json:"run_id"`
	Converged bool              `json:"converged"`
	Duration  string            `json:"duration"`
	Data      synth.HMMOptions  `json:"data"`
	Examples  int               `json:"examples"`
	Length    int               `json:"length"`
	Train     *crf.Scores       `json:"train_scores,omitempty"`
	Holdout   *crf.Scores       `json:"holdout_scores,omitempty"`
	History   []train.Iteration `json:"history"`
	Model     crf.Model         `json:"model"`
}

func defaultTrainConfig() trainConfig {
	return trainConfig{
		hmm: synth.HMMOptions{
			NumLabels:       4,
			NumObservations: 8,
			Stay:            synth.DefaultStay,
			Noise:           synth.DefaultNoise,
			Seed:            1,
		},
		examples: 200,
		length:   20,
		holdout:  50,
		opt:      *train.NewDefaultOptions(),
	}
}

func (c *CLI) newTrainCommand() *cobra.Command {
	cfg := defaultTrainConfig()

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a CRF on sequences sampled from a synthetic hidden Markov chain",
		Args:  cobra.NoArgs,
		Example: `  crf train --labels 4 --symbols 8 --examples 500 --iterations 50
  crf train --json report.json --plot fit.html -v`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.profile != "" {
				defer profile.Start(profile.CPUProfile, profile.ProfilePath(cfg.profile), profile.Quiet).Stop()
			}
			report, _, err := c.runTrain(cmd, cfg)
			if err != nil {
				return err
			}
			return report.Model.TablePrint(cmd.OutOrStdout(), "", "  ")
		},
	}

	addTrainFlags(cmd, &cfg)
	cmd.Flags().StringVar(&cfg.jsonPath, "json", "", "Write the training report as JSON to this path")
	cmd.Flags().StringVar(&cfg.plotPath, "plot", "", "Write an html page of the training convergence to this path")
	cmd.Flags().StringVar(&cfg.profile, "profile", "", "Write a CPU profile into this directory")
	return cmd
}

// addTrainFlags registers the data generation and estimator flags shared by train and decode
func addTrainFlags(cmd *cobra.Command, cfg *trainConfig) {
	flags := cmd.Flags()
	flags.IntVar(&cfg.hmm.NumLabels, "labels", cfg.hmm.NumLabels, "Number of hidden labels")
	flags.IntVar(&cfg.hmm.NumObservations, "symbols", cfg.hmm.NumObservations, "Number of observation symbols")
	flags.Float64Var(&cfg.hmm.Stay, "stay", cfg.hmm.Stay, "Probability the hidden label repeats")
	flags.Float64Var(&cfg.hmm.Noise, "noise", cfg.hmm.Noise, "Probability an observation is shifted off its label's symbol")
	flags.Uint64Var(&cfg.hmm.Seed, "seed", cfg.hmm.Seed, "Random seed of the generator")
	flags.IntVar(&cfg.examples, "examples", cfg.examples, "Number of training sequences")
	flags.IntVar(&cfg.length, "length", cfg.length, "Length of every generated sequence")
	flags.IntVar(&cfg.holdout, "holdout", cfg.holdout, "Number of held out sequences to score, 0 to skip")
	flags.IntVar(&cfg.opt.Iterations, "iterations", cfg.opt.Iterations, "Maximum number of iterative scaling sweeps")
	flags.Float64Var(&cfg.opt.Tolerance, "tolerance", cfg.opt.Tolerance, "Stop when the largest parameter change falls below this")
	flags.Float64Var(&cfg.opt.Smoothing, "smoothing", cfg.opt.Smoothing, "Additive smoothing of the count ratio")
}

func (c *CLI) runTrain(cmd *cobra.Command, cfg trainConfig) (*Report, *crf.CRF, error) {
	hmm, err := synth.NewHMM(&cfg.hmm)
	if err != nil {
		return nil, nil, err
	}
	examples, err := hmm.Generate(cfg.examples, cfg.length)
	if err != nil {
		return nil, nil, err
	}
	if len(examples) == 0 {
		return nil, nil, ErrNoTrainingData
	}
	var holdout []train.Example
	if cfg.holdout > 0 {
		holdout, err = hmm.Generate(cfg.holdout, cfg.length)
		if err != nil {
			return nil, nil, err
		}
	}

	bar := progressbar.NewOptions(cfg.opt.Iterations,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("training"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetVisibility(!c.silent),
		progressbar.OptionClearOnFinish(),
	)
	opt := cfg.opt
	opt.OnIteration = func(it train.Iteration) {
		_ = bar.Add(1)
	}

	model, err := crf.NewOneHot(cfg.hmm.NumLabels, cfg.hmm.NumObservations, &crf.Options{
		TrainOptions: &opt,
		ScoreFit:     true,
	})
	if err != nil {
		return nil, nil, err
	}

	slog.Info("training crf", "labels", cfg.hmm.NumLabels, "symbols", cfg.hmm.NumObservations,
		"examples", len(examples), "length", cfg.length, "iterations", opt.Iterations)
	start := time.Now()
	if err := model.Fit(examples); err != nil {
		return nil, nil, err
	}
	_ = bar.Finish()
	duration := time.Since(start)

	res := model.FitResult()
	report := &Report{
		RunID:     res.RunID,
		Converged: res.Converged,
		Duration:  duration.String(),
		Data:      cfg.hmm,
		Examples:  len(examples),
		Length:    cfg.length,
		Train:     model.FitScores(),
		History:   res.History,
		Model:     model.Model(),
	}
	slog.Info("training completed", "run_id", res.RunID, "sweeps", len(res.History),
		"converged", res.Converged, "duration", duration)

	if len(holdout) > 0 {
		report.Holdout, err = model.Evaluate(holdout)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to score holdout, %w", err)
		}
		slog.Info("holdout scores", "run_id", res.RunID,
			"token_accuracy", report.Holdout.TokenAccuracy,
			"sequence_accuracy", report.Holdout.SequenceAccuracy)
	}

	if cfg.jsonPath != "" {
		if err := writeJSON(cfg.jsonPath, report); err != nil {
			return nil, nil, err
		}
		slog.Info("report saved", "path", cfg.jsonPath)
	}
	if cfg.plotPath != "" {
		if err := writePlot(cfg.plotPath, model, examples[0].Observations); err != nil {
			return nil, nil, err
		}
		slog.Info("plot saved", "path", cfg.plotPath)
	}
	return report, model, nil
}

func writeJSON(path string, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode %s, %w", path, err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("unable to write %s, %w", path, err)
	}
	return nil
}

func writePlot(path string, model *crf.CRF, obs []int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create %s, %w", path, err)
	}
	defer f.Close()
	return model.PlotFit(f, obs)
}

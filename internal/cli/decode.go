package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"text/tabwriter"

	"github.com/aouyang1/go-crf"
	"github.com/aouyang1/go-crf/chain"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func (c *CLI) newDecodeCommand() *cobra.Command {
	cfg := defaultTrainConfig()
	cfg.holdout = 0
	var asJSON, marginals bool

	cmd := &cobra.Command{
		Use:   "decode <symbol>...",
		Short: "Train on synthetic sequences, then decode the most probable labels of an observation sequence",
		Args:  cobra.MinimumNArgs(1),
		Example: `  crf decode 0 0 3 5 5 7
  crf decode 1 2 2 --labels 3 --symbols 3 --marginals`,
		RunE: func(cmd *cobra.Command, args []string) error {
			obs, err := parseSymbols(args)
			if err != nil {
				return err
			}
			if err := chain.ValidateObservations(obs, cfg.hmm.NumObservations); err != nil {
				return err
			}

			_, model, err := c.runTrain(cmd, cfg)
			if err != nil {
				return err
			}
			res, err := model.Predict(obs)
			if err != nil {
				return err
			}
			slog.Debug("decoded", "run_id", model.FitResult().RunID, "labels", res.Labels, "probability", res.Probability)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			return printResults(cmd.OutOrStdout(), res, marginals)
		},
	}

	addTrainFlags(cmd, &cfg)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the decoding as JSON")
	cmd.Flags().BoolVar(&marginals, "marginals", false, "Print the label marginals of every position")
	return cmd
}

func parseSymbols(args []string) ([]int, error) {
	obs := make([]int, 0, len(args))
	for i, arg := range args {
		x, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("symbol %d, %w", i, err)
		}
		obs = append(obs, x)
	}
	return obs, nil
}

func printResults(w io.Writer, res *crf.Results, marginals bool) error {
	if _, err := fmt.Fprintf(w, "Labels: %v\nProbability: %.6f\n", res.Labels, res.Probability); err != nil {
		return err
	}
	if !marginals {
		return nil
	}

	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprint(tbl, "Pos\tSymbol\tLabel\t"); err != nil {
		return err
	}
	numLabels := 0
	if len(res.Marginals) > 0 {
		numLabels = len(res.Marginals[0])
	}
	for b := 0; b < numLabels; b++ {
		if _, err := fmt.Fprintf(tbl, "y%02d\t", b); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(tbl); err != nil {
		return err
	}
	for t, row := range res.Marginals {
		if _, err := fmt.Fprintf(tbl, "%d\t%d\t%d\t", t, res.Observations[t], res.Labels[t]); err != nil {
			return err
		}
		for _, p := range row {
			if _, err := fmt.Fprintf(tbl, "%.3f\t", p); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(tbl); err != nil {
			return err
		}
	}
	return tbl.Flush()
}

package crf

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aouyang1/go-crf/feature"
)

// Model is a report of a CRF: its dimensions, options, fit scores and one weight per feature
type Model struct {
	RunID           string   `json:"run_id,omitempty"`
	NumLabels       int      `json:"num_labels"`
	NumObservations int      `json:"num_observations"`
	Options         *Options `json:"options"`
	Scores          *Scores  `json:"scores,omitempty"`
	Weights         []Weight `json:"weights"`
}

// Weight is the parameter of one named feature
type Weight struct {
	Name  string       `json:"name"`
	Kind  feature.Kind `json:"kind"`
	Value float64      `json:"value"`
}

func (m Model) TablePrint(w io.Writer, prefix, indent string) error {
	if _, err := fmt.Fprintf(w, "%s%sCRF:\n", prefix, indentExpand(indent, 0)); err != nil {
		return err
	}
	if m.RunID != "" {
		if _, err := fmt.Fprintf(w, "%s%sRun: %s\n", prefix, indentExpand(indent, 1), m.RunID); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "%s%sLabels: %d    Symbols: %d\n",
		prefix, indentExpand(indent, 1), m.NumLabels, m.NumObservations); err != nil {
		return err
	}

	if m.Options != nil && m.Options.TrainOptions != nil {
		opt := m.Options.TrainOptions
		if _, err := fmt.Fprintf(w, "%s%sIterations: %d    Tolerance: %g    Smoothing: %g\n",
			prefix, indentExpand(indent, 1), opt.Iterations, opt.Tolerance, opt.Smoothing); err != nil {
			return err
		}
	}

	if m.Scores != nil {
		if _, err := fmt.Fprintf(w, "%s%sScores:\n", prefix, indentExpand(indent, 0)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s%sToken: %.3f    Sequence: %.3f    LogLikelihood: %.3f\n",
			prefix, indentExpand(indent, 1),
			m.Scores.TokenAccuracy,
			m.Scores.SequenceAccuracy,
			m.Scores.LogLikelihood,
		); err != nil {
			return err
		}
	}

	return m.tablePrintWeights(w, prefix, indent, 0)
}

func (m Model) tablePrintWeights(wr io.Writer, prefix, indent string, indentGrowth int) error {
	if _, err := fmt.Fprintf(wr, "%s%sWeights:\n", prefix, indentExpand(indent, indentGrowth)); err != nil {
		return err
	}
	tbl := tabwriter.NewWriter(wr, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintf(tbl, "%s%sKind\tName\tValue\t\n", prefix, indentExpand(indent, indentGrowth+1)); err != nil {
		return err
	}
	for _, fw := range m.Weights {
		val := fmt.Sprintf("%.3f", fw.Value)
		if fw.Value == 0 {
			val = "..."
		}
		if _, err := fmt.Fprintf(tbl, "%s%s%s\t%s\t%s\t\n",
			prefix, indentExpand(indent, indentGrowth+1),
			fw.Kind, fw.Name, val); err != nil {
			return err
		}
	}
	return tbl.Flush()
}

func indentExpand(indent string, growth int) string {
	out := make([]byte, 0, len(indent)*growth)
	for i := 0; i < growth; i++ {
		out = append(out, indent...)
	}
	return string(out)
}

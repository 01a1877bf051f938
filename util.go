package crf

import (
	"fmt"
	"math"

	"github.com/aouyang1/go-crf/train"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// LineSeries generates an echart multi-line chart over an integer x axis. Every series in y must
// have the same length as x. NaN values are dropped.
func LineSeries(title string, seriesName []string, x []int, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	lineData := make([][]opts.LineData, len(y))
	for i := 0; i < len(y); i++ {
		lineData[i] = make([]opts.LineData, 0, len(y[i]))
		for j := 0; j < len(y[i]); j++ {
			if math.IsNaN(y[i][j]) {
				lineData[i] = append(lineData[i], opts.LineData{Value: "-"})
				continue
			}
			lineData[i] = append(lineData[i], opts.LineData{Value: y[i][j]})
		}
	}

	line = line.SetXAxis(x)
	for i, series := range seriesName {
		line = line.AddSeries(series, lineData[i])
	}
	return line
}

// LineConvergence plots the log-likelihood and the largest parameter change of every sweep
func LineConvergence(history []train.Iteration) *charts.Line {
	x := make([]int, 0, len(history))
	ll := make([]float64, 0, len(history))
	change := make([]float64, 0, len(history))
	for _, it := range history {
		x = append(x, it.Index+1)
		ll = append(ll, it.LogLikelihood)
		change = append(change, it.MaxChange)
	}
	return LineSeries(
		"Training Convergence",
		[]string{"Log-Likelihood", "Max Change"},
		x,
		[][]float64{ll, change},
	)
}

// LineMarginals plots one line per label with its marginal probability at every position
func LineMarginals(title string, marginals [][]float64) *charts.Line {
	x := make([]int, len(marginals))
	for t := range x {
		x[t] = t
	}
	numLabels := 0
	if len(marginals) > 0 {
		numLabels = len(marginals[0])
	}
	names := make([]string, numLabels)
	y := make([][]float64, numLabels)
	for b := 0; b < numLabels; b++ {
		names[b] = fmt.Sprintf("y%02d", b)
		y[b] = make([]float64, len(marginals))
		for t := range marginals {
			y[b][t] = marginals[t][b]
		}
	}
	return LineSeries(title, names, x, y)
}

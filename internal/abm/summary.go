package abm

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the distribution of path values at the terminal grid
// point. For ABM the terminal value is N(S0 + mu*T, sigma^2*T) with
// T = End - Start, which makes these statistics a cheap self-check for
// callers running large batches.
type Summary struct {
	PathCount    int     `json:"path_count"`
	TerminalTime float64 `json:"terminal_time"`
	Mean         float64 `json:"mean"`
	Variance     float64 `json:"variance"`
	StdDev       float64 `json:"std_dev"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	P10          float64 `json:"p10"`
	Median       float64 `json:"median"`
	P90          float64 `json:"p90"`
}

// Summarize computes terminal-value statistics over the completed paths of a
// result. Returns nil when no path completed.
func Summarize(result *Result) *Summary {
	if result == nil || len(result.Paths) == 0 {
		return nil
	}

	terminals := make([]float64, len(result.Paths))
	for i, path := range result.Paths {
		terminals[i] = path.TerminalValue()
	}
	sort.Float64s(terminals)

	summary := &Summary{
		PathCount:    len(terminals),
		TerminalTime: result.Paths[0].Points[len(result.Paths[0].Points)-1].Time,
		Mean:         stat.Mean(terminals, nil),
		Min:          floats.Min(terminals),
		Max:          floats.Max(terminals),
		P10:          stat.Quantile(0.10, stat.Empirical, terminals, nil),
		Median:       stat.Quantile(0.50, stat.Empirical, terminals, nil),
		P90:          stat.Quantile(0.90, stat.Empirical, terminals, nil),
	}
	if len(terminals) > 1 {
		summary.Variance = stat.Variance(terminals, nil)
		summary.StdDev = stat.StdDev(terminals, nil)
	}
	return summary
}

// Package simulation exposes the ABM path simulator as a service with HTTP
// request/response types.
package simulation

import "github.com/aristath/pathsim/internal/abm"

// SimulateRequest is the JSON body accepted by the simulate endpoints.
type SimulateRequest struct {
	Drift        float64 `json:"drift"`
	Volatility   float64 `json:"volatility"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	Steps        int     `json:"steps"`
	InitialValue float64 `json:"initial_value"`
	PathCount    int     `json:"path_count"`
	Seed         *int64  `json:"seed,omitempty"`
}

// ToModel converts the DTO into a core simulation request.
func (r SimulateRequest) ToModel() abm.Request {
	return abm.Request{
		Parameters:   abm.Parameters{Drift: r.Drift, Volatility: r.Volatility},
		Grid:         abm.Grid{Start: r.Start, End: r.End, Steps: r.Steps},
		InitialValue: r.InitialValue,
		PathCount:    r.PathCount,
		Seed:         r.Seed,
	}
}

// SimulateResponse carries generated paths, any per-path numeric failures and
// the terminal summary. Failures always ride alongside the paths that did
// succeed - partial results are never silently dropped.
type SimulateResponse struct {
	Paths     []abm.Path                  `json:"paths"`
	Failures  []*abm.NumericOverflowError `json:"failures,omitempty"`
	Summary   *abm.Summary                `json:"summary,omitempty"`
	ElapsedMS int64                       `json:"elapsed_ms"`
}

// SummaryResponse is the body of the summary-only endpoint, used for large
// batches where returning every point would be wasteful.
type SummaryResponse struct {
	Summary   *abm.Summary                `json:"summary"`
	Failures  []*abm.NumericOverflowError `json:"failures,omitempty"`
	ElapsedMS int64                       `json:"elapsed_ms"`
}

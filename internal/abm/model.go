// Package abm implements an Arithmetic Brownian Motion path simulator.
//
// The model describes the price process dS = mu*dt + sigma*dW where mu is
// the drift, sigma the volatility and dW a Wiener process increment. The
// discretization is Euler-Maruyama, which is exact for ABM because both
// coefficients are constant.
package abm

import "math"

// Parameters holds the model coefficients.
type Parameters struct {
	Drift      float64 `json:"drift"`      // expected change per unit time (mu)
	Volatility float64 `json:"volatility"` // standard deviation per unit time (sigma), >= 0
}

// Grid defines a uniform time discretization of [Start, End] into Steps
// intervals. Non-uniform grids are not supported.
type Grid struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Steps int     `json:"steps"`
}

// Dt returns the constant step size (End-Start)/Steps.
func (g Grid) Dt() float64 {
	return (g.End - g.Start) / float64(g.Steps)
}

// Request describes one simulation batch. It is consumed once by
// Simulator.Generate and is never mutated.
type Request struct {
	Parameters   Parameters `json:"parameters"`
	Grid         Grid       `json:"grid"`
	InitialValue float64    `json:"initial_value"`
	PathCount    int        `json:"path_count"`

	// Seed, when set, makes the output bit-for-bit reproducible. Each path
	// derives its own sub-seed from (Seed, path index), so path k never
	// depends on the draws of path k-1.
	Seed *int64 `json:"seed,omitempty"`
}

// Point is a single (time, value) sample of a path.
type Point struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// Path is one simulated trajectory. It has Steps+1 points, the first being
// (Grid.Start, InitialValue). A Path is immutable once returned and owned
// solely by the caller.
type Path struct {
	Index  int     `json:"index"`
	Points []Point `json:"points"`
}

// TerminalValue returns the value at the last grid point.
func (p Path) TerminalValue() float64 {
	return p.Points[len(p.Points)-1].Value
}

// Result carries everything produced by one Generate call. Paths holds the
// trajectories that completed, ordered by Index. Failures holds the per-path
// numeric failures; a request never loses successful paths because a sibling
// path overflowed.
type Result struct {
	Paths    []Path                  `json:"paths"`
	Failures []*NumericOverflowError `json:"failures,omitempty"`
}

// Validate checks the structural constraints of a request. It returns an
// InvalidParameterError naming the first offending field, before any
// simulation work is done.
func Validate(req Request) error {
	if math.IsNaN(req.Parameters.Drift) || math.IsInf(req.Parameters.Drift, 0) {
		return &InvalidParameterError{Field: "drift", Reason: "must be finite"}
	}
	if math.IsNaN(req.Parameters.Volatility) || math.IsInf(req.Parameters.Volatility, 0) {
		return &InvalidParameterError{Field: "volatility", Reason: "must be finite"}
	}
	if req.Parameters.Volatility < 0 {
		return &InvalidParameterError{Field: "volatility", Reason: "must be >= 0"}
	}
	if math.IsNaN(req.Grid.Start) || math.IsInf(req.Grid.Start, 0) || req.Grid.Start < 0 {
		return &InvalidParameterError{Field: "grid.start", Reason: "must be finite and >= 0"}
	}
	if math.IsNaN(req.Grid.End) || math.IsInf(req.Grid.End, 0) {
		return &InvalidParameterError{Field: "grid.end", Reason: "must be finite"}
	}
	if req.Grid.End <= req.Grid.Start {
		return &InvalidParameterError{Field: "grid.end", Reason: "must be > grid.start"}
	}
	if req.Grid.Steps < 1 {
		return &InvalidParameterError{Field: "grid.steps", Reason: "must be >= 1"}
	}
	if math.IsNaN(req.InitialValue) || math.IsInf(req.InitialValue, 0) {
		return &InvalidParameterError{Field: "initial_value", Reason: "must be finite"}
	}
	if req.PathCount < 1 {
		return &InvalidParameterError{Field: "path_count", Reason: "must be >= 1"}
	}
	return nil
}

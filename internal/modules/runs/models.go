// Package runs provides persistence for simulation runs: parameters,
// outcome metadata and the generated paths themselves.
package runs

import (
	"time"

	"github.com/aristath/pathsim/internal/abm"
)

// Run statuses.
const (
	// StatusCompleted - at least one path completed and was stored
	StatusCompleted = "completed"
	// StatusFailed - every path overflowed; only metadata is stored
	StatusFailed = "failed"
)

// Run is a stored simulation run. The paths themselves are persisted
// separately as a msgpack blob and fetched on demand.
type Run struct {
	UUID         string    `json:"uuid"`
	Label        string    `json:"label"`
	Drift        float64   `json:"drift"`
	Volatility   float64   `json:"volatility"`
	GridStart    float64   `json:"grid_start"`
	GridEnd      float64   `json:"grid_end"`
	Steps        int       `json:"steps"`
	InitialValue float64   `json:"initial_value"`
	PathCount    int       `json:"path_count"`
	Seed         *int64    `json:"seed,omitempty"`
	Status       string    `json:"status"`
	FailureCount int       `json:"failure_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Request returns the core simulation request this run was created from.
func (r Run) Request() abm.Request {
	return abm.Request{
		Parameters:   abm.Parameters{Drift: r.Drift, Volatility: r.Volatility},
		Grid:         abm.Grid{Start: r.GridStart, End: r.GridEnd, Steps: r.Steps},
		InitialValue: r.InitialValue,
		PathCount:    r.PathCount,
		Seed:         r.Seed,
	}
}

// CreateRunRequest is the JSON body for creating a persisted run.
type CreateRunRequest struct {
	Label        string  `json:"label"`
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
func (r CreateRunRequest) ToModel() abm.Request {
	return abm.Request{
		Parameters:   abm.Parameters{Drift: r.Drift, Volatility: r.Volatility},
		Grid:         abm.Grid{Start: r.Start, End: r.End, Steps: r.Steps},
		InitialValue: r.InitialValue,
		PathCount:    r.PathCount,
		Seed:         r.Seed,
	}
}

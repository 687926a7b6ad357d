package simulation

import (
	"time"

	"github.com/aristath/pathsim/internal/abm"
	"github.com/rs/zerolog"
)

// Service wraps the core simulator with timing logs and summary computation.
// It holds no state between calls.
type Service struct {
	simulator *abm.Simulator
	log       zerolog.Logger
}

// NewService creates a new simulation service
func NewService(workers int, log zerolog.Logger) *Service {
	return &Service{
		simulator: abm.NewSimulator(workers),
		log:       log.With().Str("service", "simulation").Logger(),
	}
}

// Simulate generates the requested paths and computes the terminal summary.
func (s *Service) Simulate(req abm.Request) (*abm.Result, *abm.Summary, error) {
	startTime := time.Now()
	result, err := s.simulator.Generate(req)
	if err != nil {
		return nil, nil, err
	}
	elapsed := time.Since(startTime)

	summary := abm.Summarize(result)

	s.log.Info().
		Int("path_count", req.PathCount).
		Int("steps", req.Grid.Steps).
		Int("failures", len(result.Failures)).
		Dur("elapsed", elapsed).
		Msg("Simulation completed")

	return result, summary, nil
}

package runs

import (
	"fmt"
	"time"

	"github.com/aristath/pathsim/internal/abm"
	"github.com/aristath/pathsim/internal/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service orchestrates run creation: simulate, persist, publish events.
type Service struct {
	repo      *Repository
	simulator *abm.Simulator
	bus       *events.Bus
	log       zerolog.Logger
}

// NewService creates a new runs service
func NewService(repo *Repository, simulator *abm.Simulator, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		simulator: simulator,
		bus:       bus,
		log:       log.With().Str("service", "runs").Logger(),
	}
}

// Create simulates a batch of paths and persists the outcome as a run.
// A run where every path overflowed is stored with StatusFailed and no
// paths blob; validation errors are returned without storing anything.
func (s *Service) Create(req CreateRunRequest) (*Run, *abm.Summary, error) {
	model := req.ToModel()

	runUUID := uuid.New().String()
	s.bus.Publish(&events.RunStartedData{
		RunUUID:   runUUID,
		PathCount: model.PathCount,
		Steps:     model.Grid.Steps,
	})

	startTime := time.Now()
	result, err := s.simulator.Generate(model)
	if err != nil {
		s.bus.Publish(&events.RunFailedData{RunUUID: runUUID, Reason: err.Error()})
		return nil, nil, err
	}
	elapsed := time.Since(startTime)

	status := StatusCompleted
	if len(result.Paths) == 0 {
		status = StatusFailed
	}

	run := Run{
		UUID:         runUUID,
		Label:        req.Label,
		Drift:        model.Parameters.Drift,
		Volatility:   model.Parameters.Volatility,
		GridStart:    model.Grid.Start,
		GridEnd:      model.Grid.End,
		Steps:        model.Grid.Steps,
		InitialValue: model.InitialValue,
		PathCount:    model.PathCount,
		Seed:         model.Seed,
		Status:       status,
		FailureCount: len(result.Failures),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(run, result.Paths); err != nil {
		s.bus.Publish(&events.RunFailedData{
			RunUUID:      runUUID,
			FailureCount: len(result.Failures),
			Reason:       err.Error(),
		})
		return nil, nil, fmt.Errorf("failed to persist run: %w", err)
	}

	summary := abm.Summarize(result)

	completed := &events.RunCompletedData{
		RunUUID:      runUUID,
		PathCount:    len(result.Paths),
		FailureCount: len(result.Failures),
		ElapsedMS:    elapsed.Milliseconds(),
	}
	if summary != nil {
		completed.TerminalMean = summary.Mean
	}
	s.bus.Publish(completed)

	s.log.Info().
		Str("run_uuid", runUUID).
		Str("status", status).
		Int("paths", len(result.Paths)).
		Int("failures", len(result.Failures)).
		Dur("elapsed", elapsed).
		Msg("Run created")

	return &run, summary, nil
}

// Get returns a stored run's metadata.
func (s *Service) Get(runUUID string) (*Run, error) {
	return s.repo.Get(runUUID)
}

// GetPaths returns a stored run's paths.
func (s *Service) GetPaths(runUUID string) ([]abm.Path, error) {
	return s.repo.GetPaths(runUUID)
}

// List returns the most recent runs.
func (s *Service) List(limit int) ([]Run, error) {
	return s.repo.ListRecent(limit)
}

// Delete removes a run and publishes a deletion event.
func (s *Service) Delete(runUUID string) error {
	if err := s.repo.Delete(runUUID); err != nil {
		return err
	}
	s.bus.Publish(&events.RunDeletedData{RunUUID: runUUID, Source: "api"})
	return nil
}

// Count returns the number of stored runs.
func (s *Service) Count() (int, error) {
	return s.repo.Count()
}

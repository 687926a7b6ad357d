package scheduler

import (
	"time"

	"github.com/aristath/pathsim/internal/events"
	"github.com/aristath/pathsim/internal/modules/runs"
	"github.com/rs/zerolog"
)

// CleanupRunsJob purges stored runs older than the configured retention
// window. Scheduled daily.
type CleanupRunsJob struct {
	repo          *runs.Repository
	bus           *events.Bus
	retentionDays int
	log           zerolog.Logger
}

// NewCleanupRunsJob creates a new run retention job
func NewCleanupRunsJob(repo *runs.Repository, bus *events.Bus, retentionDays int, log zerolog.Logger) *CleanupRunsJob {
	return &CleanupRunsJob{
		repo:          repo,
		bus:           bus,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "cleanup_runs").Logger(),
	}
}

// Run executes the retention job
func (j *CleanupRunsJob) Run() error {
	if j.retentionDays < 1 {
		j.log.Debug().Msg("Retention disabled, skipping")
		return nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -j.retentionDays)

	purged, err := j.repo.DeleteOlderThan(cutoff)
	if err != nil {
		return err
	}

	if purged > 0 {
		j.bus.Publish(&events.RunDeletedData{Source: "retention"})
		j.log.Info().
			Int64("purged", purged).
			Time("cutoff", cutoff).
			Msg("Purged expired runs")
	}

	return nil
}

// Name returns the job name for scheduler
func (j *CleanupRunsJob) Name() string {
	return "cleanup_runs"
}

package scheduler

import (
	"github.com/aristath/pathsim/internal/database"
	"github.com/rs/zerolog"
)

// WALCheckpointJob truncates the WAL files of all managed databases to keep
// them from growing unbounded between restarts. Scheduled hourly.
type WALCheckpointJob struct {
	databases map[string]*database.DB
	log       zerolog.Logger
}

// NewWALCheckpointJob creates a new WAL checkpoint job
func NewWALCheckpointJob(databases map[string]*database.DB, log zerolog.Logger) *WALCheckpointJob {
	return &WALCheckpointJob{
		databases: databases,
		log:       log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

// Run executes the checkpoint job
func (j *WALCheckpointJob) Run() error {
	for name, db := range j.databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			// Checkpoints are retried on the next tick, no need to fail the job.
			j.log.Warn().
				Str("database", name).
				Err(err).
				Msg("WAL checkpoint failed")
			continue
		}
		j.log.Debug().Str("database", name).Msg("WAL checkpoint completed")
	}
	return nil
}

// Name returns the job name for scheduler
func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}

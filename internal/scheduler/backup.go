package scheduler

import (
	"context"
	"time"

	"github.com/aristath/pathsim/internal/reliability"
	"github.com/rs/zerolog"
)

// BackupJob creates a dated local snapshot of every database and, when an
// object store is configured, ships a compressed archive off-site and prunes
// old ones. Scheduled daily.
type BackupJob struct {
	backupService *reliability.BackupService
	cloudBackup   *reliability.CloudBackupService // nil when not configured
	keepArchives  int
	log           zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(
	backupService *reliability.BackupService,
	cloudBackup *reliability.CloudBackupService,
	keepArchives int,
	log zerolog.Logger,
) *BackupJob {
	return &BackupJob{
		backupService: backupService,
		cloudBackup:   cloudBackup,
		keepArchives:  keepArchives,
		log:           log.With().Str("job", "backup").Logger(),
	}
}

// Run executes the backup job
func (j *BackupJob) Run() error {
	date := time.Now().Format("2006-01-02")

	destDir, err := j.backupService.BackupAll(date)
	if err != nil {
		return err
	}
	j.log.Info().Str("dir", destDir).Msg("Local backup completed")

	if j.cloudBackup == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := j.cloudBackup.CreateAndUpload(ctx); err != nil {
		return err
	}
	if err := j.cloudBackup.Prune(ctx, j.keepArchives); err != nil {
		// Next run prunes again; the upload already succeeded.
		j.log.Warn().Err(err).Msg("Archive pruning failed")
	}

	return nil
}

// Name returns the job name for scheduler
func (j *BackupJob) Name() string {
	return "backup"
}

package reliability

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/aristath/pathsim/internal/database"
	"github.com/rs/zerolog"
)

// BackupService creates local database snapshots under <dataDir>/backups.
// Snapshots are produced with VACUUM INTO, which is safe against a live
// database and yields a compact, checkpointed copy.
type BackupService struct {
	databases map[string]*database.DB
	backupDir string
	log       zerolog.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(databases map[string]*database.DB, dataDir string, log zerolog.Logger) *BackupService {
	return &BackupService{
		databases: databases,
		backupDir: filepath.Join(dataDir, "backups"),
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// BackupDir returns the directory local snapshots are written to.
func (s *BackupService) BackupDir() string {
	return s.backupDir
}

// DatabaseNames returns the names of all managed databases, sorted.
func (s *BackupService) DatabaseNames() []string {
	names := make([]string, 0, len(s.databases))
	for name := range s.databases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BackupDatabase snapshots one database to destPath.
func (s *BackupService) BackupDatabase(name, destPath string) error {
	db, ok := s.databases[name]
	if !ok {
		return fmt.Errorf("unknown database: %s", name)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}
	// VACUUM INTO refuses to overwrite; drop any stale copy first.
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale backup %s: %w", destPath, err)
	}

	if err := db.BackupTo(destPath); err != nil {
		return err
	}

	s.log.Debug().Str("database", name).Str("dest", destPath).Msg("Database snapshot created")
	return nil
}

// BackupAll snapshots every managed database into a dated directory and
// returns that directory.
func (s *BackupService) BackupAll(date string) (string, error) {
	destDir := filepath.Join(s.backupDir, "daily", date)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	for _, name := range s.DatabaseNames() {
		destPath := filepath.Join(destDir, name+".db")
		if err := s.BackupDatabase(name, destPath); err != nil {
			return "", fmt.Errorf("failed to backup %s: %w", name, err)
		}
	}

	return destDir, nil
}

// VerifyBackup opens a snapshot and runs an integrity check on it.
func (s *BackupService) VerifyBackup(path string) error {
	backupDB, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open backup %s: %w", path, err)
	}
	defer backupDB.Close()

	var result string
	if err := backupDB.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check query failed for %s: %w", path, err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed for %s: %s", path, result)
	}

	return nil
}

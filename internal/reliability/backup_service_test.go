package reliability

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/pathsim/internal/database"
	internaltesting "github.com/aristath/pathsim/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupService_SnapshotAndVerify(t *testing.T) {
	db, cleanup := internaltesting.NewRunsDB(t)
	defer cleanup()

	dataDir := t.TempDir()
	service := NewBackupService(map[string]*database.DB{"runs": db}, dataDir, zerolog.Nop())

	assert.Equal(t, []string{"runs"}, service.DatabaseNames())

	destPath := filepath.Join(dataDir, "snapshot", "runs.db")
	require.NoError(t, service.BackupDatabase("runs", destPath))

	info, err := os.Stat(destPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	require.NoError(t, service.VerifyBackup(destPath))

	// Second snapshot replaces the first instead of failing.
	require.NoError(t, service.BackupDatabase("runs", destPath))
}

func TestBackupService_UnknownDatabase(t *testing.T) {
	service := NewBackupService(map[string]*database.DB{}, t.TempDir(), zerolog.Nop())
	err := service.BackupDatabase("missing", filepath.Join(t.TempDir(), "x.db"))
	assert.Error(t, err)
}

func TestBackupService_BackupAll(t *testing.T) {
	db, cleanup := internaltesting.NewRunsDB(t)
	defer cleanup()

	dataDir := t.TempDir()
	service := NewBackupService(map[string]*database.DB{"runs": db}, dataDir, zerolog.Nop())

	date := time.Now().Format("2006-01-02")
	destDir, err := service.BackupAll(date)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "backups", "daily", date), destDir)

	_, err = os.Stat(filepath.Join(destDir, "runs.db"))
	require.NoError(t, err)
}

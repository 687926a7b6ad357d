// Package testing provides testing utilities and helpers for the pathsim project.
package testing

import (
	"os"
	"testing"

	"github.com/aristath/pathsim/internal/database"
	_ "modernc.org/sqlite"
)

// NewRunsDB creates a temporary runs database for testing with the runs
// schema applied. Returns the database instance and a cleanup function that
// closes the connection and removes the file. The cleanup function is
// idempotent and safe to call multiple times.
func NewRunsDB(t *testing.T) (*database.DB, func()) {
	t.Helper()

	// Temporary file per test to guarantee isolation
	tmpFile, err := os.CreateTemp("", "test_runs_*.db")
	if err != nil {
		t.Fatalf("Failed to create temporary database file: %v", err)
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()

	db, err := database.New(database.Config{
		Path:    tmpPath,
		Profile: database.ProfileStandard,
		Name:    "runs",
	})
	if err != nil {
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to create test runs database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to migrate test runs database: %v", err)
	}

	return db, func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database: %v", err)
		}
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			t.Logf("Warning: Failed to remove temporary database file %s: %v", tmpPath, err)
		}
	}
}

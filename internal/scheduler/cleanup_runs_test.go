package scheduler

import (
	"testing"
	"time"

	"github.com/aristath/pathsim/internal/abm"
	"github.com/aristath/pathsim/internal/database"
	"github.com/aristath/pathsim/internal/events"
	"github.com/aristath/pathsim/internal/modules/runs"
	internaltesting "github.com/aristath/pathsim/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRun(t *testing.T, repo *runs.Repository, createdAt time.Time) string {
	t.Helper()
	result, err := abm.NewSimulator(1).Generate(abm.Request{
		Parameters:   abm.Parameters{Drift: 0.05, Volatility: 0.2},
		Grid:         abm.Grid{Start: 0, End: 1, Steps: 10},
		InitialValue: 100,
		PathCount:    1,
		Seed:         int64Ptr(1),
	})
	require.NoError(t, err)

	run := runs.Run{
		UUID:         "run-" + createdAt.Format("20060102150405"),
		Label:        "seeded",
		Drift:        0.05,
		Volatility:   0.2,
		GridStart:    0,
		GridEnd:      1,
		Steps:        10,
		InitialValue: 100,
		PathCount:    1,
		Status:       runs.StatusCompleted,
		CreatedAt:    createdAt,
	}
	require.NoError(t, repo.Create(run, result.Paths))
	return run.UUID
}

func int64Ptr(v int64) *int64 { return &v }

func TestCleanupRunsJob_PurgesExpiredOnly(t *testing.T) {
	db, cleanup := internaltesting.NewRunsDB(t)
	defer cleanup()

	repo := runs.NewRepository(db.Conn(), zerolog.Nop())
	bus := events.NewBus(zerolog.Nop())

	now := time.Now().UTC()
	staleUUID := seedRun(t, repo, now.AddDate(0, 0, -40))
	freshUUID := seedRun(t, repo, now.AddDate(0, 0, -1))

	var retentionEvents int
	unsubscribe := bus.Subscribe(func(e *events.Event) {
		if e.Type == events.RunDeleted {
			retentionEvents++
		}
	})
	defer unsubscribe()

	job := NewCleanupRunsJob(repo, bus, 30, zerolog.Nop())
	assert.Equal(t, "cleanup_runs", job.Name())
	require.NoError(t, job.Run())

	_, err := repo.Get(staleUUID)
	assert.ErrorIs(t, err, runs.ErrNotFound)
	_, err = repo.Get(freshUUID)
	assert.NoError(t, err)
	assert.Equal(t, 1, retentionEvents)
}

func TestCleanupRunsJob_DisabledRetentionIsNoOp(t *testing.T) {
	db, cleanup := internaltesting.NewRunsDB(t)
	defer cleanup()

	repo := runs.NewRepository(db.Conn(), zerolog.Nop())
	seedRun(t, repo, time.Now().UTC().AddDate(0, 0, -365))

	job := NewCleanupRunsJob(repo, events.NewBus(zerolog.Nop()), 0, zerolog.Nop())
	require.NoError(t, job.Run())

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWALCheckpointJob(t *testing.T) {
	db, cleanup := internaltesting.NewRunsDB(t)
	defer cleanup()

	job := NewWALCheckpointJob(map[string]*database.DB{"runs": db}, zerolog.Nop())
	assert.Equal(t, "wal_checkpoint", job.Name())
	require.NoError(t, job.Run())
}

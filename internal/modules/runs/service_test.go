package runs

import (
	"math"
	"testing"

	"github.com/aristath/pathsim/internal/abm"
	"github.com/aristath/pathsim/internal/events"
	internaltesting "github.com/aristath/pathsim/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *events.Bus, func()) {
	t.Helper()
	db, cleanup := internaltesting.NewRunsDB(t)
	bus := events.NewBus(zerolog.Nop())
	repo := NewRepository(db.Conn(), zerolog.Nop())
	service := NewService(repo, abm.NewSimulator(2), bus, zerolog.Nop())
	return service, bus, cleanup
}

func createRequest() CreateRunRequest {
	seed := int64(7)
	return CreateRunRequest{
		Label:        "smoke",
		Drift:        0.05,
		Volatility:   0.2,
		Start:        0,
		End:          1,
		Steps:        100,
		InitialValue: 100,
		PathCount:    4,
		Seed:         &seed,
	}
}

func TestService_CreatePersistsAndPublishes(t *testing.T) {
	service, bus, cleanup := newTestService(t)
	defer cleanup()

	var published []events.EventType
	unsubscribe := bus.Subscribe(func(e *events.Event) {
		published = append(published, e.Type)
	})
	defer unsubscribe()

	run, summary, err := service.Create(createRequest())
	require.NoError(t, err)
	require.NotNil(t, run)
	require.NotNil(t, summary)

	assert.Equal(t, StatusCompleted, run.Status)
	assert.Equal(t, 0, run.FailureCount)
	assert.Equal(t, 4, summary.PathCount)

	stored, err := service.Get(run.UUID)
	require.NoError(t, err)
	assert.Equal(t, "smoke", stored.Label)

	paths, err := service.GetPaths(run.UUID)
	require.NoError(t, err)
	require.Len(t, paths, 4)
	assert.Len(t, paths[0].Points, 101)

	require.Len(t, published, 2)
	assert.Equal(t, events.RunStarted, published[0])
	assert.Equal(t, events.RunCompleted, published[1])
}

func TestService_CreateInvalidParametersNotStored(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	req := createRequest()
	req.Volatility = -1

	_, _, err := service.Create(req)
	var invalid *abm.InvalidParameterError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "volatility", invalid.Field)

	count, err := service.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestService_CreateAllPathsOverflowed(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	req := createRequest()
	req.Drift = math.MaxFloat64
	req.Steps = 2
	req.End = 2

	run, summary, err := service.Create(req)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, run.Status)
	assert.Equal(t, 4, run.FailureCount)
	assert.Nil(t, summary)

	paths, err := service.GetPaths(run.UUID)
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestService_DeletePublishesEvent(t *testing.T) {
	service, bus, cleanup := newTestService(t)
	defer cleanup()

	run, _, err := service.Create(createRequest())
	require.NoError(t, err)

	var deleted *events.RunDeletedData
	unsubscribe := bus.Subscribe(func(e *events.Event) {
		if data, ok := e.Data.(*events.RunDeletedData); ok {
			deleted = data
		}
	})
	defer unsubscribe()

	require.NoError(t, service.Delete(run.UUID))
	require.NotNil(t, deleted)
	assert.Equal(t, run.UUID, deleted.RunUUID)

	assert.ErrorIs(t, service.Delete(run.UUID), ErrNotFound)
}

package analytics

import (
	"testing"

	"github.com/aristath/pathsim/internal/abm"
	"github.com/aristath/pathsim/internal/events"
	"github.com/aristath/pathsim/internal/modules/runs"
	internaltesting "github.com/aristath/pathsim/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *runs.Service, func()) {
	t.Helper()
	db, cleanup := internaltesting.NewRunsDB(t)
	repo := runs.NewRepository(db.Conn(), zerolog.Nop())
	runsService := runs.NewService(repo, abm.NewSimulator(2), events.NewBus(zerolog.Nop()), zerolog.Nop())
	return NewService(runsService, zerolog.Nop()), runsService, cleanup
}

func TestAnalyzePath_EmptySeries(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	_, err := service.AnalyzePath(PathRequest{})
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestAnalyzePath_RisingSeries(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	// Linear ramp 100..129, long enough for the default indicator period.
	values := make([]float64, 30)
	for i := range values {
		values[i] = 100 + float64(i)
	}

	result, err := service.AnalyzePath(PathRequest{Values: values})
	require.NoError(t, err)

	assert.Equal(t, 30, result.Count)
	assert.InDelta(t, 114.5, result.Mean, 1e-9)
	assert.Equal(t, 100.0, result.Min)
	assert.Equal(t, 129.0, result.Max)
	assert.InDelta(t, 0.29, result.TotalReturn, 1e-9)
	assert.Equal(t, 0.0, result.MaxDrawdown)

	require.NotNil(t, result.SMA)
	require.NotNil(t, result.EMA)
	require.NotNil(t, result.RSI)
	// A strictly rising series has no losses, so RSI saturates at 100.
	assert.InDelta(t, 100.0, *result.RSI, 1e-9)
}

func TestAnalyzePath_ShortSeriesOmitsIndicators(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	result, err := service.AnalyzePath(PathRequest{Values: []float64{100, 101, 99}})
	require.NoError(t, err)

	assert.Nil(t, result.SMA)
	assert.Nil(t, result.EMA)
	assert.Nil(t, result.RSI)
	assert.InDelta(t, -0.01, result.TotalReturn, 1e-9)
	assert.InDelta(t, 2.0/101.0, result.MaxDrawdown, 1e-9)
}

func TestAnalyzeRun_NotFound(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	_, err := service.AnalyzeRun("missing-uuid")
	assert.ErrorIs(t, err, runs.ErrNotFound)
}

func TestAnalyzeRun_AggregatesStoredPaths(t *testing.T) {
	service, runsService, cleanup := newTestService(t)
	defer cleanup()

	seed := int64(42)
	run, _, err := runsService.Create(runs.CreateRunRequest{
		Label:        "analytics",
		Drift:        0.05,
		Volatility:   0.2,
		Start:        0,
		End:          1,
		Steps:        252,
		InitialValue: 100,
		PathCount:    20,
		Seed:         &seed,
	})
	require.NoError(t, err)

	result, err := service.AnalyzeRun(run.UUID)
	require.NoError(t, err)

	assert.Equal(t, run.UUID, result.RunUUID)
	assert.Equal(t, 20, result.PathCount)
	require.NotNil(t, result.Terminal)
	assert.Equal(t, 1.0, result.Terminal.Time)
	assert.Greater(t, result.Terminal.Max, result.Terminal.Min)

	// Every realistic ABM path wiggles at least once.
	assert.Greater(t, result.MeanMaxDrawdown, 0.0)
	assert.GreaterOrEqual(t, result.WorstMaxDrawdown, result.MeanMaxDrawdown)
	assert.GreaterOrEqual(t, result.ProbabilityOfLoss, 0.0)
	assert.LessOrEqual(t, result.ProbabilityOfLoss, 1.0)
	assert.Greater(t, result.MeanAnnualizedVol, 0.0)

	// VaR and expected gain are consistent with the terminal distribution.
	assert.InDelta(t, result.Terminal.Mean-100, result.ExpectedTerminalGain, 1e-9)
}

func TestAnalyzeRun_FailedRunHasNoPaths(t *testing.T) {
	service, runsService, cleanup := newTestService(t)
	defer cleanup()

	seed := int64(1)
	run, _, err := runsService.Create(runs.CreateRunRequest{
		Label:        "overflow",
		Drift:        1.7976931348623157e308,
		Volatility:   0,
		Start:        0,
		End:          2,
		Steps:        2,
		InitialValue: 100,
		PathCount:    3,
		Seed:         &seed,
	})
	require.NoError(t, err)
	require.Equal(t, runs.StatusFailed, run.Status)

	result, err := service.AnalyzeRun(run.UUID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.PathCount)
	assert.Nil(t, result.Terminal)
}

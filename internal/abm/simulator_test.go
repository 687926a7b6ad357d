package abm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPtr(s int64) *int64 { return &s }

func baseRequest() Request {
	return Request{
		Parameters:   Parameters{Drift: 0.05, Volatility: 0.2},
		Grid:         Grid{Start: 0, End: 1, Steps: 252},
		InitialValue: 100,
		PathCount:    1,
		Seed:         seedPtr(42),
	}
}

func TestGenerate_ConcreteScenario(t *testing.T) {
	sim := NewSimulator(4)

	result, err := sim.Generate(baseRequest())
	require.NoError(t, err)
	require.Len(t, result.Paths, 1)
	require.Empty(t, result.Failures)

	path := result.Paths[0]
	require.Len(t, path.Points, 253)
	assert.Equal(t, 0.0, path.Points[0].Time)
	assert.Equal(t, 100.0, path.Points[0].Value)

	// Times must form an arithmetic sequence with common difference dt.
	dt := 1.0 / 252.0
	for i, p := range path.Points {
		assert.InDelta(t, float64(i)*dt, p.Time, 1e-12)
	}
}

func TestGenerate_DeterministicGivenSeed(t *testing.T) {
	req := baseRequest()
	req.PathCount = 16

	sim := NewSimulator(4)
	first, err := sim.Generate(req)
	require.NoError(t, err)
	second, err := sim.Generate(req)
	require.NoError(t, err)

	// Bit-for-bit identical output for identical (request, seed).
	assert.Equal(t, first.Paths, second.Paths)
}

func TestGenerate_IndependentOfWorkerCount(t *testing.T) {
	req := baseRequest()
	req.PathCount = 32

	serial, err := NewSimulator(1).Generate(req)
	require.NoError(t, err)
	parallel, err := NewSimulator(8).Generate(req)
	require.NoError(t, err)

	assert.Equal(t, serial.Paths, parallel.Paths)
}

func TestGenerate_ZeroVolatilityIsPureDrift(t *testing.T) {
	req := baseRequest()
	req.Parameters.Volatility = 0
	req.PathCount = 2
	req.Seed = seedPtr(7)

	result, err := NewSimulator(2).Generate(req)
	require.NoError(t, err)
	require.Len(t, result.Paths, 2)

	dt := req.Grid.Dt()
	for _, path := range result.Paths {
		for i, p := range path.Points {
			expected := req.InitialValue + req.Parameters.Drift*float64(i)*dt
			assert.InDelta(t, expected, p.Value, 1e-9)
		}
	}

	// Seed must not matter when sigma is zero.
	req.Seed = seedPtr(12345)
	other, err := NewSimulator(2).Generate(req)
	require.NoError(t, err)
	for i := range result.Paths {
		assert.Equal(t, result.Paths[i].Points, other.Paths[i].Points)
	}
}

func TestGenerate_PathsAreDistinct(t *testing.T) {
	req := baseRequest()
	req.PathCount = 10

	result, err := NewSimulator(4).Generate(req)
	require.NoError(t, err)
	require.Len(t, result.Paths, 10)

	// With sigma > 0, identical trajectories are astronomically unlikely.
	for i := 0; i < len(result.Paths); i++ {
		for j := i + 1; j < len(result.Paths); j++ {
			assert.NotEqual(t, result.Paths[i].Points, result.Paths[j].Points,
				"paths %d and %d must not coincide", i, j)
		}
	}
}

func TestGenerate_TerminalMeanAndVarianceConverge(t *testing.T) {
	req := baseRequest()
	req.PathCount = 10000

	result, err := NewSimulator(0).Generate(req)
	require.NoError(t, err)
	require.Len(t, result.Paths, 10000)

	summary := Summarize(result)
	require.NotNil(t, summary)

	// Terminal distribution is N(S0 + mu*T, sigma^2*T); with N=10k the
	// sample mean has stderr sigma*sqrt(T)/sqrt(N) = 0.002.
	assert.InDelta(t, 100.05, summary.Mean, 0.02)
	assert.InDelta(t, 0.04, summary.Variance, 0.005)
}

func TestGenerate_UnseededStillValid(t *testing.T) {
	req := baseRequest()
	req.Seed = nil
	req.PathCount = 3

	result, err := NewSimulator(2).Generate(req)
	require.NoError(t, err)
	assert.Len(t, result.Paths, 3)
	for _, path := range result.Paths {
		assert.Len(t, path.Points, 253)
	}
}

func TestGenerate_OverflowAbortsOnlyAffectedPath(t *testing.T) {
	// Pure drift at MaxFloat64: step 1 saturates to MaxFloat64, step 2
	// produces +Inf, so every path fails deterministically at step 2.
	req := Request{
		Parameters:   Parameters{Drift: math.MaxFloat64, Volatility: 0},
		Grid:         Grid{Start: 0, End: 2, Steps: 2},
		InitialValue: 100,
		PathCount:    3,
		Seed:         seedPtr(1),
	}

	result, err := NewSimulator(2).Generate(req)
	require.NoError(t, err)
	assert.Empty(t, result.Paths)
	require.Len(t, result.Failures, 3)
	for _, failure := range result.Failures {
		assert.Equal(t, 2, failure.Step)
	}
}

func TestGenerate_NegativeValuesAreNotClamped(t *testing.T) {
	// Strong negative drift pushes the path below zero; ABM permits that.
	req := Request{
		Parameters:   Parameters{Drift: -500, Volatility: 0},
		Grid:         Grid{Start: 0, End: 1, Steps: 10},
		InitialValue: 100,
		PathCount:    1,
		Seed:         seedPtr(1),
	}

	result, err := NewSimulator(1).Generate(req)
	require.NoError(t, err)
	require.Len(t, result.Paths, 1)
	assert.Less(t, result.Paths[0].TerminalValue(), 0.0)
}

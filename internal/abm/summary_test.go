package abm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_Empty(t *testing.T) {
	assert.Nil(t, Summarize(nil))
	assert.Nil(t, Summarize(&Result{}))
}

func TestSummarize_SinglePath(t *testing.T) {
	result := &Result{Paths: []Path{{
		Index:  0,
		Points: []Point{{Time: 0, Value: 100}, {Time: 1, Value: 105}},
	}}}

	summary := Summarize(result)
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.PathCount)
	assert.Equal(t, 1.0, summary.TerminalTime)
	assert.Equal(t, 105.0, summary.Mean)
	assert.Equal(t, 0.0, summary.Variance)
	assert.Equal(t, 105.0, summary.Min)
	assert.Equal(t, 105.0, summary.Max)
}

func TestSummarize_OrderedQuantiles(t *testing.T) {
	req := baseRequest()
	req.PathCount = 500

	result, err := NewSimulator(4).Generate(req)
	require.NoError(t, err)

	summary := Summarize(result)
	require.NotNil(t, summary)
	assert.Equal(t, 500, summary.PathCount)
	assert.LessOrEqual(t, summary.Min, summary.P10)
	assert.LessOrEqual(t, summary.P10, summary.Median)
	assert.LessOrEqual(t, summary.Median, summary.P90)
	assert.LessOrEqual(t, summary.P90, summary.Max)
	assert.Greater(t, summary.StdDev, 0.0)
}

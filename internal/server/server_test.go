package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/pathsim/internal/abm"
	"github.com/aristath/pathsim/internal/config"
	"github.com/aristath/pathsim/internal/database"
	"github.com/aristath/pathsim/internal/events"
	"github.com/aristath/pathsim/internal/modules/analytics"
	"github.com/aristath/pathsim/internal/modules/runs"
	"github.com/aristath/pathsim/internal/modules/simulation"
	"github.com/aristath/pathsim/internal/reliability"
	internaltesting "github.com/aristath/pathsim/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, func()) {
	t.Helper()

	db, cleanup := internaltesting.NewRunsDB(t)
	log := zerolog.Nop()
	bus := events.NewBus(log)
	simulator := abm.NewSimulator(2)

	runsRepo := runs.NewRepository(db.Conn(), log)
	runsSvc := runs.NewService(runsRepo, simulator, bus, log)

	cfg := &config.Config{
		DataDir:      t.TempDir(),
		Port:         0,
		MaxPathCount: 100,
		MaxSteps:     1000,
	}

	s := New(Config{
		Log:           log,
		Config:        cfg,
		RunsDB:        db,
		EventBus:      bus,
		SimulationSvc: simulation.NewService(2, log),
		RunsSvc:       runsSvc,
		AnalyticsSvc:  analytics.NewService(runsSvc, log),
		BackupService: reliability.NewBackupService(map[string]*database.DB{"runs": db}, cfg.DataDir, log),
	})

	return s, cleanup
}

func TestServer_Health(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "pathsim", resp["service"])
}

func TestServer_SystemStatus(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/system/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp SystemStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.StoredRuns)
}

func TestServer_SimulateEndToEnd(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	body, err := json.Marshal(map[string]interface{}{
		"drift":         0.05,
		"volatility":    0.2,
		"start":         0,
		"end":           1,
		"steps":         252,
		"initial_value": 100,
		"path_count":    2,
		"seed":          42,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/simulate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp simulation.SimulateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Paths, 2)
	assert.Len(t, resp.Paths[0].Points, 253)
}

func TestServer_CreateRunAndAnalyze(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	body, err := json.Marshal(map[string]interface{}{
		"label":         "e2e",
		"drift":         0.05,
		"volatility":    0.2,
		"start":         0,
		"end":           1,
		"steps":         100,
		"initial_value": 100,
		"path_count":    5,
		"seed":          7,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/runs", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Run *runs.Run `json:"run"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotNil(t, created.Run)

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/"+created.Run.UUID+"/analytics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var analyzed analytics.RunAnalytics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analyzed))
	assert.Equal(t, 5, analyzed.PathCount)
	require.NotNil(t, analyzed.Terminal)

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/system/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var status SystemStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 1, status.StoredRuns)
}

func TestServer_BackupNow(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/system/backup", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.NotContains(t, resp, "cloud")
}

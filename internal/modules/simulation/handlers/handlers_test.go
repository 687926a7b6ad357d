package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/pathsim/internal/modules/simulation"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	service := simulation.NewService(2, zerolog.Nop())
	handler := NewHandler(service, Limits{MaxPathCount: 100, MaxSteps: 1000}, zerolog.Nop())
	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func postJSON(t *testing.T, router *chi.Mux, url string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func validRequest() simulation.SimulateRequest {
	seed := int64(42)
	return simulation.SimulateRequest{
		Drift:        0.05,
		Volatility:   0.2,
		Start:        0,
		End:          1,
		Steps:        252,
		InitialValue: 100,
		PathCount:    2,
		Seed:         &seed,
	}
}

func TestHandleSimulate_OK(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/v1/simulate", validRequest())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp simulation.SimulateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Paths, 2)
	assert.Len(t, resp.Paths[0].Points, 253)
	assert.Equal(t, 0.0, resp.Paths[0].Points[0].Time)
	assert.Equal(t, 100.0, resp.Paths[0].Points[0].Value)
	require.NotNil(t, resp.Summary)
	assert.Equal(t, 2, resp.Summary.PathCount)
	assert.Empty(t, resp.Failures)
}

func TestHandleSimulate_InvalidParameterNamesField(t *testing.T) {
	router := newTestRouter(t)

	req := validRequest()
	req.Volatility = -1

	rec := postJSON(t, router, "/api/v1/simulate", req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "volatility", resp["field"])
}

func TestHandleSimulate_PathCapExceeded(t *testing.T) {
	router := newTestRouter(t)

	req := validRequest()
	req.PathCount = 101

	rec := postJSON(t, router, "/api/v1/simulate", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSimulate_MalformedBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/simulate", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSimulateSummary_OmitsPaths(t *testing.T) {
	router := newTestRouter(t)

	req := validRequest()
	req.PathCount = 50

	rec := postJSON(t, router, "/api/v1/simulate/summary", req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp simulation.SummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Summary)
	assert.Equal(t, 50, resp.Summary.PathCount)
	assert.NotContains(t, rec.Body.String(), `"points"`)
}

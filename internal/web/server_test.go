package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/feelab/internal/state"
	"github.com/elys-network/feelab/internal/types"
)

func withMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	state.DB = db
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
		state.DB = nil
	})
	return mock
}

func runColumns() []string {
	return []string{"id", "run_id", "params_id", "strategy_name", "seed", "started_at", "finished_at", "summary", "edges"}
}

func get(t *testing.T, ws *WebServer, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	ws.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthWithoutDatabase(t *testing.T) {
	state.DB = nil
	ws := NewWebServer("", "default", nil)

	rec := get(t, ws, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "DEGRADED", decode(t, rec)["status"])
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthWithDatabase(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectQuery("FROM match_runs ORDER BY finished_at DESC LIMIT 1").WillReturnRows(sqlmock.NewRows(runColumns()))

	ws := NewWebServer("", "default", nil)
	rec := get(t, ws, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", decode(t, rec)["status"])
}

func TestGetRuns(t *testing.T) {
	mock := withMockDB(t)
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	summary, err := json.Marshal(types.MatchSummary{Simulations: 1, Wins: 1, MeanEdge: 3})
	require.NoError(t, err)

	mock.ExpectQuery("FROM match_runs ORDER BY finished_at DESC LIMIT").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(runColumns()).
			AddRow(1, "3b241101-e2bb-4255-8caf-4136c566a962", nil, "contrarian/none", int64(1), now, now, summary, "{3}"))

	ws := NewWebServer("", "default", nil)
	rec := get(t, ws, "/api/runs?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, float64(5), body["limit"])
}

func TestGetRunValidatesID(t *testing.T) {
	ws := NewWebServer("", "default", nil)
	rec := get(t, ws, "/api/runs/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRunNotFound(t *testing.T) {
	mock := withMockDB(t)
	id := "3b241101-e2bb-4255-8caf-4136c566a962"
	mock.ExpectQuery("FROM match_runs WHERE run_id").WithArgs(id).WillReturnRows(sqlmock.NewRows(runColumns()))

	ws := NewWebServer("", "default", nil)
	rec := get(t, ws, "/api/runs/"+id)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLatestRunIsNotTreatedAsID(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectQuery("FROM match_runs ORDER BY finished_at DESC LIMIT 1").WillReturnRows(sqlmock.NewRows(runColumns()))

	ws := NewWebServer("", "default", nil)
	rec := get(t, ws, "/api/runs/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No runs found", decode(t, rec)["message"])
}

func TestGetParametersWithoutActiveSet(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectQuery("FROM controller_parameters").WithArgs("default").
		WillReturnRows(sqlmock.NewRows([]string{"params_id", "version", "config_name", "is_active", "activated_at", "parameters"}))

	ws := NewWebServer("", "default", nil)
	rec := get(t, ws, "/api/parameters")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := NewMetrics()
	metrics.RunCompleted(types.MatchResult{
		StrategyName: "contrarian/none",
		Simulations: []types.SimulationResult{
			{Candidate: types.PoolMetrics{Edge: 10}, Outcome: types.OutcomeWin},
			{Candidate: types.PoolMetrics{Edge: -5}, Outcome: types.OutcomeLoss},
		},
		Summary: types.MatchSummary{MeanEdge: 2.5},
	}, 2*time.Second)
	metrics.RunFailed("contrarian/none", true)

	ws := NewWebServer("", "default", metrics)
	rec := get(t, ws, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	raw, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, `feelab_match_runs_total{strategy="contrarian/none"} 1`)
	assert.Contains(t, text, `feelab_simulations_total{strategy="contrarian/none"} 2`)
	assert.Contains(t, text, `feelab_simulation_outcomes_total{outcome="win",strategy="contrarian/none"} 1`)
	assert.Contains(t, text, `feelab_match_run_failures_total{reason="abandoned",strategy="contrarian/none"} 1`)
	assert.Contains(t, text, `feelab_last_mean_edge{strategy="contrarian/none"} 2.5`)
}

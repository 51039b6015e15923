package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/swing/backend/internal/api/handlers"
	"github.com/wonny/swing/backend/internal/api/stream"
	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/internal/s1_universe"
	"github.com/wonny/swing/backend/internal/selection"
	"github.com/wonny/swing/backend/pkg/database"
	"github.com/wonny/swing/backend/pkg/logger"
)

type staticRanker struct{}

func (staticRanker) RankRun(ctx context.Context, tickers []string, minProbability float64, limit int) (*contracts.RankingRun, error) {
	return &contracts.RankingRun{
		MinProbability: minProbability,
		Limit:          limit,
		Candidates:     []contracts.Candidate{{Rank: 1, Ticker: "TCS.BO", Probability: 70}},
		FinishedAt:     time.Now(),
	}, nil
}

type panicAnalyzer struct{}

func (panicAnalyzer) Analyze(ctx context.Context, ticker string) (*contracts.Candidate, error) {
	panic("unexpected")
}

func newTestRouter(t *testing.T) (http.Handler, *stream.Hub) {
	t.Helper()
	log := logger.NewNop()
	catalog := s1_universe.NewCatalog(".BO")
	hub := stream.NewHub(log)
	t.Cleanup(hub.Close)

	results := selection.NewResultCache(time.Minute, nil, log)
	refresher := selection.NewRefresher(staticRanker{}, results, log).WithBroadcaster(hub)

	return NewRouter(Handlers{
		Ranking: handlers.NewRankingHandler(refresher, results, catalog, handlers.RankingDefaults{MinProbability: 40}, log),
		Stock:   handlers.NewStockHandler(panicAnalyzer{}, catalog, log),
		Stream:  hub,
	}, log), hub
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, ServiceName, body["service"])
	assert.Equal(t, true, body["ranker_ready"])

	rec = httptest.NewRecorder()
	NewRouter(Handlers{}, logger.NewNop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["ranker_ready"])
}

func TestRouter_Routes(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/top-stocks?limit=5", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ticker":"TCS.BO"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nothing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Not found"}`, rec.Body.String())

	// history routes exist but report the missing store
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stock/TCS/rankings", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_RecoversPanics(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stock/TCS", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Internal server error"}`, rec.Body.String())
}

func TestRouter_RefreshIsBroadcast(t *testing.T) {
	router, hub := newTestRouter(t)
	server := httptest.NewServer(router)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws/rankings", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	resp, err := http.Get(server.URL + "/api/top-stocks?refresh=true")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type string                  `json:"type"`
		Data selection.RankingUpdate `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, selection.RankingsMessage, msg.Type)
	assert.Equal(t, 1, msg.Data.Count)
	assert.Equal(t, "TCS.BO", msg.Data.Data[0].Ticker)
}

type fakeProbe struct{ err error }

func (p fakeProbe) HealthCheck(ctx context.Context) (*database.HealthStatus, error) {
	return &database.HealthStatus{Healthy: p.err == nil, Timestamp: time.Now()}, p.err
}

func TestHealth_DatabaseProbe(t *testing.T) {
	for _, tc := range []struct {
		name   string
		err    error
		status string
	}{
		{"healthy", nil, "ok"},
		{"unreachable", errors.New("connection refused"), "degraded"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			router := NewRouter(Handlers{Database: fakeProbe{err: tc.err}}, logger.NewNop())

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			require.Equal(t, http.StatusOK, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.status, body["status"])
			db, ok := body["database"].(map[string]interface{})
			require.True(t, ok)
			assert.Equal(t, tc.err == nil, db["healthy"])
		})
	}
}

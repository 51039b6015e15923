package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/internal/s0_data/collector"
	"github.com/wonny/swing/backend/internal/s0_data/quality"
	"github.com/wonny/swing/backend/internal/s1_universe"
	"github.com/wonny/swing/backend/internal/selection"
	"github.com/wonny/swing/backend/pkg/logger"
)

type fakeRunRanker struct {
	calls      atomic.Int32
	candidates []contracts.Candidate
	err        error
}

func (f *fakeRunRanker) RankRun(ctx context.Context, tickers []string, minProbability float64, limit int) (*contracts.RankingRun, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &contracts.RankingRun{
		MinProbability: minProbability,
		Limit:          limit,
		Candidates:     f.candidates,
		FinishedAt:     time.Now(),
	}, nil
}

type fakeRuns struct {
	run     *contracts.RankingRun
	err     error
	tickers []string
}

func (f *fakeRuns) LatestRun(ctx context.Context) (*contracts.RankingRun, error) {
	return f.run, f.err
}

func (f *fakeRuns) TickerHistory(ctx context.Context, ticker string, limit int) ([]selection.RankedAppearance, error) {
	f.tickers = append(f.tickers, ticker)
	return []selection.RankedAppearance{{RunID: 7, Ticker: ticker, Rank: 2, Probability: 64}}, nil
}

type fakeAnalyzer map[string]error

func (f fakeAnalyzer) Analyze(ctx context.Context, ticker string) (*contracts.Candidate, error) {
	if err, ok := f[ticker]; ok {
		return nil, err
	}
	return &contracts.Candidate{Ticker: ticker, Name: "Test", Probability: 66}, nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func newRankingHandler(ranker *fakeRunRanker) *RankingHandler {
	log := logger.NewNop()
	results := selection.NewResultCache(time.Minute, nil, log)
	refresher := selection.NewRefresher(ranker, results, log)
	return NewRankingHandler(refresher, results, s1_universe.NewCatalog(".BO"),
		RankingDefaults{MinProbability: 40, Limit: 10}, log)
}

func TestGetTopStocks_CachesResult(t *testing.T) {
	ranker := &fakeRunRanker{candidates: []contracts.Candidate{{Rank: 1, Ticker: "TCS.BO", Probability: 72}}}
	h := newRankingHandler(ranker)

	rec := httptest.NewRecorder()
	h.GetTopStocks(rec, httptest.NewRequest(http.MethodGet, "/api/top-stocks", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, false, body["from_cache"])
	assert.Equal(t, float64(1), body["count"])
	data := body["data"].([]interface{})
	assert.Equal(t, "TCS.BO", data[0].(map[string]interface{})["ticker"])
	assert.Equal(t, "72.0%", data[0].(map[string]interface{})["probability_score"])

	rec = httptest.NewRecorder()
	h.GetTopStocks(rec, httptest.NewRequest(http.MethodGet, "/api/top-stocks", nil))
	assert.Equal(t, true, decode(t, rec)["from_cache"])
	assert.Equal(t, int32(1), ranker.calls.Load())

	// another threshold is ranked separately
	rec = httptest.NewRecorder()
	h.GetTopStocks(rec, httptest.NewRequest(http.MethodGet, "/api/top-stocks?min_probability=55", nil))
	assert.Equal(t, false, decode(t, rec)["from_cache"])
	assert.Equal(t, int32(2), ranker.calls.Load())

	rec = httptest.NewRecorder()
	h.GetTopStocks(rec, httptest.NewRequest(http.MethodGet, "/api/top-stocks?refresh=TRUE", nil))
	assert.Equal(t, false, decode(t, rec)["from_cache"])
	assert.Equal(t, int32(3), ranker.calls.Load())
}

func TestGetTopStocks_BadParams(t *testing.T) {
	h := newRankingHandler(&fakeRunRanker{})

	for _, query := range []string{"min_probability=abc", "min_probability=120", "limit=0", "limit=x"} {
		t.Run(query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.GetTopStocks(rec, httptest.NewRequest(http.MethodGet, "/api/top-stocks?"+query, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, false, decode(t, rec)["success"])
		})
	}
}

func TestGetTopStocks_RankError(t *testing.T) {
	h := newRankingHandler(&fakeRunRanker{err: context.DeadlineExceeded})

	rec := httptest.NewRecorder()
	h.GetTopStocks(rec, httptest.NewRequest(http.MethodGet, "/api/top-stocks", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "deadline")
}

func TestGetTopStocks_EmptyDataIsList(t *testing.T) {
	h := newRankingHandler(&fakeRunRanker{})

	rec := httptest.NewRecorder()
	h.GetTopStocks(rec, httptest.NewRequest(http.MethodGet, "/api/top-stocks", nil))

	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestRankingHistory(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		h := newRankingHandler(&fakeRunRanker{})
		rec := httptest.NewRecorder()
		h.GetLatestRun(rec, httptest.NewRequest(http.MethodGet, "/api/rankings/latest", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		h := newRankingHandler(&fakeRunRanker{}).WithRuns(&fakeRuns{err: selection.ErrRunNotFound})
		rec := httptest.NewRecorder()
		h.GetLatestRun(rec, httptest.NewRequest(http.MethodGet, "/api/rankings/latest", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("latest", func(t *testing.T) {
		run := &contracts.RankingRun{
			ID:         3,
			Limit:      10,
			Candidates: []contracts.Candidate{{Rank: 1, Ticker: "INFY.BO"}},
		}
		h := newRankingHandler(&fakeRunRanker{}).WithRuns(&fakeRuns{run: run})
		rec := httptest.NewRecorder()
		h.GetLatestRun(rec, httptest.NewRequest(http.MethodGet, "/api/rankings/latest", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		data := decode(t, rec)["data"].(map[string]interface{})
		assert.Equal(t, float64(3), data["id"])
		assert.Len(t, data["candidates"], 1)
	})

	t.Run("ticker normalized", func(t *testing.T) {
		runs := &fakeRuns{}
		h := newRankingHandler(&fakeRunRanker{}).WithRuns(runs)

		req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/stock/infy/rankings", nil),
			map[string]string{"ticker": "infy"})
		rec := httptest.NewRecorder()
		h.GetTickerHistory(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"INFY.BO"}, runs.tickers)
		assert.Equal(t, "INFY.BO", decode(t, rec)["ticker"])
	})
}

func TestGetAnalysis(t *testing.T) {
	analyzer := fakeAnalyzer{
		"XYZ.BO":  contracts.ErrNoData,
		"FLAT.BO": contracts.ErrLevelsUnavailable,
		"BOOM.BO": errors.New("boom"),
	}
	h := NewStockHandler(analyzer, s1_universe.NewCatalog(".BO"), logger.NewNop())

	analyze := func(ticker string) *httptest.ResponseRecorder {
		req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/stock/t", nil),
			map[string]string{"ticker": ticker})
		rec := httptest.NewRecorder()
		h.GetAnalysis(rec, req)
		return rec
	}

	rec := analyze("tcs")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "TCS.BO", body["data"].(map[string]interface{})["ticker"])

	rec = analyze("xyz")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, map[string]interface{}{"success": false, "error": "Unable to analyze XYZ.BO"}, decode(t, rec))

	assert.Equal(t, http.StatusNotFound, analyze("FLAT.BO").Code)
	assert.Equal(t, http.StatusInternalServerError, analyze("boom").Code)
	assert.Equal(t, http.StatusBadRequest, analyze(" ").Code)
}

type fakeGate struct {
	tickers []string
}

func (g *fakeGate) Check(ctx context.Context, tickers []string, date time.Time) (*quality.Snapshot, error) {
	g.tickers = tickers
	return &quality.Snapshot{Date: date, TotalTickers: len(tickers), QualityScore: 0.9, Passed: true}, nil
}

type fakeSaver struct {
	saved int
}

func (s *fakeSaver) SaveSnapshot(ctx context.Context, snapshot *quality.Snapshot) error {
	s.saved++
	return nil
}

func newDataHandler() *DataHandler {
	source := contracts.HistorySourceFunc(func(ctx context.Context, ticker, period, interval string) (*contracts.Series, error) {
		if strings.HasPrefix(ticker, "BAD") {
			return nil, contracts.ErrNoData
		}
		day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
		return &contracts.Series{Ticker: ticker, Bars: []contracts.Bar{
			{Date: day, Open: 1, High: 1, Low: 1, Close: 1, Volume: 10},
			{Date: day.AddDate(0, 0, 1), Open: 1, High: 1, Low: 1, Close: 1, Volume: 10},
		}}, nil
	})
	col := collector.NewCollector(source, logger.NewNop())
	return NewDataHandler(s1_universe.NewCatalog(".BO"), col, collector.Config{Workers: 2, Period: "3mo", Interval: "1d"}, 3, logger.NewNop())
}

func TestGetUniverse(t *testing.T) {
	h := newDataHandler()

	rec := httptest.NewRecorder()
	h.GetUniverse(rec, httptest.NewRequest(http.MethodGet, "/api/data/universe", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, ".BO", body["suffix"])
	assert.Len(t, body["default"], 3)
	assert.Equal(t, float64(len(s1_universe.NewCatalog(".BO").Instruments())), body["count"])
}

func TestCollect(t *testing.T) {
	h := newDataHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/data/collect", strings.NewReader(`{"tickers":["tcs","bad","TCS.BO"]}`))
	rec := httptest.NewRecorder()
	h.Collect(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp CollectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Fetched)
	assert.Equal(t, 1, resp.Failed)
	assert.Equal(t, 2, resp.Bars)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "TCS.BO", resp.Results[0].Ticker)
	assert.Equal(t, "2024-06-04", resp.Results[0].LastDate)
	assert.NotEmpty(t, resp.Results[1].Error)

	// empty body collects the default universe
	rec = httptest.NewRecorder()
	h.Collect(rec, httptest.NewRequest(http.MethodPost, "/api/data/collect", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Results, 3)

	rec = httptest.NewRecorder()
	h.Collect(rec, httptest.NewRequest(http.MethodPost, "/api/data/collect", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetQuality(t *testing.T) {
	h := newDataHandler()

	rec := httptest.NewRecorder()
	h.GetQuality(rec, httptest.NewRequest(http.MethodGet, "/api/data/quality", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	gate := &fakeGate{}
	saver := &fakeSaver{}
	h.WithQuality(gate, saver)

	rec = httptest.NewRecorder()
	h.GetQuality(rec, httptest.NewRequest(http.MethodGet, "/api/data/quality?date=2024-06-03", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, gate.tickers, 3)
	assert.Equal(t, 1, saver.saved)
	assert.Equal(t, true, decode(t, rec)["data"].(map[string]interface{})["passed"])

	rec = httptest.NewRecorder()
	h.GetQuality(rec, httptest.NewRequest(http.MethodGet, "/api/data/quality?date=06/03/2024", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/internal/selection"
	"github.com/wonny/swing/backend/pkg/logger"
)

const (
	defaultHistoryLimit = 30
	maxHistoryLimit     = 500
)

// RankingRefresher ranks the default universe and publishes the run
type RankingRefresher interface {
	Refresh(ctx context.Context, tickers []string, minProbability float64, limit int) (*contracts.RankingRun, error)
}

// RunReader reads stored ranking runs
type RunReader interface {
	LatestRun(ctx context.Context) (*contracts.RankingRun, error)
	TickerHistory(ctx context.Context, ticker string, limit int) ([]selection.RankedAppearance, error)
}

// TickerNormalizer maps user input to an exchange ticker
type TickerNormalizer interface {
	NormalizeTicker(ticker string) string
}

// RankingDefaults are used when a request omits a parameter
type RankingDefaults struct {
	MinProbability float64
	Limit          int
}

// RankingHandler handles ranking-related API endpoints
// ⭐ SSOT: 랭킹 API 핸들러는 이 구조체에서만
type RankingHandler struct {
	refresher RankingRefresher
	results   *selection.ResultCache
	runs      RunReader
	tickers   TickerNormalizer
	defaults  RankingDefaults
	logger    *logger.Logger
}

// NewRankingHandler creates a new ranking handler.
// results may be nil, in which case every request re-ranks.
func NewRankingHandler(
	refresher RankingRefresher,
	results *selection.ResultCache,
	tickers TickerNormalizer,
	defaults RankingDefaults,
	log *logger.Logger,
) *RankingHandler {
	if defaults.Limit <= 0 {
		defaults.Limit = selection.DefaultLimit
	}
	return &RankingHandler{
		refresher: refresher,
		results:   results,
		tickers:   tickers,
		defaults:  defaults,
		logger:    log,
	}
}

// WithRuns enables the ranking history endpoints
func (h *RankingHandler) WithRuns(runs RunReader) *RankingHandler {
	h.runs = runs
	return h
}

// TopStocksResponse is the body of GET /api/top-stocks
type TopStocksResponse struct {
	Success   bool                         `json:"success"`
	Data      []selection.DisplayCandidate `json:"data"`
	Timestamp time.Time                    `json:"timestamp"`
	FromCache bool                         `json:"from_cache"`
	Count     int                          `json:"count"`
}

// GetTopStocks returns the ranked candidate list
// GET /api/top-stocks?min_probability=40&limit=10&refresh=false
func (h *RankingHandler) GetTopStocks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	minProbability := h.defaults.MinProbability
	if v := query.Get("min_probability"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil || p < 0 || p > 100 {
			respondError(w, http.StatusBadRequest, "min_probability must be a number between 0 and 100")
			return
		}
		minProbability = p
	}

	limit := h.defaults.Limit
	if v := query.Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = l
	}

	refresh := strings.EqualFold(query.Get("refresh"), "true")

	if !refresh && h.results != nil {
		if cached, ok := h.results.Get(ctx, minProbability, limit); ok {
			h.logger.WithFields(map[string]interface{}{
				"min_probability": minProbability,
				"limit":           limit,
			}).Debug("Returning cached ranking")

			respondJSON(w, http.StatusOK, TopStocksResponse{
				Success:   true,
				Data:      selection.FormatCandidates(cached.Candidates),
				Timestamp: cached.RankedAt,
				FromCache: true,
				Count:     len(cached.Candidates),
			})
			return
		}
	}

	run, err := h.refresher.Refresh(ctx, nil, minProbability, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to rank stocks")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, TopStocksResponse{
		Success:   true,
		Data:      selection.FormatCandidates(run.Candidates),
		Timestamp: run.FinishedAt,
		FromCache: false,
		Count:     len(run.Candidates),
	})
}

// RunResponse is a stored ranking run
type RunResponse struct {
	ID             int64                        `json:"id"`
	MinProbability float64                      `json:"min_probability"`
	Limit          int                          `json:"limit"`
	Requested      int                          `json:"requested"`
	Analyzed       int                          `json:"analyzed"`
	StrategyHash   string                       `json:"strategy_hash,omitempty"`
	StartedAt      time.Time                    `json:"started_at"`
	FinishedAt     time.Time                    `json:"finished_at"`
	Candidates     []selection.DisplayCandidate `json:"candidates"`
}

// GetLatestRun returns the most recent stored ranking run
// GET /api/rankings/latest
func (h *RankingHandler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, http.StatusServiceUnavailable, "ranking history is disabled")
		return
	}

	run, err := h.runs.LatestRun(r.Context())
	if errors.Is(err, selection.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "no ranking run stored yet")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get latest ranking run")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve latest ranking run")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": RunResponse{
			ID:             run.ID,
			MinProbability: run.MinProbability,
			Limit:          run.Limit,
			Requested:      run.Requested,
			Analyzed:       run.Analyzed,
			StrategyHash:   run.StrategyHash,
			StartedAt:      run.StartedAt,
			FinishedAt:     run.FinishedAt,
			Candidates:     selection.FormatCandidates(run.Candidates),
		},
	})
}

// GetTickerHistory returns past ranked appearances of one ticker
// GET /api/stock/{ticker}/rankings?limit=30
func (h *RankingHandler) GetTickerHistory(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, http.StatusServiceUnavailable, "ranking history is disabled")
		return
	}

	ticker := mux.Vars(r)["ticker"]
	if h.tickers != nil {
		ticker = h.tickers.NormalizeTicker(ticker)
	}
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 {
			limit = min(l, maxHistoryLimit)
		}
	}

	history, err := h.runs.TickerHistory(r.Context(), ticker, limit)
	if err != nil {
		h.logger.WithTicker(ticker).WithError(err).Error("Failed to get ranking history")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve ranking history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"ticker":  ticker,
		"count":   len(history),
		"data":    history,
	})
}

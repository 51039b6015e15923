package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/wonny/swing/backend/internal/s0_data/collector"
	"github.com/wonny/swing/backend/internal/s0_data/quality"
	"github.com/wonny/swing/backend/internal/s1_universe"
	"github.com/wonny/swing/backend/pkg/logger"
)

// QualityChecker measures stored-price coverage
type QualityChecker interface {
	Check(ctx context.Context, tickers []string, date time.Time) (*quality.Snapshot, error)
}

// SnapshotSaver stores quality snapshots
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, snapshot *quality.Snapshot) error
}

// DataHandler handles data-related API endpoints
// ⭐ SSOT: 데이터 API 핸들러는 이 구조체에서만
type DataHandler struct {
	catalog   *s1_universe.Catalog
	collector *collector.Collector
	gate      QualityChecker
	snapshots SnapshotSaver
	config    collector.Config
	batch     int
	logger    *logger.Logger
}

// NewDataHandler creates a new data handler
func NewDataHandler(
	catalog *s1_universe.Catalog,
	col *collector.Collector,
	cfg collector.Config,
	batch int,
	log *logger.Logger,
) *DataHandler {
	return &DataHandler{
		catalog:   catalog,
		collector: col,
		config:    cfg,
		batch:     batch,
		logger:    log,
	}
}

// WithQuality enables GET /api/data/quality. snapshots may be nil.
func (h *DataHandler) WithQuality(gate QualityChecker, snapshots SnapshotSaver) *DataHandler {
	h.gate = gate
	h.snapshots = snapshots
	return h
}

// GetUniverse returns the instrument catalog
// GET /api/data/universe
func (h *DataHandler) GetUniverse(w http.ResponseWriter, r *http.Request) {
	instruments := h.catalog.Instruments()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"suffix":  h.catalog.Suffix(),
		"default": h.catalog.Default(h.batch),
		"count":   len(instruments),
		"data":    instruments,
	})
}

// GetQuality checks stored-price coverage of the default universe
// GET /api/data/quality?date=2024-06-03
func (h *DataHandler) GetQuality(w http.ResponseWriter, r *http.Request) {
	if h.gate == nil {
		respondError(w, http.StatusServiceUnavailable, "quality gate requires a database")
		return
	}
	ctx := r.Context()

	date := time.Now()
	if v := r.URL.Query().Get("date"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'date' format (expected YYYY-MM-DD)")
			return
		}
		date = d
	}

	snapshot, err := h.gate.Check(ctx, h.catalog.Default(h.batch), date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to check data quality")
		respondError(w, http.StatusInternalServerError, "Failed to check data quality")
		return
	}

	if h.snapshots != nil {
		if err := h.snapshots.SaveSnapshot(ctx, snapshot); err != nil {
			h.logger.WithError(err).Warn("Failed to save quality snapshot")
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    snapshot,
	})
}

// CollectRequest represents a data collection request
type CollectRequest struct {
	Tickers  []string `json:"tickers"`  // 비어 있으면 기본 유니버스
	Period   string   `json:"period"`   // Optional: "3mo"
	Interval string   `json:"interval"` // Optional: "1d"
}

// CollectItem is the outcome for one ticker
type CollectItem struct {
	Ticker   string `json:"ticker"`
	Bars     int    `json:"bars"`
	LastDate string `json:"last_date,omitempty"`
	Error    string `json:"error,omitempty"`
}

// CollectResponse represents a data collection response
type CollectResponse struct {
	Success bool          `json:"success"`
	Fetched int           `json:"fetched"`
	Failed  int           `json:"failed"`
	Bars    int           `json:"bars"`
	Results []CollectItem `json:"results"`
}

// Collect fetches history for a ticker list through the source stack
// POST /api/data/collect
func (h *DataHandler) Collect(w http.ResponseWriter, r *http.Request) {
	var req CollectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tickers := h.catalog.Select(req.Tickers, h.batch)
	if len(tickers) == 0 {
		respondError(w, http.StatusBadRequest, "no valid tickers")
		return
	}

	cfg := h.config
	if req.Period != "" {
		cfg.Period = req.Period
	}
	if req.Interval != "" {
		cfg.Interval = req.Interval
	}

	h.logger.WithFields(map[string]interface{}{
		"tickers":  len(tickers),
		"period":   cfg.Period,
		"interval": cfg.Interval,
	}).Info("Data collection triggered")

	results := h.collector.FetchAll(r.Context(), tickers, cfg)
	summary := collector.Summarize(results)

	items := make([]CollectItem, len(results))
	for i, res := range results {
		items[i] = CollectItem{Ticker: res.Ticker, Bars: res.Bars}
		if res.Error != nil {
			items[i].Error = res.Error.Error()
			continue
		}
		items[i].LastDate = res.LastDate.Format("2006-01-02")
	}

	respondJSON(w, http.StatusOK, CollectResponse{
		Success: true,
		Fetched: summary.Success,
		Failed:  summary.Failed,
		Bars:    summary.Bars,
		Results: items,
	})
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/internal/selection"
	"github.com/wonny/swing/backend/pkg/logger"
)

// StockHandler handles single-instrument analysis
// ⭐ SSOT: 종목 분석 API 핸들러는 이 구조체에서만
type StockHandler struct {
	analyzer contracts.Analyzer
	tickers  TickerNormalizer
	logger   *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(analyzer contracts.Analyzer, tickers TickerNormalizer, log *logger.Logger) *StockHandler {
	return &StockHandler{
		analyzer: analyzer,
		tickers:  tickers,
		logger:   log,
	}
}

// GetAnalysis analyzes one ticker; the exchange suffix is added when missing
// GET /api/stock/{ticker}
func (h *StockHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	ticker := h.tickers.NormalizeTicker(mux.Vars(r)["ticker"])
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	h.logger.WithTicker(ticker).Info("Analyzing stock")

	candidate, err := h.analyzer.Analyze(r.Context(), ticker)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    selection.FormatCandidate(*candidate),
		})
	case errors.Is(err, contracts.ErrDataUnavailable), errors.Is(err, contracts.ErrLevelsUnavailable):
		respondError(w, http.StatusNotFound, fmt.Sprintf("Unable to analyze %s", ticker))
	default:
		h.logger.WithTicker(ticker).WithError(err).Error("Analysis failed")
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

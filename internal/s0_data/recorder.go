package s0_data

import (
	"context"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/pkg/logger"
)

// SeriesWriter persists fetched series
type SeriesWriter interface {
	SaveSeries(ctx context.Context, series *contracts.Series) error
}

// Recorder writes every successfully fetched series through to storage.
// Storage failures are logged and never fail the fetch.
type Recorder struct {
	source contracts.HistorySource
	writer SeriesWriter
	logger *logger.Logger
}

// NewRecorder wraps source with a write-through to writer
func NewRecorder(source contracts.HistorySource, writer SeriesWriter, log *logger.Logger) *Recorder {
	return &Recorder{source: source, writer: writer, logger: log}
}

// FetchHistory implements contracts.HistorySource
func (r *Recorder) FetchHistory(ctx context.Context, ticker, period, interval string) (*contracts.Series, error) {
	series, err := r.source.FetchHistory(ctx, ticker, period, interval)
	if err != nil || series.Empty() {
		return series, err
	}

	// 저장된 데이터를 다시 저장하지 않음
	if series.Source == StoredSourceName || (interval != "" && interval != "1d") {
		return series, nil
	}

	if err := r.writer.SaveSeries(ctx, series); err != nil {
		r.logger.WithFields(map[string]interface{}{
			"ticker": ticker,
			"bars":   series.Len(),
			"error":  err.Error(),
		}).Warn("Failed to record price history")
	}

	return series, nil
}

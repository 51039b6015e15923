package collector

import (
	"context"
	"sync"
	"time"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/pkg/logger"
)

// Collector warms the history source for a ticker list ahead of ranking.
// With a Recorder in the source stack every fetched series is persisted.
// ⭐ SSOT: 일괄 가격 수집 오케스트레이션은 이 패키지에서만
type Collector struct {
	source contracts.HistorySource
	logger *logger.Logger
}

// Config holds collector configuration
type Config struct {
	Workers  int    // Number of concurrent workers
	Period   string // e.g. "3mo"
	Interval string // e.g. "1d"
}

// NewCollector creates a new Collector instance
func NewCollector(source contracts.HistorySource, log *logger.Logger) *Collector {
	return &Collector{
		source: source,
		logger: log.WithField("module", "collector"),
	}
}

// FetchResult represents the result of a fetch operation
type FetchResult struct {
	Ticker   string
	Bars     int
	LastDate time.Time
	Error    error
}

// Summary counts the outcome of a collection run
type Summary struct {
	Success int
	Failed  int
	Bars    int
}

// Summarize folds fetch results into counts
func Summarize(results []FetchResult) Summary {
	var s Summary
	for _, r := range results {
		if r.Error != nil {
			s.Failed++
			continue
		}
		s.Success++
		s.Bars += r.Bars
	}
	return s
}

// FetchAll fetches history for every ticker. Results keep the input order.
func (c *Collector) FetchAll(ctx context.Context, tickers []string, cfg Config) []FetchResult {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker_count": len(tickers),
		"period":       cfg.Period,
		"workers":      workers,
	}).Info("Starting price collection")

	results := make([]FetchResult, len(tickers))
	jobs := make(chan int, len(tickers))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.priceWorker(ctx, workerID, tickers, jobs, results, cfg)
		}(i)
	}

	for i := range tickers {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	summary := Summarize(results)
	c.logger.WithFields(map[string]interface{}{
		"success": summary.Success,
		"failed":  summary.Failed,
		"bars":    summary.Bars,
	}).Info("Price collection completed")

	return results
}

// priceWorker owns the result slots of the indices it receives
func (c *Collector) priceWorker(ctx context.Context, workerID int, tickers []string, jobs <-chan int, results []FetchResult, cfg Config) {
	for idx := range jobs {
		ticker := tickers[idx]

		select {
		case <-ctx.Done():
			results[idx] = FetchResult{Ticker: ticker, Error: ctx.Err()}
			continue
		default:
		}

		series, err := c.source.FetchHistory(ctx, ticker, cfg.Period, cfg.Interval)
		if err == nil && series.Empty() {
			err = contracts.ErrNoData
		}
		if err != nil {
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"worker": workerID,
				"ticker": ticker,
			}).Warn("Failed to fetch prices")
			results[idx] = FetchResult{Ticker: ticker, Error: err}
			continue
		}

		results[idx] = FetchResult{
			Ticker:   ticker,
			Bars:     series.Len(),
			LastDate: series.Last().Date,
		}
	}
}

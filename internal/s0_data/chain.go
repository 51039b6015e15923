package s0_data

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/pkg/logger"
)

// NamedSource is a history source that can identify itself in logs
type NamedSource interface {
	contracts.HistorySource
	Name() string
}

// Named attaches a name to a plain history source
func Named(name string, source contracts.HistorySource) NamedSource {
	return namedSource{name: name, HistorySource: source}
}

type namedSource struct {
	contracts.HistorySource
	name string
}

func (n namedSource) Name() string { return n.name }

// Chain tries each source in order and returns the first non-empty series
// ⭐ SSOT: 가격 데이터 fallback 순서는 여기서만
type Chain struct {
	sources []NamedSource
	logger  *logger.Logger
}

// NewChain creates a fallback chain. nil sources are skipped.
func NewChain(log *logger.Logger, sources ...NamedSource) *Chain {
	kept := make([]NamedSource, 0, len(sources))
	for _, s := range sources {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &Chain{sources: kept, logger: log}
}

// Sources returns the names of the chained sources in order
func (c *Chain) Sources() []string {
	names := make([]string, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.Name()
	}
	return names
}

// FetchHistory implements contracts.HistorySource.
// Returns ErrNoData when every source fails; a cancelled ctx stops the chain.
func (c *Chain) FetchHistory(ctx context.Context, ticker, period, interval string) (*contracts.Series, error) {
	var failures []string

	for _, source := range c.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		series, err := fetchOne(ctx, source, ticker, period, interval)
		if err == nil {
			if series.Ticker == "" {
				series.Ticker = ticker
			}
			return series, nil
		}

		failures = append(failures, fmt.Sprintf("%s: %v", source.Name(), err))
		c.logger.WithFields(map[string]interface{}{
			"ticker": ticker,
			"source": source.Name(),
			"error":  err.Error(),
		}).Debug("History source failed, trying next")
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker":  ticker,
		"sources": len(c.sources),
	}).Warn("All history sources failed")

	if len(failures) == 0 {
		return nil, fmt.Errorf("%s: %w: no sources configured", ticker, contracts.ErrNoData)
	}
	return nil, fmt.Errorf("%s: %w (%s)", ticker, contracts.ErrNoData, strings.Join(failures, "; "))
}

// fetchOne treats a nil or empty series as a failure and recovers panics
func fetchOne(ctx context.Context, source NamedSource, ticker, period, interval string) (series *contracts.Series, err error) {
	defer func() {
		if r := recover(); r != nil {
			series = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	series, err = source.FetchHistory(ctx, ticker, period, interval)
	if err != nil {
		return nil, err
	}

	series = series.Clone().Normalize()
	if series.Empty() {
		return nil, errors.New("empty series")
	}
	return series, nil
}

package selection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/internal/s2_signals"
	"github.com/wonny/swing/backend/internal/strategyconfig"
	"github.com/wonny/swing/backend/pkg/logger"
)

const (
	// DefaultPeriod is the history window requested per analysis
	DefaultPeriod = "3mo"
	// DefaultInterval is the bar size requested per analysis
	DefaultInterval = "1d"
)

// ErrAnalysisFailed is returned when an analysis step panicked
var ErrAnalysisFailed = errors.New("analysis failed")

// Analyzer implements S3: single instrument analysis
// ⭐ SSOT: fetch → 지표 → 스윙 점수 → 레벨 → 확률 순서는 여기서만
type Analyzer struct {
	source contracts.HistorySource
	info   contracts.InfoSource

	engine      *s2_signals.IndicatorEngine
	scorer      *s2_signals.SwingScorer
	levels      *s2_signals.LevelCalculator
	probability *s2_signals.ProbabilityScorer

	period   string
	interval string
	now      func() time.Time
	logger   *logger.Logger
}

// NewAnalyzer creates a new analyzer. info may be nil, in which case
// every candidate carries N/A metadata.
func NewAnalyzer(
	cfg *strategyconfig.Config,
	source contracts.HistorySource,
	info contracts.InfoSource,
	log *logger.Logger,
) *Analyzer {
	return &Analyzer{
		source:      source,
		info:        info,
		engine:      s2_signals.NewIndicatorEngine(cfg, log),
		scorer:      s2_signals.NewSwingScorer(cfg, log),
		levels:      s2_signals.NewLevelCalculator(cfg, log),
		probability: s2_signals.NewProbabilityScorer(cfg, log),
		period:      DefaultPeriod,
		interval:    DefaultInterval,
		now:         time.Now,
		logger:      log,
	}
}

// WithHistory overrides the requested period and interval
func (a *Analyzer) WithHistory(period, interval string) *Analyzer {
	if period != "" {
		a.period = period
	}
	if interval != "" {
		a.interval = interval
	}
	return a
}

// WithClock overrides the clock used for AnalyzedAt
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// Analyze fetches history for ticker and builds a Candidate.
// Missing or short history returns an error wrapping contracts.ErrDataUnavailable.
// Panics inside any step are recovered and returned as ErrAnalysisFailed.
func (a *Analyzer) Analyze(ctx context.Context, ticker string) (candidate *contracts.Candidate, err error) {
	log := a.logger.WithTicker(ticker)

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", fmt.Sprint(r)).Error("Analysis panicked")
			candidate = nil
			err = fmt.Errorf("%w: %s: %v", ErrAnalysisFailed, ticker, r)
		}
	}()

	series, err := a.fetch(ctx, ticker)
	if err != nil {
		log.WithError(err).Warn("History unavailable")
		return nil, err
	}

	frame := a.engine.Compute(series)
	swing := a.scorer.Score(frame)

	levels, err := a.levels.Calculate(frame)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", ticker, err)
	}

	entryTime := a.levels.EntryTime(frame)
	probability := a.probability.Overall(frame, levels, swing.Score)
	info := a.lookupInfo(ctx, ticker)

	candidate = &contracts.Candidate{
		Ticker:      ticker,
		Name:        info.Name,
		Sector:      info.Sector,
		Levels:      levels,
		Swing:       swing,
		Probability: probability,
		EntryTime:   entryTime,
		PERatio:     info.PERatio,
		Bars:        series.Len(),
		Source:      series.Source,
		AnalyzedAt:  a.now(),
	}

	log.WithFields(map[string]interface{}{
		"bars":        candidate.Bars,
		"source":      candidate.Source,
		"score":       swing.Score,
		"probability": probability,
		"rr_ratio":    levels.Ratio,
	}).Info("Analysis completed")

	return candidate, nil
}

// fetch returns a normalized series with at least contracts.MinAnalysisBars bars
func (a *Analyzer) fetch(ctx context.Context, ticker string) (*contracts.Series, error) {
	series, err := a.source.FetchHistory(ctx, ticker, a.period, a.interval)
	if err != nil {
		if errors.Is(err, contracts.ErrDataUnavailable) {
			return nil, fmt.Errorf("fetch %s: %w", ticker, err)
		}
		return nil, fmt.Errorf("fetch %s: %w: %w", ticker, contracts.ErrDataUnavailable, err)
	}
	if series.Empty() {
		return nil, fmt.Errorf("fetch %s: %w", ticker, contracts.ErrNoData)
	}

	// 소스가 넘겨준 데이터는 건드리지 않음
	series = series.Clone().Normalize()
	if series.Ticker == "" {
		series.Ticker = ticker
	}
	if !series.Sufficient() {
		return nil, fmt.Errorf("fetch %s: %w: %d bars, need %d",
			ticker, contracts.ErrInsufficientData, series.Len(), contracts.MinAnalysisBars)
	}
	return series, nil
}

func (a *Analyzer) lookupInfo(ctx context.Context, ticker string) contracts.InstrumentInfo {
	if a.info == nil {
		return contracts.UnknownInfo(ticker)
	}

	info, err := a.info.Info(ctx, ticker)
	if err != nil {
		a.logger.WithTicker(ticker).WithError(err).Debug("Instrument info unavailable")
		return contracts.UnknownInfo(ticker)
	}
	if strings.TrimSpace(info.Name) == "" {
		info.Name = contracts.NotAvailable
	}
	if strings.TrimSpace(info.Sector) == "" {
		info.Sector = contracts.NotAvailable
	}
	return info
}

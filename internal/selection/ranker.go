package selection

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/pkg/logger"
)

const (
	// DefaultLimit is the size of the ranked result set
	DefaultLimit = 10
	// DefaultMinProbability is the probability threshold used by callers without one
	DefaultMinProbability = 40.0
	// DefaultWorkers bounds concurrent analyses
	DefaultWorkers = 5
)

// Ranker implements S4: concurrent analysis, filtering and ordering
// ⭐ SSOT: S4 랭킹 로직은 여기서만
type Ranker struct {
	analyzer contracts.Analyzer
	config   RankerConfig
	logger   *logger.Logger
}

// RankerConfig configures the ranker
type RankerConfig struct {
	Workers        int      // 동시 분석 수 (기본: 5)
	DefaultTickers []string // 빈 목록 요청 시 사용
	StrategyHash   string   // 실행 기록용
}

// NewRanker creates a new ranker
func NewRanker(analyzer contracts.Analyzer, config RankerConfig, logger *logger.Logger) *Ranker {
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers
	}
	return &Ranker{
		analyzer: analyzer,
		config:   config,
		logger:   logger,
	}
}

// Rank analyzes tickers and returns at most limit candidates whose
// probability is at least minProbability, best first
func (r *Ranker) Rank(ctx context.Context, tickers []string, minProbability float64, limit int) ([]contracts.Candidate, error) {
	run, err := r.RankRun(ctx, tickers, minProbability, limit)
	if err != nil {
		return nil, err
	}
	return run.Candidates, nil
}

// RankRun is Rank with run bookkeeping for persistence and broadcasting.
// Individual ticker failures are logged and dropped. The only error is a
// cancelled context, checked after every submitted ticker has finished.
func (r *Ranker) RankRun(ctx context.Context, tickers []string, minProbability float64, limit int) (*contracts.RankingRun, error) {
	if len(tickers) == 0 {
		tickers = r.config.DefaultTickers
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	run := &contracts.RankingRun{
		MinProbability: minProbability,
		Limit:          limit,
		Requested:      len(tickers),
		StrategyHash:   r.config.StrategyHash,
		StartedAt:      time.Now(),
	}

	// 각 작업은 자기 인덱스에만 기록 → 락 불필요
	results := make([]*contracts.Candidate, len(tickers))

	var g errgroup.Group
	g.SetLimit(r.config.Workers)

	for i, ticker := range tickers {
		g.Go(func() error {
			results[i] = r.analyzeOne(ctx, ticker)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		r.logger.WithError(err).Warn("Ranking cancelled")
		return nil, err
	}

	candidates := make([]contracts.Candidate, 0, len(tickers))
	for _, c := range results {
		if c == nil {
			continue
		}
		run.Analyzed++
		if c.Probability >= minProbability {
			candidates = append(candidates, *c)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].RankedBefore(&candidates[j])
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	// Assign ranks
	for i := range candidates {
		candidates[i].Rank = i + 1
	}

	run.Candidates = candidates
	run.FinishedAt = time.Now()

	fields := map[string]interface{}{
		"requested":       run.Requested,
		"analyzed":        run.Analyzed,
		"returned":        len(candidates),
		"min_probability": minProbability,
		"duration_ms":     run.Duration().Milliseconds(),
	}
	if len(candidates) > 0 {
		fields["top_ticker"] = candidates[0].Ticker
		fields["top_probability"] = candidates[0].Probability
	}
	r.logger.WithFields(fields).Info("Ranking completed")

	return run, nil
}

// analyzeOne never panics and returns nil on any failure
func (r *Ranker) analyzeOne(ctx context.Context, ticker string) (c *contracts.Candidate) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.WithTicker(ticker).WithField("panic", rec).Error("Analyzer panicked")
			c = nil
		}
	}()

	candidate, err := r.analyzer.Analyze(ctx, ticker)
	if err != nil {
		r.logger.WithTicker(ticker).WithError(err).Warn("Ticker dropped from ranking")
		return nil
	}
	return candidate
}

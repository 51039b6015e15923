package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/internal/external/polygon"
	"github.com/wonny/swing/backend/internal/external/scraper"
	"github.com/wonny/swing/backend/internal/external/yahoo"
	"github.com/wonny/swing/backend/internal/s0_data"
	"github.com/wonny/swing/backend/internal/s0_data/collector"
	"github.com/wonny/swing/backend/internal/s0_data/quality"
	"github.com/wonny/swing/backend/internal/s1_universe"
	"github.com/wonny/swing/backend/internal/selection"
	"github.com/wonny/swing/backend/internal/strategyconfig"
	"github.com/wonny/swing/backend/pkg/config"
	"github.com/wonny/swing/backend/pkg/database"
	"github.com/wonny/swing/backend/pkg/httputil"
	"github.com/wonny/swing/backend/pkg/logger"
	"github.com/wonny/swing/backend/pkg/redis"
)

// cachePrefix namespaces every Redis key of this service
const cachePrefix = "swing"

// app holds the wired pipeline shared by every command
type app struct {
	cfg *config.Config
	log *logger.Logger

	db    *database.DB // nil without DATABASE_URL
	redis *redis.Client
	cache *redis.Cache

	catalog  *s1_universe.Catalog
	history  *s0_data.HistoryCache
	analyzer *selection.Analyzer
	ranker   *selection.Ranker
	results  *selection.ResultCache

	// DB 있을 때만
	prices      *s0_data.PriceRepository
	runs        *selection.Repository
	gate        *quality.Gate
	qualityRepo *quality.Repository

	strategyHash string
}

// loadConfig loads the environment and applies global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newApp wires sources, caches and the ranking pipeline.
// Redis and Postgres are optional; an unreachable Redis degrades to no cache.
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	// 1. Strategy constants
	strategy, err := strategyconfig.LoadOrDefault(cfg.Analysis.StrategyFile)
	if err != nil {
		return nil, fmt.Errorf("load strategy: %w", err)
	}
	for _, w := range strategyconfig.Warn(strategy) {
		log.WithFields(map[string]interface{}{
			"code": w.Code,
		}).Warn(w.Message)
	}
	a.strategyHash, err = strategyconfig.Hash(strategy)
	if err != nil {
		return nil, fmt.Errorf("hash strategy: %w", err)
	}

	// 2. Redis
	a.redis, err = redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, running without shared cache")
		a.redis = redis.NewDisabled()
	}
	a.cache = redis.NewCache(a.redis, cachePrefix)

	// 3. Postgres
	a.db, err = database.New(cfg)
	switch {
	case errors.Is(err, database.ErrDisabled):
		a.db = nil
		log.Debug("Persistence disabled")
	case err != nil:
		a.redis.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	default:
		schema := append(append(append([]string{}, s0_data.PriceSchema...), quality.Schema...), selection.Schema...)
		if err := a.db.ApplySchema(ctx, schema...); err != nil {
			a.close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
		a.prices = s0_data.NewPriceRepository(a.db.Pool)
		a.runs = selection.NewRepository(a.db.Pool)
		a.gate = quality.NewGate(a.db.Pool, quality.DefaultConfig())
		a.qualityRepo = quality.NewRepository(a.db.Pool)
		log.Info("Connected to database")
	}

	// 4. History sources: yahoo → polygon → scraper → stored
	httpClient := httputil.New(cfg, log)
	yahooClient := yahoo.NewClient(httpClient, cfg.Sources.YahooBaseURL, log)
	scraperClient := scraper.New(httpClient, cfg.Sources.ScraperBaseURL, log)

	sources := []s0_data.NamedSource{yahooClient}
	infos := []contracts.InfoSource{yahooClient}

	if cfg.Sources.PolygonAPIKey != "" {
		limiter := redis.NewRateLimiter(a.redis, cachePrefix)
		polygonClient, err := polygon.NewClient(cfg.Sources.PolygonAPIKey, cfg.Sources.PolygonRatePerMin, limiter, log)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("polygon client: %w", err)
		}
		sources = append(sources, polygonClient)
		infos = append(infos, polygonClient)
	}

	sources = append(sources, scraperClient)
	infos = append(infos, scraperClient)

	if a.prices != nil {
		sources = append(sources, s0_data.NewStoredSource(a.prices))
	}

	chain := s0_data.NewChain(log, sources...)

	var source contracts.HistorySource = chain
	if a.prices != nil {
		source = s0_data.NewRecorder(chain, a.prices, log)
	}
	a.history = s0_data.NewHistoryCache(source, cfg.Analysis.HistoryCacheTTL, a.cache, log)

	// 5. Universe and instrument info
	a.catalog = s1_universe.NewCatalog(cfg.Analysis.TickerSuffix)
	info := s1_universe.NewInfoSource(a.catalog, a.cache, log, infos...)

	// 6. Pipeline
	a.analyzer = selection.NewAnalyzer(strategy, a.history, info, log).
		WithHistory(cfg.Analysis.HistoryPeriod, cfg.Analysis.HistoryInterval)
	a.ranker = selection.NewRanker(a.analyzer, selection.RankerConfig{
		Workers:        cfg.Analysis.Workers,
		DefaultTickers: a.catalog.Default(cfg.Analysis.BatchSize),
		StrategyHash:   a.strategyHash,
	}, log)
	a.results = selection.NewResultCache(cfg.Analysis.ResultCacheTTL, a.cache, log)

	log.WithFields(map[string]interface{}{
		"sources":       chain.Sources(),
		"persistence":   a.db != nil,
		"redis":         a.redis.Enabled(),
		"strategy_hash": a.strategyHash[:12],
	}).Info("Pipeline ready")

	return a, nil
}

// refresher publishes every run to the result cache and, with a DB, the run store
func (a *app) refresher() *selection.Refresher {
	r := selection.NewRefresher(a.ranker, a.results, a.log)
	if a.runs != nil {
		r.WithStore(a.runs)
	}
	return r
}

// collector fetches through the cached, recording source stack
func (a *app) collector() *collector.Collector {
	return collector.NewCollector(a.history, a.log)
}

func (a *app) collectConfig() collector.Config {
	return collector.Config{
		Workers:  a.cfg.Analysis.Workers,
		Period:   a.cfg.Analysis.HistoryPeriod,
		Interval: a.cfg.Analysis.HistoryInterval,
	}
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}

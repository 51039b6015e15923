package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/swing/backend/internal/api"
	"github.com/wonny/swing/backend/internal/api/handlers"
	"github.com/wonny/swing/backend/internal/api/stream"
	"github.com/wonny/swing/backend/internal/scheduler"
	"github.com/wonny/swing/backend/internal/scheduler/jobs"
	"github.com/wonny/swing/backend/pkg/logger"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

RANK_REFRESH_SCHEDULE이 설정되면 스케줄러도 함께 실행되어
랭킹 캐시를 주기적으로 갱신하고 WebSocket 구독자에게 푸시합니다.

Endpoints:
  GET  /health                       - Health check
  GET  /api/top-stocks               - 랭킹 (min_probability, limit, refresh)
  GET  /api/stock/{ticker}           - 단일 종목 분석
  GET  /api/stock/{ticker}/rankings  - 종목 랭킹 이력 (DB)
  GET  /api/rankings/latest          - 최근 랭킹 실행 (DB)
  GET  /api/data/universe            - 유니버스 조회
  GET  /api/data/quality             - 품질 점검 (DB)
  POST /api/data/collect             - 가격 수집 트리거
  GET  /ws/rankings                  - 랭킹 실시간 푸시

Example:
  go run ./cmd/swing api
  go run ./cmd/swing api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Wire pipeline
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	// 4. Live push
	hub := stream.NewHub(log)
	defer hub.Close()
	refresher := a.refresher().WithBroadcaster(hub)

	// 5. Handlers
	rankingHandler := handlers.NewRankingHandler(refresher, a.results, a.catalog, handlers.RankingDefaults{
		MinProbability: cfg.Analysis.MinProbability,
		Limit:          cfg.Analysis.Limit,
	}, log)
	dataHandler := handlers.NewDataHandler(a.catalog, a.collector(), a.collectConfig(), cfg.Analysis.BatchSize, log)
	if a.runs != nil {
		rankingHandler.WithRuns(a.runs)
		dataHandler.WithQuality(a.gate, a.qualityRepo)
	}

	routes := api.Handlers{
		Ranking: rankingHandler,
		Stock:   handlers.NewStockHandler(a.analyzer, a.catalog, log),
		Data:    dataHandler,
		Stream:  hub,
	}
	if a.db != nil {
		routes.Database = a.db
	}
	router := api.NewRouter(routes, log)

	// 6. Scheduler
	sched, err := newScheduler(a, refresher, log)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	// 7. Serve until interrupted
	server := api.New(cfg, log, router)
	fmt.Fprintf(cmd.OutOrStdout(), "\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}

// newScheduler registers the ranking refresh (when scheduled) and cache maintenance
func newScheduler(a *app, refresher jobs.Refresher, log *logger.Logger) (*scheduler.Scheduler, error) {
	sched := scheduler.New(log)

	if spec := a.cfg.Analysis.RefreshSchedule; spec != "" {
		job := jobs.NewRankingJob(refresher, jobs.RankingConfig{
			Schedule:       spec,
			Tickers:        a.catalog.Default(a.cfg.Analysis.BatchSize),
			MinProbability: a.cfg.Analysis.MinProbability,
			Limit:          a.cfg.Analysis.Limit,
		}, log)
		if err := sched.AddJob(job); err != nil {
			return nil, err
		}
	}

	if err := sched.AddJob(jobs.NewCacheCleanupJob(a.history, log)); err != nil {
		return nil, err
	}

	if a.prices != nil {
		collect := jobs.NewCollectJob(a.collector(), a.catalog.Default(a.cfg.Analysis.BatchSize), a.collectConfig(), log).
			WithQuality(a.gate, a.qualityRepo)
		if err := sched.AddJob(collect); err != nil {
			return nil, err
		}
	}

	return sched, nil
}

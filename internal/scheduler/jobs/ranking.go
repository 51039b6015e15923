package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/pkg/logger"
)

// Refresher ranks tickers and publishes the run
type Refresher interface {
	Refresh(ctx context.Context, tickers []string, minProbability float64, limit int) (*contracts.RankingRun, error)
}

// RankingConfig holds the parameters of a scheduled ranking
type RankingConfig struct {
	Schedule       string
	Tickers        []string
	MinProbability float64
	Limit          int
}

// RankingJob re-ranks the default universe so API reads hit a warm cache
// ⭐ SSOT: 정기 랭킹 갱신은 이 Job에서만
type RankingJob struct {
	refresher Refresher
	config    RankingConfig
	logger    *logger.Logger
}

// NewRankingJob creates a new ranking job
func NewRankingJob(refresher Refresher, cfg RankingConfig, log *logger.Logger) *RankingJob {
	return &RankingJob{
		refresher: refresher,
		config:    cfg,
		logger:    log,
	}
}

// Name returns the job name
func (j *RankingJob) Name() string {
	return "ranking_refresh"
}

// Schedule returns the configured cron spec
func (j *RankingJob) Schedule() string {
	return j.config.Schedule
}

// Run executes the ranking
func (j *RankingJob) Run(ctx context.Context) error {
	j.logger.WithFields(map[string]interface{}{
		"tickers":         len(j.config.Tickers),
		"min_probability": j.config.MinProbability,
		"limit":           j.config.Limit,
	}).Info("Starting scheduled ranking")

	run, err := j.refresher.Refresh(ctx, j.config.Tickers, j.config.MinProbability, j.config.Limit)
	if err != nil {
		return fmt.Errorf("rank: %w", err)
	}

	if run.Analyzed == 0 && run.Requested > 0 {
		return fmt.Errorf("rank: %w: none of %d tickers analyzed", contracts.ErrDataUnavailable, run.Requested)
	}

	j.logger.WithFields(map[string]interface{}{
		"analyzed":   run.Analyzed,
		"candidates": len(run.Candidates),
	}).Info("Scheduled ranking completed")
	return nil
}

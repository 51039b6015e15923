package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/internal/s0_data/collector"
	"github.com/wonny/swing/backend/internal/s0_data/quality"
	"github.com/wonny/swing/backend/pkg/logger"
)

// QualityGate checks stored-price coverage after collection
type QualityGate interface {
	Check(ctx context.Context, tickers []string, date time.Time) (*quality.Snapshot, error)
}

// SnapshotSaver stores quality snapshots
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, snapshot *quality.Snapshot) error
}

// CollectJob fetches the universe history after the close so the stored
// source stays current
// ⭐ SSOT: 데이터 수집 스케줄은 이 Job에서만
type CollectJob struct {
	collector *collector.Collector
	tickers   []string
	config    collector.Config
	gate      QualityGate
	snapshots SnapshotSaver
	logger    *logger.Logger
}

// NewCollectJob creates a new collect job
func NewCollectJob(col *collector.Collector, tickers []string, cfg collector.Config, log *logger.Logger) *CollectJob {
	return &CollectJob{
		collector: col,
		tickers:   tickers,
		config:    cfg,
		logger:    log,
	}
}

// WithQuality checks (and stores, when snapshots is non-nil) coverage after each run
func (j *CollectJob) WithQuality(gate QualityGate, snapshots SnapshotSaver) *CollectJob {
	j.gate = gate
	j.snapshots = snapshots
	return j
}

// Name returns the job name
func (j *CollectJob) Name() string {
	return "price_collection"
}

// Schedule returns the cron schedule (weekdays after the Indian close)
func (j *CollectJob) Schedule() string {
	return "0 30 16 * * MON-FRI" // 4:30 PM (with seconds)
}

// Run executes the collection
func (j *CollectJob) Run(ctx context.Context) error {
	j.logger.WithField("tickers", len(j.tickers)).Info("Starting scheduled price collection")

	results := j.collector.FetchAll(ctx, j.tickers, j.config)
	summary := collector.Summarize(results)
	if summary.Success == 0 && len(results) > 0 {
		return fmt.Errorf("collect: %w: all %d tickers failed", contracts.ErrDataUnavailable, summary.Failed)
	}

	if j.gate == nil {
		return nil
	}

	snapshot, err := j.gate.Check(ctx, j.tickers, time.Now())
	if err != nil {
		return fmt.Errorf("quality check: %w", err)
	}

	if !snapshot.Passed {
		j.logger.WithFields(map[string]interface{}{
			"quality_score": snapshot.QualityScore,
			"total_tickers": snapshot.TotalTickers,
			"valid_tickers": snapshot.ValidTickers,
		}).Warn("Data quality below threshold")
	}

	if j.snapshots != nil {
		if err := j.snapshots.SaveSnapshot(ctx, snapshot); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
	}
	return nil
}

package quality

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the snapshot table. Every statement is idempotent.
var Schema = []string{
	`CREATE SCHEMA IF NOT EXISTS data`,
	`CREATE TABLE IF NOT EXISTS data.quality_snapshots (
		snapshot_date    DATE PRIMARY KEY,
		quality_score    DOUBLE PRECISION NOT NULL,
		total_tickers    INTEGER NOT NULL,
		valid_tickers    INTEGER NOT NULL,
		price_coverage   DOUBLE PRECISION NOT NULL,
		volume_coverage  DOUBLE PRECISION NOT NULL,
		history_coverage DOUBLE PRECISION NOT NULL,
		passed           BOOLEAN NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// ErrSnapshotNotFound is returned when no snapshot exists for a date
var ErrSnapshotNotFound = errors.New("quality snapshot not found")

// Repository handles data quality snapshot persistence
// ⭐ SSOT: S0 품질 스냅샷 저장/조회
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new quality repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveSnapshot saves a data quality snapshot
func (r *Repository) SaveSnapshot(ctx context.Context, snapshot *Snapshot) error {
	query := `
		INSERT INTO data.quality_snapshots (
			snapshot_date, quality_score, total_tickers, valid_tickers,
			price_coverage, volume_coverage, history_coverage, passed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (snapshot_date) DO UPDATE SET
			quality_score = EXCLUDED.quality_score,
			total_tickers = EXCLUDED.total_tickers,
			valid_tickers = EXCLUDED.valid_tickers,
			price_coverage = EXCLUDED.price_coverage,
			volume_coverage = EXCLUDED.volume_coverage,
			history_coverage = EXCLUDED.history_coverage,
			passed = EXCLUDED.passed,
			created_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query,
		snapshot.Date,
		snapshot.QualityScore,
		snapshot.TotalTickers,
		snapshot.ValidTickers,
		snapshot.Coverage["price"],
		snapshot.Coverage["volume"],
		snapshot.Coverage["history"],
		snapshot.Passed,
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// GetSnapshot retrieves the snapshot of a date
func (r *Repository) GetSnapshot(ctx context.Context, date time.Time) (*Snapshot, error) {
	s := &Snapshot{Coverage: make(map[string]float64)}
	var price, volume, history float64

	err := r.pool.QueryRow(ctx, `
		SELECT snapshot_date, quality_score, total_tickers, valid_tickers,
		       price_coverage, volume_coverage, history_coverage, passed
		FROM data.quality_snapshots
		WHERE snapshot_date = $1
	`, date).Scan(
		&s.Date, &s.QualityScore, &s.TotalTickers, &s.ValidTickers,
		&price, &volume, &history, &s.Passed,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	s.Coverage["price"] = price
	s.Coverage["volume"] = volume
	s.Coverage["history"] = history
	return s, nil
}

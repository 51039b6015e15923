package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/swing/backend/internal/contracts"
)

// Schema creates the ranking tables. Every statement is idempotent.
var Schema = []string{
	`CREATE SCHEMA IF NOT EXISTS selection`,
	`CREATE TABLE IF NOT EXISTS selection.ranking_runs (
		id              BIGSERIAL PRIMARY KEY,
		min_probability DOUBLE PRECISION NOT NULL,
		result_limit    INTEGER NOT NULL,
		requested       INTEGER NOT NULL,
		analyzed        INTEGER NOT NULL,
		strategy_hash   TEXT NOT NULL DEFAULT '',
		started_at      TIMESTAMPTZ NOT NULL,
		finished_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS selection.ranking_results (
		run_id      BIGINT NOT NULL REFERENCES selection.ranking_runs(id) ON DELETE CASCADE,
		rank        INTEGER NOT NULL,
		ticker      TEXT NOT NULL,
		probability DOUBLE PRECISION NOT NULL,
		swing_score DOUBLE PRECISION NOT NULL,
		candidate   JSONB NOT NULL,
		PRIMARY KEY (run_id, rank)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ranking_results_ticker ON selection.ranking_results (ticker, run_id DESC)`,
}

// ErrRunNotFound is returned when no ranking run has been stored
var ErrRunNotFound = errors.New("ranking run not found")

// Repository handles selection data persistence
// ⭐ SSOT: Selection 데이터 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new selection repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveRun stores a ranking run with its candidates and sets run.ID
func (r *Repository) SaveRun(ctx context.Context, run *contracts.RankingRun) error {
	// Begin transaction
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO selection.ranking_runs (
			min_probability, result_limit, requested, analyzed,
			strategy_hash, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		run.MinProbability, run.Limit, run.Requested, run.Analyzed,
		run.StrategyHash, run.StartedAt, run.FinishedAt,
	).Scan(&run.ID)
	if err != nil {
		return fmt.Errorf("failed to insert ranking run: %w", err)
	}

	query := `
		INSERT INTO selection.ranking_results (
			run_id, rank, ticker, probability, swing_score, candidate
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, c := range run.Candidates {
		payload, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal candidate %s: %w", c.Ticker, err)
		}

		_, err = tx.Exec(ctx, query, run.ID, c.Rank, c.Ticker, c.Probability, c.Swing.Score, payload)
		if err != nil {
			return fmt.Errorf("failed to insert ranking result: %w", err)
		}
	}

	// Commit transaction
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LatestRun returns the most recent run with its candidates in rank order
func (r *Repository) LatestRun(ctx context.Context) (*contracts.RankingRun, error) {
	var run contracts.RankingRun
	err := r.pool.QueryRow(ctx, `
		SELECT id, min_probability, result_limit, requested, analyzed,
		       strategy_hash, started_at, finished_at
		FROM selection.ranking_runs
		ORDER BY finished_at DESC, id DESC
		LIMIT 1
	`).Scan(
		&run.ID, &run.MinProbability, &run.Limit, &run.Requested, &run.Analyzed,
		&run.StrategyHash, &run.StartedAt, &run.FinishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	run.Candidates, err = r.candidates(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// TickerHistory returns past ranked appearances of a ticker, newest first
func (r *Repository) TickerHistory(ctx context.Context, ticker string, limit int) ([]RankedAppearance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT rr.run_id, rr.rank, rr.probability, rr.swing_score, run.finished_at
		FROM selection.ranking_results rr
		JOIN selection.ranking_runs run ON run.id = rr.run_id
		WHERE rr.ticker = $1
		ORDER BY rr.run_id DESC
		LIMIT $2
	`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ticker history: %w", err)
	}
	defer rows.Close()

	history := make([]RankedAppearance, 0)
	for rows.Next() {
		a := RankedAppearance{Ticker: ticker}
		if err := rows.Scan(&a.RunID, &a.Rank, &a.Probability, &a.SwingScore, &a.RankedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		history = append(history, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return history, nil
}

func (r *Repository) candidates(ctx context.Context, runID int64) ([]contracts.Candidate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT candidate
		FROM selection.ranking_results
		WHERE run_id = $1
		ORDER BY rank ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranking results: %w", err)
	}
	defer rows.Close()

	results := make([]contracts.Candidate, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		var c contracts.Candidate
		if err := json.Unmarshal(payload, &c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal candidate: %w", err)
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}

// RankedAppearance is one past ranking of a ticker
type RankedAppearance struct {
	RunID       int64     `json:"run_id"`
	Ticker      string    `json:"ticker"`
	Rank        int       `json:"rank"`
	Probability float64   `json:"probability"`
	SwingScore  float64   `json:"swing_score"`
	RankedAt    time.Time `json:"ranked_at"`
}

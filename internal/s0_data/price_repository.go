package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/swing/backend/internal/contracts"
)

// StoredSourceName tags series read back from the database
const StoredSourceName = "stored"

// PriceSchema creates the daily price table. Every statement is idempotent.
var PriceSchema = []string{
	`CREATE SCHEMA IF NOT EXISTS data`,
	`CREATE TABLE IF NOT EXISTS data.daily_prices (
		ticker      TEXT NOT NULL,
		trade_date  DATE NOT NULL,
		open_price  DOUBLE PRECISION NOT NULL,
		high_price  DOUBLE PRECISION NOT NULL,
		low_price   DOUBLE PRECISION NOT NULL,
		close_price DOUBLE PRECISION NOT NULL,
		volume      BIGINT NOT NULL DEFAULT 0,
		source      TEXT NOT NULL DEFAULT '',
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (ticker, trade_date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_daily_prices_date ON data.daily_prices (trade_date)`,
}

// PriceRepository stores daily bars
// ⭐ SSOT: 가격 데이터 저장소는 여기서만
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// SaveSeries upserts every bar of a series in one batch
func (r *PriceRepository) SaveSeries(ctx context.Context, series *contracts.Series) error {
	if series.Empty() {
		return nil
	}

	query := `
		INSERT INTO data.daily_prices (ticker, trade_date, open_price, high_price, low_price, close_price, volume, source, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (ticker, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume,
			source = EXCLUDED.source,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, b := range series.Bars {
		batch.Queue(query, series.Ticker, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume, series.Source)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range series.Bars {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to save bar %d of %s: %w", i, series.Ticker, err)
		}
	}

	return nil
}

// GetRange retrieves bars for a ticker within [from, to], oldest first
func (r *PriceRepository) GetRange(ctx context.Context, ticker string, from, to time.Time) (*contracts.Series, error) {
	query := `
		SELECT trade_date, open_price, high_price, low_price, close_price, volume
		FROM data.daily_prices
		WHERE ticker = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, ticker, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	series := &contracts.Series{Ticker: ticker, Source: StoredSourceName}
	for rows.Next() {
		var b contracts.Bar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		b.Date = b.Date.UTC()
		series.Bars = append(series.Bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prices: %w", err)
	}

	return series, nil
}

// LatestDate returns the most recent stored trade date across all tickers
func (r *PriceRepository) LatestDate(ctx context.Context) (time.Time, error) {
	var latest *time.Time
	err := r.pool.QueryRow(ctx, `SELECT MAX(trade_date) FROM data.daily_prices`).Scan(&latest)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get latest date: %w", err)
	}
	if latest == nil {
		return time.Time{}, contracts.ErrNoData
	}
	return latest.UTC(), nil
}

// StoredSource serves previously recorded bars as the last link of a Chain
type StoredSource struct {
	repo *PriceRepository
	now  func() time.Time
}

// NewStoredSource creates a history source backed by the price table
func NewStoredSource(repo *PriceRepository) *StoredSource {
	return &StoredSource{repo: repo, now: time.Now}
}

// Name identifies the source in logs and chains
func (s *StoredSource) Name() string {
	return StoredSourceName
}

// FetchHistory implements contracts.HistorySource. interval must be daily.
func (s *StoredSource) FetchHistory(ctx context.Context, ticker, period, interval string) (*contracts.Series, error) {
	if interval != "" && interval != "1d" {
		return nil, fmt.Errorf("stored %s: %w: interval %s", ticker, contracts.ErrNoData, interval)
	}

	now := s.now().UTC()
	from, err := contracts.PeriodStart(period, now)
	if err != nil {
		return nil, err
	}

	series, err := s.repo.GetRange(ctx, ticker, from, now)
	if err != nil {
		return nil, fmt.Errorf("stored %s: %w", ticker, err)
	}
	if series.Empty() {
		return nil, fmt.Errorf("stored %s: %w", ticker, contracts.ErrNoData)
	}
	return series, nil
}

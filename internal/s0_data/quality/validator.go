package quality

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/swing/backend/internal/contracts"
)

// Snapshot is the stored-price coverage of a ticker list on one trade date
type Snapshot struct {
	Date         time.Time          `json:"date"`
	TotalTickers int                `json:"total_tickers"`
	ValidTickers int                `json:"valid_tickers"`
	Coverage     map[string]float64 `json:"coverage"`
	QualityScore float64            `json:"quality_score"`
	Passed       bool               `json:"passed"`
}

// Config holds quality gate thresholds
type Config struct {
	MinScore      float64 `yaml:"min_score"`      // 0.8
	HistoryWindow int     `yaml:"history_window"` // 달력 기준 일수 (120)
	RequiredBars  int     `yaml:"required_bars"`  // contracts.MinAnalysisBars
}

// DefaultConfig returns the thresholds used by the collect command
func DefaultConfig() Config {
	return Config{
		MinScore:      0.8,
		HistoryWindow: 120,
		RequiredBars:  contracts.MinAnalysisBars,
	}
}

// 가중치 (합계 = 1.0)
var weights = map[string]float64{
	"price":   0.40, // 기준일 종가 존재
	"volume":  0.30, // 기준일 거래량 > 0
	"history": 0.30, // 분석 가능한 길이
}

// Gate validates stored price coverage before ranking from the database
type Gate struct {
	db     *pgxpool.Pool
	config Config
}

// NewGate creates a new quality gate
func NewGate(db *pgxpool.Pool, config Config) *Gate {
	return &Gate{
		db:     db,
		config: config,
	}
}

// Check computes coverage of tickers on date
// ⭐ SSOT: S0 → S1 품질 검증
func (g *Gate) Check(ctx context.Context, tickers []string, date time.Time) (*Snapshot, error) {
	snapshot := &Snapshot{
		Date:         date,
		TotalTickers: len(tickers),
		Coverage:     make(map[string]float64),
	}
	if len(tickers) == 0 {
		return snapshot, nil
	}

	query := `
		SELECT
			COUNT(*) FILTER (WHERE trade_date = $2)                AS has_price,
			COUNT(*) FILTER (WHERE trade_date = $2 AND volume > 0) AS has_volume,
			COUNT(*)                                                AS bars
		FROM data.daily_prices
		WHERE ticker = ANY($1) AND trade_date BETWEEN $3 AND $2
		GROUP BY ticker
	`

	from := date.AddDate(0, 0, -g.config.HistoryWindow)
	rows, err := g.db.Query(ctx, query, tickers, date, from)
	if err != nil {
		return nil, fmt.Errorf("query coverage: %w", err)
	}
	defer rows.Close()

	var stats []tickerStats
	for rows.Next() {
		var s tickerStats
		if err := rows.Scan(&s.HasPrice, &s.HasVolume, &s.Bars); err != nil {
			return nil, fmt.Errorf("scan coverage: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coverage: %w", err)
	}

	g.fill(snapshot, stats)
	return snapshot, nil
}

type tickerStats struct {
	HasPrice  int
	HasVolume int
	Bars      int
}

// fill derives coverage ratios, score and pass/fail from per-ticker stats
func (g *Gate) fill(snapshot *Snapshot, stats []tickerStats) {
	total := float64(snapshot.TotalTickers)
	if total == 0 {
		return
	}

	var price, volume, history int
	for _, s := range stats {
		if s.HasPrice > 0 {
			price++
		}
		if s.HasVolume > 0 {
			volume++
		}
		if s.Bars >= g.config.RequiredBars {
			history++
		}
	}

	snapshot.Coverage["price"] = float64(price) / total
	snapshot.Coverage["volume"] = float64(volume) / total
	snapshot.Coverage["history"] = float64(history) / total
	snapshot.ValidTickers = history

	snapshot.QualityScore = calculateScore(snapshot.Coverage)
	snapshot.Passed = snapshot.QualityScore >= g.config.MinScore
}

// calculateScore calculates overall quality score using weighted average
func calculateScore(coverage map[string]float64) float64 {
	score := 0.0
	for key, weight := range weights {
		if cov, exists := coverage[key]; exists {
			score += cov * weight
		}
	}
	return score
}

package selection

import (
	"context"
	"math"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/pkg/config"
	"github.com/wonny/swing/backend/pkg/database"
)

func openTestRepository(t *testing.T) *Repository {
	t.Helper()

	// Skip if DATABASE_URL is not set
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.ApplySchema(context.Background(), Schema...))
	return NewRepository(db.Pool)
}

func TestRepository_SaveAndLoadRun(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	started := time.Now().UTC().Truncate(time.Millisecond)
	ticker := "ZZTEST" + started.Format("150405") + ".BO"
	run := &contracts.RankingRun{
		MinProbability: 40,
		Limit:          10,
		Requested:      2,
		Analyzed:       1,
		StrategyHash:   "test",
		StartedAt:      started,
		FinishedAt:     started.Add(time.Second),
		Candidates: []contracts.Candidate{{
			Rank:        1,
			Ticker:      ticker,
			Name:        "Test",
			Sector:      "N/A",
			Probability: 61.5,
			Swing:       contracts.SwingScore{Score: 45, Reasons: []string{"Bullish trend"}, RSI: 55, MACD: math.NaN(), Close: 100},
			Levels:      contracts.TradeLevels{Entry: 100, StopLoss: 97, Target: 105, Risk: 3, Reward: 5, Ratio: 5.0 / 3},
			EntryTime:   contracts.EntryOnDip,
		}},
	}

	require.NoError(t, repo.SaveRun(ctx, run))
	assert.NotZero(t, run.ID)

	latest, err := repo.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, run.ID, latest.ID)
	require.Len(t, latest.Candidates, 1)
	assert.Equal(t, ticker, latest.Candidates[0].Ticker)
	assert.Equal(t, []string{"Bullish trend"}, latest.Candidates[0].Swing.Reasons)
	assert.True(t, math.IsNaN(latest.Candidates[0].Swing.MACD), "null MACD decodes to NaN")

	history, err := repo.TickerHistory(ctx, ticker, 5)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].Rank)
	assert.Equal(t, 61.5, history[0].Probability)
}

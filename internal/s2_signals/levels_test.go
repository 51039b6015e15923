package s2_signals

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/internal/strategyconfig"
	"github.com/wonny/swing/backend/pkg/logger"
)

func testLevels() *LevelCalculator {
	return NewLevelCalculator(strategyconfig.Default(), logger.NewNop())
}

// frameWithATR returns a frame over closes whose last ATR value is atr (NaN for undefined)
func frameWithATR(closes []float64, atr float64) *contracts.Frame {
	frame := contracts.NewFrame(seriesFromCloses("X", closes))
	frame.ATR = contracts.NewColumn(len(closes))
	frame.ATR[len(closes)-1] = atr
	return frame
}

func TestLevels_ATRBased(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 90 + float64(i%10)
	}
	closes[29] = 100

	levels, err := testLevels().Calculate(frameWithATR(closes, 2))
	require.NoError(t, err)

	assert.Equal(t, 100.0, levels.Entry)
	assert.Equal(t, 97.0, levels.StopLoss)
	assert.Equal(t, 105.0, levels.Target)
	assert.Equal(t, 3.0, levels.Risk)
	assert.Equal(t, 5.0, levels.Reward)
	assert.InDelta(t, 5.0/3, levels.Ratio, 1e-12)

	// trailing 20 bars: closes 90..99 and 100, ±0.5
	assert.Equal(t, 89.5, levels.Support)
	assert.Equal(t, 100.5, levels.Resistance)
}

func TestLevels_SupportFallbackWithoutATR(t *testing.T) {
	closes := []float64{96, 98, 100}

	levels, err := testLevels().Calculate(frameWithATR(closes, math.NaN()))
	require.NoError(t, err)

	assert.Equal(t, 95.5, levels.Support)
	assert.Equal(t, 95.5, levels.StopLoss)
	assert.InDelta(t, 105.0, levels.Target, 1e-9)
	assert.InDelta(t, 4.5, levels.Risk, 1e-9)
	assert.InDelta(t, 5.0/4.5, levels.Ratio, 1e-9)
}

func TestLevels_PercentFallbackWhenSupportIsZero(t *testing.T) {
	frame := frameWithATR([]float64{100}, math.NaN())
	frame.Bars[0].Low = 0

	levels, err := testLevels().Calculate(frame)
	require.NoError(t, err)

	assert.InDelta(t, 95.0, levels.StopLoss, 1e-9)
	assert.InDelta(t, 105.0, levels.Target, 1e-9)
	assert.InDelta(t, 1.0, levels.Ratio, 1e-9)
}

func TestLevels_RatioZeroWhenRiskNotPositive(t *testing.T) {
	// support above entry → stop above entry → negative risk
	frame := frameWithATR([]float64{100}, math.NaN())
	frame.Bars[0].Low = 101
	frame.Bars[0].High = 102

	levels, err := testLevels().Calculate(frame)
	require.NoError(t, err)
	assert.Less(t, levels.Risk, 0.0)
	assert.Equal(t, 0.0, levels.Ratio)

	// zero ATR → stop equals entry → zero risk
	levels, err = testLevels().Calculate(frameWithATR([]float64{100, 100}, 0))
	require.NoError(t, err)
	assert.Equal(t, 0.0, levels.Risk)
	assert.Equal(t, 0.0, levels.Ratio)
}

func TestLevels_EmptyFrameUnavailable(t *testing.T) {
	_, err := testLevels().Calculate(&contracts.Frame{})
	assert.True(t, errors.Is(err, contracts.ErrLevelsUnavailable))

	_, err = testLevels().Calculate(nil)
	assert.True(t, errors.Is(err, contracts.ErrLevelsUnavailable))
}

func TestEntryTime(t *testing.T) {
	calc := testLevels()

	// last close 100, 5-bar low 99.5 → within 2%
	near := contracts.NewFrame(seriesFromCloses("X", []float64{110, 108, 105, 102, 100}))
	assert.Equal(t, contracts.EntryImmediate, calc.EntryTime(near))

	// last close 110, 5-bar low 99.5 → 10% above
	far := contracts.NewFrame(seriesFromCloses("X", []float64{100, 102, 105, 108, 110}))
	assert.Equal(t, contracts.EntryOnDip, calc.EntryTime(far))

	assert.Equal(t, contracts.EntryAnalyzeFurther, calc.EntryTime(&contracts.Frame{}))
}

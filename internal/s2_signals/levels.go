package s2_signals

import (
	"fmt"
	"math"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/internal/strategyconfig"
	"github.com/wonny/swing/backend/pkg/logger"
)

// LevelCalculator derives entry, stop-loss and target from the last frame row
// ⭐ SSOT: 진입/손절/목표가 계산은 여기서만
type LevelCalculator struct {
	levels strategyconfig.Levels
	entry  strategyconfig.Entry
	logger *logger.Logger
}

// NewLevelCalculator creates a new trade level calculator
func NewLevelCalculator(cfg *strategyconfig.Config, log *logger.Logger) *LevelCalculator {
	return &LevelCalculator{
		levels: cfg.Levels,
		entry:  cfg.Entry,
		logger: log,
	}
}

// Calculate returns trade levels for a long entry at the last close.
// Returns ErrLevelsUnavailable when the frame is empty or computation fails.
func (c *LevelCalculator) Calculate(frame *contracts.Frame) (levels contracts.TradeLevels, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", contracts.ErrLevelsUnavailable, r)
		}
		if err != nil {
			c.logger.WithFields(map[string]interface{}{
				"ticker": tickerOf(frame),
				"error":  err.Error(),
			}).Warn("Trade levels unavailable")
		}
	}()

	last := frame.LastIndex()
	if last < 0 {
		return levels, fmt.Errorf("%w: empty frame", contracts.ErrLevelsUnavailable)
	}

	entry := frame.Close(last)
	if math.IsNaN(entry) || entry <= 0 {
		return levels, fmt.Errorf("%w: invalid close %v", contracts.ErrLevelsUnavailable, entry)
	}

	support, resistance := c.SupportResistance(frame)
	atr := frame.ATR.At(last)

	var stop, target float64
	if !math.IsNaN(atr) {
		stop = entry - atr*c.levels.StopATRMultiple
		target = entry + atr*c.levels.TargetATRMultiple
	} else {
		// ATR 미정의: 지지선 → 고정 비율 순으로 대체
		if !math.IsNaN(support) && support != 0 {
			stop = support
		} else {
			stop = entry * (1 - c.levels.StopFallbackPct)
		}
		target = entry * (1 + c.levels.TargetFallbackPct)
	}

	risk := entry - stop
	reward := target - entry
	ratio := 0.0
	if risk > 0 {
		ratio = reward / risk
	}

	return contracts.TradeLevels{
		Entry:      entry,
		StopLoss:   stop,
		Target:     target,
		Support:    support,
		Resistance: resistance,
		Risk:       risk,
		Reward:     reward,
		Ratio:      ratio,
	}, nil
}

// SupportResistance returns min(Low) and max(High) over the trailing window
func (c *LevelCalculator) SupportResistance(frame *contracts.Frame) (support, resistance float64) {
	n := frame.Len()
	if n == 0 {
		return math.NaN(), math.NaN()
	}

	start := n - c.levels.SupportWindow
	if start < 0 {
		start = 0
	}

	support, resistance = math.Inf(1), math.Inf(-1)
	for _, b := range frame.Bars[start:] {
		support = math.Min(support, b.Low)
		resistance = math.Max(resistance, b.High)
	}
	return support, resistance
}

// EntryTime recommends immediate entry when the last close sits within
// NearLowPct of the trailing LowWindow low
func (c *LevelCalculator) EntryTime(frame *contracts.Frame) (et contracts.EntryTime) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.WithFields(map[string]interface{}{
				"ticker": tickerOf(frame),
				"error":  fmt.Sprint(r),
			}).Warn("Entry time unavailable")
			et = contracts.EntryAnalyzeFurther
		}
	}()

	n := frame.Len()
	if n == 0 {
		return contracts.EntryAnalyzeFurther
	}

	start := n - c.entry.LowWindow
	if start < 0 {
		start = 0
	}
	recentLow := math.Inf(1)
	for _, b := range frame.Bars[start:] {
		recentLow = math.Min(recentLow, b.Low)
	}

	if frame.Close(n-1) <= recentLow*(1+c.entry.NearLowPct) {
		return contracts.EntryImmediate
	}
	return contracts.EntryOnDip
}

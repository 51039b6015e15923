package strategyconfig

import (
	"errors"
	"fmt"
	"math"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

const weightEpsilon = 1e-6

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Indicators ===
	ind := cfg.Indicators
	periods := []struct {
		field string
		value int
	}{
		{"indicators.rsi_period", ind.RSIPeriod},
		{"indicators.macd_fast", ind.MACDFast},
		{"indicators.macd_slow", ind.MACDSlow},
		{"indicators.macd_signal", ind.MACDSignal},
		{"indicators.bb_period", ind.BBPeriod},
		{"indicators.atr_period", ind.ATRPeriod},
		{"indicators.sma_short", ind.SMAShort},
		{"indicators.sma_mid", ind.SMAMid},
		{"indicators.sma_long", ind.SMALong},
	}
	for _, p := range periods {
		if p.value <= 0 {
			return ValidationError{p.field, "must be > 0"}
		}
	}
	if ind.MACDFast >= ind.MACDSlow {
		return ValidationError{"indicators.macd_fast", "must be < macd_slow"}
	}
	if ind.BBStdDev <= 0 {
		return ValidationError{"indicators.bb_stddev", "must be > 0"}
	}

	// === Swing ===
	rsi := cfg.Swing.RSI
	if !(rsi.Oversold <= rsi.ApproachingHigh && rsi.ApproachingHigh <= rsi.NeutralLow && rsi.NeutralLow <= rsi.NeutralHigh) {
		return ValidationError{"swing.rsi", "thresholds must be non-decreasing: oversold <= approaching_high <= neutral_low <= neutral_high"}
	}
	vol := cfg.Swing.Volatility
	if vol.OptimalMinPct >= vol.OptimalMaxPct {
		return ValidationError{"swing.volatility", "optimal_min_pct must be < optimal_max_pct"}
	}
	if cfg.Swing.MaxScore <= 0 || cfg.Swing.MaxScore > 100 {
		return ValidationError{"swing.max_score", "must be in range (0, 100]"}
	}

	// === Levels ===
	if cfg.Levels.SupportWindow <= 0 {
		return ValidationError{"levels.support_window", "must be > 0"}
	}
	if cfg.Levels.StopATRMultiple <= 0 || cfg.Levels.TargetATRMultiple <= 0 {
		return ValidationError{"levels", "atr multiples must be > 0"}
	}
	if err := validatePctRange(cfg.Levels.StopFallbackPct, "levels.stop_fallback_pct"); err != nil {
		return err
	}
	if err := validatePctRange(cfg.Levels.TargetFallbackPct, "levels.target_fallback_pct"); err != nil {
		return err
	}

	// === Probability ===
	prob := cfg.Probability
	if err := validateWeightsSum([]float64{prob.PatternWeight, prob.SwingWeight, prob.RRWeight}, 1.0, weightEpsilon); err != nil {
		return ValidationError{"probability.{pattern,swing,rr}_weight", err.Error()}
	}
	if err := validateWeightsSum([]float64{prob.WinRateWeight, prob.ZScoreWeight, prob.MeanReversionWeight}, 1.0, weightEpsilon); err != nil {
		return ValidationError{"probability.{win_rate,zscore,mean_reversion}_weight", err.Error()}
	}
	pat := prob.Pattern
	if pat.MinRows <= 0 || pat.Lookahead <= 0 || pat.ReturnWindow < 2 || pat.MinMatches < 1 {
		return ValidationError{"probability.pattern", "windows must be positive (return_window >= 2)"}
	}
	if pat.RSIBand < 0 {
		return ValidationError{"probability.pattern.rsi_band", "must be >= 0"}
	}
	if err := validateRRTiers(prob.RRTiers); err != nil {
		return ValidationError{"probability.rr_tiers", err.Error()}
	}
	if err := validatePctRange(prob.RRDefault, "probability.rr_default"); err != nil {
		return err
	}
	if prob.Neutral < 0 || prob.Neutral > 100 {
		return ValidationError{"probability.neutral", "must be in range [0, 100]"}
	}

	// === Entry ===
	if cfg.Entry.LowWindow <= 0 {
		return ValidationError{"entry.low_window", "must be > 0"}
	}
	if err := validatePctRange(cfg.Entry.NearLowPct, "entry.near_low_pct"); err != nil {
		return err
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 점수표 최대 합이 상한을 넘으면 clamp가 동작
	maxSum := cfg.Swing.RSI.OversoldPoints + cfg.Swing.MACD.CrossoverPoints +
		cfg.Swing.Bollinger.BelowLowerPoints + cfg.Swing.Volatility.OptimalPoints +
		cfg.Swing.Trend.BullishPoints
	if maxSum > cfg.Swing.MaxScore {
		warnings = append(warnings, Warning{
			Code:    "SCORE_CLAMPED",
			Message: fmt.Sprintf("rule table can reach %.0f points, scores above %.0f are clamped", maxSum, cfg.Swing.MaxScore),
		})
	}

	// 3개월 일봉(약 62개)으로는 SMA 장기선이 계산되지 않음
	if cfg.Indicators.SMALong > 62 {
		warnings = append(warnings, Warning{
			Code:    "SMA_LONG_UNDEFINED",
			Message: fmt.Sprintf("sma_long=%d exceeds a 3mo daily history; the column stays undefined", cfg.Indicators.SMALong),
		})
	}

	return warnings
}

// === Helper Functions ===

func validateWeightsSum(weights []float64, target float64, epsilon float64) error {
	if len(weights) == 0 {
		return errors.New("must not be empty")
	}
	sum := 0.0
	for _, w := range weights {
		if w < 0 {
			return errors.New("weights must be >= 0")
		}
		sum += w
	}
	if math.Abs(sum-target) > epsilon {
		return fmt.Errorf("must sum to %.2f, got %.4f", target, sum)
	}
	return nil
}

// validateRRTiers는 MinRatio 내림차순과 확률 범위를 검증
func validateRRTiers(tiers []RRTier) error {
	if len(tiers) == 0 {
		return errors.New("must not be empty")
	}
	for i, t := range tiers {
		if t.Probability < 0 || t.Probability > 1 {
			return fmt.Errorf("tier %d: probability must be in range [0, 1]", i)
		}
		if i > 0 && t.MinRatio >= tiers[i-1].MinRatio {
			return fmt.Errorf("tier %d: min_ratio must be strictly descending", i)
		}
	}
	return nil
}

// validatePctRange는 퍼센트 값이 0~1 범위인지 검증
func validatePctRange(pct float64, field string) error {
	if pct < 0 || pct > 1 {
		return ValidationError{field, "must be in range [0, 1]"}
	}
	return nil
}

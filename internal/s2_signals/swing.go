package s2_signals

import (
	"fmt"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/internal/strategyconfig"
	"github.com/wonny/swing/backend/pkg/logger"
)

// SwingScorer maps the last two frame rows to a bounded favorability score
// ⭐ SSOT: 스윙 점수 계산은 여기서만
//
// Categories (RSI, MACD, Bollinger, volatility, trend) are additive.
// Within a category the first matching rule wins. Comparisons against an
// undefined (NaN) value are false, so missing columns simply add nothing.
type SwingScorer struct {
	rules  strategyconfig.Swing
	logger *logger.Logger
}

// NewSwingScorer creates a new swing scorer
func NewSwingScorer(cfg *strategyconfig.Config, log *logger.Logger) *SwingScorer {
	return &SwingScorer{
		rules:  cfg.Swing,
		logger: log,
	}
}

// Score evaluates the rule table. It never panics: any failure yields
// score 0 with the failure message as the only reason.
func (s *SwingScorer) Score(frame *contracts.Frame) (result contracts.SwingScore) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprint(r)
			s.logger.WithFields(map[string]interface{}{
				"ticker": tickerOf(frame),
				"error":  msg,
			}).Error("Swing score failed")
			result = degradedSwingScore(msg)
		}
	}()

	cur := frame.LastIndex()
	if cur < 0 {
		return degradedSwingScore("no rows to score")
	}
	prev := cur - 1
	if prev < 0 {
		prev = cur
	}

	rsi := frame.RSI.At(cur)
	macd := frame.MACD.At(cur)
	signal := frame.MACDSignal.At(cur)
	closePrice := frame.Close(cur)

	var score float64
	reasons := []string{}
	add := func(points float64, reason string) {
		score += points
		reasons = append(reasons, reason)
	}

	// RSI
	r := s.rules.RSI
	switch {
	case rsi < r.Oversold:
		add(r.OversoldPoints, fmt.Sprintf("RSI oversold (%.2f)", rsi))
	case r.Oversold <= rsi && rsi <= r.ApproachingHigh:
		add(r.ApproachingPoints, fmt.Sprintf("RSI approaching oversold (%.2f)", rsi))
	case r.NeutralLow <= rsi && rsi <= r.NeutralHigh:
		add(r.NeutralPoints, fmt.Sprintf("RSI in neutral zone (%.2f)", rsi))
	}

	// MACD
	m := s.rules.MACD
	switch {
	case macd > signal && frame.MACD.At(prev) <= frame.MACDSignal.At(prev):
		add(m.CrossoverPoints, "MACD bullish crossover")
	case macd > signal:
		add(m.AboveSignalPoints, "MACD above signal line")
	case frame.MACDHist.At(cur) > 0:
		add(m.HistogramPoints, "MACD histogram positive")
	}

	// Bollinger Bands
	b := s.rules.Bollinger
	switch {
	case closePrice < frame.BBLower.At(cur):
		add(b.BelowLowerPoints, "Price below lower BB")
	case closePrice < frame.BBMiddle.At(cur):
		add(b.BelowMiddlePoints, "Price approaching lower BB")
	}

	// Volatility (ATR / Close)
	v := s.rules.Volatility
	if frame.ATR.Defined(cur) {
		atrPct := frame.ATR.At(cur) / closePrice * 100
		switch {
		case v.OptimalMinPct < atrPct && atrPct < v.OptimalMaxPct:
			add(v.OptimalPoints, fmt.Sprintf("Optimal volatility (%.2f%%)", atrPct))
		case atrPct > v.GoodMinPct:
			add(v.GoodPoints, fmt.Sprintf("Good volatility (%.2f%%)", atrPct))
		}
	}

	// Trend
	sma20 := frame.SMA20.At(cur)
	if closePrice > sma20 && sma20 > frame.SMA50.At(cur) {
		add(s.rules.Trend.BullishPoints, "Bullish trend")
	}

	result = contracts.SwingScore{
		Score:   clamp(score, 0, s.rules.MaxScore),
		Reasons: reasons,
		RSI:     rsi,
		MACD:    macd,
		Close:   closePrice,
	}

	s.logger.WithFields(map[string]interface{}{
		"ticker":  tickerOf(frame),
		"score":   result.Score,
		"reasons": len(reasons),
	}).Debug("Calculated swing score")

	return result
}

func degradedSwingScore(msg string) contracts.SwingScore {
	return contracts.SwingScore{
		Score:   0,
		Reasons: []string{msg},
		RSI:     nan(),
		MACD:    nan(),
		Close:   nan(),
	}
}

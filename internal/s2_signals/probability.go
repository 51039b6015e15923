package s2_signals

import (
	"fmt"
	"math"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/internal/strategyconfig"
	"github.com/wonny/swing/backend/pkg/logger"
)

// ProbabilityScorer blends pattern, swing score and risk/reward into a
// heuristic probability of reaching the target
// ⭐ SSOT: 목표가 도달 확률 계산은 여기서만
//
// Every sub-score substitutes the neutral value on failure instead of
// returning an error. Inputs are never modified.
type ProbabilityScorer struct {
	params strategyconfig.Probability
	logger *logger.Logger
}

// NewProbabilityScorer creates a new probability scorer
func NewProbabilityScorer(cfg *strategyconfig.Config, log *logger.Logger) *ProbabilityScorer {
	return &ProbabilityScorer{
		params: cfg.Probability,
		logger: log,
	}
}

// PatternBreakdown exposes the components of the pattern probability
type PatternBreakdown struct {
	WinRate       float64 `json:"win_rate"`
	Samples       int     `json:"samples"`
	Volatility    float64 `json:"volatility"`     // % std of daily returns, NaN if unknown
	MoveNeeded    float64 `json:"move_needed"`    // % from last close to target
	ZScore        float64 `json:"zscore"`         // probability from the z mapping
	MeanReversion float64 `json:"mean_reversion"` // probability from SMA/BB position
	Probability   float64 `json:"probability"`
}

// Overall returns the blended probability in [0, 100]
func (p *ProbabilityScorer) Overall(frame *contracts.Frame, levels contracts.TradeLevels, swingScore float64) float64 {
	return p.guard(frame, "overall", func() float64 {
		pattern := p.PatternProbability(frame, levels.Target)
		swing := swingScore * p.params.SwingScale
		rr := p.RRProbability(levels.Ratio) * 100

		overall := pattern*p.params.PatternWeight + swing*p.params.SwingWeight + rr*p.params.RRWeight

		p.logger.WithFields(map[string]interface{}{
			"ticker":      tickerOf(frame),
			"pattern":     pattern,
			"swing":       swing,
			"rr":          rr,
			"probability": overall,
		}).Debug("Calculated probability")

		return clamp(overall, 0, 100)
	})
}

// PatternProbability blends win rate, z-score probability and mean reversion.
// Frames shorter than Pattern.MinRows get the neutral value.
func (p *ProbabilityScorer) PatternProbability(frame *contracts.Frame, target float64) float64 {
	return p.Pattern(frame, target).Probability
}

// Pattern returns the pattern probability with its components
func (p *ProbabilityScorer) Pattern(frame *contracts.Frame, target float64) PatternBreakdown {
	neutral := p.params.Neutral
	out := PatternBreakdown{
		WinRate:       neutral,
		Volatility:    nan(),
		MoveNeeded:    nan(),
		ZScore:        neutral,
		MeanReversion: neutral,
		Probability:   neutral,
	}

	if frame.Len() < p.params.Pattern.MinRows {
		return out
	}

	out.Probability = p.guard(frame, "pattern", func() float64 {
		current := frame.Close(frame.LastIndex())
		out.MoveNeeded = (target - current) / current * 100
		out.Volatility = p.Volatility(frame)
		out.WinRate, out.Samples = p.WinRate(frame)
		out.ZScore = p.ZScoreProbability(out.MoveNeeded, out.Volatility)
		out.MeanReversion = p.MeanReversionProbability(frame)

		prob := out.WinRate*p.params.WinRateWeight +
			out.ZScore*p.params.ZScoreWeight +
			out.MeanReversion*p.params.MeanReversionWeight
		return clamp(prob, 0, 100)
	})

	return out
}

// WinRate finds past rows whose RSI lies within RSIBand of the current RSI
// and counts how often the close rose more than WinGainPct within Lookahead bars.
// Returns (rate, attempts). Fewer than MinMatches similar rows → neutral.
func (p *ProbabilityScorer) WinRate(frame *contracts.Frame) (rate float64, samples int) {
	neutral := p.params.Neutral
	defer func() {
		if r := recover(); r != nil {
			p.logDegraded(frame, "win_rate", r)
			rate, samples = neutral, 0
		}
	}()

	cfg := p.params.Pattern
	n := frame.Len()
	if n == 0 {
		return neutral, 0
	}
	currentRSI := frame.RSI.At(n - 1)

	var similar []int
	for i := 0; i < n; i++ {
		v := frame.RSI.At(i)
		if v >= currentRSI-cfg.RSIBand && v <= currentRSI+cfg.RSIBand {
			similar = append(similar, i)
		}
	}
	if len(similar) < cfg.MinMatches {
		return neutral, len(similar)
	}

	var wins, total int
	// 가장 최근 매치는 제외
	for _, pos := range similar[:len(similar)-1] {
		next := pos + 1
		if next >= n-1 {
			continue
		}
		end := next + cfg.Lookahead
		if end > n {
			end = n
		}

		future := math.Inf(-1)
		for j := next; j < end; j++ {
			future = math.Max(future, frame.Close(j))
		}
		if future > frame.Close(pos)*(1+cfg.WinGainPct) {
			wins++
		}
		total++
	}

	if total == 0 {
		return neutral, 0
	}
	return float64(wins) / float64(total) * 100, total
}

// Volatility is the sample std of the trailing ReturnWindow daily returns, in percent
func (p *ProbabilityScorer) Volatility(frame *contracts.Frame) float64 {
	returns := pctChange(frame.Closes())
	return sampleStd(tail(returns, p.params.Pattern.ReturnWindow)) * 100
}

// ZScoreProbability maps |move|/volatility onto the piecewise curve
// 50→68 for z in [0,1], 68→95 for (1,2], 95→100 beyond.
// Zero or unknown volatility gives the neutral value.
func (p *ProbabilityScorer) ZScoreProbability(move, volatility float64) float64 {
	if volatility == 0 || math.IsNaN(volatility) || math.IsNaN(move) {
		return p.params.Neutral
	}

	z := math.Abs(move) / volatility
	switch {
	case z <= 1:
		return 50 + z*18
	case z <= 2:
		return 68 + (z-1)*27
	default:
		return 95 + math.Min(5, (z-2)*2)
	}
}

// MeanReversionProbability rewards a close below both SMAs and below the lower band
func (p *ProbabilityScorer) MeanReversionProbability(frame *contracts.Frame) float64 {
	mr := p.params.MeanReversion
	last := frame.LastIndex()
	if last < 0 {
		return p.params.Neutral
	}

	closePrice := frame.Close(last)
	prob := mr.Base
	if closePrice < frame.SMA20.At(last) && closePrice < frame.SMA50.At(last) {
		prob += mr.BelowSMABonus
	}
	if closePrice < frame.BBLower.At(last) {
		prob += mr.BelowLowerBonus
	}
	return math.Min(100, prob)
}

// RRProbability returns the tier probability (0~1) for a reward/risk ratio
func (p *ProbabilityScorer) RRProbability(ratio float64) float64 {
	for _, tier := range p.params.RRTiers {
		if ratio >= tier.MinRatio {
			return tier.Probability
		}
	}
	return p.params.RRDefault
}

// guard runs fn and substitutes the neutral value on panic or NaN
func (p *ProbabilityScorer) guard(frame *contracts.Frame, step string, fn func() float64) (v float64) {
	defer func() {
		if r := recover(); r != nil {
			p.logDegraded(frame, step, r)
			v = p.params.Neutral
		}
	}()

	v = fn()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		p.logDegraded(frame, step, "non-finite result")
		return p.params.Neutral
	}
	return v
}

func (p *ProbabilityScorer) logDegraded(frame *contracts.Frame, step string, cause interface{}) {
	p.logger.WithFields(map[string]interface{}{
		"ticker": tickerOf(frame),
		"step":   step,
		"error":  fmt.Sprint(cause),
	}).Warn("Probability step degraded to neutral")
}

func nan() float64 {
	return math.NaN()
}

func tickerOf(frame *contracts.Frame) string {
	if frame == nil {
		return ""
	}
	return frame.Ticker
}

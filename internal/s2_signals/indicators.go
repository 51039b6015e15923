package s2_signals

import (
	"fmt"
	"math"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/internal/strategyconfig"
	"github.com/wonny/swing/backend/pkg/logger"
)

// IndicatorEngine augments an OHLCV series with technical indicator columns
// ⭐ SSOT: 기술적 지표 계산은 여기서만
type IndicatorEngine struct {
	params strategyconfig.Indicators
	logger *logger.Logger
}

// NewIndicatorEngine creates a new indicator engine
func NewIndicatorEngine(cfg *strategyconfig.Config, log *logger.Logger) *IndicatorEngine {
	return &IndicatorEngine{
		params: cfg.Indicators,
		logger: log,
	}
}

// Compute returns a Frame with RSI, MACD, Bollinger, SMA, TR and ATR columns.
// The input series is not modified. On an internal failure the frame is
// returned without indicator columns and the failure is logged.
func (e *IndicatorEngine) Compute(series *contracts.Series) (frame *contracts.Frame) {
	frame = contracts.NewFrame(series.Clone())

	defer func() {
		if r := recover(); r != nil {
			e.logger.WithFields(map[string]interface{}{
				"ticker": frame.Ticker,
				"bars":   frame.Len(),
				"error":  fmt.Sprint(r),
			}).Error("Indicator computation failed")
			frame = contracts.NewFrame(series.Clone())
		}
	}()

	if frame.Len() == 0 {
		return frame
	}

	p := e.params
	closes := frame.Closes()

	frame.RSI = RSI(closes, p.RSIPeriod)
	frame.MACD, frame.MACDSignal, frame.MACDHist = MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	frame.BBUpper, frame.BBMiddle, frame.BBLower = Bollinger(closes, p.BBPeriod, p.BBStdDev)
	frame.SMA20 = rollingMean(closes, p.SMAShort)
	frame.SMA50 = rollingMean(closes, p.SMAMid)
	frame.SMA200 = rollingMean(closes, p.SMALong)
	frame.TR = TrueRange(frame.Bars)
	frame.ATR = rollingMean(frame.TR, p.ATRPeriod)

	e.logger.WithFields(map[string]interface{}{
		"ticker": frame.Ticker,
		"bars":   frame.Len(),
		"rsi":    frame.RSI.At(frame.LastIndex()),
		"atr":    frame.ATR.At(frame.LastIndex()),
	}).Debug("Computed indicators")

	return frame
}

// RSI computes the relative strength index from simple rolling means of
// gains and losses. Defined from index period onward.
// Only gains → 100, no movement at all → 50.
func RSI(closes []float64, period int) contracts.Column {
	out := contracts.NewColumn(len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	for i := period; i < len(closes); i++ {
		// 창마다 직접 합산 (누적 오차로 0이 0이 아니게 되는 것 방지)
		var gainSum, lossSum float64
		for j := i - period + 1; j <= i; j++ {
			gainSum += gains[j]
			lossSum += losses[j]
		}
		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)

		switch {
		case avgLoss == 0 && avgGain > 0:
			out[i] = 100
		case avgLoss == 0:
			out[i] = 50
		default:
			rs := avgGain / avgLoss
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}

// MACD returns the MACD line, its signal line and the histogram
func MACD(closes []float64, fast, slow, signal int) (line, sig, hist contracts.Column) {
	fastEMA := ema(closes, fast)
	slowEMA := ema(closes, slow)

	line = contracts.NewColumn(len(closes))
	for i := range closes {
		line[i] = fastEMA[i] - slowEMA[i] // NaN propagates
	}

	sig = ema(line, signal)

	hist = contracts.NewColumn(len(closes))
	for i := range closes {
		hist[i] = line[i] - sig[i]
	}
	return line, sig, hist
}

// Bollinger returns upper, middle and lower bands (population std)
func Bollinger(closes []float64, period int, k float64) (upper, middle, lower contracts.Column) {
	middle = rollingMean(closes, period)
	std := rollingStd(closes, period)

	upper = contracts.NewColumn(len(closes))
	lower = contracts.NewColumn(len(closes))
	for i := range closes {
		upper[i] = middle[i] + k*std[i]
		lower[i] = middle[i] - k*std[i]
	}
	return upper, middle, lower
}

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|).
// The first bar has no previous close and is NaN.
func TrueRange(bars []contracts.Bar) contracts.Column {
	out := contracts.NewColumn(len(bars))
	for i := 1; i < len(bars); i++ {
		prevClose := bars[i-1].Close
		hl := bars[i].High - bars[i].Low
		hc := math.Abs(bars[i].High - prevClose)
		lc := math.Abs(bars[i].Low - prevClose)
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

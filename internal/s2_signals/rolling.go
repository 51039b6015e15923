package s2_signals

import (
	"math"

	"github.com/wonny/swing/backend/internal/contracts"
)

// Window helpers. Every helper returns a column aligned with its input;
// entries whose window is not yet full are NaN.

// rollingMean returns the simple moving average over period values
func rollingMean(values []float64, period int) contracts.Column {
	out := contracts.NewColumn(len(values))
	if period <= 0 {
		return out
	}

	for i := period - 1; i < len(values); i++ {
		sum, ok := windowSum(values[i-period+1 : i+1])
		if ok {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// rollingStd returns the population (ddof=0) standard deviation over period values
func rollingStd(values []float64, period int) contracts.Column {
	out := contracts.NewColumn(len(values))
	if period <= 0 {
		return out
	}

	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]
		sum, ok := windowSum(window)
		if !ok {
			continue
		}
		mean := sum / float64(period)

		var sq float64
		for _, v := range window {
			d := v - mean
			sq += d * d
		}
		out[i] = math.Sqrt(sq / float64(period))
	}
	return out
}

// ema returns an exponential moving average with alpha = 2/(span+1).
// The recursion is seeded with the first defined value and the output
// becomes defined span-1 values after that seed.
func ema(values []float64, span int) contracts.Column {
	out := contracts.NewColumn(len(values))
	if span <= 0 {
		return out
	}

	start := -1
	for i, v := range values {
		if !math.IsNaN(v) {
			start = i
			break
		}
	}
	if start < 0 {
		return out
	}

	alpha := 2.0 / float64(span+1)
	avg := values[start]
	for i := start; i < len(values); i++ {
		if i > start {
			avg = alpha*values[i] + (1-alpha)*avg
		}
		if i >= start+span-1 {
			out[i] = avg
		}
	}
	return out
}

// sampleStd returns the ddof=1 standard deviation of the defined values, NaN below two values
func sampleStd(values []float64) float64 {
	var n int
	var sum float64
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		n++
		sum += v
	}
	if n < 2 {
		return math.NaN()
	}

	mean := sum / float64(n)
	var sq float64
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(n-1))
}

// pctChange returns v[i]/v[i-1]-1 with a NaN first entry
func pctChange(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i == 0 || values[i-1] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = values[i]/values[i-1] - 1
	}
	return out
}

func windowSum(window []float64) (float64, bool) {
	var sum float64
	for _, v := range window {
		if math.IsNaN(v) {
			return 0, false
		}
		sum += v
	}
	return sum, true
}

// tail returns the last n entries (all of them when n exceeds the length)
func tail(values []float64, n int) []float64 {
	if n >= len(values) {
		return values
	}
	return values[len(values)-n:]
}

// clamp bounds v to [lo, hi]; NaN and ±Inf are returned unchanged for the caller to handle
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return math.Max(lo, math.Min(hi, v))
}

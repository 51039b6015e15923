package contracts

import "math"

// Column is a derived indicator column aligned with the bar index.
// Undefined entries are NaN. A nil column means the indicator was not computed.
type Column []float64

// At returns the value at i, or NaN when the column is missing or i is out of range
func (c Column) At(i int) float64 {
	if i < 0 || i >= len(c) {
		return math.NaN()
	}
	return c[i]
}

// Defined reports whether the value at i is a real number
func (c Column) Defined(i int) bool {
	return !math.IsNaN(c.At(i))
}

// NewColumn returns a column of n NaN values
func NewColumn(n int) Column {
	c := make(Column, n)
	for i := range c {
		c[i] = math.NaN()
	}
	return c
}

// Frame is an OHLCV series augmented with indicator columns
// ⭐ SSOT: S2 지표 계산 결과
type Frame struct {
	Ticker string
	Bars   []Bar

	RSI        Column
	MACD       Column
	MACDSignal Column
	MACDHist   Column
	BBUpper    Column
	BBMiddle   Column
	BBLower    Column
	SMA20      Column
	SMA50      Column
	SMA200     Column
	TR         Column
	ATR        Column
}

// NewFrame wraps a series without any indicator columns
func NewFrame(s *Series) *Frame {
	if s == nil {
		return &Frame{}
	}
	return &Frame{Ticker: s.Ticker, Bars: s.Bars}
}

// Len returns the number of rows
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Bars)
}

// LastIndex returns the index of the most recent row, -1 when empty
func (f *Frame) LastIndex() int {
	return f.Len() - 1
}

// Close returns the close at row i, NaN when out of range
func (f *Frame) Close(i int) float64 {
	if i < 0 || i >= f.Len() {
		return math.NaN()
	}
	return f.Bars[i].Close
}

// Closes returns the close column
func (f *Frame) Closes() []float64 {
	out := make([]float64, f.Len())
	for i := range out {
		out[i] = f.Bars[i].Close
	}
	return out
}

package contracts

import (
	"fmt"
	"sort"
	"time"
)

// MinAnalysisBars is the shortest series the analyzer accepts
const MinAnalysisBars = 50

// Bar is one OHLCV bar
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Series is a date-ordered OHLCV history for one ticker
// ⭐ SSOT: S0 → S2 가격 데이터 전달
type Series struct {
	Ticker string `json:"ticker"`
	Source string `json:"source,omitempty"` // yahoo, polygon, scraper, stored
	Bars   []Bar  `json:"bars"`
}

// Len returns the number of bars (nil-safe)
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Empty reports whether the series has no bars
func (s *Series) Empty() bool {
	return s.Len() == 0
}

// Last returns the most recent bar. The series must not be empty.
func (s *Series) Last() Bar {
	return s.Bars[len(s.Bars)-1]
}

// Normalize sorts bars by date, keeps the last bar seen for a duplicated
// date, and drops bars whose close is not positive. Returns s.
func (s *Series) Normalize() *Series {
	if s == nil {
		return nil
	}

	// 같은 날짜 중복 시 나중 값 우선
	byDate := make(map[time.Time]int, len(s.Bars))
	out := make([]Bar, 0, len(s.Bars))
	for _, b := range s.Bars {
		if b.Close <= 0 {
			continue
		}
		day := dateKey(b.Date)
		if idx, ok := byDate[day]; ok {
			out[idx] = b
			continue
		}
		byDate[day] = len(out)
		out = append(out, b)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})

	s.Bars = out
	return s
}

// Validate checks the strictly increasing date invariant and value sanity
func (s *Series) Validate() error {
	if s.Empty() {
		return ErrNoData
	}

	for i, b := range s.Bars {
		if b.Volume < 0 {
			return fmt.Errorf("bar %d (%s): negative volume", i, b.Date.Format("2006-01-02"))
		}
		if b.High < b.Low {
			return fmt.Errorf("bar %d (%s): high below low", i, b.Date.Format("2006-01-02"))
		}
		if i > 0 && !dateKey(s.Bars[i-1].Date).Before(dateKey(b.Date)) {
			return fmt.Errorf("bar %d (%s): dates not strictly increasing", i, b.Date.Format("2006-01-02"))
		}
	}

	return nil
}

// Sufficient reports whether the series is long enough for analysis
func (s *Series) Sufficient() bool {
	return s.Len() >= MinAnalysisBars
}

// Closes returns the close column
func (s *Series) Closes() []float64 {
	out := make([]float64, s.Len())
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Highs returns the high column
func (s *Series) Highs() []float64 {
	out := make([]float64, s.Len())
	for i, b := range s.Bars {
		out[i] = b.High
	}
	return out
}

// Lows returns the low column
func (s *Series) Lows() []float64 {
	out := make([]float64, s.Len())
	for i, b := range s.Bars {
		out[i] = b.Low
	}
	return out
}

// Clone returns a deep copy
func (s *Series) Clone() *Series {
	if s == nil {
		return nil
	}
	bars := make([]Bar, len(s.Bars))
	copy(bars, s.Bars)
	return &Series{Ticker: s.Ticker, Source: s.Source, Bars: bars}
}

func dateKey(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

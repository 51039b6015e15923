package contracts

import (
	"encoding/json"
	"math"
	"time"
)

// TradeLevels is derived from the last row of a Frame (long only)
type TradeLevels struct {
	Entry      float64 `json:"entry_price"`
	StopLoss   float64 `json:"stop_loss"`
	Target     float64 `json:"target_price"`
	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`
	Risk       float64 `json:"risk"`
	Reward     float64 `json:"reward"`
	Ratio      float64 `json:"rr_ratio"` // 0 when risk <= 0
}

// SwingScore is the bounded favorability score with attributed reasons
type SwingScore struct {
	Score   float64  `json:"score"` // 0 ~ 100
	Reasons []string `json:"reasons"`
	RSI     float64  `json:"rsi"`   // NaN when unavailable
	MACD    float64  `json:"macd"`  // NaN when unavailable
	Close   float64  `json:"close"` // NaN when unavailable
}

type swingScoreJSON struct {
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
	RSI     *float64 `json:"rsi"`
	MACD    *float64 `json:"macd"`
	Close   *float64 `json:"close"`
}

// MarshalJSON encodes unavailable values as null
func (s SwingScore) MarshalJSON() ([]byte, error) {
	reasons := s.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return json.Marshal(swingScoreJSON{
		Score:   s.Score,
		Reasons: reasons,
		RSI:     finiteOrNil(s.RSI),
		MACD:    finiteOrNil(s.MACD),
		Close:   finiteOrNil(s.Close),
	})
}

// UnmarshalJSON decodes null values back to NaN
func (s *SwingScore) UnmarshalJSON(data []byte) error {
	var raw swingScoreJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Score = raw.Score
	s.Reasons = raw.Reasons
	s.RSI = nilOrNaN(raw.RSI)
	s.MACD = nilOrNaN(raw.MACD)
	s.Close = nilOrNaN(raw.Close)
	return nil
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func nilOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// EntryTime is the entry-timing recommendation
type EntryTime string

const (
	EntryImmediate      EntryTime = "Immediate (at support)"
	EntryOnDip          EntryTime = "On dip to support level"
	EntryAnalyzeFurther EntryTime = "Analyze further"
)

// InstrumentInfo holds display metadata for a ticker
type InstrumentInfo struct {
	Ticker    string  `json:"ticker"`
	Name      string  `json:"name"`
	Sector    string  `json:"sector"`
	MarketCap float64 `json:"market_cap,omitempty"`
	PERatio   float64 `json:"pe_ratio,omitempty"` // 0 when unknown
}

// NotAvailable is shown for unknown metadata
const NotAvailable = "N/A"

// UnknownInfo returns metadata with every field set to N/A
func UnknownInfo(ticker string) InstrumentInfo {
	return InstrumentInfo{Ticker: ticker, Name: NotAvailable, Sector: NotAvailable}
}

// Candidate is the per-ticker analysis output
// ⭐ SSOT: 분석 → 랭킹 결과 전달
type Candidate struct {
	Rank        int         `json:"rank,omitempty"` // 1-based, set by the ranker
	Ticker      string      `json:"ticker"`
	Name        string      `json:"name"`
	Sector      string      `json:"sector"`
	Levels      TradeLevels `json:"levels"`
	Swing       SwingScore  `json:"swing"`
	Probability float64     `json:"probability"` // 0 ~ 100
	EntryTime   EntryTime   `json:"entry_time"`
	PERatio     float64     `json:"pe_ratio,omitempty"`
	Bars        int         `json:"bars"`
	Source      string      `json:"source,omitempty"`
	AnalyzedAt  time.Time   `json:"analyzed_at"`
}

// RankedBefore reports whether c sorts ahead of other:
// probability descending, then swing score descending
func (c *Candidate) RankedBefore(other *Candidate) bool {
	if c.Probability != other.Probability {
		return c.Probability > other.Probability
	}
	return c.Swing.Score > other.Swing.Score
}

// RankingRun is one completed ranking request
type RankingRun struct {
	ID             int64       `json:"id,omitempty"`
	MinProbability float64     `json:"min_probability"`
	Limit          int         `json:"limit"`
	Requested      int         `json:"requested"`  // tickers submitted
	Analyzed       int         `json:"analyzed"`   // tickers that produced a candidate
	Candidates     []Candidate `json:"candidates"` // ranked output
	StrategyHash   string      `json:"strategy_hash,omitempty"`
	StartedAt      time.Time   `json:"started_at"`
	FinishedAt     time.Time   `json:"finished_at"`
}

// Duration returns the wall time of the run
func (r *RankingRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

package selection

import (
	"fmt"
	"math"

	"github.com/wonny/swing/backend/internal/contracts"
)

// CurrencySymbol prefixes every price in display output
const CurrencySymbol = "₹"

// DisplayCandidate is a Candidate formatted for the web and CLI
type DisplayCandidate struct {
	Rank         int      `json:"rank,omitempty"`
	Ticker       string   `json:"ticker"`
	Name         string   `json:"name"`
	Sector       string   `json:"sector"`
	CurrentPrice string   `json:"current_price"`
	EntryPrice   string   `json:"entry_price"`
	StopLoss     string   `json:"stop_loss"`
	TargetPrice  string   `json:"target_price"`
	Risk         string   `json:"risk"`
	Reward       string   `json:"reward"`
	RRRatio      string   `json:"rr_ratio"`
	Support      string   `json:"support"`
	Resistance   string   `json:"resistance"`
	EntryTime    string   `json:"entry_time"`
	SwingScore   string   `json:"swing_score"`
	Probability  string   `json:"probability_score"`
	RSI          string   `json:"rsi"`
	MACD         string   `json:"macd"`
	PERatio      string   `json:"pe_ratio"`
	Reasons      []string `json:"reasons"`
}

// FormatCandidate renders prices as ₹x.xx, the ratio as x.xx:1 and the
// scores with one decimal. Missing or zero RSI, MACD and P/E show N/A.
func FormatCandidate(c contracts.Candidate) DisplayCandidate {
	reasons := c.Swing.Reasons
	if reasons == nil {
		reasons = []string{}
	}

	return DisplayCandidate{
		Rank:         c.Rank,
		Ticker:       c.Ticker,
		Name:         c.Name,
		Sector:       c.Sector,
		CurrentPrice: price(c.Levels.Entry),
		EntryPrice:   price(c.Levels.Entry),
		StopLoss:     price(c.Levels.StopLoss),
		TargetPrice:  price(c.Levels.Target),
		Risk:         price(c.Levels.Risk),
		Reward:       price(c.Levels.Reward),
		RRRatio:      fmt.Sprintf("%.2f:1", c.Levels.Ratio),
		Support:      price(c.Levels.Support),
		Resistance:   price(c.Levels.Resistance),
		EntryTime:    string(c.EntryTime),
		SwingScore:   fmt.Sprintf("%.1f", c.Swing.Score),
		Probability:  fmt.Sprintf("%.1f%%", c.Probability),
		RSI:          optional("%.1f", c.Swing.RSI),
		MACD:         optional("%.4f", c.Swing.MACD),
		PERatio:      optional("%.2f", c.PERatio),
		Reasons:      reasons,
	}
}

// FormatCandidates formats a ranked list
func FormatCandidates(candidates []contracts.Candidate) []DisplayCandidate {
	out := make([]DisplayCandidate, len(candidates))
	for i, c := range candidates {
		out[i] = FormatCandidate(c)
	}
	return out
}

func price(v float64) string {
	return fmt.Sprintf("%s%.2f", CurrencySymbol, v)
}

func optional(format string, v float64) string {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return contracts.NotAvailable
	}
	return fmt.Sprintf(format, v)
}

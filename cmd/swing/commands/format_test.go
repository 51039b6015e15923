package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/internal/selection"
)

func sampleCandidate() selection.DisplayCandidate {
	return selection.FormatCandidate(contracts.Candidate{
		Rank:        1,
		Ticker:      "TCS.BO",
		Name:        "Tata Consultancy Services",
		Sector:      "Information Technology",
		Probability: 71.3,
		Levels: contracts.TradeLevels{
			Entry: 3500, StopLoss: 3400, Target: 3700,
			Risk: 100, Reward: 200, Ratio: 2,
		},
		Swing: contracts.SwingScore{Score: 65, RSI: 48.2, Reasons: []string{"Price above SMA20"}},
	})
}

func TestPrintCandidates(t *testing.T) {
	var buf bytes.Buffer
	PrintCandidates(&buf, []selection.DisplayCandidate{sampleCandidate()}, 10)

	out := buf.String()
	assert.Contains(t, out, "TOP 10 STOCKS FOR SWING TRADING (LONG)")
	assert.Contains(t, out, "1. TCS.BO - Tata Consultancy Services")
	assert.Contains(t, out, "Entry: ₹3500.00 | SL: ₹3400.00 | Target: ₹3700.00")
	assert.Contains(t, out, "Risk/Reward: ₹100.00/₹200.00 (2.00:1)")
	assert.Contains(t, out, "Swing Score: 65.0/100")
	assert.Contains(t, out, "Win Probability: 71.3%")
}

func TestPrintCandidates_Empty(t *testing.T) {
	var buf bytes.Buffer
	PrintCandidates(&buf, nil, 5)
	assert.Contains(t, buf.String(), "No stock met the probability threshold")
}

func TestPrintDetail(t *testing.T) {
	var buf bytes.Buffer
	PrintDetail(&buf, sampleCandidate())

	out := buf.String()
	assert.Contains(t, out, "TCS.BO - Tata Consultancy Services")
	assert.Contains(t, out, "RSI              : 48.2")
	assert.Contains(t, out, "MACD             : N/A")
	assert.Contains(t, out, "• Price above SMA20")
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"api", "rank", "analyze", "collect"} {
		assert.True(t, names[want], want)
	}
}

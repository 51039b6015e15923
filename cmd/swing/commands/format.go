package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/wonny/swing/backend/internal/selection"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const ruleWidth = 100

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
}

// PrintSeparator prints a visual separator
func PrintSeparator(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
}

// PrintHeader prints a title between double separators
func PrintHeader(w io.Writer, title string) {
	fmt.Fprintln(w)
	PrintDoubleSeparator(w)
	fmt.Fprintln(w, title)
	PrintDoubleSeparator(w)
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "\n⚠️  %s\n\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "✅ %s\n", message)
}

// PrintCandidate prints one ranked entry in the list layout
func PrintCandidate(w io.Writer, position int, c selection.DisplayCandidate) {
	fmt.Fprintf(w, "\n%d. %s - %s\n", position, c.Ticker, c.Name)
	fmt.Fprintf(w, "   Sector: %s\n", c.Sector)
	fmt.Fprintf(w, "   Current Price: %s\n", c.CurrentPrice)
	fmt.Fprintf(w, "   Entry: %s | SL: %s | Target: %s\n", c.EntryPrice, c.StopLoss, c.TargetPrice)
	fmt.Fprintf(w, "   Risk/Reward: %s/%s (%s)\n", c.Risk, c.Reward, c.RRRatio)
	fmt.Fprintf(w, "   Entry Time: %s\n", c.EntryTime)
	fmt.Fprintf(w, "   Swing Score: %s/100\n", c.SwingScore)
	fmt.Fprintf(w, "   Win Probability: %s\n", c.Probability)
}

// PrintCandidates prints a ranked list under a TOP N header
func PrintCandidates(w io.Writer, candidates []selection.DisplayCandidate, limit int) {
	PrintHeader(w, fmt.Sprintf("TOP %d STOCKS FOR SWING TRADING (LONG)", limit))

	if len(candidates) == 0 {
		PrintWarning(w, "No stock met the probability threshold")
		return
	}

	for i, c := range candidates {
		PrintCandidate(w, i+1, c)
	}
	fmt.Fprintln(w)
}

// PrintDetail prints a single analysis including indicators and reasons
func PrintDetail(w io.Writer, c selection.DisplayCandidate) {
	PrintHeader(w, fmt.Sprintf("%s - %s", c.Ticker, c.Name))
	PrintKeyValue(w, "Sector", c.Sector)
	PrintKeyValue(w, "Current Price", c.CurrentPrice)
	PrintKeyValue(w, "Entry", c.EntryPrice)
	PrintKeyValue(w, "Stop Loss", c.StopLoss)
	PrintKeyValue(w, "Target", c.TargetPrice)
	PrintKeyValue(w, "Risk/Reward", fmt.Sprintf("%s/%s (%s)", c.Risk, c.Reward, c.RRRatio))
	PrintKeyValue(w, "Support", c.Support)
	PrintKeyValue(w, "Resistance", c.Resistance)
	PrintKeyValue(w, "Entry Time", c.EntryTime)
	PrintKeyValue(w, "Swing Score", c.SwingScore+"/100")
	PrintKeyValue(w, "Win Probability", c.Probability)
	PrintKeyValue(w, "RSI", c.RSI)
	PrintKeyValue(w, "MACD", c.MACD)
	PrintKeyValue(w, "P/E", c.PERatio)

	PrintSeparator(w)
	fmt.Fprintln(w, "Reasons:")
	PrintList(w, c.Reasons)
}

// PrintList prints a bulleted list
func PrintList(w io.Writer, items []string) {
	for _, item := range items {
		fmt.Fprintf(w, "   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(w io.Writer, key string, value string) {
	fmt.Fprintf(w, "   %-16s : %s\n", key, value)
}

package contracts

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PeriodStart converts a history period such as "5d", "3mo", "1y" or "ytd"
// into the first date of the window ending at now
func PeriodStart(period string, now time.Time) (time.Time, error) {
	p := strings.ToLower(strings.TrimSpace(period))
	switch p {
	case "ytd":
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location()), nil
	case "max":
		return time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), nil
	}

	unitStart := strings.IndexFunc(p, func(r rune) bool { return r < '0' || r > '9' })
	if unitStart <= 0 {
		return time.Time{}, fmt.Errorf("invalid period %q", period)
	}

	n, err := strconv.Atoi(p[:unitStart])
	if err != nil || n <= 0 {
		return time.Time{}, fmt.Errorf("invalid period %q", period)
	}

	switch p[unitStart:] {
	case "d":
		return now.AddDate(0, 0, -n), nil
	case "wk":
		return now.AddDate(0, 0, -7*n), nil
	case "mo":
		return now.AddDate(0, -n, 0), nil
	case "y":
		return now.AddDate(-n, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("invalid period unit %q", period)
	}
}

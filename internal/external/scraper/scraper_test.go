package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/pkg/config"
	"github.com/wonny/swing/backend/pkg/httputil"
	"github.com/wonny/swing/backend/pkg/logger"
)

const historyPage = `<html><body>
<table class="nav"><tr><td>Home</td><td>Markets</td></tr></table>
<table class="historical">
  <thead><tr><th>Date</th><th>Price</th><th>Open</th><th>High</th><th>Low</th><th>Vol.</th><th>Change %</th></tr></thead>
  <tbody>
    <tr><td>Jun 14, 2024</td><td>2,950.50</td><td>2,930.00</td><td>2,961.20</td><td>2,921.00</td><td>1.25M</td><td>0.70%</td></tr>
    <tr><td>Jun 13, 2024</td><td>2,930.00</td><td>2,900.00</td><td>2,940.00</td><td>2,890.10</td><td>850.5K</td><td>1.03%</td></tr>
    <tr><td>Jun 12, 2024</td><td>-</td><td>-</td><td>-</td><td>-</td><td>-</td><td>-</td></tr>
    <tr><td>Jan 02, 2024</td><td>2,600.00</td><td>2,590.00</td><td>2,610.00</td><td>2,580.00</td><td>900K</td><td>0.10%</td></tr>
  </tbody>
</table>
</body></html>`

const overviewPage = `<html><body>
<h1> Reliance Industries Ltd (RELI) </h1>
<table>
  <tr><td>Market Cap</td><td>19.96T</td></tr>
  <tr><td>P/E Ratio</td><td>28.4</td></tr>
</table>
<dl><dt>Industry</dt><dd>Oil &amp; Gas Refining</dd><dt>Sector</dt><dd>Energy</dd></dl>
</body></html>`

func newTestScraper(t *testing.T, handler http.HandlerFunc) *Scraper {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := httputil.New(&config.Config{}, logger.NewNop()).DisableRetry()
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	return New(httpClient, server.URL, logger.NewNop()).WithClock(func() time.Time { return now })
}

func TestFetchHistory(t *testing.T) {
	s := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/equities/reliance-stock-historical-data", r.URL.Path)
		w.Write([]byte(historyPage))
	})

	series, err := s.FetchHistory(context.Background(), "RELIANCE.BO", "1mo", "1d")
	require.NoError(t, err)

	require.Len(t, series.Bars, 2, "placeholder row skipped, January row outside the period")
	assert.Equal(t, SourceName, series.Source)
	assert.Equal(t, time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC), series.Bars[0].Date)
	assert.Equal(t, 2930.0, series.Bars[0].Close)
	assert.Equal(t, 2900.0, series.Bars[0].Open)
	assert.Equal(t, int64(850500), series.Bars[0].Volume)
	assert.Equal(t, int64(1250000), series.Bars[1].Volume)
	assert.NoError(t, series.Validate())
}

func TestFetchHistory_Errors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		s := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		_, err := s.FetchHistory(context.Background(), "NOPE.BO", "3mo", "1d")
		assert.True(t, errors.Is(err, contracts.ErrNoData))
	})

	t.Run("no table", func(t *testing.T) {
		s := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html><body><p>blocked</p></body></html>`))
		})
		_, err := s.FetchHistory(context.Background(), "TCS.BO", "3mo", "1d")
		assert.True(t, errors.Is(err, contracts.ErrNoData))
	})

	t.Run("bad period", func(t *testing.T) {
		s := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})
		_, err := s.FetchHistory(context.Background(), "TCS.BO", "sometime", "1d")
		assert.Error(t, err)
	})
}

func TestInfo(t *testing.T) {
	s := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/equities/reliance", r.URL.Path)
		w.Write([]byte(overviewPage))
	})

	info, err := s.Info(context.Background(), "RELIANCE.BO")
	require.NoError(t, err)
	assert.Equal(t, "Reliance Industries Ltd (RELI)", info.Name)
	assert.Equal(t, "Energy", info.Sector)
	assert.Equal(t, 28.4, info.PERatio)
	assert.InDelta(t, 19.96e12, info.MarketCap, 1)
}

func TestParseHelpers(t *testing.T) {
	d, ok := parseDate("14.06.2024")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC), d)

	_, ok = parseDate("yesterday")
	assert.False(t, ok)

	v, ok := parseNumber("₹ 1,234.5")
	require.True(t, ok)
	assert.Equal(t, 1234.5, v)

	_, ok = parseNumber("-")
	assert.False(t, ok)

	assert.Equal(t, int64(2300), parseVolume("2.3K"))
	assert.Equal(t, int64(0), parseVolume(""))
	assert.Equal(t, 4e9, parseScaled("4B"))
}

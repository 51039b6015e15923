package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/internal/s1_universe"
	"github.com/wonny/swing/backend/pkg/httputil"
	"github.com/wonny/swing/backend/pkg/logger"
)

// DefaultBaseURL is the Indian edition of investing.com
const DefaultBaseURL = "https://in.investing.com"

// SourceName tags series scraped here
const SourceName = "scraper"

// dateLayouts seen in historical tables
var dateLayouts = []string{
	"Jan 02, 2006",
	"02.01.2006",
	"02-01-2006",
	"2006-01-02",
	"02/01/2006",
	"Jan 2, 2006",
}

var numberRe = regexp.MustCompile(`-?[\d,]+(\.\d+)?`)

// Scraper reads the historical-data table of an equity page
// ⭐ SSOT: HTML 스크래핑 fallback은 여기서만
type Scraper struct {
	httpClient *httputil.Client
	baseURL    string
	now        func() time.Time
	logger     *logger.Logger
}

// New creates a scraper. An empty baseURL uses DefaultBaseURL.
func New(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Scraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Scraper{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		now:        time.Now,
		logger:     log,
	}
}

// WithClock overrides the clock used for the period filter
func (s *Scraper) WithClock(now func() time.Time) *Scraper {
	s.now = now
	return s
}

// Name identifies the source in logs and chains
func (s *Scraper) Name() string {
	return SourceName
}

// FetchHistory implements contracts.HistorySource. interval is ignored:
// the table is always daily.
func (s *Scraper) FetchHistory(ctx context.Context, ticker, period, interval string) (*contracts.Series, error) {
	from, err := contracts.PeriodStart(period, s.now())
	if err != nil {
		return nil, err
	}

	doc, err := s.page(ctx, ticker, "-stock-historical-data")
	if err != nil {
		return nil, err
	}

	series := parseHistory(ticker, doc)
	series.Bars = trimBefore(series.Bars, from)
	if series.Empty() {
		return nil, fmt.Errorf("scraper %s: %w", ticker, contracts.ErrNoData)
	}

	s.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"bars":   series.Len(),
	}).Debug("Scraped historical table")

	return series, nil
}

// Info implements contracts.InfoSource from the overview page
func (s *Scraper) Info(ctx context.Context, ticker string) (contracts.InstrumentInfo, error) {
	doc, err := s.page(ctx, ticker, "")
	if err != nil {
		return contracts.InstrumentInfo{}, err
	}

	info := parseInfo(ticker, doc)
	if info.Name == "" && info.Sector == "" {
		return contracts.InstrumentInfo{}, fmt.Errorf("scraper %s: %w", ticker, contracts.ErrNoData)
	}
	return info, nil
}

func (s *Scraper) page(ctx context.Context, ticker, suffix string) (*goquery.Document, error) {
	symbol := strings.ToLower(s1_universe.Symbol(ticker))
	if symbol == "" {
		return nil, fmt.Errorf("scraper: empty ticker")
	}
	url := fmt.Sprintf("%s/equities/%s%s", s.baseURL, symbol, suffix)

	body, err := s.httpClient.GetBody(ctx, url)
	if err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("scraper %s: %w", ticker, contracts.ErrNoData)
		}
		return nil, fmt.Errorf("scraper %s: %w", ticker, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("scraper %s: parse html: %w", ticker, err)
	}
	return doc, nil
}

// parseHistory reads the first table that yields any price rows.
// 컬럼: 날짜 | 종가 | 시가 | 고가 | 저가 | 거래량(선택)
func parseHistory(ticker string, doc *goquery.Document) *contracts.Series {
	series := &contracts.Series{Ticker: ticker, Source: SourceName}

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() < 5 {
				return
			}

			date, ok := parseDate(cells.Eq(0).Text())
			if !ok {
				return
			}

			closePrice, okC := parseNumber(cells.Eq(1).Text())
			open, okO := parseNumber(cells.Eq(2).Text())
			high, okH := parseNumber(cells.Eq(3).Text())
			low, okL := parseNumber(cells.Eq(4).Text())
			if !okC || !okO || !okH || !okL {
				return
			}

			var volume int64
			if cells.Length() > 5 {
				volume = parseVolume(cells.Eq(5).Text())
			}

			series.Bars = append(series.Bars, contracts.Bar{
				Date:   date,
				Open:   open,
				High:   high,
				Low:    low,
				Close:  closePrice,
				Volume: volume,
			})
		})
		return series.Empty()
	})

	return series.Normalize()
}

func parseInfo(ticker string, doc *goquery.Document) contracts.InstrumentInfo {
	info := contracts.InstrumentInfo{Ticker: ticker}
	info.Name = strings.TrimSpace(doc.Find("h1").First().Text())

	// label 셀 다음 셀이 값
	doc.Find("td, dt").Each(func(_ int, cell *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(cell.Text()))
		value := strings.TrimSpace(cell.Next().Text())
		if value == "" {
			return
		}

		switch {
		case label == "sector" || (label == "industry" && info.Sector == ""):
			info.Sector = value
		case strings.HasPrefix(label, "p/e ratio"):
			if v, ok := parseNumber(value); ok {
				info.PERatio = v
			}
		case strings.HasPrefix(label, "market cap"):
			info.MarketCap = parseScaled(value)
		}
	})

	return info
}

func parseDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseNumber(text string) (float64, bool) {
	match := numberRe.FindString(strings.TrimSpace(text))
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseScaled handles the K/M/B/T suffixes used for volume and market cap
func parseScaled(text string) float64 {
	text = strings.ToUpper(strings.TrimSpace(text))
	v, ok := parseNumber(text)
	if !ok {
		return 0
	}

	switch {
	case strings.HasSuffix(text, "K"):
		v *= 1e3
	case strings.HasSuffix(text, "M"):
		v *= 1e6
	case strings.HasSuffix(text, "B"):
		v *= 1e9
	case strings.HasSuffix(text, "T"):
		v *= 1e12
	}
	return v
}

func parseVolume(text string) int64 {
	v := parseScaled(text)
	if v < 0 {
		return 0
	}
	return int64(math.Round(v))
}

func trimBefore(bars []contracts.Bar, from time.Time) []contracts.Bar {
	cutoff := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	for i, b := range bars {
		if !b.Date.Before(cutoff) {
			return bars[i:]
		}
	}
	return nil
}

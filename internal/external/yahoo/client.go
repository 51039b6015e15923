package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/pkg/httputil"
	"github.com/wonny/swing/backend/pkg/logger"
)

// DefaultBaseURL is the public chart API host
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// SourceName tags series fetched here
const SourceName = "yahoo"

// Client fetches daily history from the Yahoo Finance chart API
// ⭐ SSOT: Yahoo chart API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Yahoo Finance client. An empty baseURL uses DefaultBaseURL.
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Name identifies the source in logs and chains
func (c *Client) Name() string {
	return SourceName
}

// FetchHistory implements contracts.HistorySource
func (c *Client) FetchHistory(ctx context.Context, ticker, period, interval string) (*contracts.Series, error) {
	result, err := c.chart(ctx, ticker, period, interval)
	if err != nil {
		return nil, err
	}

	series := result.toSeries(ticker)
	if series.Empty() {
		return nil, fmt.Errorf("yahoo %s: %w", ticker, contracts.ErrNoData)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"period": period,
		"bars":   series.Len(),
	}).Debug("Fetched yahoo history")

	return series, nil
}

// Info implements contracts.InfoSource from the chart metadata
func (c *Client) Info(ctx context.Context, ticker string) (contracts.InstrumentInfo, error) {
	result, err := c.chart(ctx, ticker, "5d", "1d")
	if err != nil {
		return contracts.InstrumentInfo{}, err
	}

	name := result.Meta.LongName
	if name == "" {
		name = result.Meta.ShortName
	}
	if name == "" {
		return contracts.InstrumentInfo{}, fmt.Errorf("yahoo %s: no name in metadata", ticker)
	}

	return contracts.InstrumentInfo{Ticker: ticker, Name: name}, nil
}

func (c *Client) chart(ctx context.Context, ticker, period, interval string) (*chartResult, error) {
	params := url.Values{}
	params.Set("range", period)
	params.Set("interval", interval)
	params.Set("includePrePost", "false")
	params.Set("events", "div,split")

	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(ticker), params.Encode())

	var resp chartResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &resp); err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("yahoo %s: %w", ticker, contracts.ErrNoData)
		}
		return nil, fmt.Errorf("yahoo %s: %w", ticker, err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo %s: %w: %s", ticker, contracts.ErrNoData, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", ticker, contracts.ErrNoData)
	}

	return &resp.Chart.Result[0], nil
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol             string  `json:"symbol"`
		Currency           string  `json:"currency"`
		ExchangeName       string  `json:"exchangeName"`
		LongName           string  `json:"longName"`
		ShortName          string  `json:"shortName"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
		ExchangeTimezone   string  `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// toSeries drops rows with a missing price (holidays come back as null)
func (r *chartResult) toSeries(ticker string) *contracts.Series {
	series := &contracts.Series{Ticker: ticker, Source: SourceName}
	if len(r.Indicators.Quote) == 0 {
		return series
	}
	q := r.Indicators.Quote[0]

	loc := time.UTC
	if r.Meta.ExchangeTimezone != "" {
		if l, err := time.LoadLocation(r.Meta.ExchangeTimezone); err == nil {
			loc = l
		}
	}

	for i, ts := range r.Timestamp {
		open, okO := at(q.Open, i)
		high, okH := at(q.High, i)
		low, okL := at(q.Low, i)
		closePrice, okC := at(q.Close, i)
		if !okO || !okH || !okL || !okC {
			continue
		}
		volume, _ := at(q.Volume, i)

		local := time.Unix(ts, 0).In(loc)
		series.Bars = append(series.Bars, contracts.Bar{
			Date:   time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: int64(volume),
		})
	}

	return series.Normalize()
}

func at(values []*float64, i int) (float64, bool) {
	if i >= len(values) || values[i] == nil {
		return 0, false
	}
	return *values[i], true
}

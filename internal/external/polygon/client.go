package polygon

import (
	"context"
	"errors"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/iter"
	"github.com/polygon-io/client-go/rest/models"
	"golang.org/x/time/rate"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/internal/s1_universe"
	"github.com/wonny/swing/backend/pkg/logger"
	"github.com/wonny/swing/backend/pkg/redis"
)

// SourceName tags series fetched here
const SourceName = "polygon"

// DefaultRatePerMinute matches the polygon.io free tier
const DefaultRatePerMinute = 5

// maxAggs caps one aggregates request
const maxAggs = 5000

// ErrNoAPIKey is returned by NewClient without a key
var ErrNoAPIKey = errors.New("polygon api key not configured")

// API is the subset of the polygon REST client used here
type API interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) *iter.Iter[models.Agg]
	GetTickerDetails(ctx context.Context, params *models.GetTickerDetailsParams, options ...models.RequestOption) (*models.GetTickerDetailsResponse, error)
}

// Client fetches aggregates and ticker details from polygon.io
// ⭐ SSOT: polygon.io 호출은 이 클라이언트에서만
type Client struct {
	api     API
	shared  *redis.RateLimiter // 프로세스 간 공유 한도 (Redis 비활성 시 no-op)
	limiter *rate.Limiter
	limit   redis.RateLimitConfig
	now     func() time.Time
	logger  *logger.Logger
}

// NewClient creates a polygon client from an API key
func NewClient(apiKey string, ratePerMinute int, shared *redis.RateLimiter, log *logger.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewWithAPI(polygon.New(apiKey), ratePerMinute, shared, log), nil
}

// NewWithAPI wraps an existing API implementation
func NewWithAPI(api API, ratePerMinute int, shared *redis.RateLimiter, log *logger.Logger) *Client {
	if ratePerMinute <= 0 {
		ratePerMinute = DefaultRatePerMinute
	}
	return &Client{
		api:     api,
		shared:  shared,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(ratePerMinute)), 1),
		limit:   redis.PolygonRateLimit(ratePerMinute),
		now:     time.Now,
		logger:  log,
	}
}

// WithClock overrides the clock used to resolve the period window
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

// WithLimiter replaces the local limiter (nil disables it)
func (c *Client) WithLimiter(limiter *rate.Limiter) *Client {
	c.limiter = limiter
	return c
}

// Name identifies the source in logs and chains
func (c *Client) Name() string {
	return SourceName
}

// FetchHistory implements contracts.HistorySource
func (c *Client) FetchHistory(ctx context.Context, ticker, period, interval string) (*contracts.Series, error) {
	timespan, multiplier, err := timespanFor(interval)
	if err != nil {
		return nil, err
	}

	now := c.now().UTC()
	from, err := contracts.PeriodStart(period, now)
	if err != nil {
		return nil, err
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	params := models.ListAggsParams{
		Ticker:     s1_universe.Symbol(ticker),
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(from),
		To:         models.Millis(now),
	}.
		WithAdjusted(true).
		WithOrder(models.Order("asc")).
		WithLimit(maxAggs)

	it := c.api.ListAggs(ctx, params)
	var aggs []models.Agg
	for it.Next() {
		aggs = append(aggs, it.Item())
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("polygon %s: %w", ticker, err)
	}

	series := toSeries(ticker, aggs)
	if series.Empty() {
		return nil, fmt.Errorf("polygon %s: %w", ticker, contracts.ErrNoData)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"period": period,
		"bars":   series.Len(),
	}).Debug("Fetched polygon aggregates")

	return series, nil
}

// Info implements contracts.InfoSource from ticker details
func (c *Client) Info(ctx context.Context, ticker string) (contracts.InstrumentInfo, error) {
	if err := c.wait(ctx); err != nil {
		return contracts.InstrumentInfo{}, err
	}

	res, err := c.api.GetTickerDetails(ctx, &models.GetTickerDetailsParams{
		Ticker: s1_universe.Symbol(ticker),
	})
	if err != nil {
		return contracts.InstrumentInfo{}, fmt.Errorf("polygon details %s: %w", ticker, err)
	}
	if res == nil {
		return contracts.InstrumentInfo{}, fmt.Errorf("polygon details %s: %w", ticker, contracts.ErrNoData)
	}

	return detailsToInfo(ticker, res), nil
}

// wait honors both the shared Redis window and the local limiter
func (c *Client) wait(ctx context.Context) error {
	if c.shared != nil {
		if err := c.shared.Wait(ctx, c.limit); err != nil {
			return fmt.Errorf("polygon rate limit: %w", err)
		}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("polygon rate limit: %w", err)
		}
	}
	return nil
}

func timespanFor(interval string) (models.Timespan, int, error) {
	switch interval {
	case "", "1d":
		return models.Timespan("day"), 1, nil
	case "1wk":
		return models.Timespan("week"), 1, nil
	case "1mo":
		return models.Timespan("month"), 1, nil
	default:
		return "", 0, fmt.Errorf("polygon: unsupported interval %q", interval)
	}
}

func toSeries(ticker string, aggs []models.Agg) *contracts.Series {
	series := &contracts.Series{Ticker: ticker, Source: SourceName}
	for _, agg := range aggs {
		ts := time.Time(agg.Timestamp).UTC()
		series.Bars = append(series.Bars, contracts.Bar{
			Date:   time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: int64(agg.Volume),
		})
	}
	return series.Normalize()
}

func detailsToInfo(ticker string, res *models.GetTickerDetailsResponse) contracts.InstrumentInfo {
	return contracts.InstrumentInfo{
		Ticker:    ticker,
		Name:      res.Results.Name,
		Sector:    res.Results.SICDescription,
		MarketCap: res.Results.MarketCap,
	}
}

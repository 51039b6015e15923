package polygon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/iter"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/pkg/logger"
	"github.com/wonny/swing/backend/pkg/redis"
)

type fakeAPI struct {
	details *models.GetTickerDetailsResponse
	err     error
	tickers []string
}

func (f *fakeAPI) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) *iter.Iter[models.Agg] {
	f.tickers = append(f.tickers, params.Ticker)
	return nil
}

func (f *fakeAPI) GetTickerDetails(ctx context.Context, params *models.GetTickerDetailsParams, options ...models.RequestOption) (*models.GetTickerDetailsResponse, error) {
	f.tickers = append(f.tickers, params.Ticker)
	return f.details, f.err
}

func newTestClient(api API) *Client {
	limiter := redis.NewRateLimiter(redis.NewDisabled(), "test")
	return NewWithAPI(api, 60, limiter, logger.NewNop()).WithLimiter(nil)
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient("", 5, nil, logger.NewNop())
	assert.True(t, errors.Is(err, ErrNoAPIKey))

	c, err := NewClient("key", 0, nil, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, DefaultRatePerMinute, c.limit.Limit)
	assert.Equal(t, "polygon", c.limit.Key)
}

func TestToSeries(t *testing.T) {
	day := func(d int, hour int) models.Millis {
		return models.Millis(time.Date(2024, 3, d, hour, 0, 0, 0, time.UTC))
	}

	aggs := []models.Agg{
		{Timestamp: day(5, 5), Open: 10, High: 12, Low: 9, Close: 11, Volume: 1500.7},
		{Timestamp: day(4, 5), Open: 9, High: 10, Low: 8, Close: 9.5, Volume: 1000},
		{Timestamp: day(6, 5), Open: 11, High: 11, Low: 11, Close: 0, Volume: 0},
	}

	series := toSeries("AAPL", aggs)
	require.Len(t, series.Bars, 2, "zero close dropped")
	assert.Equal(t, SourceName, series.Source)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), series.Bars[0].Date)
	assert.Equal(t, 11.0, series.Bars[1].Close)
	assert.Equal(t, int64(1500), series.Bars[1].Volume)
	assert.NoError(t, series.Validate())

	assert.True(t, toSeries("AAPL", nil).Empty())
}

func TestTimespanFor(t *testing.T) {
	tests := []struct {
		interval string
		want     models.Timespan
		wantErr  bool
	}{
		{"1d", models.Timespan("day"), false},
		{"", models.Timespan("day"), false},
		{"1wk", models.Timespan("week"), false},
		{"1mo", models.Timespan("month"), false},
		{"5m", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.interval, func(t *testing.T) {
			got, mult, err := timespanFor(tt.interval)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1, mult)
		})
	}
}

func TestFetchHistory_BadArguments(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(api)

	_, err := c.FetchHistory(context.Background(), "TCS.BO", "3mo", "5m")
	assert.Error(t, err)

	_, err = c.FetchHistory(context.Background(), "TCS.BO", "forever", "1d")
	assert.Error(t, err)

	assert.Empty(t, api.tickers, "no request for invalid arguments")
}

func TestInfo(t *testing.T) {
	details := &models.GetTickerDetailsResponse{}
	details.Results.Name = "Infosys Ltd"
	details.Results.SICDescription = "SERVICES-COMPUTER PROGRAMMING"
	details.Results.MarketCap = 7.5e10

	api := &fakeAPI{details: details}
	c := newTestClient(api)

	info, err := c.Info(context.Background(), "infy.bo")
	require.NoError(t, err)
	assert.Equal(t, "Infosys Ltd", info.Name)
	assert.Equal(t, "SERVICES-COMPUTER PROGRAMMING", info.Sector)
	assert.Equal(t, 7.5e10, info.MarketCap)
	assert.Equal(t, []string{"INFY"}, api.tickers, "exchange suffix stripped")
}

func TestInfo_Errors(t *testing.T) {
	c := newTestClient(&fakeAPI{err: errors.New("NOT_FOUND")})
	_, err := c.Info(context.Background(), "XYZ.BO")
	assert.ErrorContains(t, err, "NOT_FOUND")

	c = newTestClient(&fakeAPI{})
	_, err = c.Info(context.Background(), "XYZ.BO")
	assert.True(t, errors.Is(err, contracts.ErrNoData))
}

func TestWait_Cancelled(t *testing.T) {
	c := NewWithAPI(&fakeAPI{}, 1, nil, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, c.wait(ctx), "first token is free")

	cancel()
	assert.Error(t, c.wait(ctx))
}

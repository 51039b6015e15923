package s1_universe

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/pkg/logger"
	"github.com/wonny/swing/backend/pkg/redis"
)

// ErrUnknownTicker is returned for a ticker outside the catalog
var ErrUnknownTicker = errors.New("unknown ticker")

// Info implements contracts.InfoSource from the catalog alone
func (c *Catalog) Info(ctx context.Context, ticker string) (contracts.InstrumentInfo, error) {
	inst, ok := c.Lookup(ticker)
	if !ok {
		return contracts.InstrumentInfo{}, fmt.Errorf("%w: %s", ErrUnknownTicker, ticker)
	}
	return contracts.InstrumentInfo{Ticker: inst.Ticker, Name: inst.Name, Sector: inst.Sector}, nil
}

// InfoSource resolves display metadata: catalog first, then each fallback
// source fills the fields still missing. Results are cached in Redis when enabled.
type InfoSource struct {
	catalog   *Catalog
	fallbacks []contracts.InfoSource
	cache     *redis.Cache
	logger    *logger.Logger
}

// NewInfoSource creates a layered info source. cache may be nil.
func NewInfoSource(catalog *Catalog, cache *redis.Cache, log *logger.Logger, fallbacks ...contracts.InfoSource) *InfoSource {
	return &InfoSource{
		catalog:   catalog,
		fallbacks: fallbacks,
		cache:     cache,
		logger:    log,
	}
}

// Info never returns an error for a well-formed ticker: unknown fields are N/A
func (s *InfoSource) Info(ctx context.Context, ticker string) (contracts.InstrumentInfo, error) {
	ticker = s.catalog.NormalizeTicker(ticker)
	if ticker == "" {
		return contracts.InstrumentInfo{}, fmt.Errorf("%w: empty ticker", ErrUnknownTicker)
	}

	var cached contracts.InstrumentInfo
	if found, err := s.cache.Get(ctx, redis.InfoKey(ticker), &cached); err != nil {
		s.logger.WithTicker(ticker).WithError(err).Debug("Info cache read failed")
	} else if found {
		return cached, nil
	}

	info, _ := s.catalog.Info(ctx, ticker)
	info.Ticker = ticker

	for _, fb := range s.fallbacks {
		if complete(info) {
			break
		}

		more, err := fb.Info(ctx, ticker)
		if err != nil {
			s.logger.WithTicker(ticker).WithError(err).Debug("Info fallback failed")
			continue
		}
		merge(&info, more)
	}

	resolved := complete(info) || info.Name != ""
	if info.Name == "" {
		info.Name = contracts.NotAvailable
	}
	if info.Sector == "" {
		info.Sector = contracts.NotAvailable
	}

	// N/A만 있는 결과는 캐시하지 않음
	if resolved {
		if err := s.cache.Set(ctx, redis.InfoKey(ticker), info, redis.TTLInfo); err != nil {
			s.logger.WithTicker(ticker).WithError(err).Debug("Info cache write failed")
		}
	}

	return info, nil
}

func complete(info contracts.InstrumentInfo) bool {
	return info.Name != "" && info.Sector != "" && info.PERatio > 0 && info.MarketCap > 0
}

// merge copies fields of src that dst lacks
func merge(dst *contracts.InstrumentInfo, src contracts.InstrumentInfo) {
	if dst.Name == "" || dst.Name == contracts.NotAvailable {
		if src.Name != contracts.NotAvailable {
			dst.Name = src.Name
		}
	}
	if dst.Sector == "" || dst.Sector == contracts.NotAvailable {
		if src.Sector != contracts.NotAvailable {
			dst.Sector = src.Sector
		}
	}
	if dst.PERatio == 0 {
		dst.PERatio = src.PERatio
	}
	if dst.MarketCap == 0 {
		dst.MarketCap = src.MarketCap
	}
}

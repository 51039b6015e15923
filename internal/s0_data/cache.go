package s0_data

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/pkg/logger"
	"github.com/wonny/swing/backend/pkg/redis"
)

// DefaultHistoryTTL bounds how long a fetched series is reused
const DefaultHistoryTTL = 5 * time.Minute

type cacheEntry struct {
	series    *contracts.Series
	expiresAt time.Time
}

// HistoryCache memoizes a history source per (ticker, period, interval).
// The in-process map is the first tier; Redis, when enabled, is the second.
// Failed and empty fetches are never cached.
type HistoryCache struct {
	source contracts.HistorySource
	ttl    time.Duration
	now    func() time.Time
	redis  *redis.Cache
	logger *logger.Logger

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewHistoryCache wraps source. ttl <= 0 uses DefaultHistoryTTL; shared may be nil.
func NewHistoryCache(source contracts.HistorySource, ttl time.Duration, shared *redis.Cache, log *logger.Logger) *HistoryCache {
	if ttl <= 0 {
		ttl = DefaultHistoryTTL
	}
	return &HistoryCache{
		source:  source,
		ttl:     ttl,
		now:     time.Now,
		redis:   shared,
		logger:  log,
		entries: make(map[string]cacheEntry),
	}
}

// WithClock injects the clock used for expiry
func (c *HistoryCache) WithClock(now func() time.Time) *HistoryCache {
	c.now = now
	return c
}

// FetchHistory implements contracts.HistorySource.
// Callers get a private copy and may modify it.
func (c *HistoryCache) FetchHistory(ctx context.Context, ticker, period, interval string) (*contracts.Series, error) {
	key := cacheKey(ticker, period, interval)

	if series, ok := c.get(key); ok {
		return series.Clone(), nil
	}

	var shared contracts.Series
	if found, err := c.redis.Get(ctx, redis.HistoryKey(ticker, period, interval), &shared); err != nil {
		c.logger.WithTicker(ticker).WithError(err).Debug("History cache read failed")
	} else if found && !shared.Empty() {
		c.put(key, &shared)
		return shared.Clone(), nil
	}

	series, err := c.source.FetchHistory(ctx, ticker, period, interval)
	if err != nil {
		return nil, err
	}
	if series.Empty() {
		return series, nil
	}

	stored := series.Clone()
	c.put(key, stored)
	if err := c.redis.Set(ctx, redis.HistoryKey(ticker, period, interval), stored, c.ttl); err != nil {
		c.logger.WithTicker(ticker).WithError(err).Debug("History cache write failed")
	}

	return series, nil
}

// Invalidate drops every cached period of a ticker from the local tier
func (c *HistoryCache) Invalidate(ticker string) {
	prefix := strings.ToUpper(ticker) + "|"

	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

// Purge removes expired entries and returns how many were dropped
func (c *HistoryCache) Purge() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries in the local tier, expired ones included
func (c *HistoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *HistoryCache) get(key string) (*contracts.Series, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.series, true
}

func (c *HistoryCache) put(key string, series *contracts.Series) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{series: series, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func cacheKey(ticker, period, interval string) string {
	return strings.ToUpper(ticker) + "|" + period + "|" + interval
}

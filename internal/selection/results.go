package selection

import (
	"context"
	"sync"
	"time"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/pkg/logger"
	"github.com/wonny/swing/backend/pkg/redis"
)

// DefaultResultTTL is how long a ranked list is served before re-ranking
const DefaultResultTTL = 15 * time.Minute

// CachedRanking is a ranked list with the time it was produced
type CachedRanking struct {
	Candidates []contracts.Candidate `json:"candidates"`
	RankedAt   time.Time             `json:"ranked_at"`
}

type resultKey struct {
	minProbability float64
	limit          int
}

type resultEntry struct {
	ranking   CachedRanking
	expiresAt time.Time
}

// ResultCache keeps ranked lists per (min probability, limit).
// The in-process map is the first tier; Redis, when enabled, is the second.
// ⭐ SSOT: 랭킹 결과 캐시는 여기서만
type ResultCache struct {
	ttl    time.Duration
	now    func() time.Time
	redis  *redis.Cache
	logger *logger.Logger

	mu      sync.RWMutex
	entries map[resultKey]resultEntry
}

// NewResultCache creates a result cache. ttl <= 0 uses DefaultResultTTL; shared may be nil.
func NewResultCache(ttl time.Duration, shared *redis.Cache, log *logger.Logger) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &ResultCache{
		ttl:     ttl,
		now:     time.Now,
		redis:   shared,
		logger:  log,
		entries: make(map[resultKey]resultEntry),
	}
}

// WithClock injects the clock used for expiry
func (c *ResultCache) WithClock(now func() time.Time) *ResultCache {
	c.now = now
	return c
}

// Get returns a fresh ranking for the key, if any
func (c *ResultCache) Get(ctx context.Context, minProbability float64, limit int) (*CachedRanking, bool) {
	key := resultKey{minProbability: minProbability, limit: limit}

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Before(e.expiresAt) {
		ranking := e.ranking
		return &ranking, true
	}

	var shared CachedRanking
	found, err := c.redis.Get(ctx, redis.RankingKey(minProbability, limit), &shared)
	if err != nil {
		c.logger.WithError(err).Debug("Ranking cache read failed")
		return nil, false
	}
	if !found {
		return nil, false
	}

	c.store(key, shared)
	return &shared, true
}

// Put stores a ranking under the key
func (c *ResultCache) Put(ctx context.Context, minProbability float64, limit int, ranking CachedRanking) {
	if ranking.Candidates == nil {
		ranking.Candidates = []contracts.Candidate{}
	}
	c.store(resultKey{minProbability: minProbability, limit: limit}, ranking)

	if err := c.redis.Set(ctx, redis.RankingKey(minProbability, limit), ranking, c.ttl); err != nil {
		c.logger.WithError(err).Debug("Ranking cache write failed")
	}
}

// PutRun stores a completed ranking run under its own threshold and limit
func (c *ResultCache) PutRun(ctx context.Context, run *contracts.RankingRun) {
	c.Put(ctx, run.MinProbability, run.Limit, CachedRanking{
		Candidates: run.Candidates,
		RankedAt:   run.FinishedAt,
	})
}

// Clear drops the local tier
func (c *ResultCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[resultKey]resultEntry)
	c.mu.Unlock()
}

func (c *ResultCache) store(key resultKey, ranking CachedRanking) {
	c.mu.Lock()
	c.entries[key] = resultEntry{ranking: ranking, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

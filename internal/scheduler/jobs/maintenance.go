package jobs

import (
	"context"

	"github.com/wonny/swing/backend/pkg/logger"
)

// Purger drops expired cache entries
type Purger interface {
	Purge() int
}

// CacheCleanupJob evicts expired history entries from the in-process cache
type CacheCleanupJob struct {
	cache  Purger
	logger *logger.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job
func NewCacheCleanupJob(cache Purger, log *logger.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{
		cache:  cache,
		logger: log,
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *CacheCleanupJob) Schedule() string {
	return "0 */5 * * * *" // Every 5 minutes
}

// Run executes the cache cleanup
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	count := j.cache.Purge()

	if count > 0 {
		j.logger.WithField("removed", count).Debug("Cache cleanup completed")
	}

	return nil
}

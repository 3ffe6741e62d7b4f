package asr

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimiter bounds the number of issuance requests an external system may
// make per hour. Allow must be side-effect free on denial.
type RateLimiter interface {
	Allow(system string, perHour int) (bool, error)
}

// MemoryRateLimiter is the default in-process limiter, backed by a token
// bucket per system.
type MemoryRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*memoryLimiterEntry
}

type memoryLimiterEntry struct {
	limiter *rate.Limiter
	perHour int
}

// NewMemoryRateLimiter creates a MemoryRateLimiter.
func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{
		limiters: make(map[string]*memoryLimiterEntry),
	}
}

// Allow implements RateLimiter
func (m *MemoryRateLimiter) Allow(system string, perHour int) (bool, error) {
	if perHour <= 0 {
		return false, nil
	}
	m.mu.Lock()
	entry, ok := m.limiters[system]
	if !ok || entry.perHour != perHour {
		// Ceiling changes reset the bucket.
		entry = &memoryLimiterEntry{
			limiter: rate.NewLimiter(rate.Every(time.Hour/time.Duration(perHour)), perHour),
			perHour: perHour,
		}
		m.limiters[system] = entry
	}
	m.mu.Unlock()
	return entry.limiter.Allow(), nil
}

// RedisRateLimiter counts issuance requests in redis so multiple registry
// instances share one ceiling. Counters live in hourly buckets that expire
// on their own.
type RedisRateLimiter struct {
	rdb   *redis.Client
	clock Clock
}

// NewRedisRateLimiter creates a RedisRateLimiter on an existing client.
func NewRedisRateLimiter(rdb *redis.Client, clock Clock) *RedisRateLimiter {
	return &RedisRateLimiter{
		rdb:   rdb,
		clock: clock,
	}
}

// Allow implements RateLimiter
func (r *RedisRateLimiter) Allow(system string, perHour int) (bool, error) {
	if perHour <= 0 {
		return false, nil
	}
	ctx := context.Background()
	bucket := r.clock.Now().UTC().Format("2006010215")
	key := fmt.Sprintf("asr:issuance:%s:%s", system, bucket)
	count, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		// First hit in the bucket sets the expiry.
		r.rdb.Expire(ctx, key, 2*time.Hour)
	}
	return count <= int64(perHour), nil
}

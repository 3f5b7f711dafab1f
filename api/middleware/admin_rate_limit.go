package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/angelmondragon/bookstore-backend/api/responses"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/bookstore-backend/pkg/redis"
)

// RateLimiter decides whether the caller identified by key may proceed.
// count is the number of hits seen in the current window when known.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (allowed bool, count int64, err error)
}

// AdminRateLimitPolicy throttles catalog mutations per client IP, bounding
// how fast the shared admin secret can be guessed.
type AdminRateLimitPolicy struct {
	window time.Duration
	limit  int
}

func NewAdminRateLimitPolicy(window time.Duration, limit int) AdminRateLimitPolicy {
	return AdminRateLimitPolicy{window: window, limit: limit}
}

func (p AdminRateLimitPolicy) enabled() bool {
	return p.window > 0 && p.limit > 0
}

type redisRateLimiter struct {
	store  pkgredis.RateLimitStore
	policy AdminRateLimitPolicy
}

// NewRedisRateLimiter counts hits in Redis fixed windows, shared by every replica.
func NewRedisRateLimiter(store pkgredis.RateLimitStore, policy AdminRateLimitPolicy) RateLimiter {
	return &redisRateLimiter{store: store, policy: policy}
}

func (l *redisRateLimiter) Allow(ctx context.Context, key string) (bool, int64, error) {
	return l.store.FixedWindowAllow(ctx, key, int64(l.policy.limit), l.policy.window)
}

type localLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalRateLimiter is the in-process fallback used when Redis is not configured.
// Each key gets a token bucket refilled at limit per window.
type LocalRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*localLimiter
	limit     rate.Limit
	burst     int
	idleAfter time.Duration
	lastPrune time.Time
	now       func() time.Time
}

func NewLocalRateLimiter(policy AdminRateLimitPolicy) *LocalRateLimiter {
	l := &LocalRateLimiter{
		limiters:  make(map[string]*localLimiter),
		burst:     policy.limit,
		idleAfter: 2 * policy.window,
		now:       time.Now,
	}
	if policy.enabled() {
		l.limit = rate.Every(policy.window / time.Duration(policy.limit))
	}
	return l
}

func (l *LocalRateLimiter) Allow(_ context.Context, key string) (bool, int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	entry, ok := l.limiters[key]
	if !ok {
		entry = &localLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1), 0, nil
}

func (l *LocalRateLimiter) prune(now time.Time) {
	if l.idleAfter <= 0 || now.Sub(l.lastPrune) < l.idleAfter {
		return
	}
	for key, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > l.idleAfter {
			delete(l.limiters, key)
		}
	}
	l.lastPrune = now
}

// AdminRateLimit rejects callers that exceed the policy with 429.
func AdminRateLimit(policy AdminRateLimitPolicy, limiter RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := clientIP(r)

			allowed, count, err := limiter.Allow(ctx, "admin:"+ip)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"ip":             ip,
						"attempts":       count,
						"limit":          policy.limit,
						"window_seconds": int(policy.window.Seconds()),
					})
					logg.Warn(logCtx, "admin.rate_limit.blocked")
				}
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "Too many admin requests, try again later."))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

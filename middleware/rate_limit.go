package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/cppla/pubfeed/config"
	"github.com/cppla/pubfeed/utils"
)

type rateLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

// limiterSet holds one token bucket per client key, dropping idle ones.
type limiterSet struct {
	mu      sync.Mutex
	buckets map[string]*rateLimiter
	limit   rate.Limit
	burst   int
	idle    time.Duration
}

func newLimiterSet(perMinute int) *limiterSet {
	return &limiterSet{
		buckets: map[string]*rateLimiter{},
		limit:   rate.Every(time.Minute / time.Duration(max(perMinute, 1))),
		burst:   max(perMinute/2, 1),
		idle:    5 * time.Minute,
	}
}

func (s *limiterSet) allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for k, l := range s.buckets {
		if now.After(l.expires) {
			delete(s.buckets, k)
		}
	}

	l, ok := s.buckets[key]
	if !ok {
		l = &rateLimiter{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.buckets[key] = l
	}
	l.expires = now.Add(s.idle)
	return l.limiter.Allow()
}

// RateLimitMiddleware applies a token bucket per signed-in user, falling back
// to the client IP for anonymous requests.
func RateLimitMiddleware() gin.HandlerFunc {
	return RateLimit(config.Get().RateLimitPerMinute)
}

// RateLimit is RateLimitMiddleware with an explicit budget.
func RateLimit(perMinute int) gin.HandlerFunc {
	set := newLimiterSet(perMinute)
	return func(ctx *gin.Context) {
		key := "ip:" + ctx.ClientIP()
		if id := ViewerID(ctx); id != 0 {
			key = "user:" + strconv.FormatUint(uint64(id), 10)
		}
		if !set.allow(key) {
			utils.Error(ctx, 429, 42901, "rate limit exceeded")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

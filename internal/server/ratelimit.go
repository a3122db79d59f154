package server

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// rateLimiter keeps one token bucket per client and action.
type rateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	visitors map[string]*visitor
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newRateLimiter returns a limiter allowing perMinute requests. Zero disables it.
func newRateLimiter(perMinute, burst int) *rateLimiter {
	if perMinute <= 0 {
		return &rateLimiter{}
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		visitors: make(map[string]*visitor),
	}
}

func (l *rateLimiter) allow(key string, now time.Time) bool {
	if l.visitors == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// prune drops buckets not used since before.
func (l *rateLimiter) prune(before time.Time) int {
	if l.visitors == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, v := range l.visitors {
		if v.lastSeen.Before(before) {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}

func (s *Server) enforceRateLimit(c *gin.Context, action string) bool {
	if s.limiter.allow(c.ClientIP()+"|"+action, s.now()) {
		return true
	}
	respondError(c, errRateLimited)
	return false
}

package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter is a per-client-IP token bucket. Idle buckets are dropped by
// Sweep, which the server runs on the scheduler.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*ipLimiter
	r       rate.Limit
	b       int
	now     func() time.Time
}

// NewLimiter allows rps requests per second per IP with the given burst.
func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*ipLimiter),
		r:       rate.Limit(rps),
		b:       burst,
		now:     time.Now,
	}
}

// Allow reports whether ip may make a request now.
func (l *Limiter) Allow(ip string) bool {
	now := l.now()
	l.mu.Lock()
	il, ok := l.buckets[ip]
	if !ok {
		il = &ipLimiter{limiter: rate.NewLimiter(l.r, l.b)}
		l.buckets[ip] = il
	}
	il.lastSeen = now
	l.mu.Unlock()
	return il.limiter.AllowN(now, 1)
}

// Sweep forgets IPs not seen for idle and returns how many were dropped.
func (l *Limiter) Sweep(idle time.Duration) int {
	cutoff := l.now().Add(-idle)
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for ip, il := range l.buckets {
		if il.lastSeen.Before(cutoff) {
			delete(l.buckets, ip)
			n++
		}
	}
	return n
}

// Len is the number of tracked IPs.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Handler rejects over-limit requests with 429.
func (l *Limiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":    "rate limit exceeded",
				"trace_id": GetTraceID(c),
			})
			return
		}
		c.Next()
	}
}

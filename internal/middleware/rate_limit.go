package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// clientLimiters hands out one token bucket per client address. Idle
// buckets expire so the set stays bounded.
type clientLimiters struct {
	mu      sync.Mutex
	buckets *gocache.Cache
	limit   rate.Limit
	burst   int
}

func (c *clientLimiters) get(ip string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.buckets.Get(ip); ok {
		c.buckets.SetDefault(ip, l)
		return l.(*rate.Limiter)
	}
	l := rate.NewLimiter(c.limit, c.burst)
	c.buckets.SetDefault(ip, l)
	return l
}

// RateLimitMiddleware allows each client rps requests per second with
// bursts of burst. Loopback clients are not limited.
func RateLimitMiddleware(rps float64, burst int) func(http.Handler) http.Handler {
	limiters := &clientLimiters{
		buckets: gocache.New(10*time.Minute, 20*time.Minute),
		limit:   rate.Limit(rps),
		burst:   burst,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			if parsed := net.ParseIP(ip); parsed != nil && parsed.IsLoopback() {
				next.ServeHTTP(w, r)
				return
			}

			if !limiters.get(ip).Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

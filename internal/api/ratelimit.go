package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter holds one token bucket per remote IP. Buckets refill at
// the hourly quota and burst up to the full quota. The map is
// per-process; a multi-replica deployment multiplies the effective
// limit accordingly.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	perHour int
}

func NewRateLimiter(requestsPerHour int) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*rate.Limiter),
		perHour: requestsPerHour,
	}
}

// Allow consumes one token from ip's bucket, creating the bucket on
// first use.
func (l *RateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	bucket, ok := l.buckets[ip]
	if !ok {
		refill := rate.Limit(float64(l.perHour) / time.Hour.Seconds())
		bucket = rate.NewLimiter(refill, l.perHour)
		l.buckets[ip] = bucket
	}
	l.mu.Unlock()
	return bucket.Allow()
}

// Middleware rejects requests from IPs that exhausted their bucket.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !l.Allow(ip) {
			respondError(w, http.StatusTooManyRequests, "Rate limit exceeded", "TOO_MANY_REQUESTS")
			return
		}
		next.ServeHTTP(w, r)
	})
}

package mw

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

const maxTrackedClients = 10000

type limiterCache struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func (lc *limiterCache) get(key string) *rate.Limiter {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if limiter, ok := lc.limiters[key]; ok {
		return limiter
	}
	if len(lc.limiters) >= maxTrackedClients {
		lc.limiters = make(map[string]*rate.Limiter)
	}
	limiter := rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit allows rps requests per second per client IP with the given
// burst. Mount it after chi's RealIP so proxies are accounted for.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	cache := &limiterCache{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cache.get(clientIP(r)).Allow() {
				w.Header().Set("Retry-After", "1")
				deny(w, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

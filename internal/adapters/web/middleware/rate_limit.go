package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// clientWindow tracks the request timestamps of one client inside the
// sliding window. Blocked requests are never recorded, so a client that
// keeps hammering while limited is not blocked forever.
type clientWindow struct {
	hits []time.Time
}

func (cw *clientWindow) prune(cutoff time.Time) {
	kept := cw.hits[:0]
	for _, t := range cw.hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	cw.hits = kept
}

type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientWindow
	limit   int
	window  time.Duration
}

// NewRateLimiter builds a sliding-window limiter allowing limit requests per
// client within window. A janitor goroutine evicts idle clients.
func NewRateLimiter(limit int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		clients: make(map[string]*clientWindow),
		limit:   limit,
		window:  window,
	}
	go rl.janitor()
	return rl
}

func (rl *rateLimiter) janitor() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		rl.cleanup()
	}
}

func (rl *rateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.window)
	for key, cw := range rl.clients {
		cw.prune(cutoff)
		if len(cw.hits) == 0 {
			delete(rl.clients, key)
		}
	}
}

// Allow reports whether a request from the given client key may proceed,
// recording it when it may.
func (rl *rateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cw, ok := rl.clients[key]
	if !ok {
		cw = &clientWindow{}
		rl.clients[key] = cw
	}

	now := time.Now()
	cw.prune(now.Add(-rl.window))
	if len(cw.hits) >= rl.limit {
		return false
	}
	cw.hits = append(cw.hits, now)
	return true
}

// RateLimitMiddleware limits requests per client IP, answering 429 when the
// window is exhausted.
func RateLimitMiddleware(limiter *rateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			if !limiter.Allow(ip) {
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

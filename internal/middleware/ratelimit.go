package middleware

import (
	"net/http"
	"sync"
	"time"
)

type window struct {
	started time.Time
	count   int
}

// RateLimiter caps requests per remote address over a fixed window. Used
// on the auth endpoints to slow down credential stuffing; counts reset
// when a client's window elapses.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	period  time.Duration
}

func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		period:  period,
	}
	go rl.sweep()
	return rl
}

func (rl *RateLimiter) allow(addr string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.clients[addr]
	if !ok || now.Sub(w.started) > rl.period {
		rl.clients[addr] = &window{started: now, count: 1}
		return true
	}

	w.count++
	return w.count <= rl.limit
}

// sweep drops windows that lapsed so idle clients don't accumulate.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(rl.period)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		for addr, w := range rl.clients {
			if time.Since(w.started) > rl.period {
				delete(rl.clients, addr)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r.RemoteAddr) {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.", r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

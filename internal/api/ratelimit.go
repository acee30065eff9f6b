package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter caps each client at limit requests per fixed window.
// Idle clients are forgotten on the next request after two windows.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*usage
	swept   time.Time
}

type usage struct {
	start time.Time
	count int
}

// NewRateLimiter allows limit requests per client per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*usage),
	}
}

// Allow counts a request from client. When the client is over its limit it
// returns false and the time left until its window ends.
func (rl *RateLimiter) Allow(client string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.swept) > 2*rl.window {
		for c, u := range rl.clients {
			if now.Sub(u.start) > 2*rl.window {
				delete(rl.clients, c)
			}
		}
		rl.swept = now
	}

	u := rl.clients[client]
	if u == nil || now.Sub(u.start) >= rl.window {
		rl.clients[client] = &usage{start: now, count: 1}
		return true, 0
	}
	if u.count < rl.limit {
		u.count++
		return true, 0
	}
	return false, u.start.Add(rl.window).Sub(now)
}

// clientIP returns the first X-Forwarded-For address, or the remote host.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware answers 429 with a Retry-After header in whole
// seconds once a client is over its limit.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, wait := rl.Allow(clientIP(r))
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/brandcart/storefront/pkg/errors"
	"github.com/brandcart/storefront/pkg/httputil"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitorStore holds one token bucket per client IP and forgets clients that
// have been quiet for longer than ttl.
type visitorStore struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	nowFunc  func() time.Time
}

func newVisitorStore(limit rate.Limit, burst int, ttl time.Duration) *visitorStore {
	return &visitorStore{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		ttl:      ttl,
		nowFunc:  time.Now,
	}
}

func (s *visitorStore) get(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.visitors[ip] = v
	}
	v.lastSeen = s.nowFunc()
	return v.limiter
}

func (s *visitorStore) cleanupLoop(done <-chan struct{}) {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-done:
			return
		}
	}
}

func (s *visitorStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	for ip, v := range s.visitors {
		if now.Sub(v.lastSeen) > s.ttl {
			delete(s.visitors, ip)
		}
	}
}

func (s *visitorStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visitors)
}

// RateLimiter enforces a per-IP token bucket.
type RateLimiter struct {
	store  *visitorStore
	logger *slog.Logger
	done   chan struct{}
	once   sync.Once
}

// NewRateLimiter allows limit events per second per IP with the given burst.
func NewRateLimiter(limit rate.Limit, burst int, logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		store:  newVisitorStore(limit, burst, 3*time.Minute),
		logger: logger,
		done:   make(chan struct{}),
	}
	go rl.store.cleanupLoop(rl.done)
	return rl
}

// Allow reports whether the client behind r may proceed.
func (rl *RateLimiter) Allow(r *http.Request) bool {
	ip := ClientIP(r)
	if rl.store.get(ip).Allow() {
		return true
	}
	rl.logger.WarnContext(r.Context(), "rate limit exceeded",
		slog.String("ip", ip),
		slog.String("path", r.URL.Path),
	)
	return false
}

// Handler answers 429 in the JSON envelope when the limit is exceeded.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(r) {
			httputil.WriteError(w, r, apperrors.TooManyRequests("too many requests"), rl.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.done) })
}

// ClientIP returns the first valid address in X-Forwarded-For, then
// X-Real-IP, then the host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip.String()
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(strings.TrimSpace(xri)); ip != nil {
			return ip.String()
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

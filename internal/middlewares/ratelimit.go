package middlewares

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Limiter decides whether a client identified by key may make another request.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimitMiddleware rejects requests over the limiter's budget with 429.
// Limiter failures let the request through.
func RateLimitMiddleware(limiter Limiter, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := clientIP(r)

			ok, err := limiter.Allow(r.Context(), clientIP)
			if err != nil {
				log.Errorw("rate limiter unavailable", "client", clientIP, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if !ok {
				log.Warnw("rate limit exceeded", "client", clientIP, "uri", r.RequestURI)
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the host part of RemoteAddr. Proxy headers are resolved earlier by chi's RealIP.
func clientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	host, _, err := net.SplitHostPort(addr)
	if err == nil && host != "" {
		return host
	}
	return addr
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps a token bucket per client in process memory.
type MemoryLimiter struct {
	rpm     int
	mu      sync.Mutex
	clients map[string]*clientLimiter
}

// NewMemoryLimiter allows rpm requests per minute per client. Non-positive rpm allows everything.
func NewMemoryLimiter(rpm int) *MemoryLimiter {
	return &MemoryLimiter{
		rpm:     rpm,
		clients: map[string]*clientLimiter{},
	}
}

// Allow implements Limiter.
func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	if m.rpm <= 0 {
		return true, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	c, ok := m.clients[key]
	if !ok {
		c = &clientLimiter{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.rpm)), m.rpm),
		}
		m.clients[key] = c
	}
	c.lastSeen = now
	m.gcLocked(now)

	return c.limiter.Allow(), nil
}

func (m *MemoryLimiter) gcLocked(now time.Time) {
	if len(m.clients) < 1000 {
		return
	}

	cutoff := now.Add(-10 * time.Minute)
	for ip, c := range m.clients {
		if c.lastSeen.Before(cutoff) {
			delete(m.clients, ip)
		}
	}
}

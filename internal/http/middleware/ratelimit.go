package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

type Limiter interface {
	Allow(key string, limit int, window time.Duration) bool
}

// MemoryLimiter is a per-process token bucket limiter. Idle buckets expire
// after their window.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets *gocache.Cache
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{buckets: gocache.New(time.Minute, 5*time.Minute)}
}

// Allow admits at most limit calls per window for key, refilling evenly.
func (l *MemoryLimiter) Allow(key string, limit int, window time.Duration) bool {
	if key == "" || limit <= 0 || window <= 0 {
		return true
	}
	bucketKey := key + "|" + strconv.Itoa(limit) + "|" + window.String()
	l.mu.Lock()
	defer l.mu.Unlock()
	var limiter *rate.Limiter
	if cached, ok := l.buckets.Get(bucketKey); ok {
		limiter = cached.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)
	}
	l.buckets.Set(bucketKey, limiter, window)
	return limiter.Allow()
}

func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

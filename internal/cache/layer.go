package cache

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"
)

const (
	PrefixJobsList   = "jobs:list"
	PrefixJobsDetail = "jobs:detail"

	HeaderCache = "X-Cache"
)

// Recorder receives cache outcome counts. The HTTP metrics collector
// implements it.
type Recorder interface {
	CacheHit()
	CacheMiss()
	CacheError()
}

type nopRecorder struct{}

func (nopRecorder) CacheHit()   {}
func (nopRecorder) CacheMiss()  {}
func (nopRecorder) CacheError() {}

// Layer is the read-through response cache in front of GET handlers. Store
// failures never reach the caller: they are logged, counted and treated as a
// miss or a no-op.
type Layer struct {
	store     KeyStore
	logger    *slog.Logger
	recorder  Recorder
	opTimeout time.Duration
}

func NewLayer(store KeyStore, logger *slog.Logger, recorder Recorder, opTimeout time.Duration) *Layer {
	if store == nil {
		store = NullStore{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if opTimeout <= 0 {
		opTimeout = 250 * time.Millisecond
	}
	return &Layer{store: store, logger: logger, recorder: recorder, opTimeout: opTimeout}
}

// Key builds the cache key for a request target (path plus raw query).
// Query parameter order is significant.
func Key(prefix, target string) string {
	return prefix + ":" + target
}

// KeyFunc derives the cache target for a request. Returning false skips the
// cache for that request.
type KeyFunc func(r *http.Request) (string, bool)

// RequestTarget keys on the verbatim path and query.
func RequestTarget(r *http.Request) (string, bool) {
	return r.URL.RequestURI(), true
}

// Wrap caches successful GET responses of next under prefix for ttl, keyed
// on the verbatim request target.
func (l *Layer) Wrap(prefix string, ttl time.Duration, next http.Handler) http.Handler {
	return l.WrapKeyed(prefix, ttl, RequestTarget, next)
}

// WrapKeyed is Wrap with a caller-supplied target. Use it when several
// request spellings address the same resource and must share one entry.
func (l *Layer) WrapKeyed(prefix string, ttl time.Duration, target KeyFunc, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		t, ok := target(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		key := Key(prefix, t)

		if body, ok := l.lookup(r.Context(), key); ok {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set(HeaderCache, "HIT")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(body)
			return
		}

		w.Header().Set(HeaderCache, "MISS")
		capture := &captureWriter{ResponseWriter: w}
		next.ServeHTTP(capture, r)
		if capture.status >= 200 && capture.status < 300 && capture.body.Len() > 0 {
			l.populate(r.Context(), key, capture.body.Bytes(), ttl)
		}
	})
}

func (l *Layer) lookup(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, l.opTimeout)
	defer cancel()
	body, ok, err := l.store.Get(ctx, key)
	if err != nil {
		l.recorder.CacheError()
		l.logger.Warn("cache get failed", slog.String("key", key), slog.Any("error", err))
		return nil, false
	}
	if !ok {
		l.recorder.CacheMiss()
		return nil, false
	}
	l.recorder.CacheHit()
	return body, true
}

func (l *Layer) populate(ctx context.Context, key string, body []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.opTimeout)
	defer cancel()
	if err := l.store.Set(ctx, key, body, ttl); err != nil {
		l.recorder.CacheError()
		l.logger.Warn("cache set failed", slog.String("key", key), slog.Any("error", err))
	}
}

// Invalidate removes exact keys.
func (l *Layer) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.opTimeout)
	defer cancel()
	if err := l.store.Delete(ctx, keys...); err != nil {
		l.recorder.CacheError()
		l.logger.Warn("cache delete failed", slog.Any("keys", keys), slog.Any("error", err))
	}
}

// InvalidateFamily removes every key under prefix, whatever its target.
func (l *Layer) InvalidateFamily(ctx context.Context, prefix string) int {
	return l.invalidatePattern(ctx, EscapePattern(prefix)+":*")
}

// InvalidateTarget removes the entry for target under prefix together with
// every query-string variant of it.
func (l *Layer) InvalidateTarget(ctx context.Context, prefix, target string) int {
	key := Key(prefix, target)
	l.Invalidate(ctx, key)
	return l.invalidatePattern(ctx, EscapePattern(key)+`\?*`)
}

// Clear removes every key matching pattern ("*" when empty). Unlike the other
// invalidation calls it reports store failures, since it backs an explicit
// admin operation.
func (l *Layer) Clear(ctx context.Context, pattern string) (int, error) {
	if pattern == "" {
		pattern = "*"
	}
	deleted, err := l.store.DeleteMatching(ctx, pattern)
	if err != nil {
		l.recorder.CacheError()
		l.logger.Error("cache clear failed", slog.String("pattern", pattern), slog.Any("error", err))
		return deleted, err
	}
	l.logger.Info("cache cleared", slog.String("pattern", pattern), slog.Int("deleted", deleted))
	return deleted, nil
}

func (l *Layer) Ping(ctx context.Context) error {
	return l.store.Ping(ctx)
}

func (l *Layer) invalidatePattern(ctx context.Context, pattern string) int {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.opTimeout)
	defer cancel()
	deleted, err := l.store.DeleteMatching(ctx, pattern)
	if err != nil {
		l.recorder.CacheError()
		l.logger.Warn("cache pattern delete failed", slog.String("pattern", pattern), slog.Any("error", err))
	}
	return deleted
}

// captureWriter tees the response body so a successful result can be stored.
type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *captureWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

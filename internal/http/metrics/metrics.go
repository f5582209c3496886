package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

// Collector keeps process-wide counters and also serves as the cache layer's
// recorder.
type Collector struct {
	requests    atomic.Uint64
	errors      atomic.Uint64
	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64
	cacheErrors atomic.Uint64
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) IncRequests() { c.requests.Add(1) }
func (c *Collector) IncErrors()   { c.errors.Add(1) }
func (c *Collector) CacheHit()    { c.cacheHits.Add(1) }
func (c *Collector) CacheMiss()   { c.cacheMisses.Add(1) }
func (c *Collector) CacheError()  { c.cacheErrors.Add(1) }

type Snapshot struct {
	Requests    uint64
	Errors      uint64
	CacheHits   uint64
	CacheMisses uint64
	CacheErrors uint64
}

func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Requests:    c.requests.Load(),
		Errors:      c.errors.Load(),
		CacheHits:   c.cacheHits.Load(),
		CacheMisses: c.cacheMisses.Load(),
		CacheErrors: c.cacheErrors.Load(),
	}
}

type Handler struct {
	collector *Collector
}

func NewHandler(collector *Collector) *Handler {
	return &Handler{collector: collector}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	var snap Snapshot
	if h.collector != nil {
		snap = h.collector.Snapshot()
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	counter(w, "jobportal_http_requests_total", "Total number of HTTP requests.", snap.Requests)
	counter(w, "jobportal_http_errors_total", "Total number of error responses.", snap.Errors)
	counter(w, "jobportal_cache_hits_total", "Response cache hits.", snap.CacheHits)
	counter(w, "jobportal_cache_misses_total", "Response cache misses.", snap.CacheMisses)
	counter(w, "jobportal_cache_errors_total", "Cache store operations that failed.", snap.CacheErrors)
}

func counter(w http.ResponseWriter, name, help string, value uint64) {
	_, _ = fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	_, _ = fmt.Fprintf(w, "# TYPE %s counter\n", name)
	_, _ = fmt.Fprintf(w, "%s %d\n", name, value)
}

package http

import (
	"net/http"
	"strings"
	"time"

	"jobportal/internal/cache"
	"jobportal/internal/http/handlers"
	"jobportal/internal/http/metrics"
	httpmw "jobportal/internal/http/middleware"
)

type RouterDependencies struct {
	AuthHandler        *handlers.AuthHandler
	JobHandler         *handlers.JobHandler
	ApplicationHandler *handlers.ApplicationHandler
	ResumeHandler      *handlers.ResumeHandler
	UtilityHandler     *handlers.UtilityHandler
	AuthMiddleware     *httpmw.AuthMiddleware
	Cache              *cache.Layer
	JobCache           *cache.JobInvalidator
	CacheTTL           time.Duration
	Metrics            *metrics.Collector
	RequestTimeout     time.Duration
	MaxUploadBytes     int64
}

type Router struct {
	deps      RouterDependencies
	handler   http.Handler
	jobList   http.Handler
	jobDetail http.Handler
}

const maxBodyBytes = 1 << 20

func NewRouter(deps RouterDependencies) http.Handler {
	r := &Router{deps: deps}
	r.jobList = deps.Cache.Wrap(cache.PrefixJobsList, deps.CacheTTL, http.HandlerFunc(deps.JobHandler.List))
	r.jobDetail = deps.JobHandler.TrackView(deps.Cache.WrapKeyed(cache.PrefixJobsDetail, deps.CacheTTL, deps.JobCache.DetailRequestTarget, http.HandlerFunc(deps.JobHandler.Get)))
	r.handler = httpmw.Chain(r.baseHandler(),
		httpmw.RequestID,
		httpmw.Logging,
		httpmw.BodyLimit(maxBodyBytes, deps.MaxUploadBytes),
		httpmw.Recover,
		httpmw.Metrics(deps.Metrics),
		httpmw.Timeout(deps.RequestTimeout),
	)
	return r
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// match reports whether the path segments equal pattern, where "*" stands
// for any single non-empty segment.
func match(parts []string, pattern ...string) bool {
	if len(parts) != len(pattern) {
		return false
	}
	for i, want := range pattern {
		if parts[i] == "" || (want != "*" && parts[i] != want) {
			return false
		}
	}
	return true
}

func segments(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

func (r *Router) baseHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		path := req.URL.Path
		parts := segments(path)

		switch {
		case req.Method == http.MethodGet && path == "/health":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
			return
		case req.Method == http.MethodGet && path == "/metrics":
			metrics.NewHandler(r.deps.Metrics).ServeHTTP(w, req)
			return
		case req.Method == http.MethodPost && path == "/api/auth/register":
			r.deps.AuthHandler.Register(w, req)
			return
		case req.Method == http.MethodPost && path == "/api/auth/login":
			r.deps.AuthHandler.Login(w, req)
			return
		case req.Method == http.MethodGet && match(parts, "api", "jobs"):
			r.jobList.ServeHTTP(w, req)
			return
		case req.Method == http.MethodGet && match(parts, "api", "jobs", "*") && parts[2] != "mine":
			r.jobDetail.ServeHTTP(w, req)
			return
		case req.Method == http.MethodGet && match(parts, "api", "resumes", "*") && parts[2] != "user":
			r.deps.ResumeHandler.Get(w, req)
			return
		case req.Method == http.MethodGet && match(parts, "api", "resumes", "*", "file"):
			r.deps.ResumeHandler.Download(w, req)
			return
		case req.Method == http.MethodGet && path == "/api/utility/health":
			r.deps.UtilityHandler.Health(w, req)
			return
		}

		if strings.HasPrefix(path, "/api/") {
			protected := r.deps.AuthMiddleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				r.handleProtected(w, req, parts)
			}))
			protected.ServeHTTP(w, req)
			return
		}

		http.NotFound(w, req)
	})
}

func (r *Router) handleProtected(w http.ResponseWriter, req *http.Request, parts []string) {
	method := req.Method

	switch {
	case method == http.MethodGet && match(parts, "api", "auth", "me"):
		r.deps.AuthHandler.Me(w, req)
		return
	case method == http.MethodPut && match(parts, "api", "auth", "profile"):
		r.deps.AuthHandler.UpdateProfile(w, req)
		return
	case method == http.MethodPost && match(parts, "api", "auth", "change-password"):
		r.deps.AuthHandler.ChangePassword(w, req)
		return

	case method == http.MethodGet && match(parts, "api", "jobs", "mine"):
		r.deps.JobHandler.ListMine(w, req)
		return
	case method == http.MethodPost && match(parts, "api", "jobs"):
		r.deps.JobHandler.Create(w, req)
		return
	case method == http.MethodPut && match(parts, "api", "jobs", "*"):
		r.deps.JobHandler.Update(w, req)
		return
	case method == http.MethodPatch && match(parts, "api", "jobs", "*", "status"):
		r.deps.JobHandler.UpdateStatus(w, req)
		return
	case method == http.MethodDelete && match(parts, "api", "jobs", "*"):
		r.deps.JobHandler.Delete(w, req)
		return
	case method == http.MethodPost && match(parts, "api", "jobs", "*", "apply"):
		r.deps.JobHandler.Apply(w, req)
		return

	case method == http.MethodGet && match(parts, "api", "applications", "my-applications"):
		r.deps.ApplicationHandler.ListMine(w, req)
		return
	case method == http.MethodGet && match(parts, "api", "applications", "my-applications", "*"):
		r.deps.ApplicationHandler.GetMine(w, req)
		return
	case method == http.MethodPost && match(parts, "api", "applications", "my-applications", "*", "withdraw"):
		r.deps.ApplicationHandler.Withdraw(w, req)
		return
	case method == http.MethodGet && match(parts, "api", "applications", "jobs", "*", "applications"):
		r.deps.ApplicationHandler.ListForJob(w, req)
		return
	case method == http.MethodGet && match(parts, "api", "applications", "*"):
		r.deps.ApplicationHandler.Get(w, req)
		return
	case method == http.MethodPatch && match(parts, "api", "applications", "*", "status"):
		r.deps.ApplicationHandler.UpdateStatus(w, req)
		return
	case method == http.MethodPost && match(parts, "api", "applications", "*", "notes"):
		r.deps.ApplicationHandler.SetNotes(w, req)
		return

	case method == http.MethodPost && match(parts, "api", "resumes"):
		r.deps.ResumeHandler.Upload(w, req)
		return
	case method == http.MethodGet && match(parts, "api", "resumes", "user", "*"):
		r.deps.ResumeHandler.ListByUser(w, req)
		return
	case method == http.MethodDelete && match(parts, "api", "resumes", "*"):
		r.deps.ResumeHandler.Delete(w, req)
		return

	case method == http.MethodPost && match(parts, "api", "utility", "cache", "clear"):
		httpmw.RequireAdmin(http.HandlerFunc(r.deps.UtilityHandler.ClearCache)).ServeHTTP(w, req)
		return
	case method == http.MethodGet && match(parts, "api", "utility", "stats"):
		httpmw.RequireAdmin(http.HandlerFunc(r.deps.UtilityHandler.Stats)).ServeHTTP(w, req)
		return
	case method == http.MethodPost && match(parts, "api", "utility", "export"):
		httpmw.RequireAdmin(http.HandlerFunc(r.deps.UtilityHandler.Export)).ServeHTTP(w, req)
		return
	case method == http.MethodGet && match(parts, "api", "utility", "logs"):
		httpmw.RequireAdmin(http.HandlerFunc(r.deps.UtilityHandler.Logs)).ServeHTTP(w, req)
		return
	}

	http.NotFound(w, req)
}

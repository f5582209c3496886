package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobportal/internal/app"
	"jobportal/internal/cache"
	"jobportal/internal/common"
	"jobportal/internal/domain/user"
	"jobportal/internal/http/handlers"
	"jobportal/internal/http/metrics"
	httpmw "jobportal/internal/http/middleware"
	"jobportal/internal/notify"
	"jobportal/internal/observability"
	"jobportal/internal/repository/memory"
	"jobportal/internal/security"
	"jobportal/internal/storage"
)

type testServer struct {
	handler   http.Handler
	store     *memory.Store
	collector *metrics.Collector
	tokens    *security.JWTProvider
	apps      *app.ApplicationService
}

func newTestServer(t *testing.T, keys cache.KeyStore) *testServer {
	t.Helper()
	logger := observability.Discard()
	store := memory.NewStore()
	collector := metrics.NewCollector()
	layer := cache.NewLayer(keys, logger, collector, time.Second)
	tokens := security.NewJWTProvider("router-secret")
	files, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	jobCache := cache.NewJobInvalidator(layer, "/api/jobs")
	jobs := app.NewJobService(store.Jobs(), store.Applications(), jobCache, logger)
	apps := app.NewApplicationService(store.Applications(), store.Jobs(), store.Resumes(), notify.NewLogNotifier(logger), logger)
	resumes := app.NewResumeService(store.Resumes(), store.Applications(), files, 1<<20, logger)
	auth := app.NewAuthService(store.Users(), tokens, time.Hour, logger)
	utility := app.NewUtilityService(store.Reports(), layer, "", logger)
	limiter := httpmw.NewMemoryLimiter()

	handler := NewRouter(RouterDependencies{
		AuthHandler:        handlers.NewAuthHandler(auth, limiter),
		JobHandler:         handlers.NewJobHandler(jobs, apps, limiter, 3, time.Minute),
		ApplicationHandler: handlers.NewApplicationHandler(apps),
		ResumeHandler:      handlers.NewResumeHandler(resumes),
		UtilityHandler:     handlers.NewUtilityHandler(utility),
		AuthMiddleware:     httpmw.NewAuthMiddleware(tokens),
		Cache:              layer,
		JobCache:           jobCache,
		CacheTTL:           time.Minute,
		Metrics:            collector,
		RequestTimeout:     5 * time.Second,
		MaxUploadBytes:     1 << 20,
	})
	t.Cleanup(apps.Wait)
	return &testServer{handler: handler, store: store, collector: collector, tokens: tokens, apps: apps}
}

func (s *testServer) user(t *testing.T, name string, role user.Role) (common.UUID, string) {
	t.Helper()
	u, err := s.store.Users().Create(context.Background(), user.User{Name: name, Email: name + "@example.com", Role: role})
	require.NoError(t, err)
	token, _, err := s.tokens.Generate(u.ID, string(role), time.Hour)
	require.NoError(t, err)
	return u.ID, token
}

func (s *testServer) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) upload(t *testing.T, token string) string {
	t.Helper()
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("name", "CV"))
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="cv.pdf"`)
	header.Set("Content-Type", "application/pdf")
	part, err := form.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 test"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/resumes", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var payload struct {
		Resume struct {
			ID string `json:"id"`
		} `json:"resume"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Resume.ID
}

func jobBody(title string) map[string]any {
	return map[string]any{
		"title":       title,
		"company":     "Acme",
		"location":    "Berlin",
		"type":        "Full-time",
		"category":    "Software Development",
		"description": "Build services",
		"skills":      []string{"go"},
	}
}

func createJob(t *testing.T, s *testServer, token, title string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/jobs", token, jobBody(title))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var payload struct {
		Job struct {
			ID string `json:"id"`
		} `json:"job"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Job.ID
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestJobListIsCachedUntilAJobIsCreated(t *testing.T) {
	// Setup
	s := newTestServer(t, cache.NewMemoryStore(time.Minute))
	_, token := s.user(t, "ada", user.RoleUser)
	createJob(t, s, token, "First")

	// Execute
	first := s.do(t, http.MethodGet, "/api/jobs?page=1", "", nil)
	second := s.do(t, http.MethodGet, "/api/jobs?page=1", "", nil)
	reordered := s.do(t, http.MethodGet, "/api/jobs?page=1&limit=10", "", nil)
	createJob(t, s, token, "Second")
	third := s.do(t, http.MethodGet, "/api/jobs?page=1", "", nil)

	// Assert
	assert.Equal(t, "MISS", first.Header().Get(cache.HeaderCache))
	assert.Equal(t, "HIT", second.Header().Get(cache.HeaderCache))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "MISS", reordered.Header().Get(cache.HeaderCache))
	assert.Equal(t, "MISS", third.Header().Get(cache.HeaderCache))
	assert.Equal(t, float64(2), decodeBody(t, third)["total"])
	assert.Equal(t, uint64(1), s.collector.Snapshot().CacheHits)
}

func TestJobDetailCountsViewsOnHitsAndInvalidatesOnUpdate(t *testing.T) {
	s := newTestServer(t, cache.NewMemoryStore(time.Minute))
	_, token := s.user(t, "ada", user.RoleUser)
	id := createJob(t, s, token, "Engineer")
	target := "/api/jobs/" + id

	require.Equal(t, "MISS", s.do(t, http.MethodGet, target, "", nil).Header().Get(cache.HeaderCache))
	require.Equal(t, "HIT", s.do(t, http.MethodGet, target, "", nil).Header().Get(cache.HeaderCache))
	stored, err := s.store.Jobs().GetByID(context.Background(), common.UUID(id))
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Views)

	updated := s.do(t, http.MethodPut, target, token, map[string]any{"title": "Staff Engineer"})
	require.Equal(t, http.StatusOK, updated.Code, updated.Body.String())

	after := s.do(t, http.MethodGet, target, "", nil)
	assert.Equal(t, "MISS", after.Header().Get(cache.HeaderCache))
	assert.Equal(t, "Staff Engineer", decodeBody(t, after)["title"])
}

func TestJobDetailErrorsAreNotCached(t *testing.T) {
	s := newTestServer(t, cache.NewMemoryStore(time.Minute))
	target := "/api/jobs/" + common.NewUUID().String()

	first := s.do(t, http.MethodGet, target, "", nil)
	second := s.do(t, http.MethodGet, target, "", nil)

	assert.Equal(t, http.StatusNotFound, first.Code)
	assert.Equal(t, "MISS", second.Header().Get(cache.HeaderCache))
	assert.Equal(t, "Job not found", decodeBody(t, second)["message"])
}

func TestCacheOutageStillServesRequests(t *testing.T) {
	s := newTestServer(t, cache.NullStore{})
	_, token := s.user(t, "ada", user.RoleUser)
	createJob(t, s, token, "Engineer")

	rec := s.do(t, http.MethodGet, "/api/jobs", "", nil)
	health := s.do(t, http.MethodGet, "/api/utility/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeBody(t, rec)["total"])
	assert.Equal(t, http.StatusServiceUnavailable, health.Code)
}

func TestApplyFlowAndRateLimit(t *testing.T) {
	// Setup
	s := newTestServer(t, cache.NewMemoryStore(time.Minute))
	_, posterToken := s.user(t, "ada", user.RoleUser)
	_, applicantToken := s.user(t, "grace", user.RoleUser)
	jobID := createJob(t, s, posterToken, "Engineer")
	resumeID := s.upload(t, applicantToken)
	apply := func(body map[string]any) *httptest.ResponseRecorder {
		return s.do(t, http.MethodPost, "/api/jobs/"+jobID+"/apply", applicantToken, body)
	}

	// Execute
	missing := apply(map[string]any{"cover_letter": "hi"})
	created := apply(map[string]any{"resume_id": resumeID, "cover_letter": "hi"})
	duplicate := apply(map[string]any{"resume_id": resumeID, "cover_letter": "hi"})
	limited := apply(map[string]any{"resume_id": resumeID, "cover_letter": "hi"})

	// Assert
	assert.Equal(t, http.StatusBadRequest, missing.Code)
	assert.Equal(t, "Resume ID is required", decodeBody(t, missing)["message"])
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	assert.Equal(t, "Application submitted successfully", decodeBody(t, created)["message"])
	assert.Equal(t, http.StatusBadRequest, duplicate.Code)
	assert.Equal(t, "You have already applied for this job", decodeBody(t, duplicate)["message"])
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
}

func TestApplicationLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t, cache.NewMemoryStore(time.Minute))
	_, posterToken := s.user(t, "ada", user.RoleUser)
	_, applicantToken := s.user(t, "grace", user.RoleUser)
	jobID := createJob(t, s, posterToken, "Engineer")
	resumeID := s.upload(t, applicantToken)
	created := s.do(t, http.MethodPost, "/api/jobs/"+jobID+"/apply", applicantToken, map[string]any{"resume_id": resumeID, "cover_letter": "hi"})
	require.Equal(t, http.StatusCreated, created.Code)
	appID := decodeBody(t, created)["application"].(map[string]any)["id"].(string)

	forbidden := s.do(t, http.MethodPatch, "/api/applications/"+appID+"/status", applicantToken, map[string]any{"status": "accepted"})
	assert.Equal(t, http.StatusForbidden, forbidden.Code)

	invalid := s.do(t, http.MethodPatch, "/api/applications/"+appID+"/status", posterToken, map[string]any{"status": "hired"})
	assert.Equal(t, http.StatusBadRequest, invalid.Code)
	assert.Equal(t, "Invalid status", decodeBody(t, invalid)["message"])

	accepted := s.do(t, http.MethodPatch, "/api/applications/"+appID+"/status", posterToken, map[string]any{"status": "accepted"})
	require.Equal(t, http.StatusOK, accepted.Code, accepted.Body.String())

	withdraw := s.do(t, http.MethodPost, "/api/applications/my-applications/"+appID+"/withdraw", applicantToken, nil)
	assert.Equal(t, http.StatusBadRequest, withdraw.Code)

	listed := s.do(t, http.MethodGet, "/api/applications/jobs/"+jobID+"/applications?status=accepted", posterToken, nil)
	require.Equal(t, http.StatusOK, listed.Code)
	assert.Equal(t, float64(1), decodeBody(t, listed)["total"])
}

func TestDeleteJobReportsPurgedApplications(t *testing.T) {
	s := newTestServer(t, cache.NewMemoryStore(time.Minute))
	_, posterToken := s.user(t, "ada", user.RoleUser)
	jobID := createJob(t, s, posterToken, "Engineer")
	for _, name := range []string{"a", "b", "c"} {
		_, token := s.user(t, name, user.RoleUser)
		resumeID := s.upload(t, token)
		rec := s.do(t, http.MethodPost, "/api/jobs/"+jobID+"/apply", token, map[string]any{"resume_id": resumeID, "cover_letter": "hi"})
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	require.Equal(t, "MISS", s.do(t, http.MethodGet, "/api/jobs/"+jobID, "", nil).Header().Get(cache.HeaderCache))

	deleted := s.do(t, http.MethodDelete, "/api/jobs/"+jobID, posterToken, nil)

	require.Equal(t, http.StatusOK, deleted.Code, deleted.Body.String())
	body := decodeBody(t, deleted)
	assert.Equal(t, "Job deleted successfully", body["message"])
	assert.Equal(t, float64(3), body["applications_deleted"])
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/jobs/"+jobID, "", nil).Code)
}

func TestResumeDeleteNeedsConfirmation(t *testing.T) {
	s := newTestServer(t, cache.NewMemoryStore(time.Minute))
	_, posterToken := s.user(t, "ada", user.RoleUser)
	_, applicantToken := s.user(t, "grace", user.RoleUser)
	jobID := createJob(t, s, posterToken, "Engineer")
	resumeID := s.upload(t, applicantToken)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/jobs/"+jobID+"/apply", applicantToken, map[string]any{"resume_id": resumeID, "cover_letter": "hi"}).Code)

	conflict := s.do(t, http.MethodDelete, "/api/resumes/"+resumeID, applicantToken, nil)
	require.Equal(t, http.StatusConflict, conflict.Code)
	details := decodeBody(t, conflict)["details"].(map[string]any)
	assert.Equal(t, resumeID, details["resume_id"])
	assert.Len(t, details["application_ids"], 1)

	confirmed := s.do(t, http.MethodDelete, "/api/resumes/"+resumeID, applicantToken, map[string]any{"confirm_delete": true})
	require.Equal(t, http.StatusOK, confirmed.Code)
	assert.Equal(t, float64(1), decodeBody(t, confirmed)["applications_deleted"])
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t, cache.NewMemoryStore(time.Minute))
	_, userToken := s.user(t, "ada", user.RoleUser)
	_, adminToken := s.user(t, "root", user.RoleAdmin)
	createJob(t, s, userToken, "Engineer")
	s.do(t, http.MethodGet, "/api/jobs", "", nil)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/utility/stats", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/utility/stats", userToken, nil).Code)

	stats := s.do(t, http.MethodGet, "/api/utility/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, stats.Code)
	assert.Equal(t, float64(1), decodeBody(t, stats)["jobs"])

	cleared := s.do(t, http.MethodPost, "/api/utility/cache/clear", adminToken, nil)
	require.Equal(t, http.StatusOK, cleared.Code)
	assert.Equal(t, float64(1), decodeBody(t, cleared)["deleted"])

	exported := s.do(t, http.MethodPost, "/api/utility/export", adminToken, map[string]any{"model": "jobs", "format": "csv"})
	require.Equal(t, http.StatusOK, exported.Code)
	assert.Equal(t, "text/csv", exported.Header().Get("Content-Type"))
	assert.Contains(t, exported.Body.String(), "Engineer")
}

func TestAuthFlowOverHTTP(t *testing.T) {
	s := newTestServer(t, cache.NewMemoryStore(time.Minute))

	invalid := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{"name": "Ada", "email": "nope", "password": "123"})
	require.Equal(t, http.StatusBadRequest, invalid.Code)
	fields := decodeBody(t, invalid)["fields"].(map[string]any)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")

	registered := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{"name": "Ada", "email": "ada@example.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, registered.Code, registered.Body.String())
	token := decodeBody(t, registered)["token"].(string)

	me := s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, "ada@example.com", decodeBody(t, me)["email"])

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/auth/me", "garbage", nil).Code)
}

func TestJobDetailAliasesShareOneCacheEntry(t *testing.T) {
	s := newTestServer(t, cache.NewMemoryStore(time.Minute))
	_, token := s.user(t, "ada", user.RoleUser)
	id := createJob(t, s, token, "Engineer")
	aliases := []string{"/api/jobs/" + id + "/", "/api/jobs/" + strings.ToUpper(id)}

	for _, target := range aliases {
		require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, target, "", nil).Code, target)
	}
	updated := s.do(t, http.MethodPut, "/api/jobs/"+id, token, map[string]any{"title": "Staff Engineer"})
	require.Equal(t, http.StatusOK, updated.Code, updated.Body.String())

	for _, target := range aliases {
		rec := s.do(t, http.MethodGet, target, "", nil)
		assert.Equal(t, "Staff Engineer", decodeBody(t, rec)["title"], target)
	}

	deleted := s.do(t, http.MethodDelete, "/api/jobs/"+id, token, nil)
	require.Equal(t, http.StatusOK, deleted.Code)
	for _, target := range aliases {
		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, target, "", nil).Code, target)
	}
}

func TestJobListPastLastPageIsEmpty(t *testing.T) {
	s := newTestServer(t, cache.NewMemoryStore(time.Minute))
	_, token := s.user(t, "ada", user.RoleUser)
	createJob(t, s, token, "Engineer")

	rec := s.do(t, http.MethodGet, "/api/jobs?page=100000000000000001&limit=100", "", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decodeBody(t, rec)["jobs"])
}

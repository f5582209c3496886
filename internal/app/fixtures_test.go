package app

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"jobportal/internal/cache"
	"jobportal/internal/common"
	"jobportal/internal/domain/job"
	"jobportal/internal/domain/resume"
	"jobportal/internal/domain/user"
	"jobportal/internal/notify"
	"jobportal/internal/observability"
	"jobportal/internal/repository/memory"
	"jobportal/internal/storage"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, event notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store    *memory.Store
	keys     *cache.MemoryStore
	layer    *cache.Layer
	notifier *recordingNotifier
	jobs     *JobService
	apps     *ApplicationService
	resumes  *ResumeService
	now      time.Time

	poster    *user.User
	applicant *user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := observability.Discard()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	store.SetClock(func() time.Time { return now })
	keys := cache.NewMemoryStore(time.Minute)
	layer := cache.NewLayer(keys, logger, nil, time.Second)
	files, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	f := &fixture{
		store:    store,
		keys:     keys,
		layer:    layer,
		notifier: &recordingNotifier{},
		now:      now,
	}
	f.jobs = NewJobService(store.Jobs(), store.Applications(), cache.NewJobInvalidator(layer, "/api/jobs"), logger)
	f.apps = NewApplicationService(store.Applications(), store.Jobs(), store.Resumes(), f.notifier, logger)
	f.apps.now = func() time.Time { return now }
	f.resumes = NewResumeService(store.Resumes(), store.Applications(), files, 1<<20, logger)

	f.poster = f.addUser(t, "Ada", "ada@example.com")
	f.applicant = f.addUser(t, "Grace", "grace@example.com")
	return f
}

func (f *fixture) addUser(t *testing.T, name, email string) *user.User {
	t.Helper()
	u, err := f.store.Users().Create(context.Background(), user.User{Name: name, Email: email, Role: user.RoleUser})
	require.NoError(t, err)
	return u
}

func (f *fixture) createJob(t *testing.T, mutate ...func(*job.Job)) *job.Job {
	t.Helper()
	j := job.Job{
		Title:       "Backend Engineer",
		Company:     "Acme",
		Location:    "Berlin",
		Type:        "Full-time",
		Category:    "Software Development",
		Description: "Build services",
		Skills:      []string{"go"},
		PostedBy:    job.Poster{ID: f.poster.ID},
	}
	for _, m := range mutate {
		m(&j)
	}
	created, err := f.jobs.Create(context.Background(), j)
	require.NoError(t, err)
	return created
}

func (f *fixture) uploadResume(t *testing.T, owner common.UUID) *resume.Resume {
	t.Helper()
	res, err := f.resumes.Upload(context.Background(), UploadInput{
		ApplicantID: owner,
		Name:        "CV",
		FileName:    "cv.pdf",
		ContentType: "application/pdf",
		Body:        strings.NewReader("%PDF-1.4 resume"),
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) submit(t *testing.T, jobID common.UUID, applicant common.UUID, resumeID common.UUID) common.UUID {
	t.Helper()
	created, err := f.apps.Submit(context.Background(), SubmitInput{
		JobID:       jobID,
		ApplicantID: applicant,
		ResumeID:    resumeID,
		CoverLetter: "I would like to join.",
	})
	require.NoError(t, err)
	return created.ID
}

func (f *fixture) seedCache(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		require.NoError(t, f.keys.Set(context.Background(), key, []byte(`{}`), time.Minute))
	}
}

func (f *fixture) cached(key string) bool {
	_, ok, _ := f.keys.Get(context.Background(), key)
	return ok
}

func requireCode(t *testing.T, err error, code common.Code, message string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := common.AsError(err)
	require.True(t, ok, "expected *common.Error, got %T", err)
	require.Equal(t, code, appErr.Code)
	if message != "" {
		require.Equal(t, message, appErr.Message)
	}
}

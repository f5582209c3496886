package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobportal/internal/common"
	"jobportal/internal/domain/application"
	"jobportal/internal/domain/job"
	"jobportal/internal/domain/report"
	"jobportal/internal/domain/resume"
	"jobportal/internal/domain/user"
)

func seedJob(t *testing.T, s *Store, posterID common.UUID, title, location string) *job.Job {
	t.Helper()
	created, err := s.Jobs().Create(context.Background(), job.Job{
		Title:    title,
		Company:  "Acme",
		Location: location,
		Type:     "Full-time",
		Category: "Software Development",
		Status:   job.StatusActive,
		PostedBy: job.Poster{ID: posterID},
	})
	require.NoError(t, err)
	return created
}

func TestJobListFiltersAndPaginates(t *testing.T) {
	// Setup
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	poster, err := s.Users().Create(ctx, user.User{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	for i, loc := range []string{"Berlin", "berlin, DE", "Paris"} {
		s.SetClock(func() time.Time { return base.Add(time.Duration(i) * time.Hour) })
		seedJob(t, s, poster.ID, "Go engineer", loc)
	}

	// Execute
	items, total, err := s.Jobs().List(ctx, job.Filter{Location: "BERLIN"}, common.NewPage(1, 1))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 1)
	assert.Equal(t, "berlin, DE", items[0].Location)
	assert.Equal(t, "Ada", items[0].PostedBy.Name)

	items, total, err = s.Jobs().List(ctx, job.Filter{Search: "go paris"}, common.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, items)

	items, _, err = s.Jobs().List(ctx, job.Filter{}, common.NewPage(5, 10))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestJobUpdateAndDeleteRequireOwner(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	owner, other := common.NewUUID(), common.NewUUID()
	created := seedJob(t, s, owner, "Designer", "Remote")
	require.NoError(t, s.Jobs().IncrementViews(ctx, created.ID))

	changed := *created
	changed.Title = "Senior Designer"
	changed.PostedBy.ID = other
	_, err := s.Jobs().Update(ctx, changed)
	assert.True(t, common.Is(err, common.CodeNotFound))

	changed.PostedBy.ID = owner
	updated, err := s.Jobs().Update(ctx, changed)
	require.NoError(t, err)
	assert.Equal(t, "Senior Designer", updated.Title)
	assert.Equal(t, int64(1), updated.Views)

	_, err = s.Jobs().DeleteOwned(ctx, created.ID, other)
	assert.True(t, common.Is(err, common.CodeNotFound))
	_, err = s.Jobs().DeleteOwned(ctx, created.ID, owner)
	require.NoError(t, err)
	_, err = s.Jobs().GetByID(ctx, created.ID)
	assert.True(t, common.Is(err, common.CodeNotFound))
}

func TestApplicationUniquenessIgnoresWithdrawn(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repo := s.Applications()
	jobID, applicantID := common.NewUUID(), common.NewUUID()
	first, err := repo.Create(ctx, application.Application{JobID: jobID, ApplicantID: applicantID, Status: application.StatusPending})
	require.NoError(t, err)

	_, err = repo.Create(ctx, application.Application{JobID: jobID, ApplicantID: applicantID, Status: application.StatusPending})
	assert.True(t, common.Is(err, common.CodeInvalidState))

	_, err = repo.Transition(ctx, first.ID, application.StatusPending, application.HistoryEntry{Status: application.StatusWithdrawn, UpdatedAt: time.Now(), UpdatedBy: applicantID})
	require.NoError(t, err)

	_, err = repo.Create(ctx, application.Application{JobID: jobID, ApplicantID: applicantID, Status: application.StatusPending})
	assert.NoError(t, err)
}

func TestTransitionComparesCurrentStatus(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repo := s.Applications()
	created, err := repo.Create(ctx, application.Application{
		JobID:         common.NewUUID(),
		ApplicantID:   common.NewUUID(),
		Status:        application.StatusPending,
		StatusHistory: []application.HistoryEntry{{Status: application.StatusPending}},
	})
	require.NoError(t, err)

	entry := application.HistoryEntry{Status: application.StatusWithdrawn, UpdatedAt: time.Now()}
	updated, err := repo.Transition(ctx, created.ID, application.StatusPending, entry)
	require.NoError(t, err)
	assert.Len(t, updated.StatusHistory, 2)

	_, err = repo.Transition(ctx, created.ID, application.StatusPending, entry)
	assert.True(t, common.Is(err, common.CodeInvalidState))

	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, stored.StatusHistory, 2)
	assert.Equal(t, application.StatusWithdrawn, stored.Status)
}

func TestDeleteResumeRemovesApplications(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	res, err := s.Resumes().Create(ctx, resumeFixture())
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := s.Applications().Create(ctx, application.Application{JobID: common.NewUUID(), ApplicantID: res.ApplicantID, ResumeID: res.ID})
		require.NoError(t, err)
	}

	ids, err := s.Applications().ListIDsByResume(ctx, res.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	deleted, err := s.Resumes().DeleteWithApplications(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	_, err = s.Resumes().GetByID(ctx, res.ID)
	assert.True(t, common.Is(err, common.CodeNotFound))
}

func TestUsersRejectDuplicateEmail(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, err := s.Users().Create(ctx, user.User{Name: "A", Email: "a@example.com"})
	require.NoError(t, err)

	_, err = s.Users().Create(ctx, user.User{Name: "B", Email: "A@Example.com"})
	assert.True(t, common.Is(err, common.CodeInvalidState))

	found, err := s.Users().FindByEmail(ctx, "A@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, "A", found.Name)
}

func TestStats(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now.Add(-10 * 24 * time.Hour) })
	old, err := s.Users().Create(ctx, user.User{Name: "Old", Email: "old@example.com"})
	require.NoError(t, err)
	s.SetClock(func() time.Time { return now.Add(-time.Hour) })
	_, err = s.Users().Create(ctx, user.User{Name: "New", Email: "new@example.com"})
	require.NoError(t, err)
	j := seedJob(t, s, old.ID, "Closed role", "Oslo")
	j.Status = job.StatusClosed
	_, err = s.Jobs().Update(ctx, *j)
	require.NoError(t, err)
	seedJob(t, s, old.ID, "Open role", "Oslo")
	_, err = s.Applications().Create(ctx, application.Application{JobID: j.ID, ApplicantID: old.ID})
	require.NoError(t, err)

	stats, err := s.Reports().Stats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, report.Stats{Users: 2, Jobs: 2, Applications: 1, ActiveJobs: 1, ApplicationsToday: 1, NewUsersThisWeek: 1}, stats)

	users, err := s.Reports().Users(ctx, report.Range{From: now.Add(-24 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "New", users[0].Name)
}

func resumeFixture() resume.Resume {
	return resume.Resume{Name: "CV", FileName: "cv.pdf", ContentType: "application/pdf", Size: 10, ApplicantID: common.NewUUID()}
}

func TestJobUpdateRefusesStaleCopy(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	owner := common.NewUUID()
	created := seedJob(t, s, owner, "Designer", "Remote")

	first := *created
	first.Title = "Lead Designer"
	_, err := s.Jobs().Update(ctx, first)
	require.NoError(t, err)

	stale := *created
	stale.Location = "Oslo"
	_, err = s.Jobs().Update(ctx, stale)
	assert.True(t, common.Is(err, common.CodeConflict))

	got, err := s.Jobs().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lead Designer", got.Title)
	assert.Equal(t, "Remote", got.Location)
}

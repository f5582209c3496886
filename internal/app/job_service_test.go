package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobportal/internal/cache"
	"jobportal/internal/common"
	"jobportal/internal/domain/application"
	"jobportal/internal/domain/job"
)

func TestJobCreateDefaultsAndInvalidatesListFamily(t *testing.T) {
	// Setup
	f := newFixture(t)
	listKey := cache.Key(cache.PrefixJobsList, "/api/jobs?page=1")
	otherDetail := cache.Key(cache.PrefixJobsDetail, "/api/jobs/"+common.NewUUID().String())
	f.seedCache(t, listKey, otherDetail)

	// Execute
	created := f.createJob(t)

	// Assert
	assert.Equal(t, job.StatusActive, created.Status)
	assert.Equal(t, "Ada", created.PostedBy.Name)
	assert.False(t, f.cached(listKey))
	assert.True(t, f.cached(otherDetail))
}

func TestJobCreateValidates(t *testing.T) {
	f := newFixture(t)

	_, err := f.jobs.Create(context.Background(), job.Job{
		Title:    "x",
		Type:     "Gig",
		PostedBy: job.Poster{ID: f.poster.ID},
	})

	requireCode(t, err, common.CodeValidation, "invalid job")
	appErr, _ := common.AsError(err)
	assert.Contains(t, appErr.Fields, "type")
	assert.Contains(t, appErr.Fields, "category")
	assert.Contains(t, appErr.Fields, "company")
}

func TestJobUpdateMergesAndInvalidatesDetailAndLists(t *testing.T) {
	// Setup
	f := newFixture(t)
	created := f.createJob(t)
	other := f.createJob(t)
	detail := cache.Key(cache.PrefixJobsDetail, "/api/jobs/"+created.ID.String())
	variant := detail + "?fields=title"
	otherDetail := cache.Key(cache.PrefixJobsDetail, "/api/jobs/"+other.ID.String())
	list := cache.Key(cache.PrefixJobsList, "/api/jobs?category=Design")
	f.seedCache(t, detail, variant, otherDetail, list)
	title := "Senior Backend Engineer"

	// Execute
	updated, err := f.jobs.Update(context.Background(), created.ID, f.poster.ID, job.Patch{Title: &title})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, "Berlin", updated.Location)
	assert.False(t, f.cached(detail))
	assert.False(t, f.cached(variant))
	assert.False(t, f.cached(list))
	assert.True(t, f.cached(otherDetail))
}

func TestJobUpdateByNonOwnerIsNotFoundAndKeepsCache(t *testing.T) {
	f := newFixture(t)
	created := f.createJob(t)
	detail := cache.Key(cache.PrefixJobsDetail, "/api/jobs/"+created.ID.String())
	f.seedCache(t, detail)
	title := "Hijacked"

	_, err := f.jobs.Update(context.Background(), created.ID, f.applicant.ID, job.Patch{Title: &title})

	requireCode(t, err, common.CodeNotFound, "Job not found")
	assert.True(t, f.cached(detail))
}

func TestJobUpdateStatusClosesJob(t *testing.T) {
	f := newFixture(t)
	created := f.createJob(t)

	updated, err := f.jobs.UpdateStatus(context.Background(), created.ID, f.poster.ID, " Closed ")
	require.NoError(t, err)
	assert.Equal(t, job.StatusClosed, updated.Status)

	_, err = f.jobs.UpdateStatus(context.Background(), created.ID, f.poster.ID, "archived")
	requireCode(t, err, common.CodeValidation, "")
}

func TestJobDeleteCascadesApplicationsAndPurgesKeys(t *testing.T) {
	// Setup
	f := newFixture(t)
	ctx := context.Background()
	created := f.createJob(t)
	for _, name := range []string{"a", "b", "c"} {
		applicant := f.addUser(t, name, name+"@example.com")
		res := f.uploadResume(t, applicant.ID)
		f.submit(t, created.ID, applicant.ID, res.ID)
	}
	detail := cache.Key(cache.PrefixJobsDetail, "/api/jobs/"+created.ID.String())
	list := cache.Key(cache.PrefixJobsList, "/api/jobs")
	listPage := cache.Key(cache.PrefixJobsList, "/api/jobs?page=2&limit=5")
	f.seedCache(t, detail, list, listPage)

	// Execute
	result, err := f.jobs.Delete(ctx, created.ID, f.poster.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, result.ApplicationsDeleted)
	assert.Equal(t, created.ID, result.Job.ID)
	assert.False(t, f.cached(detail))
	assert.False(t, f.cached(list))
	assert.False(t, f.cached(listPage))
	_, total, err := f.store.Applications().ListByJob(ctx, created.ID, "", common.NewPage(1, 10))
	require.NoError(t, err)
	assert.Zero(t, total)
	_, err = f.jobs.Get(ctx, created.ID)
	requireCode(t, err, common.CodeNotFound, "Job not found")
}

type failingApplications struct {
	application.Repository
}

func (failingApplications) DeleteByJob(context.Context, common.UUID) (int, error) {
	return 0, assert.AnError
}

func TestJobDeleteSucceedsWhenCascadeFails(t *testing.T) {
	f := newFixture(t)
	created := f.createJob(t)
	detail := cache.Key(cache.PrefixJobsDetail, "/api/jobs/"+created.ID.String())
	f.seedCache(t, detail)
	svc := NewJobService(f.store.Jobs(), failingApplications{f.store.Applications()}, cache.NewJobInvalidator(f.layer, "/api/jobs"), f.jobs.logger)

	result, err := svc.Delete(context.Background(), created.ID, f.poster.ID)

	require.NoError(t, err)
	assert.Zero(t, result.ApplicationsDeleted)
	assert.False(t, f.cached(detail))
}

func TestJobDeleteByNonOwner(t *testing.T) {
	f := newFixture(t)
	created := f.createJob(t)

	_, err := f.jobs.Delete(context.Background(), created.ID, f.applicant.ID)

	requireCode(t, err, common.CodeNotFound, "Job not found")
	_, err = f.jobs.Get(context.Background(), created.ID)
	assert.NoError(t, err)
}

func TestJobListPagesNewestFirst(t *testing.T) {
	f := newFixture(t)
	for range 3 {
		f.createJob(t)
	}
	f.createJob(t, func(j *job.Job) { j.Category = "Design" })

	result, err := f.jobs.List(context.Background(), job.Filter{Category: "Software Development"}, common.NewPage(2, 2))

	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.TotalPages)
	assert.Equal(t, 2, result.CurrentPage)
	assert.Len(t, result.Jobs, 1)
}

func TestJobRecordViewIgnoresMissingJob(t *testing.T) {
	f := newFixture(t)
	created := f.createJob(t)

	f.jobs.RecordView(context.Background(), created.ID)
	f.jobs.RecordView(context.Background(), common.NewUUID())

	got, err := f.jobs.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)
}

// racingJobs lets another writer update the job between the service's read
// and its first write.
type racingJobs struct {
	job.Repository
	raced bool
	other func(j *job.Job)
}

func (r *racingJobs) Update(ctx context.Context, j job.Job) (*job.Job, error) {
	if !r.raced {
		r.raced = true
		fresh, err := r.Repository.GetByID(ctx, j.ID)
		if err != nil {
			return nil, err
		}
		r.other(fresh)
		if _, err := r.Repository.Update(ctx, *fresh); err != nil {
			return nil, err
		}
	}
	return r.Repository.Update(ctx, j)
}

type staleJobs struct {
	job.Repository
}

func (staleJobs) Update(context.Context, job.Job) (*job.Job, error) {
	return nil, job.ErrStale()
}

func TestJobUpdateKeepsConcurrentPatches(t *testing.T) {
	f := newFixture(t)
	created := f.createJob(t)
	repo := &racingJobs{Repository: f.store.Jobs(), other: func(j *job.Job) { j.Location = "Remote" }}
	svc := NewJobService(repo, f.store.Applications(), cache.NewJobInvalidator(f.layer, "/api/jobs"), f.jobs.logger)
	title := "Staff Engineer"

	updated, err := svc.Update(context.Background(), created.ID, f.poster.ID, job.Patch{Title: &title})

	require.NoError(t, err)
	assert.Equal(t, "Staff Engineer", updated.Title)
	assert.Equal(t, "Remote", updated.Location)
}

func TestJobUpdateGivesUpAfterRepeatedConflicts(t *testing.T) {
	f := newFixture(t)
	created := f.createJob(t)
	detail := cache.Key(cache.PrefixJobsDetail, "/api/jobs/"+created.ID.String())
	f.seedCache(t, detail)
	svc := NewJobService(staleJobs{f.store.Jobs()}, f.store.Applications(), cache.NewJobInvalidator(f.layer, "/api/jobs"), f.jobs.logger)
	title := "Staff Engineer"

	_, err := svc.Update(context.Background(), created.ID, f.poster.ID, job.Patch{Title: &title})

	requireCode(t, err, common.CodeConflict, "")
	assert.True(t, f.cached(detail))
}

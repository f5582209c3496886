package app

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"jobportal/internal/common"
	"jobportal/internal/domain/application"
	"jobportal/internal/domain/job"
)

// JobInvalidator is told about every persisted job write so cached
// representations can be dropped.
type JobInvalidator interface {
	JobCreated(ctx context.Context)
	JobChanged(ctx context.Context, id common.UUID)
	JobDeleted(ctx context.Context, id common.UUID)
}

type JobService struct {
	jobs         job.Repository
	applications application.Repository
	cache        JobInvalidator
	logger       *slog.Logger
}

func NewJobService(jobs job.Repository, applications application.Repository, cache JobInvalidator, logger *slog.Logger) *JobService {
	return &JobService{jobs: jobs, applications: applications, cache: cache, logger: logger}
}

// DeleteResult reports the removed job and how many of its applications
// were purged with it.
type DeleteResult struct {
	Job                 *job.Job `json:"job"`
	ApplicationsDeleted int      `json:"applications_deleted"`
}

func (s *JobService) Create(ctx context.Context, j job.Job) (*job.Job, error) {
	if j.PostedBy.ID.IsZero() {
		return nil, common.NewError(common.CodeUnauthorized, "unauthorized", nil)
	}
	if j.Status == "" {
		j.Status = job.StatusActive
	}
	if err := validateJob(j); err != nil {
		return nil, err
	}
	created, err := s.jobs.Create(ctx, j)
	if err != nil {
		return nil, err
	}
	s.cache.JobCreated(ctx)
	s.logger.Info("job created", slog.String("job_id", created.ID.String()), slog.String("posted_by", created.PostedBy.ID.String()))
	return created, nil
}

// Update merges patch into the job owned by ownerID. A job owned by someone
// else is reported as not found.
// updateAttempts bounds how often a patch is re-applied after losing a race
// with another write to the same job.
const updateAttempts = 3

// Update merges patch into the stored job. Concurrent patches to different
// fields both survive: a stale write is re-read and re-applied.
func (s *JobService) Update(ctx context.Context, id, ownerID common.UUID, patch job.Patch) (*job.Job, error) {
	var err error
	for range updateAttempts {
		var current, updated *job.Job
		current, err = s.owned(ctx, id, ownerID)
		if err != nil {
			return nil, err
		}
		patch.Apply(current)
		if err := validateJob(*current); err != nil {
			return nil, err
		}
		updated, err = s.jobs.Update(ctx, *current)
		if common.Is(err, common.CodeConflict) {
			s.logger.Debug("job update raced, retrying", slog.String("job_id", id.String()))
			continue
		}
		if err != nil {
			return nil, err
		}
		s.cache.JobChanged(ctx, id)
		return updated, nil
	}
	return nil, err
}

func (s *JobService) UpdateStatus(ctx context.Context, id, ownerID common.UUID, status job.Status) (*job.Job, error) {
	status = job.Status(strings.ToLower(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return nil, common.NewValidationError("invalid job status", map[string]string{"status": "status must be active, closed, or draft"})
	}
	return s.Update(ctx, id, ownerID, job.Patch{Status: &status})
}

// Delete removes the job and then its applications. The application purge is
// best effort: a failure is logged and the job stays deleted.
func (s *JobService) Delete(ctx context.Context, id, ownerID common.UUID) (*DeleteResult, error) {
	deleted, err := s.jobs.DeleteOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	result := &DeleteResult{Job: deleted}
	count, err := s.applications.DeleteByJob(ctx, id)
	if err != nil {
		s.logger.Error("delete job applications", slog.String("job_id", id.String()), slog.Any("err", err))
	} else {
		result.ApplicationsDeleted = count
	}
	s.cache.JobDeleted(ctx, id)
	s.logger.Info("job deleted", slog.String("job_id", id.String()), slog.Int("applications_deleted", result.ApplicationsDeleted))
	return result, nil
}

func (s *JobService) Get(ctx context.Context, id common.UUID) (*job.Job, error) {
	return s.jobs.GetByID(ctx, id)
}

// RecordView counts a detail view. Missing jobs are ignored so the detail
// handler can answer 404 itself.
func (s *JobService) RecordView(ctx context.Context, id common.UUID) {
	if err := s.jobs.IncrementViews(ctx, id); err != nil && !common.Is(err, common.CodeNotFound) {
		s.logger.Warn("record job view", slog.String("job_id", id.String()), slog.Any("err", err))
	}
}

func (s *JobService) List(ctx context.Context, filter job.Filter, page common.Page) (*job.ListResult, error) {
	items, total, err := s.jobs.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []job.Job{}
	}
	return &job.ListResult{
		Jobs:        items,
		CurrentPage: page.Number,
		TotalPages:  page.TotalPages(total),
		Total:       total,
	}, nil
}

func (s *JobService) ListMine(ctx context.Context, ownerID common.UUID) ([]job.Job, error) {
	return s.jobs.ListByPoster(ctx, ownerID)
}

func (s *JobService) owned(ctx context.Context, id, ownerID common.UUID) (*job.Job, error) {
	current, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.PostedBy.ID != ownerID {
		return nil, common.NewError(common.CodeNotFound, "Job not found", nil)
	}
	return current, nil
}

func validateJob(j job.Job) error {
	fields := map[string]string{}
	if strings.TrimSpace(j.Title) == "" {
		fields["title"] = "title is required"
	}
	if strings.TrimSpace(j.Company) == "" {
		fields["company"] = "company is required"
	}
	if strings.TrimSpace(j.Location) == "" {
		fields["location"] = "location is required"
	}
	if strings.TrimSpace(j.Description) == "" {
		fields["description"] = "description is required"
	}
	if !slices.Contains(job.Types, j.Type) {
		fields["type"] = "type must be one of " + strings.Join(job.Types, ", ")
	}
	if !slices.Contains(job.Categories, j.Category) {
		fields["category"] = "category must be one of " + strings.Join(job.Categories, ", ")
	}
	if !j.Status.Valid() {
		fields["status"] = "status must be active, closed, or draft"
	}
	if j.Salary.Min < 0 || (j.Salary.Max > 0 && j.Salary.Max < j.Salary.Min) {
		fields["salary"] = "salary range is invalid"
	}
	if j.Experience.Min < 0 || (j.Experience.Max > 0 && j.Experience.Max < j.Experience.Min) {
		fields["experience"] = "experience range is invalid"
	}
	if len(fields) > 0 {
		return common.NewValidationError("invalid job", fields)
	}
	return nil
}

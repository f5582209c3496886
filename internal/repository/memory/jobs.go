package memory

import (
	"context"
	"strings"
	"time"

	"jobportal/internal/common"
	"jobportal/internal/domain/job"
)

type JobRepository struct {
	store *Store
}

func (r *JobRepository) Create(_ context.Context, j job.Job) (*job.Job, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if j.ID.IsZero() {
		j.ID = common.NewUUID()
	}
	now := s.now()
	j.CreatedAt = now
	j.UpdatedAt = now
	j.Views = 0
	j.Version = 1
	j = cloneJob(j)
	s.jobs[j.ID] = j
	return s.withPoster(j), nil
}

func (r *JobRepository) Update(_ context.Context, j job.Job) (*job.Job, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.jobs[j.ID]
	if !ok || current.PostedBy.ID != j.PostedBy.ID {
		return nil, common.NewError(common.CodeNotFound, "Job not found", nil)
	}
	if current.Version != j.Version {
		return nil, job.ErrStale()
	}
	j.Version = current.Version + 1
	j.Views = current.Views
	j.CreatedAt = current.CreatedAt
	j.UpdatedAt = s.now()
	j = cloneJob(j)
	s.jobs[j.ID] = j
	return s.withPoster(j), nil
}

func (r *JobRepository) GetByID(_ context.Context, id common.UUID) (*job.Job, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "Job not found", nil)
	}
	return s.withPoster(cloneJob(j)), nil
}

func (r *JobRepository) List(_ context.Context, filter job.Filter, page common.Page) ([]job.Job, int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]job.Job, 0)
	for _, j := range s.jobs {
		if matchesFilter(j, filter) {
			matched = append(matched, *s.withPoster(cloneJob(j)))
		}
	}
	newestFirst(matched, func(j job.Job) time.Time { return j.CreatedAt })
	return paginate(matched, page), len(matched), nil
}

func (r *JobRepository) ListByPoster(_ context.Context, posterID common.UUID) ([]job.Job, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]job.Job, 0)
	for _, j := range s.jobs {
		if j.PostedBy.ID == posterID {
			items = append(items, *s.withPoster(cloneJob(j)))
		}
	}
	newestFirst(items, func(j job.Job) time.Time { return j.CreatedAt })
	return items, nil
}

func (r *JobRepository) IncrementViews(_ context.Context, id common.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return common.NewError(common.CodeNotFound, "Job not found", nil)
	}
	j.Views++
	s.jobs[id] = j
	return nil
}

func (r *JobRepository) DeleteOwned(_ context.Context, id, posterID common.UUID) (*job.Job, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok || j.PostedBy.ID != posterID {
		return nil, common.NewError(common.CodeNotFound, "Job not found", nil)
	}
	delete(s.jobs, id)
	return s.withPoster(j), nil
}

// withPoster fills the poster name. Callers hold the lock.
func (s *Store) withPoster(j job.Job) *job.Job {
	if u, ok := s.users[j.PostedBy.ID]; ok {
		j.PostedBy.Name = u.Name
	}
	return &j
}

func matchesFilter(j job.Job, f job.Filter) bool {
	if f.Status != "" && j.Status != f.Status {
		return false
	}
	if f.Category != "" && j.Category != f.Category {
		return false
	}
	if f.Type != "" && j.Type != f.Type {
		return false
	}
	if f.Location != "" && !containsFold(j.Location, f.Location) {
		return false
	}
	if f.Search != "" {
		haystack := strings.Join([]string{j.Title, j.Company, j.Description, strings.Join(j.Skills, " ")}, " ")
		for _, term := range strings.Fields(f.Search) {
			if !containsFold(haystack, term) {
				return false
			}
		}
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(substr)))
}

// Package memory implements the repositories in process. It backs the
// server when no DATABASE_URL is configured and doubles as the test store.
package memory

import (
	"sort"
	"sync"
	"time"

	"jobportal/internal/common"
	"jobportal/internal/domain/application"
	"jobportal/internal/domain/job"
	"jobportal/internal/domain/resume"
	"jobportal/internal/domain/user"
)

// Store holds every table behind one lock so multi-entity operations, such
// as deleting a resume with its applications, are atomic.
type Store struct {
	mu           sync.RWMutex
	users        map[common.UUID]user.User
	jobs         map[common.UUID]job.Job
	resumes      map[common.UUID]resume.Resume
	applications map[common.UUID]application.Application
	now          func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:        make(map[common.UUID]user.User),
		jobs:         make(map[common.UUID]job.Job),
		resumes:      make(map[common.UUID]resume.Resume),
		applications: make(map[common.UUID]application.Application),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the timestamp source. Tests use it to pin time.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{store: s}
}

func (s *Store) Jobs() *JobRepository {
	return &JobRepository{store: s}
}

func (s *Store) Resumes() *ResumeRepository {
	return &ResumeRepository{store: s}
}

func (s *Store) Applications() *ApplicationRepository {
	return &ApplicationRepository{store: s}
}

func (s *Store) Reports() *ReportRepository {
	return &ReportRepository{store: s}
}

func paginate[T any](items []T, page common.Page) []T {
	start := page.Offset()
	if start < 0 || start >= len(items) {
		return []T{}
	}
	end := start + page.Size
	if end > len(items) || end < start {
		end = len(items)
	}
	return items[start:end]
}

func newestFirst[T any](items []T, createdAt func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]).After(createdAt(items[j]))
	})
}

func cloneStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func cloneJob(j job.Job) job.Job {
	j.Requirements = cloneStrings(j.Requirements)
	j.Responsibilities = cloneStrings(j.Responsibilities)
	j.Skills = cloneStrings(j.Skills)
	if j.ApplicationDeadline != nil {
		deadline := *j.ApplicationDeadline
		j.ApplicationDeadline = &deadline
	}
	return j
}

func cloneApplication(a application.Application) application.Application {
	a.Notes = cloneStrings(a.Notes)
	history := make([]application.HistoryEntry, len(a.StatusHistory))
	copy(history, a.StatusHistory)
	a.StatusHistory = history
	a.Job = nil
	return a
}

package memory

import (
	"context"
	"time"

	"jobportal/internal/domain/application"
	"jobportal/internal/domain/job"
	"jobportal/internal/domain/report"
	"jobportal/internal/domain/user"
)

type ReportRepository struct {
	store *Store
}

func (r *ReportRepository) Stats(_ context.Context, now time.Time) (report.Stats, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	dayStart := now.UTC().Truncate(24 * time.Hour)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	stats := report.Stats{Users: len(s.users), Jobs: len(s.jobs), Applications: len(s.applications)}
	for _, j := range s.jobs {
		if j.Status == job.StatusActive {
			stats.ActiveJobs++
		}
	}
	for _, app := range s.applications {
		if !app.CreatedAt.Before(dayStart) {
			stats.ApplicationsToday++
		}
	}
	for _, u := range s.users {
		if !u.CreatedAt.Before(weekAgo) {
			stats.NewUsersThisWeek++
		}
	}
	return stats, nil
}

func (r *ReportRepository) Users(_ context.Context, rng report.Range) ([]user.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]user.User, 0)
	for _, u := range s.users {
		if rng.Contains(u.CreatedAt) {
			u.Skills = cloneStrings(u.Skills)
			items = append(items, u)
		}
	}
	newestFirst(items, func(u user.User) time.Time { return u.CreatedAt })
	return items, nil
}

func (r *ReportRepository) Jobs(_ context.Context, rng report.Range) ([]job.Job, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]job.Job, 0)
	for _, j := range s.jobs {
		if rng.Contains(j.CreatedAt) {
			items = append(items, *s.withPoster(cloneJob(j)))
		}
	}
	newestFirst(items, func(j job.Job) time.Time { return j.CreatedAt })
	return items, nil
}

func (r *ReportRepository) Applications(_ context.Context, rng report.Range) ([]application.Application, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]application.Application, 0)
	for _, app := range s.applications {
		if rng.Contains(app.CreatedAt) {
			items = append(items, *s.withJob(cloneApplication(app)))
		}
	}
	newestFirst(items, func(a application.Application) time.Time { return a.CreatedAt })
	return items, nil
}

func (r *ReportRepository) Ping(context.Context) error {
	return nil
}

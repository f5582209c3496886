package report

import (
	"context"
	"time"

	"jobportal/internal/domain/application"
	"jobportal/internal/domain/job"
	"jobportal/internal/domain/user"
)

type Stats struct {
	Users             int `json:"users"`
	Jobs              int `json:"jobs"`
	Applications      int `json:"applications"`
	ActiveJobs        int `json:"active_jobs"`
	ApplicationsToday int `json:"applications_today"`
	NewUsersThisWeek  int `json:"new_users_this_week"`
}

// Range bounds exports by creation time. Zero bounds are open.
type Range struct {
	From time.Time
	To   time.Time
}

func (r Range) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

type Repository interface {
	Stats(ctx context.Context, now time.Time) (Stats, error)
	Users(ctx context.Context, r Range) ([]user.User, error)
	Jobs(ctx context.Context, r Range) ([]job.Job, error)
	Applications(ctx context.Context, r Range) ([]application.Application, error)
	Ping(ctx context.Context) error
}

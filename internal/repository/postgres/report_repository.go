package postgres

import (
	"context"
	"database/sql"
	"time"

	"jobportal/internal/common"
	"jobportal/internal/domain/application"
	"jobportal/internal/domain/job"
	"jobportal/internal/domain/report"
	"jobportal/internal/domain/user"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Stats(ctx context.Context, now time.Time) (report.Stats, error) {
	var stats report.Stats
	dayStart := now.UTC().Truncate(24 * time.Hour)
	weekAgo := now.Add(-7 * 24 * time.Hour)
	err := r.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM jobs),
		(SELECT COUNT(*) FROM applications),
		(SELECT COUNT(*) FROM jobs WHERE status = $1),
		(SELECT COUNT(*) FROM applications WHERE created_at >= $2),
		(SELECT COUNT(*) FROM users WHERE created_at >= $3)`,
		job.StatusActive, dayStart, weekAgo).
		Scan(&stats.Users, &stats.Jobs, &stats.Applications, &stats.ActiveJobs, &stats.ApplicationsToday, &stats.NewUsersThisWeek)
	if err != nil {
		return report.Stats{}, common.NewError(common.CodeInternal, "failed to load stats", err)
	}
	return stats, nil
}

func (r *ReportRepository) Users(ctx context.Context, rng report.Range) ([]user.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users
		WHERE ($1::timestamptz IS NULL OR created_at >= $1) AND ($2::timestamptz IS NULL OR created_at <= $2)
		ORDER BY created_at DESC`, rangeBound(rng.From), rangeBound(rng.To))
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to export users", err)
	}
	defer rows.Close()
	items := make([]user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, common.NewError(common.CodeInternal, "failed to scan user", err)
		}
		items = append(items, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to export users", err)
	}
	return items, nil
}

func (r *ReportRepository) Jobs(ctx context.Context, rng report.Range) ([]job.Job, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+jobColumns+jobFrom+`
		WHERE ($1::timestamptz IS NULL OR j.created_at >= $1) AND ($2::timestamptz IS NULL OR j.created_at <= $2)
		ORDER BY j.created_at DESC`, rangeBound(rng.From), rangeBound(rng.To))
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to export jobs", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (r *ReportRepository) Applications(ctx context.Context, rng report.Range) ([]application.Application, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+applicationColumns+applicationFrom+`
		WHERE ($1::timestamptz IS NULL OR a.created_at >= $1) AND ($2::timestamptz IS NULL OR a.created_at <= $2)
		ORDER BY a.created_at DESC`, rangeBound(rng.From), rangeBound(rng.To))
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to export applications", err)
	}
	apps := &ApplicationRepository{db: r.db}
	return apps.many(ctx, rows)
}

func (r *ReportRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func rangeBound(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"jobportal/internal/common"
	"jobportal/internal/domain/job"
)

const jobColumns = `j.id, j.title, j.company, j.location, j.type, j.category, j.description,
	j.requirements, j.responsibilities, j.skills, j.salary_min, j.salary_max, j.experience_min, j.experience_max,
	j.status, j.application_deadline, j.views, j.posted_by, COALESCE(u.name, ''), j.created_at, j.updated_at, j.version`

const jobFrom = ` FROM jobs j LEFT JOIN users u ON u.id = j.posted_by`

type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(ctx context.Context, j job.Job) (*job.Job, error) {
	if j.ID.IsZero() {
		j.ID = common.NewUUID()
	}
	now := time.Now().UTC()
	j.CreatedAt = now
	j.UpdatedAt = now
	j.Views = 0
	_, err := r.db.ExecContext(ctx, `INSERT INTO jobs (id, title, company, location, type, category, description,
		requirements, responsibilities, skills, salary_min, salary_max, experience_min, experience_max,
		status, application_deadline, views, posted_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, 0, $17, $18, $19)`,
		j.ID, j.Title, j.Company, j.Location, j.Type, j.Category, j.Description,
		pq.Array(nonNil(j.Requirements)), pq.Array(nonNil(j.Responsibilities)), pq.Array(nonNil(j.Skills)),
		j.Salary.Min, j.Salary.Max, j.Experience.Min, j.Experience.Max,
		j.Status, nullTime(j.ApplicationDeadline), j.PostedBy.ID, j.CreatedAt, j.UpdatedAt)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to create job", err)
	}
	return r.GetByID(ctx, j.ID)
}

func (r *JobRepository) Update(ctx context.Context, j job.Job) (*job.Job, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE jobs SET title = $1, company = $2, location = $3, type = $4, category = $5,
		description = $6, requirements = $7, responsibilities = $8, skills = $9, salary_min = $10, salary_max = $11,
		experience_min = $12, experience_max = $13, status = $14, application_deadline = $15, updated_at = $16,
		version = version + 1
		WHERE id = $17 AND posted_by = $18 AND version = $19`,
		j.Title, j.Company, j.Location, j.Type, j.Category, j.Description,
		pq.Array(nonNil(j.Requirements)), pq.Array(nonNil(j.Responsibilities)), pq.Array(nonNil(j.Skills)),
		j.Salary.Min, j.Salary.Max, j.Experience.Min, j.Experience.Max,
		j.Status, nullTime(j.ApplicationDeadline), time.Now().UTC(), j.ID, j.PostedBy.ID, j.Version)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to update job", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to update job", err)
	}
	if rows == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM jobs WHERE id = $1 AND posted_by = $2)`, j.ID, j.PostedBy.ID).Scan(&exists); err != nil {
			return nil, common.NewError(common.CodeInternal, "failed to update job", err)
		}
		if exists {
			return nil, job.ErrStale()
		}
		return nil, common.NewError(common.CodeNotFound, "Job not found", sql.ErrNoRows)
	}
	return r.GetByID(ctx, j.ID)
}

func (r *JobRepository) GetByID(ctx context.Context, id common.UUID) (*job.Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+jobFrom+` WHERE j.id = $1`, id)
	j, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewError(common.CodeNotFound, "Job not found", err)
		}
		return nil, common.NewError(common.CodeInternal, "failed to load job", err)
	}
	return j, nil
}

func (r *JobRepository) List(ctx context.Context, filter job.Filter, page common.Page) ([]job.Job, int, error) {
	where, args := jobFilterClause(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs j`+where, args...).Scan(&total); err != nil {
		return nil, 0, common.NewError(common.CodeInternal, "failed to count jobs", err)
	}

	args = append(args, page.Size, page.Offset())
	query := fmt.Sprintf(`SELECT %s%s%s ORDER BY j.created_at DESC LIMIT $%d OFFSET $%d`, jobColumns, jobFrom, where, len(args)-1, len(args))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, common.NewError(common.CodeInternal, "failed to list jobs", err)
	}
	defer rows.Close()
	items, err := scanJobs(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *JobRepository) ListByPoster(ctx context.Context, posterID common.UUID) ([]job.Job, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+jobColumns+jobFrom+` WHERE j.posted_by = $1 ORDER BY j.created_at DESC`, posterID)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list jobs", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (r *JobRepository) IncrementViews(ctx context.Context, id common.UUID) error {
	result, err := r.db.ExecContext(ctx, `UPDATE jobs SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return common.NewError(common.CodeInternal, "failed to count job view", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return common.NewError(common.CodeNotFound, "Job not found", sql.ErrNoRows)
	}
	return nil
}

func (r *JobRepository) DeleteOwned(ctx context.Context, id, posterID common.UUID) (*job.Job, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.PostedBy.ID != posterID {
		return nil, common.NewError(common.CodeNotFound, "Job not found", nil)
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1 AND posted_by = $2`, id, posterID)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to delete job", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return nil, common.NewError(common.CodeNotFound, "Job not found", sql.ErrNoRows)
	}
	return current, nil
}

func jobFilterClause(f job.Filter) (string, []any) {
	conditions := make([]string, 0, 5)
	args := make([]any, 0, 5)
	add := func(cond string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("j.status = $%d", f.Status)
	}
	if f.Category != "" {
		add("j.category = $%d", f.Category)
	}
	if f.Type != "" {
		add("j.type = $%d", f.Type)
	}
	if f.Location != "" {
		add("j.location ILIKE '%%' || $%d || '%%'", escapeLike(f.Location))
	}
	if f.Search != "" {
		add("to_tsvector('simple', j.title || ' ' || j.company || ' ' || j.description) @@ plainto_tsquery('simple', $%d)", f.Search)
	}
	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*job.Job, error) {
	var (
		j        job.Job
		deadline sql.NullTime
	)
	err := row.Scan(&j.ID, &j.Title, &j.Company, &j.Location, &j.Type, &j.Category, &j.Description,
		pq.Array(&j.Requirements), pq.Array(&j.Responsibilities), pq.Array(&j.Skills),
		&j.Salary.Min, &j.Salary.Max, &j.Experience.Min, &j.Experience.Max,
		&j.Status, &deadline, &j.Views, &j.PostedBy.ID, &j.PostedBy.Name, &j.CreatedAt, &j.UpdatedAt, &j.Version)
	if err != nil {
		return nil, err
	}
	if deadline.Valid {
		t := deadline.Time.UTC()
		j.ApplicationDeadline = &t
	}
	j.Requirements = nonNil(j.Requirements)
	j.Responsibilities = nonNil(j.Responsibilities)
	j.Skills = nonNil(j.Skills)
	return &j, nil
}

func scanJobs(rows *sql.Rows) ([]job.Job, error) {
	items := make([]job.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, common.NewError(common.CodeInternal, "failed to scan job", err)
		}
		items = append(items, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list jobs", err)
	}
	return items, nil
}

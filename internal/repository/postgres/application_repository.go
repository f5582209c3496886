package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"jobportal/internal/common"
	"jobportal/internal/database"
	"jobportal/internal/domain/application"
)

const applicationColumns = `a.id, a.job_id, a.applicant_id, a.resume_id, a.cover_letter, a.status, a.notes,
	a.applied_at, a.last_status_update, a.created_at, a.updated_at,
	j.title, j.company, j.location, j.type`

const applicationFrom = ` FROM applications a LEFT JOIN jobs j ON j.id = a.job_id`

type ApplicationRepository struct {
	db *sql.DB
}

func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Create(ctx context.Context, app application.Application) (*application.Application, error) {
	if app.ID.IsZero() {
		app.ID = common.NewUUID()
	}
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now
	_, err := database.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		_, err := tx.ExecContext(ctx, `INSERT INTO applications (id, job_id, applicant_id, resume_id, cover_letter, status, notes,
			applied_at, last_status_update, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			app.ID, app.JobID, app.ApplicantID, app.ResumeID, app.CoverLetter, app.Status, pq.Array(nonNil(app.Notes)),
			app.AppliedAt, app.LastStatusUpdate, app.CreatedAt, app.UpdatedAt)
		if err != nil {
			return struct{}{}, err
		}
		for _, entry := range app.StatusHistory {
			if err := insertHistory(ctx, tx, app.ID, entry); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, application.ErrAlreadyApplied()
		}
		return nil, common.NewError(common.CodeInternal, "failed to create application", err)
	}
	return r.GetByID(ctx, app.ID)
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id common.UUID) (*application.Application, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+applicationColumns+applicationFrom+` WHERE a.id = $1`, id)
	return r.one(ctx, row)
}

func (r *ApplicationRepository) FindActive(ctx context.Context, jobID, applicantID common.UUID) (*application.Application, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+applicationColumns+applicationFrom+`
		WHERE a.job_id = $1 AND a.applicant_id = $2 AND a.status <> $3`, jobID, applicantID, application.StatusWithdrawn)
	return r.one(ctx, row)
}

func (r *ApplicationRepository) Transition(ctx context.Context, id common.UUID, from application.Status, entry application.HistoryEntry) (*application.Application, error) {
	_, err := database.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		result, err := tx.ExecContext(ctx, `UPDATE applications SET status = $1, last_status_update = $2, updated_at = $2
			WHERE id = $3 AND status = $4`, entry.Status, entry.UpdatedAt, id, from)
		if err != nil {
			return struct{}{}, common.NewError(common.CodeInternal, "failed to update application", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return struct{}{}, common.NewError(common.CodeInternal, "failed to update application", err)
		}
		if rows == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM applications WHERE id = $1)`, id).Scan(&exists); err != nil {
				return struct{}{}, common.NewError(common.CodeInternal, "failed to load application", err)
			}
			if !exists {
				return struct{}{}, common.NewError(common.CodeNotFound, "Application not found", nil)
			}
			return struct{}{}, common.NewError(common.CodeInvalidState, "application status changed concurrently", nil)
		}
		if err := insertHistory(ctx, tx, id, entry); err != nil {
			return struct{}{}, common.NewError(common.CodeInternal, "failed to record status history", err)
		}
		return struct{}{}, nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *ApplicationRepository) SetNotes(ctx context.Context, id common.UUID, notes []string) (*application.Application, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE applications SET notes = $1, updated_at = $2 WHERE id = $3`,
		pq.Array(nonNil(notes)), time.Now().UTC(), id)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to update notes", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return nil, common.NewError(common.CodeNotFound, "Application not found", sql.ErrNoRows)
	}
	return r.GetByID(ctx, id)
}

func (r *ApplicationRepository) ListByApplicant(ctx context.Context, applicantID common.UUID, page common.Page) ([]application.Application, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM applications WHERE applicant_id = $1`, applicantID).Scan(&total); err != nil {
		return nil, 0, common.NewError(common.CodeInternal, "failed to count applications", err)
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+applicationColumns+applicationFrom+`
		WHERE a.applicant_id = $1 ORDER BY a.applied_at DESC LIMIT $2 OFFSET $3`, applicantID, page.Size, page.Offset())
	if err != nil {
		return nil, 0, common.NewError(common.CodeInternal, "failed to list applications", err)
	}
	items, err := r.many(ctx, rows)
	return items, total, err
}

func (r *ApplicationRepository) ListByJob(ctx context.Context, jobID common.UUID, status application.Status, page common.Page) ([]application.Application, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM applications WHERE job_id = $1 AND ($2 = '' OR status = $2)`,
		jobID, string(status)).Scan(&total); err != nil {
		return nil, 0, common.NewError(common.CodeInternal, "failed to count applications", err)
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+applicationColumns+applicationFrom+`
		WHERE a.job_id = $1 AND ($2 = '' OR a.status = $2) ORDER BY a.applied_at DESC LIMIT $3 OFFSET $4`,
		jobID, string(status), page.Size, page.Offset())
	if err != nil {
		return nil, 0, common.NewError(common.CodeInternal, "failed to list applications", err)
	}
	items, err := r.many(ctx, rows)
	return items, total, err
}

func (r *ApplicationRepository) ListIDsByResume(ctx context.Context, resumeID common.UUID) ([]common.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM applications WHERE resume_id = $1 ORDER BY applied_at`, resumeID)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list applications", err)
	}
	defer rows.Close()
	ids := make([]common.UUID, 0)
	for rows.Next() {
		var id common.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, common.NewError(common.CodeInternal, "failed to scan application", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list applications", err)
	}
	return ids, nil
}

func (r *ApplicationRepository) DeleteByJob(ctx context.Context, jobID common.UUID) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM applications WHERE job_id = $1`, jobID)
	if err != nil {
		return 0, common.NewError(common.CodeInternal, "failed to delete job applications", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, common.NewError(common.CodeInternal, "failed to delete job applications", err)
	}
	return int(rows), nil
}

func (r *ApplicationRepository) one(ctx context.Context, row rowScanner) (*application.Application, error) {
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewError(common.CodeNotFound, "Application not found", err)
		}
		return nil, common.NewError(common.CodeInternal, "failed to load application", err)
	}
	items := []application.Application{*app}
	if err := loadHistory(ctx, r.db, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (r *ApplicationRepository) many(ctx context.Context, rows *sql.Rows) ([]application.Application, error) {
	defer rows.Close()
	items := make([]application.Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, common.NewError(common.CodeInternal, "failed to scan application", err)
		}
		items = append(items, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list applications", err)
	}
	if err := loadHistory(ctx, r.db, items); err != nil {
		return nil, err
	}
	return items, nil
}

func scanApplication(row rowScanner) (*application.Application, error) {
	var (
		app                              application.Application
		title, company, location, jobType sql.NullString
	)
	err := row.Scan(&app.ID, &app.JobID, &app.ApplicantID, &app.ResumeID, &app.CoverLetter, &app.Status, pq.Array(&app.Notes),
		&app.AppliedAt, &app.LastStatusUpdate, &app.CreatedAt, &app.UpdatedAt,
		&title, &company, &location, &jobType)
	if err != nil {
		return nil, err
	}
	app.Notes = nonNil(app.Notes)
	if title.Valid {
		app.Job = &application.JobSummary{Title: title.String, Company: company.String, Location: location.String, Type: jobType.String}
	}
	return &app, nil
}

func insertHistory(ctx context.Context, q database.Querier, applicationID common.UUID, entry application.HistoryEntry) error {
	_, err := q.ExecContext(ctx, `INSERT INTO application_status_history (application_id, status, updated_at, updated_by)
		VALUES ($1, $2, $3, $4)`, applicationID, entry.Status, entry.UpdatedAt, entry.UpdatedBy)
	return err
}

// loadHistory fills StatusHistory for every item with one query.
func loadHistory(ctx context.Context, q database.Querier, items []application.Application) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, len(items))
	index := make(map[common.UUID]int, len(items))
	for i := range items {
		ids[i] = items[i].ID.String()
		index[items[i].ID] = i
		items[i].StatusHistory = []application.HistoryEntry{}
	}
	rows, err := q.QueryContext(ctx, `SELECT application_id, status, updated_at, updated_by
		FROM application_status_history WHERE application_id = ANY($1::uuid[]) ORDER BY id`, pq.Array(ids))
	if err != nil {
		return common.NewError(common.CodeInternal, "failed to load status history", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			appID common.UUID
			entry application.HistoryEntry
		)
		if err := rows.Scan(&appID, &entry.Status, &entry.UpdatedAt, &entry.UpdatedBy); err != nil {
			return common.NewError(common.CodeInternal, "failed to scan status history", err)
		}
		if i, ok := index[appID]; ok {
			items[i].StatusHistory = append(items[i].StatusHistory, entry)
		}
	}
	if err := rows.Err(); err != nil {
		return common.NewError(common.CodeInternal, "failed to load status history", err)
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"jobportal/internal/common"
	"jobportal/internal/database"
	"jobportal/internal/domain/resume"
)

const resumeColumns = `id, name, path, file_name, content_type, size, applicant_id, uploaded_at`

type ResumeRepository struct {
	db *sql.DB
}

func NewResumeRepository(db *sql.DB) *ResumeRepository {
	return &ResumeRepository{db: db}
}

func (r *ResumeRepository) Create(ctx context.Context, res resume.Resume) (*resume.Resume, error) {
	if res.ID.IsZero() {
		res.ID = common.NewUUID()
	}
	res.UploadedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `INSERT INTO resumes (`+resumeColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		res.ID, res.Name, res.Path, res.FileName, res.ContentType, res.Size, res.ApplicantID, res.UploadedAt)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to create resume", err)
	}
	return &res, nil
}

func (r *ResumeRepository) GetByID(ctx context.Context, id common.UUID) (*resume.Resume, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+resumeColumns+` FROM resumes WHERE id = $1`, id)
	res, err := scanResume(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewError(common.CodeNotFound, "Resume not found", err)
		}
		return nil, common.NewError(common.CodeInternal, "failed to load resume", err)
	}
	return res, nil
}

func (r *ResumeRepository) ListByApplicant(ctx context.Context, applicantID common.UUID) ([]resume.Resume, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+resumeColumns+` FROM resumes WHERE applicant_id = $1 ORDER BY uploaded_at DESC`, applicantID)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list resumes", err)
	}
	defer rows.Close()
	items := make([]resume.Resume, 0)
	for rows.Next() {
		res, err := scanResume(rows)
		if err != nil {
			return nil, common.NewError(common.CodeInternal, "failed to scan resume", err)
		}
		items = append(items, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list resumes", err)
	}
	return items, nil
}

func (r *ResumeRepository) DeleteWithApplications(ctx context.Context, id common.UUID) (int, error) {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) (int, error) {
		result, err := tx.ExecContext(ctx, `DELETE FROM applications WHERE resume_id = $1`, id)
		if err != nil {
			return 0, common.NewError(common.CodeInternal, "failed to delete resume applications", err)
		}
		deleted, err := result.RowsAffected()
		if err != nil {
			return 0, common.NewError(common.CodeInternal, "failed to delete resume applications", err)
		}
		result, err = tx.ExecContext(ctx, `DELETE FROM resumes WHERE id = $1`, id)
		if err != nil {
			return 0, common.NewError(common.CodeInternal, "failed to delete resume", err)
		}
		if rows, err := result.RowsAffected(); err == nil && rows == 0 {
			return 0, common.NewError(common.CodeNotFound, "Resume not found", sql.ErrNoRows)
		}
		return int(deleted), nil
	})
}

func scanResume(row rowScanner) (*resume.Resume, error) {
	var res resume.Resume
	if err := row.Scan(&res.ID, &res.Name, &res.Path, &res.FileName, &res.ContentType, &res.Size, &res.ApplicantID, &res.UploadedAt); err != nil {
		return nil, err
	}
	return &res, nil
}

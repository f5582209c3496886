package resume

import (
	"context"
	"time"

	"jobportal/internal/common"
)

type Resume struct {
	ID          common.UUID `json:"id"`
	Name        string      `json:"name"`
	Path        string      `json:"-"`
	FileName    string      `json:"file_name"`
	ContentType string      `json:"content_type"`
	Size        int64       `json:"size"`
	ApplicantID common.UUID `json:"applicant_id"`
	UploadedAt  time.Time   `json:"uploaded_at"`
}

type Repository interface {
	Create(ctx context.Context, r Resume) (*Resume, error)
	GetByID(ctx context.Context, id common.UUID) (*Resume, error)
	ListByApplicant(ctx context.Context, applicantID common.UUID) ([]Resume, error)
	// DeleteWithApplications removes the resume and every application that
	// references it in one transaction and returns the number of applications removed.
	DeleteWithApplications(ctx context.Context, id common.UUID) (int, error)
}

package application

import (
	"context"

	"jobportal/internal/common"
)

type Repository interface {
	// Create stores app together with its history. A second non-withdrawn
	// application for the same job and applicant fails with invalid_state.
	Create(ctx context.Context, app Application) (*Application, error)
	GetByID(ctx context.Context, id common.UUID) (*Application, error)
	FindActive(ctx context.Context, jobID, applicantID common.UUID) (*Application, error)
	// Transition moves the application from `from` to entry.Status and appends
	// entry in one atomic step. It fails with invalid_state when the current
	// status is no longer `from`.
	Transition(ctx context.Context, id common.UUID, from Status, entry HistoryEntry) (*Application, error)
	SetNotes(ctx context.Context, id common.UUID, notes []string) (*Application, error)
	ListByApplicant(ctx context.Context, applicantID common.UUID, page common.Page) ([]Application, int, error)
	ListByJob(ctx context.Context, jobID common.UUID, status Status, page common.Page) ([]Application, int, error)
	ListIDsByResume(ctx context.Context, resumeID common.UUID) ([]common.UUID, error)
	DeleteByJob(ctx context.Context, jobID common.UUID) (int, error)
}

package application

import (
	"strings"
	"time"

	"jobportal/internal/common"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusUnderReview Status = "under_review"
	StatusAccepted    Status = "accepted"
	StatusRejected    Status = "rejected"
	StatusWithdrawn   Status = "withdrawn"
)

type HistoryEntry struct {
	Status    Status      `json:"status"`
	UpdatedAt time.Time   `json:"updated_at"`
	UpdatedBy common.UUID `json:"updated_by"`
}

type JobSummary struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
	Type     string `json:"type"`
}

type Application struct {
	ID               common.UUID    `json:"id"`
	JobID            common.UUID    `json:"job_id"`
	ApplicantID      common.UUID    `json:"applicant_id"`
	ResumeID         common.UUID    `json:"resume_id"`
	CoverLetter      string         `json:"cover_letter"`
	Status           Status         `json:"status"`
	Notes            []string       `json:"notes"`
	AppliedAt        time.Time      `json:"applied_at"`
	LastStatusUpdate time.Time      `json:"last_status_update"`
	StatusHistory    []HistoryEntry `json:"status_history"`
	Job              *JobSummary    `json:"job,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Record applies a status change and appends the matching history entry.
func (a *Application) Record(entry HistoryEntry) {
	a.Status = entry.Status
	a.LastStatusUpdate = entry.UpdatedAt
	a.UpdatedAt = entry.UpdatedAt
	a.StatusHistory = append(a.StatusHistory, entry)
}

// ErrAlreadyApplied reports a second non-withdrawn application for the same
// job and applicant.
func ErrAlreadyApplied() error {
	return common.NewError(common.CodeInvalidState, "You have already applied for this job", nil)
}

func ParseStatus(value string) Status {
	return Status(strings.ToLower(strings.TrimSpace(value)))
}

func (s Status) Known() bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusAccepted, StatusRejected, StatusWithdrawn:
		return true
	default:
		return false
	}
}

// EmployerSettable reports whether the job poster may set s. Withdrawal is
// reserved to the applicant.
func (s Status) EmployerSettable() bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusAccepted, StatusRejected:
		return true
	default:
		return false
	}
}

// Final states have no outgoing transitions.
func (s Status) Final() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusWithdrawn
}

package app

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"jobportal/internal/common"
	"jobportal/internal/domain/application"
	"jobportal/internal/domain/job"
	"jobportal/internal/domain/resume"
	"jobportal/internal/notify"
)

const defaultNotifyTimeout = 5 * time.Second

type ApplicationService struct {
	apps          application.Repository
	jobs          job.Repository
	resumes       resume.Repository
	notifier      notify.Notifier
	logger        *slog.Logger
	now           func() time.Time
	notifyTimeout time.Duration
	pending       sync.WaitGroup
}

func NewApplicationService(apps application.Repository, jobs job.Repository, resumes resume.Repository, notifier notify.Notifier, logger *slog.Logger) *ApplicationService {
	return &ApplicationService{
		apps:          apps,
		jobs:          jobs,
		resumes:       resumes,
		notifier:      notifier,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
		notifyTimeout: defaultNotifyTimeout,
	}
}

type SubmitInput struct {
	JobID       common.UUID
	ApplicantID common.UUID
	ResumeID    common.UUID
	CoverLetter string
}

func (s *ApplicationService) Submit(ctx context.Context, in SubmitInput) (*application.Application, error) {
	fields := map[string]string{}
	if in.ResumeID.IsZero() {
		fields["resume_id"] = "Resume ID is required"
	}
	if strings.TrimSpace(in.CoverLetter) == "" {
		fields["cover_letter"] = "cover letter is required"
	}
	if len(fields) > 0 {
		return nil, common.NewValidationError("invalid application", fields)
	}

	target, err := s.jobs.GetByID(ctx, in.JobID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if target.Status != job.StatusActive {
		return nil, common.NewError(common.CodeInvalidState, "This job is no longer accepting applications", nil)
	}
	if target.DeadlinePassed(now) {
		return nil, common.NewError(common.CodeInvalidState, "The application deadline for this job has passed", nil)
	}
	res, err := s.resumes.GetByID(ctx, in.ResumeID)
	if err != nil {
		return nil, err
	}
	if res.ApplicantID != in.ApplicantID {
		return nil, common.NewError(common.CodeNotFound, "Resume not found", nil)
	}
	if _, err := s.apps.FindActive(ctx, in.JobID, in.ApplicantID); err == nil {
		return nil, application.ErrAlreadyApplied()
	} else if !common.Is(err, common.CodeNotFound) {
		return nil, err
	}

	app := application.Application{
		JobID:       in.JobID,
		ApplicantID: in.ApplicantID,
		ResumeID:    in.ResumeID,
		CoverLetter: strings.TrimSpace(in.CoverLetter),
		Notes:       []string{},
		AppliedAt:   now,
	}
	app.Record(application.HistoryEntry{Status: application.StatusPending, UpdatedAt: now, UpdatedBy: in.ApplicantID})
	created, err := s.apps.Create(ctx, app)
	if err != nil {
		return nil, err
	}
	s.logger.Info("application submitted",
		slog.String("application_id", created.ID.String()),
		slog.String("job_id", in.JobID.String()),
		slog.String("applicant_id", in.ApplicantID.String()),
	)
	s.dispatch(ctx, eventFor(notify.TypeApplicationSubmitted, created, target))
	return created, nil
}

// UpdateStatus lets the job's poster move an application forward. Accepted,
// rejected and withdrawn applications are final.
func (s *ApplicationService) UpdateStatus(ctx context.Context, id common.UUID, status application.Status, actorID common.UUID) (*application.Application, error) {
	if !status.EmployerSettable() {
		return nil, common.NewValidationError("Invalid status", map[string]string{"status": "status must be pending, under_review, accepted, or rejected"})
	}
	current, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	target, err := s.jobs.GetByID(ctx, current.JobID)
	if err != nil {
		return nil, err
	}
	if target.PostedBy.ID != actorID {
		return nil, common.NewError(common.CodeForbidden, "Not authorized to update this application", nil)
	}
	if current.Status.Final() {
		return nil, errStatusFinal()
	}
	updated, err := s.apps.Transition(ctx, id, current.Status, application.HistoryEntry{Status: status, UpdatedAt: s.now(), UpdatedBy: actorID})
	if err != nil {
		return nil, err
	}
	s.logger.Info("application status updated",
		slog.String("application_id", id.String()),
		slog.String("from", string(current.Status)),
		slog.String("to", string(status)),
	)
	s.dispatch(ctx, eventFor(notify.TypeStatusChanged, updated, target))
	return updated, nil
}

func (s *ApplicationService) Withdraw(ctx context.Context, id, actorID common.UUID) (*application.Application, error) {
	current, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.ApplicantID != actorID {
		return nil, common.NewError(common.CodeForbidden, "Not authorized to withdraw this application", nil)
	}
	if current.Status == application.StatusWithdrawn {
		return nil, errAlreadyWithdrawn()
	}
	if current.Status.Final() {
		return nil, errStatusFinal()
	}
	updated, err := s.apps.Transition(ctx, id, current.Status, application.HistoryEntry{Status: application.StatusWithdrawn, UpdatedAt: s.now(), UpdatedBy: actorID})
	if err != nil {
		// A concurrent withdraw won the race.
		if common.Is(err, common.CodeInvalidState) {
			if latest, getErr := s.apps.GetByID(ctx, id); getErr == nil && latest.Status == application.StatusWithdrawn {
				return nil, errAlreadyWithdrawn()
			}
		}
		return nil, err
	}
	s.logger.Info("application withdrawn", slog.String("application_id", id.String()))
	if target, err := s.jobs.GetByID(ctx, updated.JobID); err == nil {
		s.dispatch(ctx, eventFor(notify.TypeApplicationWithdrawn, updated, target))
	}
	return updated, nil
}

func (s *ApplicationService) ListMine(ctx context.Context, applicantID common.UUID, page common.Page) ([]application.Application, int, error) {
	return s.apps.ListByApplicant(ctx, applicantID, page)
}

func (s *ApplicationService) GetMine(ctx context.Context, id, applicantID common.UUID) (*application.Application, error) {
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.ApplicantID != applicantID {
		return nil, errApplicationNotFound()
	}
	return app, nil
}

// ListForJob returns the applications of a job to its poster. Other callers
// get not_found so job ownership is not disclosed.
func (s *ApplicationService) ListForJob(ctx context.Context, jobID, posterID common.UUID, status application.Status, page common.Page) ([]application.Application, int, error) {
	if status != "" && !status.Known() {
		return nil, 0, common.NewValidationError("Invalid status", map[string]string{"status": "unknown application status"})
	}
	target, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, 0, err
	}
	if target.PostedBy.ID != posterID {
		return nil, 0, common.NewError(common.CodeNotFound, "Job not found", nil)
	}
	return s.apps.ListByJob(ctx, jobID, status, page)
}

// Get returns an application to its applicant or to the poster of its job.
func (s *ApplicationService) Get(ctx context.Context, id, actorID common.UUID) (*application.Application, error) {
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.ApplicantID == actorID {
		return app, nil
	}
	target, err := s.jobs.GetByID(ctx, app.JobID)
	if err != nil || target.PostedBy.ID != actorID {
		return nil, errApplicationNotFound()
	}
	return app, nil
}

// SetNotes replaces the poster's notes on an application.
func (s *ApplicationService) SetNotes(ctx context.Context, id common.UUID, notes []string, actorID common.UUID) (*application.Application, error) {
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	target, err := s.jobs.GetByID(ctx, app.JobID)
	if err != nil {
		return nil, err
	}
	if target.PostedBy.ID != actorID {
		return nil, common.NewError(common.CodeForbidden, "Not authorized to add notes to this application", nil)
	}
	cleaned := make([]string, 0, len(notes))
	for _, note := range notes {
		if note = strings.TrimSpace(note); note != "" {
			cleaned = append(cleaned, note)
		}
	}
	return s.apps.SetNotes(ctx, id, cleaned)
}

// Wait blocks until in-flight notifications have been handed off.
func (s *ApplicationService) Wait() {
	s.pending.Wait()
}

// dispatch hands the event to the notifier in the background. Delivery
// failures are logged and never reach the caller.
func (s *ApplicationService) dispatch(ctx context.Context, event notify.Event) {
	if s.notifier == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(notifyCtx, event); err != nil {
			s.logger.Warn("notification failed",
				slog.String("type", event.Type),
				slog.String("application_id", event.ApplicationID.String()),
				slog.Any("err", err),
			)
		}
	}()
}

func eventFor(kind string, app *application.Application, target *job.Job) notify.Event {
	return notify.Event{
		Type:          kind,
		ApplicationID: app.ID,
		JobID:         target.ID,
		JobTitle:      target.Title,
		Company:       target.Company,
		ApplicantID:   app.ApplicantID,
		PosterID:      target.PostedBy.ID,
		Status:        string(app.Status),
	}
}

func errStatusFinal() error {
	return common.NewError(common.CodeInvalidState, "application status is final", nil)
}

func errAlreadyWithdrawn() error {
	return common.NewError(common.CodeInvalidState, "Application already withdrawn", nil)
}

func errApplicationNotFound() error {
	return common.NewError(common.CodeNotFound, "Application not found", nil)
}

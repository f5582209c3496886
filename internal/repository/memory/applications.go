package memory

import (
	"context"
	"time"

	"jobportal/internal/common"
	"jobportal/internal/domain/application"
)

type ApplicationRepository struct {
	store *Store
}

func (r *ApplicationRepository) Create(_ context.Context, app application.Application) (*application.Application, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.findActive(app.JobID, app.ApplicantID); ok {
		return nil, application.ErrAlreadyApplied()
	}
	if app.ID.IsZero() {
		app.ID = common.NewUUID()
	}
	now := s.now()
	app.CreatedAt = now
	app.UpdatedAt = now
	app = cloneApplication(app)
	s.applications[app.ID] = app
	return s.withJob(app), nil
}

func (r *ApplicationRepository) GetByID(_ context.Context, id common.UUID) (*application.Application, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.applications[id]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "Application not found", nil)
	}
	return s.withJob(cloneApplication(app)), nil
}

func (r *ApplicationRepository) FindActive(_ context.Context, jobID, applicantID common.UUID) (*application.Application, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.findActive(jobID, applicantID)
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "Application not found", nil)
	}
	return s.withJob(cloneApplication(app)), nil
}

func (r *ApplicationRepository) Transition(_ context.Context, id common.UUID, from application.Status, entry application.HistoryEntry) (*application.Application, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[id]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "Application not found", nil)
	}
	if app.Status != from {
		return nil, common.NewError(common.CodeInvalidState, "application status changed concurrently", nil)
	}
	app = cloneApplication(app)
	app.Record(entry)
	s.applications[id] = app
	return s.withJob(cloneApplication(app)), nil
}

func (r *ApplicationRepository) SetNotes(_ context.Context, id common.UUID, notes []string) (*application.Application, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[id]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "Application not found", nil)
	}
	app = cloneApplication(app)
	app.Notes = cloneStrings(notes)
	app.UpdatedAt = s.now()
	s.applications[id] = app
	return s.withJob(cloneApplication(app)), nil
}

func (r *ApplicationRepository) ListByApplicant(_ context.Context, applicantID common.UUID, page common.Page) ([]application.Application, int, error) {
	return r.list(page, func(a application.Application) bool { return a.ApplicantID == applicantID })
}

func (r *ApplicationRepository) ListByJob(_ context.Context, jobID common.UUID, status application.Status, page common.Page) ([]application.Application, int, error) {
	return r.list(page, func(a application.Application) bool {
		return a.JobID == jobID && (status == "" || a.Status == status)
	})
}

func (r *ApplicationRepository) ListIDsByResume(_ context.Context, resumeID common.UUID) ([]common.UUID, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]common.UUID, 0)
	for _, app := range s.applications {
		if app.ResumeID == resumeID {
			ids = append(ids, app.ID)
		}
	}
	return ids, nil
}

func (r *ApplicationRepository) DeleteByJob(_ context.Context, jobID common.UUID) (int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for id, app := range s.applications {
		if app.JobID == jobID {
			delete(s.applications, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *ApplicationRepository) list(page common.Page, keep func(application.Application) bool) ([]application.Application, int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]application.Application, 0)
	for _, app := range s.applications {
		if keep(app) {
			items = append(items, *s.withJob(cloneApplication(app)))
		}
	}
	newestFirst(items, func(a application.Application) time.Time { return a.AppliedAt })
	return paginate(items, page), len(items), nil
}

// findActive returns the non-withdrawn application for the pair. Callers
// hold the lock.
func (s *Store) findActive(jobID, applicantID common.UUID) (application.Application, bool) {
	for _, app := range s.applications {
		if app.JobID == jobID && app.ApplicantID == applicantID && app.Status != application.StatusWithdrawn {
			return app, true
		}
	}
	return application.Application{}, false
}

// withJob attaches the job summary. Callers hold the lock.
func (s *Store) withJob(app application.Application) *application.Application {
	if j, ok := s.jobs[app.JobID]; ok {
		app.Job = &application.JobSummary{Title: j.Title, Company: j.Company, Location: j.Location, Type: j.Type}
	}
	return &app
}

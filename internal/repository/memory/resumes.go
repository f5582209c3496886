package memory

import (
	"context"
	"time"

	"jobportal/internal/common"
	"jobportal/internal/domain/resume"
)

type ResumeRepository struct {
	store *Store
}

func (r *ResumeRepository) Create(_ context.Context, res resume.Resume) (*resume.Resume, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if res.ID.IsZero() {
		res.ID = common.NewUUID()
	}
	res.UploadedAt = s.now()
	s.resumes[res.ID] = res
	return &res, nil
}

func (r *ResumeRepository) GetByID(_ context.Context, id common.UUID) (*resume.Resume, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.resumes[id]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "Resume not found", nil)
	}
	return &res, nil
}

func (r *ResumeRepository) ListByApplicant(_ context.Context, applicantID common.UUID) ([]resume.Resume, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]resume.Resume, 0)
	for _, res := range s.resumes {
		if res.ApplicantID == applicantID {
			items = append(items, res)
		}
	}
	newestFirst(items, func(r resume.Resume) time.Time { return r.UploadedAt })
	return items, nil
}

func (r *ResumeRepository) DeleteWithApplications(_ context.Context, id common.UUID) (int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resumes[id]; !ok {
		return 0, common.NewError(common.CodeNotFound, "Resume not found", nil)
	}
	deleted := 0
	for appID, app := range s.applications {
		if app.ResumeID == id {
			delete(s.applications, appID)
			deleted++
		}
	}
	delete(s.resumes, id)
	return deleted, nil
}

package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"jobportal/internal/common"
	"jobportal/internal/domain/application"
	"jobportal/internal/domain/resume"
	"jobportal/internal/storage"
)

// resumeTypes maps accepted file extensions to their content types.
var resumeTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// FileStore keeps uploaded resume files.
type FileStore interface {
	Save(ctx context.Context, r io.Reader, ext string, limit int64) (string, int64, error)
	Open(path string) (*os.File, error)
	Remove(path string) error
}

type ResumeService struct {
	resumes  resume.Repository
	apps     application.Repository
	files    FileStore
	maxBytes int64
	logger   *slog.Logger
}

func NewResumeService(resumes resume.Repository, apps application.Repository, files FileStore, maxBytes int64, logger *slog.Logger) *ResumeService {
	return &ResumeService{resumes: resumes, apps: apps, files: files, maxBytes: maxBytes, logger: logger}
}

type UploadInput struct {
	ApplicantID common.UUID
	Name        string
	FileName    string
	ContentType string
	Body        io.Reader
}

func (s *ResumeService) Upload(ctx context.Context, in UploadInput) (*resume.Resume, error) {
	ext := strings.ToLower(filepath.Ext(in.FileName))
	expected, ok := resumeTypes[ext]
	if !ok {
		return nil, common.NewValidationError("invalid file", map[string]string{"file": "only pdf, doc and docx files are allowed"})
	}
	if mediaType, _, err := mime.ParseMediaType(in.ContentType); err != nil || mediaType != expected {
		return nil, common.NewValidationError("invalid file", map[string]string{"file": "content type does not match the file extension"})
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(in.FileName), filepath.Ext(in.FileName))
	}

	path, size, err := s.files.Save(ctx, in.Body, ext, s.maxBytes)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, common.NewValidationError("invalid file", map[string]string{"file": "file exceeds the upload size limit"})
		}
		return nil, common.NewError(common.CodeInternal, "failed to store file", err)
	}
	if size == 0 {
		_ = s.files.Remove(path)
		return nil, common.NewValidationError("invalid file", map[string]string{"file": "file is empty"})
	}

	created, err := s.resumes.Create(ctx, resume.Resume{
		Name:        name,
		Path:        path,
		FileName:    filepath.Base(in.FileName),
		ContentType: expected,
		Size:        size,
		ApplicantID: in.ApplicantID,
	})
	if err != nil {
		_ = s.files.Remove(path)
		return nil, err
	}
	return created, nil
}

func (s *ResumeService) ListByUser(ctx context.Context, userID common.UUID) ([]resume.Resume, error) {
	return s.resumes.ListByApplicant(ctx, userID)
}

func (s *ResumeService) Get(ctx context.Context, id common.UUID) (*resume.Resume, error) {
	return s.resumes.GetByID(ctx, id)
}

// Download opens the stored file. The caller closes it.
func (s *ResumeService) Download(ctx context.Context, id common.UUID) (*resume.Resume, *os.File, error) {
	res, err := s.resumes.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	f, err := s.files.Open(res.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, common.NewError(common.CodeNotFound, "Resume file not found", err)
		}
		return nil, nil, common.NewError(common.CodeInternal, "failed to open file", err)
	}
	return res, f, nil
}

// Delete removes a resume owned by actorID. When applications still reference
// it the caller must confirm; the applications are then removed with it.
func (s *ResumeService) Delete(ctx context.Context, id, actorID common.UUID, confirm bool) (int, error) {
	res, err := s.resumes.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if res.ApplicantID != actorID {
		return 0, common.NewError(common.CodeForbidden, "Not authorized to delete this resume", nil)
	}
	if !confirm {
		ids, err := s.apps.ListIDsByResume(ctx, id)
		if err != nil {
			return 0, err
		}
		if len(ids) > 0 {
			return 0, common.NewConflictError("This resume is used in applications. Confirm to delete it together with them.", map[string]any{
				"resume_id":       id,
				"application_ids": ids,
			})
		}
	}
	removed, err := s.resumes.DeleteWithApplications(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := s.files.Remove(res.Path); err != nil {
		s.logger.Warn("remove resume file", slog.String("resume_id", id.String()), slog.Any("err", err))
	}
	s.logger.Info("resume deleted", slog.String("resume_id", id.String()), slog.Int("applications_deleted", removed))
	return removed, nil
}

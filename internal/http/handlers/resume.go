package handlers

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"jobportal/internal/app"
	"jobportal/internal/common"
	"jobportal/internal/domain/user"
	"jobportal/internal/http/middleware"
	"jobportal/internal/http/response"
)

const multipartMemory = 1 << 20

type ResumeHandler struct {
	resumes *app.ResumeService
}

func NewResumeHandler(resumes *app.ResumeService) *ResumeHandler {
	return &ResumeHandler{resumes: resumes}
}

type deleteResumeRequest struct {
	ConfirmDelete bool `json:"confirm_delete"`
}

func (h *ResumeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			response.Error(w, common.NewValidationError("invalid file", map[string]string{"file": "file exceeds the upload size limit"}))
			return
		}
		response.Error(w, common.NewValidationError("invalid multipart form", nil))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()
	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, common.NewValidationError("invalid file", map[string]string{"file": "file is required"}))
		return
	}
	defer file.Close()

	created, err := h.resumes.Upload(r.Context(), app.UploadInput{
		ApplicantID: userID,
		Name:        r.FormValue("name"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Message(w, http.StatusCreated, "Resume uploaded successfully", map[string]any{"resume": created})
}

// ListByUser lists a user's resumes to that user or to an admin.
func (h *ResumeHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	ownerID, err := idFromPath(r, 3)
	if err != nil {
		response.Error(w, err)
		return
	}
	if role, _ := middleware.RoleFromContext(r.Context()); ownerID != userID && role != user.RoleAdmin {
		response.Error(w, common.NewError(common.CodeForbidden, "Not authorized to view these resumes", nil))
		return
	}
	items, err := h.resumes.ListByUser(r.Context(), ownerID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, items)
}

func (h *ResumeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idFromPath(r, 2)
	if err != nil {
		response.Error(w, err)
		return
	}
	item, err := h.resumes.Get(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, item)
}

func (h *ResumeHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := idFromPath(r, 2)
	if err != nil {
		response.Error(w, err)
		return
	}
	res, file, err := h.resumes.Download(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	defer file.Close()
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.FileName}))
	http.ServeContent(w, r, res.FileName, res.UploadedAt, file)
}

func (h *ResumeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	id, err := idFromPath(r, 2)
	if err != nil {
		response.Error(w, err)
		return
	}
	var req deleteResumeRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	confirm := req.ConfirmDelete
	if value, err := strconv.ParseBool(r.URL.Query().Get("confirm_delete")); err == nil {
		confirm = confirm || value
	}
	removed, err := h.resumes.Delete(r.Context(), id, userID, confirm)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Message(w, http.StatusOK, "Resume deleted successfully", map[string]any{"applications_deleted": removed})
}

package handlers

import (
	"net/http"
	"strings"
	"time"

	"jobportal/internal/app"
	"jobportal/internal/common"
	"jobportal/internal/domain/job"
	"jobportal/internal/http/middleware"
	"jobportal/internal/http/response"
)

type JobHandler struct {
	jobs         *app.JobService
	applications *app.ApplicationService
	limiter      middleware.Limiter
	applyLimit   int
	applyWindow  time.Duration
}

func NewJobHandler(jobs *app.JobService, applications *app.ApplicationService, limiter middleware.Limiter, applyLimit int, applyWindow time.Duration) *JobHandler {
	return &JobHandler{jobs: jobs, applications: applications, limiter: limiter, applyLimit: applyLimit, applyWindow: applyWindow}
}

type rangeRequest struct {
	Min int `json:"min" validate:"gte=0"`
	Max int `json:"max" validate:"gte=0"`
}

type jobRequest struct {
	Title               string        `json:"title" validate:"required,max=200"`
	Company             string        `json:"company" validate:"required,max=200"`
	Location            string        `json:"location" validate:"required,max=200"`
	Type                string        `json:"type" validate:"required"`
	Category            string        `json:"category" validate:"required"`
	Description         string        `json:"description" validate:"required"`
	Requirements        []string      `json:"requirements" validate:"omitempty,dive,required"`
	Responsibilities    []string      `json:"responsibilities" validate:"omitempty,dive,required"`
	Skills              []string      `json:"skills" validate:"omitempty,dive,required"`
	Salary              *rangeRequest `json:"salary"`
	Experience          *rangeRequest `json:"experience"`
	Status              string        `json:"status" validate:"omitempty,oneof=active closed draft"`
	ApplicationDeadline *time.Time    `json:"application_deadline"`
}

type jobPatchRequest struct {
	Title               *string       `json:"title" validate:"omitempty,min=1,max=200"`
	Company             *string       `json:"company" validate:"omitempty,min=1,max=200"`
	Location            *string       `json:"location" validate:"omitempty,min=1,max=200"`
	Type                *string       `json:"type"`
	Category            *string       `json:"category"`
	Description         *string       `json:"description" validate:"omitempty,min=1"`
	Requirements        *[]string     `json:"requirements"`
	Responsibilities    *[]string     `json:"responsibilities"`
	Skills              *[]string     `json:"skills"`
	Salary              *rangeRequest `json:"salary"`
	Experience          *rangeRequest `json:"experience"`
	Status              *string       `json:"status" validate:"omitempty,oneof=active closed draft"`
	ApplicationDeadline *time.Time    `json:"application_deadline"`
}

type jobStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active closed draft"`
}

type applyRequest struct {
	ResumeID    string `json:"resume_id" validate:"required,uuid"`
	CoverLetter string `json:"cover_letter" validate:"required,max=5000"`
}

func (r *rangeRequest) value() job.Range {
	if r == nil {
		return job.Range{}
	}
	return job.Range{Min: r.Min, Max: r.Max}
}

func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := job.Filter{
		Category: strings.TrimSpace(query.Get("category")),
		Location: strings.TrimSpace(query.Get("location")),
		Type:     strings.TrimSpace(query.Get("type")),
		Search:   strings.TrimSpace(query.Get("search")),
		Status:   job.Status(strings.ToLower(strings.TrimSpace(query.Get("status")))),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		response.Error(w, common.NewValidationError("invalid status", map[string]string{"status": "status must be active, closed, or draft"}))
		return
	}
	result, err := h.jobs.List(r.Context(), filter, pageFromQuery(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idFromPath(r, 2)
	if err != nil {
		response.Error(w, err)
		return
	}
	item, err := h.jobs.Get(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, item)
}

// TrackView counts the view before next runs, so cached responses are counted too.
func (h *JobHandler) TrackView(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			if id, err := idFromPath(r, 2); err == nil {
				h.jobs.RecordView(r.Context(), id)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (h *JobHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	items, err := h.jobs.ListMine(r.Context(), userID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, items)
}

func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	var req jobRequest
	if err := decodeAndValidate(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	created, err := h.jobs.Create(r.Context(), job.Job{
		Title:               strings.TrimSpace(req.Title),
		Company:             strings.TrimSpace(req.Company),
		Location:            strings.TrimSpace(req.Location),
		Type:                req.Type,
		Category:            req.Category,
		Description:         req.Description,
		Requirements:        nonNil(req.Requirements),
		Responsibilities:    nonNil(req.Responsibilities),
		Skills:              nonNil(req.Skills),
		Salary:              req.Salary.value(),
		Experience:          req.Experience.value(),
		Status:              job.Status(req.Status),
		ApplicationDeadline: req.ApplicationDeadline,
		PostedBy:            job.Poster{ID: userID},
	})
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Message(w, http.StatusCreated, "Job created successfully", map[string]any{"job": created})
}

func (h *JobHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	var req jobPatchRequest
	if err := decodeAndValidate(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	patch := job.Patch{
		Title:            req.Title,
		Company:          req.Company,
		Location:         req.Location,
		Type:             req.Type,
		Category:         req.Category,
		Description:      req.Description,
		Requirements:     req.Requirements,
		Responsibilities: req.Responsibilities,
		Skills:           req.Skills,
	}
	if req.Salary != nil {
		salary := req.Salary.value()
		patch.Salary = &salary
	}
	if req.Experience != nil {
		experience := req.Experience.value()
		patch.Experience = &experience
	}
	if req.Status != nil {
		status := job.Status(*req.Status)
		patch.Status = &status
	}
	if req.ApplicationDeadline != nil {
		patch.ApplicationDeadline = &req.ApplicationDeadline
	}
	updated, err := h.jobs.Update(r.Context(), id, userID, patch)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Message(w, http.StatusOK, "Job updated successfully", map[string]any{"job": updated})
}

func (h *JobHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
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
	var req jobStatusRequest
	if err := decodeAndValidate(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	updated, err := h.jobs.UpdateStatus(r.Context(), id, userID, job.Status(req.Status))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Message(w, http.StatusOK, "Job status updated successfully", map[string]any{"job": updated})
}

func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	result, err := h.jobs.Delete(r.Context(), id, userID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Message(w, http.StatusOK, "Job deleted successfully", map[string]any{
		"job":                  result.Job,
		"applications_deleted": result.ApplicationsDeleted,
	})
}

func (h *JobHandler) Apply(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	jobID, err := idFromPath(r, 2)
	if err != nil {
		response.Error(w, err)
		return
	}
	if h.limiter != nil {
		key := "apply:" + jobID.String() + ":" + userID.String()
		if !h.limiter.Allow(key, h.applyLimit, h.applyWindow) {
			response.Error(w, common.NewError(common.CodeRateLimited, "Too many applications, try again later", nil))
			return
		}
	}
	var req applyRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if strings.TrimSpace(req.ResumeID) == "" {
		response.Error(w, common.NewValidationError("Resume ID is required", map[string]string{"resume_id": "is required"}))
		return
	}
	if err := validateRequest(&req); err != nil {
		response.Error(w, err)
		return
	}
	resumeID, _ := common.ParseUUID(req.ResumeID)
	created, err := h.applications.Submit(r.Context(), app.SubmitInput{
		JobID:       jobID,
		ApplicantID: userID,
		ResumeID:    resumeID,
		CoverLetter: req.CoverLetter,
	})
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Message(w, http.StatusCreated, "Application submitted successfully", map[string]any{"application": created})
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

package handlers

import (
	"net/http"

	"jobportal/internal/app"
	"jobportal/internal/common"
	"jobportal/internal/domain/application"
	"jobportal/internal/http/middleware"
	"jobportal/internal/http/response"
)

type ApplicationHandler struct {
	applications *app.ApplicationService
}

func NewApplicationHandler(applications *app.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications}
}

type applicationStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type notesRequest struct {
	Notes []string `json:"notes" validate:"max=100,dive,max=2000"`
}

type applicationPage struct {
	Applications []application.Application `json:"applications"`
	CurrentPage  int                       `json:"current_page"`
	TotalPages   int                       `json:"total_pages"`
	Total        int                       `json:"total"`
}

func newApplicationPage(items []application.Application, total int, page common.Page) applicationPage {
	if items == nil {
		items = []application.Application{}
	}
	return applicationPage{Applications: items, CurrentPage: page.Number, TotalPages: page.TotalPages(total), Total: total}
}

func (h *ApplicationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	page := pageFromQuery(r)
	items, total, err := h.applications.ListMine(r.Context(), userID, page)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, newApplicationPage(items, total, page))
}

func (h *ApplicationHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	id, err := idFromPath(r, 3)
	if err != nil {
		response.Error(w, err)
		return
	}
	item, err := h.applications.GetMine(r.Context(), id, userID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, item)
}

func (h *ApplicationHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	id, err := idFromPath(r, 3)
	if err != nil {
		response.Error(w, err)
		return
	}
	updated, err := h.applications.Withdraw(r.Context(), id, userID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Message(w, http.StatusOK, "Application withdrawn successfully", map[string]any{"application": updated})
}

func (h *ApplicationHandler) ListForJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	jobID, err := idFromPath(r, 3)
	if err != nil {
		response.Error(w, err)
		return
	}
	page := pageFromQuery(r)
	status := application.ParseStatus(r.URL.Query().Get("status"))
	items, total, err := h.applications.ListForJob(r.Context(), jobID, userID, status, page)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, newApplicationPage(items, total, page))
}

func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	item, err := h.applications.Get(r.Context(), id, userID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, item)
}

func (h *ApplicationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
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
	var req applicationStatusRequest
	if err := decodeAndValidate(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	updated, err := h.applications.UpdateStatus(r.Context(), id, application.ParseStatus(req.Status), userID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Message(w, http.StatusOK, "Application status updated successfully", map[string]any{"application": updated})
}

func (h *ApplicationHandler) SetNotes(w http.ResponseWriter, r *http.Request) {
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
	var req notesRequest
	if err := decodeAndValidate(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	updated, err := h.applications.SetNotes(r.Context(), id, req.Notes, userID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Message(w, http.StatusOK, "Note added successfully", map[string]any{"application": updated})
}

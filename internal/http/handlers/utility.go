package handlers

import (
	"net/http"
	"strconv"
	"time"

	"jobportal/internal/app"
	"jobportal/internal/common"
	"jobportal/internal/domain/report"
	"jobportal/internal/http/response"
)

type UtilityHandler struct {
	utility *app.UtilityService
}

func NewUtilityHandler(utility *app.UtilityService) *UtilityHandler {
	return &UtilityHandler{utility: utility}
}

type clearCacheRequest struct {
	Pattern string `json:"pattern" validate:"max=256"`
}

type exportRequest struct {
	Model     string `json:"model" validate:"required,oneof=users jobs applications"`
	Format    string `json:"format" validate:"omitempty,oneof=json csv xlsx"`
	DateRange *struct {
		Start *time.Time `json:"start"`
		End   *time.Time `json:"end"`
	} `json:"date_range"`
}

func (h *UtilityHandler) Health(w http.ResponseWriter, r *http.Request) {
	health := h.utility.Health(r.Context())
	status := http.StatusOK
	if !health.Healthy() {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, status, health)
}

func (h *UtilityHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	var req clearCacheRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		response.Error(w, err)
		return
	}
	deleted, err := h.utility.ClearCache(r.Context(), req.Pattern)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Message(w, http.StatusOK, "Cache cleared successfully", map[string]any{"deleted": deleted})
}

func (h *UtilityHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.utility.Stats(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, stats)
}

func (h *UtilityHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := decodeAndValidate(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	var rng report.Range
	if req.DateRange != nil {
		if req.DateRange.Start != nil {
			rng.From = *req.DateRange.Start
		}
		if req.DateRange.End != nil {
			rng.To = *req.DateRange.End
		}
	}
	file, err := h.utility.Export(r.Context(), app.ExportRequest{Model: req.Model, Format: req.Format, Range: rng})
	if err != nil {
		response.Error(w, err)
		return
	}
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}

func (h *UtilityHandler) Logs(w http.ResponseWriter, r *http.Request) {
	tail := app.DefaultLogTail
	if value := r.URL.Query().Get("tail"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			response.Error(w, common.NewValidationError("invalid tail", map[string]string{"tail": "must be a positive number"}))
			return
		}
		tail = parsed
	}
	entries, err := h.utility.Logs(tail)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"logs": entries, "count": len(entries)})
}

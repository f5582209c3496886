package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"

	"jobportal/internal/common"
)

// ErrorCollector counts error responses.
type ErrorCollector interface {
	IncErrors()
}

var (
	errorCollector atomic.Value
	exposeCauses   atomic.Bool
)

type collectorHolder struct {
	collector ErrorCollector
}

func SetErrorCollector(collector ErrorCollector) {
	errorCollector.Store(collectorHolder{collector: collector})
}

// SetDevelopment makes error responses carry the underlying cause.
func SetDevelopment(enabled bool) {
	exposeCauses.Store(enabled)
}

type errorBody struct {
	Message string            `json:"message"`
	Code    common.Code       `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
	Details map[string]any    `json:"details,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode response", slog.Any("err", err))
	}
}

// Message writes {"message": message} plus any extra fields.
func Message(w http.ResponseWriter, status int, message string, extra map[string]any) {
	body := map[string]any{"message": message}
	for key, value := range extra {
		body[key] = value
	}
	JSON(w, status, body)
}

func Error(w http.ResponseWriter, err error) {
	appErr, ok := common.AsError(err)
	if !ok {
		appErr = common.NewError(common.CodeInternal, "Internal server error", err)
	}
	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", slog.String("code", string(appErr.Code)), slog.Any("err", err))
	}
	if holder, ok := errorCollector.Load().(collectorHolder); ok && holder.collector != nil {
		holder.collector.IncErrors()
	}
	body := errorBody{
		Message: appErr.Message,
		Code:    appErr.Code,
		Fields:  appErr.Fields,
		Details: appErr.Details,
	}
	if exposeCauses.Load() && appErr.Err != nil {
		body.Error = appErr.Err.Error()
	}
	JSON(w, status, body)
}

package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/tendant/tool-catalog/pkg/toolcatalog"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusFor maps a service error onto an HTTP status and error code
func statusFor(err error) (int, string, string) {
	switch {
	case errors.Is(err, toolcatalog.ErrBadRequest):
		var verr *toolcatalog.ValidationError
		if errors.As(err, &verr) {
			return http.StatusBadRequest, "bad_request", verr.Error()
		}
		return http.StatusBadRequest, "bad_request", "bad request"
	case errors.Is(err, toolcatalog.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large", "file exceeds the maximum upload size"
	case errors.Is(err, toolcatalog.ErrToolNotFound):
		return http.StatusNotFound, "not_found", "tool not found"
	case errors.Is(err, toolcatalog.ErrBlobMissing):
		return http.StatusInternalServerError, "blob_missing", "file for this tool is missing from storage"
	case errors.Is(err, toolcatalog.ErrUploadFailed):
		return http.StatusInternalServerError, "upload_failed", "upload failed"
	case errors.Is(err, toolcatalog.ErrStorageFailure):
		return http.StatusInternalServerError, "storage_failure", "storage is unavailable"
	}
	return http.StatusInternalServerError, "internal_error", "internal server error"
}

func (h *ToolsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := statusFor(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		"request_id", RequestIDFromContext(r.Context()),
		"code", code,
		"error", err,
	)

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: message, Code: code})
}

func (h *ToolsHandler) writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, ErrorResponse{Error: message, Code: "bad_request"})
}

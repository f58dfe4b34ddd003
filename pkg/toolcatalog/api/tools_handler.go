package api

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/tool-catalog/pkg/toolcatalog"
)

// multipartOverhead is the body allowance on top of the file size for form
// fields and part headers.
const multipartOverhead = 1 << 20

// multipartMemory is how much of a form ParseMultipartForm keeps in memory
// before spooling file parts to disk.
const multipartMemory = 8 << 20

// ToolsHandler serves the tool catalog over HTTP
type ToolsHandler struct {
	service       toolcatalog.Service
	maxUploadSize int64
	logger        *slog.Logger
}

func NewToolsHandler(service toolcatalog.Service, maxUploadSize int64, logger *slog.Logger) *ToolsHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = toolcatalog.DefaultMaxUploadSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ToolsHandler{
		service:       service,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// Routes returns the router for /tools endpoints
func (h *ToolsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListTools)
	r.Post("/", h.UploadTool)
	r.Get("/category/{category}", h.ListToolsByCategory)
	r.Get("/{id}", h.GetTool)
	r.Get("/{id}/download", h.DownloadTool)
	return r
}

// ListTools lists every tool, or the tools of ?category= when given
func (h *ToolsHandler) ListTools(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, r.URL.Query().Get("category"))
}

// ListToolsByCategory lists the tools whose category matches the path exactly
func (h *ToolsHandler) ListToolsByCategory(w http.ResponseWriter, r *http.Request) {
	category, err := url.PathUnescape(chi.URLParam(r, "category"))
	if err != nil || category == "" {
		h.writeBadRequest(w, r, "invalid category")
		return
	}
	h.list(w, r, category)
}

func (h *ToolsHandler) list(w http.ResponseWriter, r *http.Request, category string) {
	tools, err := h.service.ListTools(r.Context(), toolcatalog.ListToolsRequest{Category: category})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, tools)
}

// UploadTool accepts a multipart form with file, name, author, category and
// an optional description.
func (h *ToolsHandler) UploadTool(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, r, toolcatalog.ErrPayloadTooLarge)
			return
		}
		h.writeError(w, r, &toolcatalog.ValidationError{Fields: []string{"file"}})
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := toolcatalog.UploadToolRequest{
		Name:        r.FormValue("name"),
		Author:      r.FormValue("author"),
		Category:    r.FormValue("category"),
		Description: r.FormValue("description"),
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		req.Reader = file
		req.FileName = header.Filename
	case errors.Is(err, http.ErrMissingFile):
		// left nil; validation reports the missing file
	default:
		h.writeError(w, r, err)
		return
	}

	tool, err := h.service.UploadTool(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, tool)
}

// GetTool returns a single tool's metadata
func (h *ToolsHandler) GetTool(w http.ResponseWriter, r *http.Request) {
	id, ok := h.toolID(w, r)
	if !ok {
		return
	}

	tool, err := h.service.GetTool(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, tool)
}

// DownloadTool streams the stored file as an attachment under its original name
func (h *ToolsHandler) DownloadTool(w http.ResponseWriter, r *http.Request) {
	id, ok := h.toolID(w, r)
	if !ok {
		return
	}

	dl, err := h.service.DownloadTool(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer dl.Body.Close()

	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.FileName}))
	w.Header().Set("Content-Length", strconv.FormatInt(dl.Size, 10))
	w.WriteHeader(http.StatusOK)

	// The count is already taken; an interrupted stream is only logged.
	if n, err := io.Copy(w, dl.Body); err != nil {
		h.logger.WarnContext(r.Context(), "download interrupted",
			"request_id", RequestIDFromContext(r.Context()),
			"tool_id", id,
			"bytes", n,
			"error", err,
		)
	}
}

// Stats returns the catalog-wide record and download totals
func (h *ToolsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, stats)
}

func (h *ToolsHandler) toolID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeBadRequest(w, r, "invalid tool id")
		return 0, false
	}
	return id, true
}

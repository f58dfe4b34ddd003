package toolcatalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tendant/tool-catalog/pkg/toolcatalog/blobkey"
)

// maxKeyAttempts bounds key regeneration when a blob store reports a collision
const maxKeyAttempts = 3

// service implements the Service interface
type service struct {
	catalog       Catalog
	blobStore     BlobStore
	backendName   string
	keyGenerator  blobkey.Generator
	maxUploadSize int64
	eventSink     EventSink
	metrics       Metrics
	logger        *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithCatalog sets the metadata catalog for the service
func WithCatalog(catalog Catalog) Option {
	return func(s *service) {
		s.catalog = catalog
	}
}

// WithBlobStore sets the blob storage backend; name is used in errors and logs
func WithBlobStore(name string, store BlobStore) Option {
	return func(s *service) {
		s.backendName = name
		s.blobStore = store
	}
}

// WithKeyGenerator overrides the blob key strategy
func WithKeyGenerator(generator blobkey.Generator) Option {
	return func(s *service) {
		s.keyGenerator = generator
	}
}

// WithMaxUploadSize sets the per-object size ceiling in bytes
func WithMaxUploadSize(size int64) Option {
	return func(s *service) {
		s.maxUploadSize = size
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithMetrics sets the metrics recorder for the service
func WithMetrics(metrics Metrics) Option {
	return func(s *service) {
		s.metrics = metrics
	}
}

// WithLogger sets the structured logger for the service
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		keyGenerator:  blobkey.NewDefaultGenerator(),
		maxUploadSize: DefaultMaxUploadSize,
		eventSink:     NewNoopEventSink(),
		metrics:       NewNoopMetrics(),
	}

	for _, option := range options {
		option(s)
	}

	if s.catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if s.blobStore == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.maxUploadSize <= 0 {
		return nil, fmt.Errorf("max upload size must be positive, got %d", s.maxUploadSize)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.backendName == "" {
		s.backendName = "default"
	}

	return s, nil
}

// Upload operations

func (s *service) UploadTool(ctx context.Context, req UploadToolRequest) (*Tool, error) {
	start := time.Now()

	if err := validateUpload(&req); err != nil {
		s.metrics.ObserveUpload(OutcomeBadRequest, 0, time.Since(start))
		return nil, &ToolError{Op: "upload", Err: err}
	}

	key, written, err := s.putBlob(ctx, req)
	if err != nil {
		if errors.Is(err, ErrSizeExceeded) {
			s.metrics.ObserveUpload(OutcomeTooLarge, 0, time.Since(start))
			return nil, &ToolError{Op: "upload", Err: fmt.Errorf("%w: limit is %d bytes: %w", ErrPayloadTooLarge, s.maxUploadSize, err)}
		}
		s.metrics.ObserveUpload(OutcomeFailed, 0, time.Since(start))
		return nil, &ToolError{Op: "upload", Err: err}
	}

	var description *string
	if req.Description != "" {
		description = &req.Description
	}

	tool, err := s.catalog.Insert(ctx, &NewTool{
		Name:         req.Name,
		Author:       req.Author,
		Category:     req.Category,
		Description:  description,
		BlobKey:      key,
		OriginalName: req.FileName,
		FileSize:     written,
	})
	if err != nil {
		s.compensate(ctx, key, err)
		s.metrics.ObserveUpload(OutcomeFailed, written, time.Since(start))
		return nil, &ToolError{Op: "upload", Err: fmt.Errorf("%w: %w", ErrUploadFailed, err)}
	}

	s.logger.DebugContext(ctx, "tool stored", "tool_id", tool.ID, "blob_key", key, "bytes", written)
	s.metrics.ObserveUpload(OutcomeSuccess, written, time.Since(start))

	if err := s.eventSink.ToolUploaded(ctx, tool); err != nil {
		s.logger.WarnContext(ctx, "event sink failed", "event", "tool_uploaded", "tool_id", tool.ID, "error", err)
	}

	return tool, nil
}

// putBlob writes the payload under a freshly generated key. A key collision
// reported by the store before reading is retried with a new key; nothing
// else is retried.
func (s *service) putBlob(ctx context.Context, req UploadToolRequest) (string, int64, error) {
	reader := &countingReader{r: req.Reader}
	for attempt := 1; ; attempt++ {
		key := s.keyGenerator.GenerateKey(req.FileName)
		written, err := s.blobStore.Put(ctx, key, reader, s.maxUploadSize)
		if err == nil {
			return key, written, nil
		}
		// Only a collision reported before any byte was consumed can be retried.
		if errors.Is(err, ErrBlobExists) && reader.n == 0 && attempt < maxKeyAttempts {
			s.logger.WarnContext(ctx, "blob key collision, regenerating", "blob_key", key, "attempt", attempt)
			continue
		}
		if errors.Is(err, ErrSizeExceeded) {
			return "", 0, err
		}
		return "", 0, &StorageError{
			Backend: s.backendName,
			Key:     key,
			Op:      "put",
			Err:     fmt.Errorf("%w: %w", ErrStorageFailure, err),
		}
	}
}

// compensate removes a blob whose catalog insert failed. It runs detached
// from ctx cancellation and never returns an error.
func (s *service) compensate(ctx context.Context, key string, cause error) {
	cleanupCtx := context.WithoutCancel(ctx)
	err := s.blobStore.Delete(cleanupCtx, key)
	s.metrics.ObserveCompensation(err)
	if err == nil {
		s.logger.InfoContext(ctx, "removed blob after catalog insert failure", "blob_key", key, "cause", cause)
		return
	}

	s.logger.WarnContext(ctx, "compensating blob delete failed", "blob_key", key, "cause", cause, "error", err)
	if sinkErr := s.eventSink.BlobOrphaned(cleanupCtx, key, err); sinkErr != nil {
		s.logger.WarnContext(ctx, "event sink failed", "event", "blob_orphaned", "blob_key", key, "error", sinkErr)
	}
}

// Download operations

func (s *service) DownloadTool(ctx context.Context, id int64) (*Download, error) {
	tool, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrToolNotFound) {
			s.metrics.ObserveDownload(OutcomeNotFound)
		} else {
			s.metrics.ObserveDownload(OutcomeFailed)
		}
		return nil, &ToolError{ID: id, Op: "download", Err: err}
	}

	exists, err := s.blobStore.Exists(ctx, tool.BlobKey)
	if err != nil {
		s.metrics.ObserveDownload(OutcomeFailed)
		return nil, &StorageError{
			Backend: s.backendName,
			Key:     tool.BlobKey,
			Op:      "exists",
			Err:     fmt.Errorf("%w: %w", ErrStorageFailure, err),
		}
	}
	if !exists {
		s.logger.ErrorContext(ctx, "catalog entry has no blob", "tool_id", id, "blob_key", tool.BlobKey)
		s.metrics.ObserveDownload(OutcomeBlobMissing)
		return nil, &ToolError{ID: id, Op: "download", Err: ErrBlobMissing}
	}

	// Counted once the download is permitted, before any byte is sent.
	count, err := s.catalog.IncrementDownloadCount(ctx, id)
	if err != nil {
		s.metrics.ObserveDownload(OutcomeFailed)
		return nil, &ToolError{ID: id, Op: "download", Err: err}
	}
	tool.DownloadCount = count

	body, err := s.blobStore.Open(ctx, tool.BlobKey)
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			s.metrics.ObserveDownload(OutcomeBlobMissing)
			return nil, &ToolError{ID: id, Op: "download", Err: ErrBlobMissing}
		}
		s.metrics.ObserveDownload(OutcomeFailed)
		return nil, &StorageError{
			Backend: s.backendName,
			Key:     tool.BlobKey,
			Op:      "open",
			Err:     fmt.Errorf("%w: %w", ErrStorageFailure, err),
		}
	}

	s.metrics.ObserveDownload(OutcomeSuccess)
	if err := s.eventSink.ToolDownloaded(ctx, tool); err != nil {
		s.logger.WarnContext(ctx, "event sink failed", "event", "tool_downloaded", "tool_id", id, "error", err)
	}

	return &Download{
		Tool:        tool,
		FileName:    tool.OriginalName,
		Size:        tool.FileSize,
		ContentType: DownloadContentType,
		Body:        body,
	}, nil
}

// Query operations

func (s *service) GetTool(ctx context.Context, id int64) (*Tool, error) {
	tool, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		return nil, &ToolError{ID: id, Op: "get", Err: err}
	}
	return tool, nil
}

func (s *service) ListTools(ctx context.Context, req ListToolsRequest) ([]*Tool, error) {
	var (
		tools []*Tool
		err   error
	)
	if req.Category == "" {
		tools, err = s.catalog.ListAll(ctx)
	} else {
		tools, err = s.catalog.ListByCategory(ctx, req.Category)
	}
	if err != nil {
		return nil, &ToolError{Op: "list", Err: err}
	}
	if tools == nil {
		tools = []*Tool{}
	}
	return tools, nil
}

func (s *service) GetStats(ctx context.Context) (*Stats, error) {
	stats, err := s.catalog.AggregateStats(ctx)
	if err != nil {
		return nil, &ToolError{Op: "stats", Err: err}
	}
	return stats, nil
}

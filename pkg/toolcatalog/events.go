package toolcatalog

import (
	"context"
	"log/slog"
)

// LogEventSink writes catalog events to a structured logger.
type LogEventSink struct {
	logger *slog.Logger
}

// NewLogEventSink returns an EventSink logging through logger, or slog.Default when nil.
func NewLogEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEventSink{logger: logger}
}

func (s *LogEventSink) ToolUploaded(ctx context.Context, tool *Tool) error {
	s.logger.InfoContext(ctx, "tool uploaded",
		"tool_id", tool.ID, "category", tool.Category, "bytes", tool.FileSize)
	return nil
}

func (s *LogEventSink) ToolDownloaded(ctx context.Context, tool *Tool) error {
	s.logger.InfoContext(ctx, "tool downloaded",
		"tool_id", tool.ID, "download_count", tool.DownloadCount)
	return nil
}

func (s *LogEventSink) BlobOrphaned(ctx context.Context, key string, cause error) error {
	s.logger.WarnContext(ctx, "blob orphaned", "blob_key", key, "error", cause)
	return nil
}

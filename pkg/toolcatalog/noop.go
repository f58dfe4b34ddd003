package toolcatalog

import (
	"context"
	"time"
)

// NoopEventSink is a no-operation implementation of EventSink
// Useful for production when you don't need event handling or for testing
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// ToolUploaded does nothing and returns nil
func (n *NoopEventSink) ToolUploaded(ctx context.Context, tool *Tool) error {
	return nil
}

// ToolDownloaded does nothing and returns nil
func (n *NoopEventSink) ToolDownloaded(ctx context.Context, tool *Tool) error {
	return nil
}

// BlobOrphaned does nothing and returns nil
func (n *NoopEventSink) BlobOrphaned(ctx context.Context, key string, cause error) error {
	return nil
}

// NoopMetrics discards all measurements
type NoopMetrics struct{}

// NewNoopMetrics creates a Metrics that records nothing
func NewNoopMetrics() Metrics {
	return NoopMetrics{}
}

func (NoopMetrics) ObserveUpload(outcome string, bytes int64, duration time.Duration) {}

func (NoopMetrics) ObserveDownload(outcome string) {}

func (NoopMetrics) ObserveCompensation(err error) {}

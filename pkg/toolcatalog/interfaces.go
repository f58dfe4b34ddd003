package toolcatalog

import (
	"context"
	"io"
	"time"
)

// BlobStore defines the interface for blob storage backends
type BlobStore interface {
	// Put streams reader into a new object under key, reading at most limit
	// bytes. It returns the number of bytes written. A stream longer than
	// limit fails with ErrSizeExceeded and leaves no object behind. Stores
	// that detect an existing key return ErrBlobExists before reading.
	Put(ctx context.Context, key string, reader io.Reader, limit int64) (int64, error)

	// Exists reports whether an object is present without reading it
	Exists(ctx context.Context, key string) (bool, error)

	// Open returns the object's contents; ErrBlobNotFound if absent
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object; ErrBlobNotFound if absent
	Delete(ctx context.Context, key string) error

	// Stat returns object metadata; ErrBlobNotFound if absent
	Stat(ctx context.Context, key string) (*BlobMeta, error)
}

// Catalog defines the interface for tool metadata persistence
type Catalog interface {
	// Insert creates a record; the catalog assigns id, upload time and a zero download count
	Insert(ctx context.Context, tool *NewTool) (*Tool, error)

	// ListAll returns every record, newest upload first
	ListAll(ctx context.Context) ([]*Tool, error)

	// ListByCategory returns records whose category matches exactly, newest upload first
	ListByCategory(ctx context.Context, category string) ([]*Tool, error)

	GetByID(ctx context.Context, id int64) (*Tool, error)

	// IncrementDownloadCount atomically adds one to the counter and returns the new value
	IncrementDownloadCount(ctx context.Context, id int64) (int64, error)

	AggregateStats(ctx context.Context) (*Stats, error)
}

// EventSink defines the interface for event handling
type EventSink interface {
	// ToolUploaded is fired after the catalog insert succeeds
	ToolUploaded(ctx context.Context, tool *Tool) error

	// ToolDownloaded is fired after the download counter is incremented
	ToolDownloaded(ctx context.Context, tool *Tool) error

	// BlobOrphaned is fired when a compensating delete fails
	BlobOrphaned(ctx context.Context, key string, cause error) error
}

// Upload and download outcomes reported to Metrics.
const (
	OutcomeSuccess     = "success"
	OutcomeBadRequest  = "bad_request"
	OutcomeTooLarge    = "too_large"
	OutcomeFailed      = "failed"
	OutcomeNotFound    = "not_found"
	OutcomeBlobMissing = "blob_missing"
)

// Metrics receives operational measurements from the service
type Metrics interface {
	ObserveUpload(outcome string, bytes int64, duration time.Duration)
	ObserveDownload(outcome string)
	ObserveCompensation(err error)
}

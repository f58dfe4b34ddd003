package toolcatalog

import (
	"io"
	"time"
)

// DefaultMaxUploadSize is the per-object size ceiling (50 MiB).
const DefaultMaxUploadSize int64 = 50 << 20

// DownloadContentType is served for every download regardless of the file's real type.
const DownloadContentType = "application/octet-stream"

// Tool is a catalog record describing one uploaded artifact.
//
// BlobKey addresses the artifact in the BlobStore and is never exposed to
// API clients. DownloadCount only ever grows, and only through
// Catalog.IncrementDownloadCount.
type Tool struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Author        string    `json:"author"`
	Category      string    `json:"category"`
	Description   *string   `json:"description"`
	BlobKey       string    `json:"-"`
	OriginalName  string    `json:"file_name"`
	FileSize      int64     `json:"file_size"`
	UploadedAt    time.Time `json:"upload_date"`
	DownloadCount int64     `json:"download_count"`
}

// NewTool holds the caller-supplied fields for a catalog insert. The catalog
// assigns ID, UploadedAt and DownloadCount.
type NewTool struct {
	Name         string
	Author       string
	Category     string
	Description  *string
	BlobKey      string
	OriginalName string
	FileSize     int64
}

// Stats aggregates the whole catalog.
type Stats struct {
	TotalTools     int64 `json:"total_tools"`
	TotalDownloads int64 `json:"total_downloads"`
}

// Download is a permitted retrieval. The caller must close Body.
type Download struct {
	Tool        *Tool
	FileName    string
	Size        int64
	ContentType string
	Body        io.ReadCloser
}

// BlobMeta describes a stored blob without reading it.
type BlobMeta struct {
	Key       string
	Size      int64
	UpdatedAt time.Time
}

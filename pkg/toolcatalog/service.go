package toolcatalog

import "context"

// Service defines the main interface for the tool catalog
type Service interface {
	// UploadTool writes the payload to the blob store, then records it in the
	// catalog. If the catalog insert fails the blob is deleted again.
	UploadTool(ctx context.Context, req UploadToolRequest) (*Tool, error)

	// DownloadTool resolves id, verifies the blob exists, increments the
	// download counter and returns the blob stream. The counter is not rolled
	// back if the caller fails to consume the stream.
	DownloadTool(ctx context.Context, id int64) (*Download, error)

	GetTool(ctx context.Context, id int64) (*Tool, error)
	ListTools(ctx context.Context, req ListToolsRequest) ([]*Tool, error)
	GetStats(ctx context.Context) (*Stats, error)
}

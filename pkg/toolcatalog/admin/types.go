package admin

import (
	"time"

	"github.com/tendant/tool-catalog/pkg/toolcatalog"
)

// ListToolsResponse contains one page of tools
type ListToolsResponse struct {
	Tools      []*toolcatalog.Tool `json:"tools"`
	TotalCount int64               `json:"total_count"`
	Limit      int                 `json:"limit"`
	Offset     int                 `json:"offset"`
	HasMore    bool                `json:"has_more"`
}

// CategoryStatistics aggregates one category
type CategoryStatistics struct {
	Tools     int64 `json:"tools"`
	Downloads int64 `json:"downloads"`
	Bytes     int64 `json:"bytes"`
}

// ToolStatistics represents aggregated catalog statistics
type ToolStatistics struct {
	TotalTools     int64                         `json:"total_tools"`
	TotalDownloads int64                         `json:"total_downloads"`
	TotalBytes     int64                         `json:"total_bytes"`
	ByCategory     map[string]CategoryStatistics `json:"by_category"`
}

// StatisticsResponse contains the statistics result
type StatisticsResponse struct {
	Statistics ToolStatistics `json:"statistics"`
	ComputedAt time.Time      `json:"computed_at"`
}

// Problem kinds reported by Verify
const (
	ProblemMissing      = "missing"
	ProblemSizeMismatch = "size_mismatch"
	ProblemError        = "error"
)

// Problem is one catalog entry that failed verification
type Problem struct {
	ToolID       int64  `json:"tool_id"`
	Name         string `json:"name"`
	BlobKey      string `json:"blob_key"`
	Kind         string `json:"kind"`
	ExpectedSize int64  `json:"expected_size"`
	ActualSize   int64  `json:"actual_size,omitempty"`
	Detail       string `json:"detail,omitempty"`
}

// VerifyResponse contains the result of a consistency check
type VerifyResponse struct {
	Checked    int       `json:"checked"`
	Problems   []Problem `json:"problems"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// OK reports whether every checked entry was consistent
func (r *VerifyResponse) OK() bool {
	return len(r.Problems) == 0
}

package admin

import (
	"context"
	"errors"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tendant/tool-catalog/pkg/toolcatalog"
)

// adminService implements the AdminService interface
type adminService struct {
	catalog toolcatalog.Catalog
	store   toolcatalog.BlobStore
}

// Ensure adminService implements AdminService
var _ AdminService = (*adminService)(nil)

func (s *adminService) tools(ctx context.Context, category string) ([]*toolcatalog.Tool, error) {
	if category == "" {
		return s.catalog.ListAll(ctx)
	}
	return s.catalog.ListByCategory(ctx, category)
}

// ListTools returns a page of tools
func (s *adminService) ListTools(ctx context.Context, req ListToolsRequest) (*ListToolsResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	offset := max(req.Offset, 0)

	tools, err := s.tools(ctx, req.Category)
	if err != nil {
		return nil, err
	}

	total := len(tools)
	start := min(offset, total)
	end := min(start+limit, total)

	return &ListToolsResponse{
		Tools:      tools[start:end],
		TotalCount: int64(total),
		Limit:      limit,
		Offset:     offset,
		HasMore:    end < total,
	}, nil
}

// GetStatistics returns aggregated statistics about the catalog
func (s *adminService) GetStatistics(ctx context.Context) (*StatisticsResponse, error) {
	totals, err := s.catalog.AggregateStats(ctx)
	if err != nil {
		return nil, err
	}
	tools, err := s.catalog.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := ToolStatistics{
		TotalTools:     totals.TotalTools,
		TotalDownloads: totals.TotalDownloads,
		ByCategory:     make(map[string]CategoryStatistics),
	}
	for _, tool := range tools {
		c := stats.ByCategory[tool.Category]
		c.Tools++
		c.Downloads += tool.DownloadCount
		c.Bytes += tool.FileSize
		stats.ByCategory[tool.Category] = c
		stats.TotalBytes += tool.FileSize
	}

	return &StatisticsResponse{
		Statistics: stats,
		ComputedAt: time.Now().UTC(),
	}, nil
}

// Verify stats the blob of every catalog entry and reports entries whose
// blob is absent or differs in size from file_size.
func (s *adminService) Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error) {
	started := time.Now().UTC()

	tools, err := s.tools(ctx, req.Category)
	if err != nil {
		return nil, err
	}

	concurrency := req.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultVerifyConcurrency
	}

	results := make([]*Problem, len(tools))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, tool := range tools {
		i, tool := i, tool
		g.Go(func() error {
			results[i] = s.check(gctx, tool)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp := &VerifyResponse{
		Checked:   len(tools),
		Problems:  []Problem{},
		StartedAt: started,
	}
	for _, p := range results {
		if p != nil {
			resp.Problems = append(resp.Problems, *p)
		}
	}
	sort.Slice(resp.Problems, func(i, j int) bool {
		return resp.Problems[i].ToolID < resp.Problems[j].ToolID
	})
	resp.FinishedAt = time.Now().UTC()

	return resp, nil
}

func (s *adminService) check(ctx context.Context, tool *toolcatalog.Tool) *Problem {
	problem := &Problem{
		ToolID:       tool.ID,
		Name:         tool.Name,
		BlobKey:      tool.BlobKey,
		ExpectedSize: tool.FileSize,
	}

	meta, err := s.store.Stat(ctx, tool.BlobKey)
	switch {
	case errors.Is(err, toolcatalog.ErrBlobNotFound):
		problem.Kind = ProblemMissing
		return problem
	case err != nil:
		problem.Kind = ProblemError
		problem.Detail = err.Error()
		return problem
	case meta.Size != tool.FileSize:
		problem.Kind = ProblemSizeMismatch
		problem.ActualSize = meta.Size
		return problem
	}
	return nil
}

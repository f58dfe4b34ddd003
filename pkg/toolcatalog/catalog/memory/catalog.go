package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tendant/tool-catalog/pkg/toolcatalog"
)

// Catalog implements toolcatalog.Catalog using in-memory storage
type Catalog struct {
	mu     sync.RWMutex
	nextID int64
	tools  map[int64]*toolcatalog.Tool
	keys   map[string]int64 // blob_key -> id
	now    func() time.Time
}

// New creates a new in-memory catalog
func New() *Catalog {
	return &Catalog{
		tools: make(map[int64]*toolcatalog.Tool),
		keys:  make(map[string]int64),
		now:   time.Now,
	}
}

func (c *Catalog) Insert(ctx context.Context, tool *toolcatalog.NewTool) (*toolcatalog.Tool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkRequired(tool); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.keys[tool.BlobKey]; exists {
		return nil, fmt.Errorf("%w: blob_key %q already cataloged", toolcatalog.ErrConstraintViolation, tool.BlobKey)
	}

	c.nextID++
	record := &toolcatalog.Tool{
		ID:           c.nextID,
		Name:         tool.Name,
		Author:       tool.Author,
		Category:     tool.Category,
		Description:  copyString(tool.Description),
		BlobKey:      tool.BlobKey,
		OriginalName: tool.OriginalName,
		FileSize:     tool.FileSize,
		UploadedAt:   c.now().UTC(),
	}
	c.tools[record.ID] = record
	c.keys[record.BlobKey] = record.ID

	return cloneTool(record), nil
}

func (c *Catalog) ListAll(ctx context.Context) ([]*toolcatalog.Tool, error) {
	return c.list(func(*toolcatalog.Tool) bool { return true }), nil
}

func (c *Catalog) ListByCategory(ctx context.Context, category string) ([]*toolcatalog.Tool, error) {
	return c.list(func(t *toolcatalog.Tool) bool { return t.Category == category }), nil
}

func (c *Catalog) list(match func(*toolcatalog.Tool) bool) []*toolcatalog.Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*toolcatalog.Tool, 0, len(c.tools))
	for _, tool := range c.tools {
		if match(tool) {
			result = append(result, cloneTool(tool))
		}
	}

	// Newest first; ids break ties between identical timestamps
	sort.Slice(result, func(i, j int) bool {
		if !result[i].UploadedAt.Equal(result[j].UploadedAt) {
			return result[i].UploadedAt.After(result[j].UploadedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

func (c *Catalog) GetByID(ctx context.Context, id int64) (*toolcatalog.Tool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tool, exists := c.tools[id]
	if !exists {
		return nil, toolcatalog.ErrToolNotFound
	}
	return cloneTool(tool), nil
}

func (c *Catalog) IncrementDownloadCount(ctx context.Context, id int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tool, exists := c.tools[id]
	if !exists {
		return 0, toolcatalog.ErrToolNotFound
	}
	tool.DownloadCount++
	return tool.DownloadCount, nil
}

func (c *Catalog) AggregateStats(ctx context.Context) (*toolcatalog.Stats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := &toolcatalog.Stats{TotalTools: int64(len(c.tools))}
	for _, tool := range c.tools {
		stats.TotalDownloads += tool.DownloadCount
	}
	return stats, nil
}

// Len returns the number of records
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tools)
}

func checkRequired(tool *toolcatalog.NewTool) error {
	switch {
	case tool.Name == "":
		return fmt.Errorf("%w: name is required", toolcatalog.ErrConstraintViolation)
	case tool.Author == "":
		return fmt.Errorf("%w: author is required", toolcatalog.ErrConstraintViolation)
	case tool.Category == "":
		return fmt.Errorf("%w: category is required", toolcatalog.ErrConstraintViolation)
	case tool.BlobKey == "":
		return fmt.Errorf("%w: blob_key is required", toolcatalog.ErrConstraintViolation)
	case tool.OriginalName == "":
		return fmt.Errorf("%w: original_name is required", toolcatalog.ErrConstraintViolation)
	case tool.FileSize < 0:
		return fmt.Errorf("%w: file_size must not be negative", toolcatalog.ErrConstraintViolation)
	}
	return nil
}

func cloneTool(tool *toolcatalog.Tool) *toolcatalog.Tool {
	c := *tool
	c.Description = copyString(tool.Description)
	return &c
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

var _ toolcatalog.Catalog = (*Catalog)(nil)

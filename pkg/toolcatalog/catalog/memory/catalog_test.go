package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/tool-catalog/pkg/toolcatalog"
	"github.com/tendant/tool-catalog/pkg/toolcatalog/catalog/memory"
)

func newTool(name, category, key string) *toolcatalog.NewTool {
	return &toolcatalog.NewTool{
		Name:         name,
		Author:       "alice",
		Category:     category,
		BlobKey:      key,
		OriginalName: name + ".zip",
		FileSize:     10,
	}
}

func TestMemoryCatalog_Insert(t *testing.T) {
	cat := memory.New()
	ctx := context.Background()

	t.Run("AssignsIdsAndDefaults", func(t *testing.T) {
		first, err := cat.Insert(ctx, newTool("a", "security", "k1"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), first.ID)
		assert.Equal(t, int64(0), first.DownloadCount)
		assert.False(t, first.UploadedAt.IsZero())
		assert.Nil(t, first.Description)

		second, err := cat.Insert(ctx, newTool("b", "security", "k2"))
		require.NoError(t, err)
		assert.Equal(t, int64(2), second.ID)
	})

	t.Run("DuplicateBlobKey", func(t *testing.T) {
		_, err := cat.Insert(ctx, newTool("c", "security", "k1"))
		assert.ErrorIs(t, err, toolcatalog.ErrConstraintViolation)
	})

	t.Run("MissingField", func(t *testing.T) {
		tool := newTool("d", "security", "k4")
		tool.Author = ""
		_, err := cat.Insert(ctx, tool)
		assert.ErrorIs(t, err, toolcatalog.ErrConstraintViolation)
		assert.Equal(t, 2, cat.Len())
	})

	t.Run("ReturnsCopies", func(t *testing.T) {
		got, err := cat.GetByID(ctx, 1)
		require.NoError(t, err)
		got.Name = "mutated"

		again, err := cat.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "a", again.Name)
	})
}

func TestMemoryCatalog_Listing(t *testing.T) {
	cat := memory.New()
	ctx := context.Background()

	for i, category := range []string{"security", "network", "security", "Security"} {
		_, err := cat.Insert(ctx, newTool("tool", category, string(rune('a'+i))))
		require.NoError(t, err)
	}

	all, err := cat.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i-1].ID, all[i].ID, "newest first")
	}

	security, err := cat.ListByCategory(ctx, "security")
	require.NoError(t, err)
	require.Len(t, security, 2)
	assert.Equal(t, int64(3), security[0].ID)
	assert.Equal(t, int64(1), security[1].ID)

	empty, err := cat.ListByCategory(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryCatalog_Counters(t *testing.T) {
	cat := memory.New()
	ctx := context.Background()

	stats, err := cat.AggregateStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, toolcatalog.Stats{}, *stats)

	tool, err := cat.Insert(ctx, newTool("a", "security", "k1"))
	require.NoError(t, err)

	_, err = cat.IncrementDownloadCount(ctx, 999)
	assert.ErrorIs(t, err, toolcatalog.ErrToolNotFound)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cat.IncrementDownloadCount(ctx, tool.ID)
		}()
	}
	wg.Wait()

	got, err := cat.GetByID(ctx, tool.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), got.DownloadCount)

	stats, err = cat.AggregateStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalTools)
	assert.Equal(t, int64(n), stats.TotalDownloads)
}

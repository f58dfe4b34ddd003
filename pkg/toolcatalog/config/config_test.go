package config

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/tool-catalog/pkg/toolcatalog"
)

func TestBuild_Memory(t *testing.T) {
	cfg, err := Load(WithMemoryCatalog(), WithMemoryStorage())
	require.NoError(t, err)

	components, err := cfg.Build(context.Background(), nil, nil)
	require.NoError(t, err)
	defer components.Close()

	ctx := context.Background()
	tool, err := components.Service.UploadTool(ctx, toolcatalog.UploadToolRequest{
		Name:     "scanner",
		Author:   "alice",
		Category: "security",
		FileName: "scanner.tar.gz",
		Reader:   strings.NewReader("0123456789"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), tool.FileSize)

	exists, err := components.BlobStore.Exists(ctx, tool.BlobKey)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestBuild_SQLiteAndFilesystem(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(
		WithSQLiteCatalog(filepath.Join(dir, "catalog.db")),
		WithFilesystemStorage(filepath.Join(dir, "uploads")),
		WithKeyLayout("sharded"),
		WithMaxUploadSize(64),
	)
	require.NoError(t, err)

	components, err := cfg.Build(context.Background(), nil, nil)
	require.NoError(t, err)
	defer components.Close()

	ctx := context.Background()
	tool, err := components.Service.UploadTool(ctx, toolcatalog.UploadToolRequest{
		Name:     "scanner",
		Author:   "alice",
		Category: "security",
		FileName: "scanner.zip",
		Reader:   strings.NewReader("payload"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tool.BlobKey, "objects/"))

	_, err = components.Service.UploadTool(ctx, toolcatalog.UploadToolRequest{
		Name:     "big",
		Author:   "alice",
		Category: "security",
		FileName: "big.zip",
		Reader:   bytes.NewReader(make([]byte, 65)),
	})
	assert.ErrorIs(t, err, toolcatalog.ErrPayloadTooLarge)

	stats, err := components.Service.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalTools)
}

func TestNewLogger(t *testing.T) {
	cfg, err := Load(WithLogging("warn", "json"))
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "tool_id", 7)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, float64(7), entry["tool_id"])

	cfg.LogFormat = "text"
	buf.Reset()
	cfg.NewLogger(&buf).Warn("tinted")
	assert.Contains(t, buf.String(), "tinted")
}

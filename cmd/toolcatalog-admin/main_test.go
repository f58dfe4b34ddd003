package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/tool-catalog/pkg/toolcatalog"
	"github.com/tendant/tool-catalog/pkg/toolcatalog/admin"
	catalogmemory "github.com/tendant/tool-catalog/pkg/toolcatalog/catalog/memory"
	storagememory "github.com/tendant/tool-catalog/pkg/toolcatalog/storage/memory"
)

type seeded struct {
	catalog *catalogmemory.Catalog
	blobs   *storagememory.Backend
	tools   []*toolcatalog.Tool
}

func seed(t *testing.T) *seeded {
	t.Helper()
	s := &seeded{catalog: catalogmemory.New(), blobs: storagememory.New()}
	svc, err := toolcatalog.New(
		toolcatalog.WithCatalog(s.catalog),
		toolcatalog.WithBlobStore("memory", s.blobs),
	)
	require.NoError(t, err)

	for _, u := range []struct{ name, category string }{
		{"nmap", "network"},
		{"burp", "security"},
		{"ghidra", "security"},
	} {
		tool, err := svc.UploadTool(context.Background(), toolcatalog.UploadToolRequest{
			Name:     u.name,
			Author:   "alice",
			Category: u.category,
			FileName: u.name + ".zip",
			Reader:   strings.NewReader("payload"),
		})
		require.NoError(t, err)
		s.tools = append(s.tools, tool)
	}
	return s
}

func (s *seeded) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	open := func(ctx context.Context, verbose bool) (admin.AdminService, func() error, error) {
		return admin.New(s.catalog, s.blobs), func() error { return nil }, nil
	}
	var out bytes.Buffer
	cmd := NewRootCommand(open)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestListCommand(t *testing.T) {
	s := seed(t)

	out, err := s.execute(t, "list", "--category", "security")
	require.NoError(t, err)
	assert.Contains(t, out, "ghidra")
	assert.Contains(t, out, "burp")
	assert.NotContains(t, out, "nmap")
	assert.Less(t, strings.Index(out, "ghidra"), strings.Index(out, "burp"))
	assert.Contains(t, out, "Showing 2 of 2")

	out, err = s.execute(t, "list", "--json", "--limit", "1")
	require.NoError(t, err)
	var resp admin.ListToolsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, int64(3), resp.TotalCount)
	require.Len(t, resp.Tools, 1)
	assert.Equal(t, "ghidra", resp.Tools[0].Name)
	assert.True(t, resp.HasMore)
}

func TestStatsCommand(t *testing.T) {
	s := seed(t)

	out, err := s.execute(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Total tools:     3")
	assert.Contains(t, out, "network")
	assert.Contains(t, out, "security")

	out, err = s.execute(t, "stats", "--json")
	require.NoError(t, err)
	var resp admin.StatisticsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, int64(2), resp.Statistics.ByCategory["security"].Tools)
}

func TestVerifyCommand(t *testing.T) {
	s := seed(t)

	out, err := s.execute(t, "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "Checked 3 tools")

	require.NoError(t, s.blobs.Delete(context.Background(), s.tools[1].BlobKey))

	out, err = s.execute(t, "verify")
	require.ErrorIs(t, err, errVerifyFailed)
	assert.Contains(t, out, "burp")
	assert.Contains(t, out, admin.ProblemMissing)

	_, err = s.execute(t, "verify", "--category", "network")
	assert.NoError(t, err)
}

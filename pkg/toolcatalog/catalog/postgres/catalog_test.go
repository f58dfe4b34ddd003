package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/tendant/tool-catalog/pkg/toolcatalog"
)

func TestHandlePostgresError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		is   error
	}{
		{"UniqueViolation", &pgconn.PgError{Code: "23505", ConstraintName: "tools_blob_key_key"}, toolcatalog.ErrConstraintViolation},
		{"NotNullViolation", &pgconn.PgError{Code: "23502", ColumnName: "author"}, toolcatalog.ErrConstraintViolation},
		{"CheckViolation", &pgconn.PgError{Code: "23514", ConstraintName: "tools_name_check"}, toolcatalog.ErrConstraintViolation},
		{"NoRows", pgx.ErrNoRows, toolcatalog.ErrToolNotFound},
		{"Canceled", context.Canceled, context.Canceled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, handlePostgresError("op", tc.err), tc.is)
		})
	}

	t.Run("Other", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := handlePostgresError("get tool", cause)
		assert.ErrorIs(t, err, cause)
		assert.ErrorIs(t, err, toolcatalog.ErrStorageFailure)
		assert.Contains(t, err.Error(), "get tool")
	})

	t.Run("OtherServerError", func(t *testing.T) {
		err := handlePostgresError("insert tool", &pgconn.PgError{Code: "53300", Message: "too many connections"})
		assert.ErrorIs(t, err, toolcatalog.ErrStorageFailure)
		assert.NotErrorIs(t, err, toolcatalog.ErrConstraintViolation)
		assert.Contains(t, err.Error(), "53300")
	})

	t.Run("MissingTable", func(t *testing.T) {
		err := handlePostgresError("list tools", &pgconn.PgError{Code: "42P01"})
		assert.ErrorIs(t, err, toolcatalog.ErrStorageFailure)
	})
}

// setupTestDB connects to TEST_DATABASE_URL inside a throwaway schema
func setupTestDB(t *testing.T) *Catalog {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("Skipping postgres test: TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	schema := fmt.Sprintf("toolcatalog_test_%d", time.Now().UnixNano())

	admin, err := NewPool(ctx, databaseURL, "")
	require.NoError(t, err)
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+pgx.Identifier{schema}.Sanitize())
	require.NoError(t, err)

	pool, err := NewPool(ctx, databaseURL, schema)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+pgx.Identifier{schema}.Sanitize()+" CASCADE")
		admin.Close()
	})

	catalog := New(pool)
	require.NoError(t, catalog.EnsureSchema(ctx))
	require.NoError(t, catalog.EnsureSchema(ctx), "schema bootstrap is idempotent")
	return catalog
}

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

func TestPostgresCatalog(t *testing.T) {
	catalog := setupTestDB(t)
	ctx := context.Background()

	t.Run("EmptyStats", func(t *testing.T) {
		stats, err := catalog.AggregateStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, toolcatalog.Stats{}, *stats)
	})

	var first *toolcatalog.Tool
	t.Run("Insert", func(t *testing.T) {
		var err error
		first, err = catalog.Insert(ctx, newTool("scanner", "security", "k1"))
		require.NoError(t, err)
		assert.Positive(t, first.ID)
		assert.Equal(t, int64(0), first.DownloadCount)
		assert.Nil(t, first.Description)

		_, err = catalog.Insert(ctx, newTool("dupe", "security", "k1"))
		assert.ErrorIs(t, err, toolcatalog.ErrConstraintViolation)

		_, err = catalog.Insert(ctx, newTool("", "security", "k9"))
		assert.ErrorIs(t, err, toolcatalog.ErrConstraintViolation)
	})

	t.Run("Listing", func(t *testing.T) {
		_, err := catalog.Insert(ctx, newTool("sniffer", "network", "k2"))
		require.NoError(t, err)
		third, err := catalog.Insert(ctx, newTool("fuzzer", "security", "k3"))
		require.NoError(t, err)

		all, err := catalog.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, third.ID, all[0].ID)

		security, err := catalog.ListByCategory(ctx, "security")
		require.NoError(t, err)
		require.Len(t, security, 2)
		assert.Equal(t, third.ID, security[0].ID)
		assert.Equal(t, first.ID, security[1].ID)
	})

	t.Run("GetByID", func(t *testing.T) {
		_, err := catalog.GetByID(ctx, 1<<40)
		assert.ErrorIs(t, err, toolcatalog.ErrToolNotFound)
	})

	t.Run("ConcurrentIncrements", func(t *testing.T) {
		const n = 25
		var g errgroup.Group
		for i := 0; i < n; i++ {
			g.Go(func() error {
				_, err := catalog.IncrementDownloadCount(ctx, first.ID)
				return err
			})
		}
		require.NoError(t, g.Wait())

		got, err := catalog.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(n), got.DownloadCount)

		_, err = catalog.IncrementDownloadCount(ctx, 1<<40)
		assert.ErrorIs(t, err, toolcatalog.ErrToolNotFound)

		stats, err := catalog.AggregateStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), stats.TotalTools)
		assert.Equal(t, int64(n), stats.TotalDownloads)
	})
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/tool-catalog/pkg/toolcatalog"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Schema creates the tools table and its indexes. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS tools (
	id             BIGSERIAL PRIMARY KEY,
	name           TEXT NOT NULL CHECK (name <> ''),
	author         TEXT NOT NULL CHECK (author <> ''),
	category       TEXT NOT NULL CHECK (category <> ''),
	description    TEXT,
	blob_key       TEXT NOT NULL UNIQUE,
	original_name  TEXT NOT NULL,
	file_size      BIGINT NOT NULL CHECK (file_size >= 0),
	uploaded_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	download_count BIGINT NOT NULL DEFAULT 0 CHECK (download_count >= 0)
);
CREATE INDEX IF NOT EXISTS tools_category_idx ON tools (category);
CREATE INDEX IF NOT EXISTS tools_uploaded_at_idx ON tools (uploaded_at DESC, id DESC);
`

const toolColumns = `id, name, author, category, description, blob_key, original_name, file_size, uploaded_at, download_count`

// Catalog implements toolcatalog.Catalog using PostgreSQL
type Catalog struct {
	db DBTX
}

// New creates a new PostgreSQL catalog
func New(db DBTX) *Catalog {
	return &Catalog{db: db}
}

// NewPool opens a connection pool. When schema is set every connection uses
// it as search_path.
func NewPool(ctx context.Context, databaseURL, schema string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, errors.New("database_url is required")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		searchPath := "SET search_path TO " + pgx.Identifier{schema}.Sanitize()
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, searchPath)
			return err
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}

// EnsureSchema applies Schema
func (c *Catalog) EnsureSchema(ctx context.Context) error {
	if _, err := c.db.Exec(ctx, Schema); err != nil {
		return handlePostgresError("ensure schema", err)
	}
	return nil
}

// Error handling helper
func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: duplicate %s", toolcatalog.ErrConstraintViolation, pgErr.ConstraintName)
		case "23502": // not_null_violation
			return fmt.Errorf("%w: required field %s is missing", toolcatalog.ErrConstraintViolation, pgErr.ColumnName)
		case "23514": // check_violation
			return fmt.Errorf("%w: check %s failed", toolcatalog.ErrConstraintViolation, pgErr.ConstraintName)
		case "42P01": // undefined_table
			return fmt.Errorf("%w: %s: table does not exist, database migration required: %w", toolcatalog.ErrStorageFailure, operation, err)
		default:
			return fmt.Errorf("%w: %s: %s (code: %s): %w", toolcatalog.ErrStorageFailure, operation, pgErr.Message, pgErr.Code, err)
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return toolcatalog.ErrToolNotFound
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return fmt.Errorf("%w: %s: %w", toolcatalog.ErrStorageFailure, operation, err)
}

func scanTool(row pgx.Row) (*toolcatalog.Tool, error) {
	var tool toolcatalog.Tool
	err := row.Scan(
		&tool.ID, &tool.Name, &tool.Author, &tool.Category, &tool.Description,
		&tool.BlobKey, &tool.OriginalName, &tool.FileSize, &tool.UploadedAt, &tool.DownloadCount)
	if err != nil {
		return nil, err
	}
	tool.UploadedAt = tool.UploadedAt.UTC()
	return &tool, nil
}

func (c *Catalog) Insert(ctx context.Context, tool *toolcatalog.NewTool) (*toolcatalog.Tool, error) {
	query := `
		INSERT INTO tools (name, author, category, description, blob_key, original_name, file_size)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + toolColumns

	created, err := scanTool(c.db.QueryRow(ctx, query,
		tool.Name, tool.Author, tool.Category, tool.Description,
		tool.BlobKey, tool.OriginalName, tool.FileSize))
	if err != nil {
		return nil, handlePostgresError("insert tool", err)
	}
	return created, nil
}

func (c *Catalog) ListAll(ctx context.Context) ([]*toolcatalog.Tool, error) {
	query := `SELECT ` + toolColumns + ` FROM tools ORDER BY uploaded_at DESC, id DESC`
	return c.list(ctx, "list tools", query)
}

func (c *Catalog) ListByCategory(ctx context.Context, category string) ([]*toolcatalog.Tool, error) {
	query := `SELECT ` + toolColumns + ` FROM tools WHERE category = $1 ORDER BY uploaded_at DESC, id DESC`
	return c.list(ctx, "list tools by category", query, category)
}

func (c *Catalog) list(ctx context.Context, operation, query string, args ...interface{}) ([]*toolcatalog.Tool, error) {
	rows, err := c.db.Query(ctx, query, args...)
	if err != nil {
		return nil, handlePostgresError(operation, err)
	}
	defer rows.Close()

	tools := []*toolcatalog.Tool{}
	for rows.Next() {
		tool, err := scanTool(rows)
		if err != nil {
			return nil, handlePostgresError(operation, err)
		}
		tools = append(tools, tool)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError(operation, err)
	}
	return tools, nil
}

func (c *Catalog) GetByID(ctx context.Context, id int64) (*toolcatalog.Tool, error) {
	query := `SELECT ` + toolColumns + ` FROM tools WHERE id = $1`

	tool, err := scanTool(c.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, handlePostgresError("get tool", err)
	}
	return tool, nil
}

func (c *Catalog) IncrementDownloadCount(ctx context.Context, id int64) (int64, error) {
	query := `UPDATE tools SET download_count = download_count + 1 WHERE id = $1 RETURNING download_count`

	var count int64
	if err := c.db.QueryRow(ctx, query, id).Scan(&count); err != nil {
		return 0, handlePostgresError("increment download count", err)
	}
	return count, nil
}

func (c *Catalog) AggregateStats(ctx context.Context) (*toolcatalog.Stats, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(download_count), 0)::BIGINT FROM tools`

	var stats toolcatalog.Stats
	if err := c.db.QueryRow(ctx, query).Scan(&stats.TotalTools, &stats.TotalDownloads); err != nil {
		return nil, handlePostgresError("aggregate stats", err)
	}
	return &stats, nil
}

var _ toolcatalog.Catalog = (*Catalog)(nil)

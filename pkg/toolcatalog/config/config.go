package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/tendant/tool-catalog/pkg/toolcatalog"
	"github.com/tendant/tool-catalog/pkg/toolcatalog/blobkey"
	catalogmemory "github.com/tendant/tool-catalog/pkg/toolcatalog/catalog/memory"
	catalogpg "github.com/tendant/tool-catalog/pkg/toolcatalog/catalog/postgres"
	catalogsqlite "github.com/tendant/tool-catalog/pkg/toolcatalog/catalog/sqlite"
	fsstorage "github.com/tendant/tool-catalog/pkg/toolcatalog/storage/fs"
	memorystorage "github.com/tendant/tool-catalog/pkg/toolcatalog/storage/memory"
	s3storage "github.com/tendant/tool-catalog/pkg/toolcatalog/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:         "8080",
		Environment:  "development",
		LogLevel:     "info",
		LogFormat:    "text",
		DatabaseType: "sqlite",
		DatabasePath: "./data/catalog.db",
		EnsureSchema: true,
		Storage: StorageBackendConfig{
			Name: "fs",
			Type: "fs",
			Config: map[string]interface{}{
				"base_dir": "./data/uploads",
			},
		},
		KeyLayout:          "flat",
		MaxUploadSize:      toolcatalog.DefaultMaxUploadSize,
		EnableEventLogging: true,
		EnableMetrics:      true,
	}
}

// ServerConfig represents configuration for the tool catalog service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing
	LogLevel    string // debug, info, warn, error
	LogFormat   string // text, json

	// Catalog configuration
	DatabaseType string // "memory", "sqlite", "postgres"
	DatabaseURL  string // postgres connection string
	DatabasePath string // sqlite database file
	DBSchema     string // Postgres schema to use (search_path)
	EnsureSchema bool   // create the tools table on startup

	// Blob storage configuration
	Storage   StorageBackendConfig
	KeyLayout string // "flat" or "sharded"

	MaxUploadSize int64

	// Server options
	EnableEventLogging bool
	EnableMetrics      bool
}

// StorageBackendConfig represents configuration for the blob storage backend
type StorageBackendConfig struct {
	Name   string
	Type   string // "memory", "fs", "s3"
	Config map[string]interface{}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.DatabaseType {
	case "memory":
	case "sqlite":
		if c.DatabasePath == "" {
			return errors.New("database_path is required when using sqlite")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("database_url is required when using postgres")
		}
	default:
		return fmt.Errorf("database_type must be 'memory', 'sqlite' or 'postgres', got %q", c.DatabaseType)
	}

	switch c.Storage.Type {
	case "memory":
	case "fs":
		if getString(c.Storage.Config, "base_dir", "") == "" {
			return errors.New("base_dir is required for filesystem storage")
		}
	case "s3":
		if getString(c.Storage.Config, "bucket", "") == "" {
			return errors.New("bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("unsupported storage backend type: %s", c.Storage.Type)
	}

	if c.KeyLayout != "flat" && c.KeyLayout != "sharded" {
		return fmt.Errorf("key_layout must be 'flat' or 'sharded', got %q", c.KeyLayout)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("max_upload_size must be positive, got %d", c.MaxUploadSize)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format must be 'text' or 'json', got %q", c.LogFormat)
	}

	return nil
}

// Components is a fully wired service together with the stores behind it.
// Close releases database handles.
type Components struct {
	Service   toolcatalog.Service
	Catalog   toolcatalog.Catalog
	BlobStore toolcatalog.BlobStore
	closers   []func() error
}

func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build creates the catalog, blob store and Service described by the configuration.
// metrics may be nil.
func (c *ServerConfig) Build(ctx context.Context, logger *slog.Logger, metrics toolcatalog.Metrics) (*Components, error) {
	if logger == nil {
		logger = slog.Default()
	}
	components := &Components{}

	catalog, closer, err := c.buildCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}
	components.Catalog = catalog
	if closer != nil {
		components.closers = append(components.closers, closer)
	}

	store, err := c.buildStorageBackend(c.Storage)
	if err != nil {
		_ = components.Close()
		return nil, fmt.Errorf("failed to build storage backend %s: %w", c.Storage.Name, err)
	}
	components.BlobStore = store

	options := []toolcatalog.Option{
		toolcatalog.WithCatalog(catalog),
		toolcatalog.WithBlobStore(c.Storage.Name, store),
		toolcatalog.WithMaxUploadSize(c.MaxUploadSize),
		toolcatalog.WithLogger(logger),
	}

	if c.KeyLayout == "sharded" {
		options = append(options, toolcatalog.WithKeyGenerator(blobkey.NewShardedGenerator()))
	}

	// Set up event sink
	if c.EnableEventLogging {
		options = append(options, toolcatalog.WithEventSink(toolcatalog.NewLogEventSink(logger)))
	}

	if metrics != nil {
		options = append(options, toolcatalog.WithMetrics(metrics))
	}

	svc, err := toolcatalog.New(options...)
	if err != nil {
		_ = components.Close()
		return nil, err
	}
	components.Service = svc

	return components, nil
}

// buildCatalog creates a Catalog based on the configuration
func (c *ServerConfig) buildCatalog(ctx context.Context) (toolcatalog.Catalog, func() error, error) {
	switch c.DatabaseType {
	case "memory":
		return catalogmemory.New(), nil, nil

	case "sqlite":
		catalog, err := catalogsqlite.New(catalogsqlite.Config{
			DatabasePath: c.DatabasePath,
			Debug:        c.LogLevel == "debug",
		})
		if err != nil {
			return nil, nil, err
		}
		return catalog, catalog.Close, nil

	case "postgres":
		pool, err := catalogpg.NewPool(ctx, c.DatabaseURL, c.DBSchema)
		if err != nil {
			return nil, nil, err
		}
		catalog := catalogpg.New(pool)
		if c.EnsureSchema {
			if err := catalog.EnsureSchema(ctx); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		return catalog, func() error { pool.Close(); return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// buildStorageBackend creates a BlobStore based on the backend configuration
func (c *ServerConfig) buildStorageBackend(config StorageBackendConfig) (toolcatalog.BlobStore, error) {
	switch config.Type {
	case "memory":
		return memorystorage.New(), nil

	case "fs":
		return fsstorage.New(fsstorage.Config{
			BaseDir: getString(config.Config, "base_dir", "./data/uploads"),
		})

	case "s3":
		return s3storage.New(s3storage.Config{
			Region:                 getString(config.Config, "region", "us-east-1"),
			Bucket:                 getString(config.Config, "bucket", ""),
			Prefix:                 getString(config.Config, "prefix", ""),
			AccessKeyID:            getString(config.Config, "access_key_id", ""),
			SecretAccessKey:        getString(config.Config, "secret_access_key", ""),
			Endpoint:               getString(config.Config, "endpoint", ""),
			UsePathStyle:           getBool(config.Config, "use_path_style", false),
			EnableSSE:              getBool(config.Config, "enable_sse", false),
			SSEAlgorithm:           getString(config.Config, "sse_algorithm", "AES256"),
			SSEKMSKeyID:            getString(config.Config, "sse_kms_key_id", ""),
			CreateBucketIfNotExist: getBool(config.Config, "create_bucket_if_not_exist", false),
		})

	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", config.Type)
	}
}

// NewLogger builds the process logger: colorized tint output for text, slog's
// JSON handler otherwise.
func (c *ServerConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}

	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
		NoColor:    c.Environment == "production",
	}))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

func getString(config map[string]interface{}, key string, defaultValue string) string {
	if value, exists := config[key]; exists {
		if str, ok := value.(string); ok {
			return str
		}
	}
	return defaultValue
}

func getBool(config map[string]interface{}, key string, defaultValue bool) bool {
	if value, exists := config[key]; exists {
		if b, ok := value.(bool); ok {
			return b
		}
		if str, ok := value.(string); ok {
			if b, err := strconv.ParseBool(str); err == nil {
				return b
			}
		}
	}
	return defaultValue
}

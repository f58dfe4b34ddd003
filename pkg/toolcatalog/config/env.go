package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// EnvConfig is the process environment (and optional config file) layout.
//
//	PORT                   server port (default "8080")
//	ENVIRONMENT            runtime environment (default "development")
//	LOG_LEVEL, LOG_FORMAT  debug|info|warn|error, text|json
//	DATABASE_URL           "memory", "sqlite:///path/catalog.db" or "postgres://..."
//	DB_SCHEMA              Postgres search_path
//	STORAGE_URL            "memory://", "file:///path" or "s3://bucket?region=..&endpoint=..&path_style=true"
//	MAX_UPLOAD_SIZE        bytes (default 50 MiB)
//	AWS_*                  S3 credentials and region
type EnvConfig struct {
	Port               string `env:"PORT" env-default:"8080" yaml:"port" json:"port"`
	Environment        string `env:"ENVIRONMENT" env-default:"development" yaml:"environment" json:"environment"`
	LogLevel           string `env:"LOG_LEVEL" env-default:"info" yaml:"log_level" json:"log_level"`
	LogFormat          string `env:"LOG_FORMAT" env-default:"text" yaml:"log_format" json:"log_format"`
	DatabaseURL        string `env:"DATABASE_URL" env-default:"sqlite://./data/catalog.db" yaml:"database_url" json:"database_url"`
	DBSchema           string `env:"DB_SCHEMA" yaml:"db_schema" json:"db_schema"`
	StorageURL         string `env:"STORAGE_URL" env-default:"file://./data/uploads" yaml:"storage_url" json:"storage_url"`
	KeyLayout          string `env:"KEY_LAYOUT" env-default:"flat" yaml:"key_layout" json:"key_layout"`
	MaxUploadSize      int64  `env:"MAX_UPLOAD_SIZE" env-default:"52428800" yaml:"max_upload_size" json:"max_upload_size"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" yaml:"aws_access_key_id" json:"aws_access_key_id"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" yaml:"aws_secret_access_key" json:"aws_secret_access_key"`
	AWSRegion          string `env:"AWS_REGION" yaml:"aws_region" json:"aws_region"`
	EnableEventLogging bool   `env:"ENABLE_EVENT_LOGGING" env-default:"true" yaml:"enable_event_logging" json:"enable_event_logging"`
	EnableMetrics      bool   `env:"ENABLE_METRICS" env-default:"true" yaml:"enable_metrics" json:"enable_metrics"`
}

// LoadServerConfig reads CONFIG_FILE (when set) and the environment, then
// applies opts on top.
func LoadServerConfig(opts ...Option) (*ServerConfig, error) {
	base := WithEnv()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		base = WithConfigFile(path)
	}
	return Load(append([]Option{base}, opts...)...)
}

// WithEnv applies the environment. Every field EnvConfig covers is replaced,
// by the variable or by its default, so explicit options belong after it.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var env EnvConfig
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		return env.apply(c)
	}
}

// WithConfigFile reads a yaml, json or toml file; environment variables
// override values from the file.
func WithConfigFile(path string) Option {
	return func(c *ServerConfig) error {
		var env EnvConfig
		if err := cleanenv.ReadConfig(path, &env); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return env.apply(c)
	}
}

func (e EnvConfig) apply(c *ServerConfig) error {
	c.Port = e.Port
	c.Environment = e.Environment
	c.LogLevel = e.LogLevel
	c.LogFormat = e.LogFormat
	c.DBSchema = e.DBSchema
	c.KeyLayout = e.KeyLayout
	c.MaxUploadSize = e.MaxUploadSize
	c.EnableEventLogging = e.EnableEventLogging
	c.EnableMetrics = e.EnableMetrics

	if err := applyDatabaseURL(e.DatabaseURL, c); err != nil {
		return err
	}
	return applyStorageURL(e.StorageURL, e, c)
}

// applyDatabaseURL selects the catalog backend from DATABASE_URL
func applyDatabaseURL(dbURL string, c *ServerConfig) error {
	switch {
	case dbURL == "" || dbURL == "memory" || dbURL == "memory://":
		return WithMemoryCatalog()(c)
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		return WithPostgresCatalog(dbURL)(c)
	case strings.HasPrefix(dbURL, "sqlite://"):
		path := strings.TrimPrefix(dbURL, "sqlite://")
		if path == "" {
			return fmt.Errorf("sqlite path cannot be empty in DATABASE_URL")
		}
		return WithSQLiteCatalog(path)(c)
	}
	return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory', 'sqlite:///path' or 'postgres://...')", dbURL)
}

// applyStorageURL selects the blob store from STORAGE_URL
func applyStorageURL(storageURL string, env EnvConfig, c *ServerConfig) error {
	switch {
	case storageURL == "" || storageURL == "memory" || storageURL == "memory://":
		return WithMemoryStorage()(c)
	case strings.HasPrefix(storageURL, "file://"):
		path := strings.TrimPrefix(storageURL, "file://")
		if path == "" {
			return fmt.Errorf("filesystem path cannot be empty in STORAGE_URL")
		}
		return WithFilesystemStorage(path)(c)
	case strings.HasPrefix(storageURL, "s3://"):
		return applyS3URL(storageURL, env, c)
	}
	return fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...', or 's3://...')", storageURL)
}

// applyS3URL configures S3 storage from
// s3://bucket?region=us-east-1&endpoint=http://localhost:9000&path_style=true&prefix=tools&create_bucket=true
func applyS3URL(raw string, env EnvConfig, c *ServerConfig) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid STORAGE_URL: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("S3 bucket name cannot be empty in STORAGE_URL")
	}
	q := u.Query()

	region := q.Get("region")
	if region == "" {
		region = env.AWSRegion
	}
	if err := WithS3Storage(u.Host, region)(c); err != nil {
		return err
	}

	cfg := c.Storage.Config
	if endpoint := q.Get("endpoint"); endpoint != "" {
		cfg["endpoint"] = endpoint
	}
	if prefix := strings.Trim(u.Path, "/"); prefix != "" {
		cfg["prefix"] = prefix
	}
	if prefix := q.Get("prefix"); prefix != "" {
		cfg["prefix"] = prefix
	}
	if v := q.Get("path_style"); v != "" {
		cfg["use_path_style"] = v
	}
	if v := q.Get("create_bucket"); v != "" {
		cfg["create_bucket_if_not_exist"] = v
	}
	if v := q.Get("sse"); v != "" {
		cfg["enable_sse"] = true
		cfg["sse_algorithm"] = v
	}

	// Check for AWS credentials in environment
	if env.AWSAccessKeyID != "" && env.AWSSecretAccessKey != "" {
		cfg["access_key_id"] = env.AWSAccessKeyID
		cfg["secret_access_key"] = env.AWSSecretAccessKey
	}
	return nil
}

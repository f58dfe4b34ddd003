package config

import (
	"fmt"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithLogging sets the log level and output format
func WithLogging(level, format string) Option {
	return func(c *ServerConfig) error {
		if _, err := parseLevel(level); err != nil {
			return err
		}
		if format != "text" && format != "json" {
			return fmt.Errorf("log format must be 'text' or 'json', got: %s", format)
		}
		c.LogLevel = level
		c.LogFormat = format
		return nil
	}
}

// WithMemoryCatalog keeps catalog records in process memory
func WithMemoryCatalog() Option {
	return func(c *ServerConfig) error {
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
		c.DatabasePath = ""
		return nil
	}
}

// WithSQLiteCatalog stores the catalog in a SQLite file
func WithSQLiteCatalog(path string) Option {
	return func(c *ServerConfig) error {
		if path == "" {
			return fmt.Errorf("sqlite database path cannot be empty")
		}
		c.DatabaseType = "sqlite"
		c.DatabasePath = path
		c.DatabaseURL = ""
		return nil
	}
}

// WithPostgresCatalog stores the catalog in Postgres
func WithPostgresCatalog(url string) Option {
	return func(c *ServerConfig) error {
		if url == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
		c.DatabaseType = "postgres"
		c.DatabaseURL = url
		c.DatabasePath = ""
		return nil
	}
}

// WithDatabaseSchema sets the database schema (for Postgres)
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithEnsureSchema controls whether the catalog table is created on startup
func WithEnsureSchema(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnsureSchema = enabled
		return nil
	}
}

// WithMemoryStorage keeps blobs in process memory
func WithMemoryStorage() Option {
	return func(c *ServerConfig) error {
		c.Storage = StorageBackendConfig{
			Name:   "memory",
			Type:   "memory",
			Config: map[string]interface{}{},
		}
		return nil
	}
}

// WithFilesystemStorage stores blobs as files under baseDir
func WithFilesystemStorage(baseDir string) Option {
	return func(c *ServerConfig) error {
		if baseDir == "" {
			return fmt.Errorf("filesystem base directory cannot be empty")
		}
		c.Storage = StorageBackendConfig{
			Name: "fs",
			Type: "fs",
			Config: map[string]interface{}{
				"base_dir": baseDir,
			},
		}
		return nil
	}
}

// WithS3Storage stores blobs in an S3 bucket
func WithS3Storage(bucket, region string) Option {
	return func(c *ServerConfig) error {
		if bucket == "" {
			return fmt.Errorf("S3 bucket cannot be empty")
		}
		if region == "" {
			region = "us-east-1" // Default region
		}
		c.Storage = StorageBackendConfig{
			Name: "s3",
			Type: "s3",
			Config: map[string]interface{}{
				"bucket": bucket,
				"region": region,
			},
		}
		return nil
	}
}

// s3Config returns the S3 backend settings, failing if S3 is not selected
func (c *ServerConfig) s3Config() (map[string]interface{}, error) {
	if c.Storage.Type != "s3" {
		return nil, fmt.Errorf("S3 storage must be configured first")
	}
	if c.Storage.Config == nil {
		c.Storage.Config = map[string]interface{}{}
	}
	return c.Storage.Config, nil
}

// WithS3Credentials sets static AWS credentials for S3 storage
func WithS3Credentials(accessKeyID, secretAccessKey string) Option {
	return func(c *ServerConfig) error {
		cfg, err := c.s3Config()
		if err != nil {
			return err
		}
		cfg["access_key_id"] = accessKeyID
		cfg["secret_access_key"] = secretAccessKey
		return nil
	}
}

// WithS3Endpoint sets a custom S3 endpoint (for MinIO, LocalStack, etc.)
func WithS3Endpoint(endpoint string, usePathStyle bool) Option {
	return func(c *ServerConfig) error {
		cfg, err := c.s3Config()
		if err != nil {
			return err
		}
		cfg["endpoint"] = endpoint
		cfg["use_path_style"] = usePathStyle
		return nil
	}
}

// WithS3Encryption enables server-side encryption (AES256 or aws:kms)
func WithS3Encryption(algorithm, kmsKeyID string) Option {
	return func(c *ServerConfig) error {
		if algorithm != "AES256" && algorithm != "aws:kms" {
			return fmt.Errorf("SSE algorithm must be 'AES256' or 'aws:kms', got: %s", algorithm)
		}
		cfg, err := c.s3Config()
		if err != nil {
			return err
		}
		cfg["enable_sse"] = true
		cfg["sse_algorithm"] = algorithm
		if kmsKeyID != "" {
			cfg["sse_kms_key_id"] = kmsKeyID
		}
		return nil
	}
}

// WithKeyLayout selects "flat" or "sharded" blob keys
func WithKeyLayout(layout string) Option {
	return func(c *ServerConfig) error {
		if layout != "flat" && layout != "sharded" {
			return fmt.Errorf("key layout must be 'flat' or 'sharded', got: %s", layout)
		}
		c.KeyLayout = layout
		return nil
	}
}

// WithMaxUploadSize sets the per-upload size ceiling in bytes
func WithMaxUploadSize(size int64) Option {
	return func(c *ServerConfig) error {
		if size <= 0 {
			return fmt.Errorf("max upload size must be positive, got: %d", size)
		}
		c.MaxUploadSize = size
		return nil
	}
}

// WithEventLogging enables or disables event logging
func WithEventLogging(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableEventLogging = enabled
		return nil
	}
}

// WithMetrics enables or disables Prometheus metrics
func WithMetrics(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableMetrics = enabled
		return nil
	}
}

// Package sqlite stores the tool catalog in a single SQLite file through gorm.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tendant/tool-catalog/pkg/toolcatalog"
)

// toolRecord is the gorm model behind the tools table
type toolRecord struct {
	ID            int64     `gorm:"primaryKey;autoIncrement"`
	Name          string    `gorm:"type:text;not null"`
	Author        string    `gorm:"type:text;not null"`
	Category      string    `gorm:"type:text;not null;index"`
	Description   *string   `gorm:"type:text"`
	BlobKey       string    `gorm:"type:text;not null;uniqueIndex"`
	OriginalName  string    `gorm:"type:text;not null"`
	FileSize      int64     `gorm:"not null;check:file_size >= 0"`
	UploadedAt    time.Time `gorm:"not null;index"`
	DownloadCount int64     `gorm:"not null;default:0;check:download_count >= 0"`
}

func (toolRecord) TableName() string {
	return "tools"
}

func (r *toolRecord) toTool() *toolcatalog.Tool {
	return &toolcatalog.Tool{
		ID:            r.ID,
		Name:          r.Name,
		Author:        r.Author,
		Category:      r.Category,
		Description:   r.Description,
		BlobKey:       r.BlobKey,
		OriginalName:  r.OriginalName,
		FileSize:      r.FileSize,
		UploadedAt:    r.UploadedAt.UTC(),
		DownloadCount: r.DownloadCount,
	}
}

type Config struct {
	DatabasePath string
	Debug        bool
}

// Catalog implements toolcatalog.Catalog on SQLite
type Catalog struct {
	db *gorm.DB
}

// New opens (or creates) the database file and migrates the schema
func New(cfg Config) (*Catalog, error) {
	if cfg.DatabasePath == "" {
		return nil, errors.New("database path is required")
	}
	if cfg.DatabasePath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}

	dsn := cfg.DatabasePath + "?_busy_timeout=5000&_journal_mode=WAL"
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// SQLite allows one writer at a time
	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	// Auto-migrate schema
	if err := database.AutoMigrate(&toolRecord{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Catalog{db: database}, nil
}

func (c *Catalog) Insert(ctx context.Context, tool *toolcatalog.NewTool) (*toolcatalog.Tool, error) {
	record := &toolRecord{
		Name:         tool.Name,
		Author:       tool.Author,
		Category:     tool.Category,
		Description:  tool.Description,
		BlobKey:      tool.BlobKey,
		OriginalName: tool.OriginalName,
		FileSize:     tool.FileSize,
		UploadedAt:   time.Now().UTC(),
	}
	if err := checkRequired(record); err != nil {
		return nil, err
	}

	if err := c.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, translate("insert tool", err)
	}
	return record.toTool(), nil
}

func (c *Catalog) ListAll(ctx context.Context) ([]*toolcatalog.Tool, error) {
	return c.find(c.db.WithContext(ctx))
}

func (c *Catalog) ListByCategory(ctx context.Context, category string) ([]*toolcatalog.Tool, error) {
	return c.find(c.db.WithContext(ctx).Where("category = ?", category))
}

func (c *Catalog) find(query *gorm.DB) ([]*toolcatalog.Tool, error) {
	var records []toolRecord
	if err := query.Order("uploaded_at DESC").Order("id DESC").Find(&records).Error; err != nil {
		return nil, translate("list tools", err)
	}

	tools := make([]*toolcatalog.Tool, 0, len(records))
	for i := range records {
		tools = append(tools, records[i].toTool())
	}
	return tools, nil
}

func (c *Catalog) GetByID(ctx context.Context, id int64) (*toolcatalog.Tool, error) {
	var record toolRecord
	if err := c.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, translate("get tool", err)
	}
	return record.toTool(), nil
}

// IncrementDownloadCount runs the update expression and the read back in one
// transaction so the returned value is the one this call produced.
func (c *Catalog) IncrementDownloadCount(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&toolRecord{}).
			Where("id = ?", id).
			UpdateColumn("download_count", gorm.Expr("download_count + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return toolcatalog.ErrToolNotFound
		}
		return tx.Model(&toolRecord{}).Where("id = ?", id).Pluck("download_count", &count).Error
	})
	if err != nil {
		return 0, translate("increment download count", err)
	}
	return count, nil
}

func (c *Catalog) AggregateStats(ctx context.Context) (*toolcatalog.Stats, error) {
	var row struct {
		TotalTools     int64
		TotalDownloads int64
	}
	err := c.db.WithContext(ctx).Model(&toolRecord{}).
		Select("COUNT(*) AS total_tools, COALESCE(SUM(download_count), 0) AS total_downloads").
		Scan(&row).Error
	if err != nil {
		return nil, translate("aggregate stats", err)
	}
	return &toolcatalog.Stats{TotalTools: row.TotalTools, TotalDownloads: row.TotalDownloads}, nil
}

func (c *Catalog) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func checkRequired(r *toolRecord) error {
	// gorm writes empty strings, so NOT NULL alone would accept them
	for column, value := range map[string]string{
		"name":          r.Name,
		"author":        r.Author,
		"category":      r.Category,
		"blob_key":      r.BlobKey,
		"original_name": r.OriginalName,
	} {
		if value == "" {
			return fmt.Errorf("%w: %s is required", toolcatalog.ErrConstraintViolation, column)
		}
	}
	return nil
}

func translate(operation string, err error) error {
	switch {
	case errors.Is(err, toolcatalog.ErrToolNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return toolcatalog.ErrToolNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrCheckConstraintViolated):
		return fmt.Errorf("%w: %s: %w", toolcatalog.ErrConstraintViolation, operation, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %s: %w", toolcatalog.ErrStorageFailure, operation, err)
}

var _ toolcatalog.Catalog = (*Catalog)(nil)

package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tendant/tool-catalog/pkg/toolcatalog"
)

var errInvalidKey = errors.New("invalid blob key")

// Backend is a filesystem implementation of the toolcatalog.BlobStore
// interface. Each blob is one file under BaseDir named by its key.
type Backend struct {
	baseDir string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir string // Base directory for storing files
}

// New creates a new filesystem storage backend
func New(config Config) (*Backend, error) {
	// Validate and create base directory if it doesn't exist
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	baseDir, err := filepath.Abs(config.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{baseDir: baseDir}, nil
}

// BaseDir returns the absolute directory blobs are stored under
func (b *Backend) BaseDir() string {
	return b.baseDir
}

// path maps a key to a file path, refusing keys that would escape baseDir
func (b *Backend) path(key string) (string, error) {
	if key == "" || filepath.IsAbs(key) || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%w: %q", errInvalidKey, key)
	}
	filePath := filepath.Join(b.baseDir, filepath.FromSlash(key))
	rel, err := filepath.Rel(b.baseDir, filePath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %q", errInvalidKey, key)
	}
	return filePath, nil
}

// Put writes the stream to a new file. The file is created exclusively, so
// an existing key is reported as ErrBlobExists, and it is removed again if
// the stream fails for any reason.
func (b *Backend) Put(ctx context.Context, key string, reader io.Reader, limit int64) (int64, error) {
	filePath, err := b.path(key)
	if err != nil {
		return 0, err
	}

	// Create directory structure if it doesn't exist
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, iofs.ErrExist) {
		return 0, toolcatalog.ErrBlobExists
	} else if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(file, toolcatalog.NewLimitedReader(ctx, reader, limit))
	if err == nil {
		err = file.Sync()
	}
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		b.removePartial(filePath)
		if errors.Is(err, toolcatalog.ErrSizeExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to write file: %w", err)
	}

	return written, nil
}

func (b *Backend) removePartial(filePath string) {
	if err := os.Remove(filePath); err == nil || errors.Is(err, iofs.ErrNotExist) {
		b.cleanupEmptyDirectories(filepath.Dir(filePath))
	}
}

// Exists checks for the file without opening it
func (b *Backend) Exists(ctx context.Context, key string) (bool, error) {
	filePath, err := b.path(key)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(filePath)
	if errors.Is(err, iofs.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("failed to get file info: %w", err)
	}
	return info.Mode().IsRegular(), nil
}

// Open opens the file for reading
func (b *Backend) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	filePath, err := b.path(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, toolcatalog.ErrBlobNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete deletes content from the filesystem
func (b *Backend) Delete(ctx context.Context, key string) error {
	filePath, err := b.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); errors.Is(err, iofs.ErrNotExist) {
		return toolcatalog.ErrBlobNotFound
	} else if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	// Clean up empty directories
	b.cleanupEmptyDirectories(filepath.Dir(filePath))

	return nil
}

// Stat retrieves metadata for an object in the filesystem
func (b *Backend) Stat(ctx context.Context, key string) (*toolcatalog.BlobMeta, error) {
	filePath, err := b.path(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(filePath)
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, toolcatalog.ErrBlobNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	return &toolcatalog.BlobMeta{
		Key:       key,
		Size:      info.Size(),
		UpdatedAt: info.ModTime().UTC(),
	}, nil
}

// cleanupEmptyDirectories recursively removes empty directories up to baseDir
func (b *Backend) cleanupEmptyDirectories(dir string) {
	// Don't remove the base directory
	if dir == b.baseDir || !strings.HasPrefix(dir, b.baseDir) {
		return
	}

	// Check if directory is empty
	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		// Remove empty directory
		if os.Remove(dir) == nil {
			// Recursively clean parent directory
			b.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}

var _ toolcatalog.BlobStore = (*Backend)(nil)

package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tendant/tool-catalog/pkg/toolcatalog"
)

type object struct {
	data      []byte
	updatedAt time.Time
}

// Backend is an in-memory implementation of the toolcatalog.BlobStore interface
type Backend struct {
	mu      sync.RWMutex
	objects map[string]object
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects: make(map[string]object),
	}
}

// Put buffers the whole stream and stores it only once it is complete
func (b *Backend) Put(ctx context.Context, key string, reader io.Reader, limit int64) (int64, error) {
	b.mu.RLock()
	_, exists := b.objects[key]
	b.mu.RUnlock()
	if exists {
		return 0, toolcatalog.ErrBlobExists
	}

	data, err := io.ReadAll(toolcatalog.NewLimitedReader(ctx, reader, limit))
	if err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// The stream is spent by now, so this collision is not retryable.
	if _, exists := b.objects[key]; exists {
		return 0, fmt.Errorf("key %s was stored concurrently", key)
	}
	b.objects[key] = object{data: data, updatedAt: time.Now().UTC()}
	return int64(len(data)), nil
}

// Exists reports whether key is stored
func (b *Backend) Exists(ctx context.Context, key string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, exists := b.objects[key]
	return exists, nil
}

// Open returns a reader over a snapshot of the object
func (b *Backend) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[key]
	if !exists {
		return nil, toolcatalog.ErrBlobNotFound
	}

	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Delete deletes content
func (b *Backend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[key]; !exists {
		return toolcatalog.ErrBlobNotFound
	}

	delete(b.objects, key)
	return nil
}

// Stat retrieves metadata for an object in memory
func (b *Backend) Stat(ctx context.Context, key string) (*toolcatalog.BlobMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[key]
	if !exists {
		return nil, toolcatalog.ErrBlobNotFound
	}

	return &toolcatalog.BlobMeta{
		Key:       key,
		Size:      int64(len(obj.data)),
		UpdatedAt: obj.updatedAt,
	}, nil
}

// Len returns the number of stored objects
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}

var _ toolcatalog.BlobStore = (*Backend)(nil)

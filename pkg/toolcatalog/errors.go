package toolcatalog

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrBadRequest indicates a missing file payload or required field
	ErrBadRequest = errors.New("bad request")

	// ErrPayloadTooLarge indicates the upload exceeded the configured size ceiling
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrUploadFailed indicates the catalog insert failed after the blob was written
	ErrUploadFailed = errors.New("upload failed")

	// ErrToolNotFound indicates no catalog record exists for the id
	ErrToolNotFound = errors.New("tool not found")

	// ErrBlobMissing indicates a catalog record exists but its blob is gone
	ErrBlobMissing = errors.New("blob missing for catalog entry")

	// ErrBlobNotFound is returned by blob stores for an absent key
	ErrBlobNotFound = errors.New("blob not found")

	// ErrBlobExists is returned by blob stores that detect a key collision
	ErrBlobExists = errors.New("blob already exists")

	// ErrSizeExceeded is returned by blob stores when a stream passes its limit
	ErrSizeExceeded = errors.New("size limit exceeded")

	// ErrConstraintViolation indicates a catalog schema constraint was violated
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrStorageFailure indicates an underlying store failed
	ErrStorageFailure = errors.New("storage failure")
)

// ToolError represents an error related to a catalog entry
type ToolError struct {
	ID  int64
	Op  string
	Err error
}

func (e *ToolError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("tool operation %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("tool operation %s failed for tool %d: %v", e.Op, e.ID, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to blob storage operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ValidationError lists the fields that failed upload validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing or invalid fields: %v", e.Fields)
}

// Is reports ValidationError as ErrBadRequest so callers only need the sentinel.
func (e *ValidationError) Is(target error) bool {
	return target == ErrBadRequest
}

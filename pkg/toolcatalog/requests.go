package toolcatalog

import "io"

// Request DTOs

// UploadToolRequest contains the file stream and descriptive metadata for an upload.
//
// FileName is the caller-supplied name of the file. It is kept for
// presentation on download only and never used to address storage.
type UploadToolRequest struct {
	Name        string    `form:"name" validate:"required"`
	Author      string    `form:"author" validate:"required"`
	Category    string    `form:"category" validate:"required"`
	Description string    `form:"description"`
	FileName    string    `form:"file" validate:"required"`
	Reader      io.Reader `form:"-"`
}

// ListToolsRequest filters a listing. An empty Category lists everything.
type ListToolsRequest struct {
	Category string
}

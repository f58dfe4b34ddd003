package admin

import (
	"context"

	"github.com/tendant/tool-catalog/pkg/toolcatalog"
)

// AdminService defines operator-facing operations over the catalog and the
// blob store. They read catalog rows directly and never touch download
// counters, so they are safe to run against a live deployment.
//
// Endpoints or commands exposing this service should be restricted to
// operators.
type AdminService interface {
	// ListTools returns a page of tools, newest first, optionally by category.
	ListTools(ctx context.Context, req ListToolsRequest) (*ListToolsResponse, error)

	// GetStatistics returns catalog totals with a per-category breakdown.
	GetStatistics(ctx context.Context) (*StatisticsResponse, error)

	// Verify checks that every catalog entry has a blob of the recorded size.
	Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error)
}

// New creates a new AdminService over the given stores.
func New(catalog toolcatalog.Catalog, store toolcatalog.BlobStore) AdminService {
	return &adminService{
		catalog: catalog,
		store:   store,
	}
}

// Package toolcatalog provides a catalog of uploaded binary tools backed by
// a pluggable metadata Catalog and a pluggable BlobStore.
//
// It exposes a single Service interface that coordinates uploads (blob write,
// then catalog insert, with a compensating blob delete when the insert
// fails), downloads (catalog lookup, blob presence check, atomic download
// counter increment, then streaming), listing and aggregate statistics.
// Catalog implementations (memory, SQLite, Postgres) and blob stores
// (memory, filesystem, S3) are provided under subpackages.
//
// # Consistency Model
//
// The catalog and the blob store do not share a transaction. A blob is always
// fully written before the catalog row that references it is created, so a
// catalog row is the single source of truth for whether a tool exists. An
// orphaned blob is tolerated; a catalog row without its blob is reported as
// ErrBlobMissing at download time.
package toolcatalog

// Package store provides chunk storage backends: a persisted contract
// with per-file atomic upsert, service filtering, and enumeration with
// vectors.
package store

import (
	"context"
	"errors"

	"github.com/randalmurphy/rca-code-index/internal/chunk"
)

// ErrUnavailable indicates the persistence layer is down. Fatal for the
// current operation, surfaced to the caller, never silently dropped.
var ErrUnavailable = errors.New("chunk store unavailable")

// Store is the chunk store contract. ReplaceFile is the only mutation
// primitive: a file's previous chunks are removed and replaced so that
// readers never observe a half-updated file.
type Store interface {
	// ReplaceFile atomically swaps all chunks of a file for the given
	// set, maintaining the term index incrementally.
	ReplaceFile(ctx context.Context, filePath string, chunks []chunk.CodeChunk) error

	// DeleteFile tombstones every chunk whose id carries the file's
	// prefix.
	DeleteFile(ctx context.Context, filePath string) error

	// Get fetches one chunk by id.
	Get(ctx context.Context, id string) (chunk.CodeChunk, bool, error)

	// All returns every stored chunk, embeddings included, ordered by id.
	All(ctx context.Context) ([]chunk.CodeChunk, error)

	// ByService returns chunks whose owning service matches, ordered by id.
	ByService(ctx context.Context, service string) ([]chunk.CodeChunk, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)
}

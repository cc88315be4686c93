// Package embedding provides the external embedding provider contract
// and a Voyage AI backed client.
package embedding

import (
	"context"
	"errors"
)

// Embedder is the external provider contract: fixed-dimension vectors
// for texts. Calls may fail or time out; callers degrade rather than
// treat that as fatal.
type Embedder interface {
	// EmbedDocuments embeds chunk texts for indexing.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single retrieval query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimension is the provider's fixed vector dimension.
	Dimension() int
}

// Unavailable is an Embedder whose calls always fail, for running with
// no provider configured. Retrieval degrades to keyword-only scoring
// and indexing stores chunks without vectors.
type Unavailable struct{}

func (Unavailable) EmbedDocuments(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("no embedding provider configured")
}

func (Unavailable) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, errors.New("no embedding provider configured")
}

func (Unavailable) Dimension() int { return 1024 }

package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/randalmurphy/rca-code-index/internal/chunk"
	"github.com/randalmurphy/rca-code-index/internal/embedding"
	"github.com/randalmurphy/rca-code-index/internal/parser"
	"github.com/randalmurphy/rca-code-index/internal/store"
)

// DefaultWorkers bounds the indexing worker pool when unconfigured.
const DefaultWorkers = 4

// Indexer coordinates the indexing pipeline: file discovery, parsing,
// chunk extraction, embedding generation, and storage. Files are
// independent and fan out across a bounded worker pool; the store
// serializes per-file upserts.
type Indexer struct {
	extractor *chunk.Extractor
	embedder  embedding.Embedder
	store     store.Store
	walker    *Walker
	workers   int
	logger    *slog.Logger
}

// New creates an indexer. A nil logger falls back to slog.Default.
func New(extractor *chunk.Extractor, embedder embedding.Embedder, st store.Store, walker *Walker, workers int, logger *slog.Logger) *Indexer {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		extractor: extractor,
		embedder:  embedder,
		store:     st,
		walker:    walker,
		workers:   workers,
		logger:    logger,
	}
}

// Result aggregates an indexing run. Warnings carry every per-file and
// per-unit problem that was skipped; they never abort the corpus.
type Result struct {
	FilesProcessed int
	ChunksCreated  int
	Warnings       []string
	Stats          Stats
}

// IndexDir indexes every matching file under root. Each file's
// parse-extract-embed-upsert runs on its own worker; an in-flight file
// upsert completes or fails whole, it is not cancelled mid-file.
func (ix *Indexer) IndexDir(ctx context.Context, root string) (*Result, error) {
	var paths []string
	err := ix.walker.Walk(root, func(path string) error {
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	result := &Result{Stats: NewStats()}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)

	for _, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			chunks, warnings, err := ix.indexFile(gctx, root, path)

			mu.Lock()
			defer mu.Unlock()
			result.Warnings = append(result.Warnings, warnings...)
			if err != nil {
				// Store failures are fatal for the run; anything else is
				// isolated to this file.
				if errors.Is(err, store.ErrUnavailable) {
					return err
				}
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", path, err))
				return nil
			}
			result.FilesProcessed++
			result.ChunksCreated += len(chunks)
			for _, c := range chunks {
				result.Stats.Add(c)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}

	ix.logger.Info("indexing complete",
		"files", result.FilesProcessed,
		"chunks", result.ChunksCreated,
		"warnings", len(result.Warnings),
	)
	return result, nil
}

// indexFile runs one file through the pipeline. The upsert is atomic
// from the store's point of view: complete or fail, never partial.
func (ix *Indexer) indexFile(ctx context.Context, root, path string) ([]chunk.CodeChunk, []string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read: %w", err)
	}

	relPath, err := filepath.Rel(root, path)
	if err != nil {
		relPath = path
	}
	relPath = filepath.ToSlash(relPath)

	lang, ok := parser.DetectLanguage(relPath)
	if !ok {
		return nil, nil, fmt.Errorf("unsupported file type")
	}

	// Tree-sitter parsers are not safe for concurrent use; each file
	// gets its own.
	p, err := parser.New(lang)
	if err != nil {
		return nil, nil, err
	}

	parsed, err := p.ParseFile(relPath, source)
	if err != nil {
		return nil, nil, err
	}

	chunks, warnings := ix.extractor.Extract(parsed)
	if len(chunks) == 0 {
		return nil, warnings, ix.store.ReplaceFile(ctx, relPath, nil)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = embedText(c)
	}

	vectors, err := ix.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		// Chunks without embeddings still serve keyword retrieval; record
		// the degradation instead of dropping the file. Fixed-dimension
		// backends reject empty vectors, so store zero vectors, which
		// score zero cosine similarity against any query.
		warnings = append(warnings, fmt.Sprintf("%s: embedding unavailable: %v", relPath, err))
		ix.logger.Warn("indexing without embeddings", "path", relPath, "error", err)
		dim := ix.embedder.Dimension()
		for i := range chunks {
			chunks[i].Embedding = make([]float32, dim)
		}
	} else {
		for i := range chunks {
			chunks[i].Embedding = vectors[i]
		}
	}

	if err := ix.store.ReplaceFile(ctx, relPath, chunks); err != nil {
		return nil, warnings, err
	}
	return chunks, warnings, nil
}

// embedText pairs the signature with the chunk body for embedding, the
// signature carrying the names a query is most likely to mention.
func embedText(c chunk.CodeChunk) string {
	return c.Signature + "\n\n" + c.Text
}

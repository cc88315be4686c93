// cmd/rca-index/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphy/rca-code-index/internal/chunk"
	"github.com/randalmurphy/rca-code-index/internal/config"
	"github.com/randalmurphy/rca-code-index/internal/embedding"
	"github.com/randalmurphy/rca-code-index/internal/index"
	"github.com/randalmurphy/rca-code-index/internal/retriever"
	"github.com/randalmurphy/rca-code-index/internal/store"
	"github.com/randalmurphy/rca-code-index/internal/topology"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "rca-index",
	Short: "Code indexing and hybrid retrieval for error root-cause context",
	Long:  `Index source code into addressable chunks and retrieve the ones relevant to a production error message.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("rca-index v0.1.0")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "rca-index.yaml", "Path to config file")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newEmbedder builds the configured embedding provider. A missing API
// key yields the unavailable embedder: commands still run, degraded to
// keyword-only scoring.
func newEmbedder(cfg *config.Config, logger *slog.Logger) embedding.Embedder {
	key := os.Getenv("VOYAGE_API_KEY")
	if key == "" {
		logger.Warn("VOYAGE_API_KEY not set, running without embeddings")
		return embedding.Unavailable{}
	}
	timeout := time.Duration(cfg.Retrieval.EmbedTimeoutSecs) * time.Second
	return embedding.NewVoyageClient(key, cfg.Embedding.Model, timeout)
}

func newStore(cfg *config.Config, terms *index.TermIndex) (store.Store, func(), error) {
	if cfg.Storage.Backend == "memory" {
		return store.NewMemoryStore(terms), func() {}, nil
	}
	qs, err := store.NewQdrantStore(cfg.Storage.QdrantURL, terms)
	if err != nil {
		return nil, nil, err
	}
	return qs, func() { qs.Close() }, nil
}

// ensureCollection creates the vector collection for backends that need
// one; the in-memory store has nothing to prepare.
func ensureCollection(ctx context.Context, st store.Store, dim int) error {
	if qs, ok := st.(*store.QdrantStore); ok {
		return qs.EnsureCollection(ctx, dim)
	}
	return nil
}

// hydrateTerms rebuilds the in-process keyword index from the persistent
// backend before serving queries.
func hydrateTerms(ctx context.Context, st store.Store) error {
	if qs, ok := st.(*store.QdrantStore); ok {
		return qs.HydrateTerms(ctx)
	}
	return nil
}

func newResolver(cfg *config.Config) *topology.Resolver {
	return topology.NewResolver(cfg.Topology)
}

func newExtractor(cfg *config.Config) *chunk.Extractor {
	return chunk.NewExtractor(cfg.Extraction.MaxUnitLines, cfg.Extraction.MinBlockLines, newResolver(cfg))
}

func retrieverConfig(cfg *config.Config) retriever.Config {
	rc := retriever.DefaultConfig()
	rc.Weight = cfg.Retrieval.Weight
	rc.MetadataBoost = cfg.Retrieval.MetadataBoost
	rc.ComplexityThreshold = cfg.Retrieval.ComplexityThreshold
	rc.ComplexityPenalty = cfg.Retrieval.ComplexityPenalty
	rc.SizeThreshold = cfg.Retrieval.SizeThreshold
	rc.SizePenalty = cfg.Retrieval.SizePenalty
	rc.DefaultTopK = cfg.Retrieval.TopK
	rc.EmbedTimeout = time.Duration(cfg.Retrieval.EmbedTimeoutSecs) * time.Second
	if cfg.Retrieval.Variant == string(retriever.VariantBasic) {
		rc.Variant = retriever.VariantBasic
	}
	return rc
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphy/rca-code-index/internal/cache"
	"github.com/randalmurphy/rca-code-index/internal/index"
	"github.com/randalmurphy/rca-code-index/internal/indexer"
	"github.com/randalmurphy/rca-code-index/internal/metrics"
)

var indexCmd = &cobra.Command{
	Use:   "index <directory>",
	Short: "Index a source tree into code chunks",
	Long: `Walk a source tree, parse every supported file, extract code chunks
with structural metrics, embed them, and upsert them into the store.
Re-running over the same tree is idempotent.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().Int("workers", 0, "Indexing worker count (0 = config default)")
	indexCmd.Flags().String("metrics", "", "Append run metrics to this JSONL file")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	workers, _ := cmd.Flags().GetInt("workers")
	if workers <= 0 {
		workers = cfg.Indexing.Workers
	}

	terms := index.NewTermIndex()
	st, closeStore, err := newStore(cfg, terms)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer closeStore()

	embedder := newEmbedder(cfg, logger)
	if err := ensureCollection(cmd.Context(), st, embedder.Dimension()); err != nil {
		return err
	}

	walker := indexer.NewWalker(cfg.Indexing.Include, cfg.Indexing.Exclude)
	ix := indexer.New(newExtractor(cfg), embedder, st, walker, workers, logger)

	start := time.Now()
	result, err := ix.IndexDir(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	elapsed := time.Since(start)

	for _, w := range result.Warnings {
		logger.Warn("indexing warning", "detail", w)
	}

	// A fresh index invalidates cached query responses.
	if rc, err := cache.NewRedisCache(cfg.Storage.RedisURL); err == nil {
		defer rc.Close()
		if _, err := rc.BumpIndexVersion(cmd.Context()); err != nil {
			logger.Warn("failed to bump index version", "error", err)
		}
	} else {
		logger.Warn("query cache unavailable", "error", err)
	}

	if path, _ := cmd.Flags().GetString("metrics"); path != "" {
		if ml, err := metrics.NewLogger(path); err == nil {
			ml.LogIndex(result.FilesProcessed, result.ChunksCreated, len(result.Warnings), elapsed.Milliseconds())
			ml.Close()
		}
	}

	fmt.Printf("Indexed %d files into %d chunks in %s\n",
		result.FilesProcessed, result.ChunksCreated, elapsed.Round(time.Millisecond))
	fmt.Printf("  unit chunks:  %d\n", result.Stats.UnitChunks)
	fmt.Printf("  split chunks: %d\n", result.Stats.SplitChunks)
	fmt.Printf("  avg complexity: %.1f\n", result.Stats.AvgComplexity())
	if len(result.Warnings) > 0 {
		fmt.Printf("  warnings: %d (see log)\n", len(result.Warnings))
	}
	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphy/rca-code-index/internal/cache"
	"github.com/randalmurphy/rca-code-index/internal/index"
	"github.com/randalmurphy/rca-code-index/internal/metrics"
	"github.com/randalmurphy/rca-code-index/internal/retriever"
)

const cacheTTL = time.Hour

var queryCmd = &cobra.Command{
	Use:   "query <error text>",
	Short: "Retrieve code chunks relevant to an error message",
	Long: `Run hybrid retrieval over the indexed corpus: keywords and a target
service are derived from the error text, semantic and keyword scores are
blended, and the ranked chunks are printed as JSON with the reasons each
one was selected.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().Int("top-k", 0, "Number of results (0 = config default)")
	queryCmd.Flags().String("service", "", "Restrict candidates to this service")
	queryCmd.Flags().Bool("no-cache", false, "Bypass the query cache")
	queryCmd.Flags().String("metrics", "", "Append query metrics to this JSONL file")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	ctx := cmd.Context()

	rawText := strings.Join(args, " ")
	topK, _ := cmd.Flags().GetInt("top-k")
	service, _ := cmd.Flags().GetString("service")
	noCache, _ := cmd.Flags().GetBool("no-cache")

	if topK == 0 {
		topK = cfg.Retrieval.TopK
	}

	// Cached responses are keyed by query and index version, so they
	// expire naturally on reindex. The cache is best-effort; a dead
	// Redis never blocks a query.
	var qc *cache.RedisCache
	var cacheKey string
	if !noCache {
		if rc, err := cache.NewRedisCache(cfg.Storage.RedisURL); err == nil {
			qc = rc
			defer qc.Close()
			version, verr := qc.IndexVersion(ctx)
			if verr == nil {
				cacheKey = cache.QueryKey(rawText, topK, version)
				if cached, gerr := qc.Get(ctx, cacheKey); gerr == nil && cached != "" {
					fmt.Println(cached)
					return nil
				}
			}
		} else {
			logger.Debug("query cache unavailable", "error", err)
		}
	}

	terms := index.NewTermIndex()
	st, closeStore, err := newStore(cfg, terms)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer closeStore()

	if err := hydrateTerms(ctx, st); err != nil {
		return fmt.Errorf("failed to hydrate term index: %w", err)
	}

	embedder := newEmbedder(cfg, logger)
	topo := newResolver(cfg)
	r := retriever.New(st, terms, embedder, topo, retrieverConfig(cfg), logger)

	start := time.Now()
	result, err := r.Retrieve(ctx, retriever.Query{
		RawText:       rawText,
		TopK:          topK,
		TargetService: service,
	})
	if err != nil {
		return err
	}
	latency := time.Since(start)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if qc != nil && cacheKey != "" {
		if err := qc.Set(ctx, cacheKey, string(out), cacheTTL); err != nil {
			logger.Debug("failed to cache query result", "error", err)
		}
	}

	if path, _ := cmd.Flags().GetString("metrics"); path != "" {
		if ml, merr := metrics.NewLogger(path); merr == nil {
			ml.LogRetrieve(result.TargetService, len(result.Entries),
				latency.Milliseconds(), degraded(result), false)
			ml.Close()
		}
	}
	return nil
}

// degraded reports whether the result was scored keyword-only.
func degraded(result *retriever.Result) bool {
	for _, e := range result.Entries {
		for _, reason := range e.Reasons {
			if reason == retriever.ReasonSemanticUnavailable {
				return true
			}
		}
	}
	return false
}

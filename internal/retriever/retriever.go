// Package retriever implements hybrid retrieval: semantic similarity
// blended with BM25 keyword matching, corrected by metadata boosts and
// structural penalties under a deterministic ranking policy.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/randalmurphy/rca-code-index/internal/chunk"
	"github.com/randalmurphy/rca-code-index/internal/embedding"
	"github.com/randalmurphy/rca-code-index/internal/index"
	"github.com/randalmurphy/rca-code-index/internal/store"
	"github.com/randalmurphy/rca-code-index/internal/topology"
)

// ErrInvalidQuery indicates a caller error: empty text or top_k out of
// range. No partial result accompanies it.
var ErrInvalidQuery = errors.New("invalid query")

// MaxTopK bounds the number of requested results.
const MaxTopK = 50

// Variant selects the scoring pipeline explicitly; there is no ambient
// auto-detection of capability.
type Variant string

const (
	// VariantEnhanced applies metadata boosts and structural penalties.
	VariantEnhanced Variant = "enhanced"
	// VariantBasic blends semantic and keyword scores only.
	VariantBasic Variant = "basic"
)

// Reason flags recorded per returned chunk.
const (
	ReasonServiceFiltered     = "service-filtered"
	ReasonSemanticUnavailable = "semantic-unavailable"
	ReasonComplexityPenalty   = "complexity-penalty"
	ReasonSizePenalty         = "size-penalty"
)

// Config tunes the scoring pipeline. It is immutable once passed to New,
// so retrievers with different tuning can coexist.
type Config struct {
	Weight              float64       // semantic share of the blend
	MetadataBoost       float64       // added per exact name match, before penalties
	ComplexityThreshold int           // cyclomatic complexity above which the penalty fires
	ComplexityPenalty   float64       // multiplier for over-complex chunks
	SizeThreshold       int           // lines of code above which the penalty fires
	SizePenalty         float64       // multiplier for oversized chunks
	DefaultTopK         int           // used when the query leaves TopK zero
	EmbedTimeout        time.Duration // bound on the embedding provider call
	Variant             Variant
}

// DefaultConfig returns the tuning used in production.
func DefaultConfig() Config {
	return Config{
		Weight:              0.7,
		MetadataBoost:       2.0,
		ComplexityThreshold: 10,
		ComplexityPenalty:   0.8,
		SizeThreshold:       100,
		SizePenalty:         0.7,
		DefaultTopK:         5,
		EmbedTimeout:        10 * time.Second,
		Variant:             VariantEnhanced,
	}
}

// Entry is one ranked chunk with its component scores and the reasons
// each boost or penalty fired, so the ranking is auditable.
type Entry struct {
	Chunk         chunk.CodeChunk `json:"chunk"`
	FinalScore    float64         `json:"final_score"`
	SemanticScore float64         `json:"semantic_score"` // raw cosine similarity
	KeywordScore  float64         `json:"keyword_score"`  // raw BM25
	Reasons       []string        `json:"reasons"`
}

// Result is the ordered outcome of one retrieval.
type Result struct {
	Keywords      []string `json:"keywords"`
	TargetService string   `json:"target_service"`
	Entries       []Entry  `json:"entries"`
}

// Retriever answers retrieval queries against the chunk store and term
// index.
type Retriever struct {
	store    store.Store
	terms    *index.TermIndex
	embedder embedding.Embedder
	topo     *topology.Resolver
	cfg      Config
	logger   *slog.Logger
}

// New creates a retriever. A nil logger falls back to slog.Default.
func New(st store.Store, terms *index.TermIndex, embedder embedding.Embedder, topo *topology.Resolver, cfg Config, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		store:    st,
		terms:    terms,
		embedder: embedder,
		topo:     topo,
		cfg:      cfg,
		logger:   logger,
	}
}

// Retrieve runs the scoring pipeline for one query. An empty store
// yields an empty result, not an error. A failing embedding provider
// degrades to keyword-only scoring with a semantic-unavailable reason.
func (r *Retriever) Retrieve(ctx context.Context, q Query) (*Result, error) {
	if strings.TrimSpace(q.RawText) == "" {
		return nil, fmt.Errorf("%w: empty query text", ErrInvalidQuery)
	}
	topK := q.TopK
	if topK == 0 {
		topK = r.cfg.DefaultTopK
	}
	if topK < 1 || topK > MaxTopK {
		return nil, fmt.Errorf("%w: top_k %d outside [1, %d]", ErrInvalidQuery, topK, MaxTopK)
	}

	keywords := ExtractKeywords(q.RawText)
	target := q.TargetService
	if target == "" {
		target = resolveService(r.topo, keywords)
	}

	candidates, serviceFiltered, err := r.candidates(ctx, target)
	if err != nil {
		return nil, err
	}

	result := &Result{Keywords: keywords, TargetService: target}
	if len(candidates) == 0 {
		return result, nil
	}

	semantic, semanticOK := r.semanticScores(ctx, q.RawText, candidates)
	keyword := r.keywordScores(q.RawText, candidates)

	semNorm := normalize(semantic)
	kwNorm := normalize(keyword)

	w := r.cfg.Weight
	if !semanticOK {
		w = 0
	}

	entries := make([]Entry, len(candidates))
	for i, c := range candidates {
		score := w*semNorm[i] + (1-w)*kwNorm[i]

		var reasons []string
		if serviceFiltered {
			reasons = append(reasons, ReasonServiceFiltered)
		}
		if !semanticOK {
			reasons = append(reasons, ReasonSemanticUnavailable)
		}

		if r.cfg.Variant == VariantEnhanced {
			score, reasons = r.adjust(c, keywords, score, reasons)
		}

		entries[i] = Entry{
			Chunk:         c,
			FinalScore:    score,
			SemanticScore: semantic[i],
			KeywordScore:  keyword[i],
			Reasons:       reasons,
		}
	}

	// Deterministic ranking: score descending, ties by ascending id.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].FinalScore != entries[j].FinalScore {
			return entries[i].FinalScore > entries[j].FinalScore
		}
		return entries[i].Chunk.ID < entries[j].Chunk.ID
	})
	if len(entries) > topK {
		entries = entries[:topK]
	}
	result.Entries = entries

	r.logger.Debug("retrieval complete",
		"keywords", len(keywords),
		"target_service", target,
		"candidates", len(candidates),
		"results", len(entries),
		"semantic", semanticOK,
	)
	return result, nil
}

// candidates returns the scoring population: service-restricted when a
// target resolved, falling back to the full corpus when the restriction
// matches nothing.
func (r *Retriever) candidates(ctx context.Context, target string) ([]chunk.CodeChunk, bool, error) {
	if target != "" && target != topology.ServiceUnknown {
		chunks, err := r.store.ByService(ctx, target)
		if err != nil {
			return nil, false, fmt.Errorf("candidate lookup: %w", err)
		}
		if len(chunks) > 0 {
			return chunks, true, nil
		}
		r.logger.Debug("service filter matched nothing, falling back", "service", target)
	}

	chunks, err := r.store.All(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("candidate lookup: %w", err)
	}
	return chunks, false, nil
}

// semanticScores embeds the query and computes cosine similarity per
// candidate. Provider failure or timeout reports ok=false; the caller
// degrades to keyword-only scoring.
func (r *Retriever) semanticScores(ctx context.Context, raw string, candidates []chunk.CodeChunk) ([]float64, bool) {
	scores := make([]float64, len(candidates))

	embedCtx, cancel := context.WithTimeout(ctx, r.cfg.EmbedTimeout)
	defer cancel()

	vec, err := r.embedder.EmbedQuery(embedCtx, raw)
	if err != nil {
		r.logger.Warn("query embedding unavailable, degrading to keyword-only", "error", err)
		return scores, false
	}

	for i, c := range candidates {
		scores[i] = cosine(vec, c.Embedding)
	}
	return scores, true
}

func (r *Retriever) keywordScores(raw string, candidates []chunk.CodeChunk) []float64 {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	byID := r.terms.Score(index.Tokenize(raw), ids)

	scores := make([]float64, len(candidates))
	for i, id := range ids {
		scores[i] = byID[id]
	}
	return scores
}

// adjust applies metadata boosts then structural penalties. Boosts land
// before penalties so an exact name match dominates a complexity or
// size discount.
func (r *Retriever) adjust(c chunk.CodeChunk, keywords []string, score float64, reasons []string) (float64, []string) {
	nameBoosted, ownerBoosted := false, false
	for _, kw := range keywords {
		if !nameBoosted && strings.EqualFold(kw, c.UnitName) {
			score += r.cfg.MetadataBoost
			reasons = append(reasons, "metadata-boost:unit_name")
			nameBoosted = true
		}
		if !ownerBoosted && c.OwnerType != "" && strings.EqualFold(kw, c.OwnerType) {
			score += r.cfg.MetadataBoost
			reasons = append(reasons, "metadata-boost:owner_type")
			ownerBoosted = true
		}
	}

	if c.CyclomaticComplexity > r.cfg.ComplexityThreshold {
		score *= r.cfg.ComplexityPenalty
		reasons = append(reasons, ReasonComplexityPenalty)
	}
	if c.LinesOfCode > r.cfg.SizeThreshold {
		score *= r.cfg.SizePenalty
		reasons = append(reasons, ReasonSizePenalty)
	}
	return score, reasons
}

// normalize rescales scores to [0,1] via min-max over the candidate
// set. A flat distribution maps to zero so the other signal decides.
func normalize(scores []float64) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}
	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
	}
	if hi == lo {
		return out
	}
	for i, s := range scores {
		out[i] = (s - lo) / (hi - lo)
	}
	return out
}

func cosine(a []float32, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

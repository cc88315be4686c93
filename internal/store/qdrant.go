package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/randalmurphy/rca-code-index/internal/chunk"
	"github.com/randalmurphy/rca-code-index/internal/index"
)

// Collection is the qdrant collection holding code chunks.
const Collection = "code_chunks"

// maxScroll bounds unfiltered enumeration of the collection.
const maxScroll = 100000

// QdrantStore persists chunks in qdrant, using the chunk id to derive a
// stable point id and keeping the full chunk in the payload. The term
// index stays in-process and is rebuilt from the payloads on startup.
type QdrantStore struct {
	client *qdrant.Client
	terms  *index.TermIndex
}

// NewQdrantStore connects to qdrant at host and syncs the given term
// index with stored chunks.
func NewQdrantStore(host string, terms *index.TermIndex) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{Host: host})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &QdrantStore{client: client, terms: terms}, nil
}

// Close closes the qdrant connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// EnsureCollection creates the chunk collection if missing.
func (s *QdrantStore) EnsureCollection(ctx context.Context, vectorSize int) error {
	exists, err := s.client.CollectionExists(ctx, Collection)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if exists {
		return nil
	}
	return s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(vectorSize),
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

// HydrateTerms rebuilds the in-process term index from stored chunks.
func (s *QdrantStore) HydrateTerms(ctx context.Context) error {
	chunks, err := s.All(ctx)
	if err != nil {
		return err
	}
	for _, c := range chunks {
		s.terms.Add(c.ID, c.Text)
	}
	return nil
}

// ReplaceFile upserts the fresh chunk set first and deletes stale
// points after, so a concurrent query never observes the file absent;
// unchanged ids are overwritten in place.
func (s *QdrantStore) ReplaceFile(ctx context.Context, filePath string, chunks []chunk.CodeChunk) error {
	old, err := s.byFilter(ctx, fileFilter(filePath))
	if err != nil {
		return err
	}

	if len(chunks) > 0 {
		points := make([]*qdrant.PointStruct, len(chunks))
		for i, c := range chunks {
			points[i] = &qdrant.PointStruct{
				Id:      qdrant.NewID(pointID(c.ID)),
				Vectors: qdrant.NewVectors(c.Embedding...),
				Payload: qdrant.NewValueMap(chunkPayload(c)),
			}
		}
		if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: Collection,
			Points:         points,
		}); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	stale := staleIDs(old, chunks)
	if len(stale) > 0 {
		ids := make([]*qdrant.PointId, len(stale))
		for i, id := range stale {
			ids[i] = qdrant.NewID(pointID(id))
		}
		if _, err := s.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: Collection,
			Points:         qdrant.NewPointsSelector(ids...),
		}); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	for _, id := range stale {
		s.terms.Remove(id)
	}
	for _, c := range chunks {
		s.terms.Add(c.ID, c.Text)
	}
	return nil
}

// staleIDs returns the ids of old chunks not present in the fresh set.
func staleIDs(old, fresh []chunk.CodeChunk) []string {
	keep := make(map[string]bool, len(fresh))
	for _, c := range fresh {
		keep[c.ID] = true
	}
	var stale []string
	for _, c := range old {
		if !keep[c.ID] {
			stale = append(stale, c.ID)
		}
	}
	return stale
}

// DeleteFile tombstones every chunk of a file.
func (s *QdrantStore) DeleteFile(ctx context.Context, filePath string) error {
	return s.ReplaceFile(ctx, filePath, nil)
}

// Get fetches one chunk by id.
func (s *QdrantStore) Get(ctx context.Context, id string) (chunk.CodeChunk, bool, error) {
	chunks, err := s.byFilter(ctx, matchFilter("id", id))
	if err != nil || len(chunks) == 0 {
		return chunk.CodeChunk{}, false, err
	}
	return chunks[0], true, nil
}

// All returns every stored chunk, embeddings included.
func (s *QdrantStore) All(ctx context.Context) ([]chunk.CodeChunk, error) {
	return s.byFilter(ctx, nil)
}

// ByService returns chunks owned by the given service.
func (s *QdrantStore) ByService(ctx context.Context, service string) ([]chunk.CodeChunk, error) {
	return s.byFilter(ctx, matchFilter("owning_service", service))
}

// Count returns the number of stored chunks.
func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	info, err := s.client.GetCollectionInfo(ctx, Collection)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if info.PointsCount == nil {
		return 0, nil
	}
	return int(*info.PointsCount), nil
}

func (s *QdrantStore) byFilter(ctx context.Context, filter *qdrant.Filter) ([]chunk.CodeChunk, error) {
	results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: Collection,
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint32(maxScroll)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	chunks := make([]chunk.CodeChunk, 0, len(results))
	for _, r := range results {
		c := payloadToChunk(r.Payload)
		if v := r.Vectors.GetVector(); v != nil {
			c.Embedding = v.GetData()
		}
		chunks = append(chunks, c)
	}
	sortByID(chunks)
	return chunks, nil
}

// pointID derives a stable qdrant point UUID from the chunk id.
func pointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(chunkID)).String()
}

func fileFilter(filePath string) *qdrant.Filter {
	return matchFilter("file_path", filePath)
}

func matchFilter(field, value string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch(field, value)},
	}
}

func chunkPayload(c chunk.CodeChunk) map[string]any {
	return map[string]any{
		"id":                    c.ID,
		"file_path":             c.FilePath,
		"namespace":             c.Namespace,
		"owner_type":            c.OwnerType,
		"unit_name":             c.UnitName,
		"signature":             c.Signature,
		"start_line":            c.StartLine,
		"end_line":              c.EndLine,
		"lines_of_code":         c.LinesOfCode,
		"cyclomatic_complexity": c.CyclomaticComplexity,
		"has_error_handling":    c.HasErrorHandling,
		"has_loop":              c.HasLoop,
		"has_branch":            c.HasBranch,
		"called_units":          strings.Join(c.CalledUnits, ","),
		"owning_service":        c.OwningService,
		"text":                  c.Text,
		"parent_id":             c.ParentID,
	}
}

func payloadToChunk(payload map[string]*qdrant.Value) chunk.CodeChunk {
	getString := func(key string) string {
		if v, ok := payload[key]; ok {
			return v.GetStringValue()
		}
		return ""
	}
	getInt := func(key string) int {
		if v, ok := payload[key]; ok {
			return int(v.GetIntegerValue())
		}
		return 0
	}
	getBool := func(key string) bool {
		if v, ok := payload[key]; ok {
			return v.GetBoolValue()
		}
		return false
	}

	var called []string
	if joined := getString("called_units"); joined != "" {
		called = strings.Split(joined, ",")
	}

	return chunk.CodeChunk{
		ID:                   getString("id"),
		FilePath:             getString("file_path"),
		Namespace:            getString("namespace"),
		OwnerType:            getString("owner_type"),
		UnitName:             getString("unit_name"),
		Signature:            getString("signature"),
		StartLine:            getInt("start_line"),
		EndLine:              getInt("end_line"),
		LinesOfCode:          getInt("lines_of_code"),
		CyclomaticComplexity: getInt("cyclomatic_complexity"),
		HasErrorHandling:     getBool("has_error_handling"),
		HasLoop:              getBool("has_loop"),
		HasBranch:            getBool("has_branch"),
		CalledUnits:          called,
		OwningService:        getString("owning_service"),
		Text:                 getString("text"),
		ParentID:             getString("parent_id"),
	}
}

func sortByID(chunks []chunk.CodeChunk) {
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].ID < chunks[j].ID })
}

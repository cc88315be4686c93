package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/randalmurphy/rca-code-index/internal/chunk"
	"github.com/randalmurphy/rca-code-index/internal/index"
)

// MemoryStore is the in-process Store. A single RWMutex gives per-file
// upserts all-or-nothing visibility; concurrent readers see either the
// old or the new chunk set of a file, never a mix.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks map[string]chunk.CodeChunk
	terms  *index.TermIndex
}

// NewMemoryStore creates an empty in-memory store that keeps the given
// term index in sync with its contents.
func NewMemoryStore(terms *index.TermIndex) *MemoryStore {
	return &MemoryStore{
		chunks: make(map[string]chunk.CodeChunk),
		terms:  terms,
	}
}

// ReplaceFile swaps all chunks of a file under one lock acquisition.
func (s *MemoryStore) ReplaceFile(_ context.Context, filePath string, chunks []chunk.CodeChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteFileLocked(filePath)
	for _, c := range chunks {
		s.chunks[c.ID] = c
		s.terms.Add(c.ID, c.Text)
	}
	return nil
}

// DeleteFile removes every chunk with the file's id prefix.
func (s *MemoryStore) DeleteFile(_ context.Context, filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteFileLocked(filePath)
	return nil
}

func (s *MemoryStore) deleteFileLocked(filePath string) {
	prefix := chunk.FilePrefix(filePath)
	for id := range s.chunks {
		if strings.HasPrefix(id, prefix) {
			delete(s.chunks, id)
			s.terms.Remove(id)
		}
	}
}

// Get fetches one chunk by id.
func (s *MemoryStore) Get(_ context.Context, id string) (chunk.CodeChunk, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[id]
	return c, ok, nil
}

// All returns every chunk ordered by id.
func (s *MemoryStore) All(_ context.Context) ([]chunk.CodeChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(chunk.CodeChunk) bool { return true }), nil
}

// ByService returns chunks owned by the given service, ordered by id.
func (s *MemoryStore) ByService(_ context.Context, service string) ([]chunk.CodeChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(c chunk.CodeChunk) bool { return c.OwningService == service }), nil
}

// Count returns the number of stored chunks.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

func (s *MemoryStore) collect(keep func(chunk.CodeChunk) bool) []chunk.CodeChunk {
	out := make([]chunk.CodeChunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

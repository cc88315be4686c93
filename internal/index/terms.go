// Package index maintains an inverted term index over chunk text and
// scores candidates with BM25.
package index

import (
	"math"
	"strings"
	"sync"
	"unicode"
)

// BM25 parameters, standard Okapi values.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// TermIndex is an incrementally maintained inverted index. Document
// frequency and average document length are derived at query time from
// current state, never cached stale.
type TermIndex struct {
	mu       sync.RWMutex
	postings map[string]map[string]int // term -> doc id -> term frequency
	docLen   map[string]int            // doc id -> token count
	docTerms map[string][]string       // doc id -> distinct terms, for removal
}

// NewTermIndex creates an empty term index.
func NewTermIndex() *TermIndex {
	return &TermIndex{
		postings: make(map[string]map[string]int),
		docLen:   make(map[string]int),
		docTerms: make(map[string][]string),
	}
}

// Tokenize lowercases and splits text on non-word runes. No stemming:
// exact technical terms must match exactly.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

// Add indexes a document's text under id, replacing any previous entry.
func (ix *TermIndex) Add(id, text string) {
	tokens := Tokenize(text)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.removeLocked(id)

	tf := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		tf[tok]++
	}

	terms := make([]string, 0, len(tf))
	for term, n := range tf {
		posting := ix.postings[term]
		if posting == nil {
			posting = make(map[string]int)
			ix.postings[term] = posting
		}
		posting[id] = n
		terms = append(terms, term)
	}

	ix.docLen[id] = len(tokens)
	ix.docTerms[id] = terms
}

// Remove subtracts a document's contributions from the index.
func (ix *TermIndex) Remove(id string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(id)
}

func (ix *TermIndex) removeLocked(id string) {
	terms, ok := ix.docTerms[id]
	if !ok {
		return
	}
	for _, term := range terms {
		posting := ix.postings[term]
		delete(posting, id)
		if len(posting) == 0 {
			delete(ix.postings, term)
		}
	}
	delete(ix.docTerms, id)
	delete(ix.docLen, id)
}

// Len returns the number of indexed documents.
func (ix *TermIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docLen)
}

// Score computes BM25 scores for the query tokens against the index
// restricted to the candidate set. Document frequency and average
// document length are computed over the candidates.
func (ix *TermIndex) Score(queryTokens []string, candidates []string) map[string]float64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	scores := make(map[string]float64, len(candidates))
	if len(candidates) == 0 || len(queryTokens) == 0 {
		return scores
	}

	inSet := make(map[string]bool, len(candidates))
	totalLen := 0
	for _, id := range candidates {
		inSet[id] = true
		totalLen += ix.docLen[id]
	}
	n := float64(len(candidates))
	avgLen := float64(totalLen) / n
	if avgLen == 0 {
		avgLen = 1
	}

	for _, term := range queryTokens {
		posting := ix.postings[term]
		if posting == nil {
			continue
		}

		df := 0
		for id := range posting {
			if inSet[id] {
				df++
			}
		}
		if df == 0 {
			continue
		}
		idf := math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))

		for id, tf := range posting {
			if !inSet[id] {
				continue
			}
			norm := float64(tf) * (bm25K1 + 1) /
				(float64(tf) + bm25K1*(1-bm25B+bm25B*float64(ix.docLen[id])/avgLen))
			scores[id] += idf * norm
		}
	}

	return scores
}

package indexer

import "github.com/randalmurphy/rca-code-index/internal/chunk"

// Stats summarizes an indexed corpus: chunk counts, detected services,
// and complexity aggregates.
type Stats struct {
	TotalChunks   int
	UnitChunks    int
	SplitChunks   int
	Services      map[string]int
	LargeUnits    int
	ComplexUnits  int
	complexitySum int
}

// NewStats returns empty statistics.
func NewStats() Stats {
	return Stats{Services: make(map[string]int)}
}

// Add folds one chunk into the statistics.
func (s *Stats) Add(c chunk.CodeChunk) {
	s.TotalChunks++
	if c.ParentID == "" {
		s.UnitChunks++
	} else {
		s.SplitChunks++
	}
	s.Services[c.OwningService]++
	if c.LinesOfCode > chunk.DefaultMaxUnitLines {
		s.LargeUnits++
	}
	if c.CyclomaticComplexity > 10 {
		s.ComplexUnits++
	}
	s.complexitySum += c.CyclomaticComplexity
}

// AvgComplexity is the mean cyclomatic complexity across all chunks.
func (s *Stats) AvgComplexity() float64 {
	if s.TotalChunks == 0 {
		return 0
	}
	return float64(s.complexitySum) / float64(s.TotalChunks)
}

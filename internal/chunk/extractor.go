package chunk

import (
	"strings"

	"github.com/randalmurphy/rca-code-index/internal/parser"
	"github.com/randalmurphy/rca-code-index/internal/topology"
)

const (
	// DefaultMaxUnitLines is the size above which a unit is split.
	DefaultMaxUnitLines = 100
	// DefaultMinBlockLines is the smallest sub-block worth its own chunk.
	DefaultMinBlockLines = 10

	overviewPreviewLines = 12
)

// Extractor converts parsed files into code chunks.
type Extractor struct {
	maxUnitLines  int
	minBlockLines int
	resolver      *topology.Resolver
}

// NewExtractor creates an extractor. Non-positive limits fall back to
// the defaults.
func NewExtractor(maxUnitLines, minBlockLines int, resolver *topology.Resolver) *Extractor {
	if maxUnitLines <= 0 {
		maxUnitLines = DefaultMaxUnitLines
	}
	if minBlockLines <= 0 {
		minBlockLines = DefaultMinBlockLines
	}
	return &Extractor{
		maxUnitLines:  maxUnitLines,
		minBlockLines: minBlockLines,
		resolver:      resolver,
	}
}

// Extract emits chunks for every unit of a parsed file. Units small
// enough become a single chunk; oversized units become an overview chunk
// plus one chunk per logical sub-block. The owning service is resolved
// fresh on every call. Warnings carry over from parsing and never abort
// extraction.
func (e *Extractor) Extract(f *parser.File) ([]CodeChunk, []string) {
	warnings := append([]string(nil), f.Warnings...)
	service := e.resolver.Resolve(f.Path, f.Namespace)

	var chunks []CodeChunk
	for _, u := range f.Units {
		chunks = append(chunks, e.extractUnit(f, u, service)...)
	}
	return chunks, warnings
}

func (e *Extractor) extractUnit(f *parser.File, u parser.Unit, service string) []CodeChunk {
	m := analyze(u.Body)
	whole := CodeChunk{
		ID:                   ChunkID(f.Path, u.Name, u.StartLine, u.EndLine),
		FilePath:             f.Path,
		Namespace:            f.Namespace,
		OwnerType:            u.OwnerType,
		UnitName:             u.Name,
		Signature:            u.Signature,
		StartLine:            u.StartLine,
		EndLine:              u.EndLine,
		LinesOfCode:          u.EndLine - u.StartLine + 1,
		CyclomaticComplexity: m.complexity,
		HasErrorHandling:     m.hasErrorHandling,
		HasLoop:              m.hasLoop,
		HasBranch:            m.hasBranch,
		CalledUnits:          m.called,
		OwningService:        service,
		Text:                 u.Text,
	}

	if whole.LinesOfCode <= e.maxUnitLines {
		return []CodeChunk{whole}
	}

	// Oversized unit: one overview chunk plus its logical sub-blocks in
	// document order. Sub-blocks are never subdivided further; an
	// oversized sub-block is still emitted whole.
	var children []CodeChunk
	blockNum := 0
	for _, b := range topBlocks(u.Body) {
		lines := b.EndLine - b.StartLine + 1
		if lines < e.minBlockLines {
			continue
		}
		blockNum++
		bm := analyze(b)
		children = append(children, CodeChunk{
			ID:                   BlockID(f.Path, u.Name, blockNum, b.StartLine, b.EndLine),
			FilePath:             f.Path,
			Namespace:            f.Namespace,
			OwnerType:            u.OwnerType,
			UnitName:             u.Name,
			Signature:            u.Signature,
			StartLine:            b.StartLine,
			EndLine:              b.EndLine,
			LinesOfCode:          lines,
			CyclomaticComplexity: bm.complexity,
			HasErrorHandling:     bm.hasErrorHandling,
			HasLoop:              bm.hasLoop,
			HasBranch:            bm.hasBranch,
			CalledUnits:          bm.called,
			OwningService:        service,
			Text:                 b.Text,
			ParentID:             whole.ID,
		})
	}

	// No block cleared the size bar: keep the complete unit instead of
	// an overview pointing at nothing.
	if len(children) == 0 {
		return []CodeChunk{whole}
	}

	overview := whole
	overview.Text = overviewText(u)
	return append([]CodeChunk{overview}, children...)
}

// overviewText is the signature plus a truncated preview of the unit.
func overviewText(u parser.Unit) string {
	lines := strings.Split(u.Text, "\n")
	if len(lines) > overviewPreviewLines {
		lines = lines[:overviewPreviewLines]
	}
	return u.Signature + "\n" + strings.Join(lines, "\n")
}

// topBlocks returns the top-most error-handling, loop, and branch
// regions of a unit body in document order. Collected regions are not
// descended into, giving exactly one level of splitting.
func topBlocks(body *parser.Node) []*parser.Node {
	var blocks []*parser.Node
	var visit func(n *parser.Node)
	visit = func(n *parser.Node) {
		switch n.Kind {
		case parser.KindErrorHandling, parser.KindLoop, parser.KindBranch:
			blocks = append(blocks, n)
			return
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	for _, c := range body.Children {
		visit(c)
	}
	return blocks
}

type unitMetrics struct {
	complexity       int
	hasErrorHandling bool
	hasLoop          bool
	hasBranch        bool
	called           []string
}

// analyze walks a neutral tree computing cyclomatic complexity (decision
// points + 1), structural flags, and the ordered set of called units.
func analyze(body *parser.Node) unitMetrics {
	m := unitMetrics{complexity: 1}
	seen := make(map[string]bool)

	body.Walk(func(n *parser.Node) {
		switch n.Kind {
		case parser.KindBranch:
			m.complexity++
			m.hasBranch = true
		case parser.KindLoop:
			m.complexity++
			m.hasLoop = true
		case parser.KindCatch:
			m.complexity++
			m.hasErrorHandling = true
		case parser.KindLogicalOr:
			m.complexity++
		case parser.KindErrorHandling:
			m.hasErrorHandling = true
		case parser.KindCall:
			if n.Name != "" && !seen[n.Name] {
				seen[n.Name] = true
				m.called = append(m.called, n.Name)
			}
		}
	})

	return m
}

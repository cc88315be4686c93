// Package chunk provides the retrievable code chunk model and the
// extractor that produces chunks from parsed units.
package chunk

import "fmt"

// CodeChunk is the atomic retrievable unit: a syntactically complete
// piece of source plus its structural metadata.
type CodeChunk struct {
	ID        string `json:"id"`
	FilePath  string `json:"file_path"`
	Namespace string `json:"namespace"`
	OwnerType string `json:"owner_type,omitempty"`
	UnitName  string `json:"unit_name"`
	Signature string `json:"signature"`

	StartLine   int `json:"start_line"`
	EndLine     int `json:"end_line"`
	LinesOfCode int `json:"lines_of_code"`

	CyclomaticComplexity int  `json:"cyclomatic_complexity"`
	HasErrorHandling     bool `json:"has_error_handling"`
	HasLoop              bool `json:"has_loop"`
	HasBranch            bool `json:"has_branch"`

	CalledUnits   []string `json:"called_units,omitempty"`
	OwningService string   `json:"owning_service"`

	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding,omitempty"`

	// ParentID links a sub-block chunk to its method-overview chunk.
	// Empty for top-level chunks.
	ParentID string `json:"parent_id,omitempty"`
}

// ChunkID builds the deterministic id of a unit-level chunk.
// Re-extracting an unchanged file reproduces identical ids.
func ChunkID(filePath, unitName string, startLine, endLine int) string {
	return fmt.Sprintf("%s::%s::%d-%d", filePath, unitName, startLine, endLine)
}

// BlockID builds the deterministic id of a sub-block chunk.
func BlockID(filePath, unitName string, blockNum, startLine, endLine int) string {
	return fmt.Sprintf("%s::%s::block_%d::%d-%d", filePath, unitName, blockNum, startLine, endLine)
}

// FilePrefix is the id prefix shared by every chunk of a file; deleting
// by this prefix tombstones the file.
func FilePrefix(filePath string) string {
	return filePath + "::"
}

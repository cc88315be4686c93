// Package indexer provides the file walker and the concurrent
// parse-extract-embed-upsert pipeline.
package indexer

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Walker traverses directories respecting include/exclude glob patterns.
type Walker struct {
	includes []string
	excludes []string
}

// NewWalker creates a file walker. Empty includes default to the
// supported source extensions.
func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{
			"**/*.java",
			"**/*.py",
		}
	}

	defaultExcludes := []string{
		"**/.git/**",
		"**/target/**",
		"**/build/**",
		"**/out/**",
		"**/dist/**",
		"**/__pycache__/**",
		"**/venv/**",
		"**/.venv/**",
		"**/node_modules/**",
		"**/.idea/**",
		"**/.vscode/**",
	}
	excludes = append(defaultExcludes, excludes...)

	return &Walker{includes: includes, excludes: excludes}
}

// Walk calls fn for every file under root that matches the includes and
// none of the excludes.
func (w *Walker) Walk(root string, fn func(path string) error) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if w.excludedDir(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if w.matches(w.excludes, relPath) {
			return nil
		}
		if w.matches(w.includes, relPath) {
			return fn(path)
		}
		return nil
	})
}

func (w *Walker) excludedDir(relPath string) bool {
	// "**/.git/**" should also match the ".git" directory itself.
	return w.matches(w.excludes, relPath) || w.matches(w.excludes, relPath+"/")
}

func (w *Walker) matches(patterns []string, relPath string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}

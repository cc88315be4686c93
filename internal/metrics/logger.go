// Package metrics provides JSONL event logging for retrieval analytics.
package metrics

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// Logger appends metrics events to a JSONL file.
type Logger struct {
	file *os.File
	mu   sync.Mutex
}

// NewLogger opens (or creates) the metrics file for appending.
func NewLogger(path string) (*Logger, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &Logger{file: file}, nil
}

// Close closes the log file.
func (l *Logger) Close() error {
	return l.file.Close()
}

func (l *Logger) log(event string, data map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339),
		"event": event,
	}
	for k, v := range data {
		e[k] = v
	}

	line, _ := json.Marshal(e)
	l.file.Write(line)
	l.file.Write([]byte("\n"))
}

// LogRetrieve records one retrieval: detected service, result count,
// latency, and whether the semantic signal was unavailable.
func (l *Logger) LogRetrieve(service string, results int, latencyMs int64, degraded, cacheHit bool) {
	l.log("retrieve", map[string]any{
		"service":    service,
		"results":    results,
		"latency_ms": latencyMs,
		"degraded":   degraded,
		"cache_hit":  cacheHit,
	})
}

// LogIndex records one indexing run.
func (l *Logger) LogIndex(files, chunks, warnings int, durationMs int64) {
	l.log("index", map[string]any{
		"files":       files,
		"chunks":      chunks,
		"warnings":    warnings,
		"duration_ms": durationMs,
	})
}

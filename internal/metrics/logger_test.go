package metrics

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEvents(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var events []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		events = append(events, e)
	}
	require.NoError(t, scanner.Err())
	return events
}

func TestLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.jsonl")

	l, err := NewLogger(path)
	require.NoError(t, err)

	l.LogRetrieve("booking", 5, 120, false, true)
	l.LogIndex(10, 42, 1, 900)
	require.NoError(t, l.Close())

	events := readEvents(t, path)
	require.Len(t, events, 2)

	retrieve := events[0]
	assert.Equal(t, "retrieve", retrieve["event"])
	assert.Equal(t, "booking", retrieve["service"])
	assert.Equal(t, float64(5), retrieve["results"])
	assert.Equal(t, true, retrieve["cache_hit"])
	assert.NotEmpty(t, retrieve["ts"])

	idx := events[1]
	assert.Equal(t, "index", idx["event"])
	assert.Equal(t, float64(42), idx["chunks"])
}

func TestLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.jsonl")

	l, err := NewLogger(path)
	require.NoError(t, err)
	l.LogIndex(1, 1, 0, 10)
	require.NoError(t, l.Close())

	l, err = NewLogger(path)
	require.NoError(t, err)
	l.LogIndex(2, 2, 0, 20)
	require.NoError(t, l.Close())

	assert.Len(t, readEvents(t, path), 2)
}

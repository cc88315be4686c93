package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Extraction.MaxUnitLines)
	assert.Equal(t, 10, cfg.Extraction.MinBlockLines)
	assert.Equal(t, 0.7, cfg.Retrieval.Weight)
	assert.Equal(t, 2.0, cfg.Retrieval.MetadataBoost)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, "enhanced", cfg.Retrieval.Variant)
	assert.Equal(t, "qdrant", cfg.Storage.Backend)
	assert.Equal(t, "voyage", cfg.Embedding.Provider)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rca-index.yaml")
	content := `
extraction:
  max_unit_lines: 80
retrieval:
  hybrid_weight: 0.5
  variant: basic
storage:
  backend: memory
topology:
  - pattern: "com/acme/booking/**"
    service: booking
  - pattern: "payments/**"
    service: payments
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 80, cfg.Extraction.MaxUnitLines)
	// Untouched keys keep their defaults.
	assert.Equal(t, 10, cfg.Extraction.MinBlockLines)
	assert.Equal(t, 0.5, cfg.Retrieval.Weight)
	assert.Equal(t, "basic", cfg.Retrieval.Variant)
	assert.Equal(t, "memory", cfg.Storage.Backend)

	require.Len(t, cfg.Topology, 2)
	assert.Equal(t, "booking", cfg.Topology[0].Service)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retrieval: [not a map"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

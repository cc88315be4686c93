// Package config loads the YAML configuration surface.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphy/rca-code-index/internal/topology"
)

// Config holds the full configuration surface consumed by the engine.
type Config struct {
	Extraction ExtractionConfig `yaml:"extraction"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Indexing   IndexingConfig   `yaml:"indexing"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
	Topology   []topology.Rule  `yaml:"topology"`
}

type ExtractionConfig struct {
	MaxUnitLines  int `yaml:"max_unit_lines"`
	MinBlockLines int `yaml:"min_block_lines"`
}

type RetrievalConfig struct {
	Weight              float64 `yaml:"hybrid_weight"`
	MetadataBoost       float64 `yaml:"metadata_boost"`
	ComplexityThreshold int     `yaml:"complexity_threshold"`
	ComplexityPenalty   float64 `yaml:"complexity_penalty"`
	SizeThreshold       int     `yaml:"size_threshold"`
	SizePenalty         float64 `yaml:"size_penalty"`
	TopK                int     `yaml:"top_k"`
	EmbedTimeoutSecs    int     `yaml:"embed_timeout_seconds"`
	Variant             string  `yaml:"variant"` // enhanced | basic
}

type IndexingConfig struct {
	Workers int      `yaml:"workers"`
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // "voyage"
	Model    string `yaml:"model"`
}

type StorageConfig struct {
	Backend   string `yaml:"backend"` // memory | qdrant
	QdrantURL string `yaml:"qdrant_url"`
	RedisURL  string `yaml:"redis_url"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // error|warn|info|debug
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Extraction: ExtractionConfig{
			MaxUnitLines:  100,
			MinBlockLines: 10,
		},
		Retrieval: RetrievalConfig{
			Weight:              0.7,
			MetadataBoost:       2.0,
			ComplexityThreshold: 10,
			ComplexityPenalty:   0.8,
			SizeThreshold:       100,
			SizePenalty:         0.7,
			TopK:                5,
			EmbedTimeoutSecs:    10,
			Variant:             "enhanced",
		},
		Indexing: IndexingConfig{
			Workers: 4,
		},
		Embedding: EmbeddingConfig{
			Provider: "voyage",
			Model:    "voyage-code-3",
		},
		Storage: StorageConfig{
			Backend:   "qdrant",
			QdrantURL: "localhost",
			RedisURL:  "redis://localhost:6379",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads config from path, falling back to defaults when the file
// does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

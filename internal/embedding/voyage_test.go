package embedding

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoyageEmbedDocuments(t *testing.T) {
	apiKey := os.Getenv("VOYAGE_API_KEY")
	if apiKey == "" {
		t.Skip("VOYAGE_API_KEY not set, skipping integration test")
	}

	client := NewVoyageClient(apiKey, "voyage-code-3", 30*time.Second)

	texts := []string{
		"public void createOrder(String id) { repository.save(id); }",
		"def charge(amount): return client.post(amount)",
	}

	vectors, err := client.EmbedDocuments(context.Background(), texts)
	require.NoError(t, err)

	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], 1024)
	assert.Len(t, vectors[1], 1024)
}

func TestVoyageEmbedEmpty(t *testing.T) {
	client := NewVoyageClient("dummy-key", "voyage-code-3", 0)

	vectors, err := client.EmbedDocuments(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestVoyageDimension(t *testing.T) {
	tests := []struct {
		model    string
		expected int
	}{
		{"voyage-code-3", 1024},
		{"voyage-4-lite", 512},
		{"voyage-3-lite", 512},
		{"unknown-model", 1024}, // default
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			client := NewVoyageClient("dummy", tt.model, 0)
			assert.Equal(t, tt.expected, client.Dimension())
		})
	}
}

func TestUnavailableEmbedder(t *testing.T) {
	e := Unavailable{}

	_, err := e.EmbedDocuments(context.Background(), []string{"x"})
	assert.Error(t, err)

	_, err = e.EmbedQuery(context.Background(), "x")
	assert.Error(t, err)
}

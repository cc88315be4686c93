package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphy/rca-code-index/internal/chunk"
	"github.com/randalmurphy/rca-code-index/internal/index"
)

func testChunk(id, filePath, service, text string) chunk.CodeChunk {
	return chunk.CodeChunk{
		ID:            id,
		FilePath:      filePath,
		OwningService: service,
		Text:          text,
	}
}

func TestReplaceFileIdempotent(t *testing.T) {
	ctx := context.Background()
	terms := index.NewTermIndex()
	s := NewMemoryStore(terms)

	chunks := []chunk.CodeChunk{
		testChunk("a.java::run::1-5", "a.java", "svc", "run body"),
		testChunk("a.java::stop::7-9", "a.java", "svc", "stop body"),
	}

	require.NoError(t, s.ReplaceFile(ctx, "a.java", chunks))
	require.NoError(t, s.ReplaceFile(ctx, "a.java", chunks))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, terms.Len())
}

func TestReplaceFileDropsStaleChunks(t *testing.T) {
	ctx := context.Background()
	terms := index.NewTermIndex()
	s := NewMemoryStore(terms)

	require.NoError(t, s.ReplaceFile(ctx, "a.java", []chunk.CodeChunk{
		testChunk("a.java::old::1-5", "a.java", "svc", "old"),
	}))
	require.NoError(t, s.ReplaceFile(ctx, "a.java", []chunk.CodeChunk{
		testChunk("a.java::new::1-8", "a.java", "svc", "new"),
	}))

	_, ok, err := s.Get(ctx, "a.java::old::1-5")
	require.NoError(t, err)
	assert.False(t, ok)

	c, ok, err := s.Get(ctx, "a.java::new::1-8")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", c.Text)
	assert.Equal(t, 1, terms.Len())
}

func TestDeleteFileTombstonesByPrefix(t *testing.T) {
	ctx := context.Background()
	terms := index.NewTermIndex()
	s := NewMemoryStore(terms)

	require.NoError(t, s.ReplaceFile(ctx, "a.java", []chunk.CodeChunk{
		testChunk("a.java::run::1-5", "a.java", "svc", "run"),
		testChunk("a.java::run::block_1::2-4", "a.java", "svc", "block"),
	}))
	require.NoError(t, s.ReplaceFile(ctx, "a.javax", []chunk.CodeChunk{
		testChunk("a.javax::run::1-5", "a.javax", "svc", "other file"),
	}))

	require.NoError(t, s.DeleteFile(ctx, "a.java"))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// The similarly named file must survive: the prefix includes the
	// id separator.
	_, ok, err := s.Get(ctx, "a.javax::run::1-5")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, terms.Len())
}

func TestAllOrderedByID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(index.NewTermIndex())

	require.NoError(t, s.ReplaceFile(ctx, "b.java", []chunk.CodeChunk{
		testChunk("b.java::z::1-5", "b.java", "svc", ""),
	}))
	require.NoError(t, s.ReplaceFile(ctx, "a.java", []chunk.CodeChunk{
		testChunk("a.java::a::1-5", "a.java", "svc", ""),
	}))

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a.java::a::1-5", all[0].ID)
	assert.Equal(t, "b.java::z::1-5", all[1].ID)
}

func TestByService(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(index.NewTermIndex())

	require.NoError(t, s.ReplaceFile(ctx, "a.java", []chunk.CodeChunk{
		testChunk("a.java::run::1-5", "a.java", "booking", ""),
	}))
	require.NoError(t, s.ReplaceFile(ctx, "b.java", []chunk.CodeChunk{
		testChunk("b.java::run::1-5", "b.java", "payments", ""),
	}))

	booking, err := s.ByService(ctx, "booking")
	require.NoError(t, err)
	require.Len(t, booking, 1)
	assert.Equal(t, "a.java::run::1-5", booking[0].ID)

	none, err := s.ByService(ctx, "shipping")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestReplaceFileEmptyDeletes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(index.NewTermIndex())

	require.NoError(t, s.ReplaceFile(ctx, "a.java", []chunk.CodeChunk{
		testChunk("a.java::run::1-5", "a.java", "svc", ""),
	}))
	require.NoError(t, s.ReplaceFile(ctx, "a.java", nil))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

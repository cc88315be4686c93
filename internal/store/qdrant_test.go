package store

import (
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphy/rca-code-index/internal/chunk"
)

func TestPointIDStableAndValid(t *testing.T) {
	a := pointID("a.java::run::1-5")
	b := pointID("a.java::run::1-5")
	assert.Equal(t, a, b)
	assert.Len(t, a, 36) // uuid string form
	assert.NotEqual(t, a, pointID("a.java::run::1-6"))
}

func TestStaleIDs(t *testing.T) {
	old := []chunk.CodeChunk{
		{ID: "a.java::kept::1-5"},
		{ID: "a.java::gone::7-9"},
		{ID: "a.java::moved::11-20"},
	}
	fresh := []chunk.CodeChunk{
		{ID: "a.java::kept::1-5"},
		{ID: "a.java::moved::11-22"},
	}

	assert.Equal(t, []string{"a.java::gone::7-9", "a.java::moved::11-20"},
		staleIDs(old, fresh))
	// Deleting a file leaves every old id stale.
	assert.Len(t, staleIDs(old, nil), 3)
	assert.Empty(t, staleIDs(nil, fresh))
}

func TestMatchFilter(t *testing.T) {
	f := matchFilter("file_path", "a.java")
	require.Len(t, f.Must, 1)
	m := f.Must[0].GetField()
	require.NotNil(t, m)
	assert.Equal(t, "file_path", m.Key)
	assert.Equal(t, "a.java", m.GetMatch().GetKeyword())
}

func TestChunkPayloadRoundTrip(t *testing.T) {
	c := chunk.CodeChunk{
		ID:                   "booking/a.java::createOrder::1-10",
		FilePath:             "booking/a.java",
		Namespace:            "com.acme.booking",
		OwnerType:            "BookingService",
		UnitName:             "createOrder",
		Signature:            "createOrder(String id)",
		StartLine:            1,
		EndLine:              10,
		LinesOfCode:          10,
		CyclomaticComplexity: 3,
		HasErrorHandling:     true,
		HasBranch:            true,
		CalledUnits:          []string{"save", "notify"},
		OwningService:        "booking",
		Text:                 "public void createOrder(String id) {}",
	}

	got := payloadToChunk(qdrant.NewValueMap(chunkPayload(c)))
	assert.Equal(t, c, got)
}

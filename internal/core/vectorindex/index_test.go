package vectorindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/models"
)

func chunk(id string, ordinal int) models.Chunk {
	return models.Chunk{ID: id, DocumentID: "doc-1", Ordinal: ordinal, Text: "text-" + id}
}

func TestAddRejectsMismatchedLengths(t *testing.T) {
	ix := New("model-a", 2)
	err := ix.Add([]models.Chunk{chunk("c1", 0)}, nil)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
	assert.Equal(t, 0, ix.Len())
}

func TestAddDimensionMismatchLeavesIndexUnchanged(t *testing.T) {
	ix := New("model-a", 2)
	chunks := []models.Chunk{chunk("c1", 0), chunk("c2", 1)}
	vectors := [][]float32{{1, 0}, {1, 0, 0}}

	err := ix.Add(chunks, vectors)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	assert.Equal(t, 0, ix.Len())
}

func TestQueryOrdersByScoreDescending(t *testing.T) {
	ix := New("model-a", 2)
	chunks := []models.Chunk{chunk("c1", 0), chunk("c2", 1), chunk("c3", 2)}
	vectors := [][]float32{{0, 1}, {1, 0}, {1, 1}}
	require.NoError(t, ix.Add(chunks, vectors))

	results, err := ix.Query([]float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "c2", results[0].ChunkID)
	assert.Equal(t, "c3", results[1].ChunkID)
	assert.Equal(t, "c1", results[2].ChunkID)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.Greater(t, results[1].Score, results[2].Score)
}

func TestQueryTiesBreakTowardLowerOrdinal(t *testing.T) {
	ix := New("model-a", 2)
	chunks := []models.Chunk{chunk("c2", 1), chunk("c1", 0)}
	vectors := [][]float32{{1, 0}, {2, 0}}
	require.NoError(t, ix.Add(chunks, vectors))

	results, err := ix.Query([]float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "c1", results[0].ChunkID)
	assert.Equal(t, "c2", results[1].ChunkID)
}

func TestQueryKLargerThanIndexReturnsEverything(t *testing.T) {
	ix := New("model-a", 2)
	require.NoError(t, ix.Add([]models.Chunk{chunk("c1", 0)}, [][]float32{{1, 0}}))

	results, err := ix.Query([]float32{1, 0}, 100)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestQueryEmptyIndex(t *testing.T) {
	ix := New("model-a", 2)
	results, err := ix.Query([]float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQueryPrefixStability(t *testing.T) {
	ix := New("model-a", 2)
	chunks := []models.Chunk{chunk("c1", 0), chunk("c2", 1), chunk("c3", 2), chunk("c4", 3)}
	vectors := [][]float32{{1, 0}, {0.8, 0.2}, {0.5, 0.5}, {0, 1}}
	require.NoError(t, ix.Add(chunks, vectors))

	query := []float32{1, 0}
	for k := 1; k < len(chunks); k++ {
		smaller, err := ix.Query(query, k)
		require.NoError(t, err)
		larger, err := ix.Query(query, k+1)
		require.NoError(t, err)
		require.Len(t, larger, k+1)
		assert.Equal(t, larger[:k], smaller, "top-%d must be a prefix of top-%d", k, k+1)
	}
}

func TestQueryRejectsBadInput(t *testing.T) {
	ix := New("model-a", 2)

	_, err := ix.Query([]float32{1, 0, 0}, 5)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)

	_, err = ix.Query([]float32{1, 0}, 0)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/pdfqa/internal/models"
	"github.com/xhad/pdfqa/internal/types"
	"github.com/xhad/pdfqa/pkg/store"
)

func seed(t *testing.T, s types.VectorStore) {
	t.Helper()
	ctx := context.Background()

	records := []models.ChunkRecord{
		{ID: "a-0", UploadID: "A", ChunkIndex: 0, Text: "alpha beta", Vector: []float32{1, 0, 0}},
		{ID: "a-1", UploadID: "A", ChunkIndex: 1, Text: "gamma delta", Vector: []float32{0, 1, 0}},
		{ID: "a-2", UploadID: "A", ChunkIndex: 2, Text: "epsilon", Vector: []float32{0.7, 0.7, 0}},
		{ID: "b-0", UploadID: "B", ChunkIndex: 0, Text: "gamma exactly", Vector: []float32{0, 1, 0}},
	}
	for _, r := range records {
		require.NoError(t, s.Upsert(ctx, r))
	}
}

func TestMemoryStore_QueryOrdersBySimilarity(t *testing.T) {
	s := store.NewMemoryStore()
	seed(t, s)

	matches, err := s.Query(context.Background(), []float32{0, 1, 0}, 3, models.Filter{UploadID: "A"})
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "gamma delta", matches[0].Text)
	assert.Equal(t, "epsilon", matches[1].Text)
	assert.Equal(t, "alpha beta", matches[2].Text)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
	assert.GreaterOrEqual(t, matches[1].Score, matches[2].Score)
}

func TestMemoryStore_FilterIsolation(t *testing.T) {
	s := store.NewMemoryStore()
	seed(t, s)

	// b-0 is as close as a-1 but belongs to another upload.
	matches, err := s.Query(context.Background(), []float32{0, 1, 0}, 10, models.Filter{UploadID: "A"})
	require.NoError(t, err)
	for _, m := range matches {
		assert.Equal(t, "A", m.UploadID)
		assert.NotEqual(t, "b-0", m.ID)
	}

	matches, err = s.Query(context.Background(), []float32{1, 0, 0}, 10, models.Filter{UploadID: "B"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "b-0", matches[0].ID)
}

func TestMemoryStore_TopK(t *testing.T) {
	s := store.NewMemoryStore()
	seed(t, s)

	matches, err := s.Query(context.Background(), []float32{0, 1, 0}, 1, models.Filter{UploadID: "A"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a-1", matches[0].ID)

	matches, err = s.Query(context.Background(), []float32{0, 1, 0}, 0, models.Filter{UploadID: "A"})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMemoryStore_UnknownUploadReturnsEmpty(t *testing.T) {
	s := store.NewMemoryStore()
	seed(t, s)

	matches, err := s.Query(context.Background(), []float32{1, 0, 0}, 3, models.Filter{UploadID: "missing"})
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestMemoryStore_UpsertIsIdempotent(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	record := models.ChunkRecord{ID: "x-0", UploadID: "X", Text: "first", Vector: []float32{1, 0}}

	require.NoError(t, s.Upsert(ctx, record))
	require.NoError(t, s.Upsert(ctx, record))
	assert.Equal(t, 1, s.Count("X"))

	// The store keeps its own copy of the vector.
	record.Vector[0] = 0
	matches, err := s.Query(ctx, []float32{1, 0}, 1, models.Filter{UploadID: "X"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
}

func TestMemoryStore_Errors(t *testing.T) {
	s := store.NewMemoryStore()

	err := s.Upsert(context.Background(), models.ChunkRecord{UploadID: "X"})
	assert.ErrorIs(t, err, types.ErrIndexWrite)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = s.Upsert(ctx, models.ChunkRecord{ID: "x", UploadID: "X"})
	assert.ErrorIs(t, err, types.ErrIndexWrite)

	_, err = s.Query(ctx, []float32{1}, 1, models.Filter{UploadID: "X"})
	assert.ErrorIs(t, err, types.ErrIndexQuery)
}

func TestNew(t *testing.T) {
	s, err := store.New(context.Background(), store.VectorStoreConfig{Backend: store.BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, s)

	_, err = store.New(context.Background(), store.VectorStoreConfig{Backend: "pinecone"})
	assert.Error(t, err)
}

package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreSearch(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.Store("conv-1", "user prefers tabs over spaces", nil))
	require.NoError(t, store.Store("conv-1", "project uses Postgres", map[string]any{"topic": "infra"}))

	t.Run("term match ignores case", func(t *testing.T) {
		results, err := store.Search("conv-1", "postgres", 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 1.0, results[0].Score)
		assert.Equal(t, "infra", results[0].Metadata["topic"])
	})

	t.Run("any term of a longer query is enough", func(t *testing.T) {
		results, err := store.Search("conv-1", "which database should we pick? postgres maybe", 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "project uses Postgres", results[0].Content)
	})

	t.Run("empty query matches everything in insertion order", func(t *testing.T) {
		results, err := store.Search("conv-1", "", 10)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "user prefers tabs over spaces", results[0].Content)
	})

	t.Run("limit is respected", func(t *testing.T) {
		results, err := store.Search("conv-1", "", 1)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("unknown conversation is empty", func(t *testing.T) {
		results, err := store.Search("conv-2", "anything", 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("returned metadata is a copy", func(t *testing.T) {
		results, _ := store.Search("conv-1", "postgres", 10)
		results[0].Metadata["topic"] = "mutated"

		fresh, _ := store.Search("conv-1", "postgres", 10)
		assert.Equal(t, "infra", fresh[0].Metadata["topic"])
	})
}

func TestInMemoryStoreDelete(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.Store("conv-1", "to be removed", nil))
	require.NoError(t, store.Store("conv-1", "to be kept", nil))

	results, _ := store.Search("conv-1", "removed", 10)
	require.Len(t, results, 1)
	deletedID := results[0].ID

	require.NoError(t, store.Delete("conv-1", deletedID))

	results, _ = store.Search("conv-1", "removed", 10)
	assert.Empty(t, results)

	// Ids keep advancing after deletion.
	require.NoError(t, store.Store("conv-1", "newest", nil))

	newest, _ := store.Search("conv-1", "newest", 10)
	require.Len(t, newest, 1)
	assert.NotEqual(t, deletedID, newest[0].ID)

	assert.ErrorIs(t, store.Delete("conv-1", "mem_99"), ErrNotFound)
	assert.ErrorIs(t, store.Delete("conv-2", "mem_0"), ErrNotFound)
}

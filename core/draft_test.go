package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftKey(t *testing.T) {
	assert.Equal(t, "draft_42", DraftKey(42))
	assert.NotEqual(t, DraftKey(1), DraftKey(11))
}

func TestDraftStore(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	store := NewDraftStore(kv, nil)

	drafts, err := store.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{}, drafts)

	_, err = store.Save(ctx, 1, "x")
	require.NoError(t, err)
	drafts, err = store.Save(ctx, 1, "y")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, drafts)

	drafts, err = store.Remove(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, drafts)

	raw, ok, err := kv.Get(ctx, "draft_1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `["y"]`, raw)

	t.Run("out of range", func(t *testing.T) {
		for _, index := range []int{-1, 1} {
			_, err := store.Remove(ctx, 1, index)
			assert.ErrorIs(t, err, ErrValidation)
		}
		drafts, err := store.Load(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"y"}, drafts)
	})

	t.Run("chats do not share drafts", func(t *testing.T) {
		_, err := store.Save(ctx, 11, "other")
		require.NoError(t, err)
		drafts, err := store.Load(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"y"}, drafts)
	})
}

func TestDraftStore_Unreadable(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	store := NewDraftStore(kv, nil)

	for _, raw := range []string{"not json", `{"a":1}`, "null"} {
		require.NoError(t, kv.Set(ctx, DraftKey(5), raw))
		drafts, err := store.Load(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, []string{}, drafts)
	}

	drafts, err := store.Save(ctx, 5, "fresh")
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, drafts)
}

func TestDraftStore_SQLite(t *testing.T) {
	f := NewBaseFixture(t)
	defer f.tearDown()
	store := NewDraftStore(NewSQLiteKV(f.db.DB), nil)

	_, err := store.Save(f.ctx, 7, "a")
	require.NoError(t, err)
	_, err = store.Save(f.ctx, 7, "b")
	require.NoError(t, err)
	drafts, err := store.Load(f.ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, drafts)
}

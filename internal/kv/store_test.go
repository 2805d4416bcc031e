package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, ok := store.Get("missing")
	assert.False(t, ok)

	require.NoError(t, store.Set("cart_u1", `[{"product_id":"a"}]`))
	value, ok := store.Get("cart_u1")
	assert.True(t, ok)
	assert.Equal(t, `[{"product_id":"a"}]`, value)

	require.NoError(t, store.Set("cart_u1", `[]`))
	value, _ = store.Get("cart_u1")
	assert.Equal(t, `[]`, value)

	require.NoError(t, store.Delete("cart_u1"))
	_, ok = store.Get("cart_u1")
	assert.False(t, ok)

	// deleting an absent key is not an error
	assert.NoError(t, store.Delete("cart_u1"))
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	first, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set("auth_session", `{"user_id":"u1"}`))

	second, err := NewFileStore(dir)
	require.NoError(t, err)
	value, ok := second.Get("auth_session")
	assert.True(t, ok)
	assert.Equal(t, `{"user_id":"u1"}`, value)
}

func TestFileStoreHandlesUnsafeKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	key := "cart_user/with:odd..chars"
	require.NoError(t, store.Set(key, "v"))
	value, ok := store.Get(key)
	assert.True(t, ok)
	assert.Equal(t, "v", value)
}

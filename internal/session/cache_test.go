package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelara/design-portal/internal/model"
)

func TestUserCacheRoundTrip(t *testing.T) {
	cache := NewUserCache(filepath.Join(t.TempDir(), "nested", "user.json"))

	require.NoError(t, cache.Put(model.Profile{
		UserID:   7,
		Email:    "ada@example.com",
		FullName: "Ada Lovelace",
		Company:  "Analytical Engines Ltd",
		ClientID: "client-1",
		IsAdmin:  true,
	}))

	got, ok := cache.Get()
	require.True(t, ok)
	assert.EqualValues(t, 7, got.UserID)
	assert.Equal(t, "Ada Lovelace", got.FullName)
	assert.True(t, got.IsAdmin)
	assert.False(t, got.SavedAt.IsZero())
}

func TestUserCacheInvalidate(t *testing.T) {
	cache := NewUserCache(filepath.Join(t.TempDir(), "user.json"))
	require.NoError(t, cache.Put(model.Profile{UserID: 7}))

	require.NoError(t, cache.Invalidate())
	_, ok := cache.Get()
	assert.False(t, ok)

	// Invalidating an already-empty cache is fine.
	assert.NoError(t, cache.Invalidate())
}

func TestUserCacheCorruptFileIsAMiss(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, ok := NewUserCache(path).Get()
	assert.False(t, ok)
}

func TestUserCacheDisabled(t *testing.T) {
	cache := NewUserCache("")
	assert.NoError(t, cache.Put(model.Profile{UserID: 7}))
	_, ok := cache.Get()
	assert.False(t, ok)
	assert.NoError(t, cache.Invalidate())
}

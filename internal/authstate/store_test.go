package authstate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dimitrije/aiden-dashboard/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)

	var missing Session
	ok, err := store.Load(SessionKey, &missing)
	require.NoError(t, err)
	assert.False(t, ok)

	want := Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		ExpiresAt:    fixedNow,
		Identity:     models.Identity{ID: uuid.New(), Email: "jane@aiden.ai"},
	}
	require.NoError(t, store.Save(SessionKey, want))
	require.NoError(t, store.Save(DemoUserKey, map[string]string{"email": "jane@aiden.ai"}))

	// a fresh store on the same path sees the persisted values
	reopened := NewFileStore(path)
	var got Session
	ok, err = reopened.Load(SessionKey, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt))
	got.ExpiresAt = want.ExpiresAt
	assert.Equal(t, want, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, reopened.Clear(SessionKey))
	ok, err = store.Load(SessionKey, &got)
	require.NoError(t, err)
	assert.False(t, ok)

	var other map[string]string
	ok, err = store.Load(DemoUserKey, &other)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "jane@aiden.ai", other["email"])
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	var s Session
	_, err := NewFileStore(path).Load(SessionKey, &s)
	assert.Error(t, err)
}

func TestFileStore_ClearMissingKey(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	assert.NoError(t, store.Clear(SessionKey))
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	user := &models.User{Name: "Jane", Skills: []string{"Figma"}}
	require.NoError(t, store.Save(DemoUserKey, user))

	user.Skills[0] = "changed"

	var got models.User
	ok, err := store.Load(DemoUserKey, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"Figma"}, got.Skills)

	require.NoError(t, store.Clear(DemoUserKey))
	ok, err = store.Load(DemoUserKey, &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStores_UndecodableValueIsNotFound(t *testing.T) {
	stores := map[string]SessionStore{
		"file":   NewFileStore(filepath.Join(t.TempDir(), "session.json")),
		"memory": NewMemoryStore(),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Save(SessionKey, "not a session"))

			var s Session
			ok, err := store.Load(SessionKey, &s)
			assert.Error(t, err)
			assert.False(t, ok)
		})
	}
}

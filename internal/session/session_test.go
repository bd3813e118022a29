package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticated(t *testing.T) {
	assert.False(t, Session{}.Authenticated())
	assert.True(t, Session{Token: "tok"}.Authenticated())
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	st := NewStore(path)

	want := Session{
		Token: "abc123",
		User:  &User{ID: 7, Name: "Ada", Email: "ada@example.com"},
	}
	require.NoError(t, st.Save(want))

	got, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestStoreLoadMissing(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), "session.json"))

	got, err := st.Load()
	require.NoError(t, err)
	assert.False(t, got.Authenticated())
	assert.Nil(t, got.User)
}

func TestStoreLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewStore(path).Load()
	assert.Error(t, err)
}

func TestStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	st := NewStore(path)

	require.NoError(t, st.Save(Session{Token: "t"}))
	require.NoError(t, st.Clear())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Clearing twice is fine.
	assert.NoError(t, st.Clear())
}

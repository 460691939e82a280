package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir)
	require.NoError(t, err)
	assert.Empty(t, store.AccessToken())

	require.NoError(t, store.Save("access", "refresh"))
	assert.Equal(t, "access", store.AccessToken())
	assert.Equal(t, "refresh", store.RefreshToken())

	info, err := os.Stat(filepath.Join(dir, fileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, "access", reopened.AccessToken())
	assert.Equal(t, "refresh", reopened.RefreshToken())
}

func TestClearRemovesBoth(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save("access", "refresh"))

	require.NoError(t, store.Clear())
	assert.Empty(t, store.AccessToken())
	assert.Empty(t, store.RefreshToken())

	_, err = os.Stat(filepath.Join(dir, fileName))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, store.Clear())
}

func TestCorruptFileIgnored(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), []byte("{broken"), 0o600))

	store, err := Open(dir)
	require.NoError(t, err)
	assert.Empty(t, store.AccessToken())
}

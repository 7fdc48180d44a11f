package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveOpenDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	rel, err := store.Save("org-1/report.csv", []byte("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, "org-1/report.csv", rel)

	file, err := store.Open(rel)
	require.NoError(t, err)
	body, err := io.ReadAll(file)
	require.NoError(t, err)
	require.NoError(t, file.Close())
	assert.Equal(t, "a,b\n", string(body))

	require.NoError(t, store.Delete(rel))
	require.NoError(t, store.Delete(rel))
	_, err = store.Open(rel)
	assert.Error(t, err)
}

func TestLocalStorageRefusesEscapingPaths(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../outside.csv", "/etc/passwd", "", "a/../../b"} {
		_, err := store.Save(name, []byte("x"))
		assert.Error(t, err, name)
	}
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("old.csv", []byte("old"))
	require.NoError(t, err)
	_, err = store.Save("new.csv", []byte("new"))
	require.NoError(t, err)
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old.csv"), past, past))

	deleted, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.csv"}, deleted)
	_, err = os.Stat(filepath.Join(dir, "new.csv"))
	assert.NoError(t, err)
}

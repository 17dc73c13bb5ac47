package services

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverwriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.db")
	size := wipeChunkSize + 123
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0xFF}, size), 0o600))

	n, err := overwriteFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(size), n)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, size), got)
}

func TestSecureDeleteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.db")
	require.NoError(t, os.WriteFile(path, []byte("sensitive"), 0o600))

	n, err := SecureDeleteFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)
	assert.NoFileExists(t, path)

	n, err = SecureDeleteFile(path)
	assert.NoError(t, err, "missing file is tolerated")
	assert.Zero(t, n)
}

func TestSecureDeleteTree_Nested(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.db"), make([]byte, 5), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "b.db"), make([]byte, 7), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.db"), nil, 0o600))

	report := SecureDeleteTree(dir, quietLogger())

	assert.Equal(t, dir, report.Path)
	assert.Equal(t, 3, report.FilesWiped)
	assert.Equal(t, int64(12), report.BytesWiped)
	assert.True(t, report.Removed)
	assert.NoDirExists(t, dir)
}

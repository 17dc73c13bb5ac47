package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-ibackup/internal/types"
)

func createTestDB(t *testing.T) string {
	t.Helper()
	return createTestDBAt(t, filepath.Join(t.TempDir(), "Manifest.db"))
}

func createTestDBAt(t *testing.T, path string) string {
	t.Helper()

	w, err := Create(path)
	require.NoError(t, err)

	require.NoError(t, w.InsertFile(types.FileRecord{
		FileID:       types.MessagesDatabase.FileID,
		Domain:       "HomeDomain",
		RelativePath: "Library/SMS/sms.db",
		Flags:        1,
		Metadata:     []byte("metadata"),
	}))
	require.NoError(t, w.InsertFile(types.FileRecord{
		FileID:       "0000000000000000000000000000000000000000",
		Domain:       "CameraRollDomain",
		RelativePath: "Media",
		Flags:        2,
	}))
	require.NoError(t, w.Close())

	return path
}

func TestManifestDB_FindFile(t *testing.T) {
	db, err := Open(createTestDB(t))
	require.NoError(t, err)
	defer db.Close()

	rec, err := db.FindFile(types.MessagesDatabase.FileID)
	require.NoError(t, err)
	assert.Equal(t, types.MessagesDatabase.FileID, rec.FileID)
	assert.Equal(t, "HomeDomain", rec.Domain)
	assert.Equal(t, "Library/SMS/sms.db", rec.RelativePath)
	assert.Equal(t, int64(1), rec.Flags)
	assert.Equal(t, []byte("metadata"), rec.Metadata)

	dir, err := db.FindFile("0000000000000000000000000000000000000000")
	require.NoError(t, err)
	assert.Nil(t, dir.Metadata)
}

func TestManifestDB_FindFile_NotFound(t *testing.T) {
	db, err := Open(createTestDB(t))
	require.NoError(t, err)
	defer db.Close()

	rec, err := db.FindFile(types.ContactsDatabase.FileID)
	assert.ErrorIs(t, err, types.ErrFileRecordNotFound)
	assert.Nil(t, rec)

	// Lookups are exact, not prefix matches.
	_, err = db.FindFile(types.MessagesDatabase.FileID[:10])
	assert.ErrorIs(t, err, types.ErrFileRecordNotFound)
}

func TestManifestDB_CountFiles(t *testing.T) {
	db, err := Open(createTestDB(t))
	require.NoError(t, err)
	defer db.Close()

	n, err := db.CountFiles()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)

	_, err = Open(filepath.Join(t.TempDir(), "missing.db"))
	assert.Error(t, err)
}

func TestManifestDB_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Manifest.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not a sqlite database, just some bytes padded out"), 0o600))

	db, err := Open(path)
	if err != nil {
		return
	}
	defer db.Close()

	_, err = db.FindFile(types.MessagesDatabase.FileID)
	assert.Error(t, err)
}

func TestManifestDB_SpecialCharactersInPath(t *testing.T) {
	tests := []struct {
		name string
		dir  string
	}{
		{name: "hash", dir: "scratch#1"},
		{name: "question mark", dir: "a?b"},
		{name: "percent", dir: "100%done"},
		{name: "space", dir: "with space"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := t.TempDir()
			path := createTestDBAt(t, filepath.Join(parent, tt.dir, "Manifest.db"))

			db, err := Open(path)
			require.NoError(t, err)
			defer db.Close()

			n, err := db.CountFiles()
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			// Nothing may be created next to the intended directory.
			entries, err := os.ReadDir(parent)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, tt.dir, entries[0].Name())
		})
	}
}

func TestFileURI(t *testing.T) {
	assert.Equal(t, "file:///tmp/scratch%231/Manifest.db?mode=ro", fileURI("/tmp/scratch#1/Manifest.db", "mode=ro"))
	assert.Equal(t, "file:///tmp/a%3Fb/Manifest.db", fileURI("/tmp/a?b/Manifest.db", ""))
}

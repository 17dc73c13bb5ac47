package database

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/deploymenttheory/go-ibackup/internal/interfaces"
	"github.com/deploymenttheory/go-ibackup/internal/types"
)

// ManifestDB wraps a SQLite handle on a decrypted Manifest.db.
type ManifestDB struct {
	sql  *sql.DB
	path string
}

var _ interfaces.ManifestIndex = (*ManifestDB)(nil)

// Open opens a decrypted Manifest.db read-only.
func Open(path string) (*ManifestDB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat manifest database: %w", err)
	}

	handle, err := sql.Open("sqlite", fileURI(path, "mode=ro"))
	if err != nil {
		return nil, fmt.Errorf("open manifest database: %w", err)
	}

	if err := handle.Ping(); err != nil {
		handle.Close()
		return nil, fmt.Errorf("ping manifest database: %w", err)
	}

	return &ManifestDB{sql: handle, path: path}, nil
}

// fileURI returns a SQLite URI filename for path. Characters such as '#' and '?'
// are percent-encoded so they stay part of the path.
func fileURI(path, query string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p, RawQuery: query}).String()
}

// Path returns the database file path.
func (d *ManifestDB) Path() string {
	return d.path
}

// Close releases the database resources.
func (d *ManifestDB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

const selectFileByID = `
SELECT fileID, domain, relativePath, flags, file
FROM Files
WHERE fileID = ?
LIMIT 1;
`

// FindFile returns the Files row whose fileID equals fileID exactly.
// The archived metadata is returned raw; see manifest.NewFileMetadataReader.
func (d *ManifestDB) FindFile(fileID string) (*types.FileRecord, error) {
	var (
		rec      types.FileRecord
		domain   sql.NullString
		relPath  sql.NullString
		flags    sql.NullInt64
		metadata []byte
	)

	err := d.sql.QueryRow(selectFileByID, fileID).Scan(&rec.FileID, &domain, &relPath, &flags, &metadata)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrFileRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query file %s: %w", fileID, err)
	}

	rec.Domain = domain.String
	rec.RelativePath = relPath.String
	rec.Flags = flags.Int64
	rec.Metadata = metadata
	return &rec, nil
}

// CountFiles returns the number of rows in the Files table.
func (d *ManifestDB) CountFiles() (int, error) {
	var n int
	if err := d.sql.QueryRow(`SELECT COUNT(*) FROM Files;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return n, nil
}

const createFilesTable = `
CREATE TABLE IF NOT EXISTS Files (
	fileID       TEXT PRIMARY KEY,
	domain       TEXT,
	relativePath TEXT,
	flags        INTEGER,
	file         BLOB
);
CREATE INDEX IF NOT EXISTS FilesDomainIdx ON Files(domain);
CREATE INDEX IF NOT EXISTS FilesRelativePathIdx ON Files(relativePath);
CREATE TABLE IF NOT EXISTS Properties (
	key   TEXT PRIMARY KEY,
	value BLOB
);
`

// Writer builds a plaintext Manifest.db with the backup schema.
type Writer struct {
	sql  *sql.DB
	path string
}

// Create creates a new Manifest.db at path, replacing any existing file.
func Create(path string) (*Writer, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove existing database: %w", err)
	}

	handle, err := sql.Open("sqlite", fileURI(path, ""))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if _, err := handle.Exec(createFilesTable); err != nil {
		handle.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if err := EnsurePerm0600(path); err != nil {
		handle.Close()
		return nil, err
	}

	return &Writer{sql: handle, path: path}, nil
}

// InsertFile adds a Files row.
func (w *Writer) InsertFile(rec types.FileRecord) error {
	_, err := w.sql.Exec(
		`INSERT INTO Files (fileID, domain, relativePath, flags, file) VALUES (?, ?, ?, ?, ?);`,
		rec.FileID, rec.Domain, rec.RelativePath, rec.Flags, rec.Metadata,
	)
	if err != nil {
		return fmt.Errorf("insert file %s: %w", rec.FileID, err)
	}
	return nil
}

// Close flushes and closes the database.
func (w *Writer) Close() error {
	if w == nil || w.sql == nil {
		return nil
	}
	return w.sql.Close()
}

// EnsurePerm0600 restricts the database file to its owner on Unix systems.
func EnsurePerm0600(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	if err := os.Chmod(path, 0o600); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("chmod database: %w", err)
	}
	return nil
}

package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-ibackup/internal/types"
)

const wipeChunkSize = 64 * 1024

// overwriteFile replaces the full contents of path with zeros and syncs it.
func overwriteFile(path string) (int64, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}

	size := info.Size()
	zeros := make([]byte, wipeChunkSize)
	var written int64
	for written < size {
		n := int64(len(zeros))
		if remaining := size - written; remaining < n {
			n = remaining
		}
		if _, err := f.WriteAt(zeros[:n], written); err != nil {
			return written, err
		}
		written += n
	}

	if err := f.Sync(); err != nil {
		return written, err
	}
	return written, nil
}

// SecureDeleteFile zero-overwrites and removes a single file. A missing file is not an error.
func SecureDeleteFile(path string) (int64, error) {
	n, err := overwriteFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return n, fmt.Errorf("failed to overwrite %s: %w", path, err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return n, fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return n, nil
}

// SecureDeleteTree zero-overwrites every regular file under dir, removes them,
// then removes dir. Problems are logged, never returned.
func SecureDeleteTree(dir string, log *logrus.Logger) types.CleanupReport {
	report := types.CleanupReport{Path: dir}
	entry := log.WithField("path", dir)

	if _, err := os.Lstat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			entry.Debug("Nothing to clean up")
		} else {
			entry.WithError(err).Warn("Cannot access decrypted output")
		}
		return report
	}

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			entry.WithError(err).WithField("file", path).Warn("Skipping unreadable entry")
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		n, err := SecureDeleteFile(path)
		if err != nil {
			entry.WithError(err).WithField("file", path).Warn("Secure delete failed")
			return nil
		}
		report.FilesWiped++
		report.BytesWiped += n
		return nil
	})
	if walkErr != nil {
		entry.WithError(walkErr).Warn("Walk of decrypted output stopped early")
	}

	if err := os.RemoveAll(dir); err != nil {
		entry.WithError(err).Warn("Failed to remove decrypted output")
		return report
	}
	report.Removed = true

	entry.WithFields(logrus.Fields{
		"files": report.FilesWiped,
		"bytes": report.BytesWiped,
	}).Info("Decrypted output removed")
	return report
}

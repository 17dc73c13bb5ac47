package services

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-ibackup/internal/crypto"
	"github.com/deploymenttheory/go-ibackup/internal/interfaces"
	"github.com/deploymenttheory/go-ibackup/internal/parsers/manifest"
	"github.com/deploymenttheory/go-ibackup/internal/types"
)

// FileDecryptor locates target files in a decrypted Manifest.db and decrypts their blobs.
type FileDecryptor struct {
	log *logrus.Logger
}

// NewFileDecryptor creates a new file decryptor
func NewFileDecryptor(log *logrus.Logger) *FileDecryptor {
	if log == nil {
		log = logrus.New()
	}
	return &FileDecryptor{log: log}
}

// BlobPath returns the sharded location of fileID inside backupPath.
func BlobPath(backupPath, fileID string) string {
	if len(fileID) < 2 {
		return filepath.Join(backupPath, fileID)
	}
	return filepath.Join(backupPath, fileID[:2], fileID)
}

// DecryptTargets decrypts each target in order. A target that cannot be decrypted is
// skipped with a warning; it never aborts the remaining targets.
// Only errors from the index itself, other than a missing row, are returned.
func (fd *FileDecryptor) DecryptTargets(index interfaces.ManifestIndex, backupPath, outputDir string, keys *crypto.DerivedKeys, targets []types.TargetFile) ([]types.FileOutcome, error) {
	outcomes := make([]types.FileOutcome, 0, len(targets))
	for _, target := range targets {
		outcome, err := fd.DecryptFile(index, backupPath, outputDir, keys, target)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// applyMetadata decodes rec.Metadata into the record's class, key and size.
// A row without a relative path takes the archived one.
func applyMetadata(rec *types.FileRecord) error {
	meta, err := manifest.NewFileMetadataReader(rec.Metadata)
	if err != nil {
		return err
	}

	if class, ok := meta.ProtectionClass(); ok {
		rec.ProtectionClass = class
	}
	if key, ok := meta.EncryptionKey(); ok {
		rec.EncryptionKey = key
	}
	rec.Size = meta.Size()
	if rec.RelativePath == "" {
		rec.RelativePath = meta.RelativePath()
	}
	return nil
}

// DecryptFile decrypts one target into outputDir.
func (fd *FileDecryptor) DecryptFile(index interfaces.ManifestIndex, backupPath, outputDir string, keys *crypto.DerivedKeys, target types.TargetFile) (types.FileOutcome, error) {
	outcome := types.FileOutcome{Name: target.Name, FileID: target.FileID}
	entry := fd.log.WithFields(logrus.Fields{
		"file":    target.Name,
		"file_id": target.FileID,
	})

	skip := func(reason string) (types.FileOutcome, error) {
		entry.WithField("reason", reason).Warn("Skipping file")
		outcome.Status = types.FileStatusSkipped
		outcome.Reason = reason
		return outcome, nil
	}

	rec, err := index.FindFile(target.FileID)
	if errors.Is(err, types.ErrFileRecordNotFound) {
		return skip("no record in manifest database")
	}
	if err != nil {
		return outcome, fmt.Errorf("failed to look up %s: %w", target.Name, err)
	}

	if err := applyMetadata(rec); err != nil {
		return skip(fmt.Sprintf("unreadable file metadata: %v", err))
	}
	if rec.ProtectionClass == 0 {
		return skip("file metadata has no protection class")
	}
	class := rec.ProtectionClass
	entry = entry.WithField("class", class)

	wrapped := rec.EncryptionKey
	if len(wrapped) <= types.ManifestKeyClassSize {
		return skip("file metadata has no encryption key")
	}
	outcome.ExpectedSize = int64(rec.Size)

	classKey, ok := keys.ClassKey(class)
	if !ok {
		return skip(fmt.Sprintf("no class key for protection class %d", class))
	}

	fileKey, err := crypto.UnwrapKey(classKey, wrapped[types.ManifestKeyClassSize:])
	if err != nil {
		// The key prefix may name a different class than the metadata field.
		prefixClass := binary.BigEndian.Uint32(wrapped[:types.ManifestKeyClassSize])
		if alt, found := keys.ClassKey(prefixClass); found && prefixClass != class {
			fileKey, err = crypto.UnwrapKey(alt, wrapped[types.ManifestKeyClassSize:])
		}
		if err != nil {
			return skip(fmt.Sprintf("file key unwrap failed: %v", err))
		}
	}
	defer crypto.Wipe(fileKey)

	blobPath := BlobPath(backupPath, target.FileID)
	ciphertext, err := os.ReadFile(blobPath)
	if errors.Is(err, fs.ErrNotExist) {
		return skip("encrypted file missing from backup")
	}
	if err != nil {
		return skip(fmt.Sprintf("cannot read encrypted file: %v", err))
	}

	plaintext, err := crypto.DecryptCBC(fileKey, ciphertext)
	if err != nil {
		return skip(fmt.Sprintf("decryption failed: %v", err))
	}

	name := path.Base(rec.RelativePath)
	if rec.RelativePath == "" {
		name = path.Base(target.RelativePath)
	}
	outPath := filepath.Join(outputDir, name)
	if err := os.WriteFile(outPath, plaintext, 0o600); err != nil {
		crypto.Wipe(plaintext)
		return skip(fmt.Sprintf("cannot write decrypted file: %v", err))
	}
	crypto.Wipe(plaintext)

	if rec.Size > 0 && uint64(len(plaintext)) != rec.Size {
		entry.WithFields(logrus.Fields{
			"bytes":    len(plaintext),
			"expected": rec.Size,
		}).Debug("Decrypted size differs from archived size")
	}
	entry.WithField("bytes", len(plaintext)).Info("File decrypted")
	outcome.Status = types.FileStatusDecrypted
	outcome.OutputPath = outPath
	outcome.Size = int64(len(plaintext))
	return outcome, nil
}

package services

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-ibackup/internal/crypto"
	"github.com/deploymenttheory/go-ibackup/internal/types"
)

// ManifestDBDecryptor decrypts a backup's Manifest.db into a temporary file.
type ManifestDBDecryptor struct {
	log     *logrus.Logger
	tempDir string
}

// NewManifestDBDecryptor creates a decryptor writing temporary files under tempDir.
// An empty tempDir uses the OS default.
func NewManifestDBDecryptor(log *logrus.Logger, tempDir string) *ManifestDBDecryptor {
	if log == nil {
		log = logrus.New()
	}
	return &ManifestDBDecryptor{log: log, tempDir: tempDir}
}

// ResolveClassKey returns the class key named by the 4-byte prefix of manifestKey.
//
// The prefix is read big-endian. Backups written by devices store it
// little-endian, so the little-endian reading is tried when the big-endian
// class has no key.
func ResolveClassKey(manifestKey []byte, keys *crypto.DerivedKeys) (uint32, []byte, error) {
	if len(manifestKey) < types.ManifestKeyClassSize {
		return 0, nil, types.NewDecryptionError(types.ErrCodeInvalidWrappedKey, "manifest key is too short", nil)
	}

	prefix := manifestKey[:types.ManifestKeyClassSize]
	class := binary.BigEndian.Uint32(prefix)
	if key, ok := keys.ClassKey(class); ok {
		return class, key, nil
	}

	if le := binary.LittleEndian.Uint32(prefix); le != class {
		if key, ok := keys.ClassKey(le); ok {
			return le, key, nil
		}
	}

	return class, nil, types.NewDecryptionError(types.ErrCodeMissingClassKey,
		fmt.Sprintf("missing class key for protection class %d", class), nil)
}

// DecryptBytes unwraps the database key from manifestKey and decrypts ciphertext.
func (d *ManifestDBDecryptor) DecryptBytes(ciphertext, manifestKey []byte, keys *crypto.DerivedKeys) ([]byte, error) {
	class, classKey, err := ResolveClassKey(manifestKey, keys)
	if err != nil {
		return nil, err
	}

	dbKey, err := crypto.UnwrapKey(classKey, manifestKey[types.ManifestKeyClassSize:])
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap manifest database key (class %d): %w", class, err)
	}
	defer crypto.Wipe(dbKey)

	plaintext, err := crypto.DecryptCBC(dbKey, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt manifest database: %w", err)
	}

	d.log.WithFields(logrus.Fields{
		"class": class,
		"bytes": len(plaintext),
	}).Debug("Manifest database decrypted")
	return plaintext, nil
}

// Decrypt reads the encrypted Manifest.db at encryptedPath, decrypts it and writes the
// result to a new temporary file. The caller must remove the returned path with
// SecureDeleteFile.
func (d *ManifestDBDecryptor) Decrypt(encryptedPath string, manifestKey []byte, keys *crypto.DerivedKeys) (string, error) {
	ciphertext, err := os.ReadFile(encryptedPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", types.ManifestDBName, err)
	}

	plaintext, err := d.DecryptBytes(ciphertext, manifestKey, keys)
	if err != nil {
		return "", err
	}
	defer crypto.Wipe(plaintext)

	tmp, err := os.CreateTemp(d.tempDir, "ibackup-manifest-*.db")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary manifest database: %w", err)
	}
	path := tmp.Name()

	if _, err := tmp.Write(plaintext); err != nil {
		tmp.Close()
		SecureDeleteFile(path)
		return "", fmt.Errorf("failed to write temporary manifest database: %w", err)
	}
	if err := tmp.Close(); err != nil {
		SecureDeleteFile(path)
		return "", fmt.Errorf("failed to close temporary manifest database: %w", err)
	}

	return path, nil
}

package interfaces

import (
	"github.com/deploymenttheory/go-ibackup/internal/types"
)

// ManifestReader provides methods for reading a backup's Manifest.plist
type ManifestReader interface {
	// ReadManifest parses the Manifest.plist at path
	ReadManifest(path string) (*types.ManifestInfo, error)
}

// KeybagReader provides methods for reading a parsed backup keybag
type KeybagReader interface {
	// Keybag returns the parsed keybag
	Keybag() *types.Keybag

	// UUID returns the keybag identifier in canonical string form, or hex when it is not 16 bytes
	UUID() string

	// Type returns the keybag type
	Type() uint32

	// ListClassKeys returns the committed class keys ordered by class
	ListClassKeys() []*types.ClassKey

	// PasswordWrappedClasses returns the classes that are unwrapped with the password-derived key
	PasswordWrappedClasses() []uint32
}

// ManifestIndex provides lookups against a decrypted Manifest.db
type ManifestIndex interface {
	// FindFile returns the record for fileID, or types.ErrFileRecordNotFound
	FindFile(fileID string) (*types.FileRecord, error)

	// CountFiles returns the number of rows in the Files table
	CountFiles() (int, error)

	// Close releases the database handle
	Close() error
}

// FileMetadataReader decodes the archived metadata stored alongside each Manifest.db record
type FileMetadataReader interface {
	// ProtectionClass returns the file's protection class, if present
	ProtectionClass() (uint32, bool)

	// EncryptionKey returns the class-prefixed wrapped file key, if present
	EncryptionKey() ([]byte, bool)

	// RelativePath returns the archived relative path, if present
	RelativePath() string

	// Size returns the archived plaintext size
	Size() uint64
}

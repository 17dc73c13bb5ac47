package types

import (
	"crypto/sha1"
	"encoding/hex"
	"time"
)

// Backup directory layout
const (
	ManifestPlistName = "Manifest.plist"
	ManifestDBName    = "Manifest.db"

	// ManifestKeyClassSize is the size of the protection class prefix on ManifestKey and on
	// per-file EncryptionKey values.
	ManifestKeyClassSize = 4
)

// ManifestInfo is the subset of Manifest.plist the decryption engine reads.
type ManifestInfo struct {
	IsEncrypted    bool
	ManifestKey    []byte
	BackupKeyBag   []byte
	Version        string
	Date           time.Time
	WasPasscodeSet bool
	Lockdown       LockdownInfo
}

// LockdownInfo describes the device a backup was taken from.
type LockdownInfo struct {
	DeviceName     string `json:"device_name,omitempty" yaml:"device_name,omitempty"`
	ProductType    string `json:"product_type,omitempty" yaml:"product_type,omitempty"`
	ProductVersion string `json:"product_version,omitempty" yaml:"product_version,omitempty"`
	BuildVersion   string `json:"build_version,omitempty" yaml:"build_version,omitempty"`
	SerialNumber   string `json:"serial_number,omitempty" yaml:"serial_number,omitempty"`
	UniqueDeviceID string `json:"unique_device_id,omitempty" yaml:"unique_device_id,omitempty"`
}

// FileRecord is one row of the Manifest.db Files table joined with its decoded metadata.
type FileRecord struct {
	FileID       string
	Domain       string
	RelativePath string
	Flags        int64

	// Metadata is the raw NSKeyedArchiver property list stored in the file column.
	Metadata []byte

	// Decoded from Metadata. ProtectionClass is zero and EncryptionKey nil when absent.
	ProtectionClass uint32
	EncryptionKey   []byte
	Size            uint64
}

// TargetFile is a file the engine extracts from a backup.
type TargetFile struct {
	Name         string
	Domain       string
	RelativePath string
	FileID       string
}

// Fixed target files. The engine does not extract anything else.
var (
	MessagesDatabase = TargetFile{
		Name:         "Messages",
		Domain:       "HomeDomain",
		RelativePath: "Library/SMS/sms.db",
		FileID:       "3d0d7e5fb2ce288813306e4d4636395e047a3d28",
	}

	ContactsDatabase = TargetFile{
		Name:         "Contacts",
		Domain:       "HomeDomain",
		RelativePath: "Library/AddressBook/AddressBook.sqlitedb",
		FileID:       "31bb7ba8914766d4ba40d6dfb6113c8b614be442",
	}
)

// DefaultTargets returns the files decrypted by a backup decryption run.
func DefaultTargets() []TargetFile {
	return []TargetFile{MessagesDatabase, ContactsDatabase}
}

// FileIDFor returns the content hash a backup uses to name the file at domain/relativePath.
func FileIDFor(domain, relativePath string) string {
	sum := sha1.Sum([]byte(domain + "-" + relativePath))
	return hex.EncodeToString(sum[:])
}

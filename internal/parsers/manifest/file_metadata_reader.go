package manifest

import (
	"fmt"
	"math"

	"howett.net/plist"

	"github.com/deploymenttheory/go-ibackup/internal/interfaces"
)

// Keys of the archived MBFile object stored in the Manifest.db file column
const (
	keyProtectionClass = "ProtectionClass"
	keyEncryptionKey   = "EncryptionKey"
	keyRelativePath    = "RelativePath"
	keySize            = "Size"
	keyNSData          = "NS.data"
)

// fileMetadataReader implements the FileMetadataReader interface
type fileMetadataReader struct {
	objects []interface{}
	root    map[string]interface{}
}

var _ interfaces.FileMetadataReader = (*fileMetadataReader)(nil)

// NewFileMetadataReader decodes an NSKeyedArchiver property list. A plain dictionary without an
// archive wrapper is accepted and treated as the root object.
func NewFileMetadataReader(data []byte) (interfaces.FileMetadataReader, error) {
	var archive map[string]interface{}
	if _, err := plist.Unmarshal(data, &archive); err != nil {
		return nil, fmt.Errorf("failed to parse file metadata: %w", err)
	}

	objects, ok := archive["$objects"].([]interface{})
	if !ok {
		return &fileMetadataReader{root: archive}, nil
	}

	fmr := &fileMetadataReader{objects: objects}

	top, ok := archive["$top"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("file metadata archive has no $top")
	}
	root, ok := fmr.resolve(top["root"]).(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("file metadata archive root is not a dictionary")
	}
	fmr.root = root

	return fmr, nil
}

// resolve follows archive UID references.
func (fmr *fileMetadataReader) resolve(v interface{}) interface{} {
	for depth := 0; depth < 8; depth++ {
		uid, ok := v.(plist.UID)
		if !ok {
			return v
		}
		if uint64(uid) >= uint64(len(fmr.objects)) {
			return nil
		}
		v = fmr.objects[uid]
	}
	return nil
}

// ProtectionClass returns the file's protection class. Values wider than 32 bits are rejected.
func (fmr *fileMetadataReader) ProtectionClass() (uint32, bool) {
	v, ok := toUint64(fmr.resolve(fmr.root[keyProtectionClass]))
	if !ok || v > math.MaxUint32 {
		return 0, false
	}
	return uint32(v), true
}

// EncryptionKey returns the class-prefixed wrapped file key
func (fmr *fileMetadataReader) EncryptionKey() ([]byte, bool) {
	switch v := fmr.resolve(fmr.root[keyEncryptionKey]).(type) {
	case []byte:
		return v, len(v) > 0
	case map[string]interface{}:
		data, ok := fmr.resolve(v[keyNSData]).([]byte)
		return data, ok && len(data) > 0
	}
	return nil, false
}

// RelativePath returns the archived relative path
func (fmr *fileMetadataReader) RelativePath() string {
	s, _ := fmr.resolve(fmr.root[keyRelativePath]).(string)
	return s
}

// Size returns the archived plaintext size
func (fmr *fileMetadataReader) Size() uint64 {
	v, _ := toUint64(fmr.resolve(fmr.root[keySize]))
	return v
}

func toUint64(v interface{}) (uint64, bool) {
	switch n := v.(type) {
	case uint64:
		return n, true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case float64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	}
	return 0, false
}

// FileMetadata is the subset of an archived MBFile written by EncodeFileMetadata
type FileMetadata struct {
	RelativePath    string
	ProtectionClass uint32
	EncryptionKey   []byte
	Size            uint64
}

// EncodeFileMetadata archives meta the way backups store it in the Manifest.db file column.
// A nil EncryptionKey omits the key, as for unencrypted entries.
func EncodeFileMetadata(meta FileMetadata) ([]byte, error) {
	file := map[string]interface{}{
		"$class":           plist.UID(3),
		keyRelativePath:    plist.UID(2),
		keyProtectionClass: uint64(meta.ProtectionClass),
		keySize:            meta.Size,
		"Mode":             uint64(0o100644),
		"Flags":            uint64(0),
	}

	objects := []interface{}{
		"$null",
		file,
		meta.RelativePath,
		map[string]interface{}{
			"$classname": "MBFile",
			"$classes":   []interface{}{"MBFile", "NSObject"},
		},
	}

	if meta.EncryptionKey != nil {
		file[keyEncryptionKey] = plist.UID(len(objects))
		objects = append(objects,
			map[string]interface{}{
				"$class": plist.UID(len(objects) + 1),
				keyNSData: meta.EncryptionKey,
			},
			map[string]interface{}{
				"$classname": "NSMutableData",
				"$classes":   []interface{}{"NSMutableData", "NSData", "NSObject"},
			},
		)
	}

	archive := map[string]interface{}{
		"$version":  uint64(100000),
		"$archiver": "NSKeyedArchiver",
		"$top":      map[string]interface{}{"root": plist.UID(1)},
		"$objects":  objects,
	}

	return plist.Marshal(archive, plist.BinaryFormat)
}

// Package fixtures generates encrypted backup directories with known passwords for tests.
package fixtures

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/deploymenttheory/go-ibackup/internal/crypto"
	"github.com/deploymenttheory/go-ibackup/internal/database"
	"github.com/deploymenttheory/go-ibackup/internal/parsers/keybag"
	"github.com/deploymenttheory/go-ibackup/internal/parsers/manifest"
	"github.com/deploymenttheory/go-ibackup/internal/types"
)

const (
	DefaultPassword = "correct-password"
	WrongPassword   = "wrong-password"

	// Low iteration counts keep fixture generation fast.
	defaultDPIC = 100
	defaultIter = 10
)

// SQLiteHeader is the magic string at offset 0 of every SQLite database file.
var SQLiteHeader = []byte("SQLite format 3\x00")

// File describes one file stored in a fixture backup.
type File struct {
	Target          types.TargetFile
	Content         []byte
	ProtectionClass uint32

	// OmitBlob leaves the encrypted blob out of the backup directory.
	OmitBlob bool
	// OmitKey stores metadata without an EncryptionKey.
	OmitKey bool
	// WrongClassKey wraps the file key with a key that is not the class key.
	WrongClassKey bool
}

// Options controls fixture generation.
type Options struct {
	Password    string
	Unencrypted bool
	Files       []File

	DPIC uint32
	Iter uint32

	// ManifestClass is the protection class of the Manifest.db key. Defaults to class D.
	ManifestClass uint32

	// OmitClasses drops password-wrapped class keys from the keybag.
	OmitClasses []uint32

	// CorruptManifestDB replaces the decrypted Manifest.db with bytes that are not SQLite.
	CorruptManifestDB bool
}

// Backup is a generated backup directory and the secrets used to build it.
type Backup struct {
	Root          string
	Password      string
	ClassKeys     map[uint32][]byte
	ManifestDBKey []byte
	Files         []File
}

// BlobPath returns the sharded location of fileID inside the backup.
func (b *Backup) BlobPath(fileID string) string {
	return filepath.Join(b.Root, fileID[:2], fileID)
}

// SampleSQLite returns size bytes that start with the SQLite header.
func SampleSQLite(label string, size int) []byte {
	if size < len(SQLiteHeader) {
		size = len(SQLiteHeader)
	}
	out := make([]byte, size)
	copy(out, SQLiteHeader)
	filler := []byte(label)
	if len(filler) == 0 {
		filler = []byte{0x2A}
	}
	for i := len(SQLiteHeader); i < size; i++ {
		out[i] = filler[i%len(filler)]
	}
	return out
}

// DefaultFiles returns the Messages and Contacts databases stored under class C.
func DefaultFiles() []File {
	return []File{
		{Target: types.MessagesDatabase, Content: SampleSQLite("messages", 4096), ProtectionClass: uint32(types.ProtectionClassC)},
		{Target: types.ContactsDatabase, Content: SampleSQLite("contacts", 2048), ProtectionClass: uint32(types.ProtectionClassC)},
	}
}

func deterministicKey(label string) []byte {
	sum := sha256.Sum256([]byte("go-ibackup fixture " + label))
	return sum[:]
}

func classPrefix(class uint32) []byte {
	var p [types.ManifestKeyClassSize]byte
	binary.BigEndian.PutUint32(p[:], class)
	return p[:]
}

// BuildBackup writes an encrypted backup into dir.
func BuildBackup(dir string, opts Options) (*Backup, error) {
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	if opts.Files == nil {
		opts.Files = DefaultFiles()
	}
	if opts.DPIC == 0 {
		opts.DPIC = defaultDPIC
	}
	if opts.Iter == 0 {
		opts.Iter = defaultIter
	}
	if opts.ManifestClass == 0 {
		opts.ManifestClass = uint32(types.ProtectionClassD)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}

	b := &Backup{
		Root:          dir,
		Password:      opts.Password,
		ClassKeys:     make(map[uint32][]byte),
		ManifestDBKey: deterministicKey("manifest-db"),
		Files:         opts.Files,
	}

	kbData, err := b.buildKeybag(opts)
	if err != nil {
		return nil, err
	}

	plainDB, err := b.buildManifestDB(opts)
	if err != nil {
		return nil, err
	}

	encDB, err := crypto.EncryptCBC(b.ManifestDBKey, plainDB)
	if err != nil {
		return nil, fmt.Errorf("encrypt manifest database: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, types.ManifestDBName), encDB, 0o644); err != nil {
		return nil, fmt.Errorf("write manifest database: %w", err)
	}

	var manifestKey []byte
	if classKey, ok := b.ClassKeys[opts.ManifestClass]; ok {
		wrapped, err := crypto.WrapKey(classKey, b.ManifestDBKey)
		if err != nil {
			return nil, fmt.Errorf("wrap manifest key: %w", err)
		}
		manifestKey = append(classPrefix(opts.ManifestClass), wrapped...)
	} else {
		wrapped, err := crypto.WrapKey(deterministicKey("missing-class"), b.ManifestDBKey)
		if err != nil {
			return nil, fmt.Errorf("wrap manifest key: %w", err)
		}
		manifestKey = append(classPrefix(opts.ManifestClass), wrapped...)
	}

	for _, f := range opts.Files {
		if f.OmitBlob {
			continue
		}
		blob, err := crypto.EncryptCBC(deterministicKey("file "+f.Target.FileID), f.Content)
		if err != nil {
			return nil, fmt.Errorf("encrypt %s: %w", f.Target.Name, err)
		}
		path := b.BlobPath(f.Target.FileID)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create shard directory: %w", err)
		}
		if err := os.WriteFile(path, blob, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.Target.Name, err)
		}
	}

	info := &types.ManifestInfo{
		IsEncrypted:    !opts.Unencrypted,
		ManifestKey:    manifestKey,
		BackupKeyBag:   kbData,
		Version:        "10.0",
		Date:           time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC),
		WasPasscodeSet: true,
		Lockdown: types.LockdownInfo{
			DeviceName:     "Fixture iPhone",
			ProductType:    "iPhone15,2",
			ProductVersion: "17.4",
			BuildVersion:   "21E219",
			SerialNumber:   "F1XTUR3SER1AL",
			UniqueDeviceID: "00008120-000000000000001E",
		},
	}
	plistData, err := manifest.EncodeManifest(info)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, types.ManifestPlistName), plistData, 0o644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	return b, nil
}

func (b *Backup) buildKeybag(opts Options) ([]byte, error) {
	kbuf := keybag.NewBuilder().
		AddUint32("VERS", 4).
		AddUint32("TYPE", 1).
		Add("UUID", deterministicKey("keybag uuid")[:16]).
		Add("HMCK", deterministicKey("hmck")).
		AddUint32("WRAP", 0).
		Add("SALT", deterministicKey("salt")[:20]).
		AddUint32("ITER", opts.Iter).
		AddUint32("DPWT", 1).
		AddUint32("DPIC", opts.DPIC).
		Add("DPSL", deterministicKey("dpsl")[:20])

	kek := crypto.DeriveKEK([]byte(opts.Password), keybag.Parse(kbuf.Bytes()))
	defer crypto.Wipe(kek)

	omitted := make(map[uint32]bool)
	for _, c := range opts.OmitClasses {
		omitted[c] = true
	}

	for _, class := range []uint32{1, 3, 4, 8, 9, 10, 11} {
		if omitted[class] {
			continue
		}
		classKey := deterministicKey(fmt.Sprintf("class %d", class))
		wrapped, err := crypto.WrapKey(kek, classKey)
		if err != nil {
			return nil, fmt.Errorf("wrap class %d: %w", class, err)
		}
		b.ClassKeys[class] = classKey

		kbuf.Add("UUID", deterministicKey(fmt.Sprintf("class uuid %d", class))[:16]).
			AddUint32("CLAS", class).
			AddUint32("WRAP", types.WrapPassword).
			AddUint32("KTYP", 0).
			Add("WPKY", wrapped)
	}

	// Class B is asymmetric and never unwraps with the password.
	kbuf.Add("UUID", deterministicKey("class uuid 2")[:16]).
		AddUint32("CLAS", uint32(types.ProtectionClassB)).
		AddUint32("WRAP", types.WrapAsymmetric).
		AddUint32("KTYP", 1).
		Add("WPKY", bytes.Repeat([]byte{0x5C}, 40)).
		Add("PBKY", deterministicKey("class b public"))

	return kbuf.Bytes(), nil
}

func (b *Backup) buildManifestDB(opts Options) ([]byte, error) {
	if opts.CorruptManifestDB {
		return bytes.Repeat([]byte("not sqlite "), 64), nil
	}

	tmp, err := os.MkdirTemp("", "ibackup-fixture-*")
	if err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	path := filepath.Join(tmp, types.ManifestDBName)
	w, err := database.Create(path)
	if err != nil {
		return nil, err
	}

	for _, f := range opts.Files {
		meta := manifest.FileMetadata{
			RelativePath:    f.Target.RelativePath,
			ProtectionClass: f.ProtectionClass,
			Size:            uint64(len(f.Content)),
		}
		if !f.OmitKey {
			wrappingKey, ok := b.ClassKeys[f.ProtectionClass]
			if !ok || f.WrongClassKey {
				wrappingKey = deterministicKey("not the class key")
			}
			wrapped, err := crypto.WrapKey(wrappingKey, deterministicKey("file "+f.Target.FileID))
			if err != nil {
				w.Close()
				return nil, fmt.Errorf("wrap file key: %w", err)
			}
			meta.EncryptionKey = append(classPrefix(f.ProtectionClass), wrapped...)
		}

		metadata, err := manifest.EncodeFileMetadata(meta)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		if err := w.InsertFile(types.FileRecord{
			FileID:       f.Target.FileID,
			Domain:       f.Target.Domain,
			RelativePath: f.Target.RelativePath,
			Flags:        1,
			Metadata:     metadata,
		}); err != nil {
			w.Close()
			return nil, err
		}
	}

	// An unrelated row so lookups are not trivially single-row.
	other, err := manifest.EncodeFileMetadata(manifest.FileMetadata{RelativePath: "Library/Preferences/com.apple.springboard.plist", ProtectionClass: 4})
	if err != nil {
		w.Close()
		return nil, err
	}
	if err := w.InsertFile(types.FileRecord{
		FileID:       types.FileIDFor("HomeDomain", "Library/Preferences/com.apple.springboard.plist"),
		Domain:       "HomeDomain",
		RelativePath: "Library/Preferences/com.apple.springboard.plist",
		Flags:        1,
		Metadata:     other,
	}); err != nil {
		w.Close()
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close manifest database: %w", err)
	}

	return os.ReadFile(path)
}

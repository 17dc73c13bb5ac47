package services

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-ibackup/internal/crypto"
	"github.com/deploymenttheory/go-ibackup/internal/database"
	"github.com/deploymenttheory/go-ibackup/internal/interfaces"
	"github.com/deploymenttheory/go-ibackup/internal/parsers/keybag"
	"github.com/deploymenttheory/go-ibackup/internal/parsers/manifest"
	"github.com/deploymenttheory/go-ibackup/internal/types"
)

// OutputDirPrefix prefixes every decrypted output directory name.
const OutputDirPrefix = "decrypted-backup-"

// Options configures a BackupDecryptor.
type Options struct {
	// Logger receives structured progress and warnings. Nil creates a default logger.
	Logger *logrus.Logger

	// OutputRoot is where decrypted output directories are created. Empty uses os.TempDir.
	OutputRoot string

	// TempDir holds the temporary decrypted Manifest.db. Empty uses os.TempDir.
	TempDir string

	// Targets overrides the files to decrypt. Nil decrypts Messages and Contacts.
	Targets []types.TargetFile

	// Progress, when set, is called as each stage starts.
	Progress func(message string, percent int)
}

// BackupDecryptor decrypts encrypted device backups.
// It holds no key material between calls; each call derives and wipes its own.
type BackupDecryptor struct {
	log        *logrus.Logger
	outputRoot string
	targets    []types.TargetFile
	progress   func(string, int)

	manifests  interfaces.ManifestReader
	classKeys  *ClassKeyService
	manifestDB *ManifestDBDecryptor
	files      *FileDecryptor
}

// NewBackupDecryptor creates a new backup decryptor
func NewBackupDecryptor(opts Options) *BackupDecryptor {
	log := opts.Logger
	if log == nil {
		log = logrus.New()
	}
	outputRoot := opts.OutputRoot
	if outputRoot == "" {
		outputRoot = os.TempDir()
	}
	targets := opts.Targets
	if targets == nil {
		targets = types.DefaultTargets()
	}

	return &BackupDecryptor{
		log:        log,
		outputRoot: outputRoot,
		targets:    targets,
		progress:   opts.Progress,
		manifests:  manifest.NewManifestReader(),
		classKeys:  NewClassKeyService(log),
		manifestDB: NewManifestDBDecryptor(log, opts.TempDir),
		files:      NewFileDecryptor(log),
	}
}

func (d *BackupDecryptor) report(message string, percent int) {
	if d.progress != nil {
		d.progress(message, percent)
	}
}

// DecryptBackup decrypts the target files of the backup at backupPath into a new
// directory under the output root. It never panics and never returns an error;
// every failure is reported in the result.
func (d *BackupDecryptor) DecryptBackup(backupPath, password string) (result types.DecryptionResult) {
	entry := d.log.WithField("backup", backupPath)

	var outputDir string
	defer func() {
		if r := recover(); r != nil {
			entry.WithField("panic", r).Error("Decryption aborted")
			if outputDir != "" {
				SecureDeleteTree(outputDir, d.log)
			}
			result = types.Failed(fmt.Errorf("unexpected failure: %v", r))
		}
	}()

	pw := []byte(password)
	defer crypto.Wipe(pw)

	files, err := d.decrypt(backupPath, pw, &outputDir)
	if err != nil {
		if outputDir != "" {
			SecureDeleteTree(outputDir, d.log)
		}
		entry.WithError(err).Warn("Decryption failed")
		return types.Failed(err)
	}

	entry.WithField("output", outputDir).Info("Backup decrypted")
	return types.Succeeded(outputDir, files)
}

func (d *BackupDecryptor) decrypt(backupPath string, password []byte, outputDir *string) ([]types.FileOutcome, error) {
	d.report("Reading manifest", 0)
	info, err := d.manifests.ReadManifest(filepath.Join(backupPath, types.ManifestPlistName))
	if err != nil {
		return nil, err
	}
	if !info.IsEncrypted {
		return nil, types.ErrNotEncrypted
	}

	d.report("Deriving keys", 10)
	kb := keybag.Parse(info.BackupKeyBag)
	keys, err := d.classKeys.DeriveKeys(kb, password)
	if err != nil {
		return nil, err
	}
	defer keys.Wipe()

	d.report("Decrypting manifest database", 60)
	tempDB, err := d.manifestDB.Decrypt(filepath.Join(backupPath, types.ManifestDBName), info.ManifestKey, keys)
	if err != nil {
		return nil, err
	}
	defer func() {
		if _, err := SecureDeleteFile(tempDB); err != nil {
			d.log.WithError(err).Warn("Failed to remove temporary manifest database")
		}
	}()

	index, err := database.Open(tempDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest database: %w", err)
	}
	defer index.Close()

	count, err := index.CountFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest database: %w", err)
	}
	d.log.WithField("records", count).Debug("Manifest database opened")

	dir := filepath.Join(d.outputRoot, OutputDirPrefix+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	*outputDir = dir

	d.report("Decrypting files", 70)
	files, err := d.files.DecryptTargets(index, backupPath, dir, keys, d.targets)
	if err != nil {
		return nil, err
	}

	d.report("Done", 100)
	return files, nil
}

// IsBackupEncrypted reports the manifest's encryption flag. Any read error yields false.
func (d *BackupDecryptor) IsBackupEncrypted(backupPath string) bool {
	info, err := d.manifests.ReadManifest(filepath.Join(backupPath, types.ManifestPlistName))
	if err != nil {
		d.log.WithError(err).WithField("backup", backupPath).Debug("Cannot read manifest")
		return false
	}
	return info.IsEncrypted
}

// VerifyPassword reports whether password unwraps the backup's class keys.
// No file is decrypted and all derived keys are wiped before returning.
func (d *BackupDecryptor) VerifyPassword(backupPath, password string) (ok bool) {
	entry := d.log.WithField("backup", backupPath)
	defer func() {
		if r := recover(); r != nil {
			entry.WithField("panic", r).Error("Password verification aborted")
			ok = false
		}
	}()

	info, err := d.manifests.ReadManifest(filepath.Join(backupPath, types.ManifestPlistName))
	if err != nil {
		entry.WithError(err).Debug("Cannot read manifest")
		return false
	}
	if !info.IsEncrypted {
		return false
	}

	pw := []byte(password)
	defer crypto.Wipe(pw)

	keys, err := d.classKeys.DeriveKeys(keybag.Parse(info.BackupKeyBag), pw)
	if err != nil {
		return false
	}
	keys.Wipe()
	return true
}

// Cleanup securely deletes a decrypted output directory. It tolerates missing
// paths and never fails; problems are logged.
func (d *BackupDecryptor) Cleanup(decryptedPath string) types.CleanupReport {
	if decryptedPath == "" {
		return types.CleanupReport{}
	}
	return SecureDeleteTree(decryptedPath, d.log)
}

// InspectBackup summarises the manifest and keybag without a password.
func (d *BackupDecryptor) InspectBackup(backupPath string) (*types.BackupSummary, error) {
	info, err := d.manifests.ReadManifest(filepath.Join(backupPath, types.ManifestPlistName))
	if err != nil {
		return nil, err
	}

	summary := &types.BackupSummary{
		Path:           backupPath,
		IsEncrypted:    info.IsEncrypted,
		Version:        info.Version,
		Date:           info.Date,
		WasPasscodeSet: info.WasPasscodeSet,
		Lockdown:       info.Lockdown,
	}
	if len(info.BackupKeyBag) == 0 {
		return summary, nil
	}

	kr := keybag.NewKeybagReader(info.BackupKeyBag)
	kb := kr.Keybag()
	ks := &types.KeybagSummary{
		UUID:            kr.UUID(),
		Type:            kr.Type(),
		Version:         kb.Version,
		Iterations:      types.DefaultDPIC,
		SecondRoundIter: types.DefaultIter,
		PasswordClasses: kr.PasswordWrappedClasses(),
	}
	if kb.Has(types.TagDPIC) {
		ks.Iterations = kb.DPIC
	}
	if kb.Has(types.TagIter) {
		ks.SecondRoundIter = kb.Iter
	}
	for _, ck := range kr.ListClassKeys() {
		ks.ClassKeys = append(ks.ClassKeys, types.ClassKeySummary{
			Class:      ck.Class,
			Name:       types.ProtectionClass(ck.Class).String(),
			Wrap:       ck.Wrap,
			KeyType:    ck.KeyType,
			Asymmetric: ck.IsAsymmetric(),
		})
	}
	summary.Keybag = ks
	return summary, nil
}

package services

import (
	"github.com/deploymenttheory/go-ibackup/internal/types"
)

// Result and report types shared with the decryption engine
type (
	DecryptionResult = types.DecryptionResult
	FileOutcome      = types.FileOutcome
	FileStatus       = types.FileStatus
	CleanupReport    = types.CleanupReport
	BackupSummary    = types.BackupSummary
	KeybagSummary    = types.KeybagSummary
	ClassKeySummary  = types.ClassKeySummary
	TargetFile       = types.TargetFile
)

// File statuses reported in DecryptionResult.Files
const (
	FileStatusDecrypted = types.FileStatusDecrypted
	FileStatusSkipped   = types.FileStatusSkipped
)

// Errors returned by the service layer
var (
	ErrManifestNotFound  = types.ErrManifestNotFound
	ErrNotEncrypted      = types.ErrNotEncrypted
	ErrIncorrectPassword = types.ErrIncorrectPassword
)

// BackupService decrypts and inspects encrypted device backups
type BackupService interface {
	// DecryptBackup decrypts the Messages and Contacts databases into a new directory.
	// Failures are reported in the result, never returned or panicked.
	DecryptBackup(backupPath, password string) DecryptionResult

	// IsBackupEncrypted reports the manifest's encryption flag, false on any error
	IsBackupEncrypted(backupPath string) bool

	// VerifyPassword reports whether password unlocks the backup's keybag
	VerifyPassword(backupPath, password string) bool

	// Cleanup securely deletes a directory produced by DecryptBackup
	Cleanup(decryptedPath string) CleanupReport

	// InspectBackup summarises the manifest and keybag without a password
	InspectBackup(backupPath string) (*BackupSummary, error)
}

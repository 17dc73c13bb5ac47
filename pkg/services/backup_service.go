package services

import (
	"github.com/sirupsen/logrus"

	engine "github.com/deploymenttheory/go-ibackup/internal/services"
)

// OutputDirPrefix starts the name of every directory created by DecryptBackup
const OutputDirPrefix = engine.OutputDirPrefix

// Config configures backup services
type Config struct {
	// Logger receives structured logs. Nil creates a default logger.
	Logger *logrus.Logger

	// OutputRoot is the parent of decrypted output directories. Empty uses the OS temp dir.
	OutputRoot string

	// TempDir holds the short-lived decrypted Manifest.db. Empty uses the OS temp dir.
	TempDir string

	// Targets overrides which files are decrypted. Nil means Messages and Contacts.
	Targets []TargetFile

	// Progress receives stage updates during DecryptBackup
	Progress func(message string, percent int)
}

// NewBackupService creates a backup service. The returned service holds no key
// material between calls and may be reused.
func NewBackupService(cfg Config) BackupService {
	return engine.NewBackupDecryptor(engine.Options{
		Logger:     cfg.Logger,
		OutputRoot: cfg.OutputRoot,
		TempDir:    cfg.TempDir,
		Targets:    cfg.Targets,
		Progress:   cfg.Progress,
	})
}

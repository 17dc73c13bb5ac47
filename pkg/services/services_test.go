package services

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-ibackup/internal/fixtures"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return Config{Logger: log, OutputRoot: t.TempDir(), TempDir: t.TempDir()}
}

func TestBackupService_EndToEnd(t *testing.T) {
	backup, err := fixtures.BuildBackup(filepath.Join(t.TempDir(), "backup"), fixtures.Options{})
	require.NoError(t, err)

	cfg := testConfig(t)
	svc := NewBackupService(cfg)

	assert.True(t, svc.IsBackupEncrypted(backup.Root))
	assert.True(t, svc.VerifyPassword(backup.Root, fixtures.DefaultPassword))
	assert.False(t, svc.VerifyPassword(backup.Root, fixtures.WrongPassword))

	failed := svc.DecryptBackup(backup.Root, fixtures.WrongPassword)
	assert.False(t, failed.Success)
	assert.Equal(t, ErrIncorrectPassword.Error(), failed.Error)

	result := svc.DecryptBackup(backup.Root, fixtures.DefaultPassword)
	require.True(t, result.Success, result.Error)

	data, err := os.ReadFile(filepath.Join(result.DecryptedPath, "sms.db"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, fixtures.SQLiteHeader))

	for _, f := range result.Files {
		assert.Equal(t, FileStatusDecrypted, f.Status)
	}

	report := svc.Cleanup(result.DecryptedPath)
	assert.True(t, report.Removed)
	assert.NoDirExists(t, result.DecryptedPath)
}

func TestBackupService_InspectBackup(t *testing.T) {
	backup, err := fixtures.BuildBackup(filepath.Join(t.TempDir(), "backup"), fixtures.Options{})
	require.NoError(t, err)

	svc := NewBackupService(testConfig(t))

	summary, err := svc.InspectBackup(backup.Root)
	require.NoError(t, err)
	assert.True(t, summary.IsEncrypted)
	require.NotNil(t, summary.Keybag)
	assert.NotEmpty(t, summary.Keybag.ClassKeys)

	_, err = svc.InspectBackup(t.TempDir())
	assert.True(t, errors.Is(err, ErrManifestNotFound))
}

func TestBackupService_CustomTargets(t *testing.T) {
	backup, err := fixtures.BuildBackup(filepath.Join(t.TempDir(), "backup"), fixtures.Options{})
	require.NoError(t, err)

	cfg := testConfig(t)
	cfg.Targets = []TargetFile{backup.Files[1].Target}
	svc := NewBackupService(cfg)

	result := svc.DecryptBackup(backup.Root, fixtures.DefaultPassword)
	require.True(t, result.Success, result.Error)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "Contacts", result.Files[0].Name)
	assert.NoFileExists(t, filepath.Join(result.DecryptedPath, "sms.db"))
}

package inspect

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-ibackup/internal/fixtures"
	"github.com/deploymenttheory/go-ibackup/pkg/app"
)

func testContext() *app.Context {
	ctx := app.NewContext()
	ctx.Logger.SetOutput(io.Discard)
	return ctx
}

func TestHandle(t *testing.T) {
	backup, err := fixtures.BuildBackup(filepath.Join(t.TempDir(), "backup"), fixtures.Options{DPIC: 321})
	require.NoError(t, err)

	tests := []struct {
		name        string
		request     Request
		wantCode    string
		wantChecked bool
		wantValid   bool
	}{
		{
			name:    "no password",
			request: Request{Target: app.BackupTarget{Path: backup.Root}},
		},
		{
			name:        "correct password",
			request:     Request{Target: app.BackupTarget{Path: backup.Root}, Password: fixtures.DefaultPassword},
			wantChecked: true,
			wantValid:   true,
		},
		{
			name:        "wrong password",
			request:     Request{Target: app.BackupTarget{Path: backup.Root}, Password: fixtures.WrongPassword},
			wantChecked: true,
		},
		{
			name:     "empty directory",
			request:  Request{Target: app.BackupTarget{Path: t.TempDir()}},
			wantCode: app.ErrCodeBackupAccess,
		},
		{
			name:     "no path",
			request:  Request{},
			wantCode: app.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := Handle(testContext(), &tt.request)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, app.ErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, resp.IsEncrypted)
			assert.Equal(t, uint32(321), resp.Keybag.Iterations)
			assert.Equal(t, tt.wantChecked, resp.PasswordChecked)
			assert.Equal(t, tt.wantValid, resp.PasswordValid)
		})
	}
}

func TestHandle_UnencryptedSkipsPasswordCheck(t *testing.T) {
	backup, err := fixtures.BuildBackup(filepath.Join(t.TempDir(), "backup"), fixtures.Options{Unencrypted: true})
	require.NoError(t, err)

	resp, err := Handle(testContext(), &Request{Target: app.BackupTarget{Path: backup.Root}, Password: "anything"})
	require.NoError(t, err)
	assert.False(t, resp.IsEncrypted)
	assert.False(t, resp.PasswordChecked)
}

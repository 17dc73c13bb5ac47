package cleanup

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-ibackup/pkg/app"
	"github.com/deploymenttheory/go-ibackup/pkg/services"
)

func testContext() *app.Context {
	ctx := app.NewContext()
	ctx.Logger.SetOutput(io.Discard)
	return ctx
}

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		request Request
		wantErr bool
	}{
		{name: "decrypt output", request: Request{Path: "/tmp/decrypted-backup-1234"}},
		{name: "other directory without force", request: Request{Path: "/home/user/Documents"}, wantErr: true},
		{name: "other directory with force", request: Request{Path: "/tmp/scratch", Force: true}},
		{name: "empty", request: Request{Path: "  "}, wantErr: true},
		{name: "root even with force", request: Request{Path: "/", Force: true}, wantErr: true},
		{name: "current directory", request: Request{Path: ".", Force: true}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, app.ErrCodeInvalidInput, app.ErrorCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHandle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), services.OutputDirPrefix+"test")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sms.db"), make([]byte, 10), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "AddressBook.sqlitedb"), make([]byte, 1000), 0o600))

	resp, err := Handle(testContext(), &Request{Path: dir})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.FilesWiped)
	assert.Equal(t, int64(1010), resp.BytesWiped)
	assert.True(t, resp.Removed)
	assert.NoDirExists(t, dir)

	resp, err = Handle(testContext(), &Request{Path: dir})
	require.NoError(t, err, "missing directory is tolerated")
	assert.False(t, resp.Removed)
}

func TestWriteOutput(t *testing.T) {
	removed := &Response{CleanupReport: services.CleanupReport{Path: "/tmp/x", FilesWiped: 2, BytesWiped: 2048, Removed: true}}

	var buf bytes.Buffer
	require.NoError(t, WriteOutput(&buf, removed, "table"))
	assert.Equal(t, "Wiped 2 files (2.0 KB) and removed /tmp/x\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteOutput(&buf, &Response{CleanupReport: services.CleanupReport{Path: "/tmp/y"}}, "table"))
	assert.Equal(t, "Nothing removed at /tmp/y\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteOutput(&buf, removed, "json"))
	assert.Contains(t, buf.String(), `"files_wiped": 2`)

	buf.Reset()
	require.NoError(t, WriteOutput(&buf, removed, "yaml"))
	assert.Contains(t, buf.String(), "bytes_wiped: 2048")

	assert.Error(t, WriteOutput(&buf, removed, "xml"))
}

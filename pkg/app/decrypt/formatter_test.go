package decrypt

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-ibackup/pkg/services"
)

func sampleResponse() *Response {
	return &Response{
		DecryptionResult: services.DecryptionResult{
			Success:       true,
			DecryptedPath: "/tmp/decrypted-backup-1234",
			Files: []services.FileOutcome{
				{Name: "Messages", FileID: "3d0d7e5fb2ce288813306e4d4636395e047a3d28", Status: services.FileStatusDecrypted, OutputPath: "/tmp/decrypted-backup-1234/sms.db", Size: 4096},
				{Name: "Contacts", FileID: "31bb7ba8914766d4ba40d6dfb6113c8b614be442", Status: services.FileStatusSkipped, Reason: "encrypted file missing from backup"},
			},
		},
		Backup:   "/backups/device",
		Duration: 1500 * time.Millisecond,
	}
}

func TestWriteOutput(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		wantErr  bool
		validate func(*testing.T, string)
	}{
		{
			name:   "table format",
			format: "table",
			validate: func(t *testing.T, output string) {
				assert.Contains(t, output, "FILE")
				assert.Contains(t, output, "3d0d7e5fb2ce")
				assert.Contains(t, output, "4.0 KB")
				assert.Contains(t, output, "encrypted file missing from backup")
				assert.Contains(t, output, "Decrypted 1 of 2 files to /tmp/decrypted-backup-1234")
			},
		},
		{
			name:   "json format",
			format: "json",
			validate: func(t *testing.T, output string) {
				var decoded map[string]interface{}
				require.NoError(t, json.Unmarshal([]byte(output), &decoded))
				assert.Equal(t, true, decoded["success"])
				assert.Equal(t, "/tmp/decrypted-backup-1234", decoded["decryptedPath"])
				assert.NotContains(t, decoded, "error")
				assert.Len(t, decoded["files"], 2)
			},
		},
		{
			name:   "yaml format",
			format: "yaml",
			validate: func(t *testing.T, output string) {
				var decoded map[string]interface{}
				require.NoError(t, yaml.Unmarshal([]byte(output), &decoded))
				assert.Equal(t, true, decoded["success"])
				assert.Equal(t, "/backups/device", decoded["backup"])
			},
		},
		{
			name:    "unsupported format",
			format:  "xml",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := WriteOutput(&buf, sampleResponse(), tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validate(t, buf.String())
		})
	}
}

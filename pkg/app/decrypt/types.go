package decrypt

import (
	"context"
	"time"

	"github.com/deploymenttheory/go-ibackup/pkg/app"
	"github.com/deploymenttheory/go-ibackup/pkg/services"
)

// Request represents a backup decryption request
type Request struct {
	Target   app.BackupTarget
	Password string

	// Where output and temporary files go
	OutputRoot string
	TempDir    string

	// Timeout abandons the attempt when it elapses. Zero waits indefinitely.
	Timeout time.Duration

	// Keep leaves the output of an abandoned attempt on disk
	Keep bool
}

// Response represents a completed decryption
type Response struct {
	services.DecryptionResult `yaml:",inline"`

	Backup   string        `json:"backup" yaml:"backup"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// DecryptedCount returns the number of target files written
func (r *Response) DecryptedCount() int {
	n := 0
	for _, f := range r.Files {
		if f.Status == services.FileStatusDecrypted {
			n++
		}
	}
	return n
}

// TimeoutError is returned when the request timeout abandons an attempt.
// Its code is app.ErrCodeTimeout.
type TimeoutError struct {
	err     *app.CommonError
	settled <-chan struct{}
}

func (e *TimeoutError) Error() string {
	return e.err.Error()
}

func (e *TimeoutError) Unwrap() error {
	return e.err
}

// Wait blocks until the abandoned attempt has finished, its temporary files are
// gone and its output has been removed or kept. It returns false if ctx ends first.
func (e *TimeoutError) Wait(ctx context.Context) bool {
	select {
	case <-e.settled:
		return true
	case <-ctx.Done():
		return false
	}
}

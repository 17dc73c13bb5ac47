package decrypt

import (
	"fmt"
	"os"

	"github.com/deploymenttheory/go-ibackup/pkg/app"
)

// Validate validates a decryption request
func (r *Request) Validate() error {
	if r.Target.Path == "" {
		return app.NewError(app.ErrCodeInvalidInput, "backup path is required", nil)
	}
	if err := r.Target.Validate(); err != nil {
		return app.NewError(app.ErrCodeBackupAccess, "cannot access backup", err)
	}

	if r.Password == "" {
		return app.NewError(app.ErrCodeInvalidInput, "password is required", nil)
	}

	if r.Timeout < 0 {
		return app.NewError(app.ErrCodeInvalidInput, "timeout cannot be negative", nil)
	}

	for _, dir := range []string{r.OutputRoot, r.TempDir} {
		if dir == "" {
			continue
		}
		info, err := os.Stat(dir)
		if err != nil {
			return app.NewError(app.ErrCodeInvalidInput, fmt.Sprintf("cannot use %s", dir), err)
		}
		if !info.IsDir() {
			return app.NewError(app.ErrCodeInvalidInput, fmt.Sprintf("%s is not a directory", dir), nil)
		}
	}

	return nil
}

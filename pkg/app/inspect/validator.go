package inspect

import (
	"github.com/deploymenttheory/go-ibackup/pkg/app"
)

// Validate validates an inspection request
func (r *Request) Validate() error {
	if r.Target.Path == "" {
		return app.NewError(app.ErrCodeInvalidInput, "backup path is required", nil)
	}
	if err := r.Target.Validate(); err != nil {
		return app.NewError(app.ErrCodeBackupAccess, "cannot access backup", err)
	}
	return nil
}

package inspect

import (
	"github.com/deploymenttheory/go-ibackup/pkg/app"
	"github.com/deploymenttheory/go-ibackup/pkg/services"
)

// Request represents a backup inspection request
type Request struct {
	Target app.BackupTarget

	// Password is optional; when set the response reports whether it is correct
	Password string
}

// Response represents a backup summary
type Response struct {
	services.BackupSummary `yaml:",inline"`

	PasswordChecked bool `json:"password_checked" yaml:"password_checked"`
	PasswordValid   bool `json:"password_valid" yaml:"password_valid"`
}

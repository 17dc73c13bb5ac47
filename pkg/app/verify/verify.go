// Package verify checks a backup password without decrypting any files.
package verify

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-ibackup/pkg/app"
	"github.com/deploymenttheory/go-ibackup/pkg/services"
)

// Request represents a password verification request
type Request struct {
	Target   app.BackupTarget
	Password string
}

// Response reports whether the password unlocks the backup
type Response struct {
	Backup    string `json:"backup" yaml:"backup"`
	Encrypted bool   `json:"encrypted" yaml:"encrypted"`
	Valid     bool   `json:"valid" yaml:"valid"`
}

// Validate validates a verification request
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
	return nil
}

// Handle processes a verification request
func Handle(ctx *app.Context, req *Request) (*Response, error) {
	return HandleWith(ctx, req, services.NewBackupService(services.Config{Logger: ctx.Logger}))
}

// HandleWith processes a verification request using svc
func HandleWith(ctx *app.Context, req *Request, svc services.BackupService) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx.Log(fmt.Sprintf("Verifying password for: %s", req.Target.Path))

	resp := &Response{
		Backup:    req.Target.Path,
		Encrypted: svc.IsBackupEncrypted(req.Target.Path),
	}
	if !resp.Encrypted {
		return resp, nil
	}
	resp.Valid = svc.VerifyPassword(req.Target.Path, req.Password)
	return resp, nil
}

// FormatOutput writes the verification result to stdout
func FormatOutput(response *Response, format string) error {
	return WriteOutput(os.Stdout, response, format)
}

// WriteOutput writes the verification result to w according to format
func WriteOutput(w io.Writer, response *Response, format string) error {
	switch format {
	case app.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(response)
	case app.FormatYAML:
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		encoder.SetIndent(2)
		return encoder.Encode(response)
	case app.FormatTable:
		switch {
		case !response.Encrypted:
			_, err := fmt.Fprintf(w, "%s: backup is not encrypted\n", response.Backup)
			return err
		case response.Valid:
			_, err := fmt.Fprintf(w, "%s: password is correct\n", response.Backup)
			return err
		default:
			_, err := fmt.Fprintf(w, "%s: incorrect password\n", response.Backup)
			return err
		}
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

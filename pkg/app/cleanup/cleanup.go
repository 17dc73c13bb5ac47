// Package cleanup securely deletes decrypted backup output.
package cleanup

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-ibackup/pkg/app"
	"github.com/deploymenttheory/go-ibackup/pkg/services"
)

// Request represents a cleanup request
type Request struct {
	Path string

	// Force allows removing a directory that was not produced by decrypt
	Force bool
}

// Response reports what was removed
type Response struct {
	services.CleanupReport `yaml:",inline"`
}

// Validate validates a cleanup request
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Path) == "" {
		return app.NewError(app.ErrCodeInvalidInput, "path is required", nil)
	}
	clean := filepath.Clean(r.Path)
	if clean == "/" || clean == "." || clean == filepath.VolumeName(clean)+string(filepath.Separator) {
		return app.NewError(app.ErrCodeInvalidInput, fmt.Sprintf("refusing to remove %s", r.Path), nil)
	}
	if !r.Force && !strings.HasPrefix(filepath.Base(clean), services.OutputDirPrefix) {
		return app.NewError(app.ErrCodeInvalidInput,
			fmt.Sprintf("%s was not created by decrypt (use --force to remove it anyway)", r.Path), nil)
	}
	return nil
}

// Handle processes a cleanup request
func Handle(ctx *app.Context, req *Request) (*Response, error) {
	return HandleWith(ctx, req, services.NewBackupService(services.Config{Logger: ctx.Logger}))
}

// HandleWith processes a cleanup request using svc. A missing path is not an error.
func HandleWith(ctx *app.Context, req *Request, svc services.BackupService) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx.Log(fmt.Sprintf("Securely deleting: %s", req.Path))
	return &Response{CleanupReport: svc.Cleanup(req.Path)}, nil
}

// FormatOutput writes the cleanup report to stdout
func FormatOutput(response *Response, format string) error {
	return WriteOutput(os.Stdout, response, format)
}

// WriteOutput writes the cleanup report to w according to format
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
		if !response.Removed {
			_, err := fmt.Fprintf(w, "Nothing removed at %s\n", response.Path)
			return err
		}
		_, err := fmt.Fprintf(w, "Wiped %d files (%s) and removed %s\n",
			response.FilesWiped, app.FormatBytes(response.BytesWiped), response.Path)
		return err
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// BackupTarget identifies a backup directory across commands
type BackupTarget struct {
	Path string
}

// Validate ensures the backup target names an existing directory
func (bt *BackupTarget) Validate() error {
	if bt.Path == "" {
		return errors.New("backup path is required")
	}
	info, err := os.Stat(bt.Path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", bt.Path)
	}
	return nil
}

// String returns a string representation of the backup target
func (bt *BackupTarget) String() string {
	if bt.Path == "" {
		return "No backup"
	}
	if abs, err := filepath.Abs(bt.Path); err == nil {
		return "Backup: " + abs
	}
	return "Backup: " + bt.Path
}

// CommonError represents application-level errors
type CommonError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CommonError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CommonError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeBackupAccess      = "BACKUP_ACCESS"
	ErrCodeDecryptionFailed  = "DECRYPTION_FAILED"
	ErrCodeIncorrectPassword = "INCORRECT_PASSWORD"
	ErrCodeTimeout           = "TIMEOUT"
)

// NewError creates a new CommonError
func NewError(code, message string, cause error) *CommonError {
	return &CommonError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrorCode returns the code of a CommonError in err's chain, or "" when there is none
func ErrorCode(err error) string {
	var ce *CommonError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

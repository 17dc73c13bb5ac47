package types

import "fmt"

// DecryptionError is a coded failure raised by the decryption engine.
type DecryptionError struct {
	Code    string
	Message string
	Cause   error
}

func (e *DecryptionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DecryptionError) Unwrap() error {
	return e.Cause
}

// Is matches any DecryptionError with the same code.
func (e *DecryptionError) Is(target error) bool {
	t, ok := target.(*DecryptionError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Error codes
const (
	ErrCodeManifestNotFound   = "MANIFEST_NOT_FOUND"
	ErrCodeNotEncrypted       = "NOT_ENCRYPTED"
	ErrCodeIncorrectPassword  = "INCORRECT_PASSWORD"
	ErrCodeMissingClassKey    = "MISSING_CLASS_KEY"
	ErrCodeIntegrityCheck     = "INTEGRITY_CHECK"
	ErrCodeInvalidWrappedKey  = "INVALID_WRAPPED_KEY"
	ErrCodeInvalidCiphertext  = "INVALID_CIPHERTEXT"
	ErrCodeFileRecordNotFound = "FILE_RECORD_NOT_FOUND"
)

// Sentinel errors. Messages are user facing.
var (
	ErrManifestNotFound   = &DecryptionError{Code: ErrCodeManifestNotFound, Message: "Manifest.plist not found"}
	ErrNotEncrypted       = &DecryptionError{Code: ErrCodeNotEncrypted, Message: "Backup is not encrypted"}
	ErrIncorrectPassword  = &DecryptionError{Code: ErrCodeIncorrectPassword, Message: "Incorrect password"}
	ErrMissingClassKey    = &DecryptionError{Code: ErrCodeMissingClassKey, Message: "missing class key"}
	ErrIntegrityCheck     = &DecryptionError{Code: ErrCodeIntegrityCheck, Message: "key unwrap integrity check failed"}
	ErrInvalidWrappedKey  = &DecryptionError{Code: ErrCodeInvalidWrappedKey, Message: "invalid wrapped key length"}
	ErrInvalidCiphertext  = &DecryptionError{Code: ErrCodeInvalidCiphertext, Message: "ciphertext is not a multiple of the AES block size"}
	ErrFileRecordNotFound = &DecryptionError{Code: ErrCodeFileRecordNotFound, Message: "file record not found"}
)

// NewDecryptionError creates a DecryptionError with the given code.
func NewDecryptionError(code, message string, cause error) *DecryptionError {
	return &DecryptionError{Code: code, Message: message, Cause: cause}
}

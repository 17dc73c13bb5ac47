package types

// DecryptionResult is the terminal output of a decryption attempt.
// Error is set iff Success is false; DecryptedPath is set iff Success is true.
type DecryptionResult struct {
	Success       bool          `json:"success" yaml:"success"`
	Error         string        `json:"error,omitempty" yaml:"error,omitempty"`
	DecryptedPath string        `json:"decryptedPath,omitempty" yaml:"decrypted_path,omitempty"`
	Files         []FileOutcome `json:"files,omitempty" yaml:"files,omitempty"`
}

// FileStatus describes what happened to one target file.
type FileStatus string

const (
	FileStatusDecrypted FileStatus = "decrypted"
	FileStatusSkipped   FileStatus = "skipped"
)

// FileOutcome reports the result of decrypting one target file.
type FileOutcome struct {
	Name       string     `json:"name" yaml:"name"`
	FileID     string     `json:"file_id" yaml:"file_id"`
	Status     FileStatus `json:"status" yaml:"status"`
	Reason     string     `json:"reason,omitempty" yaml:"reason,omitempty"`
	OutputPath string     `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	Size       int64      `json:"size,omitempty" yaml:"size,omitempty"`

	// ExpectedSize is the plaintext size archived in the file's metadata
	ExpectedSize int64 `json:"expected_size,omitempty" yaml:"expected_size,omitempty"`
}

// Succeeded builds a successful result.
func Succeeded(decryptedPath string, files []FileOutcome) DecryptionResult {
	return DecryptionResult{Success: true, DecryptedPath: decryptedPath, Files: files}
}

// Failed builds a failed result carrying err's message.
func Failed(err error) DecryptionResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return DecryptionResult{Success: false, Error: msg}
}

// CleanupReport summarises a secure delete of a decrypted output directory.
type CleanupReport struct {
	Path       string `json:"path" yaml:"path"`
	FilesWiped int    `json:"files_wiped" yaml:"files_wiped"`
	BytesWiped int64  `json:"bytes_wiped" yaml:"bytes_wiped"`
	Removed    bool   `json:"removed" yaml:"removed"`
}

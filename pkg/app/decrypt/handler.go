package decrypt

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-ibackup/pkg/app"
	"github.com/deploymenttheory/go-ibackup/pkg/services"
)

// Handle processes a decryption request
func Handle(ctx *app.Context, req *Request) (*Response, error) {
	svc := services.NewBackupService(services.Config{
		Logger:     ctx.Logger,
		OutputRoot: req.OutputRoot,
		TempDir:    req.TempDir,
		Progress:   ctx.Progress,
	})
	return HandleWith(ctx, req, svc)
}

// HandleWith processes a decryption request using svc.
//
// The decryption itself cannot be interrupted. When the request timeout or
// ctx fires first, the attempt is abandoned and a *TimeoutError returned; the
// directory it eventually produces is cleaned up unless req.Keep is set.
// Callers that exit afterwards should call Wait on the error first.
func HandleWith(ctx *app.Context, req *Request, svc services.BackupService) (*Response, error) {
	startTime := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx.Log(fmt.Sprintf("Decrypting backup: %s", req.Target.Path))

	if req.Timeout > 0 {
		var cancel func()
		ctx, cancel = ctx.WithTimeout(req.Timeout)
		defer cancel()
	}

	done := make(chan services.DecryptionResult, 1)
	go func() {
		done <- svc.DecryptBackup(req.Target.Path, req.Password)
	}()

	var result services.DecryptionResult
	select {
	case result = <-done:
	case <-ctx.Done():
		settled := abandon(ctx, req, svc, done)
		return nil, &TimeoutError{
			err:     app.NewError(app.ErrCodeTimeout, "decryption did not finish in time", ctx.Err()),
			settled: settled,
		}
	}

	if !result.Success {
		code := app.ErrCodeDecryptionFailed
		if result.Error == services.ErrIncorrectPassword.Error() {
			code = app.ErrCodeIncorrectPassword
		}
		return nil, app.NewError(code, result.Error, nil)
	}

	response := &Response{
		DecryptionResult: result,
		Backup:           req.Target.Path,
		Duration:         time.Since(startTime),
	}

	ctx.Log(fmt.Sprintf("Decrypted %d of %d files in %v", response.DecryptedCount(), len(response.Files), response.Duration))
	return response, nil
}

// abandon waits for an abandoned attempt in the background and removes its output.
// The returned channel is closed once the attempt has finished and been dealt with.
func abandon(ctx *app.Context, req *Request, svc services.BackupService, done <-chan services.DecryptionResult) <-chan struct{} {
	log := ctx.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	entry := log.WithField("backup", req.Target.Path)
	entry.Warn("Abandoning decryption attempt")

	settled := make(chan struct{})
	go func() {
		defer close(settled)
		result := <-done
		if !result.Success || result.DecryptedPath == "" {
			return
		}
		if req.Keep {
			entry.WithField("output", result.DecryptedPath).Info("Abandoned attempt finished, output kept")
			return
		}
		report := svc.Cleanup(result.DecryptedPath)
		entry.WithFields(logrus.Fields{
			"output": result.DecryptedPath,
			"files":  report.FilesWiped,
		}).Info("Abandoned attempt finished, output removed")
	}()
	return settled
}

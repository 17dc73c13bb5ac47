package inspect

import (
	"fmt"

	"github.com/deploymenttheory/go-ibackup/pkg/app"
	"github.com/deploymenttheory/go-ibackup/pkg/services"
)

// Handle processes an inspection request
func Handle(ctx *app.Context, req *Request) (*Response, error) {
	return HandleWith(ctx, req, services.NewBackupService(services.Config{Logger: ctx.Logger}))
}

// HandleWith processes an inspection request using svc
func HandleWith(ctx *app.Context, req *Request, svc services.BackupService) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx.Log(fmt.Sprintf("Inspecting backup: %s", req.Target.Path))
	ctx.Progress("Reading manifest...", 10)

	summary, err := svc.InspectBackup(req.Target.Path)
	if err != nil {
		return nil, app.NewError(app.ErrCodeBackupAccess, "cannot read backup manifest", err)
	}

	resp := &Response{BackupSummary: *summary}

	if req.Password != "" && summary.IsEncrypted {
		ctx.Progress("Checking password...", 50)
		resp.PasswordChecked = true
		resp.PasswordValid = svc.VerifyPassword(req.Target.Path, req.Password)
	}

	ctx.Progress("Complete", 100)
	return resp, nil
}

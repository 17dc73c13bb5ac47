package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-ibackup/pkg/app"
	"github.com/deploymenttheory/go-ibackup/pkg/app/inspect"
)

var inspectPassword passwordFlags

var inspectCmd = &cobra.Command{
	Use:   "inspect [backup-dir]",
	Short: "Show device, encryption and keybag details of a backup",
	Long: `Read Manifest.plist and the keybag it carries. No password is needed; when one
is given with --password or --password-stdin the output also says whether it is
correct.`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectPassword.register(inspectCmd)
}

func runInspect(cmd *cobra.Command, backupPath string) error {
	ctx := newContext(cmd)

	password, err := inspectPassword.resolve(cmd, false)
	if err != nil {
		return err
	}

	response, err := inspect.Handle(ctx, &inspect.Request{
		Target:   app.BackupTarget{Path: backupPath},
		Password: password,
	})
	if err != nil {
		return err
	}

	return inspect.WriteOutput(cmd.OutOrStdout(), response, ctx.OutputFormat)
}

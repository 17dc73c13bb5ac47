package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-ibackup/pkg/app"
	"github.com/deploymenttheory/go-ibackup/pkg/app/verify"
)

var verifyPassword passwordFlags

var verifyCmd = &cobra.Command{
	Use:   "verify [backup-dir]",
	Short: "Check a backup password without decrypting anything",
	Long: `Derive the backup keys from the password and try to unwrap the keybag class
keys. Exits non-zero when the password is wrong or the backup is not encrypted.`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVerify(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyPassword.register(verifyCmd)
}

func runVerify(cmd *cobra.Command, backupPath string) error {
	ctx := newContext(cmd)

	password, err := verifyPassword.resolve(cmd, true)
	if err != nil {
		return err
	}

	response, err := verify.Handle(ctx, &verify.Request{
		Target:   app.BackupTarget{Path: backupPath},
		Password: password,
	})
	if err != nil {
		return err
	}

	if err := verify.WriteOutput(cmd.OutOrStdout(), response, ctx.OutputFormat); err != nil {
		return err
	}

	switch {
	case !response.Encrypted:
		return app.NewError(app.ErrCodeDecryptionFailed, "Backup is not encrypted", nil)
	case !response.Valid:
		return app.NewError(app.ErrCodeIncorrectPassword, "Incorrect password", nil)
	}
	return nil
}

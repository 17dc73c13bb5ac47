package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-ibackup/pkg/app"
	"github.com/deploymenttheory/go-ibackup/pkg/app/decrypt"
)

var (
	decryptPassword passwordFlags
	outRoot         string
	decryptTimeout  time.Duration
	keepAbandoned   bool
)

var decryptCmd = &cobra.Command{
	Use:   "decrypt [backup-dir]",
	Short: "Decrypt the Messages and Contacts databases from an encrypted backup",
	Long: `Decrypt sms.db and AddressBook.sqlitedb from an encrypted backup into a new
directory named decrypted-backup-<uuid> under the output root.

A missing database is reported as skipped; the command still succeeds. A wrong
password fails before any output directory is created.

Examples:
  # Prompt for the password
  ibackup decrypt ~/Library/Application\ Support/MobileSync/Backup/00008120-000A

  # Read the password from a pipe and write JSON
  echo "$BACKUP_PASSWORD" | ibackup decrypt ./backup --password-stdin -o json

  # Give up after two minutes
  ibackup decrypt ./backup --timeout 2m --out-root /secure/scratch`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecrypt(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(decryptCmd)

	decryptPassword.register(decryptCmd)
	decryptCmd.Flags().StringVar(&outRoot, "out-root", "", "parent directory for decrypted output (default: output_root from config)")
	decryptCmd.Flags().DurationVar(&decryptTimeout, "timeout", 0, "abandon decryption after this long (default: decrypt_timeout from config)")
	decryptCmd.Flags().BoolVar(&keepAbandoned, "keep", false, "keep output from an attempt abandoned by --timeout")
}

func runDecrypt(cmd *cobra.Command, backupPath string) error {
	ctx := newContext(cmd)

	password, err := decryptPassword.resolve(cmd, true)
	if err != nil {
		return err
	}

	request := &decrypt.Request{
		Target:     app.BackupTarget{Path: backupPath},
		Password:   password,
		OutputRoot: cfg.OutputRoot,
		TempDir:    cfg.TempDir,
		Timeout:    cfg.DecryptTimeout,
		Keep:       keepAbandoned,
	}
	if outRoot != "" {
		request.OutputRoot = outRoot
	}
	if cmd.Flags().Changed("timeout") {
		request.Timeout = decryptTimeout
	}

	response, err := decrypt.Handle(ctx, request)
	if err != nil {
		var timedOut *decrypt.TimeoutError
		if errors.As(err, &timedOut) {
			// The process exits right after; let the attempt release its files first.
			ctx.Error("Decryption timed out, waiting for the abandoned attempt to clean up")
			timedOut.Wait(ctx)
		}
		return err
	}

	return decrypt.WriteOutput(cmd.OutOrStdout(), response, ctx.OutputFormat)
}

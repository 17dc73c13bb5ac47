package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-ibackup/pkg/app/cleanup"
)

var forceCleanup bool

var cleanupCmd = &cobra.Command{
	Use:   "cleanup [decrypted-dir]",
	Short: "Securely delete a decrypted output directory",
	Long: `Overwrite every file in a directory produced by decrypt with zeros, delete it,
then remove the directory. A path that no longer exists is not an error.`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := newContext(cmd)

		response, err := cleanup.Handle(ctx, &cleanup.Request{Path: args[0], Force: forceCleanup})
		if err != nil {
			return err
		}
		return cleanup.WriteOutput(cmd.OutOrStdout(), response, ctx.OutputFormat)
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.Flags().BoolVar(&forceCleanup, "force", false, "allow removing a directory not named decrypted-backup-*")
}

package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-ibackup/pkg/app"
)

var (
	// Global output flags
	verbose      bool
	quiet        bool
	outputFormat string
	configFile   string

	// Loaded in PersistentPreRunE
	cfg    *Config
	logger *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ibackup",
	Short: "Decrypt the Messages and Contacts databases from encrypted device backups",
	Long: `ibackup recovers the Messages (sms.db) and Contacts (AddressBook.sqlitedb)
databases from a password-protected iPhone or iPad backup directory.

The backup password unlocks the keybag stored in Manifest.plist. The keybag
class keys unlock Manifest.db, which in turn holds the per-file keys for the
two databases. Nothing is written back to the backup.

Commands:
  decrypt     Decrypt Messages and Contacts into a new directory
  verify      Check a backup password without decrypting anything
  inspect     Show device, encryption and keybag details
  cleanup     Securely delete a decrypted output directory`,
	Version:           "0.1.0-dev",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", app.FormatTable, "output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ibackup-config.yaml in ., ./config, $HOME/.ibackup, /etc/ibackup)")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

func setup(cmd *cobra.Command, _ []string) error {
	if !app.ValidFormat(outputFormat) {
		return app.NewError(app.ErrCodeInvalidInput, fmt.Sprintf("unsupported output format: %s", outputFormat), nil)
	}

	loaded, err := LoadConfig(configFile)
	if err != nil {
		return err
	}
	cfg = loaded

	logger, err = NewLogger(cfg, cmd.ErrOrStderr(), verbose, quiet)
	return err
}

// newContext builds the application context for a command run
func newContext(cmd *cobra.Command) *app.Context {
	ctx := app.NewContext()
	if c := cmd.Context(); c != nil {
		ctx.Context = c
	}
	ctx.OutputFormat = GetOutputFormat()
	ctx.Verbose = GetVerbose()
	ctx.Quiet = GetQuiet()
	if logger != nil {
		ctx.Logger = logger
	}
	if ctx.Verbose && !ctx.Quiet {
		ctx.SetProgress(func(message string, percent int) {
			ctx.Logger.WithField("percent", percent).Info(message)
		})
	}
	return ctx
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}

// GetQuiet returns the quiet flag value
func GetQuiet() bool {
	return quiet
}

// GetOutputFormat returns the output format
func GetOutputFormat() string {
	return outputFormat
}

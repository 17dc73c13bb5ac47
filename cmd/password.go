package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// passwordFlags are the password sources shared by several commands
type passwordFlags struct {
	value string
	stdin bool
}

func (p *passwordFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&p.value, "password", "p", "", "backup password (visible in process listings; prefer --password-stdin or the prompt)")
	cmd.Flags().BoolVar(&p.stdin, "password-stdin", false, "read the backup password from the first line of stdin")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
}

// resolve returns the password from the flag, stdin, or an interactive prompt.
// With prompt false and no other source, it returns "".
func (p *passwordFlags) resolve(cmd *cobra.Command, prompt bool) (string, error) {
	if p.value != "" {
		return p.value, nil
	}
	if p.stdin {
		return readPasswordLine(cmd)
	}
	if !prompt {
		return "", nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no password given: use --password, --password-stdin or run in a terminal")
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Backup password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}

func readPasswordLine(cmd *cobra.Command) (string, error) {
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

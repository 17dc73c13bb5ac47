package inspect

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-ibackup/pkg/app"
)

// FormatOutput writes the backup summary to stdout
func FormatOutput(response *Response, format string) error {
	return WriteOutput(os.Stdout, response, format)
}

// WriteOutput writes the backup summary to w according to format
func WriteOutput(w io.Writer, response *Response, format string) error {
	switch format {
	case app.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(response)
	case app.FormatYAML:
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		encoder.SetIndent(2)
		return encoder.Encode(response)
	case app.FormatTable:
		return formatTable(w, response)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func joinClasses(classes []uint32) string {
	if len(classes) == 0 {
		return "none"
	}
	parts := make([]string, len(classes))
	for i, c := range classes {
		parts[i] = strconv.FormatUint(uint64(c), 10)
	}
	return strings.Join(parts, ", ")
}

func formatTable(out io.Writer, response *Response) error {
	s := &response.BackupSummary
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Backup:\t%s\n", s.Path)
	fmt.Fprintf(w, "Encrypted:\t%s\n", yesNo(s.IsEncrypted))
	if s.Lockdown.DeviceName != "" {
		fmt.Fprintf(w, "Device:\t%s (%s)\n", s.Lockdown.DeviceName, s.Lockdown.ProductType)
	}
	if s.Lockdown.ProductVersion != "" {
		fmt.Fprintf(w, "iOS:\t%s (%s)\n", s.Lockdown.ProductVersion, s.Lockdown.BuildVersion)
	}
	if s.Lockdown.SerialNumber != "" {
		fmt.Fprintf(w, "Serial:\t%s\n", s.Lockdown.SerialNumber)
	}
	if !s.Date.IsZero() {
		fmt.Fprintf(w, "Date:\t%s\n", s.Date.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(w, "Passcode set:\t%s\n", yesNo(s.WasPasscodeSet))

	if kb := s.Keybag; kb != nil {
		fmt.Fprintf(w, "Keybag UUID:\t%s\n", kb.UUID)
		fmt.Fprintf(w, "Keybag type:\t%d\n", kb.Type)
		fmt.Fprintf(w, "Iterations:\t%d + %d\n", kb.Iterations, kb.SecondRoundIter)
		fmt.Fprintf(w, "Password classes:\t%s\n", joinClasses(kb.PasswordClasses))
	}
	if response.PasswordChecked {
		fmt.Fprintf(w, "Password:\t%s\n", map[bool]string{true: "correct", false: "incorrect"}[response.PasswordValid])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if s.Keybag == nil || len(s.Keybag.ClassKeys) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "CLASS\tNAME\tWRAP\tKEY TYPE\n")
	fmt.Fprintf(w, "-----\t----\t----\t--------\n")
	for _, ck := range s.Keybag.ClassKeys {
		wrap := fmt.Sprintf("%d", ck.Wrap)
		if ck.Asymmetric {
			wrap += " (asymmetric)"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", ck.Class, ck.Name, wrap, ck.KeyType)
	}
	return w.Flush()
}

package decrypt

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-ibackup/pkg/app"
	"github.com/deploymenttheory/go-ibackup/pkg/services"
)

// FormatOutput writes decryption results to stdout
func FormatOutput(response *Response, format string) error {
	return WriteOutput(os.Stdout, response, format)
}

// WriteOutput writes decryption results to w according to format
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

func formatTable(out io.Writer, response *Response) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "FILE\tFILE ID\tSTATUS\tSIZE\tDETAIL\n")
	fmt.Fprintf(w, "----\t-------\t------\t----\t------\n")

	for _, f := range response.Files {
		size, detail := "-", f.Reason
		if f.Status == services.FileStatusDecrypted {
			size = app.FormatBytes(f.Size)
			detail = f.OutputPath
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", f.Name, app.ShortID(f.FileID), f.Status, size, detail)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nDecrypted %d of %d files to %s in %v\n",
		response.DecryptedCount(), len(response.Files), response.DecryptedPath, response.Duration.Round(time.Millisecond))
	return nil
}

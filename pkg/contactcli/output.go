package contactcli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/gatezh/contactform/pkg/models"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// ParseOutputFormat parses a string into an OutputFormat
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(s) {
	case "table", "":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("invalid output format: %s (use table, json, or yaml)", s)
	}
}

// Formatter handles output formatting
type Formatter struct {
	Format OutputFormat
	Writer io.Writer
}

// NewFormatter creates a new formatter with the given format
func NewFormatter(format OutputFormat) *Formatter {
	return &Formatter{
		Format: format,
		Writer: os.Stdout,
	}
}

// PrintJSON outputs data as formatted JSON
func (f *Formatter) PrintJSON(data interface{}) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// PrintYAML outputs data as YAML
func (f *Formatter) PrintYAML(data interface{}) error {
	return yaml.NewEncoder(f.Writer).Encode(data)
}

// resultView gives YAML output the same keys as the JSON response.
type resultView struct {
	Success   bool   `json:"success" yaml:"success"`
	Message   string `json:"message" yaml:"message"`
	ID        string `json:"id,omitempty" yaml:"id,omitempty"`
	EmailSent *bool  `json:"emailSent,omitempty" yaml:"emailSent,omitempty"`
}

// PrintResult outputs the endpoint's answer to a submission
func (f *Formatter) PrintResult(result *models.NotificationResult) error {
	view := resultView(*result)
	switch f.Format {
	case FormatJSON:
		return f.PrintJSON(view)
	case FormatYAML:
		return f.PrintYAML(view)
	default:
		w := tabwriter.NewWriter(f.Writer, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Status:\t%s\n", result.Message)
		if result.ID != "" {
			fmt.Fprintf(w, "ID:\t%s\n", result.ID)
		}
		if result.EmailSent != nil {
			sent := "no"
			if *result.EmailSent {
				sent = "yes"
			}
			fmt.Fprintf(w, "Email sent:\t%s\n", sent)
		}
		return w.Flush()
	}
}

// PrintSubmission outputs a summary of a submission before it is sent
func (f *Formatter) PrintSubmission(sub *models.Submission) {
	fmt.Fprintln(f.Writer, "Submission Summary:")
	fmt.Fprintf(f.Writer, "  Name:    %s\n", sub.Name)
	fmt.Fprintf(f.Writer, "  Email:   %s\n", sub.Email)
	if sub.HasSubject() {
		fmt.Fprintf(f.Writer, "  Subject: %s\n", truncate(sub.Subject, 60))
	}
	fmt.Fprintf(f.Writer, "  Message: %s\n", truncate(strings.ReplaceAll(sub.Message, "\n", " "), 60))
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

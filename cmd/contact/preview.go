package main

import (
	"errors"
	"fmt"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/gatezh/contactform/pkg/contactcli"
	"github.com/gatezh/contactform/pkg/email"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render the notification email for a submission",
	Long: `Renders the notification email the endpoint would send for a submission,
without contacting the endpoint. The plain-text version is printed; with --open
the HTML version is written to a temporary file and opened in your browser.`,
	Example: `  contact preview --name "Jane" --email jane@example.com --message "Hi <b>there</b>"
  contact preview --file message.yaml --open`,
	Args: cobra.NoArgs,
	RunE: runPreview,
}

var (
	previewInput submissionInput
	previewSite  string
	previewOpen  bool
)

func init() {
	previewInput.register(previewCmd)
	previewCmd.Flags().StringVar(&previewSite, "site-name", "", "Site name used in the email heading")
	previewCmd.Flags().BoolVar(&previewOpen, "open", false, "Open the HTML version in your browser")
}

func runPreview(cmd *cobra.Command, args []string) error {
	sub, err := previewInput.read(contactcli.NewEditor())
	if err != nil {
		if errors.Is(err, contactcli.ErrEditorCancelled) {
			fmt.Println("Preview cancelled.")
			return nil
		}
		return err
	}

	html, text, err := email.RenderContact(sub, previewSite)
	if err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Subject: %s\n\n%s\n", email.SubjectFor(sub), text)

	if !previewOpen {
		return nil
	}

	// The file is left in place so the browser can finish loading it
	path, _, err := contactcli.CreateTempFile(html, "contact-preview-", ".html")
	if err != nil {
		return err
	}
	if err := browser.OpenFile(path); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	fmt.Fprintf(out, "Opened %s\n", path)
	return nil
}

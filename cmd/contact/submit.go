package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gatezh/contactform/pkg/contactcli"
	"github.com/gatezh/contactform/pkg/models"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Send a contact form submission",
	Long: `Sends a submission to the contact endpoint.

When --name, --email and --message are all given the submission is sent as is.
Otherwise your editor opens a YAML template pre-filled with any flags you passed.
Your default editor is determined by $EDITOR, $VISUAL, or falls back to vim.`,
	Example: `  # Write the message in your editor
  contact submit

  # Send without an editor
  contact submit --name "Jane Doe" --email jane@example.com --message "Hello!" --yes

  # Send from a YAML file
  contact submit --file message.yaml

  # Validate without sending
  contact submit --file message.yaml --dry-run`,
	Args: cobra.NoArgs,
	RunE: runSubmit,
}

// submissionInput holds the flags shared by submit and preview.
type submissionInput struct {
	name         string
	email        string
	subject      string
	message      string
	captchaToken string
	file         string
}

func (in *submissionInput) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&in.name, "name", "", "Sender name")
	cmd.Flags().StringVar(&in.email, "email", "", "Sender email address")
	cmd.Flags().StringVar(&in.subject, "subject", "", "Subject line (optional)")
	cmd.Flags().StringVarP(&in.message, "message", "m", "", "Message body")
	cmd.Flags().StringVar(&in.captchaToken, "captcha-token", "", "Turnstile token, for endpoints that require one")
	cmd.Flags().StringVarP(&in.file, "file", "f", "", "Read the submission from a YAML file (no editor)")
}

func (in *submissionInput) prefill() *models.Submission {
	return &models.Submission{
		Name:         in.name,
		Email:        in.email,
		Subject:      in.subject,
		Message:      in.message,
		CaptchaToken: in.captchaToken,
	}
}

// read builds a validated submission from a file, the flags, or the editor.
func (in *submissionInput) read(ed *contactcli.Editor) (*models.Submission, error) {
	if in.file != "" {
		data, err := os.ReadFile(in.file)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		sub, err := contactcli.ParseTemplate(string(data))
		if err != nil {
			return nil, fmt.Errorf("invalid submission: %w", err)
		}
		if sub.CaptchaToken == "" {
			sub.CaptchaToken = in.captchaToken
		}
		return sub, nil
	}

	if in.name != "" && in.email != "" && in.message != "" {
		sub, err := contactcli.ValidateSubmission(in.prefill())
		if err != nil {
			return nil, fmt.Errorf("invalid submission: %w", err)
		}
		return sub, nil
	}

	var sub *models.Submission
	validate := func(c string) error {
		s, err := contactcli.ParseTemplate(c)
		if err != nil {
			return err
		}
		sub = s
		return nil
	}

	if _, err := ed.EditLoop(contactcli.GenerateTemplate(in.prefill()), "contact-", validate); err != nil {
		return nil, err
	}
	return sub, nil
}

var (
	submitInput  submissionInput
	submitDryRun bool
	submitYes    bool
)

func init() {
	submitInput.register(submitCmd)
	submitCmd.Flags().BoolVar(&submitDryRun, "dry-run", false, "Validate the submission without sending it")
	submitCmd.Flags().BoolVarP(&submitYes, "yes", "y", false, "Send without asking for confirmation")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	formatter, err := getFormatter()
	if err != nil {
		return err
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	sub, err := submitInput.read(contactcli.NewEditor())
	if err != nil {
		if errors.Is(err, contactcli.ErrEditorCancelled) {
			fmt.Println("Submission cancelled.")
			return nil
		}
		return err
	}

	fmt.Println()
	formatter.PrintSubmission(sub)

	if submitDryRun {
		fmt.Println("\nDry run - submission is valid but was not sent.")
		return nil
	}

	if !submitYes && !confirm(os.Stdin, "\nSend this message? [Y/n] ") {
		fmt.Println("Submission cancelled.")
		return nil
	}

	result, err := client.Submit(sub)
	if err != nil {
		return fmt.Errorf("failed to send submission: %w", err)
	}

	fmt.Println()
	return formatter.PrintResult(result)
}

// confirm prompts on stdout and treats an empty answer as yes.
func confirm(in io.Reader, prompt string) bool {
	fmt.Print(prompt)
	response, _ := bufio.NewReader(in).ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "" || response == "y" || response == "yes"
}

package contactcli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gatezh/contactform/pkg/contact"
	"github.com/gatezh/contactform/pkg/models"
)

// SubmissionTemplate is the structure used for YAML template editing
type SubmissionTemplate struct {
	Name         string `yaml:"name"`
	Email        string `yaml:"email"`
	Subject      string `yaml:"subject,omitempty"`
	Message      string `yaml:"message"`
	CaptchaToken string `yaml:"captcha_token,omitempty"`
}

// GenerateTemplate creates a YAML template for a submission, pre-filled with
// any values already given on the command line.
func GenerateTemplate(prefill *models.Submission) string {
	var sb strings.Builder

	sb.WriteString("# Contact form submission\n")
	sb.WriteString("#\n")
	sb.WriteString("# Fill in the fields below and save the file.\n")
	sb.WriteString("# Lines starting with # are comments and will be ignored.\n\n")

	sb.WriteString(fmt.Sprintf("# Required, up to %d characters\n", models.MaxNameLength))
	sb.WriteString(fmt.Sprintf("name: %s\n\n", quote(prefill.Name)))

	sb.WriteString("# Required, replies go to this address\n")
	sb.WriteString(fmt.Sprintf("email: %s\n\n", quote(prefill.Email)))

	sb.WriteString(fmt.Sprintf("# Optional, up to %d characters\n", models.MaxSubjectLength))
	sb.WriteString(fmt.Sprintf("subject: %s\n\n", quote(prefill.Subject)))

	sb.WriteString(fmt.Sprintf("# Required, up to %d characters\n", models.MaxMessageLength))
	sb.WriteString("message: |\n")
	if prefill.Message == "" {
		sb.WriteString("  Write your message here.\n")
	} else {
		for _, line := range strings.Split(prefill.Message, "\n") {
			sb.WriteString("  " + line + "\n")
		}
	}

	if prefill.CaptchaToken != "" {
		sb.WriteString(fmt.Sprintf("\ncaptcha_token: %s\n", quote(prefill.CaptchaToken)))
	}

	return sb.String()
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// ParseTemplate parses a YAML template into a Submission and checks it with
// the same rules the endpoint applies.
func ParseTemplate(content string) (*models.Submission, error) {
	var tmpl SubmissionTemplate
	if err := yaml.Unmarshal([]byte(content), &tmpl); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	return ValidateSubmission(&models.Submission{
		Name:         tmpl.Name,
		Email:        tmpl.Email,
		Subject:      tmpl.Subject,
		Message:      tmpl.Message,
		CaptchaToken: tmpl.CaptchaToken,
	})
}

// ValidateSubmission runs the endpoint's field rules locally and returns the
// trimmed submission.
func ValidateSubmission(sub *models.Submission) (*models.Submission, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal submission: %w", err)
	}

	valid, err := contact.NewValidator(false).Parse(body)
	if err != nil {
		var ce *contact.Error
		if errors.As(err, &ce) && ce.Details != "" {
			return nil, errors.New(ce.Details)
		}
		return nil, err
	}
	return valid, nil
}

package models

import "strings"

// Field limits for a contact form submission, counted in characters of the
// trimmed value.
const (
	MaxNameLength    = 100
	MaxEmailLength   = 254
	MaxSubjectLength = 200
	MaxMessageLength = 10000
)

// Submission is a validated contact form submission.
//
// Example JSON body accepted by POST /:
//
//	{
//	  "name": "Jane Doe",
//	  "email": "jane@example.com",
//	  "subject": "Hello",
//	  "message": "Loved the last post!",
//	  "captchaToken": "0.xxxx"
//	}
type Submission struct {
	Name         string `json:"name" validate:"required,max=100"`
	Email        string `json:"email" validate:"required,max=254,contactemail"`
	Subject      string `json:"subject,omitempty" validate:"max=200"`
	Message      string `json:"message" validate:"required,max=10000"`
	CaptchaToken string `json:"captchaToken,omitempty"`
}

// HasSubject reports whether the sender supplied a subject line.
func (s *Submission) HasSubject() bool {
	return s.Subject != ""
}

// Trim returns a copy with surrounding whitespace removed from every field.
func (s Submission) Trim() Submission {
	return Submission{
		Name:         strings.TrimSpace(s.Name),
		Email:        strings.TrimSpace(s.Email),
		Subject:      strings.TrimSpace(s.Subject),
		Message:      strings.TrimSpace(s.Message),
		CaptchaToken: strings.TrimSpace(s.CaptchaToken),
	}
}

// NotificationResult is the JSON body returned for a successful submission.
// EmailSent is only present when the table sink is the primary action.
type NotificationResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ID        string `json:"id,omitempty"`
	EmailSent *bool  `json:"emailSent,omitempty"`
}

// ErrorResponse is the JSON body returned for every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

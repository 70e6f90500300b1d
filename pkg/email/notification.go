package email

import (
	"fmt"

	"github.com/gatezh/contactform/pkg/models"
)

const contactTemplate = "contact_notification"

// NotifyConfig holds the settings needed to build the owner notification.
type NotifyConfig struct {
	From     string
	FromName string
	To       string
	SiteName string
}

// contactData is the template data for the contact notification. Values are
// raw; the HTML template escapes each one.
type contactData struct {
	Name     string
	Email    string
	Subject  string
	Message  string
	SiteName string
}

// sender formats the From header, adding the display name when set.
func (n *NotifyConfig) sender() string {
	if n.FromName == "" {
		return n.From
	}
	return fmt.Sprintf("%s <%s>", n.FromName, n.From)
}

// SubjectFor returns the notification subject line for a submission.
func SubjectFor(sub *models.Submission) string {
	if sub.HasSubject() {
		return "Contact: " + sub.Subject
	}
	return "Contact from " + sub.Name
}

// RenderContact renders the HTML and plain-text bodies for a submission.
func RenderContact(sub *models.Submission, siteName string) (html, text string, err error) {
	return Render(contactTemplate, contactData{
		Name:     sub.Name,
		Email:    sub.Email,
		Subject:  sub.Subject,
		Message:  sub.Message,
		SiteName: siteName,
	})
}

// BuildContactMessage renders the notification for a submission, addressed
// to the site owner with Reply-To set to the sender.
func BuildContactMessage(ncfg *NotifyConfig, sub *models.Submission) (*Message, error) {
	html, text, err := RenderContact(sub, ncfg.SiteName)
	if err != nil {
		return nil, err
	}

	return &Message{
		To:      []string{ncfg.To},
		From:    ncfg.sender(),
		ReplyTo: sub.Email,
		Subject: SubjectFor(sub),
		HTML:    html,
		Text:    text,
	}, nil
}

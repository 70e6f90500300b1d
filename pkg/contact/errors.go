package contact

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure. The HTTP layer maps kinds to status
// codes; nothing below it knows about HTTP.
type Kind int

const (
	KindUnexpected Kind = iota
	KindMalformedBody
	KindInvalidField
	KindCaptchaRejected
	KindConfiguration
	KindUpstreamUnavailable
	KindSinkUnavailable
	KindNotificationFailed
)

func (k Kind) String() string {
	switch k {
	case KindMalformedBody:
		return "malformed_body"
	case KindInvalidField:
		return "invalid_field"
	case KindCaptchaRejected:
		return "captcha_rejected"
	case KindConfiguration:
		return "configuration_error"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindSinkUnavailable:
		return "sink_unavailable"
	case KindNotificationFailed:
		return "notification_failed"
	default:
		return "unexpected_error"
	}
}

// Messages returned to callers. Upstream error bodies never appear here.
const (
	MsgMalformedBody      = "Invalid JSON in request body"
	MsgInvalidForm        = "Invalid form data. Please check all fields and try again."
	MsgCaptchaRejected    = "Captcha verification failed. Please try again."
	MsgConfiguration      = "Server configuration error. Please contact the administrator."
	MsgCaptchaUnavailable = "Captcha verification is unavailable. Please try again later."
	MsgSaveFailed         = "Failed to save submission. Please try again later."
	MsgSendFailed         = "Failed to send message. Please try again later."
	MsgUnexpected         = "An unexpected error occurred. Please try again later."
	MsgReceived           = "Your message has been received successfully!"
	MsgSent               = "Thank you! Your message has been sent successfully."
)

// Error is a classified pipeline failure. Message is safe to show to the
// caller; Err holds the internal cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindUnexpected when err is not a
// pipeline error.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnexpected
}

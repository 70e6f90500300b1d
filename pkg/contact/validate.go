package contact

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gatezh/contactform/pkg/models"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// tokenAliases lists body keys accepted for the CAPTCHA token, in priority order.
var tokenAliases = []string{"captchaToken", "turnstileToken"}

// Validator turns a raw request body into a trimmed, validated Submission.
type Validator struct {
	validate        *validator.Validate
	captchaRequired bool
}

// NewValidator creates a Validator. When captchaRequired is set a missing
// token is a field error.
func NewValidator(captchaRequired bool) *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("contactemail", validateEmail)

	return &Validator{validate: v, captchaRequired: captchaRequired}
}

// validateEmail checks the simple local@domain.tld shape
func validateEmail(fl validator.FieldLevel) bool {
	return IsValidEmail(fl.Field().String())
}

// IsValidEmail reports whether s has the local@domain.tld shape.
func IsValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// Parse decodes and validates body.
func (v *Validator) Parse(body []byte) (*models.Submission, error) {
	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, newError(KindMalformedBody, MsgMalformedBody, err)
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, invalidField("request body must be a JSON object")
	}

	var problems []string
	wrongType := map[string]bool{}
	str := func(key string) string {
		val, present := obj[key]
		if !present || val == nil {
			return ""
		}
		s, ok := val.(string)
		if !ok {
			problems = append(problems, key+" must be a string")
			wrongType[key] = true
			return ""
		}
		return s
	}

	sub := models.Submission{
		Name:    str("name"),
		Email:   str("email"),
		Subject: str("subject"),
		Message: str("message"),
	}
	for _, key := range tokenAliases {
		if tok := str(key); tok != "" && sub.CaptchaToken == "" {
			sub.CaptchaToken = tok
		}
	}
	sub = sub.Trim()

	if err := v.validate.Struct(&sub); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, newError(KindUnexpected, MsgUnexpected, err)
		}
		for _, fe := range verrs {
			if !wrongType[fe.Field()] {
				problems = append(problems, describe(fe))
			}
		}
	}
	if v.captchaRequired && sub.CaptchaToken == "" {
		problems = append(problems, "captchaToken is required")
	}

	if len(problems) > 0 {
		return nil, invalidField(strings.Join(problems, "; "))
	}
	return &sub, nil
}

func invalidField(details string) *Error {
	return &Error{Kind: KindInvalidField, Message: MsgInvalidForm, Details: details}
}

// describe renders a field error as a short sentence for the details field.
func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "contactemail":
		return fe.Field() + " must be a valid email address"
	default:
		return fe.Field() + " is invalid"
	}
}

// Package validation performs schema validation of request payloads
// before anything touches persistence. Validation is all-or-nothing:
// a payload either normalizes to a typed value or produces the full
// set of field-level violations.
package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError represents a single field-level violation
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RegisterInput is the registration request schema
type RegisterInput struct {
	Email    string `json:"email" validate:"required,strict_email"`
	Password string `json:"password" validate:"required"`
	Forename string `json:"forename" validate:"required,max=50"`
	Surname  string `json:"surname" validate:"required,max=50"`
}

// LoginInput is the login request schema
type LoginInput struct {
	Email    string `json:"email" validate:"required,strict_email"`
	Password string `json:"password" validate:"required"`
}

// Validator wraps a configured validator/v10 instance
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator with the custom rules registered
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report violations under the JSON field name, not the Go field name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("strict_email", func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	})

	return &Validator{validate: v}
}

// Struct validates a schema struct and returns all violations.
// Required-field failures are reported as such, distinct from
// malformed-but-present values.
func (v *Validator) Struct(s interface{}) []FieldError {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var errs []FieldError
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs = append(errs, FieldError{Field: "body", Message: "Invalid request payload"})
		return errs
	}

	for _, fe := range validationErrs {
		errs = append(errs, FieldError{
			Field:   fe.Field(),
			Message: messageFor(fe),
		})
	}
	return errs
}

// messageFor maps a failed validation tag to a client-facing message
func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "strict_email":
		return "Invalid email format"
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// Details groups field errors into the details map used by API error
// responses.
func Details(errs []FieldError) map[string][]string {
	details := make(map[string][]string)
	for _, fe := range errs {
		details[fe.Field] = append(details[fe.Field], fe.Message)
	}
	return details
}

// NormalizeEmail lower-cases and trims an email for storage and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

const (
	maxLocalPartLength = 64
	maxDomainLength    = 253
	maxLabelLength     = 63
)

// IsValidEmail checks an address against a bounded grammar: exactly one
// "@", a restricted local part with no leading/trailing/consecutive
// dots, dot-separated domain labels of 1-63 characters, and an
// alphabetic TLD of at least 2 characters. Whitespace anywhere makes
// the address invalid, so callers must trim before validating.
func IsValidEmail(email string) bool {
	if email == "" {
		return false
	}

	at := strings.IndexByte(email, '@')
	if at < 0 || strings.IndexByte(email[at+1:], '@') >= 0 {
		return false
	}

	local, domain := email[:at], email[at+1:]
	return isValidLocalPart(local) && isValidDomain(domain)
}

func isValidLocalPart(local string) bool {
	if local == "" || len(local) > maxLocalPartLength {
		return false
	}
	if local[0] == '.' || local[len(local)-1] == '.' {
		return false
	}
	if strings.Contains(local, "..") {
		return false
	}
	for i := 0; i < len(local); i++ {
		c := local[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.' || c == '_' || c == '+' || c == '-':
		default:
			return false
		}
	}
	return true
}

func isValidDomain(domain string) bool {
	if domain == "" || len(domain) > maxDomainLength {
		return false
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}

	for _, label := range labels {
		if len(label) == 0 || len(label) > maxLabelLength {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			switch {
			case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			case c == '-':
			default:
				return false
			}
		}
	}

	// Final label is the TLD: at least 2 characters, letters only
	tld := labels[len(labels)-1]
	if len(tld) < 2 {
		return false
	}
	for i := 0; i < len(tld); i++ {
		c := tld[i]
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
			return false
		}
	}

	return true
}

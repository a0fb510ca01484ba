// Package validation provides input validation for Book Exchange Hub API requests.
package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/domain"
)

// Validation error types for specific error handling.
var (
	ErrEmptyValue    = errors.New("value cannot be empty")
	ErrTooLong       = errors.New("value exceeds maximum length")
	ErrTooShort      = errors.New("value below minimum length")
	ErrInvalidFormat = errors.New("invalid format")
	ErrWrongDomain   = errors.New("email domain not allowed")
	ErrNotInSet      = errors.New("value not in allowed set")
)

// Constraints for validation.
const (
	MaxTitleLength    = 255
	MaxNameLength     = 255
	MaxContactLength  = 500
	MaxMessageLength  = 2000
	MinPasswordLength = 6

	// DefaultEmailDomain is the institution domain accepted for accounts
	// unless configured otherwise.
	DefaultEmailDomain = "mnnit.ac.in"
)

// EmailError provides detailed email validation error information.
type EmailError struct {
	Email  string
	Reason string
	Err    error
}

func (e *EmailError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid email %q: %s", e.Email, e.Reason)
	}
	return fmt.Sprintf("invalid email %q: %v", e.Email, e.Err)
}

func (e *EmailError) Unwrap() error {
	return e.Err
}

// FieldError provides detailed error information for a named input field.
type FieldError struct {
	Field  string
	Reason string
	Err    error
}

func (e *FieldError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ValidateEmail validates an account email address. Only addresses under the
// given institution domain are accepted; an empty domain disables the check.
func ValidateEmail(email, allowedDomain string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &EmailError{Email: email, Reason: "cannot be empty", Err: ErrEmptyValue}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &EmailError{Email: email, Reason: "not a valid address", Err: ErrInvalidFormat}
	}
	if allowedDomain != "" && !strings.HasSuffix(strings.ToLower(email), "@"+strings.ToLower(allowedDomain)) {
		return &EmailError{
			Email:  email,
			Reason: fmt.Sprintf("only @%s addresses are allowed", allowedDomain),
			Err:    ErrWrongDomain,
		}
	}
	return nil
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(password string) error {
	if password == "" {
		return &FieldError{Field: "password", Reason: "cannot be empty", Err: ErrEmptyValue}
	}
	if len(password) < MinPasswordLength {
		return &FieldError{
			Field:  "password",
			Reason: fmt.Sprintf("must be at least %d characters", MinPasswordLength),
			Err:    ErrTooShort,
		}
	}
	return nil
}

// ValidateName validates a display name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &FieldError{Field: "name", Reason: "cannot be empty", Err: ErrEmptyValue}
	}
	if len(name) > MaxNameLength {
		return &FieldError{
			Field:  "name",
			Reason: fmt.Sprintf("exceeds maximum length of %d characters", MaxNameLength),
			Err:    ErrTooLong,
		}
	}
	return nil
}

// ValidateCreateBook validates all fields of a new listing.
func ValidateCreateBook(in domain.CreateBook) error {
	if err := validateTitle(in.Title); err != nil {
		return err
	}
	if err := validateOneOf("subject", in.Subject, domain.Subjects); err != nil {
		return err
	}
	if err := validateOneOf("condition", in.Condition, domain.Conditions); err != nil {
		return err
	}
	if err := validateOneOf("exchange_type", in.ExchangeType, domain.ExchangeTypes); err != nil {
		return err
	}
	if strings.TrimSpace(in.Image) == "" {
		return &FieldError{Field: "image", Reason: "an image is required", Err: ErrEmptyValue}
	}
	if strings.TrimSpace(in.ContactInfo) == "" {
		return &FieldError{Field: "contact_info", Reason: "contact information is required", Err: ErrEmptyValue}
	}
	if len(in.ContactInfo) > MaxContactLength {
		return &FieldError{
			Field:  "contact_info",
			Reason: fmt.Sprintf("exceeds maximum length of %d characters", MaxContactLength),
			Err:    ErrTooLong,
		}
	}
	return nil
}

// ValidateUpdateBook validates the set fields of a listing update.
func ValidateUpdateBook(in domain.UpdateBook) error {
	if in.Title != nil {
		if err := validateTitle(*in.Title); err != nil {
			return err
		}
	}
	if in.Subject != nil {
		if err := validateOneOf("subject", *in.Subject, domain.Subjects); err != nil {
			return err
		}
	}
	if in.Condition != nil {
		if err := validateOneOf("condition", *in.Condition, domain.Conditions); err != nil {
			return err
		}
	}
	if in.ExchangeType != nil {
		if err := validateOneOf("exchange_type", *in.ExchangeType, domain.ExchangeTypes); err != nil {
			return err
		}
	}
	if in.Image != nil && strings.TrimSpace(*in.Image) == "" {
		return &FieldError{Field: "image", Reason: "cannot be empty", Err: ErrEmptyValue}
	}
	if in.ContactInfo != nil && strings.TrimSpace(*in.ContactInfo) == "" {
		return &FieldError{Field: "contact_info", Reason: "cannot be empty", Err: ErrEmptyValue}
	}
	return nil
}

// ValidateMessageText validates a chat message body.
func ValidateMessageText(text string) error {
	if strings.TrimSpace(text) == "" {
		return &FieldError{Field: "text", Reason: "cannot be empty", Err: ErrEmptyValue}
	}
	if len(text) > MaxMessageLength {
		return &FieldError{
			Field:  "text",
			Reason: fmt.Sprintf("exceeds maximum length of %d characters", MaxMessageLength),
			Err:    ErrTooLong,
		}
	}
	return nil
}

func validateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return &FieldError{Field: "title", Reason: "cannot be empty", Err: ErrEmptyValue}
	}
	if len(title) > MaxTitleLength {
		return &FieldError{
			Field:  "title",
			Reason: fmt.Sprintf("exceeds maximum length of %d characters", MaxTitleLength),
			Err:    ErrTooLong,
		}
	}
	return nil
}

func validateOneOf(field, value string, allowed []string) error {
	for _, v := range allowed {
		if v == value {
			return nil
		}
	}
	return &FieldError{
		Field:  field,
		Reason: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
		Err:    ErrNotInSet,
	}
}

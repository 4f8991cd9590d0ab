package service

import (
	"strconv"
	"strings"

	"github.com/asaskevich/govalidator"
)

const (
	maxNameLength  = 100
	maxEmailLength = 254

	// Local mobile numbers: leading 09, ten digits in total.
	phonePattern = `^09\d{8}$`
)

// ValidationError reports a malformed or missing field. It is always raised
// before storage is touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// Emails are stored lower-cased, which also makes uniqueness case-insensitive.

func normalizeName(s string) string  { return strings.TrimSpace(s) }
func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
func normalizePhone(s string) string { return strings.TrimSpace(s) }

func validateName(name string) error {
	if name == "" {
		return invalid("name", "name is required")
	}
	if !govalidator.RuneLength(name, "1", strconv.Itoa(maxNameLength)) {
		return invalid("name", "name must be at most 100 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return invalid("email", "email is required")
	}
	if !govalidator.StringLength(email, "3", strconv.Itoa(maxEmailLength)) || !govalidator.IsEmail(email) {
		return invalid("email", "email is not a valid email address")
	}
	return nil
}

func validatePhone(phone string) error {
	if phone == "" {
		return invalid("phone", "phone is required")
	}
	if !govalidator.Matches(phone, phonePattern) {
		return invalid("phone", "phone must start with 09 and have 10 digits")
	}
	return nil
}

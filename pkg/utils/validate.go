package utils

import (
	"regexp"
	"strings"
)

const (
	MinPasswordLength = 8
	MaxNoteLength     = 2000
)

var (
	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

// ValidationError represents a validation error on a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateEmail checks basic email shape. Deliverability is not checked.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{Field: "email", Message: "Email is required"}
	}
	if len(email) > 255 || !emailRegex.MatchString(email) {
		return &ValidationError{Field: "email", Message: "Email is not valid"}
	}
	return nil
}

// ValidatePhone checks an optional phone number. Empty is allowed.
func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil
	}
	if !phoneRegex.MatchString(phone) {
		return &ValidationError{Field: "phone", Message: "Phone number is not valid"}
	}
	return nil
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return &ValidationError{Field: "password", Message: "Password must be at least 8 characters"}
	}
	return nil
}

// NormalizeEmail lowercases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

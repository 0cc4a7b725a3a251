package models

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validation errors
var (
	ErrNameRequired        = errors.New("name is required")
	ErrEmailInvalid        = errors.New("email is invalid")
	ErrPasswordTooShort    = errors.New("password must be at least 7 characters")
	ErrPasswordDisallowed  = errors.New("password cannot contain the word 'password'")
	ErrAgeNegative         = errors.New("age must be a positive number")
	ErrDescriptionRequired = errors.New("description is required")
)

// MinPasswordLength applies to the trimmed plaintext password.
const MinPasswordLength = 7

// NormalizeName trims the name and rejects empty values.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameRequired
	}
	return name, nil
}

// NormalizeEmail trims and lowercases the address, then checks it is
// syntactically valid. Emails are stored lowercase so uniqueness is
// case-insensitive.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Var(email, "required,email"); err != nil {
		return "", ErrEmailInvalid
	}
	return email, nil
}

// ValidatePassword trims the plaintext and enforces the password rules.
// Returns the trimmed plaintext ready for hashing.
func ValidatePassword(password string) (string, error) {
	password = strings.TrimSpace(password)
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	if strings.Contains(strings.ToLower(password), "password") {
		return "", ErrPasswordDisallowed
	}
	return password, nil
}

// ValidateAge rejects negative ages.
func ValidateAge(age int) error {
	if age < 0 {
		return ErrAgeNegative
	}
	return nil
}

// NormalizeDescription trims the task description and rejects empty values.
func NormalizeDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", ErrDescriptionRequired
	}
	return description, nil
}

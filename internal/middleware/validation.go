package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// MaxTextLength bounds free-text fields such as questions and answers.
	MaxTextLength = 10000
	// MaxImageLength bounds a report image data URI.
	MaxImageLength = 10 << 20
)

// MaxNameLength bounds short identity fields such as a patient's name.
const MaxNameLength = 128

// ValidateText checks a free-text field's size and encoding. Emptiness is
// left to the service, which trims first.
func ValidateText(field, content string, max int) error {
	if len(content) > max {
		return errors.New(field + " exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New(field + " must be valid UTF-8")
	}
	return nil
}

// ValidateID validates a UUID path parameter.
func ValidateID(field, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid " + field + " format")
	}
	return nil
}

// ValidateTitle validates a health record title.
func ValidateTitle(title string) error {
	if len(title) > 256 {
		return errors.New("title exceeds maximum length")
	}
	if !utf8.ValidString(title) {
		return errors.New("title must be valid UTF-8")
	}
	return nil
}

package consultation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/niramoy/health-assistant/internal/model"
)

const (
	maxPatientAge     = 150
	minSymptomsLength = 10
	minNameLength     = 2
)

// NormalizeDetails trims the free-text fields of the intake form.
func NormalizeDetails(d model.PatientDetails) model.PatientDetails {
	d.PatientName = strings.TrimSpace(d.PatientName)
	d.PatientGender = strings.TrimSpace(d.PatientGender)
	d.Symptoms = strings.TrimSpace(d.Symptoms)
	return d
}

// ValidateDetails checks the intake form before any external call.
func ValidateDetails(d model.PatientDetails) error {
	d = NormalizeDetails(d)

	if utf8.RuneCountInString(d.PatientName) < minNameLength {
		return fmt.Errorf("%w: patient name must be at least %d characters", ErrValidation, minNameLength)
	}
	if d.PatientGender == "" {
		return fmt.Errorf("%w: patient gender is required", ErrValidation)
	}
	if d.PatientAge < 0 || d.PatientAge > maxPatientAge {
		return fmt.Errorf("%w: patient age must be between 0 and %d", ErrValidation, maxPatientAge)
	}
	if meaningfulLength(d.Symptoms) < minSymptomsLength {
		return fmt.Errorf("%w: symptoms must be at least %d characters", ErrValidation, minSymptomsLength)
	}
	return nil
}

// meaningfulLength counts runes, ignoring punctuation and collapsing whitespace runs.
func meaningfulLength(s string) int {
	n := 0
	prevSpace := true
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		switch {
		case unicode.IsSpace(r):
			if !prevSpace {
				n++
			}
			prevSpace = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
		default:
			n++
			prevSpace = false
		}
	}
	if prevSpace && n > 0 {
		n--
	}
	return n
}

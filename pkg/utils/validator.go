package utils

import (
	"fmt"
	"regexp"
	"time"
)

var (
	emailRegex       = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	controlChars     = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	lineControlChars = regexp.MustCompile(`[\x00-\x08\x0b-\x1f\x7f]`)
)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidateDate checks a YYYY-MM-DD calendar date. The empty string is
// accepted and means the date is unset.
func ValidateDate(value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}
	return nil
}

// SanitizeString removes control characters from single-line input
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}

// SanitizeMultiline removes control characters but keeps newlines and tabs
func SanitizeMultiline(s string) string {
	return lineControlChars.ReplaceAllString(s, "")
}

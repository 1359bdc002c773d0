package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTitleLength bounds article titles in runes
const MaxTitleLength = 300

var roleRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z_]{0,31}$`)

// ValidateTitle checks an article title after trimming
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("title is required")
	}
	if n := utf8.RuneCountInString(title); n > MaxTitleLength {
		return fmt.Errorf("title is %d characters, limit is %d", n, MaxTitleLength)
	}
	return nil
}

// ValidateRole checks the shape of a role name
func ValidateRole(role string) error {
	if !roleRegex.MatchString(role) {
		return fmt.Errorf("invalid role name: %q", role)
	}
	return nil
}

// ParseTimestamp parses an RFC 3339 timestamp; blank input yields nil
func ParseTimestamp(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q, want RFC 3339: %w", raw, err)
	}
	return &t, nil
}

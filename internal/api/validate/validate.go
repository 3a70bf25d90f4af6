package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// disallowedRx rejects characters with injection potential. Everything else,
// including non-Latin scripts, is a legal keyword.
var disallowedRx = regexp.MustCompile("[<>\"\\\\'`]")

var whitespaceRx = regexp.MustCompile(`\s+`)

// Keyword checks a raw search keyword before cleaning:
// - non-blank after trimming
// - at most 50 characters
// - none of < > " \ ' `
// Returns an error describing the first violated rule.
func Keyword(v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("keyword is required")
	}
	if utf8.RuneCountInString(v) > 50 {
		return fmt.Errorf("keyword exceeds 50 characters")
	}
	if disallowedRx.MatchString(v) {
		return fmt.Errorf("keyword contains unsupported special characters")
	}
	return nil
}

// CleanKeyword trims, collapses internal whitespace runs to single spaces and
// strips the disallowed characters. Idempotent: cleaning a cleaned keyword is
// a no-op.
func CleanKeyword(v string) string {
	v = strings.TrimSpace(v)
	v = whitespaceRx.ReplaceAllString(v, " ")
	return disallowedRx.ReplaceAllString(v, "")
}

func Email(v string) error {
	if v == "" {
		return fmt.Errorf("email is required")
	}
	if len(v) > 320 || !emailRx.MatchString(v) {
		return fmt.Errorf("invalid email")
	}
	return nil
}

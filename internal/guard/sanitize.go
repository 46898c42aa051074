package guard

import (
	"strconv"
	"strings"

	"github.com/lib/pq"
)

var commentMarkers = []string{"--", "/*", "*/"}

// CheckInput rejects values containing ';', '=', a comment marker or a
// control character. Unless allowDots is set, a value containing '.' is
// accepted only when it is a number.
func CheckInput(value string, allowDots bool) error {
	return checkInput(value, "input", allowDots)
}

func checkInput(value, context string, allowDots bool) error {
	for _, marker := range commentMarkers {
		if strings.Contains(value, marker) {
			return newValidationError(value, context, "contains comment marker "+marker, ErrUnsafeInput)
		}
	}
	for i := 0; i < len(value); i++ {
		switch c := value[i]; {
		case c == ';':
			return newValidationError(value, context, "contains ';'", ErrUnsafeInput)
		case c == '=':
			return newValidationError(value, context, "contains '='", ErrUnsafeInput)
		case c < 0x20 || c == 0x7f:
			return newValidationError(value, context, "contains a control character", ErrUnsafeInput)
		}
	}
	if !allowDots && strings.Contains(value, ".") && !isNumeric(value) {
		return newValidationError(value, context, "contains '.' outside a numeric value", ErrUnsafeInput)
	}
	return nil
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// SanitizeLiteral returns value as a PostgreSQL string literal. Single quotes
// are doubled; a value containing a backslash becomes an E'' escape string.
func SanitizeLiteral(value string) (string, error) {
	if err := checkInput(value, "literal", false); err != nil {
		return "", err
	}
	// QuoteLiteral prefixes E'' strings with a space.
	return strings.TrimLeft(pq.QuoteLiteral(value), " "), nil
}

// SanitizeIdentifier returns name as a quoted identifier. Each dot-separated
// segment is quoted on its own, so "neon.posts" becomes "neon"."posts".
func SanitizeIdentifier(name string) (string, error) {
	if name == "" {
		return "", newValidationError(name, "identifier", "is empty", ErrUnsafeInput)
	}
	if err := checkInput(name, "identifier", true); err != nil {
		return "", err
	}
	segments := strings.Split(name, ".")
	for i, seg := range segments {
		if seg == "" {
			return "", newValidationError(name, "identifier", "has an empty segment", ErrUnsafeInput)
		}
		segments[i] = pq.QuoteIdentifier(seg)
	}
	return strings.Join(segments, "."), nil
}

// SanitizeName returns name as a single quoted identifier. Qualified names
// are rejected; INSERT and UPDATE target columns use this form.
func SanitizeName(name string) (string, error) {
	if name == "" {
		return "", newValidationError(name, "column", "is empty", ErrUnsafeInput)
	}
	if err := checkInput(name, "column", true); err != nil {
		return "", err
	}
	if strings.Contains(name, ".") {
		return "", newValidationError(name, "column", "must not be qualified", ErrUnsafeInput)
	}
	return pq.QuoteIdentifier(name), nil
}

package errors

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxTextLength is the maximum number of runes allowed in node text.
const MaxTextLength = 10000

// MaxIDLength is the maximum byte length of node and edge identifiers.
const MaxIDLength = 256

// ValidateID validates a node or edge identifier.
// Identifiers are opaque, but they must be non-empty, reasonably short and
// free of control characters so they survive JSON, URLs and storage keys.
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidOperation, "id cannot be empty")
	}

	if len(id) > MaxIDLength {
		return New(ErrCodeInvalidOperation, "id too long (max %d characters)", MaxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidOperation, "id contains invalid control characters")
		}
	}

	if strings.Contains(id, "/") {
		return New(ErrCodeInvalidOperation, "id cannot contain %q", "/")
	}

	return nil
}

// ValidateText validates node text.
//
// The validation rules are:
//   - Text cannot be empty or whitespace only
//   - Maximum length of MaxTextLength runes
//   - No null bytes
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return New(ErrCodeInvalidOperation, "node text cannot be empty")
	}

	if utf8.RuneCountInString(text) > MaxTextLength {
		return New(ErrCodeInvalidOperation, "node text too long (max %d characters)", MaxTextLength)
	}

	if strings.ContainsRune(text, '\x00') {
		return New(ErrCodeInvalidOperation, "node text contains null bytes")
	}

	return nil
}

// ValidateFinite checks that a coordinate is a finite number.
func ValidateFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidOperation, "%s must be finite, got %v", name, v)
	}
	return nil
}

// ValidatePath validates a file path for safety.
// It prevents null bytes and control characters and ensures reasonable path length.
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateURL validates a URL string against a set of allowed schemes.
// With no schemes given, http and https are allowed.
func ValidateURL(rawURL string, schemes ...string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if len(schemes) == 0 {
		schemes = []string{"http", "https"}
	}

	for _, s := range schemes {
		if strings.HasPrefix(rawURL, s+"://") {
			return nil
		}
	}

	return New(ErrCodeInvalidInput, "URL must use one of the schemes: %s", strings.Join(schemes, ", "))
}

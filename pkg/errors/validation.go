package errors

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxTextLength bounds the amount of text accepted for a single program.
const MaxTextLength = 64 * 1024

// ValidateText validates the text to be handwritten.
//
// The validation rules:
//   - Text cannot be empty or whitespace only
//   - Text must be valid UTF-8
//   - Maximum length of [MaxTextLength] bytes
//   - No control characters other than newline, carriage return and tab
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return New(ErrCodeInvalidInput, "text cannot be empty")
	}
	if len(text) > MaxTextLength {
		return New(ErrCodeInvalidInput, "text too long (max %d bytes)", MaxTextLength)
	}
	if !utf8.ValidString(text) {
		return New(ErrCodeInvalidInput, "text is not valid UTF-8")
	}
	for _, r := range text {
		if r == '\n' || r == '\r' || r == '\t' {
			continue
		}
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "text contains control character %U", r)
		}
	}
	return nil
}

// fontNameRegex matches font names usable as file base names.
var fontNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateFontName validates a font name selected by a client.
// Font names resolve to "<dir>/<name>.json", so they must be simple base names.
func ValidateFontName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidFont, "font name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidFont, "font name too long (max 128 characters)")
	}
	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidFont, "font name cannot contain path traversal sequences (..)")
	}
	if !fontNameRegex.MatchString(name) {
		return New(ErrCodeInvalidFont, "invalid font name: %q", name)
	}
	return nil
}

// ValidatePath validates an output path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	return nil
}
